package tests

import (
	"bytes"
	"encoding/json"
	"io/ioutil"
	"net/http"
	"net/http/httptest"
	"net/url"
	"reflect"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"

	. "github.com/parishdesk/parishdesk/apps/api/echo"
	"github.com/parishdesk/parishdesk/core"
	"github.com/parishdesk/parishdesk/core/member"
	"github.com/parishdesk/parishdesk/core/user"
	"github.com/parishdesk/parishdesk/services/email"
	"github.com/parishdesk/parishdesk/services/memberapi"
	"github.com/parishdesk/parishdesk/storage/database/inmem"
	"github.com/parishdesk/parishdesk/storage/session"
	"github.com/parishdesk/parishdesk/tests"
)

var errMissingToken = httpErr{Error: "missing or malformed jwt"}

type testEnv struct {
	app     *Server
	conf    *core.Config
	usrRepo user.Repository
	usrSvc  user.Service
	store   *session.MemoryStore
	members *membersBackend
}

// membersBackend fakes the members REST backend.
type membersBackend struct {
	mu       sync.Mutex
	status   int
	body     string
	tokens   []string
	payloads []map[string]interface{}
	queries  []url.Values
}

func (b *membersBackend) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.tokens = append(b.tokens, strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer "))
	switch r.Method {
	case http.MethodPost:
		var payload map[string]interface{}
		data, _ := ioutil.ReadAll(r.Body)
		_ = json.Unmarshal(data, &payload)
		b.payloads = append(b.payloads, payload)
	case http.MethodGet:
		b.queries = append(b.queries, r.URL.Query())
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(b.status)
	_, _ = w.Write([]byte(b.body))
}

func (b *membersBackend) respond(status int, body string) {
	b.mu.Lock()
	b.status, b.body = status, body
	b.mu.Unlock()
}

func setup(t *testing.T) *testEnv {
	t.Helper()

	backend := &membersBackend{status: http.StatusCreated, body: `{"id": "m-1"}`}
	backendSrv := httptest.NewServer(backend)
	t.Cleanup(backendSrv.Close)

	conf := &core.Config{
		AppName:                   "ParishDesk",
		TestMode:                  true,
		SecretKey:                 "s3cr3t-for-tests",
		FrontendBaseURL:           "http://front.test",
		PasswordResetTimeoutDelta: 24 * time.Hour,
	}
	conf.Server.JWTExpirationDelta = time.Hour
	conf.Server.JWTRefreshExpirationDelta = 4 * time.Hour
	conf.Members.BaseURL = backendSrv.URL
	conf.Members.Timeout = 5 * time.Second
	conf.Wizard = core.WizardConfig{
		Store:         "memory",
		TTL:           time.Hour,
		SubmitLockTTL: 30 * time.Second,
		StripWidth:    720,
		ButtonWidth:   160,
		ButtonGap:     8,
	}

	logger := testutil.NopLogger{}
	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)
	member.InitValidators(validate, translator)
	core.ParseEmailTemplates(conf, logger)

	// set up DB & repos
	usrRepo := inmemdb.NewUserRepository(inmemdb.Open())

	// set up services
	mailSvc := emailsvc.NewConsoleServiceMock(conf, logger)
	usrSvc := user.NewServiceMock(usrRepo, mailSvc, conf, logger)
	store := session.NewMemoryStore(conf.Wizard.TTL, conf.Wizard.SubmitLockTTL)

	// set up server
	app := NewServer(ServerDeps{
		Conf:        conf,
		Logger:      logger,
		UserSvc:     usrSvc,
		Validate:    validate,
		Translator:  translator,
		WizardStore: store,
		Members:     memberapi.NewClient(conf),
	})

	return &testEnv{app: app, conf: conf, usrRepo: usrRepo, usrSvc: usrSvc, store: store, members: backend}
}

type httpErr struct {
	Error string `json:"error"`
}

type httpTest struct {
	name     string
	method   string
	path     string
	body     []byte
	token    string
	wantCode int
	wantData []byte
	extra    interface{}
}

func newAuthRequest(method, path, token string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	var body bytes.Buffer
	if len(data) > 0 {
		body.Write(data[0])
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	return req, rec
}

func newRequest(method, path string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	return newAuthRequest(method, path, "", data...)
}

func getToken(t *testing.T, usr user.User) string {
	claims := GetUserClaims(usr)
	token, err := GenerateToken(claims)
	if err != nil {
		t.Fatalf("getToken() failed: %v", err)
	}
	return token
}

func marchallObj(t *testing.T, obj interface{}) []byte {
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marchallObj() failed: %v", err)
	}
	return data
}

func marchallList(t *testing.T, objs ...interface{}) []byte {
	if objs == nil {
		objs = []interface{}{}
	}
	data, err := json.Marshal(objs)
	if err != nil {
		t.Fatalf("marchallList() failed: %v", err)
	}
	return data
}

func jsonBytesEqual(b1, b2 []byte) (bool, error) {
	var j1, j2 interface{}
	if err := json.Unmarshal(b1, &j1); err != nil {
		return false, err
	}
	if err := json.Unmarshal(b2, &j2); err != nil {
		return false, err
	}
	return reflect.DeepEqual(j1, j2), nil
}

func checkCodeAndData(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	t.Helper()
	if rec.Code != tt.wantCode {
		t.Errorf("failed! code = %v; wantCode %v", rec.Code, tt.wantCode)
	}
	if tt.wantData == nil {
		return
	}
	ok, err := jsonBytesEqual(rec.Body.Bytes(), tt.wantData)
	if err != nil {
		t.Errorf("jsonBytesEqual() failed to compare; err %v", err)
	}
	if !ok {
		t.Errorf("failed! data = %v; wantData %v", rec.Body.String(), string(tt.wantData))
	}
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if !assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), v), rec.Body.String()) {
		t.FailNow()
	}
}
