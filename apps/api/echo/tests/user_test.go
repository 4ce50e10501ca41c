package tests

import (
	"context"
	"encoding/json"
	"net/http"
	"net/mail"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	echoapi "github.com/parishdesk/parishdesk/apps/api/echo"
	"github.com/parishdesk/parishdesk/core/user"
	"github.com/parishdesk/parishdesk/services/email"
	"github.com/parishdesk/parishdesk/tests"
)

func Test_userApi_login(t *testing.T) {
	env := setup(t)
	testutil.CreateUser(t, env.usrRepo, "Ama Owusu", "ama", "ama@parish.test", "Zq7#Tvx!9Bp", []string{user.RoleSecretary}, true)
	testutil.CreateUser(t, env.usrRepo, "Esi Mensah", "esi", "esi@parish.test", "Zq7#Tvx!9Bp", []string{user.RoleViewer}, false)

	reqMsg := "this field is required"
	tests := []httpTest{
		{
			name: "required fields", wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, echoapi.LoginRequest{Username: reqMsg, Password: reqMsg}),
		},
		{
			name: "unknown user", wantCode: http.StatusBadRequest,
			body:     marchallObj(t, echoapi.LoginRequest{Username: "kofi", Password: "Zq7#Tvx!9Bp"}),
			wantData: marchallObj(t, httpErr{Error: "authentication failed"}),
		},
		{
			name: "wrong password", wantCode: http.StatusBadRequest,
			body:     marchallObj(t, echoapi.LoginRequest{Username: "ama", Password: "lol"}),
			wantData: marchallObj(t, httpErr{Error: "authentication failed"}),
		},
		{
			name: "inactive user", wantCode: http.StatusForbidden,
			body:     marchallObj(t, echoapi.LoginRequest{Username: "esi", Password: "Zq7#Tvx!9Bp"}),
			wantData: marchallObj(t, httpErr{Error: "account deactivated"}),
		},
		{name: "by username", wantCode: http.StatusOK, body: marchallObj(t, echoapi.LoginRequest{Username: "ama", Password: "Zq7#Tvx!9Bp"})},
		{name: "by email", wantCode: http.StatusOK, body: marchallObj(t, echoapi.LoginRequest{Username: "AMA@parish.test", Password: "Zq7#Tvx!9Bp"})},
	}
	for _, tt := range tests {
		tt.method = http.MethodPost
		tt.path = "/v1/users/login"

		t.Run(tt.name, func(t *testing.T) {
			req, rec := newRequest(tt.method, tt.path, tt.body)
			env.app.ServeHTTP(rec, req)

			if tt.wantCode == http.StatusOK {
				require.Equal(t, tt.wantCode, rec.Code, rec.Body.String())
				var respData echoapi.LoginResponse
				decodeBody(t, rec, &respData)
				assert.NotEmpty(t, respData.Token)

				usr, err := env.usrRepo.GetUser(context.Background(), user.GetFilter{Email: "ama@parish.test"})
				require.NoError(t, err)
				assert.False(t, usr.LastLogin.IsZero(), "last login recorded")
				return
			}
			checkCodeAndData(t, tt, rec)
		})
	}
}

func Test_userApi_userQuery(t *testing.T) {
	env := setup(t)

	path := func(search, ordering string, isActive *bool, roles ...string) string {
		v := make(url.Values)
		if search != "" {
			v.Add("search", search)
		}
		if ordering != "" {
			v.Add("ordering", ordering)
		}
		if isActive != nil {
			if *isActive {
				v.Add("is_active", "true")
			} else {
				v.Add("is_active", "false")
			}
		}
		for _, r := range roles {
			v.Add("role", r)
		}
		return "/v1/users?" + v.Encode()
	}
	bPtr := func(b bool) *bool { return &b }

	now := time.Now()
	owner := testutil.CreateUser(t, env.usrRepo, "Father Owner", "owner", "owner@parish.test", "", []string{user.RoleAdminOwner}, true, now)
	secretary := testutil.CreateUser(t, env.usrRepo, "Ama Owusu", "ama", "ama@parish.test", "", []string{user.RoleSecretary}, true, now.Add(1*time.Hour))
	viewer := testutil.CreateUser(t, env.usrRepo, "Kofi Boateng", "kofi", "kofi@parish.test", "", []string{user.RoleViewer}, true, now.Add(2*time.Hour))
	retired := testutil.CreateUser(t, env.usrRepo, "Esi Mensah", "esi", "esi@parish.test", "", []string{user.RoleSecretary}, false, now.Add(3*time.Hour))

	ownerToken := getToken(t, owner)
	empty := marchallList(t)

	tests := []httpTest{
		{name: "Auth required", path: "/v1/users", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{
			name: "Admin required", path: "/v1/users", token: getToken(t, secretary), wantCode: http.StatusForbidden,
			wantData: marchallObj(t, httpErr{Error: "permission denied"}),
		},
		{name: "Get all", path: "/v1/users", token: ownerToken, wantData: marchallList(t, retired, viewer, secretary, owner)},
		// filtering
		{name: "search (unknown)", path: path("lol", "", nil), token: ownerToken, wantData: empty},
		{name: "search=OWU", path: path("OWU", "", nil), token: ownerToken, wantData: marchallList(t, secretary)},
		{name: "role=secretary:", path: path("", "", nil, user.RoleSecretary), token: ownerToken, wantData: marchallList(t, retired, secretary)},
		{name: "role=admin:", path: path("", "", nil, user.RoleAdmin), token: ownerToken, wantData: marchallList(t, owner)},
		{name: "is_active=false", path: path("", "", bPtr(false)), token: ownerToken, wantData: marchallList(t, retired)},
		{name: "combo", path: path("ama", "", bPtr(true), user.RoleSecretary), token: ownerToken, wantData: marchallList(t, secretary)},
		// ordering
		{name: "order by created_at", path: path("", "created_at", nil), token: ownerToken, wantData: marchallList(t, owner, secretary, viewer, retired)},
		{name: "order by name", path: path("", "name", nil), token: ownerToken, wantData: marchallList(t, secretary, retired, owner, viewer)},
		{name: "order by -username", path: path("", "-username", nil), token: ownerToken, wantData: marchallList(t, owner, viewer, retired, secretary)},
	}
	for _, tt := range tests {
		tt.method = http.MethodGet
		if tt.wantCode == 0 {
			tt.wantCode = http.StatusOK
		}

		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
			env.app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}

func Test_userApi_userRefreshToken(t *testing.T) {
	env := setup(t)

	retired := testutil.CreateUser(t, env.usrRepo, "Esi Mensah", "esi", "esi@parish.test", "", []string{user.RoleSecretary}, false)
	secretary := testutil.CreateUser(t, env.usrRepo, "Ama Owusu", "ama", "ama@parish.test", "", []string{user.RoleSecretary}, true)

	now := time.Now()
	unrefreshableClaims := &echoapi.Claims{
		StandardClaims: jwt.StandardClaims{
			Issuer:    env.conf.AppName,
			Subject:   secretary.ID,
			ExpiresAt: now.Add(env.conf.Server.JWTExpirationDelta).Unix(),
			IssuedAt:  now.Unix(),
		},
		OrigIssuedAt: now.Add(-2 * env.conf.Server.JWTRefreshExpirationDelta).Unix(), // older than threshold
		IsSecretary:  secretary.IsSecretary(),
		Roles:        secretary.Roles,
	}
	unrefreshableToken, err := echoapi.GenerateToken(unrefreshableClaims)
	require.NoError(t, err)

	tests := []httpTest{
		{name: "Auth required", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{name: "Inactive user not allowed", token: getToken(t, retired), wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "account deactivated"})},
		{name: "Refresh period expired", token: unrefreshableToken, wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "refresh has expired"})},
		{name: "Token refreshed", token: getToken(t, secretary), wantCode: http.StatusOK},
	}
	for _, tt := range tests {
		tt.method = http.MethodPost
		tt.path = "/v1/users/token-refresh"

		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
			env.app.ServeHTTP(rec, req)

			// cannot guess new token.. just check that it's not empty
			if tt.wantCode == http.StatusOK {
				require.Equal(t, tt.wantCode, rec.Code, rec.Body.String())
				var respData echoapi.LoginResponse
				decodeBody(t, rec, &respData)
				assert.NotEmpty(t, respData.Token)
				return
			}
			checkCodeAndData(t, tt, rec)
		})
	}
}

func Test_userApi_userResetPassword(t *testing.T) {
	env := setup(t)

	secretary := testutil.CreateUser(t, env.usrRepo, "Ama Owusu", "ama", "ama@parish.test", "", []string{user.RoleSecretary}, true)
	retired := testutil.CreateUser(t, env.usrRepo, "Esi Mensah", "esi", "esi@parish.test", "", []string{user.RoleSecretary}, false)
	successData := marchallObj(t, echoapi.SuccessResponse{Success: "If the email address supplied is associated with an active account on this system, " +
		"an email will arrive in your inbox shortly with instructions to reset your password."})

	type extraTest struct {
		emailSent bool
		to        mail.Address
	}
	tests := []httpTest{
		{name: "required fields", wantCode: http.StatusBadRequest, wantData: marchallObj(t, echoapi.PasswordResetRequest{Email: "this field is required"})},
		{
			name: "invalid email", wantCode: http.StatusBadRequest, body: marchallObj(t, echoapi.PasswordResetRequest{Email: "lol"}),
			wantData: marchallObj(t, echoapi.PasswordResetRequest{Email: "enter a valid email address"}),
		},
		{
			name: "unknown email", wantCode: http.StatusOK, body: marchallObj(t, echoapi.PasswordResetRequest{Email: "lol@parish.test"}),
			wantData: successData, extra: extraTest{emailSent: false},
		},
		{
			name: "inactive user", wantCode: http.StatusOK, body: marchallObj(t, echoapi.PasswordResetRequest{Email: retired.Email}),
			wantData: successData, extra: extraTest{emailSent: false},
		},
		{
			name: "known email", wantCode: http.StatusOK, body: marchallObj(t, echoapi.PasswordResetRequest{Email: secretary.Email}),
			wantData: successData, extra: extraTest{emailSent: true, to: mail.Address{Name: secretary.Name, Address: secretary.Email}},
		},
	}
	for _, tt := range tests {
		tt.method = http.MethodPost
		tt.path = "/v1/users/password-reset"

		t.Run(tt.name, func(t *testing.T) {
			emailsvc.ClearSentMessages()

			req, rec := newRequest(tt.method, tt.path, tt.body)
			env.app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)

			extra, ok := tt.extra.(extraTest)
			if !ok {
				return
			}
			if !extra.emailSent {
				assert.Empty(t, emailsvc.SentMessages)
				return
			}
			msg, sent := emailsvc.LastSentMessage()
			require.True(t, sent)
			assert.Equal(t, extra.to, msg.To[0])
			assert.Contains(t, msg.TextContent, extra.to.Name)
			assert.Contains(t, msg.HTMLContent, extra.to.Name)
			assert.Contains(t, msg.TextContent, env.conf.FrontendBaseURL+"/password-reset/"+user.EncodeUID(secretary)+"/")
		})
	}
}

func Test_userApi_userConfirmPasswordReset(t *testing.T) {
	env := setup(t)

	secretary := testutil.CreateUser(t, env.usrRepo, "Ama Owusu", "ama", "ama@parish.test", "lol", []string{user.RoleSecretary}, true)
	validUID := user.EncodeUID(secretary)
	validToken, err := user.MakeResetToken(env.usrSvc, secretary)
	require.NoError(t, err)

	reqMsg := "this field is required"
	invalidLink := marchallObj(t, httpErr{Error: "the password reset link is invalid or has expired"})
	tests := []httpTest{
		{
			name: "required fields", wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, user.ResetUserPassword{Token: reqMsg, UID: reqMsg, Password: reqMsg, PasswordConfirm: reqMsg}),
		},
		{
			name: "invalid uid", wantCode: http.StatusBadRequest,
			body:     marchallObj(t, user.ResetUserPassword{Token: "lol", UID: "bG9s", Password: "Zq7#Tvx!9Bp", PasswordConfirm: "Zq7#Tvx!9Bp"}),
			wantData: invalidLink,
		},
		{
			name: "invalid token", wantCode: http.StatusBadRequest,
			body:     marchallObj(t, user.ResetUserPassword{Token: "HE4TS-sigsig-sig", UID: validUID, Password: "Zq7#Tvx!9Bp", PasswordConfirm: "Zq7#Tvx!9Bp"}),
			wantData: invalidLink,
		},
		{
			name: "valid token", wantCode: http.StatusOK,
			body:     marchallObj(t, user.ResetUserPassword{Token: validToken, UID: validUID, Password: "Zq7#Tvx!9Bp", PasswordConfirm: "Zq7#Tvx!9Bp"}),
			wantData: marchallObj(t, echoapi.SuccessResponse{Success: "Password has been reset with the new password."}),
		},
	}
	for _, tt := range tests {
		tt.method = http.MethodPost
		tt.path = "/v1/users/password-reset-confirm"

		t.Run(tt.name, func(t *testing.T) {
			req, rec := newRequest(tt.method, tt.path, tt.body)
			env.app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)

			if tt.wantCode == http.StatusOK {
				refreshed, err := env.usrRepo.GetUser(context.Background(), user.GetFilter{ID: secretary.ID})
				require.NoError(t, err)
				assert.NoError(t, refreshed.CheckPassword("Zq7#Tvx!9Bp"))
			}
		})
	}
}

func Test_userApi_userRetrieveDestroy(t *testing.T) {
	env := setup(t)

	owner := testutil.CreateUser(t, env.usrRepo, "Father Owner", "owner", "owner@parish.test", "", []string{user.RoleAdminOwner}, true)
	admin := testutil.CreateUser(t, env.usrRepo, "Parish Admin", "padmin", "padmin@parish.test", "", []string{user.RoleAdmin}, true)
	secretary := testutil.CreateUser(t, env.usrRepo, "Ama Owusu", "ama", "ama@parish.test", "", []string{user.RoleSecretary}, true)
	viewer := testutil.CreateUser(t, env.usrRepo, "Kofi Boateng", "kofi", "kofi@parish.test", "", []string{user.RoleViewer}, true)

	tests := []httpTest{
		{name: "self", method: http.MethodGet, path: "/v1/users/" + viewer.ID, token: getToken(t, viewer), wantCode: http.StatusOK, wantData: marchallObj(t, viewer)},
		{name: "someone else", method: http.MethodGet, path: "/v1/users/" + secretary.ID, token: getToken(t, viewer), wantCode: http.StatusNotFound},
		{name: "admin reads anyone", method: http.MethodGet, path: "/v1/users/" + secretary.ID, token: getToken(t, admin), wantCode: http.StatusOK, wantData: marchallObj(t, secretary)},
		{name: "unknown id", method: http.MethodGet, path: "/v1/users/nope", token: getToken(t, admin), wantCode: http.StatusNotFound},
		{name: "cannot delete self", method: http.MethodDelete, path: "/v1/users/" + admin.ID, token: getToken(t, admin), wantCode: http.StatusForbidden},
		{name: "cannot delete higher role", method: http.MethodDelete, path: "/v1/users/" + owner.ID, token: getToken(t, admin), wantCode: http.StatusForbidden},
		{name: "delete", method: http.MethodDelete, path: "/v1/users/" + secretary.ID, token: getToken(t, admin), wantCode: http.StatusNoContent},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token)
			env.app.ServeHTTP(rec, req)
			require.Equal(t, tt.wantCode, rec.Code, rec.Body.String())
			if tt.wantData != nil {
				checkCodeAndData(t, tt, rec)
			}
		})
	}

	_, err := env.usrRepo.GetUser(context.Background(), user.GetFilter{ID: secretary.ID})
	assert.Equal(t, user.ErrNotFound, err)
}

func Test_userApi_userDestroyMultiple(t *testing.T) {
	env := setup(t)

	owner := testutil.CreateUser(t, env.usrRepo, "Father Owner", "owner", "owner@parish.test", "", []string{user.RoleAdminOwner}, true)
	admin := testutil.CreateUser(t, env.usrRepo, "Parish Admin", "padmin", "padmin@parish.test", "", []string{user.RoleAdmin}, true)
	secretary := testutil.CreateUser(t, env.usrRepo, "Ama Owusu", "ama", "ama@parish.test", "", []string{user.RoleSecretary}, true)
	viewer := testutil.CreateUser(t, env.usrRepo, "Kofi Boateng", "kofi", "kofi@parish.test", "", []string{user.RoleViewer}, true)

	tests := []struct {
		name     string
		query    string
		wantCode int
		wantGone []string
		wantKept []string
	}{
		{name: "nothing to delete", query: "", wantCode: http.StatusNoContent, wantKept: []string{secretary.ID, viewer.ID}},
		{name: "self", query: "?id=" + secretary.ID + "&id=" + admin.ID, wantCode: http.StatusForbidden, wantKept: []string{secretary.ID, admin.ID}},
		{name: "higher role", query: "?id=" + viewer.ID + "&id=" + owner.ID, wantCode: http.StatusForbidden, wantKept: []string{viewer.ID, owner.ID}},
		{name: "delete", query: "?id=" + secretary.ID + "&id=" + viewer.ID + "&id=nope&id=" + viewer.ID, wantCode: http.StatusNoContent, wantGone: []string{secretary.ID, viewer.ID}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(http.MethodDelete, "/v1/users"+tt.query, getToken(t, admin))
			env.app.ServeHTTP(rec, req)
			require.Equal(t, tt.wantCode, rec.Code, rec.Body.String())

			for _, id := range tt.wantKept {
				_, err := env.usrRepo.GetUser(context.Background(), user.GetFilter{ID: id})
				assert.NoError(t, err, id)
			}
			for _, id := range tt.wantGone {
				_, err := env.usrRepo.GetUser(context.Background(), user.GetFilter{ID: id})
				assert.Equal(t, user.ErrNotFound, err, id)
			}
		})
	}
}

func Test_userApi_queryRoles(t *testing.T) {
	env := setup(t)
	owner := testutil.CreateUser(t, env.usrRepo, "Father Owner", "owner", "owner@parish.test", "", []string{user.RoleAdminOwner}, true)

	req, rec := newAuthRequest(http.MethodGet, "/v1/users/roles", getToken(t, owner))
	env.app.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var roles []user.Role
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &roles))
	assert.Equal(t, user.Roles, roles)
	assert.True(t, strings.HasSuffix(roles[0].Value, ":"))
}
