package user_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parishdesk/parishdesk/core"
	"github.com/parishdesk/parishdesk/core/user"
	"github.com/parishdesk/parishdesk/services/email"
	"github.com/parishdesk/parishdesk/storage/database/inmem"
	"github.com/parishdesk/parishdesk/tests"
)

const strongPwd = "Zq7#Tvx!9Bp"

func newTestService(t *testing.T) (user.Service, user.Repository) {
	t.Helper()
	conf := &core.Config{
		AppName:                   "ParishDesk",
		TestMode:                  true,
		SecretKey:                 "s3cr3t-for-tests",
		FrontendBaseURL:           "http://front.test",
		PasswordResetTimeoutDelta: 24 * time.Hour,
	}
	core.ParseEmailTemplates(conf, testutil.NopLogger{})
	emailsvc.ClearSentMessages()

	repo := inmemdb.NewUserRepository(inmemdb.Open())
	return user.NewServiceMock(repo, emailsvc.NewConsoleServiceMock(conf, testutil.NopLogger{}), conf, testutil.NopLogger{}), repo
}

func TestService_CreateAndGet(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	usr, err := svc.Create(ctx, user.NewUser{
		Name:     "Ama Owusu",
		Username: "ama",
		Email:    "ama@parish.test",
		Password: strongPwd,
		Roles:    []string{user.RoleSecretary},
	})
	require.NoError(t, err)
	assert.NotEmpty(t, usr.ID)
	assert.True(t, usr.IsActive)
	assert.NoError(t, usr.CheckPassword(strongPwd))
	assert.Equal(t, usr.CreatedAt, usr.UpdatedAt)

	for _, uname := range []string{"ama", "AMA", " ama@parish.test "} {
		got, err := svc.GetByUsernameOrEmail(ctx, uname)
		require.NoError(t, err, uname)
		assert.Equal(t, usr.ID, got.ID)
	}

	_, err = svc.GetByID(ctx, "nope")
	assert.Equal(t, user.ErrNotFound, err)

	uniqueness := []struct {
		name      string
		uname     string
		email     string
		wantErr   error
		wantField string
	}{
		{name: "username taken", uname: "ama", wantErr: user.ErrUsernameExists, wantField: "username"},
		{name: "email taken", email: "ama@parish.test", wantErr: user.ErrEmailExists, wantField: "email"},
	}
	for _, tt := range uniqueness {
		t.Run(tt.name, func(t *testing.T) {
			err := svc.CheckUniqueness(ctx, tt.uname, tt.email)
			vErr, ok := err.(*core.ValidationError)
			require.True(t, ok, "expected a *core.ValidationError, got %v", err)
			assert.Equal(t, tt.wantErr, vErr.Err)
			require.Len(t, vErr.Fields, 1)
			assert.Equal(t, tt.wantField, vErr.Fields[0].Field)
			assert.Equal(t, tt.wantErr.Error(), vErr.Fields[0].Error)
		})
	}
	assert.NoError(t, svc.CheckUniqueness(ctx, "ama", "ama@parish.test", usr))
}

func TestService_Update(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()
	usr := testutil.CreateUser(t, repo, "Ama Owusu", "ama", "ama@parish.test", "old", []string{user.RoleSecretary}, true)

	inactive := false
	updated, err := svc.Update(ctx, usr, user.UpdateUser{Name: "Ama Mensah", Username: "ama", Email: "ama@parish.test", IsActive: &inactive})
	require.NoError(t, err)
	assert.Equal(t, "Ama Mensah", updated.Name)
	assert.False(t, updated.IsActive)
	assert.Equal(t, []string{user.RoleSecretary}, updated.Roles, "nil roles are left untouched")
	assert.NoError(t, updated.CheckPassword("old"), "empty password is left untouched")

	updated, err = svc.Update(ctx, updated, user.UpdateUser{Name: "Ama Mensah", Password: strongPwd, Roles: []string{user.RoleViewer}})
	require.NoError(t, err)
	assert.NoError(t, updated.CheckPassword(strongPwd))
	assert.Equal(t, []string{user.RoleViewer}, updated.Roles)

	stored, err := repo.GetUser(ctx, user.GetFilter{ID: usr.ID})
	require.NoError(t, err)
	assert.Equal(t, updated.Roles, stored.Roles)
}

func TestService_PasswordReset(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()
	usr := testutil.CreateUser(t, repo, "Ama Owusu", "ama", "ama@parish.test", "old", []string{user.RoleSecretary}, true)
	testutil.CreateUser(t, repo, "Esi Mensah", "esi", "esi@parish.test", "old", []string{user.RoleSecretary}, false)

	t.Run("request", func(t *testing.T) {
		emailsvc.ClearSentMessages()
		assert.Equal(t, user.ErrNotFound, svc.RequestPasswordReset(ctx, "nobody@parish.test"))
		assert.Equal(t, user.ErrNotFound, svc.RequestPasswordReset(ctx, "esi@parish.test"), "inactive users get no mail")
		assert.Empty(t, emailsvc.SentMessages)

		require.NoError(t, svc.RequestPasswordReset(ctx, "AMA@parish.test"))
		msg, ok := emailsvc.LastSentMessage()
		require.True(t, ok)
		assert.Equal(t, "ama@parish.test", msg.To[0].Address)
		assert.True(t, strings.Contains(msg.TextContent, "http://front.test/password-reset/"+user.EncodeUID(usr)+"/"))
	})

	token, err := user.MakeResetToken(svc, usr)
	require.NoError(t, err)
	uid := user.EncodeUID(usr)

	tests := []struct {
		name    string
		data    user.ResetUserPassword
		wantErr bool
	}{
		{name: "unknown uid", data: user.ResetUserPassword{UID: user.EncodeUID(user.User{ID: "nope"}), Token: token, Password: strongPwd, PasswordConfirm: strongPwd}, wantErr: true},
		{name: "invalid token", data: user.ResetUserPassword{UID: uid, Token: "abc-def", Password: strongPwd, PasswordConfirm: strongPwd}, wantErr: true},
		{name: "weak password", data: user.ResetUserPassword{UID: uid, Token: token, Password: "12345678", PasswordConfirm: "12345678"}, wantErr: true},
		{name: "valid", data: user.ResetUserPassword{UID: uid, Token: token, Password: strongPwd, PasswordConfirm: strongPwd}},
		{name: "token is single use", data: user.ResetUserPassword{UID: uid, Token: token, Password: strongPwd + "x", PasswordConfirm: strongPwd + "x"}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := svc.ResetPassword(ctx, tt.data)
			if tt.wantErr {
				_, ok := err.(*core.ValidationError)
				assert.True(t, ok, "expected a *core.ValidationError, got %v", err)
				return
			}
			require.NoError(t, err)
			stored, err := repo.GetUser(ctx, user.GetFilter{ID: usr.ID})
			require.NoError(t, err)
			assert.NoError(t, stored.CheckPassword(strongPwd))
		})
	}
}

func TestService_Delete(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()
	ama := testutil.CreateUser(t, repo, "Ama Owusu", "ama", "ama@parish.test", "", nil, true)
	kofi := testutil.CreateUser(t, repo, "Kofi Boateng", "kofi", "kofi@parish.test", "", nil, true)
	esi := testutil.CreateUser(t, repo, "Esi Mensah", "esi", "esi@parish.test", "", nil, true)

	require.NoError(t, svc.Delete(ctx, ama.ID, esi.ID))

	users, err := svc.Query(ctx, nil, nil)
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, kofi.ID, users[0].ID)
}
