package sqlxrepos

import (
	"testing"
	"time"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"

	"github.com/parishdesk/parishdesk/core"
	"github.com/parishdesk/parishdesk/core/user"
)

func TestGetUserQuery(t *testing.T) {
	tests := []struct {
		name      string
		filter    user.GetFilter
		wantWhere string
		wantArgs  []interface{}
		wantOK    bool
	}{
		{name: "empty", filter: user.GetFilter{}},
		{name: "id", filter: user.GetFilter{ID: "u-1"}, wantWhere: "WHERE id::text = $1 LIMIT 1", wantArgs: []interface{}{"u-1"}, wantOK: true},
		{
			name:      "id and email",
			filter:    user.GetFilter{ID: "u-1", Email: "a@b.c"},
			wantWhere: "WHERE id::text = $1 AND email = $2 LIMIT 1",
			wantArgs:  []interface{}{"u-1", "a@b.c"},
			wantOK:    true,
		},
		{
			name:      "username or email",
			filter:    user.GetFilter{UsernameOrEmail: []string{"ama"}},
			wantWhere: "WHERE ((username <> '' AND username = ANY($1)) OR (email <> '' AND email = ANY($1))) LIMIT 1",
			wantArgs:  []interface{}{pq.Array([]string{"ama"})},
			wantOK:    true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, args, ok := getUserQuery(tt.filter)
			assert.Equal(t, tt.wantOK, ok)
			if !ok {
				return
			}
			assert.Equal(t, "SELECT "+userColumns+" FROM users "+tt.wantWhere, q)
			assert.Equal(t, tt.wantArgs, args)
		})
	}
}

func TestFilterUsersQuery(t *testing.T) {
	active := true
	from := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	q, args := filterUsersQuery(nil, nil)
	assert.Equal(t, "SELECT "+userColumns+" FROM users ORDER BY created_at DESC", q)
	assert.Empty(t, args)

	q, args = filterUsersQuery(
		&user.QueryFilter{Search: "ama", Roles: []string{user.RoleAdmin}, IsActive: &active, CreatedFrom: from},
		[]core.DBOrdering{{Field: "Name", Ascending: true}, {Field: "password_hash"}},
	)
	assert.Equal(t, "SELECT "+userColumns+" FROM users WHERE "+
		"(name ILIKE $1 OR username ILIKE $1 OR email ILIKE $1) AND "+
		"EXISTS (SELECT 1 FROM unnest(roles) AS r WHERE r LIKE ANY($2)) AND "+
		"is_active = $3 AND created_at >= $4 "+
		"ORDER BY name ASC, created_at DESC", q)
	assert.Equal(t, []interface{}{"%ama%", pq.Array([]string{"admin:%"}), true, from}, args)
}

func TestDBUser(t *testing.T) {
	usr := user.User{ID: "u-1", Name: "Ama", CreatedAt: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	dbu := toDBUser(usr)
	assert.Equal(t, pq.StringArray{}, dbu.Roles)
	assert.False(t, dbu.LastLogin.Valid)

	back := dbu.toUser()
	assert.True(t, back.LastLogin.IsZero())
	assert.Equal(t, usr.CreatedAt, back.CreatedAt)
}
