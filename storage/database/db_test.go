package database

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parishdesk/parishdesk/core"
)

func TestURL(t *testing.T) {
	conf := &core.Config{Database: core.DatabaseConfig{
		Engine:        "postgres",
		Host:          "db",
		Port:          "5432",
		Name:          "parishdesk",
		User:          "app",
		Password:      "s3cr3t",
		AdminUser:     "root",
		AdminPassword: "r00t",
	}}

	tests := []struct {
		name       string
		dbName     string
		admin      bool
		disableTLS bool
		wantUser   string
		wantSSL    string
	}{
		{name: "app user", dbName: "parishdesk", wantUser: "app", wantSSL: "require"},
		{name: "admin user", dbName: "postgres", admin: true, wantUser: "root", wantSSL: "require"},
		{name: "tls disabled", dbName: "parishdesk", disableTLS: true, wantUser: "app", wantSSL: "disable"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := *conf
			c.Database.DisableTLS = tt.disableTLS

			u, err := url.Parse(URL(tt.dbName, tt.admin, &c))
			require.NoError(t, err)
			assert.Equal(t, "postgres", u.Scheme)
			assert.Equal(t, "db:5432", u.Host)
			assert.Equal(t, "/"+tt.dbName, u.Path)
			assert.Equal(t, tt.wantUser, u.User.Username())
			assert.Equal(t, tt.wantSSL, u.Query().Get("sslmode"))
			assert.Equal(t, "utc", u.Query().Get("timezone"))
		})
	}
}
