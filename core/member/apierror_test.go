package member

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAPIError(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		body       string
		wantDetail string
		wantLines  []string
		wantErr    bool
	}{
		{
			name:       "detail & errors",
			status:     http.StatusUnprocessableEntity,
			body:       `{"detail": "Validation failed", "errors": [{"loc": ["body", "first_name"], "msg": "too short", "input": "J"}]}`,
			wantDetail: "Validation failed",
			wantLines:  []string{"first_name: too short"},
		},
		{
			name:       "detail only",
			status:     http.StatusConflict,
			body:       `{"detail": "Member already exists"}`,
			wantDetail: "Member already exists",
			wantLines:  []string{},
		},
		{
			name:       "detail as a list of problems",
			status:     http.StatusUnprocessableEntity,
			body:       `{"detail": [{"loc": ["body", "contacts", 0, "phone"], "msg": "invalid phone"}, {"loc": ["body"], "msg": "bad body"}]}`,
			wantDetail: "Unprocessable Entity",
			wantLines:  []string{"contacts.0.phone: invalid phone", "bad body"},
		},
		{
			name:       "no envelope",
			status:     http.StatusInternalServerError,
			body:       `{"message": "boom"}`,
			wantDetail: "Internal Server Error",
			wantLines:  []string{},
		},
		{name: "not json", status: http.StatusBadGateway, body: `<html>bad gateway</html>`, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			apiErr, err := ParseAPIError(tt.status, []byte(tt.body))
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.status, apiErr.StatusCode)
			assert.Equal(t, tt.wantDetail, apiErr.Detail)
			assert.Equal(t, tt.wantLines, apiErr.Lines())
		})
	}
}

func TestAPIError_Error(t *testing.T) {
	assert.Equal(t, "Validation failed", (&APIError{StatusCode: 422, Detail: "Validation failed"}).Error())
	assert.Equal(t, "members API responded with status 500", (&APIError{StatusCode: 500}).Error())
}
