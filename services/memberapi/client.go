// Package memberapi talks to the external members REST backend.
package memberapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"time"

	"github.com/pkg/errors"
	"github.com/sendgrid/rest"

	"github.com/parishdesk/parishdesk/core"
	"github.com/parishdesk/parishdesk/core/member"
	"github.com/parishdesk/parishdesk/core/wizard"
)

const membersEndpoint = "/members"

// Client calls the members backend on behalf of the authenticated operator.
type Client struct {
	baseURL string
	rest    *rest.Client
}

var _ wizard.MemberCreator = (*Client)(nil)

func NewClient(conf *core.Config) *Client {
	return newClient(conf.Members.BaseURL, conf.Members.Timeout)
}

func newClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: baseURL,
		rest:    &rest.Client{HTTPClient: &http.Client{Timeout: timeout}},
	}
}

func (c *Client) request(method rest.Method, token string, query url.Values, body []byte) rest.Request {
	u := c.baseURL + membersEndpoint
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	headers := map[string]string{"Accept": "application/json"}
	if token != "" {
		headers["Authorization"] = "Bearer " + token
	}
	if body != nil {
		headers["Content-Type"] = "application/json"
	}
	return rest.Request{Method: method, BaseURL: u, Headers: headers, Body: body}
}

// CreateMember posts `payload` once. A non-2xx response carrying the error envelope
// is returned as *member.APIError; anything else is a transport or decoding error.
func (c *Client) CreateMember(ctx context.Context, token string, payload map[string]interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return errors.Wrap(err, "encoding member payload")
	}

	res, err := c.rest.SendWithContext(ctx, c.request(rest.Post, token, nil, body))
	if err != nil {
		return errors.Wrap(err, "posting member")
	}
	if isSuccess(res.StatusCode) {
		return nil
	}

	apiErr, err := member.ParseAPIError(res.StatusCode, []byte(res.Body))
	if err != nil {
		return err
	}
	return apiErr
}

// ListMembers forwards a grid query to the members backend and hands back the raw response.
func (c *Client) ListMembers(ctx context.Context, token string, query url.Values) (int, []byte, error) {
	res, err := c.rest.SendWithContext(ctx, c.request(rest.Get, token, query, nil))
	if err != nil {
		return 0, nil, errors.Wrap(err, "listing members")
	}
	return res.StatusCode, []byte(res.Body), nil
}

func isSuccess(code int) bool {
	return code >= http.StatusOK && code < http.StatusMultipleChoices
}
