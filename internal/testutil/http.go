package testutil

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"

	"github.com/dalemusser/swarmhub/internal/app/system/auth"
	"github.com/dalemusser/swarmhub/internal/domain/models"
	"github.com/google/uuid"
)

// TestUser represents the signed-in user of a handler test.
type TestUser struct {
	ID       string
	Name     string
	LoginID  string
	UserType models.UserType
}

// CoordinatorUser returns a TestUser with the coordinator type.
func CoordinatorUser(name string) TestUser {
	return TestUser{ID: uuid.NewString(), Name: name, LoginID: strings.ToLower(name) + "@test", UserType: models.UserTypeCoordinator}
}

// VolunteerUser returns a TestUser with the volunteer type.
func VolunteerUser(name string) TestUser {
	return TestUser{ID: uuid.NewString(), Name: name, LoginID: strings.ToLower(name) + "@test", UserType: models.UserTypeVolunteer}
}

// WithUser injects user into the request context, bypassing the session
// middleware.
func WithUser(r *http.Request, user TestUser) *http.Request {
	return auth.WithTestUser(r, &auth.SessionUser{
		ID:       user.ID,
		Name:     user.Name,
		LoginID:  user.LoginID,
		UserType: user.UserType,
	})
}

// NewJSONRequest creates a request with body encoded as JSON.
func NewJSONRequest(method, target string, body any) *http.Request {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", "application/json")
	return req
}

// ResponseRecorder wraps httptest.ResponseRecorder with helper methods.
type ResponseRecorder struct {
	*httptest.ResponseRecorder
}

// NewRecorder creates a new ResponseRecorder.
func NewRecorder() *ResponseRecorder {
	return &ResponseRecorder{httptest.NewRecorder()}
}

// AssertStatus checks the response status code.
func (r *ResponseRecorder) AssertStatus(t interface{ Errorf(string, ...any) }, expected int) {
	if r.Code != expected {
		t.Errorf("status code: got %d, want %d (body: %s)", r.Code, expected, strings.TrimSpace(r.Body.String()))
	}
}

// DecodeJSON decodes the response body into v.
func (r *ResponseRecorder) DecodeJSON(t interface{ Fatalf(string, ...any) }, v any) {
	if err := json.Unmarshal(r.Body.Bytes(), v); err != nil {
		t.Fatalf("decode response: %v (body: %s)", err, r.Body.String())
	}
}
