package backend

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"eventora/src/internal/core"
	"eventora/src/internal/session"
	"eventora/src/pkg/apperror"
)

func testClient(t *testing.T, handler http.Handler, timeout time.Duration) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	sess, err := session.New("", nil)
	require.NoError(t, err)
	return NewClient(server.URL, timeout, sess)
}

func respond(status int, body string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	})
}

func TestStatusCodeMapping(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   error
	}{
		{"401 maps to auth", http.StatusUnauthorized, `{"message":"token expired"}`, apperror.ErrAuth},
		{"403 maps to auth", http.StatusForbidden, `{"message":"forbidden"}`, apperror.ErrAuth},
		{"404 maps to not found", http.StatusNotFound, `{"message":"Event not found"}`, apperror.ErrNotFound},
		{"409 maps to conflict", http.StatusConflict, `{"message":"Event is at capacity"}`, apperror.ErrConflict},
		{"500 maps to unknown", http.StatusInternalServerError, `{"message":"boom"}`, apperror.ErrUnknown},
		{"400 falls back to unknown", http.StatusBadRequest, `{"message":"bad input"}`, apperror.ErrUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := testClient(t, respond(tt.status, tt.body), 5*time.Second)
			_, err := client.EventByID(context.Background(), "e1")
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.want))
		})
	}
}

func TestBackendMessagePassesThrough(t *testing.T) {
	client := testClient(t, respond(http.StatusConflict, `{"message":"fallback","errors":["Already registered for this event"]}`), 5*time.Second)
	_, err := client.EventByID(context.Background(), "e1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Already registered for this event")
}

func TestRegisterConflictIsAlreadyRegistered(t *testing.T) {
	client := testClient(t, respond(http.StatusConflict, `{"message":"Already registered for this event"}`), 5*time.Second)
	_, err := client.Register(context.Background(), core.Registration{EventID: "e1"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperror.ErrAlreadyRegistered))
}

func TestRegisterCapacityConflictStaysGeneric(t *testing.T) {
	client := testClient(t, respond(http.StatusConflict, `{"message":"Event is at capacity"}`), 5*time.Second)
	_, err := client.Register(context.Background(), core.Registration{EventID: "e1"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperror.ErrConflict))
	assert.False(t, errors.Is(err, apperror.ErrAlreadyRegistered))
}

func TestTimeout(t *testing.T) {
	slow := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(300 * time.Millisecond)
	})
	client := testClient(t, slow, 50*time.Millisecond)
	_, err := client.EventByID(context.Background(), "e1")
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperror.ErrTimeout))
}

func TestNetworkError(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	sess, err := session.New("", nil)
	require.NoError(t, err)
	client := NewClient(server.URL, time.Second, sess)
	server.Close()

	_, err = client.EventByID(context.Background(), "e1")
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperror.ErrNetwork))
}

func TestFilteredEventsQueryEncoding(t *testing.T) {
	var got map[string]string
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/events/filtered", r.URL.Path)
		got = map[string]string{}
		for key, values := range r.URL.Query() {
			got[key] = values[0]
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"items":[],"totalPages":1}`))
	})
	client := testClient(t, handler, 5*time.Second)

	filters := core.FilterOptions{
		Search:   "meetup",
		Category: "2",
		Location: "hall",
		Status:   "upcoming",
		DateFrom: time.Date(2025, time.March, 1, 0, 0, 0, 0, time.Local),
		DateTo:   time.Date(2025, time.March, 31, 0, 0, 0, 0, time.Local),
	}
	_, err := client.FilteredEvents(context.Background(), 2, 6, filters)
	require.NoError(t, err)

	assert.Equal(t, map[string]string{
		"search":   "meetup",
		"category": "2",
		"location": "hall",
		"status":   "upcoming",
		"dateFrom": "2025-03-01",
		"dateTo":   "2025-03-31",
		"page":     "2",
		"pageSize": "6",
	}, got)
}

func TestEmptyFiltersOmitted(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.False(t, q.Has("search"))
		assert.False(t, q.Has("dateFrom"))
		assert.False(t, q.Has("status"))
		_, _ = w.Write([]byte(`{"items":[],"totalPages":1}`))
	})
	client := testClient(t, handler, 5*time.Second)
	_, err := client.FilteredEvents(context.Background(), 1, 6, core.FilterOptions{})
	require.NoError(t, err)
}

func TestBearerTokenAttached(t *testing.T) {
	var auth string
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		_, _ = w.Write([]byte(`[]`))
	})
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	sess := fakeSession("token-abc")
	client := NewClient(server.URL, time.Second, sess)
	_, err := client.UserRegistrations(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Bearer token-abc", auth)
}

// fakeSession satisfies session.Session with a fixed raw token.
type fakeSession string

func (f fakeSession) IsAuthenticated() bool         { return true }
func (f fakeSession) Claims() (*core.Claims, error) { return &core.Claims{}, nil }
func (f fakeSession) Token() string                 { return string(f) }
func (f fakeSession) Login() error                  { return nil }
func (f fakeSession) Logout()                       {}
