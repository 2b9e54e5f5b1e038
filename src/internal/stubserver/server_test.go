package stubserver

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"eventora/src/internal/authz"
	"eventora/src/internal/core"
)

var testNow = time.Date(2025, time.March, 10, 10, 0, 0, 0, time.Local)

func day(offset int) time.Time {
	d := testNow.AddDate(0, 0, offset)
	return time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, d.Location())
}

func newServer(t *testing.T) (*Server, *httptest.Server) {
	t.Helper()
	stub := New()
	stub.SetNow(func() time.Time { return testNow })
	server := httptest.NewServer(stub.Router())
	t.Cleanup(server.Close)
	return stub, server
}

func request(t *testing.T, method, url, token string, body any) *http.Response {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(buf)
	} else {
		reader = bytes.NewReader(nil)
	}
	req, err := http.NewRequest(method, url, reader)
	require.NoError(t, err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestRequiresToken(t *testing.T) {
	_, server := newServer(t)

	resp := request(t, http.MethodGet, server.URL+"/events/filtered", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = request(t, http.MethodGet, server.URL+"/events/filtered", "garbage", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestRoleEnforcement(t *testing.T) {
	_, server := newServer(t)
	public, err := MintToken("user-1", "Demo", "d@example.com", "5550100", authz.RolePublicUser)
	require.NoError(t, err)

	resp := request(t, http.MethodPost, server.URL+"/events", public, map[string]any{})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func registerPayload(eventID string) map[string]core.Registration {
	return map[string]core.Registration{"newRegistrationDto": {
		EventID:            eventID,
		RegisteredUserName: "Demo",
		Email:              "d@example.com",
		PhoneNumber:        "5550100",
	}}
}

func TestCapacityEnforced(t *testing.T) {
	stub, server := newServer(t)
	eventID := stub.AddEvent(core.Event{
		Title: "Tiny", Description: "one seat", Location: "Hall",
		Organizer: "Org", Capacity: 1,
		EventDate: day(7), EventTime: "10:00", CutoffDate: day(5),
	})

	first, err := MintToken("user-1", "A", "a@example.com", "5550100", authz.RolePublicUser)
	require.NoError(t, err)
	second, err := MintToken("user-2", "B", "b@example.com", "5550101", authz.RolePublicUser)
	require.NoError(t, err)

	resp := request(t, http.MethodPost, server.URL+"/registrations", first, registerPayload(eventID))
	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = request(t, http.MethodPost, server.URL+"/registrations", second, registerPayload(eventID))
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestRemainingSpotsDerived(t *testing.T) {
	stub, server := newServer(t)
	eventID := stub.AddEvent(core.Event{
		Title: "Meetup", Description: "spots", Location: "Hall",
		Organizer: "Org", Capacity: 10,
		EventDate: day(7), EventTime: "10:00", CutoffDate: day(5),
	})
	token, err := MintToken("user-1", "A", "a@example.com", "5550100", authz.RolePublicUser)
	require.NoError(t, err)

	resp := request(t, http.MethodPost, server.URL+"/registrations", token, registerPayload(eventID))
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = request(t, http.MethodGet, server.URL+"/events/"+eventID, token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var event core.Event
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&event))
	assert.Equal(t, 9, event.RemainingSpots)
}

func TestDeleteCascadesRegistrations(t *testing.T) {
	stub, server := newServer(t)
	eventID := stub.AddEvent(core.Event{
		Title: "Doomed", Description: "gone soon", Location: "Hall",
		Organizer: "Org", Capacity: 10,
		EventDate: day(7), EventTime: "10:00", CutoffDate: day(5),
	})

	public, err := MintToken("user-1", "A", "a@example.com", "5550100", authz.RolePublicUser)
	require.NoError(t, err)
	admin, err := MintToken("admin-1", "Admin", "admin@example.com", "5550102", authz.RoleAdmin)
	require.NoError(t, err)

	resp := request(t, http.MethodPost, server.URL+"/registrations", public, registerPayload(eventID))
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = request(t, http.MethodDelete, server.URL+"/events/"+eventID, admin, nil)
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = request(t, http.MethodGet, server.URL+"/user/registrations", public, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var regs []core.Registration
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&regs))
	assert.Empty(t, regs)
}

func TestPaginationMath(t *testing.T) {
	stub, server := newServer(t)
	for i := 0; i < 14; i++ {
		stub.AddEvent(core.Event{
			Title: fmt.Sprintf("Event %02d", i), Description: "seeded", Location: "Hall",
			Organizer: "Org", Capacity: 10,
			EventDate: day(i + 1), EventTime: "10:00", CutoffDate: day(i),
		})
	}
	token, err := MintToken("user-1", "A", "a@example.com", "5550100", authz.RolePublicUser)
	require.NoError(t, err)

	resp := request(t, http.MethodGet, server.URL+"/events/filtered?page=3&pageSize=6", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var page core.EventPage
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&page))
	assert.Equal(t, 3, page.TotalPages)
	assert.Len(t, page.Items, 2)

	// Past the last page: empty items, same page count.
	resp = request(t, http.MethodGet, server.URL+"/events/filtered?page=4&pageSize=6", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&page))
	assert.Equal(t, 3, page.TotalPages)
	assert.Empty(t, page.Items)
}
