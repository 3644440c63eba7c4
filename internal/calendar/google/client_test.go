package google

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
	gcal "google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"

	"github.com/joseph-ayodele/shift-sync/internal/calendar"
)

// fakeAPI serves the handful of Calendar v3 endpoints the client uses.
type fakeAPI struct {
	mu      sync.Mutex
	events  map[string]*gcal.Event
	inserts int
	updates int
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeAPIError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]any{"error": map[string]any{"code": status, "message": msg}})
}

func (f *fakeAPI) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /calendars/{cal}", func(w http.ResponseWriter, r *http.Request) {
		if r.PathValue("cal") != "primary" {
			writeAPIError(w, http.StatusNotFound, "Not Found")
			return
		}
		writeJSON(w, http.StatusOK, gcal.Calendar{Id: "primary", TimeZone: "America/Chicago"})
	})
	mux.HandleFunc("POST /calendars/{cal}/events", func(w http.ResponseWriter, r *http.Request) {
		var ev gcal.Event
		_ = json.NewDecoder(r.Body).Decode(&ev)
		f.mu.Lock()
		defer f.mu.Unlock()
		if _, ok := f.events[ev.Id]; ok {
			writeAPIError(w, http.StatusConflict, "The requested identifier already exists.")
			return
		}
		f.inserts++
		ev.HtmlLink = "https://calendar.example/" + ev.Id
		f.events[ev.Id] = &ev
		writeJSON(w, http.StatusOK, ev)
	})
	mux.HandleFunc("PUT /calendars/{cal}/events/{id}", func(w http.ResponseWriter, r *http.Request) {
		var ev gcal.Event
		_ = json.NewDecoder(r.Body).Decode(&ev)
		f.mu.Lock()
		defer f.mu.Unlock()
		f.updates++
		f.events[r.PathValue("id")] = &ev
		writeJSON(w, http.StatusOK, ev)
	})
	mux.HandleFunc("GET /calendars/{cal}/events", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		items := make([]*gcal.Event, 0, len(f.events))
		for _, ev := range f.events {
			items = append(items, ev)
		}
		items = append(items, &gcal.Event{Id: "other", Summary: "Dentist", Start: &gcal.EventDateTime{Date: "2025-07-15"}})
		writeJSON(w, http.StatusOK, gcal.Events{Items: items})
	})
	mux.HandleFunc("DELETE /calendars/{cal}/events/{id}", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		if _, ok := f.events[r.PathValue("id")]; !ok {
			writeAPIError(w, http.StatusGone, "Resource has been deleted")
			return
		}
		delete(f.events, r.PathValue("id"))
		w.WriteHeader(http.StatusNoContent)
	})
	return mux
}

func newTestClient(t *testing.T) (*Client, *fakeAPI) {
	t.Helper()
	api := &fakeAPI{events: map[string]*gcal.Event{}}
	srv := httptest.NewServer(api.handler())
	t.Cleanup(srv.Close)

	c, err := New(context.Background(), nil,
		option.WithEndpoint(srv.URL+"/"),
		option.WithHTTPClient(srv.Client()),
	)
	require.NoError(t, err)
	return c, api
}

func testEvent(t *testing.T) calendar.Event {
	loc, err := time.LoadLocation("America/Chicago")
	require.NoError(t, err)
	start := time.Date(2025, time.July, 15, 9, 0, 0, 0, loc)
	end := start.Add(8 * time.Hour)
	id := calendar.DeriveEventID("THD", start, end, "primary")
	return calendar.Event{
		ID: id, ICalUID: id + calendar.ICalUIDSuffix, Summary: "THD",
		Description: "Meal: 12:00 PM - 12:30 PM", Start: start, End: end, TimeZone: loc.String(),
	}
}

func TestClientTimeZone(t *testing.T) {
	c, _ := newTestClient(t)
	tz, err := c.TimeZone(context.Background(), "primary")
	require.NoError(t, err)
	assert.Equal(t, "America/Chicago", tz)

	_, err = c.TimeZone(context.Background(), "nope")
	require.Error(t, err)
	assert.Equal(t, calendar.ClassNotFound, calendar.Classify(err))
}

func TestClientUpsertFallsBackToUpdate(t *testing.T) {
	c, api := newTestClient(t)
	ev := testEvent(t)

	saved, err := c.Upsert(context.Background(), "primary", ev)
	require.NoError(t, err)
	assert.Equal(t, ev.ID, saved.ID)
	assert.True(t, ev.Start.Equal(saved.Start))
	assert.NotEmpty(t, saved.HTMLLink)

	_, err = c.Upsert(context.Background(), "primary", ev)
	require.NoError(t, err)
	assert.Equal(t, 1, api.inserts)
	assert.Equal(t, 1, api.updates)
	assert.Equal(t, "confirmed", api.events[ev.ID].Status)
	assert.Len(t, api.events, 1)
}

func TestClientListAndDelete(t *testing.T) {
	c, _ := newTestClient(t)
	ev := testEvent(t)
	_, err := c.Upsert(context.Background(), "primary", ev)
	require.NoError(t, err)

	got, err := c.List(context.Background(), "primary", calendar.ListQuery{
		Title: "THD", From: ev.Start.AddDate(0, 0, -1), To: ev.End.AddDate(0, 0, 1),
	})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, ev.ID, got[0].ID)

	all, err := c.List(context.Background(), "primary", calendar.ListQuery{From: ev.Start, To: ev.End})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	require.NoError(t, c.Delete(context.Background(), "primary", ev.ID))
	err = c.Delete(context.Background(), "primary", ev.ID)
	var apiErr *calendar.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusGone, apiErr.Status)
}

func TestTokenRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "token.json")
	tok := &oauth2.Token{AccessToken: "a", RefreshToken: "r", TokenType: "Bearer", Expiry: time.Now().Add(-time.Hour)}
	require.NoError(t, SaveToken(path, tok))

	got, err := LoadToken(path)
	require.NoError(t, err)
	assert.Equal(t, "r", got.RefreshToken)

	require.NoError(t, SaveToken(path, &oauth2.Token{AccessToken: "a", Expiry: time.Now().Add(-time.Hour)}))
	_, err = LoadToken(path)
	assert.Error(t, err, "expired token without refresh token is unusable")

	_, err = LoadToken(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}
