package sleeper

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(ClientConfig{BaseURL: srv.URL})
}

func TestLeague(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/league/12345" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		_, _ = w.Write([]byte(`{"league_id":"12345","name":"Dynasty","sport":"nfl","season":"2025","total_rosters":12}`))
	}))

	league, err := client.League(context.Background(), "12345")
	if err != nil {
		t.Fatalf("league: %v", err)
	}
	if league["name"] != "Dynasty" {
		t.Fatalf("unexpected league: %v", league)
	}
}

func TestRostersAndUsers(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/league/77/rosters":
			_, _ = w.Write([]byte(`[{"roster_id":1,"owner_id":"u1"},{"roster_id":2,"owner_id":"u2"}]`))
		case "/league/77/users":
			_, _ = w.Write([]byte(`[{"user_id":"u1","display_name":"Ana"}]`))
		default:
			http.NotFound(w, r)
		}
	}))

	rosters, err := client.Rosters(context.Background(), "77")
	if err != nil {
		t.Fatalf("rosters: %v", err)
	}
	if len(rosters) != 2 {
		t.Fatalf("expected 2 rosters, got %d", len(rosters))
	}

	users, err := client.Users(context.Background(), "77")
	if err != nil {
		t.Fatalf("users: %v", err)
	}
	if len(users) != 1 || users[0]["display_name"] != "Ana" {
		t.Fatalf("unexpected users: %v", users)
	}
}

func TestLeagueUpstreamError(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))

	if _, err := client.League(context.Background(), "missing"); err == nil {
		t.Fatal("expected error from 404")
	}
}

func TestLeagueTreatsNullBodyAsEmpty(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`null`))
	}))

	league, err := client.League(context.Background(), "42")
	if err != nil {
		t.Fatalf("league: %v", err)
	}
	if league != nil {
		t.Fatalf("expected nil league for null body, got %v", league)
	}
}
