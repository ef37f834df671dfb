package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Kawdoor/aizer/internal/failure"
	"github.com/Kawdoor/aizer/internal/hierarchy"
	"github.com/Kawdoor/aizer/internal/identity"
	"github.com/Kawdoor/aizer/internal/models"
	"github.com/google/uuid"
)

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func fail(w http.ResponseWriter, status int, message, code string) {
	writeJSON(w, status, map[string]interface{}{"success": false, "error": message, "code": code})
}

func TestNewClient(t *testing.T) {
	client := NewClient("http://example.com///", "a", "r")
	if client.BaseURL != "http://example.com/api" {
		t.Errorf("expected BaseURL 'http://example.com/api', got %s", client.BaseURL)
	}
	if client.HTTPClient == nil || client.HTTPClient.Timeout == 0 {
		t.Error("expected HTTPClient with a timeout")
	}
	access, refresh := client.Tokens()
	if access != "a" || refresh != "r" {
		t.Errorf("unexpected tokens %q %q", access, refresh)
	}
}

func TestClient_ErrorKinds(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		message string
		code    string
		want    failure.Kind
	}{
		{"conflict code", http.StatusConflict, failure.ErrHasChildren.Message, "conflict", failure.KindConflict},
		{"permission code", http.StatusForbidden, "you do not have access to this group", "permission_denied", failure.KindPermission},
		{"validation without code", http.StatusBadRequest, "invalid request body", "", failure.KindValidation},
		{"not found without code", http.StatusNotFound, "item not found", "", failure.KindNotFound},
		{"transient code", http.StatusServiceUnavailable, "failed to reach the data store", "transient", failure.KindTransient},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				fail(w, tt.status, tt.message, tt.code)
			}))
			defer server.Close()

			client := NewClient(server.URL, "token", "")
			err := client.Delete(context.Background(), "/spaces/x", nil)
			if err == nil {
				t.Fatal("expected error")
			}
			if got := failure.KindOf(err); got != tt.want {
				t.Errorf("expected kind %v, got %v", tt.want, got)
			}
			if failure.Message(err) != tt.message {
				t.Errorf("expected message %q, got %q", tt.message, failure.Message(err))
			}
			var apiErr *APIError
			if !errors.As(err, &apiErr) || apiErr.Status != tt.status {
				t.Errorf("expected wrapped APIError with status %d, got %v", tt.status, err)
			}
		})
	}

	t.Run("has-children conflict matches the sentinel", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			fail(w, http.StatusConflict, failure.ErrHasChildren.Message, "conflict")
		}))
		defer server.Close()

		err := NewClient(server.URL, "token", "").DeleteSpace(context.Background(), uuid.New())
		if !errors.Is(err, failure.ErrHasChildren) {
			t.Errorf("expected errors.Is(err, ErrHasChildren), got %v", err)
		}
	})

	t.Run("unreachable server is transient", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		url := server.URL
		server.Close()

		_, err := NewClient(url, "token", "").Groups(context.Background())
		if !failure.Is(err, failure.KindTransient) {
			t.Errorf("expected transient error, got %v", err)
		}
	})
}

type refreshServer struct {
	*httptest.Server
	groupCalls   atomic.Int32
	refreshCalls atomic.Int32
}

// newRefreshServer accepts only "fresh-access" on /api/groups. The refresh
// endpoint accepts "old-refresh" when allowRefresh is set; acceptFresh=false
// makes the retried request fail too.
func newRefreshServer(t *testing.T, allowRefresh, acceptFresh bool) *refreshServer {
	t.Helper()
	rs := &refreshServer{}
	mux := http.NewServeMux()
	mux.HandleFunc("/api/groups", func(w http.ResponseWriter, r *http.Request) {
		rs.groupCalls.Add(1)
		if acceptFresh && r.Header.Get("Authorization") == "Bearer fresh-access" {
			writeJSON(w, http.StatusOK, map[string]interface{}{
				"success": true,
				"data":    []models.Group{{Name: "Home"}},
			})
			return
		}
		fail(w, http.StatusUnauthorized, "session expired, please sign in again", "auth_expired")
	})
	mux.HandleFunc("/api/auth/refresh", func(w http.ResponseWriter, r *http.Request) {
		rs.refreshCalls.Add(1)
		if r.Header.Get("Authorization") != "" {
			t.Error("refresh must not send the access token")
		}
		var body struct {
			RefreshToken string `json:"refreshToken"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		if !allowRefresh || body.RefreshToken != "old-refresh" {
			fail(w, http.StatusUnauthorized, "session expired, please sign in again", "auth_expired")
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"success": true,
			"data": identity.Session{
				AccessToken:  "fresh-access",
				RefreshToken: "fresh-refresh",
				ExpiresAt:    time.Now().Add(time.Hour),
			},
		})
	})
	rs.Server = httptest.NewServer(mux)
	t.Cleanup(rs.Close)
	return rs
}

func TestClient_RefreshOnce(t *testing.T) {
	t.Run("refreshes and retries after auth_expired", func(t *testing.T) {
		server := newRefreshServer(t, true, true)
		client := NewClient(server.URL, "stale-access", "old-refresh")

		var persisted *identity.Session
		client.OnRefresh = func(s *identity.Session) error {
			persisted = s
			return nil
		}

		groups, err := client.Groups(context.Background())
		if err != nil {
			t.Fatalf("Groups() returned error: %v", err)
		}
		if len(groups) != 1 || groups[0].Name != "Home" {
			t.Errorf("unexpected groups %+v", groups)
		}
		if server.refreshCalls.Load() != 1 || server.groupCalls.Load() != 2 {
			t.Errorf("expected 1 refresh and 2 group calls, got %d and %d", server.refreshCalls.Load(), server.groupCalls.Load())
		}
		if persisted == nil || persisted.RefreshToken != "fresh-refresh" {
			t.Errorf("expected rotated session to be persisted, got %+v", persisted)
		}
		access, refresh := client.Tokens()
		if access != "fresh-access" || refresh != "fresh-refresh" {
			t.Errorf("expected rotated tokens, got %q %q", access, refresh)
		}
	})

	t.Run("refused refresh ends the session", func(t *testing.T) {
		server := newRefreshServer(t, false, true)
		client := NewClient(server.URL, "stale-access", "old-refresh")

		_, err := client.Groups(context.Background())
		if !SessionExpired(err) {
			t.Fatalf("expected session expired, got %v", err)
		}
		if failure.Message(err) != failure.ErrSessionExpired.Message {
			t.Errorf("unexpected message %q", failure.Message(err))
		}
		if server.groupCalls.Load() != 1 {
			t.Errorf("expected no retry, got %d group calls", server.groupCalls.Load())
		}
	})

	t.Run("retries at most once", func(t *testing.T) {
		server := newRefreshServer(t, true, false)
		client := NewClient(server.URL, "stale-access", "old-refresh")

		_, err := client.Groups(context.Background())
		if !SessionExpired(err) {
			t.Fatalf("expected auth_expired, got %v", err)
		}
		if server.refreshCalls.Load() != 1 || server.groupCalls.Load() != 2 {
			t.Errorf("expected 1 refresh and 2 group calls, got %d and %d", server.refreshCalls.Load(), server.groupCalls.Load())
		}
	})

	t.Run("no refresh token means no refresh", func(t *testing.T) {
		server := newRefreshServer(t, true, true)
		client := NewClient(server.URL, "stale-access", "")

		if _, err := client.Groups(context.Background()); !SessionExpired(err) {
			t.Fatalf("expected session expired, got %v", err)
		}
		if server.refreshCalls.Load() != 0 {
			t.Errorf("expected no refresh call, got %d", server.refreshCalls.Load())
		}
	})

	t.Run("retry resends the request body", func(t *testing.T) {
		var bodies []string
		mux := http.NewServeMux()
		mux.HandleFunc("/api/groups", func(w http.ResponseWriter, r *http.Request) {
			var body map[string]interface{}
			_ = json.NewDecoder(r.Body).Decode(&body)
			name, _ := body["name"].(string)
			bodies = append(bodies, name)
			if r.Header.Get("Authorization") != "Bearer fresh-access" {
				fail(w, http.StatusUnauthorized, "expired", "auth_expired")
				return
			}
			writeJSON(w, http.StatusCreated, map[string]interface{}{"success": true, "data": models.Group{Name: name}})
		})
		mux.HandleFunc("/api/auth/refresh", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, map[string]interface{}{
				"success": true,
				"data":    identity.Session{AccessToken: "fresh-access", RefreshToken: "fresh-refresh"},
			})
		})
		server := httptest.NewServer(mux)
		defer server.Close()

		group, err := NewClient(server.URL, "stale", "old").CreateGroup(context.Background(), "Garage", nil)
		if err != nil {
			t.Fatalf("CreateGroup() returned error: %v", err)
		}
		if group.Name != "Garage" || len(bodies) != 2 || bodies[1] != "Garage" {
			t.Errorf("expected body resent on retry, got %v", bodies)
		}
	})
}

func TestClient_Login(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/auth/login" || r.Method != http.MethodPost {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body["email"] != "ada@example.com" || body["password"] != "hunter22" {
			fail(w, http.StatusForbidden, "invalid credentials", "permission_denied")
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"success": true,
			"data": identity.Session{
				AccessToken:  "a1",
				RefreshToken: "r1",
				User:         &models.User{Email: "ada@example.com", DisplayName: "Ada"},
			},
		})
	}))
	defer server.Close()

	client := NewClient(server.URL, "", "")
	if _, err := client.Login(context.Background(), "ada@example.com", "wrong"); !failure.Is(err, failure.KindPermission) {
		t.Fatalf("expected permission error for bad password, got %v", err)
	}

	session, err := client.Login(context.Background(), "ada@example.com", "hunter22")
	if err != nil {
		t.Fatalf("Login() returned error: %v", err)
	}
	if session.User == nil || session.User.DisplayName != "Ada" {
		t.Errorf("unexpected session user %+v", session.User)
	}
	if access, refresh := client.Tokens(); access != "a1" || refresh != "r1" {
		t.Errorf("expected login tokens adopted, got %q %q", access, refresh)
	}
}

func TestClient_LoadGroupSnapshot(t *testing.T) {
	groupID := uuid.New()
	spaceID := uuid.New()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/groups/"+groupID.String()+"/snapshot" {
			fail(w, http.StatusNotFound, "not found", "not_found")
			return
		}
		space := models.Space{GroupID: groupID, Name: "Garage"}
		space.ID = spaceID
		inv := models.Inventory{GroupID: groupID, Name: "Toolbox", ParentSpaceID: &spaceID}
		inv.ID = uuid.New()
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"success": true,
			"data": hierarchy.Snapshot{
				GroupID:     groupID,
				Spaces:      []models.Space{space},
				Inventories: []models.Inventory{inv},
				Items:       []models.Item{},
			},
		})
	}))
	defer server.Close()

	client := NewClient(server.URL, "token", "")
	var _ hierarchy.Loader = client

	holder := hierarchy.NewHolder(client)
	defer holder.Close()
	holder.Select(groupID)

	snap, err := holder.Reload(context.Background())
	if err != nil {
		t.Fatalf("Reload() returned error: %v", err)
	}
	if len(snap.Spaces) != 1 || snap.ChildInventoryCount(spaceID) != 1 {
		t.Errorf("unexpected snapshot %+v", snap)
	}

	holder.Select(uuid.New())
	if _, err := holder.Reload(context.Background()); !failure.Is(err, failure.KindNotFound) {
		t.Errorf("expected not_found for unknown group, got %v", err)
	}
}
