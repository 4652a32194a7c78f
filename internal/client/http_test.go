package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Self-Labs/pmes/internal/model"
)

// newStubServer returns an httptest server that checks the bearer token and
// routes to the given handlers.
func newStubServer(t *testing.T, token string, routes map[string]http.HandlerFunc) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	for pattern, h := range routes {
		mux.HandleFunc(pattern, h)
	}
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if token != "" {
			if got := r.Header.Get("Authorization"); got != "Bearer "+token {
				t.Errorf("missing or wrong Authorization header: %q", got)
			}
		}
		mux.ServeHTTP(w, r)
	}))
}

func TestHTTPClientLogin(t *testing.T) {
	srv := newStubServer(t, "", map[string]http.HandlerFunc{
		"POST /v1/auth/login": func(w http.ResponseWriter, r *http.Request) {
			var in map[string]string
			_ = json.NewDecoder(r.Body).Decode(&in)
			if in["email"] != "silva@pm.example" || in["senha"] != "Forte#123" {
				t.Errorf("unexpected credentials: %v", in)
			}
			_ = json.NewEncoder(w).Encode(map[string]any{
				"token": "tok-123",
				"user":  &model.User{ID: "us-1", Email: in["email"]},
			})
		},
	})
	defer srv.Close()

	c := NewHTTPClient(srv.URL, "")
	resp, err := c.Login(context.Background(), "silva@pm.example", "Forte#123")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if resp.Token != "tok-123" || resp.User.ID != "us-1" {
		t.Fatalf("unexpected response: %+v", resp)
	}
}

func TestHTTPClientGetSchedule(t *testing.T) {
	srv := newStubServer(t, "tok", map[string]http.HandlerFunc{
		"GET /v1/schedules/daily": func(w http.ResponseWriter, r *http.Request) {
			if got := r.URL.Query().Get("unit_id"); got != "u-bpm1" {
				t.Errorf("expected unit_id=u-bpm1, got %q", got)
			}
			_ = json.NewEncoder(w).Encode(map[string]any{
				"schedule": &model.Schedule{ID: "sc-1", Type: model.TypeDaily, UnitID: "u-bpm1"},
			})
		},
	})
	defer srv.Close()

	c := NewHTTPClient(srv.URL, "tok")
	sched, err := c.GetSchedule(context.Background(), model.TypeDaily, "u-bpm1")
	if err != nil {
		t.Fatalf("get schedule: %v", err)
	}
	if sched == nil || sched.ID != "sc-1" {
		t.Fatalf("unexpected schedule: %+v", sched)
	}
}

func TestHTTPClientGetScheduleNull(t *testing.T) {
	srv := newStubServer(t, "tok", map[string]http.HandlerFunc{
		"GET /v1/schedules/periodic": func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`{"schedule": null}`))
		},
	})
	defer srv.Close()

	c := NewHTTPClient(srv.URL, "tok")
	sched, err := c.GetSchedule(context.Background(), model.TypePeriodic, "")
	if err != nil {
		t.Fatalf("get schedule: %v", err)
	}
	if sched != nil {
		t.Fatalf("expected nil schedule, got %+v", sched)
	}
}

func TestHTTPClientAPIError(t *testing.T) {
	srv := newStubServer(t, "tok", map[string]http.HandlerFunc{
		"PUT /v1/schedules/periodic": func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusForbidden)
			_, _ = w.Write([]byte(`{"code":"permission_denied","error":"access to unit u-x denied"}`))
		},
	})
	defer srv.Close()

	c := NewHTTPClient(srv.URL, "tok")
	_, err := c.SaveSchedule(context.Background(), model.TypePeriodic, &SaveScheduleRequest{UnitID: "u-x"})
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %v", err)
	}
	if apiErr.StatusCode != http.StatusForbidden || apiErr.Code != "permission_denied" {
		t.Fatalf("unexpected error: %+v", apiErr)
	}
}

func TestHTTPClientDeleteNoContent(t *testing.T) {
	srv := newStubServer(t, "tok", map[string]http.HandlerFunc{
		"DELETE /v1/units/u-1": func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusNoContent)
		},
	})
	defer srv.Close()

	c := NewHTTPClient(srv.URL, "tok")
	if err := c.DeleteUnit(context.Background(), "u-1"); err != nil {
		t.Fatalf("delete unit: %v", err)
	}
}

func TestHTTPClientUnitTree(t *testing.T) {
	srv := newStubServer(t, "tok", map[string]http.HandlerFunc{
		"GET /v1/units/tree": func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`{"tree":[{"id":"u-bpm1","sigla":"1º BPM","tipo":"BPM","ativo":true,"filhos":[{"id":"u-cia1","sigla":"1ª CIA","tipo":"CIA","ativo":true,"filhos":[]}]}]}`))
		},
	})
	defer srv.Close()

	c := NewHTTPClient(srv.URL, "tok")
	tree, err := c.UnitTree(context.Background())
	if err != nil {
		t.Fatalf("unit tree: %v", err)
	}
	if len(tree) != 1 || len(tree[0].Children) != 1 || tree[0].Children[0].ID != "u-cia1" {
		t.Fatalf("unexpected tree: %+v", tree)
	}
}
