package server

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/Self-Labs/pmes/internal/auth"
	"github.com/Self-Labs/pmes/internal/events"
	"github.com/Self-Labs/pmes/internal/model"
	"github.com/Self-Labs/pmes/internal/store"
)

type mockStore struct {
	units     map[string]*model.Unit
	users     map[string]*model.User
	schedules map[string]*model.Schedule
	resets    map[string]*model.PasswordReset
}

func newMockStore() *mockStore {
	return &mockStore{
		units:     make(map[string]*model.Unit),
		users:     make(map[string]*model.User),
		schedules: make(map[string]*model.Schedule),
		resets:    make(map[string]*model.PasswordReset),
	}
}

func (m *mockStore) CreateUnit(_ context.Context, unit *model.Unit) error {
	m.units[unit.ID] = unit
	return nil
}

func (m *mockStore) GetUnit(_ context.Context, id string) (*model.Unit, error) {
	u, ok := m.units[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return u, nil
}

func (m *mockStore) ListUnits(_ context.Context, filter model.UnitFilter) ([]*model.Unit, error) {
	var result []*model.Unit
	for _, u := range m.units {
		if filter.ActiveOnly && !u.Active {
			continue
		}
		result = append(result, u)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (m *mockStore) UpdateUnit(_ context.Context, unit *model.Unit) error {
	if _, ok := m.units[unit.ID]; !ok {
		return sql.ErrNoRows
	}
	m.units[unit.ID] = unit
	return nil
}

func (m *mockStore) DeleteUnit(_ context.Context, id string) error {
	if _, ok := m.units[id]; !ok {
		return sql.ErrNoRows
	}
	delete(m.units, id)
	return nil
}

func (m *mockStore) CreateUser(_ context.Context, user *model.User) error {
	m.users[user.ID] = user
	return nil
}

func (m *mockStore) GetUser(_ context.Context, id string) (*model.User, error) {
	u, ok := m.users[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return u, nil
}

func (m *mockStore) GetUserByEmail(_ context.Context, email string) (*model.User, error) {
	for _, u := range m.users {
		if u.Email == strings.ToLower(email) {
			return u, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *mockStore) ListUsers(_ context.Context, pendingOnly bool) ([]*model.User, error) {
	var result []*model.User
	for _, u := range m.users {
		if pendingOnly && u.Active {
			continue
		}
		result = append(result, u)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (m *mockStore) UpdateUser(_ context.Context, user *model.User) error {
	if _, ok := m.users[user.ID]; !ok {
		return sql.ErrNoRows
	}
	m.users[user.ID] = user
	return nil
}

func (m *mockStore) DeleteUser(_ context.Context, id string) error {
	if _, ok := m.users[id]; !ok {
		return sql.ErrNoRows
	}
	delete(m.users, id)
	return nil
}

func scheduleKey(typ model.ScheduleType, unitID string) string {
	return string(typ) + "|" + unitID
}

func (m *mockStore) GetSchedule(_ context.Context, typ model.ScheduleType, unitID string) (*model.Schedule, error) {
	s, ok := m.schedules[scheduleKey(typ, unitID)]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return s, nil
}

func (m *mockStore) UpsertSchedule(_ context.Context, sched *model.Schedule) (*model.Schedule, error) {
	key := scheduleKey(sched.Type, sched.UnitID)
	clone := *sched
	if existing, ok := m.schedules[key]; ok {
		clone.ID = existing.ID
		clone.CreatedAt = existing.CreatedAt
	}
	m.schedules[key] = &clone
	return &clone, nil
}

func (m *mockStore) ListSchedules(_ context.Context) ([]*model.Schedule, error) {
	var result []*model.Schedule
	for _, s := range m.schedules {
		result = append(result, s)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (m *mockStore) CreatePasswordReset(_ context.Context, reset *model.PasswordReset) error {
	m.resets[reset.TokenHash] = reset
	return nil
}

func (m *mockStore) ConsumePasswordReset(_ context.Context, tokenHash string) (*model.PasswordReset, error) {
	reset, ok := m.resets[tokenHash]
	if !ok || reset.UsedAt != nil || reset.ExpiresAt.Before(time.Now()) {
		return nil, sql.ErrNoRows
	}
	now := time.Now()
	reset.UsedAt = &now
	return reset, nil
}

func (m *mockStore) RunInTransaction(_ context.Context, fn func(tx store.Store) error) error {
	return fn(m)
}

func (m *mockStore) Close() error { return nil }

// capturePublisher records published events for assertions.
type capturePublisher struct {
	topics []string
	events []any
}

func (p *capturePublisher) Publish(_ context.Context, topic string, event any) error {
	p.topics = append(p.topics, topic)
	p.events = append(p.events, event)
	return nil
}

func (p *capturePublisher) Close() error { return nil }

func (p *capturePublisher) last(topic string) any {
	for i := len(p.topics) - 1; i >= 0; i-- {
		if p.topics[i] == topic {
			return p.events[i]
		}
	}
	return nil
}

// newTestServer returns a fresh server, its mock store, the capturing
// publisher, and an HTTP handler with auth enabled.
func newTestServer() (*RosterServer, *mockStore, *capturePublisher, http.Handler) {
	ms := newMockStore()
	pub := &capturePublisher{}
	s := NewRosterServer(ms, pub, auth.NewTokenIssuer("test-secret", time.Hour))
	return s, ms, pub, s.NewHTTPHandler()
}

func ptr(s string) *string { return &s }

// seedUnit inserts a unit directly into the mock store.
func seedUnit(ms *mockStore, id string, parentID *string, sigla string, typ model.UnitType) *model.Unit {
	u := &model.Unit{ID: id, ParentID: parentID, Sigla: sigla, Type: typ, Active: true}
	ms.units[id] = u
	return u
}

// seedUser inserts an active user and returns a valid session token for it.
func seedUser(t *testing.T, s *RosterServer, ms *mockStore, id string, role model.Role, unitID *string) (*model.User, string) {
	t.Helper()
	hash, err := auth.HashPassword("Segredo#1")
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	u := &model.User{
		ID:           id,
		Name:         "User " + id,
		Email:        strings.ToLower(id) + "@pm.example",
		PasswordHash: hash,
		Role:         role,
		UnitID:       unitID,
		Active:       true,
	}
	ms.users[id] = u
	token, err := s.tokens.Issue(u)
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}
	return u, token
}

// doJSON performs an HTTP request with an optional bearer token and JSON
// body, returning the recorder.
func doJSON(t *testing.T, handler http.Handler, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != nil {
		b, _ := json.Marshal(body)
		req = httptest.NewRequest(method, path, bytes.NewReader(b))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

// requireStatus asserts the recorder has the expected HTTP status code.
func requireStatus(t *testing.T, rec *httptest.ResponseRecorder, code int) {
	t.Helper()
	if rec.Code != code {
		t.Fatalf("expected status %d, got %d; body: %s", code, rec.Code, rec.Body.String())
	}
}

// requireErrorCode asserts the response body carries the given error code.
func requireErrorCode(t *testing.T, rec *httptest.ResponseRecorder, code string) {
	t.Helper()
	var body struct {
		Code string `json:"code"`
	}
	decodeJSON(t, rec, &body)
	if body.Code != code {
		t.Fatalf("expected error code %q, got %q; body: %s", code, body.Code, rec.Body.String())
	}
}

// decodeJSON decodes the recorder's response body into v.
func decodeJSON(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.NewDecoder(rec.Body).Decode(v); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
}

func TestAuthMiddleware(t *testing.T) {
	_, _, _, handler := newTestServer()

	t.Run("HealthExempt", func(t *testing.T) {
		rec := doJSON(t, handler, "GET", "/v1/health", "", nil)
		requireStatus(t, rec, http.StatusOK)
	})

	t.Run("AuthEndpointsExempt", func(t *testing.T) {
		rec := doJSON(t, handler, "POST", "/v1/auth/login", "", map[string]string{"email": "x@y.z", "senha": "no"})
		requireStatus(t, rec, http.StatusUnauthorized)
		requireErrorCode(t, rec, codeUnauthorized)
	})

	t.Run("MissingToken", func(t *testing.T) {
		rec := doJSON(t, handler, "GET", "/v1/units", "", nil)
		requireStatus(t, rec, http.StatusUnauthorized)
	})

	t.Run("GarbageToken", func(t *testing.T) {
		rec := doJSON(t, handler, "GET", "/v1/units", "not.a.jwt", nil)
		requireStatus(t, rec, http.StatusUnauthorized)
	})
}

func TestSignupAndApprovalFlow(t *testing.T) {
	s, ms, pub, handler := newTestServer()
	seedUnit(ms, "u-bpm1", nil, "1º BPM", model.UnitBPM)
	_, adminToken := seedUser(t, s, ms, "us-admin", model.RoleAdmin, nil)

	rec := doJSON(t, handler, "POST", "/v1/auth/signup", "", map[string]any{
		"nome":       "Sd Silva",
		"email":      "Silva@PM.example",
		"senha":      "Forte#123",
		"unidade_id": "u-bpm1",
	})
	requireStatus(t, rec, http.StatusCreated)
	var created model.User
	decodeJSON(t, rec, &created)
	if created.Active {
		t.Fatal("signup should create an inactive account")
	}
	if created.Role != model.RoleEditor {
		t.Fatalf("expected editor role, got %s", created.Role)
	}
	if created.Email != "silva@pm.example" {
		t.Fatalf("email not normalized: %s", created.Email)
	}

	ev, ok := pub.last(events.TopicUserSignup).(events.UserSignup)
	if !ok {
		t.Fatal("expected a UserSignup event")
	}
	if ev.UnitSigla != "1º BPM" {
		t.Fatalf("expected resolved unit sigla, got %q", ev.UnitSigla)
	}

	// Pending accounts cannot log in.
	rec = doJSON(t, handler, "POST", "/v1/auth/login", "", map[string]string{"email": "silva@pm.example", "senha": "Forte#123"})
	requireStatus(t, rec, http.StatusForbidden)
	requireErrorCode(t, rec, codePermissionDenied)

	// They show up in the pending list.
	rec = doJSON(t, handler, "GET", "/v1/users?pending=true", adminToken, nil)
	requireStatus(t, rec, http.StatusOK)
	var list struct {
		Users []*model.User `json:"users"`
	}
	decodeJSON(t, rec, &list)
	if len(list.Users) != 1 || list.Users[0].ID != created.ID {
		t.Fatalf("expected pending list with the signup, got %+v", list.Users)
	}

	rec = doJSON(t, handler, "POST", "/v1/users/"+created.ID+"/approve", adminToken, nil)
	requireStatus(t, rec, http.StatusOK)
	if pub.last(events.TopicUserApproved) == nil {
		t.Fatal("expected a UserApproved event")
	}

	// Now login succeeds and the token works.
	rec = doJSON(t, handler, "POST", "/v1/auth/login", "", map[string]string{"email": "silva@pm.example", "senha": "Forte#123"})
	requireStatus(t, rec, http.StatusOK)
	var login struct {
		Token string      `json:"token"`
		User  *model.User `json:"user"`
	}
	decodeJSON(t, rec, &login)
	if login.Token == "" {
		t.Fatal("expected a session token")
	}
	rec = doJSON(t, handler, "GET", "/v1/me", login.Token, nil)
	requireStatus(t, rec, http.StatusOK)
}

func TestSignupValidation(t *testing.T) {
	_, ms, _, handler := newTestServer()
	seedUnit(ms, "u-bpm1", nil, "1º BPM", model.UnitBPM)

	for _, tc := range []struct {
		name string
		body map[string]any
		code string
	}{
		{"WeakPassword", map[string]any{"nome": "A", "email": "a@b.c", "senha": "fraca", "unidade_id": "u-bpm1"}, codeValidation},
		{"MissingUnit", map[string]any{"nome": "A", "email": "a@b.c", "senha": "Forte#123"}, codeValidation},
		{"UnknownUnit", map[string]any{"nome": "A", "email": "a@b.c", "senha": "Forte#123", "unidade_id": "u-nope"}, codeValidation},
		{"BadEmail", map[string]any{"nome": "A", "email": "not-an-email", "senha": "Forte#123", "unidade_id": "u-bpm1"}, codeValidation},
	} {
		t.Run(tc.name, func(t *testing.T) {
			rec := doJSON(t, handler, "POST", "/v1/auth/signup", "", tc.body)
			requireStatus(t, rec, http.StatusBadRequest)
			requireErrorCode(t, rec, tc.code)
		})
	}

	t.Run("DuplicateEmail", func(t *testing.T) {
		body := map[string]any{"nome": "A", "email": "dup@b.c", "senha": "Forte#123", "unidade_id": "u-bpm1"}
		rec := doJSON(t, handler, "POST", "/v1/auth/signup", "", body)
		requireStatus(t, rec, http.StatusCreated)
		rec = doJSON(t, handler, "POST", "/v1/auth/signup", "", body)
		requireStatus(t, rec, http.StatusConflict)
		requireErrorCode(t, rec, codeConflict)
	})
}

func TestLoginBadCredentials(t *testing.T) {
	s, ms, _, handler := newTestServer()
	seedUser(t, s, ms, "us-a", model.RoleEditor, nil)

	for _, tc := range []struct {
		name  string
		email string
		senha string
	}{
		{"UnknownEmail", "nobody@pm.example", "Segredo#1"},
		{"WrongPassword", "us-a@pm.example", "Errada#1"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			rec := doJSON(t, handler, "POST", "/v1/auth/login", "", map[string]string{"email": tc.email, "senha": tc.senha})
			requireStatus(t, rec, http.StatusUnauthorized)
			requireErrorCode(t, rec, codeUnauthorized)
		})
	}
}

func TestPasswordResetFlow(t *testing.T) {
	s, ms, pub, handler := newTestServer()
	user, _ := seedUser(t, s, ms, "us-a", model.RoleEditor, nil)

	rec := doJSON(t, handler, "POST", "/v1/auth/password-reset/request", "", map[string]string{"email": user.Email})
	requireStatus(t, rec, http.StatusAccepted)

	ev, ok := pub.last(events.TopicPasswordResetRequested).(events.PasswordResetRequested)
	if !ok {
		t.Fatal("expected a PasswordResetRequested event")
	}
	if ev.Token == "" || ev.UserID != user.ID {
		t.Fatalf("unexpected reset event: %+v", ev)
	}

	rec = doJSON(t, handler, "POST", "/v1/auth/password-reset", "", map[string]string{"token": ev.Token, "senha": "Nova#Senha1"})
	requireStatus(t, rec, http.StatusOK)

	// Old password no longer works, new one does.
	rec = doJSON(t, handler, "POST", "/v1/auth/login", "", map[string]string{"email": user.Email, "senha": "Segredo#1"})
	requireStatus(t, rec, http.StatusUnauthorized)
	rec = doJSON(t, handler, "POST", "/v1/auth/login", "", map[string]string{"email": user.Email, "senha": "Nova#Senha1"})
	requireStatus(t, rec, http.StatusOK)

	// The token is single-use.
	rec = doJSON(t, handler, "POST", "/v1/auth/password-reset", "", map[string]string{"token": ev.Token, "senha": "Outra#Senha1"})
	requireStatus(t, rec, http.StatusBadRequest)
}

func TestPasswordResetUnknownEmailIsSilent(t *testing.T) {
	_, _, pub, handler := newTestServer()

	rec := doJSON(t, handler, "POST", "/v1/auth/password-reset/request", "", map[string]string{"email": "ghost@pm.example"})
	requireStatus(t, rec, http.StatusAccepted)
	if pub.last(events.TopicPasswordResetRequested) != nil {
		t.Fatal("no event should be published for an unknown email")
	}
}

func TestUnitCRUD(t *testing.T) {
	s, ms, pub, handler := newTestServer()
	_, adminToken := seedUser(t, s, ms, "us-admin", model.RoleAdmin, nil)

	rec := doJSON(t, handler, "POST", "/v1/units", adminToken, map[string]any{"sigla": "1º BPM", "tipo": "BPM"})
	requireStatus(t, rec, http.StatusCreated)
	var bpm model.Unit
	decodeJSON(t, rec, &bpm)
	if !bpm.Active || bpm.Type != model.UnitBPM {
		t.Fatalf("unexpected unit: %+v", bpm)
	}

	rec = doJSON(t, handler, "POST", "/v1/units", adminToken, map[string]any{"sigla": "1ª CIA", "tipo": "CIA", "parent_id": bpm.ID})
	requireStatus(t, rec, http.StatusCreated)
	var cia model.Unit
	decodeJSON(t, rec, &cia)

	t.Run("UnknownParent", func(t *testing.T) {
		rec := doJSON(t, handler, "POST", "/v1/units", adminToken, map[string]any{"sigla": "X", "tipo": "CIA", "parent_id": "u-nope"})
		requireStatus(t, rec, http.StatusBadRequest)
	})

	t.Run("InvalidType", func(t *testing.T) {
		rec := doJSON(t, handler, "POST", "/v1/units", adminToken, map[string]any{"sigla": "X", "tipo": "BRIGADA"})
		requireStatus(t, rec, http.StatusBadRequest)
		requireErrorCode(t, rec, codeValidation)
	})

	t.Run("Tree", func(t *testing.T) {
		rec := doJSON(t, handler, "GET", "/v1/units/tree", adminToken, nil)
		requireStatus(t, rec, http.StatusOK)
		var body struct {
			Tree []*model.UnitNode `json:"tree"`
		}
		decodeJSON(t, rec, &body)
		if len(body.Tree) != 1 || len(body.Tree[0].Children) != 1 {
			t.Fatalf("expected one root with one child, got %+v", body.Tree)
		}
		if body.Tree[0].Children[0].ID != cia.ID {
			t.Fatalf("expected child %s under root", cia.ID)
		}
	})

	t.Run("Update", func(t *testing.T) {
		rec := doJSON(t, handler, "PATCH", "/v1/units/"+cia.ID, adminToken, map[string]any{"sigla": "2ª CIA"})
		requireStatus(t, rec, http.StatusOK)
		var updated model.Unit
		decodeJSON(t, rec, &updated)
		if updated.Sigla != "2ª CIA" {
			t.Fatalf("sigla not updated: %+v", updated)
		}
		if updated.ParentID == nil || *updated.ParentID != bpm.ID {
			t.Fatal("absent parent_id must not change the parent")
		}
	})

	t.Run("SoftDelete", func(t *testing.T) {
		rec := doJSON(t, handler, "DELETE", "/v1/units/"+cia.ID, adminToken, nil)
		requireStatus(t, rec, http.StatusNoContent)
		if pub.last(events.TopicUnitDeleted) == nil {
			t.Fatal("expected a UnitDeleted event")
		}
		// The row survives as inactive.
		if u := ms.units[cia.ID]; u == nil || u.Active {
			t.Fatalf("expected soft-deleted unit, got %+v", ms.units[cia.ID])
		}
		rec = doJSON(t, handler, "GET", "/v1/units?active=true", adminToken, nil)
		var body struct {
			Units []*model.Unit `json:"units"`
		}
		decodeJSON(t, rec, &body)
		if len(body.Units) != 1 {
			t.Fatalf("expected only the root in active list, got %d", len(body.Units))
		}
	})
}

func TestUnitAdminOnly(t *testing.T) {
	s, ms, _, handler := newTestServer()
	unit := seedUnit(ms, "u-bpm1", nil, "1º BPM", model.UnitBPM)
	_, editorToken := seedUser(t, s, ms, "us-editor", model.RoleEditor, &unit.ID)

	for _, tc := range []struct {
		name   string
		method string
		path   string
		body   any
	}{
		{"Create", "POST", "/v1/units", map[string]any{"sigla": "X", "tipo": "CIA"}},
		{"Update", "PATCH", "/v1/units/u-bpm1", map[string]any{"sigla": "X"}},
		{"Delete", "DELETE", "/v1/units/u-bpm1", nil},
	} {
		t.Run(tc.name, func(t *testing.T) {
			rec := doJSON(t, handler, tc.method, tc.path, editorToken, tc.body)
			requireStatus(t, rec, http.StatusForbidden)
			requireErrorCode(t, rec, codePermissionDenied)
		})
	}

	// Reads stay open to editors.
	t.Run("ListAllowed", func(t *testing.T) {
		rec := doJSON(t, handler, "GET", "/v1/units", editorToken, nil)
		requireStatus(t, rec, http.StatusOK)
	})
}

func TestUserAdminEndpoints(t *testing.T) {
	s, ms, _, handler := newTestServer()
	unit := seedUnit(ms, "u-bpm1", nil, "1º BPM", model.UnitBPM)
	admin, adminToken := seedUser(t, s, ms, "us-admin", model.RoleAdmin, nil)
	_, editorToken := seedUser(t, s, ms, "us-editor", model.RoleEditor, &unit.ID)

	t.Run("EditorDenied", func(t *testing.T) {
		rec := doJSON(t, handler, "GET", "/v1/users", editorToken, nil)
		requireStatus(t, rec, http.StatusForbidden)
	})

	t.Run("CreateActiveUser", func(t *testing.T) {
		rec := doJSON(t, handler, "POST", "/v1/users", adminToken, map[string]any{
			"nome": "Cap Souza", "email": "souza@pm.example", "senha": "Forte#123",
			"role": "admin", "unidade_id": unit.ID,
		})
		requireStatus(t, rec, http.StatusCreated)
		var u model.User
		decodeJSON(t, rec, &u)
		if !u.Active || u.Role != model.RoleAdmin {
			t.Fatalf("expected active admin, got %+v", u)
		}
	})

	t.Run("UpdateRoleAndUnbind", func(t *testing.T) {
		rec := doJSON(t, handler, "PATCH", "/v1/users/us-editor", adminToken, map[string]any{
			"role": "admin", "unidade_id": nil,
		})
		requireStatus(t, rec, http.StatusOK)
		var u model.User
		decodeJSON(t, rec, &u)
		if u.Role != model.RoleAdmin || u.UnitID != nil {
			t.Fatalf("expected unbound admin, got %+v", u)
		}
	})

	t.Run("DeleteSelfRejected", func(t *testing.T) {
		rec := doJSON(t, handler, "DELETE", "/v1/users/"+admin.ID, adminToken, nil)
		requireStatus(t, rec, http.StatusBadRequest)
	})

	t.Run("Delete", func(t *testing.T) {
		rec := doJSON(t, handler, "DELETE", "/v1/users/us-editor", adminToken, nil)
		requireStatus(t, rec, http.StatusNoContent)
		rec = doJSON(t, handler, "DELETE", "/v1/users/us-editor", adminToken, nil)
		requireStatus(t, rec, http.StatusNotFound)
	})
}

func TestUpdateOwnProfile(t *testing.T) {
	s, ms, _, handler := newTestServer()
	unit := seedUnit(ms, "u-bpm1", nil, "1BPM", model.UnitBPM)
	user, token := seedUser(t, s, ms, "us-ed", model.RoleEditor, &unit.ID)

	t.Run("NameAndEmail", func(t *testing.T) {
		rec := doJSON(t, handler, http.MethodPatch, "/v1/me", token, map[string]any{
			"nome":  "Sgt. Renamed",
			"email": "Renamed@PM.Example",
		})
		requireStatus(t, rec, http.StatusOK)
		var got model.User
		decodeJSON(t, rec, &got)
		if got.Name != "Sgt. Renamed" {
			t.Errorf("name = %q", got.Name)
		}
		if got.Email != "renamed@pm.example" {
			t.Errorf("email not normalized: %q", got.Email)
		}
	})

	t.Run("PasswordNeedsCurrent", func(t *testing.T) {
		rec := doJSON(t, handler, http.MethodPatch, "/v1/me", token, map[string]any{
			"senha": "NovaSenha#2",
		})
		requireStatus(t, rec, http.StatusBadRequest)
		requireErrorCode(t, rec, codeValidation)

		rec = doJSON(t, handler, http.MethodPatch, "/v1/me", token, map[string]any{
			"senha":       "NovaSenha#2",
			"senha_atual": "wrong",
		})
		requireStatus(t, rec, http.StatusBadRequest)
	})

	t.Run("PasswordChange", func(t *testing.T) {
		rec := doJSON(t, handler, http.MethodPatch, "/v1/me", token, map[string]any{
			"senha":       "NovaSenha#2",
			"senha_atual": "Segredo#1",
		})
		requireStatus(t, rec, http.StatusOK)
		if !auth.CheckPassword(ms.users[user.ID].PasswordHash, "NovaSenha#2") {
			t.Error("stored hash does not match new password")
		}
	})

	t.Run("EmailConflict", func(t *testing.T) {
		seedUser(t, s, ms, "us-other", model.RoleEditor, &unit.ID)
		rec := doJSON(t, handler, http.MethodPatch, "/v1/me", token, map[string]any{
			"email": "us-other@pm.example",
		})
		requireStatus(t, rec, http.StatusConflict)
		requireErrorCode(t, rec, codeConflict)
	})
}
