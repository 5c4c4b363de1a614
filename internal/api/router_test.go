package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/inventory-app/inventory-system/internal/core/domain"
	"github.com/inventory-app/inventory-system/internal/core/service"
	redisdb "github.com/inventory-app/inventory-system/internal/infrastructure/db/redis"
	"github.com/inventory-app/inventory-system/internal/infrastructure/queue"
	"github.com/inventory-app/inventory-system/internal/pkg/token"
)

// --- in-memory stores ---

type memUsers struct {
	mu     sync.Mutex
	byName map[string]*domain.User
}

func (m *memUsers) Create(_ context.Context, u *domain.User) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byName[u.Username]; ok {
		return nil, domain.ErrUserExists
	}
	saved := *u
	saved.ID = fmt.Sprintf("%024x", len(m.byName)+1)
	m.byName[u.Username] = &saved
	return &saved, nil
}

func (m *memUsers) FindByUsername(_ context.Context, username string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.byName[username]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return u, nil
}

// checkID rejects ids the document store could not parse, like the Mongo
// repositories do.
func checkID(id string) error {
	if !primitive.IsValidObjectID(id) {
		return fmt.Errorf("%w: %q", domain.ErrInvalidID, id)
	}
	return nil
}

type memItems struct {
	mu    sync.Mutex
	seq   int
	order []string
	byID  map[string]*domain.Item
}

func (m *memItems) List(context.Context) ([]*domain.Item, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*domain.Item, 0, len(m.order))
	for _, id := range m.order {
		item := *m.byID[id]
		out = append(out, &item)
	}
	return out, nil
}

func (m *memItems) Create(_ context.Context, item *domain.Item) (*domain.Item, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	saved := *item
	saved.ID = fmt.Sprintf("%024x", m.seq)
	m.byID[saved.ID] = &saved
	m.order = append(m.order, saved.ID)
	out := saved
	return &out, nil
}

func (m *memItems) FindByID(_ context.Context, id string) (*domain.Item, error) {
	if err := checkID(id); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	item, ok := m.byID[id]
	if !ok {
		return nil, domain.ErrItemNotFound
	}
	out := *item
	return &out, nil
}

func (m *memItems) Update(_ context.Context, id, name string, quantity int) (*domain.Item, error) {
	if err := checkID(id); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	item, ok := m.byID[id]
	if !ok {
		return nil, domain.ErrItemNotFound
	}
	item.Name = name
	item.Quantity = quantity
	out := *item
	return &out, nil
}

func (m *memItems) Delete(_ context.Context, id string) (bool, error) {
	if err := checkID(id); err != nil {
		return false, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byID[id]; !ok {
		return false, nil
	}
	delete(m.byID, id)
	for i, v := range m.order {
		if v == id {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
	return true, nil
}

type memAudits struct {
	mu     sync.Mutex
	events []domain.ItemEvent
}

func (m *memAudits) Insert(_ context.Context, e *domain.ItemEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, *e)
	return nil
}

func (m *memAudits) ListByItem(_ context.Context, itemID string) ([]*domain.ItemEvent, error) {
	if err := checkID(itemID); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*domain.ItemEvent
	for i := range m.events {
		if m.events[i].ItemID == itemID {
			e := m.events[i]
			out = append(out, &e)
		}
	}
	return out, nil
}

// --- harness ---

type testServer struct {
	e          *echo.Echo
	dispatcher *queue.Dispatcher
	audits     *memAudits
	items      *memItems
	redis      *miniredis.Miniredis
}

func newTestServer(t *testing.T, rateLimit float64) *testServer {
	t.Helper()
	log := zerolog.Nop()

	tokens, err := token.NewManager("test-secret", time.Hour)
	if err != nil {
		t.Fatalf("token manager: %v", err)
	}

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis: %v", err)
	}
	t.Cleanup(mr.Close)
	rdb, err := redisdb.Connect(context.Background(), redisdb.Config{Addr: mr.Addr()})
	if err != nil {
		t.Fatalf("redis connect: %v", err)
	}
	t.Cleanup(func() { _ = rdb.Close() })

	audits := &memAudits{}
	dispatcher := queue.NewDispatcher(2, audits, log)
	dispatcher.Start(context.Background())
	t.Cleanup(dispatcher.Stop)

	authSvc := service.NewAuthService(&memUsers{byName: map[string]*domain.User{}}, tokens, log)
	items := &memItems{byID: map[string]*domain.Item{}}
	itemSvc := service.NewItemService(items, audits, dispatcher, redisdb.NewIdempotencyStore(rdb), log)

	registry := prometheus.NewRegistry()
	e := NewRouter(Deps{
		AuthService:   authSvc,
		ItemService:   itemSvc,
		Logger:        log,
		AuthRateLimit: rateLimit,
		Registerer:    registry,
		Gatherer:      registry,
	})
	return &testServer{e: e, dispatcher: dispatcher, audits: audits, items: items, redis: mr}
}

func (s *testServer) do(t *testing.T, method, path, body, token string, headers ...string) (int, []byte) {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)
	return rec.Code, rec.Body.Bytes()
}

func decode[T any](t *testing.T, raw []byte) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		t.Fatalf("invalid json %q: %v", raw, err)
	}
	return v
}

type itemJSON struct {
	MongoID  string `json:"_id"`
	ID       string `json:"id"`
	Name     string `json:"name"`
	Quantity int    `json:"quantity"`
}

func TestRouter_EndToEnd(t *testing.T) {
	s := newTestServer(t, 0)

	code, body := s.do(t, http.MethodPost, "/api/auth/register", `{"username":"alice","password":"pw1"}`, "")
	if code != http.StatusOK {
		t.Fatalf("register: expected 200, got %d %s", code, body)
	}

	code, body = s.do(t, http.MethodPost, "/api/auth/register", `{"username":"alice","password":"pw2"}`, "")
	if code != http.StatusBadRequest {
		t.Fatalf("duplicate register: expected 400, got %d", code)
	}
	if msg := decode[errorResponse](t, body).Message; msg == "" {
		t.Fatalf("duplicate register: expected message")
	}

	code, body = s.do(t, http.MethodPost, "/api/auth/login", `{"username":"alice","password":"pw1"}`, "")
	if code != http.StatusOK {
		t.Fatalf("login: expected 200, got %d %s", code, body)
	}
	login := decode[map[string]string](t, body)
	tok := login["token"]
	if tok == "" || login["message"] == "" {
		t.Fatalf("login: unexpected body %s", body)
	}

	code, body = s.do(t, http.MethodPost, "/api/items", `{"name":"Widget","quantity":5}`, tok)
	if code != http.StatusOK {
		t.Fatalf("create: expected 200, got %d %s", code, body)
	}
	created := decode[itemJSON](t, body)
	if created.ID == "" || created.ID != created.MongoID {
		t.Fatalf("create: unexpected ids %+v", created)
	}

	code, body = s.do(t, http.MethodGet, "/api/items", "", tok)
	if code != http.StatusOK {
		t.Fatalf("list: expected 200, got %d", code)
	}
	items := decode[[]itemJSON](t, body)
	if len(items) != 1 || items[0].ID != created.ID || items[0].Name != "Widget" || items[0].Quantity != 5 {
		t.Fatalf("list: unexpected items %+v", items)
	}

	code, body = s.do(t, http.MethodPut, "/api/items/"+created.ID, `{"name":"Widget","quantity":9}`, tok)
	if code != http.StatusOK {
		t.Fatalf("update: expected 200, got %d %s", code, body)
	}
	if got := decode[itemJSON](t, body); got.Quantity != 9 {
		t.Fatalf("update: expected quantity 9, got %d", got.Quantity)
	}

	code, body = s.do(t, http.MethodDelete, "/api/items/"+created.ID, "", tok)
	if code != http.StatusOK {
		t.Fatalf("delete: expected 200, got %d", code)
	}
	if msg := decode[map[string]string](t, body)["message"]; msg != "Item deleted" {
		t.Fatalf("delete: unexpected message %q", msg)
	}

	code, body = s.do(t, http.MethodGet, "/api/items", "", tok)
	if code != http.StatusOK {
		t.Fatalf("list after delete: expected 200, got %d", code)
	}
	if items := decode[[]itemJSON](t, body); len(items) != 0 {
		t.Fatalf("list after delete: expected empty, got %+v", items)
	}

	s.dispatcher.Stop()
	code, body = s.do(t, http.MethodGet, "/api/items/"+created.ID+"/history", "", tok)
	if code != http.StatusOK {
		t.Fatalf("history: expected 200, got %d", code)
	}
	history := decode[[]map[string]any](t, body)
	if len(history) != 3 {
		t.Fatalf("history: expected 3 events, got %d", len(history))
	}
	for i, want := range []string{"created", "updated", "deleted"} {
		if history[i]["action"] != want {
			t.Fatalf("history[%d]: expected %s, got %v", i, want, history[i]["action"])
		}
	}
}

func TestRouter_LoginFailures(t *testing.T) {
	s := newTestServer(t, 0)
	s.do(t, http.MethodPost, "/api/auth/register", `{"username":"alice","password":"pw1"}`, "")

	for _, body := range []string{
		`{"username":"alice","password":"wrong"}`,
		`{"username":"nobody","password":"pw1"}`,
		`{"username":"alice"}`,
	} {
		code, _ := s.do(t, http.MethodPost, "/api/auth/login", body, "")
		if code != http.StatusBadRequest {
			t.Fatalf("%s: expected 400, got %d", body, code)
		}
	}
}

func TestRouter_ItemsRequireToken(t *testing.T) {
	s := newTestServer(t, 0)

	if code, _ := s.do(t, http.MethodGet, "/api/items", "", ""); code != http.StatusUnauthorized {
		t.Fatalf("no token: expected 401, got %d", code)
	}
	if code, _ := s.do(t, http.MethodGet, "/api/items", "", "garbage"); code != http.StatusForbidden {
		t.Fatalf("bad token: expected 403, got %d", code)
	}

	other, _ := token.NewManager("another-secret", time.Hour)
	forged, _ := other.Issue("someone")
	if code, _ := s.do(t, http.MethodPost, "/api/items", `{"name":"x","quantity":1}`, forged); code != http.StatusForbidden {
		t.Fatalf("forged token: expected 403, got %d", code)
	}
}

func loginToken(t *testing.T, s *testServer) string {
	t.Helper()
	s.do(t, http.MethodPost, "/api/auth/register", `{"username":"bob","password":"pw"}`, "")
	_, body := s.do(t, http.MethodPost, "/api/auth/login", `{"username":"bob","password":"pw"}`, "")
	return decode[map[string]string](t, body)["token"]
}

func TestRouter_ItemErrors(t *testing.T) {
	s := newTestServer(t, 0)
	tok := loginToken(t, s)

	missing := fmt.Sprintf("%024x", 999)
	if code, _ := s.do(t, http.MethodPut, "/api/items/"+missing, `{"name":"x","quantity":1}`, tok); code != http.StatusNotFound {
		t.Fatalf("update missing: expected 404, got %d", code)
	}
	if code, _ := s.do(t, http.MethodDelete, "/api/items/"+missing, "", tok); code != http.StatusOK {
		t.Fatalf("delete missing: expected 200, got %d", code)
	}
	if code, _ := s.do(t, http.MethodPost, "/api/items", `{"quantity":1}`, tok); code != http.StatusBadRequest {
		t.Fatalf("create without name: expected 400, got %d", code)
	}
	if code, _ := s.do(t, http.MethodPost, "/api/items", `{"name":"x"}`, tok); code != http.StatusBadRequest {
		t.Fatalf("create without quantity: expected 400, got %d", code)
	}
}

func TestRouter_IdempotentCreate(t *testing.T) {
	s := newTestServer(t, 0)
	tok := loginToken(t, s)

	_, first := s.do(t, http.MethodPost, "/api/items", `{"name":"Bolt","quantity":3}`, tok, "Idempotency-Key", "abc-123")
	_, second := s.do(t, http.MethodPost, "/api/items", `{"name":"Bolt","quantity":3}`, tok, "Idempotency-Key", "abc-123")

	if decode[itemJSON](t, first).ID != decode[itemJSON](t, second).ID {
		t.Fatalf("replay created a new item")
	}
	_, body := s.do(t, http.MethodGet, "/api/items", "", tok)
	if items := decode[[]itemJSON](t, body); len(items) != 1 {
		t.Fatalf("expected 1 item, got %d", len(items))
	}
}

func TestRouter_DeleteUnknownItemLeavesNoHistory(t *testing.T) {
	s := newTestServer(t, 0)
	tok := loginToken(t, s)

	never := fmt.Sprintf("%024x", 4242)
	code, body := s.do(t, http.MethodDelete, "/api/items/"+never, "", tok)
	if code != http.StatusOK {
		t.Fatalf("delete: expected 200, got %d", code)
	}
	if msg := decode[map[string]string](t, body)["message"]; msg != "Item deleted" {
		t.Fatalf("delete: unexpected message %q", msg)
	}

	s.dispatcher.Stop()
	code, body = s.do(t, http.MethodGet, "/api/items/"+never+"/history", "", tok)
	if code != http.StatusOK {
		t.Fatalf("history: expected 200, got %d", code)
	}
	if history := decode[[]map[string]any](t, body); len(history) != 0 {
		t.Fatalf("history: expected no events, got %+v", history)
	}
}

func TestRouter_MalformedID(t *testing.T) {
	s := newTestServer(t, 0)
	tok := loginToken(t, s)

	cases := []struct {
		method, path, body string
	}{
		{http.MethodPut, "/api/items/not-an-id", `{"name":"x","quantity":1}`},
		{http.MethodDelete, "/api/items/not-an-id", ""},
		{http.MethodGet, "/api/items/not-an-id/history", ""},
	}
	for _, tc := range cases {
		code, body := s.do(t, tc.method, tc.path, tc.body, tok)
		if code != http.StatusBadRequest {
			t.Fatalf("%s %s: expected 400, got %d %s", tc.method, tc.path, code, body)
		}
		if msg := decode[errorResponse](t, body).Message; !strings.HasPrefix(msg, domain.ErrInvalidID.Error()) {
			t.Fatalf("%s %s: unexpected message %q", tc.method, tc.path, msg)
		}
	}
}

func TestRouter_IdempotentCreateInFlight(t *testing.T) {
	s := newTestServer(t, 0)
	tok := loginToken(t, s)
	if err := s.redis.Set("idem:item:busy", "pending"); err != nil {
		t.Fatalf("seed key: %v", err)
	}

	code, body := s.do(t, http.MethodPost, "/api/items", `{"name":"Bolt","quantity":3}`, tok, "Idempotency-Key", "busy")
	if code != http.StatusConflict {
		t.Fatalf("expected 409, got %d %s", code, body)
	}
	if len(s.items.byID) != 0 {
		t.Fatalf("in-flight key must not create an item")
	}
}

func TestRouter_IdempotentCreateConcurrent(t *testing.T) {
	s := newTestServer(t, 0)
	tok := loginToken(t, s)

	const requests = 16
	type result struct {
		code int
		body []byte
	}
	results := make([]result, requests)
	start := make(chan struct{})
	var wg sync.WaitGroup
	for i := range requests {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			code, body := s.do(t, http.MethodPost, "/api/items", `{"name":"Bolt","quantity":3}`, tok, "Idempotency-Key", "race-1")
			results[i] = result{code: code, body: body}
		}()
	}
	close(start)
	wg.Wait()

	var id string
	for _, r := range results {
		switch r.code {
		case http.StatusOK:
			got := decode[itemJSON](t, r.body).ID
			if id == "" {
				id = got
			}
			if got != id {
				t.Fatalf("same key produced items %s and %s", id, got)
			}
		case http.StatusConflict:
		default:
			t.Fatalf("unexpected status %d %s", r.code, r.body)
		}
	}
	if id == "" {
		t.Fatalf("no request succeeded")
	}

	_, body := s.do(t, http.MethodGet, "/api/items", "", tok)
	if items := decode[[]itemJSON](t, body); len(items) != 1 {
		t.Fatalf("expected exactly 1 item, got %d", len(items))
	}
}

func TestRouter_AuthRateLimit(t *testing.T) {
	s := newTestServer(t, 1)

	s.do(t, http.MethodPost, "/api/auth/login", `{"username":"a","password":"b"}`, "")
	code, _ := s.do(t, http.MethodPost, "/api/auth/login", `{"username":"a","password":"b"}`, "")

	if code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", code)
	}
}

func TestRouter_Operations(t *testing.T) {
	s := newTestServer(t, 0)

	if code, _ := s.do(t, http.MethodGet, "/health", "", ""); code != http.StatusOK {
		t.Fatalf("health: expected 200, got %d", code)
	}
	if code, _ := s.do(t, http.MethodGet, "/health/ready", "", ""); code != http.StatusOK {
		t.Fatalf("ready: expected 200, got %d", code)
	}
	code, body := s.do(t, http.MethodGet, "/metrics", "", "")
	if code != http.StatusOK {
		t.Fatalf("metrics: expected 200, got %d", code)
	}
	if !strings.Contains(string(body), "http_requests_total") {
		t.Fatalf("metrics: http middleware counters missing")
	}
	if code, _ := s.do(t, http.MethodGet, "/nope", "", ""); code != http.StatusNotFound {
		t.Fatalf("unknown route: expected 404, got %d", code)
	}
}
