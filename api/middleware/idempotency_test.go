package middleware

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/partsdealer-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/partsdealer-backend/pkg/errors"
)

type fakeStore struct {
	data map[string]string
	ttls map[string]time.Duration
}

func newFakeStore() *fakeStore {
	return &fakeStore{data: make(map[string]string), ttls: make(map[string]time.Duration)}
}

func (f *fakeStore) Get(_ context.Context, key string) (string, error) {
	if v, ok := f.data[key]; ok {
		return v, nil
	}
	return "", redis.Nil
}

func (f *fakeStore) SetNX(_ context.Context, key string, value any, ttl time.Duration) (bool, error) {
	if _, ok := f.data[key]; ok {
		return false, nil
	}
	f.data[key] = fmt.Sprint(value)
	f.ttls[key] = ttl
	return true, nil
}

func (f *fakeStore) Set(_ context.Context, key string, value any, ttl time.Duration) error {
	f.data[key] = fmt.Sprint(value)
	f.ttls[key] = ttl
	return nil
}

func (f *fakeStore) Del(_ context.Context, keys ...string) error {
	for _, key := range keys {
		delete(f.data, key)
	}
	return nil
}

func (f *fakeStore) IdempotencyKey(scope, id string) string {
	return fmt.Sprintf("fake:%s:%s", scope, id)
}

var buyerID = uuid.New()

func requestWithPattern(method, url, pattern string, body io.Reader) *http.Request {
	req := httptest.NewRequest(method, url, body)
	rc := chi.NewRouteContext()
	rc.RoutePatterns = []string{pattern}
	ctx := context.WithValue(req.Context(), chi.RouteCtxKey, rc)
	return req.WithContext(WithIdentity(ctx, buyerID, enums.ActorRoleBuyer, nil))
}

func errorCode(t *testing.T, body []byte) string {
	t.Helper()
	var payload struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(body, &payload))
	return payload.Error.Code
}

func TestMatchRule(t *testing.T) {
	tests := []struct {
		name     string
		method   string
		pattern  string
		ok       bool
		critical bool
	}{
		{"create order", http.MethodPost, "/api/v1/orders", true, true},
		{"create order trailing slash", http.MethodPost, "/api/v1/orders/", true, true},
		{"pay order", http.MethodPost, "/api/v1/orders/{orderId}/payments", true, true},
		{"cancel order", http.MethodPost, "/api/v1/orders/{orderId}/cancel", true, true},
		{"add cart item", http.MethodPost, "/api/v1/cart/items", true, false},
		{"review", http.MethodPost, "/api/v1/dealers/{dealerId}/reviews", true, false},
		{"list payments", http.MethodGet, "/api/v1/orders/{orderId}/payments", false, false},
		{"shipping update", http.MethodPatch, "/api/v1/dealer/orders/{orderId}/shipping", false, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rule, ok := matchRule(tt.method, tt.pattern)
			require.Equal(t, tt.ok, ok)
			require.Equal(t, tt.critical, rule.critical)
		})
	}
}

func TestIdempotencyRequiresHeaderOnCriticalRoutes(t *testing.T) {
	called := false
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { called = true })

	req := requestWithPattern(http.MethodPost, "/api/v1/orders", "/api/v1/orders", strings.NewReader(`{}`))
	resp := httptest.NewRecorder()
	Idempotency(newFakeStore(), time.Hour, nil)(handler).ServeHTTP(resp, req)

	require.Equal(t, http.StatusBadRequest, resp.Code)
	require.False(t, called)
}

func TestIdempotencyOptionalHeaderPassesThrough(t *testing.T) {
	called := false
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { called = true })

	req := requestWithPattern(http.MethodPost, "/api/v1/cart/items", "/api/v1/cart/items", strings.NewReader(`{}`))
	Idempotency(newFakeStore(), time.Hour, nil)(handler).ServeHTTP(httptest.NewRecorder(), req)
	require.True(t, called)
}

func TestIdempotencyReplaysStoredResponse(t *testing.T) {
	store := newFakeStore()
	mw := Idempotency(store, time.Hour, nil)
	var calls int
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		body, _ := io.ReadAll(r.Body)
		require.JSONEq(t, `{"shipping_method":"standard"}`, string(body))
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"ok":true}`))
	})

	send := func() *httptest.ResponseRecorder {
		req := requestWithPattern(http.MethodPost, "/api/v1/orders", "/api/v1/orders", strings.NewReader(`{"shipping_method":"standard"}`))
		req.Header.Set("Idempotency-Key", "abc")
		resp := httptest.NewRecorder()
		mw(handler).ServeHTTP(resp, req)
		return resp
	}

	first := send()
	require.Equal(t, http.StatusCreated, first.Code)
	require.Empty(t, first.Header().Get("Idempotent-Replayed"))

	second := send()
	require.Equal(t, http.StatusCreated, second.Code)
	require.Equal(t, "application/json", second.Header().Get("Content-Type"))
	require.Equal(t, "true", second.Header().Get("Idempotent-Replayed"))
	require.Equal(t, `{"ok":true}`, strings.TrimSpace(second.Body.String()))
	require.Equal(t, 1, calls)

	for _, ttl := range store.ttls {
		require.Equal(t, criticalIdempotencyTTL, ttl)
	}
}

func TestIdempotencyDetectsBodyChange(t *testing.T) {
	mw := Idempotency(newFakeStore(), time.Hour, nil)
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })

	req := requestWithPattern(http.MethodPost, "/api/v1/orders", "/api/v1/orders", strings.NewReader(`{"a":1}`))
	req.Header.Set("Idempotency-Key", "xyz")
	mw(handler).ServeHTTP(httptest.NewRecorder(), req)

	replay := requestWithPattern(http.MethodPost, "/api/v1/orders", "/api/v1/orders", strings.NewReader(`{"a":2}`))
	replay.Header.Set("Idempotency-Key", "xyz")
	resp := httptest.NewRecorder()
	mw(handler).ServeHTTP(resp, replay)

	require.Equal(t, http.StatusConflict, resp.Code)
	require.Equal(t, string(pkgerrors.CodeIdempotency), errorCode(t, resp.Body.Bytes()))
}

func TestIdempotencyRejectsInFlightDuplicate(t *testing.T) {
	store := newFakeStore()
	mw := Idempotency(store, time.Hour, nil)

	var inner *httptest.ResponseRecorder
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// a duplicate arrives while the first request is still running
		dup := requestWithPattern(http.MethodPost, "/api/v1/orders/1/payments", "/api/v1/orders/{orderId}/payments", strings.NewReader(`{}`))
		dup.Header.Set("Idempotency-Key", "k1")
		inner = httptest.NewRecorder()
		mw(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
			t.Fatal("duplicate must not reach the handler")
		})).ServeHTTP(inner, dup)
		w.WriteHeader(http.StatusCreated)
	})

	req := requestWithPattern(http.MethodPost, "/api/v1/orders/1/payments", "/api/v1/orders/{orderId}/payments", strings.NewReader(`{}`))
	req.Header.Set("Idempotency-Key", "k1")
	resp := httptest.NewRecorder()
	mw(handler).ServeHTTP(resp, req)

	require.Equal(t, http.StatusCreated, resp.Code)
	require.Equal(t, http.StatusConflict, inner.Code)
	require.Equal(t, string(pkgerrors.CodeConflict), errorCode(t, inner.Body.Bytes()))
}

func TestIdempotencyReleasesKeyOnServerError(t *testing.T) {
	store := newFakeStore()
	mw := Idempotency(store, time.Hour, nil)
	calls := 0
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.WriteHeader(http.StatusCreated)
	})

	for _, want := range []int{http.StatusBadGateway, http.StatusCreated} {
		req := requestWithPattern(http.MethodPost, "/api/v1/orders", "/api/v1/orders", strings.NewReader(`{}`))
		req.Header.Set("Idempotency-Key", "retry-me")
		resp := httptest.NewRecorder()
		mw(handler).ServeHTTP(resp, req)
		require.Equal(t, want, resp.Code)
	}
	require.Equal(t, 2, calls)
}

func TestIdempotencyScopesKeysPerUser(t *testing.T) {
	store := newFakeStore()
	mw := Idempotency(store, time.Hour, nil)
	calls := 0
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusCreated)
	})

	first := requestWithPattern(http.MethodPost, "/api/v1/orders", "/api/v1/orders", strings.NewReader(`{}`))
	first.Header.Set("Idempotency-Key", "same")
	mw(handler).ServeHTTP(httptest.NewRecorder(), first)

	other := requestWithPattern(http.MethodPost, "/api/v1/orders", "/api/v1/orders", strings.NewReader(`{}`))
	other = other.WithContext(WithIdentity(other.Context(), uuid.New(), enums.ActorRoleBuyer, nil))
	other.Header.Set("Idempotency-Key", "same")
	mw(handler).ServeHTTP(httptest.NewRecorder(), other)

	require.Equal(t, 2, calls)
}
