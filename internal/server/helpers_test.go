package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"powertools/internal/events"
	"powertools/internal/shared"
	"powertools/internal/store"
)

func init() {
	log.Logger = zerolog.Nop()
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (p *recordingPublisher) Publish(_ context.Context, e events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []string
	for _, e := range p.events {
		out = append(out, e.Type)
	}
	return out
}

type mockProvider struct {
	mock.Mock
}

func (m *mockProvider) CreateIntent(ctx context.Context, amount int64, currency string) (string, error) {
	args := m.Called(ctx, amount, currency)
	return args.String(0), args.Error(1)
}

// failingStore fails every read and write with err.
type failingStore struct {
	err error
}

func (s failingStore) Find(context.Context, store.Collection, store.Filter, any) error { return s.err }
func (s failingStore) FindOne(context.Context, store.Collection, store.Filter, any) error {
	return s.err
}
func (s failingStore) Insert(context.Context, store.Collection, any) (shared.InsertResult, error) {
	return shared.InsertResult{}, s.err
}
func (s failingStore) Update(context.Context, store.Collection, store.Filter, map[string]any, bool) (shared.UpdateResult, error) {
	return shared.UpdateResult{}, s.err
}
func (s failingStore) Delete(context.Context, store.Collection, store.Filter) (shared.DeleteResult, error) {
	return shared.DeleteResult{}, s.err
}
func (s failingStore) Close(context.Context) error { return nil }

type testEnv struct {
	api      *API
	store    *store.MemoryStore
	tokens   *shared.TokenService
	events   *recordingPublisher
	payments *mockProvider
	handler  http.Handler
}

func newTestEnv(t *testing.T, policy string) *testEnv {
	t.Helper()
	env := &testEnv{
		store:    store.NewMemoryStore(),
		tokens:   shared.NewTokenService("test-secret", time.Hour),
		events:   &recordingPublisher{},
		payments: &mockProvider{},
	}
	env.api = &API{
		Store:          env.store,
		Tokens:         env.tokens,
		Events:         env.events,
		Payments:       env.payments,
		MutationPolicy: policy,
		Currency:       "usd",
	}
	env.handler = NewRouter(env.api, []string{"*"})
	return env
}

func (e *testEnv) token(t *testing.T, email string) string {
	t.Helper()
	tok, err := e.tokens.Issue(email)
	require.NoError(t, err)
	return tok
}

// seedProfile stores a profile directly, bypassing the API.
func (e *testEnv) seedProfile(t *testing.T, email, role string) {
	t.Helper()
	set := map[string]any{"email": email}
	if role != "" {
		set["role"] = role
	}
	_, err := e.store.Update(context.Background(), store.Users, store.ByEmail(email), set, true)
	require.NoError(t, err)
}

func (e *testEnv) do(t *testing.T, method, target, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var rd io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		rd = strings.NewReader(b)
	default:
		bs, err := json.Marshal(b)
		require.NoError(t, err)
		rd = bytes.NewReader(bs)
	}
	req := httptest.NewRequest(method, target, rd)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rr := httptest.NewRecorder()
	e.handler.ServeHTTP(rr, req)
	return rr
}

func decodeBody[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &v), "body: %s", rr.Body.String())
	return v
}
