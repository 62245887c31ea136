package service

import (
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/staymate/staymate-bff/internal/domain/entity"
	"github.com/staymate/staymate-bff/internal/upstream"
)

// stayMateStub - httptest сервер StayMate API с заранее заданными ответами.
type stayMateStub struct {
	mu     sync.Mutex
	hits   map[string]int
	routes map[string]func(w http.ResponseWriter)
	srv    *httptest.Server
}

func newStayMateStub(t *testing.T) *stayMateStub {
	s := &stayMateStub{hits: make(map[string]int), routes: make(map[string]func(http.ResponseWriter))}
	s.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.Method + " " + r.URL.Path
		s.mu.Lock()
		s.hits[key]++
		route, ok := s.routes[key]
		s.mu.Unlock()
		if !ok {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		route(w)
	}))
	t.Cleanup(s.srv.Close)
	return s
}

func (s *stayMateStub) reply(method, path string, code int, body string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.routes[method+" "+path] = func(w http.ResponseWriter) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)
		_, _ = io.WriteString(w, body)
	}
}

func (s *stayMateStub) count(method, path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hits[method+" "+path]
}

func (s *stayMateStub) api() *upstream.API {
	return upstream.NewAPI(upstream.NewClient(s.srv.URL, time.Second))
}

// mockPublisher записывает события, отправленные во вкладки.
type mockPublisher struct {
	mock.Mock
}

func (m *mockPublisher) Publish(sessionID uuid.UUID, event string, data any) error {
	args := m.Called(sessionID, event, data)
	return args.Error(0)
}

func (m *mockPublisher) events(event string) []any {
	var out []any
	for _, c := range m.Calls {
		if c.Arguments.String(1) == event {
			out = append(out, c.Arguments.Get(2))
		}
	}
	return out
}

func newSession(t *testing.T, roles ...string) *entity.Session {
	t.Helper()
	sess, err := entity.NewSession(42, "tenant@staymate.app", roles,
		entity.AuthTokens{AccessToken: "access", RefreshToken: "refresh"}, time.Now().Add(time.Hour), time.Hour)
	require.NoError(t, err)
	return sess
}
