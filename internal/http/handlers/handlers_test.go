package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/staymate/staymate-bff/internal/dto"
	"github.com/staymate/staymate-bff/internal/http/middleware"
	"github.com/staymate/staymate-bff/internal/pages"
	"github.com/staymate/staymate-bff/internal/repository"
	"github.com/staymate/staymate-bff/internal/service"
	"github.com/staymate/staymate-bff/internal/upstream"
	"github.com/staymate/staymate-bff/internal/ws"
)

// stayMate - httptest сервер StayMate API.
type stayMate struct {
	mu     sync.Mutex
	hits   map[string]int
	bodies map[string]string
	routes map[string]func(w http.ResponseWriter)
	srv    *httptest.Server
}

func newStayMate(t *testing.T) *stayMate {
	s := &stayMate{
		hits:   make(map[string]int),
		bodies: make(map[string]string),
		routes: make(map[string]func(http.ResponseWriter)),
	}
	s.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		key := r.Method + " " + r.URL.Path
		s.mu.Lock()
		s.hits[key]++
		s.bodies[key] = string(body)
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

func (s *stayMate) reply(method, path string, code int, body string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.routes[method+" "+path] = func(w http.ResponseWriter) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)
		_, _ = io.WriteString(w, body)
	}
}

func (s *stayMate) count(method, path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hits[method+" "+path]
}

func (s *stayMate) body(method, path string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.bodies[method+" "+path]
}

type testApp struct {
	up     *stayMate
	router *gin.Engine
}

func newTestApp(t *testing.T, roles ...string) *testApp {
	gin.SetMode(gin.TestMode)

	up := newStayMate(t)
	access, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":    "tenant@staymate.app",
		"userId": 42,
		"roles":  roles,
		"exp":    time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte("any"))
	require.NoError(t, err)
	up.reply(http.MethodPost, "/api/auth/login", http.StatusOK, fmt.Sprintf(`{"accessToken":%q,"refreshToken":"r"}`, access))

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	hub := ws.NewHub(ctx)
	go hub.Run()

	clock := clockwork.NewFakeClock()
	api := upstream.NewAPI(upstream.NewClient(up.srv.URL, time.Second))
	sessions := service.NewSessionService(api, repository.NewMemorySessionRepository(nil), service.NewTokenReader(""), nil, time.Hour)
	views := service.NewViewService(pages.NewRegistry(), api, hub, nil, clock, service.ViewConfig{TTL: time.Hour})
	t.Cleanup(views.Shutdown)

	sessionHandler := NewSessionHandler(sessions, views, hub, CookieConfig{MaxAge: time.Hour})
	viewHandler := NewViewHandler(views)
	verificationHandler := NewVerificationHandler(api, hub, 1)

	r := gin.New()
	r.Use(middleware.ErrorHandler())
	r.POST("/api/session/login", sessionHandler.Login)
	protected := r.Group("/api")
	protected.Use(middleware.SessionAuth(sessions))
	protected.GET("/session/me", sessionHandler.Me)
	protected.DELETE("/session", sessionHandler.Logout)
	protected.GET("/views/:page", viewHandler.Open)
	protected.PUT("/views/:page/filters", viewHandler.SetFilters)
	protected.POST("/views/:page/items/:id/actions/:action", middleware.IDValidator("id"), viewHandler.Act)
	protected.POST("/verification/documents", verificationHandler.UploadDocument)

	return &testApp{up: up, router: r}
}

func (a *testApp) do(req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	return w
}

func (a *testApp) login(t *testing.T) *http.Cookie {
	req := httptest.NewRequest(http.MethodPost, "/api/session/login", strings.NewReader(`{"email":"tenant@staymate.app","password":"secret"}`))
	req.Header.Set("Content-Type", "application/json")
	w := a.do(req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	for _, c := range w.Result().Cookies() {
		if c.Name == middleware.SessionCookie {
			return c
		}
	}
	t.Fatal("session cookie not set")
	return nil
}

func authed(method, target string, body io.Reader, cookie *http.Cookie) *http.Request {
	req := httptest.NewRequest(method, target, body)
	req.AddCookie(cookie)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return req
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) dto.ErrorResponse {
	var out dto.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func TestSessionHandler_LoginReturnsPagesAndCookie(t *testing.T) {
	app := newTestApp(t, "ROLE_USER")

	req := httptest.NewRequest(http.MethodPost, "/api/session/login", strings.NewReader(`{"email":"tenant@staymate.app","password":"secret"}`))
	req.Header.Set("Content-Type", "application/json")
	w := app.do(req)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		SessionID string `json:"sessionId"`
		Pages     []struct {
			Name string `json:"name"`
		} `json:"pages"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.SessionID)
	require.NotEmpty(t, resp.Pages)
	for _, p := range resp.Pages {
		assert.False(t, strings.HasPrefix(p.Name, "admin-"), p.Name)
	}
	assert.Contains(t, w.Header().Get("Set-Cookie"), "HttpOnly")
}

func TestSessionHandler_LoginValidation(t *testing.T) {
	app := newTestApp(t)

	req := httptest.NewRequest(http.MethodPost, "/api/session/login", strings.NewReader(`{"email":"tenant"}`))
	req.Header.Set("Content-Type", "application/json")
	w := app.do(req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "VALIDATION_ERROR", decodeError(t, w).Code)
	assert.Zero(t, app.up.count(http.MethodPost, "/api/auth/login"))
}

func TestViewHandler_RequiresSession(t *testing.T) {
	app := newTestApp(t)

	w := app.do(httptest.NewRequest(http.MethodGet, "/api/views/search", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "UNAUTHORIZED", decodeError(t, w).Code)

	req := httptest.NewRequest(http.MethodGet, "/api/views/search", nil)
	req.Header.Set(middleware.SessionHeader, "not-a-uuid")
	w = app.do(req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestViewHandler_OpenReturnsSnapshot(t *testing.T) {
	app := newTestApp(t, "ROLE_USER")
	app.up.reply(http.MethodGet, "/api/properties/search", http.StatusOK, `{"content":[{"id":3,"title":"Loft","status":"ACTIVE"}],"totalPages":1,"totalElements":1}`)
	cookie := app.login(t)

	w := app.do(authed(http.MethodGet, "/api/views/search?nav=1", nil, cookie))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp struct {
		Page string `json:"page"`
		View struct {
			State string `json:"state"`
			Items []struct {
				ID int64 `json:"id"`
			} `json:"items"`
		} `json:"view"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "search", resp.Page)
	assert.Equal(t, "ready", resp.View.State)
	require.Len(t, resp.View.Items, 1)
	assert.Equal(t, int64(3), resp.View.Items[0].ID)

	w = app.do(authed(http.MethodGet, "/api/views/search?nav=1", nil, cookie))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, app.up.count(http.MethodGet, "/api/properties/search"))
}

func TestViewHandler_OpenRecordByQueryID(t *testing.T) {
	app := newTestApp(t, "ROLE_USER")
	app.up.reply(http.MethodGet, "/api/roommates/5", http.StatusNotFound, `{"message":"Пост не найден"}`)
	cookie := app.login(t)

	w := app.do(authed(http.MethodGet, "/api/views/roommate?nav=1&id=5", nil, cookie))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp struct {
		View struct {
			State string `json:"state"`
			Error string `json:"error"`
		} `json:"view"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "not_found", resp.View.State)
	assert.Equal(t, "Пост не найден", resp.View.Error)
	assert.Equal(t, 1, app.up.count(http.MethodGet, "/api/roommates/5"))

	w = app.do(authed(http.MethodGet, "/api/views/roommate?nav=2&id=x", nil, cookie))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestViewHandler_AdminPageForbiddenForTenant(t *testing.T) {
	app := newTestApp(t, "ROLE_USER")
	cookie := app.login(t)

	w := app.do(authed(http.MethodGet, "/api/views/admin-payouts", nil, cookie))
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "FORBIDDEN", decodeError(t, w).Code)
}

func TestViewHandler_ActionWithoutConfirmationReturnsPrompt(t *testing.T) {
	app := newTestApp(t, "ROLE_ADMIN")
	app.up.reply(http.MethodGet, "/api/finance/admin/payout-requests", http.StatusOK, `[{"id":7,"amount":1500,"status":"PENDING"}]`)
	cookie := app.login(t)

	w := app.do(authed(http.MethodPost, "/api/views/admin-payouts/items/7/actions/pay", strings.NewReader(`{}`), cookie))
	require.Equal(t, http.StatusConflict, w.Code)
	resp := decodeError(t, w)
	assert.Equal(t, "CONFIRMATION_REQUIRED", resp.Code)
	assert.Equal(t, "Отметить выплату как проведённую?", resp.Prompt)

	w = app.do(authed(http.MethodPost, "/api/views/admin-payouts/items/7/actions/pay", strings.NewReader(`{"confirmed":true}`), cookie))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, 1, app.up.count(http.MethodPost, "/api/finance/admin/payout-requests/7/process"))
}

func TestViewHandler_InvalidItemID(t *testing.T) {
	app := newTestApp(t, "ROLE_ADMIN")
	cookie := app.login(t)

	w := app.do(authed(http.MethodPost, "/api/views/admin-payouts/items/abc/actions/pay", nil, cookie))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "VALIDATION_ERROR", decodeError(t, w).Code)
}

func TestViewHandler_FiltersValidation(t *testing.T) {
	app := newTestApp(t, "ROLE_USER")
	app.up.reply(http.MethodGet, "/api/roommates", http.StatusOK, `[]`)
	cookie := app.login(t)

	w := app.do(authed(http.MethodPut, "/api/views/roommates/filters", strings.NewReader(`{"filters":{"unknown":"1"}}`), cookie))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = app.do(authed(http.MethodPut, "/api/views/roommates/filters", strings.NewReader(`{"filters":{"minBudget":"500"}}`), cookie))
	assert.Equal(t, http.StatusOK, w.Code, w.Body.String())
}

func TestSessionHandler_LogoutEndsSession(t *testing.T) {
	app := newTestApp(t, "ROLE_USER")
	cookie := app.login(t)

	w := app.do(authed(http.MethodDelete, "/api/session", nil, cookie))
	require.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, 1, app.up.count(http.MethodPost, "/api/auth/logout"))

	w = app.do(authed(http.MethodGet, "/api/views/search", nil, cookie))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

var pngHeader = []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A, 0x00, 0x00, 0x00, 0x0D, 0x49, 0x48, 0x44, 0x52}

func multipartUpload(t *testing.T, filename string, content []byte, documentType string) (io.Reader, string) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	if documentType != "" {
		require.NoError(t, w.WriteField("documentType", documentType))
	}
	require.NoError(t, w.Close())
	return &buf, w.FormDataContentType()
}

func TestVerificationHandler_UploadsSniffedDocument(t *testing.T) {
	app := newTestApp(t, "ROLE_USER")
	cookie := app.login(t)

	body, contentType := multipartUpload(t, "passport.png", pngHeader, "passport")
	req := authed(http.MethodPost, "/api/verification/documents", body, cookie)
	req.Header.Set("Content-Type", contentType)
	w := app.do(req)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var resp dto.UploadResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "PASSPORT", resp.DocumentType)
	assert.Equal(t, "image/png", resp.ContentType)

	assert.Equal(t, 1, app.up.count(http.MethodPost, "/api/verification/upload"))
	assert.Contains(t, app.up.body(http.MethodPost, "/api/verification/upload"), "PASSPORT")
}

func TestVerificationHandler_RejectsDisguisedFile(t *testing.T) {
	app := newTestApp(t, "ROLE_USER")
	cookie := app.login(t)

	body, contentType := multipartUpload(t, "id.png", []byte("plain text pretending to be an image"), "")
	req := authed(http.MethodPost, "/api/verification/documents", body, cookie)
	req.Header.Set("Content-Type", contentType)
	w := app.do(req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Zero(t, app.up.count(http.MethodPost, "/api/verification/upload"))
}

func TestHealthHandler_ReportsFailingDependency(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	handler := NewHealthHandler(map[string]Pinger{
		"upstream": PingerFunc(func(context.Context) error { return nil }),
		"redis":    PingerFunc(func(context.Context) error { return errors.New("connection refused") }),
	})
	r.GET("/health", handler.Health)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	var resp HealthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "healthy", resp.Checks["upstream"])
	assert.Equal(t, "unhealthy: connection refused", resp.Checks["redis"])
}
