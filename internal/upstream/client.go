package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/staymate/staymate-bff/internal/domain/entity"
	"github.com/staymate/staymate-bff/internal/logger"
	"github.com/staymate/staymate-bff/internal/metrics"
	"github.com/staymate/staymate-bff/internal/pkg/apperror"
)

const (
	maxResponseBytes = 10 << 20
	refreshPath      = "/api/auth/refresh-token"
)

// ClaimsReader достаёт срок жизни access токена после refresh.
type ClaimsReader interface {
	ExpiresAt(token string) time.Time
}

// RefreshHook вызывается после успешного обновления токенов (сохранение сессии).
type RefreshHook func(ctx context.Context, sess *entity.Session) error

// ExpiredHook вызывается, когда upstream отказал в refresh: сессия больше не действительна.
type ExpiredHook func(ctx context.Context, sess *entity.Session)

// Client - HTTP клиент StayMate API. Токен берётся из переданной сессии.
type Client struct {
	baseURL    string
	httpClient *http.Client
	claims     ClaimsReader
	onRefresh  RefreshHook
	onExpired  ExpiredHook

	refreshMu sync.Mutex
	refreshes map[uuid.UUID]*sync.Mutex
}

// NewClient создаёт клиент с таймаутом на запрос.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
		refreshes:  make(map[uuid.UUID]*sync.Mutex),
	}
}

// SetClaimsReader задаёт разбор exp из новых токенов.
func (c *Client) SetClaimsReader(r ClaimsReader) {
	c.claims = r
}

// SetRefreshHook задаёт колбэк сохранения обновлённых токенов.
func (c *Client) SetRefreshHook(hook RefreshHook) {
	c.onRefresh = hook
}

// SetExpiredHook задаёт реакцию на окончательно истёкшую сессию.
func (c *Client) SetExpiredHook(hook ExpiredHook) {
	c.onExpired = hook
}

// request - описание одного вызова. route - шаблон пути для метрик.
type request struct {
	method      string
	path        string
	route       string
	query       url.Values
	body        []byte
	contentType string
}

func newJSONRequest(method, path, route string, payload any) (request, error) {
	req := request{method: method, path: path, route: route}
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return req, fmt.Errorf("upstream: marshal body: %w", err)
		}
		req.body = raw
		req.contentType = "application/json"
	}
	return req, nil
}

// do выполняет запрос. При 401 один раз обновляет токен и повторяет запрос.
func (c *Client) do(ctx context.Context, sess *entity.Session, req request) ([]byte, error) {
	var access string
	if sess != nil {
		access, _ = sess.Tokens()
	}

	status, body, err := c.send(ctx, access, req)
	if err != nil {
		return nil, err
	}

	if status == http.StatusUnauthorized && sess != nil && req.path != refreshPath {
		if rerr := c.refresh(ctx, sess, access); rerr != nil {
			logger.Log.WithFields(logrus.Fields{
				"session": sess.ID,
				"error":   rerr,
			}).Warn("upstream: не удалось обновить токен")
			return nil, apperror.FromUpstream(http.StatusUnauthorized, "сессия истекла, войдите снова")
		}
		access, _ = sess.Tokens()
		status, body, err = c.send(ctx, access, req)
		if err != nil {
			return nil, err
		}
	}

	if status >= 400 {
		return nil, apperror.FromUpstream(status, errorMessage(body))
	}
	return body, nil
}

func (c *Client) send(ctx context.Context, access string, req request) (int, []byte, error) {
	target := c.baseURL + req.path
	if len(req.query) > 0 {
		target += "?" + req.query.Encode()
	}

	var reader io.Reader
	if req.body != nil {
		reader = bytes.NewReader(req.body)
	}
	httpReq, err := http.NewRequestWithContext(ctx, req.method, target, reader)
	if err != nil {
		return 0, nil, fmt.Errorf("upstream: build request: %w", err)
	}
	httpReq.Header.Set("Accept", "application/json")
	if req.contentType != "" {
		httpReq.Header.Set("Content-Type", req.contentType)
	}
	if access != "" {
		httpReq.Header.Set("Authorization", "Bearer "+access)
	}

	route := req.route
	if route == "" {
		route = req.path
	}

	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	metrics.UpstreamRequestDuration.WithLabelValues(req.method, route).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.UpstreamRequestsTotal.WithLabelValues(req.method, route, "error").Inc()
		if ctxErr := ctx.Err(); ctxErr != nil {
			return 0, nil, fmt.Errorf("upstream: %s %s: %w", req.method, route, ctxErr)
		}
		return 0, nil, apperror.Wrap(err, apperror.ErrCodeUnavailable, "StayMate API недоступен")
	}
	defer resp.Body.Close()

	metrics.UpstreamRequestsTotal.WithLabelValues(req.method, route, strconv.Itoa(resp.StatusCode)).Inc()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return 0, nil, fmt.Errorf("upstream: %s %s: %w", req.method, route, ctxErr)
		}
		return 0, nil, apperror.Wrap(err, apperror.ErrCodeUnavailable, "обрыв ответа StayMate API")
	}

	logger.Log.WithFields(logrus.Fields{
		"method":   req.method,
		"route":    route,
		"status":   resp.StatusCode,
		"duration": time.Since(start).String(),
	}).Debug("upstream request")

	return resp.StatusCode, body, nil
}

// refresh обновляет пару токенов. Параллельные 401 одной сессии
// ждут друг друга; если токен уже сменился, повторный refresh не нужен.
func (c *Client) refresh(ctx context.Context, sess *entity.Session, staleAccess string) error {
	mu := c.sessionLock(sess.ID)
	mu.Lock()
	defer mu.Unlock()

	current, refreshToken := sess.Tokens()
	if current != staleAccess {
		return nil
	}
	if refreshToken == "" {
		metrics.UpstreamRefreshTotal.WithLabelValues("no_token").Inc()
		c.expired(ctx, sess)
		return errors.New("нет refresh токена")
	}

	req, err := newJSONRequest(http.MethodPost, refreshPath, refreshPath, map[string]string{"refreshToken": refreshToken})
	if err != nil {
		return err
	}
	status, body, err := c.send(ctx, "", req)
	if err != nil {
		metrics.UpstreamRefreshTotal.WithLabelValues("error").Inc()
		return err
	}
	if status >= 400 {
		metrics.UpstreamRefreshTotal.WithLabelValues("rejected").Inc()
		if status < http.StatusInternalServerError {
			c.expired(ctx, sess)
		}
		return apperror.FromUpstream(status, errorMessage(body))
	}

	var tokens entity.AuthTokens
	if err := json.Unmarshal(body, &tokens); err != nil || tokens.AccessToken == "" {
		metrics.UpstreamRefreshTotal.WithLabelValues("error").Inc()
		return fmt.Errorf("upstream: некорректный ответ refresh: %v", err)
	}

	var exp time.Time
	if c.claims != nil {
		exp = c.claims.ExpiresAt(tokens.AccessToken)
	}
	if exp.IsZero() && tokens.ExpiresIn > 0 {
		exp = time.Now().Add(time.Duration(tokens.ExpiresIn) * time.Second)
	}
	sess.Rotate(tokens.AccessToken, tokens.RefreshToken, exp)
	metrics.UpstreamRefreshTotal.WithLabelValues("ok").Inc()

	if c.onRefresh != nil {
		if err := c.onRefresh(ctx, sess); err != nil {
			logger.Log.WithError(err).Warn("upstream: не удалось сохранить обновлённые токены")
		}
	}
	return nil
}

func (c *Client) expired(ctx context.Context, sess *entity.Session) {
	if c.onExpired != nil {
		c.onExpired(ctx, sess)
	}
}

func (c *Client) sessionLock(id uuid.UUID) *sync.Mutex {
	c.refreshMu.Lock()
	defer c.refreshMu.Unlock()
	mu, ok := c.refreshes[id]
	if !ok {
		mu = &sync.Mutex{}
		c.refreshes[id] = mu
	}
	return mu
}

// Forget освобождает состояние refresh для закрытой сессии.
func (c *Client) Forget(id uuid.UUID) {
	c.refreshMu.Lock()
	delete(c.refreshes, id)
	c.refreshMu.Unlock()
}

// errorMessage достаёт человекочитаемый текст из тела ошибки Spring.
func errorMessage(body []byte) string {
	var payload struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}
	if payload.Message != "" {
		return payload.Message
	}
	return payload.Error
}

// Ping проверяет доступность upstream (для /health).
func (c *Client) Ping(ctx context.Context) error {
	req := request{method: http.MethodGet, path: "/actuator/health", route: "/actuator/health"}
	status, _, err := c.send(ctx, "", req)
	if err != nil {
		return err
	}
	if status >= 500 {
		return apperror.FromUpstream(status, "")
	}
	return nil
}
