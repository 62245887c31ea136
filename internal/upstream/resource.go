package upstream

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/staymate/staymate-bff/internal/domain/entity"
)

// Resource - типовые операции над коллекцией StayMate API.
type Resource[T any] struct {
	client *Client
	base   string
	// statusMethod - PATCH для большинства ресурсов, PUT для постов о соседях.
	statusMethod string
}

func NewResource[T any](client *Client, base string) Resource[T] {
	return Resource[T]{client: client, base: base, statusMethod: http.MethodPatch}
}

// WithStatusMethod меняет HTTP метод смены статуса.
func (r Resource[T]) WithStatusMethod(method string) Resource[T] {
	r.statusMethod = method
	return r
}

// List загружает base+sub и нормализует ответ.
func (r Resource[T]) List(ctx context.Context, sess *entity.Session, sub string, query url.Values) (Page[T], error) {
	path := r.base + sub
	body, err := r.client.do(ctx, sess, request{method: http.MethodGet, path: path, route: path, query: query})
	if err != nil {
		return Page[T]{}, err
	}
	return DecodeList[T](body)
}

func (r Resource[T]) Get(ctx context.Context, sess *entity.Session, id int64) (T, error) {
	var out T
	body, err := r.client.do(ctx, sess, request{
		method: http.MethodGet,
		path:   r.itemPath(id, ""),
		route:  r.base + "/{id}",
	})
	if err != nil {
		return out, err
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return out, fmt.Errorf("upstream: decode %s: %w", r.base, err)
	}
	return out, nil
}

func (r Resource[T]) Create(ctx context.Context, sess *entity.Session, payload any) (T, error) {
	var out T
	req, err := newJSONRequest(http.MethodPost, r.base, r.base, payload)
	if err != nil {
		return out, err
	}
	body, err := r.client.do(ctx, sess, req)
	if err != nil {
		return out, err
	}
	if len(body) == 0 {
		return out, nil
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return out, fmt.Errorf("upstream: decode %s: %w", r.base, err)
	}
	return out, nil
}

// SetStatus вызывает {base}/{id}/status?status=X (+ дополнительные параметры).
func (r Resource[T]) SetStatus(ctx context.Context, sess *entity.Session, id int64, status string, extra url.Values) error {
	query := url.Values{}
	for k, v := range extra {
		query[k] = v
	}
	query.Set("status", status)
	_, err := r.client.do(ctx, sess, request{
		method: r.statusMethod,
		path:   r.itemPath(id, "/status"),
		route:  r.base + "/{id}/status",
		query:  query,
	})
	return err
}

// Action вызывает POST {base}/{id}/{action}.
func (r Resource[T]) Action(ctx context.Context, sess *entity.Session, id int64, action string, query url.Values, payload any) error {
	req, err := newJSONRequest(http.MethodPost, r.itemPath(id, "/"+action), r.base+"/{id}/"+action, payload)
	if err != nil {
		return err
	}
	req.query = query
	_, err = r.client.do(ctx, sess, req)
	return err
}

func (r Resource[T]) Delete(ctx context.Context, sess *entity.Session, id int64) error {
	_, err := r.client.do(ctx, sess, request{
		method: http.MethodDelete,
		path:   r.itemPath(id, ""),
		route:  r.base + "/{id}",
	})
	return err
}

func (r Resource[T]) itemPath(id int64, suffix string) string {
	return r.base + "/" + strconv.FormatInt(id, 10) + suffix
}
