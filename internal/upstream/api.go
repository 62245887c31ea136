package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strconv"

	"github.com/staymate/staymate-bff/internal/domain/entity"
)

// FraudScanTypes - допустимые типы сканирования.
var FraudScanTypes = []string{"duplicates", "spam", "mismatches", "all"}

// API - типизированная поверхность StayMate API, которую использует BFF.
type API struct {
	client *Client

	Properties    Resource[entity.Property]
	Roommates     Resource[entity.RoommatePost]
	Matches       Resource[entity.Match]
	Applications  Resource[entity.Application]
	Bookings      Resource[entity.Booking]
	Verifications Resource[entity.VerificationRequest]
	Payouts       Resource[entity.PayoutRequest]
	AuditLogs     Resource[entity.AuditLog]
	Tickets       Resource[entity.Ticket]
	Fraud         Resource[entity.FraudEvent]
	Reports       Resource[entity.Report]
	Conversations Resource[entity.Conversation]
	SavedProps    Resource[entity.Property]
	SavedMates    Resource[entity.RoommatePost]
}

func NewAPI(client *Client) *API {
	return &API{
		client:        client,
		Properties:    NewResource[entity.Property](client, "/api/properties"),
		Roommates:     NewResource[entity.RoommatePost](client, "/api/roommates").WithStatusMethod(http.MethodPut),
		Matches:       NewResource[entity.Match](client, "/api/roommates"),
		Applications:  NewResource[entity.Application](client, "/api/applications"),
		Bookings:      NewResource[entity.Booking](client, "/api/bookings"),
		Verifications: NewResource[entity.VerificationRequest](client, "/api/verification/admin"),
		Payouts:       NewResource[entity.PayoutRequest](client, "/api/finance/admin/payout-requests"),
		AuditLogs:     NewResource[entity.AuditLog](client, "/api/admin/audit-logs"),
		Tickets:       NewResource[entity.Ticket](client, "/api/admin/support/tickets"),
		Fraud:         NewResource[entity.FraudEvent](client, "/api/admin/fraud"),
		Reports:       NewResource[entity.Report](client, "/api/complaints"),
		Conversations: NewResource[entity.Conversation](client, "/api/messages/conversations"),
		SavedProps:    NewResource[entity.Property](client, "/api/saved/properties"),
		SavedMates:    NewResource[entity.RoommatePost](client, "/api/saved/roommates"),
	}
}

// Client возвращает нижележащий HTTP клиент.
func (a *API) Client() *Client {
	return a.client
}

// ---- auth ----

func (a *API) Login(ctx context.Context, email, password string) (entity.AuthTokens, error) {
	var tokens entity.AuthTokens
	req, err := newJSONRequest(http.MethodPost, "/api/auth/login", "/api/auth/login", map[string]string{
		"email":    email,
		"password": password,
	})
	if err != nil {
		return tokens, err
	}
	body, err := a.client.do(ctx, nil, req)
	if err != nil {
		return tokens, err
	}
	if err := json.Unmarshal(body, &tokens); err != nil {
		return tokens, fmt.Errorf("upstream: decode login: %w", err)
	}
	return tokens, nil
}

func (a *API) Logout(ctx context.Context, sess *entity.Session) error {
	_, err := a.client.do(ctx, sess, request{method: http.MethodPost, path: "/api/auth/logout", route: "/api/auth/logout"})
	return err
}

func (a *API) Me(ctx context.Context, sess *entity.Session) (entity.User, error) {
	var user entity.User
	body, err := a.client.do(ctx, sess, request{method: http.MethodGet, path: "/api/auth/me", route: "/api/auth/me"})
	if err != nil {
		return user, err
	}
	if err := json.Unmarshal(body, &user); err != nil {
		return user, fmt.Errorf("upstream: decode me: %w", err)
	}
	return user, nil
}

// ---- properties ----

// SearchProperties: query, minPrice, maxPrice, minBeds, minBaths, propertyType.
func (a *API) SearchProperties(ctx context.Context, sess *entity.Session, f Filters) (Page[entity.Property], error) {
	return a.Properties.List(ctx, sess, "/search", f.Values())
}

// AdminProperties - модерационная очередь объявлений.
func (a *API) AdminProperties(ctx context.Context, sess *entity.Session, f Filters) (Page[entity.Property], error) {
	return NewResource[entity.Property](a.client, "/api/admin/properties").List(ctx, sess, "", f.Values())
}

// ---- saved ----

func (a *API) SavedProperties(ctx context.Context, sess *entity.Session) (Page[entity.Property], error) {
	return a.SavedProps.List(ctx, sess, "", nil)
}

func (a *API) SavedRoommates(ctx context.Context, sess *entity.Session) (Page[entity.RoommatePost], error) {
	return a.SavedMates.List(ctx, sess, "", nil)
}

// SetPropertySaved сохраняет (POST) или убирает (DELETE) объявление из избранного.
func (a *API) SetPropertySaved(ctx context.Context, sess *entity.Session, id int64, saved bool) error {
	return a.setSaved(ctx, sess, "/api/saved/properties", id, saved)
}

func (a *API) SetRoommateSaved(ctx context.Context, sess *entity.Session, id int64, saved bool) error {
	return a.setSaved(ctx, sess, "/api/saved/roommates", id, saved)
}

func (a *API) setSaved(ctx context.Context, sess *entity.Session, base string, id int64, saved bool) error {
	method := http.MethodPost
	if !saved {
		method = http.MethodDelete
	}
	_, err := a.client.do(ctx, sess, request{
		method: method,
		path:   base + "/" + strconv.FormatInt(id, 10),
		route:  base + "/{id}",
	})
	return err
}

// ---- roommates ----

// ListRoommates: location, minBudget, maxBudget, genderPreference.
func (a *API) ListRoommates(ctx context.Context, sess *entity.Session, f Filters) (Page[entity.RoommatePost], error) {
	return a.Roommates.List(ctx, sess, "", f.Values())
}

func (a *API) MyRoommatePosts(ctx context.Context, sess *entity.Session) (Page[entity.RoommatePost], error) {
	return a.Roommates.List(ctx, sess, "/my", nil)
}

func (a *API) RoommateMatches(ctx context.Context, sess *entity.Session) (Page[entity.Match], error) {
	return a.Matches.List(ctx, sess, "/matches", nil)
}

func (a *API) AllRoommatePosts(ctx context.Context, sess *entity.Session) (Page[entity.RoommatePost], error) {
	return a.Roommates.List(ctx, sess, "/all", nil)
}

// ---- applications / bookings ----

func (a *API) SentApplications(ctx context.Context, sess *entity.Session) (Page[entity.Application], error) {
	return a.Applications.List(ctx, sess, "/sent", nil)
}

func (a *API) ReceivedApplications(ctx context.Context, sess *entity.Session) (Page[entity.Application], error) {
	return a.Applications.List(ctx, sess, "/received", nil)
}

func (a *API) MyBookings(ctx context.Context, sess *entity.Session) (Page[entity.Booking], error) {
	return a.Bookings.List(ctx, sess, "/my-bookings", nil)
}

func (a *API) BookingRequests(ctx context.Context, sess *entity.Session) (Page[entity.Booking], error) {
	return a.Bookings.List(ctx, sess, "/requests", nil)
}

// ---- verification ----

func (a *API) PendingVerifications(ctx context.Context, sess *entity.Session) (Page[entity.VerificationRequest], error) {
	return a.Verifications.List(ctx, sess, "/requests", nil)
}

func (a *API) ApproveVerification(ctx context.Context, sess *entity.Session, id int64) error {
	return a.Verifications.Action(ctx, sess, id, "approve", nil, nil)
}

func (a *API) RejectVerification(ctx context.Context, sess *entity.Session, id int64, reason string) error {
	return a.Verifications.Action(ctx, sess, id, "reject", nil, map[string]string{"reason": reason})
}

// UploadVerificationDocument отправляет документ multipart формой (file, documentType).
func (a *API) UploadVerificationDocument(ctx context.Context, sess *entity.Session, filename, contentType, documentType string, content io.Reader) error {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, filename))
	header.Set("Content-Type", contentType)
	part, err := w.CreatePart(header)
	if err != nil {
		return fmt.Errorf("upstream: multipart: %w", err)
	}
	if _, err := io.Copy(part, content); err != nil {
		return fmt.Errorf("upstream: multipart copy: %w", err)
	}
	if err := w.WriteField("documentType", documentType); err != nil {
		return fmt.Errorf("upstream: multipart field: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("upstream: multipart close: %w", err)
	}

	_, err = a.client.do(ctx, sess, request{
		method:      http.MethodPost,
		path:        "/api/verification/upload",
		route:       "/api/verification/upload",
		body:        buf.Bytes(),
		contentType: w.FormDataContentType(),
	})
	return err
}

// ---- finance ----

func (a *API) PayoutRequests(ctx context.Context, sess *entity.Session, f Filters) (Page[entity.PayoutRequest], error) {
	return a.Payouts.List(ctx, sess, "", f.Values())
}

// ProcessPayout - POST .../{id}/process?status=X&notes=...
func (a *API) ProcessPayout(ctx context.Context, sess *entity.Session, id int64, status, notes string) error {
	return a.Payouts.Action(ctx, sess, id, "process", Filters{"status": status, "notes": notes}.Values(), nil)
}

// ---- admin: audit, fraud, tickets, reports ----

func (a *API) AuditLogPage(ctx context.Context, sess *entity.Session, page, size int, f Filters) (Page[entity.AuditLog], error) {
	q := f.Values()
	q.Set("page", strconv.Itoa(page))
	q.Set("size", strconv.Itoa(size))
	return a.AuditLogs.List(ctx, sess, "", q)
}

func (a *API) AuditStats(ctx context.Context, sess *entity.Session, days int) (entity.Stats, error) {
	return a.stats(ctx, sess, "/api/admin/audit-logs/stats", days)
}

func (a *API) FraudEvents(ctx context.Context, sess *entity.Session) (Page[entity.FraudEvent], error) {
	return a.Fraud.List(ctx, sess, "/events", nil)
}

func (a *API) FraudStats(ctx context.Context, sess *entity.Session, days int) (entity.Stats, error) {
	return a.stats(ctx, sess, "/api/admin/fraud/stats", days)
}

// FraudScan запускает сканирование; результат появляется в событиях с задержкой.
func (a *API) FraudScan(ctx context.Context, sess *entity.Session, scanType string) error {
	_, err := a.client.do(ctx, sess, request{
		method: http.MethodPost,
		path:   "/api/admin/fraud/scan/" + url.PathEscape(scanType),
		route:  "/api/admin/fraud/scan/{type}",
	})
	return err
}

func (a *API) TicketPage(ctx context.Context, sess *entity.Session, page, size int, f Filters) (Page[entity.Ticket], error) {
	q := f.Values()
	q.Set("page", strconv.Itoa(page))
	q.Set("size", strconv.Itoa(size))
	return a.Tickets.List(ctx, sess, "", q)
}

func (a *API) ListReports(ctx context.Context, sess *entity.Session, f Filters) (Page[entity.Report], error) {
	return a.Reports.List(ctx, sess, "", f.Values())
}

// ---- messaging ----

func (a *API) ConversationPage(ctx context.Context, sess *entity.Session, page, size int, f Filters) (Page[entity.Conversation], error) {
	q := f.Values()
	q.Set("page", strconv.Itoa(page))
	q.Set("size", strconv.Itoa(size))
	return a.Conversations.List(ctx, sess, "", q)
}

func (a *API) CreateConversation(ctx context.Context, sess *entity.Session, req *entity.NewConversationRequest) (entity.Conversation, error) {
	return a.Conversations.Create(ctx, sess, req)
}

func (a *API) stats(ctx context.Context, sess *entity.Session, path string, days int) (entity.Stats, error) {
	body, err := a.client.do(ctx, sess, request{
		method: http.MethodGet,
		path:   path,
		route:  path,
		query:  url.Values{"days": []string{strconv.Itoa(days)}},
	})
	if err != nil {
		return nil, err
	}
	stats := entity.Stats{}
	if err := json.Unmarshal(body, &stats); err != nil {
		return nil, fmt.Errorf("upstream: decode stats: %w", err)
	}
	return stats, nil
}
