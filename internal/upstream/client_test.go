package upstream

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/staymate/staymate-bff/internal/domain/entity"
	"github.com/staymate/staymate-bff/internal/domain/valueobject"
	"github.com/staymate/staymate-bff/internal/pkg/apperror"
)

func newTestSession(t *testing.T, access, refresh string) *entity.Session {
	t.Helper()
	sess, err := entity.NewSession(7, "tenant@staymate.app", []string{entity.RoleUser},
		entity.AuthTokens{AccessToken: access, RefreshToken: refresh}, time.Now().Add(time.Hour), time.Hour)
	require.NoError(t, err)
	return sess
}

func TestDecodeList_BareArray(t *testing.T) {
	page, err := DecodeList[entity.Booking]([]byte(`[{"id":1,"status":"PENDING"},{"id":2,"status":"CONFIRMED"}]`))
	require.NoError(t, err)

	assert.Len(t, page.Items, 2)
	assert.Equal(t, 1, page.TotalPages)
	assert.Equal(t, int64(2), page.TotalElements)
	assert.False(t, page.Paged)
	assert.Equal(t, valueobject.BookingStatusConfirmed, page.Items[1].Status)
}

func TestDecodeList_SpringPage(t *testing.T) {
	page, err := DecodeList[entity.AuditLog]([]byte(`{"content":[{"id":9,"action":"LOGIN"}],"totalPages":4,"totalElements":61,"number":2,"size":20}`))
	require.NoError(t, err)

	assert.True(t, page.Paged)
	assert.Equal(t, 4, page.TotalPages)
	assert.Equal(t, int64(61), page.TotalElements)
	assert.Equal(t, 2, page.Number)
	assert.Equal(t, "LOGIN", page.Items[0].Action)
}

func TestDecodeList_EmptyShapes(t *testing.T) {
	page, err := DecodeList[entity.Property]([]byte(`[]`))
	require.NoError(t, err)
	assert.NotNil(t, page.Items)
	assert.Equal(t, 0, page.TotalPages)

	page, err = DecodeList[entity.Property]([]byte(`{"content":[],"totalPages":0,"totalElements":0}`))
	require.NoError(t, err)
	assert.Empty(t, page.Items)
}

func TestDecodeList_RejectsUnknownShapes(t *testing.T) {
	for _, body := range []string{``, `null`, `"text"`, `{"items":[]}`, `42`} {
		_, err := DecodeList[entity.Property]([]byte(body))
		assert.ErrorIs(t, err, ErrUnknownEnvelope, body)
	}
}

func TestFilters_OmitBlankValues(t *testing.T) {
	v := Filters{"location": "  ", "minBudget": "500", "maxBudget": "1000", "genderPreference": ""}.Values()

	assert.Equal(t, "maxBudget=1000&minBudget=500", v.Encode())
}

func TestClient_SendsBearerAndQuery(t *testing.T) {
	var gotAuth, gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotQuery = r.URL.RawQuery
		assert.Equal(t, "/api/roommates", r.URL.Path)
		_, _ = w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	api := NewAPI(NewClient(srv.URL, time.Second))
	_, err := api.ListRoommates(context.Background(), newTestSession(t, "access-1", "refresh-1"),
		Filters{"location": "", "minBudget": "500", "maxBudget": "1000"})
	require.NoError(t, err)

	assert.Equal(t, "Bearer access-1", gotAuth)
	assert.Equal(t, "maxBudget=1000&minBudget=500", gotQuery)
}

func TestClient_MapsSpringErrorMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		_, _ = w.Write([]byte(`{"status":409,"error":"Conflict","message":"Booking already confirmed"}`))
	}))
	defer srv.Close()

	api := NewAPI(NewClient(srv.URL, time.Second))
	err := api.Bookings.SetStatus(context.Background(), newTestSession(t, "a", "r"), 5, "CONFIRMED", nil)
	require.Error(t, err)

	var appErr *apperror.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, apperror.ErrCodeConflict, appErr.Code)
	assert.Equal(t, "Booking already confirmed", appErr.Message)
}

func TestClient_RefreshesOnceOn401(t *testing.T) {
	var refreshCalls, listCalls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case refreshPath:
			atomic.AddInt32(&refreshCalls, 1)
			body, _ := io.ReadAll(r.Body)
			assert.JSONEq(t, `{"refreshToken":"refresh-1"}`, string(body))
			_ = json.NewEncoder(w).Encode(entity.AuthTokens{AccessToken: "access-2", RefreshToken: "refresh-2", ExpiresIn: 900})
		case "/api/bookings/my-bookings":
			atomic.AddInt32(&listCalls, 1)
			if r.Header.Get("Authorization") != "Bearer access-2" {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			_, _ = w.Write([]byte(`[{"id":1,"status":"PENDING"}]`))
		}
	}))
	defer srv.Close()

	client := NewClient(srv.URL, time.Second)
	var persisted int32
	client.SetRefreshHook(func(ctx context.Context, sess *entity.Session) error {
		atomic.AddInt32(&persisted, 1)
		return nil
	})

	sess := newTestSession(t, "access-1", "refresh-1")
	page, err := NewAPI(client).MyBookings(context.Background(), sess)
	require.NoError(t, err)

	assert.Len(t, page.Items, 1)
	assert.Equal(t, int32(1), atomic.LoadInt32(&refreshCalls))
	assert.Equal(t, int32(2), atomic.LoadInt32(&listCalls))
	assert.Equal(t, int32(1), atomic.LoadInt32(&persisted))
	access, refresh := sess.Tokens()
	assert.Equal(t, "access-2", access)
	assert.Equal(t, "refresh-2", refresh)
}

func TestClient_RefreshFailureIsUnauthorized(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, time.Second)
	var expired atomic.Int32
	client.SetExpiredHook(func(context.Context, *entity.Session) { expired.Add(1) })

	_, err := NewAPI(client).MyBookings(context.Background(), newTestSession(t, "a", "r"))
	assert.True(t, apperror.IsUnauthorized(err))
	assert.Equal(t, int32(1), expired.Load())
}

func TestClient_ContextCancellationIsPreserved(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	defer srv.Close()
	defer close(release)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	_, err := NewAPI(NewClient(srv.URL, 5*time.Second)).MyBookings(ctx, newTestSession(t, "a", "r"))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestClient_UnavailableUpstream(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	_, err := NewAPI(NewClient(url, time.Second)).MyBookings(context.Background(), newTestSession(t, "a", "r"))
	require.Error(t, err)
	assert.Equal(t, http.StatusBadGateway, apperror.StatusOf(err))
}

func TestAPI_PathsAndMethods(t *testing.T) {
	type call struct{ method, path, query string }
	var calls []call
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls = append(calls, call{r.Method, r.URL.Path, r.URL.RawQuery})
		if r.Method == http.MethodDelete {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	ctx := context.Background()
	sess := newTestSession(t, "a", "r")
	api := NewAPI(NewClient(srv.URL, time.Second))

	require.NoError(t, api.Roommates.SetStatus(ctx, sess, 3, "APPROVED", nil))
	require.NoError(t, api.Applications.SetStatus(ctx, sess, 4, "ACCEPTED", nil))
	require.NoError(t, api.Bookings.Action(ctx, sess, 5, "check-in", nil, nil))
	require.NoError(t, api.ProcessPayout(ctx, sess, 6, "PAID", ""))
	require.NoError(t, api.FraudScan(ctx, sess, "spam"))
	require.NoError(t, api.SetPropertySaved(ctx, sess, 8, false))
	require.NoError(t, api.RejectVerification(ctx, sess, 9, "blurry"))

	assert.Equal(t, []call{
		{http.MethodPut, "/api/roommates/3/status", "status=APPROVED"},
		{http.MethodPatch, "/api/applications/4/status", "status=ACCEPTED"},
		{http.MethodPost, "/api/bookings/5/check-in", ""},
		{http.MethodPost, "/api/finance/admin/payout-requests/6/process", "status=PAID"},
		{http.MethodPost, "/api/admin/fraud/scan/spam", ""},
		{http.MethodDelete, "/api/saved/properties/8", ""},
		{http.MethodPost, "/api/verification/admin/9/reject", ""},
	}, calls)
}

func TestAPI_UploadVerificationDocument(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "PASSPORT", r.FormValue("documentType"))
		file, header, err := r.FormFile("file")
		require.NoError(t, err)
		defer file.Close()
		assert.Equal(t, "passport.pdf", header.Filename)
		data, _ := io.ReadAll(file)
		assert.Equal(t, "%PDF-1.4", string(data))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	err := NewAPI(NewClient(srv.URL, time.Second)).UploadVerificationDocument(context.Background(),
		newTestSession(t, "a", "r"), "passport.pdf", "application/pdf", "PASSPORT", strings.NewReader("%PDF-1.4"))
	require.NoError(t, err)
}
