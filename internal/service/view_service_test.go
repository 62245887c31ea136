package service

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/staymate/staymate-bff/internal/domain/entity"
	"github.com/staymate/staymate-bff/internal/pages"
	"github.com/staymate/staymate-bff/internal/pkg/apperror"
	"github.com/staymate/staymate-bff/internal/viewstate"
	"github.com/staymate/staymate-bff/internal/ws"
)

const searchBody = `{"content":[{"id":1,"title":"Flat","status":"ACTIVE","isSaved":false}],"totalPages":1,"totalElements":1}`

type viewFixture struct {
	up    *stayMateStub
	pub   *mockPublisher
	clock *clockwork.FakeClock
	svc   *ViewService
}

func newViewFixture(t *testing.T) *viewFixture {
	f := &viewFixture{
		up:    newStayMateStub(t),
		pub:   &mockPublisher{},
		clock: clockwork.NewFakeClock(),
	}
	f.pub.On("Publish", mock.Anything, mock.Anything, mock.Anything).Return(nil)
	f.svc = NewViewService(pages.NewRegistry(), f.up.api(), f.pub, nil, f.clock, ViewConfig{
		TTL:          10 * time.Minute,
		Debounce:     500 * time.Millisecond,
		RefetchDelay: 2 * time.Second,
	})
	t.Cleanup(f.svc.Shutdown)
	return f
}

func TestViewService_OpenFetchesOncePerNavigation(t *testing.T) {
	f := newViewFixture(t)
	f.up.reply(http.MethodGet, "/api/properties/search", http.StatusOK, searchBody)
	sess := newSession(t, entity.RoleUser)
	ctx := context.Background()

	snap, err := f.svc.Open(ctx, sess, pages.PageSearch, "nav-1", nil)
	require.NoError(t, err)
	view, ok := snap.(pages.Snapshot[entity.Property])
	require.True(t, ok)
	assert.Equal(t, viewstate.StateReady, view.State)

	// повторный mount той же навигации
	_, err = f.svc.Open(ctx, sess, pages.PageSearch, "nav-1", nil)
	require.NoError(t, err)
	assert.Equal(t, 1, f.up.count(http.MethodGet, "/api/properties/search"))

	_, err = f.svc.Open(ctx, sess, pages.PageSearch, "nav-2", nil)
	require.NoError(t, err)
	assert.Equal(t, 2, f.up.count(http.MethodGet, "/api/properties/search"))
	assert.Equal(t, 1, f.svc.Count())

	updates := f.pub.events(ws.EventViewUpdated)
	require.NotEmpty(t, updates)
	last := updates[len(updates)-1].(ViewEvent)
	assert.Equal(t, pages.PageSearch, last.Page)
}

func TestViewService_LoadErrorIsPartOfTheView(t *testing.T) {
	f := newViewFixture(t)
	f.up.reply(http.MethodGet, "/api/properties/search", http.StatusServiceUnavailable, `{"message":"maintenance"}`)

	snap, err := f.svc.Open(context.Background(), newSession(t, entity.RoleUser), pages.PageSearch, "", nil)
	require.NoError(t, err)
	view := snap.(pages.Snapshot[entity.Property])
	assert.Equal(t, viewstate.StateError, view.State)
	assert.Equal(t, "maintenance", view.Error)
}

func TestViewService_OpenRecordByID(t *testing.T) {
	f := newViewFixture(t)
	f.up.reply(http.MethodGet, "/api/properties/7", http.StatusOK, `{"id":7,"title":"Loft","status":"ACTIVE"}`)
	f.up.reply(http.MethodGet, "/api/properties/8", http.StatusNotFound, `{"message":"Объявление не найдено"}`)
	sess := newSession(t, entity.RoleUser)
	ctx := context.Background()

	snap, err := f.svc.Open(ctx, sess, pages.PageProperty, "nav-1", map[string]string{"id": "7"})
	require.NoError(t, err)
	view := snap.(pages.Snapshot[entity.Property])
	assert.Equal(t, viewstate.StateReady, view.State)
	require.Len(t, view.Items, 1)
	assert.Equal(t, "Loft", view.Items[0].Title)

	_, err = f.svc.Open(ctx, sess, pages.PageProperty, "nav-1", map[string]string{"id": "7"})
	require.NoError(t, err)
	assert.Equal(t, 1, f.up.count(http.MethodGet, "/api/properties/7"))

	snap, err = f.svc.Open(ctx, sess, pages.PageProperty, "nav-2", map[string]string{"id": "8"})
	require.NoError(t, err)
	view = snap.(pages.Snapshot[entity.Property])
	assert.Equal(t, viewstate.StateNotFound, view.State)
	assert.Equal(t, "Объявление не найдено", view.Error)
	assert.Empty(t, view.Items)

	_, err = f.svc.Open(ctx, sess, pages.PageProperty, "nav-3", map[string]string{"id": "abc"})
	assert.True(t, apperror.IsValidation(err))
}

func TestViewService_RoleAndPageChecks(t *testing.T) {
	f := newViewFixture(t)
	tenant := newSession(t, entity.RoleUser)
	ctx := context.Background()

	_, err := f.svc.Open(ctx, tenant, pages.PageAdminPayouts, "", nil)
	assert.ErrorIs(t, err, apperror.ErrForbidden)

	_, err = f.svc.Open(ctx, tenant, "unknown", "", nil)
	assert.ErrorIs(t, err, apperror.ErrPageNotFound)

	_, err = f.svc.Open(ctx, nil, pages.PageSearch, "", nil)
	assert.ErrorIs(t, err, apperror.ErrUnauthorized)
	assert.Zero(t, f.svc.Count())
}

func TestViewService_ToggleFailurePublishesToast(t *testing.T) {
	f := newViewFixture(t)
	f.up.reply(http.MethodGet, "/api/properties/search", http.StatusOK, searchBody)
	f.up.reply(http.MethodPost, "/api/saved/properties/1", http.StatusInternalServerError, `{"message":"storage down"}`)
	sess := newSession(t, entity.RoleUser)
	ctx := context.Background()

	_, err := f.svc.Toggle(ctx, sess, pages.PageSearch, 1)
	require.Error(t, err)

	toasts := f.pub.events(ws.EventToast)
	require.Len(t, toasts, 1)
	assert.Equal(t, viewstate.Toast{Level: viewstate.ToastError, Message: "storage down"}, toasts[0])
	f.pub.AssertCalled(t, "Publish", sess.ID, ws.EventToast, mock.Anything)
}

func TestViewService_ActNeedsConfirmation(t *testing.T) {
	f := newViewFixture(t)
	f.up.reply(http.MethodGet, "/api/finance/admin/payout-requests", http.StatusOK, `[{"id":7,"amount":1500,"status":"PENDING"}]`)
	admin := newSession(t, entity.RoleAdmin)
	ctx := context.Background()

	_, err := f.svc.Act(ctx, admin, pages.PageAdminPayouts, 7, "pay", pages.ActionInput{})
	require.Error(t, err)
	assert.True(t, apperror.IsConfirmationRequired(err))
	assert.Zero(t, f.up.count(http.MethodPost, "/api/finance/admin/payout-requests/7/process"))

	_, err = f.svc.Act(ctx, admin, pages.PageAdminPayouts, 7, "pay", pages.ActionInput{Confirmed: true})
	require.NoError(t, err)
	assert.Equal(t, 1, f.up.count(http.MethodPost, "/api/finance/admin/payout-requests/7/process"))
}

func TestViewService_SetFiltersRejectsInvalidValues(t *testing.T) {
	f := newViewFixture(t)
	f.up.reply(http.MethodGet, "/api/roommates", http.StatusOK, `[]`)
	sess := newSession(t, entity.RoleUser)

	_, err := f.svc.SetFilters(context.Background(), sess, pages.PageRoommates, map[string]string{"minBudget": "abc"})
	require.Error(t, err)
	assert.True(t, apperror.IsValidation(err))
}

func TestViewService_EvictsIdleViews(t *testing.T) {
	f := newViewFixture(t)
	f.up.reply(http.MethodGet, "/api/properties/search", http.StatusOK, searchBody)
	sess := newSession(t, entity.RoleUser)
	ctx := context.Background()

	_, err := f.svc.Open(ctx, sess, pages.PageSearch, "nav-1", nil)
	require.NoError(t, err)

	f.clock.Advance(5 * time.Minute)
	assert.Zero(t, f.svc.Evict())

	f.clock.Advance(6 * time.Minute)
	assert.Equal(t, 1, f.svc.Evict())
	assert.Zero(t, f.svc.Count())

	// та же навигация после вытеснения снова загружает данные
	_, err = f.svc.Open(ctx, sess, pages.PageSearch, "nav-1", nil)
	require.NoError(t, err)
	assert.Equal(t, 2, f.up.count(http.MethodGet, "/api/properties/search"))
}

func TestViewService_CloseSessionKeepsOtherSessions(t *testing.T) {
	f := newViewFixture(t)
	f.up.reply(http.MethodGet, "/api/properties/search", http.StatusOK, searchBody)
	first := newSession(t, entity.RoleUser)
	second := newSession(t, entity.RoleUser)
	ctx := context.Background()

	for _, sess := range []*entity.Session{first, second} {
		_, err := f.svc.Open(ctx, sess, pages.PageSearch, "", nil)
		require.NoError(t, err)
	}
	require.Equal(t, 2, f.svc.Count())

	f.svc.CloseSession(first.ID)
	assert.Equal(t, 1, f.svc.Count())

	f.svc.Close(second, pages.PageSearch)
	assert.Zero(t, f.svc.Count())
}
