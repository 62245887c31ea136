package service

import (
	"context"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/staymate/staymate-bff/internal/domain/entity"
	"github.com/staymate/staymate-bff/internal/pkg/apperror"
	"github.com/staymate/staymate-bff/internal/repository"
)

const upstreamSecret = "upstream-secret"

type sessionFixture struct {
	up    *stayMateStub
	repo  *repository.MemorySessionRepository
	clock *clockwork.FakeClock
	svc   *SessionService
}

func newSessionFixture(t *testing.T) *sessionFixture {
	f := &sessionFixture{
		up:    newStayMateStub(t),
		clock: clockwork.NewFakeClockAt(time.Now()),
	}
	f.repo = repository.NewMemorySessionRepository(f.clock)
	f.svc = NewSessionService(f.up.api(), f.repo, NewTokenReader(upstreamSecret), f.clock, time.Hour)
	return f
}

func (f *sessionFixture) acceptLogin(t *testing.T) {
	access := signUpstream(t, upstreamSecret, jwt.MapClaims{
		"sub":    "owner@staymate.app",
		"userId": 7,
		"roles":  []string{entity.RoleHouseOwner},
		"exp":    time.Now().Add(15 * time.Minute).Unix(),
	})
	f.up.reply(http.MethodPost, "/api/auth/login", http.StatusOK,
		fmt.Sprintf(`{"accessToken":%q,"refreshToken":"refresh-1","tokenType":"Bearer"}`, access))
}

func TestSessionService_LoginCreatesSession(t *testing.T) {
	f := newSessionFixture(t)
	f.acceptLogin(t)
	ctx := context.Background()

	res, err := f.svc.Login(ctx, LoginInput{Email: " Owner@StayMate.app ", Password: "secret"})
	require.NoError(t, err)
	assert.Equal(t, int64(7), res.Session.UserID)
	assert.Equal(t, "owner@staymate.app", res.Session.Email)
	assert.True(t, res.Session.HasRole(entity.RoleHouseOwner))
	assert.Equal(t, []string{entity.RoleHouseOwner}, res.User.Roles)

	stored, err := f.repo.FindByID(ctx, res.Session.ID)
	require.NoError(t, err)
	_, refresh := stored.Tokens()
	assert.Equal(t, "refresh-1", refresh)

	got, err := f.svc.Authenticate(ctx, res.Session.ID)
	require.NoError(t, err)
	assert.Same(t, res.Session, got)
}

func TestSessionService_LoginValidation(t *testing.T) {
	f := newSessionFixture(t)
	ctx := context.Background()

	_, err := f.svc.Login(ctx, LoginInput{Email: "not-an-email", Password: "secret"})
	assert.True(t, apperror.IsValidation(err))

	_, err = f.svc.Login(ctx, LoginInput{Email: "tenant@staymate.app", Password: "  "})
	assert.True(t, apperror.IsValidation(err))

	assert.Zero(t, f.up.count(http.MethodPost, "/api/auth/login"))
}

func TestSessionService_LoginRejectedByUpstream(t *testing.T) {
	f := newSessionFixture(t)
	f.up.reply(http.MethodPost, "/api/auth/login", http.StatusUnauthorized, `{"message":"Bad credentials"}`)

	_, err := f.svc.Login(context.Background(), LoginInput{Email: "tenant@staymate.app", Password: "wrong"})
	assert.ErrorIs(t, err, apperror.ErrInvalidCredentials)
}

func TestSessionService_ExpiredSessionIsRemoved(t *testing.T) {
	f := newSessionFixture(t)
	f.acceptLogin(t)
	ctx := context.Background()

	res, err := f.svc.Login(ctx, LoginInput{Email: "owner@staymate.app", Password: "secret"})
	require.NoError(t, err)

	f.clock.Advance(2 * time.Hour)
	_, err = f.svc.Authenticate(ctx, res.Session.ID)
	assert.ErrorIs(t, err, apperror.ErrSessionNotFound)

	_, err = f.repo.FindByID(ctx, res.Session.ID)
	assert.ErrorIs(t, err, apperror.ErrSessionNotFound)
}

func TestSessionService_PurgeExpired(t *testing.T) {
	f := newSessionFixture(t)
	f.acceptLogin(t)
	ctx := context.Background()

	res, err := f.svc.Login(ctx, LoginInput{Email: "owner@staymate.app", Password: "secret"})
	require.NoError(t, err)

	expired, err := f.svc.PurgeExpired(ctx)
	require.NoError(t, err)
	assert.Empty(t, expired)

	f.clock.Advance(2 * time.Hour)
	expired, err = f.svc.PurgeExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{res.Session.ID}, expired)
}

func TestSessionService_LogoutIgnoresUpstreamFailure(t *testing.T) {
	f := newSessionFixture(t)
	f.acceptLogin(t)
	f.up.reply(http.MethodPost, "/api/auth/logout", http.StatusBadGateway, `{}`)
	ctx := context.Background()

	res, err := f.svc.Login(ctx, LoginInput{Email: "owner@staymate.app", Password: "secret"})
	require.NoError(t, err)

	require.NoError(t, f.svc.Logout(ctx, res.Session))
	assert.Equal(t, 1, f.up.count(http.MethodPost, "/api/auth/logout"))

	_, err = f.svc.Authenticate(ctx, res.Session.ID)
	assert.ErrorIs(t, err, apperror.ErrSessionNotFound)
}

func TestSessionService_Expire(t *testing.T) {
	f := newSessionFixture(t)
	f.acceptLogin(t)
	res, err := f.svc.Login(context.Background(), LoginInput{Email: "owner@staymate.app", Password: "secret"})
	require.NoError(t, err)

	require.NoError(t, f.svc.Expire(context.Background(), res.Session.ID))

	_, err = f.svc.Authenticate(context.Background(), res.Session.ID)
	assert.ErrorIs(t, err, apperror.ErrSessionNotFound)
}
