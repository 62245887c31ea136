package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/staymate/staymate-bff/internal/domain/entity"
	"github.com/staymate/staymate-bff/internal/pkg/apperror"
	"github.com/staymate/staymate-bff/internal/repository/common"
	"github.com/staymate/staymate-bff/internal/security"
)

// TokenCipher шифрует токены перед записью.
type TokenCipher interface {
	Encrypt(plain string) (string, error)
	Decrypt(value string) (string, error)
}

var _ TokenCipher = (*security.TokenCipher)(nil)

type sessionRow struct {
	ID              uuid.UUID    `db:"id"`
	UserID          int64        `db:"user_id"`
	Email           string       `db:"email"`
	Roles           string       `db:"roles"`
	AccessToken     string       `db:"access_token"`
	RefreshToken    string       `db:"refresh_token"`
	AccessExpiresAt sql.NullTime `db:"access_expires_at"`
	CreatedAt       time.Time    `db:"created_at"`
	UpdatedAt       time.Time    `db:"updated_at"`
	ExpiresAt       time.Time    `db:"expires_at"`
}

// SessionRepository хранит сессии BFF в PostgreSQL. Токены upstream лежат в зашифрованном виде.
type SessionRepository struct {
	db     *sqlx.DB
	cipher TokenCipher
}

func NewSessionRepository(db *sqlx.DB, cipher TokenCipher) *SessionRepository {
	return &SessionRepository{db: db, cipher: cipher}
}

func (r *SessionRepository) Create(ctx context.Context, s *entity.Session) error {
	access, refresh, err := r.seal(s)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO bff_sessions (id, user_id, email, roles, access_token, refresh_token, access_expires_at, created_at, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, s.ID, s.UserID, s.Email, strings.Join(s.Roles, ","), access, refresh, nullTime(s.AccessExpiresAt()), s.CreatedAt, s.ExpiresAt)
	if err != nil {
		return apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось сохранить сессию")
	}
	return nil
}

// UpdateTokens сохраняет токены после refresh.
func (r *SessionRepository) UpdateTokens(ctx context.Context, s *entity.Session) error {
	access, refresh, err := r.seal(s)
	if err != nil {
		return err
	}
	err = common.ExecAffected(ctx, r.db, apperror.ErrSessionNotFound, `
		UPDATE bff_sessions
		SET access_token = $2, refresh_token = $3, access_expires_at = $4, updated_at = NOW()
		WHERE id = $1
	`, s.ID, access, refresh, nullTime(s.AccessExpiresAt()))
	if err != nil && !errors.Is(err, apperror.ErrSessionNotFound) {
		return apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось обновить токены сессии")
	}
	return err
}

func (r *SessionRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Session, error) {
	row, err := common.GetByID[sessionRow](ctx, r.db, "bff_sessions", id, apperror.ErrSessionNotFound)
	if errors.Is(err, apperror.ErrSessionNotFound) {
		return nil, err
	}
	if err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось загрузить сессию")
	}

	access, err := r.cipher.Decrypt(row.AccessToken)
	if err != nil {
		return nil, fmt.Errorf("session repository: decrypt access: %w", err)
	}
	refresh, err := r.cipher.Decrypt(row.RefreshToken)
	if err != nil {
		return nil, fmt.Errorf("session repository: decrypt refresh: %w", err)
	}

	var roles []string
	if row.Roles != "" {
		roles = strings.Split(row.Roles, ",")
	}
	return entity.RestoreSession(row.ID, row.UserID, row.Email, roles, access, refresh,
		row.AccessExpiresAt.Time, row.CreatedAt, row.ExpiresAt), nil
}

func (r *SessionRepository) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM bff_sessions WHERE id = $1`, id); err != nil {
		return apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось удалить сессию")
	}
	return nil
}

// DeleteExpired удаляет истёкшие сессии и возвращает их количество.
func (r *SessionRepository) DeleteExpired(ctx context.Context) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM bff_sessions WHERE expires_at <= NOW()`)
	if err != nil {
		return 0, apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось очистить сессии")
	}
	return res.RowsAffected()
}

func (r *SessionRepository) seal(s *entity.Session) (string, string, error) {
	access, refresh := s.Tokens()
	encAccess, err := r.cipher.Encrypt(access)
	if err != nil {
		return "", "", fmt.Errorf("session repository: encrypt access: %w", err)
	}
	encRefresh := ""
	if refresh != "" {
		if encRefresh, err = r.cipher.Encrypt(refresh); err != nil {
			return "", "", fmt.Errorf("session repository: encrypt refresh: %w", err)
		}
	}
	return encAccess, encRefresh, nil
}

func nullTime(t time.Time) sql.NullTime {
	return sql.NullTime{Time: t, Valid: !t.IsZero()}
}
