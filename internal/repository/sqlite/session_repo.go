package sqlite

import (
	"alcyxob/totalfit/internal/domain"
	"alcyxob/totalfit/internal/repository"
	"context"
	"database/sql"
	"errors"
	"time"
)

type sqliteSessionRepository struct {
	db *sql.DB
}

// NewSQLiteSessionRepository creates a session repository on an opened database.
func NewSQLiteSessionRepository(db *sql.DB) repository.SessionRepository {
	return &sqliteSessionRepository{db: db}
}

func (r *sqliteSessionRepository) Create(ctx context.Context, session *domain.Session) error {
	if session.ID == "" || session.UserID == "" {
		return repository.ErrMissingFields
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO sessions (id, user_id, persistent, created_at, expires_at) VALUES (?, ?, ?, ?, ?)`,
		session.ID, session.UserID, session.Persistent,
		session.CreatedAt.UnixMilli(), session.ExpiresAt.UnixMilli())
	if isUniqueViolation(err) {
		return repository.ErrDuplicateKey
	}
	return err
}

func (r *sqliteSessionRepository) GetByID(ctx context.Context, id string) (*domain.Session, error) {
	var (
		session          domain.Session
		created, expires int64
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, persistent, created_at, expires_at FROM sessions WHERE id = ?`, id).
		Scan(&session.ID, &session.UserID, &session.Persistent, &created, &expires)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	session.CreatedAt = time.UnixMilli(created).UTC()
	session.ExpiresAt = time.UnixMilli(expires).UTC()
	return &session, nil
}

func (r *sqliteSessionRepository) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, id)
	return err
}
