package repository

import (
	"alcyxob/totalfit/internal/domain" // Import our defined domain models
	"context"
)

// Error constants for repository layer
var (
	ErrNotFound      = RepositoryError("not found")
	ErrDuplicateKey  = RepositoryError("duplicate key")
	ErrUpdateFailed  = RepositoryError("update failed")
	ErrDeleteFailed  = RepositoryError("delete failed")
	ErrMissingFields = RepositoryError("missing required fields")
)

// RepositoryError helps distinguish repository errors
type RepositoryError string

func (e RepositoryError) Error() string {
	return string(e)
}

// UserRepository defines the interface for interacting with user data.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) (string, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByID(ctx context.Context, id string) (*domain.User, error)
}

// SessionRepository stores login sessions.
type SessionRepository interface {
	Create(ctx context.Context, session *domain.Session) error
	GetByID(ctx context.Context, id string) (*domain.Session, error)
	Delete(ctx context.Context, id string) error
}

// PlanRepository stores saved plans. Every method is scoped by owner so one
// identity can never read or touch another's plans.
type PlanRepository interface {
	// ListByOwner returns the owner's plans newest-first (by startDate).
	ListByOwner(ctx context.Context, owner string) ([]domain.SavedPlan, error)
	Insert(ctx context.Context, plan *domain.SavedPlan) error
	// Replace overwrites the stored plan with the same ID and owner.
	Replace(ctx context.Context, plan *domain.SavedPlan) error
	Delete(ctx context.Context, owner, id string) error
}
