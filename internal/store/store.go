// Package store implements the plan store contract consumed by the plan
// lifecycle engine: login sessions plus an append-only, per-identity plan log.
package store

import (
	"alcyxob/totalfit/internal/domain"
	"alcyxob/totalfit/internal/repository"
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	// ErrStoreUnavailable wraps any failure of the underlying database.
	ErrStoreUnavailable = errors.New("plan store unavailable")
	// ErrNoIdentity is returned by writes issued without an authenticated identity.
	ErrNoIdentity = errors.New("no authenticated identity")
)

// Default session lifetimes.
const (
	DefaultSessionTTL  = 12 * time.Hour
	DefaultRememberTTL = 30 * 24 * time.Hour
)

// PlanStore is the persistence contract of the engine. Every plan operation is
// scoped by owner (the identity ID).
type PlanStore interface {
	GetSession(ctx context.Context, sessionID string) (*domain.Identity, error)
	CreateSession(ctx context.Context, identity domain.Identity, persistent bool) (*domain.Session, error)
	ClearSession(ctx context.Context, sessionID string) error

	ListPlans(ctx context.Context, owner string) ([]domain.SavedPlan, error)
	InsertPlan(ctx context.Context, owner string, plan *domain.SavedPlan) error
	UpdatePlan(ctx context.Context, owner string, plan *domain.SavedPlan) error
	DeletePlan(ctx context.Context, owner, id string) error
}

// Options configures session lifetimes and the clock.
type Options struct {
	SessionTTL  time.Duration
	RememberTTL time.Duration
	Now         func() time.Time
}

// Store implements PlanStore on top of the repositories.
type Store struct {
	users    repository.UserRepository
	sessions repository.SessionRepository
	plans    repository.PlanRepository
	opts     Options
	logger   *zap.Logger

	mu    sync.Mutex
	locks map[string]*ownerLock
}

type ownerLock struct {
	mu   sync.Mutex
	refs int
}

// New creates a Store. Zero option values fall back to the defaults.
func New(users repository.UserRepository, sessions repository.SessionRepository, plans repository.PlanRepository, opts Options, logger *zap.Logger) *Store {
	if opts.SessionTTL <= 0 {
		opts.SessionTTL = DefaultSessionTTL
	}
	if opts.RememberTTL <= 0 {
		opts.RememberTTL = DefaultRememberTTL
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{
		users:    users,
		sessions: sessions,
		plans:    plans,
		opts:     opts,
		logger:   logger,
		locks:    make(map[string]*ownerLock),
	}
}

// GetSession resolves a session to its identity. A missing or expired session
// yields (nil, nil).
func (s *Store) GetSession(ctx context.Context, sessionID string) (*domain.Identity, error) {
	if sessionID == "" {
		return nil, nil
	}
	session, err := s.sessions.GetByID(ctx, sessionID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, unavailable("get session", err)
	}
	if session.Expired(s.opts.Now()) {
		if err := s.sessions.Delete(ctx, session.ID); err != nil {
			s.logger.Warn("Failed to remove expired session", zap.String("session", session.ID), zap.Error(err))
		}
		return nil, nil
	}

	user, err := s.users.GetByID(ctx, session.UserID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, unavailable("get session user", err)
	}
	identity := user.Identity()
	return &identity, nil
}

// CreateSession opens a session for identity. Persistent sessions live for the
// "remember me" lifetime, others for the short default.
func (s *Store) CreateSession(ctx context.Context, identity domain.Identity, persistent bool) (*domain.Session, error) {
	if identity.ID == "" {
		return nil, ErrNoIdentity
	}
	now := s.opts.Now().UTC()
	ttl := s.opts.SessionTTL
	if persistent {
		ttl = s.opts.RememberTTL
	}
	session := &domain.Session{
		ID:         uuid.NewString(),
		UserID:     identity.ID,
		Persistent: persistent,
		CreatedAt:  now,
		ExpiresAt:  now.Add(ttl),
	}
	if err := s.sessions.Create(ctx, session); err != nil {
		return nil, unavailable("create session", err)
	}
	return session, nil
}

// ClearSession removes a session. Clearing an unknown session is a no-op.
func (s *Store) ClearSession(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return nil
	}
	if err := s.sessions.Delete(ctx, sessionID); err != nil {
		return unavailable("clear session", err)
	}
	return nil
}

// ListPlans returns the owner's plans newest-first. The returned slice is never
// nil: without an identity, or when the database fails, it is empty (the error
// is still reported so callers can log it).
func (s *Store) ListPlans(ctx context.Context, owner string) ([]domain.SavedPlan, error) {
	if owner == "" {
		return []domain.SavedPlan{}, nil
	}
	plans, err := s.plans.ListByOwner(ctx, owner)
	if err != nil {
		return []domain.SavedPlan{}, unavailable("list plans", err)
	}
	if plans == nil {
		plans = []domain.SavedPlan{}
	}
	return plans, nil
}

// InsertPlan prepends a plan to the owner's log.
func (s *Store) InsertPlan(ctx context.Context, owner string, plan *domain.SavedPlan) error {
	if owner == "" {
		return ErrNoIdentity
	}
	unlock := s.lock(owner)
	defer unlock()

	plan.Owner = owner
	if err := s.plans.Insert(ctx, plan); err != nil {
		return unavailable("insert plan", err)
	}
	return nil
}

// UpdatePlan replaces the owner's plan with the same ID.
func (s *Store) UpdatePlan(ctx context.Context, owner string, plan *domain.SavedPlan) error {
	if owner == "" {
		return ErrNoIdentity
	}
	unlock := s.lock(owner)
	defer unlock()

	plan.Owner = owner
	if err := s.plans.Replace(ctx, plan); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return err
		}
		return unavailable("update plan", err)
	}
	return nil
}

// DeletePlan removes one of the owner's plans.
func (s *Store) DeletePlan(ctx context.Context, owner, id string) error {
	if owner == "" {
		return ErrNoIdentity
	}
	unlock := s.lock(owner)
	defer unlock()

	if err := s.plans.Delete(ctx, owner, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return err
		}
		return unavailable("delete plan", err)
	}
	return nil
}

// FindPlan looks a plan up in a newest-first list.
func FindPlan(plans []domain.SavedPlan, id string) (domain.SavedPlan, bool) {
	for _, p := range plans {
		if p.ID == id {
			return p, true
		}
	}
	return domain.SavedPlan{}, false
}

// lock serializes writes of one owner.
func (s *Store) lock(owner string) func() {
	s.mu.Lock()
	l, ok := s.locks[owner]
	if !ok {
		l = &ownerLock{}
		s.locks[owner] = l
	}
	l.refs++
	s.mu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		s.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(s.locks, owner)
		}
		s.mu.Unlock()
	}
}

func unavailable(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrStoreUnavailable, err)
}
