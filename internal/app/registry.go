package app

import (
	"alcyxob/totalfit/internal/domain"
	"alcyxob/totalfit/internal/service"
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Registry holds the live controller of every signed-in identity.
type Registry struct {
	deps Deps

	mu          sync.Mutex
	controllers map[string]*Controller // by identity ID
}

// NewRegistry creates an empty Registry.
func NewRegistry(deps Deps) *Registry {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	return &Registry{deps: deps, controllers: make(map[string]*Controller)}
}

// Register creates an account and signs it in.
func (r *Registry) Register(ctx context.Context, name, email, password string, remember bool) (*service.LoginResult, Snapshot, error) {
	if _, err := r.deps.Auth.Register(ctx, name, email, password); err != nil {
		return nil, Snapshot{State: StateAuth}, err
	}
	return r.Login(ctx, email, password, remember)
}

// Login authenticates, opens a session and boots the identity's controller
// on the dashboard.
func (r *Registry) Login(ctx context.Context, email, password string, remember bool) (*service.LoginResult, Snapshot, error) {
	result, err := r.deps.Auth.Login(ctx, email, password, remember)
	if err != nil {
		return nil, Snapshot{State: StateAuth}, err
	}
	c := r.controllerFor(ctx, result.Identity)
	r.deps.Logger.Info("User signed in", zap.String("user", result.Identity.ID), zap.Bool("remember", remember))
	return result, c.Snapshot(), nil
}

// Resume returns the controller of a stored session, booting it if this
// process has not seen the identity yet. A missing or expired session yields
// ErrNoSession.
func (r *Registry) Resume(ctx context.Context, sessionID string) (*Controller, error) {
	identity, err := r.deps.Store.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if identity == nil {
		return nil, ErrNoSession
	}
	return r.controllerFor(ctx, *identity), nil
}

// Logout ends a session and forgets the identity's controller.
func (r *Registry) Logout(ctx context.Context, sessionID string) error {
	identity, err := r.deps.Store.GetSession(ctx, sessionID)
	if err != nil {
		return err
	}
	if identity == nil {
		return r.deps.Auth.Logout(ctx, sessionID)
	}

	r.mu.Lock()
	c, ok := r.controllers[identity.ID]
	delete(r.controllers, identity.ID)
	r.mu.Unlock()

	if !ok {
		return r.deps.Auth.Logout(ctx, sessionID)
	}
	r.deps.Logger.Info("User signed out", zap.String("user", identity.ID))
	return c.Logout(ctx, sessionID)
}

// Active reports whether identityID has a live controller.
func (r *Registry) Active(identityID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.controllers[identityID]
	return ok
}

// Shutdown tears down every controller. Stored sessions are kept so remembered
// logins survive a restart.
func (r *Registry) Shutdown() {
	r.mu.Lock()
	controllers := r.controllers
	r.controllers = make(map[string]*Controller)
	r.mu.Unlock()

	for _, c := range controllers {
		c.teardown()
	}
}

func (r *Registry) controllerFor(ctx context.Context, identity domain.Identity) *Controller {
	r.mu.Lock()
	c, ok := r.controllers[identity.ID]
	if !ok {
		c = newController(identity, r.deps)
		r.controllers[identity.ID] = c
	}
	r.mu.Unlock()

	c.boot(ctx)
	return c
}
