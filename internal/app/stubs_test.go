package app

import (
	"alcyxob/totalfit/internal/domain"
	"alcyxob/totalfit/internal/evolution"
	"alcyxob/totalfit/internal/llm"
	"alcyxob/totalfit/internal/repository"
	"alcyxob/totalfit/internal/service"
	"alcyxob/totalfit/internal/store"
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"
)

// memoryStore is an in-memory PlanStore. Setting writeErr or listErr makes
// the matching calls fail.
type memoryStore struct {
	mu       sync.Mutex
	sessions map[string]domain.Identity
	plans    map[string][]domain.SavedPlan
	writeErr error
	listErr  error
	cleared  []string
}

func newMemoryStore() *memoryStore {
	return &memoryStore{sessions: map[string]domain.Identity{}, plans: map[string][]domain.SavedPlan{}}
}

func (s *memoryStore) GetSession(ctx context.Context, sessionID string) (*domain.Identity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	identity, ok := s.sessions[sessionID]
	if !ok {
		return nil, nil
	}
	return &identity, nil
}

func (s *memoryStore) CreateSession(ctx context.Context, identity domain.Identity, persistent bool) (*domain.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := fmt.Sprintf("session-%d", len(s.sessions)+len(s.cleared)+1)
	s.sessions[id] = identity
	return &domain.Session{ID: id, UserID: identity.ID, Persistent: persistent, ExpiresAt: time.Now().Add(time.Hour)}, nil
}

func (s *memoryStore) ClearSession(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, sessionID)
	s.cleared = append(s.cleared, sessionID)
	return nil
}

func (s *memoryStore) ListPlans(ctx context.Context, owner string) ([]domain.SavedPlan, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listErr != nil {
		return []domain.SavedPlan{}, s.listErr
	}
	out := append([]domain.SavedPlan{}, s.plans[owner]...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].StartDate > out[j].StartDate })
	return out, nil
}

func (s *memoryStore) InsertPlan(ctx context.Context, owner string, plan *domain.SavedPlan) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.writeErr != nil {
		return s.writeErr
	}
	plan.Owner = owner
	s.plans[owner] = append([]domain.SavedPlan{*plan}, s.plans[owner]...)
	return nil
}

func (s *memoryStore) UpdatePlan(ctx context.Context, owner string, plan *domain.SavedPlan) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.writeErr != nil {
		return s.writeErr
	}
	for i, p := range s.plans[owner] {
		if p.ID == plan.ID {
			plan.Owner = owner
			s.plans[owner][i] = *plan
			return nil
		}
	}
	return repository.ErrNotFound
}

func (s *memoryStore) DeletePlan(ctx context.Context, owner, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.writeErr != nil {
		return s.writeErr
	}
	for i, p := range s.plans[owner] {
		if p.ID == id {
			s.plans[owner] = append(s.plans[owner][:i], s.plans[owner][i+1:]...)
			return nil
		}
	}
	return repository.ErrNotFound
}

func (s *memoryStore) seed(owner string, plans ...domain.SavedPlan) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range plans {
		p.Owner = owner
		s.plans[owner] = append(s.plans[owner], p)
	}
}

// stubAuth accepts one password for every email.
type stubAuth struct {
	store    *memoryStore
	password string
	users    map[string]domain.Identity
}

func newStubAuth(s *memoryStore) *stubAuth {
	return &stubAuth{store: s, password: "secret123", users: map[string]domain.Identity{
		"ana@example.com": {ID: "user-ana", Name: "Ana", Email: "ana@example.com", MemberSince: "01/01/2026"},
	}}
}

func (a *stubAuth) Register(ctx context.Context, name, email, password string) (*domain.User, error) {
	if _, ok := a.users[email]; ok {
		return nil, service.ErrUserAlreadyExists
	}
	identity := domain.Identity{ID: "user-" + name, Name: name, Email: email}
	a.users[email] = identity
	return &domain.User{ID: identity.ID, Name: name, Email: email}, nil
}

func (a *stubAuth) Login(ctx context.Context, email, password string, remember bool) (*service.LoginResult, error) {
	identity, ok := a.users[email]
	if !ok || password != a.password {
		return nil, service.ErrAuthenticationFailed
	}
	session, err := a.store.CreateSession(ctx, identity, remember)
	if err != nil {
		return nil, err
	}
	return &service.LoginResult{Token: "token-" + session.ID, Session: session, Identity: identity}, nil
}

func (a *stubAuth) Logout(ctx context.Context, sessionID string) error {
	return a.store.ClearSession(ctx, sessionID)
}

func (a *stubAuth) GetJWTSecret() string { return "test" }

// stubGenerator returns result/err. When gate is set, Generate signals on
// entered and then waits for gate before answering.
type stubGenerator struct {
	result     *domain.GeneratedPlan
	err        error
	gate       chan struct{}
	entered    chan struct{}
	calls      int
	lastIntake domain.UserProfileInput
	mu         sync.Mutex
}

func (g *stubGenerator) Generate(ctx context.Context, intake domain.UserProfileInput) (*domain.GeneratedPlan, error) {
	g.mu.Lock()
	g.calls++
	g.lastIntake = intake
	gate, entered := g.gate, g.entered
	g.mu.Unlock()
	if entered != nil {
		entered <- struct{}{}
	}
	if gate != nil {
		<-gate
	}
	return g.result, g.err
}

type stubEvolver struct {
	result   *evolution.Result
	err      error
	lastPlan domain.SavedPlan
	calls    int
}

func (e *stubEvolver) Evolve(ctx context.Context, plan domain.SavedPlan, newWeight float64, feedback string) (*evolution.Result, error) {
	e.calls++
	e.lastPlan = plan
	return e.result, e.err
}

type stubChatSession struct{ reply string }

func (s *stubChatSession) Send(ctx context.Context, message string) (string, error) {
	return s.reply, nil
}

type stubChatBackend struct{ starts int }

func (b *stubChatBackend) Generate(ctx context.Context, req llm.Request) (string, error) {
	return "", errors.New("not used")
}

func (b *stubChatBackend) StartChat(ctx context.Context, systemInstruction string) (llm.ChatSession, error) {
	b.starts++
	return &stubChatSession{reply: "Drink water."}, nil
}

type stubExporter struct {
	exported []string
	removed  []string
	err      error
}

func (e *stubExporter) Export(ctx context.Context, owner string, plan domain.SavedPlan) (string, string, error) {
	if e.err != nil {
		return "", "", e.err
	}
	e.exported = append(e.exported, plan.ID)
	key := "exports/" + owner + "/" + plan.ID + ".json"
	return key, "https://files.example.com/" + key + "?sig=1", nil
}

func (e *stubExporter) Remove(ctx context.Context, key string) error {
	e.removed = append(e.removed, key)
	return nil
}

var _ store.PlanStore = (*memoryStore)(nil)
var _ service.AuthService = (*stubAuth)(nil)
