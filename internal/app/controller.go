// Package app drives the plan lifecycle of each signed-in identity: intake,
// generation, saving, evolution, chat and the hydration reminder.
package app

import (
	"alcyxob/totalfit/internal/chat"
	"alcyxob/totalfit/internal/domain"
	"alcyxob/totalfit/internal/evolution"
	"alcyxob/totalfit/internal/generator"
	"alcyxob/totalfit/internal/llm"
	"alcyxob/totalfit/internal/reminder"
	"alcyxob/totalfit/internal/repository"
	"alcyxob/totalfit/internal/service"
	"alcyxob/totalfit/internal/store"
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// PlanGenerator produces a plan from an intake.
type PlanGenerator interface {
	Generate(ctx context.Context, intake domain.UserProfileInput) (*domain.GeneratedPlan, error)
}

// Evolver produces the next week's plan from a saved one.
type Evolver interface {
	Evolve(ctx context.Context, plan domain.SavedPlan, newWeight float64, feedback string) (*evolution.Result, error)
}

// Exporter publishes saved plans to object storage.
type Exporter interface {
	Export(ctx context.Context, owner string, plan domain.SavedPlan) (key, url string, err error)
	Remove(ctx context.Context, key string) error
}

// Deps are the collaborators shared by every controller.
type Deps struct {
	Store       store.PlanStore
	Auth        service.AuthService
	Generator   PlanGenerator
	Evolver     Evolver
	ChatBackend llm.Backend
	Exporter    Exporter // nil disables exports
	Reminder    reminder.Options
	Now         func() time.Time
	Logger      *zap.Logger
}

// Controller is the state machine of one identity. State changes are
// serialized by mu, which is never held across an AI call.
type Controller struct {
	identity domain.Identity
	deps     Deps
	logger   *zap.Logger

	chat     *chat.Synchronizer
	reminder *reminder.Reminder

	mu        sync.Mutex
	state     State
	booted    bool
	current   *domain.GeneratedPlan
	intake    *domain.UserProfileInput
	evolution *EvolutionContext
	saved     bool
	savedID   string
	errMsg    string
	plans     []domain.SavedPlan
	busy      bool
	epoch     uint64 // bumped on navigation; a pending result from an older epoch is dropped
}

func newController(identity domain.Identity, deps Deps) *Controller {
	logger := deps.Logger.With(zap.String("user", identity.ID))
	return &Controller{
		identity: identity,
		deps:     deps,
		logger:   logger,
		chat:     chat.New(deps.ChatBackend, logger.Named("chat")),
		reminder: reminder.New(deps.Reminder, logger.Named("reminder")),
		state:    StateAuth,
		plans:    []domain.SavedPlan{},
	}
}

// boot loads the plan list and enters the dashboard. Only the first call has effect.
func (c *Controller) boot(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.booted {
		return
	}
	c.booted = true
	c.refreshLocked(ctx)
	c.state = StateDashboard
	c.reminder.Start()
}

// Identity returns the identity the controller belongs to.
func (c *Controller) Identity() domain.Identity {
	return c.identity
}

// CreateNew clears the current plan and opens the intake form.
func (c *Controller) CreateNew() (Snapshot, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == StateAuth {
		return c.snapshotLocked(), ErrNoSession
	}
	c.abandonLocked()
	c.clearCurrentLocked()
	c.state = StateInput
	return c.snapshotLocked(), nil
}

// Submit generates a plan from intake. An invalid intake leaves the state
// untouched. Generation failures move to the error state and are not returned
// as errors.
func (c *Controller) Submit(ctx context.Context, intake domain.UserProfileInput) (Snapshot, error) {
	if err := intake.Validate(); err != nil {
		return c.Snapshot(), err
	}

	c.mu.Lock()
	if c.state == StateAuth {
		c.mu.Unlock()
		return c.Snapshot(), ErrNoSession
	}
	if c.busy {
		c.mu.Unlock()
		return c.Snapshot(), ErrBusy
	}
	epoch := c.beginLocked()
	c.mu.Unlock()

	c.logger.Info("Generating plan", zap.String("goal", intake.Goal))
	plan, err := c.deps.Generator.Generate(ctx, intake)

	c.mu.Lock()
	defer c.mu.Unlock()
	if epoch != c.epoch {
		c.logger.Debug("Dropping abandoned generation result")
		return c.snapshotLocked(), nil
	}
	c.busy = false
	if err != nil {
		c.failLocked(err)
		return c.snapshotLocked(), nil
	}

	c.current = plan
	c.intake = &intake
	c.evolution = nil
	c.saved = false
	c.savedID = ""
	c.showResultLocked()
	c.reminder.ScheduleOnce()
	return c.snapshotLocked(), nil
}

// ConfirmEvolution evolves the current evolution candidate with the check-in.
func (c *Controller) ConfirmEvolution(ctx context.Context, feedback domain.EvolutionFeedback) (Snapshot, error) {
	if err := feedback.Validate(); err != nil {
		return c.Snapshot(), err
	}

	c.mu.Lock()
	if c.state == StateAuth {
		c.mu.Unlock()
		return c.Snapshot(), ErrNoSession
	}
	if c.busy {
		c.mu.Unlock()
		return c.Snapshot(), ErrBusy
	}
	candidate := evolution.Candidate(c.plans, c.now())
	if candidate == nil {
		c.mu.Unlock()
		return c.Snapshot(), ErrNotEligible
	}
	epoch := c.beginLocked()
	c.mu.Unlock()

	result, err := c.deps.Evolver.Evolve(ctx, *candidate, feedback.Weight, feedback.Feedback)

	c.mu.Lock()
	defer c.mu.Unlock()
	if epoch != c.epoch {
		c.logger.Debug("Dropping abandoned evolution result")
		return c.snapshotLocked(), nil
	}
	c.busy = false
	if err != nil {
		c.failLocked(err)
		return c.snapshotLocked(), nil
	}

	intake := result.Intake
	c.current = result.Plan
	c.intake = &intake
	c.evolution = &EvolutionContext{WeekCount: result.WeekCount, PreviousID: result.PreviousID}
	c.saved = false
	c.savedID = ""
	c.showResultLocked()
	return c.snapshotLocked(), nil
}

// Save persists the current plan as a new saved plan starting now.
func (c *Controller) Save(ctx context.Context) (Snapshot, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == StateAuth {
		return c.snapshotLocked(), ErrNoSession
	}
	if c.current == nil || c.intake == nil {
		return c.snapshotLocked(), ErrNothingToSave
	}
	if c.saved {
		return c.snapshotLocked(), ErrAlreadySaved
	}

	now := c.now()
	week := 1
	previousID := ""
	if c.evolution != nil {
		week = c.evolution.WeekCount
		previousID = c.evolution.PreviousID
	}
	plan := &domain.SavedPlan{
		ID:         uuid.NewString(),
		Date:       now.Format(domain.DisplayDateLayout),
		StartDate:  now.UnixMilli(),
		WeekCount:  week,
		Name:       domain.PlanName(c.intake.Goal, week),
		PreviousID: previousID,
		Data:       *c.current,
		UserData:   *c.intake,
	}
	if err := c.deps.Store.InsertPlan(ctx, c.identity.ID, plan); err != nil {
		c.logger.Error("Failed to save plan", zap.Error(err))
		return c.snapshotLocked(), err
	}

	c.saved = true
	c.savedID = plan.ID
	c.refreshLocked(ctx)
	return c.snapshotLocked(), nil
}

// View shows a saved plan.
func (c *Controller) View(ctx context.Context, id string) (Snapshot, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == StateAuth {
		return c.snapshotLocked(), ErrNoSession
	}
	c.refreshLocked(ctx)
	plan, ok := store.FindPlan(c.plans, id)
	if !ok {
		return c.snapshotLocked(), ErrNotFound
	}
	c.abandonLocked()

	data := plan.Data
	data.Normalize()
	intake := plan.UserData
	c.current = &data
	c.intake = &intake
	c.evolution = nil
	c.saved = true
	c.savedID = plan.ID
	c.showResultLocked()
	return c.snapshotLocked(), nil
}

// Plan returns one saved plan.
func (c *Controller) Plan(ctx context.Context, id string) (domain.SavedPlan, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == StateAuth {
		return domain.SavedPlan{}, ErrNoSession
	}
	c.refreshLocked(ctx)
	plan, ok := store.FindPlan(c.plans, id)
	if !ok {
		return domain.SavedPlan{}, ErrNotFound
	}
	return plan, nil
}

// UpdateNotes replaces the personal notes of a saved plan.
func (c *Controller) UpdateNotes(ctx context.Context, id, notes string) (Snapshot, error) {
	return c.mutatePlan(ctx, id, func(p *domain.SavedPlan) {
		p.PersonalNotes = notes
	})
}

// StampNotes appends a dated entry header to the notes of a saved plan.
func (c *Controller) StampNotes(ctx context.Context, id string) (Snapshot, error) {
	now := c.now()
	return c.mutatePlan(ctx, id, func(p *domain.SavedPlan) {
		p.PersonalNotes = StampNotes(p.PersonalNotes, now)
	})
}

func (c *Controller) mutatePlan(ctx context.Context, id string, mutate func(*domain.SavedPlan)) (Snapshot, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == StateAuth {
		return c.snapshotLocked(), ErrNoSession
	}
	c.refreshLocked(ctx)
	plan, ok := store.FindPlan(c.plans, id)
	if !ok {
		return c.snapshotLocked(), ErrNotFound
	}
	mutate(&plan)
	if err := c.deps.Store.UpdatePlan(ctx, c.identity.ID, &plan); err != nil {
		c.logger.Error("Failed to update plan", zap.String("plan", id), zap.Error(err))
		return c.snapshotLocked(), storeErr(err)
	}
	c.refreshLocked(ctx)
	return c.snapshotLocked(), nil
}

// Delete removes a saved plan and its export, if any.
func (c *Controller) Delete(ctx context.Context, id string) (Snapshot, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == StateAuth {
		return c.snapshotLocked(), ErrNoSession
	}
	c.refreshLocked(ctx)
	plan, ok := store.FindPlan(c.plans, id)
	if !ok {
		return c.snapshotLocked(), ErrNotFound
	}
	if err := c.deps.Store.DeletePlan(ctx, c.identity.ID, id); err != nil {
		c.logger.Error("Failed to delete plan", zap.String("plan", id), zap.Error(err))
		return c.snapshotLocked(), storeErr(err)
	}
	if plan.ExportKey != "" && c.deps.Exporter != nil {
		if err := c.deps.Exporter.Remove(ctx, plan.ExportKey); err != nil {
			c.logger.Warn("Failed to remove plan export", zap.String("key", plan.ExportKey), zap.Error(err))
		}
	}
	if c.savedID == id {
		c.saved = false
		c.savedID = ""
	}
	c.refreshLocked(ctx)
	return c.snapshotLocked(), nil
}

// Export uploads a saved plan and returns a temporary download URL.
func (c *Controller) Export(ctx context.Context, id string) (string, error) {
	if c.deps.Exporter == nil {
		return "", ErrExportDisabled
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == StateAuth {
		return "", ErrNoSession
	}
	c.refreshLocked(ctx)
	plan, ok := store.FindPlan(c.plans, id)
	if !ok {
		return "", ErrNotFound
	}
	key, url, err := c.deps.Exporter.Export(ctx, c.identity.ID, plan)
	if err != nil {
		c.logger.Error("Failed to export plan", zap.String("plan", id), zap.Error(err))
		return "", err
	}
	if plan.ExportKey != key {
		plan.ExportKey = key
		if err := c.deps.Store.UpdatePlan(ctx, c.identity.ID, &plan); err != nil {
			return "", storeErr(err)
		}
		c.refreshLocked(ctx)
	}
	return url, nil
}

// Dashboard clears the current plan and shows the saved plans.
func (c *Controller) Dashboard(ctx context.Context) (Snapshot, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == StateAuth {
		return c.snapshotLocked(), ErrNoSession
	}
	c.abandonLocked()
	c.clearCurrentLocked()
	c.refreshLocked(ctx)
	c.state = StateDashboard
	return c.snapshotLocked(), nil
}

// Logout clears the stored session and tears the controller down. The
// controller stays in the auth state afterwards.
func (c *Controller) Logout(ctx context.Context, sessionID string) error {
	err := c.deps.Auth.Logout(ctx, sessionID)
	if err != nil {
		c.logger.Warn("Failed to clear session", zap.Error(err))
	}
	c.teardown()
	return err
}

// teardown stops the reminder, resets the chat and drops all in-memory state.
func (c *Controller) teardown() {
	c.reminder.Stop()
	c.chat.Reset()

	c.mu.Lock()
	defer c.mu.Unlock()
	c.abandonLocked()
	c.clearCurrentLocked()
	c.plans = []domain.SavedPlan{}
	c.state = StateAuth
}

// Ask sends a chat message about the plan currently shown.
func (c *Controller) Ask(ctx context.Context, message string) (string, error) {
	c.mu.Lock()
	if c.state == StateAuth {
		c.mu.Unlock()
		return "", ErrNoSession
	}
	var plan *domain.GeneratedPlan
	if c.current != nil {
		p := *c.current
		plan = &p
	}
	c.mu.Unlock()

	return c.chat.Ask(ctx, message, plan)
}

// ChatHistory returns the chat transcript.
func (c *Controller) ChatHistory() []domain.ChatTurn {
	return c.chat.History()
}

// DismissReminder hides the hydration reminder.
func (c *Controller) DismissReminder() {
	c.reminder.Dismiss()
}

// Snapshot returns a read-only view of the controller.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

func (c *Controller) snapshotLocked() Snapshot {
	now := c.now()
	snap := Snapshot{
		State:           c.state,
		Plan:            c.current,
		Intake:          c.intake,
		Saved:           c.saved,
		SavedPlanID:     c.savedID,
		Evolution:       c.evolution,
		Error:           c.errMsg,
		Plans:           make([]PlanSummary, 0, len(c.plans)),
		ReminderVisible: c.reminder.Visible(),
		Busy:            c.busy,
	}
	if c.state != StateAuth {
		identity := c.identity
		snap.Identity = &identity
	}
	for _, p := range c.plans {
		snap.Plans = append(snap.Plans, PlanSummary{
			ID:              p.ID,
			Name:            p.Name,
			Date:            p.Date,
			StartDate:       p.StartDate,
			WeekCount:       p.WeekCount,
			PreviousID:      p.PreviousID,
			PersonalNotes:   p.PersonalNotes,
			HasNotes:        p.HasNotes(),
			DaysElapsed:     evolution.DaysElapsed(p, now),
			ProgressPercent: evolution.ProgressPercent(p, now),
			Exported:        p.ExportKey != "",
		})
	}
	if candidate := evolution.Candidate(c.plans, now); candidate != nil {
		snap.EligiblePlanID = candidate.ID
	}
	return snap
}

// beginLocked enters the loading state for a new AI request and returns its epoch.
func (c *Controller) beginLocked() uint64 {
	c.busy = true
	c.epoch++
	c.errMsg = ""
	c.state = StateLoading
	c.reminder.Arm(false)
	return c.epoch
}

// abandonLocked forgets a pending AI request; its result will be ignored.
func (c *Controller) abandonLocked() {
	if c.busy {
		c.busy = false
		c.epoch++
	}
}

func (c *Controller) clearCurrentLocked() {
	c.current = nil
	c.intake = nil
	c.evolution = nil
	c.saved = false
	c.savedID = ""
	c.errMsg = ""
	c.reminder.Arm(false)
}

func (c *Controller) showResultLocked() {
	c.errMsg = ""
	c.state = StateResult
	c.reminder.Arm(true)
}

func (c *Controller) failLocked(err error) {
	c.logger.Warn("Plan request failed", zap.Error(err))
	c.errMsg = msgGenerationFailed
	var genErr *generator.GenerationError
	if errors.As(err, &genErr) && genErr.Message != "" {
		c.errMsg = genErr.Message
	}
	c.state = StateError
}

// refreshLocked reloads the plan list. A failing store leaves the list empty.
func (c *Controller) refreshLocked(ctx context.Context) {
	plans, err := c.deps.Store.ListPlans(ctx, c.identity.ID)
	if err != nil {
		c.logger.Error("Failed to load plans", zap.Error(err))
	}
	c.plans = plans
}

func (c *Controller) now() time.Time {
	return c.deps.Now()
}

func storeErr(err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return ErrNotFound
	}
	return err
}
