// Package chat keeps a coaching conversation in step with the plan the user
// is looking at. The backend session is rebuilt whenever that plan changes.
package chat

import (
	"alcyxob/totalfit/internal/domain"
	"alcyxob/totalfit/internal/llm"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

var (
	ErrBusy         = errors.New("a chat reply is already pending")
	ErrEmptyMessage = errors.New("message is empty")
)

const (
	// ApologyText replaces the reply when the backend fails.
	ApologyText = "Sorry, I had a connection problem. Please try again."
	// CommunicationErrorText replaces an empty reply.
	CommunicationErrorText = "Communication error."

	noPlanFingerprint = "no-plan"
)

// Synchronizer owns one identity's chat session and transcript.
type Synchronizer struct {
	backend llm.Backend
	logger  *zap.Logger
	now     func() time.Time

	mu          sync.Mutex
	session     llm.ChatSession
	fingerprint string
	turns       []domain.ChatTurn
	pending     bool
	generation  uint64 // bumped by Reset; replies from older generations are dropped
}

// New creates a Synchronizer with no session.
func New(backend llm.Backend, logger *zap.Logger) *Synchronizer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Synchronizer{backend: backend, logger: logger, now: time.Now}
}

// Ask sends message in the context of activePlan (nil when no plan is shown)
// and returns the assistant's reply. Backend failures are answered with
// ApologyText and a nil error.
func (s *Synchronizer) Ask(ctx context.Context, message string, activePlan *domain.GeneratedPlan) (string, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return "", ErrEmptyMessage
	}

	fp := Fingerprint(activePlan)

	s.mu.Lock()
	if s.pending {
		s.mu.Unlock()
		return "", ErrBusy
	}
	s.pending = true
	// A context change discards the transcript even when no session was ever
	// started for it.
	if s.fingerprint != fp {
		if s.session != nil {
			s.logger.Debug("Plan context changed, restarting chat")
		}
		s.session = nil
		s.turns = nil
		s.fingerprint = fp
	}
	session := s.session
	gen := s.generation
	s.turns = append(s.turns, domain.ChatTurn{Role: domain.ChatRoleUser, Text: message, Timestamp: s.now()})
	s.mu.Unlock()

	reply, newSession := s.call(ctx, session, message, activePlan)

	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.generation {
		// Reset ran while the call was in flight.
		return reply, nil
	}
	s.pending = false
	if newSession != nil {
		s.session = newSession
	}
	s.turns = append(s.turns, domain.ChatTurn{Role: domain.ChatRoleAssistant, Text: reply, Timestamp: s.now()})
	return reply, nil
}

// call runs outside the lock. It returns the reply text and, when a session
// had to be created, the new session.
func (s *Synchronizer) call(ctx context.Context, session llm.ChatSession, message string, plan *domain.GeneratedPlan) (string, llm.ChatSession) {
	var created llm.ChatSession
	if session == nil {
		var err error
		session, err = s.backend.StartChat(ctx, SystemInstruction(plan))
		if err != nil {
			s.logger.Warn("Failed to start chat session", zap.Error(err))
			return ApologyText, nil
		}
		created = session
	}

	reply, err := session.Send(ctx, message)
	if err != nil {
		s.logger.Warn("Chat message failed", zap.Error(err))
		return ApologyText, created
	}
	if strings.TrimSpace(reply) == "" {
		return CommunicationErrorText, created
	}
	return reply, created
}

// Reset drops the session, the fingerprint and the transcript.
func (s *Synchronizer) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.session = nil
	s.fingerprint = ""
	s.turns = nil
	s.pending = false
	s.generation++
}

// History returns a copy of the transcript.
func (s *Synchronizer) History() []domain.ChatTurn {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.ChatTurn, len(s.turns))
	copy(out, s.turns)
	return out
}

// Pending reports whether a reply is being waited for.
func (s *Synchronizer) Pending() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pending
}

// Fingerprint identifies the plan context of a conversation: the canonical
// JSON of the plan's profile followed by its workout.
func Fingerprint(plan *domain.GeneratedPlan) string {
	if plan == nil {
		return noPlanFingerprint
	}
	workout := plan.Workout
	if workout == nil {
		workout = []domain.WorkoutDay{}
	}
	profile, _ := json.Marshal(plan.Profile)
	days, _ := json.Marshal(workout)
	return string(profile) + string(days)
}

type daySummary struct {
	D string   `json:"d"`
	F string   `json:"f"`
	E []string `json:"e"`
}

// SystemInstruction builds the coach persona, optionally with a condensed view of plan.
func SystemInstruction(plan *domain.GeneratedPlan) string {
	var b strings.Builder
	b.WriteString("You are 'Coach TotalFit'.\n")
	b.WriteString("RULES:\n")
	b.WriteString("1. SHORT, direct answers.\n")
	b.WriteString("2. When asked about an exercise, give a YouTube link: \"🎥 [Watch video](https://www.youtube.com/results?search_query=how+to+do+NAME)\".\n")
	if plan == nil {
		return b.String()
	}

	days := make([]daySummary, 0, len(plan.Workout))
	for _, d := range plan.Workout {
		names := make([]string, 0, len(d.Exercises))
		for _, e := range d.Exercises {
			names = append(names, e.Name)
		}
		days = append(days, daySummary{D: d.Day, F: d.Focus, E: names})
	}
	meals := make([]string, 0, len(plan.Diet))
	for _, m := range plan.Diet {
		meals = append(meals, m.MealName)
	}
	supplements := plan.Supplements
	if supplements == nil {
		supplements = []domain.Supplement{}
	}

	workoutJSON, _ := json.Marshal(days)
	dietJSON, _ := json.Marshal(meals)
	supplementsJSON, _ := json.Marshal(supplements)

	b.WriteString("CONTEXT:\n")
	b.WriteString("- Goal: " + plan.Profile.Diagnosis + "\n")
	b.WriteString("- Workout: " + string(workoutJSON) + "\n")
	b.WriteString("- Diet: " + string(dietJSON) + "\n")
	b.WriteString("- Supplements: " + string(supplementsJSON) + "\n")
	return b.String()
}
