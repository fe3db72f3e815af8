// Package evolution decides when a saved plan has completed its 7-day cycle
// and produces the next week's plan from the user's check-in.
package evolution

import (
	"alcyxob/totalfit/internal/domain"
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
)

const (
	// CycleLength is the length of one plan cycle in milliseconds.
	CycleLength int64 = 7 * 24 * 60 * 60 * 1000
	dayMillis   int64 = 24 * 60 * 60 * 1000
	cycleDays         = 7
)

// PlanGenerator is the part of the AI plan generator the coordinator needs.
type PlanGenerator interface {
	GenerateFromInstruction(ctx context.Context, instruction string) (*domain.GeneratedPlan, error)
}

// Result is an evolved plan that has not been persisted yet.
type Result struct {
	Plan        *domain.GeneratedPlan
	WeekCount   int
	PreviousID  string
	Intake      domain.UserProfileInput
	WeightTrend string
}

// Coordinator runs evolutions. It never writes to the store.
type Coordinator struct {
	generator PlanGenerator
	logger    *zap.Logger
}

// NewCoordinator creates a Coordinator.
func NewCoordinator(generator PlanGenerator, logger *zap.Logger) *Coordinator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Coordinator{generator: generator, logger: logger}
}

// IsEligible reports whether plan has completed its cycle at now.
func IsEligible(plan domain.SavedPlan, now time.Time) bool {
	return now.UnixMilli()-plan.StartDate >= CycleLength
}

// Candidate returns the plan to offer for evolution, if any. Only the newest
// plan (plans[0]) is ever considered.
func Candidate(plans []domain.SavedPlan, now time.Time) *domain.SavedPlan {
	if len(plans) == 0 || !IsEligible(plans[0], now) {
		return nil
	}
	p := plans[0]
	return &p
}

// DaysElapsed returns the whole days since the plan started, clamped to [0, 7].
func DaysElapsed(plan domain.SavedPlan, now time.Time) int {
	elapsed := now.UnixMilli() - plan.StartDate
	if elapsed < 0 {
		return 0
	}
	days := elapsed / dayMillis
	if days > cycleDays {
		return cycleDays
	}
	return int(days)
}

// ProgressPercent returns the share of the cycle already elapsed, 0..100.
func ProgressPercent(plan domain.SavedPlan, now time.Time) float64 {
	return float64(DaysElapsed(plan, now)) / cycleDays * 100
}

// WeightTrend describes the change from previous to current weight, e.g.
// "lost 2.0kg". A missing previous weight counts as no change.
func WeightTrend(previous, current float64) string {
	delta := 0.0
	if previous > 0 {
		delta = current - previous
	}
	if delta < 0 {
		return fmt.Sprintf("lost %.1fkg", math.Abs(delta))
	}
	return fmt.Sprintf("gained %.1fkg", delta)
}

// Evolve generates the next week's plan from plan and the check-in. Errors from
// the generator are returned unchanged.
func (c *Coordinator) Evolve(ctx context.Context, plan domain.SavedPlan, newWeight float64, feedback string) (*Result, error) {
	if err := (domain.EvolutionFeedback{Weight: newWeight, Feedback: feedback}).Validate(); err != nil {
		return nil, err
	}

	week := plan.WeekCount
	if week < 1 {
		week = 1
	}
	next := week + 1
	trend := WeightTrend(plan.UserData.Weight, newWeight)

	c.logger.Info("Evolving plan",
		zap.String("plan", plan.ID),
		zap.Int("week", next),
		zap.String("trend", trend))

	generated, err := c.generator.GenerateFromInstruction(ctx, BuildEvolutionPrompt(plan, next, newWeight, trend, feedback))
	if err != nil {
		return nil, err
	}

	intake := plan.UserData
	intake.Weight = newWeight
	return &Result{
		Plan:        generated,
		WeekCount:   next,
		PreviousID:  plan.ID,
		Intake:      intake,
		WeightTrend: trend,
	}, nil
}

// BuildEvolutionPrompt writes the instruction for week n of plan.
func BuildEvolutionPrompt(plan domain.SavedPlan, week int, newWeight float64, trend, feedback string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "EVOLUTION WEEK %d.\n", week)
	fmt.Fprintf(&b, "Weight: %s->%skg (%s). Goal: %s. Level: %s.\n",
		formatKg(plan.UserData.Weight), formatKg(newWeight), trend, plan.UserData.Goal, plan.UserData.Level)
	fmt.Fprintf(&b, "Feedback: %q.\n\n", strings.TrimSpace(feedback))
	b.WriteString("TASK: Generate the updated JSON.\n")
	b.WriteString("RULES:\n")
	b.WriteString("1. Simplify as much as possible.\n")
	b.WriteString("2. Group training days (e.g. \"Mon/Thu\").\n")
	b.WriteString("3. Max 5 exercises per session.\n")
	return b.String()
}

func formatKg(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
