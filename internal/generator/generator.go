// Package generator turns an intake (or an evolution instruction) into a
// validated GeneratedPlan through one schema-constrained AI call.
package generator

import (
	"alcyxob/totalfit/internal/domain"
	"alcyxob/totalfit/internal/llm"
	"context"
	"strings"

	"go.uber.org/zap"
	"google.golang.org/genai"
)

// Generator builds plan requests and validates what comes back.
// It never retries; the caller decides whether to ask again.
type Generator struct {
	backend         llm.Backend
	schema          *genai.Schema
	maxOutputTokens int32
	logger          *zap.Logger
}

// New creates a Generator. maxOutputTokens of 0 leaves the backend default.
func New(backend llm.Backend, maxOutputTokens int32, logger *zap.Logger) *Generator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Generator{
		backend:         backend,
		schema:          PlanSchema(),
		maxOutputTokens: maxOutputTokens,
		logger:          logger,
	}
}

// Generate produces a plan for intake. An invalid intake returns a
// *domain.ValidationError without calling the backend; every other failure is
// a *GenerationError.
func (g *Generator) Generate(ctx context.Context, intake domain.UserProfileInput) (*domain.GeneratedPlan, error) {
	if err := intake.Validate(); err != nil {
		return nil, err
	}
	return g.GenerateFromInstruction(ctx, BuildPlanPrompt(intake))
}

// GenerateFromInstruction runs an arbitrary instruction through the plan schema.
func (g *Generator) GenerateFromInstruction(ctx context.Context, instruction string) (*domain.GeneratedPlan, error) {
	raw, err := g.backend.Generate(ctx, llm.Request{
		Prompt:          instruction,
		Schema:          g.schema,
		MaxOutputTokens: g.maxOutputTokens,
	})
	if err != nil {
		g.logger.Warn("Plan generation call failed", zap.Error(err))
		return nil, unavailable(err)
	}

	plan, err := ParsePlan(raw)
	if err != nil {
		g.logger.Error("Plan payload did not parse",
			zap.Error(err),
			zap.Int("chars", len(raw)),
			zap.String("tail", tail(raw, 200)))
		return nil, malformed(err)
	}
	g.warnOnOversize(plan)
	return plan, nil
}

// warnOnOversize logs (but keeps) plans that ignored the size rules.
func (g *Generator) warnOnOversize(plan *domain.GeneratedPlan) {
	if len(plan.Workout) > MaxDistinctSessions {
		g.logger.Warn("Plan exceeds session cap", zap.Int("sessions", len(plan.Workout)))
	}
	for _, day := range plan.Workout {
		if len(day.Exercises) > MaxExercisesPerDay {
			g.logger.Warn("Plan session exceeds exercise cap",
				zap.String("day", day.Day), zap.Int("exercises", len(day.Exercises)))
		}
	}
}

func tail(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return s[len(s)-n:]
}
