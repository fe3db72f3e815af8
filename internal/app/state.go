package app

import (
	"alcyxob/totalfit/internal/domain"
	"errors"
)

// State is a screen of the plan lifecycle.
type State string

const (
	StateAuth      State = "auth"
	StateDashboard State = "dashboard"
	StateInput     State = "input"
	StateLoading   State = "loading"
	StateResult    State = "result"
	StateError     State = "error"
)

var (
	ErrBusy           = errors.New("a plan request is already in progress")
	ErrNothingToSave  = errors.New("there is no generated plan to save")
	ErrAlreadySaved   = errors.New("plan is already saved")
	ErrNotEligible    = errors.New("no plan is ready to evolve")
	ErrNotFound       = errors.New("plan not found")
	ErrNoSession      = errors.New("not authenticated")
	ErrExportDisabled = errors.New("plan export is not configured")
)

// Generic message for generation failures that carry none of their own.
const msgGenerationFailed = "Something went wrong while creating your plan. Please try again."

// EvolutionContext links a freshly evolved plan to the plan it came from.
type EvolutionContext struct {
	WeekCount  int    `json:"weekCount"`
	PreviousID string `json:"previousId"`
}

// PlanSummary is a dashboard card.
type PlanSummary struct {
	ID              string  `json:"id"`
	Name            string  `json:"name"`
	Date            string  `json:"date"`
	StartDate       int64   `json:"startDate"`
	WeekCount       int     `json:"weekCount"`
	PreviousID      string  `json:"previousId,omitempty"`
	PersonalNotes   string  `json:"personalNotes"`
	HasNotes        bool    `json:"hasNotes"`
	DaysElapsed     int     `json:"daysElapsed"`
	ProgressPercent float64 `json:"progressPercent"`
	Exported        bool    `json:"exported"`
}

// Snapshot is a read-only view of a controller.
type Snapshot struct {
	State           State                    `json:"state"`
	Identity        *domain.Identity         `json:"user,omitempty"`
	Plan            *domain.GeneratedPlan    `json:"plan,omitempty"`
	Intake          *domain.UserProfileInput `json:"intake,omitempty"`
	Saved           bool                     `json:"saved"`
	SavedPlanID     string                   `json:"savedPlanId,omitempty"`
	Evolution       *EvolutionContext        `json:"evolution,omitempty"`
	Error           string                   `json:"error,omitempty"`
	Plans           []PlanSummary            `json:"plans"`
	EligiblePlanID  string                   `json:"eligiblePlanId,omitempty"`
	ReminderVisible bool                     `json:"reminderVisible"`
	Busy            bool                     `json:"busy"`
}
