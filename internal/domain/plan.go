// internal/domain/plan.go
package domain

import (
	"fmt"
	"strings"
)

// DisplayDateLayout formats every date shown to the user: plan dates, note
// stamps and member-since (dd/mm/yyyy).
const DisplayDateLayout = "02/01/2006"

// Macros is the daily macronutrient split in grams.
type Macros struct {
	Protein float64 `bson:"protein" json:"protein"`
	Carbs   float64 `bson:"carbs" json:"carbs"`
	Fats    float64 `bson:"fats" json:"fats"`
}

// PlanProfile is the diagnosis and daily targets section of a plan.
type PlanProfile struct {
	Diagnosis string  `bson:"diagnosis" json:"diagnosis"`
	Calories  float64 `bson:"calories" json:"calories"`
	Macros    Macros  `bson:"macros" json:"macros"`
	Hydration float64 `bson:"hydration" json:"hydration"` // liters per day
}

// Exercise is one movement inside a training session.
type Exercise struct {
	Name string  `bson:"name" json:"name"`
	Sets float64 `bson:"sets" json:"sets"`
	Reps string  `bson:"reps" json:"reps"`
	Rest string  `bson:"rest" json:"rest"`
	Tip  string  `bson:"tip" json:"tip"`
}

// WorkoutDay is a training session. Day may cover several weekdays, e.g. "Mon & Thu".
type WorkoutDay struct {
	Day       string     `bson:"day" json:"day"`
	Focus     string     `bson:"focus" json:"focus"`
	Cardio    string     `bson:"cardio" json:"cardio"`
	Exercises []Exercise `bson:"exercises" json:"exercises"`
}

// MealOption is one choice for a meal.
type MealOption struct {
	Name         string `bson:"name" json:"name"`
	Quantity     string `bson:"quantity" json:"quantity"`
	Measure      string `bson:"measure" json:"measure"`
	Substitution string `bson:"substitution" json:"substitution"`
}

// Meal is a slot of the daily menu (breakfast, lunch, ...).
type Meal struct {
	MealName string       `bson:"mealName" json:"mealName"`
	Tips     string       `bson:"tips" json:"tips"` // prep/seasoning tip
	Options  []MealOption `bson:"options" json:"options"`
}

// Supplement is a recommended supplement.
type Supplement struct {
	Name   string `bson:"name" json:"name"`
	Reason string `bson:"reason" json:"reason"`
	Dosage string `bson:"dosage" json:"dosage"`
}

// GeneratedPlan is the validated output of one AI call. It is never mutated
// after generation; arrays are always non-nil, possibly empty.
type GeneratedPlan struct {
	Profile      PlanProfile  `bson:"profile" json:"profile"`
	Workout      []WorkoutDay `bson:"workout" json:"workout"`
	Diet         []Meal       `bson:"diet" json:"diet"`
	Supplements  []Supplement `bson:"supplements" json:"supplements"`
	ShoppingList []string     `bson:"shoppingList" json:"shoppingList"`
}

// Normalize replaces missing collections with empty ones so callers never see nil arrays.
// It does not invent content.
func (p *GeneratedPlan) Normalize() {
	if p.Workout == nil {
		p.Workout = []WorkoutDay{}
	}
	for i := range p.Workout {
		if p.Workout[i].Exercises == nil {
			p.Workout[i].Exercises = []Exercise{}
		}
	}
	if p.Diet == nil {
		p.Diet = []Meal{}
	}
	for i := range p.Diet {
		if p.Diet[i].Options == nil {
			p.Diet[i].Options = []MealOption{}
		}
	}
	if p.Supplements == nil {
		p.Supplements = []Supplement{}
	}
	if p.ShoppingList == nil {
		p.ShoppingList = []string{}
	}
}

// SavedPlan is a GeneratedPlan persisted for an identity, with its cycle clock.
type SavedPlan struct {
	ID            string           `bson:"_id" json:"id"`
	Owner         string           `bson:"owner" json:"-"`
	Date          string           `bson:"date" json:"date"`           // display string, dd/mm/yyyy
	StartDate     int64            `bson:"startDate" json:"startDate"` // epoch ms, reset on every save
	WeekCount     int              `bson:"weekCount" json:"weekCount"` // evolution cycle number, >= 1
	Name          string           `bson:"name" json:"name"`
	PreviousID    string           `bson:"previousId,omitempty" json:"previousId,omitempty"`
	Data          GeneratedPlan    `bson:"data" json:"data"`
	UserData      UserProfileInput `bson:"userData" json:"userData"`
	PersonalNotes string           `bson:"personalNotes" json:"personalNotes"`
	ExportKey     string           `bson:"exportKey,omitempty" json:"-"`
}

// PlanName builds the display name of a saved plan, e.g. "Hypertrophy (Week 2)".
func PlanName(goal string, week int) string {
	goal = strings.TrimSpace(goal)
	if goal == "" {
		goal = "Plan"
	}
	return fmt.Sprintf("%s (Week %d)", goal, week)
}

// HasNotes reports whether the plan carries any personal notes.
func (p *SavedPlan) HasNotes() bool {
	return strings.TrimSpace(p.PersonalNotes) != ""
}
