package domain

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

// UserProfileInput is the intake used to request a plan.
// Only the biometric numbers and the weekly availability are mandatory.
type UserProfileInput struct {
	// Biological
	Age    int     `bson:"age" json:"age" validate:"required,gt=0"`
	Gender string  `bson:"gender" json:"gender"`
	Weight float64 `bson:"weight" json:"weight" validate:"required,gt=0"` // kg
	Height float64 `bson:"height" json:"height" validate:"required,gt=0"` // cm

	// Training
	Level      string `bson:"level" json:"level"`
	Experience string `bson:"experience" json:"experience"` // prior resistance training: "yes" | "no"

	// Goals & logistics
	Goal          string `bson:"goal" json:"goal"`
	DaysAvailable int    `bson:"daysAvailable" json:"daysAvailable" validate:"required,gt=0"`
	TimeAvailable string `bson:"timeAvailable" json:"timeAvailable"`
	Location      string `bson:"location" json:"location"`

	// Health
	Injuries   string `bson:"injuries" json:"injuries"`
	Conditions string `bson:"conditions" json:"conditions"`

	// Nutrition & budget
	Restrictions string `bson:"restrictions" json:"restrictions"`
	Likes        string `bson:"likes" json:"likes"`
	Dislikes     string `bson:"dislikes" json:"dislikes"`
	Supplements  string `bson:"supplements" json:"supplements"`
	Budget       string `bson:"budget" json:"budget"` // "economy" | "moderate" | "high"
}

// EvolutionFeedback is the weekly check-in that drives an evolution.
type EvolutionFeedback struct {
	Weight   float64 `json:"weight" validate:"required,gt=0"`
	Feedback string  `json:"feedback"`
}

// ValidationError lists the intake fields that failed validation.
type ValidationError struct {
	Fields []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid input: missing or non-positive %s", strings.Join(e.Fields, ", "))
}

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

func validatorInstance() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
	})
	return validate
}

// Validate checks the intake invariant: age, weight, height and days available
// must be present and positive before any generation request is issued.
func (p UserProfileInput) Validate() error {
	return validateStruct(p)
}

// Validate checks that the new weight of a check-in is present and positive.
func (f EvolutionFeedback) Validate() error {
	return validateStruct(f)
}

func validateStruct(v any) error {
	err := validatorInstance().Struct(v)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) {
		verr := &ValidationError{}
		for _, fe := range fieldErrs {
			verr.Fields = append(verr.Fields, fe.Field())
		}
		return verr
	}
	return err
}
