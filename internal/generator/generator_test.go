package generator

import (
	"alcyxob/totalfit/internal/domain"
	"alcyxob/totalfit/internal/llm"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubBackend records the last request and returns canned output.
type stubBackend struct {
	generateResult string
	generateErr    error
	calls          int
	lastRequest    llm.Request
}

func (s *stubBackend) Generate(ctx context.Context, req llm.Request) (string, error) {
	s.calls++
	s.lastRequest = req
	return s.generateResult, s.generateErr
}

func (s *stubBackend) StartChat(ctx context.Context, systemInstruction string) (llm.ChatSession, error) {
	return nil, errors.New("not used")
}

const minimalPlan = `{"profile":{"diagnosis":"Healthy adult","calories":2500,"macros":{"protein":160,"carbs":300,"fats":70},"hydration":3},
"workout":[{"day":"Mon & Thu","focus":"Upper","cardio":"10 min","exercises":[{"name":"Bench Press","sets":4,"reps":"8-10","rest":"90s","tip":"Control the descent"}]}]}`

func validIntake() domain.UserProfileInput {
	return domain.UserProfileInput{
		Age: 30, Gender: "male", Weight: 80, Height: 180, Level: "intermediate", Experience: "yes",
		Goal: "Hypertrophy", DaysAvailable: 6, TimeAvailable: "60 min", Location: "gym",
		Likes: "rice", Dislikes: "fish", Budget: "moderate",
	}
}

func TestGenerateReturnsPlanWithAllArrays(t *testing.T) {
	backend := &stubBackend{generateResult: minimalPlan}
	g := New(backend, 8192, nil)

	plan, err := g.Generate(context.Background(), validIntake())
	require.NoError(t, err)

	assert.Equal(t, "Healthy adult", plan.Profile.Diagnosis)
	assert.Len(t, plan.Workout, 1)
	assert.NotNil(t, plan.Diet)
	assert.NotNil(t, plan.Supplements)
	assert.NotNil(t, plan.ShoppingList)
	assert.Empty(t, plan.Diet)

	assert.Equal(t, 1, backend.calls)
	assert.NotNil(t, backend.lastRequest.Schema)
	assert.Equal(t, int32(8192), backend.lastRequest.MaxOutputTokens)
}

func TestGeneratePromptCarriesIntakeAndSizeRules(t *testing.T) {
	backend := &stubBackend{generateResult: minimalPlan}
	g := New(backend, 0, nil)

	_, err := g.Generate(context.Background(), validIntake())
	require.NoError(t, err)

	prompt := backend.lastRequest.Prompt
	for _, want := range []string{"30y", "80kg", "180cm", "Hypertrophy", "6d/week", "injuries: None", "supplements in use: None"} {
		assert.Contains(t, prompt, want)
	}
	assert.Contains(t, prompt, "AT MOST 3 to 4 distinct sessions")
	assert.Contains(t, prompt, "Max 5 exercises per session")
	assert.Contains(t, prompt, "1 or 2 options max per meal")
	assert.Contains(t, prompt, "at most 5 words")
}

func TestGenerateInvalidIntakeSkipsBackend(t *testing.T) {
	backend := &stubBackend{generateResult: minimalPlan}
	g := New(backend, 0, nil)

	in := validIntake()
	in.Age = 0
	_, err := g.Generate(context.Background(), in)

	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, []string{"age"}, verr.Fields)
	assert.Zero(t, backend.calls)
}

func TestGenerateFencedPayload(t *testing.T) {
	for _, raw := range []string{
		"```json\n" + minimalPlan + "\n```",
		"```\n" + minimalPlan + "\n```",
		"  " + minimalPlan + "  ",
	} {
		g := New(&stubBackend{generateResult: raw}, 0, nil)
		plan, err := g.Generate(context.Background(), validIntake())
		require.NoError(t, err)
		assert.Equal(t, "Bench Press", plan.Workout[0].Exercises[0].Name)
	}
}

func TestGenerateMalformedOutput(t *testing.T) {
	truncated := minimalPlan[:len(minimalPlan)/2]
	for name, raw := range map[string]string{
		"truncated":           truncated,
		"no profile":          `{"workout":[]}`,
		"array":               `[{"profile":{}}]`,
		"prose":               "Here is your plan!",
		"profile is a string": `{"profile":"fit"}`,
	} {
		t.Run(name, func(t *testing.T) {
			g := New(&stubBackend{generateResult: raw}, 0, nil)
			plan, err := g.Generate(context.Background(), validIntake())
			assert.Nil(t, plan)

			var genErr *GenerationError
			require.ErrorAs(t, err, &genErr)
			assert.Equal(t, MalformedOutput, genErr.Kind)
			assert.Equal(t, MsgMalformedOutput, genErr.Message)
		})
	}
}

func TestGenerateBackendUnavailable(t *testing.T) {
	cause := errors.New("401 unauthorized")
	g := New(&stubBackend{generateErr: cause}, 0, nil)

	_, err := g.Generate(context.Background(), validIntake())

	var genErr *GenerationError
	require.ErrorAs(t, err, &genErr)
	assert.Equal(t, BackendUnavailable, genErr.Kind)
	assert.ErrorIs(t, err, cause)
}

func TestGenerateEmptyResponseIsUnavailable(t *testing.T) {
	g := New(&stubBackend{generateErr: llm.ErrEmptyResponse}, 0, nil)

	_, err := g.Generate(context.Background(), validIntake())

	var genErr *GenerationError
	require.ErrorAs(t, err, &genErr)
	assert.Equal(t, BackendUnavailable, genErr.Kind)
	assert.ErrorIs(t, err, llm.ErrEmptyResponse)
}

// A six-day intake must come back as at most four distinct sessions with at
// most five exercises each when the backend follows the size rules.
func TestGenerateSixDayIntakeWithinCaps(t *testing.T) {
	fourSessions := `{"profile":{"diagnosis":"d","calories":2800,"macros":{"protein":1,"carbs":1,"fats":1},"hydration":3.5},
"workout":[
 {"day":"Mon & Thu","focus":"Push","exercises":[{"name":"a"},{"name":"b"},{"name":"c"},{"name":"d"},{"name":"e"}]},
 {"day":"Tue & Fri","focus":"Pull","exercises":[{"name":"a"}]},
 {"day":"Wed & Sat","focus":"Legs","exercises":[{"name":"a"}]}],
"diet":[{"mealName":"Breakfast","tips":"Add cinnamon","options":[{"name":"Oats"},{"name":"Eggs"}]}]}`
	backend := &stubBackend{generateResult: fourSessions}
	g := New(backend, 0, nil)

	plan, err := g.Generate(context.Background(), validIntake())
	require.NoError(t, err)

	assert.LessOrEqual(t, len(plan.Workout), MaxDistinctSessions)
	for _, day := range plan.Workout {
		assert.LessOrEqual(t, len(day.Exercises), MaxExercisesPerDay)
	}
	for _, meal := range plan.Diet {
		assert.LessOrEqual(t, len(meal.Options), MaxOptionsPerMeal)
	}
	assert.True(t, strings.Contains(backend.lastRequest.Prompt, "6d/week"))
}

func TestGenerateFromInstructionUsesSchema(t *testing.T) {
	backend := &stubBackend{generateResult: minimalPlan}
	g := New(backend, 0, nil)

	_, err := g.GenerateFromInstruction(context.Background(), "EVOLUTION WEEK 2.")
	require.NoError(t, err)
	assert.Equal(t, "EVOLUTION WEEK 2.", backend.lastRequest.Prompt)
	assert.Equal(t, PlanSchema(), backend.lastRequest.Schema)
}
