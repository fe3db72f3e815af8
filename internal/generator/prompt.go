package generator

import (
	"alcyxob/totalfit/internal/domain"
	"fmt"
	"strconv"
	"strings"
)

// Size caps written into every plan request. They keep the response under the
// backend's output limit so it is not cut off mid-JSON.
const (
	MaxDistinctSessions = 4
	MaxExercisesPerDay  = 5
	MaxOptionsPerMeal   = 2
	MaxTipWords         = 5
)

const sizeRules = `CRITICAL SIZE RULES (ANTI-TRUNCATION):
1. WORKOUT: Generate AT MOST 3 to 4 distinct sessions. If the user trains more often, repeat sessions and share the label (e.g. day: "Mon & Thu").
   - Max 5 exercises per session.
   - Short strings. No long explanations.
2. DIET: ONE daily menu (e.g. Breakfast, Lunch, Dinner).
   - 1 or 2 options max per meal.
3. GENERAL:
   - No introductions.
   - "tip" and "tips" must have at most 5 words.`

// BuildPlanPrompt embeds every intake field plus the size rules.
func BuildPlanPrompt(in domain.UserProfileInput) string {
	var b strings.Builder
	b.WriteString("ACT AS \"TotalFit AI\".\n\n")
	b.WriteString("DATA:\n")
	fmt.Fprintf(&b, "Bio: %dy, %s, %skg, %scm\n", in.Age, orDash(in.Gender), formatNumber(in.Weight), formatNumber(in.Height))
	fmt.Fprintf(&b, "Level: %s, Prior resistance training: %s, Goal: %s\n", orDash(in.Level), orDash(in.Experience), orDash(in.Goal))
	fmt.Fprintf(&b, "Training: %dd/week, %s per session, Location: %s\n", in.DaysAvailable, orDash(in.TimeAvailable), orDash(in.Location))
	fmt.Fprintf(&b, "Health: injuries: %s; conditions: %s\n", orNone(in.Injuries), orNone(in.Conditions))
	fmt.Fprintf(&b, "Nutrition: restrictions: %s; likes: %s; dislikes: %s; supplements in use: %s; budget: %s\n",
		orNone(in.Restrictions), orDash(in.Likes), orDash(in.Dislikes), orNone(in.Supplements), orDash(in.Budget))
	b.WriteString("\nTASK: Generate the JSON of a weekly plan.\n\n")
	b.WriteString(sizeRules)
	b.WriteString("\n")
	return b.String()
}

func orNone(s string) string {
	if strings.TrimSpace(s) == "" {
		return "None"
	}
	return strings.TrimSpace(s)
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return strings.TrimSpace(s)
}

// formatNumber prints 80 as "80" and 80.5 as "80.5".
func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
