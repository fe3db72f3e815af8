package generator

import "google.golang.org/genai"

func str() *genai.Schema { return &genai.Schema{Type: genai.TypeString} }
func num() *genai.Schema { return &genai.Schema{Type: genai.TypeNumber} }

func object(props map[string]*genai.Schema) *genai.Schema {
	return &genai.Schema{Type: genai.TypeObject, Properties: props}
}

func array(items *genai.Schema) *genai.Schema {
	return &genai.Schema{Type: genai.TypeArray, Items: items}
}

// PlanSchema is the output schema sent with every plan request. Field names and
// nesting match domain.GeneratedPlan's JSON tags exactly.
func PlanSchema() *genai.Schema {
	plan := object(map[string]*genai.Schema{
		"profile": object(map[string]*genai.Schema{
			"diagnosis": str(),
			"calories":  num(),
			"macros": object(map[string]*genai.Schema{
				"protein": num(),
				"carbs":   num(),
				"fats":    num(),
			}),
			"hydration": num(),
		}),
		"workout": array(object(map[string]*genai.Schema{
			"day": {
				Type:        genai.TypeString,
				Description: "Ex: 'Mon & Thu' or 'Workout A'",
			},
			"focus":  str(),
			"cardio": str(),
			"exercises": array(object(map[string]*genai.Schema{
				"name": str(),
				"sets": num(),
				"reps": str(),
				"rest": str(),
				"tip":  str(),
			})),
		})),
		"diet": array(object(map[string]*genai.Schema{
			"mealName": str(),
			"tips":     str(),
			"options": array(object(map[string]*genai.Schema{
				"name":         str(),
				"quantity":     str(),
				"measure":      str(),
				"substitution": str(),
			})),
		})),
		"supplements": array(object(map[string]*genai.Schema{
			"name":   str(),
			"reason": str(),
			"dosage": str(),
		})),
		"shoppingList": array(str()),
	})
	plan.Required = []string{"profile", "workout", "diet", "supplements", "shoppingList"}
	return plan
}
