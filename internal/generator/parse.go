package generator

import (
	"alcyxob/totalfit/internal/domain"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

var (
	errEmptyPayload   = errors.New("empty payload")
	errMissingProfile = errors.New("payload has no profile object")
)

// StripCodeFences removes a surrounding markdown code block (``` or ```json).
// Nothing else about the payload is touched.
func StripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if len(s) >= 4 && strings.EqualFold(s[:4], "json") {
		s = s[4:]
	}
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

// ParsePlan turns raw model output into a fully typed plan or an error.
// Truncated or otherwise invalid JSON is rejected as is: completing it would
// mean inventing plan content.
func ParsePlan(raw string) (*domain.GeneratedPlan, error) {
	payload := StripCodeFences(raw)
	if payload == "" {
		return nil, errEmptyPayload
	}

	var top map[string]json.RawMessage
	if err := json.Unmarshal([]byte(payload), &top); err != nil {
		return nil, fmt.Errorf("decode plan: %w", err)
	}
	profile, ok := top["profile"]
	if !ok || len(profile) == 0 || profile[0] != '{' {
		return nil, errMissingProfile
	}

	var plan domain.GeneratedPlan
	if err := json.Unmarshal([]byte(payload), &plan); err != nil {
		return nil, fmt.Errorf("decode plan: %w", err)
	}
	plan.Normalize()
	return &plan, nil
}
