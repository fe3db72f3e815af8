// Package llm is the boundary to the generative AI backend. It knows how to
// send a schema-constrained request and how to hold a chat session; it knows
// nothing about plans.
package llm

import (
	"context"
	"errors"

	"google.golang.org/genai"
)

// ErrEmptyResponse is returned when the model answers without any text.
var ErrEmptyResponse = errors.New("empty response from model")

// Request is one structured generation call.
type Request struct {
	Prompt string
	// Schema constrains the JSON the model may return.
	Schema *genai.Schema
	// MaxOutputTokens caps the response size; 0 uses the backend default.
	MaxOutputTokens int32
}

// Backend is the AI service consumed by the plan generator and the chat synchronizer.
type Backend interface {
	// Generate runs req and returns the raw response text (JSON still to be parsed).
	Generate(ctx context.Context, req Request) (string, error)
	// StartChat opens a chat session whose turns are kept server-side.
	StartChat(ctx context.Context, systemInstruction string) (ChatSession, error)
}

// ChatSession is a live conversation with the model.
type ChatSession interface {
	Send(ctx context.Context, message string) (string, error)
}
