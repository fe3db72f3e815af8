package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"google.golang.org/genai"
)

// Default model settings.
const (
	DefaultModel           = "gemini-2.5-flash"
	DefaultMaxOutputTokens = 8192
)

// GeminiConfig configures the Gemini backend.
type GeminiConfig struct {
	APIKey          string
	Model           string
	MaxOutputTokens int32
	// Timeout bounds each call; 0 leaves only the caller's context.
	Timeout time.Duration
}

// GeminiBackend implements Backend with the Google GenAI SDK.
type GeminiBackend struct {
	client *genai.Client
	cfg    GeminiConfig
	logger *zap.Logger
}

// NewGeminiBackend creates a Gemini API client.
func NewGeminiBackend(ctx context.Context, cfg GeminiConfig, logger *zap.Logger) (*GeminiBackend, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.MaxOutputTokens <= 0 {
		cfg.MaxOutputTokens = DefaultMaxOutputTokens
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}
	return &GeminiBackend{client: client, cfg: cfg, logger: logger}, nil
}

// Generate sends a JSON-only, schema-constrained request.
func (b *GeminiBackend) Generate(ctx context.Context, req Request) (string, error) {
	ctx, cancel := b.withTimeout(ctx)
	defer cancel()

	maxTokens := req.MaxOutputTokens
	if maxTokens <= 0 {
		maxTokens = b.cfg.MaxOutputTokens
	}
	config := &genai.GenerateContentConfig{
		MaxOutputTokens:  maxTokens,
		ResponseMIMEType: "application/json",
		ResponseSchema:   req.Schema,
	}

	start := time.Now()
	resp, err := b.client.Models.GenerateContent(ctx, b.cfg.Model, genai.Text(req.Prompt), config)
	if err != nil {
		return "", fmt.Errorf("GenAI generate failed: %w", err)
	}
	text := resp.Text()
	b.logger.Debug("GenAI generate finished",
		zap.String("model", b.cfg.Model),
		zap.Duration("took", time.Since(start)),
		zap.Int("chars", len(text)))
	if strings.TrimSpace(text) == "" {
		return "", ErrEmptyResponse
	}
	return text, nil
}

// StartChat creates a chat session seeded with the system instruction.
func (b *GeminiBackend) StartChat(ctx context.Context, systemInstruction string) (ChatSession, error) {
	config := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(systemInstruction, genai.RoleUser),
	}
	chat, err := b.client.Chats.Create(ctx, b.cfg.Model, config, nil)
	if err != nil {
		return nil, fmt.Errorf("GenAI chat create failed: %w", err)
	}
	return &geminiChat{chat: chat, backend: b}, nil
}

func (b *GeminiBackend) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if b.cfg.Timeout > 0 {
		return context.WithTimeout(ctx, b.cfg.Timeout)
	}
	return context.WithCancel(ctx)
}

type geminiChat struct {
	chat    *genai.Chat
	backend *GeminiBackend
}

func (c *geminiChat) Send(ctx context.Context, message string) (string, error) {
	ctx, cancel := c.backend.withTimeout(ctx)
	defer cancel()

	resp, err := c.chat.SendMessage(ctx, genai.Part{Text: message})
	if err != nil {
		return "", fmt.Errorf("GenAI chat send failed: %w", err)
	}
	return resp.Text(), nil
}
