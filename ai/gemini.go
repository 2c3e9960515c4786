package ai

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

const (
	DefaultModel       = "gemini-3-pro-preview"
	DefaultTemperature = 0.2

	maxRetries     = 3
	initialBackoff = time.Second
)

// GeminiAnalyzer runs analyses through the Gemini API
type GeminiAnalyzer struct {
	client         *genai.Client
	model          string
	temperature    float32
	logger         *zap.Logger
	maxRetries     int
	initialBackoff time.Duration
}

// GeminiOption is a functional option for GeminiAnalyzer
type GeminiOption func(*GeminiAnalyzer)

// WithModel sets the model name
func WithModel(model string) GeminiOption {
	return func(a *GeminiAnalyzer) {
		if model != "" {
			a.model = model
		}
	}
}

// WithTemperature sets the sampling temperature
func WithTemperature(t float32) GeminiOption {
	return func(a *GeminiAnalyzer) {
		a.temperature = t
	}
}

// WithLogger sets the logger
func WithLogger(logger *zap.Logger) GeminiOption {
	return func(a *GeminiAnalyzer) {
		a.logger = logger
	}
}

// WithRetry sets the attempt count and the first backoff
func WithRetry(attempts int, backoff time.Duration) GeminiOption {
	return func(a *GeminiAnalyzer) {
		a.maxRetries = attempts
		a.initialBackoff = backoff
	}
}

// NewGeminiAnalyzer creates an analyzer around an existing client
func NewGeminiAnalyzer(client *genai.Client, opts ...GeminiOption) *GeminiAnalyzer {
	a := &GeminiAnalyzer{
		client:         client,
		model:          DefaultModel,
		temperature:    DefaultTemperature,
		logger:         zap.NewNop(),
		maxRetries:     maxRetries,
		initialBackoff: initialBackoff,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Analyze sends the contract to the model and parses its JSON answer
func (a *GeminiAnalyzer) Analyze(ctx context.Context, req Request) (*Output, error) {
	if a.client == nil {
		return nil, ErrClientNotSet
	}
	if strings.TrimSpace(req.Content) == "" {
		return nil, ErrContentRequired
	}

	model := a.client.GenerativeModel(a.model)
	model.SetTemperature(a.temperature)
	model.ResponseMIMEType = "application/json"
	model.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(systemInstruction)}}

	prompt := buildPrompt(req)
	text, err := retry(ctx, a.maxRetries, a.initialBackoff, func(ctx context.Context) (string, error) {
		resp, err := model.GenerateContent(ctx, genai.Text(prompt))
		if err != nil {
			a.logger.Warn("gemini generation failed", zap.String("model", a.model), zap.Error(err))
			return "", err
		}
		return responseText(resp)
	})
	if err != nil {
		return nil, eris.Wrapf(err, "failed to generate analysis after %d attempts", a.maxRetries)
	}

	return ParseOutput([]byte(text), a.model)
}

func responseText(resp *genai.GenerateContentResponse) (string, error) {
	var b strings.Builder
	if resp != nil {
		for _, cand := range resp.Candidates {
			if cand.Content == nil {
				continue
			}
			for _, part := range cand.Content.Parts {
				if t, ok := part.(genai.Text); ok {
					b.WriteString(string(t))
				}
			}
			break
		}
	}
	if strings.TrimSpace(b.String()) == "" {
		return "", ErrEmptyResponse
	}
	return b.String(), nil
}

// retry calls fn until it succeeds, the attempts run out or the error is
// permanent. The backoff doubles after each failed attempt.
func retry(ctx context.Context, attempts int, backoff time.Duration, fn func(context.Context) (string, error)) (string, error) {
	if attempts < 1 {
		attempts = 1
	}
	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(backoff):
			}
			backoff *= 2
		}

		out, err := fn(ctx)
		if err == nil {
			return out, nil
		}
		lastErr = err
		if !retryable(err) {
			break
		}
	}
	if lastErr == nil {
		lastErr = ErrGenerationFailed
	}
	return "", lastErr
}

// retryable reports whether another attempt could succeed. Cancellation and
// blocked prompts are permanent.
func retryable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var blocked *genai.BlockedError
	return !errors.As(err, &blocked)
}
