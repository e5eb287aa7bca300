// Package llm sends the repair transcript to a chat model and returns its reply.
package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/LuisArmando-TestCoder/dreamcmd/internal/shell"
	"github.com/LuisArmando-TestCoder/dreamcmd/internal/transcript"
	"go.uber.org/zap"
)

// Client completes a transcript. The system instructions are supplied by the
// client itself; entries hold only the user/assistant turns.
type Client interface {
	Complete(ctx context.Context, entries []transcript.Entry) (string, error)
}

// Environment is the host context injected into the system instructions.
type Environment struct {
	OS    string
	Shell shell.Identity
}

// Provider names.
const (
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"
)

// Default models per provider.
const (
	DefaultOpenAIModel = "gpt-4o"
	DefaultGeminiModel = "gemini-2.0-flash"
)

// RoleDeveloper carries the instruction block in OpenAI requests.
const RoleDeveloper = "developer"

// ErrMalformedResponse is returned when the provider answers successfully but
// the reply has no usable content.
var ErrMalformedResponse = errors.New("malformed provider response")

// RequestError reports a non-success answer from the provider.
type RequestError struct {
	Provider   string
	StatusCode int
	Body       string
	Err        error
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("%s API call failed (%d): %s", e.Provider, e.StatusCode, e.Body)
}

func (e *RequestError) Unwrap() error {
	return e.Err
}

// Options configures a provider client.
type Options struct {
	APIKey  string
	BaseURL string
	Model   string
	// Timeout bounds each request; zero means no limit.
	Timeout    time.Duration
	HTTPClient *http.Client
	Logger     *zap.Logger
}

// New creates the client for the named provider.
func New(ctx context.Context, provider string, env Environment, opts Options) (Client, error) {
	switch strings.ToLower(strings.TrimSpace(provider)) {
	case "", ProviderOpenAI:
		return NewOpenAI(env, opts), nil
	case ProviderGemini:
		return NewGemini(ctx, env, opts)
	}
	return nil, fmt.Errorf("unknown provider %q", provider)
}

func withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, timeout)
}

func loggerOrNop(logger *zap.Logger) *zap.Logger {
	if logger == nil {
		return zap.NewNop()
	}
	return logger
}
