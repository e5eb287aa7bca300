package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/LuisArmando-TestCoder/dreamcmd/internal/transcript"
	"github.com/samber/lo"
	"go.uber.org/zap"
	"google.golang.org/genai"
)

// GeminiModels is the subset of the genai client used here.
type GeminiModels interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// Gemini talks to the Gemini API.
type Gemini struct {
	models GeminiModels
	model  string
	env    Environment
	opts   Options
	logger *zap.Logger
}

// NewGemini creates a Gemini client backed by the genai SDK.
func NewGemini(ctx context.Context, env Environment, opts Options) (*Gemini, error) {
	cc := &genai.ClientConfig{
		APIKey:     opts.APIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: opts.HTTPClient,
	}
	if opts.BaseURL != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: opts.BaseURL}
	}
	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}
	return NewGeminiWithModels(client.Models, env, opts), nil
}

// NewGeminiWithModels creates a Gemini client around an existing models service.
func NewGeminiWithModels(models GeminiModels, env Environment, opts Options) *Gemini {
	model := opts.Model
	if model == "" {
		model = DefaultGeminiModel
	}
	return &Gemini{
		models: models,
		model:  model,
		env:    env,
		opts:   opts,
		logger: loggerOrNop(opts.Logger),
	}
}

// Contents converts transcript entries; assistant turns become model turns.
func (c *Gemini) Contents(entries []transcript.Entry) []*genai.Content {
	return lo.Map(entries, func(e transcript.Entry, _ int) *genai.Content {
		role := genai.Role(genai.RoleUser)
		if e.Role == transcript.RoleAssistant {
			role = genai.RoleModel
		}
		return genai.NewContentFromText(e.Content, role)
	})
}

// Complete sends the transcript and returns the first candidate's text.
func (c *Gemini) Complete(ctx context.Context, entries []transcript.Entry) (string, error) {
	if err := transcript.Validate(entries); err != nil {
		return "", err
	}

	ctx, cancel := withTimeout(ctx, c.opts.Timeout)
	defer cancel()

	config := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(SystemPrompt(c.env), genai.RoleUser),
	}

	c.logger.Debug("sending generate content", zap.String("model", c.model), zap.Int("entries", len(entries)))
	resp, err := c.models.GenerateContent(ctx, c.model, c.Contents(entries), config)
	if err != nil {
		if apiErr, ok := asAPIError(err); ok {
			return "", &RequestError{Provider: ProviderGemini, StatusCode: apiErr.Code, Body: apiErr.Message, Err: err}
		}
		return "", fmt.Errorf("failed to send request: %w", err)
	}

	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", fmt.Errorf("%w: no candidates in response", ErrMalformedResponse)
	}

	var text strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if part == nil || part.Thought {
			continue
		}
		text.WriteString(part.Text)
	}
	if strings.TrimSpace(text.String()) == "" {
		return "", fmt.Errorf("%w: empty candidate content", ErrMalformedResponse)
	}
	return text.String(), nil
}

// asAPIError matches the SDK error in both its value and pointer forms.
func asAPIError(err error) (genai.APIError, bool) {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) && apiErrPtr != nil {
		return *apiErrPtr, true
	}
	return genai.APIError{}, false
}
