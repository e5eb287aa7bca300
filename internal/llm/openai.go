package llm

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"

	"github.com/LuisArmando-TestCoder/dreamcmd/internal/transcript"
	"github.com/samber/lo"
	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

// OpenAI talks to an OpenAI-compatible chat completions endpoint.
type OpenAI struct {
	client *openai.Client
	doer   *bodyRecorder
	model  string
	env    Environment
	opts   Options
	logger *zap.Logger
}

// NewOpenAI creates an OpenAI client. BaseURL defaults to the public API.
func NewOpenAI(env Environment, opts Options) *OpenAI {
	cfg := openai.DefaultConfig(opts.APIKey)
	if opts.BaseURL != "" {
		cfg.BaseURL = strings.TrimSuffix(opts.BaseURL, "/")
	}

	var next openai.HTTPDoer = http.DefaultClient
	if opts.HTTPClient != nil {
		next = opts.HTTPClient
	}
	doer := &bodyRecorder{next: next}
	cfg.HTTPClient = doer

	model := opts.Model
	if model == "" {
		model = DefaultOpenAIModel
	}

	return &OpenAI{
		client: openai.NewClientWithConfig(cfg),
		doer:   doer,
		model:  model,
		env:    env,
		opts:   opts,
		logger: loggerOrNop(opts.Logger),
	}
}

// Messages builds the request messages: the developer instruction block
// followed by the transcript entries with their own roles.
func (c *OpenAI) Messages(entries []transcript.Entry) []openai.ChatCompletionMessage {
	messages := []openai.ChatCompletionMessage{{
		Role:    RoleDeveloper,
		Content: SystemPrompt(c.env),
	}}
	return append(messages, lo.Map(entries, func(e transcript.Entry, _ int) openai.ChatCompletionMessage {
		return openai.ChatCompletionMessage{Role: string(e.Role), Content: e.Content}
	})...)
}

// Complete sends the transcript and returns the first choice's content.
func (c *OpenAI) Complete(ctx context.Context, entries []transcript.Entry) (string, error) {
	if err := transcript.Validate(entries); err != nil {
		return "", err
	}

	ctx, cancel := withTimeout(ctx, c.opts.Timeout)
	defer cancel()

	c.logger.Debug("sending chat completion", zap.String("model", c.model), zap.Int("entries", len(entries)))
	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:    c.model,
		Messages: c.Messages(entries),
	})
	if err != nil {
		return "", c.mapError(err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: no choices in response", ErrMalformedResponse)
	}
	content := resp.Choices[0].Message.Content
	if strings.TrimSpace(content) == "" {
		return "", fmt.Errorf("%w: empty message content", ErrMalformedResponse)
	}

	c.logger.Debug("chat completion received",
		zap.String("finishReason", string(resp.Choices[0].FinishReason)),
		zap.Int("promptTokens", resp.Usage.PromptTokens),
		zap.Int("completionTokens", resp.Usage.CompletionTokens),
	)
	return content, nil
}

func (c *OpenAI) mapError(err error) error {
	status, body := c.doer.last()

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		if body == "" {
			body = apiErr.Message
		}
		return &RequestError{Provider: ProviderOpenAI, StatusCode: apiErr.HTTPStatusCode, Body: body, Err: err}
	}

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		if body == "" {
			body = reqErr.Error()
		}
		return &RequestError{Provider: ProviderOpenAI, StatusCode: reqErr.HTTPStatusCode, Body: body, Err: err}
	}

	if status != 0 {
		return &RequestError{Provider: ProviderOpenAI, StatusCode: status, Body: body, Err: err}
	}
	return fmt.Errorf("failed to send request: %w", err)
}

// bodyRecorder keeps the raw body of the last failed response so errors can
// carry it verbatim.
type bodyRecorder struct {
	next openai.HTTPDoer

	mu     sync.Mutex
	status int
	body   string
}

func (r *bodyRecorder) Do(req *http.Request) (*http.Response, error) {
	r.mu.Lock()
	r.status, r.body = 0, ""
	r.mu.Unlock()

	resp, err := r.next.Do(req)
	if err != nil || (resp.StatusCode >= http.StatusOK && resp.StatusCode < http.StatusBadRequest) {
		return resp, err
	}

	data, readErr := io.ReadAll(resp.Body)
	resp.Body.Close()
	resp.Body = io.NopCloser(bytes.NewReader(data))
	if readErr != nil {
		return resp, nil
	}

	r.mu.Lock()
	r.status, r.body = resp.StatusCode, string(data)
	r.mu.Unlock()
	return resp, nil
}

func (r *bodyRecorder) last() (int, string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.status, r.body
}
