package llm

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/LuisArmando-TestCoder/dreamcmd/internal/shell"
	"github.com/LuisArmando-TestCoder/dreamcmd/internal/transcript"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type capturedRequest struct {
	Path          string
	Authorization string
	Model         string `json:"model"`
	Messages      []struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"messages"`
}

func newOpenAIServer(t *testing.T, status int, body string, captured *capturedRequest) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		if captured != nil {
			require.NoError(t, json.Unmarshal(data, captured))
			captured.Path = r.URL.Path
			captured.Authorization = r.Header.Get("Authorization")
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}))
	t.Cleanup(server.Close)
	return server
}

var linuxBash = Environment{OS: "linux", Shell: shell.Bash}

func TestOpenAIComplete(t *testing.T) {
	entries := []transcript.Entry{
		{Role: transcript.RoleUser, Content: "Make a linux terminal command that list files"},
	}

	t.Run("sends developer block then transcript", func(t *testing.T) {
		var captured capturedRequest
		server := newOpenAIServer(t, http.StatusOK,
			`{"choices":[{"index":0,"message":{"role":"assistant","content":"`+"```bash\\nls -la\\n```"+`"},"finish_reason":"stop"}]}`,
			&captured)

		client := NewOpenAI(linuxBash, Options{APIKey: "sk-test", BaseURL: server.URL + "/v1", Logger: zaptest.NewLogger(t)})
		reply, err := client.Complete(context.Background(), entries)
		require.NoError(t, err)
		assert.Equal(t, "```bash\nls -la\n```", reply)

		assert.Equal(t, "/v1/chat/completions", captured.Path)
		assert.Equal(t, "Bearer sk-test", captured.Authorization)
		assert.Equal(t, DefaultOpenAIModel, captured.Model)
		require.Len(t, captured.Messages, 2)
		assert.Equal(t, RoleDeveloper, captured.Messages[0].Role)
		assert.Equal(t, SystemPrompt(linuxBash), captured.Messages[0].Content)
		assert.Equal(t, "user", captured.Messages[1].Role)
		assert.Equal(t, "Make a linux terminal command that list files", captured.Messages[1].Content)
	})

	t.Run("keeps transcript roles", func(t *testing.T) {
		var captured capturedRequest
		server := newOpenAIServer(t, http.StatusOK, `{"choices":[{"message":{"role":"assistant","content":"ok"}}]}`, &captured)

		client := NewOpenAI(linuxBash, Options{APIKey: "k", BaseURL: server.URL, Model: "gpt-4o-mini"})
		_, err := client.Complete(context.Background(), []transcript.Entry{
			{Role: transcript.RoleUser, Content: "intent"},
			{Role: transcript.RoleAssistant, Content: "reply"},
			{Role: transcript.RoleUser, Content: "error output"},
		})
		require.NoError(t, err)

		assert.Equal(t, "gpt-4o-mini", captured.Model)
		require.Len(t, captured.Messages, 4)
		roles := []string{captured.Messages[1].Role, captured.Messages[2].Role, captured.Messages[3].Role}
		assert.Equal(t, []string{"user", "assistant", "user"}, roles)
	})

	t.Run("non-json failure carries status and raw body", func(t *testing.T) {
		server := newOpenAIServer(t, http.StatusBadGateway, "upstream exploded", nil)

		client := NewOpenAI(linuxBash, Options{APIKey: "k", BaseURL: server.URL})
		_, err := client.Complete(context.Background(), entries)

		var reqErr *RequestError
		require.ErrorAs(t, err, &reqErr)
		assert.Equal(t, http.StatusBadGateway, reqErr.StatusCode)
		assert.Equal(t, "upstream exploded", reqErr.Body)
		assert.Equal(t, "openai API call failed (502): upstream exploded", reqErr.Error())
	})

	t.Run("json api error carries status and raw body", func(t *testing.T) {
		body := `{"error":{"message":"Incorrect API key provided","type":"invalid_request_error","code":"invalid_api_key"}}`
		server := newOpenAIServer(t, http.StatusUnauthorized, body, nil)

		client := NewOpenAI(linuxBash, Options{APIKey: "bad", BaseURL: server.URL})
		_, err := client.Complete(context.Background(), entries)

		var reqErr *RequestError
		require.ErrorAs(t, err, &reqErr)
		assert.Equal(t, http.StatusUnauthorized, reqErr.StatusCode)
		assert.Equal(t, body, reqErr.Body)
	})

	t.Run("no choices is malformed", func(t *testing.T) {
		server := newOpenAIServer(t, http.StatusOK, `{"choices":[]}`, nil)

		client := NewOpenAI(linuxBash, Options{APIKey: "k", BaseURL: server.URL})
		_, err := client.Complete(context.Background(), entries)
		assert.ErrorIs(t, err, ErrMalformedResponse)
	})

	t.Run("empty content is malformed", func(t *testing.T) {
		server := newOpenAIServer(t, http.StatusOK, `{"choices":[{"message":{"role":"assistant"}}]}`, nil)

		client := NewOpenAI(linuxBash, Options{APIKey: "k", BaseURL: server.URL})
		_, err := client.Complete(context.Background(), entries)
		assert.ErrorIs(t, err, ErrMalformedResponse)
	})

	t.Run("out of order transcript is rejected before sending", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			t.Error("request should not be sent")
		}))
		defer server.Close()

		client := NewOpenAI(linuxBash, Options{APIKey: "k", BaseURL: server.URL})
		_, err := client.Complete(context.Background(), []transcript.Entry{
			{Role: transcript.RoleAssistant, Content: "hi"},
		})
		assert.ErrorIs(t, err, transcript.ErrRoleOutOfOrder)
	})
}

func TestSystemPrompt(t *testing.T) {
	prompt := SystemPrompt(Environment{OS: "darwin", Shell: shell.Zsh})
	assert.Contains(t, prompt, "triple backtick")
	assert.Contains(t, prompt, "only show its fix")
	assert.Contains(t, prompt, "alternative ways")
	assert.Contains(t, prompt, "line breaks")
	assert.Contains(t, prompt, "previous messages")
	assert.Contains(t, prompt, "darwin is your current OS")
	assert.Contains(t, prompt, "zsh terminal")
}

func TestIntentPrompt(t *testing.T) {
	assert.Equal(t, "Make a linux terminal command that list files", IntentPrompt("linux", "list files"))
}

func TestNewProvider(t *testing.T) {
	client, err := New(context.Background(), "", linuxBash, Options{APIKey: "k"})
	require.NoError(t, err)
	assert.IsType(t, &OpenAI{}, client)

	client, err = New(context.Background(), "Gemini", linuxBash, Options{APIKey: "k"})
	require.NoError(t, err)
	assert.IsType(t, &Gemini{}, client)

	_, err = New(context.Background(), "llama", linuxBash, Options{APIKey: "k"})
	assert.Error(t, err)
}
