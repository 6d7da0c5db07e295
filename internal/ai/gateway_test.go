package ai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"mindflow/internal/config"
)

func testGateway(t *testing.T, baseURL string) *Gateway {
	t.Helper()
	cfg := config.Config{
		AIProvider: config.ProviderDeepSeek,
		DeepSeek: config.ProviderSettings{
			APIKey:  "test-key",
			BaseURL: baseURL,
			Model:   "deepseek-chat",
		},
		OpenAI:    config.ProviderSettings{Model: "gpt-3.5-turbo"},
		Anthropic: config.ProviderSettings{Model: "claude-3-sonnet-20240229"},
	}
	return NewGateway(cfg, http.DefaultClient)
}

func TestResolveScenarioOverrides(t *testing.T) {
	cfg := config.Config{
		AIProvider: config.ProviderDeepSeek,
		DeepSeek:   config.ProviderSettings{Model: "deepseek-chat"},
		OpenAI:     config.ProviderSettings{Model: "gpt-3.5-turbo"},
		TaskAnalysis: config.ScenarioOverride{
			Provider: config.ProviderOpenAI,
			Model:    "gpt-4o-mini",
		},
		GoalAlignment: config.ScenarioOverride{
			Provider: config.ProviderOpenAI,
		},
	}
	g := NewGateway(cfg, nil)

	if provider, model := g.Resolve(ScenarioContentRecognition); provider != "deepseek" || model != "deepseek-chat" {
		t.Fatalf("unpinned scenario: got %s/%s", provider, model)
	}
	if provider, model := g.Resolve(ScenarioTaskAnalysis); provider != "openai" || model != "gpt-4o-mini" {
		t.Fatalf("pinned scenario: got %s/%s", provider, model)
	}
	// Provider pinned without a model falls back to that provider's default.
	if provider, model := g.Resolve(ScenarioGoalAlignment); provider != "openai" || model != "gpt-3.5-turbo" {
		t.Fatalf("provider-only pin: got %s/%s", provider, model)
	}
}

func TestDispatchChatCompletions(t *testing.T) {
	var gotAuth, gotPath string
	var gotReq chatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotPath = r.URL.Path
		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"{\"type\":\"task\"}"}}]}`))
	}))
	defer srv.Close()

	g := testGateway(t, srv.URL)
	text, err := g.Dispatch(context.Background(), ScenarioContentRecognition, ContentRecognitionPrompt("买牛奶"))
	if err != nil {
		t.Fatalf("Dispatch failed: %v", err)
	}
	if text != `{"type":"task"}` {
		t.Fatalf("unexpected completion text: %q", text)
	}
	if gotAuth != "Bearer test-key" {
		t.Fatalf("unexpected auth header: %q", gotAuth)
	}
	if gotPath != "/chat/completions" {
		t.Fatalf("unexpected path: %q", gotPath)
	}
	if gotReq.Model != "deepseek-chat" {
		t.Fatalf("unexpected model: %q", gotReq.Model)
	}
	if gotReq.ResponseFormat.Type != "json_object" {
		t.Fatalf("expected json_object response format, got %q", gotReq.ResponseFormat.Type)
	}
	if gotReq.MaxTokens != 500 {
		t.Fatalf("unexpected max_tokens: %d", gotReq.MaxTokens)
	}
}

func TestDispatchChatCompletionsBackendError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error":{"message":"rate limited"}}`))
	}))
	defer srv.Close()

	g := testGateway(t, srv.URL)
	if _, err := g.Dispatch(context.Background(), ScenarioContentRecognition, ContentRecognitionPrompt("x")); err == nil {
		t.Fatal("expected error for non-2xx status")
	}
}

func TestDispatchMissingAPIKey(t *testing.T) {
	g := NewGateway(config.Config{AIProvider: config.ProviderDeepSeek}, nil)
	if _, err := g.Dispatch(context.Background(), ScenarioGeneral, GeneralPrompt("hi")); err == nil {
		t.Fatal("expected error when API key is not configured")
	}
}

func TestExtractMessageText(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
		err  bool
	}{
		{"content field", `{"role":"assistant","content":"hello"}`, "hello", false},
		{"text field", `{"role":"assistant","text":"hello"}`, "hello", false},
		{"bare string", `"hello"`, "hello", false},
		{"reasoning model returns content", `{"reasoning_content":"thinking...","content":"answer"}`, "answer", false},
		{"reasoning without content", `{"reasoning_content":"thinking..."}`, "", false},
		{"empty object", `{}`, "", true},
		{"unknown shape", `42`, "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := extractMessageText(json.RawMessage(tt.raw))
			if tt.err {
				if !errors.Is(err, ErrUnparsableResponse) {
					t.Fatalf("expected ErrUnparsableResponse, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Fatalf("got %q, want %q", got, tt.want)
			}
		})
	}
}
