package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	openai "github.com/sashabaranov/go-openai"

	"mindflow/internal/config"
)

// Scenario selects a provider/model pairing. Each scenario can be
// pinned to its own provider via configuration; unpinned scenarios use
// the default provider.
type Scenario string

const (
	ScenarioContentRecognition Scenario = "contentRecognition"
	ScenarioTaskAnalysis       Scenario = "taskAnalysis"
	ScenarioGoalAlignment      Scenario = "goalAlignment"
	ScenarioGeneral            Scenario = "general"
)

// ErrUnparsableResponse marks a completion whose message carried none
// of the known content shapes.
var ErrUnparsableResponse = errors.New("无法解析AI响应格式")

type ProviderConfig struct {
	APIKey  string
	BaseURL string
	Model   string
}

type ScenarioConfig struct {
	Provider string
	Model    string
}

// Gateway routes prompts to the configured chat-completion backend.
type Gateway struct {
	defaultProvider string
	providers       map[string]ProviderConfig
	scenarios       map[Scenario]ScenarioConfig
	httpClient      *http.Client
}

// NewGateway builds a gateway from the loaded configuration. The
// http.Client is shared across the OpenAI-compatible backends; the
// Anthropic SDK manages its own transport.
func NewGateway(cfg config.Config, client *http.Client) *Gateway {
	return &Gateway{
		defaultProvider: cfg.AIProvider,
		providers: map[string]ProviderConfig{
			config.ProviderDeepSeek:  {APIKey: cfg.DeepSeek.APIKey, BaseURL: cfg.DeepSeek.BaseURL, Model: cfg.DeepSeek.Model},
			config.ProviderOpenAI:    {APIKey: cfg.OpenAI.APIKey, BaseURL: cfg.OpenAI.BaseURL, Model: cfg.OpenAI.Model},
			config.ProviderAnthropic: {APIKey: cfg.Anthropic.APIKey, BaseURL: cfg.Anthropic.BaseURL, Model: cfg.Anthropic.Model},
		},
		scenarios: map[Scenario]ScenarioConfig{
			ScenarioContentRecognition: {Provider: cfg.ContentRecognition.Provider, Model: cfg.ContentRecognition.Model},
			ScenarioTaskAnalysis:       {Provider: cfg.TaskAnalysis.Provider, Model: cfg.TaskAnalysis.Model},
			ScenarioGoalAlignment:      {Provider: cfg.GoalAlignment.Provider, Model: cfg.GoalAlignment.Model},
		},
		httpClient: client,
	}
}

// Resolve reports which provider and model a scenario dispatches to.
func (g *Gateway) Resolve(scenario Scenario) (provider, model string) {
	sc := g.scenarios[scenario]
	provider = sc.Provider
	if provider == "" {
		provider = g.defaultProvider
	}
	model = sc.Model
	if model == "" {
		model = g.providers[provider].Model
	}
	return provider, model
}

// Dispatch sends the prompt to the scenario's backend and returns the
// raw completion text.
func (g *Gateway) Dispatch(ctx context.Context, scenario Scenario, prompt PromptConfig) (string, error) {
	provider, model := g.Resolve(scenario)
	if prompt.Model != "" {
		model = prompt.Model
	}

	pc, ok := g.providers[provider]
	if !ok {
		return "", fmt.Errorf("unknown AI provider %q", provider)
	}
	if pc.APIKey == "" {
		return "", fmt.Errorf("provider %s: API key not configured", provider)
	}

	switch provider {
	case config.ProviderAnthropic:
		return g.callAnthropic(ctx, pc, model, prompt)
	case config.ProviderOpenAI:
		return g.callOpenAI(ctx, pc, model, prompt)
	default:
		// DeepSeek and anything else speaking the OpenAI chat wire format.
		return g.callChatCompletions(ctx, pc, model, prompt)
	}
}

func (g *Gateway) callAnthropic(ctx context.Context, pc ProviderConfig, model string, prompt PromptConfig) (string, error) {
	opts := []option.RequestOption{option.WithAPIKey(pc.APIKey)}
	if pc.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(pc.BaseURL))
	}
	client := anthropic.NewClient(opts...)

	message, err := client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:       anthropic.Model(model),
		MaxTokens:   int64(prompt.MaxTokens),
		Temperature: anthropic.Float(float64(prompt.Temperature)),
		System:      []anthropic.TextBlockParam{{Text: prompt.System}},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt.User)),
		},
	})
	if err != nil {
		return "", fmt.Errorf("anthropic request failed: %w", err)
	}

	for _, block := range message.Content {
		if block.Type == "text" {
			return block.Text, nil
		}
	}
	return "", fmt.Errorf("anthropic response contained no text block")
}

func (g *Gateway) callOpenAI(ctx context.Context, pc ProviderConfig, model string, prompt PromptConfig) (string, error) {
	clientCfg := openai.DefaultConfig(pc.APIKey)
	if pc.BaseURL != "" {
		clientCfg.BaseURL = pc.BaseURL
	}
	if g.httpClient != nil {
		clientCfg.HTTPClient = g.httpClient
	}
	client := openai.NewClientWithConfig(clientCfg)

	resp, err := client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: prompt.System},
			{Role: openai.ChatMessageRoleUser, Content: prompt.User},
		},
		Temperature: prompt.Temperature,
		MaxTokens:   prompt.MaxTokens,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	})
	if err != nil {
		return "", fmt.Errorf("openai request failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("openai response contained no choices")
	}
	return resp.Choices[0].Message.Content, nil
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model          string        `json:"model"`
	Messages       []chatMessage `json:"messages"`
	Temperature    float32       `json:"temperature"`
	MaxTokens      int           `json:"max_tokens"`
	ResponseFormat struct {
		Type string `json:"type"`
	} `json:"response_format"`
}

// chatResponse keeps the message raw: reasoning models and looser
// OpenAI-compatible servers disagree on its shape.
type chatResponse struct {
	Choices []struct {
		Message json.RawMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// callChatCompletions speaks the OpenAI chat wire format directly.
// DeepSeek goes through here.
func (g *Gateway) callChatCompletions(ctx context.Context, pc ProviderConfig, model string, prompt PromptConfig) (string, error) {
	reqBody := chatRequest{
		Model: model,
		Messages: []chatMessage{
			{Role: "system", Content: prompt.System},
			{Role: "user", Content: prompt.User},
		},
		Temperature: prompt.Temperature,
		MaxTokens:   prompt.MaxTokens,
	}
	reqBody.ResponseFormat.Type = "json_object"

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshal chat request: %w", err)
	}

	url := strings.TrimSuffix(pc.BaseURL, "/") + "/chat/completions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("build chat request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+pc.APIKey)

	client := g.httpClient
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("chat request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read chat response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("chat request returned status %d: %s", resp.StatusCode, truncate(string(body), 200))
	}

	var parsed chatResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("decode chat response: %w", err)
	}
	if parsed.Error != nil {
		return "", fmt.Errorf("chat backend error: %s", parsed.Error.Message)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("chat response contained no choices")
	}
	return extractMessageText(parsed.Choices[0].Message)
}

// extractMessageText pulls completion text from the message shapes seen
// in the wild. Reasoning models put the chain of thought in
// reasoning_content and the answer in content; some servers use text;
// some return the message as a bare string.
func extractMessageText(raw json.RawMessage) (string, error) {
	var msg struct {
		Content          string `json:"content"`
		Text             string `json:"text"`
		ReasoningContent string `json:"reasoning_content"`
	}
	if err := json.Unmarshal(raw, &msg); err == nil {
		if msg.ReasoningContent != "" {
			return msg.Content, nil
		}
		if msg.Text != "" {
			return msg.Text, nil
		}
		if msg.Content != "" {
			return msg.Content, nil
		}
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil && s != "" {
		return s, nil
	}
	return "", ErrUnparsableResponse
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
