package translator

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai"
	"google.golang.org/genai"
)

// AI backends for the DiscourseAi provider
const (
	BackendOpenAI = "openai"
	BackendGemini = "gemini"
)

// Completer sends one system and user prompt to a chat model
type Completer interface {
	Complete(ctx context.Context, system, user string) (string, error)
	Model() string
	// Available reports a missing API key
	Available() error
}

// CompleterConfig selects and configures the chat backend
type CompleterConfig struct {
	Backend string
	Model   string
	APIKey  string
	BaseURL string // optional, for OpenAI compatible servers
}

// NewCompleter creates a chat completer for the configured backend.
// A missing API key is not an error here; Complete reports it.
func NewCompleter(ctx context.Context, cfg CompleterConfig) (Completer, error) {
	switch strings.ToLower(cfg.Backend) {
	case "", BackendOpenAI:
		return newOpenAICompleter(cfg), nil
	case BackendGemini:
		return newGeminiCompleter(ctx, cfg)
	default:
		return nil, fmt.Errorf("unknown AI backend: %s", cfg.Backend)
	}
}

type openAICompleter struct {
	apiKey string
	model  string
	client *openai.Client
}

func newOpenAICompleter(cfg CompleterConfig) *openAICompleter {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	model := cfg.Model
	if model == "" {
		model = openai.GPT4oMini
	}
	return &openAICompleter{
		apiKey: cfg.APIKey,
		model:  model,
		client: openai.NewClientWithConfig(clientCfg),
	}
}

func (c *openAICompleter) Model() string { return c.model }

func (c *openAICompleter) Available() error {
	if c.apiKey == "" {
		return notConfigured(ProviderDiscourseAI, "ai.api_key")
	}
	return nil
}

func (c *openAICompleter) Complete(ctx context.Context, system, user string) (string, error) {
	if err := c.Available(); err != nil {
		return "", err
	}

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
		Temperature: 0.2,
	})
	if err != nil {
		return "", &Error{Provider: ProviderDiscourseAI, StatusCode: openAIStatus(err), Message: err.Error()}
	}
	if len(resp.Choices) == 0 {
		return "", &Error{Provider: ProviderDiscourseAI, StatusCode: 200, Message: "no completion returned"}
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

func openAIStatus(err error) int {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.HTTPStatusCode
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return reqErr.HTTPStatusCode
	}
	return 0
}

type geminiCompleter struct {
	model  string
	client *genai.Client
}

func newGeminiCompleter(ctx context.Context, cfg CompleterConfig) (*geminiCompleter, error) {
	model := cfg.Model
	if model == "" || strings.HasPrefix(model, "gpt-") {
		model = "gemini-2.0-flash"
	}
	c := &geminiCompleter{model: model}
	if cfg.APIKey == "" {
		return c, nil
	}

	clientCfg := &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if cfg.BaseURL != "" {
		clientCfg.HTTPOptions.BaseURL = cfg.BaseURL
	}
	client, err := genai.NewClient(ctx, clientCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	c.client = client
	return c, nil
}

func (c *geminiCompleter) Model() string { return c.model }

func (c *geminiCompleter) Available() error {
	if c.client == nil {
		return notConfigured(ProviderDiscourseAI, "ai.api_key")
	}
	return nil
}

func (c *geminiCompleter) Complete(ctx context.Context, system, user string) (string, error) {
	if err := c.Available(); err != nil {
		return "", err
	}

	resp, err := c.client.Models.GenerateContent(ctx, c.model, genai.Text(user), &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(system, genai.RoleUser),
		Temperature:       genai.Ptr[float32](0.2),
	})
	if err != nil {
		translatorErr := &Error{Provider: ProviderDiscourseAI, Message: err.Error()}
		var apiErr genai.APIError
		if errors.As(err, &apiErr) {
			translatorErr.StatusCode = apiErr.Code
		}
		return "", translatorErr
	}
	return strings.TrimSpace(resp.Text()), nil
}
