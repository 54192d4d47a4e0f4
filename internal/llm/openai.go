package llm

import (
	"context"
	"fmt"

	"github.com/sashabaranov/go-openai"
)

// DefaultSystemPrompt is the persona sent with every chat completion.
const DefaultSystemPrompt = "You are an expert software documentation writer. Follow the response format instructions exactly."

// OpenAIOptions configures an OpenAIGenerator.
type OpenAIOptions struct {
	APIKey       string
	BaseURL      string
	Model        string
	Temperature  float32
	SystemPrompt string
}

// OpenAIGenerator generates text through an OpenAI-compatible chat completion API.
type OpenAIGenerator struct {
	client       *openai.Client
	model        string
	temperature  float32
	systemPrompt string
}

// NewOpenAIGenerator creates a generator for opts.
func NewOpenAIGenerator(opts OpenAIOptions) *OpenAIGenerator {
	clientCfg := openai.DefaultConfig(opts.APIKey)
	if opts.BaseURL != "" {
		clientCfg.BaseURL = opts.BaseURL
	}
	model := opts.Model
	if model == "" {
		model = openai.GPT4oMini
	}
	system := opts.SystemPrompt
	if system == "" {
		system = DefaultSystemPrompt
	}
	return &OpenAIGenerator{
		client:       openai.NewClientWithConfig(clientCfg),
		model:        model,
		temperature:  opts.Temperature,
		systemPrompt: system,
	}
}

// Model returns the model name requests are sent to.
func (o *OpenAIGenerator) Model() string {
	return o.model
}

// Generate implements Generator.
func (o *OpenAIGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	req := openai.ChatCompletionRequest{
		Model: o.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: o.systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		Temperature: o.temperature,
	}

	resp, err := o.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", fmt.Errorf("openai chat completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("openai returned no choices")
	}
	return resp.Choices[0].Message.Content, nil
}
