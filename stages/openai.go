package stages

import (
	"context"
	"fmt"
	"os"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

// TextGenerator is the uniform contract for one external text-generation
// call: a prompt in, free text out. The text may arrive wrapped in code
// fences or commentary and must be parsed defensively.
type TextGenerator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// OpenAIGenerator calls the chat completions API with JSON-object response
// formatting. One instance per model; the engine holds a primary generator
// and a (possibly different) fixer for repair calls.
type OpenAIGenerator struct {
	client openai.Client
	model  openai.ChatModel
}

func NewOpenAIGenerator(model openai.ChatModel) (*OpenAIGenerator, error) {
	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY environment variable not set")
	}
	return &OpenAIGenerator{
		client: openai.NewClient(option.WithAPIKey(apiKey)),
		model:  model,
	}, nil
}

func (g *OpenAIGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	chatCompletion, err := g.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(prompt),
		},
		Model: g.model,
		ResponseFormat: openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &openai.ResponseFormatJSONObjectParam{},
		},
	})
	if err != nil {
		return "", fmt.Errorf("OpenAI API error: %w", err)
	}

	if len(chatCompletion.Choices) == 0 {
		return "", fmt.Errorf("no response from OpenAI")
	}

	raw := chatCompletion.Choices[0].Message.Content
	if raw == "" {
		return "", fmt.Errorf("OpenAI returned empty response. Finish reason: %s", chatCompletion.Choices[0].FinishReason)
	}
	return raw, nil
}
