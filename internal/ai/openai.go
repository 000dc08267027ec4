package ai

import (
	"context"
	"fmt"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

type OpenAIClient struct {
	client *openai.Client
	model  openai.ChatModel
}

func NewOpenAIClient(apiKey string) (*OpenAIClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("OpenAI API key is required")
	}

	client := openai.NewClient(
		option.WithAPIKey(apiKey),
	)

	return &OpenAIClient{
		client: &client,
		model:  openai.ChatModelGPT4oMini,
	}, nil
}

func (c *OpenAIClient) GenerateCards(ctx context.Context, subject, notes string, count int) ([]GeneratedCard, error) {
	count = clampCount(count)

	completion, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage("You are a precise study assistant. You reply with JSON only."),
			openai.UserMessage(buildPrompt(subject, notes, count)),
		},
		Model:       c.model,
		Temperature: openai.Float(0.4),
	})
	if err != nil {
		return nil, fmt.Errorf("error generating cards: %w", err)
	}

	if len(completion.Choices) == 0 {
		return nil, fmt.Errorf("no content found in response")
	}

	deck, err := parseResponse[generatedDeck](completion.Choices[0].Message.Content)
	if err != nil {
		return nil, fmt.Errorf("error parsing generated cards: %w", err)
	}

	return normalizeCards(deck.Cards, count)
}
