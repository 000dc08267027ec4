package ai

import (
	"context"
	"fmt"
	"google.golang.org/genai"
)

const (
	// Default model for Gemini
	model = "gemini-2.5-flash-preview-05-20"
)

type GeminiClient struct {
	client *genai.Client
	model  string
}

func NewGeminiClient(apiKey string) (*GeminiClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("Gemini API key is required")
	}

	client, err := genai.NewClient(context.Background(), &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &GeminiClient{
		client: client,
		model:  model,
	}, nil
}

func (c *GeminiClient) generateContent(
	ctx context.Context,
	prompt string,
	temperature float32,
	schema *genai.Schema,
) (string, error) {
	config := &genai.GenerateContentConfig{
		Temperature:      genai.Ptr[float32](temperature),
		TopP:             genai.Ptr[float32](0.95),
		ResponseSchema:   schema,
		ResponseMIMEType: "application/json",
	}

	result, err := c.client.Models.GenerateContent(ctx, c.model, genai.Text(prompt), config)
	if err != nil {
		return "", fmt.Errorf("failed to generate content: %w", err)
	}

	return result.Text(), nil
}

var cardsSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"cards": {
			Type: genai.TypeArray,
			Items: &genai.Schema{
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"front": {
						Type: genai.TypeString,
					},
					"back": {
						Type: genai.TypeString,
					},
					"hint": {
						Type: genai.TypeString,
					},
					"difficulty": {
						Type: genai.TypeString,
						Enum: []string{"easy", "medium", "hard"},
					},
				},
				Required: []string{"front", "back"},
			},
		},
	},
	Required: []string{"cards"},
}

func (c *GeminiClient) GenerateCards(ctx context.Context, subject, notes string, count int) ([]GeneratedCard, error) {
	count = clampCount(count)

	responseText, err := c.generateContent(ctx, buildPrompt(subject, notes, count), 0.4, cardsSchema)
	if err != nil {
		return nil, err
	}

	deck, err := parseResponse[generatedDeck](responseText)
	if err != nil {
		return nil, fmt.Errorf("error parsing generated cards: %w", err)
	}

	return normalizeCards(deck.Cards, count)
}
