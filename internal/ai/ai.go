package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

const (
	DefaultCardCount = 10
	MaxCardCount     = 50

	// notes longer than this are cut before they reach the model
	maxNotesLength = 20000
)

var ErrNoCards = errors.New("ai: no usable cards generated")

// GeneratedCard is one flashcard proposed by a model.
type GeneratedCard struct {
	Front      string `json:"front"`
	Back       string `json:"back"`
	Hint       string `json:"hint,omitempty"`
	Difficulty string `json:"difficulty,omitempty"`
}

type generatedDeck struct {
	Cards []GeneratedCard `json:"cards"`
}

// CardGenerator turns study notes into flashcards.
type CardGenerator interface {
	GenerateCards(ctx context.Context, subject, notes string, count int) ([]GeneratedCard, error)
}

// New returns the generator for provider ("openai" or "gemini").
func New(provider, openaiKey, geminiKey string) (CardGenerator, error) {
	switch provider {
	case "", "openai":
		client, err := NewOpenAIClient(openaiKey)
		if err != nil {
			return nil, err
		}
		return client, nil
	case "gemini":
		client, err := NewGeminiClient(geminiKey)
		if err != nil {
			return nil, err
		}
		return client, nil
	default:
		return nil, fmt.Errorf("unknown ai provider %q", provider)
	}
}

func clampCount(count int) int {
	switch {
	case count <= 0:
		return DefaultCardCount
	case count > MaxCardCount:
		return MaxCardCount
	default:
		return count
	}
}

func buildPrompt(subject, notes string, count int) string {
	if len(notes) > maxNotesLength {
		notes = notes[:maxNotesLength]
	}

	subjectLine := ""
	if subject != "" {
		subjectLine = fmt.Sprintf("Subject: %s\n", subject)
	}

	return fmt.Sprintf(`You create flashcards for spaced repetition from a student's notes.

Rules:
- Create at most %d cards.
- One fact per card. The front is a short question or term, the back is the answer.
- Use the language of the notes.
- Add a short hint only when it helps recall without giving the answer away.
- Set difficulty to one of: easy, medium, hard.
- Answer with JSON only: {"cards":[{"front":"","back":"","hint":"","difficulty":""}]}

%s---
%s
`, count, subjectLine, notes)
}

func parseResponse[T any](text string) (T, error) {
	var result T
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")

	if err := json.Unmarshal([]byte(strings.TrimSpace(text)), &result); err != nil {
		return result, fmt.Errorf("error parsing response: %w", err)
	}
	return result, nil
}

// normalizeCards trims fields, drops incomplete cards and duplicate fronts,
// and keeps at most count cards.
func normalizeCards(cards []GeneratedCard, count int) ([]GeneratedCard, error) {
	seen := make(map[string]bool, len(cards))
	out := make([]GeneratedCard, 0, len(cards))

	for _, c := range cards {
		c.Front = strings.TrimSpace(c.Front)
		c.Back = strings.TrimSpace(c.Back)
		c.Hint = strings.TrimSpace(c.Hint)
		c.Difficulty = strings.ToLower(strings.TrimSpace(c.Difficulty))

		if c.Front == "" || c.Back == "" {
			continue
		}
		key := strings.ToLower(c.Front)
		if seen[key] {
			continue
		}
		seen[key] = true

		switch c.Difficulty {
		case "easy", "medium", "hard":
		default:
			c.Difficulty = ""
		}

		out = append(out, c)
		if len(out) == count {
			break
		}
	}

	if len(out) == 0 {
		return nil, ErrNoCards
	}
	return out, nil
}
