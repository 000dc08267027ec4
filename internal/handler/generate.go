package handler

import (
	"errors"
	"github.com/labstack/echo/v4"
	"net/http"
	"studyhub/internal/ai"
	"studyhub/internal/contract"
	"studyhub/internal/db"
)

// GenerateDeck asks the configured model for cards covering the notes and
// stores them as a new deck.
func (h *Handler) GenerateDeck(c echo.Context) error {
	userID, err := GetUserIDFromToken(c)
	if err != nil {
		return err
	}

	if h.generator == nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "Card generation is not configured")
	}

	req := new(contract.GenerateDeckRequest)
	if err := c.Bind(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request")
	}

	if err := c.Validate(req); err != nil {
		return err
	}

	generated, err := h.generator.GenerateCards(c.Request().Context(), req.Subject, req.Notes, req.Count)
	if err != nil {
		if errors.Is(err, ai.ErrNoCards) {
			return echo.NewHTTPError(http.StatusUnprocessableEntity, "No cards could be generated from the notes")
		}
		return echo.NewHTTPError(http.StatusBadGateway, "Failed to generate cards").WithInternal(err)
	}

	inputs := make([]db.CardInput, 0, len(generated))
	for _, g := range generated {
		inputs = append(inputs, db.CardInput{Front: g.Front, Back: g.Back, Hint: g.Hint, Difficulty: g.Difficulty})
	}

	deck, cards, err := h.db.CreateDeckWithCards(userID, req.Title, req.Subject, inputs, h.now().UTC())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to save generated deck").WithInternal(err)
	}

	h.logger.Info("deck generated", "user_id", userID, "deck_id", deck.ID, "cards", len(cards))

	return c.JSON(http.StatusCreated, contract.GenerateDeckResponse{Deck: *deck, Cards: cards})
}
