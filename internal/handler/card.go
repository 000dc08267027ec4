package handler

import (
	"errors"
	"github.com/labstack/echo/v4"
	"net/http"
	"studyhub/internal/contract"
	"studyhub/internal/db"
	"time"
)

func (h *Handler) AddCardRoutes(g *echo.Group) {
	g.POST("/decks/:id/cards", h.CreateCards)
	g.GET("/decks/:id/cards", h.GetDeckCards)
	g.GET("/cards/due", h.GetDueCards)
	g.PUT("/cards/:id", h.UpdateCard)
	g.DELETE("/cards/:id", h.DeleteCard)
	g.POST("/cards/:id/move", h.MoveCard)
	g.GET("/cards/:id/reviews", h.GetCardReviews)
}

func (h *Handler) CreateCards(c echo.Context) error {
	userID, err := GetUserIDFromToken(c)
	if err != nil {
		return err
	}

	deckID := c.Param("id")
	if _, err := h.ownedDeck(userID, deckID); err != nil {
		return err
	}

	req := new(contract.CreateCardsRequest)
	if err := c.Bind(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request")
	}

	if err := c.Validate(req); err != nil {
		return err
	}

	inputs := req.Inputs()
	for i := range inputs {
		if err := c.Validate(&inputs[i]); err != nil {
			return err
		}
	}

	cards, err := h.db.AddCardsInBatch(deckID, inputs, h.now().UTC())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to create cards").WithInternal(err)
	}

	return c.JSON(http.StatusCreated, cards)
}

func (h *Handler) GetDeckCards(c echo.Context) error {
	userID, err := GetUserIDFromToken(c)
	if err != nil {
		return err
	}

	deckID := c.Param("id")
	if _, err := h.ownedDeck(userID, deckID); err != nil {
		return err
	}

	cards, err := h.db.ListCards(userID, deckID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to fetch cards").WithInternal(err)
	}

	return c.JSON(http.StatusOK, cards)
}

// GetDueCards lists the cards due now, soonest first. deck_id narrows the
// selection to one deck.
func (h *Handler) GetDueCards(c echo.Context) error {
	userID, err := GetUserIDFromToken(c)
	if err != nil {
		return err
	}

	cards, err := h.study.Due(userID, c.QueryParam("deck_id"))
	if err != nil {
		return studyError(err)
	}

	return c.JSON(http.StatusOK, contract.DueCardsResponse{
		Now:   h.now().UTC().Format(time.RFC3339),
		Count: len(cards),
		Cards: cards,
	})
}

func (h *Handler) UpdateCard(c echo.Context) error {
	userID, err := GetUserIDFromToken(c)
	if err != nil {
		return err
	}

	cardID := c.Param("id")
	if _, err := h.ownedCard(userID, cardID); err != nil {
		return err
	}

	req := new(contract.UpdateCardRequest)
	if err := c.Bind(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request")
	}

	if err := c.Validate(req); err != nil {
		return err
	}

	in := db.CardInput{Front: req.Front, Back: req.Back, Hint: req.Hint, Difficulty: req.Difficulty}
	if err := h.db.UpdateCard(cardID, in, h.now().UTC()); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to update card").WithInternal(err)
	}

	card, err := h.db.GetCard(cardID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to fetch updated card").WithInternal(err)
	}

	return c.JSON(http.StatusOK, card)
}

func (h *Handler) DeleteCard(c echo.Context) error {
	userID, err := GetUserIDFromToken(c)
	if err != nil {
		return err
	}

	cardID := c.Param("id")
	if _, err := h.ownedCard(userID, cardID); err != nil {
		return err
	}

	if err := h.db.DeleteCard(cardID, h.now().UTC()); err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "Card not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to delete card").WithInternal(err)
	}

	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

// MoveCard keeps the card's schedule; only its deck changes.
func (h *Handler) MoveCard(c echo.Context) error {
	userID, err := GetUserIDFromToken(c)
	if err != nil {
		return err
	}

	cardID := c.Param("id")
	if _, err := h.ownedCard(userID, cardID); err != nil {
		return err
	}

	req := new(contract.MoveCardRequest)
	if err := c.Bind(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request")
	}

	if err := c.Validate(req); err != nil {
		return err
	}

	if _, err := h.ownedDeck(userID, req.DeckID); err != nil {
		return err
	}

	if err := h.db.MoveCard(cardID, req.DeckID, h.now().UTC()); err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "Card not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to move card").WithInternal(err)
	}

	card, err := h.db.GetCard(cardID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to fetch card").WithInternal(err)
	}

	return c.JSON(http.StatusOK, card)
}

func (h *Handler) GetCardReviews(c echo.Context) error {
	userID, err := GetUserIDFromToken(c)
	if err != nil {
		return err
	}

	cardID := c.Param("id")
	if _, err := h.ownedCard(userID, cardID); err != nil {
		return err
	}

	reviews, err := h.db.GetCardReviews(cardID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to fetch reviews").WithInternal(err)
	}

	return c.JSON(http.StatusOK, reviews)
}

