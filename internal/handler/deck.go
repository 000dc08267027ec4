package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"github.com/labstack/echo/v4"
	"net/http"
	"studyhub/internal/contract"
	"studyhub/internal/db"
	"time"
)

func (h *Handler) AddDeckRoutes(g *echo.Group) {
	g.GET("/decks", h.GetDecks)
	g.POST("/decks", h.CreateDeck)
	g.GET("/decks/:id", h.GetDeck)
	g.PUT("/decks/:id", h.UpdateDeck)
	g.DELETE("/decks/:id", h.DeleteDeck)
	g.POST("/decks/:id/reset", h.ResetDeckProgress)
	g.POST("/decks/:id/export", h.ExportDeck)
}

func (h *Handler) GetDecks(c echo.Context) error {
	userID, err := GetUserIDFromToken(c)
	if err != nil {
		return err
	}

	decks, err := h.db.GetDecks(userID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to fetch decks").WithInternal(err)
	}

	return c.JSON(http.StatusOK, decks)
}

func (h *Handler) CreateDeck(c echo.Context) error {
	userID, err := GetUserIDFromToken(c)
	if err != nil {
		return err
	}

	req := new(contract.DeckRequest)
	if err := c.Bind(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request")
	}

	if err := c.Validate(req); err != nil {
		return err
	}

	deck, err := h.db.CreateDeck(userID, req.Title, req.Subject, h.now().UTC())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to create deck").WithInternal(err)
	}

	return c.JSON(http.StatusCreated, deck)
}

func (h *Handler) GetDeck(c echo.Context) error {
	userID, err := GetUserIDFromToken(c)
	if err != nil {
		return err
	}

	deck, err := h.ownedDeck(userID, c.Param("id"))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, deck)
}

func (h *Handler) UpdateDeck(c echo.Context) error {
	userID, err := GetUserIDFromToken(c)
	if err != nil {
		return err
	}

	deckID := c.Param("id")
	if _, err := h.ownedDeck(userID, deckID); err != nil {
		return err
	}

	req := new(contract.DeckRequest)
	if err := c.Bind(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request")
	}

	if err := c.Validate(req); err != nil {
		return err
	}

	if err := h.db.UpdateDeck(deckID, req.Title, req.Subject, h.now().UTC()); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to update deck").WithInternal(err)
	}

	updatedDeck, err := h.db.GetDeck(deckID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to fetch updated deck").WithInternal(err)
	}

	return c.JSON(http.StatusOK, updatedDeck)
}

func (h *Handler) DeleteDeck(c echo.Context) error {
	userID, err := GetUserIDFromToken(c)
	if err != nil {
		return err
	}

	deckID := c.Param("id")
	if _, err := h.ownedDeck(userID, deckID); err != nil {
		return err
	}

	if err := h.db.DeleteDeck(deckID, h.now().UTC()); err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "Deck not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to delete deck").WithInternal(err)
	}

	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) ResetDeckProgress(c echo.Context) error {
	userID, err := GetUserIDFromToken(c)
	if err != nil {
		return err
	}

	deckID := c.Param("id")
	if _, err := h.ownedDeck(userID, deckID); err != nil {
		return err
	}

	n, err := h.db.ResetProgress(userID, deckID, h.now().UTC())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to reset progress").WithInternal(err)
	}

	return c.JSON(http.StatusOK, contract.ResetProgressResponse{CardsReset: n})
}

func (h *Handler) ResetAllProgress(c echo.Context) error {
	userID, err := GetUserIDFromToken(c)
	if err != nil {
		return err
	}

	n, err := h.db.ResetProgress(userID, "", h.now().UTC())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to reset progress").WithInternal(err)
	}

	return c.JSON(http.StatusOK, contract.ResetProgressResponse{CardsReset: n})
}

// ExportDeck writes a JSON snapshot of the deck and its schedules to object
// storage and returns its URL.
func (h *Handler) ExportDeck(c echo.Context) error {
	userID, err := GetUserIDFromToken(c)
	if err != nil {
		return err
	}

	if h.storageProvider == nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "Storage is not configured")
	}

	deck, err := h.ownedDeck(userID, c.Param("id"))
	if err != nil {
		return err
	}

	cards, err := h.db.ListCards(userID, deck.ID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to fetch cards").WithInternal(err)
	}

	now := h.now().UTC()
	payload, err := json.Marshal(contract.DeckExport{
		Deck:       *deck,
		Cards:      cards,
		ExportedAt: now.Format(time.RFC3339),
	})
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to encode deck").WithInternal(err)
	}

	filename := fmt.Sprintf("exports/%s/%s-%d.json", userID, deck.ID, now.Unix())
	url, err := h.storageProvider.UploadFile(c.Request().Context(), bytes.NewReader(payload), filename, echo.MIMEApplicationJSON)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadGateway, "Failed to upload export").WithInternal(err)
	}

	return c.JSON(http.StatusOK, contract.ExportDeckResponse{URL: url})
}
