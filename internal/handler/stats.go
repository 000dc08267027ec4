package handler

import (
	"github.com/labstack/echo/v4"
	"net/http"
	"strconv"
	"studyhub/internal/contract"
	"studyhub/internal/srs"
)

const maxHistoryDays = 365

func (h *Handler) GetStats(c echo.Context) error {
	userID, err := GetUserIDFromToken(c)
	if err != nil {
		return err
	}

	now := h.now().UTC()

	decks, err := h.db.GetDecks(userID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to fetch decks").WithInternal(err)
	}

	deckIDs := make([]string, 0, len(decks))
	for _, d := range decks {
		deckIDs = append(deckIDs, d.ID)
	}

	cards, err := h.db.ListCards(userID, "")
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to fetch cards").WithInternal(err)
	}

	latest, err := h.db.LatestSessionResults(userID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to fetch sessions").WithInternal(err)
	}

	study, err := h.db.GetUserStudyStats(userID, now)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to fetch study stats").WithInternal(err)
	}

	return c.JSON(http.StatusOK, contract.StatsResponse{
		Overview: srs.Aggregate(deckIDs, cards, latest, now),
		Study:    study,
	})
}

func (h *Handler) GetStudyHistory(c echo.Context) error {
	userID, err := GetUserIDFromToken(c)
	if err != nil {
		return err
	}

	days := 0
	if v := c.QueryParam("days"); v != "" {
		days, err = strconv.Atoi(v)
		if err != nil || days < 0 || days > maxHistoryDays {
			return echo.NewHTTPError(http.StatusBadRequest, "Invalid days")
		}
	}

	history, err := h.db.GetUserStudyHistory(userID, days, h.now())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to fetch study history").WithInternal(err)
	}

	return c.JSON(http.StatusOK, history)
}
