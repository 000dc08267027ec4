package handler

import (
	"github.com/labstack/echo/v4"
	"net/http"
	"studyhub/internal/contract"
	"studyhub/internal/srs"
)

func (h *Handler) AddSessionRoutes(g *echo.Group) {
	g.POST("/sessions", h.StartSession)
	g.GET("/sessions/:id", h.GetSession)
	g.POST("/sessions/:id/rate", h.RateCard)
	g.POST("/sessions/:id/swipe", h.SwipeCard)
	g.POST("/sessions/:id/abandon", h.AbandonSession)
}

// StartSession opens a session over the cards due now. Without deck_id every
// deck of the user is included.
func (h *Handler) StartSession(c echo.Context) error {
	userID, err := GetUserIDFromToken(c)
	if err != nil {
		return err
	}

	req := new(contract.StartSessionRequest)
	if err := c.Bind(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request")
	}

	snap, err := h.study.Start(c.Request().Context(), userID, req.DeckID)
	if err != nil {
		return studyError(err)
	}

	return c.JSON(http.StatusCreated, contract.SessionResponse(snap))
}

func (h *Handler) GetSession(c echo.Context) error {
	userID, err := GetUserIDFromToken(c)
	if err != nil {
		return err
	}

	snap, err := h.study.Get(userID, c.Param("id"))
	if err != nil {
		return studyError(err)
	}

	return c.JSON(http.StatusOK, contract.SessionResponse(snap))
}

func (h *Handler) RateCard(c echo.Context) error {
	userID, err := GetUserIDFromToken(c)
	if err != nil {
		return err
	}

	req := new(contract.RateRequest)
	if err := c.Bind(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request")
	}

	if err := c.Validate(req); err != nil {
		return err
	}

	res, err := h.study.Rate(c.Request().Context(), userID, c.Param("id"), srs.Quality(*req.Quality))
	if err != nil {
		return studyError(err)
	}

	return c.JSON(http.StatusOK, contract.RateResponse(res))
}

func (h *Handler) SwipeCard(c echo.Context) error {
	userID, err := GetUserIDFromToken(c)
	if err != nil {
		return err
	}

	req := new(contract.SwipeRequest)
	if err := c.Bind(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request")
	}

	if err := c.Validate(req); err != nil {
		return err
	}

	res, err := h.study.Swipe(c.Request().Context(), userID, c.Param("id"), req.Direction)
	if err != nil {
		return studyError(err)
	}

	return c.JSON(http.StatusOK, contract.RateResponse(res))
}

func (h *Handler) AbandonSession(c echo.Context) error {
	userID, err := GetUserIDFromToken(c)
	if err != nil {
		return err
	}

	snap, err := h.study.Abandon(c.Request().Context(), userID, c.Param("id"))
	if err != nil {
		return studyError(err)
	}

	return c.JSON(http.StatusOK, contract.SessionResponse(snap))
}
