package handler

import (
	"errors"
	telegram "github.com/go-telegram/bot"
	"github.com/golang-jwt/jwt/v5"
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"
	"log/slog"
	"net/http"
	"studyhub/internal/ai"
	"studyhub/internal/contract"
	"studyhub/internal/db"
	"studyhub/internal/middleware"
	"studyhub/internal/srs"
	"studyhub/internal/storage"
	"studyhub/internal/study"
	"time"
)

type Handler struct {
	bot             *telegram.Bot
	db              *db.Storage
	study           *study.Controller
	jwtSecret       string
	botToken        string
	webAppURL       string
	storageProvider storage.Provider
	generator       ai.CardGenerator
	logger          *slog.Logger
	now             func() time.Time
}

// New wires the HTTP handlers. bot, storageProvider and generator may be nil;
// the routes that need them then answer 503.
func New(
	bot *telegram.Bot,
	db *db.Storage,
	controller *study.Controller,
	jwtSecret string,
	botToken string,
	webAppURL string,
	storageProvider storage.Provider,
	generator ai.CardGenerator,
	logger *slog.Logger,
) *Handler {
	if logger == nil {
		logger = slog.Default()
	}

	return &Handler{
		bot:             bot,
		db:              db,
		study:           controller,
		jwtSecret:       jwtSecret,
		botToken:        botToken,
		webAppURL:       webAppURL,
		storageProvider: storageProvider,
		generator:       generator,
		logger:          logger,
		now:             time.Now,
	}
}

func (h *Handler) RegisterRoutes(e *echo.Echo) {

	e.POST("/webhook", h.HandleWebhook)
	e.POST("/auth/telegram", h.TelegramAuth)

	v1 := e.Group("/v1")

	v1.Use(echojwt.WithConfig(middleware.GetUserAuthConfig(h.jwtSecret)))

	h.AddDeckRoutes(v1)
	h.AddCardRoutes(v1)
	h.AddSessionRoutes(v1)
	h.AddAnkiImportRoutes(v1)

	v1.POST("/decks/generate", h.GenerateDeck)
	v1.POST("/progress/reset", h.ResetAllProgress)

	v1.GET("/stats", h.GetStats)
	v1.GET("/stats/history", h.GetStudyHistory)
}

func GetUserIDFromToken(c echo.Context) (string, error) {
	user, ok := c.Get("user").(*jwt.Token)
	if !ok || user == nil {
		return "", echo.NewHTTPError(http.StatusUnauthorized, "Invalid token")
	}

	claims, ok := user.Claims.(*contract.JWTClaims)
	if !ok || claims == nil {
		return "", echo.NewHTTPError(http.StatusUnauthorized, "Invalid token")
	}

	return claims.UID, nil
}

// studyError maps core and store errors onto HTTP errors.
func studyError(err error) error {
	switch {
	case errors.Is(err, srs.ErrInvalidRating):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, srs.ErrInvalidSessionState):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	case errors.Is(err, study.ErrSessionNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "Session not found")
	case errors.Is(err, srs.ErrCardNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "Card not found")
	case errors.Is(err, db.ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "Not found")
	case errors.Is(err, study.ErrForbidden):
		return echo.NewHTTPError(http.StatusForbidden, "Access denied")
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, "Internal error").WithInternal(err)
	}
}

// ownedDeck loads a deck and checks that it belongs to userID.
func (h *Handler) ownedDeck(userID, deckID string) (*db.Deck, error) {
	deck, err := h.db.GetDeck(deckID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, echo.NewHTTPError(http.StatusNotFound, "Deck not found")
		}
		return nil, echo.NewHTTPError(http.StatusInternalServerError, "Failed to fetch deck").WithInternal(err)
	}

	if deck.UserID != userID {
		return nil, echo.NewHTTPError(http.StatusForbidden, "Access denied")
	}

	return deck, nil
}

// ownedCard loads a card and checks that its deck belongs to userID.
func (h *Handler) ownedCard(userID, cardID string) (*srs.Card, error) {
	card, err := h.db.GetCard(cardID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, echo.NewHTTPError(http.StatusNotFound, "Card not found")
		}
		return nil, echo.NewHTTPError(http.StatusInternalServerError, "Failed to fetch card").WithInternal(err)
	}

	if _, err := h.ownedDeck(userID, card.DeckID); err != nil {
		return nil, err
	}

	return card, nil
}
