package contract

import (
	"fmt"
	"github.com/golang-jwt/jwt/v5"
	"studyhub/internal/db"
	"studyhub/internal/srs"
	"studyhub/internal/study"
)

type JWTClaims struct {
	jwt.RegisteredClaims
	UID    string `json:"uid,omitempty"`
	ChatID int64  `json:"chat_id,omitempty"`
}

type AuthTelegramRequest struct {
	Query string `json:"query"`
}

type AuthTelegramResponse struct {
	Token string  `json:"token"`
	User  db.User `json:"user"`
}

func (a AuthTelegramRequest) Validate() error {
	if a.Query == "" {
		return fmt.Errorf("query cannot be empty")
	}
	return nil
}

type ErrorResponse struct {
	Error string `json:"error"`
}

type DeckRequest struct {
	Title   string `json:"title" validate:"required,max=200"`
	Subject string `json:"subject" validate:"max=100"`
}

// CreateCardsRequest accepts either a single card in the top level fields or
// a batch in Cards.
type CreateCardsRequest struct {
	Front      string         `json:"front"`
	Back       string         `json:"back"`
	Hint       string         `json:"hint"`
	Difficulty string         `json:"difficulty"`
	Cards      []db.CardInput `json:"cards" validate:"omitempty,max=500,dive"`
}

// Inputs returns the cards carried by the request.
func (r CreateCardsRequest) Inputs() []db.CardInput {
	if len(r.Cards) > 0 {
		return r.Cards
	}
	return []db.CardInput{{Front: r.Front, Back: r.Back, Hint: r.Hint, Difficulty: r.Difficulty}}
}

type UpdateCardRequest struct {
	Front      string `json:"front" validate:"required"`
	Back       string `json:"back" validate:"required"`
	Hint       string `json:"hint"`
	Difficulty string `json:"difficulty" validate:"omitempty,oneof=easy medium hard"`
}

type MoveCardRequest struct {
	DeckID string `json:"deck_id" validate:"required"`
}

type GenerateDeckRequest struct {
	Title   string `json:"title" validate:"required,max=200"`
	Subject string `json:"subject" validate:"max=100"`
	Notes   string `json:"notes" validate:"required,min=20"`
	Count   int    `json:"count" validate:"omitempty,min=1,max=50"`
}

type GenerateDeckResponse struct {
	Deck  db.Deck    `json:"deck"`
	Cards []srs.Card `json:"cards"`
}

type ResetProgressResponse struct {
	CardsReset int64 `json:"cards_reset"`
}

type ExportDeckResponse struct {
	URL string `json:"url"`
}

// DeckExport is the document written to object storage by a deck export.
type DeckExport struct {
	Deck       db.Deck    `json:"deck"`
	Cards      []srs.Card `json:"cards"`
	ExportedAt string     `json:"exported_at"`
}

type StartSessionRequest struct {
	DeckID string `json:"deck_id"`
}

// RateRequest carries a quality on the 0..5 scale. A pointer keeps a rating
// of 0 distinguishable from a missing field.
type RateRequest struct {
	Quality *int `json:"quality" validate:"required"`
}

type SwipeRequest struct {
	Direction srs.Swipe `json:"direction" validate:"required,oneof=left right"`
}

type SessionResponse = study.Snapshot

type RateResponse = study.RateResult

type DueCardsResponse struct {
	Now   string     `json:"now"`
	Count int        `json:"count"`
	Cards []srs.Card `json:"cards"`
}

type StatsResponse struct {
	Overview srs.Overview  `json:"overview"`
	Study    db.StudyStats `json:"study"`
}
