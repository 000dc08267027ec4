package study

import (
	"context"
	"errors"
	"fmt"
	nanoid "github.com/matoous/go-nanoid/v2"
	"log/slog"
	"studyhub/internal/db"
	"studyhub/internal/srs"
	"sync"
	"time"
)

var (
	ErrSessionNotFound = errors.New("study: session not found")
	ErrForbidden       = errors.New("study: deck belongs to another user")
)

// Store is the persistence the controller needs.
type Store interface {
	GetDeck(deckID string) (*db.Deck, error)
	GetCard(cardID string) (*srs.Card, error)
	ListCards(userID, deckID string) ([]srs.Card, error)
	SaveReview(card srs.Card, review db.Review) error
	SaveSessionResult(result db.SessionResult) error
}

// Snapshot is a read-only view of a session.
type Snapshot struct {
	ID        string      `json:"id"`
	DeckID    string      `json:"deck_id,omitempty"`
	Status    srs.Status  `json:"status"`
	Position  int         `json:"position"`
	Total     int         `json:"total"`
	Remaining int         `json:"remaining"`
	Current   *srs.Card   `json:"current,omitempty"`
	Summary   srs.Summary `json:"summary"`
	StartedAt time.Time   `json:"started_at"`
}

// RateResult is returned after a rating has been stored.
type RateResult struct {
	Card    srs.Card `json:"card"`
	Session Snapshot `json:"session"`
}

type handle struct {
	mu sync.Mutex

	id        string
	userID    string
	deckID    string
	startedAt time.Time
	touchedAt time.Time
	session   *srs.Session
}

func (h *handle) snapshot() Snapshot {
	snap := Snapshot{
		ID:        h.id,
		DeckID:    h.deckID,
		Status:    h.session.Status(),
		Position:  h.session.Position(),
		Total:     h.session.Len(),
		Remaining: h.session.Remaining(),
		Summary:   h.session.Summary(),
		StartedAt: h.startedAt,
	}
	if card, err := h.session.Current(); err == nil {
		snap.Current = &card
	}
	return snap
}

// Controller runs review sessions on behalf of users. Each session belongs to
// one user; any number of sessions may run concurrently.
type Controller struct {
	store  Store
	logger *slog.Logger
	now    func() time.Time

	mu       sync.RWMutex
	sessions map[string]*handle

	cards *cardLocks
}

type Option func(*Controller)

func WithClock(now func() time.Time) Option {
	return func(c *Controller) { c.now = now }
}

func WithLogger(logger *slog.Logger) Option {
	return func(c *Controller) { c.logger = logger }
}

func NewController(store Store, opts ...Option) *Controller {
	c := &Controller{
		store:    store,
		logger:   slog.Default(),
		now:      time.Now,
		sessions: make(map[string]*handle),
		cards:    newCardLocks(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Due returns the user's cards due now, optionally limited to one deck.
func (c *Controller) Due(userID, deckID string) ([]srs.Card, error) {
	if err := c.checkDeck(userID, deckID); err != nil {
		return nil, err
	}

	cards, err := c.store.ListCards(userID, deckID)
	if err != nil {
		return nil, err
	}

	return srs.SelectDue(cards, c.now().UTC(), deckID), nil
}

// Start builds a session over the cards due now. An empty due-set produces a
// session that is already complete.
func (c *Controller) Start(ctx context.Context, userID, deckID string) (Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return Snapshot{}, err
	}

	due, err := c.Due(userID, deckID)
	if err != nil {
		return Snapshot{}, err
	}

	now := c.now().UTC()
	h := &handle{
		id:        nanoid.Must(),
		userID:    userID,
		deckID:    deckID,
		startedAt: now,
		touchedAt: now,
		session:   srs.NewSession(due),
	}

	c.mu.Lock()
	c.sessions[h.id] = h
	c.mu.Unlock()

	if h.session.Status().Terminal() {
		c.record(h, now)
	}

	return h.snapshot(), nil
}

// Get returns the session of userID with the given id.
func (c *Controller) Get(userID, sessionID string) (Snapshot, error) {
	h, err := c.lookup(userID, sessionID)
	if err != nil {
		return Snapshot{}, err
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	h.touchedAt = c.now().UTC()

	return h.snapshot(), nil
}

// Current returns the card awaiting a rating.
func (c *Controller) Current(userID, sessionID string) (srs.Card, error) {
	h, err := c.lookup(userID, sessionID)
	if err != nil {
		return srs.Card{}, err
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	return h.session.Current()
}

func (c *Controller) Summary(userID, sessionID string) (srs.Summary, error) {
	h, err := c.lookup(userID, sessionID)
	if err != nil {
		return srs.Summary{}, err
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	return h.session.Summary(), nil
}

// Rate records quality for the current card: the card is rescheduled and
// written to the store exactly once, then the session advances. On any error
// neither the session nor the card changes.
func (c *Controller) Rate(ctx context.Context, userID, sessionID string, q srs.Quality) (RateResult, error) {
	h, err := c.lookup(userID, sessionID)
	if err != nil {
		return RateResult{}, err
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return RateResult{}, err
	}

	now := c.now().UTC()
	current, err := h.session.Current()
	if err != nil {
		return RateResult{}, err
	}

	unlock := c.cards.lock(current.ID)
	card, err := c.rateLatest(h, current.ID, q, now)
	unlock()
	if err != nil {
		return RateResult{}, err
	}

	h.touchedAt = now
	if h.session.Status().Terminal() {
		c.record(h, now)
	}

	return RateResult{Card: card, Session: h.snapshot()}, nil
}

// Swipe rates the current card from a coarse gesture: left is "needs work",
// right is "mastered".
func (c *Controller) Swipe(ctx context.Context, userID, sessionID string, s srs.Swipe) (RateResult, error) {
	q, err := srs.QualityForSwipe(s)
	if err != nil {
		return RateResult{}, err
	}
	return c.Rate(ctx, userID, sessionID, q)
}

// Abandon ends a session early; unrated cards keep their schedule.
func (c *Controller) Abandon(ctx context.Context, userID, sessionID string) (Snapshot, error) {
	h, err := c.lookup(userID, sessionID)
	if err != nil {
		return Snapshot{}, err
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return Snapshot{}, err
	}

	if err := h.session.Abandon(); err != nil {
		return Snapshot{}, err
	}

	now := c.now().UTC()
	h.touchedAt = now
	c.record(h, now)

	return h.snapshot(), nil
}

// ReapIdle abandons active sessions nobody touched for maxIdle and forgets
// finished ones after the same delay. It returns how many sessions were
// removed.
func (c *Controller) ReapIdle(now time.Time, maxIdle time.Duration) int {
	c.mu.RLock()
	handles := make([]*handle, 0, len(c.sessions))
	for _, h := range c.sessions {
		handles = append(handles, h)
	}
	c.mu.RUnlock()

	var stale []string
	for _, h := range handles {
		h.mu.Lock()
		if now.Sub(h.touchedAt) >= maxIdle {
			if h.session.Status() == srs.StatusActive {
				_ = h.session.Abandon()
				c.record(h, now)
			}
			stale = append(stale, h.id)
		}
		h.mu.Unlock()
	}

	c.mu.Lock()
	for _, id := range stale {
		delete(c.sessions, id)
	}
	c.mu.Unlock()

	return len(stale)
}

// Active returns the number of sessions held in memory.
func (c *Controller) Active() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.sessions)
}

func (c *Controller) lookup(userID, sessionID string) (*handle, error) {
	c.mu.RLock()
	h, ok := c.sessions[sessionID]
	c.mu.RUnlock()

	// sessions of other users are reported as missing
	if !ok || h.userID != userID {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, sessionID)
	}
	return h, nil
}

func (c *Controller) checkDeck(userID, deckID string) error {
	if deckID == "" {
		return nil
	}

	deck, err := c.store.GetDeck(deckID)
	if err != nil {
		return err
	}
	if deck.UserID != userID {
		return ErrForbidden
	}
	return nil
}

// rateLatest schedules the current card from its stored state, so ratings
// from other sessions and progress resets since Start are not lost. The
// caller holds the card lock.
func (c *Controller) rateLatest(h *handle, cardID string, q srs.Quality, now time.Time) (srs.Card, error) {
	latest, err := c.store.GetCard(cardID)
	if errors.Is(err, db.ErrNotFound) {
		return srs.Card{}, fmt.Errorf("%w: %s", srs.ErrCardNotFound, cardID)
	}
	if err != nil {
		return srs.Card{}, fmt.Errorf("error loading card: %w", err)
	}

	return h.session.RateLatest(*latest, q, now, func(updated srs.Card) error {
		return c.persist(h, *latest, updated, q, now)
	})
}

func (c *Controller) persist(h *handle, prev, updated srs.Card, q srs.Quality, now time.Time) error {
	err := c.store.SaveReview(updated, db.Review{
		UserID:       h.userID,
		CardID:       updated.ID,
		SessionID:    h.id,
		Quality:      int(q),
		ReviewedAt:   now,
		PrevInterval: prev.IntervalDays,
		NewInterval:  updated.IntervalDays,
		PrevEase:     prev.EasinessFactor,
		NewEase:      updated.EasinessFactor,
	})
	if errors.Is(err, db.ErrNotFound) {
		return fmt.Errorf("%w: %s", srs.ErrCardNotFound, updated.ID)
	}
	if err != nil {
		return fmt.Errorf("error saving review: %w", err)
	}
	return nil
}

// record stores the outcome of a session that just ended. A failure here is
// logged only: every rating was already persisted on its own.
func (c *Controller) record(h *handle, now time.Time) {
	sum := h.session.Summary()
	err := c.store.SaveSessionResult(db.SessionResult{
		ID:        h.id,
		UserID:    h.userID,
		DeckID:    h.deckID,
		Status:    h.session.Status(),
		Reviewed:  sum.Reviewed,
		Mastered:  sum.Mastered,
		NeedsWork: sum.NeedsWork,
		StartedAt: h.startedAt,
		EndedAt:   now,
	})
	if err != nil {
		c.logger.Error("failed to save session result", "session_id", h.id, "error", err)
	}
}
