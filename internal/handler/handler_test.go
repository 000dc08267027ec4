package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"io"
	"net/http"
	"studyhub/internal/ai"
	"studyhub/internal/contract"
	"studyhub/internal/db"
	"studyhub/internal/srs"
	"studyhub/internal/testutils"
	"sync"
	"testing"
)

type memoryStorage struct {
	mu    sync.Mutex
	files map[string][]byte
}

func newMemoryStorage() *memoryStorage {
	return &memoryStorage{files: make(map[string][]byte)}
}

func (m *memoryStorage) UploadFile(_ context.Context, data io.Reader, filename string, _ string) (string, error) {
	b, err := io.ReadAll(data)
	if err != nil {
		return "", err
	}
	m.mu.Lock()
	m.files[filename] = b
	m.mu.Unlock()
	return m.GetFileURL(filename)
}

func (m *memoryStorage) GetFileURL(filename string) (string, error) {
	return "https://cdn.test/" + filename, nil
}

type stubGenerator struct {
	cards []ai.GeneratedCard
	err   error
}

func (g stubGenerator) GenerateCards(_ context.Context, _, _ string, _ int) ([]ai.GeneratedCard, error) {
	return g.cards, g.err
}

func toJSON(t *testing.T, v any) string {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return string(b)
}

func login(t *testing.T, e *echo.Echo, telegramID int64, username string) string {
	t.Helper()
	resp, err := testutils.AuthHelper(t, e, telegramID, username, "Test")
	require.NoError(t, err)
	require.NotEmpty(t, resp.Token)
	return resp.Token
}

func createDeck(t *testing.T, e *echo.Echo, token, title string) db.Deck {
	t.Helper()
	rec := testutils.PerformRequest(t, e, http.MethodPost, "/v1/decks",
		toJSON(t, contract.DeckRequest{Title: title, Subject: "biology"}), token, http.StatusCreated)
	return testutils.ParseResponse[db.Deck](t, rec)
}

func addCards(t *testing.T, e *echo.Echo, token, deckID string, n int) []srs.Card {
	t.Helper()
	req := contract.CreateCardsRequest{}
	for i := 0; i < n; i++ {
		req.Cards = append(req.Cards, db.CardInput{
			Front: fmt.Sprintf("question %d", i),
			Back:  fmt.Sprintf("answer %d", i),
		})
	}
	rec := testutils.PerformRequest(t, e, http.MethodPost, "/v1/decks/"+deckID+"/cards", toJSON(t, req), token, http.StatusCreated)
	return testutils.ParseResponse[[]srs.Card](t, rec)
}

func TestTelegramAuth(t *testing.T) {
	e := testutils.SetupHandlerDependencies(t)

	resp, err := testutils.AuthHelper(t, e, testutils.TelegramTestUserID, "mkkksim", "Maksim")
	require.NoError(t, err)

	assert.NotEmpty(t, resp.Token)
	assert.Equal(t, int64(testutils.TelegramTestUserID), resp.User.TelegramID)
	require.NotNil(t, resp.User.Username)
	assert.Equal(t, "mkkksim", *resp.User.Username)

	// a second login returns the same user
	again, err := testutils.AuthHelper(t, e, testutils.TelegramTestUserID, "mkkksim", "Maksim")
	require.NoError(t, err)
	assert.Equal(t, resp.User.ID, again.User.ID)

	testutils.PerformRequest(t, e, http.MethodPost, "/auth/telegram", `{"query":"hash=bad&auth_date=1"}`, "", http.StatusUnauthorized)
	testutils.PerformRequest(t, e, http.MethodGet, "/v1/decks", "", "", http.StatusUnauthorized)
}

func TestDeckLifecycle(t *testing.T) {
	e := testutils.SetupHandlerDependencies(t)
	token := login(t, e, testutils.TelegramTestUserID, "owner")

	deck := createDeck(t, e, token, "Cells")
	assert.Equal(t, "Cells", deck.Title)

	testutils.PerformRequest(t, e, http.MethodPost, "/v1/decks", `{"title":""}`, token, http.StatusBadRequest)

	cards := addCards(t, e, token, deck.ID, 3)
	require.Len(t, cards, 3)

	rec := testutils.PerformRequest(t, e, http.MethodGet, "/v1/decks/"+deck.ID, "", token, http.StatusOK)
	got := testutils.ParseResponse[db.Deck](t, rec)
	assert.Len(t, got.CardIDs, 3)

	rec = testutils.PerformRequest(t, e, http.MethodPut, "/v1/decks/"+deck.ID,
		toJSON(t, contract.DeckRequest{Title: "Cell biology"}), token, http.StatusOK)
	assert.Equal(t, "Cell biology", testutils.ParseResponse[db.Deck](t, rec).Title)

	rec = testutils.PerformRequest(t, e, http.MethodGet, "/v1/decks", "", token, http.StatusOK)
	assert.Len(t, testutils.ParseResponse[[]db.Deck](t, rec), 1)

	testutils.PerformRequest(t, e, http.MethodDelete, "/v1/decks/"+deck.ID, "", token, http.StatusOK)
	testutils.PerformRequest(t, e, http.MethodGet, "/v1/decks/"+deck.ID, "", token, http.StatusNotFound)
	testutils.PerformRequest(t, e, http.MethodPut, "/v1/cards/"+cards[0].ID,
		toJSON(t, contract.UpdateCardRequest{Front: "a", Back: "b"}), token, http.StatusNotFound)
}

func TestCardEditing(t *testing.T) {
	e := testutils.SetupHandlerDependencies(t)
	token := login(t, e, testutils.TelegramTestUserID, "owner")

	from := createDeck(t, e, token, "From")
	to := createDeck(t, e, token, "To")
	cards := addCards(t, e, token, from.ID, 2)

	rec := testutils.PerformRequest(t, e, http.MethodPost, "/v1/decks/"+from.ID+"/cards",
		`{"front":"single","back":"card"}`, token, http.StatusCreated)
	assert.Len(t, testutils.ParseResponse[[]srs.Card](t, rec), 1)

	testutils.PerformRequest(t, e, http.MethodPost, "/v1/decks/"+from.ID+"/cards",
		`{"cards":[{"front":"only front"}]}`, token, http.StatusBadRequest)

	rec = testutils.PerformRequest(t, e, http.MethodPut, "/v1/cards/"+cards[0].ID,
		toJSON(t, contract.UpdateCardRequest{Front: "new front", Back: "new back", Difficulty: "hard"}), token, http.StatusOK)
	updated := testutils.ParseResponse[srs.Card](t, rec)
	assert.Equal(t, "new front", updated.Front)
	assert.Equal(t, "hard", updated.Difficulty)

	testutils.PerformRequest(t, e, http.MethodPut, "/v1/cards/"+cards[0].ID,
		toJSON(t, contract.UpdateCardRequest{Front: "x", Back: "y", Difficulty: "impossible"}), token, http.StatusBadRequest)

	rec = testutils.PerformRequest(t, e, http.MethodPost, "/v1/cards/"+cards[1].ID+"/move",
		toJSON(t, contract.MoveCardRequest{DeckID: to.ID}), token, http.StatusOK)
	assert.Equal(t, to.ID, testutils.ParseResponse[srs.Card](t, rec).DeckID)

	rec = testutils.PerformRequest(t, e, http.MethodGet, "/v1/decks/"+to.ID+"/cards", "", token, http.StatusOK)
	assert.Len(t, testutils.ParseResponse[[]srs.Card](t, rec), 1)

	testutils.PerformRequest(t, e, http.MethodDelete, "/v1/cards/"+cards[0].ID, "", token, http.StatusOK)
	testutils.PerformRequest(t, e, http.MethodDelete, "/v1/cards/"+cards[0].ID, "", token, http.StatusNotFound)

	rec = testutils.PerformRequest(t, e, http.MethodGet, "/v1/decks/"+from.ID+"/cards", "", token, http.StatusOK)
	assert.Len(t, testutils.ParseResponse[[]srs.Card](t, rec), 1)
}

func TestOtherUsersDecksAreForbidden(t *testing.T) {
	e := testutils.SetupHandlerDependencies(t)
	alice := login(t, e, 1001, "alice")
	bob := login(t, e, 1002, "bob")

	deck := createDeck(t, e, alice, "Private")
	cards := addCards(t, e, alice, deck.ID, 1)

	testutils.PerformRequest(t, e, http.MethodGet, "/v1/decks/"+deck.ID, "", bob, http.StatusForbidden)
	testutils.PerformRequest(t, e, http.MethodGet, "/v1/decks/"+deck.ID+"/cards", "", bob, http.StatusForbidden)
	testutils.PerformRequest(t, e, http.MethodDelete, "/v1/cards/"+cards[0].ID, "", bob, http.StatusForbidden)
	testutils.PerformRequest(t, e, http.MethodGet, "/v1/cards/due?deck_id="+deck.ID, "", bob, http.StatusForbidden)
	testutils.PerformRequest(t, e, http.MethodPost, "/v1/sessions",
		toJSON(t, contract.StartSessionRequest{DeckID: deck.ID}), bob, http.StatusForbidden)

	bobDeck := createDeck(t, e, bob, "Bob's")
	testutils.PerformRequest(t, e, http.MethodPost, "/v1/cards/"+cards[0].ID+"/move",
		toJSON(t, contract.MoveCardRequest{DeckID: bobDeck.ID}), bob, http.StatusForbidden)
	testutils.PerformRequest(t, e, http.MethodPost, "/v1/cards/"+cards[0].ID+"/move",
		toJSON(t, contract.MoveCardRequest{DeckID: bobDeck.ID}), alice, http.StatusForbidden)

	// a session of alice is invisible to bob
	rec := testutils.PerformRequest(t, e, http.MethodPost, "/v1/sessions",
		toJSON(t, contract.StartSessionRequest{DeckID: deck.ID}), alice, http.StatusCreated)
	snap := testutils.ParseResponse[contract.SessionResponse](t, rec)
	testutils.PerformRequest(t, e, http.MethodGet, "/v1/sessions/"+snap.ID, "", bob, http.StatusNotFound)
	testutils.PerformRequest(t, e, http.MethodPost, "/v1/sessions/"+snap.ID+"/rate", `{"quality":5}`, bob, http.StatusNotFound)
}

func TestStudySession(t *testing.T) {
	e := testutils.SetupHandlerDependencies(t)
	token := login(t, e, testutils.TelegramTestUserID, "student")

	deck := createDeck(t, e, token, "Genetics")
	addCards(t, e, token, deck.ID, 3)

	rec := testutils.PerformRequest(t, e, http.MethodGet, "/v1/cards/due?deck_id="+deck.ID, "", token, http.StatusOK)
	due := testutils.ParseResponse[contract.DueCardsResponse](t, rec)
	assert.Equal(t, 3, due.Count)

	rec = testutils.PerformRequest(t, e, http.MethodPost, "/v1/sessions",
		toJSON(t, contract.StartSessionRequest{DeckID: deck.ID}), token, http.StatusCreated)
	snap := testutils.ParseResponse[contract.SessionResponse](t, rec)
	require.Equal(t, srs.StatusActive, snap.Status)
	require.Equal(t, 3, snap.Total)
	require.NotNil(t, snap.Current)
	first := snap.Current.ID

	testutils.PerformRequest(t, e, http.MethodPost, "/v1/sessions/"+snap.ID+"/rate", `{"quality":7}`, token, http.StatusBadRequest)
	testutils.PerformRequest(t, e, http.MethodPost, "/v1/sessions/"+snap.ID+"/rate", `{}`, token, http.StatusBadRequest)

	rec = testutils.PerformRequest(t, e, http.MethodPost, "/v1/sessions/"+snap.ID+"/rate", `{"quality":5}`, token, http.StatusOK)
	res := testutils.ParseResponse[contract.RateResponse](t, rec)
	assert.Equal(t, first, res.Card.ID)
	assert.Equal(t, 1, res.Card.Repetitions)
	assert.Equal(t, 1, res.Card.IntervalDays)
	assert.InDelta(t, 2.6, res.Card.EasinessFactor, 1e-9)
	assert.Equal(t, 1, res.Session.Position)

	rec = testutils.PerformRequest(t, e, http.MethodPost, "/v1/sessions/"+snap.ID+"/rate", `{"quality":0}`, token, http.StatusOK)
	res = testutils.ParseResponse[contract.RateResponse](t, rec)
	assert.Equal(t, 0, res.Card.Repetitions)
	assert.Equal(t, 1, res.Card.IntervalDays)
	assert.InDelta(t, 1.7, res.Card.EasinessFactor, 1e-9)

	testutils.PerformRequest(t, e, http.MethodPost, "/v1/sessions/"+snap.ID+"/swipe", `{"direction":"up"}`, token, http.StatusBadRequest)

	rec = testutils.PerformRequest(t, e, http.MethodPost, "/v1/sessions/"+snap.ID+"/swipe", `{"direction":"right"}`, token, http.StatusOK)
	res = testutils.ParseResponse[contract.RateResponse](t, rec)
	assert.Equal(t, srs.StatusComplete, res.Session.Status)
	assert.Nil(t, res.Session.Current)
	assert.Equal(t, srs.Summary{Reviewed: 3, Mastered: 2, NeedsWork: 1}, res.Session.Summary)

	testutils.PerformRequest(t, e, http.MethodPost, "/v1/sessions/"+snap.ID+"/rate", `{"quality":4}`, token, http.StatusConflict)
	testutils.PerformRequest(t, e, http.MethodPost, "/v1/sessions/"+snap.ID+"/abandon", "", token, http.StatusConflict)

	rec = testutils.PerformRequest(t, e, http.MethodGet, "/v1/cards/due?deck_id="+deck.ID, "", token, http.StatusOK)
	assert.Equal(t, 0, testutils.ParseResponse[contract.DueCardsResponse](t, rec).Count)

	rec = testutils.PerformRequest(t, e, http.MethodGet, "/v1/cards/"+first+"/reviews", "", token, http.StatusOK)
	reviews := testutils.ParseResponse[[]db.Review](t, rec)
	require.Len(t, reviews, 1)
	assert.Equal(t, 5, reviews[0].Quality)
	assert.Equal(t, snap.ID, reviews[0].SessionID)

	// nothing is due any more, so a new session starts complete
	rec = testutils.PerformRequest(t, e, http.MethodPost, "/v1/sessions",
		toJSON(t, contract.StartSessionRequest{DeckID: deck.ID}), token, http.StatusCreated)
	empty := testutils.ParseResponse[contract.SessionResponse](t, rec)
	assert.Equal(t, srs.StatusComplete, empty.Status)
	assert.Equal(t, 0, empty.Total)

	testutils.PerformRequest(t, e, http.MethodGet, "/v1/sessions/missing", "", token, http.StatusNotFound)
	testutils.PerformRequest(t, e, http.MethodPost, "/v1/sessions",
		toJSON(t, contract.StartSessionRequest{DeckID: "missing"}), token, http.StatusNotFound)
}

func TestOverlappingSessionsKeepEveryRating(t *testing.T) {
	e := testutils.SetupHandlerDependencies(t)
	token := login(t, e, testutils.TelegramTestUserID, "student")

	deck := createDeck(t, e, token, "Histology")
	cards := addCards(t, e, token, deck.ID, 1)

	start := func() contract.SessionResponse {
		rec := testutils.PerformRequest(t, e, http.MethodPost, "/v1/sessions",
			toJSON(t, contract.StartSessionRequest{DeckID: deck.ID}), token, http.StatusCreated)
		return testutils.ParseResponse[contract.SessionResponse](t, rec)
	}
	first, second := start(), start()
	require.Equal(t, 1, first.Total)
	require.Equal(t, 1, second.Total)

	testutils.PerformRequest(t, e, http.MethodPost, "/v1/sessions/"+first.ID+"/rate", `{"quality":5}`, token, http.StatusOK)

	rec := testutils.PerformRequest(t, e, http.MethodPost, "/v1/sessions/"+second.ID+"/rate", `{"quality":5}`, token, http.StatusOK)
	res := testutils.ParseResponse[contract.RateResponse](t, rec)
	assert.Equal(t, 2, res.Card.Repetitions)
	assert.Equal(t, 6, res.Card.IntervalDays)

	rec = testutils.PerformRequest(t, e, http.MethodGet, "/v1/cards/"+cards[0].ID+"/reviews", "", token, http.StatusOK)
	reviews := testutils.ParseResponse[[]db.Review](t, rec)
	require.Len(t, reviews, 2)
	assert.Equal(t, reviews[0].NewInterval, reviews[1].PrevInterval)
}

func TestAbandonAndReset(t *testing.T) {
	e := testutils.SetupHandlerDependencies(t)
	token := login(t, e, testutils.TelegramTestUserID, "student")

	deck := createDeck(t, e, token, "Ecology")
	addCards(t, e, token, deck.ID, 2)

	rec := testutils.PerformRequest(t, e, http.MethodPost, "/v1/sessions",
		toJSON(t, contract.StartSessionRequest{DeckID: deck.ID}), token, http.StatusCreated)
	snap := testutils.ParseResponse[contract.SessionResponse](t, rec)

	testutils.PerformRequest(t, e, http.MethodPost, "/v1/sessions/"+snap.ID+"/rate", `{"quality":4}`, token, http.StatusOK)

	rec = testutils.PerformRequest(t, e, http.MethodPost, "/v1/sessions/"+snap.ID+"/abandon", "", token, http.StatusOK)
	abandoned := testutils.ParseResponse[contract.SessionResponse](t, rec)
	assert.Equal(t, srs.StatusAbandoned, abandoned.Status)
	assert.Equal(t, 1, abandoned.Summary.Reviewed)

	rec = testutils.PerformRequest(t, e, http.MethodGet, "/v1/cards/due?deck_id="+deck.ID, "", token, http.StatusOK)
	assert.Equal(t, 1, testutils.ParseResponse[contract.DueCardsResponse](t, rec).Count)

	rec = testutils.PerformRequest(t, e, http.MethodPost, "/v1/decks/"+deck.ID+"/reset", "", token, http.StatusOK)
	assert.Equal(t, int64(2), testutils.ParseResponse[contract.ResetProgressResponse](t, rec).CardsReset)

	rec = testutils.PerformRequest(t, e, http.MethodGet, "/v1/cards/due", "", token, http.StatusOK)
	assert.Equal(t, 2, testutils.ParseResponse[contract.DueCardsResponse](t, rec).Count)

	rec = testutils.PerformRequest(t, e, http.MethodPost, "/v1/progress/reset", "", token, http.StatusOK)
	assert.Equal(t, int64(2), testutils.ParseResponse[contract.ResetProgressResponse](t, rec).CardsReset)
}

func TestStats(t *testing.T) {
	e := testutils.SetupHandlerDependencies(t)
	token := login(t, e, testutils.TelegramTestUserID, "student")

	deck := createDeck(t, e, token, "Anatomy")
	other := createDeck(t, e, token, "Physiology")
	addCards(t, e, token, deck.ID, 2)
	addCards(t, e, token, other.ID, 1)

	rec := testutils.PerformRequest(t, e, http.MethodPost, "/v1/sessions",
		toJSON(t, contract.StartSessionRequest{DeckID: deck.ID}), token, http.StatusCreated)
	snap := testutils.ParseResponse[contract.SessionResponse](t, rec)
	testutils.PerformRequest(t, e, http.MethodPost, "/v1/sessions/"+snap.ID+"/rate", `{"quality":5}`, token, http.StatusOK)
	testutils.PerformRequest(t, e, http.MethodPost, "/v1/sessions/"+snap.ID+"/rate", `{"quality":1}`, token, http.StatusOK)

	rec = testutils.PerformRequest(t, e, http.MethodGet, "/v1/stats", "", token, http.StatusOK)
	stats := testutils.ParseResponse[contract.StatsResponse](t, rec)

	assert.Equal(t, 2, stats.Overview.TotalDecks)
	assert.Equal(t, 3, stats.Overview.TotalCards)
	assert.Equal(t, 1, stats.Overview.DueCards)
	assert.Equal(t, 2, stats.Study.CardsStudiedToday)
	assert.Equal(t, 1, stats.Study.MasteredToday)
	assert.Equal(t, 1, stats.Study.NeedsWorkToday)
	assert.Equal(t, 1, stats.Study.StreakDays)

	var last *srs.Summary
	for _, d := range stats.Overview.Decks {
		if d.DeckID == deck.ID {
			last = d.LastSession
		}
	}
	require.NotNil(t, last)
	assert.Equal(t, srs.Summary{Reviewed: 2, Mastered: 1, NeedsWork: 1}, *last)

	rec = testutils.PerformRequest(t, e, http.MethodGet, "/v1/stats/history?days=7", "", token, http.StatusOK)
	history := testutils.ParseResponse[[]db.StudyHistoryItem](t, rec)
	require.Len(t, history, 1)
	assert.Equal(t, 2, history[0].CardCount)

	testutils.PerformRequest(t, e, http.MethodGet, "/v1/stats/history?days=abc", "", token, http.StatusBadRequest)

	rec = testutils.PerformRequest(t, e, http.MethodPost, "/v1/sessions",
		toJSON(t, contract.StartSessionRequest{DeckID: other.ID}), token, http.StatusCreated)
	otherSnap := testutils.ParseResponse[contract.SessionResponse](t, rec)
	testutils.PerformRequest(t, e, http.MethodPost, "/v1/sessions/"+otherSnap.ID+"/swipe", `{"direction":"right"}`, token, http.StatusOK)

	rec = testutils.PerformRequest(t, e, http.MethodGet, "/v1/stats", "", token, http.StatusOK)
	assert.Equal(t, 2, testutils.ParseResponse[contract.StatsResponse](t, rec).Overview.Mastered)

	// a deleted deck no longer counts toward mastery
	testutils.PerformRequest(t, e, http.MethodDelete, "/v1/decks/"+other.ID, "", token, http.StatusOK)

	rec = testutils.PerformRequest(t, e, http.MethodGet, "/v1/stats", "", token, http.StatusOK)
	stats = testutils.ParseResponse[contract.StatsResponse](t, rec)
	assert.Equal(t, 1, stats.Overview.TotalDecks)
	assert.Equal(t, 1, stats.Overview.Mastered)
	assert.Equal(t, 1, stats.Overview.NeedsWork)
}

func TestGenerateDeck(t *testing.T) {
	notes := `{"title":"Photosynthesis","subject":"biology","notes":"Plants turn light into chemical energy in chloroplasts."}`

	t.Run("NotConfigured", func(t *testing.T) {
		e := testutils.SetupHandlerDependencies(t)
		token := login(t, e, testutils.TelegramTestUserID, "student")
		testutils.PerformRequest(t, e, http.MethodPost, "/v1/decks/generate", notes, token, http.StatusServiceUnavailable)
	})

	t.Run("Success", func(t *testing.T) {
		gen := stubGenerator{cards: []ai.GeneratedCard{
			{Front: "Where does photosynthesis happen?", Back: "In chloroplasts"},
			{Front: "What is produced?", Back: "Glucose and oxygen", Difficulty: "easy"},
		}}
		e := testutils.SetupHandlerDependencies(t, testutils.WithGenerator(gen))
		token := login(t, e, testutils.TelegramTestUserID, "student")

		rec := testutils.PerformRequest(t, e, http.MethodPost, "/v1/decks/generate", notes, token, http.StatusCreated)
		resp := testutils.ParseResponse[contract.GenerateDeckResponse](t, rec)
		assert.Equal(t, "Photosynthesis", resp.Deck.Title)
		assert.Len(t, resp.Cards, 2)
		assert.Len(t, resp.Deck.CardIDs, 2)

		rec = testutils.PerformRequest(t, e, http.MethodGet, "/v1/cards/due?deck_id="+resp.Deck.ID, "", token, http.StatusOK)
		assert.Equal(t, 2, testutils.ParseResponse[contract.DueCardsResponse](t, rec).Count)

		testutils.PerformRequest(t, e, http.MethodPost, "/v1/decks/generate", `{"title":"x","notes":"short"}`, token, http.StatusBadRequest)
	})

	t.Run("NoCards", func(t *testing.T) {
		e := testutils.SetupHandlerDependencies(t, testutils.WithGenerator(stubGenerator{err: ai.ErrNoCards}))
		token := login(t, e, testutils.TelegramTestUserID, "student")
		testutils.PerformRequest(t, e, http.MethodPost, "/v1/decks/generate", notes, token, http.StatusUnprocessableEntity)

		rec := testutils.PerformRequest(t, e, http.MethodGet, "/v1/decks", "", token, http.StatusOK)
		assert.Empty(t, testutils.ParseResponse[[]db.Deck](t, rec))
	})
}

func TestExportDeck(t *testing.T) {
	store := newMemoryStorage()
	e := testutils.SetupHandlerDependencies(t, testutils.WithStorage(store))
	token := login(t, e, testutils.TelegramTestUserID, "student")

	deck := createDeck(t, e, token, "Botany")
	addCards(t, e, token, deck.ID, 2)

	rec := testutils.PerformRequest(t, e, http.MethodPost, "/v1/decks/"+deck.ID+"/export", "", token, http.StatusOK)
	resp := testutils.ParseResponse[contract.ExportDeckResponse](t, rec)
	assert.Contains(t, resp.URL, "https://cdn.test/exports/")

	store.mu.Lock()
	defer store.mu.Unlock()
	require.Len(t, store.files, 1)
	for _, b := range store.files {
		var export contract.DeckExport
		require.NoError(t, json.NewDecoder(bytes.NewReader(b)).Decode(&export))
		assert.Equal(t, deck.ID, export.Deck.ID)
		assert.Len(t, export.Cards, 2)
	}
}
