package handler

import (
	"errors"
	"fmt"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	telegram "github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/labstack/echo/v4"
	nanoid "github.com/matoous/go-nanoid/v2"
	"math/rand"
	"net/http"
	"sort"
	"strings"
	"studyhub/internal/db"
	"studyhub/internal/srs"
	"studyhub/internal/utils"
)

const maxDecksInReply = 10

func (h *Handler) HandleWebhook(c echo.Context) error {
	var update tgbotapi.Update
	if err := c.Bind(&update); err != nil {
		h.logger.Warn("failed to bind update", "error", err)
		return c.NoContent(http.StatusBadRequest)
	}

	if update.Message == nil {
		return c.NoContent(http.StatusOK)
	}

	resp := h.handleUpdate(update)
	if resp.Text == "" {
		return c.NoContent(http.StatusOK)
	}

	if h.bot == nil {
		h.logger.Warn("telegram bot is not configured, dropping reply", "chat_id", resp.ChatID)
		return c.NoContent(http.StatusOK)
	}

	if _, err := h.bot.SendMessage(c.Request().Context(), resp); err != nil {
		h.logger.Error("failed to send message", "chat_id", resp.ChatID, "error", err)
	}

	return c.NoContent(http.StatusOK)
}

func (h *Handler) handleUpdate(update tgbotapi.Update) *telegram.SendMessageParams {
	from := update.Message.From
	if from == nil {
		return &telegram.SendMessageParams{}
	}

	chatID := from.ID
	if update.Message.Chat != nil {
		chatID = update.Message.Chat.ID
	}
	msg := &telegram.SendMessageParams{ChatID: chatID}

	user, err := h.botUser(from)
	if err != nil {
		h.logger.Error("failed to load bot user", "telegram_id", from.ID, "error", err)
		msg.Text = "Something went wrong. Please try again later."
		return msg
	}

	if !update.Message.IsCommand() {
		msg.Text = "Open the app to study your decks, or send /due to see what is waiting for review."
		return msg
	}

	switch update.Message.Command() {
	case "start":
		msg.Text = "Hi\\! Build flashcard decks and review them with spaced repetition\\. Send /due to see what is waiting for you\\."
		msg.ParseMode = models.ParseModeMarkdown
		if h.webAppURL != "" {
			msg.ReplyMarkup = models.InlineKeyboardMarkup{
				InlineKeyboard: [][]models.InlineKeyboardButton{
					{{Text: "Start studying", WebApp: &models.WebAppInfo{URL: h.webAppURL}}},
				},
			}
		}
	case "help":
		msg.Text = "/due \\- cards waiting for review per deck\n/help \\- this message"
		msg.ParseMode = models.ParseModeMarkdown
	case "due":
		text, err := h.dueSummary(user.ID)
		if err != nil {
			h.logger.Error("failed to build due summary", "user_id", user.ID, "error", err)
			msg.Text = "Could not load your decks. Please try again later."
			return msg
		}
		msg.Text = text
		msg.ParseMode = models.ParseModeMarkdown
	default:
		msg.Text = "Unknown command. Send /help for the list of commands."
	}

	return msg
}

// botUser returns the user behind a chat, registering them on first contact.
func (h *Handler) botUser(from *tgbotapi.User) (*db.User, error) {
	user, err := h.db.GetUser(from.ID)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, db.ErrNotFound) {
		return nil, err
	}

	username := from.UserName
	if username == "" {
		username = fmt.Sprintf("user_%d", from.ID)
	}

	var name *string
	if from.FirstName != "" {
		full := strings.TrimSpace(from.FirstName + " " + from.LastName)
		name = &full
	}

	languageCode := "en"
	if from.LanguageCode != "" {
		languageCode = from.LanguageCode
	}

	imgUrl := fmt.Sprintf("%s/avatars/%d.svg", "https://assets.peatch.io", rand.Intn(30)+1)
	newUser := &db.User{
		ID:           nanoid.Must(),
		TelegramID:   from.ID,
		Username:     &username,
		Name:         name,
		AvatarURL:    &imgUrl,
		LanguageCode: languageCode,
	}

	if err := h.db.SaveUser(newUser); err != nil {
		return nil, fmt.Errorf("error saving bot user: %w", err)
	}

	return h.db.GetUser(from.ID)
}

func (h *Handler) dueSummary(userID string) (string, error) {
	decks, err := h.db.GetDecks(userID)
	if err != nil {
		return "", err
	}
	if len(decks) == 0 {
		return "You have no decks yet\\. Create one in the app\\.", nil
	}

	cards, err := h.db.ListCards(userID, "")
	if err != nil {
		return "", err
	}

	due := srs.CountDue(cards, h.now().UTC())

	sort.SliceStable(decks, func(i, j int) bool {
		return due[decks[i].ID] > due[decks[j].ID]
	})

	total := 0
	var b strings.Builder
	for i, d := range decks {
		total += due[d.ID]
		if i >= maxDecksInReply {
			continue
		}
		fmt.Fprintf(&b, "• %s: *%d*\n", telegram.EscapeMarkdown(utils.Truncate(d.Title, 40)), due[d.ID])
	}

	if total == 0 {
		return "Nothing is due right now\\. Come back later\\!", nil
	}

	return fmt.Sprintf("*%d* cards due for review\n\n%s", total, b.String()), nil
}
