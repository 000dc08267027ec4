package testutils

import (
	"encoding/json"
	"fmt"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	initdata "github.com/telegram-mini-apps/init-data-golang"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"studyhub/internal/ai"
	"studyhub/internal/contract"
	"studyhub/internal/db"
	"studyhub/internal/handler"
	"studyhub/internal/middleware"
	"studyhub/internal/storage"
	"studyhub/internal/study"
	"testing"
	"time"
)

// CustomValidator implements the echo.Validator interface
type CustomValidator struct {
	validator *validator.Validate
}

// Validate validates the provided struct
func (cv *CustomValidator) Validate(i interface{}) error {
	if err := cv.validator.Struct(i); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return nil
}

const (
	TestBotToken       = "test-bot-token"
	TestJWTSecret      = "hello-world"
	TelegramTestUserID = 927635965
	TestDBPath         = ":memory:"
)

type deps struct {
	storage   storage.Provider
	generator ai.CardGenerator
}

type Option func(*deps)

func WithStorage(p storage.Provider) Option {
	return func(d *deps) { d.storage = p }
}

func WithGenerator(g ai.CardGenerator) Option {
	return func(d *deps) { d.generator = g }
}

// SetupHandlerDependencies builds an echo instance over a fresh in-memory
// database. The database is closed when the test ends.
func SetupHandlerDependencies(t *testing.T, opts ...Option) *echo.Echo {
	t.Helper()

	d := &deps{}
	for _, opt := range opts {
		opt(d)
	}

	dbStorage, err := db.ConnectDB(TestDBPath)
	if err != nil {
		t.Fatalf("Failed to initialize test database: %v", err)
	}
	t.Cleanup(func() {
		if err := dbStorage.Close(); err != nil {
			t.Logf("Warning: Failed to close test database: %v", err)
		}
	})

	logr := slog.New(slog.NewTextHandler(io.Discard, nil))

	controller := study.NewController(dbStorage, study.WithLogger(logr))

	h := handler.New(nil, dbStorage, controller, TestJWTSecret, TestBotToken, "", d.storage, d.generator, logr)

	e := echo.New()

	middleware.Setup(e, logr)

	e.Validator = &CustomValidator{validator: validator.New()}

	h.RegisterRoutes(e)

	return e
}

func PerformRequest(t *testing.T, e *echo.Echo, method, path, body, token string, expectedStatus int) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != expectedStatus {
		t.Errorf("Expected status %d, got %d, body: %s", expectedStatus, rec.Code, rec.Body.String())
	}
	return rec
}

func ParseResponse[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()

	var result T
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}
	return result
}

// AuthHelper signs Telegram init data for the given user and exchanges it
// for a token.
func AuthHelper(t *testing.T, e *echo.Echo, telegramID int64, username, firstName string) (contract.AuthTelegramResponse, error) {
	t.Helper()

	userJSON := fmt.Sprintf(
		`{"id":%d,"first_name":"%s","last_name":"","username":"%s","language_code":"en","is_premium":true,"allows_write_to_pm":true}`,
		telegramID, firstName, username,
	)

	now := time.Now()
	initData := map[string]string{
		"query_id":  "AAH9mUo3AAAAAP2ZSjdVL00J",
		"user":      userJSON,
		"auth_date": fmt.Sprintf("%d", now.Unix()),
	}

	initData["hash"] = initdata.Sign(initData, TestBotToken, now)

	query := url.Values{}
	for k, v := range initData {
		query.Set(k, v)
	}

	body, err := json.Marshal(contract.AuthTelegramRequest{Query: query.Encode()})
	if err != nil {
		return contract.AuthTelegramResponse{}, err
	}

	rec := PerformRequest(t, e, http.MethodPost, "/auth/telegram", string(body), "", http.StatusOK)

	return ParseResponse[contract.AuthTelegramResponse](t, rec), nil
}
