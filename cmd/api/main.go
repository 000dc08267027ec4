package main

import (
	"context"
	"errors"
	"fmt"
	"github.com/go-playground/validator/v10"
	telegram "github.com/go-telegram/bot"
	"github.com/labstack/echo/v4"
	"gopkg.in/yaml.v3"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"studyhub/internal/ai"
	"studyhub/internal/db"
	"studyhub/internal/handler"
	"studyhub/internal/job"
	"studyhub/internal/middleware"
	"studyhub/internal/storage"
	"studyhub/internal/study"
	"syscall"
	"time"
)

type Config struct {
	Host               string           `yaml:"host"`
	Port               int              `yaml:"port" validate:"omitempty,min=1,max=65535"`
	DBPath             string           `yaml:"db_path" validate:"required"`
	TelegramBotToken   string           `yaml:"telegram_bot_token" validate:"required"`
	AIProvider         string           `yaml:"ai_provider" validate:"omitempty,oneof=openai gemini"`
	OpenAIAPIKey       string           `yaml:"openai_api_key"`
	GeminiAPIKey       string           `yaml:"gemini_api_key"`
	ExternalURL        string           `yaml:"external_url" validate:"omitempty,url"`
	JWTSecretKey       string           `yaml:"jwt_secret_key" validate:"required"`
	S3Storage          storage.S3Config `yaml:"s3_storage"`
	TelegramWebApp     string           `yaml:"telegram_webapp_url"`
	SessionIdleTimeout time.Duration    `yaml:"session_idle_timeout"`
}

func ReadConfig(filePath string) (*Config, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer file.Close()

	cfg := Config{
		Port:               8080,
		SessionIdleTimeout: job.DefaultIdleTimeout,
	}
	decoder := yaml.NewDecoder(file)
	if err := decoder.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config file: %w", err)
	}

	return &cfg, nil
}

func ValidateConfig(cfg *Config) error {
	validate := validator.New()
	return validate.Struct(cfg)
}

type CustomValidator struct {
	validator *validator.Validate
}

func (cv *CustomValidator) Validate(i interface{}) error {
	if err := cv.validator.Struct(i); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return nil
}

func main() {
	logr := slog.New(slog.NewTextHandler(os.Stdout, nil))
	slog.SetDefault(logr)

	configFilePath := "config.yml"
	configFilePathEnv := os.Getenv("CONFIG_FILE_PATH")
	if configFilePathEnv != "" {
		configFilePath = configFilePathEnv
	}

	cfg, err := ReadConfig(configFilePath)
	if err != nil {
		logr.Error("error reading configuration", "error", err)
		os.Exit(1)
	}

	if err := ValidateConfig(cfg); err != nil {
		logr.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	dbStorage, err := db.ConnectDB(cfg.DBPath)
	if err != nil {
		logr.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer dbStorage.Close()

	bot, err := telegram.New(cfg.TelegramBotToken)
	if err != nil {
		logr.Error("failed to create telegram bot", "error", err)
		os.Exit(1)
	}

	var storageProvider storage.Provider
	s3Provider, err := storage.NewS3Provider(cfg.S3Storage)
	if err != nil {
		logr.Warn("S3 storage disabled, media and exports are unavailable", "error", err)
	} else {
		storageProvider = s3Provider
	}

	generator, err := ai.New(cfg.AIProvider, cfg.OpenAIAPIKey, cfg.GeminiAPIKey)
	if err != nil {
		logr.Warn("card generation disabled", "provider", cfg.AIProvider, "error", err)
		generator = nil
	}

	controller := study.NewController(dbStorage, study.WithLogger(logr))

	h := handler.New(bot, dbStorage, controller, cfg.JWTSecretKey, cfg.TelegramBotToken, cfg.TelegramWebApp, storageProvider, generator, logr)

	logr.Info("authorized on telegram", "bot_id", bot.ID())

	e := echo.New()

	middleware.Setup(e, logr)

	e.Validator = &CustomValidator{validator: validator.New()}

	if cfg.ExternalURL != "" {
		webhookURL := fmt.Sprintf("%s/webhook", cfg.ExternalURL)
		ok, err := bot.SetWebhook(context.Background(), &telegram.SetWebhookParams{
			DropPendingUpdates: true,
			URL:                webhookURL,
		})
		if err != nil || !ok {
			logr.Error("failed to set webhook", "url", webhookURL, "error", err)
			os.Exit(1)
		}
	}

	reaper := job.NewSessionReaper(controller, cfg.SessionIdleTimeout, logr)
	go reaper.Start()
	logr.Info("session reaper started", "idle_timeout", cfg.SessionIdleTimeout)

	h.RegisterRoutes(e)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
		logr.Info("starting server", "addr", addr)
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Error("server failed", "error", err)
			os.Exit(1)
		}
	}()

	<-quit
	logr.Info("shutting down server")

	// abandons whatever is still open so each session gets a recorded outcome
	reaper.Stop()
	controller.ReapIdle(time.Now(), 0)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(ctx); err != nil {
		logr.Error("shutdown failed", "error", err)
	}

	logr.Info("server gracefully stopped")
}
