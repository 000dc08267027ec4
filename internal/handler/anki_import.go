package handler

import (
	"github.com/labstack/echo/v4"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"studyhub/internal/anki"
)

// AnkiImportRequest carries the optional deck name of a multipart import.
type AnkiImportRequest struct {
	DeckName string `form:"deck_name"`
}

func (h *Handler) AddAnkiImportRoutes(g *echo.Group) {
	g.POST("/decks/import/anki", h.HandleAnkiImport)
}

// HandleAnkiImport creates a deck from an uploaded CrowdAnki export.
func (h *Handler) HandleAnkiImport(c echo.Context) error {
	userID, err := GetUserIDFromToken(c)
	if err != nil {
		return err
	}

	var request AnkiImportRequest
	if err := c.Bind(&request); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}

	file, err := c.FormFile("file")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "No file provided")
	}

	ext := strings.ToLower(filepath.Ext(file.Filename))
	if ext != ".zip" && ext != ".apkg" {
		return echo.NewHTTPError(http.StatusBadRequest, "File must be a .zip or .apkg file")
	}

	tempFile, err := os.CreateTemp("", "anki-import-*.zip")
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Error saving upload").WithInternal(err)
	}
	defer os.Remove(tempFile.Name())

	src, err := file.Open()
	if err != nil {
		tempFile.Close()
		return echo.NewHTTPError(http.StatusInternalServerError, "Error opening upload").WithInternal(err)
	}
	defer src.Close()

	if _, err = io.Copy(tempFile, src); err != nil {
		tempFile.Close()
		return echo.NewHTTPError(http.StatusInternalServerError, "Error copying upload").WithInternal(err)
	}
	tempFile.Close()

	processor := anki.NewProcessor(h.db, h.storageProvider, anki.WithClock(h.now))

	result, err := processor.ImportDeck(c.Request().Context(), userID, request.DeckName, tempFile.Name())
	if err != nil {
		h.logger.Warn("anki import failed", "user_id", userID, "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "Failed to import deck").WithInternal(err)
	}

	h.logger.Info("anki deck imported",
		"user_id", userID,
		"deck_id", result.DeckID,
		"cards", result.CardsAdded,
		"media", result.MediaUploaded,
	)

	return c.JSON(http.StatusCreated, result)
}
