package anki

import (
	"archive/zip"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"studyhub/internal/db"
	"studyhub/internal/srs"
	"studyhub/internal/storage"
	"studyhub/internal/utils"
	"sync"
	"time"
)

const defaultUploadWorkers = 5

var (
	imgRegex   = regexp.MustCompile(`<img[^>]*\ssrc="([^"]+)"[^>]*>`)
	soundRegex = regexp.MustCompile(`\[sound:([^\]]+)\]`)
)

// Store is the part of the card store an import writes to.
type Store interface {
	CreateDeck(userID, title, subject string, now time.Time) (*db.Deck, error)
	AddCardsInBatch(deckID string, inputs []db.CardInput, now time.Time) ([]srs.Card, error)
}

type Processor struct {
	db            Store
	storage       storage.Provider
	tempDirBase   string
	uploadWorkers int
	now           func() time.Time
}

type Option func(*Processor)

// WithUploadWorkers sets how many media files are uploaded in parallel.
func WithUploadWorkers(n int) Option {
	return func(p *Processor) {
		if n > 0 {
			p.uploadWorkers = n
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(p *Processor) { p.now = now }
}

// NewProcessor creates an importer. storageProvider may be nil, in which case
// media references are dropped from the imported text.
func NewProcessor(store Store, storageProvider storage.Provider, opts ...Option) *Processor {
	p := &Processor{
		db:            store,
		storage:       storageProvider,
		tempDirBase:   os.TempDir(),
		uploadWorkers: defaultUploadWorkers,
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// ExtractExport unpacks zipFile into a fresh temp dir and decodes its deck.json.
// The caller removes the returned directory.
func (p *Processor) ExtractExport(zipFile string) (*Export, string, error) {
	tempDir, err := os.MkdirTemp(p.tempDirBase, "anki_export_")
	if err != nil {
		return nil, "", fmt.Errorf("failed to create temp dir: %w", err)
	}

	reader, err := zip.OpenReader(zipFile)
	if err != nil {
		return nil, tempDir, fmt.Errorf("failed to open zip file: %w", err)
	}
	defer reader.Close()

	for _, file := range reader.File {
		path := filepath.Join(tempDir, file.Name)
		if !strings.HasPrefix(path, filepath.Clean(tempDir)+string(os.PathSeparator)) {
			return nil, tempDir, fmt.Errorf("illegal file path in archive: %s", file.Name)
		}

		if file.FileInfo().IsDir() {
			if err := os.MkdirAll(path, os.ModePerm); err != nil {
				return nil, tempDir, fmt.Errorf("failed to create directory: %w", err)
			}
			continue
		}

		if err := extractFile(file, path); err != nil {
			return nil, tempDir, err
		}
	}

	deckPath, err := findInExport(tempDir, "deck.json", false)
	if err != nil {
		return nil, tempDir, err
	}

	deckFile, err := os.Open(deckPath)
	if err != nil {
		return nil, tempDir, fmt.Errorf("failed to open deck.json: %w", err)
	}
	defer deckFile.Close()

	var ankiExport Export
	if err := json.NewDecoder(deckFile).Decode(&ankiExport); err != nil {
		return nil, tempDir, fmt.Errorf("failed to parse deck.json: %w", err)
	}

	return &ankiExport, tempDir, nil
}

func extractFile(file *zip.File, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), os.ModePerm); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	outFile, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer outFile.Close()

	inFile, err := file.Open()
	if err != nil {
		return fmt.Errorf("failed to open compressed file: %w", err)
	}
	defer inFile.Close()

	if _, err := io.Copy(outFile, inFile); err != nil {
		return fmt.Errorf("failed to copy file contents: %w", err)
	}
	return nil
}

// findInExport looks for name at the root of the export and one directory
// below it, where exports made on macOS usually put it.
func findInExport(root, name string, dir bool) (string, error) {
	candidate := filepath.Join(root, name)
	if stat, err := os.Stat(candidate); err == nil && stat.IsDir() == dir {
		return candidate, nil
	}

	entries, err := os.ReadDir(root)
	if err != nil {
		return "", fmt.Errorf("failed to read temp directory: %w", err)
	}

	for _, entry := range entries {
		if !entry.IsDir() || entry.Name() == "__MACOSX" {
			continue
		}
		nested := filepath.Join(root, entry.Name(), name)
		if stat, err := os.Stat(nested); err == nil && stat.IsDir() == dir {
			return nested, nil
		}
	}

	return "", fmt.Errorf("%s not found in export", name)
}

func contentTypeOf(fileName string) string {
	switch strings.ToLower(filepath.Ext(fileName)) {
	case ".mp3":
		return "audio/mpeg"
	case ".ogg":
		return "audio/ogg"
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".png":
		return "image/png"
	case ".gif":
		return "image/gif"
	case ".webp":
		return "image/webp"
	case ".svg":
		return "image/svg+xml"
	default:
		return "application/octet-stream"
	}
}

// GetMediaFiles lists the media files the export declares. Files missing on
// disk are reported separately.
func (p *Processor) GetMediaFiles(ankiExport *Export, tempDir string) ([]MediaFile, []string) {
	var mediaFiles []MediaFile
	var missingFiles []string

	if len(ankiExport.MediaFiles) == 0 {
		return nil, nil
	}

	mediaDir, err := findInExport(tempDir, "media", true)
	if err != nil {
		return nil, []string{fmt.Sprintf("media directory not found in export: %v", err)}
	}

	for _, fileName := range ankiExport.MediaFiles {
		filePath := filepath.Join(mediaDir, fileName)

		if _, err := os.Stat(filePath); os.IsNotExist(err) {
			missingFiles = append(missingFiles, fmt.Sprintf("media file not found: %s", fileName))
			continue
		}

		mediaFiles = append(mediaFiles, MediaFile{
			FileName:    fileName,
			ContentType: contentTypeOf(fileName),
			FilePath:    filePath,
		})
	}

	return mediaFiles, missingFiles
}

// UploadMediaFiles uploads files through a small worker pool and returns the
// public URL of every file that made it. Failures are collected into a single
// error; successful uploads are still returned.
func (p *Processor) UploadMediaFiles(ctx context.Context, mediaFiles []MediaFile) (map[string]string, error) {
	mediaURLs := make(map[string]string)
	if len(mediaFiles) == 0 {
		return mediaURLs, nil
	}
	if p.storage == nil {
		return mediaURLs, errors.New("media storage is not configured")
	}

	workerCount := min(p.uploadWorkers, len(mediaFiles))

	taskCh := make(chan MediaFile, len(mediaFiles))
	resultCh := make(chan uploadResult, len(mediaFiles))

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup
	for i := 0; i < workerCount; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			for media := range taskCh {
				if ctx.Err() != nil {
					return
				}
				resultCh <- p.uploadOne(ctx, media)
			}
		}()
	}

	for _, media := range mediaFiles {
		taskCh <- media
	}
	close(taskCh)

	go func() {
		wg.Wait()
		close(resultCh)
	}()

	var uploadErrors []string
	for result := range resultCh {
		if result.err != "" {
			uploadErrors = append(uploadErrors, result.err)
			continue
		}
		mediaURLs[result.fileName] = result.url
	}

	if len(uploadErrors) > 0 {
		return mediaURLs, fmt.Errorf("errors uploading media files: %s", strings.Join(uploadErrors, "; "))
	}

	return mediaURLs, nil
}

type uploadResult struct {
	fileName string
	url      string
	err      string
}

func (p *Processor) uploadOne(ctx context.Context, media MediaFile) uploadResult {
	result := uploadResult{fileName: media.FileName}

	file, err := os.Open(media.FilePath)
	if err != nil {
		if os.IsNotExist(err) {
			result.err = fmt.Sprintf("media file not found: %s", media.FilePath)
		} else {
			result.err = fmt.Sprintf("failed to open media file %s: %v", media.FileName, err)
		}
		return result
	}
	defer file.Close()

	uniqueFilename := fmt.Sprintf("anki_import/%d_%s", p.now().UnixNano(), media.FileName)

	url, err := p.storage.UploadFile(ctx, file, uniqueFilename, media.ContentType)
	if err != nil {
		result.err = fmt.Sprintf("failed to upload media file %s: %v", media.FileName, err)
		return result
	}

	result.url = url
	return result
}

// ConvertToCards maps notes onto cards: the first field of the note type is
// the front, the second the back, and a field named Hint or Extra, if any,
// the hint. Notes with an empty front or back are skipped.
func (p *Processor) ConvertToCards(ankiExport *Export, mediaURLs map[string]string) ([]db.CardInput, int, error) {
	models := make(map[string]map[string]int)
	var fallback map[string]int
	for _, m := range ankiExport.NoteModels {
		mapping := make(map[string]int, len(m.Fields))
		for _, f := range m.Fields {
			mapping[f.Name] = f.Ord
		}
		models[m.UUID] = mapping
		if fallback == nil {
			fallback = mapping
		}
	}

	notes := collectNotes(ankiExport)
	if len(notes) == 0 {
		return nil, 0, errors.New("no notes found in export")
	}

	var inputs []db.CardInput
	skipped := 0
	for _, note := range notes {
		mapping, ok := models[note.ModelUUID]
		if !ok {
			mapping = fallback
		}

		in := db.CardInput{
			Front: renderField(note.Fields, 0, mediaURLs),
			Back:  renderField(note.Fields, 1, mediaURLs),
		}
		for _, name := range []string{"Hint", "Extra"} {
			if idx, ok := mapping[name]; ok && idx > 1 {
				in.Hint = renderField(note.Fields, idx, mediaURLs)
				break
			}
		}

		if in.Front == "" || in.Back == "" {
			skipped++
			continue
		}
		inputs = append(inputs, in)
	}

	return inputs, skipped, nil
}

func collectNotes(e *Export) []Note {
	notes := append([]Note(nil), e.Notes...)
	for i := range e.Children {
		notes = append(notes, collectNotes(&e.Children[i])...)
	}
	return notes
}

// renderField returns the plain text of a field, with media references
// replaced by their uploaded URLs.
func renderField(fields []string, idx int, mediaURLs map[string]string) string {
	if idx >= len(fields) {
		return ""
	}

	link := func(re *regexp.Regexp) func(string) string {
		return func(match string) string {
			sub := re.FindStringSubmatch(match)
			if url, ok := mediaURLs[sub[1]]; ok {
				return " " + url + " "
			}
			return ""
		}
	}

	value := imgRegex.ReplaceAllStringFunc(fields[idx], link(imgRegex))
	value = soundRegex.ReplaceAllStringFunc(value, link(soundRegex))

	return utils.StripHTML(value)
}

// ImportDeck creates a new deck for userID from the export at zipFilePath.
// Media problems are reported in the result without failing the import.
func (p *Processor) ImportDeck(ctx context.Context, userID, deckName, zipFilePath string) (*ImportResult, error) {
	result := &ImportResult{
		Errors: []string{},
	}

	ankiExport, tempDir, err := p.ExtractExport(zipFilePath)
	if tempDir != "" {
		defer os.RemoveAll(tempDir)
	}
	if err != nil {
		return result, fmt.Errorf("error extracting Anki export: %w", err)
	}

	result.DeckName = ankiExport.Name
	if deckName != "" {
		result.DeckName = deckName
	}
	if result.DeckName == "" {
		result.DeckName = "Anki import"
	}

	mediaFiles, mediaErrors := p.GetMediaFiles(ankiExport, tempDir)
	result.Errors = append(result.Errors, mediaErrors...)

	mediaURLs := make(map[string]string)
	if len(mediaFiles) > 0 {
		mediaURLs, err = p.UploadMediaFiles(ctx, mediaFiles)
		if err != nil {
			result.Errors = append(result.Errors, err.Error())
		}
	}
	result.MediaUploaded = len(mediaURLs)

	inputs, skipped, err := p.ConvertToCards(ankiExport, mediaURLs)
	if err != nil {
		return result, err
	}
	result.Skipped = skipped

	now := p.now().UTC()
	deck, err := p.db.CreateDeck(userID, result.DeckName, "anki", now)
	if err != nil {
		return result, fmt.Errorf("failed to create deck: %w", err)
	}
	result.DeckID = deck.ID

	if len(inputs) > 0 {
		cards, err := p.db.AddCardsInBatch(deck.ID, inputs, now)
		if err != nil {
			return result, fmt.Errorf("failed to add cards: %w", err)
		}
		result.CardsAdded = len(cards)
	}

	return result, nil
}
