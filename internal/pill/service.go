package pill

import (
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/zombor/pill-detect/internal/analysis"
	"github.com/zombor/pill-detect/internal/enrichment"
)

// ErrNoImage is returned when an analyze call carries no image payload.
var ErrNoImage = errors.New("no image provided")

// ErrBadImage is returned when the image payload cannot be decoded. Like
// ErrNoImage it is a client error and no upstream call is made.
var ErrBadImage = errors.New("invalid image payload")

// IDGenerator generates unique IDs for history entries
type IDGenerator interface {
	Generate() string
}

// TimeSource provides the current time
type TimeSource interface {
	Now() time.Time
}

// defaultIDGenerator generates IDs using UnixNano timestamp
type defaultIDGenerator struct{}

func (g *defaultIDGenerator) Generate() string {
	return fmt.Sprintf("%d", time.Now().UnixNano())
}

// defaultTimeSource provides the current time
type defaultTimeSource struct{}

func (t *defaultTimeSource) Now() time.Time {
	return time.Now()
}

// Analysis is the outcome of one analyze call. HistorySaved makes the
// fire-and-forget history insert observable: a failed insert never fails the
// analysis, but callers and tests can see whether the row landed.
type Analysis struct {
	Result       *analysis.Detection
	HistoryID    string
	HistorySaved bool
}

// Service handles pill identification, history and catalog operations
type Service struct {
	db          DB
	analyzer    analysis.Analyzer
	enricher    enrichment.Enricher
	storage     Storage
	idGenerator IDGenerator
	timeSource  TimeSource
}

// NewService creates a new Service with default ID generator and time source
func NewService(db DB, analyzer analysis.Analyzer, enricher enrichment.Enricher, storage Storage) *Service {
	return &Service{
		db:          db,
		analyzer:    analyzer,
		enricher:    enricher,
		storage:     storage,
		idGenerator: &defaultIDGenerator{},
		timeSource:  &defaultTimeSource{},
	}
}

// NewServiceWithDeps creates a new Service with custom dependencies for testing
func NewServiceWithDeps(db DB, analyzer analysis.Analyzer, enricher enrichment.Enricher, storage Storage, idGen IDGenerator, timeSrc TimeSource) *Service {
	return &Service{
		db:          db,
		analyzer:    analyzer,
		enricher:    enricher,
		storage:     storage,
		idGenerator: idGen,
		timeSource:  timeSrc,
	}
}

// Analyze runs one image through the identification pipeline: decode, call
// the analyzer, corroborate against reference data, normalize, and append a
// history row.
func (s *Service) Analyze(image string, hint string) (*Analysis, error) {
	if strings.TrimSpace(image) == "" {
		return nil, ErrNoImage
	}

	data, contentType, err := analysis.DecodeDataURL(image)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrBadImage, err)
	}

	result, err := s.analyzer.Identify(data, contentType, hint)
	if err != nil {
		return nil, fmt.Errorf("analyzing image: %w", err)
	}

	// Reference enrichment is best-effort and only meaningful for an actual
	// identification, not the non-pill classification or the parse fallback
	if s.enricher != nil && result.Identified() {
		if match, ok := s.enricher.Lookup(result.Name); ok {
			applyMatch(result, match)
		}
	}

	analysis.Normalize(result)

	id := s.idGenerator.Generate()
	entry := &HistoryEntry{
		ID:          id,
		PillName:    result.Name,
		Confidence:  result.Confidence,
		Color:       result.Color,
		Shape:       result.Shape,
		Imprint:     result.Imprint,
		Description: result.Description,
		Usage:       result.Usage,
		Warnings:    result.Warnings,
		CreatedAt:   s.timeSource.Now(),
	}

	saved := true
	if err := s.db.SaveHistory(entry); err != nil {
		// The caller still gets the result; the row is lost
		slog.Error("Failed to save detection history", "pill", result.Name, "error", err)
		saved = false
	}

	return &Analysis{
		Result:       result,
		HistoryID:    id,
		HistorySaved: saved,
	}, nil
}

// applyMatch overrides model fields with corroborated reference data and
// boosts confidence by the fixed increment.
func applyMatch(d *analysis.Detection, m *enrichment.Match) {
	if m.GenericName != "" {
		d.GenericName = m.GenericName
	}
	if m.BrandName != "" {
		d.BrandName = m.BrandName
	}
	if m.DrugClass != "" {
		d.DrugClass = m.DrugClass
	}
	if m.Usage != "" {
		d.Usage = m.Usage
	}
	if len(m.Warnings) > 0 {
		d.Warnings = m.Warnings
	}
	d.Confidence += enrichment.ConfidenceBoost
}

// ListHistory returns all history entries, newest first
func (s *Service) ListHistory() ([]*HistoryEntry, error) {
	entries, err := s.db.ListHistory()
	if err != nil {
		return nil, fmt.Errorf("listing history: %w", err)
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].CreatedAt.After(entries[j].CreatedAt)
	})
	return entries, nil
}

// DeleteHistory removes a history entry
func (s *Service) DeleteHistory(id string) error {
	if err := s.db.DeleteHistory(id); err != nil {
		return fmt.Errorf("deleting history entry: %w", err)
	}
	return nil
}

// sanitizeFilename cleans up a filename by removing special characters and
// truncating length
func sanitizeFilename(filename string) string {
	ext := filepath.Ext(filename)
	base := strings.TrimSuffix(filename, ext)

	reg := regexp.MustCompile(`[^a-zA-Z0-9\s\-_]`)
	base = reg.ReplaceAllString(base, "")
	reg = regexp.MustCompile(`\s+`)
	base = reg.ReplaceAllString(base, " ")
	base = strings.TrimSpace(base)

	maxLen := 50
	if len(base) > maxLen {
		base = base[:maxLen]
	}
	if base == "" {
		base = "pill"
	}

	return base + ext
}

// CreatePill stores a new user-authored catalog entry, with an optional
// reference image.
func (s *Service) CreatePill(entry *CatalogEntry, imageFilename string, imageData []byte, contentType string) (*CatalogEntry, error) {
	if strings.TrimSpace(entry.Name) == "" {
		return nil, fmt.Errorf("pill name is required")
	}

	now := s.timeSource.Now()
	entry.ID = uuid.NewString()
	entry.CreatedAt = now
	entry.UpdatedAt = now

	if len(imageData) > 0 {
		cleanFilename := sanitizeFilename(imageFilename)
		savedPath, err := s.storage.Save(fmt.Sprintf("%s_%s", entry.ID, cleanFilename), imageData)
		if err != nil {
			return nil, fmt.Errorf("saving catalog image: %w", err)
		}
		entry.ImageFilename = savedPath
		entry.ContentType = contentType
	}

	if err := s.db.SavePill(entry); err != nil {
		// Clean up the stored image if the row insert fails
		if entry.ImageFilename != "" {
			s.storage.Delete(entry.ImageFilename)
		}
		return nil, fmt.Errorf("saving catalog entry: %w", err)
	}

	return entry, nil
}

// ListPills returns all catalog entries, newest first
func (s *Service) ListPills() ([]*CatalogEntry, error) {
	entries, err := s.db.ListPills()
	if err != nil {
		return nil, fmt.Errorf("listing catalog: %w", err)
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].CreatedAt.After(entries[j].CreatedAt)
	})
	return entries, nil
}

// GetPill retrieves a catalog entry by ID
func (s *Service) GetPill(id string) (*CatalogEntry, error) {
	entry, err := s.db.GetPill(id)
	if err != nil {
		return nil, fmt.Errorf("getting catalog entry: %w", err)
	}
	return entry, nil
}

// GetPillImage retrieves the reference image for a catalog entry
func (s *Service) GetPillImage(id string) ([]byte, string, error) {
	entry, err := s.db.GetPill(id)
	if err != nil {
		return nil, "", fmt.Errorf("getting catalog entry: %w", err)
	}
	if entry.ImageFilename == "" {
		return nil, "", fmt.Errorf("catalog entry has no image: %s", id)
	}

	data, err := s.storage.Get(entry.ImageFilename)
	if err != nil {
		return nil, "", fmt.Errorf("getting catalog image: %w", err)
	}
	return data, entry.ContentType, nil
}
