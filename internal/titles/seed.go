package titles

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/aravind45/whynointerviews/internal/errors"
	"github.com/aravind45/whynointerviews/internal/models"

	"github.com/fsnotify/fsnotify"
	"github.com/google/uuid"
)

// seedEntry is one canonical title in the JSON seed file.
type seedEntry struct {
	Title          string   `json:"title"`
	Category       string   `json:"category"`
	SeniorityLevel string   `json:"seniorityLevel"`
	Industry       string   `json:"industry,omitempty"`
	IsGeneric      bool     `json:"isGeneric"`
	Variations     []seedVariation `json:"variations,omitempty"`
	Template       *seedTemplate   `json:"template,omitempty"`
}

type seedVariation struct {
	Text       string `json:"text"`
	Confidence int    `json:"confidence"`
}

type seedTemplate struct {
	RequiredSkills   []string `json:"requiredSkills"`
	PreferredSkills  []string `json:"preferredSkills"`
	RequiredKeywords []string `json:"requiredKeywords"`
	ATSKeywords      []string `json:"atsKeywords"`
	ExperienceMin    int      `json:"experienceMin"`
	ExperienceMax    *int     `json:"experienceMax,omitempty"`
}

// SeedStore is a file-backed in-memory Store. The seed file is externally
// maintained reference data; a watcher reloads it on change so a running
// service picks up taxonomy updates without restarting.
type SeedStore struct {
	mu         sync.RWMutex
	titles     []models.CanonicalTitle
	variations []models.TitleVariation
	templates  map[uuid.UUID]*models.RoleTemplate
	byTitle    map[string]*models.CanonicalTitle
	byVariation map[string]*models.TitleVariation
	byID       map[uuid.UUID]*models.CanonicalTitle

	path     string
	watcher  *fsnotify.Watcher
	logger   *errors.Logger
	done     chan struct{}
	onReload func()
}

var _ Store = (*SeedStore)(nil)

// NewSeedStore loads the taxonomy from a JSON seed file.
func NewSeedStore(path string, logger *errors.Logger) (*SeedStore, error) {
	s := &SeedStore{
		path:   path,
		logger: logger,
		done:   make(chan struct{}),
	}
	if err := s.reload(); err != nil {
		return nil, err
	}
	return s, nil
}

// reload parses the seed file and swaps the in-memory tables atomically.
func (s *SeedStore) reload() error {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return fmt.Errorf("failed to read title seed file %s: %w", s.path, err)
	}

	var entries []seedEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return fmt.Errorf("failed to parse title seed file %s: %w", s.path, err)
	}

	var titles []models.CanonicalTitle
	var variations []models.TitleVariation
	templates := make(map[uuid.UUID]*models.RoleTemplate)
	byTitle := make(map[string]*models.CanonicalTitle)
	byVariation := make(map[string]*models.TitleVariation)
	byID := make(map[uuid.UUID]*models.CanonicalTitle)

	for _, e := range entries {
		if strings.TrimSpace(e.Title) == "" {
			continue
		}
		title := models.CanonicalTitle{
			ID:              uuid.New(),
			Title:           e.Title,
			NormalizedTitle: Normalize(e.Title),
			Category:        e.Category,
			SeniorityLevel:  models.SeniorityLevel(e.SeniorityLevel),
			IsGeneric:       e.IsGeneric,
		}
		if e.Industry != "" {
			industry := e.Industry
			title.Industry = &industry
		}
		titles = append(titles, title)

		for _, v := range e.Variations {
			variations = append(variations, models.TitleVariation{
				ID:              uuid.New(),
				CanonicalID:     title.ID,
				VariationText:   v.Text,
				NormalizedText:  Normalize(v.Text),
				ConfidenceScore: v.Confidence,
			})
		}

		if e.Template != nil {
			templates[title.ID] = &models.RoleTemplate{
				ID:               uuid.New(),
				CanonicalID:      title.ID,
				RequiredSkills:   e.Template.RequiredSkills,
				PreferredSkills:  e.Template.PreferredSkills,
				RequiredKeywords: e.Template.RequiredKeywords,
				ATSKeywords:      e.Template.ATSKeywords,
				ExperienceMin:    e.Template.ExperienceMin,
				ExperienceMax:    e.Template.ExperienceMax,
			}
		}
	}

	for i := range titles {
		byTitle[Normalize(titles[i].Title)] = &titles[i]
		byID[titles[i].ID] = &titles[i]
	}
	for i := range variations {
		byVariation[Normalize(variations[i].VariationText)] = &variations[i]
	}

	s.mu.Lock()
	s.titles = titles
	s.variations = variations
	s.templates = templates
	s.byTitle = byTitle
	s.byVariation = byVariation
	s.byID = byID
	s.mu.Unlock()

	if s.logger != nil {
		s.logger.Info("Title taxonomy loaded",
			"seed_file", s.path,
			"titles", len(titles),
			"variations", len(variations),
			"templates", len(templates))
	}
	return nil
}

// SetOnReload registers a callback invoked after every successful reload.
// Must be called before Watch.
func (s *SeedStore) SetOnReload(fn func()) {
	s.onReload = fn
}

// Watch starts a file watcher that reloads the taxonomy on change. Reload
// failures keep the previous tables; a broken edit never empties the store.
func (s *SeedStore) Watch() error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create seed file watcher: %w", err)
	}
	if err := watcher.Add(s.path); err != nil {
		watcher.Close()
		return fmt.Errorf("failed to watch seed file %s: %w", s.path, err)
	}
	s.watcher = watcher

	go func() {
		// Debounce rapid write events from editors that truncate-then-write.
		var timer *time.Timer
		for {
			select {
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
					continue
				}
				if timer != nil {
					timer.Stop()
				}
				timer = time.AfterFunc(250*time.Millisecond, func() {
					if err := s.reload(); err != nil {
						if s.logger != nil {
							s.logger.LogError(err, "Seed file reload failed, keeping previous taxonomy")
						}
						return
					}
					if s.onReload != nil {
						s.onReload()
					}
				})
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				if s.logger != nil {
					s.logger.Warn("Seed file watcher error", "error", err.Error())
				}
			case <-s.done:
				return
			}
		}
	}()

	return nil
}

// Close stops the watcher.
func (s *SeedStore) Close() error {
	close(s.done)
	if s.watcher != nil {
		return s.watcher.Close()
	}
	return nil
}

// FindExact implements Store.
func (s *SeedStore) FindExact(_ context.Context, normalized string) (*models.CanonicalTitle, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if t, ok := s.byTitle[normalized]; ok {
		cp := *t
		return &cp, nil
	}
	return nil, nil
}

// FindVariation implements Store.
func (s *SeedStore) FindVariation(_ context.Context, normalized string) (*models.TitleVariation, *models.CanonicalTitle, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.byVariation[normalized]
	if !ok {
		return nil, nil, nil
	}
	canonical, ok := s.byID[v.CanonicalID]
	if !ok {
		return nil, nil, nil
	}
	vc, cc := *v, *canonical
	return &vc, &cc, nil
}

// AllTitles implements Store.
func (s *SeedStore) AllTitles(_ context.Context) ([]models.CanonicalTitle, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.CanonicalTitle, len(s.titles))
	copy(out, s.titles)
	return out, nil
}

// AllVariations implements Store.
func (s *SeedStore) AllVariations(_ context.Context) ([]models.TitleVariation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.TitleVariation, len(s.variations))
	copy(out, s.variations)
	return out, nil
}

// TitlesByCategory implements Store.
func (s *SeedStore) TitlesByCategory(_ context.Context, category string, limit int) ([]models.CanonicalTitle, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.CanonicalTitle
	for _, t := range s.titles {
		if t.IsGeneric || !strings.EqualFold(t.Category, category) {
			continue
		}
		out = append(out, t)
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}

// TemplateFor implements Store.
func (s *SeedStore) TemplateFor(_ context.Context, canonicalID uuid.UUID) (*models.RoleTemplate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if t, ok := s.templates[canonicalID]; ok {
		cp := *t
		return &cp, nil
	}
	return nil, nil
}

// TitleByID implements Store.
func (s *SeedStore) TitleByID(_ context.Context, id uuid.UUID) (*models.CanonicalTitle, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if t, ok := s.byID[id]; ok {
		cp := *t
		return &cp, nil
	}
	return nil, nil
}
