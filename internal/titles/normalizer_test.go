package titles

import (
	"context"
	"errors"
	"testing"

	"github.com/aravind45/whynointerviews/internal/models"

	"github.com/google/uuid"
)

type fakeStore struct {
	titles     []models.CanonicalTitle
	variations []models.TitleVariation
	failAll    bool
}

func (f *fakeStore) FindExact(_ context.Context, normalized string) (*models.CanonicalTitle, error) {
	if f.failAll {
		return nil, errors.New("store down")
	}
	for i := range f.titles {
		if Normalize(f.titles[i].Title) == normalized {
			return &f.titles[i], nil
		}
	}
	return nil, nil
}

func (f *fakeStore) FindVariation(_ context.Context, normalized string) (*models.TitleVariation, *models.CanonicalTitle, error) {
	if f.failAll {
		return nil, nil, errors.New("store down")
	}
	for i := range f.variations {
		if Normalize(f.variations[i].VariationText) == normalized {
			for j := range f.titles {
				if f.titles[j].ID == f.variations[i].CanonicalID {
					return &f.variations[i], &f.titles[j], nil
				}
			}
		}
	}
	return nil, nil, nil
}

func (f *fakeStore) AllTitles(_ context.Context) ([]models.CanonicalTitle, error) {
	if f.failAll {
		return nil, errors.New("store down")
	}
	return f.titles, nil
}

func (f *fakeStore) AllVariations(_ context.Context) ([]models.TitleVariation, error) {
	if f.failAll {
		return nil, errors.New("store down")
	}
	return f.variations, nil
}

func (f *fakeStore) TitlesByCategory(_ context.Context, category string, limit int) ([]models.CanonicalTitle, error) {
	if f.failAll {
		return nil, errors.New("store down")
	}
	var out []models.CanonicalTitle
	for _, t := range f.titles {
		if t.IsGeneric || t.Category != category {
			continue
		}
		out = append(out, t)
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}

func (f *fakeStore) TemplateFor(_ context.Context, _ uuid.UUID) (*models.RoleTemplate, error) {
	return nil, nil
}

func (f *fakeStore) TitleByID(_ context.Context, id uuid.UUID) (*models.CanonicalTitle, error) {
	if f.failAll {
		return nil, errors.New("store down")
	}
	for i := range f.titles {
		if f.titles[i].ID == id {
			return &f.titles[i], nil
		}
	}
	return nil, nil
}

func newTestStore() *fakeStore {
	swe := models.CanonicalTitle{ID: uuid.New(), Title: "Software Engineer", Category: "engineering", SeniorityLevel: models.SeniorityMid}
	sswe := models.CanonicalTitle{ID: uuid.New(), Title: "Senior Software Engineer", Category: "engineering", SeniorityLevel: models.SenioritySenior}
	pm := models.CanonicalTitle{ID: uuid.New(), Title: "Product Manager", Category: "product", SeniorityLevel: models.SeniorityMid}
	ds := models.CanonicalTitle{ID: uuid.New(), Title: "Data Scientist", Category: "data", SeniorityLevel: models.SeniorityMid}
	eng := models.CanonicalTitle{ID: uuid.New(), Title: "Engineer", Category: "engineering", SeniorityLevel: models.SeniorityMid, IsGeneric: true}

	return &fakeStore{
		titles: []models.CanonicalTitle{swe, sswe, pm, ds, eng},
		variations: []models.TitleVariation{
			{ID: uuid.New(), CanonicalID: swe.ID, VariationText: "SWE", ConfidenceScore: 92},
			{ID: uuid.New(), CanonicalID: sswe.ID, VariationText: "Sr. SWE", ConfidenceScore: 88},
			{ID: uuid.New(), CanonicalID: pm.ID, VariationText: "PM", ConfidenceScore: 75},
		},
	}
}

func newTestNormalizer(store Store) *Normalizer {
	return NewNormalizer(store, NormalizerConfig{
		SimilarityFloor:     0.3,
		AcceptanceThreshold: 60,
		SuggestionLimit:     5,
	}, nil)
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"lowercases and trims", "  Software Engineer  ", "software engineer"},
		{"strips punctuation", "Sr. Software Engineer!", "sr software engineer"},
		{"collapses whitespace", "software\t  engineer", "software engineer"},
		{"separators become spaces", "UI/UX Designer", "ui ux designer"},
		{"keeps plus and hash", "C++ Developer", "c++ developer"},
		{"empty input", "   ", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Normalize(tt.input); got != tt.want {
				t.Errorf("Normalize(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestResolveExactMatch(t *testing.T) {
	n := newTestNormalizer(newTestStore())

	res := n.Resolve(context.Background(), "Software Engineer")
	if !res.Matched() {
		t.Fatal("expected exact input to resolve")
	}
	if res.Method != MatchExact {
		t.Errorf("method = %q, want %q", res.Method, MatchExact)
	}
	if res.Confidence != 100 {
		t.Errorf("confidence = %d, want 100", res.Confidence)
	}
	if res.Canonical.Title != "Software Engineer" {
		t.Errorf("canonical = %q, want Software Engineer", res.Canonical.Title)
	}
}

func TestResolveVariationUsesStoredConfidence(t *testing.T) {
	n := newTestNormalizer(newTestStore())

	res := n.Resolve(context.Background(), "SWE")
	if !res.Matched() {
		t.Fatal("expected variation to resolve")
	}
	if res.Method != MatchVariation {
		t.Errorf("method = %q, want %q", res.Method, MatchVariation)
	}
	if res.Confidence != 92 {
		t.Errorf("confidence = %d, want stored 92", res.Confidence)
	}
	if res.Canonical.Title != "Software Engineer" {
		t.Errorf("canonical = %q, want Software Engineer", res.Canonical.Title)
	}
}

func TestResolveFuzzyAcceptsCloseMisspelling(t *testing.T) {
	n := newTestNormalizer(newTestStore())

	res := n.Resolve(context.Background(), "Softwre Engineer")
	if !res.Matched() {
		t.Fatal("expected close misspelling to resolve via fuzzy stage")
	}
	if res.Method != MatchFuzzy {
		t.Errorf("method = %q, want %q", res.Method, MatchFuzzy)
	}
	if res.Canonical.Title != "Software Engineer" {
		t.Errorf("canonical = %q, want Software Engineer", res.Canonical.Title)
	}
	if res.Confidence < 60 || res.Confidence >= 100 {
		t.Errorf("fuzzy confidence = %d, want in [60, 100)", res.Confidence)
	}
}

func TestResolveFuzzyScoresVariationSpellings(t *testing.T) {
	sre := models.CanonicalTitle{ID: uuid.New(), Title: "Site Reliability Engineer", Category: "engineering", SeniorityLevel: models.SeniorityMid}
	store := &fakeStore{
		titles: []models.CanonicalTitle{sre},
		variations: []models.TitleVariation{
			{ID: uuid.New(), CanonicalID: sre.ID, VariationText: "DevOps Engineer", ConfidenceScore: 90},
		},
	}
	n := newTestNormalizer(store)

	// Misspelled variation: too far from the canonical title itself, but
	// close enough to the curated spelling to clear the threshold. The hit
	// must land on the variation's canonical.
	res := n.Resolve(context.Background(), "devoops engineer")
	if !res.Matched() {
		t.Fatalf("expected misspelled variation to resolve via fuzzy stage, got method %q", res.Method)
	}
	if res.Method != MatchFuzzy {
		t.Errorf("method = %q, want %q", res.Method, MatchFuzzy)
	}
	if res.Canonical.ID != sre.ID {
		t.Errorf("canonical = %q, want Site Reliability Engineer", res.Canonical.Title)
	}
}

func TestResolveFuzzyConsidersGenericTitles(t *testing.T) {
	n := newTestNormalizer(newTestStore())

	res := n.Resolve(context.Background(), "Engineeer")
	if !res.Matched() {
		t.Fatal("expected near-exact generic title to resolve via fuzzy stage")
	}
	if res.Method != MatchFuzzy {
		t.Errorf("method = %q, want %q", res.Method, MatchFuzzy)
	}
	if res.Canonical.Title != "Engineer" {
		t.Errorf("canonical = %q, want Engineer", res.Canonical.Title)
	}
	if !res.IsGeneric {
		t.Error("expected resolution to carry the matched title's generic flag")
	}
}

func TestResolveNoMatchBelowFloor(t *testing.T) {
	n := newTestNormalizer(newTestStore())

	res := n.Resolve(context.Background(), "Underwater Basket Weaver")
	if res.Matched() {
		t.Fatalf("expected no match, got %q", res.Canonical.Title)
	}
	if res.Method != MatchNone {
		t.Errorf("method = %q, want %q", res.Method, MatchNone)
	}
}

func TestResolveSuggestionsOrderedAndCapped(t *testing.T) {
	n := newTestNormalizer(newTestStore())

	// Close to both engineer titles but to neither strongly enough.
	res := n.Resolve(context.Background(), "softwar enginer lead")
	if res.Matched() {
		// Acceptable for the scorer to clear the threshold here; the
		// suggestion ordering contract only applies when it does not.
		return
	}
	if len(res.Suggestions) > 5 {
		t.Errorf("suggestions = %d, want at most 5", len(res.Suggestions))
	}
	for i := 1; i < len(res.Suggestions); i++ {
		if res.Suggestions[i].Confidence > res.Suggestions[i-1].Confidence {
			t.Errorf("suggestions out of order at %d: %d > %d", i, res.Suggestions[i].Confidence, res.Suggestions[i-1].Confidence)
		}
	}
	seen := make(map[uuid.UUID]bool)
	for _, s := range res.Suggestions {
		if seen[s.CanonicalID] {
			t.Errorf("duplicate canonical %s in suggestions", s.Title)
		}
		seen[s.CanonicalID] = true
	}
}

func TestResolveGenericInputFlagged(t *testing.T) {
	n := newTestNormalizer(newTestStore())

	tests := []struct {
		input   string
		generic bool
	}{
		{"Engineer", true},
		{"Senior Manager", true},
		{"Software Engineer", false},
		{"Data Scientist", false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			res := n.Resolve(context.Background(), tt.input)
			if res.IsGeneric != tt.generic {
				t.Errorf("IsGeneric = %v, want %v", res.IsGeneric, tt.generic)
			}
		})
	}
}

func TestResolveDeterministic(t *testing.T) {
	store := newTestStore()

	first := newTestNormalizer(store).Resolve(context.Background(), "Sr. SWE")
	for i := 0; i < 5; i++ {
		// Fresh normalizer each round so the cache cannot mask drift.
		res := newTestNormalizer(store).Resolve(context.Background(), "Sr. SWE")
		if res.Method != first.Method || res.Confidence != first.Confidence {
			t.Fatalf("run %d diverged: method=%q confidence=%d, want method=%q confidence=%d",
				i, res.Method, res.Confidence, first.Method, first.Confidence)
		}
		if res.Matched() != first.Matched() || (res.Matched() && res.Canonical.ID != first.Canonical.ID) {
			t.Fatalf("run %d resolved a different canonical", i)
		}
	}
}

func TestResolveCategoryFallbackSuggestions(t *testing.T) {
	n := newTestNormalizer(newTestStore())

	res := n.Resolve(context.Background(), "data wrangling wizard")
	if res.Matched() {
		t.Fatalf("expected no match, got %q", res.Canonical.Title)
	}
	if len(res.Suggestions) == 0 {
		t.Fatal("expected category fallback suggestions for a data-flavored input")
	}
	for _, s := range res.Suggestions {
		if s.Category != "data" {
			t.Errorf("suggestion %q category = %q, want data", s.Title, s.Category)
		}
	}
}

func TestResolveStoreFailureDegradesToNoMatch(t *testing.T) {
	store := newTestStore()
	store.failAll = true
	n := newTestNormalizer(store)

	res := n.Resolve(context.Background(), "Software Engineer")
	if res.Matched() {
		t.Fatal("expected degraded no-match when the store is unavailable")
	}
	if len(res.Suggestions) != 0 {
		t.Errorf("degraded resolution carried %d suggestions, want none", len(res.Suggestions))
	}

	// Recovery: once the store is healthy the same input resolves, so the
	// failure must not have been cached.
	store.failAll = false
	res = n.Resolve(context.Background(), "Software Engineer")
	if !res.Matched() {
		t.Fatal("expected resolution after store recovery")
	}
}

func TestResolveCacheServesRepeatLookups(t *testing.T) {
	store := newTestStore()
	n := newTestNormalizer(store)

	first := n.Resolve(context.Background(), "SWE")
	if !first.Matched() {
		t.Fatal("expected variation to resolve")
	}

	// A store outage after the first lookup is invisible for cached keys.
	store.failAll = true
	second := n.Resolve(context.Background(), "swe")
	if !second.Matched() {
		t.Fatal("expected cached resolution despite store outage")
	}
	if second.Canonical.ID != first.Canonical.ID {
		t.Error("cached resolution returned a different canonical")
	}
}
