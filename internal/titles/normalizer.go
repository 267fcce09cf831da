package titles

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/aravind45/whynointerviews/internal/errors"
	"github.com/aravind45/whynointerviews/internal/models"

	"github.com/adrg/strutil"
	"github.com/adrg/strutil/metrics"
	"github.com/google/uuid"
	gocache "github.com/patrickmn/go-cache"
)

// MatchMethod identifies which cascade stage produced a resolution.
type MatchMethod string

const (
	MatchExact     MatchMethod = "exact"
	MatchVariation MatchMethod = "variation"
	MatchFuzzy     MatchMethod = "fuzzy"
	MatchNone      MatchMethod = "none"
)

// Suggestion is one alternative canonical title offered when no match
// clears the acceptance threshold.
type Suggestion struct {
	CanonicalID uuid.UUID `json:"canonicalId"`
	Title       string    `json:"title"`
	Category    string    `json:"category"`
	Confidence  int       `json:"confidence"`
}

// Resolution is the outcome of normalizing a raw job title. Canonical is nil
// when nothing cleared the acceptance threshold; Suggestions then carries up
// to the configured limit of near misses, best first.
type Resolution struct {
	Input       string                 `json:"input"`
	Canonical   *models.CanonicalTitle `json:"canonical,omitempty"`
	Confidence  int                    `json:"confidence"`
	Method      MatchMethod            `json:"method"`
	IsGeneric   bool                   `json:"isGeneric"`
	Suggestions []Suggestion           `json:"suggestions,omitempty"`

	// degraded marks a no-match caused by a store failure rather than a
	// genuine taxonomy miss; such results are never cached.
	degraded bool
}

// Matched reports whether the cascade accepted a canonical title.
func (r *Resolution) Matched() bool {
	return r.Canonical != nil
}

// genericNouns are standalone role words that carry no discipline signal.
// A one-word input from this set is flagged generic even when the taxonomy
// resolves it, so downstream diagnosis can call out vague targeting.
var genericNouns = map[string]bool{
	"engineer":   true,
	"developer":  true,
	"manager":    true,
	"analyst":    true,
	"consultant": true,
	"specialist": true,
	"associate":  true,
	"lead":       true,
	"architect":  true,
	"designer":   true,
}

// categoryHints map discipline keywords to taxonomy categories, used to
// build fallback suggestions when fuzzy matching finds nothing close.
var categoryHints = map[string]string{
	"software":  "engineering",
	"frontend":  "engineering",
	"backend":   "engineering",
	"fullstack": "engineering",
	"mobile":    "engineering",
	"devops":    "engineering",
	"platform":  "engineering",
	"data":      "data",
	"machine":   "data",
	"ml":        "data",
	"analytics": "data",
	"product":   "product",
	"project":   "product",
	"program":   "product",
	"design":    "design",
	"ux":        "design",
	"ui":        "design",
	"marketing": "marketing",
	"sales":     "sales",
	"account":   "sales",
	"security":  "security",
	"qa":        "quality",
	"test":      "quality",
}

// Normalize lowercases, collapses whitespace and strips punctuation so that
// "Sr. Software Engineer!" and "sr software engineer" hit the same key.
func Normalize(raw string) string {
	var b strings.Builder
	b.Grow(len(raw))
	lastSpace := true
	for _, r := range strings.ToLower(strings.TrimSpace(raw)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '+', r == '#':
			b.WriteRune(r)
			lastSpace = false
		case r == '/' || r == '-' || r == '&':
			// Separators become word boundaries, not deletions.
			if !lastSpace {
				b.WriteByte(' ')
				lastSpace = true
			}
		case r == ' ' || r == '\t':
			if !lastSpace {
				b.WriteByte(' ')
				lastSpace = true
			}
		}
	}
	return strings.TrimSpace(b.String())
}

// NormalizerConfig tunes the fuzzy stage of the cascade.
type NormalizerConfig struct {
	// SimilarityFloor is the minimum trigram similarity (0..1) for a
	// canonical title to count as a candidate at all.
	SimilarityFloor float64
	// AcceptanceThreshold is the minimum scaled confidence (0..100) at
	// which the best fuzzy candidate is auto-accepted.
	AcceptanceThreshold int
	// SuggestionLimit caps how many near misses a failed resolution carries.
	SuggestionLimit int
	// CacheTTL bounds how long a resolution is served from cache.
	CacheTTL time.Duration
	// CacheSweepInterval is how often expired cache entries are evicted.
	CacheSweepInterval time.Duration
}

// Normalizer resolves raw job titles against the canonical taxonomy using a
// three-stage cascade: exact match, known variation, trigram similarity.
type Normalizer struct {
	store  Store
	cfg    NormalizerConfig
	cache  *gocache.Cache
	sim    *metrics.Jaccard
	logger *errors.Logger
}

// NewNormalizer builds a Normalizer over the given Store.
func NewNormalizer(store Store, cfg NormalizerConfig, logger *errors.Logger) *Normalizer {
	if cfg.SimilarityFloor <= 0 {
		cfg.SimilarityFloor = 0.3
	}
	if cfg.AcceptanceThreshold <= 0 {
		cfg.AcceptanceThreshold = 60
	}
	if cfg.SuggestionLimit <= 0 {
		cfg.SuggestionLimit = 5
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = 15 * time.Minute
	}
	if cfg.CacheSweepInterval <= 0 {
		cfg.CacheSweepInterval = 5 * time.Minute
	}

	sim := metrics.NewJaccard()
	sim.NgramSize = 3

	return &Normalizer{
		store:  store,
		cfg:    cfg,
		cache:  gocache.New(cfg.CacheTTL, cfg.CacheSweepInterval),
		sim:    sim,
		logger: logger,
	}
}

// Resolve runs the cascade for one raw title. It never returns an error for
// a title that simply has no match; store failures degrade to a no-match
// resolution so a taxonomy outage cannot fail an analysis outright.
func (n *Normalizer) Resolve(ctx context.Context, raw string) *Resolution {
	normalized := Normalize(raw)
	if normalized == "" {
		return &Resolution{Input: raw, Method: MatchNone}
	}

	if cached, ok := n.cache.Get(normalized); ok {
		res := cached.(*Resolution)
		cp := *res
		cp.Input = raw
		return &cp
	}

	res := n.resolve(ctx, raw, normalized)
	if !res.degraded {
		n.cache.Set(normalized, res, gocache.DefaultExpiration)
	}
	return res
}

func (n *Normalizer) resolve(ctx context.Context, raw, normalized string) *Resolution {
	generic := n.isGenericInput(normalized)

	// Stage 1: exact canonical match.
	exact, err := n.store.FindExact(ctx, normalized)
	if err != nil {
		return n.degraded(raw, err)
	}
	if exact != nil {
		return &Resolution{
			Input:      raw,
			Canonical:  exact,
			Confidence: 100,
			Method:     MatchExact,
			IsGeneric:  generic || exact.IsGeneric,
		}
	}

	// Stage 2: curated variation with its stored confidence.
	variation, canonical, err := n.store.FindVariation(ctx, normalized)
	if err != nil {
		return n.degraded(raw, err)
	}
	if variation != nil && canonical != nil {
		return &Resolution{
			Input:      raw,
			Canonical:  canonical,
			Confidence: variation.ConfidenceScore,
			Method:     MatchVariation,
			IsGeneric:  generic || canonical.IsGeneric,
		}
	}

	// Stage 3: trigram similarity across the whole taxonomy, canonical
	// titles and curated variation spellings alike.
	titles, err := n.store.AllTitles(ctx)
	if err != nil {
		return n.degraded(raw, err)
	}
	variations, err := n.store.AllVariations(ctx)
	if err != nil {
		return n.degraded(raw, err)
	}

	candidates := n.fuzzyCandidates(normalized, titles, variations)
	if len(candidates) > 0 && candidates[0].Confidence >= n.cfg.AcceptanceThreshold {
		best := candidates[0]
		title, err := n.store.TitleByID(ctx, best.CanonicalID)
		if err != nil || title == nil {
			return n.degraded(raw, err)
		}
		return &Resolution{
			Input:      raw,
			Canonical:  title,
			Confidence: best.Confidence,
			Method:     MatchFuzzy,
			IsGeneric:  generic || title.IsGeneric,
		}
	}

	suggestions := candidates
	if len(suggestions) == 0 {
		suggestions = n.categorySuggestions(ctx, normalized, titles)
	}
	if len(suggestions) > n.cfg.SuggestionLimit {
		suggestions = suggestions[:n.cfg.SuggestionLimit]
	}

	return &Resolution{
		Input:       raw,
		Method:      MatchNone,
		IsGeneric:   generic,
		Suggestions: suggestions,
	}
}

// fuzzyCandidates scores every canonical title and every variation spelling
// against the input and returns those clearing the similarity floor,
// deduplicated per canonical title keeping the highest score, best first.
// A variation hit counts for its canonical title, so a near-miss on
// "devops engineer" still surfaces the canonical it maps to.
func (n *Normalizer) fuzzyCandidates(normalized string, titles []models.CanonicalTitle, variations []models.TitleVariation) []Suggestion {
	byID := make(map[uuid.UUID]*models.CanonicalTitle, len(titles))
	for i := range titles {
		byID[titles[i].ID] = &titles[i]
	}

	best := make(map[uuid.UUID]Suggestion)
	consider := func(canonicalID uuid.UUID, score float64) {
		if score < n.cfg.SimilarityFloor {
			return
		}
		t, ok := byID[canonicalID]
		if !ok {
			return
		}
		confidence := int(score * 100)
		if prev, ok := best[canonicalID]; ok && prev.Confidence >= confidence {
			return
		}
		best[canonicalID] = Suggestion{
			CanonicalID: canonicalID,
			Title:       t.Title,
			Category:    t.Category,
			Confidence:  confidence,
		}
	}

	for _, t := range titles {
		consider(t.ID, strutil.Similarity(normalized, Normalize(t.Title), n.sim))
	}
	for _, v := range variations {
		consider(v.CanonicalID, strutil.Similarity(normalized, Normalize(v.VariationText), n.sim))
	}

	out := make([]Suggestion, 0, len(best))
	for _, s := range best {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Confidence != out[j].Confidence {
			return out[i].Confidence > out[j].Confidence
		}
		return out[i].Title < out[j].Title
	})
	return out
}

// categorySuggestions infers a discipline from keyword hints and offers the
// taxonomy's titles for that category when similarity found nothing at all.
func (n *Normalizer) categorySuggestions(ctx context.Context, normalized string, titles []models.CanonicalTitle) []Suggestion {
	category := ""
	for _, word := range strings.Fields(normalized) {
		if hint, ok := categoryHints[word]; ok {
			category = hint
			break
		}
	}
	if category == "" {
		return nil
	}

	matches, err := n.store.TitlesByCategory(ctx, category, n.cfg.SuggestionLimit)
	if err != nil {
		return nil
	}
	out := make([]Suggestion, 0, len(matches))
	for _, t := range matches {
		out = append(out, Suggestion{
			CanonicalID: t.ID,
			Title:       t.Title,
			Category:    t.Category,
			Confidence:  0,
		})
	}
	return out
}

// isGenericInput flags one-word inputs drawn from the generic noun set and
// two-word inputs where both words are generic ("senior manager").
func (n *Normalizer) isGenericInput(normalized string) bool {
	words := strings.Fields(normalized)
	if len(words) == 0 || len(words) > 2 {
		return false
	}
	seniority := map[string]bool{"junior": true, "senior": true, "sr": true, "jr": true, "staff": true, "principal": true}
	for _, w := range words {
		if !genericNouns[w] && !seniority[w] {
			return false
		}
	}
	// At least one word has to be a role noun; "senior" alone is not a title.
	for _, w := range words {
		if genericNouns[w] {
			return true
		}
	}
	return false
}

// degraded produces a no-match resolution after a store failure. Suggestions
// are omitted so callers cannot mistake a partial read for a real taxonomy
// answer.
func (n *Normalizer) degraded(raw string, err error) *Resolution {
	if err != nil && n.logger != nil {
		n.logger.LogError(err, "Title store unavailable, degrading to no-match")
	}
	return &Resolution{Input: raw, Method: MatchNone, degraded: true}
}
