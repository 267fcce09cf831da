package titles

import (
	"context"

	"github.com/aravind45/whynointerviews/internal/models"

	"github.com/google/uuid"
)

// Store is the canonical title reference data. Read-heavy and externally
// maintained; lookups return empty results rather than errors when nothing
// matches.
type Store interface {
	// FindExact matches a normalized title string against canonical titles.
	FindExact(ctx context.Context, normalized string) (*models.CanonicalTitle, error)
	// FindVariation matches a normalized title string against known
	// variations, returning the variation and its canonical title.
	FindVariation(ctx context.Context, normalized string) (*models.TitleVariation, *models.CanonicalTitle, error)
	// AllTitles returns every canonical title for fuzzy scanning.
	AllTitles(ctx context.Context) ([]models.CanonicalTitle, error)
	// AllVariations returns every variation for fuzzy scanning.
	AllVariations(ctx context.Context) ([]models.TitleVariation, error)
	// TitlesByCategory returns non-generic canonical titles in a category.
	TitlesByCategory(ctx context.Context, category string, limit int) ([]models.CanonicalTitle, error)
	// TemplateFor returns the role template for a canonical title, nil when
	// none exists.
	TemplateFor(ctx context.Context, canonicalID uuid.UUID) (*models.RoleTemplate, error)
	// TitleByID resolves a canonical title by id, nil when unknown.
	TitleByID(ctx context.Context, id uuid.UUID) (*models.CanonicalTitle, error)
}
