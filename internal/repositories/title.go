package repositories

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/aravind45/whynointerviews/internal/models"
	"github.com/aravind45/whynointerviews/internal/titles"
)

// TitleRepository serves the taxonomy from PostgreSQL with empty-not-error
// lookup semantics, plus a bulk import used by the seed subcommand.
type TitleRepository interface {
	titles.Store
	SeedFrom(ctx context.Context, src titles.Store) error
}

type titleRepository struct {
	db *gorm.DB
}

// NewTitleRepository returns a database-backed TitleRepository.
func NewTitleRepository(db *gorm.DB) TitleRepository {
	return &titleRepository{db: db}
}

func (r *titleRepository) FindExact(ctx context.Context, normalized string) (*models.CanonicalTitle, error) {
	var title models.CanonicalTitle
	err := r.db.WithContext(ctx).
		Where("normalized_title = ?", normalized).
		First(&title).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to look up canonical title: %w", err)
	}
	return &title, nil
}

func (r *titleRepository) FindVariation(ctx context.Context, normalized string) (*models.TitleVariation, *models.CanonicalTitle, error) {
	var variation models.TitleVariation
	err := r.db.WithContext(ctx).
		Preload("Canonical").
		Where("normalized_text = ?", normalized).
		First(&variation).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil, nil
		}
		return nil, nil, fmt.Errorf("failed to look up title variation: %w", err)
	}
	canonical := variation.Canonical
	return &variation, &canonical, nil
}

func (r *titleRepository) AllTitles(ctx context.Context) ([]models.CanonicalTitle, error) {
	var out []models.CanonicalTitle
	if err := r.db.WithContext(ctx).Find(&out).Error; err != nil {
		return nil, fmt.Errorf("failed to list canonical titles: %w", err)
	}
	return out, nil
}

func (r *titleRepository) AllVariations(ctx context.Context) ([]models.TitleVariation, error) {
	var out []models.TitleVariation
	if err := r.db.WithContext(ctx).Find(&out).Error; err != nil {
		return nil, fmt.Errorf("failed to list title variations: %w", err)
	}
	return out, nil
}

func (r *titleRepository) TitlesByCategory(ctx context.Context, category string, limit int) ([]models.CanonicalTitle, error) {
	var out []models.CanonicalTitle
	q := r.db.WithContext(ctx).
		Where("LOWER(category) = ? AND is_generic = false", strings.ToLower(category)).
		Order("title ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&out).Error; err != nil {
		return nil, fmt.Errorf("failed to list titles by category: %w", err)
	}
	return out, nil
}

func (r *titleRepository) TemplateFor(ctx context.Context, canonicalID uuid.UUID) (*models.RoleTemplate, error) {
	var tmpl models.RoleTemplate
	err := r.db.WithContext(ctx).
		Where("canonical_id = ?", canonicalID).
		First(&tmpl).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to look up role template: %w", err)
	}
	return &tmpl, nil
}

func (r *titleRepository) TitleByID(ctx context.Context, id uuid.UUID) (*models.CanonicalTitle, error) {
	var title models.CanonicalTitle
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&title).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to look up canonical title by id: %w", err)
	}
	return &title, nil
}

// SeedFrom copies taxonomy rows from another store into the database,
// used by the seed subcommand to promote the file taxonomy to PostgreSQL.
// Rows are upserted on their normalized natural key, so re-running an
// import converges on the seed file instead of colliding with rows a
// previous run created. Source IDs are remapped onto whatever IDs the
// database already holds for the same normalized title.
func (r *titleRepository) SeedFrom(ctx context.Context, src titles.Store) error {
	allTitles, err := src.AllTitles(ctx)
	if err != nil {
		return err
	}
	allVariations, err := src.AllVariations(ctx)
	if err != nil {
		return err
	}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		idBySource := make(map[uuid.UUID]uuid.UUID, len(allTitles))
		for i := range allTitles {
			title := allTitles[i]
			title.NormalizedTitle = titles.Normalize(title.Title)
			err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "normalized_title"}},
				DoUpdates: clause.AssignmentColumns([]string{"title", "category", "seniority_level", "industry", "is_generic"}),
			}).Create(&title).Error
			if err != nil {
				return fmt.Errorf("failed to seed canonical title %q: %w", title.Title, err)
			}

			var persisted models.CanonicalTitle
			if err := tx.Where("normalized_title = ?", title.NormalizedTitle).First(&persisted).Error; err != nil {
				return fmt.Errorf("failed to read back canonical title %q: %w", title.Title, err)
			}
			idBySource[allTitles[i].ID] = persisted.ID

			if tmpl, err := src.TemplateFor(ctx, allTitles[i].ID); err == nil && tmpl != nil {
				row := *tmpl
				row.CanonicalID = persisted.ID
				err := tx.Clauses(clause.OnConflict{
					Columns: []clause.Column{{Name: "canonical_id"}},
					DoUpdates: clause.AssignmentColumns([]string{
						"required_skills", "preferred_skills", "required_keywords",
						"ats_keywords", "experience_min", "experience_max",
					}),
				}).Create(&row).Error
				if err != nil {
					return fmt.Errorf("failed to seed role template for %q: %w", title.Title, err)
				}
			}
		}

		for i := range allVariations {
			variation := allVariations[i]
			canonicalID, ok := idBySource[variation.CanonicalID]
			if !ok {
				return fmt.Errorf("title variation %q references an unknown canonical title", variation.VariationText)
			}
			variation.CanonicalID = canonicalID
			variation.NormalizedText = titles.Normalize(variation.VariationText)
			err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "normalized_text"}},
				DoUpdates: clause.AssignmentColumns([]string{"canonical_id", "variation_text", "confidence_score"}),
			}).Create(&variation).Error
			if err != nil {
				return fmt.Errorf("failed to seed title variation %q: %w", variation.VariationText, err)
			}
		}
		return nil
	})
}
