package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	apperrors "github.com/aravind45/whynointerviews/internal/errors"
	"github.com/aravind45/whynointerviews/internal/models"
)

// SubmissionRepository owns the submission lifecycle rows. Status moves only
// through legal transitions; every update is guarded against races by
// matching the expected current status in the WHERE clause.
type SubmissionRepository interface {
	Create(ctx context.Context, sub *models.Submission) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Submission, error)
	Transition(ctx context.Context, id uuid.UUID, from, to models.SubmissionStatus) error
	MarkFailed(ctx context.Context, id uuid.UUID, status models.SubmissionStatus, message string) error
	SetCanonicalTitle(ctx context.Context, id uuid.UUID, canonicalID *uuid.UUID, confidence *int) error
	FindPending(ctx context.Context, limit int) ([]models.Submission, error)
	FindExpired(ctx context.Context, now time.Time, limit int) ([]models.Submission, error)
	PurgeContent(ctx context.Context, id uuid.UUID, confirmation *models.DeletionConfirmation) error
}

type submissionRepository struct {
	db *gorm.DB
}

// NewSubmissionRepository returns a database-backed SubmissionRepository.
func NewSubmissionRepository(db *gorm.DB) SubmissionRepository {
	return &submissionRepository{db: db}
}

func (r *submissionRepository) Create(ctx context.Context, sub *models.Submission) error {
	if sub.ID == uuid.Nil {
		sub.ID = uuid.New()
	}
	if sub.Status == "" {
		sub.Status = models.StatusPending
	}
	if sub.ExpiresAt.IsZero() {
		return apperrors.NewStorageError(apperrors.ErrCodeDatabaseFailure,
			"Submission has no expiry; refusing to create an unbounded record", nil)
	}
	if err := r.db.WithContext(ctx).Create(sub).Error; err != nil {
		return apperrors.NewStorageError(apperrors.ErrCodeDatabaseFailure,
			"Failed to create submission", err)
	}
	return nil
}

func (r *submissionRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.Submission, error) {
	var sub models.Submission
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&sub).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, apperrors.NewStorageError(apperrors.ErrCodeSubmissionNotFound,
				fmt.Sprintf("Submission %s not found", id), nil)
		}
		return nil, apperrors.NewStorageError(apperrors.ErrCodeDatabaseFailure,
			"Failed to load submission", err)
	}
	return &sub, nil
}

// Transition moves a submission from one status to another. The expected
// current status is part of the WHERE clause, so two workers racing the same
// submission cannot both win.
func (r *submissionRepository) Transition(ctx context.Context, id uuid.UUID, from, to models.SubmissionStatus) error {
	if !from.CanTransitionTo(to) {
		return apperrors.NewStorageError(apperrors.ErrCodeIllegalTransition,
			fmt.Sprintf("Illegal status transition %s -> %s", from, to), nil)
	}

	result := r.db.WithContext(ctx).Model(&models.Submission{}).
		Where("id = ? AND status = ?", id, from).
		Updates(map[string]any{
			"status":     to,
			"updated_at": time.Now(),
		})
	if result.Error != nil {
		return apperrors.NewStorageError(apperrors.ErrCodeDatabaseFailure,
			"Failed to update submission status", result.Error)
	}
	if result.RowsAffected == 0 {
		return apperrors.NewStorageError(apperrors.ErrCodeIllegalTransition,
			fmt.Sprintf("Submission %s is no longer in status %s", id, from), nil)
	}
	return nil
}

// MarkFailed moves a submission into failed or timeout from whatever
// non-terminal status it currently holds.
func (r *submissionRepository) MarkFailed(ctx context.Context, id uuid.UUID, status models.SubmissionStatus, message string) error {
	if status != models.StatusFailed && status != models.StatusTimeout {
		return apperrors.NewStorageError(apperrors.ErrCodeIllegalTransition,
			fmt.Sprintf("MarkFailed does not accept status %s", status), nil)
	}

	result := r.db.WithContext(ctx).Model(&models.Submission{}).
		Where("id = ? AND status IN ?", id, []models.SubmissionStatus{
			models.StatusPending, models.StatusProcessing, models.StatusAnalyzing,
		}).
		Updates(map[string]any{
			"status":        status,
			"error_message": message,
			"updated_at":    time.Now(),
		})
	if result.Error != nil {
		return apperrors.NewStorageError(apperrors.ErrCodeDatabaseFailure,
			"Failed to mark submission failed", result.Error)
	}
	if result.RowsAffected == 0 {
		return apperrors.NewStorageError(apperrors.ErrCodeIllegalTransition,
			fmt.Sprintf("Submission %s is already terminal", id), nil)
	}
	return nil
}

func (r *submissionRepository) SetCanonicalTitle(ctx context.Context, id uuid.UUID, canonicalID *uuid.UUID, confidence *int) error {
	err := r.db.WithContext(ctx).Model(&models.Submission{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"canonical_title_id": canonicalID,
			"confidence_score":   confidence,
			"updated_at":         time.Now(),
		}).Error
	if err != nil {
		return apperrors.NewStorageError(apperrors.ErrCodeDatabaseFailure,
			"Failed to record title resolution", err)
	}
	return nil
}

func (r *submissionRepository) FindPending(ctx context.Context, limit int) ([]models.Submission, error) {
	var out []models.Submission
	err := r.db.WithContext(ctx).
		Where("status = ?", models.StatusPending).
		Order("created_at ASC").
		Limit(limit).
		Find(&out).Error
	if err != nil {
		return nil, apperrors.NewStorageError(apperrors.ErrCodeDatabaseFailure,
			"Failed to list pending submissions", err)
	}
	return out, nil
}

// FindExpired lists submissions past their retention expiry that still hold
// content, regardless of status.
func (r *submissionRepository) FindExpired(ctx context.Context, now time.Time, limit int) ([]models.Submission, error) {
	var out []models.Submission
	err := r.db.WithContext(ctx).
		Where("expires_at <= ? AND status <> ?", now, models.StatusDeleted).
		Order("expires_at ASC").
		Limit(limit).
		Find(&out).Error
	if err != nil {
		return nil, apperrors.NewStorageError(apperrors.ErrCodeDatabaseFailure,
			"Failed to list expired submissions", err)
	}
	return out, nil
}

// PurgeContent zeroes the encrypted payload and job description, marks the
// submission deleted, and records the deletion confirmation in the same
// transaction. Diagnosis rows survive; source content does not.
func (r *submissionRepository) PurgeContent(ctx context.Context, id uuid.UUID, confirmation *models.DeletionConfirmation) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.Submission{}).
			Where("id = ? AND status <> ?", id, models.StatusDeleted).
			Updates(map[string]any{
				"encrypted_content": []byte{},
				"job_description":   nil,
				"status":            models.StatusDeleted,
				"deleted_at":        confirmation.DeletedAt,
				"updated_at":        time.Now(),
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return tx.Create(confirmation).Error
	})
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return apperrors.NewStorageError(apperrors.ErrCodeSubmissionNotFound,
				fmt.Sprintf("Submission %s not found or already deleted", id), nil)
		}
		return apperrors.NewStorageError(apperrors.ErrCodeDatabaseFailure,
			"Failed to purge submission content", err)
	}
	return nil
}
