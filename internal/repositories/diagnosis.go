package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	apperrors "github.com/aravind45/whynointerviews/internal/errors"
	"github.com/aravind45/whynointerviews/internal/models"
	"github.com/aravind45/whynointerviews/internal/scoring"
)

// DiagnosisRepository persists completed diagnoses. A result with all of its
// root causes, evidence, and recommendations lands in one transaction
// together with the owning submission's move to completed; a partially
// written diagnosis or a completed submission without its result is never
// observable.
type DiagnosisRepository interface {
	CompleteSubmission(ctx context.Context, result *models.DiagnosisResult, diag scoring.Diagnosis) error
	FindBySubmission(ctx context.Context, submissionID uuid.UUID) (*models.DiagnosisResult, error)
}

type diagnosisRepository struct {
	db *gorm.DB
}

// NewDiagnosisRepository returns a database-backed DiagnosisRepository.
func NewDiagnosisRepository(db *gorm.DB) DiagnosisRepository {
	return &diagnosisRepository{db: db}
}

// CompleteSubmission assigns IDs, resolves recommendation attachments onto
// the persisted root cause IDs, and writes the whole aggregate in the same
// transaction that flips the submission from analyzing to completed. A crash
// between the two can therefore never strand a completed submission without
// its result.
func (r *diagnosisRepository) CompleteSubmission(ctx context.Context, result *models.DiagnosisResult, diag scoring.Diagnosis) error {
	if result.ID == uuid.Nil {
		result.ID = uuid.New()
	}

	causes := make([]models.RootCause, len(diag.RootCauses))
	copy(causes, diag.RootCauses)
	for i := range causes {
		causes[i].ID = uuid.New()
		causes[i].DiagnosisID = result.ID
		for j := range causes[i].Evidence {
			causes[i].Evidence[j].ID = uuid.New()
			causes[i].Evidence[j].RootCauseID = causes[i].ID
		}
	}

	recs := make([]models.Recommendation, len(diag.Recommendations))
	copy(recs, diag.Recommendations)
	for i := range recs {
		recs[i].ID = uuid.New()
		recs[i].DiagnosisID = result.ID
		if i < len(diag.Attachments) {
			idx := diag.Attachments[i]
			if idx >= 0 && idx < len(causes) {
				causeID := causes[idx].ID
				recs[i].RelatedRootCause = &causeID
			}
		}
	}

	result.RootCauses = causes
	result.Recommendations = recs

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(result).Error; err != nil {
			return apperrors.NewStorageError(apperrors.ErrCodeDatabaseFailure,
				fmt.Sprintf("Failed to persist diagnosis for submission %s", result.SubmissionID), err)
		}

		flip := tx.Model(&models.Submission{}).
			Where("id = ? AND status = ?", result.SubmissionID, models.StatusAnalyzing).
			Updates(map[string]any{
				"status":     models.StatusCompleted,
				"updated_at": time.Now(),
			})
		if flip.Error != nil {
			return apperrors.NewStorageError(apperrors.ErrCodeDatabaseFailure,
				"Failed to complete submission", flip.Error)
		}
		if flip.RowsAffected == 0 {
			return apperrors.NewStorageError(apperrors.ErrCodeIllegalTransition,
				fmt.Sprintf("Submission %s is no longer analyzing", result.SubmissionID), nil)
		}
		return nil
	})
}

func (r *diagnosisRepository) FindBySubmission(ctx context.Context, submissionID uuid.UUID) (*models.DiagnosisResult, error) {
	var result models.DiagnosisResult
	err := r.db.WithContext(ctx).
		Preload("RootCauses", func(db *gorm.DB) *gorm.DB {
			return db.Order("root_causes.priority ASC")
		}).
		Preload("RootCauses.Evidence").
		Preload("Recommendations", func(db *gorm.DB) *gorm.DB {
			return db.Order("recommendations.priority ASC")
		}).
		Where("submission_id = ?", submissionID).
		First(&result).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, apperrors.NewStorageError(apperrors.ErrCodeDatabaseFailure,
			"Failed to load diagnosis result", err)
	}
	return &result, nil
}
