package protect

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"time"

	"github.com/google/uuid"

	apperrors "github.com/aravind45/whynointerviews/internal/errors"
	"github.com/aravind45/whynointerviews/internal/models"
	"github.com/aravind45/whynointerviews/internal/observability"
	"github.com/aravind45/whynointerviews/internal/repositories"
)

const sweepBatchSize = 100

// Purge irreversibly removes a submission's content and returns the
// deletion confirmation. Used by both the user-facing delete operation and
// the retention sweeper.
func Purge(ctx context.Context, repo repositories.SubmissionRepository, submissionID uuid.UUID) (*models.DeletionConfirmation, error) {
	token, err := confirmationToken()
	if err != nil {
		return nil, err
	}
	confirmation := &models.DeletionConfirmation{
		ID:                uuid.New(),
		SubmissionID:      submissionID,
		ConfirmationToken: token,
		DeletedAt:         time.Now().UTC(),
	}
	if err := repo.PurgeContent(ctx, submissionID, confirmation); err != nil {
		return nil, err
	}
	return confirmation, nil
}

func confirmationToken() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", apperrors.NewInternalError(apperrors.ErrCodeDatabaseFailure,
			"Failed to generate deletion confirmation token", err)
	}
	return hex.EncodeToString(buf), nil
}

// Sweeper purges expired submissions on an interval. Expiry is fixed at
// submission time; the sweeper enforces it but never extends it.
type Sweeper struct {
	repo     repositories.SubmissionRepository
	interval time.Duration
	logger   *apperrors.Logger
	metrics  *observability.Metrics
	stop     chan struct{}
	done     chan struct{}
}

// NewSweeper builds a retention sweeper.
func NewSweeper(repo repositories.SubmissionRepository, interval time.Duration, logger *apperrors.Logger) *Sweeper {
	return &Sweeper{
		repo:     repo,
		interval: interval,
		logger:   logger,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// SetMetrics attaches purge counting. Call before Start.
func (s *Sweeper) SetMetrics(metrics *observability.Metrics) {
	s.metrics = metrics
}

// Start runs the sweep loop until Stop is called. One sweep runs
// immediately so a restart never extends effective retention.
func (s *Sweeper) Start(ctx context.Context) {
	go func() {
		defer close(s.done)
		s.sweep(ctx)
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				s.sweep(ctx)
			case <-s.stop:
				return
			case <-ctx.Done():
				return
			}
		}
	}()
}

// Stop halts the loop and waits for any in-flight sweep to finish.
func (s *Sweeper) Stop() {
	close(s.stop)
	<-s.done
}

func (s *Sweeper) sweep(ctx context.Context) {
	now := time.Now().UTC()
	expired, err := s.repo.FindExpired(ctx, now, sweepBatchSize)
	if err != nil {
		if s.logger != nil {
			s.logger.LogError(err, "Retention sweep could not list expired submissions")
		}
		return
	}
	if len(expired) == 0 {
		return
	}

	purged := 0
	for _, sub := range expired {
		if _, err := Purge(ctx, s.repo, sub.ID); err != nil {
			if s.logger != nil {
				s.logger.LogError(err, "Retention sweep failed to purge submission", "submission_id", sub.ID.String())
			}
			continue
		}
		purged++
	}
	if purged > 0 {
		s.metrics.RecordPurge(ctx, int64(purged))
	}
	if s.logger != nil {
		s.logger.Info("Retention sweep completed",
			"expired", len(expired),
			"purged", purged)
	}
}
