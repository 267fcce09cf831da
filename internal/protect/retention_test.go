package protect

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	apperrors "github.com/aravind45/whynointerviews/internal/errors"
	"github.com/aravind45/whynointerviews/internal/models"
	"github.com/aravind45/whynointerviews/internal/observability"
)

// expiredRepo is a minimal in-memory SubmissionRepository holding a fixed
// set of expired submissions for the sweeper to find.
type expiredRepo struct {
	mu     sync.Mutex
	rows   map[uuid.UUID]*models.Submission
	purged map[uuid.UUID]*models.DeletionConfirmation
}

func newExpiredRepo(count int) *expiredRepo {
	r := &expiredRepo{
		rows:   make(map[uuid.UUID]*models.Submission),
		purged: make(map[uuid.UUID]*models.DeletionConfirmation),
	}
	for i := 0; i < count; i++ {
		id := uuid.New()
		r.rows[id] = &models.Submission{
			ID:        id,
			Status:    models.StatusCompleted,
			ExpiresAt: time.Now().Add(-time.Minute),
		}
	}
	return r
}

func (r *expiredRepo) Create(_ context.Context, _ *models.Submission) error { return nil }

func (r *expiredRepo) FindByID(_ context.Context, id uuid.UUID) (*models.Submission, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if sub, ok := r.rows[id]; ok {
		cp := *sub
		return &cp, nil
	}
	return nil, apperrors.NewStorageError(apperrors.ErrCodeSubmissionNotFound, "not found", nil)
}

func (r *expiredRepo) Transition(_ context.Context, _ uuid.UUID, _, _ models.SubmissionStatus) error {
	return nil
}

func (r *expiredRepo) MarkFailed(_ context.Context, _ uuid.UUID, _ models.SubmissionStatus, _ string) error {
	return nil
}

func (r *expiredRepo) SetCanonicalTitle(_ context.Context, _ uuid.UUID, _ *uuid.UUID, _ *int) error {
	return nil
}

func (r *expiredRepo) FindPending(_ context.Context, _ int) ([]models.Submission, error) {
	return nil, nil
}

func (r *expiredRepo) FindExpired(_ context.Context, now time.Time, limit int) ([]models.Submission, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Submission
	for _, sub := range r.rows {
		if sub.Status != models.StatusDeleted && !sub.ExpiresAt.After(now) {
			out = append(out, *sub)
			if len(out) >= limit {
				break
			}
		}
	}
	return out, nil
}

func (r *expiredRepo) PurgeContent(_ context.Context, id uuid.UUID, confirmation *models.DeletionConfirmation) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	sub, ok := r.rows[id]
	if !ok || sub.Status == models.StatusDeleted {
		return apperrors.NewStorageError(apperrors.ErrCodeSubmissionNotFound, "not found", nil)
	}
	sub.EncryptedContent = nil
	sub.Status = models.StatusDeleted
	r.purged[id] = confirmation
	return nil
}

func collectCounterTotal(t *testing.T, reader *sdkmetric.ManualReader) int64 {
	t.Helper()
	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("collecting metrics: %v", err)
	}
	var total int64
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			sum, ok := m.Data.(metricdata.Sum[int64])
			if !ok {
				continue
			}
			for _, dp := range sum.DataPoints {
				total += dp.Value
			}
		}
	}
	return total
}

func TestSweepRecordsPurgedSubmissions(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	meter := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader)).Meter("retention-test")
	counter, err := meter.Int64Counter("content.purges")
	if err != nil {
		t.Fatalf("creating counter: %v", err)
	}

	repo := newExpiredRepo(3)
	sweeper := NewSweeper(repo, time.Hour, nil)
	sweeper.SetMetrics(&observability.Metrics{ContentPurges: counter})

	sweeper.sweep(context.Background())

	if got := len(repo.purged); got != 3 {
		t.Fatalf("purged %d submissions, want 3", got)
	}
	if total := collectCounterTotal(t, reader); total != 3 {
		t.Errorf("purge counter = %d, want 3", total)
	}

	// An empty sweep must not move the counter.
	sweeper.sweep(context.Background())
	if total := collectCounterTotal(t, reader); total != 3 {
		t.Errorf("purge counter after empty sweep = %d, want unchanged 3", total)
	}
}

func TestSweepWithoutMetricsStillPurges(t *testing.T) {
	repo := newExpiredRepo(1)
	sweeper := NewSweeper(repo, time.Hour, nil)

	sweeper.sweep(context.Background())

	if got := len(repo.purged); got != 1 {
		t.Fatalf("purged %d submissions, want 1", got)
	}
	for _, confirmation := range repo.purged {
		if confirmation.ConfirmationToken == "" {
			t.Error("purge left no confirmation token")
		}
	}
}
