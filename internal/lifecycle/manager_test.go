package lifecycle

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/aravind45/whynointerviews/internal/config"
	"github.com/aravind45/whynointerviews/internal/diagnosis"
	apperrors "github.com/aravind45/whynointerviews/internal/errors"
	"github.com/aravind45/whynointerviews/internal/models"
	"github.com/aravind45/whynointerviews/internal/protect"
	"github.com/aravind45/whynointerviews/internal/resume"
	"github.com/aravind45/whynointerviews/internal/scoring"
	"github.com/aravind45/whynointerviews/internal/titles"
)

const testResumeText = `Jane Doe
jane.doe@example.com

Summary
Backend engineer with five years building Go services for payments platforms.

Experience
Acme Corp, Software Engineer, 2019-2024
- Built payment reconciliation pipeline in Go
- Reduced batch latency by 40%

Education
BSc Computer Science, State University

Skills
Go, PostgreSQL, Docker, gRPC, Kafka
`

// memSubmissions is an in-memory SubmissionRepository enforcing the same
// transition guards as the database implementation.
type memSubmissions struct {
	mu            sync.Mutex
	rows          map[uuid.UUID]*models.Submission
	confirmations map[uuid.UUID]*models.DeletionConfirmation
}

func newMemSubmissions() *memSubmissions {
	return &memSubmissions{
		rows:          make(map[uuid.UUID]*models.Submission),
		confirmations: make(map[uuid.UUID]*models.DeletionConfirmation),
	}
}

func (m *memSubmissions) Create(_ context.Context, sub *models.Submission) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *sub
	m.rows[sub.ID] = &cp
	return nil
}

func (m *memSubmissions) FindByID(_ context.Context, id uuid.UUID) (*models.Submission, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sub, ok := m.rows[id]
	if !ok {
		return nil, apperrors.NewStorageError(apperrors.ErrCodeSubmissionNotFound, "not found", nil)
	}
	cp := *sub
	return &cp, nil
}

func (m *memSubmissions) Transition(_ context.Context, id uuid.UUID, from, to models.SubmissionStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !from.CanTransitionTo(to) {
		return apperrors.NewStorageError(apperrors.ErrCodeIllegalTransition, "illegal", nil)
	}
	sub, ok := m.rows[id]
	if !ok || sub.Status != from {
		return apperrors.NewStorageError(apperrors.ErrCodeIllegalTransition, "lost race", nil)
	}
	sub.Status = to
	return nil
}

func (m *memSubmissions) MarkFailed(_ context.Context, id uuid.UUID, status models.SubmissionStatus, message string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	sub, ok := m.rows[id]
	if !ok || sub.Status.Terminal() {
		return apperrors.NewStorageError(apperrors.ErrCodeIllegalTransition, "terminal", nil)
	}
	sub.Status = status
	sub.ErrorMessage = &message
	return nil
}

func (m *memSubmissions) SetCanonicalTitle(_ context.Context, id uuid.UUID, canonicalID *uuid.UUID, confidence *int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if sub, ok := m.rows[id]; ok {
		sub.CanonicalTitleID = canonicalID
		sub.ConfidenceScore = confidence
	}
	return nil
}

func (m *memSubmissions) FindPending(_ context.Context, limit int) ([]models.Submission, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Submission
	for _, sub := range m.rows {
		if sub.Status == models.StatusPending {
			out = append(out, *sub)
			if len(out) >= limit {
				break
			}
		}
	}
	return out, nil
}

func (m *memSubmissions) FindExpired(_ context.Context, now time.Time, limit int) ([]models.Submission, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Submission
	for _, sub := range m.rows {
		if sub.Status != models.StatusDeleted && !sub.ExpiresAt.After(now) {
			out = append(out, *sub)
			if len(out) >= limit {
				break
			}
		}
	}
	return out, nil
}

func (m *memSubmissions) PurgeContent(_ context.Context, id uuid.UUID, confirmation *models.DeletionConfirmation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	sub, ok := m.rows[id]
	if !ok || sub.Status == models.StatusDeleted {
		return apperrors.NewStorageError(apperrors.ErrCodeSubmissionNotFound, "not found", nil)
	}
	sub.EncryptedContent = nil
	sub.JobDescription = nil
	sub.Status = models.StatusDeleted
	deletedAt := confirmation.DeletedAt
	sub.DeletedAt = &deletedAt
	m.confirmations[id] = confirmation
	return nil
}

// memDiagnoses is an in-memory DiagnosisRepository. Like the database
// implementation it writes the result and the analyzing-to-completed flip
// as one atomic step, both or neither.
type memDiagnoses struct {
	mu       sync.Mutex
	subs     *memSubmissions
	rows     map[uuid.UUID]*models.DiagnosisResult
	failNext bool
}

func newMemDiagnoses(subs *memSubmissions) *memDiagnoses {
	return &memDiagnoses{subs: subs, rows: make(map[uuid.UUID]*models.DiagnosisResult)}
}

func (m *memDiagnoses) CompleteSubmission(_ context.Context, result *models.DiagnosisResult, diag scoring.Diagnosis) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failNext {
		m.failNext = false
		return apperrors.NewStorageError(apperrors.ErrCodeDatabaseFailure, "write failed", nil)
	}
	if _, exists := m.rows[result.SubmissionID]; exists {
		return apperrors.NewStorageError(apperrors.ErrCodeDatabaseFailure, "duplicate diagnosis", nil)
	}
	if err := m.subs.Transition(context.Background(), result.SubmissionID, models.StatusAnalyzing, models.StatusCompleted); err != nil {
		return err
	}
	if result.ID == uuid.Nil {
		result.ID = uuid.New()
	}
	result.RootCauses = diag.RootCauses
	result.Recommendations = diag.Recommendations
	cp := *result
	m.rows[result.SubmissionID] = &cp
	return nil
}

func (m *memDiagnoses) FindBySubmission(_ context.Context, submissionID uuid.UUID) (*models.DiagnosisResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if r, ok := m.rows[submissionID]; ok {
		cp := *r
		return &cp, nil
	}
	return nil, nil
}

type fixedTitleStore struct {
	title models.CanonicalTitle
}

func (s *fixedTitleStore) FindExact(_ context.Context, normalized string) (*models.CanonicalTitle, error) {
	if titles.Normalize(s.title.Title) == normalized {
		return &s.title, nil
	}
	return nil, nil
}

func (s *fixedTitleStore) FindVariation(_ context.Context, _ string) (*models.TitleVariation, *models.CanonicalTitle, error) {
	return nil, nil, nil
}

func (s *fixedTitleStore) AllTitles(_ context.Context) ([]models.CanonicalTitle, error) {
	return []models.CanonicalTitle{s.title}, nil
}

func (s *fixedTitleStore) AllVariations(_ context.Context) ([]models.TitleVariation, error) {
	return nil, nil
}

func (s *fixedTitleStore) TitlesByCategory(_ context.Context, _ string, _ int) ([]models.CanonicalTitle, error) {
	return nil, nil
}

func (s *fixedTitleStore) TemplateFor(_ context.Context, _ uuid.UUID) (*models.RoleTemplate, error) {
	return nil, nil
}

func (s *fixedTitleStore) TitleByID(_ context.Context, id uuid.UUID) (*models.CanonicalTitle, error) {
	if id == s.title.ID {
		return &s.title, nil
	}
	return nil, nil
}

type testEnv struct {
	manager *Manager
	subs    *memSubmissions
	diags   *memDiagnoses
}

func newTestEnv(t *testing.T, cfg config.LifecycleConfig) *testEnv {
	t.Helper()

	key, err := protect.GenerateKey()
	if err != nil {
		t.Fatalf("GenerateKey failed: %v", err)
	}
	sealer, err := protect.NewSealer(key)
	if err != nil {
		t.Fatalf("NewSealer failed: %v", err)
	}

	store := &fixedTitleStore{title: models.CanonicalTitle{
		ID:             uuid.New(),
		Title:          "Software Engineer",
		Category:       "engineering",
		SeniorityLevel: models.SeniorityMid,
	}}
	synth := diagnosis.NewSynthesizer(
		titles.NewNormalizer(store, titles.NormalizerConfig{}, nil),
		store, nil, nil, nil)

	subs := newMemSubmissions()
	diags := newMemDiagnoses(subs)

	if cfg.ParseTimeout == 0 {
		cfg.ParseTimeout = 5 * time.Second
	}
	if cfg.DiagnoseTimeout == 0 {
		cfg.DiagnoseTimeout = 5 * time.Second
	}
	if cfg.OverallTimeout == 0 {
		cfg.OverallTimeout = 10 * time.Second
	}
	if cfg.WorkerCount == 0 {
		cfg.WorkerCount = 1
	}
	if cfg.QueueSize == 0 {
		cfg.QueueSize = 10
	}
	if cfg.PollInterval == 0 {
		cfg.PollInterval = 50 * time.Millisecond
	}

	manager := NewManager(subs, diags, sealer, resume.NewFileExtractor(10, 50), synth,
		cfg, config.AppConfig{
			MaxFileSize:  1 << 20,
			MaxPageCount: 10,
			MinTextChars: 50,
			FileTypes:    []string{"pdf", "docx", "txt"},
		}, 24*time.Hour, nil)

	return &testEnv{manager: manager, subs: subs, diags: diags}
}

func submitText(t *testing.T, env *testEnv) *models.Submission {
	t.Helper()
	sub, err := env.manager.Submit(context.Background(), SubmitRequest{
		SessionID:   "session-1",
		FileData:    []byte(testResumeText),
		FileType:    "txt",
		TargetTitle: "Software Engineer",
	})
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	return sub
}

func TestSubmitSealsContentAndSetsExpiry(t *testing.T) {
	env := newTestEnv(t, config.LifecycleConfig{})
	sub := submitText(t, env)

	stored, err := env.subs.FindByID(context.Background(), sub.ID)
	if err != nil {
		t.Fatalf("FindByID failed: %v", err)
	}
	if stored.Status != models.StatusPending {
		t.Errorf("status = %q, want pending", stored.Status)
	}
	if len(stored.EncryptedContent) <= len(testResumeText) {
		t.Error("stored content is not sealed")
	}
	if string(stored.EncryptedContent) == testResumeText {
		t.Error("plaintext reached storage")
	}
	wantExpiry := stored.CreatedAt.Add(24 * time.Hour)
	if !stored.ExpiresAt.Equal(wantExpiry) {
		t.Errorf("expiry = %v, want created+24h %v", stored.ExpiresAt, wantExpiry)
	}
}

func TestSubmitValidation(t *testing.T) {
	env := newTestEnv(t, config.LifecycleConfig{})

	tests := []struct {
		name string
		req  SubmitRequest
	}{
		{"empty file", SubmitRequest{FileType: "txt", TargetTitle: "Engineer"}},
		{"unsupported type", SubmitRequest{FileData: []byte("x"), FileType: "exe", TargetTitle: "Engineer"}},
		{"missing title", SubmitRequest{FileData: []byte("x"), FileType: "txt"}},
		{"oversized file", SubmitRequest{FileData: make([]byte, 2<<20), FileType: "txt", TargetTitle: "Engineer"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := env.manager.Submit(context.Background(), tt.req); err == nil {
				t.Error("expected validation error")
			} else if !apperrors.IsErrorType(err, apperrors.ErrorTypeValidation) {
				t.Errorf("wrong error type: %v", err)
			}
		})
	}
}

func TestProcessCompletesSubmission(t *testing.T) {
	env := newTestEnv(t, config.LifecycleConfig{})
	sub := submitText(t, env)

	env.manager.Process(context.Background(), sub.ID)

	stored, _ := env.subs.FindByID(context.Background(), sub.ID)
	if stored.Status != models.StatusCompleted {
		t.Fatalf("status = %q, want completed (error: %v)", stored.Status, stored.ErrorMessage)
	}
	if stored.CanonicalTitleID == nil {
		t.Error("title resolution not recorded")
	}

	_, result, err := env.manager.Result(context.Background(), sub.ID)
	if err != nil {
		t.Fatalf("Result failed: %v", err)
	}
	if result == nil {
		t.Fatal("completed submission has no diagnosis result")
	}
	if result.OverallConfidence <= 0 || result.OverallConfidence > 100 {
		t.Errorf("confidence = %d, want in (0,100]", result.OverallConfidence)
	}
	if len(result.RootCauses) == 0 {
		t.Error("diagnosis has no root causes")
	}
}

func TestCompletionWritesResultAndStatusTogether(t *testing.T) {
	env := newTestEnv(t, config.LifecycleConfig{})
	sub := submitText(t, env)

	// The final write fails after a fully successful analysis. The
	// submission must not come out completed without a stored result.
	env.diags.failNext = true
	env.manager.Process(context.Background(), sub.ID)

	stored, _ := env.subs.FindByID(context.Background(), sub.ID)
	if stored.Status == models.StatusCompleted {
		t.Fatal("submission completed although the diagnosis write failed")
	}
	if result, _ := env.diags.FindBySubmission(context.Background(), sub.ID); result != nil {
		t.Fatal("diagnosis result stored for a submission that never completed")
	}
}

func TestProcessIsIdempotent(t *testing.T) {
	env := newTestEnv(t, config.LifecycleConfig{})
	sub := submitText(t, env)

	env.manager.Process(context.Background(), sub.ID)
	_, first, _ := env.manager.Result(context.Background(), sub.ID)

	// A second run must not re-analyze or duplicate the result.
	env.manager.Process(context.Background(), sub.ID)
	_, second, _ := env.manager.Result(context.Background(), sub.ID)

	if first == nil || second == nil {
		t.Fatal("missing result")
	}
	if first.ID != second.ID {
		t.Error("reprocessing produced a different diagnosis result")
	}
}

func TestProcessTimeoutMarksTimeout(t *testing.T) {
	env := newTestEnv(t, config.LifecycleConfig{
		ParseTimeout: time.Nanosecond,
	})
	sub := submitText(t, env)

	env.manager.Process(context.Background(), sub.ID)

	stored, _ := env.subs.FindByID(context.Background(), sub.ID)
	if stored.Status != models.StatusTimeout {
		t.Errorf("status = %q, want timeout", stored.Status)
	}
	if stored.ErrorMessage == nil {
		t.Error("timeout left no error message")
	}
}

func TestResultBeforeCompletionIsEmpty(t *testing.T) {
	env := newTestEnv(t, config.LifecycleConfig{})
	sub := submitText(t, env)

	got, result, err := env.manager.Result(context.Background(), sub.ID)
	if err != nil {
		t.Fatalf("Result failed: %v", err)
	}
	if result != nil {
		t.Error("pending submission returned a result")
	}
	if got.Status != models.StatusPending {
		t.Errorf("status = %q, want pending", got.Status)
	}
}

func TestDeletePurgesContent(t *testing.T) {
	env := newTestEnv(t, config.LifecycleConfig{})
	sub := submitText(t, env)
	env.manager.Process(context.Background(), sub.ID)

	confirmation, err := env.manager.Delete(context.Background(), sub.ID)
	if err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if confirmation.ConfirmationToken == "" {
		t.Error("deletion confirmation has no token")
	}

	stored, _ := env.subs.FindByID(context.Background(), sub.ID)
	if stored.Status != models.StatusDeleted {
		t.Errorf("status = %q, want deleted", stored.Status)
	}
	if len(stored.EncryptedContent) != 0 {
		t.Error("content survived deletion")
	}

	// Deleting twice fails; the first confirmation stands.
	if _, err := env.manager.Delete(context.Background(), sub.ID); err == nil {
		t.Error("second delete succeeded")
	}
}

func TestWorkerPoolDrainsQueue(t *testing.T) {
	env := newTestEnv(t, config.LifecycleConfig{WorkerCount: 3})

	var ids []uuid.UUID
	for i := 0; i < 5; i++ {
		sub, err := env.manager.Submit(context.Background(), SubmitRequest{
			SessionID:   fmt.Sprintf("session-%d", i),
			FileData:    []byte(testResumeText),
			FileType:    "txt",
			TargetTitle: "Software Engineer",
		})
		if err != nil {
			t.Fatalf("Submit failed: %v", err)
		}
		ids = append(ids, sub.ID)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	env.manager.Start(ctx)

	deadline := time.After(5 * time.Second)
	for {
		done := 0
		for _, id := range ids {
			sub, _ := env.subs.FindByID(context.Background(), id)
			if sub.Status.Terminal() {
				done++
			}
		}
		if done == len(ids) {
			break
		}
		select {
		case <-deadline:
			t.Fatalf("only %d of %d submissions finished", done, len(ids))
		case <-time.After(20 * time.Millisecond):
		}
	}
	env.manager.Stop()

	for _, id := range ids {
		sub, _ := env.subs.FindByID(context.Background(), id)
		if sub.Status != models.StatusCompleted {
			t.Errorf("submission %s status = %q, want completed", id, sub.Status)
		}
	}
}

func TestRetentionSweeperPurgesExpired(t *testing.T) {
	env := newTestEnv(t, config.LifecycleConfig{})
	sub := submitText(t, env)

	// Force immediate expiry.
	env.subs.mu.Lock()
	env.subs.rows[sub.ID].ExpiresAt = time.Now().Add(-time.Minute)
	env.subs.mu.Unlock()

	sweeper := protect.NewSweeper(env.subs, time.Hour, nil)
	sweeper.Start(context.Background())
	defer sweeper.Stop()

	deadline := time.After(2 * time.Second)
	for {
		stored, _ := env.subs.FindByID(context.Background(), sub.ID)
		if stored.Status == models.StatusDeleted {
			if len(stored.EncryptedContent) != 0 {
				t.Error("expired content survived the sweep")
			}
			if env.subs.confirmations[sub.ID] == nil {
				t.Error("sweep left no deletion confirmation")
			}
			return
		}
		select {
		case <-deadline:
			t.Fatal("sweeper never purged the expired submission")
		case <-time.After(20 * time.Millisecond):
		}
	}
}
