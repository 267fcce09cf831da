// Package lifecycle drives submissions through the analysis pipeline:
// pending -> processing -> analyzing -> completed, with per-stage time
// budgets and an overall deadline. Failures and timeouts are terminal.
package lifecycle

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/aravind45/whynointerviews/internal/config"
	"github.com/aravind45/whynointerviews/internal/diagnosis"
	apperrors "github.com/aravind45/whynointerviews/internal/errors"
	"github.com/aravind45/whynointerviews/internal/models"
	"github.com/aravind45/whynointerviews/internal/observability"
	"github.com/aravind45/whynointerviews/internal/protect"
	"github.com/aravind45/whynointerviews/internal/repositories"
	"github.com/aravind45/whynointerviews/internal/resume"
)

// SubmitRequest is an incoming analysis submission.
type SubmitRequest struct {
	SessionID      string
	FileData       []byte
	FileType       string
	TargetTitle    string
	JobDescription string
}

// Manager owns submission intake, the worker pool, and result retrieval.
type Manager struct {
	subs      repositories.SubmissionRepository
	diags     repositories.DiagnosisRepository
	sealer    *protect.Sealer
	extractor resume.Extractor
	synth     *diagnosis.Synthesizer
	cfg       config.LifecycleConfig
	app       config.AppConfig
	retention time.Duration
	metrics   *observability.Metrics
	logger    *apperrors.Logger

	queue    chan uuid.UUID
	inflight singleflight.Group
	stopChan chan struct{}
	wg       sync.WaitGroup
}

// NewManager wires the pipeline.
func NewManager(
	subs repositories.SubmissionRepository,
	diags repositories.DiagnosisRepository,
	sealer *protect.Sealer,
	extractor resume.Extractor,
	synth *diagnosis.Synthesizer,
	cfg config.LifecycleConfig,
	app config.AppConfig,
	retention time.Duration,
	logger *apperrors.Logger,
) *Manager {
	return &Manager{
		subs:      subs,
		diags:     diags,
		sealer:    sealer,
		extractor: extractor,
		synth:     synth,
		cfg:       cfg,
		app:       app,
		retention: retention,
		logger:    logger,
		queue:     make(chan uuid.UUID, cfg.QueueSize),
		stopChan:  make(chan struct{}),
	}
}

// SetMetrics attaches metric instruments to the pipeline and its
// synthesizer. Safe to skip; recording is disabled until called.
func (m *Manager) SetMetrics(metrics *observability.Metrics) {
	m.metrics = metrics
	if m.synth != nil {
		m.synth.SetMetrics(metrics)
	}
}

// Submit validates and stores a new submission and queues it for analysis.
// Content is sealed before the row is written.
func (m *Manager) Submit(ctx context.Context, req SubmitRequest) (*models.Submission, error) {
	if err := m.validate(req); err != nil {
		return nil, err
	}

	hash := sha256.Sum256(req.FileData)
	sub := &models.Submission{
		ID:             uuid.New(),
		SessionID:      req.SessionID,
		FileHash:       hex.EncodeToString(hash[:]),
		FileType:       strings.ToLower(req.FileType),
		TargetTitleRaw: req.TargetTitle,
		Status:         models.StatusPending,
	}
	if jd := strings.TrimSpace(req.JobDescription); jd != "" {
		sub.JobDescription = &jd
	}

	sealed, err := m.sealer.Seal(req.FileData, sub.ID.String())
	if err != nil {
		return nil, err
	}
	sub.EncryptedContent = sealed

	now := time.Now().UTC()
	sub.CreatedAt = now
	sub.UpdatedAt = now
	sub.ExpiresAt = now.Add(m.retention)

	if err := m.subs.Create(ctx, sub); err != nil {
		return nil, err
	}

	if !m.enqueue(sub.ID) && m.logger != nil {
		// The poller will pick it up on the next tick.
		m.logger.Warn("Analysis queue full, submission deferred to poller",
			"submission_id", sub.ID.String())
	}
	return sub, nil
}

func (m *Manager) validate(req SubmitRequest) error {
	if len(req.FileData) == 0 {
		return apperrors.NewValidationError(apperrors.ErrCodeFileNotReadable,
			"Submission contains no file data", nil)
	}
	if m.app.MaxFileSize > 0 && int64(len(req.FileData)) > m.app.MaxFileSize {
		return apperrors.NewValidationError(apperrors.ErrCodeInvalidFormat,
			fmt.Sprintf("File exceeds the %d byte limit", m.app.MaxFileSize), nil)
	}
	fileType := strings.ToLower(strings.TrimPrefix(req.FileType, "."))
	if !slices.Contains(m.app.FileTypes, fileType) {
		return apperrors.NewValidationError(apperrors.ErrCodeInvalidFormat,
			fmt.Sprintf("Unsupported file type %q, accepted: %s", req.FileType, strings.Join(m.app.FileTypes, ", ")), nil)
	}
	if strings.TrimSpace(req.TargetTitle) == "" {
		return apperrors.NewValidationError(apperrors.ErrCodeMissingTitle,
			"Target job title is required", nil)
	}
	return nil
}

// Start launches the worker pool and the pending poller.
func (m *Manager) Start(ctx context.Context) {
	for i := 0; i < m.cfg.WorkerCount; i++ {
		m.wg.Add(1)
		go m.worker(ctx)
	}
	m.wg.Add(1)
	go m.pollPending(ctx)

	if m.logger != nil {
		m.logger.Info("Analysis pipeline started",
			"workers", m.cfg.WorkerCount,
			"queue_size", m.cfg.QueueSize,
			"poll_interval", m.cfg.PollInterval.String())
	}
}

// Stop drains the pipeline and waits for in-flight analyses.
func (m *Manager) Stop() {
	close(m.stopChan)
	m.wg.Wait()
}

func (m *Manager) enqueue(id uuid.UUID) bool {
	select {
	case m.queue <- id:
		return true
	default:
		return false
	}
}

func (m *Manager) worker(ctx context.Context) {
	defer m.wg.Done()
	for {
		select {
		case id := <-m.queue:
			m.Process(ctx, id)
		case <-m.stopChan:
			return
		case <-ctx.Done():
			return
		}
	}
}

// pollPending recovers submissions that never made it onto the channel,
// including work left pending by a crashed instance.
func (m *Manager) pollPending(ctx context.Context) {
	defer m.wg.Done()
	ticker := time.NewTicker(m.cfg.PollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			pending, err := m.subs.FindPending(ctx, m.cfg.QueueSize)
			if err != nil {
				if m.logger != nil {
					m.logger.LogError(err, "Pending poll failed")
				}
				continue
			}
			for _, sub := range pending {
				if !m.enqueue(sub.ID) {
					break
				}
			}
		case <-m.stopChan:
			return
		case <-ctx.Done():
			return
		}
	}
}

// Process runs the pipeline for one submission. Concurrent calls for the
// same submission collapse onto one execution; the status transition guard
// makes a duplicate run a no-op even across instances.
func (m *Manager) Process(ctx context.Context, id uuid.UUID) {
	m.inflight.Do(id.String(), func() (any, error) {
		m.run(ctx, id)
		return nil, nil
	})
}

func (m *Manager) run(ctx context.Context, id uuid.UUID) {
	overallCtx, cancel := context.WithTimeout(ctx, m.cfg.OverallTimeout)
	defer cancel()

	sub, err := m.subs.FindByID(overallCtx, id)
	if err != nil {
		if m.logger != nil {
			m.logger.LogError(err, "Cannot load submission for processing", "submission_id", id.String())
		}
		return
	}
	if sub.Status != models.StatusPending {
		return
	}
	if err := m.subs.Transition(overallCtx, id, models.StatusPending, models.StatusProcessing); err != nil {
		// Another worker won the claim.
		return
	}

	started := time.Now()

	text, err := m.parseStage(overallCtx, sub)
	if err != nil {
		m.fail(id, err, started)
		return
	}

	if err := m.subs.Transition(overallCtx, id, models.StatusProcessing, models.StatusAnalyzing); err != nil {
		return
	}

	outcome, err := m.diagnoseStage(overallCtx, sub, text)
	if err != nil {
		m.fail(id, err, started)
		return
	}

	if err := m.complete(overallCtx, sub, outcome, started); err != nil {
		m.fail(id, err, started)
		return
	}

	m.metrics.RecordDiagnosis(overallCtx, string(models.StatusCompleted), time.Since(started))
	if m.logger != nil {
		m.logger.Info("Submission analyzed",
			"submission_id", id.String(),
			"confidence", outcome.Diagnosis.Confidence,
			"degraded", outcome.Degraded,
			"elapsed", time.Since(started).String())
	}
}

// parseStage opens the sealed document and extracts its text within the
// parse budget.
func (m *Manager) parseStage(ctx context.Context, sub *models.Submission) (string, error) {
	stageCtx, cancel := context.WithTimeout(ctx, m.cfg.ParseTimeout)
	defer cancel()

	type parsed struct {
		text string
		err  error
	}
	ch := make(chan parsed, 1)
	go func() {
		data, err := m.sealer.Open(sub.EncryptedContent, sub.ID.String())
		if err != nil {
			ch <- parsed{err: err}
			return
		}
		content, err := m.extractor.Extract(data, sub.FileType)
		if err != nil {
			ch <- parsed{err: err}
			return
		}
		ch <- parsed{text: content.Text}
	}()

	select {
	case p := <-ch:
		if stageCtx.Err() != nil {
			break
		}
		return p.text, p.err
	case <-stageCtx.Done():
	}
	return "", apperrors.NewTimeoutError(apperrors.ErrCodeStageTimeout,
		fmt.Sprintf("Parse stage exceeded its %s budget", m.cfg.ParseTimeout), stageCtx.Err())
}

// diagnoseStage runs the synthesis pipeline within the diagnose budget.
func (m *Manager) diagnoseStage(ctx context.Context, sub *models.Submission, text string) (*diagnosis.Outcome, error) {
	stageCtx, cancel := context.WithTimeout(ctx, m.cfg.DiagnoseTimeout)
	defer cancel()

	req := diagnosis.Request{
		ResumeText:  text,
		TargetTitle: sub.TargetTitleRaw,
	}
	if sub.JobDescription != nil {
		req.JobDescription = *sub.JobDescription
	}

	outcome, err := m.synth.Run(stageCtx, req)
	if err != nil {
		if stageCtx.Err() != nil {
			return nil, apperrors.NewTimeoutError(apperrors.ErrCodeStageTimeout,
				fmt.Sprintf("Diagnose stage exceeded its %s budget", m.cfg.DiagnoseTimeout), stageCtx.Err())
		}
		return nil, err
	}
	return outcome, nil
}

// complete persists the diagnosis and moves the submission to completed.
// The repository writes both in one transaction, so a completed submission
// always has its result and a stored result always belongs to a completed
// submission.
func (m *Manager) complete(ctx context.Context, sub *models.Submission, outcome *diagnosis.Outcome, started time.Time) error {
	if outcome.Resolution != nil && outcome.Resolution.Matched() {
		canonicalID := outcome.Resolution.Canonical.ID
		confidence := outcome.Resolution.Confidence
		if err := m.subs.SetCanonicalTitle(ctx, sub.ID, &canonicalID, &confidence); err != nil && m.logger != nil {
			m.logger.LogError(err, "Could not record title resolution", "submission_id", sub.ID.String())
		}
	}

	result := &models.DiagnosisResult{
		SubmissionID:      sub.ID,
		OverallConfidence: outcome.Diagnosis.Confidence,
		DataCompleteness:  outcome.DataCompleteness,
		IsCompetitive:     outcome.IsCompetitive,
		ModelUsed:         outcome.ModelUsed,
		AnalysisMillis:    time.Since(started).Milliseconds(),
		CreatedAt:         time.Now().UTC(),
	}
	return m.diags.CompleteSubmission(ctx, result, outcome.Diagnosis)
}

// fail marks the submission terminally failed or timed out. Uses a fresh
// context: the overall deadline being spent must not prevent recording the
// failure.
func (m *Manager) fail(id uuid.UUID, cause error, started time.Time) {
	status := models.StatusFailed
	if apperrors.IsErrorType(cause, apperrors.ErrorTypeTimeout) {
		status = models.StatusTimeout
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	m.metrics.RecordDiagnosis(ctx, string(status), time.Since(started))
	if err := m.subs.MarkFailed(ctx, id, status, cause.Error()); err != nil {
		if m.logger != nil {
			m.logger.LogError(err, "Could not record submission failure", "submission_id", id.String())
		}
		return
	}
	if m.logger != nil {
		m.logger.LogError(cause, "Submission analysis failed",
			"submission_id", id.String(),
			"status", string(status))
	}
}

// Status returns the submission row for status polling.
func (m *Manager) Status(ctx context.Context, id uuid.UUID) (*models.Submission, error) {
	return m.subs.FindByID(ctx, id)
}

// Result returns the diagnosis for a completed submission. Calling it any
// number of times returns the same stored result.
func (m *Manager) Result(ctx context.Context, id uuid.UUID) (*models.Submission, *models.DiagnosisResult, error) {
	sub, err := m.subs.FindByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if sub.Status != models.StatusCompleted {
		return sub, nil, nil
	}
	result, err := m.diags.FindBySubmission(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	return sub, result, nil
}

// Delete purges a submission's content on user request and returns the
// confirmation.
func (m *Manager) Delete(ctx context.Context, id uuid.UUID) (*models.DeletionConfirmation, error) {
	return protect.Purge(ctx, m.subs, id)
}
