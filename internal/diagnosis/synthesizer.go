// Package diagnosis runs the full analysis pipeline for one submission:
// title resolution, resume sectioning, model-assisted claim generation,
// evidence validation, deterministic checks, and ranked synthesis.
package diagnosis

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/aravind45/whynointerviews/internal/ai"
	"github.com/aravind45/whynointerviews/internal/errors"
	"github.com/aravind45/whynointerviews/internal/evidence"
	"github.com/aravind45/whynointerviews/internal/models"
	"github.com/aravind45/whynointerviews/internal/observability"
	"github.com/aravind45/whynointerviews/internal/resume"
	"github.com/aravind45/whynointerviews/internal/scoring"
	"github.com/aravind45/whynointerviews/internal/titles"
	"github.com/aravind45/whynointerviews/internal/types"
)

// Request is one analysis to run. ResumeText is the already-extracted text.
type Request struct {
	ResumeText     string
	TargetTitle    string
	JobDescription string
}

// Outcome is the synthesized diagnosis plus the context it was produced in.
type Outcome struct {
	Diagnosis        scoring.Diagnosis
	Resolution       *titles.Resolution
	DataCompleteness int
	IsCompetitive    bool
	Summary          string
	ModelUsed        string
	// Degraded is true when reasoning assistance was unavailable and the
	// diagnosis rests on deterministic checks alone.
	Degraded bool
	// RejectedClaims counts model claims dropped for unverifiable citations.
	RejectedClaims int
	Elapsed        time.Duration
}

// Synthesizer orchestrates the pipeline. The reasoning services may be nil,
// in which case every analysis runs deterministic-only.
type Synthesizer struct {
	normalizer *titles.Normalizer
	store      titles.Store
	diagnose   *ai.Service
	extract    *ai.Service
	metrics    *observability.Metrics
	logger     *errors.Logger
}

// NewSynthesizer wires the pipeline stages together.
func NewSynthesizer(normalizer *titles.Normalizer, store titles.Store, diagnose, extract *ai.Service, logger *errors.Logger) *Synthesizer {
	return &Synthesizer{
		normalizer: normalizer,
		store:      store,
		diagnose:   diagnose,
		extract:    extract,
		logger:     logger,
	}
}

// SetMetrics attaches metric instruments. A nil receiver value disables
// recording without any call-site guards.
func (s *Synthesizer) SetMetrics(m *observability.Metrics) {
	s.metrics = m
}

// Run executes the pipeline for one request. It fails only when no grounded
// finding of any kind could be produced; a reasoning outage with surviving
// deterministic findings degrades rather than fails.
func (s *Synthesizer) Run(ctx context.Context, req Request) (*Outcome, error) {
	start := time.Now()

	if strings.TrimSpace(req.ResumeText) == "" {
		return nil, errors.NewValidationError(errors.ErrCodeInsufficientText,
			"Resume text is empty", nil)
	}
	if strings.TrimSpace(req.TargetTitle) == "" {
		return nil, errors.NewValidationError(errors.ErrCodeMissingTitle,
			"Target job title is required", nil)
	}

	doc := resume.Split(req.ResumeText)
	resolution := s.normalizer.Resolve(ctx, req.TargetTitle)
	s.metrics.RecordTitleResolution(ctx, string(resolution.Method))

	var template *models.RoleTemplate
	if resolution.Matched() {
		tmpl, err := s.store.TemplateFor(ctx, resolution.Canonical.ID)
		if err != nil && s.logger != nil {
			s.logger.LogError(err, "Role template lookup failed, continuing without one")
		}
		template = tmpl
	}

	in := scoring.RuleInput{
		Doc:            doc,
		TargetTitle:    req.TargetTitle,
		TitleIsGeneric: resolution.IsGeneric,
		JobDescription: req.JobDescription,
		Template:       template,
	}

	modelUsed := "none"
	degraded := true
	rejected := 0
	isCompetitive := false
	summary := ""

	var modelFindings []scoring.Finding
	if s.diagnose != nil {
		out, ok := s.runReasoning(ctx, req, doc, resolution, template, &in, &rejected)
		if ok {
			degraded = false
			modelFindings = out.findings
			isCompetitive = out.isCompetitive
			summary = out.summary
			modelUsed = out.model
		}
	}

	findings := scoring.Evaluate(in)
	deterministicCount := len(findings)
	findings = append(findings, modelFindings...)

	if len(findings) == 0 {
		if degraded && s.diagnose != nil {
			return nil, errors.NewReasoningError(errors.ErrCodeReasoningFailed,
				"Reasoning capability unavailable and deterministic checks found nothing to report", nil)
		}
		return nil, errors.NewContentError(errors.ErrCodeNoAdmissibleCauses,
			"No grounded root cause could be established for this submission", nil)
	}

	completeness := doc.Completeness()
	diag := scoring.Rank(findings, scoring.ConfidenceInput{
		DataCompleteness:      completeness,
		HasJobDescription:     strings.TrimSpace(req.JobDescription) != "",
		HasTemplate:           template != nil,
		DeterministicFindings: deterministicCount,
		ModelFindings:         len(modelFindings),
		Degraded:              degraded,
	})

	if degraded && summary == "" {
		summary = degradedSummary(diag)
	}

	return &Outcome{
		Diagnosis:        diag,
		Resolution:       resolution,
		DataCompleteness: completeness,
		IsCompetitive:    isCompetitive,
		Summary:          summary,
		ModelUsed:        modelUsed,
		Degraded:         degraded,
		RejectedClaims:   rejected,
		Elapsed:          time.Since(start),
	}, nil
}

type reasoningOutcome struct {
	findings      []scoring.Finding
	isCompetitive bool
	summary       string
	model         string
}

// runReasoning drives the model-assisted stages. Any failure is logged and
// reported as unavailable rather than propagated; the caller decides whether
// deterministic findings are enough.
func (s *Synthesizer) runReasoning(ctx context.Context, req Request, doc *resume.Document, resolution *titles.Resolution, template *models.RoleTemplate, in *scoring.RuleInput, rejected *int) (*reasoningOutcome, bool) {
	if s.extract != nil {
		var extracted types.ExtractClaimsOutput
		err := s.metrics.TrackAIOperationWithTokens(ctx, "extract", func(ctx context.Context) *observability.AIOperationResult {
			out, usage, err := s.extract.Provider.ExtractClaims(ctx, types.ExtractClaimsInput{ResumeText: req.ResumeText})
			extracted = out
			return &observability.AIOperationResult{Error: err, TokenUsage: toTokenUsage(usage)}
		})
		if err != nil {
			if s.logger != nil {
				s.logger.LogError(err, "Claim extraction failed, experience rules will not run")
			}
		} else {
			in.ExtractedSkills = extracted.Skills
			in.YearsExperience = extracted.YearsExperience
			in.YearsKnown = true
			in.HasQuantified = extracted.HasQuantifiedAchievements
			in.QuantifiedKnown = true
		}
	}

	input := types.DiagnoseInput{
		ResumeText:      req.ResumeText,
		TargetTitle:     req.TargetTitle,
		JobDescription:  req.JobDescription,
		PresentSections: doc.Present(),
		MissingSections: doc.Missing(),
	}
	if resolution.Matched() {
		input.CanonicalTitle = resolution.Canonical.Title
		input.SeniorityLevel = string(resolution.Canonical.SeniorityLevel)
	}
	if template != nil {
		input.RequiredSkills = template.RequiredSkills
		input.PreferredSkills = template.PreferredSkills
	}

	var out types.DiagnoseOutput
	err := s.metrics.TrackAIOperationWithTokens(ctx, "diagnose", func(ctx context.Context) *observability.AIOperationResult {
		o, usage, err := s.diagnose.Provider.Diagnose(ctx, input)
		out = o
		return &observability.AIOperationResult{Error: err, TokenUsage: toTokenUsage(usage)}
	})
	if err != nil {
		if s.logger != nil {
			s.logger.LogError(err, "Reasoning diagnosis failed, degrading to deterministic checks")
		}
		return nil, false
	}

	validated := evidence.NewValidator(doc, req.JobDescription).Validate(out.Claims)
	*rejected = validated.Rejected
	if s.logger != nil && validated.Rejected > 0 {
		s.logger.Warn("Dropped model claims with unverifiable citations",
			"rejected", validated.Rejected,
			"accepted", len(validated.Accepted))
	}

	model := "unknown"
	if info := s.diagnose.Provider.GetModelInfo(ctx); info != nil {
		model = info.Name
	}

	return &reasoningOutcome{
		findings:      claimsToFindings(validated.Accepted),
		isCompetitive: out.IsCompetitive,
		summary:       out.Summary,
		model:         model,
	}, true
}

func toTokenUsage(u *ai.TokenUsage) *observability.TokenUsage {
	if u == nil {
		return nil
	}
	return &observability.TokenUsage{
		InputTokens:  u.InputTokens,
		OutputTokens: u.OutputTokens,
		TotalTokens:  u.TotalTokens,
	}
}

// claimsToFindings converts validated model claims into scorer findings.
func claimsToFindings(accepted []evidence.Validated) []scoring.Finding {
	var out []scoring.Finding
	for _, v := range accepted {
		c := v.Claim
		f := scoring.Finding{
			Category:    claimCategory(c.Category),
			Title:       c.Title,
			Description: c.Description,
			Severity:    c.Severity,
			Impact:      c.Impact,
			Evidence:    v.Evidence,
		}
		if strings.TrimSpace(c.Suggestion) != "" {
			f.FixTitle = c.Suggestion
			f.FixDescription = c.Suggestion
			f.FixImpact = c.Impact
			f.FixDifficulty = models.DifficultyMedium
			f.FixTime = "varies"
		}
		out = append(out, f)
	}
	return out
}

// claimCategory maps a free-form model category onto the closed taxonomy.
func claimCategory(raw string) models.RootCauseCategory {
	switch models.RootCauseCategory(strings.ToLower(strings.TrimSpace(raw))) {
	case models.CategoryKeywordMismatch:
		return models.CategoryKeywordMismatch
	case models.CategoryExperienceMismatch:
		return models.CategoryExperienceMismatch
	case models.CategoryATSFormat:
		return models.CategoryATSFormat
	case models.CategoryMissingSection:
		return models.CategoryMissingSection
	case models.CategorySkillGap:
		return models.CategorySkillGap
	case models.CategoryGenericTargeting:
		return models.CategoryGenericTargeting
	default:
		return models.CategoryWeakAchievements
	}
}

// degradedSummary writes a short summary when the model produced none.
func degradedSummary(diag scoring.Diagnosis) string {
	if len(diag.RootCauses) == 0 {
		return "No issues detected by deterministic checks."
	}
	noun := "likely issues"
	if len(diag.RootCauses) == 1 {
		noun = "likely issue"
	}
	return fmt.Sprintf("Automated checks found %d %s; the most significant: %s.",
		len(diag.RootCauses), noun, diag.RootCauses[0].Title)
}
