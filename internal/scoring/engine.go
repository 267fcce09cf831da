package scoring

import (
	"sort"

	"github.com/aravind45/whynointerviews/internal/models"
)

const (
	// MaxRootCauses bounds how many causes a diagnosis surfaces.
	MaxRootCauses = 5
	// MaxRecommendations bounds how many fixes a diagnosis surfaces.
	MaxRecommendations = 3
	// DegradedConfidenceCap bounds confidence when reasoning assistance
	// was unavailable and only deterministic checks ran.
	DegradedConfidenceCap = 60
)

// Diagnosis is a ranked, capped set of root causes and recommendations.
// Attachments[i] is the index into RootCauses that Recommendations[i]
// addresses; the persistence layer turns it into a RelatedRootCause ID once
// the causes have been assigned theirs.
type Diagnosis struct {
	RootCauses      []models.RootCause
	Recommendations []models.Recommendation
	Attachments     []int
	Confidence      int // 0-100
	Deterministic   bool
}

// ConfidenceInput carries the signals the confidence computation weighs.
type ConfidenceInput struct {
	// DataCompleteness is the 0-100 share of expected resume sections found.
	DataCompleteness int
	// HasJobDescription is true when the caller supplied a posting to
	// diagnose against instead of a role template alone.
	HasJobDescription bool
	// HasTemplate is true when the target title resolved to a role template.
	HasTemplate bool
	// DeterministicFindings and ModelFindings count the findings behind the
	// diagnosis by origin.
	DeterministicFindings int
	ModelFindings         int
	// Degraded is true when reasoning assistance was unavailable, so whole
	// classes of causes may be missing from the diagnosis.
	Degraded bool
}

// Confidence scores how much to trust a diagnosis. Richer input raises it;
// a heavier model share among the findings lowers it, so a purely
// deterministic diagnosis over the same data always scores highest.
func Confidence(in ConfidenceInput) int {
	// Base from structural completeness: 20..60.
	score := 20 + in.DataCompleteness*40/100
	if in.HasTemplate {
		score += 10
	}
	if in.HasJobDescription {
		score += 15
	}
	// Deterministic checks are reproducible; model findings are not. The
	// model's share of the total discounts up to 15 points.
	total := in.DeterministicFindings + in.ModelFindings
	if total > 0 {
		score -= in.ModelFindings * 15 / total
	}
	if score > 100 {
		score = 100
	}
	if score < 0 {
		score = 0
	}
	if in.Degraded && score > DegradedConfidenceCap {
		score = DegradedConfidenceCap
	}
	return score
}

// Rank orders findings by severity times impact descending, breaking ties
// by severity and then title so equal inputs always produce equal output,
// caps causes at MaxRootCauses with dense priorities 1..N, and derives at
// most MaxRecommendations fixes ranked by expected impact. A fix whose
// source cause was cut by the cap attaches to the lowest-ranked surviving
// cause instead of dangling.
func Rank(findings []Finding, conf ConfidenceInput) Diagnosis {
	ranked := make([]Finding, len(findings))
	copy(ranked, findings)
	for i := range ranked {
		ranked[i].Severity = clip(ranked[i].Severity)
		ranked[i].Impact = clip(ranked[i].Impact)
		ranked[i].FixImpact = clip(ranked[i].FixImpact)
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		si := ranked[i].Severity * ranked[i].Impact
		sj := ranked[j].Severity * ranked[j].Impact
		if si != sj {
			return si > sj
		}
		if ranked[i].Severity != ranked[j].Severity {
			return ranked[i].Severity > ranked[j].Severity
		}
		return ranked[i].Title < ranked[j].Title
	})

	keptCauses := len(ranked)
	if keptCauses > MaxRootCauses {
		keptCauses = MaxRootCauses
	}

	diag := Diagnosis{Deterministic: conf.ModelFindings == 0}
	for i := 0; i < keptCauses; i++ {
		f := ranked[i]
		diag.RootCauses = append(diag.RootCauses, models.RootCause{
			Title:       f.Title,
			Description: f.Description,
			Category:    f.Category,
			Severity:    f.Severity,
			Impact:      f.Impact,
			Priority:    i + 1,
			Evidence:    f.Evidence,
		})
	}

	diag.Recommendations, diag.Attachments = buildRecommendations(ranked, keptCauses)
	diag.Confidence = Confidence(conf)
	return diag
}

// buildRecommendations derives fixes from the ranked findings. Causes are
// ranked by harm and fixes by expected impact, so the two orderings differ.
func buildRecommendations(ranked []Finding, keptCauses int) ([]models.Recommendation, []int) {
	var order []int
	for i, f := range ranked {
		if f.FixTitle != "" {
			order = append(order, i)
		}
	}
	sort.SliceStable(order, func(i, j int) bool {
		fi, fj := ranked[order[i]], ranked[order[j]]
		if fi.FixImpact != fj.FixImpact {
			return fi.FixImpact > fj.FixImpact
		}
		return order[i] < order[j]
	})
	if len(order) > MaxRecommendations {
		order = order[:MaxRecommendations]
	}

	var recs []models.Recommendation
	var attachments []int
	for rank, idx := range order {
		f := ranked[idx]
		recs = append(recs, models.Recommendation{
			Title:          f.FixTitle,
			Description:    f.FixDescription,
			Steps:          f.FixSteps,
			ExpectedImpact: f.FixImpact,
			Difficulty:     f.FixDifficulty,
			TimeEstimate:   f.FixTime,
			Priority:       rank + 1,
		})
		attach := idx
		if attach >= keptCauses {
			attach = keptCauses - 1
		}
		attachments = append(attachments, attach)
	}
	return recs, attachments
}
