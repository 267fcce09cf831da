// Package evidence grounds model-proposed findings in source documents.
// A claim survives only when its citation is verifiable: present claims
// must quote the resume or job description verbatim, absence claims must
// reference something genuinely missing from the resume.
package evidence

import (
	"strings"

	"github.com/aravind45/whynointerviews/internal/models"
	"github.com/aravind45/whynointerviews/internal/resume"
	"github.com/aravind45/whynointerviews/internal/types"
)

// Source names where a citation was verified.
const (
	SourceResume         = "resume"
	SourceJobDescription = "job_description"
)

// Validated pairs a surviving claim with the evidence records that ground it.
type Validated struct {
	Claim    types.ModelClaim
	Evidence []models.Evidence
}

// Result is the outcome of validating a batch of model claims.
type Result struct {
	Accepted []Validated
	// Rejected counts claims dropped for unverifiable citations. Kept as a
	// count rather than the claims themselves; rejected text is model
	// output with no grounding and must not leak into results.
	Rejected int
}

// Validator checks claim citations against a split resume and an optional
// job description.
type Validator struct {
	doc            *resume.Document
	jobDescription string
}

// NewValidator builds a Validator for one submission's documents.
func NewValidator(doc *resume.Document, jobDescription string) *Validator {
	return &Validator{doc: doc, jobDescription: jobDescription}
}

// Validate filters claims down to those with verifiable citations.
// Validation is deterministic: the same claims against the same documents
// always produce the same result.
func (v *Validator) Validate(claims []types.ModelClaim) Result {
	var res Result
	for _, claim := range claims {
		ev, ok := v.check(claim)
		if !ok {
			res.Rejected++
			continue
		}
		res.Accepted = append(res.Accepted, Validated{Claim: claim, Evidence: ev})
	}
	return res
}

func (v *Validator) check(claim types.ModelClaim) ([]models.Evidence, bool) {
	citation := strings.TrimSpace(claim.Citation)
	if citation == "" {
		return nil, false
	}
	if claim.CitesAbsence {
		return v.checkAbsence(claim, citation)
	}
	return v.checkPresence(claim, citation)
}

// checkPresence requires the citation to appear verbatim in the resume or
// the job description. Matching is exact on the raw text; a model that
// paraphrases has not cited anything.
func (v *Validator) checkPresence(claim types.ModelClaim, citation string) ([]models.Evidence, bool) {
	if section, found := v.doc.Locate(citation); found {
		ev := models.Evidence{
			Type:        models.EvidencePresent,
			Description: describe(claim),
			Citation:    citation,
			Confidence:  presenceConfidence(section),
		}
		loc := SourceResume
		if section != "" {
			loc = SourceResume + ":" + section
		}
		ev.Location = &loc
		return []models.Evidence{ev}, true
	}

	if v.jobDescription != "" && strings.Contains(v.jobDescription, citation) {
		loc := SourceJobDescription
		return []models.Evidence{{
			Type:        models.EvidencePresent,
			Description: describe(claim),
			Citation:    citation,
			Location:    &loc,
			Confidence:  90,
		}}, true
	}

	return nil, false
}

// checkAbsence verifies that what the claim says is missing really is.
// A missing expected section grounds the claim directly; otherwise the
// cited term must not occur anywhere in the resume.
func (v *Validator) checkAbsence(claim types.ModelClaim, citation string) ([]models.Evidence, bool) {
	if section, ok := referencedSection(citation); ok {
		if v.doc.Has(section) {
			return nil, false
		}
		loc := SourceResume + ":" + section
		return []models.Evidence{{
			Type:        models.EvidenceAbsent,
			Description: describe(claim),
			Citation:    citation,
			Location:    &loc,
			Confidence:  100,
		}}, true
	}

	if containsFold(v.doc.Raw, citation) {
		return nil, false
	}
	loc := SourceResume
	return []models.Evidence{{
		Type:        models.EvidenceAbsent,
		Description: describe(claim),
		Citation:    citation,
		Location:    &loc,
		Confidence:  85,
	}}, true
}

// describe derives an evidence description from the claim it grounds.
func describe(claim types.ModelClaim) string {
	if strings.TrimSpace(claim.Description) != "" {
		return claim.Description
	}
	return claim.Title
}

// presenceConfidence scores a resume citation by how precisely it was
// located. Section-level hits are stronger evidence than a raw-text match.
func presenceConfidence(section string) int {
	if section != "" {
		return 100
	}
	return 90
}

// referencedSection reports the expected section an absence citation names,
// if any ("no skills section", "missing summary").
func referencedSection(citation string) (string, bool) {
	lowered := strings.ToLower(citation)
	for _, name := range resume.ExpectedSections {
		if strings.Contains(lowered, name) {
			return name, true
		}
	}
	return "", false
}

// containsFold is a case-insensitive substring check. Absence claims cite
// terms ("Kubernetes") rather than verbatim excerpts, so casing must not
// manufacture an absence.
func containsFold(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}
