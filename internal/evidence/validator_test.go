package evidence

import (
	"testing"

	"github.com/aravind45/whynointerviews/internal/models"
	"github.com/aravind45/whynointerviews/internal/resume"
	"github.com/aravind45/whynointerviews/internal/types"
)

const testResume = `Jane Doe
jane.doe@example.com | +1 555 123 4567

Summary
Backend engineer with five years building Go services.

Experience
Acme Corp, Software Engineer, 2019-2024
- Built payment reconciliation pipeline in Go
- Reduced batch latency by 40%

Education
BSc Computer Science, State University
`

func newTestValidator(jd string) *Validator {
	return NewValidator(resume.Split(testResume), jd)
}

func TestValidateAcceptsVerbatimResumeCitation(t *testing.T) {
	v := newTestValidator("")

	res := v.Validate([]types.ModelClaim{{
		Title:    "Experience framed as duties",
		Category: string(models.CategoryWeakAchievements),
		Citation: "Built payment reconciliation pipeline in Go",
	}})

	if len(res.Accepted) != 1 || res.Rejected != 0 {
		t.Fatalf("accepted=%d rejected=%d, want 1/0", len(res.Accepted), res.Rejected)
	}
	ev := res.Accepted[0].Evidence[0]
	if ev.Type != models.EvidencePresent {
		t.Errorf("evidence type = %q, want present", ev.Type)
	}
	if ev.Location == nil || *ev.Location != "resume:experience" {
		t.Errorf("location = %v, want resume:experience", ev.Location)
	}
	if ev.Confidence != 100 {
		t.Errorf("confidence = %d, want 100 for a section-located citation", ev.Confidence)
	}
}

func TestValidateRejectsParaphrasedCitation(t *testing.T) {
	v := newTestValidator("")

	res := v.Validate([]types.ModelClaim{{
		Title:    "Vague impact",
		Citation: "built a payments pipeline using Golang",
	}})

	if len(res.Accepted) != 0 || res.Rejected != 1 {
		t.Fatalf("accepted=%d rejected=%d, want 0/1", len(res.Accepted), res.Rejected)
	}
}

func TestValidateAcceptsJobDescriptionCitation(t *testing.T) {
	v := newTestValidator("We require 3+ years of Kubernetes in production.")

	res := v.Validate([]types.ModelClaim{{
		Title:    "Required skill not evidenced",
		Citation: "3+ years of Kubernetes in production",
	}})

	if len(res.Accepted) != 1 {
		t.Fatalf("accepted=%d, want 1", len(res.Accepted))
	}
	ev := res.Accepted[0].Evidence[0]
	if ev.Location == nil || *ev.Location != SourceJobDescription {
		t.Errorf("location = %v, want job_description", ev.Location)
	}
}

func TestValidateAbsenceOfMissingSection(t *testing.T) {
	v := newTestValidator("")

	res := v.Validate([]types.ModelClaim{{
		Title:        "No skills section",
		Category:     string(models.CategoryMissingSection),
		Citation:     "resume has no skills section",
		CitesAbsence: true,
	}})

	if len(res.Accepted) != 1 {
		t.Fatalf("accepted=%d, want 1", len(res.Accepted))
	}
	ev := res.Accepted[0].Evidence[0]
	if ev.Type != models.EvidenceAbsent {
		t.Errorf("evidence type = %q, want absent", ev.Type)
	}
	if ev.Confidence != 100 {
		t.Errorf("confidence = %d, want 100 for a structurally missing section", ev.Confidence)
	}
}

func TestValidateRejectsAbsenceClaimForPresentSection(t *testing.T) {
	v := newTestValidator("")

	res := v.Validate([]types.ModelClaim{{
		Title:        "Missing experience",
		Citation:     "no experience section present",
		CitesAbsence: true,
	}})

	if res.Rejected != 1 {
		t.Fatalf("rejected=%d, want 1: experience section exists", res.Rejected)
	}
}

func TestValidateAbsenceOfTerm(t *testing.T) {
	v := newTestValidator("")

	tests := []struct {
		name     string
		citation string
		accepted bool
	}{
		{"genuinely absent term", "Kubernetes", true},
		{"present term", "reconciliation", false},
		{"present term different case", "ACME", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := v.Validate([]types.ModelClaim{{
				Title:        "Skill gap",
				Citation:     tt.citation,
				CitesAbsence: true,
			}})
			got := len(res.Accepted) == 1
			if got != tt.accepted {
				t.Errorf("accepted = %v, want %v", got, tt.accepted)
			}
		})
	}
}

func TestValidateDropsEmptyCitation(t *testing.T) {
	v := newTestValidator("")

	res := v.Validate([]types.ModelClaim{
		{Title: "No citation at all"},
		{Title: "Whitespace citation", Citation: "   "},
	})

	if len(res.Accepted) != 0 || res.Rejected != 2 {
		t.Fatalf("accepted=%d rejected=%d, want 0/2", len(res.Accepted), res.Rejected)
	}
}
