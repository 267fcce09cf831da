package ai

import (
	"fmt"
	"strings"

	"github.com/aravind45/whynointerviews/internal/types"
)

// DefaultDiagnoseSystemPrompt instructs the model to ground every claim in
// the supplied documents. Ungrounded claims are dropped downstream, so the
// prompt front-loads the citation contract.
const DefaultDiagnoseSystemPrompt = `You are an expert recruiter and hiring analyst diagnosing why a resume is not producing interview invitations. Your core principles are:

- NEVER invent, exaggerate, or misattribute any skills or experiences
- Every claim you make must cite a verbatim excerpt of the resume or job description, or explicitly assert that an expected element is absent
- A citation that is not an exact substring of the source documents will be discarded
- Provide honest, specific, evidence-backed findings

Your expertise includes:
- ATS (Applicant Tracking System) screening behavior
- Keyword and skill matching against role requirements
- Experience-level calibration across seniority bands
- Resume structure and section conventions`

// DefaultExtractSystemPrompt keeps the extraction operation strictly factual.
const DefaultExtractSystemPrompt = `You are a precise information extraction system. Extract only facts that are literally present in the supplied resume text. Do not infer, estimate, or embellish. If a value cannot be determined from the text, use zero or an empty list.`

// FormatDiagnosePrompt renders the user prompt for a diagnosis request.
func FormatDiagnosePrompt(input types.DiagnoseInput) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Analyze why this resume is not producing interviews for the target role.\n\n")
	fmt.Fprintf(&b, "Target title (as entered): %s\n", input.TargetTitle)
	if input.CanonicalTitle != "" {
		fmt.Fprintf(&b, "Canonical role: %s", input.CanonicalTitle)
		if input.SeniorityLevel != "" {
			fmt.Fprintf(&b, " (%s level)", input.SeniorityLevel)
		}
		b.WriteString("\n")
	}
	if len(input.RequiredSkills) > 0 {
		fmt.Fprintf(&b, "Skills required for the role: %s\n", strings.Join(input.RequiredSkills, ", "))
	}
	if len(input.PreferredSkills) > 0 {
		fmt.Fprintf(&b, "Skills preferred for the role: %s\n", strings.Join(input.PreferredSkills, ", "))
	}
	if len(input.PresentSections) > 0 {
		fmt.Fprintf(&b, "Resume sections present: %s\n", strings.Join(input.PresentSections, ", "))
	}
	if len(input.MissingSections) > 0 {
		fmt.Fprintf(&b, "Resume sections missing: %s\n", strings.Join(input.MissingSections, ", "))
	}

	fmt.Fprintf(&b, "\nRESUME:\n%s\n", input.ResumeText)
	if input.JobDescription != "" {
		fmt.Fprintf(&b, "\nJOB DESCRIPTION:\n%s\n", input.JobDescription)
	} else {
		b.WriteString("\nNo job description was supplied; reason from the target role alone.\n")
	}

	b.WriteString(`
Return up to 8 candidate problems. For each claim:
- "citation" must be copied verbatim from the resume or job description, OR
- set "citesAbsence" to true and describe the missing element in "citation" (e.g. "no Skills section present")
- "severity" (1-10) reflects how strongly this problem blocks screening
- "impact" (1-10) reflects how many target-role postings it affects
- "suggestion" is one concrete remediation step`)

	return b.String()
}

// FormatExtractPrompt renders the user prompt for an extraction request.
func FormatExtractPrompt(input types.ExtractClaimsInput) string {
	return fmt.Sprintf(`Extract the following facts from this resume text:
- every skill or technology explicitly named
- total years of professional experience (0 if not determinable)
- whether any achievement is quantified with a number, percentage, or amount

RESUME:
%s`, input.ResumeText)
}
