package types

// DiagnoseInput carries everything the reasoning capability needs to
// propose rejection causes for one submission.
type DiagnoseInput struct {
	ResumeText       string   `json:"resumeText"`
	TargetTitle      string   `json:"targetTitle"`
	CanonicalTitle   string   `json:"canonicalTitle,omitempty"`
	SeniorityLevel   string   `json:"seniorityLevel,omitempty"`
	JobDescription   string   `json:"jobDescription,omitempty"`
	RequiredSkills   []string `json:"requiredSkills,omitempty"`
	PreferredSkills  []string `json:"preferredSkills,omitempty"`
	PresentSections  []string `json:"presentSections,omitempty"`
	MissingSections  []string `json:"missingSections,omitempty"`
}

// ModelClaim is one model-assisted candidate problem. Every claim must cite
// either a verbatim excerpt of a source document or an explicit absence;
// claims that fail evidence validation are dropped before scoring.
type ModelClaim struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Category    string `json:"category"`
	Severity    int    `json:"severity"` // 1-10 as proposed by the model, re-clipped later
	Impact      int    `json:"impact"`   // 1-10 as proposed by the model, re-clipped later
	Citation    string `json:"citation"`
	CitesAbsence bool  `json:"citesAbsence"`
	Suggestion  string `json:"suggestion"`
}

// DiagnoseOutput is the structured JSON the reasoning capability returns.
type DiagnoseOutput struct {
	Claims        []ModelClaim `json:"claims"`
	IsCompetitive bool         `json:"isCompetitive"`
	Summary       string       `json:"summary"`
}

// ExtractClaimsInput asks the reasoning capability for deterministic-style
// extraction of resume facts (skills and years of experience), run with a
// near-zero temperature.
type ExtractClaimsInput struct {
	ResumeText string `json:"resumeText"`
}

// ExtractClaimsOutput is the structured extraction result.
type ExtractClaimsOutput struct {
	Skills          []string `json:"skills"`
	YearsExperience int      `json:"yearsExperience"`
	HasQuantifiedAchievements bool `json:"hasQuantifiedAchievements"`
}
