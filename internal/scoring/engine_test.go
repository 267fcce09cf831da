package scoring

import (
	"testing"

	"github.com/aravind45/whynointerviews/internal/models"
	"github.com/aravind45/whynointerviews/internal/resume"
)

func finding(title string, severity, impact int) Finding {
	return Finding{
		Category:      models.CategoryKeywordMismatch,
		Title:         title,
		Description:   title,
		Severity:      severity,
		Impact:        impact,
		FixTitle:      "fix " + title,
		FixImpact:     impact,
		FixDifficulty: models.DifficultyMedium,
		FixTime:       "1 hour",
		Deterministic: true,
	}
}

func TestRankOrdersBySeverityTimesImpact(t *testing.T) {
	findings := []Finding{
		finding("low", 3, 3),
		finding("high", 9, 8),
		finding("mid", 6, 6),
	}

	diag := Rank(findings, ConfidenceInput{DataCompleteness: 100})

	want := []string{"high", "mid", "low"}
	if len(diag.RootCauses) != len(want) {
		t.Fatalf("got %d causes, want %d", len(diag.RootCauses), len(want))
	}
	for i, w := range want {
		if diag.RootCauses[i].Title != w {
			t.Errorf("cause[%d] = %q, want %q", i, diag.RootCauses[i].Title, w)
		}
		if diag.RootCauses[i].Priority != i+1 {
			t.Errorf("cause[%d] priority = %d, want dense %d", i, diag.RootCauses[i].Priority, i+1)
		}
	}
}

func TestRankBreaksScoreTiesBySeverity(t *testing.T) {
	// 6*6 == 9*4 == 36; the higher severity wins the tie.
	diag := Rank([]Finding{
		finding("balanced", 6, 6),
		finding("severe", 9, 4),
	}, ConfidenceInput{})

	if diag.RootCauses[0].Title != "severe" {
		t.Errorf("tie broken wrong: first cause = %q, want severe", diag.RootCauses[0].Title)
	}
}

func TestRankCapsCausesAndRecommendations(t *testing.T) {
	var findings []Finding
	severities := []int{9, 8, 7, 6, 5, 4, 3}
	for i, s := range severities {
		findings = append(findings, finding(string(rune('a'+i)), s, s))
	}

	diag := Rank(findings, ConfidenceInput{DataCompleteness: 100})

	if len(diag.RootCauses) != MaxRootCauses {
		t.Errorf("causes = %d, want capped at %d", len(diag.RootCauses), MaxRootCauses)
	}
	if len(diag.Recommendations) != MaxRecommendations {
		t.Errorf("recommendations = %d, want capped at %d", len(diag.Recommendations), MaxRecommendations)
	}
	for i, rc := range diag.RootCauses {
		if rc.Priority != i+1 {
			t.Errorf("cause priority[%d] = %d, want dense ranks with no gaps", i, rc.Priority)
		}
	}
	for i, rec := range diag.Recommendations {
		if rec.Priority != i+1 {
			t.Errorf("recommendation priority[%d] = %d, want dense ranks", i, rec.Priority)
		}
	}
}

func TestRankReattachesFixFromCutCause(t *testing.T) {
	// Six causes; the weakest is cut by the cap but carries the strongest
	// fix, which must attach to a surviving cause.
	findings := []Finding{
		finding("a", 9, 9),
		finding("b", 8, 8),
		finding("c", 7, 7),
		finding("d", 6, 6),
		finding("e", 5, 5),
	}
	cut := finding("cut", 2, 2)
	cut.FixImpact = 10
	findings = append(findings, cut)

	diag := Rank(findings, ConfidenceInput{})

	if len(diag.Attachments) != len(diag.Recommendations) {
		t.Fatalf("attachments = %d, recommendations = %d, want equal", len(diag.Attachments), len(diag.Recommendations))
	}
	if diag.Recommendations[0].Title != "fix cut" {
		t.Fatalf("strongest fix = %q, want fix cut", diag.Recommendations[0].Title)
	}
	attach := diag.Attachments[0]
	if attach < 0 || attach >= len(diag.RootCauses) {
		t.Fatalf("attachment %d points outside surviving causes", attach)
	}
	if attach != len(diag.RootCauses)-1 {
		t.Errorf("cut-cause fix attached to cause %d, want lowest-ranked survivor %d", attach, len(diag.RootCauses)-1)
	}
}

func TestRankClipsOutOfRangeScores(t *testing.T) {
	diag := Rank([]Finding{
		finding("hot", 15, 12),
		finding("cold", 0, -3),
	}, ConfidenceInput{})

	for _, rc := range diag.RootCauses {
		if rc.Severity < 1 || rc.Severity > 10 || rc.Impact < 1 || rc.Impact > 10 {
			t.Errorf("cause %q severity=%d impact=%d, want clipped to 1-10", rc.Title, rc.Severity, rc.Impact)
		}
	}
}

func TestRankDeterministic(t *testing.T) {
	findings := []Finding{
		finding("alpha", 6, 6),
		finding("beta", 6, 6),
		finding("gamma", 9, 4),
	}

	first := Rank(findings, ConfidenceInput{DataCompleteness: 80})
	for i := 0; i < 5; i++ {
		again := Rank(findings, ConfidenceInput{DataCompleteness: 80})
		if len(again.RootCauses) != len(first.RootCauses) {
			t.Fatal("cause count drifted across runs")
		}
		for j := range again.RootCauses {
			if again.RootCauses[j].Title != first.RootCauses[j].Title {
				t.Fatalf("run %d cause[%d] = %q, want %q", i, j, again.RootCauses[j].Title, first.RootCauses[j].Title)
			}
		}
		if again.Confidence != first.Confidence {
			t.Fatalf("confidence drifted: %d vs %d", again.Confidence, first.Confidence)
		}
	}
}

func TestConfidenceMonotoneInDataSignals(t *testing.T) {
	base := ConfidenceInput{DataCompleteness: 60, DeterministicFindings: 3}

	withTemplate := base
	withTemplate.HasTemplate = true
	withJD := withTemplate
	withJD.HasJobDescription = true

	steps := []ConfidenceInput{base, withTemplate, withJD}
	prev := -1
	for i, in := range steps {
		got := Confidence(in)
		if got < prev {
			t.Errorf("step %d: confidence %d dropped below %d after adding information", i, got, prev)
		}
		prev = got
	}
}

func TestConfidenceFallsWithModelShare(t *testing.T) {
	// Same data, same finding count; only the deterministic/model mix
	// varies. A purely deterministic diagnosis is the most trustworthy.
	for completeness := 0; completeness <= 100; completeness += 20 {
		in := ConfidenceInput{
			DataCompleteness:  completeness,
			HasTemplate:       true,
			HasJobDescription: true,
		}
		deterministic := in
		deterministic.DeterministicFindings = 4
		mixed := in
		mixed.DeterministicFindings = 2
		mixed.ModelFindings = 2
		modelOnly := in
		modelOnly.ModelFindings = 4

		d, m, o := Confidence(deterministic), Confidence(mixed), Confidence(modelOnly)
		if d < m || m < o {
			t.Errorf("completeness %d: confidence not falling with model share: deterministic=%d mixed=%d model-only=%d",
				completeness, d, m, o)
		}
		if d <= o {
			t.Errorf("completeness %d: deterministic-only %d must beat fully model-assisted %d", completeness, d, o)
		}
	}
}

func TestConfidenceCappedWhenReasoningUnavailable(t *testing.T) {
	in := ConfidenceInput{
		DataCompleteness:      100,
		HasTemplate:           true,
		HasJobDescription:     true,
		DeterministicFindings: 5,
	}

	healthy := Confidence(in)
	if healthy <= DegradedConfidenceCap {
		t.Errorf("healthy confidence = %d, want above %d with full data", healthy, DegradedConfidenceCap)
	}

	in.Degraded = true
	if got := Confidence(in); got > DegradedConfidenceCap {
		t.Errorf("degraded confidence = %d, want at most %d", got, DegradedConfidenceCap)
	}
}

func TestEvaluateKeywordGapSeverityFloorWithoutSkillsSection(t *testing.T) {
	doc := resume.Split(`Jane Doe
jane@example.com

Summary
Engineer.

Experience
Acme Corp, 2019-2024
- Shipped things
`)
	in := RuleInput{
		Doc:         doc,
		TargetTitle: "Software Engineer",
		Template: &models.RoleTemplate{
			RequiredKeywords: []string{"Go", "Kubernetes", "PostgreSQL"},
		},
	}

	var kwFinding *Finding
	for _, f := range Evaluate(in) {
		if f.Category == models.CategoryKeywordMismatch {
			kwFinding = &f
			break
		}
	}
	if kwFinding == nil {
		t.Fatal("expected a keyword mismatch finding")
	}
	if kwFinding.Severity < 7 {
		t.Errorf("severity = %d, want at least 7 when the skills section is missing", kwFinding.Severity)
	}
	if len(kwFinding.Evidence) == 0 || kwFinding.Evidence[0].Type != models.EvidenceAbsent {
		t.Error("keyword gap finding must carry absence evidence")
	}
}

func TestEvaluateMissingSectionsProduceFindings(t *testing.T) {
	doc := resume.Split("just a blob of text with no headings at all")
	findings := Evaluate(RuleInput{Doc: doc, TargetTitle: "Software Engineer"})

	missing := 0
	ats := 0
	for _, f := range findings {
		switch f.Category {
		case models.CategoryMissingSection:
			missing++
		case models.CategoryATSFormat:
			ats++
		}
	}
	if missing != len(resume.ExpectedSections) {
		t.Errorf("missing-section findings = %d, want %d", missing, len(resume.ExpectedSections))
	}
	if ats != 1 {
		t.Errorf("ats findings = %d, want 1 for an unsegmentable resume", ats)
	}
}

func TestEvaluateExperienceMismatchNeedsKnownYears(t *testing.T) {
	doc := resume.Split("Experience\nAcme Corp\n")
	tmpl := &models.RoleTemplate{ExperienceMin: 5}

	unknown := Evaluate(RuleInput{Doc: doc, Template: tmpl, YearsExperience: 0, YearsKnown: false})
	for _, f := range unknown {
		if f.Category == models.CategoryExperienceMismatch {
			t.Fatal("experience rule fired on unknown years")
		}
	}

	known := Evaluate(RuleInput{Doc: doc, TargetTitle: "Senior Software Engineer", Template: tmpl, YearsExperience: 2, YearsKnown: true})
	found := false
	for _, f := range known {
		if f.Category == models.CategoryExperienceMismatch {
			found = true
		}
	}
	if !found {
		t.Error("expected an experience mismatch finding for 2 years against a 5 year minimum")
	}
}

func TestEvaluateGenericTargeting(t *testing.T) {
	doc := resume.Split("Experience\nAcme\n")
	findings := Evaluate(RuleInput{Doc: doc, TargetTitle: "Engineer", TitleIsGeneric: true})

	found := false
	for _, f := range findings {
		if f.Category == models.CategoryGenericTargeting {
			found = true
			if len(f.Evidence) == 0 {
				t.Error("generic targeting finding must carry evidence")
			}
		}
	}
	if !found {
		t.Error("expected a generic targeting finding")
	}
}
