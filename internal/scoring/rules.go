// Package scoring turns grounded findings into a ranked diagnosis. The
// deterministic rules in this file run on every analysis, with or without
// model assistance, and produce their own evidence.
package scoring

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/aravind45/whynointerviews/internal/models"
	"github.com/aravind45/whynointerviews/internal/resume"
)

// RuleInput is everything a deterministic rule may inspect.
type RuleInput struct {
	Doc             *resume.Document
	TargetTitle     string
	TitleIsGeneric  bool
	JobDescription  string
	Template        *models.RoleTemplate
	ExtractedSkills []string
	YearsExperience int
	// YearsKnown is false when extraction could not run; experience rules
	// must not fire on a zero they cannot trust.
	YearsKnown      bool
	HasQuantified   bool
	QuantifiedKnown bool
}

// Finding is one candidate root cause with its grounding and suggested fix.
type Finding struct {
	Category    models.RootCauseCategory
	Title       string
	Description string
	Severity    int // 1-10
	Impact      int // 1-10
	Evidence    []models.Evidence

	// Fix fields seed the recommendation derived from this finding.
	FixTitle       string
	FixDescription string
	FixSteps       []string
	FixImpact      int // 1-10
	FixDifficulty  models.Difficulty
	FixTime        string

	// Deterministic marks rule output as opposed to validated model claims.
	Deterministic bool
}

// Rule is one deterministic diagnostic check.
type Rule struct {
	Name     string
	Category models.RootCauseCategory
	Check    func(in RuleInput) []Finding
}

// Rules is the registry of deterministic checks, evaluated in order.
func Rules() []Rule {
	return []Rule{
		{Name: "missing-sections", Category: models.CategoryMissingSection, Check: checkMissingSections},
		{Name: "keyword-gap", Category: models.CategoryKeywordMismatch, Check: checkKeywordGap},
		{Name: "skill-gap", Category: models.CategorySkillGap, Check: checkSkillGap},
		{Name: "experience-mismatch", Category: models.CategoryExperienceMismatch, Check: checkExperienceMismatch},
		{Name: "unparseable-structure", Category: models.CategoryATSFormat, Check: checkStructure},
		{Name: "unquantified-achievements", Category: models.CategoryWeakAchievements, Check: checkQuantification},
		{Name: "generic-targeting", Category: models.CategoryGenericTargeting, Check: checkGenericTargeting},
	}
}

// Evaluate runs every rule and collects findings.
func Evaluate(in RuleInput) []Finding {
	var out []Finding
	for _, rule := range Rules() {
		out = append(out, rule.Check(in)...)
	}
	return out
}

// sectionSeverity weights how damaging each missing section is.
var sectionSeverity = map[string]int{
	resume.SectionContact:    9,
	resume.SectionExperience: 9,
	resume.SectionSkills:     7,
	resume.SectionEducation:  5,
	resume.SectionSummary:    4,
}

func checkMissingSections(in RuleInput) []Finding {
	var out []Finding
	for _, name := range in.Doc.Missing() {
		severity := sectionSeverity[name]
		if severity == 0 {
			severity = 5
		}
		loc := "resume:" + name
		out = append(out, Finding{
			Category:    models.CategoryMissingSection,
			Title:       fmt.Sprintf("No %s section detected", name),
			Description: fmt.Sprintf("The resume has no recognizable %s section. Screeners and parsing software both rely on standard sections to find information quickly.", name),
			Severity:    severity,
			Impact:      severity,
			Evidence: []models.Evidence{{
				Type:        models.EvidenceAbsent,
				Description: fmt.Sprintf("No heading matching a %s section was found", name),
				Citation:    fmt.Sprintf("no %s section", name),
				Location:    &loc,
				Confidence:  100,
			}},
			FixTitle:       fmt.Sprintf("Add a %s section", name),
			FixDescription: fmt.Sprintf("Add a clearly labeled %s section using a conventional heading.", name),
			FixSteps: []string{
				fmt.Sprintf("Add a heading named %q", capitalize(name)),
				"Place it where recruiters expect it in a reverse-chronological resume",
			},
			FixImpact:     severity,
			FixDifficulty: models.DifficultyEasy,
			FixTime:       "under an hour",
			Deterministic: true,
		})
	}
	return out
}

func checkKeywordGap(in RuleInput) []Finding {
	if in.Template == nil {
		return nil
	}
	keywords := append([]string{}, in.Template.RequiredKeywords...)
	keywords = append(keywords, in.Template.ATSKeywords...)
	if len(keywords) == 0 {
		return nil
	}

	var missing []string
	seen := make(map[string]bool)
	for _, kw := range keywords {
		key := strings.ToLower(kw)
		if seen[key] {
			continue
		}
		seen[key] = true
		if !containsFold(in.Doc.Raw, kw) {
			missing = append(missing, kw)
		}
	}
	if len(missing) == 0 {
		return nil
	}
	sort.Strings(missing)

	// Severity scales with the share of expected keywords absent, and is
	// floored at 7 when there is no skills section to carry them at all.
	severity := clip(3 + len(missing)*7/len(seen))
	if !in.Doc.Has(resume.SectionSkills) && severity < 7 {
		severity = 7
	}

	loc := "resume"
	return []Finding{{
		Category: models.CategoryKeywordMismatch,
		Title:    "Role keywords absent from resume",
		Description: fmt.Sprintf("%d of %d keywords expected for %s do not appear anywhere in the resume: %s. Keyword screens filter on these before a human reads anything.",
			len(missing), len(seen), in.TargetTitle, strings.Join(truncateList(missing, 8), ", ")),
		Severity: severity,
		Impact:   clip(severity + 1),
		Evidence: []models.Evidence{{
			Type:        models.EvidenceAbsent,
			Description: "Expected role keywords not found in the resume text",
			Citation:    strings.Join(truncateList(missing, 8), ", "),
			Location:    &loc,
			Confidence:  100,
		}},
		FixTitle:       "Work the missing role keywords into real accomplishments",
		FixDescription: "Add the missing keywords where they are true of your experience, inside bullet points rather than a bare list.",
		FixSteps: []string{
			"Review the missing keywords against your actual experience",
			"Rewrite experience bullets to name the tools and practices you used",
			"Mirror the exact phrasing used in postings for this role",
		},
		FixImpact:     clip(severity + 1),
		FixDifficulty: models.DifficultyMedium,
		FixTime:       "2-4 hours",
		Deterministic: true,
	}}
}

func checkSkillGap(in RuleInput) []Finding {
	if in.Template == nil || len(in.Template.RequiredSkills) == 0 {
		return nil
	}

	extracted := make(map[string]bool, len(in.ExtractedSkills))
	for _, s := range in.ExtractedSkills {
		extracted[strings.ToLower(s)] = true
	}

	var missing []string
	for _, skill := range in.Template.RequiredSkills {
		if extracted[strings.ToLower(skill)] || containsFold(in.Doc.Raw, skill) {
			continue
		}
		missing = append(missing, skill)
	}
	if len(missing) == 0 {
		return nil
	}
	sort.Strings(missing)

	severity := clip(4 + len(missing)*6/len(in.Template.RequiredSkills))
	loc := "resume"
	return []Finding{{
		Category: models.CategorySkillGap,
		Title:    "Required skills not evidenced",
		Description: fmt.Sprintf("Skills typically required for %s are not evidenced in the resume: %s.",
			in.TargetTitle, strings.Join(truncateList(missing, 6), ", ")),
		Severity: severity,
		Impact:   severity,
		Evidence: []models.Evidence{{
			Type:        models.EvidenceAbsent,
			Description: "Required skills absent from both the skills list and the experience text",
			Citation:    strings.Join(truncateList(missing, 6), ", "),
			Location:    &loc,
			Confidence:  90,
		}},
		FixTitle:       "Close or surface the skill gap",
		FixDescription: "Either surface experience with these skills that the resume omits, or plan how to acquire the ones you lack.",
		FixSteps: []string{
			"List any real exposure to the missing skills the resume leaves out",
			"Add that exposure with concrete context",
			"For genuine gaps, pick one skill and build a small demonstrable project",
		},
		FixImpact:     severity,
		FixDifficulty: models.DifficultyHard,
		FixTime:       "days to weeks",
		Deterministic: true,
	}}
}

func checkExperienceMismatch(in RuleInput) []Finding {
	if in.Template == nil || !in.YearsKnown {
		return nil
	}

	loc := "resume:" + resume.SectionExperience
	if in.YearsExperience < in.Template.ExperienceMin {
		gap := in.Template.ExperienceMin - in.YearsExperience
		severity := clip(5 + gap)
		return []Finding{{
			Category: models.CategoryExperienceMismatch,
			Title:    "Below the role's typical experience range",
			Description: fmt.Sprintf("The resume evidences roughly %d years of experience; %s roles typically expect at least %d.",
				in.YearsExperience, in.TargetTitle, in.Template.ExperienceMin),
			Severity: severity,
			Impact:   clip(severity + 1),
			Evidence: []models.Evidence{{
				Type:        models.EvidenceAbsent,
				Description: fmt.Sprintf("Work history totals about %d years against an expected minimum of %d", in.YearsExperience, in.Template.ExperienceMin),
				Citation:    fmt.Sprintf("approximately %d years of dated work history", in.YearsExperience),
				Location:    &loc,
				Confidence:  80,
			}},
			FixTitle:       "Target the level your history supports",
			FixDescription: "Apply one level down, or make adjacent experience count toward the gap.",
			FixSteps: []string{
				"Surface internships, freelance and open-source work with dates",
				"Consider the equivalent role one seniority level down",
			},
			FixImpact:     severity,
			FixDifficulty: models.DifficultyMedium,
			FixTime:       "1-2 hours",
			Deterministic: true,
		}}
	}

	if in.Template.ExperienceMax != nil && in.YearsExperience > *in.Template.ExperienceMax+3 {
		return []Finding{{
			Category: models.CategoryExperienceMismatch,
			Title:    "Well above the role's typical experience range",
			Description: fmt.Sprintf("The resume evidences roughly %d years of experience; %s roles typically top out near %d. Screeners often read this as a flight risk or a title mismatch.",
				in.YearsExperience, in.TargetTitle, *in.Template.ExperienceMax),
			Severity: 5,
			Impact:   5,
			Evidence: []models.Evidence{{
				Type:        models.EvidenceAbsent,
				Description: fmt.Sprintf("Work history totals about %d years against an expected ceiling of %d", in.YearsExperience, *in.Template.ExperienceMax),
				Citation:    fmt.Sprintf("approximately %d years of dated work history", in.YearsExperience),
				Location:    &loc,
				Confidence:  80,
			}},
			FixTitle:       "Reframe for the level or target a more senior role",
			FixDescription: "Either target roles matching your seniority or trim early history to focus the narrative.",
			FixSteps: []string{
				"Condense roles older than ten years into a single line",
				"Check whether the senior variant of this title fits better",
			},
			FixImpact:     5,
			FixDifficulty: models.DifficultyMedium,
			FixTime:       "1-2 hours",
			Deterministic: true,
		}}
	}

	return nil
}

func checkStructure(in RuleInput) []Finding {
	if len(in.Doc.Present()) >= 2 {
		return nil
	}
	loc := "resume"
	return []Finding{{
		Category:    models.CategoryATSFormat,
		Title:       "Resume structure is not machine-readable",
		Description: "Fewer than two standard sections could be detected. Parsing software that cannot segment a resume frequently scores it as incomplete regardless of content.",
		Severity:    8,
		Impact:      9,
		Evidence: []models.Evidence{{
			Type:        models.EvidenceAbsent,
			Description: "Standard section headings could not be detected in the extracted text",
			Citation:    "fewer than two standard section headings detected",
			Location:    &loc,
			Confidence:  95,
		}},
		FixTitle:       "Rebuild on a single-column, plainly headed layout",
		FixDescription: "Use conventional headings and avoid tables, text boxes and multi-column layouts that break text extraction.",
		FixSteps: []string{
			"Switch to a single-column layout",
			"Use conventional headings: Summary, Experience, Education, Skills",
			"Export to PDF from a text editor, not a design tool",
		},
		FixImpact:     9,
		FixDifficulty: models.DifficultyMedium,
		FixTime:       "2-3 hours",
		Deterministic: true,
	}}
}

var quantifiedPattern = regexp.MustCompile(`\d+\s*(%|percent|x\b)|\$\s*\d|\d{2,}`)

func checkQuantification(in RuleInput) []Finding {
	if !in.Doc.Has(resume.SectionExperience) {
		return nil
	}
	// The extraction result wins when available; the regex is the fallback
	// signal when analysis ran without model assistance.
	if in.QuantifiedKnown {
		if in.HasQuantified {
			return nil
		}
	} else if quantifiedPattern.MatchString(in.Doc.Sections[resume.SectionExperience].Text) {
		return nil
	}

	loc := "resume:" + resume.SectionExperience
	return []Finding{{
		Category:    models.CategoryWeakAchievements,
		Title:       "Experience reads as duties, not outcomes",
		Description: "The experience section carries no quantified results. Screeners weigh measurable outcomes far above responsibility lists.",
		Severity:    6,
		Impact:      7,
		Evidence: []models.Evidence{{
			Type:        models.EvidenceAbsent,
			Description: "No quantified achievement found in the experience section",
			Citation:    "no numeric outcome in any experience bullet",
			Location:    &loc,
			Confidence:  85,
		}},
		FixTitle:       "Quantify your strongest bullets",
		FixDescription: "Rewrite the top bullet of each role around a measurable outcome.",
		FixSteps: []string{
			"Pick the most impactful bullet per role",
			"Attach a number: scale, money, time saved or percentage improved",
			"Lead with the outcome, then the mechanism",
		},
		FixImpact:     7,
		FixDifficulty: models.DifficultyMedium,
		FixTime:       "2-4 hours",
		Deterministic: true,
	}}
}

func checkGenericTargeting(in RuleInput) []Finding {
	if !in.TitleIsGeneric {
		return nil
	}
	loc := "resume"
	return []Finding{{
		Category: models.CategoryGenericTargeting,
		Title:    "Target role is too generic",
		Description: fmt.Sprintf("%q does not name a discipline. Applications that do not commit to a specific role family rank poorly against candidates who do.",
			in.TargetTitle),
		Severity: 6,
		Impact:   6,
		Evidence: []models.Evidence{{
			Type:        models.EvidenceAbsent,
			Description: "The stated target title carries no discipline signal",
			Citation:    in.TargetTitle,
			Location:    &loc,
			Confidence:  100,
		}},
		FixTitle:       "Commit to a specific role family",
		FixDescription: "Pick the concrete title that matches your strongest experience and target it consistently.",
		FixSteps: []string{
			"Choose one specific title, e.g. Backend Software Engineer over Engineer",
			"Align the summary and skills section to that title",
		},
		FixImpact:     6,
		FixDifficulty: models.DifficultyEasy,
		FixTime:       "under an hour",
		Deterministic: true,
	}}
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func containsFold(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}

func truncateList(items []string, max int) []string {
	if len(items) <= max {
		return items
	}
	return items[:max]
}

func clip(v int) int {
	if v < 1 {
		return 1
	}
	if v > 10 {
		return 10
	}
	return v
}
