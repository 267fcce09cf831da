package resume

import (
	"regexp"
	"strings"
)

// Expected resume section names used for completeness measurement.
const (
	SectionContact    = "contact"
	SectionSummary    = "summary"
	SectionExperience = "experience"
	SectionEducation  = "education"
	SectionSkills     = "skills"
)

// ExpectedSections lists the sections a complete resume carries.
var ExpectedSections = []string{
	SectionContact,
	SectionSummary,
	SectionExperience,
	SectionEducation,
	SectionSkills,
}

// headingSynonyms maps lowercased heading text onto canonical section names.
var headingSynonyms = map[string]string{
	"summary":                 SectionSummary,
	"professional summary":    SectionSummary,
	"objective":               SectionSummary,
	"profile":                 SectionSummary,
	"about":                   SectionSummary,
	"about me":                SectionSummary,
	"experience":              SectionExperience,
	"work experience":         SectionExperience,
	"professional experience": SectionExperience,
	"employment":              SectionExperience,
	"employment history":      SectionExperience,
	"work history":            SectionExperience,
	"education":               SectionEducation,
	"academic background":     SectionEducation,
	"qualifications":          SectionEducation,
	"skills":                  SectionSkills,
	"technical skills":        SectionSkills,
	"core skills":             SectionSkills,
	"technologies":            SectionSkills,
	"competencies":            SectionSkills,
	"core competencies":       SectionSkills,
}

var (
	emailPattern = regexp.MustCompile(`[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}`)
	phonePattern = regexp.MustCompile(`(\+?\d[\d\s().\-]{7,}\d)`)
)

// Section is one detected region of a resume.
type Section struct {
	Name string
	Text string
}

// Document is a resume split into sections. Raw keeps the untouched source
// text; evidence citations are checked against Raw, never against the
// section split.
type Document struct {
	Raw      string
	Sections map[string]Section
}

// Split detects section headings and assigns each line to the most recent
// heading. Text before the first heading is treated as the contact/header
// block.
func Split(text string) *Document {
	doc := &Document{
		Raw:      text,
		Sections: make(map[string]Section),
	}

	current := ""
	var currentBody strings.Builder
	var headerBody strings.Builder

	flush := func() {
		if current == "" {
			return
		}
		body := strings.TrimSpace(currentBody.String())
		if body == "" {
			return
		}
		if existing, ok := doc.Sections[current]; ok {
			body = existing.Text + "\n" + body
		}
		doc.Sections[current] = Section{Name: current, Text: body}
	}

	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		if name, ok := matchHeading(trimmed); ok {
			flush()
			current = name
			currentBody.Reset()
			continue
		}
		if current == "" {
			headerBody.WriteString(line)
			headerBody.WriteString("\n")
		} else {
			currentBody.WriteString(line)
			currentBody.WriteString("\n")
		}
	}
	flush()

	// Contact details live in the pre-heading block on most resumes.
	header := strings.TrimSpace(headerBody.String())
	if emailPattern.MatchString(header) || phonePattern.MatchString(header) {
		doc.Sections[SectionContact] = Section{Name: SectionContact, Text: header}
	}

	return doc
}

// matchHeading reports the canonical section for a heading-looking line.
func matchHeading(line string) (string, bool) {
	if line == "" || len(line) > 60 {
		return "", false
	}
	candidate := strings.ToLower(strings.TrimRight(line, ":"))
	candidate = strings.TrimSpace(candidate)
	name, ok := headingSynonyms[candidate]
	return name, ok
}

// Has reports whether a section is present and non-empty.
func (d *Document) Has(name string) bool {
	s, ok := d.Sections[name]
	return ok && strings.TrimSpace(s.Text) != ""
}

// Present returns the expected sections found in the document, in canonical
// order.
func (d *Document) Present() []string {
	var out []string
	for _, name := range ExpectedSections {
		if d.Has(name) {
			out = append(out, name)
		}
	}
	return out
}

// Missing returns the expected sections absent from the document, in
// canonical order.
func (d *Document) Missing() []string {
	var out []string
	for _, name := range ExpectedSections {
		if !d.Has(name) {
			out = append(out, name)
		}
	}
	return out
}

// Completeness returns the 0-100 share of expected sections present and
// non-empty.
func (d *Document) Completeness() int {
	if len(ExpectedSections) == 0 {
		return 100
	}
	return len(d.Present()) * 100 / len(ExpectedSections)
}

// Locate returns the section containing the given excerpt. Falls back to
// reporting presence in the raw text when no section claims the excerpt.
func (d *Document) Locate(excerpt string) (string, bool) {
	if strings.TrimSpace(excerpt) == "" {
		return "", false
	}
	for _, name := range ExpectedSections {
		if s, ok := d.Sections[name]; ok && strings.Contains(s.Text, excerpt) {
			return name, true
		}
	}
	if strings.Contains(d.Raw, excerpt) {
		return "", true
	}
	return "", false
}
