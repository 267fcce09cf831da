package formatters

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/aravind45/whynointerviews/internal/diagnosis"
	"github.com/aravind45/whynointerviews/internal/models"
	"github.com/aravind45/whynointerviews/internal/titles"
)

// Formatter interface for different output formats
type Formatter interface {
	Format(data any) (string, error)
	SupportedType() string
}

// FormatterRegistry manages all available formatters
type FormatterRegistry struct {
	formatters map[string]map[string]Formatter // format -> type -> formatter
}

// NewFormatterRegistry creates a new formatter registry with default formatters
func NewFormatterRegistry() *FormatterRegistry {
	registry := &FormatterRegistry{
		formatters: make(map[string]map[string]Formatter),
	}

	// Register default formatters
	registry.RegisterFormatter("json", "any", &JSONFormatter{})
	registry.RegisterFormatter("text", "DiagnosisOutcome", &DiagnosisTextFormatter{})
	registry.RegisterFormatter("markdown", "DiagnosisOutcome", &DiagnosisMarkdownFormatter{})
	registry.RegisterFormatter("text", "TitleResolution", &ResolutionTextFormatter{})
	registry.RegisterFormatter("markdown", "TitleResolution", &ResolutionMarkdownFormatter{})

	return registry
}

// RegisterFormatter registers a new formatter for a specific format and data type
func (fr *FormatterRegistry) RegisterFormatter(format, dataType string, formatter Formatter) {
	if fr.formatters[format] == nil {
		fr.formatters[format] = make(map[string]Formatter)
	}
	fr.formatters[format][dataType] = formatter
}

// Format formats data using the appropriate formatter
func (fr *FormatterRegistry) Format(data any, format string) (string, error) {
	dataType := getDataType(data)

	// Try specific formatter first
	if formatters, exists := fr.formatters[format]; exists {
		if formatter, exists := formatters[dataType]; exists {
			return formatter.Format(data)
		}
		// Fall back to generic formatter
		if formatter, exists := formatters["any"]; exists {
			return formatter.Format(data)
		}
	}

	return "", fmt.Errorf("no formatter found for format '%s' and type '%s'", format, dataType)
}

// GetSupportedFormats returns all supported formats
func (fr *FormatterRegistry) GetSupportedFormats() []string {
	formats := make([]string, 0, len(fr.formatters))
	for format := range fr.formatters {
		formats = append(formats, format)
	}
	return formats
}

func getDataType(data any) string {
	switch data.(type) {
	case *diagnosis.Outcome:
		return "DiagnosisOutcome"
	case *titles.Resolution:
		return "TitleResolution"
	default:
		return "any"
	}
}

// JSONFormatter handles JSON formatting for any data type
type JSONFormatter struct{}

func (jf *JSONFormatter) Format(data any) (string, error) {
	jsonData, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return "", err
	}
	return string(jsonData), nil
}

func (jf *JSONFormatter) SupportedType() string {
	return "any"
}

// DiagnosisTextFormatter handles text formatting for diagnosis outcomes
type DiagnosisTextFormatter struct{}

func (dtf *DiagnosisTextFormatter) Format(data any) (string, error) {
	result, ok := data.(*diagnosis.Outcome)
	if !ok {
		return "", fmt.Errorf("expected *diagnosis.Outcome, got %T", data)
	}

	var output strings.Builder

	output.WriteString("=== REJECTION DIAGNOSIS ===\n\n")
	output.WriteString(fmt.Sprintf("Confidence: %d/100\n", result.Diagnosis.Confidence))
	output.WriteString(fmt.Sprintf("Data completeness: %d/100\n", result.DataCompleteness))
	if result.Resolution != nil && result.Resolution.Matched() {
		output.WriteString(fmt.Sprintf("Target role: %s (matched via %s, confidence %d)\n",
			result.Resolution.Canonical.Title, result.Resolution.Method, result.Resolution.Confidence))
	} else if result.Resolution != nil {
		output.WriteString(fmt.Sprintf("Target role: %q could not be matched\n", result.Resolution.Input))
	}
	if result.Degraded {
		output.WriteString("Mode: deterministic checks only (reasoning assistance unavailable)\n")
	} else if result.ModelUsed != "" {
		output.WriteString(fmt.Sprintf("Model: %s\n", result.ModelUsed))
	}
	output.WriteString("\n")

	if result.Summary != "" {
		output.WriteString("Summary:\n")
		output.WriteString(result.Summary)
		output.WriteString("\n\n")
	}

	if result.IsCompetitive {
		output.WriteString("Assessment: this resume is competitive for the target role.\n\n")
	}

	if len(result.Diagnosis.RootCauses) > 0 {
		output.WriteString("=== ROOT CAUSES ===\n\n")
		for _, cause := range result.Diagnosis.RootCauses {
			output.WriteString(fmt.Sprintf("%d. %s [%s]\n", cause.Priority, cause.Title, cause.Category))
			output.WriteString(fmt.Sprintf("   Severity %d/10, impact %d/10\n", cause.Severity, cause.Impact))
			output.WriteString("   ")
			output.WriteString(cause.Description)
			output.WriteString("\n")
			for _, ev := range cause.Evidence {
				writeEvidenceText(&output, ev)
			}
			output.WriteString("\n")
		}
	} else {
		output.WriteString("No root causes found.\n\n")
	}

	if len(result.Diagnosis.Recommendations) > 0 {
		output.WriteString("=== RECOMMENDATIONS ===\n\n")
		for _, rec := range result.Diagnosis.Recommendations {
			output.WriteString(fmt.Sprintf("%d. %s\n", rec.Priority, rec.Title))
			output.WriteString(fmt.Sprintf("   Expected impact %d/10, difficulty %s, time %s\n",
				rec.ExpectedImpact, rec.Difficulty, rec.TimeEstimate))
			output.WriteString("   ")
			output.WriteString(rec.Description)
			output.WriteString("\n")
			for _, step := range rec.Steps {
				output.WriteString(fmt.Sprintf("   - %s\n", step))
			}
			output.WriteString("\n")
		}
	}

	if result.RejectedClaims > 0 {
		output.WriteString(fmt.Sprintf("Note: %d model claim(s) were dropped for unverifiable citations.\n", result.RejectedClaims))
	}

	return output.String(), nil
}

func writeEvidenceText(output *strings.Builder, ev models.Evidence) {
	if ev.Type == models.EvidenceAbsent {
		output.WriteString(fmt.Sprintf("   Evidence (absence): %s\n", ev.Description))
		return
	}
	output.WriteString(fmt.Sprintf("   Evidence: %q", ev.Citation))
	if ev.Location != nil {
		output.WriteString(fmt.Sprintf(" (%s)", *ev.Location))
	}
	output.WriteString("\n")
}

func (dtf *DiagnosisTextFormatter) SupportedType() string {
	return "DiagnosisOutcome"
}

// DiagnosisMarkdownFormatter handles markdown formatting for diagnosis outcomes
type DiagnosisMarkdownFormatter struct{}

func (dmf *DiagnosisMarkdownFormatter) Format(data any) (string, error) {
	result, ok := data.(*diagnosis.Outcome)
	if !ok {
		return "", fmt.Errorf("expected *diagnosis.Outcome, got %T", data)
	}

	var output strings.Builder

	output.WriteString("# Rejection Diagnosis\n\n")
	output.WriteString(fmt.Sprintf("**Confidence:** %d/100\n\n", result.Diagnosis.Confidence))
	output.WriteString(fmt.Sprintf("**Data completeness:** %d/100\n\n", result.DataCompleteness))
	if result.Resolution != nil && result.Resolution.Matched() {
		output.WriteString(fmt.Sprintf("**Target role:** %s (matched via %s, confidence %d)\n\n",
			result.Resolution.Canonical.Title, result.Resolution.Method, result.Resolution.Confidence))
	}
	if result.Degraded {
		output.WriteString("**Mode:** deterministic checks only\n\n")
	} else if result.ModelUsed != "" {
		output.WriteString(fmt.Sprintf("**Model:** %s\n\n", result.ModelUsed))
	}

	if result.Summary != "" {
		output.WriteString("## Summary\n\n")
		output.WriteString(result.Summary)
		output.WriteString("\n\n")
	}

	if len(result.Diagnosis.RootCauses) > 0 {
		output.WriteString("## Root Causes\n\n")
		for _, cause := range result.Diagnosis.RootCauses {
			output.WriteString(fmt.Sprintf("### %d. %s\n\n", cause.Priority, cause.Title))
			output.WriteString(fmt.Sprintf("**Category:** %s | **Severity:** %d/10 | **Impact:** %d/10\n\n",
				cause.Category, cause.Severity, cause.Impact))
			output.WriteString(cause.Description)
			output.WriteString("\n\n")
			for _, ev := range cause.Evidence {
				if ev.Type == models.EvidenceAbsent {
					output.WriteString(fmt.Sprintf("- *Evidence (absence):* %s\n", ev.Description))
				} else if ev.Location != nil {
					output.WriteString(fmt.Sprintf("- *Evidence:* %q (%s)\n", ev.Citation, *ev.Location))
				} else {
					output.WriteString(fmt.Sprintf("- *Evidence:* %q\n", ev.Citation))
				}
			}
			output.WriteString("\n")
		}
	} else {
		output.WriteString("## No Root Causes Found\n\n")
	}

	if len(result.Diagnosis.Recommendations) > 0 {
		output.WriteString("## Recommendations\n\n")
		for _, rec := range result.Diagnosis.Recommendations {
			output.WriteString(fmt.Sprintf("### %d. %s\n\n", rec.Priority, rec.Title))
			output.WriteString(fmt.Sprintf("**Expected impact:** %d/10 | **Difficulty:** %s | **Time:** %s\n\n",
				rec.ExpectedImpact, rec.Difficulty, rec.TimeEstimate))
			output.WriteString(rec.Description)
			output.WriteString("\n\n")
			for _, step := range rec.Steps {
				output.WriteString(fmt.Sprintf("1. %s\n", step))
			}
			output.WriteString("\n")
		}
	}

	return output.String(), nil
}

func (dmf *DiagnosisMarkdownFormatter) SupportedType() string {
	return "DiagnosisOutcome"
}

// ResolutionTextFormatter handles text formatting for title resolutions
type ResolutionTextFormatter struct{}

func (rtf *ResolutionTextFormatter) Format(data any) (string, error) {
	result, ok := data.(*titles.Resolution)
	if !ok {
		return "", fmt.Errorf("expected *titles.Resolution, got %T", data)
	}

	var output strings.Builder

	output.WriteString(fmt.Sprintf("Input: %s\n", result.Input))
	if result.Matched() {
		output.WriteString(fmt.Sprintf("Canonical: %s\n", result.Canonical.Title))
		output.WriteString(fmt.Sprintf("Method: %s\n", result.Method))
		output.WriteString(fmt.Sprintf("Confidence: %d/100\n", result.Confidence))
	} else {
		output.WriteString("Canonical: no match\n")
	}
	if result.IsGeneric {
		output.WriteString("Note: input is too generic to target a specific role\n")
	}
	if len(result.Suggestions) > 0 {
		output.WriteString("Suggestions:\n")
		for _, s := range result.Suggestions {
			if s.Confidence > 0 {
				output.WriteString(fmt.Sprintf("- %s (%d)\n", s.Title, s.Confidence))
			} else {
				output.WriteString(fmt.Sprintf("- %s\n", s.Title))
			}
		}
	}

	return output.String(), nil
}

func (rtf *ResolutionTextFormatter) SupportedType() string {
	return "TitleResolution"
}

// ResolutionMarkdownFormatter handles markdown formatting for title resolutions
type ResolutionMarkdownFormatter struct{}

func (rmf *ResolutionMarkdownFormatter) Format(data any) (string, error) {
	result, ok := data.(*titles.Resolution)
	if !ok {
		return "", fmt.Errorf("expected *titles.Resolution, got %T", data)
	}

	var output strings.Builder

	output.WriteString("# Title Resolution\n\n")
	output.WriteString(fmt.Sprintf("**Input:** %s\n\n", result.Input))
	if result.Matched() {
		output.WriteString(fmt.Sprintf("**Canonical:** %s\n\n", result.Canonical.Title))
		output.WriteString(fmt.Sprintf("**Method:** %s | **Confidence:** %d/100\n\n", result.Method, result.Confidence))
	} else {
		output.WriteString("**Canonical:** no match\n\n")
	}
	if len(result.Suggestions) > 0 {
		output.WriteString("## Suggestions\n\n")
		for _, s := range result.Suggestions {
			if s.Confidence > 0 {
				output.WriteString(fmt.Sprintf("- %s (%d)\n", s.Title, s.Confidence))
			} else {
				output.WriteString(fmt.Sprintf("- %s\n", s.Title))
			}
		}
	}

	return output.String(), nil
}

func (rmf *ResolutionMarkdownFormatter) SupportedType() string {
	return "TitleResolution"
}

// Global formatter registry
var GlobalRegistry = NewFormatterRegistry()
