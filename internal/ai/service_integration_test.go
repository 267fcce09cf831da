package ai

import (
	"log/slog"
	"testing"
	"time"

	"github.com/aravind45/whynointerviews/internal/config"
	"github.com/aravind45/whynointerviews/internal/errors"
)

// Helper functions to create pointers for test values
func timePtr(d time.Duration) *time.Duration { return &d }
func intPtr(i int) *int                      { return &i }
func float32Ptr(f float32) *float32          { return &f }
func int32Ptr(i int32) *int32                { return &i }

var testLogger = errors.NewLogger(slog.LevelDebug)

// TestOperationSpecificConfigDerivation verifies that operation-specific
// configurations are correctly derived, with fallbacks to the global
// configuration.
func TestOperationSpecificConfigDerivation(t *testing.T) {
	testConfig := createTestConfigWithOverrides()

	testCases := []struct {
		name           string
		getConfig      func() config.OperationAIConfig
		expectedValues map[string]interface{}
		fallbackValues map[string]interface{}
	}{
		{
			name:      "ExtractConfigDerivation",
			getConfig: testConfig.GetExtractConfig,
			expectedValues: map[string]interface{}{
				"Model":       "extract-specific-model",
				"Timeout":     30 * time.Second,
				"Temperature": float32(0.0),
			},
			fallbackValues: map[string]interface{}{
				"APIKey":     "global-api-key",
				"MaxRetries": 5,
			},
		},
		{
			name:      "DiagnoseConfigDerivation",
			getConfig: testConfig.GetDiagnoseConfig,
			expectedValues: map[string]interface{}{
				"Model":      "diagnose-specific-model",
				"MaxRetries": 1,
			},
			fallbackValues: map[string]interface{}{
				"Timeout": 60 * time.Second,
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			opConfig := tc.getConfig()

			for field, expected := range tc.expectedValues {
				checkConfigField(t, opConfig, field, expected)
			}
			for field, expected := range tc.fallbackValues {
				checkConfigField(t, opConfig, field, expected)
			}
		})
	}
}

func checkConfigField(t *testing.T, cfg config.OperationAIConfig, field string, expected interface{}) {
	t.Helper()

	var actual interface{}
	switch field {
	case "Model":
		actual = cfg.Model
	case "APIKey":
		actual = cfg.APIKey
	case "Timeout":
		actual = *cfg.Timeout
	case "MaxRetries":
		actual = *cfg.MaxRetries
	case "Temperature":
		actual = *cfg.Temperature
	case "MaxTokens":
		actual = *cfg.MaxTokens
	default:
		t.Fatalf("unknown field %q", field)
	}

	if actual != expected {
		t.Errorf("Field %s: expected %v, got %v", field, expected, actual)
	}
}

func createTestConfigWithOverrides() *config.Config {
	return &config.Config{
		AI: config.AIConfig{
			Provider:    "gemini",
			Model:       "global-model",
			Timeout:     60 * time.Second,
			APIKey:      "global-api-key",
			MaxRetries:  5,
			Temperature: 0.2,
			MaxTokens:   4096,
			Extract: config.OperationAIConfig{
				Model:       "extract-specific-model",
				Timeout:     timePtr(30 * time.Second),
				Temperature: float32Ptr(0.0),
			},
			Diagnose: config.OperationAIConfig{
				Model:      "diagnose-specific-model",
				MaxRetries: intPtr(1),
			},
		},
	}
}

// TestServiceRejectsUnknownProvider ensures NewService fails cleanly for an
// unsupported provider instead of proceeding with a nil provider.
func TestServiceRejectsUnknownProvider(t *testing.T) {
	cfg := config.OperationAIConfig{
		Provider:    "not-a-provider",
		Model:       "m",
		Timeout:     timePtr(time.Second),
		MaxRetries:  intPtr(0),
		Temperature: float32Ptr(0),
		MaxTokens:   int32Ptr(128),
	}

	_, err := NewService(&cfg, "diagnose", testLogger)
	if err == nil {
		t.Fatal("Expected error for unsupported provider")
	}

	appErr, ok := err.(*errors.AppError)
	if !ok {
		t.Fatalf("Expected AppError, got %T", err)
	}
	if appErr.Type != errors.ErrorTypeConfig {
		t.Errorf("Expected config error type, got %s", appErr.Type)
	}
}
