package ai

import (
	"testing"
	"time"

	"github.com/aravind45/whynointerviews/internal/config"

	"google.golang.org/genai"
)

func TestIndependentCircuitBreakerConfigurations(t *testing.T) {
	// Each operation gets its own circuit breaker configuration

	extractConfig := &config.OperationAIConfig{
		Provider: "gemini",
		Model:    "gemini-2.0-flash",
		CircuitBreaker: config.CircuitBreakerConfig{
			Enabled:          true,
			MaxRequests:      3,
			Interval:         60 * time.Second,
			Timeout:          60 * time.Second,
			MinRequests:      3,
			FailureThreshold: 0.6,
		},
	}

	diagnoseConfig := &config.OperationAIConfig{
		Provider: "gemini",
		Model:    "gemini-2.5-pro",
		CircuitBreaker: config.CircuitBreakerConfig{
			Enabled:          true,
			MaxRequests:      5,                // Different from extract
			Interval:         30 * time.Second, // Different from extract
			Timeout:          45 * time.Second, // Different from extract
			MinRequests:      2,                // Different from extract
			FailureThreshold: 0.7,              // Different from extract
		},
	}

	extractCB := NewAICircuitBreaker("Extract", extractConfig, nil)
	diagnoseCB := NewAICircuitBreaker("Diagnose", diagnoseConfig, nil)

	t.Run("ExtractCircuitBreaker", func(t *testing.T) {
		stats := extractCB.GetStats()

		name, ok := stats["name"].(string)
		if !ok {
			t.Fatal("Circuit breaker name not found")
		}
		if name != "AI-Extract" {
			t.Errorf("Expected circuit breaker name 'AI-Extract', got '%s'", name)
		}

		state, ok := stats["state"].(string)
		if !ok {
			t.Fatal("Circuit breaker state not found")
		}
		if state != "closed" {
			t.Errorf("Expected initial state 'closed', got '%s'", state)
		}
	})

	t.Run("DiagnoseCircuitBreaker", func(t *testing.T) {
		stats := diagnoseCB.GetStats()

		name, ok := stats["name"].(string)
		if !ok {
			t.Fatal("Circuit breaker name not found")
		}
		if name != "AI-Diagnose" {
			t.Errorf("Expected circuit breaker name 'AI-Diagnose', got '%s'", name)
		}

		if !diagnoseCB.IsHealthy() {
			t.Error("Expected new circuit breaker to be healthy")
		}
	})
}

func TestDisabledCircuitBreaker(t *testing.T) {
	cfg := &config.OperationAIConfig{
		Provider: "gemini",
		CircuitBreaker: config.CircuitBreakerConfig{
			Enabled: false,
		},
	}

	cb := NewAICircuitBreaker("Diagnose", cfg, nil)
	if cb != nil {
		t.Fatal("Expected nil circuit breaker when disabled")
	}

	// A nil breaker executes the function directly
	called := false
	_, err := cb.Execute(func() (*genai.GenerateContentResponse, error) {
		called = true
		return nil, nil
	})
	if err != nil {
		t.Errorf("Expected no error from nil breaker, got: %v", err)
	}
	if !called {
		t.Error("Expected function to be called through nil breaker")
	}

	if !cb.IsHealthy() {
		t.Error("Expected nil circuit breaker to report healthy")
	}

	stats := cb.GetStats()
	if enabled, _ := stats["enabled"].(bool); enabled {
		t.Error("Expected disabled stats from nil breaker")
	}
}

func TestModelCircuitBreakerHealth(t *testing.T) {
	cfg := &config.OperationAIConfig{
		Provider: "gemini",
		Model:    "gemini-2.0-flash",
		CircuitBreaker: config.CircuitBreakerConfig{
			Enabled:          true,
			MaxRequests:      3,
			Interval:         60 * time.Second,
			Timeout:          60 * time.Second,
			MinRequests:      3,
			FailureThreshold: 0.6,
		},
	}

	mb := NewModelCircuitBreaker("Diagnose", cfg, nil)
	if mb == nil {
		t.Fatal("Expected model circuit breaker to be created")
	}
	if !mb.IsModelHealthy() {
		t.Error("Expected new model circuit breaker to be healthy")
	}

	stats := mb.GetModelStats()
	if name, _ := stats["name"].(string); name != "AI-Model-Diagnose" {
		t.Errorf("Expected name 'AI-Model-Diagnose', got '%v'", stats["name"])
	}
}
