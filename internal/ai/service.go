package ai

import (
	"context"
	"fmt"

	"github.com/aravind45/whynointerviews/internal/config"
	"github.com/aravind45/whynointerviews/internal/errors"
)

// Service handles reasoning operations for resume diagnosis
type Service struct {
	Provider ReasoningProvider // Exported for access from other packages
	config   *config.OperationAIConfig
	logger   *errors.Logger
}

// NewService creates a new reasoning service instance with configuration for a specific operation
func NewService(cfg *config.OperationAIConfig, operationType string, logger *errors.Logger) (*Service, error) {
	var provider ReasoningProvider
	var err error

	logger.Debug("Initializing reasoning service",
		"provider", cfg.Provider,
		"operation_type", operationType,
		"model", cfg.Model,
		"temperature", *cfg.Temperature,
		"timeout", *cfg.Timeout,
		"max_retries", *cfg.MaxRetries)

	switch cfg.Provider {
	case "gemini":
		provider, err = NewGeminiProvider(cfg, operationType, logger)
	default:
		return nil, errors.NewConfigError(errors.ErrCodeInvalidConfig,
			fmt.Sprintf("Unsupported reasoning provider: %s", cfg.Provider), nil)
	}

	if err != nil {
		return nil, errors.NewReasoningError(errors.ErrCodeReasoningFailed,
			"Failed to create reasoning provider", err)
	}

	return &Service{
		Provider: provider,
		config:   cfg,
		logger:   logger,
	}, nil
}

// GetModelInfo returns information about the reasoning model for health checks
func (s *Service) GetModelInfo(ctx context.Context) any {
	return s.Provider.GetModelInfo(ctx)
}
