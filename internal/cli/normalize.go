package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aravind45/whynointerviews/internal/common"
	"github.com/aravind45/whynointerviews/internal/titles"
)

var normalizeCmd = &cobra.Command{
	Use:   "normalize [job-title]",
	Short: "Resolve a raw job title against the canonical taxonomy",
	Long: `Resolve a raw job title using the normalization cascade: exact match,
known variation, then trigram similarity. A failed resolution reports
near-miss suggestions instead of an error.`,
	Args: cobra.ExactArgs(1),
	PreRunE: func(cmd *cobra.Command, args []string) error {
		cfg := getConfigFromContext(cmd.Context())
		if normalizeConfig.OutputFormat == "" {
			normalizeConfig.OutputFormat = cfg.App.DefaultFormat
		}
		return common.ValidateOutputFormat(normalizeConfig.OutputFormat, cfg.App.SupportedFormats)
	},
	RunE: runNormalize,
}

var normalizeConfig common.CommandConfig

func init() {
	normalizeCmd.Flags().StringVarP(&normalizeConfig.OutputFile, "output", "o", "", "Output file path (default: stdout)")
	normalizeCmd.Flags().StringVar(&normalizeConfig.OutputFormat, "format", "", "Output format: json, text, or markdown")
}

func runNormalize(cmd *cobra.Command, args []string) error {
	cfg := getConfigFromContext(cmd.Context())
	logger := getLoggerFromContext(cmd.Context())

	if cfg.Titles.SeedFile == "" {
		return fmt.Errorf("titles.seedFile must be configured for local resolution")
	}
	store, err := titles.NewSeedStore(cfg.Titles.SeedFile, logger)
	if err != nil {
		return fmt.Errorf("failed to load title seed file: %w", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Warn("Failed to close seed store", "error", err.Error())
		}
	}()

	normalizer := titles.NewNormalizer(store, titles.NormalizerConfig{
		SimilarityFloor:     cfg.Titles.SimilarityFloor,
		AcceptanceThreshold: cfg.Titles.AcceptanceThreshold,
		SuggestionLimit:     cfg.Titles.SuggestionLimit,
		CacheTTL:            cfg.Titles.CacheTTL,
		CacheSweepInterval:  cfg.Titles.CacheSweepInterval,
	}, logger)

	resolution := normalizer.Resolve(cmd.Context(), args[0])

	logger.Info("Title resolved",
		"raw_title", args[0],
		"matched", resolution.Matched(),
		"method", resolution.Method)

	return common.NewOutputHandler(logger).HandleOutput(resolution, normalizeConfig)
}
