package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aravind45/whynointerviews/internal/ai"
	"github.com/aravind45/whynointerviews/internal/common"
	"github.com/aravind45/whynointerviews/internal/config"
	"github.com/aravind45/whynointerviews/internal/diagnosis"
	apperrors "github.com/aravind45/whynointerviews/internal/errors"
	"github.com/aravind45/whynointerviews/internal/resume"
	"github.com/aravind45/whynointerviews/internal/titles"
	"github.com/aravind45/whynointerviews/internal/utils"
)

var diagnoseCmd = &cobra.Command{
	Use:   "diagnose [resume-file] [job-description-file]",
	Short: "Diagnose why a resume is not producing interviews",
	Long: `Run the full diagnosis pipeline against a resume file without the server.
The resume may be a PDF, DOCX, or plain-text file. An optional second argument
supplies a job description for targeted checks. The target job title is required.`,
	Args: cobra.RangeArgs(1, 2),
	PreRunE: func(cmd *cobra.Command, args []string) error {
		cfg := getConfigFromContext(cmd.Context())
		if diagnoseConfig.OutputFormat == "" {
			diagnoseConfig.OutputFormat = cfg.App.DefaultFormat
		}
		return common.ValidateOutputFormat(diagnoseConfig.OutputFormat, cfg.App.SupportedFormats)
	},
	RunE: runDiagnose,
}

var (
	diagnoseConfig common.CommandConfig
	diagnoseTitle  string
)

func init() {
	diagnoseCmd.Flags().StringVarP(&diagnoseTitle, "title", "t", "", "Target job title (required)")
	diagnoseCmd.Flags().StringVarP(&diagnoseConfig.OutputFile, "output", "o", "", "Output file path (default: stdout)")
	diagnoseCmd.Flags().StringVar(&diagnoseConfig.OutputFormat, "format", "", "Output format: json, text, or markdown")
	_ = diagnoseCmd.MarkFlagRequired("title")

	// Add completion for format flag
	_ = diagnoseCmd.RegisterFlagCompletionFunc("format", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		cfg := getConfigFromContext(cmd.Context())
		return common.GetSupportedFormats(cfg.App.SupportedFormats), cobra.ShellCompDirectiveNoFileComp
	})
}

func runDiagnose(cmd *cobra.Command, args []string) error {
	cfg := getConfigFromContext(cmd.Context())
	logger := getLoggerFromContext(cmd.Context())

	synth, closeStore, err := buildLocalSynthesizer(cfg, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	extractor := resume.NewFileExtractor(cfg.App.MaxPageCount, cfg.App.MinTextChars)

	createInput := func(contents [][]byte, names []string) (diagnosis.Request, error) {
		fileType := utils.FileExtension(names[0])
		if !utils.IsSupportedResumeFile(names[0], cfg.App.FileTypes) {
			return diagnosis.Request{}, fmt.Errorf("unsupported resume file type: %s", fileType)
		}
		content, err := extractor.Extract(contents[0], fileType)
		if err != nil {
			return diagnosis.Request{}, err
		}
		req := diagnosis.Request{
			ResumeText:  content.Text,
			TargetTitle: diagnoseTitle,
		}
		if len(contents) > 1 {
			req.JobDescription = string(contents[1])
		}
		return req, nil
	}

	logDetails := func(input diagnosis.Request, cmdCfg common.CommandConfig) {
		logger.Info("Starting diagnosis",
			"target_title", input.TargetTitle,
			"resume_chars", len(input.ResumeText),
			"has_job_description", input.JobDescription != "",
			"output_format", cmdCfg.OutputFormat)
	}

	operation := func(ctx context.Context, input diagnosis.Request) (*diagnosis.Outcome, error) {
		return synth.Run(ctx, input)
	}

	err = common.RunFileCommand(
		cmd.Context(),
		logger,
		diagnoseConfig,
		args,
		createInput,
		operation,
		logDetails,
	)
	if err != nil {
		return fmt.Errorf("failed to diagnose resume: %w", err)
	}
	logger.Info("Diagnosis completed successfully")
	return nil
}

// buildLocalSynthesizer wires a file-backed pipeline for one-shot commands.
// The returned cleanup closes the seed store.
func buildLocalSynthesizer(cfg *config.Config, logger *apperrors.Logger) (*diagnosis.Synthesizer, func(), error) {
	if cfg.Titles.SeedFile == "" {
		return nil, nil, fmt.Errorf("titles.seedFile must be configured for local analysis")
	}
	store, err := titles.NewSeedStore(cfg.Titles.SeedFile, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load title seed file: %w", err)
	}

	// Reasoning services are optional; local analysis degrades to
	// deterministic-only when they cannot be created.
	var extractSvc, diagnoseSvc *ai.Service
	extractCfg := cfg.GetExtractConfig()
	if svc, err := ai.NewService(&extractCfg, "extract", logger); err != nil {
		logger.Warn("Claim extraction unavailable, running deterministic-only", "error", err.Error())
	} else {
		extractSvc = svc
	}
	diagnoseCfg := cfg.GetDiagnoseConfig()
	if svc, err := ai.NewService(&diagnoseCfg, "diagnose", logger); err != nil {
		logger.Warn("Model diagnosis unavailable, running deterministic-only", "error", err.Error())
	} else {
		diagnoseSvc = svc
	}

	normalizer := titles.NewNormalizer(store, titles.NormalizerConfig{
		SimilarityFloor:     cfg.Titles.SimilarityFloor,
		AcceptanceThreshold: cfg.Titles.AcceptanceThreshold,
		SuggestionLimit:     cfg.Titles.SuggestionLimit,
		CacheTTL:            cfg.Titles.CacheTTL,
		CacheSweepInterval:  cfg.Titles.CacheSweepInterval,
	}, logger)

	synth := diagnosis.NewSynthesizer(normalizer, store, diagnoseSvc, extractSvc, logger)
	cleanup := func() {
		if err := store.Close(); err != nil {
			logger.Warn("Failed to close seed store", "error", err.Error())
		}
	}
	return synth, cleanup, nil
}
