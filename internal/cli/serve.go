package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/aravind45/whynointerviews/internal/ai"
	"github.com/aravind45/whynointerviews/internal/config"
	"github.com/aravind45/whynointerviews/internal/diagnosis"
	"github.com/aravind45/whynointerviews/internal/lifecycle"
	"github.com/aravind45/whynointerviews/internal/protect"
	"github.com/aravind45/whynointerviews/internal/repositories"
	"github.com/aravind45/whynointerviews/internal/resume"
	"github.com/aravind45/whynointerviews/internal/server"
	"github.com/aravind45/whynointerviews/internal/titles"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP diagnosis service",
	Long: `Start an HTTP server that accepts resume submissions and runs the
diagnosis pipeline asynchronously.

Available endpoints:
- POST /submissions: Submit a resume for analysis (returns 202 with an ID)
- GET /submissions/{id}: Check submission status
- GET /submissions/{id}/result: Fetch the diagnosis once analysis completes
- DELETE /submissions/{id}: Purge a submission and receive a deletion confirmation
- GET /health: Health check endpoint
- GET /stats: Server statistics and rate limiting info`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringP("port", "p", "", "Port to listen on (default from config)")
	serveCmd.Flags().String("host", "", "Host to bind to (default from config)")

	// Bind flags to viper config keys
	bindFlag := func(key, flagName string) {
		if err := viper.BindPFlag(key, serveCmd.Flags().Lookup(flagName)); err != nil {
			panic(err)
		}
	}

	bindFlag("server.port", "port")
	bindFlag("server.host", "host")
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	cfg := getConfigFromContext(ctx)
	logger := getLoggerFromContext(ctx)

	// Overlay Vault-sourced secrets before anything reads them.
	vc, err := config.NewVaultClient(cfg.Vault, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize vault client: %w", err)
	}
	if err := cfg.ApplySecrets(ctx, vc); err != nil {
		return fmt.Errorf("failed to apply vault secrets: %w", err)
	}

	db, err := repositories.InitDatabase(&cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}

	subs := repositories.NewSubmissionRepository(db)
	diags := repositories.NewDiagnosisRepository(db)
	titleRepo := repositories.NewTitleRepository(db)

	// Import the taxonomy seed when configured. The database remains the
	// source of truth for lookups; with watching enabled, seed file edits
	// are re-imported while the server runs.
	if cfg.Titles.SeedFile != "" {
		seed, err := titles.NewSeedStore(cfg.Titles.SeedFile, logger)
		if err != nil {
			return fmt.Errorf("failed to load title seed file: %w", err)
		}
		if err := titleRepo.SeedFrom(ctx, seed); err != nil {
			seed.Close()
			return fmt.Errorf("failed to import title taxonomy: %w", err)
		}
		logger.Info("Title taxonomy imported", "seed_file", cfg.Titles.SeedFile)

		if cfg.Titles.WatchSeedFile {
			seed.SetOnReload(func() {
				importCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
				defer cancel()
				if err := titleRepo.SeedFrom(importCtx, seed); err != nil {
					logger.LogError(err, "Taxonomy re-import failed, database keeps previous rows")
					return
				}
				logger.Info("Title taxonomy re-imported after seed file change")
			})
			if err := seed.Watch(); err != nil {
				seed.Close()
				return fmt.Errorf("failed to watch title seed file: %w", err)
			}
			defer func() {
				if err := seed.Close(); err != nil {
					logger.Warn("Failed to close seed store", "error", err.Error())
				}
			}()
		} else if err := seed.Close(); err != nil {
			logger.Warn("Failed to close seed store", "error", err.Error())
		}
	}

	sealer, err := protect.NewSealer(cfg.Retention.EncryptionKey)
	if err != nil {
		return fmt.Errorf("failed to initialize content sealer: %w", err)
	}

	extractor := resume.NewFileExtractor(cfg.App.MaxPageCount, cfg.App.MinTextChars)

	// Reasoning services are optional. Initialization failure degrades the
	// pipeline to deterministic-only analysis instead of blocking startup.
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

	normalizer := titles.NewNormalizer(titleRepo, titles.NormalizerConfig{
		SimilarityFloor:     cfg.Titles.SimilarityFloor,
		AcceptanceThreshold: cfg.Titles.AcceptanceThreshold,
		SuggestionLimit:     cfg.Titles.SuggestionLimit,
		CacheTTL:            cfg.Titles.CacheTTL,
		CacheSweepInterval:  cfg.Titles.CacheSweepInterval,
	}, logger)

	synth := diagnosis.NewSynthesizer(normalizer, titleRepo, diagnoseSvc, extractSvc, logger)

	manager := lifecycle.NewManager(subs, diags, sealer, extractor, synth,
		cfg.Lifecycle, cfg.App, cfg.Retention.Window, logger)
	sweeper := protect.NewSweeper(subs, cfg.Retention.SweepInterval, logger)

	serverCfg := server.ServerConfig{
		Host:           cfg.Server.Host,
		Port:           cfg.Server.Port,
		Version:        Version,
		APIKeys:        cfg.Server.APIKeys,
		ReadTimeout:    cfg.Server.ReadTimeout,
		WriteTimeout:   cfg.Server.WriteTimeout,
		IdleTimeout:    cfg.Server.IdleTimeout,
		MaxRequestSize: cfg.App.MaxFileSize,
		RateLimit:      &cfg.Server.RateLimit,
	}
	return server.NewServer(cfg, serverCfg, manager, sweeper, logger).Start()
}
