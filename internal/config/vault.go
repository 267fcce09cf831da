package config

import (
	"context"
	"fmt"

	"github.com/aravind45/whynointerviews/internal/errors"

	"github.com/hashicorp/vault/api"
)

// VaultClient wraps the Vault API client used to source secrets that must
// not live in config files: the sealing key and the reasoning API key.
type VaultClient struct {
	client *api.Client
	config VaultConfig
	logger *errors.Logger
}

// NewVaultClient creates a new Vault client from configuration. Returns
// (nil, nil) when Vault integration is disabled.
func NewVaultClient(config VaultConfig, logger *errors.Logger) (*VaultClient, error) {
	if !config.Enabled {
		if logger != nil {
			logger.Debug("Vault integration disabled")
		}
		return nil, nil
	}

	vaultConfig := api.DefaultConfig()
	if config.Address != "" {
		vaultConfig.Address = config.Address
	}
	if config.Timeout > 0 {
		vaultConfig.Timeout = config.Timeout
	}

	client, err := api.NewClient(vaultConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create vault client: %w", err)
	}

	if config.Token != "" {
		client.SetToken(config.Token)
	}

	// Verify connectivity before anything depends on this client.
	if _, err := client.Sys().Health(); err != nil {
		return nil, fmt.Errorf("vault health check failed for %s: %w", vaultConfig.Address, err)
	}

	if logger != nil {
		logger.Info("Vault client initialized", "address", vaultConfig.Address)
	}

	return &VaultClient{
		client: client,
		config: config,
		logger: logger,
	}, nil
}

// readSecretField reads one string field from the configured KV v2 path.
func (v *VaultClient) readSecretField(ctx context.Context, field string) (string, error) {
	secret, err := v.client.Logical().ReadWithContext(ctx, v.config.SecretPath)
	if err != nil {
		return "", fmt.Errorf("failed to read vault secret at %s: %w", v.config.SecretPath, err)
	}
	if secret == nil || secret.Data == nil {
		return "", fmt.Errorf("no secret found at %s", v.config.SecretPath)
	}

	// KV v2 nests the payload under "data".
	data := secret.Data
	if nested, ok := secret.Data["data"].(map[string]any); ok {
		data = nested
	}

	value, ok := data[field].(string)
	if !ok || value == "" {
		return "", fmt.Errorf("field %q missing or empty at %s", field, v.config.SecretPath)
	}
	return value, nil
}

// EncryptionKey returns the hex-encoded sealing key stored in Vault.
func (v *VaultClient) EncryptionKey(ctx context.Context) (string, error) {
	return v.readSecretField(ctx, "encryptionKey")
}

// GeminiAPIKey returns the reasoning-capability API key stored in Vault.
func (v *VaultClient) GeminiAPIKey(ctx context.Context) (string, error) {
	return v.readSecretField(ctx, "geminiApiKey")
}

// ApplySecrets overlays Vault-sourced secrets onto the loaded configuration.
// Vault values take precedence over file and environment values.
func (c *Config) ApplySecrets(ctx context.Context, vc *VaultClient) error {
	if vc == nil {
		return nil
	}

	if key, err := vc.EncryptionKey(ctx); err == nil {
		c.Retention.EncryptionKey = key
	} else if vc.logger != nil {
		vc.logger.Warn("Encryption key not found in Vault, falling back to config", "error", err.Error())
	}

	apiKey, err := vc.GeminiAPIKey(ctx)
	if err != nil {
		if vc.logger != nil {
			vc.logger.Warn("Gemini API key not found in Vault, falling back to config", "error", err.Error())
		}
		return nil
	}
	c.AI.APIKey = apiKey
	c.AI.Extract.APIKey = apiKey
	c.AI.Diagnose.APIKey = apiKey
	return nil
}
