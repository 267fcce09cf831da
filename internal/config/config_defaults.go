package config

import (
	"time"

	"github.com/spf13/viper"
)

// setDefaults sets the default configuration values
func setDefaults(v *viper.Viper) {
	// AI Configuration - Global defaults
	v.SetDefault("ai.provider", "gemini")
	v.SetDefault("ai.model", "gemini-2.0-flash")
	v.SetDefault("ai.timeout", 60*time.Second)
	v.SetDefault("ai.apiKey", "")
	v.SetDefault("ai.maxRetries", 3)
	v.SetDefault("ai.temperature", 0.2)
	v.SetDefault("ai.maxTokens", 4096)

	// Extract operation: deterministic-style fact extraction
	v.SetDefault("ai.extract.provider", "gemini")
	v.SetDefault("ai.extract.model", "")
	v.SetDefault("ai.extract.timeout", 30*time.Second)
	v.SetDefault("ai.extract.maxRetries", 2)
	v.SetDefault("ai.extract.temperature", 0.0)
	v.SetDefault("ai.extract.maxTokens", 1024)

	// Diagnose operation: exploratory reasoning, still bounded
	v.SetDefault("ai.diagnose.provider", "gemini")
	v.SetDefault("ai.diagnose.model", "")
	v.SetDefault("ai.diagnose.timeout", 55*time.Second)
	v.SetDefault("ai.diagnose.maxRetries", 2)
	v.SetDefault("ai.diagnose.temperature", 0.3)
	v.SetDefault("ai.diagnose.maxTokens", 4096)

	// Circuit breaker defaults for both operations
	for _, op := range []string{"extract", "diagnose"} {
		v.SetDefault("ai."+op+".circuitBreaker.enabled", true)
		v.SetDefault("ai."+op+".circuitBreaker.maxRequests", 3)
		v.SetDefault("ai."+op+".circuitBreaker.interval", 60*time.Second)
		v.SetDefault("ai."+op+".circuitBreaker.timeout", 60*time.Second)
		v.SetDefault("ai."+op+".circuitBreaker.minRequests", 3)
		v.SetDefault("ai."+op+".circuitBreaker.failureThreshold", 0.6)
	}

	// Database Configuration
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "whynoint")
	v.SetDefault("database.password", "")
	v.SetDefault("database.name", "whynointerviews")
	v.SetDefault("database.sslMode", "disable")
	v.SetDefault("database.maxOpenConns", 25)
	v.SetDefault("database.maxIdleConns", 5)
	v.SetDefault("database.connMaxLifetime", 30*time.Minute)

	// Server Configuration
	v.SetDefault("server.host", "localhost")
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.readTimeout", 30*time.Second)
	v.SetDefault("server.writeTimeout", 30*time.Second)
	v.SetDefault("server.idleTimeout", 120*time.Second)
	v.SetDefault("server.apiKeys", []string{})
	v.SetDefault("server.rateLimit.enabled", true)
	v.SetDefault("server.rateLimit.requestsPerMin", 60)
	v.SetDefault("server.rateLimit.burstCapacity", 10)
	v.SetDefault("server.rateLimit.byIP", true)
	v.SetDefault("server.rateLimit.byAPIKey", false)
	v.SetDefault("server.rateLimit.window", time.Minute)

	// Application Configuration
	v.SetDefault("app.logLevel", "info")
	v.SetDefault("app.maxFileSize", int64(10*1024*1024))
	v.SetDefault("app.maxPageCount", 10)
	v.SetDefault("app.minTextChars", 200)
	v.SetDefault("app.fileTypes", []string{"pdf", "docx", "txt"})
	v.SetDefault("app.defaultFormat", "text")
	v.SetDefault("app.supportedFormats", []string{"json", "text", "markdown"})

	// Title normalization
	v.SetDefault("titles.seedFile", "")
	v.SetDefault("titles.watchSeedFile", true)
	v.SetDefault("titles.similarityFloor", 0.3)
	v.SetDefault("titles.acceptanceThreshold", 60)
	v.SetDefault("titles.suggestionLimit", 5)
	v.SetDefault("titles.cacheTTL", 15*time.Minute)
	v.SetDefault("titles.cacheSweepInterval", 5*time.Minute)

	// Lifecycle budgets
	v.SetDefault("lifecycle.parseTimeout", 30*time.Second)
	v.SetDefault("lifecycle.diagnoseTimeout", 60*time.Second)
	v.SetDefault("lifecycle.overallTimeout", 120*time.Second)
	v.SetDefault("lifecycle.workerCount", 4)
	v.SetDefault("lifecycle.queueSize", 100)
	v.SetDefault("lifecycle.pollInterval", 10*time.Second)

	// Retention
	v.SetDefault("retention.window", 24*time.Hour)
	v.SetDefault("retention.sweepInterval", 5*time.Minute)
	v.SetDefault("retention.encryptionKey", "")

	// Vault
	v.SetDefault("vault.enabled", false)
	v.SetDefault("vault.address", "")
	v.SetDefault("vault.token", "")
	v.SetDefault("vault.secretPath", "secret/data/whynointerviews")
	v.SetDefault("vault.timeout", 10*time.Second)

	// Observability
	v.SetDefault("observability.enabled", true)
	v.SetDefault("observability.serviceName", "whynointerviews")
	v.SetDefault("observability.serviceVersion", "dev")
	v.SetDefault("observability.sampleRate", 1.0)
	v.SetDefault("observability.consoleOutput", false)
	v.SetDefault("observability.prometheus.enabled", true)
	v.SetDefault("observability.prometheus.endpoint", "/metrics")
	v.SetDefault("observability.prometheus.port", "9090")
	v.SetDefault("observability.otlp.enabled", false)
	v.SetDefault("observability.otlp.endpoint", "localhost:4318")
	v.SetDefault("observability.otlp.insecure", true)
}
