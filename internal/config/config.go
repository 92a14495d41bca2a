package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Port        string
	Environment string
	CORSOrigins string
	TablePrefix string
	// Optional vault database; documents come from DocumentsFile when empty
	DatabaseURL   string
	DocumentsFile string
	// Optional bearer auth; disabled when empty
	AuthJWKSURL string
	// Collaborator configuration
	LLMProvider         string // offline, anthropic, gemini, lorem
	AnthropicAPIKey     string
	GeminiAPIKey        string
	LLMModel            string
	CollaboratorTimeout time.Duration // 0 disables the bound
	ReputationCacheSize int
	// Engine configuration
	ShareBaseURL        string
	CompanyPrincipalID  string
	PrincipalsFile      string // overrides the embedded principal registry
	FounderTemplateFile string
	AllowPrivateSites   bool // lets confirmed investor URLs point at IPs and internal hosts
	// Logging
	LogDir      string
	LogMaxFiles int
	// Debug flags
	Debug bool
}

func Load() *Config {
	env := getEnv("ENVIRONMENT", "dev")
	provider := strings.ToLower(getEnv("LLM_PROVIDER", "offline"))

	return &Config{
		Port:        getEnv("PORT", "8080"),
		Environment: env,
		CORSOrigins: getEnv("CORS_ORIGINS", "http://localhost:3000"),
		TablePrefix: getTablePrefix(env),

		DatabaseURL:   getEnv("DATABASE_URL", ""),
		DocumentsFile: getEnv("DOCUMENTS_FILE", ""),
		AuthJWKSURL:   getEnv("AUTH_JWKS_URL", ""),

		LLMProvider:         provider,
		AnthropicAPIKey:     getEnv("ANTHROPIC_API_KEY", ""),
		GeminiAPIKey:        getEnv("GEMINI_API_KEY", ""),
		LLMModel:            getEnv("LLM_MODEL", defaultModel(provider)),
		CollaboratorTimeout: getDuration("COLLABORATOR_TIMEOUT", 90*time.Second),
		ReputationCacheSize: getInt("REPUTATION_CACHE_SIZE", 256),

		ShareBaseURL:        strings.TrimRight(getEnv("SHARE_BASE_URL", "http://localhost:3000"), "/"),
		CompanyPrincipalID:  getEnv("COMPANY_PRINCIPAL_ID", "company"),
		PrincipalsFile:      getEnv("PRINCIPALS_FILE", ""),
		FounderTemplateFile: getEnv("FOUNDER_TEMPLATE_FILE", ""),
		AllowPrivateSites:   getEnv("ALLOW_PRIVATE_SITES", "false") == "true",

		LogDir:      getEnv("LOG_DIR", ""),
		LogMaxFiles: getInt("LOG_MAX_FILES", 10),
		// Debug flags - default to true in dev/test, false in production
		Debug: getEnv("DEBUG", getDefaultDebug(env)) == "true",
	}
}

// defaultModel picks a model for the configured provider when LLM_MODEL is unset
func defaultModel(provider string) string {
	switch provider {
	case "anthropic":
		return "claude-haiku-4-5-20251001"
	case "gemini":
		return "gemini-2.5-flash"
	case "lorem":
		return "lorem-fast"
	default:
		return ""
	}
}

// getDefaultDebug returns the default debug setting based on environment
func getDefaultDebug(env string) string {
	if env == "prod" {
		return "false"
	}
	return "true" // Enable DEBUG in dev/test by default
}

// getTablePrefix returns the table prefix based on environment
func getTablePrefix(env string) string {
	// Allow manual override via TABLE_PREFIX env var
	if prefix := os.Getenv("TABLE_PREFIX"); prefix != "" {
		return prefix
	}

	switch env {
	case "prod":
		return "prod_"
	case "test":
		return "test_"
	default:
		return "dev_"
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getDuration accepts Go durations ("45s") or bare seconds ("45")
func getDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if d, err := time.ParseDuration(value); err == nil && d >= 0 {
		return d
	}
	if secs, err := strconv.Atoi(value); err == nil && secs >= 0 {
		return time.Duration(secs) * time.Second
	}
	return defaultValue
}

func getInt(key string, defaultValue int) int {
	if n, err := strconv.Atoi(os.Getenv(key)); err == nil && n > 0 {
		return n
	}
	return defaultValue
}
