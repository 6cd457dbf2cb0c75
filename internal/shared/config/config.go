package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"skincare-backend/internal/recommendation"
)

// Config holds application configuration.
type Config struct {
	Port            string
	CORSAllowOrigin []string
	Env             string
	ServiceName     string

	SessionStore string
	DatabaseURL  string
	SQLitePath   string

	ObjectStoreType string
	LocalStoreDir   string
	AWSRegion       string
	S3Bucket        string
	S3Prefix        string
	SSEKMSKeyID     string

	RecommendationURL         string
	RecommendationTimeout     time.Duration
	RecommendationInsecureTLS bool
	Currency                  string

	ImageAnalyzer        string
	ImageModel           string
	ImageTimeout         time.Duration
	OpenAIAPIKey         string
	OpenAIBaseURL        string
	AnthropicAPIKey      string
	FlowsFile            string
	OTLPEndpoint         string
	RateLimitEnabled     bool
	RateLimitPerMinute   int
	RateLimitBurst       int
	RateLimitRecommendPM int
}

// Load reads configuration from environment variables with sensible defaults.
func Load() Config {
	// Best-effort load of local env files for dev convenience.
	loadEnvFiles(".env", "cmd/.env")

	env := normalizeEnv(getEnv("ENV", "dev"))
	dbURL := os.Getenv("DATABASE_URL")
	store := normalizeSessionStore(os.Getenv("SESSION_STORE"), dbURL)

	if store == "postgres" && dbURL == "" {
		log.Printf("DATABASE_URL is required when SESSION_STORE=postgres")
	}

	return Config{
		Port:            getEnv("PORT", "8080"),
		CORSAllowOrigin: splitAndTrim(getEnv("CORS_ALLOW_ORIGINS", "http://localhost:5173")),
		Env:             env,
		ServiceName:     getEnv("OTEL_SERVICE_NAME", "skincare-backend"),

		SessionStore: store,
		DatabaseURL:  dbURL,
		SQLitePath:   getEnv("SQLITE_PATH", "./data/sessions.db"),

		ObjectStoreType: normalizeStoreType(getEnv("OBJECT_STORE", "local")),
		LocalStoreDir:   getEnv("LOCAL_STORE_DIR", "./data"),
		AWSRegion:       getEnv("AWS_REGION", ""),
		S3Bucket:        getEnv("S3_BUCKET", ""),
		S3Prefix:        getEnv("S3_PREFIX", ""),
		SSEKMSKeyID:     getEnv("SSE_KMS_KEY_ID", ""),

		RecommendationURL:         getEnv("RECOMMENDATION_URL", recommendation.DefaultEndpoint),
		RecommendationTimeout:     recommendation.ClampTimeout(getSeconds("RECOMMENDATION_TIMEOUT_SECONDS", recommendation.DefaultTimeout)),
		RecommendationInsecureTLS: getBool("RECOMMENDATION_INSECURE_TLS", false),
		Currency:                  getEnv("CURRENCY_SYMBOL", ""),

		ImageAnalyzer:        strings.ToLower(getEnv("IMAGE_ANALYZER", "none")),
		ImageModel:           getEnv("IMAGE_ANALYZER_MODEL", ""),
		ImageTimeout:         getSeconds("IMAGE_ANALYZER_TIMEOUT_SECONDS", 30*time.Second),
		OpenAIAPIKey:         getEnv("OPENAI_API_KEY", ""),
		OpenAIBaseURL:        getEnv("OPENAI_BASE_URL", ""),
		AnthropicAPIKey:      getEnv("ANTHROPIC_API_KEY", ""),
		FlowsFile:            getEnv("WIZARD_FLOWS_FILE", ""),
		OTLPEndpoint:         getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
		RateLimitEnabled:     getBool("RATE_LIMIT_ENABLED", true),
		RateLimitPerMinute:   getInt("RATE_LIMIT_PER_MINUTE", 120),
		RateLimitBurst:       getInt("RATE_LIMIT_BURST", 30),
		RateLimitRecommendPM: getInt("RATE_LIMIT_RECOMMENDATION_PER_MINUTE", 20),
	}
}

func getEnv(key, def string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return def
}

func getInt(key string, def int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		log.Printf("config: invalid %s=%q, using %d", key, raw, def)
		return def
	}
	return n
}

func getBool(key string, def bool) bool {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		log.Printf("config: invalid %s=%q, using %t", key, raw, def)
		return def
	}
	return b
}

func getSeconds(key string, def time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	secs, err := strconv.ParseFloat(raw, 64)
	if err != nil || secs <= 0 {
		log.Printf("config: invalid %s=%q, using %s", key, raw, def)
		return def
	}
	return time.Duration(secs * float64(time.Second))
}

func splitAndTrim(raw string) []string {
	parts := strings.Split(raw, ",")
	var out []string
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func normalizeEnv(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "production", "prod":
		return "production"
	case "staging":
		return "staging"
	case "local":
		return "local"
	case "development", "dev":
		return "dev"
	default:
		return "dev"
	}
}

func normalizeStoreType(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "s3":
		return "s3"
	default:
		return "local"
	}
}

func normalizeSessionStore(raw, dbURL string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "postgres", "pg":
		return "postgres"
	case "sqlite":
		return "sqlite"
	case "memory":
		return "memory"
	}
	if dbURL != "" {
		return "postgres"
	}
	return "memory"
}
