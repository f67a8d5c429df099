package infra

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config represents application configuration loaded from environment variables.
type Config struct {
	AppEnv               string
	Port                 string
	GeminiAPIKey         string
	GeminiBaseURL        string
	GeminiImageModel     string
	GeminiVideoModel     string
	GeminiChatModel      string
	VideoPollInterval    time.Duration
	VideoMaxPollAttempts int
	VideoResolution      string
	VideoAspectRatio     string
	InitialCredits       int
	CreditBundleSize     int
	PurchaseDelay        time.Duration
	MediaTypePrefix      string
	DefaultLocale        string
	AllowedOrigins       []string
	HTTPReadTimeout      time.Duration
	HTTPWriteTimeout     time.Duration
	HTTPIdleTimeout      time.Duration
	RateLimitPerMin      int
}

// LoadConfig loads configuration from environment variables and applies
// defaults where needed. The Gemini API key has no default: without it the
// process must not start, so the absence is reported here rather than at the
// first remote call.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		AppEnv:               getEnv("APP_ENV", "development"),
		Port:                 getEnv("PORT", "8080"),
		GeminiAPIKey:         strings.TrimSpace(os.Getenv("GEMINI_API_KEY")),
		GeminiBaseURL:        getEnv("GEMINI_BASE_URL", "https://generativelanguage.googleapis.com/v1beta"),
		GeminiImageModel:     getEnv("GEMINI_IMAGE_MODEL", "gemini-2.5-flash-image"),
		GeminiVideoModel:     getEnv("GEMINI_VIDEO_MODEL", "veo-3.0-generate-001"),
		GeminiChatModel:      getEnv("GEMINI_CHAT_MODEL", "gemini-2.5-flash"),
		VideoPollInterval:    getEnvDuration("VIDEO_POLL_INTERVAL", 8*time.Second),
		VideoMaxPollAttempts: getEnvInt("VIDEO_MAX_POLL_ATTEMPTS", 0),
		VideoResolution:      getEnv("VIDEO_RESOLUTION", "720p"),
		VideoAspectRatio:     getEnv("VIDEO_ASPECT_RATIO", "16:9"),
		InitialCredits:       getEnvInt("INITIAL_CREDITS", 1),
		CreditBundleSize:     getEnvInt("CREDIT_BUNDLE_SIZE", 5),
		PurchaseDelay:        getEnvDuration("PURCHASE_DELAY", 2*time.Second),
		MediaTypePrefix:      getEnv("MEDIA_TYPE_PREFIX", "image/"),
		DefaultLocale:        getEnv("DEFAULT_LOCALE", "en"),
		AllowedOrigins:       splitCSV(getEnv("ALLOWED_ORIGINS", "http://localhost:5173")),
		HTTPReadTimeout:      time.Second * time.Duration(getEnvInt("HTTP_READ_TIMEOUT_SECONDS", 15)),
		HTTPWriteTimeout:     time.Second * time.Duration(getEnvInt("HTTP_WRITE_TIMEOUT_SECONDS", 300)),
		HTTPIdleTimeout:      time.Second * time.Duration(getEnvInt("HTTP_IDLE_TIMEOUT_SECONDS", 60)),
		RateLimitPerMin:      getEnvInt("RATE_LIMIT_PER_MINUTE", 30),
	}

	if cfg.GeminiAPIKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY is required")
	}

	if cfg.VideoPollInterval <= 0 {
		return nil, fmt.Errorf("VIDEO_POLL_INTERVAL must be positive")
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func splitCSV(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
