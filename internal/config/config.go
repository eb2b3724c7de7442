package config

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const DefaultAPIURL = "http://localhost:5000/api"

type Config struct {
	Env   string
	Brand string

	// client side
	APIURL         string
	APITimeout     time.Duration
	SessionBackend string
	SessionPath    string
	InstallationID string
	RedisAddr      string
	RedisPassword  string
	RedisDB        int
	OTELEndpoint   string

	// development stub backend
	Port                int
	JWTSecret           string
	JWTAccessTTLMinutes int
	OTPFixedCode        string
	CORSOrigins         []string
}

// Load reads an optional .env file and then the process environment.
// Explicit env vars win over .env values.
func Load() Config {
	_ = godotenv.Load()

	apiURL := getEnv("MARKETLINK_API_URL", getEnv("VITE_API_URL", DefaultAPIURL))

	return Config{
		Env:   getEnv("APP_ENV", "dev"),
		Brand: getEnv("BRAND_NAME", "9jalinks"),

		APIURL:         strings.TrimRight(apiURL, "/"),
		APITimeout:     getEnvDuration("API_TIMEOUT", 0),
		SessionBackend: getEnv("SESSION_BACKEND", "file"),
		SessionPath:    getEnv("SESSION_PATH", defaultSessionPath()),
		InstallationID: getEnv("INSTALLATION_ID", defaultInstallationID()),
		RedisAddr:      getEnv("REDIS_ADDR", "127.0.0.1:6379"),
		RedisPassword:  getEnv("REDIS_PASSWORD", ""),
		RedisDB:        getEnvInt("REDIS_DB", 0),
		OTELEndpoint:   getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),

		Port:                getEnvInt("PORT", 5000),
		JWTSecret:           getEnv("JWT_SECRET", "dev-secret-change-me"),
		JWTAccessTTLMinutes: getEnvInt("JWT_ACCESS_TTL_MINUTES", 60*24),
		OTPFixedCode:        getEnv("OTP_FIXED_CODE", ""),
		CORSOrigins:         splitList(getEnv("CORS_ORIGINS", "http://localhost:5173")),
	}
}

func WithTimeout(duration time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), duration)
}

func defaultSessionPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = "."
	}

	return dir + string(os.PathSeparator) + "marketlink" + string(os.PathSeparator) + "session.json"
}

func defaultInstallationID() string {
	host, err := os.Hostname()
	if err != nil || host == "" {
		return "local"
	}

	return host
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}

	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		num, err := strconv.Atoi(v)

		if err != nil {
			fmt.Fprintf(os.Stderr, "invalid integer for %s: %v\n", key, err)
			return fallback
		}

		return num
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		d, err := time.ParseDuration(v)

		if err != nil {
			fmt.Fprintf(os.Stderr, "invalid duration for %s: %v\n", key, err)
			return fallback
		}

		return d
	}
	return fallback
}

func splitList(raw string) []string {
	out := make([]string, 0, 4)

	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}

	return out
}
