package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds all runtime configuration loaded from environment variables.
// Every field has a sensible default; the service runs out of the box against
// the in-memory run registry when DATABASE_URL is unset.
type Config struct {
	// Server
	HTTPPort        string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration

	// Database (optional — empty means in-memory run registry)
	DatabaseURL string
	DBMaxConns  int32
	DBMinConns  int32

	// Upstream endpoints
	EmailsURL      string
	RespondURL     string
	APIKey         string
	TestMode       bool
	RequestTimeout time.Duration

	// Orchestration
	WorkerCount      int
	TargetLead       time.Duration
	InterReleaseGap  time.Duration
	IdlePollInterval time.Duration

	// Delivery
	MaxRetries        int
	BaseBackoff       time.Duration
	DeliveryRateLimit int

	// Simulated generation think-time (exponential, clamped)
	GenDelayScale time.Duration
	GenDelayMin   time.Duration
	GenDelayMax   time.Duration
}

func Load() (*Config, error) {
	return &Config{
		HTTPPort:        getEnv("HTTP_PORT", "8080"),
		ReadTimeout:     getDuration("READ_TIMEOUT", 5*time.Second),
		WriteTimeout:    getDuration("WRITE_TIMEOUT", 10*time.Second),
		ShutdownTimeout: getDuration("SHUTDOWN_TIMEOUT", 30*time.Second),

		DatabaseURL: os.Getenv("DATABASE_URL"),
		DBMaxConns:  int32(getInt("DB_MAX_CONNS", 25)),
		DBMinConns:  int32(getInt("DB_MIN_CONNS", 5)),

		EmailsURL:      getEnv("EMAILS_URL", "https://api.example.com/dev/emails"),
		RespondURL:     getEnv("RESPOND_URL", "https://api.example.com/dev/responses"),
		APIKey:         getEnv("API_KEY", "mpatel0708"),
		TestMode:       getBool("TEST_MODE", true),
		RequestTimeout: getDuration("REQUEST_TIMEOUT", 10*time.Second),

		WorkerCount:      getInt("WORKER_COUNT", 10),
		TargetLead:       getDuration("TARGET_LEAD", 500*time.Millisecond),
		InterReleaseGap:  getDuration("INTER_RELEASE_GAP", 100*time.Microsecond),
		IdlePollInterval: getDuration("IDLE_POLL_INTERVAL", 10*time.Millisecond),

		MaxRetries:        getInt("MAX_RETRIES", 3),
		BaseBackoff:       getDuration("BASE_BACKOFF", 200*time.Millisecond),
		DeliveryRateLimit: getInt("DELIVERY_RATE_LIMIT", 100),

		GenDelayScale: getDuration("GEN_DELAY_SCALE", 500*time.Millisecond),
		GenDelayMin:   getDuration("GEN_DELAY_MIN", 400*time.Millisecond),
		GenDelayMax:   getDuration("GEN_DELAY_MAX", 600*time.Millisecond),
	}, nil
}

func getEnv(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getInt(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return defaultVal
}

func getBool(key string, defaultVal bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return defaultVal
}

func getDuration(key string, defaultVal time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return defaultVal
}
