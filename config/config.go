package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	EnvDevelopment = "DEV"
	EnvProduction  = "PROD"
)

type AppConfig struct {
	AppEnv          string // EnvDevelopment or EnvProduction
	LogLevel        slog.Level
	LogFile         string // "-" logs to stdout
	HTTPAddr        string
	RedditBaseURL   string
	ProxyURLs       []string
	RequestTimeout  time.Duration
	RandomUserAgent bool
	RequestsPerMin  int

	PostgresURL string
	SQLitePath  string

	NatsURL     string
	NatsSubject string

	APIKey        string
	KeycloakURL   string
	KeycloakRealm string

	SMTPHost     string
	SMTPPort     string
	SMTPFrom     string
	SMTPPassword string
	NotifyEmail  string

	WatchTargets   []string
	WatchCategory  string
	WatchLimit     int
	WatchFlairs    []string
	WatchKeywords  []string
	WatchMatchMode string
	WatchLanguages []string
	WatchInterval  time.Duration
}

var Config AppConfig

func LoadConfig() {
	cfg := AppConfig{}

	cfg.AppEnv = os.Getenv("APP_ENV")
	cfg.LogFile = loadOptional("LOG_FILE", "YARS.log")
	cfg.HTTPAddr = loadOptional("HTTP_ADDR", ":8080")
	cfg.RedditBaseURL = strings.TrimRight(loadOptional("REDDIT_BASE_URL", "https://www.reddit.com"), "/")
	cfg.ProxyURLs = loadList("PROXY_URLS")
	cfg.RequestTimeout = loadDuration("REQUEST_TIMEOUT", 10*time.Second)
	cfg.RandomUserAgent = loadBool("RANDOM_USER_AGENT", true)
	cfg.RequestsPerMin = loadInt("REQUESTS_PER_MINUTE", 0)

	cfg.PostgresURL = os.Getenv("POSTGRES_URL")
	cfg.SQLitePath = os.Getenv("SQLITE_PATH")

	cfg.NatsURL = os.Getenv("NATS_URL")
	cfg.NatsSubject = loadOptional("NATS_SUBJECT", "yars.posts")

	cfg.APIKey = os.Getenv("API_KEY")
	cfg.KeycloakURL = os.Getenv("KEYCLOAK_URL")
	cfg.KeycloakRealm = os.Getenv("KEYCLOAK_REALM")
	if cfg.KeycloakURL != "" {
		cfg.KeycloakRealm = loadRequired("KEYCLOAK_REALM")
	}

	cfg.SMTPHost = os.Getenv("SMTP_HOST")
	cfg.SMTPPort = loadOptional("SMTP_PORT", "587")
	cfg.SMTPFrom = os.Getenv("SMTP_FROM")
	cfg.SMTPPassword = os.Getenv("SMTP_PASSWORD")
	cfg.NotifyEmail = os.Getenv("NOTIFY_EMAIL")

	cfg.WatchTargets = loadList("WATCH_TARGETS")
	cfg.WatchCategory = loadOptional("WATCH_CATEGORY", "new")
	cfg.WatchLimit = loadInt("WATCH_LIMIT", 25)
	cfg.WatchFlairs = loadList("WATCH_FLAIRS")
	cfg.WatchKeywords = loadList("WATCH_KEYWORDS")
	cfg.WatchMatchMode = loadOptional("WATCH_MATCH_MODE", "exact")
	cfg.WatchLanguages = loadList("WATCH_LANGUAGES")
	cfg.WatchInterval = loadDuration("WATCH_INTERVAL", 10*time.Minute)

	lvlString := loadOptional("LOG_LEVEL", "INFO")
	var err error
	cfg.LogLevel, err = parseLogLevel(lvlString)
	if err != nil {
		slog.Error("Invalid LOG_LEVEL", "error", err)
		cfg.LogLevel = slog.LevelInfo
	}

	Config = cfg
}

func parseLogLevel(s string) (slog.Level, error) {
	var level slog.Level
	var err = level.UnmarshalText([]byte(s))
	return level, err
}

func loadRequired(key string) string {
	value := os.Getenv(key)
	if value == "" {
		slog.Error("Required env var not set", "key", key)
		os.Exit(1)
	}
	return value
}

func loadOptional(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

// loadList splits a comma separated variable, dropping empty entries.
func loadList(key string) []string {
	return splitList(os.Getenv(key))
}

func splitList(value string) []string {
	var items []string
	for _, item := range strings.Split(value, ",") {
		item = strings.TrimSpace(item)
		if item != "" {
			items = append(items, item)
		}
	}
	return items
}

func loadInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		slog.Error("Invalid integer env var, using default", "key", key, "default", defaultValue)
		return defaultValue
	}
	return n
}

func loadBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		slog.Error("Invalid boolean env var, using default", "key", key, "default", defaultValue)
		return defaultValue
	}
	return b
}

func loadDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		slog.Error("Invalid duration env var, using default", "key", key, "default", defaultValue)
		return defaultValue
	}
	return d
}

func (c AppConfig) IsProduction() bool {
	return c.AppEnv == EnvProduction
}

func (c AppConfig) StorageEnabled() bool {
	return c.PostgresURL != "" || c.SQLitePath != ""
}

// Storage returns the sqlx driver name and DSN. Postgres wins when both are set.
func (c AppConfig) Storage() (driver, dsn string) {
	if c.PostgresURL != "" {
		return "postgres", c.PostgresURL
	}
	return "sqlite", c.SQLitePath
}

func (c AppConfig) MailEnabled() bool {
	return c.SMTPHost != "" && c.SMTPFrom != "" && c.NotifyEmail != ""
}
