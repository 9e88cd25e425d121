// internal/config/config.go
package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Database struct {
		Host       string `json:"host"`
		Port       string `json:"port"`
		User       string `json:"user"`
		Password   string `json:"password"`
		Name       string `json:"name"`
		SSLMode    string `json:"sslmode"`
		SearchPath string `json:"schema"`
	} `json:"database"`
	JWT struct {
		Secret       string        `json:"secret"`
		ExpiryPeriod time.Duration `json:"expiry_period"`
	} `json:"jwt"`
	Server struct {
		Port         string        `json:"port"`
		ReadTimeout  time.Duration `json:"read_timeout"`
		WriteTimeout time.Duration `json:"write_timeout"`
	} `json:"server"`
	Storage struct {
		Root    string `json:"root"`
		BaseURL string `json:"base_url"`
	} `json:"storage"`
	Email struct {
		Provider string `json:"provider"`
		From     string `json:"from"`
		FromName string `json:"from_name"`
	} `json:"email"`
	Sendgrid struct {
		APIKey string `json:"api_key"`
	} `json:"sendgrid"`
	SMTP struct {
		Host     string `json:"host"`
		Port     int    `json:"port"`
		Username string `json:"username"`
		Password string `json:"password"`
	} `json:"smtp"`
	Invitation struct {
		TTL time.Duration `json:"ttl"`
	} `json:"invitation"`
	Statistics struct {
		Cron string `json:"cron"`
	} `json:"statistics"`
	CompletionPolicyFile string `json:"completion_policy_file"`
	BaseURL              string `json:"base_url"`
}

// Load reads the configuration from the environment. A .env file in the
// working directory is applied first when present; real environment
// variables win over it.
func Load() *Config {
	_ = godotenv.Load()

	cfg := &Config{}

	// Database configuration
	cfg.Database.Host = getEnv("DB_HOST", "localhost")
	cfg.Database.Port = getEnv("DB_PORT", "5432")
	cfg.Database.User = getEnv("DB_USER", "postgres")
	cfg.Database.Password = getEnv("DB_PASSWORD", "")
	cfg.Database.Name = getEnv("DB_NAME", "qualitrack")
	cfg.Database.SSLMode = getEnv("DB_SSLMODE", "disable")
	cfg.Database.SearchPath = getEnv("DB_SCHEMA", "public")

	// JWT configuration
	cfg.JWT.Secret = getEnv("JWT_SECRET", "your-secret-key")
	cfg.JWT.ExpiryPeriod = getDuration("JWT_EXPIRY", 24*time.Hour)

	// Server configuration
	cfg.Server.Port = getEnv("SERVER_PORT", "8080")
	cfg.Server.ReadTimeout = getDuration("SERVER_READ_TIMEOUT", 15*time.Second)
	cfg.Server.WriteTimeout = getDuration("SERVER_WRITE_TIMEOUT", 60*time.Second)

	// File storage
	cfg.Storage.Root = getEnv("STORAGE_ROOT", "./data/files")
	cfg.Storage.BaseURL = getEnv("STORAGE_BASE_URL", "/files")

	// Email delivery; an empty provider disables invitation mail
	cfg.Email.Provider = getEnv("EMAIL_PROVIDER", "")
	cfg.Email.From = getEnv("EMAIL_FROM", getEnv("SENDGRID_FROM", ""))
	cfg.Email.FromName = getEnv("EMAIL_FROM_NAME", "Qualitrack")
	cfg.Sendgrid.APIKey = getEnv("SENDGRID_API_KEY", "")
	cfg.SMTP.Host = getEnv("SMTP_HOST", "")
	cfg.SMTP.Port = getInt("SMTP_PORT", 587)
	cfg.SMTP.Username = getEnv("SMTP_USERNAME", "")
	cfg.SMTP.Password = getEnv("SMTP_PASSWORD", "")
	if cfg.Email.Provider == "" && cfg.Sendgrid.APIKey != "" {
		cfg.Email.Provider = "sendgrid"
	}

	cfg.Invitation.TTL = getDuration("INVITATION_TTL", 7*24*time.Hour)
	cfg.Statistics.Cron = getEnv("STATS_CRON", "5 0 * * *")
	cfg.CompletionPolicyFile = getEnv("COMPLETION_POLICY_FILE", "")
	cfg.BaseURL = getEnv("BASE_URL", "http://localhost:3000")

	return cfg
}

// DSN builds the postgres connection string.
func (c *Config) DSN() string {
	return "host=" + c.Database.Host +
		" port=" + c.Database.Port +
		" user=" + c.Database.User +
		" password=" + c.Database.Password +
		" dbname=" + c.Database.Name +
		" sslmode=" + c.Database.SSLMode +
		" search_path=" + c.Database.SearchPath
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	value, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil || d <= 0 {
		return defaultValue
	}
	return d
}

func getInt(key string, defaultValue int) int {
	value, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return n
}
