package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Warehouse  WarehouseConfig  `yaml:"warehouse"`
	AI         AIConfig         `yaml:"ai"`
	Analysis   AnalysisConfig   `yaml:"analysis"`
	YouTube    YouTubeConfig    `yaml:"youtube"`
	Email      EmailConfig      `yaml:"email"`
	Monitoring MonitoringConfig `yaml:"monitoring"`
	Schedule   string           `yaml:"schedule"`
}

type WarehouseConfig struct {
	ProjectID       string `yaml:"project_id" env:"BIGQUERY_PROJECT_ID"`
	CredentialsFile string `yaml:"credentials_file" env:"GOOGLE_CREDENTIALS_PATH"`
	MetricsDataset  string `yaml:"metrics_dataset"`
	AnalysisDataset string `yaml:"analysis_dataset"`
}

type AIConfig struct {
	GeminiAPIKey string `yaml:"gemini_api_key" env:"GEMINI_API_KEY"`
	Model        string `yaml:"model"`
}

type AnalysisConfig struct {
	MaxConcurrent    int `yaml:"max_concurrent" env:"MAX_CONCURRENT_ANALYSES"`
	RateLimitSeconds int `yaml:"rate_limit_seconds" env:"ANALYSIS_RATE_LIMIT_SECONDS"`
	SerpWindowDays   int `yaml:"serp_window_days"`
	TrackingDays     int `yaml:"tracking_days"`
}

type YouTubeConfig struct {
	ClientID     string `yaml:"client_id" env:"GOOGLE_CLIENT_ID"`
	ClientSecret string `yaml:"client_secret" env:"GOOGLE_CLIENT_SECRET"`
	TokenFile    string `yaml:"token_file"`
}

type EmailConfig struct {
	SMTPServer string `yaml:"smtp_server"`
	SMTPPort   int    `yaml:"smtp_port"`
	Username   string `yaml:"username" env:"EMAIL_USERNAME"`
	Password   string `yaml:"password" env:"EMAIL_PASSWORD"`
	FromEmail  string `yaml:"from_email"`
	ToEmail    string `yaml:"to_email"`
}

type MonitoringConfig struct {
	HealthPort int `yaml:"health_port"`
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	configFile := os.Getenv("CONFIG_FILE")
	if configFile == "" {
		configFile = "config.yaml"
	}

	var cfg Config
	if data, err := os.ReadFile(configFile); err == nil {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", configFile, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read config file %s: %w", configFile, err)
	}

	if cfg.Warehouse.ProjectID == "" {
		cfg.Warehouse.ProjectID = os.Getenv("BIGQUERY_PROJECT_ID")
	}
	if cfg.Warehouse.CredentialsFile == "" {
		cfg.Warehouse.CredentialsFile = os.Getenv("GOOGLE_CREDENTIALS_PATH")
	}
	if cfg.AI.GeminiAPIKey == "" {
		cfg.AI.GeminiAPIKey = os.Getenv("GEMINI_API_KEY")
	}
	if cfg.YouTube.ClientID == "" {
		cfg.YouTube.ClientID = os.Getenv("GOOGLE_CLIENT_ID")
	}
	if cfg.YouTube.ClientSecret == "" {
		cfg.YouTube.ClientSecret = os.Getenv("GOOGLE_CLIENT_SECRET")
	}
	if cfg.Email.Username == "" {
		cfg.Email.Username = os.Getenv("EMAIL_USERNAME")
	}
	if cfg.Email.Password == "" {
		cfg.Email.Password = os.Getenv("EMAIL_PASSWORD")
	}
	if cfg.Analysis.MaxConcurrent == 0 {
		cfg.Analysis.MaxConcurrent = envInt("MAX_CONCURRENT_ANALYSES", 0)
	}
	if cfg.Analysis.RateLimitSeconds == 0 {
		cfg.Analysis.RateLimitSeconds = envInt("ANALYSIS_RATE_LIMIT_SECONDS", 0)
	}

	cfg.applyDefaults()

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Warehouse.MetricsDataset == "" {
		c.Warehouse.MetricsDataset = "yt_metrics"
	}
	if c.Warehouse.AnalysisDataset == "" {
		c.Warehouse.AnalysisDataset = "yt_analysis"
	}
	if c.AI.Model == "" {
		c.AI.Model = "gemini-2.5-flash"
	}
	if c.Analysis.MaxConcurrent == 0 {
		c.Analysis.MaxConcurrent = 5
	}
	if c.Analysis.RateLimitSeconds == 0 {
		c.Analysis.RateLimitSeconds = 2
	}
	if c.Analysis.SerpWindowDays == 0 {
		c.Analysis.SerpWindowDays = 90
	}
	if c.Analysis.TrackingDays == 0 {
		c.Analysis.TrackingDays = 7
	}
	if c.YouTube.TokenFile == "" {
		c.YouTube.TokenFile = "youtube_token.json"
	}
	if c.Monitoring.HealthPort == 0 {
		c.Monitoring.HealthPort = 8080
	}
	if c.Schedule == "" {
		c.Schedule = "0 0 6 * * *" // Daily at 6 AM
	}
}

func (c *Config) validate() error {
	if c.Warehouse.ProjectID == "" {
		return fmt.Errorf("warehouse project ID is required (set BIGQUERY_PROJECT_ID or warehouse.project_id)")
	}
	if c.AI.GeminiAPIKey == "" {
		return fmt.Errorf("Gemini API key is required (set GEMINI_API_KEY or ai.gemini_api_key)")
	}
	if c.Analysis.MaxConcurrent < 1 {
		return fmt.Errorf("analysis.max_concurrent must be at least 1 (got %d)", c.Analysis.MaxConcurrent)
	}
	if c.Analysis.RateLimitSeconds < 0 {
		return fmt.Errorf("analysis.rate_limit_seconds cannot be negative (got %d)", c.Analysis.RateLimitSeconds)
	}
	return nil
}

func envInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}
