package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	ListenAddr string `yaml:"listen_addr"`

	SheetID   string `yaml:"sheet_id"`
	SheetName string `yaml:"sheet_name"`

	DBPath          string `yaml:"db_path"`
	ReportOutputDir string `yaml:"report_output_dir"`

	CacheTTLSeconds int    `yaml:"cache_ttl_seconds"`
	RefreshSchedule string `yaml:"refresh_schedule"`
	SnapshotKeep    int    `yaml:"snapshot_keep"`

	AnomalyWindow    int     `yaml:"anomaly_window"`
	AnomalyThreshold float64 `yaml:"anomaly_threshold"`
	ForecastWindow   int     `yaml:"forecast_window"`
	ForecastHorizon  int     `yaml:"forecast_horizon"`

	SlackBotToken  string `yaml:"slack_bot_token"`
	SlackChannelID string `yaml:"slack_channel_id"`

	AnthropicAPIKey string `yaml:"anthropic_api_key"`
	AnthropicModel  string `yaml:"anthropic_model"`

	ExternalHTTPTimeoutSeconds int    `yaml:"external_http_timeout_seconds"`
	Timezone                   string `yaml:"timezone"`

	Location *time.Location `yaml:"-"`
}

func LoadConfig() Config {
	var cfg Config

	// Load from config.yaml if it exists
	configPath := "config.yaml"
	if envPath := os.Getenv("CONFIG_PATH"); envPath != "" {
		configPath = envPath
	}
	if data, err := os.ReadFile(configPath); err == nil {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			log.Fatalf("Error parsing %s: %v", configPath, err)
		}
		log.Printf("Loaded config from %s", configPath)
	}

	// Env vars override YAML values
	envOverride(&cfg.ListenAddr, "LISTEN_ADDR")
	envOverride(&cfg.SheetID, "SHEET_ID")
	envOverride(&cfg.SheetName, "SHEET_NAME")
	envOverride(&cfg.DBPath, "DB_PATH")
	envOverride(&cfg.ReportOutputDir, "REPORT_OUTPUT_DIR")
	envOverrideInt(&cfg.CacheTTLSeconds, "CACHE_TTL_SECONDS")
	envOverride(&cfg.RefreshSchedule, "REFRESH_SCHEDULE")
	envOverrideInt(&cfg.SnapshotKeep, "SNAPSHOT_KEEP")
	envOverrideInt(&cfg.AnomalyWindow, "ANOMALY_WINDOW")
	envOverrideFloat(&cfg.AnomalyThreshold, "ANOMALY_THRESHOLD")
	envOverrideInt(&cfg.ForecastWindow, "FORECAST_WINDOW")
	envOverrideInt(&cfg.ForecastHorizon, "FORECAST_HORIZON")
	envOverride(&cfg.SlackBotToken, "SLACK_BOT_TOKEN")
	envOverride(&cfg.SlackChannelID, "SLACK_CHANNEL_ID")
	envOverride(&cfg.AnthropicAPIKey, "ANTHROPIC_API_KEY")
	envOverride(&cfg.AnthropicModel, "ANTHROPIC_MODEL")
	envOverrideInt(&cfg.ExternalHTTPTimeoutSeconds, "EXTERNAL_HTTP_TIMEOUT_SECONDS")
	envOverride(&cfg.Timezone, "TIMEZONE")

	// Defaults
	if cfg.ListenAddr == "" {
		cfg.ListenAddr = ":8080"
	}
	if cfg.SheetName == "" {
		cfg.SheetName = "Sheet1"
	}
	if cfg.DBPath == "" {
		cfg.DBPath = "./escalboard.db"
	}
	if cfg.ReportOutputDir == "" {
		cfg.ReportOutputDir = "./reports"
	}
	if cfg.CacheTTLSeconds == 0 {
		cfg.CacheTTLSeconds = 300
	}
	if cfg.SnapshotKeep == 0 {
		cfg.SnapshotKeep = 30
	}
	if cfg.AnomalyWindow == 0 {
		cfg.AnomalyWindow = 3
	}
	if cfg.AnomalyThreshold == 0 {
		cfg.AnomalyThreshold = 2.0
	}
	if cfg.ForecastWindow == 0 {
		cfg.ForecastWindow = 3
	}
	if cfg.ForecastHorizon == 0 {
		cfg.ForecastHorizon = 3
	}
	if cfg.AnthropicModel == "" {
		cfg.AnthropicModel = "claude-sonnet-4-5-20250929"
	}
	if cfg.Timezone == "" {
		cfg.Timezone = "Local"
	}

	// Validate
	if cfg.CacheTTLSeconds < 0 {
		log.Fatalf("invalid cache_ttl_seconds '%d': must be >= 0", cfg.CacheTTLSeconds)
	}
	if cfg.AnomalyWindow < 1 {
		log.Fatalf("invalid anomaly_window '%d': must be >= 1", cfg.AnomalyWindow)
	}
	if cfg.AnomalyThreshold <= 0 {
		log.Fatalf("invalid anomaly_threshold '%f': must be > 0", cfg.AnomalyThreshold)
	}
	if cfg.ForecastWindow < 1 {
		log.Fatalf("invalid forecast_window '%d': must be >= 1", cfg.ForecastWindow)
	}
	if cfg.ForecastHorizon < 1 {
		log.Fatalf("invalid forecast_horizon '%d': must be >= 1", cfg.ForecastHorizon)
	}
	if cfg.SnapshotKeep < 1 {
		log.Fatalf("invalid snapshot_keep '%d': must be >= 1", cfg.SnapshotKeep)
	}
	if cfg.RefreshSchedule != "" && !cfg.SheetConfigured() {
		log.Fatalf("refresh_schedule requires sheet_id to be set")
	}
	if cfg.SlackChannelID != "" && cfg.SlackBotToken == "" {
		log.Fatalf("slack_bot_token is required when slack_channel_id is set")
	}

	if strings.EqualFold(cfg.Timezone, "Local") {
		cfg.Location = time.Local
		cfg.Timezone = time.Local.String()
	} else {
		loc, err := time.LoadLocation(cfg.Timezone)
		if err != nil {
			log.Fatalf("invalid timezone '%s': %v", cfg.Timezone, err)
		}
		cfg.Location = loc
	}

	return cfg
}

// SheetConfigured reports whether a remote sheet source is configured.
func (c Config) SheetConfigured() bool {
	return c.SheetID != ""
}

// SlackConfigured reports whether digest delivery to Slack is configured.
func (c Config) SlackConfigured() bool {
	return c.SlackBotToken != "" && c.SlackChannelID != ""
}

// NarrativeConfigured reports whether the digest should carry a
// model-written executive summary.
func (c Config) NarrativeConfigured() bool {
	return c.AnthropicAPIKey != ""
}

func envOverride(field *string, envKey string) {
	if val := os.Getenv(envKey); val != "" {
		*field = val
	}
}

func envOverrideInt(field *int, envKey string) {
	if val := os.Getenv(envKey); val != "" {
		parsed, err := strconv.Atoi(val)
		if err != nil {
			log.Fatalf("invalid %s '%s': %v", envKey, val, err)
		}
		*field = parsed
	}
}

func envOverrideFloat(field *float64, envKey string) {
	if val := os.Getenv(envKey); val != "" {
		parsed, err := strconv.ParseFloat(val, 64)
		if err != nil {
			log.Fatalf("invalid %s '%s': %v", envKey, val, err)
		}
		*field = parsed
	}
}
