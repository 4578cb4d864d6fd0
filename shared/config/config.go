package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Collector     CollectorConfig     `yaml:"collector"`
	YouTube       YouTubeConfig       `yaml:"youtube"`
	Transcription TranscriptionConfig `yaml:"transcription"`
	AI            AIConfig            `yaml:"ai"`
	Email         EmailConfig         `yaml:"email"`
	Monitoring    MonitoringConfig    `yaml:"monitoring"`
	Schedule      string              `yaml:"schedule"`
}

// CollectorConfig describes a collection run: what to search for, where, and
// which thresholds a candidate has to clear.
type CollectorConfig struct {
	Topic        string `yaml:"topic"`
	Platform     string `yaml:"platform"`       // "youtube" or "tiktok"
	Keywords     string `yaml:"keywords"`       // comma-separated; "none" disables the TikTok pre-filter
	MinLikes     int64  `yaml:"min_likes"`
	MinFollowers int64  `yaml:"min_followers"`
	MaxResults   int64  `yaml:"max_results"`
	DataDir      string `yaml:"data_dir"`
	ExportDir    string `yaml:"export_dir"` // retrieval-index input documents
	Perspective  string `yaml:"perspective" env:"POLITICAL_PERSPECTIVE"`

	// Optional publication window, RFC 3339. When both are empty the YouTube
	// adapter falls back to [now-5y, now-1w].
	PublishedAfter  string `yaml:"published_after"`
	PublishedBefore string `yaml:"published_before"`
}

type YouTubeConfig struct {
	// APIKey takes precedence; when empty the client falls back to the OAuth
	// device flow using ClientID/ClientSecret.
	APIKey       string `yaml:"api_key" env:"YT_API_KEY"`
	ClientID     string `yaml:"client_id" env:"GOOGLE_CLIENT_ID"`
	ClientSecret string `yaml:"client_secret" env:"GOOGLE_CLIENT_SECRET"`
	TokenFile    string `yaml:"token_file"`
}

type TranscriptionConfig struct {
	OpenAIKey   string `yaml:"openai_key" env:"OPENAI_KEY"`
	Model       string `yaml:"model"`
	CookiesFile string `yaml:"cookies_file"` // exported browser session for authenticated downloads
	YTDLPPath   string `yaml:"ytdlp_path"`
}

type AIConfig struct {
	GeminiAPIKey string `yaml:"gemini_api_key" env:"GEMINI_API_KEY"`
	Model        string `yaml:"model"`
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

	data, err := os.ReadFile(configFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", configFile, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", configFile, err)
	}

	cfg.applyEnvFallbacks()
	cfg.applyDefaults()

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

func (c *Config) applyEnvFallbacks() {
	if c.YouTube.APIKey == "" {
		c.YouTube.APIKey = os.Getenv("YT_API_KEY")
	}
	if c.YouTube.ClientID == "" {
		c.YouTube.ClientID = os.Getenv("GOOGLE_CLIENT_ID")
	}
	if c.YouTube.ClientSecret == "" {
		c.YouTube.ClientSecret = os.Getenv("GOOGLE_CLIENT_SECRET")
	}
	if c.Transcription.OpenAIKey == "" {
		c.Transcription.OpenAIKey = os.Getenv("OPENAI_KEY")
	}
	if c.AI.GeminiAPIKey == "" {
		c.AI.GeminiAPIKey = os.Getenv("GEMINI_API_KEY")
	}
	if c.Email.Username == "" {
		c.Email.Username = os.Getenv("EMAIL_USERNAME")
	}
	if c.Email.Password == "" {
		c.Email.Password = os.Getenv("EMAIL_PASSWORD")
	}
	if c.Collector.Perspective == "" {
		c.Collector.Perspective = os.Getenv("POLITICAL_PERSPECTIVE")
	}
	if c.Collector.MaxResults == 0 {
		if n, err := strconv.ParseInt(os.Getenv("MAX_RESULTS"), 10, 64); err == nil {
			c.Collector.MaxResults = n
		}
	}
}

func (c *Config) applyDefaults() {
	if c.Collector.Platform == "" {
		c.Collector.Platform = "youtube"
	}
	if c.Collector.MaxResults == 0 {
		c.Collector.MaxResults = 10
	}
	if c.Collector.DataDir == "" {
		c.Collector.DataDir = "data"
	}
	if c.Collector.ExportDir == "" {
		c.Collector.ExportDir = "data/rag_input"
	}
	if c.YouTube.TokenFile == "" {
		c.YouTube.TokenFile = "youtube_token.json"
	}
	if c.Transcription.Model == "" {
		c.Transcription.Model = "whisper-1"
	}
	if c.Transcription.YTDLPPath == "" {
		c.Transcription.YTDLPPath = "yt-dlp"
	}
	if c.AI.Model == "" {
		c.AI.Model = "gemini-2.5-flash"
	}
	if c.Monitoring.HealthPort == 0 {
		c.Monitoring.HealthPort = 8080
	}
	if c.Schedule == "" {
		c.Schedule = "0 9 * * *" // Daily at 9 AM
	}
}

func (c *Config) validate() error {
	if c.Collector.Topic == "" {
		return fmt.Errorf("collector topic is required (set collector.topic)")
	}
	if c.Collector.Platform != "youtube" && c.Collector.Platform != "tiktok" {
		return fmt.Errorf("collector platform must be youtube or tiktok, got %q", c.Collector.Platform)
	}
	if c.Collector.MinLikes < 0 || c.Collector.MinFollowers < 0 {
		return fmt.Errorf("thresholds must be non-negative")
	}
	if c.Collector.Platform == "youtube" && c.YouTube.APIKey == "" && c.YouTube.ClientID == "" {
		return fmt.Errorf("YouTube credentials required (set YT_API_KEY or youtube.client_id)")
	}
	if c.Transcription.OpenAIKey == "" {
		return fmt.Errorf("OpenAI key is required for transcription (set OPENAI_KEY or transcription.openai_key)")
	}
	return nil
}

// EmailEnabled reports whether enough of the email section is filled in to
// send run reports.
func (c *Config) EmailEnabled() bool {
	return c.Email.SMTPServer != "" && c.Email.Username != "" && c.Email.ToEmail != ""
}
