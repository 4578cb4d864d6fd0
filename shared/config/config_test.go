package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, content string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	t.Setenv("CONFIG_FILE", path)
	// Keep ambient env from leaking into validation.
	t.Setenv("YT_API_KEY", "")
	t.Setenv("GOOGLE_CLIENT_ID", "")
	t.Setenv("OPENAI_KEY", "")
	t.Setenv("POLITICAL_PERSPECTIVE", "")
	t.Setenv("MAX_RESULTS", "")
}

func TestLoadAppliesDefaults(t *testing.T) {
	writeConfig(t, `
collector:
  topic: trump
  platform: youtube
youtube:
  api_key: test-key
transcription:
  openai_key: sk-test
`)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Collector.MaxResults != 10 {
		t.Errorf("MaxResults default = %d, want 10", cfg.Collector.MaxResults)
	}
	if cfg.Collector.DataDir != "data" {
		t.Errorf("DataDir default = %s, want data", cfg.Collector.DataDir)
	}
	if cfg.Transcription.Model != "whisper-1" {
		t.Errorf("transcription model default = %s, want whisper-1", cfg.Transcription.Model)
	}
	if cfg.Transcription.YTDLPPath != "yt-dlp" {
		t.Errorf("yt-dlp path default = %s", cfg.Transcription.YTDLPPath)
	}
	if cfg.AI.Model != "gemini-2.5-flash" {
		t.Errorf("AI model default = %s", cfg.AI.Model)
	}
	if cfg.Schedule == "" {
		t.Error("schedule default not applied")
	}
}

func TestLoadRejectsMissingTopic(t *testing.T) {
	writeConfig(t, `
collector:
  platform: youtube
youtube:
  api_key: test-key
transcription:
  openai_key: sk-test
`)

	if _, err := Load(); err == nil {
		t.Fatal("Load should reject a config without a topic")
	}
}

func TestLoadRejectsUnknownPlatform(t *testing.T) {
	writeConfig(t, `
collector:
  topic: trump
  platform: vimeo
transcription:
  openai_key: sk-test
`)

	if _, err := Load(); err == nil {
		t.Fatal("Load should reject an unknown platform")
	}
}

func TestLoadTikTokNeedsNoYouTubeCredentials(t *testing.T) {
	writeConfig(t, `
collector:
  topic: trump
  platform: tiktok
transcription:
  openai_key: sk-test
`)

	if _, err := Load(); err != nil {
		t.Fatalf("Load failed for tiktok config without YouTube credentials: %v", err)
	}
}

func TestEmailEnabled(t *testing.T) {
	cfg := &Config{}
	if cfg.EmailEnabled() {
		t.Error("empty email config should be disabled")
	}
	cfg.Email = EmailConfig{
		SMTPServer: "smtp.example.com",
		Username:   "user",
		ToEmail:    "dest@example.com",
	}
	if !cfg.EmailEnabled() {
		t.Error("filled email config should be enabled")
	}
}
