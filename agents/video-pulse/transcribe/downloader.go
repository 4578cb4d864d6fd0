package transcribe

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os/exec"
	"strings"
)

// ErrCredentialExpired marks a download that failed because the exported
// session cookies are missing or no longer valid. Callers surface this as an
// actionable "refresh your cookies file" message instead of a generic error.
var ErrCredentialExpired = errors.New("download credentials expired")

// fallbackFormat is a low-resolution video-with-audio format used when no
// audio-only stream can be fetched; audio is extracted from it instead.
const fallbackFormat = "230"

// CommandRunner abstracts process execution so the downloader can be tested
// without a yt-dlp binary.
type CommandRunner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

type execRunner struct{}

func (execRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).CombinedOutput()
}

// Downloader fetches a video's audio track to a local mp3 via yt-dlp,
// preferring the best available audio-only stream and falling back to
// extracting audio from a low-resolution video format.
type Downloader struct {
	runner      CommandRunner
	ytdlpPath   string
	cookiesFile string
}

func NewDownloader(ytdlpPath, cookiesFile string) *Downloader {
	return &Downloader{
		runner:      execRunner{},
		ytdlpPath:   ytdlpPath,
		cookiesFile: cookiesFile,
	}
}

// NewDownloaderWithRunner is used by tests to substitute process execution.
func NewDownloaderWithRunner(runner CommandRunner, ytdlpPath, cookiesFile string) *Downloader {
	return &Downloader{
		runner:      runner,
		ytdlpPath:   ytdlpPath,
		cookiesFile: cookiesFile,
	}
}

// Download fetches the audio for url into outputPath. The primary attempt
// uses the best available audio stream; on failure a fixed low-resolution
// video format is fetched and its audio extracted. When both attempts fail
// the returned error wraps ErrCredentialExpired if the output points at an
// expired or missing session credential.
func (d *Downloader) Download(ctx context.Context, url, outputPath string) error {
	primaryOut, err := d.runner.Run(ctx, d.ytdlpPath, d.args("bestaudio/best", url, outputPath)...)
	if err == nil {
		log.Printf("Audio downloaded using bestaudio: %s", outputPath)
		return nil
	}
	log.Printf("Primary audio download failed: %v", err)

	fallbackOut, fallbackErr := d.runner.Run(ctx, d.ytdlpPath, d.args(fallbackFormat, url, outputPath)...)
	if fallbackErr == nil {
		log.Printf("Audio extracted from fallback video format: %s", outputPath)
		return nil
	}
	log.Printf("Fallback video download failed: %v", fallbackErr)

	if isCredentialFailure(string(primaryOut)) || isCredentialFailure(string(fallbackOut)) {
		return fmt.Errorf("downloading %s: %w", url, ErrCredentialExpired)
	}
	return fmt.Errorf("failed to download audio for %s: %w", url, fallbackErr)
}

func (d *Downloader) args(format, url, outputPath string) []string {
	args := []string{
		"-f", format,
		"-x",
		"--audio-format", "mp3",
		"--audio-quality", "192K",
		"--no-playlist",
		"-o", outputPath,
	}
	if d.cookiesFile != "" {
		args = append(args, "--cookies", d.cookiesFile)
	}
	return append(args, url)
}

// credentialMarkers are yt-dlp stderr fragments that indicate an auth/cookie
// problem rather than a transient or format failure.
var credentialMarkers = []string{
	"sign in to confirm",
	"cookies are no longer valid",
	"use --cookies",
	"login required",
	"please log in",
	"requested content is not available, rotate cookies",
}

func isCredentialFailure(output string) bool {
	lower := strings.ToLower(output)
	for _, marker := range credentialMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}
