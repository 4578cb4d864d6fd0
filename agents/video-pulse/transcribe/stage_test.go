package transcribe

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"pulse-stack/internal/models"
)

type fakeDownloader struct {
	err    error
	called bool
}

func (f *fakeDownloader) Download(ctx context.Context, url, outputPath string) error {
	f.called = true
	return f.err
}

type fakeSTT struct {
	segments []models.TranscriptSegment
	err      error
}

func (f *fakeSTT) Transcribe(ctx context.Context, audioPath string) ([]models.TranscriptSegment, error) {
	return f.segments, f.err
}

func TestStageMergesSegmentsIntoRecord(t *testing.T) {
	segments := []models.TranscriptSegment{
		{SegmentNumber: 0, StartTime: 0, EndTime: 4.5, Transcription: "first"},
		{SegmentNumber: 3, StartTime: 4.5, EndTime: 9.1, Transcription: "second"},
	}
	stage := NewStage(&fakeDownloader{}, &fakeSTT{segments: segments})

	record := &models.VideoRecord{VideoID: "abc", URL: "https://example.com/v"}
	if err := stage.Transcribe(context.Background(), record, "/tmp/abc.mp3"); err != nil {
		t.Fatalf("Transcribe failed: %v", err)
	}

	if len(record.Transcription) != 2 {
		t.Fatalf("record has %d segments, want 2", len(record.Transcription))
	}
	// Source numbering is preserved, including gaps.
	if record.Transcription[1].SegmentNumber != 3 {
		t.Errorf("segment numbering not preserved: %+v", record.Transcription[1])
	}
}

func TestStagePropagatesCredentialExpiry(t *testing.T) {
	stage := NewStage(
		&fakeDownloader{err: fmt.Errorf("downloading: %w", ErrCredentialExpired)},
		&fakeSTT{},
	)

	record := &models.VideoRecord{VideoID: "abc", URL: "https://example.com/v"}
	err := stage.Transcribe(context.Background(), record, "/tmp/abc.mp3")
	if !errors.Is(err, ErrCredentialExpired) {
		t.Errorf("error = %v, want ErrCredentialExpired to pass through", err)
	}
}

func TestStageRequiresURL(t *testing.T) {
	downloader := &fakeDownloader{}
	stage := NewStage(downloader, &fakeSTT{})

	record := &models.VideoRecord{VideoID: "abc"}
	if err := stage.Transcribe(context.Background(), record, "/tmp/abc.mp3"); err == nil {
		t.Fatal("Transcribe should fail for a record without a URL")
	}
	if downloader.called {
		t.Error("no download should be attempted without a URL")
	}
}

func TestWhisperClientParsesVerboseJSON(t *testing.T) {
	audioPath := filepath.Join(t.TempDir(), "clip.mp3")
	if err := os.WriteFile(audioPath, []byte("fake mp3 bytes"), 0644); err != nil {
		t.Fatalf("failed to write audio fixture: %v", err)
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/audio/transcriptions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Fatalf("failed to parse multipart form: %v", err)
		}
		if got := r.FormValue("response_format"); got != "verbose_json" {
			t.Errorf("response_format = %s, want verbose_json", got)
		}
		if got := r.FormValue("timestamp_granularities[]"); got != "segment" {
			t.Errorf("timestamp_granularities = %s, want segment", got)
		}
		if got := r.FormValue("model"); got != "whisper-1" {
			t.Errorf("model = %s, want whisper-1", got)
		}

		fmt.Fprint(w, `{
			"text": "hello world",
			"segments": [
				{"id": 0, "start": 0.0, "end": 2.4, "text": "hello"},
				{"id": 2, "start": 2.4, "end": 5.0, "text": "world"}
			]
		}`)
	}))
	defer server.Close()

	client := NewWhisperClient("test-key", "whisper-1")
	client.APIBase = server.URL

	segments, err := client.Transcribe(context.Background(), audioPath)
	if err != nil {
		t.Fatalf("Transcribe failed: %v", err)
	}
	if len(segments) != 2 {
		t.Fatalf("got %d segments, want 2", len(segments))
	}
	if segments[0].Transcription != "hello" || segments[1].Transcription != "world" {
		t.Errorf("segment text mismatch: %+v", segments)
	}
	if segments[1].SegmentNumber != 2 {
		t.Errorf("source segment id not preserved: %+v", segments[1])
	}
	if segments[0].EndTime <= segments[0].StartTime {
		t.Errorf("segment times inverted: %+v", segments[0])
	}
}

func TestWhisperClientSurfacesAPIError(t *testing.T) {
	audioPath := filepath.Join(t.TempDir(), "clip.mp3")
	if err := os.WriteFile(audioPath, []byte("bytes"), 0644); err != nil {
		t.Fatalf("failed to write audio fixture: %v", err)
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		fmt.Fprint(w, `{"error": {"message": "invalid api key"}}`)
	}))
	defer server.Close()

	client := NewWhisperClient("bad-key", "whisper-1")
	client.APIBase = server.URL

	if _, err := client.Transcribe(context.Background(), audioPath); err == nil {
		t.Fatal("Transcribe should surface non-200 responses")
	}
}
