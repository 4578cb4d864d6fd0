package transcribe

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"pulse-stack/internal/models"
)

const defaultAPIBase = "https://api.openai.com/v1"

// WhisperClient calls the OpenAI audio transcription endpoint with
// segment-level timestamp granularity.
type WhisperClient struct {
	APIBase string
	apiKey  string
	model   string
	client  *http.Client
}

func NewWhisperClient(apiKey, model string) *WhisperClient {
	return &WhisperClient{
		APIBase: defaultAPIBase,
		apiKey:  apiKey,
		model:   model,
		client: &http.Client{
			// Transcription dominates per-record latency; give it room.
			Timeout: 10 * time.Minute,
		},
	}
}

// verboseTranscription mirrors the verbose_json response shape.
type verboseTranscription struct {
	Text     string `json:"text"`
	Segments []struct {
		ID    int     `json:"id"`
		Start float64 `json:"start"`
		End   float64 `json:"end"`
		Text  string  `json:"text"`
	} `json:"segments"`
}

// Transcribe uploads the audio file and returns its timestamped segments in
// the order and numbering the service produced them.
func (w *WhisperClient) Transcribe(ctx context.Context, audioPath string) ([]models.TranscriptSegment, error) {
	file, err := os.Open(audioPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open audio file %s: %w", audioPath, err)
	}
	defer file.Close()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	part, err := writer.CreateFormFile("file", filepath.Base(audioPath))
	if err != nil {
		return nil, fmt.Errorf("failed to create multipart file field: %w", err)
	}
	if _, err := io.Copy(part, file); err != nil {
		return nil, fmt.Errorf("failed to buffer audio file: %w", err)
	}

	fields := map[string]string{
		"model":                     w.model,
		"response_format":           "verbose_json",
		"timestamp_granularities[]": "segment",
	}
	for name, value := range fields {
		if err := writer.WriteField(name, value); err != nil {
			return nil, fmt.Errorf("failed to write form field %s: %w", name, err)
		}
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to finalize multipart body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.APIBase+"/audio/transcriptions", &body)
	if err != nil {
		return nil, fmt.Errorf("failed to create transcription request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+w.apiKey)
	req.Header.Set("Content-Type", writer.FormDataContentType())

	log.Printf("Requesting transcription for %s with model %s", filepath.Base(audioPath), w.model)

	resp, err := w.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("transcription request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("transcription API returned status %d: %s", resp.StatusCode, payload)
	}

	var result verboseTranscription
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode transcription response: %w", err)
	}

	segments := make([]models.TranscriptSegment, 0, len(result.Segments))
	for _, seg := range result.Segments {
		segments = append(segments, models.TranscriptSegment{
			SegmentNumber: seg.ID,
			StartTime:     seg.Start,
			EndTime:       seg.End,
			Transcription: seg.Text,
		})
	}
	return segments, nil
}
