package export

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"pulse-stack/internal/models"
)

// indexDocument is the shape handed to the external retrieval indexer: the
// full record with the transcript flattened into a single string.
type indexDocument struct {
	Platform    models.Platform `json:"platform"`
	Title       *string         `json:"title"`
	Description string          `json:"description"`
	PublishedAt string          `json:"published_at"`
	Channel     string          `json:"channel"`
	ChannelID   string          `json:"channel_id"`
	VideoID     string          `json:"video_id"`
	URL         string          `json:"url,omitempty"`

	Transcription string `json:"transcription"`
}

// WriteIndexDocuments converts each record into a <video_id>.txt document in
// destDir, concatenating the transcript segments into one string. The
// destination directory is created when missing and existing documents are
// overwritten.
func WriteIndexDocuments(records []*models.VideoRecord, destDir string) error {
	if err := os.MkdirAll(destDir, 0755); err != nil {
		return fmt.Errorf("failed to create export directory %s: %w", destDir, err)
	}

	for _, record := range records {
		doc := indexDocument{
			Platform:      record.Platform,
			Title:         record.Title,
			Description:   record.Description,
			PublishedAt:   record.PublishedAt,
			Channel:       record.Channel,
			ChannelID:     record.ChannelID,
			VideoID:       record.VideoID,
			URL:           record.URL,
			Transcription: FlattenTranscript(record.Transcription),
		}

		data, err := json.MarshalIndent(doc, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to encode index document for %s: %w", record.VideoID, err)
		}

		path := filepath.Join(destDir, record.VideoID+".txt")
		if err := os.WriteFile(path, data, 0644); err != nil {
			return fmt.Errorf("failed to write index document %s: %w", path, err)
		}
		log.Printf("Exported index document: %s", path)
	}
	return nil
}

// FlattenTranscript joins the segment texts, in source order, into the single
// string the indexer expects.
func FlattenTranscript(segments []models.TranscriptSegment) string {
	parts := make([]string, 0, len(segments))
	for _, seg := range segments {
		parts = append(parts, seg.Transcription)
	}
	return strings.Join(parts, " ")
}
