package transcribe

import (
	"context"
	"fmt"
	"log"

	"pulse-stack/internal/models"
)

// SpeechToText converts a downloaded audio file into ordered, timestamped
// transcript segments.
type SpeechToText interface {
	Transcribe(ctx context.Context, audioPath string) ([]models.TranscriptSegment, error)
}

// AudioDownloader fetches a video's audio track to a local file.
type AudioDownloader interface {
	Download(ctx context.Context, url, outputPath string) error
}

// Stage runs the full transcription step for one record: download audio,
// transcribe it, merge the segments back into the record. It is the most
// expensive and most failure-prone part of the pipeline.
type Stage struct {
	downloader AudioDownloader
	stt        SpeechToText
}

func NewStage(downloader AudioDownloader, stt SpeechToText) *Stage {
	return &Stage{
		downloader: downloader,
		stt:        stt,
	}
}

// Transcribe mutates record.Transcription in place. Download errors propagate
// unchanged so the caller can tell a credential expiry (ErrCredentialExpired)
// from a generic failure.
func (s *Stage) Transcribe(ctx context.Context, record *models.VideoRecord, audioPath string) error {
	if record.URL == "" {
		return fmt.Errorf("record %s has no URL to download from", record.VideoID)
	}

	if err := s.downloader.Download(ctx, record.URL, audioPath); err != nil {
		return err
	}

	segments, err := s.stt.Transcribe(ctx, audioPath)
	if err != nil {
		return fmt.Errorf("transcription failed for %s: %w", record.VideoID, err)
	}

	record.Transcription = segments
	log.Printf("Transcribed %s into %d segments", record.VideoID, len(segments))
	return nil
}
