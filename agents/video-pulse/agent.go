package videopulse

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"pulse-stack/agents/video-pulse/tiktok"
	"pulse-stack/agents/video-pulse/transcribe"
	"pulse-stack/agents/video-pulse/youtube"
	"pulse-stack/internal/models"
	"pulse-stack/shared/ai"
	"pulse-stack/shared/config"
	"pulse-stack/shared/email"
	"pulse-stack/shared/export"
	"pulse-stack/shared/storage"
)

// PlatformAdapter is the contract every source implements: a keyword/topic
// search producing metadata records plus two idempotent enrichment lookups.
type PlatformAdapter interface {
	Platform() models.Platform
	Search(ctx context.Context, query models.SearchQuery) ([]*models.VideoRecord, error)
	FetchEngagement(ctx context.Context, record *models.VideoRecord) error
	FetchChannelStats(ctx context.Context, record *models.VideoRecord) error
}

// Transcriber runs the download + speech-to-text step for one record.
type Transcriber interface {
	Transcribe(ctx context.Context, record *models.VideoRecord, audioPath string) error
}

// Classifier attaches a sentiment judgment to a transcribed record.
type Classifier interface {
	Classify(ctx context.Context, record *models.VideoRecord, perspective string) (*models.Sentiment, error)
}

// Agent implements the scheduler.Agent interface: one run collects, enriches,
// filters, transcribes and classifies short-form videos for the configured
// topic.
type Agent struct {
	config      *config.Config
	store       *storage.RecordStore
	adapter     PlatformAdapter
	transcriber Transcriber
	classifier  Classifier
	emailSender *email.Sender
}

// RunMetrics aggregates per-run counters for the monitor summary.
type RunMetrics struct {
	Found              int
	Rejected           int
	EnrichmentFailures int
	Transcribed        int
	Abandoned          int
	Classified         int
}

func (m RunMetrics) GetSummary() string {
	return fmt.Sprintf("found %d videos, rejected %d, transcribed %d, abandoned %d, classified %d",
		m.Found, m.Rejected, m.Transcribed, m.Abandoned, m.Classified)
}

func NewAgent(cfg *config.Config) *Agent {
	return &Agent{config: cfg}
}

func (a *Agent) Name() string {
	return "Video Pulse"
}

func (a *Agent) Initialize() error {
	log.Printf("Initializing %s...", a.Name())

	platform, err := models.ParsePlatform(a.config.Collector.Platform)
	if err != nil {
		return err
	}

	if a.store == nil {
		store, err := storage.NewRecordStore(a.config.Collector.DataDir, platform)
		if err != nil {
			return fmt.Errorf("failed to create record store: %w", err)
		}
		a.store = store
		log.Println("Record store initialized")
	}

	if a.adapter == nil {
		switch platform {
		case models.PlatformYouTube:
			client, err := youtube.NewClient(&a.config.YouTube)
			if err != nil {
				return fmt.Errorf("failed to create YouTube client: %w", err)
			}
			a.adapter = client
		case models.PlatformTikTok:
			a.adapter = tiktok.NewClient()
		}
		log.Printf("%s adapter initialized", platform)
	}

	if a.transcriber == nil {
		downloader := transcribe.NewDownloader(a.config.Transcription.YTDLPPath, a.config.Transcription.CookiesFile)
		whisper := transcribe.NewWhisperClient(a.config.Transcription.OpenAIKey, a.config.Transcription.Model)
		a.transcriber = transcribe.NewStage(downloader, whisper)
		log.Println("Transcription stage initialized")
	}

	if a.classifier == nil && a.config.AI.GeminiAPIKey != "" {
		classifier, err := ai.NewClassifier(&a.config.AI)
		if err != nil {
			return fmt.Errorf("failed to create sentiment classifier: %w", err)
		}
		a.classifier = classifier
		log.Println("Sentiment classifier initialized")
	}

	if a.emailSender == nil && a.config.EmailEnabled() {
		a.emailSender = email.NewSender(&a.config.Email)
		log.Println("Email sender initialized")
	}

	return nil
}

// RunOnce performs one full collection run and returns a human-readable
// summary for the monitor.
func (a *Agent) RunOnce(ctx context.Context) (string, error) {
	startTime := time.Now()

	records, metrics, err := a.Collect(ctx)
	if err != nil {
		return "", err
	}

	if a.classifier != nil && a.config.Collector.Perspective != "" {
		a.classifyAll(ctx, records, &metrics)
	}

	if len(records) > 0 {
		if err := export.WriteIndexDocuments(records, a.config.Collector.ExportDir); err != nil {
			log.Printf("Warning: Failed to export index documents: %v", err)
		}
	}

	if a.emailSender != nil && len(records) > 0 {
		report := &models.RunReport{
			Date:    time.Now(),
			Topic:   a.config.Collector.Topic,
			Videos:  records,
			Metrics: metrics.GetSummary(),
		}
		if err := a.emailSender.SendReport(report); err != nil {
			log.Printf("Warning: Failed to send run report: %v", err)
		}
	}

	log.Printf("Run complete in %v: %s", time.Since(startTime), metrics.GetSummary())
	return metrics.GetSummary(), nil
}

// Collect runs the core pipeline: search once, then per candidate enrich,
// filter and transcribe, strictly sequentially. It returns the surviving,
// fully enriched records.
//
// Failure policy: per-field enrichment failures are logged and skipped; a
// generic download/transcription failure abandons that candidate only; an
// expired download credential aborts the whole run since every remaining
// candidate would hit the same wall.
func (a *Agent) Collect(ctx context.Context) ([]*models.VideoRecord, RunMetrics, error) {
	var metrics RunMetrics

	// Init: clear both working directories so nothing leaks across runs.
	if err := a.store.Clear(); err != nil {
		return nil, metrics, fmt.Errorf("failed to clear working directories: %w", err)
	}

	query := models.SearchQuery{
		Topic:      a.config.Collector.Topic,
		Keywords:   a.config.Collector.Keywords,
		MaxResults: a.config.Collector.MaxResults,
	}
	if t, err := time.Parse(time.RFC3339, a.config.Collector.PublishedAfter); err == nil {
		query.PublishedAfter = t
	}
	if t, err := time.Parse(time.RFC3339, a.config.Collector.PublishedBefore); err == nil {
		query.PublishedBefore = t
	}

	candidates, err := a.adapter.Search(ctx, query)
	if err != nil {
		return nil, metrics, fmt.Errorf("search failed: %w", err)
	}
	metrics.Found = len(candidates)
	if len(candidates) == 0 {
		log.Println("Search produced no candidates; run ends with zero records")
		return nil, metrics, nil
	}

	var collected []*models.VideoRecord
	for _, record := range candidates {
		id := record.VideoID
		log.Printf("Processing video: %s", id)

		// Tentative write-through before enrichment and filtering, so a
		// partial run leaves recoverable state.
		if err := a.store.Put(id, record); err != nil {
			log.Printf("Warning: Failed to persist candidate %s: %v", id, err)
			continue
		}

		if err := a.adapter.FetchEngagement(ctx, record); err != nil {
			log.Printf("Warning: Engagement enrichment failed for %s: %v", id, err)
			metrics.EnrichmentFailures++
		}
		if err := a.store.Put(id, record); err != nil {
			log.Printf("Warning: Failed to persist %s after engagement enrichment: %v", id, err)
		}

		if err := a.adapter.FetchChannelStats(ctx, record); err != nil {
			log.Printf("Warning: Channel enrichment failed for %s: %v", id, err)
			metrics.EnrichmentFailures++
		}
		if err := a.store.Put(id, record); err != nil {
			log.Printf("Warning: Failed to persist %s after channel enrichment: %v", id, err)
		}

		eligible, err := checkEligibility(a.store, id, a.config.Collector.MinLikes, a.config.Collector.MinFollowers)
		if err != nil {
			log.Printf("Warning: Skipping %s: %v", id, err)
			continue
		}
		if !eligible {
			metrics.Rejected++
			continue
		}

		if err := a.transcriber.Transcribe(ctx, record, a.store.AudioPath(id)); err != nil {
			if errors.Is(err, transcribe.ErrCredentialExpired) {
				return nil, metrics, fmt.Errorf("audio download credentials expired, update the cookies file: %w", err)
			}
			// The filter already accepted this record, so its file stays on
			// disk; it just doesn't flow to the downstream stages.
			log.Printf("Abandoning %s: %v", id, err)
			metrics.Abandoned++
			continue
		}
		metrics.Transcribed++

		if err := a.store.Put(id, record); err != nil {
			log.Printf("Warning: Failed to persist %s after transcription: %v", id, err)
		}

		collected = append(collected, record)
	}

	return collected, metrics, nil
}

func (a *Agent) classifyAll(ctx context.Context, records []*models.VideoRecord, metrics *RunMetrics) {
	for _, record := range records {
		sentiment, err := a.classifier.Classify(ctx, record, a.config.Collector.Perspective)
		if err != nil {
			log.Printf("Warning: Sentiment classification failed for %s: %v", record.VideoID, err)
			continue
		}
		record.Sentiment = sentiment
		if err := a.store.Put(record.VideoID, record); err != nil {
			log.Printf("Warning: Failed to persist %s after classification: %v", record.VideoID, err)
		}
		metrics.Classified++

		// Stay under provider rate limits.
		time.Sleep(time.Second)
	}
}
