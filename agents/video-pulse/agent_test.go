package videopulse

import (
	"context"
	"fmt"
	"testing"

	"pulse-stack/agents/video-pulse/transcribe"
	"pulse-stack/internal/models"
	"pulse-stack/shared/config"
	"pulse-stack/shared/storage"
)

// fakeAdapter plays back canned search results and counts enrichment calls.
type fakeAdapter struct {
	results          []*models.VideoRecord
	searchErr        error
	engagementErr    error
	channelErr       error
	engagementCalls  int
	channelCalls     int
	engagementLikes  map[string]int64
	channelFollowers map[string]int64
}

func (f *fakeAdapter) Platform() models.Platform { return models.PlatformYouTube }

func (f *fakeAdapter) Search(ctx context.Context, query models.SearchQuery) ([]*models.VideoRecord, error) {
	return f.results, f.searchErr
}

func (f *fakeAdapter) FetchEngagement(ctx context.Context, record *models.VideoRecord) error {
	f.engagementCalls++
	if f.engagementErr != nil {
		return f.engagementErr
	}
	if likes, ok := f.engagementLikes[record.VideoID]; ok {
		record.Likes = models.Count(likes)
	}
	record.URL = "https://www.youtube.com/watch?v=" + record.VideoID
	return nil
}

func (f *fakeAdapter) FetchChannelStats(ctx context.Context, record *models.VideoRecord) error {
	f.channelCalls++
	if f.channelErr != nil {
		return f.channelErr
	}
	if followers, ok := f.channelFollowers[record.VideoID]; ok {
		record.Subscribers = models.Count(followers)
	}
	return nil
}

// fakeTranscriber fails for configured ids and otherwise attaches one segment.
type fakeTranscriber struct {
	failWith map[string]error
	calls    []string
}

func (f *fakeTranscriber) Transcribe(ctx context.Context, record *models.VideoRecord, audioPath string) error {
	f.calls = append(f.calls, record.VideoID)
	if err, ok := f.failWith[record.VideoID]; ok {
		return err
	}
	record.Transcription = []models.TranscriptSegment{
		{SegmentNumber: 0, StartTime: 0, EndTime: 2, Transcription: "transcript for " + record.VideoID},
	}
	return nil
}

func candidate(id string) *models.VideoRecord {
	return &models.VideoRecord{
		Platform:    models.PlatformYouTube,
		Title:       models.Str("video " + id),
		Description: "about the topic",
		PublishedAt: "2025-01-01T00:00:00Z",
		Channel:     "chan",
		ChannelID:   "UC" + id,
		VideoID:     id,
	}
}

func testAgent(t *testing.T, adapter PlatformAdapter, transcriber Transcriber) *Agent {
	t.Helper()
	store, err := storage.NewRecordStore(t.TempDir(), models.PlatformYouTube)
	if err != nil {
		t.Fatalf("NewRecordStore failed: %v", err)
	}
	return &Agent{
		config: &config.Config{
			Collector: config.CollectorConfig{
				Topic:        "trump",
				Platform:     "youtube",
				MinLikes:     10,
				MinFollowers: 100,
				MaxResults:   10,
			},
		},
		store:       store,
		adapter:     adapter,
		transcriber: transcriber,
	}
}

func TestAgentName(t *testing.T) {
	agent := NewAgent(&config.Config{})
	if name := agent.Name(); name != "Video Pulse" {
		t.Errorf("Agent.Name() = %s, want Video Pulse", name)
	}
}

func TestRunMetricsGetSummary(t *testing.T) {
	m := RunMetrics{Found: 7, Rejected: 2, Transcribed: 4, Abandoned: 1, Classified: 3}
	want := "found 7 videos, rejected 2, transcribed 4, abandoned 1, classified 3"
	if got := m.GetSummary(); got != want {
		t.Errorf("GetSummary() = %q, want %q", got, want)
	}
}

func TestCollectHappyPath(t *testing.T) {
	adapter := &fakeAdapter{
		results: []*models.VideoRecord{candidate("a"), candidate("b")},
		engagementLikes: map[string]int64{
			"a": 50,
			"b": 40,
		},
		channelFollowers: map[string]int64{
			"a": 500,
			"b": 400,
		},
	}
	transcriber := &fakeTranscriber{}
	agent := testAgent(t, adapter, transcriber)

	records, metrics, err := agent.Collect(context.Background())
	if err != nil {
		t.Fatalf("Collect failed: %v", err)
	}

	if len(records) != 2 {
		t.Fatalf("collected %d records, want 2", len(records))
	}
	if metrics.Found != 2 || metrics.Transcribed != 2 || metrics.Rejected != 0 {
		t.Errorf("metrics = %+v", metrics)
	}
	for _, record := range records {
		if len(record.Transcription) == 0 {
			t.Errorf("record %s has no transcription", record.VideoID)
		}
		// The persisted copy carries the transcript too.
		persisted, err := agent.store.Get(record.VideoID)
		if err != nil {
			t.Fatalf("persisted record missing for %s: %v", record.VideoID, err)
		}
		if len(persisted.Transcription) == 0 {
			t.Errorf("persisted record %s missing transcription", record.VideoID)
		}
	}
}

func TestCollectRejectsBelowThreshold(t *testing.T) {
	adapter := &fakeAdapter{
		results: []*models.VideoRecord{candidate("lowlikes"), candidate("good")},
		engagementLikes: map[string]int64{
			"lowlikes": 5, // below MinLikes of 10
			"good":     50,
		},
		channelFollowers: map[string]int64{
			"lowlikes": 500,
			"good":     500,
		},
	}
	transcriber := &fakeTranscriber{}
	agent := testAgent(t, adapter, transcriber)

	records, metrics, err := agent.Collect(context.Background())
	if err != nil {
		t.Fatalf("Collect failed: %v", err)
	}

	if len(records) != 1 || records[0].VideoID != "good" {
		t.Fatalf("collected %v, want only the eligible candidate", records)
	}
	if metrics.Rejected != 1 {
		t.Errorf("Rejected = %d, want 1", metrics.Rejected)
	}

	// The rejected candidate's file must be gone.
	if _, err := agent.store.Get("lowlikes"); err == nil {
		t.Error("rejected record still present in the store")
	}

	// Rejected candidates never reach transcription.
	for _, id := range transcriber.calls {
		if id == "lowlikes" {
			t.Error("rejected candidate was transcribed")
		}
	}
}

func TestCollectEnrichmentFailureDoesNotAbort(t *testing.T) {
	adapter := &fakeAdapter{
		results:       []*models.VideoRecord{candidate("a")},
		engagementErr: fmt.Errorf("quota exceeded"),
		channelErr:    fmt.Errorf("quota exceeded"),
	}
	transcriber := &fakeTranscriber{}
	agent := testAgent(t, adapter, transcriber)
	// Thresholds of zero keep the un-enriched record eligible.
	agent.config.Collector.MinLikes = 0
	agent.config.Collector.MinFollowers = 0

	records, metrics, err := agent.Collect(context.Background())
	if err != nil {
		t.Fatalf("Collect failed: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("collected %d records, want 1", len(records))
	}
	if metrics.EnrichmentFailures != 2 {
		t.Errorf("EnrichmentFailures = %d, want 2", metrics.EnrichmentFailures)
	}
	// Metrics stay unknown rather than zero.
	if records[0].Likes != nil {
		t.Errorf("likes = %v, want unknown", *records[0].Likes)
	}
}

func TestCollectGenericTranscriptionFailureAbandonsCandidateOnly(t *testing.T) {
	adapter := &fakeAdapter{
		results:          []*models.VideoRecord{candidate("bad"), candidate("good")},
		engagementLikes:  map[string]int64{"bad": 50, "good": 50},
		channelFollowers: map[string]int64{"bad": 500, "good": 500},
	}
	transcriber := &fakeTranscriber{
		failWith: map[string]error{"bad": fmt.Errorf("download failed")},
	}
	agent := testAgent(t, adapter, transcriber)

	records, metrics, err := agent.Collect(context.Background())
	if err != nil {
		t.Fatalf("Collect should survive a generic per-candidate failure: %v", err)
	}
	if len(records) != 1 || records[0].VideoID != "good" {
		t.Fatalf("collected %v, want only the good candidate", records)
	}
	if metrics.Abandoned != 1 {
		t.Errorf("Abandoned = %d, want 1", metrics.Abandoned)
	}
	// The abandoned candidate already passed the filter, so its file stays in
	// the store; only rejection deletes records.
	persisted, err := agent.store.Get("bad")
	if err != nil {
		t.Fatalf("abandoned record removed from the store: %v", err)
	}
	if len(persisted.Transcription) != 0 {
		t.Errorf("abandoned record carries a transcript: %v", persisted.Transcription)
	}
}

func TestCollectCredentialExpiryAbortsRun(t *testing.T) {
	adapter := &fakeAdapter{
		results:          []*models.VideoRecord{candidate("first"), candidate("second")},
		engagementLikes:  map[string]int64{"first": 50, "second": 50},
		channelFollowers: map[string]int64{"first": 500, "second": 500},
	}
	transcriber := &fakeTranscriber{
		failWith: map[string]error{
			"first": fmt.Errorf("downloading: %w", transcribe.ErrCredentialExpired),
		},
	}
	agent := testAgent(t, adapter, transcriber)

	_, _, err := agent.Collect(context.Background())
	if err == nil {
		t.Fatal("Collect should abort on credential expiry")
	}
	// Nothing after the expired credential gets attempted.
	if len(transcriber.calls) != 1 {
		t.Errorf("transcriber called %d times, want 1", len(transcriber.calls))
	}
}

func TestCollectSearchFailureEndsRunWithZeroRecords(t *testing.T) {
	// Adapters swallow non-success responses and return an empty slice.
	adapter := &fakeAdapter{results: nil}
	agent := testAgent(t, adapter, &fakeTranscriber{})

	records, metrics, err := agent.Collect(context.Background())
	if err != nil {
		t.Fatalf("Collect failed: %v", err)
	}
	if len(records) != 0 || metrics.Found != 0 {
		t.Errorf("expected an empty run, got %d records", len(records))
	}
}

func TestCollectClearsPreviousRunState(t *testing.T) {
	adapter := &fakeAdapter{
		results:          []*models.VideoRecord{candidate("fresh")},
		engagementLikes:  map[string]int64{"fresh": 50},
		channelFollowers: map[string]int64{"fresh": 500},
	}
	agent := testAgent(t, adapter, &fakeTranscriber{})

	// Seed a leftover record from a previous run.
	if err := agent.store.Put("stale", candidate("stale")); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	if _, _, err := agent.Collect(context.Background()); err != nil {
		t.Fatalf("Collect failed: %v", err)
	}

	if _, err := agent.store.Get("stale"); err == nil {
		t.Error("stale record from previous run survived Init")
	}
	ids, err := agent.store.List()
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(ids) != 1 || ids[0] != "fresh" {
		t.Errorf("store contents = %v, want [fresh]", ids)
	}
}
