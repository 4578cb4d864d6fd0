package youtube

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"pulse-stack/internal/models"
	"pulse-stack/shared/config"

	"golang.org/x/oauth2"
	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"
)

// searchPageSize bounds a single search request; the adapter does not
// paginate past the first page.
const searchPageSize = 10

// Client is the YouTube platform adapter. It searches for short-form videos
// and enriches records with per-video statistics and channel statistics.
type Client struct {
	service *youtube.Service
}

// NewClient builds a YouTube service. An API key takes precedence; without
// one it falls back to the OAuth device flow with a persisted, auto-refreshed
// token.
func NewClient(cfg *config.YouTubeConfig) (*Client, error) {
	ctx := context.Background()

	if cfg.APIKey != "" {
		service, err := youtube.NewService(ctx, option.WithAPIKey(cfg.APIKey))
		if err != nil {
			return nil, fmt.Errorf("failed to create YouTube service: %w", err)
		}
		return &Client{service: service}, nil
	}

	oauthConfig := newOAuthConfig(cfg)
	token, err := getToken(oauthConfig, cfg.TokenFile)
	if err != nil {
		return nil, fmt.Errorf("failed to get OAuth token: %w", err)
	}

	tokenSource := &tokenSaver{
		config:    oauthConfig,
		token:     token,
		tokenFile: cfg.TokenFile,
	}

	httpClient := oauth2.NewClient(ctx, tokenSource)
	service, err := youtube.NewService(ctx, option.WithHTTPClient(httpClient))
	if err != nil {
		return nil, fmt.Errorf("failed to create YouTube service: %w", err)
	}

	return &Client{service: service}, nil
}

func (c *Client) Platform() models.Platform {
	return models.PlatformYouTube
}

// Search runs one keyword search for short videos, newest first, and maps the
// results to metadata-only records. A rejected API request is logged and
// yields an empty result rather than an error.
func (c *Client) Search(ctx context.Context, query models.SearchQuery) ([]*models.VideoRecord, error) {
	after, before := searchWindow(query)

	pageSize := query.MaxResults
	if pageSize <= 0 || pageSize > searchPageSize {
		pageSize = searchPageSize
	}

	call := c.service.Search.List([]string{"snippet"}).
		Context(ctx).
		Q(buildQuery(query.Topic, query.Keywords)).
		Type("video").
		VideoDuration("short").
		Order("date").
		PublishedAfter(after.Format(time.RFC3339)).
		PublishedBefore(before.Format(time.RFC3339)).
		MaxResults(pageSize)

	resp, err := call.Do()
	if err != nil {
		log.Printf("YouTube search request rejected: %v", err)
		return nil, nil
	}

	var records []*models.VideoRecord
	for _, item := range resp.Items {
		if item.Id == nil || item.Id.VideoId == "" || item.Snippet == nil {
			continue
		}
		records = append(records, &models.VideoRecord{
			Platform:    models.PlatformYouTube,
			Title:       models.Str(item.Snippet.Title),
			Description: item.Snippet.Description,
			PublishedAt: item.Snippet.PublishedAt,
			Channel:     item.Snippet.ChannelTitle,
			ChannelID:   item.Snippet.ChannelId,
			VideoID:     item.Id.VideoId,
		})
	}

	log.Printf("YouTube search returned %d candidates", len(records))
	return records, nil
}

// FetchEngagement looks up view/like/comment/save counts and tags for the
// record's video id. YouTube exposes no share count, so Shares stays unknown.
// The lookup is idempotent: repeated calls with the same upstream response
// leave the record unchanged.
func (c *Client) FetchEngagement(ctx context.Context, record *models.VideoRecord) error {
	resp, err := c.service.Videos.List([]string{"statistics", "snippet"}).
		Context(ctx).
		Id(record.VideoID).
		Do()
	if err != nil {
		return fmt.Errorf("video statistics request rejected for %s: %w", record.VideoID, err)
	}
	if len(resp.Items) == 0 {
		return fmt.Errorf("no video details returned for %s", record.VideoID)
	}

	item := resp.Items[0]
	record.URL = WatchURL(record.VideoID)

	if stats := item.Statistics; stats != nil {
		record.Views = models.Count(int64(stats.ViewCount))
		// A channel can hide its like count; the API then omits the field,
		// which decodes as zero. Treat zero as unknown rather than an
		// explicit count, like Shares.
		if stats.LikeCount > 0 {
			record.Likes = models.Count(int64(stats.LikeCount))
		} else {
			record.Likes = nil
		}
		record.Comments = models.Count(int64(stats.CommentCount))
		record.Saves = models.Count(int64(stats.FavoriteCount))
	}
	if item.Snippet != nil {
		record.Tags = item.Snippet.Tags
	}
	return nil
}

// FetchChannelStats looks up subscriber and total-video counts for the
// record's channel.
func (c *Client) FetchChannelStats(ctx context.Context, record *models.VideoRecord) error {
	resp, err := c.service.Channels.List([]string{"statistics"}).
		Context(ctx).
		Id(record.ChannelID).
		Do()
	if err != nil {
		return fmt.Errorf("channel statistics request rejected for %s: %w", record.ChannelID, err)
	}
	if len(resp.Items) == 0 {
		return fmt.Errorf("no channel details returned for %s", record.ChannelID)
	}

	if stats := resp.Items[0].Statistics; stats != nil {
		record.Subscribers = models.Count(int64(stats.SubscriberCount))
		record.TotalVideos = models.Count(int64(stats.VideoCount))
	}
	return nil
}

// WatchURL derives the canonical watch URL for a video id.
func WatchURL(videoID string) string {
	return fmt.Sprintf("https://www.youtube.com/watch?v=%s", videoID)
}

// buildQuery combines the topic with its hashtag form and, when a keyword
// filter is present, requires at least one of the alternatives:
// "(topic OR #topic) AND (kw1 OR kw2 OR #kw1 OR #kw2)".
func buildQuery(topic, keywords string) string {
	topicClause := fmt.Sprintf("%s OR #%s", topic, topic)

	words := models.SplitKeywords(keywords)
	if len(words) == 0 {
		return topicClause
	}

	alternatives := make([]string, 0, len(words)*2)
	for _, w := range words {
		alternatives = append(alternatives, w)
	}
	for _, w := range words {
		alternatives = append(alternatives, "#"+w)
	}

	return fmt.Sprintf("(%s) AND (%s)", topicClause, strings.Join(alternatives, " OR "))
}

// searchWindow resolves the publication window, defaulting unset bounds to
// [now-5y, now-1w]. Caller-supplied bounds are honored.
func searchWindow(query models.SearchQuery) (after, before time.Time) {
	now := time.Now().UTC()
	after, before = query.PublishedAfter, query.PublishedBefore
	if after.IsZero() {
		after = now.AddDate(-5, 0, 0)
	}
	if before.IsZero() {
		before = now.AddDate(0, 0, -7)
	}
	return after, before
}
