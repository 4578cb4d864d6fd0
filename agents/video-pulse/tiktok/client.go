package tiktok

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"pulse-stack/internal/models"

	"github.com/PuerkitoBio/goquery"
)

const defaultBaseURL = "https://www.tiktok.com"

// Browser-like headers; the challenge page serves the embedded app state only
// to desktop user agents.
const userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36"

// Client is the TikTok platform adapter. It scrapes the hashtag challenge
// page and maps the embedded app state onto video records. Unlike YouTube,
// the page carries engagement and channel statistics inline, so records come
// back from Search fully enriched.
type Client struct {
	BaseURL string
	client  *http.Client
}

func NewClient() *Client {
	return &Client{
		BaseURL: defaultBaseURL,
		client: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

func (c *Client) Platform() models.Platform {
	return models.PlatformTikTok
}

// sigiState mirrors the slice of the SIGI_STATE payload the adapter consumes.
type sigiState struct {
	ItemModule map[string]sigiItem `json:"ItemModule"`
}

type sigiItem struct {
	ID         string      `json:"id"`
	Desc       string      `json:"desc"`
	CreateTime json.Number `json:"createTime"`
	Author     string      `json:"author"`
	Nickname   string      `json:"nickname"`
	Stats      struct {
		PlayCount    int64 `json:"playCount"`
		DiggCount    int64 `json:"diggCount"`
		CommentCount int64 `json:"commentCount"`
		ShareCount   int64 `json:"shareCount"`
		CollectCount int64 `json:"collectCount"`
	} `json:"stats"`
	AuthorStats struct {
		FollowerCount int64 `json:"followerCount"`
		VideoCount    int64 `json:"videoCount"`
	} `json:"authorStats"`
	TextExtra []struct {
		HashtagName string `json:"hashtagName"`
		Type        int    `json:"type"`
	} `json:"textExtra"`
}

// Search fetches the challenge page for the topic and returns up to
// MaxResults records. Candidates failing the keyword pre-filter do not count
// toward the cap. A rejected or unparseable page is logged and yields an
// empty result rather than an error.
func (c *Client) Search(ctx context.Context, query models.SearchQuery) ([]*models.VideoRecord, error) {
	pageURL := fmt.Sprintf("%s/tag/%s", c.BaseURL, url.PathEscape(query.Topic))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create challenge page request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	resp, err := c.client.Do(req)
	if err != nil {
		log.Printf("TikTok challenge page request failed: %v", err)
		return nil, nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		log.Printf("TikTok challenge page returned status %d", resp.StatusCode)
		return nil, nil
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		log.Printf("Failed to parse TikTok challenge page: %v", err)
		return nil, nil
	}

	state, err := extractState(doc)
	if err != nil {
		log.Printf("Failed to extract TikTok app state: %v", err)
		return nil, nil
	}

	items := state.sortedItems()
	log.Printf("TikTok challenge page carried %d items", len(items))

	limit := query.MaxResults
	if limit <= 0 {
		limit = 10
	}

	var records []*models.VideoRecord
	for _, item := range items {
		if int64(len(records)) >= limit {
			break
		}
		if !MatchesKeywords(item.Desc, query.Keywords) {
			continue
		}
		records = append(records, mapItem(item))
	}
	return records, nil
}

// FetchEngagement is an idempotent no-op: engagement counts arrive with the
// challenge page at search time.
func (c *Client) FetchEngagement(ctx context.Context, record *models.VideoRecord) error {
	return nil
}

// FetchChannelStats is an idempotent no-op: author statistics arrive with the
// challenge page at search time.
func (c *Client) FetchChannelStats(ctx context.Context, record *models.VideoRecord) error {
	return nil
}

// extractState locates the embedded SIGI_STATE script and decodes it.
func extractState(doc *goquery.Document) (*sigiState, error) {
	raw := doc.Find("script#SIGI_STATE").First().Text()
	if raw == "" {
		return nil, fmt.Errorf("no SIGI_STATE script in page")
	}

	var state sigiState
	if err := json.Unmarshal([]byte(raw), &state); err != nil {
		return nil, fmt.Errorf("failed to decode SIGI_STATE: %w", err)
	}
	if len(state.ItemModule) == 0 {
		return nil, fmt.Errorf("SIGI_STATE carries no items")
	}
	return &state, nil
}

// sortedItems returns the item module videos newest first, matching the
// order the platform presents them in.
func (s *sigiState) sortedItems() []sigiItem {
	items := make([]sigiItem, 0, len(s.ItemModule))
	for _, item := range s.ItemModule {
		items = append(items, item)
	}
	sort.Slice(items, func(i, j int) bool {
		ti, _ := items[i].CreateTime.Int64()
		tj, _ := items[j].CreateTime.Int64()
		return ti > tj
	})
	return items
}

func mapItem(item sigiItem) *models.VideoRecord {
	createTime, _ := item.CreateTime.Int64()

	var tags []string
	for _, extra := range item.TextExtra {
		if extra.Type == 1 && extra.HashtagName != "" {
			tags = append(tags, extra.HashtagName)
		}
	}

	var videoURL string
	if item.Author != "" && item.ID != "" {
		videoURL = fmt.Sprintf("%s/@%s/video/%s", defaultBaseURL, item.Author, item.ID)
	}

	return &models.VideoRecord{
		Platform:    models.PlatformTikTok,
		Title:       nil,
		Description: item.Desc,
		PublishedAt: time.Unix(createTime, 0).UTC().Format(time.RFC3339),
		Channel:     item.Nickname,
		ChannelID:   item.Author,
		VideoID:     item.ID,
		URL:         videoURL,
		Views:       models.Count(item.Stats.PlayCount),
		Likes:       models.Count(item.Stats.DiggCount),
		Comments:    models.Count(item.Stats.CommentCount),
		Shares:      models.Count(item.Stats.ShareCount),
		Saves:       models.Count(item.Stats.CollectCount),
		Subscribers: models.Count(item.AuthorStats.FollowerCount),
		TotalVideos: models.Count(item.AuthorStats.VideoCount),
		Tags:        tags,
	}
}

// MatchesKeywords implements the pre-filter applied before a candidate counts
// toward the result cap: at least one keyword must appear in the lower-cased
// description, in plain or hashtag form. An empty filter or the literal
// "none" disables the check.
func MatchesKeywords(description, keywords string) bool {
	if strings.EqualFold(strings.TrimSpace(keywords), "none") {
		return true
	}
	words := models.SplitKeywords(keywords)
	if len(words) == 0 {
		return true
	}

	desc := strings.ToLower(description)
	for _, word := range words {
		w := strings.ToLower(word)
		if strings.Contains(desc, w) || strings.Contains(desc, "#"+w) {
			return true
		}
	}
	return false
}
