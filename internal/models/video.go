package models

import "fmt"

// Platform identifies the source a video was collected from.
type Platform string

const (
	PlatformYouTube Platform = "youtube"
	PlatformTikTok  Platform = "tiktok"
)

// ParsePlatform maps a user-supplied platform name onto a known Platform.
func ParsePlatform(s string) (Platform, error) {
	switch Platform(s) {
	case PlatformYouTube, PlatformTikTok:
		return Platform(s), nil
	}
	return "", fmt.Errorf("unknown platform %q (expected youtube or tiktok)", s)
}

// VideoRecord is the central entity of a collection run: one record per
// discovered video, keyed by the platform-specific video id.
//
// Engagement and channel metrics are pointers so that "unknown" (platform does
// not expose the figure, or the lookup failed) stays distinct from an actual
// zero. Nil compares as zero for threshold checks.
type VideoRecord struct {
	Platform    Platform `json:"platform"`
	Title       *string  `json:"title"`
	Description string   `json:"description"`
	PublishedAt string   `json:"published_at"`
	Channel     string   `json:"channel"`
	ChannelID   string   `json:"channel_id"`
	VideoID     string   `json:"video_id"`
	URL         string   `json:"url,omitempty"`

	Views    *int64 `json:"views,omitempty"`
	Likes    *int64 `json:"likes,omitempty"`
	Comments *int64 `json:"comments,omitempty"`
	Shares   *int64 `json:"shares,omitempty"`
	Saves    *int64 `json:"saves,omitempty"`

	Subscribers *int64 `json:"subscribers,omitempty"`
	TotalVideos *int64 `json:"total_videos,omitempty"`

	Tags []string `json:"tags,omitempty"`

	Transcription []TranscriptSegment `json:"transcription,omitempty"`

	// Sentiment holds the downstream classification, when one has run.
	Sentiment *Sentiment `json:"llm_analysis,omitempty"`
}

// TranscriptSegment is one timestamped chunk of speech-to-text output.
// Segment numbers are source-assigned and not necessarily contiguous; segments
// keep the order the transcription service produced them in.
type TranscriptSegment struct {
	SegmentNumber int     `json:"segment_number"`
	StartTime     float64 `json:"start_time"`
	EndTime       float64 `json:"end_time"`
	Transcription string  `json:"transcription"`
}

// Sentiment is the LLM classification of a transcribed video against a
// political perspective.
type Sentiment struct {
	Choice   string `json:"choice"` // "positive", "negative" or "neutral"
	Main     []int  `json:"main"`   // segment numbers supporting the choice
	Analysis string `json:"analysis"`
}

// LikesOrZero returns the like count, treating unknown as 0.
func (v *VideoRecord) LikesOrZero() int64 {
	return orZero(v.Likes)
}

// SubscribersOrZero returns the channel subscriber count, treating unknown as 0.
func (v *VideoRecord) SubscribersOrZero() int64 {
	return orZero(v.Subscribers)
}

func orZero(n *int64) int64 {
	if n == nil {
		return 0
	}
	return *n
}

// Count boxes a metric value for assignment to the record's pointer fields.
func Count(n int64) *int64 {
	return &n
}

// Str boxes a string for the optional title field.
func Str(s string) *string {
	return &s
}
