package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"pulse-stack/internal/models"
	"pulse-stack/shared/config"

	"google.golang.org/genai"
)

// Classifier judges transcribed videos as positive, negative or neutral
// toward a user-specified political perspective, citing the transcript
// segments that carried the decision.
type Classifier struct {
	client *genai.Client
	model  string
}

func NewClassifier(cfg *config.AIConfig) (*Classifier, error) {
	ctx := context.Background()

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey: cfg.GeminiAPIKey,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &Classifier{
		client: client,
		model:  cfg.Model,
	}, nil
}

// Classify sends the record's transcript chunks to the model and parses the
// structured verdict.
func (c *Classifier) Classify(ctx context.Context, record *models.VideoRecord, perspective string) (*models.Sentiment, error) {
	if record == nil {
		return nil, fmt.Errorf("record cannot be nil")
	}
	if len(record.Transcription) == 0 {
		return nil, fmt.Errorf("record %s has no transcription to classify", record.VideoID)
	}

	prompt := buildClassificationPrompt(record, perspective)

	contents := []*genai.Content{
		genai.NewContentFromParts([]*genai.Part{genai.NewPartFromText(prompt)}, genai.RoleUser),
	}

	result, err := c.client.Models.GenerateContent(ctx, c.model, contents, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to classify video %s: %w", record.VideoID, err)
	}

	responseText := result.Text()
	if responseText == "" {
		return nil, fmt.Errorf("no classification response received for video %s", record.VideoID)
	}

	sentiment, err := parseClassificationResponse(responseText)
	if err != nil {
		return nil, fmt.Errorf("failed to parse classification response for video %s: %w", record.VideoID, err)
	}
	return sentiment, nil
}

func buildClassificationPrompt(record *models.VideoRecord, perspective string) string {
	var chunks strings.Builder
	for _, seg := range record.Transcription {
		text := seg.Transcription
		if text == "" {
			text = "No transcription available"
		}
		fmt.Fprintf(&chunks, "Chunk %d: %s\n\n", seg.SegmentNumber, text)
	}

	return fmt.Sprintf(`Please determine whether this content is positive or negative for the specified perspective.
Negative content is content that opposes the perspective.
Positive content is content that supports the perspective.
Which chunks were most helpful in determining whether it was positive or negative?
Please answer in JSON format. Please include the following fields:
- "choice" ("positive" or "negative" or "neutral")
- "main" (list of the most important chunk numbers that support your decision)
- "analysis" (string containing an explanation of your reasoning)

perspective: %s
Content chunks:

%s`, perspective, chunks.String())
}

func parseClassificationResponse(response string) (*models.Sentiment, error) {
	startIdx := strings.Index(response, "{")
	endIdx := strings.LastIndex(response, "}")
	if startIdx == -1 || endIdx == -1 || endIdx < startIdx {
		return nil, fmt.Errorf("no JSON found in response: %s", response)
	}

	jsonStr := response[startIdx : endIdx+1]

	var result models.Sentiment
	if err := json.Unmarshal([]byte(jsonStr), &result); err != nil {
		return nil, fmt.Errorf("failed to unmarshal JSON %q: %w", jsonStr, err)
	}

	switch result.Choice {
	case "positive", "negative", "neutral":
	default:
		return nil, fmt.Errorf("unexpected choice %q in classification", result.Choice)
	}

	return &result, nil
}
