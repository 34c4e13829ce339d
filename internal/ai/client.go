package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"omnitask/backend/internal/models"
)

// Coach is the generative-AI boundary. Implementations are stateless and
// one-shot: no retry, no streaming. Callers swallow failures — a failed
// breakdown appends nothing, a failed insight refresh keeps the last value.
type Coach interface {
	BreakDownTask(ctx context.Context, title, description string) ([]string, error)
	CoachingInsight(ctx context.Context, tasks []models.Task) (models.Insight, error)
}

const defaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"

type GeminiClient struct {
	apiKey  string
	baseURL string
	model   string
	client  *http.Client
}

type Config struct {
	APIKey  string
	BaseURL string
	Model   string
	Timeout time.Duration
}

func NewGeminiClient(config Config) *GeminiClient {
	if config.BaseURL == "" {
		config.BaseURL = defaultBaseURL
	}
	return &GeminiClient{
		apiKey:  config.APIKey,
		baseURL: strings.TrimRight(config.BaseURL, "/"),
		model:   config.Model,
		client:  &http.Client{Timeout: config.Timeout},
	}
}

type geminiRequest struct {
	Contents         []geminiContent  `json:"contents"`
	GenerationConfig generationConfig `json:"generationConfig"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text string `json:"text"`
}

type generationConfig struct {
	ResponseMimeType string          `json:"responseMimeType"`
	ResponseSchema   json.RawMessage `json:"responseSchema"`
}

type geminiResponse struct {
	Candidates []struct {
		Content geminiContent `json:"content"`
	} `json:"candidates"`
}

type geminiError struct {
	Error struct {
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

var breakdownSchema = json.RawMessage(`{
	"type": "OBJECT",
	"properties": {
		"subtasks": {"type": "ARRAY", "items": {"type": "STRING"}}
	},
	"required": ["subtasks"]
}`)

var insightSchema = json.RawMessage(`{
	"type": "OBJECT",
	"properties": {
		"summary": {"type": "STRING", "description": "A brief 1-sentence summary of current progress."},
		"suggestions": {"type": "ARRAY", "items": {"type": "STRING"}, "description": "3 specific tips to improve productivity based on the list."},
		"encouragement": {"type": "STRING", "description": "A motivational quote or sentence."}
	},
	"required": ["summary", "suggestions", "encouragement"]
}`)

// BreakDownTask requests 3-5 actionable subtask titles. The count is
// requested of the model, not enforced here.
func (c *GeminiClient) BreakDownTask(ctx context.Context, title, description string) ([]string, error) {
	prompt := fmt.Sprintf("Break down this task into exactly 3-5 specific, actionable sub-tasks: %q (%s)", title, description)

	text, err := c.generate(ctx, prompt, breakdownSchema)
	if err != nil {
		return nil, err
	}

	var result struct {
		Subtasks []string `json:"subtasks"`
	}
	if err := json.Unmarshal([]byte(text), &result); err != nil {
		return nil, fmt.Errorf("failed to parse breakdown response: %w", err)
	}

	return result.Subtasks, nil
}

// CoachingInsight sends the task list reduced to status/title/priority and
// requests structured coaching.
func (c *GeminiClient) CoachingInsight(ctx context.Context, tasks []models.Task) (models.Insight, error) {
	var listing strings.Builder
	for _, t := range tasks {
		fmt.Fprintf(&listing, "- [%s] %s (%s priority)\n", t.Status, t.Title, t.Priority)
	}
	prompt := "Analyze this todo list and provide productivity coaching:\n" + listing.String()

	text, err := c.generate(ctx, prompt, insightSchema)
	if err != nil {
		return models.Insight{}, err
	}

	var insight models.Insight
	if err := json.Unmarshal([]byte(text), &insight); err != nil {
		return models.Insight{}, fmt.Errorf("failed to parse insight response: %w", err)
	}

	return insight, nil
}

func (c *GeminiClient) generate(ctx context.Context, prompt string, schema json.RawMessage) (string, error) {
	if c.apiKey == "" {
		return "", fmt.Errorf("AI_API_KEY not set")
	}

	body, err := json.Marshal(geminiRequest{
		Contents: []geminiContent{{Parts: []geminiPart{{Text: prompt}}}},
		GenerationConfig: generationConfig{
			ResponseMimeType: "application/json",
			ResponseSchema:   schema,
		},
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/models/%s:generateContent", c.baseURL, c.model)
	httpReq, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("x-goog-api-key", c.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var apiErr geminiError
		if json.Unmarshal(respBody, &apiErr) == nil && apiErr.Error.Message != "" {
			return "", fmt.Errorf("AI API error (%d): %s", resp.StatusCode, apiErr.Error.Message)
		}
		return "", fmt.Errorf("AI API error (%d): %s", resp.StatusCode, string(respBody))
	}

	var geminiResp geminiResponse
	if err := json.Unmarshal(respBody, &geminiResp); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}

	if len(geminiResp.Candidates) == 0 || len(geminiResp.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("empty response from AI API")
	}

	return geminiResp.Candidates[0].Content.Parts[0].Text, nil
}
