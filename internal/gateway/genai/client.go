// Package genai is the pipeline's only point of contact with the
// classification API. It builds the instruction prompt, issues the call and
// parses the raw reply into a typed ClassifiedIntent.
package genai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"garage-assistant/internal/common/errors"
	"garage-assistant/internal/common/logger"
	"garage-assistant/internal/common/metrics"
	"garage-assistant/internal/models"
)

// Classifier turns a free-form utterance into a ClassifiedIntent.
type Classifier interface {
	Classify(ctx context.Context, message string) (*models.ClassifiedIntent, error)
}

type Config struct {
	BaseURL string
	APIKey  string
	Model   string
	Timeout time.Duration
}

// Client calls a Gemini-style generateContent endpoint. It carries no
// cross-call state and is safe for concurrent use.
type Client struct {
	config     *Config
	httpClient *http.Client
	logger     logger.Logger
}

// NewClient fails fast when the credential or model identifier is missing;
// a half-configured gateway must never reach per-call code.
func NewClient(config *Config, log logger.Logger) (*Client, error) {
	if config.APIKey == "" {
		return nil, errors.NewConfigurationError("genai api key is not set")
	}
	if config.Model == "" {
		return nil, errors.NewConfigurationError("genai model identifier is not set")
	}
	if config.BaseURL == "" {
		return nil, errors.NewConfigurationError("genai base url is not set")
	}
	timeout := config.Timeout
	if timeout == 0 {
		timeout = 60 * time.Second
	}

	return &Client{
		config: config,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: log.WithFields(map[string]interface{}{"gateway": "genai"}),
	}, nil
}

// Wire types for the generateContent request/response. The exact format is
// the provider's; the pipeline depends only on "prompt in, text out".

type generatePart struct {
	Text       string          `json:"text,omitempty"`
	InlineData *inlineDataPart `json:"inline_data,omitempty"`
}

type inlineDataPart struct {
	MimeType string `json:"mime_type"`
	Data     string `json:"data"` // base64
}

type generateContent struct {
	Parts []generatePart `json:"parts"`
}

type generationConfig struct {
	ResponseMimeType string `json:"response_mime_type,omitempty"`
}

type generateRequest struct {
	Contents         []generateContent `json:"contents"`
	GenerationConfig *generationConfig `json:"generationConfig,omitempty"`
}

type generateResponse struct {
	Candidates []struct {
		Content generateContent `json:"content"`
	} `json:"candidates"`
}

// Classify sends the message to the classification API and parses the reply.
// Empty input fails before any external call. The gateway never retries;
// retry policy belongs to the caller.
func (c *Client) Classify(ctx context.Context, message string) (*models.ClassifiedIntent, error) {
	if strings.TrimSpace(message) == "" {
		return nil, errors.NewValidationError("message is empty")
	}

	prompt, err := buildClassificationPrompt(message)
	if err != nil {
		return nil, errors.NewClassificationError(err.Error())
	}

	request := generateRequest{
		Contents: []generateContent{
			{Parts: []generatePart{{Text: prompt}}},
		},
		GenerationConfig: &generationConfig{
			ResponseMimeType: "application/json",
		},
	}

	start := time.Now()
	replyText, err := c.generate(ctx, c.config.Model, request)
	metrics.GatewayCallDuration.WithLabelValues("genai").Observe(time.Since(start).Seconds())
	if err != nil {
		return nil, err
	}

	classified, err := parseReply(replyText)
	if err != nil {
		c.logger.Warn("classification reply rejected", map[string]interface{}{
			"error": err.Error(),
		})
		return nil, err
	}

	c.logger.Info("message classified", map[string]interface{}{
		"intent": string(classified.Intent),
	})

	return classified, nil
}

// generate issues one generateContent call and returns the first candidate's
// text.
func (c *Client) generate(ctx context.Context, model string, request generateRequest) (string, error) {
	payload, err := json.Marshal(request)
	if err != nil {
		return "", errors.NewTransportError(errors.StageClassification, fmt.Errorf("marshal request: %w", err))
	}

	url := fmt.Sprintf("%s/v1beta/models/%s:generateContent", strings.TrimRight(c.config.BaseURL, "/"), model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(payload))
	if err != nil {
		return "", errors.NewTransportError(errors.StageClassification, fmt.Errorf("create request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", c.config.APIKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", errors.NewTransportError(errors.StageClassification, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return "", errors.NewTransportError(errors.StageClassification,
			fmt.Errorf("generateContent returned status %d: %s", resp.StatusCode, string(body)))
	}

	var genResp generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&genResp); err != nil {
		return "", errors.NewTransportError(errors.StageClassification, fmt.Errorf("decode response: %w", err))
	}
	if len(genResp.Candidates) == 0 || len(genResp.Candidates[0].Content.Parts) == 0 {
		return "", errors.NewTransportError(errors.StageClassification, fmt.Errorf("response carries no candidates"))
	}

	return genResp.Candidates[0].Content.Parts[0].Text, nil
}

// parseReply maps the raw reply document into the closed intent set. Any
// deviation from the contract is a classification failure, not a new intent.
func parseReply(document string) (*models.ClassifiedIntent, error) {
	if err := validateReply(document); err != nil {
		return nil, errors.NewClassificationError(err.Error())
	}

	var reply struct {
		Intent     string               `json:"intent"`
		Confidence *float64             `json:"confidence"`
		Fields     models.ServiceFields `json:"fields"`
	}
	if err := json.Unmarshal([]byte(document), &reply); err != nil {
		return nil, errors.NewClassificationError(fmt.Sprintf("decode reply: %v", err))
	}

	intent, ok := models.ParseIntent(reply.Intent)
	if !ok {
		return nil, errors.NewClassificationError(fmt.Sprintf("intent %q is not recognized", reply.Intent))
	}

	return &models.ClassifiedIntent{
		Intent:     intent,
		Confidence: reply.Confidence,
		Fields:     reply.Fields,
	}, nil
}
