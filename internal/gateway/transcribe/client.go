// Package transcribe converts audio bytes into text through the external
// speech API. It is independent of the classification gateway but feeds
// into it.
package transcribe

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"garage-assistant/internal/common/errors"
	"garage-assistant/internal/common/logger"
	"garage-assistant/internal/common/metrics"
)

// Transcriber converts audio bytes plus a mime type into a transcript.
type Transcriber interface {
	Transcribe(ctx context.Context, audio []byte, mimeType string) (string, error)
}

type Config struct {
	BaseURL     string
	APIKey      string
	Model       string
	DefaultMime string
	Timeout     time.Duration
}

// Client calls a Gemini-style generateContent endpoint with inline audio.
// Each call owns its own request/response lifecycle; concurrent use is safe.
type Client struct {
	config     *Config
	httpClient *http.Client
	logger     logger.Logger
}

const transcriptionInstruction = "Transcribe this audio. Reply with the transcript only, no commentary."

func NewClient(config *Config, log logger.Logger) (*Client, error) {
	if config.APIKey == "" {
		return nil, errors.NewConfigurationError("transcription api key is not set")
	}
	if config.Model == "" {
		return nil, errors.NewConfigurationError("transcription model identifier is not set")
	}
	if config.BaseURL == "" {
		return nil, errors.NewConfigurationError("transcription base url is not set")
	}
	if config.DefaultMime == "" {
		config.DefaultMime = "audio/ogg"
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
		logger: log.WithFields(map[string]interface{}{"gateway": "transcribe"}),
	}, nil
}

type requestPart struct {
	Text       string      `json:"text,omitempty"`
	InlineData *inlineData `json:"inline_data,omitempty"`
}

type inlineData struct {
	MimeType string `json:"mime_type"`
	Data     string `json:"data"` // base64
}

type transcribeRequest struct {
	Contents []struct {
		Parts []requestPart `json:"parts"`
	} `json:"contents"`
}

type transcribeResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

// Transcribe returns the whitespace-trimmed transcript. An empty transcript
// is a valid result, distinct from a transcription failure. Empty audio is
// rejected before any external call; a missing mime type falls back to the
// configured default.
func (c *Client) Transcribe(ctx context.Context, audio []byte, mimeType string) (string, error) {
	if len(audio) == 0 {
		return "", errors.NewValidationError("audio payload is empty")
	}

	if mimeType == "" {
		mimeType = c.config.DefaultMime
		c.logger.Debug("mime type absent, using default", map[string]interface{}{
			"mimeType": mimeType,
		})
	}

	var request transcribeRequest
	request.Contents = append(request.Contents, struct {
		Parts []requestPart `json:"parts"`
	}{
		Parts: []requestPart{
			{InlineData: &inlineData{
				MimeType: mimeType,
				Data:     base64.StdEncoding.EncodeToString(audio),
			}},
			{Text: transcriptionInstruction},
		},
	})

	payload, err := json.Marshal(request)
	if err != nil {
		return "", errors.NewTransportError(errors.StageTranscription, fmt.Errorf("marshal request: %w", err))
	}

	url := fmt.Sprintf("%s/v1beta/models/%s:generateContent", strings.TrimRight(c.config.BaseURL, "/"), c.config.Model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(payload))
	if err != nil {
		return "", errors.NewTransportError(errors.StageTranscription, fmt.Errorf("create request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", c.config.APIKey)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	metrics.GatewayCallDuration.WithLabelValues("transcribe").Observe(time.Since(start).Seconds())
	if err != nil {
		return "", errors.NewTransportError(errors.StageTranscription, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return "", errors.NewTransportError(errors.StageTranscription,
			fmt.Errorf("generateContent returned status %d: %s", resp.StatusCode, string(body)))
	}

	var genResp transcribeResponse
	if err := json.NewDecoder(resp.Body).Decode(&genResp); err != nil {
		return "", errors.NewTransportError(errors.StageTranscription, fmt.Errorf("decode response: %w", err))
	}
	if len(genResp.Candidates) == 0 || len(genResp.Candidates[0].Content.Parts) == 0 {
		return "", errors.NewTransportError(errors.StageTranscription, fmt.Errorf("response carries no candidates"))
	}

	transcript := strings.TrimSpace(genResp.Candidates[0].Content.Parts[0].Text)
	c.logger.Info("audio transcribed", map[string]interface{}{
		"bytes":      len(audio),
		"mimeType":   mimeType,
		"transcript": len(transcript),
	})

	return transcript, nil
}
