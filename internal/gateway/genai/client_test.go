package genai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"garage-assistant/internal/common/errors"
	"garage-assistant/internal/common/logger"
	"garage-assistant/internal/models"
)

// ==========================
// Test Helper Functions
// ==========================

func createTestConfig(baseURL string) *Config {
	return &Config{
		BaseURL: baseURL,
		APIKey:  "test-key",
		Model:   "gemini-2.5-flash",
		Timeout: 5 * time.Second,
	}
}

// createGenerateResponse wraps a reply document in the provider's
// candidates/content/parts envelope.
func createGenerateResponse(document string) string {
	resp := map[string]interface{}{
		"candidates": []map[string]interface{}{
			{
				"content": map[string]interface{}{
					"parts": []map[string]interface{}{
						{"text": document},
					},
				},
			},
		},
	}
	data, _ := json.Marshal(resp)
	return string(data)
}

func createReplyDocument(intent string, confidence float64, fields map[string]interface{}) string {
	doc := map[string]interface{}{
		"intent":     intent,
		"confidence": confidence,
	}
	if fields != nil {
		doc["fields"] = fields
	}
	data, _ := json.Marshal(doc)
	return string(data)
}

func newTestClient(t *testing.T, baseURL string) *Client {
	client, err := NewClient(createTestConfig(baseURL), logger.NewTestLogger(t))
	require.NoError(t, err)
	return client
}

// ==========================
// Core Functionality Tests
// ==========================

func TestClient_Classify_Success(t *testing.T) {
	tests := []struct {
		name           string
		message        string
		replyDocument  string
		expectedIntent models.Intent
		validateFields func(t *testing.T, fields models.ServiceFields)
	}{
		{
			name:    "record service with full fields",
			message: "Register an oil change for Maria's Toyota Corolla, 150 dollars",
			replyDocument: createReplyDocument("record_service", 0.95, map[string]interface{}{
				"client_name":         "Maria",
				"car_brand":           "Toyota",
				"car_model":           "Corolla",
				"service_description": "oil change",
				"cost":                150.0,
			}),
			expectedIntent: models.IntentRecordService,
			validateFields: func(t *testing.T, fields models.ServiceFields) {
				assert.Equal(t, "Maria", fields.ClientName)
				assert.Equal(t, "Toyota", fields.CarBrand)
				assert.Equal(t, "Corolla", fields.CarModel)
				assert.Equal(t, "oil change", fields.ServiceDescription)
				require.NotNil(t, fields.Cost)
				assert.Equal(t, 150.0, *fields.Cost)
			},
		},
		{
			name:    "search service by client",
			message: "Find services for John",
			replyDocument: createReplyDocument("search_service", 0.88, map[string]interface{}{
				"client_name": "John",
			}),
			expectedIntent: models.IntentSearchService,
			validateFields: func(t *testing.T, fields models.ServiceFields) {
				assert.Equal(t, "John", fields.ClientName)
			},
		},
		{
			name:           "list active services with no fields",
			message:        "What's still in the shop?",
			replyDocument:  createReplyDocument("list_active_services", 0.91, nil),
			expectedIntent: models.IntentListActiveServices,
			validateFields: func(t *testing.T, fields models.ServiceFields) {
				assert.Empty(t, fields.ClientName)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var capturedPrompt string
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "test-key", r.Header.Get("x-goog-api-key"))
				assert.Contains(t, r.URL.Path, "gemini-2.5-flash:generateContent")

				var req generateRequest
				require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
				require.NotEmpty(t, req.Contents)
				capturedPrompt = req.Contents[0].Parts[0].Text

				w.Header().Set("Content-Type", "application/json")
				_, _ = w.Write([]byte(createGenerateResponse(tt.replyDocument)))
			}))
			defer server.Close()

			client := newTestClient(t, server.URL)
			classified, err := client.Classify(context.Background(), tt.message)

			require.NoError(t, err)
			assert.Equal(t, tt.expectedIntent, classified.Intent)
			require.NotNil(t, classified.Confidence)
			tt.validateFields(t, classified.Fields)

			// The prompt embeds the verbatim message and the closed intent set.
			assert.Contains(t, capturedPrompt, tt.message)
			assert.Contains(t, capturedPrompt, "record_service")
			assert.Contains(t, capturedPrompt, "list_active_services")
		})
	}
}

func TestClient_Classify_EmptyMessage(t *testing.T) {
	called := false
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)

	for _, message := range []string{"", "   ", "\n\t"} {
		_, err := client.Classify(context.Background(), message)
		require.Error(t, err)
		assert.Equal(t, errors.ErrCodeValidation, errors.Code(err))
	}
	assert.False(t, called, "blank input must not reach the external API")
}

func TestClient_Classify_ClassificationErrors(t *testing.T) {
	tests := []struct {
		name          string
		replyDocument string
	}{
		{
			name:          "intent outside the enumerated set",
			replyDocument: createReplyDocument("delete_service", 0.99, nil),
		},
		{
			name:          "missing intent key",
			replyDocument: `{"fields": {"client_name": "Maria"}}`,
		},
		{
			name:          "reply is not JSON",
			replyDocument: "I think the worker wants to record a service.",
		},
		{
			name:          "unexpected top-level key",
			replyDocument: `{"intent": "record_service", "action": "create"}`,
		},
		{
			name:          "field with wrong type",
			replyDocument: `{"intent": "record_service", "fields": {"car_year": "last year"}}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(createGenerateResponse(tt.replyDocument)))
			}))
			defer server.Close()

			client := newTestClient(t, server.URL)
			_, err := client.Classify(context.Background(), "register an oil change")

			require.Error(t, err)
			assert.Equal(t, errors.ErrCodeClassification, errors.Code(err))
			assert.False(t, errors.IsRetryable(err))
		})
	}
}

func TestClient_Classify_TransportErrors(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{
			name: "rate limited",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusTooManyRequests)
			},
		},
		{
			name: "auth rejected",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusForbidden)
			},
		},
		{
			name: "empty candidate list",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(`{"candidates": []}`))
			},
		},
		{
			name: "envelope is not JSON",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte("<html>bad gateway</html>"))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(tt.handler)
			defer server.Close()

			client := newTestClient(t, server.URL)
			_, err := client.Classify(context.Background(), "register an oil change")

			require.Error(t, err)
			assert.Equal(t, errors.ErrCodeTransport, errors.Code(err))
			assert.True(t, errors.IsRetryable(err))
		})
	}
}

func TestClient_Classify_Timeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer server.Close()

	cfg := createTestConfig(server.URL)
	cfg.Timeout = 20 * time.Millisecond
	client, err := NewClient(cfg, logger.NewNoOpLogger())
	require.NoError(t, err)

	_, err = client.Classify(context.Background(), "register an oil change")
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeTransport, errors.Code(err))
}

func TestNewClient_ConfigurationErrors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(cfg *Config)
	}{
		{"missing api key", func(cfg *Config) { cfg.APIKey = "" }},
		{"missing model", func(cfg *Config) { cfg.Model = "" }},
		{"missing base url", func(cfg *Config) { cfg.BaseURL = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := createTestConfig("http://localhost:9999")
			tt.mutate(cfg)

			_, err := NewClient(cfg, logger.NewNoOpLogger())
			require.Error(t, err)
			assert.Equal(t, errors.ErrCodeConfiguration, errors.Code(err))
		})
	}
}

func TestParseReply_ClosedSet(t *testing.T) {
	// For any reply, the result is either an intent from the recognized set
	// or a classification error, never a fourth value.
	documents := []string{
		createReplyDocument("record_service", 0.9, nil),
		createReplyDocument("search_service", 0.9, nil),
		createReplyDocument("list_active_services", 0.9, nil),
		createReplyDocument("record-service", 0.9, nil),
		createReplyDocument("RECORD_SERVICE", 0.9, nil),
		createReplyDocument("", 0.9, nil),
		"null",
		"[]",
	}

	recognized := map[models.Intent]bool{
		models.IntentRecordService:      true,
		models.IntentSearchService:      true,
		models.IntentListActiveServices: true,
	}

	for _, doc := range documents {
		classified, err := parseReply(doc)
		if err != nil {
			assert.Equal(t, errors.ErrCodeClassification, errors.Code(err))
			continue
		}
		assert.True(t, recognized[classified.Intent], "unexpected intent %q", classified.Intent)
	}
}

func TestBuildClassificationPrompt_VerbatimMessage(t *testing.T) {
	message := "troca de óleo do Gol do seu José, ficou R$ 180"
	prompt, err := buildClassificationPrompt(message)
	require.NoError(t, err)
	assert.True(t, strings.Contains(prompt, message))
}
