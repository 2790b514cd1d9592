package http

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"garage-assistant/internal/chat"
	"garage-assistant/internal/common/errors"
	"garage-assistant/internal/common/logger"
	"garage-assistant/internal/models"
	"garage-assistant/internal/repository"
)

// ==========================
// Test Doubles
// ==========================

type stubChatter struct {
	reply      *chat.Reply
	gotMessage string
	gotAudio   []byte
	gotMime    string
}

func (s *stubChatter) HandleText(_ context.Context, message string) *chat.Reply {
	s.gotMessage = message
	return s.reply
}

func (s *stubChatter) HandleAudio(_ context.Context, audio []byte, mimeType string) *chat.Reply {
	s.gotAudio = audio
	s.gotMime = mimeType
	return s.reply
}

type stubReader struct {
	details   []models.ServiceDetail
	detail    *models.ServiceDetail
	clients   []models.Client
	cars      []models.Car
	err       error
	gotFilter repository.ServiceFilter
	gotID     int64
}

func (s *stubReader) QueryServiceRecords(_ context.Context, filter repository.ServiceFilter) ([]models.ServiceDetail, error) {
	s.gotFilter = filter
	return s.details, s.err
}

func (s *stubReader) GetServiceRecord(_ context.Context, id int64) (*models.ServiceDetail, error) {
	s.gotID = id
	return s.detail, s.err
}

func (s *stubReader) ListClients(_ context.Context) ([]models.Client, error) {
	return s.clients, s.err
}

func (s *stubReader) ListCarsByClient(_ context.Context, clientID int64) ([]models.Car, error) {
	s.gotID = clientID
	return s.cars, s.err
}

type stubPinger struct{ err error }

func (s *stubPinger) Ping(_ context.Context) error { return s.err }

func newTestServer(t *testing.T, chatter *stubChatter, reader *stubReader, pinger *stubPinger) *httptest.Server {
	log := logger.NewZapAdapter(zaptest.NewLogger(t))
	handler := NewHandler(chatter, reader, pinger, log)
	server := httptest.NewServer(NewRouter(handler, log))
	t.Cleanup(server.Close)
	return server
}

// ==========================
// Chat Endpoint Tests
// ==========================

func TestChat(t *testing.T) {
	t.Run("forwards message and returns pipeline reply", func(t *testing.T) {
		chatter := &stubChatter{reply: &chat.Reply{Success: true, Message: "Service recorded:"}}
		server := newTestServer(t, chatter, &stubReader{}, &stubPinger{})

		resp, err := http.Post(server.URL+"/api/chat", "application/json",
			strings.NewReader(`{"message": "anota troca de óleo no uno do joão"}`))
		require.NoError(t, err)
		defer resp.Body.Close()

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "anota troca de óleo no uno do joão", chatter.gotMessage)

		var reply chat.Reply
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&reply))
		assert.True(t, reply.Success)
	})

	t.Run("pipeline failure still answers 200 with success false", func(t *testing.T) {
		chatter := &stubChatter{reply: &chat.Reply{Success: false, Message: "Could not understand the request."}}
		server := newTestServer(t, chatter, &stubReader{}, &stubPinger{})

		resp, err := http.Post(server.URL+"/api/chat", "application/json",
			strings.NewReader(`{"message": "???"}`))
		require.NoError(t, err)
		defer resp.Body.Close()

		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var reply chat.Reply
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&reply))
		assert.False(t, reply.Success)
	})

	t.Run("malformed body is a 400", func(t *testing.T) {
		server := newTestServer(t, &stubChatter{}, &stubReader{}, &stubPinger{})

		resp, err := http.Post(server.URL+"/api/chat", "application/json", strings.NewReader("{not json"))
		require.NoError(t, err)
		defer resp.Body.Close()

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})
}

func TestChatAudio(t *testing.T) {
	buildForm := func(t *testing.T, audio []byte, mimeField string) (*bytes.Buffer, string) {
		var body bytes.Buffer
		writer := multipart.NewWriter(&body)
		part, err := writer.CreateFormFile("audio", "note.ogg")
		require.NoError(t, err)
		_, err = part.Write(audio)
		require.NoError(t, err)
		if mimeField != "" {
			require.NoError(t, writer.WriteField("mime_type", mimeField))
		}
		require.NoError(t, writer.Close())
		return &body, writer.FormDataContentType()
	}

	t.Run("forwards audio bytes and mime type", func(t *testing.T) {
		chatter := &stubChatter{reply: &chat.Reply{Success: true, Transcript: "quais serviços estão ativos?"}}
		server := newTestServer(t, chatter, &stubReader{}, &stubPinger{})

		body, contentType := buildForm(t, []byte{0x4f, 0x67, 0x67}, "audio/ogg")
		resp, err := http.Post(server.URL+"/api/chat/audio", contentType, body)
		require.NoError(t, err)
		defer resp.Body.Close()

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, []byte{0x4f, 0x67, 0x67}, chatter.gotAudio)
		assert.Equal(t, "audio/ogg", chatter.gotMime)
	})

	t.Run("missing audio part is a 400", func(t *testing.T) {
		server := newTestServer(t, &stubChatter{}, &stubReader{}, &stubPinger{})

		var body bytes.Buffer
		writer := multipart.NewWriter(&body)
		require.NoError(t, writer.WriteField("mime_type", "audio/ogg"))
		require.NoError(t, writer.Close())

		resp, err := http.Post(server.URL+"/api/chat/audio", writer.FormDataContentType(), &body)
		require.NoError(t, err)
		defer resp.Body.Close()

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})
}

// ==========================
// Read Endpoint Tests
// ==========================

func TestListServices(t *testing.T) {
	t.Run("builds filter from query params", func(t *testing.T) {
		reader := &stubReader{}
		server := newTestServer(t, &stubChatter{}, reader, &stubPinger{})

		resp, err := http.Get(server.URL + "/api/services?client_name=Maria&car_model=uno&status=active")
		require.NoError(t, err)
		defer resp.Body.Close()

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "Maria", reader.gotFilter.ClientName)
		assert.Equal(t, "uno", reader.gotFilter.CarModel)
		assert.Equal(t, models.StatusActive, reader.gotFilter.Status)
	})

	t.Run("unknown status is a 400", func(t *testing.T) {
		server := newTestServer(t, &stubChatter{}, &stubReader{}, &stubPinger{})

		resp, err := http.Get(server.URL + "/api/services?status=pending")
		require.NoError(t, err)
		defer resp.Body.Close()

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("empty result encodes as empty array", func(t *testing.T) {
		server := newTestServer(t, &stubChatter{}, &stubReader{}, &stubPinger{})

		resp, err := http.Get(server.URL + "/api/services")
		require.NoError(t, err)
		defer resp.Body.Close()

		var buf bytes.Buffer
		_, _ = buf.ReadFrom(resp.Body)
		assert.Equal(t, "[]", strings.TrimSpace(buf.String()))
	})

	t.Run("store failure is a 500 with the user message", func(t *testing.T) {
		reader := &stubReader{err: errors.NewPersistenceError("queryServiceRecords", context.DeadlineExceeded)}
		server := newTestServer(t, &stubChatter{}, reader, &stubPinger{})

		resp, err := http.Get(server.URL + "/api/services")
		require.NoError(t, err)
		defer resp.Body.Close()

		assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)

		var body errorResponse
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		assert.Equal(t, "persistence_error", body.Error)
	})
}

func TestListActiveServices_UsesImplicitActiveFilter(t *testing.T) {
	reader := &stubReader{}
	server := newTestServer(t, &stubChatter{}, reader, &stubPinger{})

	resp, err := http.Get(server.URL + "/api/services/active")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, repository.ServiceFilter{Status: models.StatusActive}, reader.gotFilter)
}

func TestGetService(t *testing.T) {
	t.Run("found", func(t *testing.T) {
		reader := &stubReader{detail: &models.ServiceDetail{
			Record: models.ServiceRecord{ID: 42, Description: "troca de óleo", Date: time.Now()},
		}}
		server := newTestServer(t, &stubChatter{}, reader, &stubPinger{})

		resp, err := http.Get(server.URL + "/api/services/42")
		require.NoError(t, err)
		defer resp.Body.Close()

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, int64(42), reader.gotID)
	})

	t.Run("not found", func(t *testing.T) {
		server := newTestServer(t, &stubChatter{}, &stubReader{}, &stubPinger{})

		resp, err := http.Get(server.URL + "/api/services/999")
		require.NoError(t, err)
		defer resp.Body.Close()

		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})

	t.Run("non-numeric id", func(t *testing.T) {
		server := newTestServer(t, &stubChatter{}, &stubReader{}, &stubPinger{})

		resp, err := http.Get(server.URL + "/api/services/abc")
		require.NoError(t, err)
		defer resp.Body.Close()

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})
}

func TestListClientsAndCars(t *testing.T) {
	reader := &stubReader{
		clients: []models.Client{{ID: 1, Name: "João Silva"}},
		cars:    []models.Car{{ID: 7, ClientID: 1, Brand: "Fiat", Model: "Uno"}},
	}
	server := newTestServer(t, &stubChatter{}, reader, &stubPinger{})

	resp, err := http.Get(server.URL + "/api/clients")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var clients []models.Client
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&clients))
	require.Len(t, clients, 1)
	assert.Equal(t, "João Silva", clients[0].Name)

	resp, err = http.Get(server.URL + "/api/clients/1/cars")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, int64(1), reader.gotID)

	var cars []models.Car
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&cars))
	require.Len(t, cars, 1)
	assert.Equal(t, "Uno", cars[0].Model)
}

// ==========================
// Health and Middleware Tests
// ==========================

func TestHealth(t *testing.T) {
	t.Run("healthy", func(t *testing.T) {
		server := newTestServer(t, &stubChatter{}, &stubReader{}, &stubPinger{})

		resp, err := http.Get(server.URL + "/healthz")
		require.NoError(t, err)
		defer resp.Body.Close()

		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})

	t.Run("unhealthy", func(t *testing.T) {
		server := newTestServer(t, &stubChatter{}, &stubReader{}, &stubPinger{err: context.DeadlineExceeded})

		resp, err := http.Get(server.URL + "/healthz")
		require.NoError(t, err)
		defer resp.Body.Close()

		assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	})
}

func TestRequestID(t *testing.T) {
	t.Run("assigns one when absent", func(t *testing.T) {
		server := newTestServer(t, &stubChatter{}, &stubReader{}, &stubPinger{})

		resp, err := http.Get(server.URL + "/healthz")
		require.NoError(t, err)
		defer resp.Body.Close()

		assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))
	})

	t.Run("honors a caller-supplied id", func(t *testing.T) {
		server := newTestServer(t, &stubChatter{}, &stubReader{}, &stubPinger{})

		req, err := http.NewRequest(http.MethodGet, server.URL+"/healthz", nil)
		require.NoError(t, err)
		req.Header.Set("X-Request-ID", "abc-123")

		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		defer resp.Body.Close()

		assert.Equal(t, "abc-123", resp.Header.Get("X-Request-ID"))
	})
}

func TestMetricsEndpoint(t *testing.T) {
	server := newTestServer(t, &stubChatter{}, &stubReader{}, &stubPinger{})

	resp, err := http.Get(server.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
