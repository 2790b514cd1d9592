// Package http exposes the chat pipeline and direct read paths over HTTP.
package http

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"garage-assistant/internal/chat"
	"garage-assistant/internal/common/errors"
	"garage-assistant/internal/common/logger"
	"garage-assistant/internal/models"
	"garage-assistant/internal/repository"
)

// 10 MiB is plenty for a voice note.
const maxAudioBytes = 10 << 20

// Chatter is the text/audio pipeline boundary.
type Chatter interface {
	HandleText(ctx context.Context, message string) *chat.Reply
	HandleAudio(ctx context.Context, audio []byte, mimeType string) *chat.Reply
}

// Reader is the subset of the store serving the direct read endpoints.
type Reader interface {
	QueryServiceRecords(ctx context.Context, filter repository.ServiceFilter) ([]models.ServiceDetail, error)
	GetServiceRecord(ctx context.Context, id int64) (*models.ServiceDetail, error)
	ListClients(ctx context.Context) ([]models.Client, error)
	ListCarsByClient(ctx context.Context, clientID int64) ([]models.Car, error)
}

// Pinger reports storage liveness for the health endpoint.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Handler struct {
	chatter Chatter
	reader  Reader
	pinger  Pinger
	logger  logger.Logger
}

func NewHandler(chatter Chatter, reader Reader, pinger Pinger, log logger.Logger) *Handler {
	return &Handler{
		chatter: chatter,
		reader:  reader,
		pinger:  pinger,
		logger:  log.WithFields(map[string]interface{}{"component": "http"}),
	}
}

type chatRequest struct {
	Message string `json:"message"`
}

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// Chat runs one text turn. Pipeline failures still answer 200 with
// success=false; only a malformed request body is an HTTP-level error.
func (h *Handler) Chat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{
			Error:   "bad_request",
			Message: "request body must be JSON with a \"message\" field",
		})
		return
	}

	reply := h.chatter.HandleText(r.Context(), req.Message)
	writeJSON(w, http.StatusOK, reply)
}

// ChatAudio accepts a multipart form with an "audio" file part and an
// optional "mime_type" field, falling back to the part's own content type.
func (h *Handler) ChatAudio(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxAudioBytes); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{
			Error:   "bad_request",
			Message: "request must be multipart form data with an \"audio\" file",
		})
		return
	}

	file, header, err := r.FormFile("audio")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{
			Error:   "bad_request",
			Message: "missing \"audio\" file part",
		})
		return
	}
	defer func() { _ = file.Close() }()

	audio, err := io.ReadAll(io.LimitReader(file, maxAudioBytes))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{
			Error:   "bad_request",
			Message: "could not read audio payload",
		})
		return
	}

	mimeType := r.FormValue("mime_type")
	if mimeType == "" && header != nil {
		mimeType = header.Header.Get("Content-Type")
	}

	reply := h.chatter.HandleAudio(r.Context(), audio, mimeType)
	writeJSON(w, http.StatusOK, reply)
}

// ListServices is the typed search path: filters come from query params.
func (h *Handler) ListServices(w http.ResponseWriter, r *http.Request) {
	filter := repository.ServiceFilter{
		ClientName:  strings.TrimSpace(r.URL.Query().Get("client_name")),
		CarBrand:    strings.TrimSpace(r.URL.Query().Get("car_brand")),
		CarModel:    strings.TrimSpace(r.URL.Query().Get("car_model")),
		Description: strings.TrimSpace(r.URL.Query().Get("description")),
	}
	if status := strings.TrimSpace(strings.ToLower(r.URL.Query().Get("status"))); status != "" {
		switch models.ServiceStatus(status) {
		case models.StatusActive, models.StatusClosed:
			filter.Status = models.ServiceStatus(status)
		default:
			writeJSON(w, http.StatusBadRequest, errorResponse{
				Error:   "bad_request",
				Message: "status must be \"active\" or \"closed\"",
			})
			return
		}
	}

	details, err := h.reader.QueryServiceRecords(r.Context(), filter)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if details == nil {
		details = []models.ServiceDetail{}
	}
	writeJSON(w, http.StatusOK, details)
}

// ListActiveServices returns every record still marked active.
func (h *Handler) ListActiveServices(w http.ResponseWriter, r *http.Request) {
	details, err := h.reader.QueryServiceRecords(r.Context(), repository.ServiceFilter{Status: models.StatusActive})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if details == nil {
		details = []models.ServiceDetail{}
	}
	writeJSON(w, http.StatusOK, details)
}

func (h *Handler) GetService(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{
			Error:   "bad_request",
			Message: "service id must be an integer",
		})
		return
	}

	detail, err := h.reader.GetServiceRecord(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if detail == nil {
		writeJSON(w, http.StatusNotFound, errorResponse{
			Error:   "not_found",
			Message: "no service record with that id",
		})
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

func (h *Handler) ListClients(w http.ResponseWriter, r *http.Request) {
	clients, err := h.reader.ListClients(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if clients == nil {
		clients = []models.Client{}
	}
	writeJSON(w, http.StatusOK, clients)
}

func (h *Handler) ListClientCars(w http.ResponseWriter, r *http.Request) {
	clientID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{
			Error:   "bad_request",
			Message: "client id must be an integer",
		})
		return
	}

	cars, err := h.reader.ListCarsByClient(r.Context(), clientID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if cars == nil {
		cars = []models.Car{}
	}
	writeJSON(w, http.StatusOK, cars)
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	if err := h.pinger.Ping(r.Context()); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status": "unhealthy",
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	h.logger.WithError(err).Error("request failed", map[string]interface{}{
		"request_id": RequestIDFrom(r.Context()),
		"path":       r.URL.Path,
	})

	status := http.StatusInternalServerError
	if errors.IsValidation(err) {
		status = http.StatusBadRequest
	}
	writeJSON(w, status, errorResponse{
		Error:   strings.ToLower(string(errors.Code(err))),
		Message: errors.UserMessage(err),
	})
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
