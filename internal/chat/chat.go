// Package chat wires the pipeline together: raw text or audio in, rendered
// reply out. It owns no domain logic of its own; it sequences the gateways,
// the router and the service layer and translates failures into the short
// user-facing messages the assistant answers with.
package chat

import (
	"context"

	"garage-assistant/internal/common/errors"
	"garage-assistant/internal/common/logger"
	"garage-assistant/internal/common/metrics"
	"garage-assistant/internal/format"
	"garage-assistant/internal/intent"
	"garage-assistant/internal/models"
)

const (
	msgNoServicesFound  = "No services found for that search."
	msgNoActiveServices = "There are no active services at the moment."
)

// Classifier is the classification gateway boundary.
type Classifier interface {
	Classify(ctx context.Context, message string) (*models.ClassifiedIntent, error)
}

// Transcriber is the transcription gateway boundary.
type Transcriber interface {
	Transcribe(ctx context.Context, audio []byte, mimeType string) (string, error)
}

// Services is the domain boundary used by the orchestrator.
type Services interface {
	Record(ctx context.Context, fields models.ServiceFields) (*models.ServiceReceipt, error)
	Search(ctx context.Context, fields models.ServiceFields) ([]models.ServiceDetail, error)
	ListActive(ctx context.Context) ([]models.ServiceDetail, error)
}

// Reply is the caller-facing outcome of one chat turn. Failures carry a
// user-facing message with Success false; the typed error taxonomy stays
// internal.
type Reply struct {
	Success    bool                   `json:"success"`
	Message    string                 `json:"message"`
	Intent     models.Intent          `json:"intent,omitempty"`
	Transcript string                 `json:"transcript,omitempty"`
	Client     *models.Client         `json:"client_data,omitempty"`
	Car        *models.Car            `json:"car_data,omitempty"`
	Service    *models.ServiceRecord  `json:"service_data,omitempty"`
	Records    []models.ServiceDetail `json:"service_records,omitempty"`
}

// Orchestrator drives a chat turn end to end. It never retries a failed
// stage; retry policy belongs to whoever calls it.
type Orchestrator struct {
	classifier  Classifier
	transcriber Transcriber
	services    Services
	cache       *ClassificationCache
	logger      logger.Logger
}

// NewOrchestrator builds the pipeline. cache may be nil to disable
// classification memoization.
func NewOrchestrator(classifier Classifier, transcriber Transcriber, services Services, cache *ClassificationCache, log logger.Logger) *Orchestrator {
	return &Orchestrator{
		classifier:  classifier,
		transcriber: transcriber,
		services:    services,
		cache:       cache,
		logger:      log.WithFields(map[string]interface{}{"component": "chat"}),
	}
}

// HandleText classifies a text message, routes it and executes the matched
// operation. Failures come back as a Reply with Success false.
func (o *Orchestrator) HandleText(ctx context.Context, message string) *Reply {
	classified, err := o.classify(ctx, message)
	if err != nil {
		return o.failure(err)
	}

	metrics.ClassificationsTotal.WithLabelValues(string(classified.Intent)).Inc()

	request, err := intent.Route(classified)
	if err != nil {
		return o.failure(err)
	}

	reply := o.execute(ctx, request)
	reply.Intent = classified.Intent
	return reply
}

// HandleAudio transcribes the audio and hands the transcript to HandleText.
// An empty transcript fails the same way an empty text message does.
func (o *Orchestrator) HandleAudio(ctx context.Context, audio []byte, mimeType string) *Reply {
	transcript, err := o.transcriber.Transcribe(ctx, audio, mimeType)
	if err != nil {
		return o.failure(err)
	}

	o.logger.Info("transcribed audio message", map[string]interface{}{
		"transcript_length": len(transcript),
	})

	reply := o.HandleText(ctx, transcript)
	reply.Transcript = transcript
	return reply
}

func (o *Orchestrator) classify(ctx context.Context, message string) (*models.ClassifiedIntent, error) {
	if o.cache != nil {
		if classified, ok := o.cache.Get(ctx, message); ok {
			return classified, nil
		}
	}

	classified, err := o.classifier.Classify(ctx, message)
	if err != nil {
		return nil, err
	}

	if o.cache != nil {
		o.cache.Set(ctx, message, classified)
	}
	return classified, nil
}

func (o *Orchestrator) execute(ctx context.Context, request models.Request) *Reply {
	switch req := request.(type) {
	case models.RecordRequest:
		receipt, err := o.services.Record(ctx, req.Fields)
		if err != nil {
			return o.failure(err)
		}
		return &Reply{
			Success: true,
			Message: format.Receipt(*receipt),
			Client:  &receipt.Client,
			Car:     &receipt.Car,
			Service: &receipt.Record,
		}

	case models.SearchRequest:
		details, err := o.services.Search(ctx, req.Fields)
		if err != nil {
			return o.failure(err)
		}
		return listReply(details, msgNoServicesFound)

	case models.ListActiveRequest:
		details, err := o.services.ListActive(ctx)
		if err != nil {
			return o.failure(err)
		}
		return listReply(details, msgNoActiveServices)

	default:
		return o.failure(errors.NewClassificationError("unroutable request type"))
	}
}

func listReply(details []models.ServiceDetail, emptyMessage string) *Reply {
	if len(details) == 0 {
		return &Reply{Success: true, Message: emptyMessage}
	}
	return &Reply{
		Success: true,
		Message: format.Services(details),
		Records: details,
	}
}

func (o *Orchestrator) failure(err error) *Reply {
	stage := string(errors.StageOf(err))
	if stage == "" {
		stage = "unknown"
	}
	code := string(errors.Code(err))
	if code == "" {
		code = "UNKNOWN"
	}
	metrics.PipelineFailures.WithLabelValues(stage, code).Inc()

	o.logger.WithError(err).Error("chat turn failed", map[string]interface{}{
		"stage":     stage,
		"code":      code,
		"retryable": errors.IsRetryable(err),
	})

	return &Reply{Success: false, Message: errors.UserMessage(err)}
}
