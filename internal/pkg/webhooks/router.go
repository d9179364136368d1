package webhooks

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/donorops/donorops/app/models"
	"github.com/donorops/donorops/app/repository"
)

// Router dispatches one inbound webhook through a linear state machine:
//
//	received -> no_handler | invalid_signature | parse_error |
//	            processing_error | processed
//
// Every transition writes one audit log entry with the raw payload before
// the call returns. Nothing is retried here; the provider's own delivery
// retries are the recovery mechanism.
type Router struct {
	registry *Registry
	logs     repository.WebhookLogRepository
}

func NewRouter(registry *Registry, logs repository.WebhookLogRepository) *Router {
	return &Router{registry: registry, logs: logs}
}

// HeaderFunc resolves a request header by name.
type HeaderFunc func(name string) string

// Handle runs the state machine for one delivery and returns the processing
// result or a typed error (ErrNoHandler, ErrSignatureInvalid, ErrPayloadParse,
// ErrEventProcessing).
func (r *Router) Handle(ctx context.Context, processorType string, payload []byte, header HeaderFunc) (*Result, error) {
	r.log(processorType, payload, models.WebhookStatusReceived, "")

	h, ok := r.registry.Get(processorType)
	if !ok {
		r.log(processorType, payload, models.WebhookStatusNoHandler, "")
		return nil, fmt.Errorf("%w: %q", ErrNoHandler, processorType)
	}

	if !h.VerifySignature(payload, header(h.SignatureHeader())) {
		r.log(processorType, payload, models.WebhookStatusInvalidSig, "")
		return nil, ErrSignatureInvalid
	}

	event, err := h.ParsePayload(payload)
	if err != nil {
		r.log(processorType, payload, models.WebhookStatusParseError, err.Error())
		return nil, fmt.Errorf("%w: %w", ErrPayloadParse, err)
	}

	result, err := h.ProcessEvent(ctx, event)
	if err != nil {
		r.log(processorType, payload, models.WebhookStatusProcessingError, err.Error())
		return nil, fmt.Errorf("%w: %w", ErrEventProcessing, err)
	}

	details := ""
	if encoded, err := json.Marshal(result); err == nil {
		details = string(encoded)
	}
	r.log(processorType, payload, models.WebhookStatusProcessed, details)
	return result, nil
}

// log appends one audit entry. The write is part of the webhook contract; a
// failing log store is reported loudly but does not change the outcome of
// the delivery itself.
func (r *Router) log(processorType string, payload []byte, status, details string) {
	entry := &models.WebhookLog{
		ProcessorType: processorType,
		Payload:       string(payload),
		Status:        status,
		Details:       details,
	}
	if err := r.logs.Create(entry); err != nil {
		log.Printf("webhook log write failed (processor=%s status=%s): %v", processorType, status, err)
	}
}
