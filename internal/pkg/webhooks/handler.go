package webhooks

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	// ErrNoHandler is returned for processor types with no registered handler.
	ErrNoHandler = errors.New("no webhook handler registered for processor")

	// ErrSignatureInvalid is returned when payload signature verification fails.
	ErrSignatureInvalid = errors.New("webhook signature verification failed")

	// ErrPayloadParse wraps handler parse failures.
	ErrPayloadParse = errors.New("webhook payload could not be parsed")

	// ErrEventProcessing wraps handler processing failures.
	ErrEventProcessing = errors.New("webhook event processing failed")
)

// Event is the provider-agnostic shape a handler extracts from a raw webhook
// payload.
type Event struct {
	ProcessorType string          `json:"processor_type"`
	EventID       string          `json:"event_id"`
	EventType     string          `json:"event_type"`
	TransactionID string          `json:"transaction_id"`
	Amount        decimal.Decimal `json:"amount"`
	Currency      string          `json:"currency"`
	Status        string          `json:"status"`
	Raw           json.RawMessage `json:"-"`
}

// Result describes what processing an event did.
type Result struct {
	Action        string `json:"action"`
	TransactionID string `json:"transaction_id,omitempty"`
	Duplicate     bool   `json:"duplicate,omitempty"`
}

// Handler is the capability contract every webhook handler satisfies. Each
// handler declares its own signature header name so the router carries no
// per-processor knowledge.
//
// ProcessEvent must be idempotent: upstream delivery is at-least-once, and
// the router does not suppress duplicates.
type Handler interface {
	SignatureHeader() string
	VerifySignature(payload []byte, signature string) bool
	ParsePayload(payload []byte) (*Event, error)
	ProcessEvent(ctx context.Context, event *Event) (*Result, error)
}

// Registry maps processor type keys to webhook handlers. Populated once at
// startup, read-only afterwards.
type Registry struct {
	handlers map[string]Handler
}

func NewRegistry() *Registry {
	return &Registry{handlers: make(map[string]Handler)}
}

// Register installs a handler for a processor type. Incomplete handlers are
// rejected as configuration errors rather than failing at delivery time.
func (r *Registry) Register(processorType string, h Handler) error {
	key := strings.ToLower(strings.TrimSpace(processorType))
	if key == "" {
		return errors.New("webhook handler registration requires a processor type")
	}
	if h == nil {
		return fmt.Errorf("webhook handler for %q is nil", key)
	}
	if strings.TrimSpace(h.SignatureHeader()) == "" {
		return fmt.Errorf("webhook handler for %q declares no signature header", key)
	}
	r.handlers[key] = h
	return nil
}

// Get returns the handler for a processor type.
func (r *Registry) Get(processorType string) (Handler, bool) {
	h, ok := r.handlers[strings.ToLower(strings.TrimSpace(processorType))]
	return h, ok
}

// Types returns the registered processor types in stable order, used to
// install the per-processor convenience routes.
func (r *Registry) Types() []string {
	types := make([]string, 0, len(r.handlers))
	for t := range r.handlers {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}
