package payments

import (
	"fmt"
)

// CredentialSource resolves the decrypted credential fields for a processor.
// Implemented by the credentials store; tests substitute fakes.
type CredentialSource interface {
	GetProcessorConfig(processorID uint) (map[string]string, error)
}

// AdapterFactory builds a configured adapter from decrypted credentials.
// Factories must fail soft: a bad configuration is an error, never a panic.
type AdapterFactory func(creds map[string]string) (PaymentAdapter, error)

// AdapterRegistry maps processor type keys to adapter factories. It is
// populated once at startup and read-only afterwards, so no locking is
// needed per request.
type AdapterRegistry struct {
	factories   map[string]AdapterFactory
	credentials CredentialSource
}

func NewAdapterRegistry(credentials CredentialSource) *AdapterRegistry {
	return &AdapterRegistry{
		factories:   make(map[string]AdapterFactory),
		credentials: credentials,
	}
}

// Register installs a factory for a processor type. Re-registration
// overwrites the previous factory.
func (r *AdapterRegistry) Register(processorType string, factory AdapterFactory) {
	if processorType == "" || factory == nil {
		return
	}
	r.factories[processorType] = factory
}

// Has reports whether a factory is registered for the processor type.
func (r *AdapterRegistry) Has(processorType string) bool {
	_, ok := r.factories[processorType]
	return ok
}

// Resolve builds a configured adapter for the processor. Unknown types,
// missing credentials, and factory failures all come back as
// ErrAdapterNotFound so the manager surfaces one stable error kind.
func (r *AdapterRegistry) Resolve(processorType string, processorID uint) (PaymentAdapter, error) {
	factory, ok := r.factories[processorType]
	if !ok {
		return nil, fmt.Errorf("%w: unknown processor type %q", ErrAdapterNotFound, processorType)
	}

	creds, err := r.credentials.GetProcessorConfig(processorID)
	if err != nil {
		return nil, fmt.Errorf("%w: loading credentials for processor %d: %v", ErrAdapterNotFound, processorID, err)
	}
	if len(creds) == 0 {
		return nil, fmt.Errorf("%w: processor %d has no credentials configured", ErrAdapterNotFound, processorID)
	}

	adapter, err := factory(creds)
	if err != nil {
		return nil, fmt.Errorf("%w: configuring %s adapter: %v", ErrAdapterNotFound, processorType, err)
	}
	return adapter, nil
}
