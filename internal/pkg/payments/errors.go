package payments

import "errors"

var (
	// ErrProcessorNotFound is returned when the referenced processor row does not exist.
	ErrProcessorNotFound = errors.New("payment processor not found")

	// ErrAdapterNotFound is returned when no adapter is registered for the
	// processor type or its credentials are missing or unusable.
	ErrAdapterNotFound = errors.New("no payment adapter available for processor")

	// ErrStorageAfterCharge marks the one failure mode that must never be
	// confused with a failed charge: the external charge went through but the
	// ledger write did not. Retrying the payment would double-charge.
	ErrStorageAfterCharge = errors.New("charge succeeded but transaction could not be recorded")
)
