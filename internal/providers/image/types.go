package image

import (
	"context"
	"errors"
)

// Generator is the contract implemented by all image providers. Adapters are
// stateless request/response cycles and safe for concurrent use; they return
// raw image bytes and leave transfer encoding to the caller.
type Generator interface {
	Generate(ctx context.Context, prompt string, seed int) ([]byte, error)
}

// ErrorKind classifies provider failures for the fallback policy and for the
// user-facing messages the orchestrator surfaces verbatim.
type ErrorKind string

const (
	KindRateLimited      ErrorKind = "rate_limited"
	KindUnavailable      ErrorKind = "unavailable"
	KindUnexpectedStatus ErrorKind = "unexpected_status"
	KindTimeout          ErrorKind = "timeout"
	KindNetwork          ErrorKind = "network"
	KindProtocol         ErrorKind = "protocol"
)

// ProviderError is a typed adapter failure. Message is user-presentable.
type ProviderError struct {
	Provider string
	Kind     ErrorKind
	Message  string
}

func (e *ProviderError) Error() string {
	return e.Message
}

// KindOf extracts the failure kind from an error chain, or "" for errors that
// did not originate in an adapter.
func KindOf(err error) ErrorKind {
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe.Kind
	}
	return ""
}
