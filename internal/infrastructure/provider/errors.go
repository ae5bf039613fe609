package provider

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorKind classifies a provider failure for callers and metrics.
type ErrorKind string

const (
	KindAPIUnreachable          ErrorKind = "api_unreachable"
	KindInvalidProviderResponse ErrorKind = "invalid_provider_response"
	KindDNSConflict             ErrorKind = "dns_conflict"
)

// ProvisioningError is returned by every provider strategy. It marks the
// owning server or panel as Error; the layer itself never retries.
type ProvisioningError struct {
	Kind       ErrorKind
	Op         string
	Provider   string
	StatusCode int
	Err        error
}

func (e *ProvisioningError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s %s: %s (HTTP %d): %v", e.Provider, e.Op, e.Kind, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s %s: %s: %v", e.Provider, e.Op, e.Kind, e.Err)
}

func (e *ProvisioningError) Unwrap() error {
	return e.Err
}

func newError(kind ErrorKind, providerName, op string, status int, err error) *ProvisioningError {
	return &ProvisioningError{Kind: kind, Op: op, Provider: providerName, StatusCode: status, Err: err}
}

func Unreachable(providerName, op string, err error) *ProvisioningError {
	return newError(KindAPIUnreachable, providerName, op, 0, err)
}

func InvalidResponse(providerName, op string, status int, err error) *ProvisioningError {
	return newError(KindInvalidProviderResponse, providerName, op, status, err)
}

// fromStatus classifies a failed vendor SDK call by the HTTP status it got
// back. Zero means no answer arrived.
func fromStatus(providerName, op string, status int, err error) *ProvisioningError {
	if status == 0 || status >= http.StatusInternalServerError {
		return newError(KindAPIUnreachable, providerName, op, status, err)
	}
	return InvalidResponse(providerName, op, status, err)
}

func DNSConflict(providerName, op string, err error) *ProvisioningError {
	return newError(KindDNSConflict, providerName, op, 0, err)
}

// KindOf returns the kind of a ProvisioningError in err's chain, or "".
func KindOf(err error) ErrorKind {
	var pe *ProvisioningError
	if errors.As(err, &pe) {
		return pe.Kind
	}
	return ""
}

func AsProvisioningError(err error) (*ProvisioningError, bool) {
	var pe *ProvisioningError
	ok := errors.As(err, &pe)
	return pe, ok
}

// IsNotFound reports whether the vendor answered 404.
func IsNotFound(err error) bool {
	var pe *ProvisioningError
	return errors.As(err, &pe) && pe.StatusCode == http.StatusNotFound
}
