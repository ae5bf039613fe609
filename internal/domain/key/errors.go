package key

import (
	"errors"
	"fmt"
)

var (
	ErrKeyNotFound             = errors.New("key not found")
	ErrVersionConflict         = errors.New("key was modified concurrently")
	ErrInvalidStatusTransition = errors.New("invalid key status transition")
	ErrNotOwner                = errors.New("requesting user does not own the key")
)

// ActivationReason classifies why an activation was refused.
type ActivationReason string

const (
	ReasonInvalidStatus       ActivationReason = "invalid_status"
	ReasonDeadlineExpired     ActivationReason = "deadline_expired"
	ReasonConflictingOwner    ActivationReason = "conflicting_owner"
	ReasonNoPanelAvailable    ActivationReason = "no_panel_available"
	ReasonProvisioningFailure ActivationReason = "provisioning_failure"
	ReasonPersistFailure      ActivationReason = "persist_failure"
)

// ActivationError is returned by every failed activation. No partial state is
// kept when it is returned.
type ActivationError struct {
	Reason ActivationReason
	KeyID  uint
	Err    error
}

func (e *ActivationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("key %d activation failed (%s): %v", e.KeyID, e.Reason, e.Err)
	}
	return fmt.Sprintf("key %d activation failed (%s)", e.KeyID, e.Reason)
}

func (e *ActivationError) Unwrap() error {
	return e.Err
}

func NewActivationError(reason ActivationReason, keyID uint, err error) *ActivationError {
	return &ActivationError{Reason: reason, KeyID: keyID, Err: err}
}

// ActivationReasonOf extracts the reason from err, or "" when err is not an ActivationError.
func ActivationReasonOf(err error) ActivationReason {
	var ae *ActivationError
	if errors.As(err, &ae) {
		return ae.Reason
	}
	return ""
}
