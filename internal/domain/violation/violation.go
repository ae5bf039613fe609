package violation

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/orris-inc/keyhub/internal/domain/notification"
)

var (
	ErrViolationNotFound       = errors.New("violation not found")
	ErrVersionConflict         = errors.New("violation was modified concurrently")
	ErrInvalidStatusTransition = errors.New("invalid violation status transition")
)

type Status string

const (
	StatusActive   Status = "active"
	StatusResolved Status = "resolved"
	StatusIgnored  Status = "ignored"
)

func (s Status) IsValid() bool {
	return s == StatusActive || s == StatusResolved || s == StatusIgnored
}

// Detection is one observation of a key used from more addresses than allowed.
type Detection struct {
	KeyID        uint
	ServerUserID uint
	PanelID      uint
	Allowed      int
	Actual       int
	IPs          []string
}

// Exceeded reports whether the detection is an actual violation.
func (d Detection) Exceeded() bool {
	return d.Actual > d.Allowed
}

// Violation tracks connection-limit abuse of one key on one panel account.
type Violation struct {
	id                      uint
	keyID                   uint
	serverUserID            uint
	panelID                 uint
	allowedConnections      int
	actualConnections       int
	observedIPs             []string
	violationCount          int
	status                  Status
	notificationsSent       int
	lastNotificationOutcome notification.Outcome
	notificationRetryCount  int
	notificationStep        Step
	notificationPartsSent   int
	keyReplacedAt           *time.Time
	replacementKeyID        *uint
	firstDetectedAt         time.Time
	lastDetectedAt          time.Time
	version                 int
	createdAt               time.Time
	updatedAt               time.Time
}

// NewViolation opens a violation with a zero count; the repository increments
// the count atomically for every detection, including the first one.
func NewViolation(d Detection, now time.Time) (*Violation, error) {
	if d.KeyID == 0 || d.ServerUserID == 0 || d.PanelID == 0 {
		return nil, fmt.Errorf("detection must reference a key, server user and panel")
	}
	return &Violation{
		keyID:              d.KeyID,
		serverUserID:       d.ServerUserID,
		panelID:            d.PanelID,
		allowedConnections: d.Allowed,
		actualConnections:  d.Actual,
		observedIPs:        NormalizeIPs(d.IPs),
		status:             StatusActive,
		firstDetectedAt:    now,
		lastDetectedAt:     now,
		createdAt:          now,
		updatedAt:          now,
	}, nil
}

type ViolationState struct {
	ID                      uint
	KeyID                   uint
	ServerUserID            uint
	PanelID                 uint
	AllowedConnections      int
	ActualConnections       int
	ObservedIPs             []string
	ViolationCount          int
	Status                  Status
	NotificationsSent       int
	LastNotificationOutcome notification.Outcome
	NotificationRetryCount  int
	NotificationStep        Step
	NotificationPartsSent   int
	KeyReplacedAt           *time.Time
	ReplacementKeyID        *uint
	FirstDetectedAt         time.Time
	LastDetectedAt          time.Time
	Version                 int
	CreatedAt               time.Time
	UpdatedAt               time.Time
}

func ReconstructViolation(s ViolationState) (*Violation, error) {
	if s.ID == 0 {
		return nil, fmt.Errorf("violation ID cannot be zero")
	}
	if !s.Status.IsValid() {
		return nil, fmt.Errorf("invalid violation status: %s", s.Status)
	}
	return &Violation{
		id:                      s.ID,
		keyID:                   s.KeyID,
		serverUserID:            s.ServerUserID,
		panelID:                 s.PanelID,
		allowedConnections:      s.AllowedConnections,
		actualConnections:       s.ActualConnections,
		observedIPs:             s.ObservedIPs,
		violationCount:          s.ViolationCount,
		status:                  s.Status,
		notificationsSent:       s.NotificationsSent,
		lastNotificationOutcome: s.LastNotificationOutcome,
		notificationRetryCount:  s.NotificationRetryCount,
		notificationStep:        s.NotificationStep,
		notificationPartsSent:   s.NotificationPartsSent,
		keyReplacedAt:           s.KeyReplacedAt,
		replacementKeyID:        s.ReplacementKeyID,
		firstDetectedAt:         s.FirstDetectedAt,
		lastDetectedAt:          s.LastDetectedAt,
		version:                 s.Version,
		createdAt:               s.CreatedAt,
		updatedAt:               s.UpdatedAt,
	}, nil
}

func (v *Violation) ID() uint                                      { return v.id }
func (v *Violation) KeyID() uint                                   { return v.keyID }
func (v *Violation) ServerUserID() uint                            { return v.serverUserID }
func (v *Violation) PanelID() uint                                 { return v.panelID }
func (v *Violation) AllowedConnections() int                       { return v.allowedConnections }
func (v *Violation) ActualConnections() int                        { return v.actualConnections }
func (v *Violation) ObservedIPs() []string                         { return v.observedIPs }
func (v *Violation) ViolationCount() int                           { return v.violationCount }
func (v *Violation) Status() Status                                { return v.status }
func (v *Violation) NotificationsSent() int                        { return v.notificationsSent }
func (v *Violation) LastNotificationOutcome() notification.Outcome { return v.lastNotificationOutcome }
func (v *Violation) NotificationRetryCount() int                   { return v.notificationRetryCount }
func (v *Violation) NotificationStep() Step                        { return v.notificationStep }
func (v *Violation) NotificationPartsSent() int                    { return v.notificationPartsSent }
func (v *Violation) KeyReplacedAt() *time.Time                     { return v.keyReplacedAt }
func (v *Violation) ReplacementKeyID() *uint                       { return v.replacementKeyID }
func (v *Violation) FirstDetectedAt() time.Time                    { return v.firstDetectedAt }
func (v *Violation) LastDetectedAt() time.Time                     { return v.lastDetectedAt }
func (v *Violation) Version() int                                  { return v.version }
func (v *Violation) CreatedAt() time.Time                          { return v.createdAt }
func (v *Violation) UpdatedAt() time.Time                          { return v.updatedAt }

func (v *Violation) SetID(id uint)    { v.id = id }
func (v *Violation) SetVersion(n int) { v.version = n }

func (v *Violation) IsActive() bool {
	return v.status == StatusActive
}

// IsReplacementClaimed is true once a replacement has been started or finished.
func (v *Violation) IsReplacementClaimed() bool {
	return v.keyReplacedAt != nil
}

// RecordNotification updates delivery bookkeeping for a message of the given step.
func (v *Violation) RecordNotification(step Step, outcome notification.Outcome, now time.Time) {
	switch {
	case outcome.CountsAsSent():
		v.notificationsSent++
	case outcome.IsRetryable():
		v.notificationRetryCount++
	}
	v.lastNotificationOutcome = outcome
	v.notificationStep = step
	v.notificationPartsSent = 0
	v.updatedAt = now
}

// RecordDelivery is RecordNotification for a message that may have gone out
// in parts. After a transient failure it remembers how many parts arrived.
func (v *Violation) RecordDelivery(step Step, d notification.Delivery, now time.Time) {
	v.RecordNotification(step, d.Outcome, now)
	if d.Outcome.IsRetryable() {
		v.notificationPartsSent = d.PartsSent
	}
}

// DeliveredParts is how many parts of the message for step already reached
// the recipient, so a resend can continue after them.
func (v *Violation) DeliveredParts(step Step) int {
	if step != v.notificationStep || !v.lastNotificationOutcome.IsRetryable() {
		return 0
	}
	return v.notificationPartsSent
}

// NeedsRetry reports whether the last message failed transiently and may be resent.
func (v *Violation) NeedsRetry(maxRetries int) bool {
	if v.status == StatusIgnored || v.notificationStep == "" {
		return false
	}
	return v.lastNotificationOutcome.IsRetryable() && v.notificationRetryCount < maxRetries
}

// Resolve closes the violation after the key was replaced.
func (v *Violation) Resolve(replacementKeyID uint, now time.Time) error {
	if v.status != StatusActive {
		return fmt.Errorf("%w: %s to %s", ErrInvalidStatusTransition, v.status, StatusResolved)
	}
	id := replacementKeyID
	v.replacementKeyID = &id
	if v.keyReplacedAt == nil {
		v.keyReplacedAt = &now
	}
	v.status = StatusResolved
	v.updatedAt = now
	return nil
}

// Ignore stops escalation; later detections only refresh the observation.
func (v *Violation) Ignore(now time.Time) error {
	if v.status != StatusActive {
		return fmt.Errorf("%w: %s to %s", ErrInvalidStatusTransition, v.status, StatusIgnored)
	}
	v.status = StatusIgnored
	v.updatedAt = now
	return nil
}

// NormalizeIPs deduplicates and sorts addresses so the stored set is stable.
func NormalizeIPs(ips []string) []string {
	seen := make(map[string]struct{}, len(ips))
	out := make([]string, 0, len(ips))
	for _, ip := range ips {
		if ip == "" {
			continue
		}
		if _, ok := seen[ip]; ok {
			continue
		}
		seen[ip] = struct{}{}
		out = append(out, ip)
	}
	sort.Strings(out)
	return out
}
