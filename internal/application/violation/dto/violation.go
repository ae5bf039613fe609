package dto

import (
	"time"

	"github.com/orris-inc/keyhub/internal/domain/violation"
)

type ViolationDTO struct {
	ID                      uint       `json:"id"`
	KeyID                   uint       `json:"key_id"`
	ServerUserID            uint       `json:"server_user_id"`
	PanelID                 uint       `json:"panel_id"`
	AllowedConnections      int        `json:"allowed_connections"`
	ActualConnections       int        `json:"actual_connections"`
	ObservedIPs             []string   `json:"observed_ips"`
	ViolationCount          int        `json:"violation_count"`
	Status                  string     `json:"status"`
	NotificationsSent       int        `json:"notifications_sent"`
	LastNotificationOutcome string     `json:"last_notification_outcome,omitempty"`
	NotificationRetryCount  int        `json:"notification_retry_count"`
	NotificationStep        string     `json:"notification_step,omitempty"`
	KeyReplacedAt           *time.Time `json:"key_replaced_at,omitempty"`
	ReplacementKeyID        *uint      `json:"replacement_key_id,omitempty"`
	FirstDetectedAt         time.Time  `json:"first_detected_at"`
	LastDetectedAt          time.Time  `json:"last_detected_at"`
}

// RecordResultDTO reports what one detection did.
type RecordResultDTO struct {
	Violation          *ViolationDTO `json:"violation,omitempty"`
	Step               string        `json:"step,omitempty"`
	Outcome            string        `json:"outcome,omitempty"`
	ReplacementKeyCode string        `json:"replacement_key_code,omitempty"`
	Skipped            string        `json:"skipped,omitempty"`
}

func ToViolationDTO(v *violation.Violation) *ViolationDTO {
	if v == nil {
		return nil
	}
	ips := v.ObservedIPs()
	if ips == nil {
		ips = []string{}
	}
	return &ViolationDTO{
		ID:                      v.ID(),
		KeyID:                   v.KeyID(),
		ServerUserID:            v.ServerUserID(),
		PanelID:                 v.PanelID(),
		AllowedConnections:      v.AllowedConnections(),
		ActualConnections:       v.ActualConnections(),
		ObservedIPs:             ips,
		ViolationCount:          v.ViolationCount(),
		Status:                  string(v.Status()),
		NotificationsSent:       v.NotificationsSent(),
		LastNotificationOutcome: string(v.LastNotificationOutcome()),
		NotificationRetryCount:  v.NotificationRetryCount(),
		NotificationStep:        string(v.NotificationStep()),
		KeyReplacedAt:           v.KeyReplacedAt(),
		ReplacementKeyID:        v.ReplacementKeyID(),
		FirstDetectedAt:         v.FirstDetectedAt(),
		LastDetectedAt:          v.LastDetectedAt(),
	}
}

// ToRecordResultDTO flattens a use case result. replacementCode is empty
// unless the detection replaced the key.
func ToRecordResultDTO(v *violation.Violation, step, outcome, replacementCode, skipped string) *RecordResultDTO {
	return &RecordResultDTO{
		Violation:          ToViolationDTO(v),
		Step:               step,
		Outcome:            outcome,
		ReplacementKeyCode: replacementCode,
		Skipped:            skipped,
	}
}
