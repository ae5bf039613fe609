package mappers

import (
	"encoding/json"
	"fmt"

	"gorm.io/datatypes"

	"github.com/orris-inc/keyhub/internal/domain/notification"
	"github.com/orris-inc/keyhub/internal/domain/violation"
	"github.com/orris-inc/keyhub/internal/infrastructure/persistence/models"
)

func ViolationToEntity(model *models.ViolationModel) (*violation.Violation, error) {
	if model == nil {
		return nil, nil
	}
	var ips []string
	if len(model.ObservedIPs) > 0 {
		if err := json.Unmarshal(model.ObservedIPs, &ips); err != nil {
			return nil, fmt.Errorf("failed to unmarshal observed_ips: %w", err)
		}
	}
	v, err := violation.ReconstructViolation(violation.ViolationState{
		ID:                      model.ID,
		KeyID:                   model.KeyID,
		ServerUserID:            model.ServerUserID,
		PanelID:                 model.PanelID,
		AllowedConnections:      model.AllowedConnections,
		ActualConnections:       model.ActualConnections,
		ObservedIPs:             ips,
		ViolationCount:          model.ViolationCount,
		Status:                  violation.Status(model.Status),
		NotificationsSent:       model.NotificationsSent,
		LastNotificationOutcome: notification.Outcome(model.LastNotificationOutcome),
		NotificationRetryCount:  model.NotificationRetryCount,
		NotificationStep:        violation.Step(model.NotificationStep),
		NotificationPartsSent:   model.NotificationPartsSent,
		KeyReplacedAt:           model.KeyReplacedAt,
		ReplacementKeyID:        model.ReplacementKeyID,
		FirstDetectedAt:         model.FirstDetectedAt,
		LastDetectedAt:          model.LastDetectedAt,
		Version:                 model.Version,
		CreatedAt:               model.CreatedAt,
		UpdatedAt:               model.UpdatedAt,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to reconstruct violation entity: %w", err)
	}
	return v, nil
}

func ViolationToModel(v *violation.Violation) (*models.ViolationModel, error) {
	ips, err := IPsToJSON(v.ObservedIPs())
	if err != nil {
		return nil, err
	}
	return &models.ViolationModel{
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
		LastNotificationOutcome: v.LastNotificationOutcome().String(),
		NotificationRetryCount:  v.NotificationRetryCount(),
		NotificationStep:        string(v.NotificationStep()),
		NotificationPartsSent:   v.NotificationPartsSent(),
		KeyReplacedAt:           v.KeyReplacedAt(),
		ReplacementKeyID:        v.ReplacementKeyID(),
		FirstDetectedAt:         v.FirstDetectedAt(),
		LastDetectedAt:          v.LastDetectedAt(),
		Version:                 initialVersion(v.Version()),
		CreatedAt:               v.CreatedAt(),
		UpdatedAt:               v.UpdatedAt(),
	}, nil
}

func IPsToJSON(ips []string) (datatypes.JSON, error) {
	if ips == nil {
		ips = []string{}
	}
	raw, err := json.Marshal(ips)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal observed_ips: %w", err)
	}
	return datatypes.JSON(raw), nil
}
