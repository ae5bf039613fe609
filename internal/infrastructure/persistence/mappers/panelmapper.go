package mappers

import (
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/datatypes"

	"github.com/orris-inc/keyhub/internal/domain/panel"
	"github.com/orris-inc/keyhub/internal/infrastructure/persistence/models"
)

func PanelToEntity(model *models.PanelModel) (*panel.Panel, error) {
	if model == nil {
		return nil, nil
	}
	p, err := panel.ReconstructPanel(panel.PanelState{
		ID:             model.ID,
		ServerID:       model.ServerID,
		Type:           panel.Type(model.Type),
		APIURL:         model.APIURL,
		Username:       model.Username,
		Password:       model.Password,
		Token:          model.Token,
		TokenExpiresAt: model.TokenExpiresAt,
		Status:         panel.Status(model.Status),
		ErrorMessage:   model.ErrorMessage,
		CreatedAt:      model.CreatedAt,
		UpdatedAt:      model.UpdatedAt,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to reconstruct panel entity: %w", err)
	}
	return p, nil
}

func PanelToModel(p *panel.Panel) *models.PanelModel {
	return &models.PanelModel{
		ID:             p.ID(),
		ServerID:       p.ServerID(),
		Type:           p.Type().String(),
		APIURL:         p.APIURL(),
		Username:       p.Username(),
		Password:       p.Password(),
		Token:          p.Token(),
		TokenExpiresAt: p.TokenExpiresAt(),
		Status:         string(p.Status()),
		ErrorMessage:   p.ErrorMessage(),
		CreatedAt:      p.CreatedAt(),
		UpdatedAt:      p.UpdatedAt(),
	}
}

func ServerUserToEntity(model *models.ServerUserModel) (*panel.ServerUser, error) {
	if model == nil {
		return nil, nil
	}
	creds := panel.Credentials{}
	if len(model.Credentials) > 0 {
		if err := json.Unmarshal(model.Credentials, &creds); err != nil {
			return nil, fmt.Errorf("failed to unmarshal server user credentials: %w", err)
		}
	}
	var deletedAt *time.Time
	if model.DeletedAt.Valid {
		t := model.DeletedAt.Time
		deletedAt = &t
	}
	u := panel.ReconstructServerUser(
		model.ID,
		model.PanelID,
		model.KeyID,
		model.Username,
		model.SubscriptionURL,
		creds,
		model.TrafficLimit,
		model.ExpireAt,
		model.CreatedAt,
		deletedAt,
	)
	return u, nil
}

func ServerUserToModel(u *panel.ServerUser) (*models.ServerUserModel, error) {
	raw, err := json.Marshal(u.Credentials())
	if err != nil {
		return nil, fmt.Errorf("failed to marshal server user credentials: %w", err)
	}
	return &models.ServerUserModel{
		ID:              u.ID(),
		PanelID:         u.PanelID(),
		KeyID:           u.KeyID(),
		Username:        u.Username(),
		SubscriptionURL: u.SubscriptionURL(),
		Credentials:     datatypes.JSON(raw),
		TrafficLimit:    u.TrafficLimit(),
		ExpireAt:        u.ExpireAt(),
		CreatedAt:       u.CreatedAt(),
	}, nil
}
