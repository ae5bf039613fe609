package mappers

import (
	"fmt"

	"github.com/orris-inc/keyhub/internal/domain/key"
	"github.com/orris-inc/keyhub/internal/infrastructure/persistence/models"
)

// KeyMapper handles the conversion between key entities and persistence models.
type KeyMapper interface {
	ToEntity(model *models.KeyModel) (*key.Key, error)
	ToModel(entity *key.Key) *models.KeyModel
	ToEntities(models []*models.KeyModel) ([]*key.Key, error)
}

type KeyMapperImpl struct{}

func NewKeyMapper() KeyMapper {
	return &KeyMapperImpl{}
}

func (m *KeyMapperImpl) ToEntity(model *models.KeyModel) (*key.Key, error) {
	if model == nil {
		return nil, nil
	}

	entity, err := key.ReconstructKey(
		model.ID,
		model.Code,
		key.Template{
			BatchID:         model.BatchID,
			TrafficLimit:    model.TrafficLimit,
			PeriodDays:      model.PeriodDays,
			ConnectionLimit: model.ConnectionLimit,
			PanelType:       model.PanelType,
		},
		model.FinishAt,
		model.ActivationDeadline,
		model.OwnerUserID,
		key.Status(model.Status),
		model.ServerUserID,
		model.ReplacesKeyID,
		model.ActivatedAt,
		model.ExpiredAt,
		model.Version,
		model.CreatedAt,
		model.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to reconstruct key entity: %w", err)
	}
	return entity, nil
}

func (m *KeyMapperImpl) ToModel(entity *key.Key) *models.KeyModel {
	if entity == nil {
		return nil
	}
	return &models.KeyModel{
		ID:                 entity.ID(),
		Code:               entity.Code(),
		BatchID:            entity.BatchID(),
		TrafficLimit:       entity.TrafficLimit(),
		PeriodDays:         entity.PeriodDays(),
		ConnectionLimit:    entity.ConnectionLimit(),
		PanelType:          entity.PanelType(),
		FinishAt:           entity.FinishAt(),
		ActivationDeadline: entity.ActivationDeadline(),
		OwnerUserID:        entity.OwnerUserID(),
		Status:             entity.Status().String(),
		ServerUserID:       entity.ServerUserID(),
		ReplacesKeyID:      entity.ReplacesKeyID(),
		ActivatedAt:        entity.ActivatedAt(),
		ExpiredAt:          entity.ExpiredAt(),
		Version:            initialVersion(entity.Version()),
		CreatedAt:          entity.CreatedAt(),
		UpdatedAt:          entity.UpdatedAt(),
	}
}

func (m *KeyMapperImpl) ToEntities(list []*models.KeyModel) ([]*key.Key, error) {
	out := make([]*key.Key, 0, len(list))
	for _, model := range list {
		entity, err := m.ToEntity(model)
		if err != nil {
			return nil, err
		}
		out = append(out, entity)
	}
	return out, nil
}
