package mappers

import (
	"fmt"
	"time"

	"github.com/orris-inc/keyhub/internal/domain/pack"
	"github.com/orris-inc/keyhub/internal/infrastructure/persistence/models"
)

func PackToEntity(model *models.PackModel) (*pack.Pack, error) {
	if model == nil {
		return nil, nil
	}
	p, err := pack.ReconstructPack(model.ID, pack.PackParams{
		Name:             model.Name,
		Price:            model.Price,
		PeriodDays:       model.PeriodDays,
		TrafficLimit:     model.TrafficLimit,
		Count:            model.Count,
		ActivationWindow: time.Duration(model.ActivationWindow) * time.Second,
		ConnectionLimit:  model.ConnectionLimit,
		PanelType:        model.PanelType,
	}, model.CreatedAt, model.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to reconstruct pack entity: %w", err)
	}
	return p, nil
}

func PackToModel(p *pack.Pack) *models.PackModel {
	return &models.PackModel{
		ID:               p.ID(),
		Name:             p.Name(),
		Price:            p.Price(),
		PeriodDays:       p.PeriodDays(),
		TrafficLimit:     p.TrafficLimit(),
		Count:            p.Count(),
		ActivationWindow: int64(p.ActivationWindow() / time.Second),
		ConnectionLimit:  p.ConnectionLimit(),
		PanelType:        p.PanelType(),
		CreatedAt:        p.CreatedAt(),
		UpdatedAt:        p.UpdatedAt(),
	}
}

func BatchToEntity(model *models.PackBatchModel) (*pack.PackBatch, error) {
	if model == nil {
		return nil, nil
	}
	b, err := pack.ReconstructPackBatch(
		model.ID,
		model.PackID,
		model.ResellerID,
		model.ModuleID,
		pack.BatchStatus(model.Status),
		model.IssuedCount,
		model.PaidAt,
		model.ExpiresAt,
		model.Version,
		model.CreatedAt,
		model.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to reconstruct pack batch entity: %w", err)
	}
	return b, nil
}

func BatchToModel(b *pack.PackBatch) *models.PackBatchModel {
	return &models.PackBatchModel{
		ID:          b.ID(),
		PackID:      b.PackID(),
		ResellerID:  b.ResellerID(),
		ModuleID:    b.ModuleID(),
		Status:      b.Status().String(),
		IssuedCount: b.IssuedCount(),
		PaidAt:      b.PaidAt(),
		ExpiresAt:   b.ExpiresAt(),
		Version:     initialVersion(b.Version()),
		CreatedAt:   b.CreatedAt(),
		UpdatedAt:   b.UpdatedAt(),
	}
}
