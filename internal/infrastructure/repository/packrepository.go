package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/orris-inc/keyhub/internal/domain/pack"
	"github.com/orris-inc/keyhub/internal/infrastructure/persistence/mappers"
	"github.com/orris-inc/keyhub/internal/infrastructure/persistence/models"
	"github.com/orris-inc/keyhub/internal/shared/db"
	"github.com/orris-inc/keyhub/internal/shared/logger"
)

type PackRepositoryImpl struct {
	db     *gorm.DB
	logger logger.Interface
}

func NewPackRepository(db *gorm.DB, logger logger.Interface) pack.PackRepository {
	return &PackRepositoryImpl{db: db, logger: logger}
}

func (r *PackRepositoryImpl) Create(ctx context.Context, p *pack.Pack) error {
	model := mappers.PackToModel(p)
	if err := db.GetTxFromContext(ctx, r.db).Create(model).Error; err != nil {
		r.logger.Errorw("failed to create pack", "name", p.Name(), "error", err)
		return fmt.Errorf("failed to create pack: %w", err)
	}
	p.SetID(model.ID)
	return nil
}

func (r *PackRepositoryImpl) GetByID(ctx context.Context, id uint) (*pack.Pack, error) {
	var model models.PackModel
	if err := db.GetTxFromContext(ctx, r.db).First(&model, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		r.logger.Errorw("failed to get pack", "pack_id", id, "error", err)
		return nil, fmt.Errorf("failed to get pack: %w", err)
	}
	return mappers.PackToEntity(&model)
}

// BatchRepositoryImpl implements the pack.BatchRepository interface.
type BatchRepositoryImpl struct {
	db     *gorm.DB
	logger logger.Interface
}

func NewBatchRepository(db *gorm.DB, logger logger.Interface) pack.BatchRepository {
	return &BatchRepositoryImpl{db: db, logger: logger}
}

func (r *BatchRepositoryImpl) Create(ctx context.Context, b *pack.PackBatch) error {
	model := mappers.BatchToModel(b)
	if err := db.GetTxFromContext(ctx, r.db).Create(model).Error; err != nil {
		r.logger.Errorw("failed to create pack batch", "pack_id", b.PackID(), "error", err)
		return fmt.Errorf("failed to create pack batch: %w", err)
	}
	b.SetID(model.ID)
	b.SetVersion(model.Version)
	return nil
}

func (r *BatchRepositoryImpl) Update(ctx context.Context, b *pack.PackBatch) error {
	model := mappers.BatchToModel(b)
	result := db.GetTxFromContext(ctx, r.db).Model(&models.PackBatchModel{}).
		Where("id = ? AND version = ?", model.ID, model.Version).
		Updates(map[string]interface{}{
			"status":       model.Status,
			"issued_count": model.IssuedCount,
			"paid_at":      model.PaidAt,
			"version":      model.Version + 1,
			"updated_at":   model.UpdatedAt,
		})
	if result.Error != nil {
		r.logger.Errorw("failed to update pack batch", "batch_id", model.ID, "error", result.Error)
		return fmt.Errorf("failed to update pack batch: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return pack.ErrVersionConflict
	}
	b.SetVersion(model.Version + 1)
	return nil
}

func (r *BatchRepositoryImpl) GetByID(ctx context.Context, id uint) (*pack.PackBatch, error) {
	var model models.PackBatchModel
	if err := db.GetTxFromContext(ctx, r.db).First(&model, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		r.logger.Errorw("failed to get pack batch", "batch_id", id, "error", err)
		return nil, fmt.Errorf("failed to get pack batch: %w", err)
	}
	return mappers.BatchToEntity(&model)
}

func (r *BatchRepositoryImpl) ListUnpaidExpired(ctx context.Context, now time.Time, limit int) ([]*pack.PackBatch, error) {
	var list []*models.PackBatchModel
	if err := db.GetTxFromContext(ctx, r.db).
		Where("status = ? AND expires_at IS NOT NULL AND expires_at < ?", pack.BatchStatusUnpaid.String(), now).
		Order("id ASC").
		Limit(limit).
		Find(&list).Error; err != nil {
		r.logger.Errorw("failed to list lapsed batches", "error", err)
		return nil, fmt.Errorf("failed to list lapsed batches: %w", err)
	}

	out := make([]*pack.PackBatch, 0, len(list))
	for _, m := range list {
		b, err := mappers.BatchToEntity(m)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, nil
}
