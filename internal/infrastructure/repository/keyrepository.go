package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/orris-inc/keyhub/internal/domain/key"
	"github.com/orris-inc/keyhub/internal/infrastructure/persistence/mappers"
	"github.com/orris-inc/keyhub/internal/infrastructure/persistence/models"
	"github.com/orris-inc/keyhub/internal/shared/db"
	"github.com/orris-inc/keyhub/internal/shared/logger"
)

const keyInsertBatchSize = 100

// KeyRepositoryImpl implements the key.Repository interface.
type KeyRepositoryImpl struct {
	db     *gorm.DB
	mapper mappers.KeyMapper
	logger logger.Interface
}

func NewKeyRepository(db *gorm.DB, logger logger.Interface) key.Repository {
	return &KeyRepositoryImpl{
		db:     db,
		mapper: mappers.NewKeyMapper(),
		logger: logger,
	}
}

func (r *KeyRepositoryImpl) Create(ctx context.Context, k *key.Key) error {
	model := r.mapper.ToModel(k)
	if err := db.GetTxFromContext(ctx, r.db).Create(model).Error; err != nil {
		r.logger.Errorw("failed to create key", "batch_id", k.BatchID(), "error", err)
		return fmt.Errorf("failed to create key: %w", err)
	}
	k.SetID(model.ID)
	k.SetVersion(model.Version)
	return nil
}

// CreateBatch inserts all keys in one statement group; callers wrap it in a
// transaction when the batch must be all or nothing.
func (r *KeyRepositoryImpl) CreateBatch(ctx context.Context, keys []*key.Key) error {
	if len(keys) == 0 {
		return nil
	}
	list := make([]*models.KeyModel, len(keys))
	for i, k := range keys {
		list[i] = r.mapper.ToModel(k)
	}
	if err := db.GetTxFromContext(ctx, r.db).CreateInBatches(list, keyInsertBatchSize).Error; err != nil {
		r.logger.Errorw("failed to create keys", "count", len(keys), "error", err)
		return fmt.Errorf("failed to create keys: %w", err)
	}
	for i, k := range keys {
		k.SetID(list[i].ID)
		k.SetVersion(list[i].Version)
	}
	return nil
}

func (r *KeyRepositoryImpl) Update(ctx context.Context, k *key.Key) error {
	model := r.mapper.ToModel(k)
	result := db.GetTxFromContext(ctx, r.db).Model(&models.KeyModel{}).
		Where("id = ? AND version = ?", model.ID, model.Version).
		Updates(map[string]interface{}{
			"finish_at":           model.FinishAt,
			"activation_deadline": model.ActivationDeadline,
			"owner_user_id":       model.OwnerUserID,
			"status":              model.Status,
			"server_user_id":      model.ServerUserID,
			"activated_at":        model.ActivatedAt,
			"expired_at":          model.ExpiredAt,
			"version":             model.Version + 1,
			"updated_at":          model.UpdatedAt,
		})
	if result.Error != nil {
		r.logger.Errorw("failed to update key", "key_id", model.ID, "error", result.Error)
		return fmt.Errorf("failed to update key: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return key.ErrVersionConflict
	}
	k.SetVersion(model.Version + 1)
	return nil
}

func (r *KeyRepositoryImpl) GetByID(ctx context.Context, id uint) (*key.Key, error) {
	var model models.KeyModel
	if err := db.GetTxFromContext(ctx, r.db).First(&model, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		r.logger.Errorw("failed to get key by ID", "key_id", id, "error", err)
		return nil, fmt.Errorf("failed to get key: %w", err)
	}
	return r.mapper.ToEntity(&model)
}

func (r *KeyRepositoryImpl) GetByCode(ctx context.Context, code string) (*key.Key, error) {
	var model models.KeyModel
	if err := db.GetTxFromContext(ctx, r.db).Where("code = ?", code).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		r.logger.Errorw("failed to get key by code", "key_code", code, "error", err)
		return nil, fmt.Errorf("failed to get key: %w", err)
	}
	return r.mapper.ToEntity(&model)
}

func (r *KeyRepositoryImpl) ListByBatch(ctx context.Context, batchID uint) ([]*key.Key, error) {
	var list []*models.KeyModel
	if err := db.GetTxFromContext(ctx, r.db).
		Where("batch_id = ?", batchID).
		Order("id ASC").
		Find(&list).Error; err != nil {
		r.logger.Errorw("failed to list keys by batch", "batch_id", batchID, "error", err)
		return nil, fmt.Errorf("failed to list keys: %w", err)
	}
	return r.mapper.ToEntities(list)
}

func (r *KeyRepositoryImpl) ListPastDeadline(ctx context.Context, now time.Time, afterID uint, limit int) ([]*key.Key, error) {
	var list []*models.KeyModel
	if err := db.GetTxFromContext(ctx, r.db).
		Where("id > ?", afterID).
		Where("(status = ? AND activation_deadline < ?) OR (status = ? AND finish_at < ?)",
			key.StatusIssued.String(), now, key.StatusActive.String(), now).
		Order("id ASC").
		Limit(limit).
		Find(&list).Error; err != nil {
		r.logger.Errorw("failed to list keys past deadline", "error", err)
		return nil, fmt.Errorf("failed to list keys past deadline: %w", err)
	}
	return r.mapper.ToEntities(list)
}

func (r *KeyRepositoryImpl) ListActiveWithServerUser(ctx context.Context, limit, offset int) ([]*key.Key, error) {
	var list []*models.KeyModel
	if err := db.GetTxFromContext(ctx, r.db).
		Where("status = ? AND server_user_id IS NOT NULL", key.StatusActive.String()).
		Order("id ASC").
		Limit(limit).
		Offset(offset).
		Find(&list).Error; err != nil {
		r.logger.Errorw("failed to list active keys", "error", err)
		return nil, fmt.Errorf("failed to list active keys: %w", err)
	}
	return r.mapper.ToEntities(list)
}
