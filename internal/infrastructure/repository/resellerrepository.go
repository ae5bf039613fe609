package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/orris-inc/keyhub/internal/domain/reseller"
	"github.com/orris-inc/keyhub/internal/infrastructure/persistence/mappers"
	"github.com/orris-inc/keyhub/internal/infrastructure/persistence/models"
	"github.com/orris-inc/keyhub/internal/shared/db"
	"github.com/orris-inc/keyhub/internal/shared/logger"
)

type ResellerRepositoryImpl struct {
	db     *gorm.DB
	logger logger.Interface
}

func NewResellerRepository(db *gorm.DB, logger logger.Interface) reseller.Repository {
	return &ResellerRepositoryImpl{db: db, logger: logger}
}

func (r *ResellerRepositoryImpl) Create(ctx context.Context, res *reseller.Reseller) error {
	model := mappers.ResellerToModel(res)
	if err := db.GetTxFromContext(ctx, r.db).Create(model).Error; err != nil {
		r.logger.Errorw("failed to create reseller", "error", err)
		return fmt.Errorf("failed to create reseller: %w", err)
	}
	res.SetID(model.ID)
	return nil
}

func (r *ResellerRepositoryImpl) GetByID(ctx context.Context, id uint) (*reseller.Reseller, error) {
	var model models.ResellerModel
	if err := db.GetTxFromContext(ctx, r.db).First(&model, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		r.logger.Errorw("failed to get reseller", "reseller_id", id, "error", err)
		return nil, fmt.Errorf("failed to get reseller: %w", err)
	}
	return mappers.ResellerToEntity(&model), nil
}

func (r *ResellerRepositoryImpl) CreateModule(ctx context.Context, m *reseller.BotModule) error {
	model := mappers.BotModuleToModel(m)
	if err := db.GetTxFromContext(ctx, r.db).Create(model).Error; err != nil {
		r.logger.Errorw("failed to create bot module", "reseller_id", m.ResellerID(), "error", err)
		return fmt.Errorf("failed to create bot module: %w", err)
	}
	m.SetID(model.ID)
	return nil
}

func (r *ResellerRepositoryImpl) GetModuleByID(ctx context.Context, id uint) (*reseller.BotModule, error) {
	var model models.BotModuleModel
	if err := db.GetTxFromContext(ctx, r.db).First(&model, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		r.logger.Errorw("failed to get bot module", "module_id", id, "error", err)
		return nil, fmt.Errorf("failed to get bot module: %w", err)
	}
	return mappers.BotModuleToEntity(&model), nil
}
