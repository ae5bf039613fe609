package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/orris-inc/keyhub/internal/domain/server"
	"github.com/orris-inc/keyhub/internal/infrastructure/persistence/mappers"
	"github.com/orris-inc/keyhub/internal/infrastructure/persistence/models"
	"github.com/orris-inc/keyhub/internal/shared/db"
	"github.com/orris-inc/keyhub/internal/shared/logger"
)

// ServerRepositoryImpl implements the server.Repository interface.
type ServerRepositoryImpl struct {
	db     *gorm.DB
	logger logger.Interface
}

func NewServerRepository(db *gorm.DB, logger logger.Interface) server.Repository {
	return &ServerRepositoryImpl{db: db, logger: logger}
}

func (r *ServerRepositoryImpl) Create(ctx context.Context, s *server.Server) error {
	model := mappers.ServerToModel(s)
	if err := db.GetTxFromContext(ctx, r.db).Create(model).Error; err != nil {
		r.logger.Errorw("failed to create server", "provider", s.Provider(), "error", err)
		return fmt.Errorf("failed to create server: %w", err)
	}
	s.SetID(model.ID)
	s.SetVersion(model.Version)
	return nil
}

func (r *ServerRepositoryImpl) Update(ctx context.Context, s *server.Server) error {
	model := mappers.ServerToModel(s)
	result := db.GetTxFromContext(ctx, r.db).Model(&models.ServerModel{}).
		Where("id = ? AND version = ?", model.ID, model.Version).
		Updates(map[string]interface{}{
			"ip":               model.IP,
			"root_password":    model.RootPassword,
			"dns_record_id":    model.DNSRecordID,
			"domain":           model.Domain,
			"status":           model.Status,
			"error_message":    model.ErrorMessage,
			"delete_requested": model.DeleteRequested,
			"version":          model.Version + 1,
			"updated_at":       model.UpdatedAt,
		})
	if result.Error != nil {
		r.logger.Errorw("failed to update server", "server_id", model.ID, "error", result.Error)
		return fmt.Errorf("failed to update server: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return server.ErrVersionConflict
	}
	s.SetVersion(model.Version + 1)
	return nil
}

func (r *ServerRepositoryImpl) GetByID(ctx context.Context, id uint) (*server.Server, error) {
	var model models.ServerModel
	if err := db.GetTxFromContext(ctx, r.db).First(&model, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		r.logger.Errorw("failed to get server", "server_id", id, "error", err)
		return nil, fmt.Errorf("failed to get server: %w", err)
	}
	return mappers.ServerToEntity(&model)
}

func (r *ServerRepositoryImpl) ListByStatus(ctx context.Context, statuses ...server.Status) ([]*server.Server, error) {
	values := make([]string, len(statuses))
	for i, st := range statuses {
		values[i] = st.String()
	}

	var list []*models.ServerModel
	if err := db.GetTxFromContext(ctx, r.db).
		Where("status IN ?", values).
		Order("id ASC").
		Find(&list).Error; err != nil {
		r.logger.Errorw("failed to list servers", "statuses", values, "error", err)
		return nil, fmt.Errorf("failed to list servers: %w", err)
	}

	out := make([]*server.Server, 0, len(list))
	for _, m := range list {
		s, err := mappers.ServerToEntity(m)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

type LocationRepositoryImpl struct {
	db     *gorm.DB
	logger logger.Interface
}

func NewLocationRepository(db *gorm.DB, logger logger.Interface) server.LocationRepository {
	return &LocationRepositoryImpl{db: db, logger: logger}
}

func (r *LocationRepositoryImpl) Create(ctx context.Context, l *server.Location) error {
	model := &models.LocationModel{Code: l.Code, Name: l.Name, Country: l.Country}
	if err := db.GetTxFromContext(ctx, r.db).Create(model).Error; err != nil {
		r.logger.Errorw("failed to create location", "code", l.Code, "error", err)
		return fmt.Errorf("failed to create location: %w", err)
	}
	l.ID = model.ID
	return nil
}

func (r *LocationRepositoryImpl) GetByID(ctx context.Context, id uint) (*server.Location, error) {
	var model models.LocationModel
	if err := db.GetTxFromContext(ctx, r.db).First(&model, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		r.logger.Errorw("failed to get location", "location_id", id, "error", err)
		return nil, fmt.Errorf("failed to get location: %w", err)
	}
	return mappers.LocationToEntity(&model), nil
}
