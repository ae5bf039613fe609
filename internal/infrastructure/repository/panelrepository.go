package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/orris-inc/keyhub/internal/domain/panel"
	"github.com/orris-inc/keyhub/internal/domain/server"
	"github.com/orris-inc/keyhub/internal/infrastructure/persistence/mappers"
	"github.com/orris-inc/keyhub/internal/infrastructure/persistence/models"
	"github.com/orris-inc/keyhub/internal/shared/db"
	"github.com/orris-inc/keyhub/internal/shared/logger"
)

// PanelRepositoryImpl implements the panel.Repository interface.
type PanelRepositoryImpl struct {
	db     *gorm.DB
	logger logger.Interface
}

func NewPanelRepository(db *gorm.DB, logger logger.Interface) panel.Repository {
	return &PanelRepositoryImpl{db: db, logger: logger}
}

func (r *PanelRepositoryImpl) Create(ctx context.Context, p *panel.Panel) error {
	model := mappers.PanelToModel(p)
	if err := db.GetTxFromContext(ctx, r.db).Create(model).Error; err != nil {
		r.logger.Errorw("failed to create panel", "server_id", p.ServerID(), "error", err)
		return fmt.Errorf("failed to create panel: %w", err)
	}
	p.SetID(model.ID)
	return nil
}

// Update overwrites token and status. Concurrent token refreshes are collapsed
// before they reach the repository, so no version check is needed.
func (r *PanelRepositoryImpl) Update(ctx context.Context, p *panel.Panel) error {
	model := mappers.PanelToModel(p)
	result := db.GetTxFromContext(ctx, r.db).Model(&models.PanelModel{}).
		Where("id = ?", model.ID).
		Updates(map[string]interface{}{
			"api_url":          model.APIURL,
			"username":         model.Username,
			"password":         model.Password,
			"token":            model.Token,
			"token_expires_at": model.TokenExpiresAt,
			"status":           model.Status,
			"error_message":    model.ErrorMessage,
			"updated_at":       model.UpdatedAt,
		})
	if result.Error != nil {
		r.logger.Errorw("failed to update panel", "panel_id", model.ID, "error", result.Error)
		return fmt.Errorf("failed to update panel: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return panel.ErrPanelNotFound
	}
	return nil
}

func (r *PanelRepositoryImpl) GetByID(ctx context.Context, id uint) (*panel.Panel, error) {
	var model models.PanelModel
	if err := db.GetTxFromContext(ctx, r.db).First(&model, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		r.logger.Errorw("failed to get panel", "panel_id", id, "error", err)
		return nil, fmt.Errorf("failed to get panel: %w", err)
	}
	return mappers.PanelToEntity(&model)
}

func (r *PanelRepositoryImpl) GetByServerID(ctx context.Context, serverID uint) (*panel.Panel, error) {
	var model models.PanelModel
	if err := db.GetTxFromContext(ctx, r.db).Where("server_id = ?", serverID).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		r.logger.Errorw("failed to get panel by server", "server_id", serverID, "error", err)
		return nil, fmt.Errorf("failed to get panel: %w", err)
	}
	return mappers.PanelToEntity(&model)
}

// ListConfiguredByType only returns panels whose server is itself configured.
func (r *PanelRepositoryImpl) ListConfiguredByType(ctx context.Context, t panel.Type) ([]*panel.Panel, error) {
	liveServers := db.GetTxFromContext(ctx, r.db).
		Model(&models.ServerModel{}).
		Select("id").
		Where("status = ?", server.StatusConfigured.String())
	return r.list(ctx, "type = ? AND status = ? AND server_id IN (?)", t.String(), string(panel.StatusConfigured), liveServers)
}

func (r *PanelRepositoryImpl) ListNeedingReconcile(ctx context.Context) ([]*panel.Panel, error) {
	return r.list(ctx, "status IN ?", []string{string(panel.StatusCreated), string(panel.StatusError)})
}

func (r *PanelRepositoryImpl) list(ctx context.Context, query string, args ...interface{}) ([]*panel.Panel, error) {
	var list []*models.PanelModel
	if err := db.GetTxFromContext(ctx, r.db).Where(query, args...).Order("id ASC").Find(&list).Error; err != nil {
		r.logger.Errorw("failed to list panels", "error", err)
		return nil, fmt.Errorf("failed to list panels: %w", err)
	}
	out := make([]*panel.Panel, 0, len(list))
	for _, m := range list {
		p, err := mappers.PanelToEntity(m)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

// ServerUserRepositoryImpl implements the panel.ServerUserRepository interface.
type ServerUserRepositoryImpl struct {
	db     *gorm.DB
	logger logger.Interface
}

func NewServerUserRepository(db *gorm.DB, logger logger.Interface) panel.ServerUserRepository {
	return &ServerUserRepositoryImpl{db: db, logger: logger}
}

func (r *ServerUserRepositoryImpl) Create(ctx context.Context, u *panel.ServerUser) error {
	model, err := mappers.ServerUserToModel(u)
	if err != nil {
		return err
	}
	if err := db.GetTxFromContext(ctx, r.db).Create(model).Error; err != nil {
		r.logger.Errorw("failed to create server user", "panel_id", u.PanelID(), "key_id", u.KeyID(), "error", err)
		return fmt.Errorf("failed to create server user: %w", err)
	}
	u.SetID(model.ID)
	return nil
}

// GetByID also returns soft-deleted accounts so history stays resolvable.
func (r *ServerUserRepositoryImpl) GetByID(ctx context.Context, id uint) (*panel.ServerUser, error) {
	var model models.ServerUserModel
	if err := db.GetTxFromContext(ctx, r.db).Unscoped().First(&model, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		r.logger.Errorw("failed to get server user", "server_user_id", id, "error", err)
		return nil, fmt.Errorf("failed to get server user: %w", err)
	}
	return mappers.ServerUserToEntity(&model)
}

func (r *ServerUserRepositoryImpl) GetByUsername(ctx context.Context, username string) (*panel.ServerUser, error) {
	var model models.ServerUserModel
	if err := db.GetTxFromContext(ctx, r.db).Where("username = ?", username).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		r.logger.Errorw("failed to get server user by username", "username", username, "error", err)
		return nil, fmt.Errorf("failed to get server user: %w", err)
	}
	return mappers.ServerUserToEntity(&model)
}

func (r *ServerUserRepositoryImpl) SoftDelete(ctx context.Context, id uint) error {
	if err := db.GetTxFromContext(ctx, r.db).Delete(&models.ServerUserModel{}, id).Error; err != nil {
		r.logger.Errorw("failed to delete server user", "server_user_id", id, "error", err)
		return fmt.Errorf("failed to delete server user: %w", err)
	}
	return nil
}

func (r *ServerUserRepositoryImpl) CountActiveByPanel(ctx context.Context, panelIDs []uint) (map[uint]int64, error) {
	counts := make(map[uint]int64, len(panelIDs))
	if len(panelIDs) == 0 {
		return counts, nil
	}

	var rows []struct {
		PanelID uint
		Total   int64
	}
	if err := db.GetTxFromContext(ctx, r.db).
		Model(&models.ServerUserModel{}).
		Select("panel_id, COUNT(*) AS total").
		Where("panel_id IN ?", panelIDs).
		Group("panel_id").
		Scan(&rows).Error; err != nil {
		r.logger.Errorw("failed to count server users", "panel_ids", panelIDs, "error", err)
		return nil, fmt.Errorf("failed to count server users: %w", err)
	}
	for _, row := range rows {
		counts[row.PanelID] = row.Total
	}
	return counts, nil
}
