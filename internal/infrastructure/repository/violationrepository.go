package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/orris-inc/keyhub/internal/domain/notification"
	"github.com/orris-inc/keyhub/internal/domain/violation"
	"github.com/orris-inc/keyhub/internal/infrastructure/persistence/mappers"
	"github.com/orris-inc/keyhub/internal/infrastructure/persistence/models"
	"github.com/orris-inc/keyhub/internal/shared/db"
	"github.com/orris-inc/keyhub/internal/shared/logger"
)

// ViolationRepositoryImpl implements the violation.Repository interface.
type ViolationRepositoryImpl struct {
	db     *gorm.DB
	logger logger.Interface
}

func NewViolationRepository(db *gorm.DB, logger logger.Interface) violation.Repository {
	return &ViolationRepositoryImpl{db: db, logger: logger}
}

func (r *ViolationRepositoryImpl) FindOrCreate(ctx context.Context, d violation.Detection, now time.Time) (*violation.Violation, error) {
	entity, err := violation.NewViolation(d, now)
	if err != nil {
		return nil, err
	}
	model, err := mappers.ViolationToModel(entity)
	if err != nil {
		return nil, err
	}

	tx := db.GetTxFromContext(ctx, r.db)
	// A row inserted concurrently for the same triple makes this a no-op; the
	// read below then returns the winner's row.
	if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(model).Error; err != nil {
		r.logger.Errorw("failed to create violation", "key_id", d.KeyID, "error", err)
		return nil, fmt.Errorf("failed to create violation: %w", err)
	}

	var stored models.ViolationModel
	if err := tx.Where("key_id = ? AND server_user_id = ? AND panel_id = ?", d.KeyID, d.ServerUserID, d.PanelID).
		First(&stored).Error; err != nil {
		r.logger.Errorw("failed to read violation", "key_id", d.KeyID, "error", err)
		return nil, fmt.Errorf("failed to read violation: %w", err)
	}
	return mappers.ViolationToEntity(&stored)
}

func (r *ViolationRepositoryImpl) IncrementCount(ctx context.Context, id uint, d violation.Detection, now time.Time) (*violation.Violation, error) {
	ips, err := mappers.IPsToJSON(violation.NormalizeIPs(d.IPs))
	if err != nil {
		return nil, err
	}

	tx := db.GetTxFromContext(ctx, r.db)
	if err := tx.Model(&models.ViolationModel{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"violation_count":     gorm.Expr("violation_count + 1"),
			"allowed_connections": d.Allowed,
			"actual_connections":  d.Actual,
			"observed_ips":        ips,
			"last_detected_at":    now,
			"version":             gorm.Expr("version + 1"),
			"updated_at":          now,
		}).Error; err != nil {
		r.logger.Errorw("failed to increment violation count", "violation_id", id, "error", err)
		return nil, fmt.Errorf("failed to increment violation count: %w", err)
	}

	return r.GetByID(ctx, id)
}

func (r *ViolationRepositoryImpl) RefreshObservation(ctx context.Context, id uint, d violation.Detection, now time.Time) error {
	ips, err := mappers.IPsToJSON(violation.NormalizeIPs(d.IPs))
	if err != nil {
		return err
	}
	if err := db.GetTxFromContext(ctx, r.db).Model(&models.ViolationModel{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"allowed_connections": d.Allowed,
			"actual_connections":  d.Actual,
			"observed_ips":        ips,
			"last_detected_at":    now,
			"updated_at":          now,
		}).Error; err != nil {
		r.logger.Errorw("failed to refresh violation", "violation_id", id, "error", err)
		return fmt.Errorf("failed to refresh violation: %w", err)
	}
	return nil
}

func (r *ViolationRepositoryImpl) ClaimReplacement(ctx context.Context, id uint, now time.Time) (bool, error) {
	result := db.GetTxFromContext(ctx, r.db).Model(&models.ViolationModel{}).
		Where("id = ? AND key_replaced_at IS NULL AND status = ?", id, string(violation.StatusActive)).
		Updates(map[string]interface{}{
			"key_replaced_at": now,
			"version":         gorm.Expr("version + 1"),
			"updated_at":      now,
		})
	if result.Error != nil {
		r.logger.Errorw("failed to claim key replacement", "violation_id", id, "error", result.Error)
		return false, fmt.Errorf("failed to claim key replacement: %w", result.Error)
	}
	return result.RowsAffected == 1, nil
}

func (r *ViolationRepositoryImpl) ReleaseReplacement(ctx context.Context, id uint) error {
	if err := db.GetTxFromContext(ctx, r.db).Model(&models.ViolationModel{}).
		Where("id = ? AND replacement_key_id IS NULL", id).
		Updates(map[string]interface{}{
			"key_replaced_at": nil,
			"version":         gorm.Expr("version + 1"),
			"updated_at":      time.Now().UTC(),
		}).Error; err != nil {
		r.logger.Errorw("failed to release key replacement claim", "violation_id", id, "error", err)
		return fmt.Errorf("failed to release key replacement claim: %w", err)
	}
	return nil
}

func (r *ViolationRepositoryImpl) Update(ctx context.Context, v *violation.Violation) error {
	model, err := mappers.ViolationToModel(v)
	if err != nil {
		return err
	}
	result := db.GetTxFromContext(ctx, r.db).Model(&models.ViolationModel{}).
		Where("id = ? AND version = ?", model.ID, model.Version).
		Updates(map[string]interface{}{
			"status":                    model.Status,
			"notifications_sent":        model.NotificationsSent,
			"last_notification_outcome": model.LastNotificationOutcome,
			"notification_retry_count":  model.NotificationRetryCount,
			"notification_step":         model.NotificationStep,
			"notification_parts_sent":   model.NotificationPartsSent,
			"key_replaced_at":           model.KeyReplacedAt,
			"replacement_key_id":        model.ReplacementKeyID,
			"version":                   model.Version + 1,
			"updated_at":                model.UpdatedAt,
		})
	if result.Error != nil {
		r.logger.Errorw("failed to update violation", "violation_id", model.ID, "error", result.Error)
		return fmt.Errorf("failed to update violation: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return violation.ErrVersionConflict
	}
	v.SetVersion(model.Version + 1)
	return nil
}

func (r *ViolationRepositoryImpl) GetByID(ctx context.Context, id uint) (*violation.Violation, error) {
	var model models.ViolationModel
	if err := db.GetTxFromContext(ctx, r.db).First(&model, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		r.logger.Errorw("failed to get violation", "violation_id", id, "error", err)
		return nil, fmt.Errorf("failed to get violation: %w", err)
	}
	return mappers.ViolationToEntity(&model)
}

func (r *ViolationRepositoryImpl) ListPendingRetry(ctx context.Context, maxRetries, limit int) ([]*violation.Violation, error) {
	var list []*models.ViolationModel
	if err := db.GetTxFromContext(ctx, r.db).
		Where("status IN ? AND last_notification_outcome = ? AND notification_retry_count < ? AND notification_step <> ''",
			[]string{string(violation.StatusActive), string(violation.StatusResolved)},
			notification.OutcomeTechnicalError.String(),
			maxRetries).
		Order("id ASC").
		Limit(limit).
		Find(&list).Error; err != nil {
		r.logger.Errorw("failed to list violations pending retry", "error", err)
		return nil, fmt.Errorf("failed to list violations pending retry: %w", err)
	}

	out := make([]*violation.Violation, 0, len(list))
	for _, m := range list {
		v, err := mappers.ViolationToEntity(m)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}
