package usecases

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/orris-inc/keyhub/internal/domain/key"
	"github.com/orris-inc/keyhub/internal/infrastructure/metrics"
	"github.com/orris-inc/keyhub/internal/shared/biztime"
	apperrors "github.com/orris-inc/keyhub/internal/shared/errors"
	"github.com/orris-inc/keyhub/internal/shared/logger"
)

// ReconcileKeyExpiryUseCase expires a key whose activation deadline or paid
// period has passed. Every read path goes through it first.
type ReconcileKeyExpiryUseCase struct {
	keyRepo key.Repository
	locker  KeyLocker
	panels  PanelGateway
	metrics *metrics.Metrics
	logger  logger.Interface
	now     func() time.Time
}

func NewReconcileKeyExpiryUseCase(
	keyRepo key.Repository,
	locker KeyLocker,
	panels PanelGateway,
	m *metrics.Metrics,
	logger logger.Interface,
) *ReconcileKeyExpiryUseCase {
	return &ReconcileKeyExpiryUseCase{
		keyRepo: keyRepo,
		locker:  locker,
		panels:  panels,
		metrics: m,
		logger:  logger,
		now:     biztime.NowUTC,
	}
}

// Execute reconciles the key under its lock and returns the current state.
func (uc *ReconcileKeyExpiryUseCase) Execute(ctx context.Context, keyID uint) (*key.Key, error) {
	unlock, err := uc.locker.Lock(ctx, keyID)
	if err != nil {
		return nil, lockError(keyID, err)
	}
	defer unlock()

	k, err := uc.keyRepo.GetByID(ctx, keyID)
	if err != nil {
		return nil, fmt.Errorf("failed to get key: %w", err)
	}
	if k == nil {
		return nil, apperrors.NewNotFoundError("key not found", strconv.FormatUint(uint64(keyID), 10))
	}
	if _, err := uc.reconcileLocked(ctx, k); err != nil {
		return nil, err
	}
	return k, nil
}

// reconcileLocked expects the caller to hold the key lock. It reports whether
// the key was expired by this call.
func (uc *ReconcileKeyExpiryUseCase) reconcileLocked(ctx context.Context, k *key.Key) (bool, error) {
	wasActive := k.IsActive()
	if !k.ReconcileExpiry(uc.now()) {
		return false, nil
	}

	if err := uc.keyRepo.Update(ctx, k); err != nil {
		if errors.Is(err, key.ErrVersionConflict) {
			// Someone else changed the key between our read and write; reload.
			fresh, getErr := uc.keyRepo.GetByID(ctx, k.ID())
			if getErr != nil || fresh == nil {
				return false, fmt.Errorf("failed to reload key after conflict: %w", err)
			}
			*k = *fresh
			return false, nil
		}
		uc.logger.Errorw("failed to persist key expiry", "key_id", k.ID(), "error", err)
		return false, fmt.Errorf("failed to persist key expiry: %w", err)
	}
	uc.metrics.KeyExpired()

	if wasActive && k.ServerUserID() != nil {
		if err := uc.panels.RetireServerUser(ctx, *k.ServerUserID()); err != nil {
			uc.logger.Warnw("failed to retire server user of expired key",
				"key_id", k.ID(),
				"server_user_id", *k.ServerUserID(),
				"error", err,
			)
		}
	}

	uc.logger.Infow("key expired", "key_id", k.ID(), "key_code", k.Code())
	return true, nil
}

func lockError(keyID uint, err error) error {
	return apperrors.NewUnavailableError("key is busy, try again", fmt.Sprintf("key %d: %v", keyID, err))
}
