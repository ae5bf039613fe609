package usecases

import (
	"context"
	"fmt"

	"github.com/orris-inc/keyhub/internal/domain/key"
	"github.com/orris-inc/keyhub/internal/shared/logger"
)

const expireSweepPageSize = 500

// ExpireKeysUseCase is the periodic sweep over keys whose deadline passed.
// It walks every due key in ID order, so a key that keeps failing never
// holds back the ones after it.
type ExpireKeysUseCase struct {
	keyRepo    key.Repository
	reconciler *ReconcileKeyExpiryUseCase
	pageSize   int
	logger     logger.Interface
}

func NewExpireKeysUseCase(keyRepo key.Repository, reconciler *ReconcileKeyExpiryUseCase, logger logger.Interface) *ExpireKeysUseCase {
	return &ExpireKeysUseCase{
		keyRepo:    keyRepo,
		reconciler: reconciler,
		pageSize:   expireSweepPageSize,
		logger:     logger,
	}
}

// Execute returns the number of keys expired by this run.
func (uc *ExpireKeysUseCase) Execute(ctx context.Context) (int, error) {
	now := uc.reconciler.now()

	var afterID uint
	candidates, expired, failed := 0, 0, 0
	for {
		due, err := uc.keyRepo.ListPastDeadline(ctx, now, afterID, uc.pageSize)
		if err != nil {
			return expired, fmt.Errorf("failed to list keys past deadline: %w", err)
		}

		for _, candidate := range due {
			if err := ctx.Err(); err != nil {
				return expired, err
			}
			afterID = candidate.ID()
			candidates++

			k, err := uc.reconciler.Execute(ctx, candidate.ID())
			if err != nil {
				failed++
				uc.logger.Warnw("failed to reconcile key", "key_id", candidate.ID(), "error", err)
				continue
			}
			if k.Status() == key.StatusExpired && candidate.Status() != key.StatusExpired {
				expired++
			}
		}

		if len(due) < uc.pageSize {
			break
		}
	}

	if candidates > 0 {
		uc.logger.Infow("key expiry sweep finished",
			"candidates", candidates,
			"expired", expired,
			"failed", failed,
		)
	}
	return expired, nil
}
