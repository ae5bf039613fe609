package usecases

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/orris-inc/keyhub/internal/domain/pack"
	"github.com/orris-inc/keyhub/internal/shared/biztime"
	"github.com/orris-inc/keyhub/internal/shared/logger"
)

const unpaidSweepPageSize = 200

type ExpireUnpaidBatchesUseCase struct {
	batchRepo pack.BatchRepository
	logger    logger.Interface
	now       func() time.Time
}

func NewExpireUnpaidBatchesUseCase(batchRepo pack.BatchRepository, logger logger.Interface) *ExpireUnpaidBatchesUseCase {
	return &ExpireUnpaidBatchesUseCase{batchRepo: batchRepo, logger: logger, now: biztime.NowUTC}
}

// Execute lapses unpaid batches whose payment window closed and returns how many.
func (uc *ExpireUnpaidBatchesUseCase) Execute(ctx context.Context) (int, error) {
	now := uc.now()
	batches, err := uc.batchRepo.ListUnpaidExpired(ctx, now, unpaidSweepPageSize)
	if err != nil {
		return 0, fmt.Errorf("failed to list unpaid batches: %w", err)
	}

	expired := 0
	for _, b := range batches {
		if !b.ExpireUnpaid(now) {
			continue
		}
		if err := uc.batchRepo.Update(ctx, b); err != nil {
			if !errors.Is(err, pack.ErrVersionConflict) {
				uc.logger.Warnw("failed to expire batch", "batch_id", b.ID(), "error", err)
			}
			continue
		}
		expired++
	}

	if expired > 0 {
		uc.logger.Infow("unpaid batches expired", "count", expired)
	}
	return expired, nil
}
