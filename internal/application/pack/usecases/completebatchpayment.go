package usecases

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/orris-inc/keyhub/internal/domain/key"
	"github.com/orris-inc/keyhub/internal/domain/pack"
	"github.com/orris-inc/keyhub/internal/infrastructure/metrics"
	"github.com/orris-inc/keyhub/internal/shared/biztime"
	apperrors "github.com/orris-inc/keyhub/internal/shared/errors"
	"github.com/orris-inc/keyhub/internal/shared/logger"
)

type CompleteBatchCommand struct {
	BatchID uint
	Status  pack.BatchStatus
}

type CompleteBatchResult struct {
	Batch *pack.PackBatch
	Keys  []*key.Key
}

// CompleteBatchPaymentUseCase applies a payment callback to a batch and, when
// paid, issues all of its keys in the same transaction.
type CompleteBatchPaymentUseCase struct {
	packRepo  pack.PackRepository
	batchRepo pack.BatchRepository
	keyRepo   key.Repository
	txManager TransactionRunner
	metrics   *metrics.Metrics
	logger    logger.Interface
	now       func() time.Time
}

func NewCompleteBatchPaymentUseCase(
	packRepo pack.PackRepository,
	batchRepo pack.BatchRepository,
	keyRepo key.Repository,
	txManager TransactionRunner,
	m *metrics.Metrics,
	logger logger.Interface,
) *CompleteBatchPaymentUseCase {
	return &CompleteBatchPaymentUseCase{
		packRepo:  packRepo,
		batchRepo: batchRepo,
		keyRepo:   keyRepo,
		txManager: txManager,
		metrics:   m,
		logger:    logger,
		now:       biztime.NowUTC,
	}
}

func (uc *CompleteBatchPaymentUseCase) Execute(ctx context.Context, cmd CompleteBatchCommand) (*CompleteBatchResult, error) {
	b, err := uc.batchRepo.GetByID(ctx, cmd.BatchID)
	if err != nil {
		return nil, fmt.Errorf("failed to get batch: %w", err)
	}
	if b == nil {
		return nil, apperrors.NewNotFoundError("batch not found", strconv.FormatUint(uint64(cmd.BatchID), 10))
	}

	switch b.Status() {
	case pack.BatchStatusPaid:
		// Payment providers repeat callbacks; answer with what was issued.
		return uc.existing(ctx, b)
	case pack.BatchStatusExpired:
		return nil, apperrors.NewValidationError("batch has expired", b.Status().String())
	}

	p, err := uc.packRepo.GetByID(ctx, b.PackID())
	if err != nil {
		return nil, fmt.Errorf("failed to get pack: %w", err)
	}
	if p == nil {
		return nil, apperrors.NewNotFoundError("pack not found", strconv.FormatUint(uint64(b.PackID()), 10))
	}

	now := uc.now()
	if err := b.ApplyPaymentResult(cmd.Status, p.Price(), now); err != nil {
		return nil, apperrors.NewValidationError(err.Error())
	}

	var keys []*key.Key
	if b.IsPaid() {
		keys, err = p.IssueKeys(b.ID(), now)
		if err != nil {
			return nil, fmt.Errorf("failed to build keys: %w", err)
		}
		if err := b.RecordIssued(len(keys), now); err != nil {
			return nil, fmt.Errorf("failed to record issued keys: %w", err)
		}
	}

	err = uc.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := uc.batchRepo.Update(ctx, b); err != nil {
			return err
		}
		if len(keys) == 0 {
			return nil
		}
		return uc.keyRepo.CreateBatch(ctx, keys)
	})
	if err != nil {
		if errors.Is(err, pack.ErrVersionConflict) {
			// A concurrent callback won; report its outcome.
			fresh, getErr := uc.batchRepo.GetByID(ctx, b.ID())
			if getErr == nil && fresh != nil && fresh.IsPaid() {
				return uc.existing(ctx, fresh)
			}
			return nil, apperrors.NewConflictError("batch was modified concurrently")
		}
		uc.logger.Errorw("failed to complete batch", "batch_id", b.ID(), "error", err)
		return nil, fmt.Errorf("failed to complete batch: %w", err)
	}

	if len(keys) > 0 {
		uc.metrics.KeysIssued(len(keys))
	}
	uc.logger.Infow("batch payment completed",
		"batch_id", b.ID(),
		"status", b.Status(),
		"keys_issued", len(keys),
	)
	return &CompleteBatchResult{Batch: b, Keys: keys}, nil
}

func (uc *CompleteBatchPaymentUseCase) existing(ctx context.Context, b *pack.PackBatch) (*CompleteBatchResult, error) {
	keys, err := uc.keyRepo.ListByBatch(ctx, b.ID())
	if err != nil {
		return nil, fmt.Errorf("failed to list batch keys: %w", err)
	}
	return &CompleteBatchResult{Batch: b, Keys: keys}, nil
}
