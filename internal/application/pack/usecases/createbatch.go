package usecases

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/orris-inc/keyhub/internal/domain/pack"
	"github.com/orris-inc/keyhub/internal/domain/reseller"
	"github.com/orris-inc/keyhub/internal/shared/biztime"
	apperrors "github.com/orris-inc/keyhub/internal/shared/errors"
	"github.com/orris-inc/keyhub/internal/shared/logger"
)

type CreateBatchCommand struct {
	PackID     uint
	ResellerID uint
	ModuleID   *uint
}

// CreateBatchUseCase opens an unpaid purchase of one pack by a reseller.
type CreateBatchUseCase struct {
	packRepo      pack.PackRepository
	batchRepo     pack.BatchRepository
	resellerRepo  reseller.Repository
	paymentWindow time.Duration
	logger        logger.Interface
	now           func() time.Time
}

func NewCreateBatchUseCase(
	packRepo pack.PackRepository,
	batchRepo pack.BatchRepository,
	resellerRepo reseller.Repository,
	paymentWindow time.Duration,
	logger logger.Interface,
) *CreateBatchUseCase {
	return &CreateBatchUseCase{
		packRepo:      packRepo,
		batchRepo:     batchRepo,
		resellerRepo:  resellerRepo,
		paymentWindow: paymentWindow,
		logger:        logger,
		now:           biztime.NowUTC,
	}
}

func (uc *CreateBatchUseCase) Execute(ctx context.Context, cmd CreateBatchCommand) (*pack.PackBatch, error) {
	p, err := uc.packRepo.GetByID(ctx, cmd.PackID)
	if err != nil {
		return nil, fmt.Errorf("failed to get pack: %w", err)
	}
	if p == nil {
		return nil, apperrors.NewNotFoundError("pack not found", strconv.FormatUint(uint64(cmd.PackID), 10))
	}

	r, err := uc.resellerRepo.GetByID(ctx, cmd.ResellerID)
	if err != nil {
		return nil, fmt.Errorf("failed to get reseller: %w", err)
	}
	if r == nil {
		return nil, apperrors.NewNotFoundError("reseller not found", strconv.FormatUint(uint64(cmd.ResellerID), 10))
	}

	if cmd.ModuleID != nil {
		m, err := uc.resellerRepo.GetModuleByID(ctx, *cmd.ModuleID)
		if err != nil {
			return nil, fmt.Errorf("failed to get bot module: %w", err)
		}
		if m == nil || m.ResellerID() != r.ID() {
			return nil, apperrors.NewValidationError("bot module does not belong to the reseller")
		}
	}

	b, err := pack.NewPackBatch(p.ID(), r.ID(), cmd.ModuleID, uc.paymentWindow, uc.now())
	if err != nil {
		return nil, apperrors.NewValidationError(err.Error())
	}
	if err := uc.batchRepo.Create(ctx, b); err != nil {
		uc.logger.Errorw("failed to create batch", "pack_id", p.ID(), "reseller_id", r.ID(), "error", err)
		return nil, fmt.Errorf("failed to create batch: %w", err)
	}

	uc.logger.Infow("batch created",
		"batch_id", b.ID(),
		"pack_id", p.ID(),
		"reseller_id", r.ID(),
		"free", p.IsFree(),
	)
	return b, nil
}
