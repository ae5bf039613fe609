package usecases

import (
	"context"
	"errors"
	"fmt"

	"github.com/orris-inc/keyhub/internal/domain/key"
	apperrors "github.com/orris-inc/keyhub/internal/shared/errors"
	"github.com/orris-inc/keyhub/internal/shared/logger"
)

type TransferKeyCommand struct {
	KeyCode    string
	FromUserID int64
	ToUserID   int64
}

// TransferKeyUseCase hands a key over to another user. It is the only way an
// owner binding changes.
type TransferKeyUseCase struct {
	keyRepo    key.Repository
	locker     KeyLocker
	reconciler *ReconcileKeyExpiryUseCase
	logger     logger.Interface
}

func NewTransferKeyUseCase(keyRepo key.Repository, locker KeyLocker, reconciler *ReconcileKeyExpiryUseCase, logger logger.Interface) *TransferKeyUseCase {
	return &TransferKeyUseCase{keyRepo: keyRepo, locker: locker, reconciler: reconciler, logger: logger}
}

func (uc *TransferKeyUseCase) Execute(ctx context.Context, cmd TransferKeyCommand) (*key.Key, error) {
	found, err := uc.keyRepo.GetByCode(ctx, cmd.KeyCode)
	if err != nil {
		return nil, fmt.Errorf("failed to get key: %w", err)
	}
	if found == nil {
		return nil, apperrors.NewNotFoundError("key not found")
	}

	unlock, err := uc.locker.Lock(ctx, found.ID())
	if err != nil {
		return nil, lockError(found.ID(), err)
	}
	defer unlock()

	k, err := uc.keyRepo.GetByID(ctx, found.ID())
	if err != nil {
		return nil, fmt.Errorf("failed to get key: %w", err)
	}
	if k == nil {
		return nil, apperrors.NewNotFoundError("key not found")
	}
	if _, err := uc.reconciler.reconcileLocked(ctx, k); err != nil {
		return nil, err
	}

	if err := k.TransferOwnership(cmd.FromUserID, cmd.ToUserID, uc.reconciler.now()); err != nil {
		switch {
		case errors.Is(err, key.ErrNotOwner):
			return nil, apperrors.NewConflictError("only the current owner can transfer the key")
		case errors.Is(err, key.ErrInvalidStatusTransition):
			return nil, apperrors.NewGoneError("key has expired")
		default:
			return nil, apperrors.NewValidationError(err.Error())
		}
	}

	if err := uc.keyRepo.Update(ctx, k); err != nil {
		if errors.Is(err, key.ErrVersionConflict) {
			return nil, apperrors.NewConflictError("key was modified concurrently, retry")
		}
		uc.logger.Errorw("failed to persist key transfer", "key_id", k.ID(), "error", err)
		return nil, fmt.Errorf("failed to persist key transfer: %w", err)
	}

	uc.logger.Infow("key transferred",
		"key_id", k.ID(),
		"from_user_id", cmd.FromUserID,
		"to_user_id", cmd.ToUserID,
	)
	return k, nil
}
