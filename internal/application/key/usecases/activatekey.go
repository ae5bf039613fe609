package usecases

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/orris-inc/keyhub/internal/domain/key"
	"github.com/orris-inc/keyhub/internal/domain/panel"
	"github.com/orris-inc/keyhub/internal/infrastructure/metrics"
	"github.com/orris-inc/keyhub/internal/shared/biztime"
	apperrors "github.com/orris-inc/keyhub/internal/shared/errors"
	"github.com/orris-inc/keyhub/internal/shared/logger"
)

type ActivateKeyCommand struct {
	KeyCode string
	UserID  int64
	// FinishAt overrides the end of the paid period. Replacement keys use it
	// to keep the remaining period of the key they replace.
	FinishAt *time.Time
}

// ActivateKeyUseCase binds an issued key to its first owner and provisions
// the panel account serving it. Either everything happens or nothing does.
type ActivateKeyUseCase struct {
	keyRepo        key.Repository
	serverUserRepo panel.ServerUserRepository
	panels         PanelGateway
	locker         KeyLocker
	reconciler     *ReconcileKeyExpiryUseCase
	txManager      TransactionRunner
	metrics        *metrics.Metrics
	logger         logger.Interface
	now            func() time.Time
}

func NewActivateKeyUseCase(
	keyRepo key.Repository,
	serverUserRepo panel.ServerUserRepository,
	panels PanelGateway,
	locker KeyLocker,
	reconciler *ReconcileKeyExpiryUseCase,
	txManager TransactionRunner,
	m *metrics.Metrics,
	logger logger.Interface,
) *ActivateKeyUseCase {
	return &ActivateKeyUseCase{
		keyRepo:        keyRepo,
		serverUserRepo: serverUserRepo,
		panels:         panels,
		locker:         locker,
		reconciler:     reconciler,
		txManager:      txManager,
		metrics:        m,
		logger:         logger,
		now:            biztime.NowUTC,
	}
}

func (uc *ActivateKeyUseCase) Execute(ctx context.Context, cmd ActivateKeyCommand) (*key.Key, error) {
	found, err := uc.keyRepo.GetByCode(ctx, cmd.KeyCode)
	if err != nil {
		return nil, fmt.Errorf("failed to get key: %w", err)
	}
	if found == nil {
		return nil, apperrors.NewNotFoundError("key not found")
	}

	k, err := uc.activate(ctx, found.ID(), cmd)
	uc.metrics.KeyActivation(activationResult(err))
	return k, err
}

func (uc *ActivateKeyUseCase) activate(ctx context.Context, keyID uint, cmd ActivateKeyCommand) (*key.Key, error) {
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
		return nil, apperrors.NewNotFoundError("key not found")
	}
	if _, err := uc.reconciler.reconcileLocked(ctx, k); err != nil {
		return nil, err
	}

	now := uc.now()
	if aerr := k.CheckActivatable(cmd.UserID, now); aerr != nil {
		return nil, aerr
	}

	finishAt := k.DefaultFinishAt(now)
	if cmd.FinishAt != nil {
		finishAt = *cmd.FinishAt
	}

	p, err := uc.panels.SelectLeastLoaded(ctx, panel.Type(k.PanelType()))
	if err != nil {
		return nil, key.NewActivationError(key.ReasonNoPanelAvailable, k.ID(), err)
	}
	if p == nil {
		return nil, key.NewActivationError(key.ReasonNoPanelAvailable, k.ID(), fmt.Errorf("no configured %s panel", k.PanelType()))
	}

	account, err := uc.panels.AddServerUser(ctx, p, panel.AccountSpec{
		KeyID:           k.ID(),
		OwnerUserID:     cmd.UserID,
		TrafficLimit:    k.TrafficLimit(),
		ExpireAt:        finishAt,
		ConnectionLimit: k.ConnectionLimit(),
	})
	if err != nil {
		return nil, key.NewActivationError(key.ReasonProvisioningFailure, k.ID(), err)
	}

	err = uc.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := uc.serverUserRepo.Create(ctx, account); err != nil {
			return err
		}
		if err := k.Activate(cmd.UserID, account.ID(), finishAt, now); err != nil {
			return err
		}
		return uc.keyRepo.Update(ctx, k)
	})
	if err != nil {
		uc.compensate(ctx, p, account, k.ID())
		if errors.Is(err, key.ErrVersionConflict) {
			return nil, key.NewActivationError(key.ReasonInvalidStatus, k.ID(), fmt.Errorf("key was activated concurrently: %w", err))
		}
		var aerr *key.ActivationError
		if errors.As(err, &aerr) {
			return nil, aerr
		}
		uc.logger.Errorw("failed to persist key activation", "key_id", k.ID(), "error", err)
		return nil, key.NewActivationError(key.ReasonPersistFailure, k.ID(), err)
	}

	uc.logger.Infow("key activated",
		"key_id", k.ID(),
		"key_code", k.Code(),
		"owner_user_id", cmd.UserID,
		"panel_id", p.ID(),
		"server_user_id", account.ID(),
	)
	return k, nil
}

// compensate removes the panel account created for an activation that could
// not be persisted. The failure is logged; the orphan expires on the panel.
func (uc *ActivateKeyUseCase) compensate(ctx context.Context, p *panel.Panel, account *panel.ServerUser, keyID uint) {
	if err := uc.panels.DeleteServerUser(ctx, p, account); err != nil {
		uc.logger.Errorw("failed to delete orphaned panel account",
			"key_id", keyID,
			"panel_id", p.ID(),
			"username", account.Username(),
			"error", err,
		)
	}
}

func activationResult(err error) string {
	if err == nil {
		return "success"
	}
	if reason := key.ActivationReasonOf(err); reason != "" {
		return string(reason)
	}
	return "error"
}
