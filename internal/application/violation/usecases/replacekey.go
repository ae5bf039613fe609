package usecases

import (
	"context"
	"errors"
	"fmt"
	"time"

	keyusecases "github.com/orris-inc/keyhub/internal/application/key/usecases"
	"github.com/orris-inc/keyhub/internal/domain/key"
	"github.com/orris-inc/keyhub/internal/domain/violation"
	"github.com/orris-inc/keyhub/internal/infrastructure/metrics"
	"github.com/orris-inc/keyhub/internal/shared/biztime"
	"github.com/orris-inc/keyhub/internal/shared/logger"
)

// replacementActivationWindow only has to cover the activation that follows
// immediately; it bounds how long a failed replacement key stays issued.
const replacementActivationWindow = time.Hour

type ReplaceKeyResult struct {
	NewKey          *key.Key
	SubscriptionURL string
}

// ReplaceKeyUseCase swaps an abused key for a fresh one with the same owner
// and the same remaining period, then retires the old key.
type ReplaceKeyUseCase struct {
	keyRepo       key.Repository
	violationRepo violation.Repository
	locker        keyusecases.KeyLocker
	activator     KeyActivator
	panels        PanelGateway
	metrics       *metrics.Metrics
	logger        logger.Interface
	now           func() time.Time
}

func NewReplaceKeyUseCase(
	keyRepo key.Repository,
	violationRepo violation.Repository,
	locker keyusecases.KeyLocker,
	activator KeyActivator,
	panels PanelGateway,
	m *metrics.Metrics,
	logger logger.Interface,
) *ReplaceKeyUseCase {
	return &ReplaceKeyUseCase{
		keyRepo:       keyRepo,
		violationRepo: violationRepo,
		locker:        locker,
		activator:     activator,
		panels:        panels,
		metrics:       m,
		logger:        logger,
		now:           biztime.NowUTC,
	}
}

// Execute expects the caller to hold the replacement claim of v.
func (uc *ReplaceKeyUseCase) Execute(ctx context.Context, v *violation.Violation) (*ReplaceKeyResult, error) {
	old, err := uc.keyRepo.GetByID(ctx, v.KeyID())
	if err != nil {
		return nil, fmt.Errorf("failed to get key: %w", err)
	}
	if old == nil {
		return nil, key.ErrKeyNotFound
	}
	if !old.IsActive() || old.FinishAt() == nil {
		return nil, fmt.Errorf("key %d is %s and cannot be replaced", old.ID(), old.Status())
	}

	now := uc.now()
	successor, err := key.NewReplacementKey(old, replacementActivationWindow, now)
	if err != nil {
		return nil, fmt.Errorf("failed to build replacement key: %w", err)
	}
	if err := uc.keyRepo.Create(ctx, successor); err != nil {
		return nil, fmt.Errorf("failed to create replacement key: %w", err)
	}

	finishAt := *old.FinishAt()
	activated, err := uc.activator.Execute(ctx, keyusecases.ActivateKeyCommand{
		KeyCode:  successor.Code(),
		UserID:   *old.OwnerUserID(),
		FinishAt: &finishAt,
	})
	if err != nil {
		uc.discard(ctx, successor)
		return nil, fmt.Errorf("failed to activate replacement key: %w", err)
	}

	if err := uc.expireOld(ctx, old.ID()); err != nil {
		// The successor is already live. The old key still expires at its
		// finish time.
		uc.logger.Errorw("failed to expire replaced key", "key_id", old.ID(), "replacement_key_id", activated.ID(), "error", err)
	}

	err = updateViolation(ctx, uc.violationRepo, v.ID(), func(fresh *violation.Violation) error {
		return fresh.Resolve(activated.ID(), uc.now())
	})
	if err != nil {
		uc.logger.Errorw("failed to resolve violation", "violation_id", v.ID(), "replacement_key_id", activated.ID(), "error", err)
	}

	uc.metrics.KeyReplaced()
	uc.logger.Infow("key replaced",
		"violation_id", v.ID(),
		"old_key_id", old.ID(),
		"new_key_id", activated.ID(),
		"owner_user_id", *old.OwnerUserID(),
	)

	result := &ReplaceKeyResult{NewKey: activated}
	if activated.ServerUserID() != nil {
		if _, u, err := uc.panels.ResolveServerUser(ctx, *activated.ServerUserID()); err == nil {
			result.SubscriptionURL = u.SubscriptionURL()
		}
	}
	return result, nil
}

func (uc *ReplaceKeyUseCase) expireOld(ctx context.Context, keyID uint) error {
	unlock, err := uc.locker.Lock(ctx, keyID)
	if err != nil {
		return err
	}
	defer unlock()

	k, err := uc.keyRepo.GetByID(ctx, keyID)
	if err != nil {
		return err
	}
	if k == nil || k.Status() == key.StatusExpired {
		return nil
	}
	serverUserID := k.ServerUserID()
	if err := k.ExpireByReplacement(uc.now()); err != nil {
		return err
	}
	if err := uc.keyRepo.Update(ctx, k); err != nil {
		return err
	}

	if serverUserID != nil {
		if err := uc.panels.RetireServerUser(ctx, *serverUserID); err != nil {
			uc.logger.Warnw("failed to retire server user of replaced key", "key_id", keyID, "server_user_id", *serverUserID, "error", err)
		}
	}
	return nil
}

// discard expires a successor that could not be activated so it cannot be
// redeemed later.
func (uc *ReplaceKeyUseCase) discard(ctx context.Context, k *key.Key) {
	fresh, err := uc.keyRepo.GetByID(ctx, k.ID())
	if err != nil || fresh == nil {
		return
	}
	if fresh.Status() == key.StatusExpired {
		return
	}
	if err := fresh.ExpireByReplacement(uc.now()); err != nil {
		return
	}
	if err := uc.keyRepo.Update(ctx, fresh); err != nil && !errors.Is(err, key.ErrVersionConflict) {
		uc.logger.Warnw("failed to discard replacement key", "key_id", k.ID(), "error", err)
	}
}
