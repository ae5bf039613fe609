package usecases

import (
	"context"
	"fmt"

	"github.com/orris-inc/keyhub/internal/domain/key"
	"github.com/orris-inc/keyhub/internal/domain/notification"
	"github.com/orris-inc/keyhub/internal/domain/violation"
	"github.com/orris-inc/keyhub/internal/shared/logger"
)

const retrySweepPageSize = 100

type RetryNotificationsUseCase struct {
	violationRepo violation.Repository
	keyRepo       key.Repository
	panels        PanelGateway
	notifier      *ViolationNotifier
	maxRetries    int
	logger        logger.Interface
}

func NewRetryNotificationsUseCase(
	violationRepo violation.Repository,
	keyRepo key.Repository,
	panels PanelGateway,
	notifier *ViolationNotifier,
	maxRetries int,
	logger logger.Interface,
) *RetryNotificationsUseCase {
	return &RetryNotificationsUseCase{
		violationRepo: violationRepo,
		keyRepo:       keyRepo,
		panels:        panels,
		notifier:      notifier,
		maxRetries:    maxRetries,
		logger:        logger,
	}
}

// Execute resends the last message of every violation whose delivery failed
// for a technical reason. It returns how many were delivered this time.
func (uc *RetryNotificationsUseCase) Execute(ctx context.Context) (int, error) {
	pending, err := uc.violationRepo.ListPendingRetry(ctx, uc.maxRetries, retrySweepPageSize)
	if err != nil {
		return 0, fmt.Errorf("failed to list violations pending retry: %w", err)
	}

	delivered := 0
	for _, v := range pending {
		if err := ctx.Err(); err != nil {
			return delivered, err
		}
		if !v.NeedsRetry(uc.maxRetries) {
			continue
		}
		outcome, err := uc.resend(ctx, v)
		if err != nil {
			uc.logger.Warnw("cannot resend violation notice", "violation_id", v.ID(), "error", err)
			continue
		}
		if outcome.CountsAsSent() {
			delivered++
		}
	}
	return delivered, nil
}

func (uc *RetryNotificationsUseCase) resend(ctx context.Context, v *violation.Violation) (notification.Outcome, error) {
	k, err := uc.keyRepo.GetByID(ctx, v.KeyID())
	if err != nil {
		return "", err
	}
	if k == nil {
		return "", key.ErrKeyNotFound
	}

	var replacement *key.Key
	subscriptionURL := ""
	if v.NotificationStep() == violation.StepReplace {
		if v.ReplacementKeyID() == nil {
			return "", fmt.Errorf("violation %d has no replacement key", v.ID())
		}
		replacement, err = uc.keyRepo.GetByID(ctx, *v.ReplacementKeyID())
		if err != nil {
			return "", err
		}
		if replacement == nil {
			return "", key.ErrKeyNotFound
		}
		if replacement.ServerUserID() != nil {
			if _, u, err := uc.panels.ResolveServerUser(ctx, *replacement.ServerUserID()); err == nil {
				subscriptionURL = u.SubscriptionURL()
			}
		}
	}

	return uc.notifier.Notify(ctx, v, v.NotificationStep(), k, replacement, subscriptionURL), nil
}
