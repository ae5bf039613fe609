package usecases

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/orris-inc/keyhub/internal/domain/key"
	"github.com/orris-inc/keyhub/internal/domain/notification"
	"github.com/orris-inc/keyhub/internal/domain/violation"
	"github.com/orris-inc/keyhub/internal/shared/biztime"
	"github.com/orris-inc/keyhub/internal/shared/logger"
)

const updateAttempts = 3

// ViolationNotifier sends escalation messages and keeps the delivery
// bookkeeping of the violation in step with what was sent.
type ViolationNotifier struct {
	dispatcher    Dispatcher
	violationRepo violation.Repository
	supportURL    string
	logger        logger.Interface
	now           func() time.Time
}

func NewViolationNotifier(dispatcher Dispatcher, violationRepo violation.Repository, supportURL string, logger logger.Interface) *ViolationNotifier {
	return &ViolationNotifier{
		dispatcher:    dispatcher,
		violationRepo: violationRepo,
		supportURL:    supportURL,
		logger:        logger,
		now:           biztime.NowUTC,
	}
}

// Notify sends the message for step about k and records the outcome on the
// violation. replacement and subscriptionURL are only used for StepReplace.
func (n *ViolationNotifier) Notify(ctx context.Context, v *violation.Violation, step violation.Step, k, replacement *key.Key, subscriptionURL string) notification.Outcome {
	notice, err := n.buildNotice(v, step, k, replacement, subscriptionURL)
	if err != nil {
		n.logger.Warnw("cannot build violation notice", "violation_id", v.ID(), "step", step, "error", err)
		return notification.OutcomeUserNotFound
	}

	notice.SkipParts = v.DeliveredParts(step)

	res := n.dispatcher.Send(ctx, k.BatchID(), notice)
	delivery := notification.Delivery{Outcome: res.Outcome, PartsSent: res.PartsSent}
	if err := n.record(ctx, v.ID(), step, delivery); err != nil {
		n.logger.Errorw("failed to record notification outcome",
			"violation_id", v.ID(),
			"step", step,
			"outcome", res.Outcome,
			"error", err,
		)
	}
	return res.Outcome
}

func (n *ViolationNotifier) buildNotice(v *violation.Violation, step violation.Step, k, replacement *key.Key, subscriptionURL string) (notification.Notice, error) {
	if k.OwnerUserID() == nil {
		return notification.Notice{}, fmt.Errorf("key %d has no owner", k.ID())
	}
	notice := notification.Notice{
		Recipient:  *k.OwnerUserID(),
		Allowed:    v.AllowedConnections(),
		Actual:     v.ActualConnections(),
		SupportURL: n.supportURL,
	}
	switch step {
	case violation.StepWarning1:
		notice.Template = notification.TemplateViolationWarning1
	case violation.StepWarning2:
		notice.Template = notification.TemplateViolationWarning2
	case violation.StepReplace:
		if replacement == nil {
			return notification.Notice{}, fmt.Errorf("replacement key is required")
		}
		notice.Template = notification.TemplateKeyReplaced
		notice.KeyCode = replacement.Code()
		notice.SubscriptionURL = subscriptionURL
	default:
		return notification.Notice{}, fmt.Errorf("unknown escalation step %q", step)
	}
	return notice, nil
}

func (n *ViolationNotifier) record(ctx context.Context, violationID uint, step violation.Step, d notification.Delivery) error {
	return updateViolation(ctx, n.violationRepo, violationID, func(v *violation.Violation) error {
		v.RecordDelivery(step, d, n.now())
		return nil
	})
}

// updateViolation re-reads the violation and applies mutate until the
// versioned write succeeds. Counter updates and claims bump the version
// concurrently, so a stale copy is expected.
func updateViolation(ctx context.Context, repo violation.Repository, id uint, mutate func(v *violation.Violation) error) error {
	var lastErr error
	for range updateAttempts {
		v, err := repo.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if v == nil {
			return violation.ErrViolationNotFound
		}
		if err := mutate(v); err != nil {
			return err
		}
		lastErr = repo.Update(ctx, v)
		if lastErr == nil || !errors.Is(lastErr, violation.ErrVersionConflict) {
			return lastErr
		}
	}
	return lastErr
}
