package usecases

import (
	"context"
	"fmt"
	"time"

	"github.com/orris-inc/keyhub/internal/domain/key"
	"github.com/orris-inc/keyhub/internal/domain/notification"
	"github.com/orris-inc/keyhub/internal/domain/violation"
	"github.com/orris-inc/keyhub/internal/infrastructure/metrics"
	"github.com/orris-inc/keyhub/internal/shared/biztime"
	"github.com/orris-inc/keyhub/internal/shared/logger"
)

// SkipReason explains why a detection did not advance the escalation ladder.
type SkipReason string

const (
	SkipWithinLimit        SkipReason = "within_limit"
	SkipKeyInactive        SkipReason = "key_inactive"
	SkipStaleServerUser    SkipReason = "stale_server_user"
	SkipCooldown           SkipReason = "cooldown"
	SkipIgnored            SkipReason = "ignored"
	SkipResolved           SkipReason = "resolved"
	SkipReplacementClaimed SkipReason = "replacement_claimed"
)

type RecordResult struct {
	Violation      *violation.Violation
	Step           violation.Step
	Outcome        notification.Outcome
	ReplacementKey *key.Key
	Skipped        SkipReason
}

// RecordViolationUseCase counts a detection against the key's violation and
// runs the escalation step the new count maps to.
type RecordViolationUseCase struct {
	violationRepo violation.Repository
	reconciler    KeyReconciler
	replacer      *ReplaceKeyUseCase
	notifier      *ViolationNotifier
	dedup         ReportDeduplicator
	cooldown      time.Duration
	txManager     TransactionRunner
	metrics       *metrics.Metrics
	logger        logger.Interface
	now           func() time.Time
}

// NewRecordViolationUseCase builds the use case. dedup may be nil to count
// every detection.
func NewRecordViolationUseCase(
	violationRepo violation.Repository,
	reconciler KeyReconciler,
	replacer *ReplaceKeyUseCase,
	notifier *ViolationNotifier,
	dedup ReportDeduplicator,
	cooldown time.Duration,
	txManager TransactionRunner,
	m *metrics.Metrics,
	logger logger.Interface,
) *RecordViolationUseCase {
	return &RecordViolationUseCase{
		violationRepo: violationRepo,
		reconciler:    reconciler,
		replacer:      replacer,
		notifier:      notifier,
		dedup:         dedup,
		cooldown:      cooldown,
		txManager:     txManager,
		metrics:       m,
		logger:        logger,
		now:           biztime.NowUTC,
	}
}

func (uc *RecordViolationUseCase) Execute(ctx context.Context, d violation.Detection) (*RecordResult, error) {
	if !d.Exceeded() {
		return &RecordResult{Skipped: SkipWithinLimit}, nil
	}

	k, err := uc.reconciler.Execute(ctx, d.KeyID)
	if err != nil {
		return nil, err
	}
	if !k.IsActive() {
		return &RecordResult{Skipped: SkipKeyInactive}, nil
	}
	if k.ServerUserID() == nil || *k.ServerUserID() != d.ServerUserID {
		return &RecordResult{Skipped: SkipStaleServerUser}, nil
	}

	if uc.dedup != nil && uc.cooldown > 0 {
		admitted, err := uc.dedup.TryAcquire(ctx, d.KeyID, uc.cooldown)
		if err != nil {
			uc.logger.Warnw("report deduplication unavailable, counting detection", "key_id", d.KeyID, "error", err)
		} else if !admitted {
			return &RecordResult{Skipped: SkipCooldown}, nil
		}
	}

	var v *violation.Violation
	now := uc.now()
	err = uc.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		found, err := uc.violationRepo.FindOrCreate(ctx, d, now)
		if err != nil {
			return err
		}
		switch found.Status() {
		case violation.StatusIgnored:
			v = found
			return uc.violationRepo.RefreshObservation(ctx, found.ID(), d, now)
		case violation.StatusResolved:
			v = found
			return nil
		}
		v, err = uc.violationRepo.IncrementCount(ctx, found.ID(), d, now)
		return err
	})
	if err != nil {
		uc.logger.Errorw("failed to record violation", "key_id", d.KeyID, "error", err)
		return nil, fmt.Errorf("failed to record violation: %w", err)
	}

	switch v.Status() {
	case violation.StatusIgnored:
		return &RecordResult{Violation: v, Skipped: SkipIgnored}, nil
	case violation.StatusResolved:
		return &RecordResult{Violation: v, Skipped: SkipResolved}, nil
	}

	step := violation.StepFor(v.ViolationCount())
	uc.metrics.Violation(string(step))
	uc.logger.Infow("violation recorded",
		"violation_id", v.ID(),
		"key_id", d.KeyID,
		"count", v.ViolationCount(),
		"allowed", d.Allowed,
		"actual", d.Actual,
		"step", step,
	)

	if step != violation.StepReplace {
		outcome := uc.notifier.Notify(ctx, v, step, k, nil, "")
		return &RecordResult{Violation: v, Step: step, Outcome: outcome}, nil
	}
	return uc.replace(ctx, v, k)
}

func (uc *RecordViolationUseCase) replace(ctx context.Context, v *violation.Violation, k *key.Key) (*RecordResult, error) {
	if v.IsReplacementClaimed() {
		return &RecordResult{Violation: v, Step: violation.StepReplace, Skipped: SkipReplacementClaimed}, nil
	}
	won, err := uc.violationRepo.ClaimReplacement(ctx, v.ID(), uc.now())
	if err != nil {
		return nil, fmt.Errorf("failed to claim key replacement: %w", err)
	}
	if !won {
		return &RecordResult{Violation: v, Step: violation.StepReplace, Skipped: SkipReplacementClaimed}, nil
	}

	res, err := uc.replacer.Execute(ctx, v)
	if err != nil {
		if releaseErr := uc.violationRepo.ReleaseReplacement(ctx, v.ID()); releaseErr != nil {
			uc.logger.Errorw("failed to release replacement claim", "violation_id", v.ID(), "error", releaseErr)
		}
		uc.logger.Errorw("key replacement failed", "violation_id", v.ID(), "key_id", k.ID(), "error", err)
		return nil, fmt.Errorf("failed to replace key: %w", err)
	}

	outcome := uc.notifier.Notify(ctx, v, violation.StepReplace, k, res.NewKey, res.SubscriptionURL)
	if fresh, err := uc.violationRepo.GetByID(ctx, v.ID()); err == nil && fresh != nil {
		v = fresh
	}
	return &RecordResult{
		Violation:      v,
		Step:           violation.StepReplace,
		Outcome:        outcome,
		ReplacementKey: res.NewKey,
	}, nil
}
