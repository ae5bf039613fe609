package usecases

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/orris-inc/keyhub/internal/domain/violation"
	"github.com/orris-inc/keyhub/internal/shared/biztime"
	apperrors "github.com/orris-inc/keyhub/internal/shared/errors"
	"github.com/orris-inc/keyhub/internal/shared/logger"
)

// IgnoreViolationUseCase lets an operator stop escalation for a violation
// they judged to be a false positive.
type IgnoreViolationUseCase struct {
	violationRepo violation.Repository
	logger        logger.Interface
	now           func() time.Time
}

func NewIgnoreViolationUseCase(violationRepo violation.Repository, logger logger.Interface) *IgnoreViolationUseCase {
	return &IgnoreViolationUseCase{violationRepo: violationRepo, logger: logger, now: biztime.NowUTC}
}

func (uc *IgnoreViolationUseCase) Execute(ctx context.Context, violationID uint) (*violation.Violation, error) {
	var ignored *violation.Violation
	err := updateViolation(ctx, uc.violationRepo, violationID, func(v *violation.Violation) error {
		ignored = v
		return v.Ignore(uc.now())
	})
	switch {
	case err == nil:
	case errors.Is(err, violation.ErrViolationNotFound):
		return nil, apperrors.NewNotFoundError("violation not found", strconv.FormatUint(uint64(violationID), 10))
	case errors.Is(err, violation.ErrInvalidStatusTransition):
		return nil, apperrors.NewConflictError("violation is no longer active")
	case errors.Is(err, violation.ErrVersionConflict):
		return nil, apperrors.NewConflictError("violation was modified concurrently, retry")
	default:
		return nil, fmt.Errorf("failed to ignore violation: %w", err)
	}

	uc.logger.Infow("violation ignored", "violation_id", violationID, "key_id", ignored.KeyID())
	return ignored, nil
}
