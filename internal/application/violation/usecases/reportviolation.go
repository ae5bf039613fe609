package usecases

import (
	"context"
	"fmt"
	"strings"

	"github.com/orris-inc/keyhub/internal/domain/key"
	"github.com/orris-inc/keyhub/internal/domain/panel"
	"github.com/orris-inc/keyhub/internal/domain/violation"
	apperrors "github.com/orris-inc/keyhub/internal/shared/errors"
	"github.com/orris-inc/keyhub/internal/shared/logger"
)

// ReportViolationCommand is what an external log observer posts when it sees
// a panel account connected from too many addresses.
type ReportViolationCommand struct {
	UserIdentifier   string
	DetectedIPsCount int
	Limit            int
	AllUserIPs       []string
}

type ReportViolationUseCase struct {
	serverUserRepo panel.ServerUserRepository
	keyRepo        key.Repository
	recorder       *RecordViolationUseCase
	logger         logger.Interface
}

func NewReportViolationUseCase(
	serverUserRepo panel.ServerUserRepository,
	keyRepo key.Repository,
	recorder *RecordViolationUseCase,
	logger logger.Interface,
) *ReportViolationUseCase {
	return &ReportViolationUseCase{
		serverUserRepo: serverUserRepo,
		keyRepo:        keyRepo,
		recorder:       recorder,
		logger:         logger,
	}
}

func (uc *ReportViolationUseCase) Execute(ctx context.Context, cmd ReportViolationCommand) (*RecordResult, error) {
	username := strings.TrimSpace(cmd.UserIdentifier)
	if username == "" {
		return nil, apperrors.NewValidationError("user identifier is required")
	}

	u, err := uc.serverUserRepo.GetByUsername(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("failed to get server user: %w", err)
	}
	if u == nil {
		return nil, apperrors.NewNotFoundError("server user not found", username)
	}

	allowed := cmd.Limit
	if allowed <= 0 {
		k, err := uc.keyRepo.GetByID(ctx, u.KeyID())
		if err != nil {
			return nil, fmt.Errorf("failed to get key: %w", err)
		}
		if k == nil {
			return nil, apperrors.NewNotFoundError("key not found")
		}
		allowed = k.ConnectionLimit()
	}

	ips := violation.NormalizeIPs(cmd.AllUserIPs)
	actual := max(cmd.DetectedIPsCount, len(ips))

	res, err := uc.recorder.Execute(ctx, violation.Detection{
		KeyID:        u.KeyID(),
		ServerUserID: u.ID(),
		PanelID:      u.PanelID(),
		Allowed:      allowed,
		Actual:       actual,
		IPs:          ips,
	})
	if err != nil {
		return nil, err
	}
	uc.logger.Infow("violation report processed",
		"username", username,
		"key_id", u.KeyID(),
		"actual", actual,
		"allowed", allowed,
		"skipped", res.Skipped,
	)
	return res, nil
}
