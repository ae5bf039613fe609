package usecases

import (
	"context"
	"fmt"

	"github.com/orris-inc/keyhub/internal/domain/key"
	"github.com/orris-inc/keyhub/internal/domain/violation"
	"github.com/orris-inc/keyhub/internal/shared/logger"
)

const connectionSweepPageSize = 200

type CheckConnectionsResult struct {
	Checked    int
	Violations int
	Failures   int
}

// CheckConnectionsUseCase asks each panel which addresses an active key is
// connected from and feeds the over-limit ones into the escalation ladder.
type CheckConnectionsUseCase struct {
	keyRepo  key.Repository
	panels   PanelGateway
	recorder *RecordViolationUseCase
	logger   logger.Interface
}

func NewCheckConnectionsUseCase(keyRepo key.Repository, panels PanelGateway, recorder *RecordViolationUseCase, logger logger.Interface) *CheckConnectionsUseCase {
	return &CheckConnectionsUseCase{keyRepo: keyRepo, panels: panels, recorder: recorder, logger: logger}
}

func (uc *CheckConnectionsUseCase) Execute(ctx context.Context) (CheckConnectionsResult, error) {
	// Replacements expire keys while we iterate, so the whole set is read first.
	var keys []*key.Key
	for offset := 0; ; offset += connectionSweepPageSize {
		page, err := uc.keyRepo.ListActiveWithServerUser(ctx, connectionSweepPageSize, offset)
		if err != nil {
			return CheckConnectionsResult{}, fmt.Errorf("failed to list active keys: %w", err)
		}
		keys = append(keys, page...)
		if len(page) < connectionSweepPageSize {
			break
		}
	}

	var res CheckConnectionsResult
	for _, k := range keys {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		res.Checked++
		escalated, err := uc.checkKey(ctx, k)
		if err != nil {
			res.Failures++
			uc.logger.Warnw("connection check failed", "key_id", k.ID(), "error", err)
			continue
		}
		if escalated {
			res.Violations++
		}
	}

	uc.logger.Infow("connection sweep finished",
		"checked", res.Checked,
		"violations", res.Violations,
		"failures", res.Failures,
	)
	return res, nil
}

func (uc *CheckConnectionsUseCase) checkKey(ctx context.Context, k *key.Key) (bool, error) {
	p, u, err := uc.panels.ResolveServerUser(ctx, *k.ServerUserID())
	if err != nil {
		return false, err
	}
	status, err := uc.panels.CheckOnline(ctx, p, u)
	if err != nil {
		return false, err
	}

	ips := violation.NormalizeIPs(status.IPs)
	d := violation.Detection{
		KeyID:        k.ID(),
		ServerUserID: u.ID(),
		PanelID:      p.ID(),
		Allowed:      k.ConnectionLimit(),
		Actual:       len(ips),
		IPs:          ips,
	}
	if !d.Exceeded() {
		return false, nil
	}

	res, err := uc.recorder.Execute(ctx, d)
	if err != nil {
		return false, err
	}
	return res.Skipped == "", nil
}
