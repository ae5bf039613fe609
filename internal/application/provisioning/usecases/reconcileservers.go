package usecases

import (
	"context"
	"fmt"

	"github.com/orris-inc/keyhub/internal/domain/panel"
	"github.com/orris-inc/keyhub/internal/domain/server"
	"github.com/orris-inc/keyhub/internal/shared/logger"
)

type ReconcileResult struct {
	ServersConfigured int
	PanelsConfigured  int
	Failures          int
}

// ReconcileServersUseCase is the periodic pass that drives pending servers
// and panels forward. Each item fails independently.
type ReconcileServersUseCase struct {
	serverRepo  server.Repository
	panelRepo   panel.Repository
	checkStatus *CheckServerStatusUseCase
	panels      *PanelService
	logger      logger.Interface
}

func NewReconcileServersUseCase(
	serverRepo server.Repository,
	panelRepo panel.Repository,
	checkStatus *CheckServerStatusUseCase,
	panels *PanelService,
	logger logger.Interface,
) *ReconcileServersUseCase {
	return &ReconcileServersUseCase{
		serverRepo:  serverRepo,
		panelRepo:   panelRepo,
		checkStatus: checkStatus,
		panels:      panels,
		logger:      logger,
	}
}

func (uc *ReconcileServersUseCase) Execute(ctx context.Context) (ReconcileResult, error) {
	var result ReconcileResult

	servers, err := uc.serverRepo.ListByStatus(ctx, server.StatusCreated)
	if err != nil {
		return result, fmt.Errorf("failed to list pending servers: %w", err)
	}
	for _, s := range servers {
		updated, err := uc.checkStatus.Execute(ctx, s.ID())
		if err != nil {
			result.Failures++
			continue
		}
		if updated.IsConfigured() {
			result.ServersConfigured++
		}
	}

	pending, err := uc.panelRepo.ListNeedingReconcile(ctx)
	if err != nil {
		return result, fmt.Errorf("failed to list pending panels: %w", err)
	}
	for _, p := range pending {
		if _, err := uc.panels.UpdateToken(ctx, p.ID()); err != nil {
			result.Failures++
			continue
		}
		result.PanelsConfigured++
	}

	if result.ServersConfigured+result.PanelsConfigured+result.Failures > 0 {
		uc.logger.Infow("provisioning reconciled",
			"servers_configured", result.ServersConfigured,
			"panels_configured", result.PanelsConfigured,
			"failures", result.Failures,
		)
	}
	return result, nil
}
