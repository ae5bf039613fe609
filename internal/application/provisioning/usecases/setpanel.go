package usecases

import (
	"context"
	"fmt"
	"strconv"

	"github.com/orris-inc/keyhub/internal/domain/panel"
	"github.com/orris-inc/keyhub/internal/domain/server"
	"github.com/orris-inc/keyhub/internal/infrastructure/provider"
	"github.com/orris-inc/keyhub/internal/shared/biztime"
	apperrors "github.com/orris-inc/keyhub/internal/shared/errors"
	"github.com/orris-inc/keyhub/internal/shared/id"
	"github.com/orris-inc/keyhub/internal/shared/logger"
)

type SetPanelCommand struct {
	ServerID  uint
	PanelType panel.Type
}

// SetPanelUseCase installs a VPN panel on a configured server and registers it.
type SetPanelUseCase struct {
	registry   ProviderRegistry
	serverRepo server.Repository
	panelRepo  panel.Repository
	remote     RemoteExecutor
	panels     *PanelService
	logger     logger.Interface
}

func NewSetPanelUseCase(
	registry ProviderRegistry,
	serverRepo server.Repository,
	panelRepo panel.Repository,
	remote RemoteExecutor,
	panels *PanelService,
	logger logger.Interface,
) *SetPanelUseCase {
	return &SetPanelUseCase{
		registry:   registry,
		serverRepo: serverRepo,
		panelRepo:  panelRepo,
		remote:     remote,
		panels:     panels,
		logger:     logger,
	}
}

// Execute returns the panel even when the first token fetch fails; the panel
// is then in Error and the reconcile job retries it.
func (uc *SetPanelUseCase) Execute(ctx context.Context, cmd SetPanelCommand) (*panel.Panel, error) {
	installer, err := uc.registry.Installer(cmd.PanelType)
	if err != nil {
		return nil, err
	}

	s, err := uc.serverRepo.GetByID(ctx, cmd.ServerID)
	if err != nil {
		return nil, fmt.Errorf("failed to get server: %w", err)
	}
	if s == nil {
		return nil, apperrors.NewNotFoundError("server not found", strconv.FormatUint(uint64(cmd.ServerID), 10))
	}
	if !s.IsConfigured() {
		return nil, apperrors.NewConflictError("server is not configured", string(s.Status()))
	}

	existing, err := uc.panelRepo.GetByServerID(ctx, s.ID())
	if err != nil {
		return nil, fmt.Errorf("failed to check existing panel: %w", err)
	}
	if existing != nil {
		return nil, apperrors.NewConflictError("server already has a panel", strconv.FormatUint(uint64(existing.ID()), 10))
	}

	username, err := id.GenerateWithPrefix("khadmin", 6)
	if err != nil {
		return nil, err
	}
	password, err := id.NewSecret()
	if err != nil {
		return nil, err
	}

	command, answers, err := installer.InstallScript(username, password)
	if err != nil {
		return nil, err
	}
	if err := uc.remote.Upload(ctx, s.IP(), s.RootPassword(), provider.AnswersPath, answers); err != nil {
		return nil, uc.installFailed(s, cmd.PanelType, err)
	}
	if _, err := uc.remote.Run(ctx, s.IP(), s.RootPassword(), command, nil); err != nil {
		return nil, uc.installFailed(s, cmd.PanelType, err)
	}

	host := s.Domain()
	if host == "" {
		host = s.IP()
	}
	p, err := panel.NewPanel(s.ID(), cmd.PanelType, installer.APIURL(host), username, password, biztime.NowUTC())
	if err != nil {
		return nil, err
	}
	if err := uc.panelRepo.Create(ctx, p); err != nil {
		return nil, fmt.Errorf("failed to save panel: %w", err)
	}
	uc.logger.Infow("panel installed",
		"server_id", s.ID(),
		"panel_id", p.ID(),
		"panel_type", cmd.PanelType,
	)

	configured, err := uc.panels.UpdateToken(ctx, p.ID())
	if err != nil {
		if reloaded, getErr := uc.panelRepo.GetByID(ctx, p.ID()); getErr == nil && reloaded != nil {
			p = reloaded
		}
		return p, err
	}
	return configured, nil
}

func (uc *SetPanelUseCase) installFailed(s *server.Server, t panel.Type, err error) error {
	uc.logger.Errorw("panel installation failed",
		"server_id", s.ID(),
		"panel_type", t,
		"error", err,
	)
	return provider.Unreachable(string(t), "install", err)
}
