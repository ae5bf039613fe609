package usecases

import (
	"context"
	"fmt"
	"strconv"

	"github.com/orris-inc/keyhub/internal/domain/panel"
	"github.com/orris-inc/keyhub/internal/domain/server"
	"github.com/orris-inc/keyhub/internal/shared/biztime"
	apperrors "github.com/orris-inc/keyhub/internal/shared/errors"
	"github.com/orris-inc/keyhub/internal/shared/logger"
)

// DeleteServerUseCase tears a server down. The server is flagged for deletion
// and its panel leaves rotation before anything is removed at a vendor; then
// the DNS record goes, then the VM. A failure part way leaves the server in
// Error with whatever was already removed recorded as such.
type DeleteServerUseCase struct {
	registry   ProviderRegistry
	serverRepo server.Repository
	panelRepo  panel.Repository
	dns        *DNSRecordManager
	logger     logger.Interface
}

func NewDeleteServerUseCase(
	registry ProviderRegistry,
	serverRepo server.Repository,
	panelRepo panel.Repository,
	dns *DNSRecordManager,
	logger logger.Interface,
) *DeleteServerUseCase {
	return &DeleteServerUseCase{
		registry:   registry,
		serverRepo: serverRepo,
		panelRepo:  panelRepo,
		dns:        dns,
		logger:     logger,
	}
}

func (uc *DeleteServerUseCase) Execute(ctx context.Context, serverID uint) error {
	s, err := uc.serverRepo.GetByID(ctx, serverID)
	if err != nil {
		return fmt.Errorf("failed to get server: %w", err)
	}
	if s == nil {
		return apperrors.NewNotFoundError("server not found", strconv.FormatUint(uint64(serverID), 10))
	}
	if s.Status() == server.StatusDeleted {
		return nil
	}

	vendor, err := uc.registry.ServerProvider(s.Provider())
	if err != nil {
		return err
	}

	s.RequestDeletion(biztime.NowUTC())
	if err := uc.serverRepo.Update(ctx, s); err != nil {
		return fmt.Errorf("failed to flag server for deletion: %w", err)
	}
	if err := uc.retirePanel(ctx, s.ID()); err != nil {
		return err
	}

	if s.DNSRecordID() != "" {
		if err := uc.dns.Remove(ctx, s.DNSRecordID()); err != nil {
			return uc.fail(ctx, s, "dns", err)
		}
		s.ClearDNS(biztime.NowUTC())
	}

	if err := vendor.DeleteServer(ctx, s.ProviderServerID()); err != nil {
		return uc.fail(ctx, s, "vm", err)
	}

	if err := s.MarkDeleted(biztime.NowUTC()); err != nil {
		return err
	}
	if err := uc.serverRepo.Update(ctx, s); err != nil {
		return fmt.Errorf("failed to save deleted server: %w", err)
	}

	uc.logger.Infow("server deleted", "server_id", s.ID(), "provider", s.Provider())
	return nil
}

func (uc *DeleteServerUseCase) retirePanel(ctx context.Context, serverID uint) error {
	p, err := uc.panelRepo.GetByServerID(ctx, serverID)
	if err != nil {
		return fmt.Errorf("failed to get panel: %w", err)
	}
	if p == nil || p.IsDeleted() {
		return nil
	}
	p.MarkDeleted(biztime.NowUTC())
	if err := uc.panelRepo.Update(ctx, p); err != nil {
		return fmt.Errorf("failed to retire panel: %w", err)
	}
	uc.logger.Infow("panel retired with its server", "panel_id", p.ID(), "server_id", serverID)
	return nil
}

func (uc *DeleteServerUseCase) fail(ctx context.Context, s *server.Server, stage string, cause error) error {
	s.MarkError(fmt.Sprintf("delete %s: %v", stage, cause), biztime.NowUTC())
	if err := uc.serverRepo.Update(ctx, s); err != nil {
		uc.logger.Errorw("failed to record server error", "server_id", s.ID(), "error", err)
	}
	uc.logger.Warnw("server deletion failed", "server_id", s.ID(), "stage", stage, "error", cause)
	return cause
}
