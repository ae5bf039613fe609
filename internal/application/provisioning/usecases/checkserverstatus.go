package usecases

import (
	"context"
	"fmt"
	"strconv"

	"github.com/orris-inc/keyhub/internal/domain/server"
	"github.com/orris-inc/keyhub/internal/infrastructure/provider"
	"github.com/orris-inc/keyhub/internal/shared/biztime"
	apperrors "github.com/orris-inc/keyhub/internal/shared/errors"
	"github.com/orris-inc/keyhub/internal/shared/logger"
)

// CheckServerStatusUseCase finishes provisioning of a server once the vendor
// reports it running: it rotates the root password, points DNS at the VM and
// marks the server Configured.
type CheckServerStatusUseCase struct {
	registry   ProviderRegistry
	serverRepo server.Repository
	dns        *DNSRecordManager
	logger     logger.Interface
}

func NewCheckServerStatusUseCase(
	registry ProviderRegistry,
	serverRepo server.Repository,
	dns *DNSRecordManager,
	logger logger.Interface,
) *CheckServerStatusUseCase {
	return &CheckServerStatusUseCase{
		registry:   registry,
		serverRepo: serverRepo,
		dns:        dns,
		logger:     logger,
	}
}

func (uc *CheckServerStatusUseCase) Execute(ctx context.Context, serverID uint) (*server.Server, error) {
	s, err := uc.serverRepo.GetByID(ctx, serverID)
	if err != nil {
		return nil, fmt.Errorf("failed to get server: %w", err)
	}
	if s == nil {
		return nil, apperrors.NewNotFoundError("server not found", strconv.FormatUint(uint64(serverID), 10))
	}
	if !s.IsProvisioning() {
		return s, nil
	}

	vendor, err := uc.registry.ServerProvider(s.Provider())
	if err != nil {
		return nil, err
	}

	vm, err := vendor.GetServer(ctx, s.ProviderServerID())
	if err != nil {
		return nil, uc.fail(ctx, s, err)
	}
	if vm.State != provider.VMRunning || vm.IPv4 == "" {
		uc.logger.Debugw("server not ready yet", "server_id", s.ID(), "state", vm.State)
		return s, nil
	}

	password, err := vendor.ResetRootPassword(ctx, vm, s.RootPassword())
	if err != nil {
		return nil, uc.fail(ctx, s, err)
	}
	s.SetRootPassword(password, biztime.NowUTC())

	var domain, recordID string
	if uc.dns.Enabled() {
		domain = uc.dns.FQDN(s.Name())
		rec, err := uc.dns.Ensure(ctx, domain, vm.IPv4)
		if err != nil {
			return nil, uc.fail(ctx, s, err)
		}
		recordID = rec.ID
	}

	if err := s.MarkConfigured(vm.IPv4, domain, recordID, biztime.NowUTC()); err != nil {
		return nil, err
	}
	if err := uc.serverRepo.Update(ctx, s); err != nil {
		return nil, fmt.Errorf("failed to save configured server: %w", err)
	}

	uc.logger.Infow("server configured",
		"server_id", s.ID(),
		"provider", s.Provider(),
		"ip", vm.IPv4,
		"domain", domain,
	)
	return s, nil
}

// fail records a provisioning error on the server. The rotated password, if
// any, is persisted along with it.
func (uc *CheckServerStatusUseCase) fail(ctx context.Context, s *server.Server, cause error) error {
	s.MarkError(cause.Error(), biztime.NowUTC())
	if err := uc.serverRepo.Update(ctx, s); err != nil {
		uc.logger.Errorw("failed to record server error", "server_id", s.ID(), "error", err)
	}
	uc.logger.Warnw("server provisioning step failed",
		"server_id", s.ID(),
		"provider", s.Provider(),
		"kind", provider.KindOf(cause),
		"error", cause,
	)
	return cause
}
