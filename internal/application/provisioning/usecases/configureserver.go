package usecases

import (
	"context"
	"fmt"
	"strconv"

	"github.com/orris-inc/keyhub/internal/domain/server"
	"github.com/orris-inc/keyhub/internal/infrastructure/provider"
	"github.com/orris-inc/keyhub/internal/shared/biztime"
	apperrors "github.com/orris-inc/keyhub/internal/shared/errors"
	"github.com/orris-inc/keyhub/internal/shared/id"
	"github.com/orris-inc/keyhub/internal/shared/logger"
)

type ConfigureServerCommand struct {
	Provider   string
	LocationID uint
	IsFree     bool
}

// ConfigureServerUseCase rents a new VM. The server stays Created until
// CheckServerStatusUseCase sees it running.
type ConfigureServerUseCase struct {
	registry     ProviderRegistry
	serverRepo   server.Repository
	locationRepo server.LocationRepository
	logger       logger.Interface
}

func NewConfigureServerUseCase(
	registry ProviderRegistry,
	serverRepo server.Repository,
	locationRepo server.LocationRepository,
	logger logger.Interface,
) *ConfigureServerUseCase {
	return &ConfigureServerUseCase{
		registry:     registry,
		serverRepo:   serverRepo,
		locationRepo: locationRepo,
		logger:       logger,
	}
}

func (uc *ConfigureServerUseCase) Execute(ctx context.Context, cmd ConfigureServerCommand) (*server.Server, error) {
	vendor, err := uc.registry.ServerProvider(cmd.Provider)
	if err != nil {
		return nil, err
	}

	loc, err := uc.locationRepo.GetByID(ctx, cmd.LocationID)
	if err != nil {
		return nil, fmt.Errorf("failed to get location: %w", err)
	}
	if loc == nil {
		return nil, apperrors.NewNotFoundError("location not found", strconv.FormatUint(uint64(cmd.LocationID), 10))
	}

	name, err := id.NewServerName()
	if err != nil {
		return nil, fmt.Errorf("failed to generate server name: %w", err)
	}

	vm, err := vendor.CreateServer(ctx, provider.ServerSpec{Name: name, Location: loc.Code, IsFree: cmd.IsFree})
	if err != nil {
		uc.logger.Errorw("failed to create vm",
			"provider", cmd.Provider,
			"location", loc.Code,
			"error", err,
		)
		return nil, err
	}

	now := biztime.NowUTC()
	s, err := server.NewServer(vendor.Name(), vm.ID, loc.ID, name, cmd.IsFree, now)
	if err != nil {
		return nil, err
	}
	if vm.RootPassword != "" {
		s.SetRootPassword(vm.RootPassword, now)
	}

	if err := uc.serverRepo.Create(ctx, s); err != nil {
		uc.logger.Errorw("vm created but not recorded, delete it at the vendor manually",
			"provider", vendor.Name(),
			"provider_server_id", vm.ID,
			"error", err,
		)
		return nil, fmt.Errorf("failed to save server: %w", err)
	}

	uc.logger.Infow("server ordered",
		"server_id", s.ID(),
		"provider", vendor.Name(),
		"provider_server_id", vm.ID,
		"location", loc.Code,
	)
	return s, nil
}
