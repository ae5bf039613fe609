package handlers

import (
	"context"

	keydto "github.com/orris-inc/keyhub/internal/application/key/dto"
	keyusecases "github.com/orris-inc/keyhub/internal/application/key/usecases"
	packusecases "github.com/orris-inc/keyhub/internal/application/pack/usecases"
	provisioningusecases "github.com/orris-inc/keyhub/internal/application/provisioning/usecases"
	violationusecases "github.com/orris-inc/keyhub/internal/application/violation/usecases"
	"github.com/orris-inc/keyhub/internal/domain/key"
	"github.com/orris-inc/keyhub/internal/domain/pack"
	"github.com/orris-inc/keyhub/internal/domain/panel"
	"github.com/orris-inc/keyhub/internal/domain/server"
	"github.com/orris-inc/keyhub/internal/domain/violation"
)

// Use case ports, one per operation, so handlers can be tested with fakes.

type getKeyUseCase interface {
	Execute(ctx context.Context, code string) (*keydto.KeyDTO, error)
}

type activateKeyUseCase interface {
	Execute(ctx context.Context, cmd keyusecases.ActivateKeyCommand) (*key.Key, error)
}

type transferKeyUseCase interface {
	Execute(ctx context.Context, cmd keyusecases.TransferKeyCommand) (*key.Key, error)
}

type createBatchUseCase interface {
	Execute(ctx context.Context, cmd packusecases.CreateBatchCommand) (*pack.PackBatch, error)
}

type completeBatchPaymentUseCase interface {
	Execute(ctx context.Context, cmd packusecases.CompleteBatchCommand) (*packusecases.CompleteBatchResult, error)
}

type reportViolationUseCase interface {
	Execute(ctx context.Context, cmd violationusecases.ReportViolationCommand) (*violationusecases.RecordResult, error)
}

type ignoreViolationUseCase interface {
	Execute(ctx context.Context, id uint) (*violation.Violation, error)
}

type configureServerUseCase interface {
	Execute(ctx context.Context, cmd provisioningusecases.ConfigureServerCommand) (*server.Server, error)
}

type checkServerStatusUseCase interface {
	Execute(ctx context.Context, id uint) (*server.Server, error)
}

type setPanelUseCase interface {
	Execute(ctx context.Context, cmd provisioningusecases.SetPanelCommand) (*panel.Panel, error)
}

type deleteServerUseCase interface {
	Execute(ctx context.Context, id uint) error
}

// panelOperations is the subset of PanelService exposed over HTTP.
type panelOperations interface {
	UpdateToken(ctx context.Context, panelID uint) (*panel.Panel, error)
	TransferUser(ctx context.Context, serverUserID, targetPanelID uint) (*panel.ServerUser, error)
}
