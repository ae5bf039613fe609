package usecases

import (
	"context"
	"fmt"

	"github.com/orris-inc/keyhub/internal/application/key/dto"
	"github.com/orris-inc/keyhub/internal/domain/key"
	apperrors "github.com/orris-inc/keyhub/internal/shared/errors"
	"github.com/orris-inc/keyhub/internal/shared/logger"
)

// GetKeyUseCase returns a reconciled key with live usage from its panel.
// Panel failures degrade to the stored data.
type GetKeyUseCase struct {
	keyRepo    key.Repository
	reconciler *ReconcileKeyExpiryUseCase
	panels     PanelGateway
	logger     logger.Interface
}

func NewGetKeyUseCase(keyRepo key.Repository, reconciler *ReconcileKeyExpiryUseCase, panels PanelGateway, logger logger.Interface) *GetKeyUseCase {
	return &GetKeyUseCase{keyRepo: keyRepo, reconciler: reconciler, panels: panels, logger: logger}
}

func (uc *GetKeyUseCase) Execute(ctx context.Context, code string) (*dto.KeyDTO, error) {
	found, err := uc.keyRepo.GetByCode(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to get key: %w", err)
	}
	if found == nil {
		return nil, apperrors.NewNotFoundError("key not found")
	}

	k, err := uc.reconciler.Execute(ctx, found.ID())
	if err != nil {
		return nil, err
	}

	view := dto.ToKeyDTO(k)
	if !k.IsActive() || k.ServerUserID() == nil {
		return view, nil
	}

	p, u, err := uc.panels.ResolveServerUser(ctx, *k.ServerUserID())
	if err != nil {
		uc.logger.Warnw("failed to resolve server user", "key_id", k.ID(), "error", err)
		return view, nil
	}
	view.SubscriptionURL = u.SubscriptionURL()

	usage, err := uc.panels.GetSubscribeInfo(ctx, p, u)
	if err != nil {
		uc.logger.Warnw("panel usage unavailable", "key_id", k.ID(), "panel_id", p.ID(), "error", err)
		return view, nil
	}
	view.Usage = dto.ToUsageDTO(usage)
	if usage.SubscriptionURL != "" {
		view.SubscriptionURL = usage.SubscriptionURL
	}
	return view, nil
}
