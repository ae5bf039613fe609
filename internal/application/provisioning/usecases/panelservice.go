package usecases

import (
	"context"
	"fmt"
	"math/rand/v2"
	"strconv"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/orris-inc/keyhub/internal/domain/key"
	"github.com/orris-inc/keyhub/internal/domain/panel"
	"github.com/orris-inc/keyhub/internal/infrastructure/provider"
	"github.com/orris-inc/keyhub/internal/shared/biztime"
	apperrors "github.com/orris-inc/keyhub/internal/shared/errors"
	"github.com/orris-inc/keyhub/internal/shared/id"
	"github.com/orris-inc/keyhub/internal/shared/logger"
)

// PanelService manages accounts on VPN panels and keeps their admin tokens fresh.
type PanelService struct {
	registry       ProviderRegistry
	panelRepo      panel.Repository
	serverUserRepo panel.ServerUserRepository
	keyRepo        key.Repository
	txManager      TransactionRunner
	tokenMargin    time.Duration
	refresh        singleflight.Group
	logger         logger.Interface

	now  func() time.Time
	pick func(n int) int
}

func NewPanelService(
	registry ProviderRegistry,
	panelRepo panel.Repository,
	serverUserRepo panel.ServerUserRepository,
	keyRepo key.Repository,
	txManager TransactionRunner,
	tokenMargin time.Duration,
	logger logger.Interface,
) *PanelService {
	return &PanelService{
		registry:       registry,
		panelRepo:      panelRepo,
		serverUserRepo: serverUserRepo,
		keyRepo:        keyRepo,
		txManager:      txManager,
		tokenMargin:    tokenMargin,
		logger:         logger,
		now:            biztime.NowUTC,
		pick:           rand.IntN,
	}
}

// SelectLeastLoaded returns the configured panel of kind t with the fewest
// live accounts, or nil when there is none.
func (s *PanelService) SelectLeastLoaded(ctx context.Context, t panel.Type) (*panel.Panel, error) {
	candidates, err := s.panelRepo.ListConfiguredByType(ctx, t)
	if err != nil {
		return nil, fmt.Errorf("failed to list panels: %w", err)
	}
	if len(candidates) == 0 {
		return nil, nil
	}

	ids := make([]uint, 0, len(candidates))
	for _, p := range candidates {
		ids = append(ids, p.ID())
	}
	load, err := s.serverUserRepo.CountActiveByPanel(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to count panel load: %w", err)
	}
	return panel.SelectLeastLoaded(candidates, load, s.pick), nil
}

// AddServerUser creates the account on the panel. The returned ServerUser is
// not persisted yet.
func (s *PanelService) AddServerUser(ctx context.Context, p *panel.Panel, spec panel.AccountSpec) (*panel.ServerUser, error) {
	client, err := s.registry.PanelClient(p.Type())
	if err != nil {
		return nil, err
	}
	if p, err = s.ensureToken(ctx, p); err != nil {
		return nil, err
	}

	username, err := id.NewServerUsername()
	if err != nil {
		return nil, fmt.Errorf("failed to generate server username: %w", err)
	}

	created, err := client.CreateUser(ctx, p, provider.CreateUserRequest{
		Username:        username,
		TrafficLimit:    spec.TrafficLimit,
		ExpireAt:        spec.ExpireAt,
		ConnectionLimit: spec.ConnectionLimit,
		KeyID:           spec.KeyID,
	})
	if err != nil {
		s.logger.Errorw("failed to create panel account",
			"panel_id", p.ID(),
			"key_id", spec.KeyID,
			"error", err,
		)
		s.recordFailure(ctx, p, err)
		return nil, err
	}

	return panel.NewServerUser(p.ID(), spec.KeyID, username, created.SubscriptionURL, created.Credentials, spec.TrafficLimit, spec.ExpireAt, s.now())
}

func (s *PanelService) DeleteServerUser(ctx context.Context, p *panel.Panel, u *panel.ServerUser) error {
	client, err := s.registry.PanelClient(p.Type())
	if err != nil {
		return err
	}
	if p, err = s.ensureToken(ctx, p); err != nil {
		return err
	}
	if err := client.DeleteUser(ctx, p, u); err != nil {
		s.recordFailure(ctx, p, err)
		return err
	}
	return nil
}

func (s *PanelService) CheckOnline(ctx context.Context, p *panel.Panel, u *panel.ServerUser) (*provider.OnlineStatus, error) {
	client, err := s.registry.PanelClient(p.Type())
	if err != nil {
		return nil, err
	}
	if p, err = s.ensureToken(ctx, p); err != nil {
		return nil, err
	}
	status, err := client.CheckOnline(ctx, p, u)
	if err != nil {
		s.recordFailure(ctx, p, err)
		return nil, err
	}
	return status, nil
}

func (s *PanelService) GetSubscribeInfo(ctx context.Context, p *panel.Panel, u *panel.ServerUser) (*provider.UserUsage, error) {
	client, err := s.registry.PanelClient(p.Type())
	if err != nil {
		return nil, err
	}
	if p, err = s.ensureToken(ctx, p); err != nil {
		return nil, err
	}
	usage, err := client.GetUsage(ctx, p, u)
	if err != nil {
		s.recordFailure(ctx, p, err)
		return nil, err
	}
	if usage.SubscriptionURL == "" {
		usage.SubscriptionURL = u.SubscriptionURL()
	}
	return usage, nil
}

// ResolveServerUser loads a live account together with the panel it lives on.
func (s *PanelService) ResolveServerUser(ctx context.Context, serverUserID uint) (*panel.Panel, *panel.ServerUser, error) {
	u, err := s.serverUserRepo.GetByID(ctx, serverUserID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get server user: %w", err)
	}
	if u == nil || u.IsDeleted() {
		return nil, nil, apperrors.NewNotFoundError("server user not found", strconv.FormatUint(uint64(serverUserID), 10))
	}
	p, err := s.panelRepo.GetByID(ctx, u.PanelID())
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get panel: %w", err)
	}
	if p == nil {
		return nil, nil, apperrors.NewNotFoundError("panel not found", strconv.FormatUint(uint64(u.PanelID()), 10))
	}
	return p, u, nil
}

// RetireServerUser removes an account from its panel and soft-deletes the
// local row. The panel call is best effort; an account that is already gone
// is not an error.
func (s *PanelService) RetireServerUser(ctx context.Context, serverUserID uint) error {
	u, err := s.serverUserRepo.GetByID(ctx, serverUserID)
	if err != nil {
		return fmt.Errorf("failed to get server user: %w", err)
	}
	if u == nil || u.IsDeleted() {
		return nil
	}

	p, err := s.panelRepo.GetByID(ctx, u.PanelID())
	if err != nil {
		return fmt.Errorf("failed to get panel: %w", err)
	}
	if p != nil {
		if err := s.DeleteServerUser(ctx, p, u); err != nil {
			s.logger.Warnw("failed to delete panel account, leaving it to expire on the panel",
				"panel_id", p.ID(),
				"server_user_id", u.ID(),
				"error", err,
			)
		}
	}

	if err := s.serverUserRepo.SoftDelete(ctx, u.ID()); err != nil {
		return fmt.Errorf("failed to delete server user: %w", err)
	}
	return nil
}

// UpdateToken authenticates against the panel and stores the new token.
// Concurrent refreshes of one panel share a single request.
func (s *PanelService) UpdateToken(ctx context.Context, panelID uint) (*panel.Panel, error) {
	v, err, _ := s.refresh.Do(strconv.FormatUint(uint64(panelID), 10), func() (interface{}, error) {
		return s.refreshToken(ctx, panelID)
	})
	if err != nil {
		return nil, err
	}
	return v.(*panel.Panel), nil
}

func (s *PanelService) refreshToken(ctx context.Context, panelID uint) (*panel.Panel, error) {
	p, err := s.panelRepo.GetByID(ctx, panelID)
	if err != nil {
		return nil, fmt.Errorf("failed to get panel: %w", err)
	}
	if p == nil {
		return nil, apperrors.NewNotFoundError("panel not found", strconv.FormatUint(uint64(panelID), 10))
	}
	if p.IsDeleted() {
		return nil, apperrors.NewConflictError("panel was deleted with its server")
	}

	client, err := s.registry.PanelClient(p.Type())
	if err != nil {
		return nil, err
	}

	token, authErr := client.Authenticate(ctx, p)
	now := s.now()
	if authErr == nil {
		authErr = p.SetToken(token.Token, token.ExpiresAt, now)
	}
	if authErr != nil {
		p.MarkError(authErr.Error(), now)
		if err := s.panelRepo.Update(ctx, p); err != nil {
			s.logger.Errorw("failed to record panel error", "panel_id", p.ID(), "error", err)
		}
		s.logger.Warnw("panel authentication failed", "panel_id", p.ID(), "panel_type", p.Type(), "error", authErr)
		return nil, authErr
	}

	if err := s.panelRepo.Update(ctx, p); err != nil {
		return nil, fmt.Errorf("failed to store panel token: %w", err)
	}
	s.logger.Infow("panel token refreshed", "panel_id", p.ID(), "expires_at", token.ExpiresAt)
	return p, nil
}

// recordFailure takes a panel whose API is down or answering garbage out of
// rotation. The reconcile pass re-authenticates it later. A 404 only says the
// account is gone, not the panel.
func (s *PanelService) recordFailure(ctx context.Context, p *panel.Panel, cause error) {
	if provider.IsNotFound(cause) {
		return
	}
	switch provider.KindOf(cause) {
	case provider.KindAPIUnreachable, provider.KindInvalidProviderResponse:
	default:
		return
	}
	p.MarkError(cause.Error(), s.now())
	if err := s.panelRepo.Update(ctx, p); err != nil {
		s.logger.Errorw("failed to record panel error", "panel_id", p.ID(), "error", err)
		return
	}
	s.logger.Warnw("panel marked as failed", "panel_id", p.ID(), "panel_type", p.Type(), "error", cause)
}

func (s *PanelService) ensureToken(ctx context.Context, p *panel.Panel) (*panel.Panel, error) {
	if p.HasFreshToken(s.now(), s.tokenMargin) {
		return p, nil
	}
	return s.UpdateToken(ctx, p.ID())
}

// TransferUser moves an account to another panel, keeping what is left of its
// traffic and period, and repoints the key at the new account.
func (s *PanelService) TransferUser(ctx context.Context, serverUserID, targetPanelID uint) (*panel.ServerUser, error) {
	source, u, err := s.ResolveServerUser(ctx, serverUserID)
	if err != nil {
		return nil, err
	}
	if source.ID() == targetPanelID {
		return nil, apperrors.NewValidationError("target panel is the current panel")
	}

	target, err := s.panelRepo.GetByID(ctx, targetPanelID)
	if err != nil {
		return nil, fmt.Errorf("failed to get target panel: %w", err)
	}
	if target == nil {
		return nil, apperrors.NewNotFoundError("target panel not found", strconv.FormatUint(uint64(targetPanelID), 10))
	}
	if !target.IsConfigured() {
		return nil, apperrors.NewConflictError("target panel is not configured")
	}

	k, err := s.keyRepo.GetByID(ctx, u.KeyID())
	if err != nil {
		return nil, fmt.Errorf("failed to get key: %w", err)
	}
	if k == nil || !k.IsActive() {
		return nil, apperrors.NewConflictError("only accounts of active keys can be transferred")
	}

	trafficLimit := u.TrafficLimit()
	expireAt := u.ExpireAt()
	if usage, err := s.GetSubscribeInfo(ctx, source, u); err == nil {
		trafficLimit = u.RemainingTraffic(usage.Used)
		if !usage.ExpireAt.IsZero() {
			expireAt = usage.ExpireAt
		}
	} else {
		s.logger.Warnw("source panel unavailable, transferring with the original limits",
			"panel_id", source.ID(),
			"server_user_id", u.ID(),
			"error", err,
		)
	}

	moved, err := s.AddServerUser(ctx, target, panel.AccountSpec{
		KeyID:           k.ID(),
		TrafficLimit:    trafficLimit,
		ExpireAt:        expireAt,
		ConnectionLimit: k.ConnectionLimit(),
	})
	if err != nil {
		return nil, err
	}

	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.serverUserRepo.Create(ctx, moved); err != nil {
			return err
		}
		if err := k.RebindServerUser(moved.ID(), s.now()); err != nil {
			return err
		}
		if err := s.keyRepo.Update(ctx, k); err != nil {
			return err
		}
		return s.serverUserRepo.SoftDelete(ctx, u.ID())
	})
	if err != nil {
		if delErr := s.DeleteServerUser(ctx, target, moved); delErr != nil {
			s.logger.Errorw("failed to roll back transferred panel account",
				"panel_id", target.ID(),
				"username", moved.Username(),
				"error", delErr,
			)
		}
		return nil, fmt.Errorf("failed to persist server user transfer: %w", err)
	}

	if err := s.DeleteServerUser(ctx, source, u); err != nil {
		s.logger.Warnw("failed to delete account from source panel",
			"panel_id", source.ID(),
			"server_user_id", u.ID(),
			"error", err,
		)
	}

	s.logger.Infow("server user transferred",
		"key_id", k.ID(),
		"from_panel_id", source.ID(),
		"to_panel_id", target.ID(),
		"server_user_id", moved.ID(),
	)
	return moved, nil
}
