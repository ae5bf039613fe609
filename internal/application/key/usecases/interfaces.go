package usecases

import (
	"context"

	"github.com/orris-inc/keyhub/internal/domain/panel"
	"github.com/orris-inc/keyhub/internal/infrastructure/provider"
)

// KeyLocker serialises activation and expiry handling of one key across
// processes. unlock must be called exactly once.
type KeyLocker interface {
	Lock(ctx context.Context, keyID uint) (unlock func(), err error)
}

// PanelGateway is the part of the panel service the key flows need.
type PanelGateway interface {
	SelectLeastLoaded(ctx context.Context, t panel.Type) (*panel.Panel, error)
	AddServerUser(ctx context.Context, p *panel.Panel, spec panel.AccountSpec) (*panel.ServerUser, error)
	DeleteServerUser(ctx context.Context, p *panel.Panel, u *panel.ServerUser) error
	ResolveServerUser(ctx context.Context, serverUserID uint) (*panel.Panel, *panel.ServerUser, error)
	GetSubscribeInfo(ctx context.Context, p *panel.Panel, u *panel.ServerUser) (*provider.UserUsage, error)
	RetireServerUser(ctx context.Context, serverUserID uint) error
}

type TransactionRunner interface {
	RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
