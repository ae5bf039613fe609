package usecases

import (
	"context"
	"time"

	keyusecases "github.com/orris-inc/keyhub/internal/application/key/usecases"
	"github.com/orris-inc/keyhub/internal/domain/key"
	"github.com/orris-inc/keyhub/internal/domain/notification"
	"github.com/orris-inc/keyhub/internal/domain/panel"
	"github.com/orris-inc/keyhub/internal/infrastructure/provider"
)

// Dispatcher delivers a notice through the bot of the batch the key belongs to.
type Dispatcher interface {
	Send(ctx context.Context, batchID uint, n notification.Notice) notification.Result
}

type KeyReconciler interface {
	Execute(ctx context.Context, keyID uint) (*key.Key, error)
}

type KeyActivator interface {
	Execute(ctx context.Context, cmd keyusecases.ActivateKeyCommand) (*key.Key, error)
}

type PanelGateway interface {
	ResolveServerUser(ctx context.Context, serverUserID uint) (*panel.Panel, *panel.ServerUser, error)
	CheckOnline(ctx context.Context, p *panel.Panel, u *panel.ServerUser) (*provider.OnlineStatus, error)
	RetireServerUser(ctx context.Context, serverUserID uint) error
}

// ReportDeduplicator admits one detection per key per cooldown window.
type ReportDeduplicator interface {
	TryAcquire(ctx context.Context, keyID uint, ttl time.Duration) (bool, error)
}

type TransactionRunner interface {
	RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
