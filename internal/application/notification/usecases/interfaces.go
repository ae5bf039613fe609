package usecases

import (
	"context"

	"github.com/orris-inc/keyhub/internal/domain/notification"
	"github.com/orris-inc/keyhub/internal/domain/pack"
	"github.com/orris-inc/keyhub/internal/domain/reseller"
)

type BatchReader interface {
	GetByID(ctx context.Context, id uint) (*pack.PackBatch, error)
}

type ResellerReader interface {
	GetByID(ctx context.Context, id uint) (*reseller.Reseller, error)
	GetModuleByID(ctx context.Context, id uint) (*reseller.BotModule, error)
}

type MessageRenderer interface {
	Render(n notification.Notice, lang, footer string) (notification.Message, error)
}

type MessageSender interface {
	Deliver(ctx context.Context, token string, msg notification.Message) (notification.Delivery, error)
}
