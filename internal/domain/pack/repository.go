package pack

import (
	"context"
	"time"
)

type PackRepository interface {
	Create(ctx context.Context, p *Pack) error
	GetByID(ctx context.Context, id uint) (*Pack, error)
}

type BatchRepository interface {
	Create(ctx context.Context, b *PackBatch) error
	Update(ctx context.Context, b *PackBatch) error
	GetByID(ctx context.Context, id uint) (*PackBatch, error)
	ListUnpaidExpired(ctx context.Context, now time.Time, limit int) ([]*PackBatch, error)
}
