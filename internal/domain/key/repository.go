package key

import (
	"context"
	"time"
)

type Repository interface {
	Create(ctx context.Context, k *Key) error
	CreateBatch(ctx context.Context, keys []*Key) error
	// Update persists k if the stored version still equals k.Version(),
	// returning ErrVersionConflict otherwise.
	Update(ctx context.Context, k *Key) error
	GetByID(ctx context.Context, id uint) (*Key, error)
	GetByCode(ctx context.Context, code string) (*Key, error)
	ListByBatch(ctx context.Context, batchID uint) ([]*Key, error)
	// ListPastDeadline returns issued keys whose activation deadline and active
	// keys whose finish time is before now, with IDs above afterID, in ID order.
	ListPastDeadline(ctx context.Context, now time.Time, afterID uint, limit int) ([]*Key, error)
	ListActiveWithServerUser(ctx context.Context, limit, offset int) ([]*Key, error)
}
