package panel

import "context"

type Repository interface {
	Create(ctx context.Context, p *Panel) error
	Update(ctx context.Context, p *Panel) error
	GetByID(ctx context.Context, id uint) (*Panel, error)
	GetByServerID(ctx context.Context, serverID uint) (*Panel, error)
	ListConfiguredByType(ctx context.Context, t Type) ([]*Panel, error)
	ListNeedingReconcile(ctx context.Context) ([]*Panel, error)
}

type ServerUserRepository interface {
	Create(ctx context.Context, u *ServerUser) error
	GetByID(ctx context.Context, id uint) (*ServerUser, error)
	GetByUsername(ctx context.Context, username string) (*ServerUser, error)
	// SoftDelete hides the account from load counting and lookups by username.
	SoftDelete(ctx context.Context, id uint) error
	// CountActiveByPanel counts non-deleted accounts per panel; panels with none are omitted.
	CountActiveByPanel(ctx context.Context, panelIDs []uint) (map[uint]int64, error)
}
