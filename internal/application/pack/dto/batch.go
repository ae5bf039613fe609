package dto

import (
	"time"

	keydto "github.com/orris-inc/keyhub/internal/application/key/dto"
	"github.com/orris-inc/keyhub/internal/domain/key"
	"github.com/orris-inc/keyhub/internal/domain/pack"
)

type BatchDTO struct {
	ID          uint             `json:"id"`
	PackID      uint             `json:"pack_id"`
	ResellerID  uint             `json:"reseller_id"`
	ModuleID    *uint            `json:"module_id,omitempty"`
	Status      string           `json:"status"`
	IssuedCount int              `json:"issued_count"`
	PaidAt      *time.Time       `json:"paid_at,omitempty"`
	ExpiresAt   *time.Time       `json:"expires_at,omitempty"`
	CreatedAt   time.Time        `json:"created_at"`
	Keys        []*keydto.KeyDTO `json:"keys,omitempty"`
}

func ToBatchDTO(b *pack.PackBatch, keys []*key.Key) *BatchDTO {
	out := &BatchDTO{
		ID:          b.ID(),
		PackID:      b.PackID(),
		ResellerID:  b.ResellerID(),
		ModuleID:    b.ModuleID(),
		Status:      b.Status().String(),
		IssuedCount: b.IssuedCount(),
		PaidAt:      b.PaidAt(),
		ExpiresAt:   b.ExpiresAt(),
		CreatedAt:   b.CreatedAt(),
	}
	if len(keys) > 0 {
		out.Keys = keydto.ToKeyDTOs(keys)
	}
	return out
}
