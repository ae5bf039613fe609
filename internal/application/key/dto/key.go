package dto

import (
	"time"

	"github.com/orris-inc/keyhub/internal/domain/key"
	"github.com/orris-inc/keyhub/internal/infrastructure/provider"
)

type KeyDTO struct {
	Code               string     `json:"code"`
	Status             string     `json:"status"`
	TrafficLimit       int64      `json:"traffic_limit"`
	PeriodDays         int        `json:"period_days"`
	ConnectionLimit    int        `json:"connection_limit"`
	PanelType          string     `json:"panel_type"`
	OwnerUserID        *int64     `json:"owner_user_id,omitempty"`
	ActivationDeadline *time.Time `json:"activation_deadline,omitempty"`
	FinishAt           *time.Time `json:"finish_at,omitempty"`
	ActivatedAt        *time.Time `json:"activated_at,omitempty"`
	ExpiredAt          *time.Time `json:"expired_at,omitempty"`
	SubscriptionURL    string     `json:"subscription_url,omitempty"`
	Usage              *UsageDTO  `json:"usage,omitempty"`
}

type UsageDTO struct {
	Used     int64      `json:"used"`
	Limit    int64      `json:"limit"`
	Online   bool       `json:"online"`
	ExpireAt *time.Time `json:"expire_at,omitempty"`
}

func ToKeyDTO(k *key.Key) *KeyDTO {
	return &KeyDTO{
		Code:               k.Code(),
		Status:             k.Status().String(),
		TrafficLimit:       k.TrafficLimit(),
		PeriodDays:         k.PeriodDays(),
		ConnectionLimit:    k.ConnectionLimit(),
		PanelType:          k.PanelType(),
		OwnerUserID:        k.OwnerUserID(),
		ActivationDeadline: k.ActivationDeadline(),
		FinishAt:           k.FinishAt(),
		ActivatedAt:        k.ActivatedAt(),
		ExpiredAt:          k.ExpiredAt(),
	}
}

func ToUsageDTO(u *provider.UserUsage) *UsageDTO {
	out := &UsageDTO{Used: u.Used, Limit: u.Limit, Online: u.Online}
	if !u.ExpireAt.IsZero() {
		exp := u.ExpireAt
		out.ExpireAt = &exp
	}
	return out
}

func ToKeyDTOs(keys []*key.Key) []*KeyDTO {
	out := make([]*KeyDTO, 0, len(keys))
	for _, k := range keys {
		out = append(out, ToKeyDTO(k))
	}
	return out
}
