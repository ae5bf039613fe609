package dto

import (
	"time"

	"github.com/orris-inc/keyhub/internal/domain/panel"
	"github.com/orris-inc/keyhub/internal/domain/server"
)

// ServerDTO never carries the root password.
type ServerDTO struct {
	ID               uint      `json:"id"`
	Provider         string    `json:"provider"`
	ProviderServerID string    `json:"provider_server_id"`
	LocationID       uint      `json:"location_id"`
	Name             string    `json:"name"`
	IP               string    `json:"ip,omitempty"`
	Domain           string    `json:"domain,omitempty"`
	IsFree           bool      `json:"is_free"`
	Status           string    `json:"status"`
	ErrorMessage     string    `json:"error_message,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

type PanelDTO struct {
	ID             uint       `json:"id"`
	ServerID       uint       `json:"server_id"`
	Type           string     `json:"type"`
	APIURL         string     `json:"api_url"`
	Status         string     `json:"status"`
	TokenExpiresAt *time.Time `json:"token_expires_at,omitempty"`
	ErrorMessage   string     `json:"error_message,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
}

type ServerUserDTO struct {
	ID              uint      `json:"id"`
	PanelID         uint      `json:"panel_id"`
	KeyID           uint      `json:"key_id"`
	Username        string    `json:"username"`
	SubscriptionURL string    `json:"subscription_url,omitempty"`
	TrafficLimit    int64     `json:"traffic_limit"`
	ExpireAt        time.Time `json:"expire_at"`
}

func ToServerDTO(s *server.Server) *ServerDTO {
	if s == nil {
		return nil
	}
	return &ServerDTO{
		ID:               s.ID(),
		Provider:         s.Provider(),
		ProviderServerID: s.ProviderServerID(),
		LocationID:       s.LocationID(),
		Name:             s.Name(),
		IP:               s.IP(),
		Domain:           s.Domain(),
		IsFree:           s.IsFree(),
		Status:           s.Status().String(),
		ErrorMessage:     s.ErrorMessage(),
		CreatedAt:        s.CreatedAt(),
		UpdatedAt:        s.UpdatedAt(),
	}
}

func ToPanelDTO(p *panel.Panel) *PanelDTO {
	if p == nil {
		return nil
	}
	return &PanelDTO{
		ID:             p.ID(),
		ServerID:       p.ServerID(),
		Type:           string(p.Type()),
		APIURL:         p.APIURL(),
		Status:         string(p.Status()),
		TokenExpiresAt: p.TokenExpiresAt(),
		ErrorMessage:   p.ErrorMessage(),
		CreatedAt:      p.CreatedAt(),
	}
}

func ToServerUserDTO(u *panel.ServerUser) *ServerUserDTO {
	if u == nil {
		return nil
	}
	return &ServerUserDTO{
		ID:              u.ID(),
		PanelID:         u.PanelID(),
		KeyID:           u.KeyID(),
		Username:        u.Username(),
		SubscriptionURL: u.SubscriptionURL(),
		TrafficLimit:    u.TrafficLimit(),
		ExpireAt:        u.ExpireAt(),
	}
}
