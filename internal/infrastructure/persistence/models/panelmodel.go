package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/orris-inc/keyhub/internal/shared/constants"
)

// PanelModel represents a VPN control plane installed on a server.
type PanelModel struct {
	ID             uint   `gorm:"primarykey"`
	ServerID       uint   `gorm:"not null;uniqueIndex:idx_panel_server"`
	Type           string `gorm:"not null;size:20;index:idx_panel_type_status,priority:1"`
	APIURL         string `gorm:"column:api_url;not null;size:255"`
	Username       string `gorm:"size:64"`
	Password       string `gorm:"size:128"`
	Token          string `gorm:"type:text"`
	TokenExpiresAt *time.Time
	Status         string `gorm:"not null;size:20;index:idx_panel_type_status,priority:2"`
	ErrorMessage   string `gorm:"size:1000"`
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

func (PanelModel) TableName() string {
	return constants.TablePanels
}

// ServerUserModel is the panel-side account a key is served through.
type ServerUserModel struct {
	ID              uint           `gorm:"primarykey"`
	PanelID         uint           `gorm:"not null;index:idx_server_user_panel"`
	KeyID           uint           `gorm:"not null;index:idx_server_user_key"`
	Username        string         `gorm:"not null;size:64;uniqueIndex:idx_server_user_username"`
	SubscriptionURL string         `gorm:"size:512"`
	Credentials     datatypes.JSON `gorm:"type:json"`
	TrafficLimit    int64          `gorm:"not null;default:0"`
	ExpireAt        time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
	DeletedAt       gorm.DeletedAt `gorm:"index"`
}

func (ServerUserModel) TableName() string {
	return constants.TableServerUsers
}
