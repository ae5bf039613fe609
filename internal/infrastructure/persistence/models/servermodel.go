package models

import (
	"time"

	"github.com/orris-inc/keyhub/internal/shared/constants"
)

// ServerModel represents a rented virtual machine.
type ServerModel struct {
	ID               uint   `gorm:"primarykey"`
	Provider         string `gorm:"not null;size:32;uniqueIndex:idx_server_provider_ref,priority:1"`
	ProviderServerID string `gorm:"not null;size:64;uniqueIndex:idx_server_provider_ref,priority:2"`
	LocationID       uint   `gorm:"not null;index:idx_server_location"`
	Name             string `gorm:"not null;size:64"`
	IP               string `gorm:"column:ip;size:45"`
	RootPassword     string `gorm:"size:128"`
	DNSRecordID      string `gorm:"column:dns_record_id;size:64"`
	Domain           string `gorm:"size:255"`
	IsFree           bool   `gorm:"not null;default:false"`
	Status           string `gorm:"not null;size:20;index:idx_server_status"`
	ErrorMessage     string `gorm:"size:1000"`
	DeleteRequested  *time.Time
	Version          int `gorm:"not null;default:1"`
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

func (ServerModel) TableName() string {
	return constants.TableServers
}

// LocationModel is a vendor region.
type LocationModel struct {
	ID      uint   `gorm:"primarykey"`
	Code    string `gorm:"not null;size:32;uniqueIndex:idx_location_code"`
	Name    string `gorm:"not null;size:100"`
	Country string `gorm:"size:2"`
}

func (LocationModel) TableName() string {
	return constants.TableLocations
}
