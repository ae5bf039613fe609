package models

import (
	"time"

	"github.com/orris-inc/keyhub/internal/shared/constants"
)

// KeyModel represents the database persistence model for VPN access keys.
type KeyModel struct {
	ID                 uint   `gorm:"primarykey"`
	Code               string `gorm:"not null;size:36;uniqueIndex:idx_key_code"`
	BatchID            uint   `gorm:"not null;index:idx_key_batch"`
	TrafficLimit       int64  `gorm:"not null;default:0"`
	PeriodDays         int    `gorm:"not null"`
	ConnectionLimit    int    `gorm:"not null;default:1"`
	PanelType          string `gorm:"not null;size:20"`
	FinishAt           *time.Time
	ActivationDeadline *time.Time
	OwnerUserID        *int64 `gorm:"index:idx_key_owner"`
	Status             string `gorm:"not null;size:20;index:idx_key_status"`
	ServerUserID       *uint
	ReplacesKeyID      *uint
	ActivatedAt        *time.Time
	ExpiredAt          *time.Time
	Version            int `gorm:"not null;default:1"`
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// TableName specifies the table name for GORM.
func (KeyModel) TableName() string {
	return constants.TableKeys
}
