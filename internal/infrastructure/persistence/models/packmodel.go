package models

import (
	"time"

	"github.com/orris-inc/keyhub/internal/shared/constants"
)

// PackModel is a purchasable template of keys.
type PackModel struct {
	ID               uint   `gorm:"primarykey"`
	Name             string `gorm:"not null;size:100"`
	Price            int64  `gorm:"not null;default:0"` // minor units
	PeriodDays       int    `gorm:"not null"`
	TrafficLimit     int64  `gorm:"not null;default:0"`
	Count            int    `gorm:"not null"`
	ActivationWindow int64  `gorm:"not null"` // seconds
	ConnectionLimit  int    `gorm:"not null;default:1"`
	PanelType        string `gorm:"not null;size:20"`
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

func (PackModel) TableName() string {
	return constants.TablePacks
}

// PackBatchModel is a reseller's purchase of a pack.
type PackBatchModel struct {
	ID          uint   `gorm:"primarykey"`
	PackID      uint   `gorm:"not null;index:idx_batch_pack"`
	ResellerID  uint   `gorm:"not null;index:idx_batch_reseller"`
	ModuleID    *uint  `gorm:"index:idx_batch_module"`
	Status      string `gorm:"not null;size:20;index:idx_batch_status_expires,priority:1"`
	IssuedCount int    `gorm:"not null;default:0"`
	PaidAt      *time.Time
	ExpiresAt   *time.Time `gorm:"index:idx_batch_status_expires,priority:2"`
	Version     int        `gorm:"not null;default:1"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (PackBatchModel) TableName() string {
	return constants.TablePackBatches
}
