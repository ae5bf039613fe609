package models

import (
	"time"

	"gorm.io/datatypes"

	"github.com/orris-inc/keyhub/internal/shared/constants"
)

// ViolationModel is keyed by the (key, server user, panel) triple.
type ViolationModel struct {
	ID                      uint           `gorm:"primarykey"`
	KeyID                   uint           `gorm:"not null;uniqueIndex:idx_violation_triple,priority:1"`
	ServerUserID            uint           `gorm:"not null;uniqueIndex:idx_violation_triple,priority:2"`
	PanelID                 uint           `gorm:"not null;uniqueIndex:idx_violation_triple,priority:3"`
	AllowedConnections      int            `gorm:"not null"`
	ActualConnections       int            `gorm:"not null"`
	ObservedIPs             datatypes.JSON `gorm:"column:observed_ips;type:json"`
	ViolationCount          int            `gorm:"not null;default:0"`
	Status                  string         `gorm:"not null;size:20;index:idx_violation_status"`
	NotificationsSent       int            `gorm:"not null;default:0"`
	LastNotificationOutcome string         `gorm:"size:20"`
	NotificationRetryCount  int            `gorm:"not null;default:0"`
	NotificationStep        string         `gorm:"size:20"`
	NotificationPartsSent   int            `gorm:"not null;default:0"`
	KeyReplacedAt           *time.Time
	ReplacementKeyID        *uint
	FirstDetectedAt         time.Time
	LastDetectedAt          time.Time
	Version                 int `gorm:"not null;default:1"`
	CreatedAt               time.Time
	UpdatedAt               time.Time
}

func (ViolationModel) TableName() string {
	return constants.TableViolations
}
