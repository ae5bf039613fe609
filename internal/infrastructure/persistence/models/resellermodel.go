package models

import (
	"time"

	"github.com/orris-inc/keyhub/internal/shared/constants"
)

type ResellerModel struct {
	ID           uint    `gorm:"primarykey"`
	Name         string  `gorm:"not null;size:100"`
	BotToken     *string `gorm:"size:128"`
	Lang         string  `gorm:"not null;size:8;default:ru"`
	Instructions string  `gorm:"type:text"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (ResellerModel) TableName() string {
	return constants.TableResellers
}

// BotModuleModel stores the credentials of an embedded storefront bot.
type BotModuleModel struct {
	ID          uint   `gorm:"primarykey"`
	ResellerID  uint   `gorm:"not null;index:idx_module_reseller"`
	BotToken    string `gorm:"not null;size:128"`
	BotUsername string `gorm:"size:64"`
	CreatedAt   time.Time
}

func (BotModuleModel) TableName() string {
	return constants.TableBotModules
}
