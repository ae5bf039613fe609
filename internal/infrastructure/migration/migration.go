// Package migration creates and upgrades the database schema.
package migration

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/orris-inc/keyhub/internal/shared/logger"
)

// Manager runs the strategy that fits the configured driver.
type Manager struct {
	strategy Strategy
	logger   logger.Interface
}

// NewManager picks goose for MySQL and GORM AutoMigrate for sqlite.
func NewManager(sqlite bool, log logger.Interface) *Manager {
	var strategy Strategy
	if sqlite {
		strategy = NewAutoMigrateStrategy(log)
	} else {
		strategy = NewGooseStrategy("mysql", log)
	}
	return &Manager{strategy: strategy, logger: log}
}

func (m *Manager) Migrate(db *gorm.DB) error {
	m.logger.Infow("starting database migration", "strategy", m.strategy.GetName())

	if err := m.strategy.Migrate(db); err != nil {
		m.logger.Errorw("migration failed", "strategy", m.strategy.GetName(), "error", err)
		return fmt.Errorf("migration failed with strategy %s: %w", m.strategy.GetName(), err)
	}
	return nil
}

func (m *Manager) Strategy() Strategy {
	return m.strategy
}
