package violation

import (
	"context"
	"time"
)

type Repository interface {
	// FindOrCreate returns the row for the detection's (key, server user, panel)
	// triple, creating it when absent. A concurrent insert is resolved by re-reading.
	FindOrCreate(ctx context.Context, d Detection, now time.Time) (*Violation, error)
	// IncrementCount atomically bumps violation_count, stores the latest
	// observation and returns the row as read back after the update.
	IncrementCount(ctx context.Context, id uint, d Detection, now time.Time) (*Violation, error)
	// RefreshObservation stores the latest observation without counting it.
	RefreshObservation(ctx context.Context, id uint, d Detection, now time.Time) error
	// ClaimReplacement sets key_replaced_at only if it is still null. It reports
	// whether this caller won the claim.
	ClaimReplacement(ctx context.Context, id uint, now time.Time) (bool, error)
	// ReleaseReplacement clears a claim that did not produce a replacement key.
	ReleaseReplacement(ctx context.Context, id uint) error
	// Update persists status and notification bookkeeping with a version check.
	Update(ctx context.Context, v *Violation) error
	GetByID(ctx context.Context, id uint) (*Violation, error)
	ListPendingRetry(ctx context.Context, maxRetries, limit int) ([]*Violation, error)
}
