package pack

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrBatchNotFound           = errors.New("pack batch not found")
	ErrPackNotFound            = errors.New("pack not found")
	ErrVersionConflict         = errors.New("pack batch was modified concurrently")
	ErrInvalidStatusTransition = errors.New("invalid batch status transition")
)

type BatchStatus string

const (
	BatchStatusUnpaid  BatchStatus = "unpaid"
	BatchStatusPaid    BatchStatus = "paid"
	BatchStatusExpired BatchStatus = "expired"
)

func (s BatchStatus) String() string {
	return string(s)
}

func (s BatchStatus) IsValid() bool {
	return s == BatchStatusUnpaid || s == BatchStatusPaid || s == BatchStatusExpired
}

// PackBatch is a concrete purchase of a Pack by a reseller.
type PackBatch struct {
	id          uint
	packID      uint
	resellerID  uint
	moduleID    *uint
	status      BatchStatus
	issuedCount int
	paidAt      *time.Time
	expiresAt   *time.Time
	version     int
	createdAt   time.Time
	updatedAt   time.Time
}

// NewPackBatch starts an unpaid purchase that lapses after paymentWindow.
func NewPackBatch(packID, resellerID uint, moduleID *uint, paymentWindow time.Duration, now time.Time) (*PackBatch, error) {
	if packID == 0 {
		return nil, fmt.Errorf("pack ID is required")
	}
	if resellerID == 0 {
		return nil, fmt.Errorf("reseller ID is required")
	}
	var expiresAt *time.Time
	if paymentWindow > 0 {
		t := now.Add(paymentWindow)
		expiresAt = &t
	}
	return &PackBatch{
		packID:     packID,
		resellerID: resellerID,
		moduleID:   moduleID,
		status:     BatchStatusUnpaid,
		expiresAt:  expiresAt,
		createdAt:  now,
		updatedAt:  now,
	}, nil
}

func ReconstructPackBatch(
	id, packID, resellerID uint,
	moduleID *uint,
	status BatchStatus,
	issuedCount int,
	paidAt, expiresAt *time.Time,
	version int,
	createdAt, updatedAt time.Time,
) (*PackBatch, error) {
	if id == 0 {
		return nil, fmt.Errorf("batch ID cannot be zero")
	}
	if !status.IsValid() {
		return nil, fmt.Errorf("invalid batch status: %s", status)
	}
	return &PackBatch{
		id:          id,
		packID:      packID,
		resellerID:  resellerID,
		moduleID:    moduleID,
		status:      status,
		issuedCount: issuedCount,
		paidAt:      paidAt,
		expiresAt:   expiresAt,
		version:     version,
		createdAt:   createdAt,
		updatedAt:   updatedAt,
	}, nil
}

func (b *PackBatch) ID() uint              { return b.id }
func (b *PackBatch) PackID() uint          { return b.packID }
func (b *PackBatch) ResellerID() uint      { return b.resellerID }
func (b *PackBatch) ModuleID() *uint       { return b.moduleID }
func (b *PackBatch) Status() BatchStatus   { return b.status }
func (b *PackBatch) IssuedCount() int      { return b.issuedCount }
func (b *PackBatch) PaidAt() *time.Time    { return b.paidAt }
func (b *PackBatch) ExpiresAt() *time.Time { return b.expiresAt }
func (b *PackBatch) Version() int          { return b.version }
func (b *PackBatch) CreatedAt() time.Time  { return b.createdAt }
func (b *PackBatch) UpdatedAt() time.Time  { return b.updatedAt }

func (b *PackBatch) SetID(id uint)       { b.id = id }
func (b *PackBatch) SetVersion(v int)    { b.version = v }
func (b *PackBatch) IsPaid() bool        { return b.status == BatchStatusPaid }
func (b *PackBatch) SoldViaModule() bool { return b.moduleID != nil }

// ApplyPaymentResult moves an unpaid batch to the requested status. A free
// pack (price 0) is always paid regardless of what was requested.
func (b *PackBatch) ApplyPaymentResult(requested BatchStatus, price int64, now time.Time) error {
	if b.status != BatchStatusUnpaid {
		return fmt.Errorf("%w: batch is already %s", ErrInvalidStatusTransition, b.status)
	}
	target := requested
	if price == 0 {
		target = BatchStatusPaid
	}
	switch target {
	case BatchStatusPaid:
		b.status = BatchStatusPaid
		b.paidAt = &now
	case BatchStatusExpired:
		b.status = BatchStatusExpired
	default:
		return fmt.Errorf("%w: cannot move batch to %s", ErrInvalidStatusTransition, target)
	}
	b.updatedAt = now
	return nil
}

// RecordIssued stores how many keys were created for the batch.
func (b *PackBatch) RecordIssued(n int, now time.Time) error {
	if b.status != BatchStatusPaid {
		return fmt.Errorf("keys can only be issued for a paid batch")
	}
	b.issuedCount += n
	b.updatedAt = now
	return nil
}

// ExpireUnpaid lapses an unpaid batch once its payment window has closed.
func (b *PackBatch) ExpireUnpaid(now time.Time) bool {
	if b.status != BatchStatusUnpaid || b.expiresAt == nil || !now.After(*b.expiresAt) {
		return false
	}
	b.status = BatchStatusExpired
	b.updatedAt = now
	return true
}
