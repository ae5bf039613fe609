package key

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Template holds the limits a key inherits from the pack it was issued from.
type Template struct {
	BatchID         uint
	TrafficLimit    int64
	PeriodDays      int
	ConnectionLimit int
	PanelType       string
}

// Key is a VPN access credential sold to an end user.
type Key struct {
	id                 uint
	code               string
	batchID            uint
	trafficLimit       int64
	periodDays         int
	connectionLimit    int
	panelType          string
	finishAt           *time.Time
	activationDeadline *time.Time
	ownerUserID        *int64
	status             Status
	serverUserID       *uint
	replacesKeyID      *uint
	activatedAt        *time.Time
	expiredAt          *time.Time
	version            int
	createdAt          time.Time
	updatedAt          time.Time
}

// NewKey creates an issued key that must be activated within activationWindow.
func NewKey(tpl Template, activationWindow time.Duration, now time.Time) (*Key, error) {
	if tpl.BatchID == 0 {
		return nil, fmt.Errorf("batch ID is required")
	}
	if tpl.TrafficLimit < 0 {
		return nil, fmt.Errorf("traffic limit cannot be negative")
	}
	if tpl.PeriodDays <= 0 {
		return nil, fmt.Errorf("period must be at least one day")
	}
	if tpl.PanelType == "" {
		return nil, fmt.Errorf("panel type is required")
	}
	connLimit := tpl.ConnectionLimit
	if connLimit <= 0 {
		connLimit = 1
	}

	deadline := now.Add(activationWindow)
	return &Key{
		code:               uuid.NewString(),
		batchID:            tpl.BatchID,
		trafficLimit:       tpl.TrafficLimit,
		periodDays:         tpl.PeriodDays,
		connectionLimit:    connLimit,
		panelType:          tpl.PanelType,
		activationDeadline: &deadline,
		status:             StatusIssued,
		createdAt:          now,
		updatedAt:          now,
	}, nil
}

// NewReplacementKey issues a successor for old, pre-bound to the same owner.
// It inherits the template of old and must be activated right away.
func NewReplacementKey(old *Key, activationWindow time.Duration, now time.Time) (*Key, error) {
	if old.ownerUserID == nil {
		return nil, fmt.Errorf("cannot replace key %d without an owner", old.id)
	}
	k, err := NewKey(old.Template(), activationWindow, now)
	if err != nil {
		return nil, err
	}
	owner := *old.ownerUserID
	oldID := old.id
	k.ownerUserID = &owner
	k.replacesKeyID = &oldID
	return k, nil
}

// ReconstructKey rebuilds a key from persistence.
func ReconstructKey(
	id uint,
	code string,
	tpl Template,
	finishAt, activationDeadline *time.Time,
	ownerUserID *int64,
	status Status,
	serverUserID, replacesKeyID *uint,
	activatedAt, expiredAt *time.Time,
	version int,
	createdAt, updatedAt time.Time,
) (*Key, error) {
	if id == 0 {
		return nil, fmt.Errorf("key ID cannot be zero")
	}
	if code == "" {
		return nil, fmt.Errorf("key code is required")
	}
	if !ValidStatuses[status] {
		return nil, fmt.Errorf("invalid key status: %s", status)
	}

	return &Key{
		id:                 id,
		code:               code,
		batchID:            tpl.BatchID,
		trafficLimit:       tpl.TrafficLimit,
		periodDays:         tpl.PeriodDays,
		connectionLimit:    tpl.ConnectionLimit,
		panelType:          tpl.PanelType,
		finishAt:           finishAt,
		activationDeadline: activationDeadline,
		ownerUserID:        ownerUserID,
		status:             status,
		serverUserID:       serverUserID,
		replacesKeyID:      replacesKeyID,
		activatedAt:        activatedAt,
		expiredAt:          expiredAt,
		version:            version,
		createdAt:          createdAt,
		updatedAt:          updatedAt,
	}, nil
}

func (k *Key) ID() uint                       { return k.id }
func (k *Key) Code() string                   { return k.code }
func (k *Key) BatchID() uint                  { return k.batchID }
func (k *Key) TrafficLimit() int64            { return k.trafficLimit }
func (k *Key) PeriodDays() int                { return k.periodDays }
func (k *Key) ConnectionLimit() int           { return k.connectionLimit }
func (k *Key) PanelType() string              { return k.panelType }
func (k *Key) FinishAt() *time.Time           { return k.finishAt }
func (k *Key) ActivationDeadline() *time.Time { return k.activationDeadline }
func (k *Key) OwnerUserID() *int64            { return k.ownerUserID }
func (k *Key) Status() Status                 { return k.status }
func (k *Key) ServerUserID() *uint            { return k.serverUserID }
func (k *Key) ReplacesKeyID() *uint           { return k.replacesKeyID }
func (k *Key) ActivatedAt() *time.Time        { return k.activatedAt }
func (k *Key) ExpiredAt() *time.Time          { return k.expiredAt }
func (k *Key) Version() int                   { return k.version }
func (k *Key) CreatedAt() time.Time           { return k.createdAt }
func (k *Key) UpdatedAt() time.Time           { return k.updatedAt }

func (k *Key) Template() Template {
	return Template{
		BatchID:         k.batchID,
		TrafficLimit:    k.trafficLimit,
		PeriodDays:      k.periodDays,
		ConnectionLimit: k.connectionLimit,
		PanelType:       k.panelType,
	}
}

// SetID is called by the repository after insert.
func (k *Key) SetID(id uint) {
	k.id = id
}

// SetVersion is called by the repository after a successful compare-and-swap.
func (k *Key) SetVersion(v int) {
	k.version = v
}

func (k *Key) IsActive() bool {
	return k.status == StatusActive
}

func (k *Key) IsOwnedBy(userID int64) bool {
	return k.ownerUserID != nil && *k.ownerUserID == userID
}

// CheckActivatable reports the reason userID may not activate the key at now.
// A nil result means Activate will succeed.
func (k *Key) CheckActivatable(userID int64, now time.Time) *ActivationError {
	if k.status != StatusIssued {
		return NewActivationError(ReasonInvalidStatus, k.id, fmt.Errorf("key is %s", k.status))
	}
	if k.activationDeadline != nil && now.After(*k.activationDeadline) {
		return NewActivationError(ReasonDeadlineExpired, k.id, nil)
	}
	if k.ownerUserID != nil && *k.ownerUserID != userID {
		return NewActivationError(ReasonConflictingOwner, k.id, nil)
	}
	return nil
}

// DefaultFinishAt is the end of the paid period when the key is activated at now.
func (k *Key) DefaultFinishAt(now time.Time) time.Time {
	return now.AddDate(0, 0, k.periodDays)
}

// Activate binds the owner and the provisioned server user, starting the paid period.
func (k *Key) Activate(userID int64, serverUserID uint, finishAt, now time.Time) error {
	if aerr := k.CheckActivatable(userID, now); aerr != nil {
		return aerr
	}
	if serverUserID == 0 {
		return fmt.Errorf("server user is required to activate key %d", k.id)
	}
	if !finishAt.After(now) {
		return fmt.Errorf("finish time must be in the future")
	}

	owner := userID
	su := serverUserID
	k.ownerUserID = &owner
	k.serverUserID = &su
	k.finishAt = &finishAt
	k.activationDeadline = nil
	k.status = StatusActive
	k.activatedAt = &now
	k.updatedAt = now
	return nil
}

// IsPastDeadline reports whether the time bound relevant to the current status has passed.
func (k *Key) IsPastDeadline(now time.Time) bool {
	switch k.status {
	case StatusActive:
		return k.finishAt != nil && now.After(*k.finishAt)
	case StatusIssued:
		return k.activationDeadline != nil && now.After(*k.activationDeadline)
	default:
		return false
	}
}

// ReconcileExpiry expires the key when its relevant deadline has passed.
// It returns true only when the status changed; expired keys are left untouched.
func (k *Key) ReconcileExpiry(now time.Time) bool {
	if !k.IsPastDeadline(now) {
		return false
	}
	k.markExpired(now)
	return true
}

// ExpireByReplacement ends an active key early because a successor was issued.
func (k *Key) ExpireByReplacement(now time.Time) error {
	if !k.status.CanTransitionTo(StatusExpired) {
		return fmt.Errorf("%w: %s to %s", ErrInvalidStatusTransition, k.status, StatusExpired)
	}
	if k.finishAt == nil || k.finishAt.After(now) {
		k.finishAt = &now
	}
	k.markExpired(now)
	return nil
}

func (k *Key) markExpired(now time.Time) {
	k.status = StatusExpired
	k.expiredAt = &now
	k.updatedAt = now
}

// TransferOwnership is the only way to rebind a key to a different user.
func (k *Key) TransferOwnership(fromUserID, toUserID int64, now time.Time) error {
	if k.status == StatusExpired {
		return fmt.Errorf("%w: expired keys cannot be transferred", ErrInvalidStatusTransition)
	}
	if fromUserID == toUserID {
		return fmt.Errorf("source and target user are the same")
	}
	if !k.IsOwnedBy(fromUserID) {
		return ErrNotOwner
	}
	to := toUserID
	k.ownerUserID = &to
	k.updatedAt = now
	return nil
}

// RebindServerUser points the key at a server user on another panel after a migration.
func (k *Key) RebindServerUser(serverUserID uint, now time.Time) error {
	if k.status != StatusActive {
		return fmt.Errorf("only active keys can move between panels")
	}
	su := serverUserID
	k.serverUserID = &su
	k.updatedAt = now
	return nil
}
