package panel

import (
	"fmt"
	"time"
)

// Credentials maps a protocol (or "inbound:<id>" for 3x-ui) to the client
// parameters the panel generated for it.
type Credentials map[string]map[string]string

// ServerUser is the account a key is served through on one panel.
type ServerUser struct {
	id              uint
	panelID         uint
	keyID           uint
	username        string
	subscriptionURL string
	credentials     Credentials
	trafficLimit    int64
	expireAt        time.Time
	createdAt       time.Time
	deletedAt       *time.Time
}

func NewServerUser(panelID, keyID uint, username, subscriptionURL string, creds Credentials, trafficLimit int64, expireAt, now time.Time) (*ServerUser, error) {
	if panelID == 0 {
		return nil, fmt.Errorf("panel ID is required")
	}
	if username == "" {
		return nil, fmt.Errorf("server username is required")
	}
	if creds == nil {
		creds = Credentials{}
	}
	return &ServerUser{
		panelID:         panelID,
		keyID:           keyID,
		username:        username,
		subscriptionURL: subscriptionURL,
		credentials:     creds,
		trafficLimit:    trafficLimit,
		expireAt:        expireAt,
		createdAt:       now,
	}, nil
}

func ReconstructServerUser(id, panelID, keyID uint, username, subscriptionURL string, creds Credentials, trafficLimit int64, expireAt, createdAt time.Time, deletedAt *time.Time) *ServerUser {
	return &ServerUser{
		id:              id,
		panelID:         panelID,
		keyID:           keyID,
		username:        username,
		subscriptionURL: subscriptionURL,
		credentials:     creds,
		trafficLimit:    trafficLimit,
		expireAt:        expireAt,
		createdAt:       createdAt,
		deletedAt:       deletedAt,
	}
}

func (u *ServerUser) ID() uint                 { return u.id }
func (u *ServerUser) PanelID() uint            { return u.panelID }
func (u *ServerUser) KeyID() uint              { return u.keyID }
func (u *ServerUser) Username() string         { return u.username }
func (u *ServerUser) SubscriptionURL() string  { return u.subscriptionURL }
func (u *ServerUser) Credentials() Credentials { return u.credentials }
func (u *ServerUser) TrafficLimit() int64      { return u.trafficLimit }
func (u *ServerUser) ExpireAt() time.Time      { return u.expireAt }
func (u *ServerUser) CreatedAt() time.Time     { return u.createdAt }
func (u *ServerUser) DeletedAt() *time.Time    { return u.deletedAt }
func (u *ServerUser) SetID(id uint)            { u.id = id }

func (u *ServerUser) IsDeleted() bool {
	return u.deletedAt != nil
}

// RemainingTraffic is what a migrated account should start with, never negative.
func (u *ServerUser) RemainingTraffic(used int64) int64 {
	if u.trafficLimit == 0 {
		return 0
	}
	if used >= u.trafficLimit {
		return 1
	}
	return u.trafficLimit - used
}

// AccountSpec sizes a new panel account for a key.
type AccountSpec struct {
	KeyID           uint
	OwnerUserID     int64
	TrafficLimit    int64
	ExpireAt        time.Time
	ConnectionLimit int
}
