package panel

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrPanelNotFound      = errors.New("panel not found")
	ErrServerUserNotFound = errors.New("server user not found")
	ErrUnsupportedType    = errors.New("unsupported panel type")
	ErrPanelDeleted       = errors.New("panel was deleted with its server")
)

// Type identifies the VPN control-plane software installed on a server.
type Type string

const (
	TypeMarzban Type = "marzban"
	TypeXUI     Type = "3x-ui"
)

func (t Type) String() string {
	return string(t)
}

func (t Type) IsValid() bool {
	return t == TypeMarzban || t == TypeXUI
}

func ParseType(s string) (Type, error) {
	t := Type(strings.ToLower(strings.TrimSpace(s)))
	if !t.IsValid() {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedType, s)
	}
	return t, nil
}

type Status string

const (
	StatusCreated    Status = "created"
	StatusConfigured Status = "configured"
	StatusError      Status = "error"
	StatusDeleted    Status = "deleted"
)

func (s Status) IsValid() bool {
	switch s {
	case StatusCreated, StatusConfigured, StatusError, StatusDeleted:
		return true
	}
	return false
}

// Panel is an installed VPN control plane reachable over its admin API.
type Panel struct {
	id             uint
	serverID       uint
	panelType      Type
	apiURL         string
	username       string
	password       string
	token          string
	tokenExpiresAt *time.Time
	status         Status
	errorMessage   string
	createdAt      time.Time
	updatedAt      time.Time
}

func NewPanel(serverID uint, panelType Type, apiURL, username, password string, now time.Time) (*Panel, error) {
	if serverID == 0 {
		return nil, fmt.Errorf("server ID is required")
	}
	if !panelType.IsValid() {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedType, panelType)
	}
	if apiURL == "" {
		return nil, fmt.Errorf("panel API URL is required")
	}
	return &Panel{
		serverID:  serverID,
		panelType: panelType,
		apiURL:    strings.TrimRight(apiURL, "/"),
		username:  username,
		password:  password,
		status:    StatusCreated,
		createdAt: now,
		updatedAt: now,
	}, nil
}

type PanelState struct {
	ID             uint
	ServerID       uint
	Type           Type
	APIURL         string
	Username       string
	Password       string
	Token          string
	TokenExpiresAt *time.Time
	Status         Status
	ErrorMessage   string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

func ReconstructPanel(s PanelState) (*Panel, error) {
	if s.ID == 0 {
		return nil, fmt.Errorf("panel ID cannot be zero")
	}
	if !s.Type.IsValid() {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedType, s.Type)
	}
	if !s.Status.IsValid() {
		return nil, fmt.Errorf("invalid panel status: %s", s.Status)
	}
	return &Panel{
		id:             s.ID,
		serverID:       s.ServerID,
		panelType:      s.Type,
		apiURL:         s.APIURL,
		username:       s.Username,
		password:       s.Password,
		token:          s.Token,
		tokenExpiresAt: s.TokenExpiresAt,
		status:         s.Status,
		errorMessage:   s.ErrorMessage,
		createdAt:      s.CreatedAt,
		updatedAt:      s.UpdatedAt,
	}, nil
}

func (p *Panel) ID() uint                   { return p.id }
func (p *Panel) ServerID() uint             { return p.serverID }
func (p *Panel) Type() Type                 { return p.panelType }
func (p *Panel) APIURL() string             { return p.apiURL }
func (p *Panel) Username() string           { return p.username }
func (p *Panel) Password() string           { return p.password }
func (p *Panel) Token() string              { return p.token }
func (p *Panel) TokenExpiresAt() *time.Time { return p.tokenExpiresAt }
func (p *Panel) Status() Status             { return p.status }
func (p *Panel) ErrorMessage() string       { return p.errorMessage }
func (p *Panel) CreatedAt() time.Time       { return p.createdAt }
func (p *Panel) UpdatedAt() time.Time       { return p.updatedAt }
func (p *Panel) SetID(id uint)              { p.id = id }

func (p *Panel) IsConfigured() bool {
	return p.status == StatusConfigured
}

func (p *Panel) IsDeleted() bool {
	return p.status == StatusDeleted
}

// HasFreshToken reports whether the stored token stays valid for at least margin.
func (p *Panel) HasFreshToken(now time.Time, margin time.Duration) bool {
	if p.token == "" || p.tokenExpiresAt == nil {
		return false
	}
	return p.tokenExpiresAt.After(now.Add(margin))
}

// SetToken stores a freshly issued admin token. A panel that can authenticate is usable.
func (p *Panel) SetToken(token string, expiresAt, now time.Time) error {
	if p.status == StatusDeleted {
		return ErrPanelDeleted
	}
	if token == "" {
		return fmt.Errorf("panel token cannot be empty")
	}
	p.token = token
	p.tokenExpiresAt = &expiresAt
	p.status = StatusConfigured
	p.errorMessage = ""
	p.updatedAt = now
	return nil
}

func (p *Panel) MarkError(msg string, now time.Time) {
	if p.status == StatusDeleted {
		return
	}
	p.status = StatusError
	p.errorMessage = msg
	p.updatedAt = now
}

// NeedsReconcile is true for panels that never authenticated or failed last time.
func (p *Panel) NeedsReconcile() bool {
	return p.status == StatusCreated || p.status == StatusError
}

// MarkDeleted takes the panel out of rotation for good. Its token is dropped
// since the VM behind it is going away.
func (p *Panel) MarkDeleted(now time.Time) {
	p.status = StatusDeleted
	p.token = ""
	p.tokenExpiresAt = nil
	p.errorMessage = ""
	p.updatedAt = now
}
