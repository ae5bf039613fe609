package server

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrServerNotFound          = errors.New("server not found")
	ErrLocationNotFound        = errors.New("location not found")
	ErrVersionConflict         = errors.New("server was modified concurrently")
	ErrInvalidStatusTransition = errors.New("invalid server status transition")
)

type Status string

const (
	StatusCreated    Status = "created"
	StatusConfigured Status = "configured"
	StatusError      Status = "error"
	StatusDeleted    Status = "deleted"
)

func (s Status) String() string {
	return string(s)
}

func (s Status) IsValid() bool {
	switch s {
	case StatusCreated, StatusConfigured, StatusError, StatusDeleted:
		return true
	}
	return false
}

// Location is a vendor region a server can be rented in.
type Location struct {
	ID      uint
	Code    string
	Name    string
	Country string
}

// Server is a rented virtual machine hosting one VPN panel.
type Server struct {
	id               uint
	provider         string
	providerServerID string
	locationID       uint
	name             string
	ip               string
	rootPassword     string
	dnsRecordID      string
	domain           string
	isFree           bool
	status           Status
	errorMessage     string
	deleteRequested  *time.Time
	version          int
	createdAt        time.Time
	updatedAt        time.Time
}

// NewServer records a VM the vendor has just accepted.
func NewServer(provider, providerServerID string, locationID uint, name string, isFree bool, now time.Time) (*Server, error) {
	if provider == "" {
		return nil, fmt.Errorf("provider is required")
	}
	if providerServerID == "" {
		return nil, fmt.Errorf("provider server ID is required")
	}
	return &Server{
		provider:         provider,
		providerServerID: providerServerID,
		locationID:       locationID,
		name:             name,
		isFree:           isFree,
		status:           StatusCreated,
		createdAt:        now,
		updatedAt:        now,
	}, nil
}

type ServerState struct {
	ID               uint
	Provider         string
	ProviderServerID string
	LocationID       uint
	Name             string
	IP               string
	RootPassword     string
	DNSRecordID      string
	Domain           string
	IsFree           bool
	Status           Status
	ErrorMessage     string
	DeleteRequested  *time.Time
	Version          int
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

func ReconstructServer(s ServerState) (*Server, error) {
	if s.ID == 0 {
		return nil, fmt.Errorf("server ID cannot be zero")
	}
	if !s.Status.IsValid() {
		return nil, fmt.Errorf("invalid server status: %s", s.Status)
	}
	return &Server{
		id:               s.ID,
		provider:         s.Provider,
		providerServerID: s.ProviderServerID,
		locationID:       s.LocationID,
		name:             s.Name,
		ip:               s.IP,
		rootPassword:     s.RootPassword,
		dnsRecordID:      s.DNSRecordID,
		domain:           s.Domain,
		isFree:           s.IsFree,
		status:           s.Status,
		errorMessage:     s.ErrorMessage,
		deleteRequested:  s.DeleteRequested,
		version:          s.Version,
		createdAt:        s.CreatedAt,
		updatedAt:        s.UpdatedAt,
	}, nil
}

func (s *Server) ID() uint                 { return s.id }
func (s *Server) Provider() string         { return s.provider }
func (s *Server) ProviderServerID() string { return s.providerServerID }
func (s *Server) LocationID() uint         { return s.locationID }
func (s *Server) Name() string             { return s.name }
func (s *Server) IP() string               { return s.ip }
func (s *Server) RootPassword() string     { return s.rootPassword }
func (s *Server) DNSRecordID() string      { return s.dnsRecordID }
func (s *Server) Domain() string           { return s.domain }
func (s *Server) IsFree() bool             { return s.isFree }
func (s *Server) Status() Status           { return s.status }
func (s *Server) ErrorMessage() string     { return s.errorMessage }
func (s *Server) Version() int             { return s.version }
func (s *Server) CreatedAt() time.Time     { return s.createdAt }
func (s *Server) UpdatedAt() time.Time     { return s.updatedAt }

func (s *Server) SetID(id uint)    { s.id = id }
func (s *Server) SetVersion(v int) { s.version = v }

func (s *Server) IsConfigured() bool {
	return s.status == StatusConfigured
}

func (s *Server) DeleteRequested() *time.Time {
	return s.deleteRequested
}

// IsProvisioning is true while the VM is still being brought up, including
// after a failed provisioning step. A server that failed during deletion is
// not provisioning even if it never got an address.
func (s *Server) IsProvisioning() bool {
	if s.deleteRequested != nil {
		return false
	}
	return s.status == StatusCreated || s.status == StatusError
}

// SetRootPassword records a credential the vendor generated or we rotated.
func (s *Server) SetRootPassword(password string, now time.Time) {
	s.rootPassword = password
	s.updatedAt = now
}

// MarkConfigured finishes provisioning once the VM is reachable under its DNS name.
func (s *Server) MarkConfigured(ip, domain, dnsRecordID string, now time.Time) error {
	if !s.IsProvisioning() {
		return fmt.Errorf("%w: %s to %s", ErrInvalidStatusTransition, s.status, StatusConfigured)
	}
	if ip == "" {
		return fmt.Errorf("server IP is required")
	}
	s.ip = ip
	s.domain = domain
	s.dnsRecordID = dnsRecordID
	s.status = StatusConfigured
	s.errorMessage = ""
	s.updatedAt = now
	return nil
}

// MarkError records a provisioning failure; the reconcile pass picks it up again.
func (s *Server) MarkError(msg string, now time.Time) {
	if s.status == StatusDeleted {
		return
	}
	s.status = StatusError
	s.errorMessage = msg
	s.updatedAt = now
}

// RequestDeletion records that teardown has started. It is kept through
// later failures so the server is never configured again.
func (s *Server) RequestDeletion(now time.Time) {
	if s.deleteRequested != nil {
		return
	}
	s.deleteRequested = &now
	s.updatedAt = now
}

// ClearDNS forgets the DNS record after it was removed at the provider.
func (s *Server) ClearDNS(now time.Time) {
	s.dnsRecordID = ""
	s.updatedAt = now
}

// MarkDeleted is the final state after DNS and the VM are both gone.
func (s *Server) MarkDeleted(now time.Time) error {
	if s.status == StatusDeleted {
		return fmt.Errorf("%w: server already deleted", ErrInvalidStatusTransition)
	}
	s.status = StatusDeleted
	s.errorMessage = ""
	s.updatedAt = now
	return nil
}
