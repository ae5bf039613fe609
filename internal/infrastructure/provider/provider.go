// Package provider holds the pluggable vendor strategies: cloud server
// vendors, the DNS provider and the VPN panel clients.
package provider

import (
	"context"
	"time"

	"github.com/orris-inc/keyhub/internal/domain/panel"
)

// VMState is the vendor-neutral lifecycle state of a virtual machine.
type VMState string

const (
	VMPending VMState = "pending"
	VMRunning VMState = "running"
	VMOff     VMState = "off"
)

// ServerSpec describes the VM to rent.
type ServerSpec struct {
	Name     string
	Location string // vendor region slug
	IsFree   bool
}

// VM is the vendor's view of a server.
type VM struct {
	ID           string
	State        VMState
	IPv4         string
	RootPassword string // only returned on creation by some vendors
}

type ServerProvider interface {
	Name() string
	CreateServer(ctx context.Context, spec ServerSpec) (*VM, error)
	GetServer(ctx context.Context, id string) (*VM, error)
	// ResetRootPassword rotates the root credential. currentPassword is what
	// was recorded on creation; vendors with an API action ignore it.
	ResetRootPassword(ctx context.Context, vm *VM, currentPassword string) (string, error)
	// DeleteServer treats an already missing VM as deleted.
	DeleteServer(ctx context.Context, id string) error
}

type DNSRecord struct {
	ID      string
	Name    string
	Content string
}

type DNSProvider interface {
	Name() string
	// FQDN expands a host label into the managed zone.
	FQDN(label string) string
	ListARecords(ctx context.Context, fqdn string) ([]DNSRecord, error)
	CreateARecord(ctx context.Context, fqdn, ip string) (*DNSRecord, error)
	UpdateARecord(ctx context.Context, id, fqdn, ip string) (*DNSRecord, error)
	DeleteRecord(ctx context.Context, id string) error
}

// PanelToken is an admin credential issued by a panel.
type PanelToken struct {
	Token     string
	ExpiresAt time.Time
}

type CreateUserRequest struct {
	Username        string
	TrafficLimit    int64
	ExpireAt        time.Time
	ConnectionLimit int
	KeyID           uint
}

type CreatedUser struct {
	SubscriptionURL string
	Credentials     panel.Credentials
}

type UserUsage struct {
	Used            int64
	Limit           int64
	Online          bool
	ExpireAt        time.Time
	SubscriptionURL string
}

type OnlineStatus struct {
	Online bool
	IPs    []string
}

// PanelClient speaks one panel kind's admin API. All calls except
// Authenticate expect p to carry a valid token.
type PanelClient interface {
	Type() panel.Type
	Authenticate(ctx context.Context, p *panel.Panel) (*PanelToken, error)
	CreateUser(ctx context.Context, p *panel.Panel, req CreateUserRequest) (*CreatedUser, error)
	DeleteUser(ctx context.Context, p *panel.Panel, u *panel.ServerUser) error
	GetUsage(ctx context.Context, p *panel.Panel, u *panel.ServerUser) (*UserUsage, error)
	CheckOnline(ctx context.Context, p *panel.Panel, u *panel.ServerUser) (*OnlineStatus, error)
}

// PanelInstaller renders the unattended install for a panel kind.
type PanelInstaller interface {
	Type() panel.Type
	// InstallScript returns the shell command and the answer file it reads.
	InstallScript(username, password string) (command string, answers []byte, err error)
	// APIURL is the admin endpoint of a panel installed on host.
	APIURL(host string) string
}
