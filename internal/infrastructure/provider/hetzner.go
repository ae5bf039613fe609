package provider

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/hetznercloud/hcloud-go/v2/hcloud"

	"github.com/orris-inc/keyhub/internal/infrastructure/metrics"
	"github.com/orris-inc/keyhub/internal/shared/config"
)

const ProviderHetzner = "hetzner"

// HetznerProvider rents servers through the Hetzner Cloud API.
type HetznerProvider struct {
	client *hcloud.Client
	cfg    config.HetznerConfig
	calls  sdkMetrics
}

func NewHetznerProvider(cfg config.HetznerConfig, httpClient *http.Client, m *metrics.Metrics) *HetznerProvider {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultHTTPTimeout}
	}
	opts := []hcloud.ClientOption{
		hcloud.WithToken(cfg.Token),
		hcloud.WithHTTPClient(httpClient),
		hcloud.WithApplication(applicationName, ""),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, hcloud.WithEndpoint(cfg.BaseURL))
	}
	return &HetznerProvider{
		client: hcloud.NewClient(opts...),
		cfg:    cfg,
		calls:  sdkMetrics{provider: ProviderHetzner, metrics: m},
	}
}

func (p *HetznerProvider) Name() string { return ProviderHetzner }

func (p *HetznerProvider) CreateServer(ctx context.Context, spec ServerSpec) (*VM, error) {
	serverType := p.cfg.ServerType
	if spec.IsFree && p.cfg.FreeType != "" {
		serverType = p.cfg.FreeType
	}

	start := time.Now()
	res, resp, err := p.client.Server.Create(ctx, hcloud.ServerCreateOpts{
		Name:             spec.Name,
		ServerType:       &hcloud.ServerType{Name: serverType},
		Image:            &hcloud.Image{Name: p.cfg.Image},
		Location:         &hcloud.Location{Name: spec.Location},
		StartAfterCreate: hcloud.Ptr(true),
	})
	p.calls.observe("create_server", start)
	if err != nil {
		return nil, p.failed("create_server", resp, err)
	}
	if res.Server == nil || res.Server.ID == 0 {
		return nil, invalidf(ProviderHetzner, "create_server", "response has no server id")
	}

	vm := p.toVM(res.Server)
	vm.RootPassword = res.RootPassword
	return vm, nil
}

func (p *HetznerProvider) GetServer(ctx context.Context, id string) (*VM, error) {
	serverID, err := p.serverID("get_server", id)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	s, resp, err := p.client.Server.GetByID(ctx, serverID)
	p.calls.observe("get_server", start)
	if err != nil {
		return nil, p.failed("get_server", resp, err)
	}
	if s == nil {
		return nil, InvalidResponse(ProviderHetzner, "get_server", http.StatusNotFound, fmt.Errorf("server %s not found", id))
	}
	return p.toVM(s), nil
}

// ResetRootPassword uses the reset_password server action.
func (p *HetznerProvider) ResetRootPassword(ctx context.Context, vm *VM, _ string) (string, error) {
	serverID, err := p.serverID("reset_password", vm.ID)
	if err != nil {
		return "", err
	}

	start := time.Now()
	res, resp, err := p.client.Server.ResetPassword(ctx, &hcloud.Server{ID: serverID})
	p.calls.observe("reset_password", start)
	if err != nil {
		return "", p.failed("reset_password", resp, err)
	}
	if res.RootPassword == "" {
		return "", invalidf(ProviderHetzner, "reset_password", "response has no root password")
	}
	return res.RootPassword, nil
}

func (p *HetznerProvider) DeleteServer(ctx context.Context, id string) error {
	serverID, err := p.serverID("delete_server", id)
	if err != nil {
		return err
	}

	start := time.Now()
	_, resp, err := p.client.Server.DeleteWithResult(ctx, &hcloud.Server{ID: serverID})
	p.calls.observe("delete_server", start)
	if err != nil {
		if failure := p.failed("delete_server", resp, err); !IsNotFound(failure) {
			return failure
		}
	}
	return nil
}

func (p *HetznerProvider) serverID(op, id string) (int64, error) {
	n, err := strconv.ParseInt(id, 10, 64)
	if err != nil {
		return 0, invalidf(ProviderHetzner, op, "malformed server id %q", id)
	}
	return n, nil
}

func (p *HetznerProvider) failed(op string, resp *hcloud.Response, err error) error {
	status := 0
	if resp != nil && resp.Response != nil {
		status = resp.StatusCode
	}
	return p.calls.fail(fromStatus(ProviderHetzner, op, status, err))
}

func (p *HetznerProvider) toVM(s *hcloud.Server) *VM {
	state := VMPending
	switch s.Status {
	case hcloud.ServerStatusRunning:
		state = VMRunning
	case hcloud.ServerStatusOff, hcloud.ServerStatusStopping, hcloud.ServerStatusDeleting:
		state = VMOff
	}
	vm := &VM{ID: strconv.FormatInt(s.ID, 10), State: state}
	if ip := s.PublicNet.IPv4.IP; ip != nil && !ip.IsUnspecified() {
		vm.IPv4 = ip.String()
	}
	return vm
}
