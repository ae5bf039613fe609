package provider

import (
	"context"
	"net/http"
	"time"

	"github.com/vultr/govultr/v3"
	"golang.org/x/oauth2"

	"github.com/orris-inc/keyhub/internal/infrastructure/metrics"
	"github.com/orris-inc/keyhub/internal/shared/config"
	"github.com/orris-inc/keyhub/internal/shared/id"
)

const ProviderVultr = "vultr"

// unassignedIPv4 is what Vultr reports until the instance has an address.
const unassignedIPv4 = "0.0.0.0"

// PasswordChanger changes the root password of a reachable host.
type PasswordChanger interface {
	ChangeRootPassword(ctx context.Context, host, currentPassword, newPassword string) error
}

// VultrProvider rents servers through the Vultr v2 API. Vultr has no
// password reset action, so the credential is rotated over SSH.
type VultrProvider struct {
	client   *govultr.Client
	cfg      config.VultrConfig
	calls    sdkMetrics
	password PasswordChanger
}

func NewVultrProvider(cfg config.VultrConfig, httpClient *http.Client, m *metrics.Metrics, password PasswordChanger) *VultrProvider {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultHTTPTimeout}
	}
	base := context.WithValue(context.Background(), oauth2.HTTPClient, httpClient)
	authed := oauth2.NewClient(base, oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cfg.APIKey}))
	authed.Timeout = httpClient.Timeout

	client := govultr.NewClient(authed)
	client.SetUserAgent(applicationName)
	// Failures go back to the caller, which marks the server as Error.
	client.SetRetryLimit(0)
	if cfg.BaseURL != "" {
		// A malformed URL keeps the SDK default.
		_ = client.SetBaseURL(cfg.BaseURL)
	}

	return &VultrProvider{
		client:   client,
		cfg:      cfg,
		calls:    sdkMetrics{provider: ProviderVultr, metrics: m},
		password: password,
	}
}

func (p *VultrProvider) Name() string { return ProviderVultr }

func (p *VultrProvider) CreateServer(ctx context.Context, spec ServerSpec) (*VM, error) {
	plan := p.cfg.Plan
	if spec.IsFree && p.cfg.FreePlan != "" {
		plan = p.cfg.FreePlan
	}

	start := time.Now()
	in, resp, err := p.client.Instance.Create(ctx, &govultr.InstanceCreateReq{
		Region:   spec.Location,
		Plan:     plan,
		OsID:     p.cfg.OSID,
		Label:    spec.Name,
		Hostname: spec.Name,
	})
	p.calls.observe("create_server", start)
	if err != nil {
		return nil, p.failed("create_server", resp, err)
	}
	if in == nil || in.ID == "" {
		return nil, invalidf(ProviderVultr, "create_server", "response has no instance id")
	}
	vm := p.toVM(in)
	vm.RootPassword = in.DefaultPassword
	return vm, nil
}

func (p *VultrProvider) GetServer(ctx context.Context, id string) (*VM, error) {
	start := time.Now()
	in, resp, err := p.client.Instance.Get(ctx, id)
	p.calls.observe("get_server", start)
	if err != nil {
		return nil, p.failed("get_server", resp, err)
	}
	if in == nil || in.ID == "" {
		return nil, invalidf(ProviderVultr, "get_server", "response has no instance id")
	}
	return p.toVM(in), nil
}

func (p *VultrProvider) ResetRootPassword(ctx context.Context, vm *VM, currentPassword string) (string, error) {
	if p.password == nil {
		return "", invalidf(ProviderVultr, "reset_password", "no ssh executor configured")
	}
	if vm.IPv4 == "" || currentPassword == "" {
		return "", invalidf(ProviderVultr, "reset_password", "instance %s has no address or initial password", vm.ID)
	}
	next, err := id.NewSecret()
	if err != nil {
		return "", err
	}
	if err := p.password.ChangeRootPassword(ctx, vm.IPv4, currentPassword, next); err != nil {
		return "", Unreachable(ProviderVultr, "reset_password", err)
	}
	return next, nil
}

// DeleteServer treats an instance that is already gone as deleted. The SDK
// drops the status of a failed delete, so a lookup tells the two apart.
func (p *VultrProvider) DeleteServer(ctx context.Context, id string) error {
	start := time.Now()
	err := p.client.Instance.Delete(ctx, id)
	p.calls.observe("delete_server", start)
	if err == nil {
		return nil
	}

	if _, resp, getErr := p.client.Instance.Get(ctx, id); getErr != nil && resp != nil && resp.StatusCode == http.StatusNotFound {
		return nil
	}
	return p.failed("delete_server", nil, err)
}

func (p *VultrProvider) failed(op string, resp *http.Response, err error) error {
	status := 0
	if resp != nil {
		status = resp.StatusCode
	}
	return p.calls.fail(fromStatus(ProviderVultr, op, status, err))
}

func (p *VultrProvider) toVM(in *govultr.Instance) *VM {
	state := VMPending
	switch {
	case in.Status == "active" && in.PowerStatus == "running":
		state = VMRunning
	case in.PowerStatus == "stopped":
		state = VMOff
	}
	ip := in.MainIP
	if ip == unassignedIPv4 {
		ip = ""
	}
	return &VM{ID: in.ID, State: state, IPv4: ip}
}
