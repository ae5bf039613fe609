package provider

import (
	"fmt"
	"net/http"
	"sort"
	"strings"

	"github.com/orris-inc/keyhub/internal/domain/panel"
	"github.com/orris-inc/keyhub/internal/infrastructure/metrics"
	"github.com/orris-inc/keyhub/internal/infrastructure/provider/sshexec"
	"github.com/orris-inc/keyhub/internal/shared/config"
	apperrors "github.com/orris-inc/keyhub/internal/shared/errors"
)

// Registry maps provider ids to strategies. It is built once at startup and
// never mutated afterwards, so lookups need no locking.
type Registry struct {
	servers    map[string]ServerProvider
	panels     map[panel.Type]PanelClient
	installers map[panel.Type]PanelInstaller
	dns        DNSProvider
}

func NewRegistry(servers []ServerProvider, panels []PanelClient, installers []PanelInstaller, dns DNSProvider) *Registry {
	r := &Registry{
		servers:    make(map[string]ServerProvider, len(servers)),
		panels:     make(map[panel.Type]PanelClient, len(panels)),
		installers: make(map[panel.Type]PanelInstaller, len(installers)),
		dns:        dns,
	}
	for _, s := range servers {
		r.servers[s.Name()] = s
	}
	for _, p := range panels {
		r.panels[p.Type()] = p
	}
	for _, i := range installers {
		r.installers[i.Type()] = i
	}
	return r
}

// NewRegistryFromConfig wires every built-in vendor. Server vendors without
// credentials are left out.
func NewRegistryFromConfig(providers config.ProvidersConfig, panels config.PanelsConfig, ssh *sshexec.Client, m *metrics.Metrics) (*Registry, error) {
	httpClient := &http.Client{Timeout: providers.RequestTimeout}
	if providers.RequestTimeout == 0 {
		httpClient.Timeout = defaultHTTPTimeout
	}

	var servers []ServerProvider
	if providers.Hetzner.Token != "" {
		servers = append(servers, NewHetznerProvider(providers.Hetzner, httpClient, m))
	}
	if providers.Vultr.APIKey != "" {
		var changer PasswordChanger
		if ssh != nil {
			changer = ssh
		}
		servers = append(servers, NewVultrProvider(providers.Vultr, httpClient, m, changer))
	}

	var dns DNSProvider
	if providers.Cloudflare.APIToken != "" {
		cf, err := NewCloudflareDNS(providers.Cloudflare, httpClient, m)
		if err != nil {
			return nil, fmt.Errorf("failed to create cloudflare client: %w", err)
		}
		dns = cf
	}

	return NewRegistry(
		servers,
		[]PanelClient{
			NewMarzbanClient(panels.Marzban, panels.TokenLifetime, httpClient, m),
			NewXUIClient(panels.XUI, panels.TokenLifetime, httpClient, m),
		},
		[]PanelInstaller{
			NewScriptInstaller(panel.TypeMarzban, panels.Marzban),
			NewScriptInstaller(panel.TypeXUI, panels.XUI),
		},
		dns,
	), nil
}

func (r *Registry) ServerProvider(name string) (ServerProvider, error) {
	if p, ok := r.servers[name]; ok {
		return p, nil
	}
	return nil, apperrors.NewValidationError(fmt.Sprintf("unknown server provider %q", name), "available: "+strings.Join(r.ServerProviders(), ", "))
}

func (r *Registry) PanelClient(t panel.Type) (PanelClient, error) {
	if c, ok := r.panels[t]; ok {
		return c, nil
	}
	return nil, apperrors.NewValidationError(fmt.Sprintf("unknown panel type %q", t))
}

func (r *Registry) Installer(t panel.Type) (PanelInstaller, error) {
	if i, ok := r.installers[t]; ok {
		return i, nil
	}
	return nil, apperrors.NewValidationError(fmt.Sprintf("no installer for panel type %q", t))
}

// DNS returns nil when no DNS provider is configured.
func (r *Registry) DNS() DNSProvider {
	return r.dns
}

func (r *Registry) ServerProviders() []string {
	names := make([]string, 0, len(r.servers))
	for n := range r.servers {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
