package usecases

import (
	"context"

	"github.com/orris-inc/keyhub/internal/domain/panel"
	"github.com/orris-inc/keyhub/internal/infrastructure/provider"
)

// ProviderRegistry resolves vendor strategies by id.
type ProviderRegistry interface {
	ServerProvider(name string) (provider.ServerProvider, error)
	PanelClient(t panel.Type) (provider.PanelClient, error)
	Installer(t panel.Type) (provider.PanelInstaller, error)
	DNS() provider.DNSProvider
}

// RemoteExecutor runs commands on a rented server as root.
type RemoteExecutor interface {
	Upload(ctx context.Context, host, password, path string, content []byte) error
	Run(ctx context.Context, host, password, command string, stdin []byte) ([]byte, error)
}

type TransactionRunner interface {
	RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
