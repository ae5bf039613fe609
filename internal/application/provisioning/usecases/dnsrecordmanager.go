package usecases

import (
	"context"
	"fmt"

	"github.com/orris-inc/keyhub/internal/infrastructure/provider"
	"github.com/orris-inc/keyhub/internal/shared/logger"
)

// DNSRecordManager keeps exactly one A record per server name.
type DNSRecordManager struct {
	dns    provider.DNSProvider
	logger logger.Interface
}

func NewDNSRecordManager(dns provider.DNSProvider, logger logger.Interface) *DNSRecordManager {
	return &DNSRecordManager{dns: dns, logger: logger}
}

// Enabled is false when no DNS provider is configured; servers are then
// addressed by IP.
func (m *DNSRecordManager) Enabled() bool {
	return m.dns != nil
}

func (m *DNSRecordManager) FQDN(label string) string {
	if m.dns == nil {
		return ""
	}
	return m.dns.FQDN(label)
}

// Ensure creates the A record for fqdn, reuses it when it already points at
// ip, and moves it to ip otherwise. More than one A record for the name is a
// conflict we do not resolve automatically.
func (m *DNSRecordManager) Ensure(ctx context.Context, fqdn, ip string) (*provider.DNSRecord, error) {
	records, err := m.dns.ListARecords(ctx, fqdn)
	if err != nil {
		return nil, err
	}

	switch len(records) {
	case 0:
		rec, err := m.dns.CreateARecord(ctx, fqdn, ip)
		if err != nil {
			return nil, err
		}
		m.logger.Infow("dns record created", "name", fqdn, "ip", ip, "record_id", rec.ID)
		return rec, nil
	case 1:
		existing := records[0]
		if existing.Content == ip {
			return &existing, nil
		}
		rec, err := m.dns.UpdateARecord(ctx, existing.ID, fqdn, ip)
		if err != nil {
			return nil, provider.DNSConflict(m.dns.Name(), "update_record",
				fmt.Errorf("record %s points at %s and could not be moved to %s: %w", existing.ID, existing.Content, ip, err))
		}
		m.logger.Infow("dns record moved", "name", fqdn, "from_ip", existing.Content, "ip", ip, "record_id", rec.ID)
		return rec, nil
	default:
		return nil, provider.DNSConflict(m.dns.Name(), "ensure_record",
			fmt.Errorf("%d A records exist for %s", len(records), fqdn))
	}
}

// Remove deletes a record by id; a record that is already gone is fine.
func (m *DNSRecordManager) Remove(ctx context.Context, recordID string) error {
	if recordID == "" || m.dns == nil {
		return nil
	}
	return m.dns.DeleteRecord(ctx, recordID)
}
