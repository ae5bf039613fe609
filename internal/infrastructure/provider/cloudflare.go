package provider

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/cloudflare/cloudflare-go"

	"github.com/orris-inc/keyhub/internal/infrastructure/metrics"
	"github.com/orris-inc/keyhub/internal/shared/config"
)

const ProviderCloudflare = "cloudflare"

// CloudflareDNS manages A records in a single Cloudflare zone.
type CloudflareDNS struct {
	api        *cloudflare.API
	zone       *cloudflare.ResourceContainer
	baseDomain string
	proxied    bool
	calls      sdkMetrics
}

func NewCloudflareDNS(cfg config.CloudflareConfig, httpClient *http.Client, m *metrics.Metrics) (*CloudflareDNS, error) {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultHTTPTimeout}
	}
	opts := []cloudflare.Option{
		cloudflare.HTTPClient(httpClient),
		cloudflare.UserAgent(applicationName),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, cloudflare.BaseURL(strings.TrimRight(cfg.BaseURL, "/")))
	}
	api, err := cloudflare.NewWithAPIToken(cfg.APIToken, opts...)
	if err != nil {
		return nil, err
	}
	return &CloudflareDNS{
		api:        api,
		zone:       cloudflare.ZoneIdentifier(cfg.ZoneID),
		baseDomain: strings.Trim(cfg.BaseDomain, "."),
		proxied:    cfg.Proxied,
		calls:      sdkMetrics{provider: ProviderCloudflare, metrics: m},
	}, nil
}

func (c *CloudflareDNS) Name() string { return ProviderCloudflare }

// FQDN places label under the configured base domain.
func (c *CloudflareDNS) FQDN(label string) string {
	if c.baseDomain == "" {
		return label
	}
	return label + "." + c.baseDomain
}

func (c *CloudflareDNS) ListARecords(ctx context.Context, name string) ([]DNSRecord, error) {
	start := time.Now()
	found, _, err := c.api.ListDNSRecords(ctx, c.zone, cloudflare.ListDNSRecordsParams{Type: "A", Name: name})
	c.calls.observe("list_records", start)
	if err != nil {
		return nil, c.failed("list_records", err)
	}

	records := make([]DNSRecord, 0, len(found))
	for _, r := range found {
		records = append(records, DNSRecord{ID: r.ID, Name: r.Name, Content: r.Content})
	}
	return records, nil
}

func (c *CloudflareDNS) CreateARecord(ctx context.Context, name, ip string) (*DNSRecord, error) {
	start := time.Now()
	r, err := c.api.CreateDNSRecord(ctx, c.zone, cloudflare.CreateDNSRecordParams{
		Type:    "A",
		Name:    name,
		Content: ip,
		TTL:     1,
		Proxied: cloudflare.BoolPtr(c.proxied),
	})
	c.calls.observe("create_record", start)
	return c.written("create_record", r, err)
}

func (c *CloudflareDNS) UpdateARecord(ctx context.Context, recordID, name, ip string) (*DNSRecord, error) {
	start := time.Now()
	r, err := c.api.UpdateDNSRecord(ctx, c.zone, cloudflare.UpdateDNSRecordParams{
		ID:      recordID,
		Type:    "A",
		Name:    name,
		Content: ip,
		TTL:     1,
		Proxied: cloudflare.BoolPtr(c.proxied),
	})
	c.calls.observe("update_record", start)
	return c.written("update_record", r, err)
}

func (c *CloudflareDNS) DeleteRecord(ctx context.Context, recordID string) error {
	start := time.Now()
	err := c.api.DeleteDNSRecord(ctx, c.zone, recordID)
	c.calls.observe("delete_record", start)
	if err != nil {
		if failure := c.failed("delete_record", err); !IsNotFound(failure) {
			return failure
		}
	}
	return nil
}

func (c *CloudflareDNS) written(op string, r cloudflare.DNSRecord, err error) (*DNSRecord, error) {
	if err != nil {
		return nil, c.failed(op, err)
	}
	if r.ID == "" {
		return nil, invalidf(ProviderCloudflare, op, "response has no record id")
	}
	return &DNSRecord{ID: r.ID, Name: r.Name, Content: r.Content}, nil
}

// failed recovers the status class from the SDK's typed errors. Errors
// without one never got a usable answer.
func (c *CloudflareDNS) failed(op string, err error) error {
	var (
		notFound  *cloudflare.NotFoundError
		rateLimit *cloudflare.RatelimitError
		service   *cloudflare.ServiceError
		authn     *cloudflare.AuthenticationError
		authz     *cloudflare.AuthorizationError
		request   *cloudflare.RequestError
		syntax    *json.SyntaxError
		typeErr   *json.UnmarshalTypeError
	)

	status := 0
	switch {
	case errors.As(err, &notFound):
		status = http.StatusNotFound
	case errors.As(err, &rateLimit):
		status = http.StatusTooManyRequests
	case errors.As(err, &service):
		status = http.StatusServiceUnavailable
	case errors.As(err, &authn):
		status = http.StatusForbidden
	case errors.As(err, &authz):
		status = http.StatusUnauthorized
	case errors.As(err, &request):
		status = http.StatusBadRequest
	case errors.As(err, &syntax), errors.As(err, &typeErr):
		status = http.StatusOK
	}
	return c.calls.fail(fromStatus(ProviderCloudflare, op, status, err))
}
