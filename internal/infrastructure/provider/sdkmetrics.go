package provider

import (
	"time"

	"github.com/orris-inc/keyhub/internal/infrastructure/metrics"
)

// applicationName identifies keyhub to vendor APIs that ask for it.
const applicationName = "keyhub"

// sdkMetrics reports calls made through a vendor SDK the same way apiClient
// reports its own requests.
type sdkMetrics struct {
	provider string
	metrics  *metrics.Metrics
}

func (s sdkMetrics) observe(op string, start time.Time) {
	s.metrics.ObserveProviderRequest(s.provider, op, time.Since(start))
}

func (s sdkMetrics) fail(err *ProvisioningError) error {
	return recordFailure(s.metrics, err)
}
