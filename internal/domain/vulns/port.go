package vulns

import "context"

// Provider supplies the records the dashboard aggregates. Implementations are
// read-only and safe for concurrent use.
type Provider interface {
	Vulnerabilities(ctx context.Context) ([]VulnerabilityRecord, error)
	Vulnerability(ctx context.Context, id string) (VulnerabilityRecord, error)
	Targets(ctx context.Context) ([]Target, error)
	Threats(ctx context.Context) ([]Threat, error)
	// Burndown returns the daily open/closed trend in ascending date order.
	Burndown(ctx context.Context) ([]BurndownPoint, error)
}
