package dashboard

import (
	"context"
	"fmt"

	"github.com/bryanwahyu/quantum-vault/internal/domain/vulns"
)

// Service implements the dashboard read use-cases. It holds no state of its
// own; every call recomputes metrics from the provider.
type Service struct {
	Provider vulns.Provider
	// Scope selects how criticalCount is counted for vulnerability records.
	Scope vulns.CriticalScope
}

func NewService(p vulns.Provider, scope vulns.CriticalScope) *Service {
	return &Service{Provider: p, Scope: scope}
}

// Filter narrows the vulnerability list. Zero values match everything.
type Filter struct {
	TargetID string
	Status   vulns.Status
	Severity vulns.Severity
}

func (f Filter) match(r vulns.VulnerabilityRecord) bool {
	if f.TargetID != "" && r.TargetID != f.TargetID {
		return false
	}
	if f.Status != "" && r.Status != f.Status {
		return false
	}
	if f.Severity != "" && r.Severity != f.Severity {
		return false
	}
	return true
}

// Summary is the dashboard headline block.
type Summary struct {
	TargetID string             `json:"target_id,omitempty"`
	Metrics  vulns.Metrics      `json:"metrics"`
	ByStatus vulns.StatusCounts `json:"by_status"`
	// AvgTimeToRemediate is reported as "N/A": records carry no close date.
	AvgTimeToRemediate string `json:"avg_time_to_remediate"`
}

// ComponentRisk is one row of the risk-by-component heatmap.
type ComponentRisk struct {
	AssetType             vulns.AssetType `json:"asset_type"`
	Vulnerabilities       int             `json:"vulnerabilities"`
	Metrics               vulns.Metrics   `json:"metrics"`
	AverageExploitability float64         `json:"average_exploitability"`
	MaximumExploitability int             `json:"maximum_exploitability"`
}

// TargetRisk pairs a target with metrics over its own records.
type TargetRisk struct {
	vulns.Target
	Metrics vulns.Metrics `json:"metrics"`
}

func (s *Service) Vulnerabilities(ctx context.Context, f Filter) ([]vulns.VulnerabilityRecord, error) {
	all, err := s.Provider.Vulnerabilities(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]vulns.VulnerabilityRecord, 0, len(all))
	for _, r := range all {
		if f.match(r) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s *Service) Vulnerability(ctx context.Context, id string) (vulns.VulnerabilityRecord, error) {
	return s.Provider.Vulnerability(ctx, id)
}

// Summary aggregates every record, or only those of targetID when set.
func (s *Service) Summary(ctx context.Context, targetID string) (Summary, error) {
	recs, err := s.Vulnerabilities(ctx, Filter{TargetID: targetID})
	if err != nil {
		return Summary{}, err
	}
	m, err := vulns.AggregateWithScope(recs, s.Scope)
	if err != nil {
		return Summary{}, fmt.Errorf("aggregate: %w", err)
	}
	return Summary{
		TargetID:           targetID,
		Metrics:            m,
		ByStatus:           vulns.CountByStatus(recs),
		AvgTimeToRemediate: "N/A",
	}, nil
}

// Heatmap returns one row per asset type, in vulns.AssetTypes order.
func (s *Service) Heatmap(ctx context.Context) ([]ComponentRisk, error) {
	recs, err := s.Provider.Vulnerabilities(ctx)
	if err != nil {
		return nil, err
	}
	grouped := make(map[vulns.AssetType][]vulns.VulnerabilityRecord, len(vulns.AssetTypes))
	for _, r := range recs {
		grouped[r.AssetType] = append(grouped[r.AssetType], r)
	}

	out := make([]ComponentRisk, 0, len(vulns.AssetTypes))
	for _, a := range vulns.AssetTypes {
		group := grouped[a]
		m, err := vulns.AggregateWithScope(group, s.Scope)
		if err != nil {
			return nil, fmt.Errorf("aggregate %s: %w", a, err)
		}
		row := ComponentRisk{AssetType: a, Vulnerabilities: len(group), Metrics: m}
		sum := 0
		for _, r := range group {
			idx := r.ExploitabilityIndex()
			sum += idx
			if idx > row.MaximumExploitability {
				row.MaximumExploitability = idx
			}
		}
		if len(group) > 0 {
			row.AverageExploitability = float64(sum) / float64(len(group))
		}
		out = append(out, row)
	}
	return out, nil
}

func (s *Service) Targets(ctx context.Context) ([]TargetRisk, error) {
	targets, err := s.Provider.Targets(ctx)
	if err != nil {
		return nil, err
	}
	recs, err := s.Provider.Vulnerabilities(ctx)
	if err != nil {
		return nil, err
	}
	byTarget := make(map[string][]vulns.VulnerabilityRecord)
	for _, r := range recs {
		byTarget[r.TargetID] = append(byTarget[r.TargetID], r)
	}

	out := make([]TargetRisk, 0, len(targets))
	for _, t := range targets {
		m, err := vulns.AggregateWithScope(byTarget[t.ID], s.Scope)
		if err != nil {
			return nil, fmt.Errorf("aggregate target %s: %w", t.ID, err)
		}
		out = append(out, TargetRisk{Target: t, Metrics: m})
	}
	return out, nil
}

func (s *Service) Threats(ctx context.Context) ([]vulns.Threat, error) {
	return s.Provider.Threats(ctx)
}

// Burndown returns the open/closed trend, limited to the latest days points
// when days > 0.
func (s *Service) Burndown(ctx context.Context, days int) ([]vulns.BurndownPoint, error) {
	points, err := s.Provider.Burndown(ctx)
	if err != nil {
		return nil, err
	}
	if days > 0 && len(points) > days {
		points = points[len(points)-days:]
	}
	return points, nil
}
