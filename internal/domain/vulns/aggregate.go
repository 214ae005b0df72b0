package vulns

import "math"

// Observation is the common projection of a record or a check: its level and
// whether it belongs to the open/failed subset.
type Observation struct {
	Level  Severity
	Active bool
}

// Observable is implemented by VulnerabilityRecord and CheckResult.
type Observable interface {
	Observe() Observation
}

// CriticalScope selects which items criticalCount is taken over.
type CriticalScope int

const (
	// CriticalInSubset counts critical items among open records or failed checks.
	CriticalInSubset CriticalScope = iota
	// CriticalInCollection counts critical items over the whole input.
	CriticalInCollection
)

// SeverityCounts value object
type SeverityCounts struct {
	Critical      int `json:"critical"`
	High          int `json:"high"`
	Medium        int `json:"medium"`
	Low           int `json:"low"`
	Informational int `json:"informational"`
}

func (c *SeverityCounts) add(s Severity) {
	switch s {
	case SeverityCritical:
		c.Critical++
	case SeverityHigh:
		c.High++
	case SeverityMedium:
		c.Medium++
	case SeverityLow:
		c.Low++
	case SeverityInformational:
		c.Informational++
	}
}

// Metrics is recomputed on demand and never stored.
//
// OverallRiskScore is the unrounded mean and is the value to compare against;
// DisplayRiskScore is the same mean rounded for presentation.
type Metrics struct {
	OverallRiskScore float64        `json:"overall_risk_score"`
	DisplayRiskScore int            `json:"display_risk_score"`
	OpenCount        int            `json:"open_count"`
	CriticalCount    int            `json:"critical_count"`
	TotalCount       int            `json:"total_count"`
	EvaluatedCount   int            `json:"evaluated_count"`
	BySeverity       SeverityCounts `json:"by_severity"`
}

// Aggregate reduces items with the default critical scope.
func Aggregate[T Observable](items []T) (Metrics, error) {
	return AggregateWithScope(items, CriticalInSubset)
}

// AggregateWithScope reduces items into Metrics. Any item carrying a level
// outside the closed set fails the whole call.
func AggregateWithScope[T Observable](items []T, scope CriticalScope) (Metrics, error) {
	var (
		m   Metrics
		sum int
	)
	for _, it := range items {
		o := it.Observe()
		score, err := o.Level.Score()
		if err != nil {
			return Metrics{}, err
		}
		m.EvaluatedCount++
		if o.Level == SeverityCritical && (o.Active || scope == CriticalInCollection) {
			m.CriticalCount++
		}
		if !o.Active {
			continue
		}
		m.OpenCount++
		m.BySeverity.add(o.Level)
		sum += score
	}
	m.TotalCount = m.OpenCount
	if m.OpenCount > 0 {
		m.OverallRiskScore = float64(sum) / float64(m.OpenCount)
		m.DisplayRiskScore = int(math.Floor(m.OverallRiskScore + 0.5))
	}
	return m, nil
}
