package dashboard

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bryanwahyu/quantum-vault/internal/domain/vulns"
	"github.com/bryanwahyu/quantum-vault/internal/infra/catalog"
)

func newService(t *testing.T) *Service {
	t.Helper()
	c, err := catalog.Default()
	require.NoError(t, err)
	return NewService(c, vulns.CriticalInSubset)
}

func TestSummaryAllTargets(t *testing.T) {
	s := newService(t)

	sum, err := s.Summary(context.Background(), "")
	require.NoError(t, err)
	assert.InDelta(t, 220.0/3.0, sum.Metrics.OverallRiskScore, 1e-9)
	assert.Equal(t, 73, sum.Metrics.DisplayRiskScore)
	assert.Equal(t, 3, sum.Metrics.OpenCount)
	assert.Equal(t, 1, sum.Metrics.CriticalCount)
	assert.Equal(t, 5, sum.Metrics.EvaluatedCount)
	assert.Equal(t, vulns.StatusCounts{Open: 3, InProgress: 1, Closed: 1}, sum.ByStatus)
	assert.Equal(t, "N/A", sum.AvgTimeToRemediate)
}

func TestSummaryPerTarget(t *testing.T) {
	s := newService(t)

	sum, err := s.Summary(context.Background(), "T2")
	require.NoError(t, err)
	assert.Equal(t, float64(50), sum.Metrics.OverallRiskScore)
	assert.Equal(t, 1, sum.Metrics.OpenCount)
	assert.Equal(t, 2, sum.Metrics.EvaluatedCount)

	sum, err = s.Summary(context.Background(), "T-unknown")
	require.NoError(t, err)
	assert.Equal(t, vulns.Metrics{}, sum.Metrics)
}

func TestVulnerabilitiesFilter(t *testing.T) {
	s := newService(t)

	got, err := s.Vulnerabilities(context.Background(), Filter{Status: vulns.StatusOpen, Severity: vulns.SeverityHigh})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "VULN-004", got[0].ID)

	got, err = s.Vulnerabilities(context.Background(), Filter{TargetID: "T1"})
	require.NoError(t, err)
	assert.Len(t, got, 3)
}

func TestHeatmap(t *testing.T) {
	s := newService(t)

	rows, err := s.Heatmap(context.Background())
	require.NoError(t, err)
	require.Len(t, rows, 4)

	byAsset := map[vulns.AssetType]ComponentRisk{}
	for _, r := range rows {
		byAsset[r.AssetType] = r
	}
	assert.Equal(t, float64(85), byAsset[vulns.AssetAPI].Metrics.OverallRiskScore)
	assert.Equal(t, 100, byAsset[vulns.AssetAPI].MaximumExploitability)
	assert.Zero(t, byAsset[vulns.AssetDatabase].Metrics.OverallRiskScore)
	assert.Equal(t, 1, byAsset[vulns.AssetDatabase].Vulnerabilities)
	assert.InDelta(t, 45.5, byAsset[vulns.AssetFrontend].AverageExploitability, 1e-9)
	assert.Zero(t, byAsset[vulns.AssetInfrastructure].Vulnerabilities)
}

func TestTargetsCarryDerivedRisk(t *testing.T) {
	s := newService(t)

	targets, err := s.Targets(context.Background())
	require.NoError(t, err)
	require.Len(t, targets, 2)
	assert.Equal(t, "T1", targets[0].ID)
	assert.Equal(t, float64(85), targets[0].Metrics.OverallRiskScore)
	assert.Equal(t, float64(50), targets[1].Metrics.OverallRiskScore)
}

type failingProvider struct{ vulns.Provider }

var errDown = errors.New("provider down")

func (failingProvider) Vulnerabilities(context.Context) ([]vulns.VulnerabilityRecord, error) {
	return nil, errDown
}

func TestProviderErrorsPropagate(t *testing.T) {
	s := NewService(failingProvider{}, vulns.CriticalInSubset)

	_, err := s.Summary(context.Background(), "")
	assert.ErrorIs(t, err, errDown)
	_, err = s.Heatmap(context.Background())
	assert.ErrorIs(t, err, errDown)
}

func TestBurndown(t *testing.T) {
	s := newService(t)

	all, err := s.Burndown(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, all, 8)

	week, err := s.Burndown(context.Background(), 7)
	require.NoError(t, err)
	require.Len(t, week, 7)
	assert.Equal(t, "2024-07-16", week[0].Date)
	assert.Equal(t, "2024-07-22", week[6].Date)

	more, err := s.Burndown(context.Background(), 30)
	require.NoError(t, err)
	assert.Len(t, more, 8)
}
