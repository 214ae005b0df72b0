package ai

import (
	"context"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bryanwahyu/quantum-vault/internal/application"
	"github.com/bryanwahyu/quantum-vault/internal/domain/ai"
	"github.com/bryanwahyu/quantum-vault/internal/domain/vulns"
	"github.com/bryanwahyu/quantum-vault/internal/infra/catalog"
)

type fakeClient struct {
	remediation ai.Remediation
	hypothesis  ai.ScanHypothesis
	err         error
	lastReq     ai.RemediationRequest
}

func (f *fakeClient) SuggestRemediation(_ context.Context, req ai.RemediationRequest) (ai.Remediation, error) {
	f.lastReq = req
	return f.remediation, f.err
}

func (f *fakeClient) SimulateScan(context.Context, string) (ai.ScanHypothesis, error) {
	return f.hypothesis, f.err
}

var now = time.Date(2024, 7, 22, 12, 0, 0, 0, time.UTC)

func newService(t *testing.T, client ai.Client) (*Service, *test.Hook) {
	t.Helper()
	c, err := catalog.Default()
	require.NoError(t, err)
	logger, hook := test.NewNullLogger()
	return NewService(client, c, application.FixedClock(now), logrus.NewEntry(logger)), hook
}

func TestRemediate(t *testing.T) {
	client := &fakeClient{remediation: ai.Remediation{PlainLanguageSummary: "fix it", DeveloperCodeSnippet: "code"}}
	s, _ := newService(t, client)

	res, err := s.Remediate(context.Background(), "VULN-002", " python ")
	require.NoError(t, err)
	assert.Equal(t, "VULN-002", res.VulnerabilityID)
	assert.Equal(t, 100, res.ExploitabilityIndex)
	assert.Equal(t, "python", res.TargetLanguage)
	assert.Equal(t, "fix it", res.PlainLanguageSummary)

	assert.Equal(t, vulns.AssetDatabase, client.lastReq.AssetType)
	assert.Equal(t, 8.8, client.lastReq.CVSSScore)
	assert.True(t, client.lastReq.PatchAvailable)
	assert.Equal(t, "python", client.lastReq.TargetLanguage)
}

func TestRemediateUnknownVulnerability(t *testing.T) {
	s, _ := newService(t, &fakeClient{})

	_, err := s.Remediate(context.Background(), "VULN-404", "")
	assert.ErrorIs(t, err, vulns.ErrNotFound)
}

func TestRemediateClientFailure(t *testing.T) {
	s, hook := newService(t, &fakeClient{err: ai.ErrQuotaExceeded})

	_, err := s.Remediate(context.Background(), "VULN-001", "")
	assert.ErrorIs(t, err, ai.ErrQuotaExceeded)
	require.NotNil(t, hook.LastEntry())
	assert.Equal(t, logrus.ErrorLevel, hook.LastEntry().Level)
}

func TestScanURL(t *testing.T) {
	client := &fakeClient{hypothesis: ai.ScanHypothesis{
		Summary: "login form reflects input",
		Groups: []vulns.CheckGroup{
			{Type: vulns.CheckSQLInjection, Checks: []vulns.CheckResult{
				{Name: "Tautology-based", Passed: false, RiskLevel: vulns.SeverityCritical},
				{Name: "Union-based", Passed: true, RiskLevel: vulns.SeverityHigh},
			}},
			{Type: vulns.CheckXSS, Checks: []vulns.CheckResult{
				{Name: "Reflected XSS in URL parameters", Passed: false, RiskLevel: vulns.SeverityHigh},
				{Name: "Stored XSS in forms", Passed: false, RiskLevel: vulns.SeverityMedium},
			}},
		},
	}}
	s, hook := newService(t, client)

	r, err := s.ScanURL(context.Background(), "https://example.com/login")
	require.NoError(t, err)
	assert.NotEmpty(t, r.ID)
	assert.Equal(t, now, r.ScannedAt)
	assert.Equal(t, "https://example.com/login", r.URL)
	assert.Equal(t, 3, r.Metrics.TotalCount)
	assert.Equal(t, 4, r.Metrics.EvaluatedCount)
	assert.Equal(t, 1, r.Metrics.CriticalCount)
	assert.InDelta(t, 220.0/3.0, r.Metrics.OverallRiskScore, 1e-9)
	assert.Equal(t, 73, r.Metrics.DisplayRiskScore)
	assert.Equal(t, "scan simulated", hook.LastEntry().Message)
}

func TestScanURLAllPassedScoresZero(t *testing.T) {
	client := &fakeClient{hypothesis: ai.ScanHypothesis{Groups: []vulns.CheckGroup{
		{Type: vulns.CheckXSS, Checks: []vulns.CheckResult{{Name: "DOM-based XSS", Passed: true, RiskLevel: vulns.SeverityInformational}}},
	}}}
	s, _ := newService(t, client)

	r, err := s.ScanURL(context.Background(), "https://example.com/about")
	require.NoError(t, err)
	assert.Zero(t, r.Metrics.OverallRiskScore)
	assert.Zero(t, r.Metrics.TotalCount)
}

func TestScanURLRejectsUnknownLevel(t *testing.T) {
	client := &fakeClient{hypothesis: ai.ScanHypothesis{Groups: []vulns.CheckGroup{
		{Type: vulns.CheckOther, Checks: []vulns.CheckResult{{Name: "x", RiskLevel: vulns.Severity("Severe")}}},
	}}}
	s, _ := newService(t, client)

	_, err := s.ScanURL(context.Background(), "https://example.com")
	assert.ErrorIs(t, err, vulns.ErrUnknownSeverity)
}
