package vulns

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCheckResult(t *testing.T) {
	c, err := NewCheckResult("Union-based", false, "high", "UNION SELECT reflected")
	require.NoError(t, err)
	assert.Equal(t, SeverityHigh, c.RiskLevel)
	assert.Equal(t, Observation{Level: SeverityHigh, Active: true}, c.Observe())

	_, err = NewCheckResult("Blind SQL Injection", true, "moderate", "")
	assert.ErrorIs(t, err, ErrUnknownSeverity)
}

func TestParseCheckType(t *testing.T) {
	assert.Equal(t, CheckSQLInjection, ParseCheckType("SQL Injection"))
	assert.Equal(t, CheckXSS, ParseCheckType("xss"))
	assert.Equal(t, CheckXSS, ParseCheckType("Cross-Site Scripting (XSS)"))
	assert.Equal(t, CheckOther, ParseCheckType("CSRF"))
}

func TestScanReportChecksFlattens(t *testing.T) {
	r := ScanReport{Groups: []CheckGroup{
		{Type: CheckSQLInjection, Checks: []CheckResult{{Name: "a"}, {Name: "b"}}},
		{Type: CheckXSS, Checks: []CheckResult{{Name: "c"}}},
	}}
	got := r.Checks()
	require.Len(t, got, 3)
	assert.Equal(t, "c", got[2].Name)
}
