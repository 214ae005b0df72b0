package vulns

import (
	"fmt"
	"strings"
	"time"
)

// CheckType groups scan checks by vulnerability class.
type CheckType string

const (
	CheckSQLInjection CheckType = "SQL Injection"
	CheckXSS          CheckType = "XSS"
	CheckOther        CheckType = "Other"
)

// ParseCheckType maps unknown classes to CheckOther.
func ParseCheckType(s string) CheckType {
	v := strings.ToLower(strings.TrimSpace(s))
	switch {
	case v == "sql injection" || v == "sqli" || v == "sql_injection":
		return CheckSQLInjection
	case v == "xss" || strings.Contains(v, "cross-site scripting"):
		return CheckXSS
	}
	return CheckOther
}

// CheckResult is one named check of a simulated scan.
type CheckResult struct {
	Name      string   `json:"name"`
	Passed    bool     `json:"passed"`
	RiskLevel Severity `json:"risk_level"`
	Details   string   `json:"details"`
}

// NewCheckResult validates the risk level.
func NewCheckResult(name string, passed bool, riskLevel, details string) (CheckResult, error) {
	lvl, err := ParseSeverity(riskLevel)
	if err != nil {
		return CheckResult{}, fmt.Errorf("check %q: %w", name, err)
	}
	return CheckResult{Name: name, Passed: passed, RiskLevel: lvl, Details: details}, nil
}

// Observe projects the check onto the aggregation input: failed checks are active.
func (c CheckResult) Observe() Observation {
	return Observation{Level: c.RiskLevel, Active: !c.Passed}
}

// CheckGroup holds the checks performed for one vulnerability class.
type CheckGroup struct {
	Type   CheckType     `json:"type"`
	Checks []CheckResult `json:"checks"`
}

// ScanReport is the outcome of a simulated URL scan.
type ScanReport struct {
	ID        string       `json:"id"`
	URL       string       `json:"url"`
	ScannedAt time.Time    `json:"scanned_at"`
	Groups    []CheckGroup `json:"vulnerability_checks"`
	Summary   string       `json:"summary"`
	Metrics   Metrics      `json:"metrics"`
}

// Checks flattens every group.
func (r ScanReport) Checks() []CheckResult {
	var out []CheckResult
	for _, g := range r.Groups {
		out = append(out, g.Checks...)
	}
	return out
}
