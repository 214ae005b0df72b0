package prompt

import "fmt"

// GetScanSystemPrompt provides strict directions and schema for the simulated scan.
func GetScanSystemPrompt() string {
	return `You are a security expert. You must produce one valid JSON object only (no markdown, no commentary) that follows the schema below. Do not include code fences.

Your task, for the URL given by the user:
1. Hypothesize how a user might interact with this page (forms, URL parameters).
2. Identify possible vectors for SQL Injection and Cross-Site Scripting (XSS).
3. For both classes, report a series of specific checks with a name, whether it passed (no vulnerability likely) or failed (vulnerability likely), a risk level and details.
   - SQL Injection checks: "Tautology-based", "Union-based", "Error-based", "Blind SQL Injection".
   - XSS checks: "Reflected XSS in URL parameters", "Stored XSS in forms", "DOM-based XSS".
4. Provide a high-level summary of the URL's security posture.

Do not attempt to perform any attack. This is a static analysis based on common vulnerability patterns.
If the page has no obvious input vectors (e.g. a static "About Us" page), all checks pass with an "Informational" risk level.

Requirements:
- type is one of: "SQL Injection", "XSS", "Other".
- risk_level is one of: "Critical", "High", "Medium", "Low", "Informational".

Schema (example with empty values):
{
  "vulnerability_checks": [
    {
      "type": "<SQL Injection|XSS|Other>",
      "checks": [
        {"name": "<string>", "passed": true, "details": "<string>", "risk_level": "<Critical|High|Medium|Low|Informational>"}
      ]
    }
  ],
  "summary": "<string>"
}`
}

// GetScanUserPrompt builds a compact user message around the URL.
func GetScanUserPrompt(url string) string {
	return fmt.Sprintf("Analyze this web application URL and respond with the JSON per schema. URL: %s", url)
}

// ScanOutput matches the schema of the scan system prompt.
type ScanOutput struct {
	VulnerabilityChecks []struct {
		Type   string `json:"type"`
		Checks []struct {
			Name      string `json:"name"`
			Passed    bool   `json:"passed"`
			Details   string `json:"details"`
			RiskLevel string `json:"risk_level"`
		} `json:"checks"`
	} `json:"vulnerability_checks"`
	Summary string `json:"summary"`
}
