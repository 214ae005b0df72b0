package heuristic

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"sort"
	"strings"

	domai "github.com/bryanwahyu/quantum-vault/internal/domain/ai"
	"github.com/bryanwahyu/quantum-vault/internal/domain/vulns"
)

// Client answers without calling a model. It is used when no API key is
// configured so the dashboard still works offline.
type Client struct{}

func NewClient() *Client { return &Client{} }

var (
	rxIDParam     = regexp.MustCompile(`(?i)^(id|.*_id|uid|user|item|product|order|cat(egory)?|page)$`)
	rxSearchParam = regexp.MustCompile(`(?i)^(q|query|search|s|term|keyword|name|message|comment|redirect|return(url)?|next|callback)$`)
	rxFormPath    = regexp.MustCompile(`(?i)/(login|signin|signup|register|contact|comment|feedback|post|guestbook|profile)`)
	rxStaticPath  = regexp.MustCompile(`(?i)(/about|/terms|/privacy|\.(css|js|png|jpe?g|svg|ico|pdf|txt))$`)
)

func (c *Client) SimulateScan(_ context.Context, rawURL string) (domai.ScanHypothesis, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return domai.ScanHypothesis{}, fmt.Errorf("parse url: %w", err)
	}

	var idParams, reflectParams []string
	for k := range u.Query() {
		if rxIDParam.MatchString(k) {
			idParams = append(idParams, k)
		}
		if rxSearchParam.MatchString(k) {
			reflectParams = append(reflectParams, k)
		}
	}
	sort.Strings(idParams)
	sort.Strings(reflectParams)
	hasForm := rxFormPath.MatchString(u.Path)
	static := rxStaticPath.MatchString(u.Path) || (len(u.Query()) == 0 && !hasForm)

	check := func(name string, failed bool, lvl vulns.Severity, details string) vulns.CheckResult {
		if static || !failed {
			return vulns.CheckResult{Name: name, Passed: true, RiskLevel: vulns.SeverityInformational, Details: details}
		}
		return vulns.CheckResult{Name: name, Passed: false, RiskLevel: lvl, Details: details}
	}

	sqlVector := len(idParams) > 0
	sqli := vulns.CheckGroup{Type: vulns.CheckSQLInjection, Checks: []vulns.CheckResult{
		check("Tautology-based", sqlVector, vulns.SeverityCritical, describe("parameters that look like record keys", idParams)),
		check("Union-based", sqlVector, vulns.SeverityHigh, describe("numeric parameters usable in UNION payloads", idParams)),
		check("Error-based", sqlVector, vulns.SeverityMedium, "Database errors may leak through unhandled query failures."),
		check("Blind SQL Injection", sqlVector || hasForm, vulns.SeverityHigh, "Boolean or time based inference through request inputs."),
	}}
	xss := vulns.CheckGroup{Type: vulns.CheckXSS, Checks: []vulns.CheckResult{
		check("Reflected XSS in URL parameters", len(reflectParams) > 0, vulns.SeverityHigh, describe("parameters likely echoed into the page", reflectParams)),
		check("Stored XSS in forms", hasForm, vulns.SeverityHigh, "Path suggests user submitted content is stored and rendered."),
		check("DOM-based XSS", u.Fragment != "" || len(reflectParams) > 0, vulns.SeverityMedium, "Client-side code may read location or fragment values."),
	}}

	summary := "No obvious input vectors; the page looks static."
	if !static {
		summary = fmt.Sprintf("Heuristic review of %s found %d key-like and %d reflected parameters", u.Host, len(idParams), len(reflectParams))
		if hasForm {
			summary += " and a form endpoint"
		}
		summary += ". Validate inputs server-side, use parameterized queries and contextual output encoding."
	}
	return domai.ScanHypothesis{Groups: []vulns.CheckGroup{sqli, xss}, Summary: summary}, nil
}

func describe(what string, params []string) string {
	if len(params) == 0 {
		return "No " + what + " found."
	}
	return fmt.Sprintf("Found %s: %s.", what, strings.Join(params, ", "))
}

var snippets = map[vulns.AssetType]string{
	vulns.AssetAPI: `// validate and authorize every request before touching data
if !authz.Can(ctx, user, "read", docID) {
    return http.StatusForbidden
}`,
	vulns.AssetDatabase: `// never build SQL with string concatenation
row := db.QueryRowContext(ctx, "SELECT name FROM users WHERE id = ?", id)`,
	vulns.AssetFrontend: `// encode untrusted values before inserting them into the page
element.textContent = userInput;`,
	vulns.AssetInfrastructure: `# pin and patch base images, drop unused packages
FROM alpine:3.20
RUN apk upgrade --no-cache`,
}

func (c *Client) SuggestRemediation(_ context.Context, req domai.RemediationRequest) (domai.Remediation, error) {
	snippet, ok := snippets[req.AssetType]
	if !ok {
		return domai.Remediation{}, fmt.Errorf("%w: %q", vulns.ErrUnknownAssetType, string(req.AssetType))
	}

	var urgency string
	switch {
	case req.CVSSScore >= 9:
		urgency = "This is critical and should be fixed immediately."
	case req.CVSSScore >= 7:
		urgency = "This is serious and should be scheduled in the current cycle."
	case req.CVSSScore >= 4:
		urgency = "This is moderate and should be planned soon."
	default:
		urgency = "This is minor but worth tracking."
	}
	patch := "No vendor patch exists yet, so apply a code or configuration workaround."
	if req.PatchAvailable {
		patch = "A patch is available; applying it is the fastest fix."
	}

	summary := fmt.Sprintf("%s %s %s", strings.TrimSpace(req.Description), urgency, patch)
	return domai.Remediation{
		PlainLanguageSummary: strings.TrimSpace(summary),
		DeveloperCodeSnippet: snippet,
	}, nil
}
