package prompt

import (
	"fmt"
	"strings"

	"github.com/bryanwahyu/quantum-vault/internal/domain/ai"
)

const defaultLanguage = "the language most common for this asset type"

// GetRemediationSystemPrompt provides strict directions and schema for JSON output.
func GetRemediationSystemPrompt() string {
	return `You are an AI-powered security expert specializing in web application vulnerabilities. You must produce one valid JSON object only (no markdown, no commentary) that follows the schema below. Do not include code fences.

Requirements:
- plain_language_summary: a concise, non-technical explanation of the risk, understandable by project managers and stakeholders.
- developer_code_snippet: a highly specific, best-practice code fix. Consider the asset type. Put the code itself in the string, escaped for JSON.

Schema (example with empty values):
{
  "plain_language_summary": "<string>",
  "developer_code_snippet": "<string>"
}`
}

// GetRemediationUserPrompt renders the vulnerability details.
func GetRemediationUserPrompt(req ai.RemediationRequest) string {
	lang := strings.TrimSpace(req.TargetLanguage)
	if lang == "" {
		lang = defaultLanguage
	}
	patch := "No"
	if req.PatchAvailable {
		patch = "Yes"
	}
	return fmt.Sprintf(`Here are the vulnerability details:
Vulnerability Description: %s
CVSS Score: %.1f
Asset Type: %s
Patch Availability: %s
The target language of the code snippet is %s.

Respond with both the plain language summary and the developer code snippet.`,
		req.Description, req.CVSSScore, req.AssetType, patch, lang)
}

// RemediationOutput matches the schema of the remediation system prompt.
type RemediationOutput struct {
	PlainLanguageSummary string `json:"plain_language_summary"`
	DeveloperCodeSnippet string `json:"developer_code_snippet"`
}
