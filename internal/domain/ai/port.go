package ai

import (
	"context"

	"github.com/bryanwahyu/quantum-vault/internal/domain/vulns"
)

// RemediationRequest carries the vulnerability details sent to the model.
type RemediationRequest struct {
	Description    string
	CVSSScore      float64
	AssetType      vulns.AssetType
	PatchAvailable bool
	TargetLanguage string
}

// Remediation is the model's answer for one vulnerability.
type Remediation struct {
	PlainLanguageSummary string `json:"plain_language_summary"`
	DeveloperCodeSnippet string `json:"developer_code_snippet"`
}

// ScanHypothesis is what the model believes a URL is exposed to. It is a
// static guess, nothing is sent to the URL itself.
type ScanHypothesis struct {
	Groups  []vulns.CheckGroup
	Summary string
}

type Client interface {
	SuggestRemediation(ctx context.Context, req RemediationRequest) (Remediation, error)
	SimulateScan(ctx context.Context, url string) (ScanHypothesis, error)
}
