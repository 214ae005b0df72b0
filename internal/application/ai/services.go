package ai

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/bryanwahyu/quantum-vault/internal/application"
	"github.com/bryanwahyu/quantum-vault/internal/domain/ai"
	"github.com/bryanwahyu/quantum-vault/internal/domain/vulns"
)

// Service wraps the model behind two use-cases. Calls are not retried; a
// failed call reports its error and produces no partial result.
type Service struct {
	client   ai.Client
	provider vulns.Provider
	clock    application.Clock
	log      *logrus.Entry
}

func NewService(client ai.Client, provider vulns.Provider, clock application.Clock, log *logrus.Entry) *Service {
	if clock == nil {
		clock = application.SystemClock{}
	}
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Service{client: client, provider: provider, clock: clock, log: log.WithField("component", "ai")}
}

// RemediationResult is what the remediation view shows for one record.
type RemediationResult struct {
	VulnerabilityID     string `json:"vulnerability_id"`
	ExploitabilityIndex int    `json:"exploitability_index"`
	TargetLanguage      string `json:"target_language,omitempty"`
	ai.Remediation
}

// Remediate asks the model how to fix the vulnerability with the given id.
func (s *Service) Remediate(ctx context.Context, vulnID, language string) (RemediationResult, error) {
	rec, err := s.provider.Vulnerability(ctx, vulnID)
	if err != nil {
		return RemediationResult{}, err
	}
	language = strings.TrimSpace(language)

	rem, err := s.client.SuggestRemediation(ctx, ai.RemediationRequest{
		Description:    rec.Description,
		CVSSScore:      rec.CVSSScore,
		AssetType:      rec.AssetType,
		PatchAvailable: rec.PatchAvailable,
		TargetLanguage: language,
	})
	if err != nil {
		s.log.WithError(err).WithField("vulnerability_id", vulnID).Error("remediation suggestion failed")
		return RemediationResult{}, fmt.Errorf("remediation for %s: %w", vulnID, err)
	}
	return RemediationResult{
		VulnerabilityID:     rec.ID,
		ExploitabilityIndex: rec.ExploitabilityIndex(),
		TargetLanguage:      language,
		Remediation:         rem,
	}, nil
}

// ScanURL asks the model for a hypothetical scan of url and aggregates the
// failed checks into dashboard metrics.
func (s *Service) ScanURL(ctx context.Context, url string) (vulns.ScanReport, error) {
	started := s.clock.Now()
	h, err := s.client.SimulateScan(ctx, url)
	if err != nil {
		s.log.WithError(err).WithField("url", url).Error("scan simulation failed")
		return vulns.ScanReport{}, fmt.Errorf("scan %s: %w", url, err)
	}

	report := vulns.ScanReport{
		ID:        uuid.New().String(),
		URL:       url,
		ScannedAt: started.UTC(),
		Groups:    h.Groups,
		Summary:   h.Summary,
	}
	m, err := vulns.Aggregate(report.Checks())
	if err != nil {
		return vulns.ScanReport{}, fmt.Errorf("scan %s: %w", url, err)
	}
	report.Metrics = m

	s.log.WithFields(logrus.Fields{
		"scan_id":       report.ID,
		"url":           url,
		"failed_checks": m.OpenCount,
		"critical":      m.CriticalCount,
		"risk_score":    m.DisplayRiskScore,
		"checks_run":    m.EvaluatedCount,
	}).Info("scan simulated")
	return report, nil
}
