package vulns

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// AssetType enum
type AssetType string

const (
	AssetDatabase       AssetType = "Database"
	AssetAPI            AssetType = "API"
	AssetFrontend       AssetType = "Frontend"
	AssetInfrastructure AssetType = "Infrastructure"
)

// AssetTypes lists every asset type in display order.
var AssetTypes = []AssetType{AssetAPI, AssetDatabase, AssetFrontend, AssetInfrastructure}

// ParseAssetType accepts any casing of the canonical names.
func ParseAssetType(s string) (AssetType, error) {
	for _, a := range AssetTypes {
		if strings.EqualFold(strings.TrimSpace(s), string(a)) {
			return a, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownAssetType, s)
}

// Severity enum, shared by vulnerability severity and scan check risk level.
type Severity string

const (
	SeverityCritical      Severity = "Critical"
	SeverityHigh          Severity = "High"
	SeverityMedium        Severity = "Medium"
	SeverityLow           Severity = "Low"
	SeverityInformational Severity = "Informational"
)

// Severities lists every level from most to least severe.
var Severities = []Severity{SeverityCritical, SeverityHigh, SeverityMedium, SeverityLow, SeverityInformational}

// ParseSeverity accepts any casing of the canonical names plus "info".
func ParseSeverity(s string) (Severity, error) {
	v := strings.TrimSpace(s)
	if strings.EqualFold(v, "info") {
		return SeverityInformational, nil
	}
	for _, sev := range Severities {
		if strings.EqualFold(v, string(sev)) {
			return sev, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownSeverity, s)
}

// Score maps a level to its numeric risk score.
func (s Severity) Score() (int, error) {
	switch s {
	case SeverityCritical:
		return 95, nil
	case SeverityHigh:
		return 75, nil
	case SeverityMedium:
		return 50, nil
	case SeverityLow:
		return 20, nil
	case SeverityInformational:
		return 5, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownSeverity, string(s))
}

// Status enum
type Status string

const (
	StatusOpen       Status = "Open"
	StatusInProgress Status = "In Progress"
	StatusClosed     Status = "Closed"
)

// ParseStatus accepts "In Progress", "InProgress" and "in_progress" spellings.
func ParseStatus(s string) (Status, error) {
	v := strings.ToLower(strings.TrimSpace(s))
	v = strings.NewReplacer(" ", "", "_", "", "-", "").Replace(v)
	switch v {
	case "open":
		return StatusOpen, nil
	case "inprogress":
		return StatusInProgress, nil
	case "closed":
		return StatusClosed, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownStatus, s)
}

// RawRecord is a vulnerability as read from a catalog file or a database row,
// before enum parsing and index derivation.
type RawRecord struct {
	ID             string    `json:"id"`
	TargetID       string    `json:"target_id"`
	Name           string    `json:"name"`
	Description    string    `json:"description"`
	CVSS           float64   `json:"cvss"`
	Severity       string    `json:"severity"`
	AssetType      string    `json:"asset_type"`
	PatchAvailable bool      `json:"patch_available"`
	Status         string    `json:"status"`
	DiscoveredAt   time.Time `json:"discovered_at"`
}

// VulnerabilityRecord is one discovered issue. The exploitability index is
// derived at construction and cannot be changed afterwards.
type VulnerabilityRecord struct {
	ID             string
	TargetID       string
	Name           string
	Description    string
	CVSSScore      float64
	AssetType      AssetType
	PatchAvailable bool
	Severity       Severity
	Status         Status
	DiscoveredAt   time.Time

	exploitability int
}

// NewVulnerabilityRecord validates raw and derives the exploitability index.
func NewVulnerabilityRecord(raw RawRecord) (VulnerabilityRecord, error) {
	asset, err := ParseAssetType(raw.AssetType)
	if err != nil {
		return VulnerabilityRecord{}, fmt.Errorf("record %s: %w", raw.ID, err)
	}
	sev, err := ParseSeverity(raw.Severity)
	if err != nil {
		return VulnerabilityRecord{}, fmt.Errorf("record %s: %w", raw.ID, err)
	}
	st, err := ParseStatus(raw.Status)
	if err != nil {
		return VulnerabilityRecord{}, fmt.Errorf("record %s: %w", raw.ID, err)
	}
	idx, err := ComputeExploitabilityIndex(raw.CVSS, asset, raw.PatchAvailable)
	if err != nil {
		return VulnerabilityRecord{}, fmt.Errorf("record %s: %w", raw.ID, err)
	}
	return VulnerabilityRecord{
		ID:             raw.ID,
		TargetID:       raw.TargetID,
		Name:           raw.Name,
		Description:    raw.Description,
		CVSSScore:      raw.CVSS,
		AssetType:      asset,
		PatchAvailable: raw.PatchAvailable,
		Severity:       sev,
		Status:         st,
		DiscoveredAt:   raw.DiscoveredAt,
		exploitability: idx,
	}, nil
}

// ExploitabilityIndex returns the index derived at construction.
func (v VulnerabilityRecord) ExploitabilityIndex() int { return v.exploitability }

// Observe projects the record onto the aggregation input: open records are active.
func (v VulnerabilityRecord) Observe() Observation {
	return Observation{Level: v.Severity, Active: v.Status == StatusOpen}
}

type recordJSON struct {
	ID                  string    `json:"id"`
	TargetID            string    `json:"target_id,omitempty"`
	Name                string    `json:"name"`
	Description         string    `json:"description,omitempty"`
	CVSSScore           float64   `json:"cvss"`
	AssetType           AssetType `json:"asset_type"`
	PatchAvailable      bool      `json:"patch_available"`
	Severity            Severity  `json:"severity"`
	Status              Status    `json:"status"`
	DiscoveredAt        time.Time `json:"discovered_at"`
	ExploitabilityIndex int       `json:"exploitability_index"`
}

func (v VulnerabilityRecord) MarshalJSON() ([]byte, error) {
	return json.Marshal(recordJSON{
		ID:                  v.ID,
		TargetID:            v.TargetID,
		Name:                v.Name,
		Description:         v.Description,
		CVSSScore:           v.CVSSScore,
		AssetType:           v.AssetType,
		PatchAvailable:      v.PatchAvailable,
		Severity:            v.Severity,
		Status:              v.Status,
		DiscoveredAt:        v.DiscoveredAt,
		ExploitabilityIndex: v.exploitability,
	})
}

// Target is a scanned application.
type Target struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	URL  string `json:"url"`
}

// ThreatLevel enum for the live threat feed.
type ThreatLevel string

const (
	ThreatHigh   ThreatLevel = "High"
	ThreatMedium ThreatLevel = "Medium"
	ThreatLow    ThreatLevel = "Low"
	ThreatInfo   ThreatLevel = "Info"
)

func ParseThreatLevel(s string) (ThreatLevel, error) {
	for _, l := range []ThreatLevel{ThreatHigh, ThreatMedium, ThreatLow, ThreatInfo} {
		if strings.EqualFold(strings.TrimSpace(s), string(l)) {
			return l, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownThreatLevel, s)
}

// Threat is one entry of the live threat feed.
type Threat struct {
	ID       string      `json:"id"`
	Message  string      `json:"message"`
	Severity ThreatLevel `json:"severity"`
}

// StatusCounts value object
type StatusCounts struct {
	Open       int `json:"open"`
	InProgress int `json:"in_progress"`
	Closed     int `json:"closed"`
}

// CountByStatus tallies records per status.
func CountByStatus(records []VulnerabilityRecord) StatusCounts {
	var c StatusCounts
	for _, r := range records {
		switch r.Status {
		case StatusOpen:
			c.Open++
		case StatusInProgress:
			c.InProgress++
		case StatusClosed:
			c.Closed++
		}
	}
	return c
}

// BurndownPoint is one day of the open vs closed trend.
type BurndownPoint struct {
	Date   string `json:"date"` // YYYY-MM-DD
	Open   int    `json:"open"`
	Closed int    `json:"closed"`
}

// NewBurndownPoint validates the date and that both counts are non-negative.
func NewBurndownPoint(date string, open, closed int) (BurndownPoint, error) {
	d, err := time.Parse(time.DateOnly, strings.TrimSpace(date))
	if err != nil {
		return BurndownPoint{}, fmt.Errorf("%w: burndown date %q", ErrInvalidBurndown, date)
	}
	if open < 0 || closed < 0 {
		return BurndownPoint{}, fmt.Errorf("%w: negative count on %s", ErrInvalidBurndown, date)
	}
	return BurndownPoint{Date: d.Format(time.DateOnly), Open: open, Closed: closed}, nil
}
