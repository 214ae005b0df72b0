package vulns

import (
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rawRecord() RawRecord {
	return RawRecord{
		ID:             "VULN-001",
		TargetID:       "T1",
		Name:           "Remote Code Execution in Auth Service",
		CVSS:           9.8,
		Severity:       "Critical",
		AssetType:      "API",
		PatchAvailable: false,
		Status:         "Open",
		DiscoveredAt:   time.Date(2024, 7, 21, 10, 0, 0, 0, time.UTC),
	}
}

func TestNewVulnerabilityRecordDerivesIndex(t *testing.T) {
	raws := []RawRecord{
		rawRecord(),
		{ID: "VULN-003", CVSS: 6.1, Severity: "Medium", AssetType: "Frontend", PatchAvailable: true, Status: "Closed"},
		{ID: "VULN-X", CVSS: 4.2, Severity: "low", AssetType: "infrastructure", Status: "in_progress"},
	}
	for _, raw := range raws {
		rec, err := NewVulnerabilityRecord(raw)
		require.NoError(t, err)

		want, err := ComputeExploitabilityIndex(rec.CVSSScore, rec.AssetType, rec.PatchAvailable)
		require.NoError(t, err)
		assert.Equal(t, want, rec.ExploitabilityIndex(), raw.ID)
	}
}

func TestNewVulnerabilityRecordRejectsMalformed(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*RawRecord)
		wantErr error
	}{
		{"cvss", func(r *RawRecord) { r.CVSS = 11 }, ErrInvalidScoreRange},
		{"asset", func(r *RawRecord) { r.AssetType = "Mobile" }, ErrUnknownAssetType},
		{"severity", func(r *RawRecord) { r.Severity = "Severe" }, ErrUnknownSeverity},
		{"status", func(r *RawRecord) { r.Status = "Reopened" }, ErrUnknownStatus},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw := rawRecord()
			tt.mutate(&raw)
			_, err := NewVulnerabilityRecord(raw)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Contains(t, err.Error(), "VULN-001")
		})
	}
}

func TestParseStatusSpellings(t *testing.T) {
	for _, s := range []string{"In Progress", "InProgress", "in_progress", "in-progress"} {
		got, err := ParseStatus(s)
		require.NoError(t, err)
		assert.Equal(t, StatusInProgress, got)
	}
}

func TestParseSeverityInfoAlias(t *testing.T) {
	got, err := ParseSeverity("INFO")
	require.NoError(t, err)
	assert.Equal(t, SeverityInformational, got)
}

func TestSeverityScoreTable(t *testing.T) {
	want := map[Severity]int{
		SeverityCritical:      95,
		SeverityHigh:          75,
		SeverityMedium:        50,
		SeverityLow:           20,
		SeverityInformational: 5,
	}
	for _, s := range Severities {
		got, err := s.Score()
		require.NoError(t, err)
		assert.Equal(t, want[s], got)
	}
	_, err := Severity("Unknown").Score()
	assert.ErrorIs(t, err, ErrUnknownSeverity)
}

func TestRecordJSONIncludesIndex(t *testing.T) {
	rec, err := NewVulnerabilityRecord(rawRecord())
	require.NoError(t, err)

	b, err := json.Marshal(rec)
	require.NoError(t, err)

	var out map[string]any
	require.NoError(t, json.Unmarshal(b, &out))
	assert.Equal(t, float64(100), out["exploitability_index"])
	assert.Equal(t, "API", out["asset_type"])
	assert.Equal(t, "Open", out["status"])
}

func TestCountByStatus(t *testing.T) {
	recs := []VulnerabilityRecord{
		{Status: StatusOpen}, {Status: StatusOpen}, {Status: StatusInProgress}, {Status: StatusClosed},
	}
	assert.Equal(t, StatusCounts{Open: 2, InProgress: 1, Closed: 1}, CountByStatus(recs))
}

func TestNewBurndownPoint(t *testing.T) {
	p, err := NewBurndownPoint(" 2024-07-15 ", 40, 5)
	require.NoError(t, err)
	assert.Equal(t, BurndownPoint{Date: "2024-07-15", Open: 40, Closed: 5}, p)

	_, err = NewBurndownPoint("2024-13-01", 1, 1)
	assert.ErrorIs(t, err, ErrInvalidBurndown)
	_, err = NewBurndownPoint("2024-07-15", 0, -2)
	assert.ErrorIs(t, err, ErrInvalidBurndown)
	assert.True(t, IsValidation(err))
}

func TestCorruptDataIsNotValidation(t *testing.T) {
	_, err := NewVulnerabilityRecord(RawRecord{ID: "X", CVSS: 5, Severity: "Severe", AssetType: "API", Status: "Open"})
	require.True(t, IsValidation(err))

	corrupt := fmt.Errorf("%w: %w", ErrCorruptData, err)
	assert.ErrorIs(t, corrupt, ErrUnknownSeverity)
	assert.False(t, IsValidation(corrupt))
}
