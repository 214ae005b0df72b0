package catalog

import (
	"context"
	_ "embed"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/bryanwahyu/quantum-vault/internal/domain/vulns"
)

//go:embed seed.yaml
var seed []byte

type document struct {
	Targets         []vulns.Target `yaml:"targets"`
	Vulnerabilities []struct {
		ID             string  `yaml:"id"`
		TargetID       string  `yaml:"targetId"`
		Name           string  `yaml:"name"`
		Description    string  `yaml:"description"`
		CVSS           float64 `yaml:"cvss"`
		Severity       string  `yaml:"severity"`
		AssetType      string  `yaml:"assetType"`
		PatchAvailable bool    `yaml:"patchAvailable"`
		Timestamp      string  `yaml:"timestamp"`
		Status         string  `yaml:"status"`
	} `yaml:"vulnerabilities"`
	Threats []struct {
		ID       string `yaml:"id"`
		Message  string `yaml:"message"`
		Severity string `yaml:"severity"`
	} `yaml:"threats"`
	Burndown []struct {
		Date   string `yaml:"date"`
		Open   int    `yaml:"open"`
		Closed int    `yaml:"closed"`
	} `yaml:"burndown"`
}

// Catalog is an immutable in-memory provider. Every record is validated when
// the document is parsed, so reads never fail on malformed data.
type Catalog struct {
	records  []vulns.VulnerabilityRecord
	byID     map[string]int
	targets  []vulns.Target
	threats  []vulns.Threat
	burndown []vulns.BurndownPoint
}

// Parse decodes a YAML (or JSON) catalog document.
func Parse(data []byte) (*Catalog, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}

	c := &Catalog{byID: make(map[string]int, len(doc.Vulnerabilities)), targets: doc.Targets}
	for _, v := range doc.Vulnerabilities {
		if strings.TrimSpace(v.ID) == "" {
			return nil, fmt.Errorf("catalog: vulnerability without id")
		}
		if _, dup := c.byID[v.ID]; dup {
			return nil, fmt.Errorf("catalog: duplicate vulnerability id %s", v.ID)
		}
		var ts time.Time
		if v.Timestamp != "" {
			t, err := time.Parse(time.RFC3339, v.Timestamp)
			if err != nil {
				return nil, fmt.Errorf("catalog: record %s timestamp: %w", v.ID, err)
			}
			ts = t
		}
		rec, err := vulns.NewVulnerabilityRecord(vulns.RawRecord{
			ID:             v.ID,
			TargetID:       v.TargetID,
			Name:           v.Name,
			Description:    v.Description,
			CVSS:           v.CVSS,
			Severity:       v.Severity,
			AssetType:      v.AssetType,
			PatchAvailable: v.PatchAvailable,
			Status:         v.Status,
			DiscoveredAt:   ts,
		})
		if err != nil {
			return nil, fmt.Errorf("catalog: %w", err)
		}
		c.byID[rec.ID] = len(c.records)
		c.records = append(c.records, rec)
	}
	for _, th := range doc.Threats {
		lvl, err := vulns.ParseThreatLevel(th.Severity)
		if err != nil {
			return nil, fmt.Errorf("catalog: threat %s: %w", th.ID, err)
		}
		c.threats = append(c.threats, vulns.Threat{ID: th.ID, Message: th.Message, Severity: lvl})
	}
	seen := make(map[string]bool, len(doc.Burndown))
	for _, b := range doc.Burndown {
		p, err := vulns.NewBurndownPoint(b.Date, b.Open, b.Closed)
		if err != nil {
			return nil, fmt.Errorf("catalog: %w", err)
		}
		if seen[p.Date] {
			return nil, fmt.Errorf("catalog: duplicate burndown date %s", p.Date)
		}
		seen[p.Date] = true
		c.burndown = append(c.burndown, p)
	}
	// DateOnly strings sort chronologically.
	sort.Slice(c.burndown, func(i, j int) bool { return c.burndown[i].Date < c.burndown[j].Date })
	return c, nil
}

// Default returns the built-in demo catalog.
func Default() (*Catalog, error) {
	return Parse(seed)
}

// LoadFile reads a catalog document from disk.
func LoadFile(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

func (c *Catalog) Vulnerabilities(_ context.Context) ([]vulns.VulnerabilityRecord, error) {
	return append([]vulns.VulnerabilityRecord(nil), c.records...), nil
}

func (c *Catalog) Vulnerability(_ context.Context, id string) (vulns.VulnerabilityRecord, error) {
	i, ok := c.byID[id]
	if !ok {
		return vulns.VulnerabilityRecord{}, fmt.Errorf("vulnerability %s: %w", id, vulns.ErrNotFound)
	}
	return c.records[i], nil
}

func (c *Catalog) Targets(_ context.Context) ([]vulns.Target, error) {
	return append([]vulns.Target(nil), c.targets...), nil
}

func (c *Catalog) Threats(_ context.Context) ([]vulns.Threat, error) {
	return append([]vulns.Threat(nil), c.threats...), nil
}

func (c *Catalog) Burndown(_ context.Context) ([]vulns.BurndownPoint, error) {
	return append([]vulns.BurndownPoint(nil), c.burndown...), nil
}
