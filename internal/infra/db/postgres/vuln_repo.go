package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/bryanwahyu/quantum-vault/internal/domain/vulns"
)

// VulnRepository reads the dashboard catalog from Postgres. It never writes.
type VulnRepository struct{ db *sql.DB }

func NewVulnRepository(db *sql.DB) *VulnRepository { return &VulnRepository{db: db} }

const vulnColumns = `
SELECT id, target_id, name, COALESCE(description, ''), cvss, severity,
       asset_type, patch_available, status, discovered_at
FROM vault_vulnerabilities`

// scanRecord marks rows that fail validation as corrupt so they surface as
// server faults rather than bad requests.
func scanRecord(row interface{ Scan(dest ...any) error }) (vulns.VulnerabilityRecord, error) {
	var raw vulns.RawRecord
	if err := row.Scan(
		&raw.ID, &raw.TargetID, &raw.Name, &raw.Description, &raw.CVSS, &raw.Severity,
		&raw.AssetType, &raw.PatchAvailable, &raw.Status, &raw.DiscoveredAt,
	); err != nil {
		return vulns.VulnerabilityRecord{}, err
	}
	rec, err := vulns.NewVulnerabilityRecord(raw)
	if err != nil {
		return vulns.VulnerabilityRecord{}, fmt.Errorf("%w: %w", vulns.ErrCorruptData, err)
	}
	return rec, nil
}

func (r *VulnRepository) Vulnerabilities(ctx context.Context) ([]vulns.VulnerabilityRecord, error) {
	rows, err := r.db.QueryContext(ctx, vulnColumns+"\nORDER BY discovered_at DESC, id;")
	if err != nil {
		return nil, fmt.Errorf("querying vulnerabilities: %w", err)
	}
	defer rows.Close()

	var out []vulns.VulnerabilityRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (r *VulnRepository) Vulnerability(ctx context.Context, id string) (vulns.VulnerabilityRecord, error) {
	row := r.db.QueryRowContext(ctx, vulnColumns+"\nWHERE id=$1\nLIMIT 1;", id)
	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return vulns.VulnerabilityRecord{}, fmt.Errorf("vulnerability %s: %w", id, vulns.ErrNotFound)
	}
	return rec, err
}

func (r *VulnRepository) Targets(ctx context.Context) ([]vulns.Target, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, name, url FROM vault_targets ORDER BY id;`)
	if err != nil {
		return nil, fmt.Errorf("querying targets: %w", err)
	}
	defer rows.Close()

	var out []vulns.Target
	for rows.Next() {
		var t vulns.Target
		if err := rows.Scan(&t.ID, &t.Name, &t.URL); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (r *VulnRepository) Threats(ctx context.Context) ([]vulns.Threat, error) {
	const q = `
SELECT id, message, severity
FROM vault_threats
ORDER BY created_at DESC, id
LIMIT 50;`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("querying threats: %w", err)
	}
	defer rows.Close()

	var out []vulns.Threat
	for rows.Next() {
		var t vulns.Threat
		var sev string
		if err := rows.Scan(&t.ID, &t.Message, &sev); err != nil {
			return nil, err
		}
		if t.Severity, err = vulns.ParseThreatLevel(sev); err != nil {
			return nil, fmt.Errorf("%w: threat %s: %w", vulns.ErrCorruptData, t.ID, err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (r *VulnRepository) Burndown(ctx context.Context) ([]vulns.BurndownPoint, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT day, open_count, closed_count FROM vault_burndown ORDER BY day;`)
	if err != nil {
		return nil, fmt.Errorf("querying burndown: %w", err)
	}
	defer rows.Close()

	var out []vulns.BurndownPoint
	for rows.Next() {
		var (
			day          time.Time
			open, closed int
		)
		if err := rows.Scan(&day, &open, &closed); err != nil {
			return nil, err
		}
		p, err := vulns.NewBurndownPoint(day.Format(time.DateOnly), open, closed)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", vulns.ErrCorruptData, err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
