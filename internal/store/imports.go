package store

import (
	"database/sql"
	"fmt"
	"time"

	"medialens/internal/dataset"
)

// ReplaceAll swaps the stored dataset for the given rows in one transaction.
// Readers keep seeing the previous snapshot until the commit lands.
func (s *Store) ReplaceAll(ms []dataset.Measurement, shares []dataset.Share) error {
	tx, err := s.conn.Begin()
	if err != nil {
		return fmt.Errorf("begin import: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM measurements"); err != nil {
		return fmt.Errorf("clearing measurements: %w", err)
	}
	if _, err := tx.Exec("DELETE FROM topic_shares"); err != nil {
		return fmt.Errorf("clearing topic shares: %w", err)
	}

	mstmt, err := tx.Prepare(`INSERT INTO measurements (day, year, outlet, topic, tone, volume)
		VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing measurement insert: %w", err)
	}
	defer mstmt.Close()
	for _, m := range ms {
		if _, err := mstmt.Exec(m.Day.Format(dataset.DayLayout), m.Year, m.Outlet, m.Topic, m.Tone, m.Volume); err != nil {
			return fmt.Errorf("inserting measurement: %w", err)
		}
	}

	sstmt, err := tx.Prepare(`INSERT INTO topic_shares (day, year, outlet, topic, volume, share)
		VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing share insert: %w", err)
	}
	defer sstmt.Close()
	for _, h := range shares {
		if _, err := sstmt.Exec(h.Day.Format(dataset.DayLayout), h.Year, h.Outlet, h.Topic, h.Volume, h.Share); err != nil {
			return fmt.Errorf("inserting topic share: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit import: %w", err)
	}
	return nil
}

// RecordImport appends one row of import history.
func (s *Store) RecordImport(rec ImportRecord) error {
	if rec.ImportedAt == "" {
		rec.ImportedAt = time.Now().UTC().Format(time.RFC3339)
	}
	_, err := s.conn.Exec(
		`INSERT INTO imports (imported_at, tone_file, tone_checksum, share_file, share_checksum, measurements, shares)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		rec.ImportedAt, rec.ToneFile, rec.ToneChecksum, rec.ShareFile, rec.ShareChecksum,
		rec.Measurements, rec.Shares,
	)
	return err
}

// LatestImport returns the most recent import record, or nil when the store
// has never been loaded.
func (s *Store) LatestImport() (*ImportRecord, error) {
	row := s.conn.QueryRow(
		`SELECT id, imported_at, tone_file, tone_checksum, share_file, share_checksum, measurements, shares
		FROM imports ORDER BY id DESC LIMIT 1`)

	var rec ImportRecord
	err := row.Scan(&rec.ID, &rec.ImportedAt, &rec.ToneFile, &rec.ToneChecksum,
		&rec.ShareFile, &rec.ShareChecksum, &rec.Measurements, &rec.Shares)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// ImportHistory returns up to limit import records, newest first.
func (s *Store) ImportHistory(limit int) ([]ImportRecord, error) {
	rows, err := s.conn.Query(
		`SELECT id, imported_at, tone_file, tone_checksum, share_file, share_checksum, measurements, shares
		FROM imports ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ImportRecord
	for rows.Next() {
		var rec ImportRecord
		if err := rows.Scan(&rec.ID, &rec.ImportedAt, &rec.ToneFile, &rec.ToneChecksum,
			&rec.ShareFile, &rec.ShareChecksum, &rec.Measurements, &rec.Shares); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}
