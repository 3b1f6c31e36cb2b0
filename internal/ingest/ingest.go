// Package ingest loads the dataset CSVs into the SQLite cache.
//
// The CSV files stay the source of truth; the database is a derived
// snapshot rebuilt whenever the file checksums change.
package ingest

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"

	"medialens/internal/dataset"
	"medialens/internal/store"
)

// Result summarizes an import run.
type Result struct {
	Skipped      bool
	Measurements int
	Shares       int
	ToneStats    dataset.CleanStats
	ShareStats   dataset.ShareStats
}

// Importer reads the two CSVs and replaces the store contents.
type Importer struct {
	st        *store.Store
	toneFile  string
	shareFile string
}

// New creates an Importer for the given CSV paths.
func New(st *store.Store, toneFile, shareFile string) *Importer {
	return &Importer{st: st, toneFile: toneFile, shareFile: shareFile}
}

// Run imports both files. Unless force is set, the run is skipped when
// the file checksums match the previous import.
func (im *Importer) Run(force bool) (*Result, error) {
	toneSum, err := checksum(im.toneFile)
	if err != nil {
		return nil, fmt.Errorf("checksumming tone file: %w", err)
	}
	shareSum, err := checksum(im.shareFile)
	if err != nil {
		return nil, fmt.Errorf("checksumming share file: %w", err)
	}

	if !force {
		last, err := im.st.LatestImport()
		if err != nil {
			return nil, err
		}
		if last != nil && last.ToneChecksum == toneSum && last.ShareChecksum == shareSum {
			log.Println("dataset unchanged since last import, skipping")
			return &Result{Skipped: true}, nil
		}
	}

	ms, toneStats, err := readMeasurements(im.toneFile)
	if err != nil {
		return nil, err
	}
	shares, shareStats, err := readShares(im.shareFile)
	if err != nil {
		return nil, err
	}

	log.Printf("tone file: %d rows read, %d days kept, %d tones clipped, %d zero-volume pairs dropped",
		toneStats.RowsRead, toneStats.Kept, toneStats.ClippedTones, toneStats.DroppedZeroVolume)
	log.Printf("share file: %d rows read, %d kept, %d without share dropped",
		shareStats.RowsRead, shareStats.Kept, shareStats.DroppedNoShare)

	if err := im.st.ReplaceAll(ms, shares); err != nil {
		return nil, err
	}

	rec := store.ImportRecord{
		ToneFile:      filepath.Base(im.toneFile),
		ToneChecksum:  toneSum,
		ShareFile:     filepath.Base(im.shareFile),
		ShareChecksum: shareSum,
		Measurements:  int64(len(ms)),
		Shares:        int64(len(shares)),
	}
	if err := im.st.RecordImport(rec); err != nil {
		return nil, err
	}

	log.Printf("imported %d measurements and %d share rows", len(ms), len(shares))
	return &Result{
		Measurements: len(ms),
		Shares:       len(shares),
		ToneStats:    toneStats,
		ShareStats:   shareStats,
	}, nil
}

func readMeasurements(path string) ([]dataset.Measurement, dataset.CleanStats, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, dataset.CleanStats{}, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	ms, stats, err := dataset.ReadMeasurements(f)
	if err != nil {
		return nil, stats, fmt.Errorf("reading %s: %w", path, err)
	}
	return ms, stats, nil
}

func readShares(path string) ([]dataset.Share, dataset.ShareStats, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, dataset.ShareStats{}, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	shares, stats, err := dataset.ReadShares(f)
	if err != nil {
		return nil, stats, fmt.Errorf("reading %s: %w", path, err)
	}
	return shares, stats, nil
}

func checksum(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
