// Package backup serializes the ledger into a single dated JSON document.
package backup

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"conti/internal/core"
	"conti/internal/ledger"
)

const filePrefix = "conti-"

// Document is the export file layout.
type Document struct {
	ExportedAt   time.Time          `json:"exported_at"`
	Transactions []core.Transaction `json:"transactions"`
	Budgets      []core.Budget      `json:"budgets"`
	FixedBills   []core.FixedBill   `json:"fixed_bills"`
	Settlements  []core.Settlement  `json:"settlements"`
}

// Build copies the four collections out of snap.
func Build(snap ledger.Snapshot, now time.Time) Document {
	return Document{
		ExportedAt:   now.UTC(),
		Transactions: nonNil(snap.Transactions),
		Budgets:      nonNil(snap.Budgets),
		FixedBills:   nonNil(snap.FixedBills),
		Settlements:  nonNil(snap.Settlements),
	}
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

// Filename returns conti-YYYY-MM-DD.json for the export date.
func (d Document) Filename() string {
	return filePrefix + d.ExportedAt.Format("2006-01-02") + ".json"
}

// Encode writes d as indented JSON.
func (d Document) Encode(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(d)
}

// Decode reads a document written by Encode.
func Decode(r io.Reader) (Document, error) {
	var d Document
	if err := json.NewDecoder(r).Decode(&d); err != nil {
		return Document{}, fmt.Errorf("decode backup: %w", err)
	}
	return d, nil
}

// WriteFile writes d into dir under its filename. The file is written to a
// temporary name first and renamed, so readers never see a partial file.
func WriteFile(dir string, d Document) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create backup dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".conti-*.tmp")
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := d.Encode(tmp); err != nil {
		tmp.Close()
		return "", fmt.Errorf("write backup: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return "", fmt.Errorf("sync backup: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("close backup: %w", err)
	}

	path := filepath.Join(dir, d.Filename())
	if err := os.Rename(tmp.Name(), path); err != nil {
		return "", fmt.Errorf("rename backup: %w", err)
	}
	return path, nil
}
