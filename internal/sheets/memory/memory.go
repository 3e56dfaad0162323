// Package memory keeps exported month sheets in memory. It stands in for
// Google Sheets in tests; without a spreadsheet the export is simply off.
package memory

import (
	"context"
	"fmt"
	"sync"

	"conti/internal/sheets"
)

var _ sheets.MonthExporter = (*Store)(nil)

type Store struct {
	mu     sync.Mutex
	sheets map[string][][]any
	writes int
}

func New() *Store {
	return &Store{sheets: make(map[string][][]any)}
}

// ExportMonth replaces the stored sheet and returns a synthetic range reference.
func (s *Store) ExportMonth(_ context.Context, sheet sheets.MonthSheet) (string, error) {
	if sheet.Title == "" {
		return "", fmt.Errorf("export month: empty sheet title")
	}
	rows := make([][]any, len(sheet.Rows))
	for i, r := range sheet.Rows {
		rows[i] = append([]any(nil), r...)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sheets[sheet.Title] = rows
	s.writes++
	return fmt.Sprintf("mem:%s!A1:H%d", sheet.Title, len(rows)), nil
}

// Sheet returns the rows last written under title.
func (s *Store) Sheet(title string) ([][]any, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rows, ok := s.sheets[title]
	return rows, ok
}

// Writes counts ExportMonth calls.
func (s *Store) Writes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writes
}
