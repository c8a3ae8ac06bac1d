package memory

import (
	"context"
	"fmt"
	"sync"

	"presupuesto/internal/sheets"
)

// Sheet records mirror rows in memory. Used when no spreadsheet is
// configured and in tests.
type Sheet struct {
	mu        sync.Mutex
	header    bool
	rows      []sheets.Row
	failAfter int // AppendRow fails once len(rows) reaches it; 0 disables
}

var (
	_ sheets.RowAppender  = (*Sheet)(nil)
	_ sheets.HeaderWriter = (*Sheet)(nil)
)

func New() *Sheet { return &Sheet{} }

// FailAfter makes AppendRow fail once n rows are stored.
func (s *Sheet) FailAfter(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failAfter = n
}

// AppendRow stores the row and returns a synthetic row reference.
func (s *Sheet) AppendRow(_ context.Context, r sheets.Row) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failAfter > 0 && len(s.rows) >= s.failAfter {
		return "", fmt.Errorf("sheet full after %d rows", s.failAfter)
	}
	s.rows = append(s.rows, r)
	return fmt.Sprintf("mem!A%d", len(s.rows)+1), nil
}

func (s *Sheet) EnsureHeader(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.header = true
	return nil
}

// Rows returns a copy of the recorded rows.
func (s *Sheet) Rows() []sheets.Row {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]sheets.Row, len(s.rows))
	copy(out, s.rows)
	return out
}

// HasHeader reports whether EnsureHeader was called.
func (s *Sheet) HasHeader() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.header
}
