package memory

import (
	"context"
	"fmt"
	"sync"

	"famfin/internal/core"
	"famfin/internal/sheets"
)

var _ sheets.TransactionExporter = (*Store)(nil)

// Store keeps exported rows in process memory. It backs the worker when no
// spreadsheet is configured and is used in tests.
type Store struct {
	mu    sync.Mutex
	order []int64
	rows  map[int64][]string
	seq   int
	refs  map[int64]string
}

func New() *Store {
	return &Store{
		rows: make(map[int64][]string),
		refs: make(map[int64]string),
	}
}

// Export stores the row and returns a synthetic row reference.
func (s *Store) Export(_ context.Context, t core.Transaction) (string, error) {
	if t.ID <= 0 {
		return "", fmt.Errorf("export transaction: missing id")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if ref, ok := s.refs[t.ID]; ok {
		return ref, nil
	}
	s.seq++
	ref := fmt.Sprintf("mem:%d", s.seq)
	s.order = append(s.order, t.ID)
	s.rows[t.ID] = sheets.Row(t)
	s.refs[t.ID] = ref
	return ref, nil
}

// Remove drops the row of t if it was exported.
func (s *Store) Remove(_ context.Context, t core.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.rows[t.ID]; !ok {
		return nil
	}
	delete(s.rows, t.ID)
	delete(s.refs, t.ID)
	for i, id := range s.order {
		if id == t.ID {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return nil
}

// Rows returns the exported rows in export order.
func (s *Store) Rows() [][]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([][]string, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, append([]string(nil), s.rows[id]...))
	}
	return out
}
