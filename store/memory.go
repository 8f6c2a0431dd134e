package store

import (
	"context"
	"sync"

	"github.com/warp/reminder-engine/registry"
)

// =============================================================================
// MEMORY STORE - In-memory workbook (for testing/dev)
// =============================================================================

type Memory struct {
	mu     sync.RWMutex
	sheets map[string]Grid
}

func NewMemory() *Memory {
	return &Memory{sheets: make(map[string]Grid)}
}

// Seed replaces a sheet with header plus rows.
func (m *Memory) Seed(sheet string, header []string, rows ...[]any) {
	g := make(Grid, 0, len(rows)+1)
	h := make([]any, len(header))
	for i, s := range header {
		h[i] = s
	}
	g = append(g, h)
	for _, r := range rows {
		g = append(g, append([]any(nil), r...))
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.sheets[sheet] = g
}

// Grid returns a copy of a sheet's cells, nil when absent.
func (m *Memory) Grid(sheet string) Grid {
	m.mu.RLock()
	defer m.mu.RUnlock()
	g, ok := m.sheets[sheet]
	if !ok {
		return nil
	}
	return g.Clone()
}

func (m *Memory) ReadTable(_ context.Context, sheet string) (registry.Table, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	g, ok := m.sheets[sheet]
	if !ok {
		return registry.Table{}, registry.ErrSheetNotFound
	}
	return g.Table(), nil
}

func (m *Memory) WriteRange(_ context.Context, r registry.Range, cells [][]any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sheets[r.Sheet] = m.sheets[r.Sheet].Write(r, cells)
	return nil
}

func (m *Memory) AppendRow(_ context.Context, sheet string, cells []any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sheets[sheet] = m.sheets[sheet].Append(cells)
	return nil
}

func (m *Memory) EnsureSheet(_ context.Context, sheet string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sheets[sheet]; ok {
		return false, nil
	}
	m.sheets[sheet] = Grid{}
	return true, nil
}

var _ registry.TableStore = (*Memory)(nil)
