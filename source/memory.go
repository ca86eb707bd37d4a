package source

import (
	"context"
	"fmt"
	"sync"

	"github.com/warp/loan-insights/frame"
	"github.com/warp/loan-insights/loan"
)

// =============================================================================
// MEMORY SOURCE - In-memory tables (for testing/dev and the sample dataset)
// =============================================================================

type Memory struct {
	mu     sync.RWMutex
	name   string
	tables map[string]records
}

type records struct {
	header []string
	rows   [][]string
}

func NewMemory(name string) *Memory {
	return &Memory{name: name, tables: make(map[string]records)}
}

func (m *Memory) Name() string { return "memory:" + m.name }

// Put stores a table under a source identifier, replacing any previous one.
// The slices are copied.
func (m *Memory) Put(source string, header []string, rows [][]string) {
	h := append([]string(nil), header...)
	rs := make([][]string, len(rows))
	for i, r := range rows {
		rs[i] = append([]string(nil), r...)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.tables[source] = records{header: h, rows: rs}
}

// Open returns the table stored under decl.Source.
func (m *Memory) Open(_ context.Context, decl loan.TableDecl) (*frame.Table, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	rec, ok := m.tables[decl.Source]
	if !ok {
		return nil, fmt.Errorf("%s: %w", decl.Source, loan.ErrSourceNotFound)
	}
	return frame.FromRecords(decl, rec.header, rec.rows), nil
}
