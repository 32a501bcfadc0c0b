package engine

import (
	"fmt"
	"sync"

	"coredb/pkg/storage"
)

// TableRegistry is the Engine's catalog: a name-to-Table map replacing the
// teacher's catalogmanager.CatalogManager, narrowed to what the core
// spec needs (schema + chunk storage, no persistence).
type TableRegistry struct {
	mu     sync.RWMutex
	tables map[string]*storage.Table
}

func NewTableRegistry() *TableRegistry {
	return &TableRegistry{tables: make(map[string]*storage.Table)}
}

func (r *TableRegistry) Register(name string, t *storage.Table) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.tables[name]; exists {
		return fmt.Errorf("engine: table %q already registered", name)
	}
	r.tables[name] = t
	return nil
}

func (r *TableRegistry) Get(name string) (*storage.Table, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tables[name]
	if !ok {
		return nil, fmt.Errorf("engine: table %q not found", name)
	}
	return t, nil
}

func (r *TableRegistry) Drop(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.tables, name)
}

func (r *TableRegistry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.tables))
	for n := range r.tables {
		names = append(names, n)
	}
	return names
}
