package vectorindex

import (
	"context"
	"sync"
)

type memoryIndex struct {
	dim        int
	namespaces map[string]map[string]Record
}

// Memory keeps every index in process memory. Contents are lost on exit.
type Memory struct {
	mu      sync.RWMutex
	indexes map[string]*memoryIndex
}

// NewMemory creates an empty in-memory index set.
func NewMemory() *Memory {
	return &Memory{indexes: make(map[string]*memoryIndex)}
}

func (m *Memory) EnsureIndex(_ context.Context, name string, dim int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if idx, ok := m.indexes[name]; ok {
		if idx.dim != dim {
			return ErrDimensionMismatch
		}
		return nil
	}
	m.indexes[name] = &memoryIndex{dim: dim, namespaces: make(map[string]map[string]Record)}
	return nil
}

func (m *Memory) Upsert(_ context.Context, name, namespace string, records []Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	idx, ok := m.indexes[name]
	if !ok {
		return ErrIndexNotFound
	}
	if err := checkDim(records, idx.dim); err != nil {
		return err
	}
	ns := idx.namespaces[namespace]
	if ns == nil {
		ns = make(map[string]Record)
		idx.namespaces[namespace] = ns
	}
	for _, r := range records {
		vec := make([]float32, len(r.Vector))
		copy(vec, r.Vector)
		r.Vector = vec
		ns[r.ID] = r
	}
	return nil
}

func (m *Memory) Search(_ context.Context, name, namespace string, vector []float32, topK int) ([]Match, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	idx, ok := m.indexes[name]
	if !ok {
		return nil, ErrIndexNotFound
	}
	ns := idx.namespaces[namespace]
	if len(ns) == 0 {
		return nil, ErrNamespaceNotFound
	}
	candidates := make([]Record, 0, len(ns))
	for _, r := range ns {
		candidates = append(candidates, r)
	}
	return rank(vector, candidates, topK), nil
}

func (m *Memory) DeleteNamespace(_ context.Context, name, namespace string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if idx, ok := m.indexes[name]; ok {
		delete(idx.namespaces, namespace)
	}
	return nil
}

func (m *Memory) Close() error { return nil }
