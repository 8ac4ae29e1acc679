package vaccine

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// =============================================================================
// MEMORY STORE - In-memory PatientStore (for testing/dev)
// =============================================================================

type Memory struct {
	mu       sync.RWMutex
	patients map[string]*Patient
}

func NewMemory() *Memory {
	return &Memory{patients: make(map[string]*Patient)}
}

func (m *Memory) Save(_ context.Context, p *Patient) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.patients[p.ID] = clone(p)
	return nil
}

func (m *Memory) Get(_ context.Context, id string) (*Patient, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.patients[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrPatientNotFound, id)
	}
	return clone(p), nil
}

func (m *Memory) List(_ context.Context) ([]*Patient, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make([]*Patient, 0, len(m.patients))
	for _, p := range m.patients {
		result = append(result, clone(p))
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt.Before(result[j].CreatedAt) })
	return result, nil
}

func clone(p *Patient) *Patient {
	cp := *p
	cp.Doses = make([]Dose, len(p.Doses))
	for i, d := range p.Doses {
		cp.Doses[i] = d
		if d.GivenAt != nil {
			at := *d.GivenAt
			cp.Doses[i].GivenAt = &at
		}
	}
	return &cp
}
