package source

import (
	"context"

	"eventure/internal/domain"
)

// Mapper turns one upstream municipal feed into canonical activities.
// Implementations own their endpoint, request shape, envelope unwrapping and
// per-record extraction; they never touch storage.
type Mapper interface {
	Name() string
	Fetch(ctx context.Context, count int) ([]domain.Activity, error)
}

// Registry is the static name -> mapper table the worker resolves sources
// through. Names keep registration order so progress math and orchestrator
// fan-out stay deterministic.
type Registry struct {
	order  []string
	byName map[string]Mapper
}

func NewRegistry(mappers ...Mapper) *Registry {
	r := &Registry{byName: make(map[string]Mapper, len(mappers))}
	for _, m := range mappers {
		if _, dup := r.byName[m.Name()]; dup {
			continue
		}
		r.order = append(r.order, m.Name())
		r.byName[m.Name()] = m
	}
	return r
}

func (r *Registry) Lookup(name string) (Mapper, bool) {
	m, ok := r.byName[name]
	return m, ok
}

func (r *Registry) Names() []string {
	names := make([]string, len(r.order))
	copy(names, r.order)
	return names
}
