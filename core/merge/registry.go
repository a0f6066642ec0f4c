package merge

import (
	"fmt"
	"reflect"
	"sync"

	"golang.org/x/sync/singleflight"
)

// registry caches parsed mappings per entity type and options.
type registry struct {
	mu       sync.RWMutex
	mappings map[string]any
	sf       singleflight.Group
}

func newRegistry() *registry {
	return &registry{mappings: make(map[string]any)}
}

// MappingFor returns the cached mapping of T for the given options, parsing it on first use.
// Concurrent first calls for the same key parse the schema only once.
func MappingFor[T any](e *Engine, opts ...MappingOption) (*Mapping[T], error) {
	var o mappingOptions
	for _, opt := range opts {
		opt(&o)
	}
	key := fmt.Sprintf("%s|%s|%s", reflect.TypeOf((*T)(nil)).Elem().String(), o.table, o.tagColumn)

	e.registry.mu.RLock()
	cached, ok := e.registry.mappings[key]
	e.registry.mu.RUnlock()
	if ok {
		return cached.(*Mapping[T]), nil
	}

	result, err, _ := e.registry.sf.Do(key, func() (interface{}, error) {
		e.registry.mu.RLock()
		cached, ok := e.registry.mappings[key]
		e.registry.mu.RUnlock()
		if ok {
			return cached, nil
		}

		m, err := newMapping[T](e.db, o)
		if err != nil {
			return nil, err
		}

		e.registry.mu.Lock()
		e.registry.mappings[key] = m
		e.registry.mu.Unlock()
		return m, nil
	})
	if err != nil {
		return nil, err
	}
	return result.(*Mapping[T]), nil
}
