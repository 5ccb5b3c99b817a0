package kmd

import (
	"sort"
	"sync"

	"github.com/cockroachdb/errors"
)

// BackendFactory creates the backend of a generation. It is called at most once per
// process.
type BackendFactory func() Backend

type registration struct {
	factory BackendFactory
	once    sync.Once
	backend Backend
}

var (
	registryMu sync.RWMutex
	registry   = make(map[Generation]*registration)
)

// Register registers the backend factory for a generation. It is typically called from an
// init function in the backend's package. Registering a generation again replaces the
// previous factory.
func Register(generation Generation, factory BackendFactory) {
	registryMu.Lock()
	defer registryMu.Unlock()

	registry[generation] = &registration{factory: factory}
}

// Unregister removes a generation from the registry. This is useful for testing.
func Unregister(generation Generation) {
	registryMu.Lock()
	defer registryMu.Unlock()

	delete(registry, generation)
}

// Available returns the registered generations in ascending order
func Available() []Generation {
	registryMu.RLock()
	defer registryMu.RUnlock()

	generations := make([]Generation, 0, len(registry))
	for generation := range registry {
		generations = append(generations, generation)
	}
	sort.Slice(generations, func(i, j int) bool {
		return generations[i] < generations[j]
	})

	return generations
}

// Get returns the backend for a generation. The backend is created on first use and the
// same instance is returned for the rest of the process.
func Get(generation Generation) (Backend, error) {
	registryMu.RLock()
	reg, ok := registry[generation]
	registryMu.RUnlock()

	if !ok {
		return nil, errors.Wrapf(ErrGenerationNotRegistered, "generation %s", generation)
	}

	reg.once.Do(func() {
		reg.backend = reg.factory()
	})
	if reg.backend == nil {
		return nil, errors.Newf("the backend factory for generation %s returned nil", generation)
	}

	return reg.backend, nil
}

// MustGet returns the backend for a generation or panics
func MustGet(generation Generation) Backend {
	backend, err := Get(generation)
	if err != nil {
		panic(err)
	}

	return backend
}
