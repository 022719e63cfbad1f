package evo

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

var (
	ErrSelectorExists   = errors.New("selector already registered")
	ErrSelectorNotFound = errors.New("selector not found")
)

// SelectorOptions carries the configuration a selector factory may need.
type SelectorOptions struct {
	TournamentSize int
	PopulationSize int
}

type SelectorFactory func(opts SelectorOptions) (Selector, error)

var selectorRegistry = struct {
	mu sync.RWMutex
	m  map[string]SelectorFactory
}{
	m: make(map[string]SelectorFactory),
}

func init() {
	mustRegisterSelector("tournament", func(opts SelectorOptions) (Selector, error) {
		if opts.TournamentSize <= 0 {
			return nil, fmt.Errorf("%w: tournament size must be > 0", ErrInvalidConfig)
		}
		if opts.PopulationSize > 0 && opts.TournamentSize > opts.PopulationSize {
			return nil, fmt.Errorf("%w: %v: %d > %d", ErrInvalidConfig, ErrTournamentTooBig, opts.TournamentSize, opts.PopulationSize)
		}
		return TournamentSelector{Size: opts.TournamentSize}, nil
	})
	mustRegisterSelector("softmax", func(SelectorOptions) (Selector, error) {
		return SoftmaxSelector{}, nil
	})
}

func mustRegisterSelector(name string, factory SelectorFactory) {
	if err := RegisterSelector(name, factory); err != nil {
		panic(err)
	}
}

// RegisterSelector makes a selection strategy available by name.
func RegisterSelector(name string, factory SelectorFactory) error {
	if name == "" {
		return errors.New("selector name is required")
	}
	if factory == nil {
		return errors.New("selector factory is required")
	}

	selectorRegistry.mu.Lock()
	defer selectorRegistry.mu.Unlock()

	if _, exists := selectorRegistry.m[name]; exists {
		return fmt.Errorf("%w: %s", ErrSelectorExists, name)
	}
	selectorRegistry.m[name] = factory
	return nil
}

// SelectorFromName resolves and builds a registered selector.
func SelectorFromName(name string, opts SelectorOptions) (Selector, error) {
	selectorRegistry.mu.RLock()
	factory, ok := selectorRegistry.m[name]
	selectorRegistry.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: %w: %q", ErrInvalidConfig, ErrSelectorNotFound, name)
	}
	return factory(opts)
}

func ListSelectors() []string {
	selectorRegistry.mu.RLock()
	defer selectorRegistry.mu.RUnlock()

	names := make([]string, 0, len(selectorRegistry.m))
	for name := range selectorRegistry.m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
