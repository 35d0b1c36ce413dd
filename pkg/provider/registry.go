package provider

import (
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"
)

// HTTPConfig carries shared HTTP client settings into factories.
type HTTPConfig struct {
	Timeout   time.Duration
	UserAgent string
	Logger    *slog.Logger
}

// FactoryConfig holds everything a factory needs to build one adapter.
type FactoryConfig struct {
	Username string
	Password string
	TTL      int

	// Settings holds provider-specific keys (e.g., "ENDPOINT").
	Settings map[string]string

	HTTP HTTPConfig
}

// Factory creates a new, unbound adapter.
type Factory func(cfg FactoryConfig) (API, error)

// Builder creates a fresh adapter per call. Each perform/cleanup invocation
// must use its own adapter so zone bindings never leak between challenges.
type Builder func() (API, error)

// Registry maps provider type names to factories.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
	logger    *slog.Logger
}

// NewRegistry creates a new provider registry.
func NewRegistry(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		factories: make(map[string]Factory),
		logger:    logger,
	}
}

// RegisterFactory registers a provider factory for a given type.
func (r *Registry) RegisterFactory(typeName string, factory Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[typeName] = factory
	r.logger.Debug("registered provider factory", slog.String("type", typeName))
}

// New builds one adapter of the given type.
func (r *Registry) New(typeName string, cfg FactoryConfig) (API, error) {
	r.mu.RLock()
	factory, ok := r.factories[typeName]
	r.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("unknown provider type: %s", typeName)
	}

	api, err := factory(cfg)
	if err != nil {
		return nil, fmt.Errorf("creating provider %s: %w", typeName, err)
	}
	return api, nil
}

// Builder returns a Builder producing a fresh adapter of typeName on every call.
// The type is checked eagerly so misconfiguration fails before any challenge runs.
func (r *Registry) Builder(typeName string, cfg FactoryConfig) (Builder, error) {
	if !r.Has(typeName) {
		return nil, fmt.Errorf("unknown provider type: %s", typeName)
	}
	return func() (API, error) {
		return r.New(typeName, cfg)
	}, nil
}

// Has reports whether a factory is registered for typeName.
func (r *Registry) Has(typeName string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.factories[typeName]
	return ok
}

// Types returns the registered provider types, sorted.
func (r *Registry) Types() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	types := make([]string, 0, len(r.factories))
	for name := range r.factories {
		types = append(types, name)
	}
	sort.Strings(types)
	return types
}
