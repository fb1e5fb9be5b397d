package registry

import (
	"fmt"
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/ajitpratap0/metacat/pkg/config"
	"github.com/ajitpratap0/metacat/pkg/connector/binding"
	"github.com/ajitpratap0/metacat/pkg/datasource"
	"github.com/ajitpratap0/metacat/pkg/errors"
	"github.com/ajitpratap0/metacat/pkg/logger"
)

// ModuleSetBuilder turns a catalog configuration into the ordered module set
// of its connector factory. Builders must not open connections themselves;
// modules acquire them through resources while the container is built.
type ModuleSetBuilder func(cfg *config.CatalogConfig, resources datasource.Provider) ([]binding.Module, error)

// ConnectorInfo provides information about a connector type
type ConnectorInfo struct {
	Type         string   `json:"type"`
	Description  string   `json:"description"`
	Capabilities []string `json:"capabilities"`
	// Variants lists sub-types, e.g. the SQL dialects of the jdbc connector
	Variants []string `json:"variants,omitempty"`
}

type registration struct {
	info    ConnectorInfo
	builder ModuleSetBuilder
}

// Registry maps catalog types to module set builders
type Registry struct {
	types  map[string]registration
	mu     sync.RWMutex
	logger *zap.Logger
}

// Global registry instance
var globalRegistry = NewRegistry()

// NewRegistry creates a new connector type registry
func NewRegistry() *Registry {
	return &Registry{
		types:  make(map[string]registration),
		logger: logger.Get().With(zap.String("component", "connector_registry")),
	}
}

// Register registers the builder of a catalog type
func (r *Registry) Register(info ConnectorInfo, builder ModuleSetBuilder) error {
	if info.Type == "" {
		return errors.New(errors.ErrorTypeConfig, "connector type is required")
	}
	if builder == nil {
		return errors.New(errors.ErrorTypeConfig, fmt.Sprintf("connector type %s has no module set builder", info.Type))
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.types[info.Type]; exists {
		return errors.New(errors.ErrorTypeConfig, fmt.Sprintf("connector type %s already registered", info.Type))
	}

	r.types[info.Type] = registration{info: info, builder: builder}
	r.logger.Debug("connector type registered", zap.String("type", info.Type))
	return nil
}

// BuildModules builds the module set of a catalog from its type's builder
func (r *Registry) BuildModules(cfg *config.CatalogConfig, resources datasource.Provider) ([]binding.Module, error) {
	if cfg == nil {
		return nil, errors.New(errors.ErrorTypeConfig, "catalog config is required")
	}

	r.mu.RLock()
	reg, exists := r.types[cfg.Type]
	r.mu.RUnlock()

	if !exists {
		return nil, errors.New(errors.ErrorTypeConfig, fmt.Sprintf("connector type %s not found", cfg.Type)).
			WithDetail("catalog", cfg.Name)
	}

	modules, err := reg.builder(cfg, resources)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeConfig, fmt.Sprintf("failed to build module set for catalog %s", cfg.Name))
	}
	return modules, nil
}

// Info returns the metadata of a connector type
func (r *Registry) Info(connectorType string) (ConnectorInfo, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	reg, ok := r.types[connectorType]
	return reg.info, ok
}

// List returns every registered connector type, sorted by type
func (r *Registry) List() []ConnectorInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()

	infos := make([]ConnectorInfo, 0, len(r.types))
	for _, reg := range r.types {
		infos = append(infos, reg.info)
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Type < infos[j].Type })
	return infos
}

// Has checks if a connector type is registered
func (r *Registry) Has(connectorType string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, exists := r.types[connectorType]
	return exists
}

// Clear removes all registered types (mainly for testing)
func (r *Registry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.types = make(map[string]registration)
}

// Global registry functions

// Register registers a connector type in the global registry
func Register(info ConnectorInfo, builder ModuleSetBuilder) error {
	return globalRegistry.Register(info, builder)
}

// BuildModules builds a module set from the global registry
func BuildModules(cfg *config.CatalogConfig, resources datasource.Provider) ([]binding.Module, error) {
	return globalRegistry.BuildModules(cfg, resources)
}

// List returns the connector types of the global registry
func List() []ConnectorInfo {
	return globalRegistry.List()
}

// Has checks if a type is registered in the global registry
func Has(connectorType string) bool {
	return globalRegistry.Has(connectorType)
}

// GetRegistry returns the global registry instance.
func GetRegistry() *Registry {
	return globalRegistry
}
