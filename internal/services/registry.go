// Package services provides the registry of named backend services a
// pipeline step can target.
package services

import (
	"fmt"
	"os"
	"sync"

	"gopkg.in/yaml.v3"

	"service-orchestrator/internal/common/errors"
)

// Registry is a thread-safe lookup of service name to ServiceConfig.
type Registry interface {
	Get(name string) (*ServiceConfig, error)
	Register(config *ServiceConfig) error
	Names() []string
}

type registry struct {
	services map[string]*ServiceConfig
	mu       sync.RWMutex
}

// NewRegistry creates an empty registry.
func NewRegistry() Registry {
	return &registry{
		services: make(map[string]*ServiceConfig),
	}
}

// registryFile is the on-disk shape of a services file.
type registryFile struct {
	Services []*ServiceConfig `yaml:"services"`
}

// LoadRegistry builds a registry from a YAML services file.
func LoadRegistry(path string) (Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.ConfigError(fmt.Sprintf("cannot read services file %s: %v", path, err))
	}

	var file registryFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, errors.ConfigError(fmt.Sprintf("invalid services file %s: %v", path, err))
	}

	reg := NewRegistry()
	for _, svc := range file.Services {
		if err := reg.Register(svc); err != nil {
			return nil, err
		}
	}

	return reg, nil
}

// Get returns the configuration for a named service. A missing service
// is a configuration error, never a panic.
func (r *registry) Get(name string) (*ServiceConfig, error) {
	r.mu.RLock()
	svc, exists := r.services[name]
	r.mu.RUnlock()

	if !exists {
		return nil, errors.NotFoundError(fmt.Sprintf("service %q", name))
	}

	return svc, nil
}

// Register validates and adds a service, replacing any existing entry
// with the same name.
func (r *registry) Register(config *ServiceConfig) error {
	if config == nil {
		return errors.ConfigError("nil service config")
	}
	if err := config.Validate(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.services[config.Name] = config
	return nil
}

// Names returns the registered service names.
func (r *registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.services))
	for name := range r.services {
		names = append(names, name)
	}
	return names
}
