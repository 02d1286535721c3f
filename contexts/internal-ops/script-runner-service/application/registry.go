package application

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"ccdepot/contexts/internal-ops/script-runner-service/domain/entities"
	domainerrors "ccdepot/contexts/internal-ops/script-runner-service/domain/errors"
	"ccdepot/contexts/internal-ops/script-runner-service/ports"
)

// Script binds a configuration to the runner that executes it.
type Script struct {
	Config entities.ScriptConfiguration
	Runner ports.Runner
}

// Registry maps script names to runners.
type Registry struct {
	mu      sync.RWMutex
	scripts map[string]Script
}

func NewRegistry() *Registry {
	return &Registry{scripts: make(map[string]Script)}
}

func (r *Registry) Register(config entities.ScriptConfiguration, runner ports.Runner) error {
	name := strings.TrimSpace(config.Name)
	if name == "" || runner == nil {
		return domainerrors.ErrInvalidRequest
	}
	config.Name = name

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.scripts[name]; exists {
		return fmt.Errorf("%w: %s", domainerrors.ErrScriptAlreadyExists, name)
	}
	r.scripts[name] = Script{Config: config, Runner: runner}
	return nil
}

func (r *Registry) Lookup(name string) (Script, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	script, ok := r.scripts[strings.TrimSpace(name)]
	if !ok {
		return Script{}, domainerrors.ErrScriptNotFound
	}
	return script, nil
}

// List returns configurations sorted by name.
func (r *Registry) List() []entities.ScriptConfiguration {
	r.mu.RLock()
	defer r.mu.RUnlock()
	items := make([]entities.ScriptConfiguration, 0, len(r.scripts))
	for _, script := range r.scripts {
		items = append(items, script.Config)
	}
	sort.Slice(items, func(i, j int) bool { return items[i].Name < items[j].Name })
	return items
}

// ApplyOverrides rewrites descriptions and options of registered scripts and
// removes disabled ones. Overrides for unknown scripts are an error.
func (r *Registry) ApplyOverrides(overrides ports.RegistryOverrides) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for name, override := range overrides.Scripts {
		script, ok := r.scripts[name]
		if !ok {
			return fmt.Errorf("%w: override for %s", domainerrors.ErrScriptNotFound, name)
		}
		if override.Disabled {
			delete(r.scripts, name)
			continue
		}
		if override.Description != "" {
			script.Config.Description = override.Description
		}
		if len(override.Options) > 0 {
			script.Config.Options = append([]entities.ScriptOption(nil), override.Options...)
		}
		r.scripts[name] = script
	}
	return nil
}
