package registryfile

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"ccdepot/contexts/internal-ops/script-runner-service/domain/entities"
	"ccdepot/contexts/internal-ops/script-runner-service/ports"

	"gopkg.in/yaml.v3"
)

type document struct {
	Executor struct {
		CorePoolSize  int `yaml:"core_pool_size"`
		QueueCapacity int `yaml:"queue_capacity"`
	} `yaml:"executor"`
	Scripts map[string]struct {
		Description string                  `yaml:"description"`
		Disabled    bool                    `yaml:"disabled"`
		Options     []entities.ScriptOption `yaml:"options"`
	} `yaml:"scripts"`
}

// Load reads the script registry file at path. An empty path yields no overrides.
func Load(path string) (ports.RegistryOverrides, error) {
	if path == "" {
		return ports.RegistryOverrides{}, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return ports.RegistryOverrides{}, fmt.Errorf("read script registry %s: %w", path, err)
	}
	return Parse(raw)
}

// Parse decodes a registry document. Unknown keys are rejected.
func Parse(raw []byte) (ports.RegistryOverrides, error) {
	var doc document
	decoder := yaml.NewDecoder(bytes.NewReader(raw))
	decoder.KnownFields(true)
	if err := decoder.Decode(&doc); err != nil && !errors.Is(err, io.EOF) {
		return ports.RegistryOverrides{}, fmt.Errorf("parse script registry: %w", err)
	}
	if doc.Executor.CorePoolSize < 0 || doc.Executor.QueueCapacity < 0 {
		return ports.RegistryOverrides{}, errors.New("parse script registry: executor sizes must not be negative")
	}

	overrides := ports.RegistryOverrides{
		CorePoolSize:  doc.Executor.CorePoolSize,
		QueueCapacity: doc.Executor.QueueCapacity,
		Scripts:       make(map[string]ports.ScriptOverride, len(doc.Scripts)),
	}
	for name, script := range doc.Scripts {
		for _, option := range script.Options {
			if option.Name == "" {
				return ports.RegistryOverrides{}, fmt.Errorf("parse script registry: %s has an unnamed option", name)
			}
		}
		overrides.Scripts[name] = ports.ScriptOverride{
			Description: script.Description,
			Disabled:    script.Disabled,
			Options:     script.Options,
		}
	}
	return overrides, nil
}
