package services

import (
	"fmt"
	"strings"

	"ccdepot/contexts/internal-ops/script-runner-service/domain/entities"
	domainerrors "ccdepot/contexts/internal-ops/script-runner-service/domain/errors"
)

// NormalizeParameters trims keys and values, rejects options the script does
// not declare and checks required options are present.
func NormalizeParameters(config entities.ScriptConfiguration, params map[string]string) (map[string]string, error) {
	out := make(map[string]string, len(params))
	for key, value := range params {
		name := strings.TrimSpace(key)
		if name == "" {
			continue
		}
		if _, ok := config.Option(name); !ok {
			return nil, fmt.Errorf("%w: unknown option %q for %s", domainerrors.ErrInvalidRequest, name, config.Name)
		}
		out[name] = strings.TrimSpace(value)
	}
	for _, option := range config.Options {
		if option.Required && out[option.Name] == "" {
			return nil, fmt.Errorf("%w: option %q is required", domainerrors.ErrInvalidRequest, option.Name)
		}
	}
	return out, nil
}

// ParseBool accepts the usual spellings of a boolean option; empty is false.
func ParseBool(value string) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "yes", "y", "on":
		return true
	}
	return false
}

// SplitList parses a comma separated option into trimmed non-empty entries.
func SplitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
