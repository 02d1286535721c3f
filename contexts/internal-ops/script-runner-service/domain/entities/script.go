package entities

const (
	ScriptMetadataImport = "metadata-import"
	ScriptMetadataExport = "metadata-export"
)

// ScriptOption describes one accepted parameter.
type ScriptOption struct {
	Name        string `json:"name" yaml:"name"`
	Description string `json:"description" yaml:"description"`
	Required    bool   `json:"required" yaml:"required"`
}

// ScriptConfiguration is the registry entry for a named script.
type ScriptConfiguration struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Options     []ScriptOption `json:"options"`
}

func (c ScriptConfiguration) Option(name string) (ScriptOption, bool) {
	for _, option := range c.Options {
		if option.Name == name {
			return option, true
		}
	}
	return ScriptOption{}, false
}
