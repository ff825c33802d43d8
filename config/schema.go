package config

import (
	"encoding/json"

	"github.com/invopop/jsonschema"
)

// GenerateSchema generates the JSON Schema for the forge configuration.
// It reflects the Config struct from types.go but excludes the 'Extensions'
// field, which is free-form by design.
func GenerateSchema() ([]byte, error) {
	r := &jsonschema.Reflector{
		// Unknown top-level keys land in Extensions; the validator allows
		// additional properties at the root only.
		AllowAdditionalProperties: false,
		// Expand struct references instead of using $ref for a flatter schema.
		ExpandedStruct: true,
		// Use YAML field names for property names.
		FieldNameTag: "yaml",
	}

	type BaseConfig struct {
		Version string       `yaml:"version" jsonschema:"required,description=Configuration version (e.g. '1')"`
		Name    string       `yaml:"name,omitempty" jsonschema:"description=Name of the project"`
		Server  ServerConfig `yaml:"server,omitempty" jsonschema:"description=HTTP daemon settings"`
		LLM     LLMConfig    `yaml:"llm,omitempty" jsonschema:"description=Language model settings"`
		Editor  EditorConfig `yaml:"editor,omitempty" jsonschema:"description=Editor launch settings"`
		Files   FilesConfig  `yaml:"files,omitempty" jsonschema:"description=Project file discovery settings"`
		Sync    SyncConfig   `yaml:"sync,omitempty" jsonschema:"description=Project summary limits"`
		Chat    ChatConfig   `yaml:"chat,omitempty" jsonschema:"description=Conversation history settings"`
	}

	schema := r.Reflect(&BaseConfig{})
	schema.Title = "Forge Configuration"
	schema.Description = "Schema for forge.yml properties."
	schema.Version = "http://json-schema.org/draft-07/schema#"

	// Extension sections are arbitrary; loosen the root.
	schema.AdditionalProperties = jsonschema.TrueSchema

	return json.MarshalIndent(schema, "", "  ")
}
