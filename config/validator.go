package config

import (
	"github.com/forgetools/forge/schema"
)

// SchemaValidator checks decoded config data against the embedded JSON
// Schema. Load reports schema violations before defaults or merging run.
type SchemaValidator struct {
	validator *schema.Validator
}

// NewSchemaValidator compiles the embedded schema once.
func NewSchemaValidator() (*SchemaValidator, error) {
	validator, err := schema.NewValidator()
	if err != nil {
		return nil, err
	}
	return &SchemaValidator{validator: validator}, nil
}

// Validate reports the first schema violation in configData, or nil.
func (v *SchemaValidator) Validate(configData interface{}) error {
	return v.validator.Validate(configData)
}
