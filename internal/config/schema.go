package config

import (
	_ "embed"
	"fmt"
	"sync"

	cloneerrors "github.com/gxo-labs/deepclone/pkg/deepclone/v1/errors"
	"github.com/xeipuuv/gojsonschema"
	"gopkg.in/yaml.v3"
)

//go:embed deepclone_policy_schema_v1.0.0.json
var schemaV1Bytes []byte

var (
	schemaV1   *gojsonschema.Schema
	schemaOnce sync.Once
	schemaErr  error
)

// loadSchema compiles the embedded schema once and caches the result.
func loadSchema() (*gojsonschema.Schema, error) {
	schemaOnce.Do(func() {
		if len(schemaV1Bytes) == 0 {
			schemaErr = cloneerrors.NewConfigError("embedded schema 'deepclone_policy_schema_v1.0.0.json' is empty", nil)
			return
		}
		schemaV1, schemaErr = gojsonschema.NewSchema(gojsonschema.NewBytesLoader(schemaV1Bytes))
		if schemaErr != nil {
			schemaErr = cloneerrors.NewConfigError("failed to compile embedded policy schema", schemaErr)
		}
	})
	return schemaV1, schemaErr
}

// ValidateWithSchema validates a YAML policy document against the embedded
// v1 schema.
func ValidateWithSchema(documentYAML []byte) error {
	schema, err := loadSchema()
	if err != nil {
		return err
	}

	// gojsonschema works on generic JSON-like values, so the YAML is decoded
	// loosely first. Strict decoding into Policy happens later.
	var jsonData interface{}
	if err := yaml.Unmarshal(documentYAML, &jsonData); err != nil {
		return cloneerrors.NewConfigError("failed to parse policy YAML for schema validation", err)
	}

	result, err := schema.Validate(gojsonschema.NewGoLoader(jsonData))
	if err != nil {
		return cloneerrors.NewConfigError("schema validation process failed", err)
	}

	if !result.Valid() {
		errMsg := "Policy failed JSON schema validation:"
		for _, desc := range result.Errors() {
			field := desc.Field()
			if field == "(root)" || field == "" {
				field = desc.Context().String()
			}
			errMsg += fmt.Sprintf("\n  - Field '%s': %s", field, desc.Description())
		}
		return cloneerrors.NewValidationError(errMsg, nil)
	}
	return nil
}