package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	cloneerrors "github.com/gxo-labs/deepclone/pkg/deepclone/v1/errors"
	"golang.org/x/mod/semver"
	"gopkg.in/yaml.v3"
)

// SupportedSchemaVersionConstraint is the policy schema major version this
// engine understands.
const SupportedSchemaVersionConstraint = "v1"

// LoadPolicy parses and validates a YAML clone policy: JSON schema first,
// then strict decoding, then the schemaVersion check, then logical rules.
// Type names are not resolved here; see Resolve.
func LoadPolicy(policyYAML []byte, filePathHint string) (*Policy, error) {
	if len(policyYAML) == 0 {
		return nil, cloneerrors.NewConfigError("policy content cannot be empty", nil)
	}

	if err := ValidateWithSchema(policyYAML); err != nil {
		return nil, cloneerrors.NewConfigError(fmt.Sprintf("policy '%s' failed schema validation", filePathHint), err)
	}

	var policy Policy
	if err := yamlUnmarshalStrict(policyYAML, &policy); err != nil {
		return nil, cloneerrors.NewConfigError(fmt.Sprintf("failed to parse policy YAML '%s'", filePathHint), err)
	}
	policy.FilePath = filePathHint

	if err := checkSchemaVersion(policy.SchemaVersion, filePathHint); err != nil {
		return nil, err
	}

	if err := ValidatePolicy(&policy); err != nil {
		return nil, cloneerrors.NewValidationError(fmt.Sprintf("policy '%s' is invalid", filePathHint), err)
	}
	return &policy, nil
}

// LoadPolicyFromFile reads a policy from disk and calls LoadPolicy.
func LoadPolicyFromFile(filePath string) (*Policy, error) {
	if filePath == "" {
		return nil, cloneerrors.NewConfigError("policy file path cannot be empty", nil)
	}
	absPath, err := filepath.Abs(filePath)
	if err != nil {
		return nil, cloneerrors.NewConfigError(fmt.Sprintf("failed to get absolute path for '%s'", filePath), err)
	}
	data, err := os.ReadFile(absPath)
	if err != nil {
		return nil, cloneerrors.NewConfigError(fmt.Sprintf("failed to read policy file '%s'", absPath), err)
	}
	return LoadPolicy(data, absPath)
}

func checkSchemaVersion(version, filePathHint string) error {
	if version == "" {
		return cloneerrors.NewValidationError(fmt.Sprintf("policy '%s' is missing required 'schemaVersion' field", filePathHint), nil)
	}
	v := version
	if !strings.HasPrefix(v, "v") {
		v = "v" + v
	}
	if !semver.IsValid(v) {
		return cloneerrors.NewValidationError(fmt.Sprintf("policy '%s' has invalid 'schemaVersion' format: '%s'", filePathHint, version), nil)
	}
	if semver.Major(v) != SupportedSchemaVersionConstraint {
		return cloneerrors.NewValidationError(
			fmt.Sprintf("policy '%s' schemaVersion '%s' is not compatible with engine requirement '%s'",
				filePathHint, version, SupportedSchemaVersionConstraint),
			nil,
		)
	}
	return nil
}

// yamlUnmarshalStrict rejects keys that Policy does not define.
func yamlUnmarshalStrict(in []byte, out interface{}) error {
	decoder := yaml.NewDecoder(strings.NewReader(string(in)))
	decoder.KnownFields(true)
	if err := decoder.Decode(out); err != nil {
		return fmt.Errorf("YAML parsing error: %w", err)
	}
	return nil
}
