package config

import (
	"fmt"
	"regexp"

	cloneerrors "github.com/gxo-labs/deepclone/pkg/deepclone/v1/errors"
	"github.com/hashicorp/go-multierror"
)

// tagKeyRegex matches struct tag keys as reflect.StructTag.Lookup understands them.
var tagKeyRegex = regexp.MustCompile(`^[^\s:"\x00-\x1f\x7f]+$`)

// ValidatePolicy checks rules the JSON schema cannot express. Every problem
// is reported; the result is a *multierror.Error or nil.
func ValidatePolicy(p *Policy) error {
	var result *multierror.Error

	switch p.Accessor {
	case "", AccessorAuto, AccessorOffset, AccessorReflection:
	default:
		result = multierror.Append(result, cloneerrors.NewValidationError(
			fmt.Sprintf("accessor '%s' is not one of auto, offset, reflection", p.Accessor), nil))
	}

	for _, key := range p.NullTags {
		if !tagKeyRegex.MatchString(key) {
			result = multierror.Append(result, cloneerrors.NewValidationError(
				fmt.Sprintf("nullTags entry '%s' is not a valid struct tag key", key), nil))
		}
	}
	for key, action := range p.Strategies {
		if !tagKeyRegex.MatchString(key) {
			result = multierror.Append(result, cloneerrors.NewValidationError(
				fmt.Sprintf("strategies key '%s' is not a valid struct tag key", key), nil))
		}
		if action != ActionNull && action != ActionSame {
			result = multierror.Append(result, cloneerrors.NewValidationError(
				fmt.Sprintf("strategies['%s'] has invalid action '%s' (allowed: null, same)", key, action), nil))
		}
	}

	// A type cannot be both returned as-is and zeroed.
	nulled := make(map[string]struct{}, len(p.NullInstead))
	for _, name := range p.NullInstead {
		nulled[name] = struct{}{}
	}
	for _, list := range [][]string{p.Immutable, p.Ignore} {
		for _, name := range list {
			if _, clash := nulled[name]; clash {
				result = multierror.Append(result, cloneerrors.NewValidationError(
					fmt.Sprintf("type '%s' is listed both as nullInstead and as immutable or ignored", name), nil))
			}
		}
	}

	return result.ErrorOrNil()
}
