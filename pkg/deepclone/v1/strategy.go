package v1

import (
	"reflect"
	"strings"
)

// FieldInfo is the read-only view of a struct field handed to strategies
// and listeners.
type FieldInfo struct {
	// Owner is the struct type the field was flattened into.
	Owner reflect.Type
	// Name is the Go field name. Promoted fields keep their own name.
	Name string
	// Type is the declared field type.
	Type reflect.Type
	// Tag is the raw struct tag.
	Tag reflect.StructTag
	// Index is the FieldByIndex path from Owner.
	Index []int
}

// HasTag reports whether the field carries the struct tag key, with any value.
func (f FieldInfo) HasTag(key string) bool {
	_, ok := f.Tag.Lookup(key)
	return ok
}

// HasOption reports whether the `clone` tag lists opt, e.g. `clone:"transient"`.
func (f FieldInfo) HasOption(opt string) bool {
	v, ok := f.Tag.Lookup(CloneTag)
	if !ok {
		return false
	}
	for _, o := range strings.Split(v, ",") {
		if strings.TrimSpace(o) == opt {
			return true
		}
	}
	return false
}

// CloneTag is the struct tag key read by the engine.
const CloneTag = "clone"

// Options understood inside the clone tag.
const (
	OptionTransient = "transient"
	OptionSynthetic = "synthetic"
	OptionOuter     = "outer"
)

// StrategyResult tells the engine what to do with a field value.
type StrategyResult int

const (
	// Ignore defers to the next strategy, or to the normal copy.
	Ignore StrategyResult = iota
	// NullInsteadOfClone writes the zero value into the clone's field.
	NullInsteadOfClone
	// SameInstanceInsteadOfClone writes the original value into the clone's field.
	SameInstanceInsteadOfClone
)

func (r StrategyResult) String() string {
	switch r {
	case NullInsteadOfClone:
		return "NullInsteadOfClone"
	case SameInstanceInsteadOfClone:
		return "SameInstanceInsteadOfClone"
	default:
		return "Ignore"
	}
}

// Strategy is consulted for every field during a deep clone. Strategies run
// in registration order and the first non-Ignore result wins.
type Strategy interface {
	Strategy(value any, field FieldInfo) StrategyResult
}

// StrategyFunc adapts a plain function to Strategy.
type StrategyFunc func(value any, field FieldInfo) StrategyResult

func (f StrategyFunc) Strategy(value any, field FieldInfo) StrategyResult {
	return f(value, field)
}

// StrategyForTag returns a Strategy that answers result for every field
// carrying the struct tag key, and Ignore for everything else.
func StrategyForTag(key string, result StrategyResult) Strategy {
	return StrategyFunc(func(_ any, field FieldInfo) StrategyResult {
		if field.HasTag(key) {
			return result
		}
		return Ignore
	})
}

// StrategyForFieldNames returns a Strategy that answers result for every
// field whose name contains one of keywords, ignoring case, such as
// "password" to keep credentials out of copies.
func StrategyForFieldNames(result StrategyResult, keywords ...string) Strategy {
	lowered := make([]string, 0, len(keywords))
	for _, k := range keywords {
		if k = strings.ToLower(strings.TrimSpace(k)); k != "" {
			lowered = append(lowered, k)
		}
	}
	return StrategyFunc(func(_ any, field FieldInfo) StrategyResult {
		name := strings.ToLower(field.Name)
		for _, k := range lowered {
			if strings.Contains(name, k) {
				return result
			}
		}
		return Ignore
	})
}
