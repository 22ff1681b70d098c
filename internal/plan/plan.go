// Package plan decides, once per type, how values of that type are copied.
package plan

import (
	"reflect"

	"github.com/gxo-labs/deepclone/internal/access"
	v1 "github.com/gxo-labs/deepclone/pkg/deepclone/v1"
)

// Plan is the cached copy recipe for one concrete type. Plans never embed
// the plans of their children; those are resolved through the same cache
// when the clone reaches them, which keeps recursive types finite.
type Plan struct {
	Kind Kind
	Type reflect.Type

	// Elem is the element type of an Array plan.
	Elem reflect.Type
	// BulkCopy is set on Array plans whose elements never need cloning.
	BulkCopy bool

	// Fields is set on Composite plans.
	Fields []*FieldPlan

	// FastPath is set on FastPath plans.
	FastPath v1.FastCloner

	// Inner is the plan applied to a Freezable value that is not frozen.
	Inner *Plan
}

// FieldPlan is a field descriptor with the engine policies baked in.
type FieldPlan struct {
	*access.Field
	Info v1.FieldInfo

	// NullInstead is set when the field carries a registered null tag.
	NullInstead bool
	// ShouldRecurse is false for fields the current switches say to copy
	// as-is: synthetic fields, outer back references, embedded roots.
	ShouldRecurse bool
	// Scalar is set when the field's type can never hold a reference.
	Scalar bool
}

// scalarKind reports kinds whose values are copied by plain assignment and
// carry no identity worth tracking.
func scalarKind(k reflect.Kind) bool {
	switch k {
	case reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr,
		reflect.Float32, reflect.Float64, reflect.Complex64, reflect.Complex128,
		reflect.String, reflect.Func, reflect.Chan, reflect.UnsafePointer:
		return true
	}
	return false
}

// IsScalar reports whether values of t are always returned as-is regardless
// of any registration.
func IsScalar(t reflect.Type) bool {
	return scalarKind(t.Kind())
}
