package plan

//go:generate stringer -type=Kind

// Kind selects how values of one type are copied.
type Kind int

const (
	// Ignore returns the value as-is.
	Ignore Kind = iota
	// Null replaces the value with its zero value.
	Null
	// Array copies a Go array or slice element by element.
	Array
	// FastPath delegates to a registered FastCloner.
	FastPath
	// Composite allocates a new struct and copies it field by field.
	Composite
	// Freezable shares frozen values and otherwise applies the inner plan.
	Freezable
	// Pointer allocates a new pointee and clones the pointed-to value into it.
	Pointer
	// Map rebuilds a builtin map with cloned keys and values.
	Map
)
