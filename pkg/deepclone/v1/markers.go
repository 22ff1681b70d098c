package v1

// Immutable marks the declaring struct type as never needing a copy. It is
// declared as a blank field:
//
//	type Color struct {
//		_       v1.Immutable
//		R, G, B uint8
//	}
//
// The mark applies only to the declaring type. Types that embed Color are
// still copied.
type Immutable struct{}

// ImmutableInherited is Immutable that also applies to every struct type
// embedding the declaring type by value, at any depth.
type ImmutableInherited struct{}

// Freezable is implemented by types that may be switched to a read-only
// state at runtime. A frozen value is shared with the clone instead of
// being copied.
type Freezable interface {
	IsFrozen() bool
}
