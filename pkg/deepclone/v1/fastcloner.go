package v1

import "reflect"

// DeepCloner is the callback a FastCloner uses to copy the elements of the
// container it handles. It shares the identity session of the call that
// invoked the handler.
type DeepCloner interface {
	// Clone returns the copy of v within the current session.
	Clone(v any) (any, error)
	// Track records clone as the copy of original. Handlers call it right
	// after allocating the new container and before copying elements, so
	// elements that point back at the container resolve to the new one.
	Track(original, clone any)
}

// FastCloner is a hand-written clone routine for one exact type, usually a
// container whose internals are cheaper to rebuild through its public API.
type FastCloner interface {
	Clone(src any, c DeepCloner) (any, error)
}

// FastClonerFunc adapts a plain function to FastCloner.
type FastClonerFunc func(src any, c DeepCloner) (any, error)

func (f FastClonerFunc) Clone(src any, c DeepCloner) (any, error) {
	return f(src, c)
}

// Allocator creates fresh instances without running any constructor logic.
type Allocator interface {
	// Allocate returns a pointer to a new zero-initialised value of type t.
	Allocate(t reflect.Type) reflect.Value
}

// Factory builds a new instance of one type. It must return a pointer to
// that type.
type Factory func() any

// Listener observes a deep clone as it happens. It never affects results.
type Listener interface {
	// CloneStarted is called once per allocated clone instance.
	CloneStarted(t reflect.Type)
	// FieldCloned is called when a field value was replaced by a deep copy.
	FieldCloned(owner reflect.Type, field FieldInfo)
}
