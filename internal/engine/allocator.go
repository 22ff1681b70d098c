package engine

import (
	"fmt"
	"reflect"

	v1 "github.com/gxo-labs/deepclone/pkg/deepclone/v1"
	cloneerrors "github.com/gxo-labs/deepclone/pkg/deepclone/v1/errors"
)

// reflectAllocator allocates zero values with reflect.New. No constructor
// or initialisation logic of the type is run.
type reflectAllocator struct{}

func (reflectAllocator) Allocate(t reflect.Type) reflect.Value {
	return reflect.New(t)
}

var _ v1.Allocator = reflectAllocator{}

// allocate returns a pointer to a fresh value of type t, built by the
// factory registered for t when there is one.
func (s *settings) allocate(t reflect.Type) (reflect.Value, error) {
	if f, ok := s.factories[t]; ok {
		p := reflect.ValueOf(f())
		if !p.IsValid() || p.Type() != reflect.PointerTo(t) || p.IsNil() {
			return reflect.Value{}, cloneerrors.NewCloneError(cloneerrors.UnsupportedShape, t, "",
				fmt.Errorf("factory returned %s, want non-nil %s", typeString(p), reflect.PointerTo(t)))
		}
		return p, nil
	}
	p := s.allocator.Allocate(t)
	if !p.IsValid() || p.Type() != reflect.PointerTo(t) {
		return reflect.Value{}, cloneerrors.NewCloneError(cloneerrors.UnsupportedShape, t, "",
			fmt.Errorf("allocator returned %s, want %s", typeString(p), reflect.PointerTo(t)))
	}
	return p, nil
}

func typeString(v reflect.Value) string {
	if !v.IsValid() {
		return "nothing"
	}
	return v.Type().String()
}
