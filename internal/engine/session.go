package engine

import (
	"reflect"
	"unsafe"
)

// identity is the key under which a reference value is tracked. Slices are
// keyed by their backing array together with length and capacity, so two
// differently sized views of one array are separate identities.
type identity struct {
	ptr unsafe.Pointer
	typ reflect.Type
	len int
	cap int
}

// identityOf returns the identity of v and whether v has one. Only pointers,
// maps and non-empty slices do; everything else is copied by value or
// returned as-is.
func identityOf(v reflect.Value) (identity, bool) {
	switch v.Kind() {
	case reflect.Pointer, reflect.Map:
		if v.IsNil() {
			return identity{}, false
		}
		return identity{ptr: v.UnsafePointer(), typ: v.Type()}, true
	case reflect.Slice:
		if v.IsNil() || v.Len() == 0 {
			return identity{}, false
		}
		return identity{ptr: v.UnsafePointer(), typ: v.Type(), len: v.Len(), cap: v.Cap()}, true
	}
	return identity{}, false
}

// session maps every original reference reached during one deep clone call
// to its clone. It is never shared between goroutines.
type session struct {
	clones map[identity]reflect.Value
}

func newSession() *session {
	return &session{clones: make(map[identity]reflect.Value)}
}

// seed maps each value to itself, so it is returned unchanged wherever it is
// reached. Values without an identity are skipped.
func (s *session) seed(values ...any) {
	for _, v := range values {
		rv := reflect.ValueOf(v)
		for rv.Kind() == reflect.Interface && !rv.IsNil() {
			rv = rv.Elem()
		}
		if id, ok := identityOf(rv); ok {
			s.clones[id] = rv
		}
	}
}

// lookup returns the clone already recorded for v.
func (s *session) lookup(v reflect.Value) (reflect.Value, bool) {
	id, ok := identityOf(v)
	if !ok {
		return reflect.Value{}, false
	}
	c, found := s.clones[id]
	return c, found
}

// track records clone as the copy of orig. It must be called before the
// children of clone are filled in.
func (s *session) track(orig, clone reflect.Value) {
	if id, ok := identityOf(orig); ok {
		s.clones[id] = clone
	}
}

func (s *session) size() int {
	return len(s.clones)
}
