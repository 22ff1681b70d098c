package engine

import (
	"fmt"
	"reflect"
	"sync"

	"github.com/gxo-labs/deepclone/internal/access"
	cloneerrors "github.com/gxo-labs/deepclone/pkg/deepclone/v1/errors"
)

// ConstantTable holds reference values that every clone call returns
// unchanged. Lookups never create session entries.
type ConstantTable struct {
	mu      sync.RWMutex
	entries map[identity]struct{}
}

// NewConstantTable creates an empty table.
func NewConstantTable() *ConstantTable {
	return &ConstantTable{
		entries: make(map[identity]struct{}),
	}
}

// Add registers v. Only values carrying an identity (non-nil pointers and
// maps, non-empty slices, or interfaces holding one) can be constants.
func (t *ConstantTable) Add(v any) error {
	rv := unwrapInterface(reflect.ValueOf(v))
	id, ok := identityOf(rv)
	if !ok {
		return cloneerrors.NewConfigError(fmt.Sprintf("constant of type %T is not a reference value", v), nil)
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.entries[id] = struct{}{}
	return nil
}

// Contains reports whether v is a registered constant.
func (t *ConstantTable) Contains(v reflect.Value) bool {
	id, ok := identityOf(v)
	if !ok {
		return false
	}
	t.mu.RLock()
	defer t.mu.RUnlock()
	if len(t.entries) == 0 {
		return false
	}
	_, found := t.entries[id]
	return found
}

// Len returns the number of registered constants.
func (t *ConstantTable) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.entries)
}

// AddFields registers the named fields of the struct holder points to. A
// name that does not exist is a configuration error.
func (t *ConstantTable) AddFields(acc access.Accessor, holder any, names ...string) error {
	obj, err := holderStruct(holder)
	if err != nil {
		return err
	}
	byName := make(map[string]*access.Field)
	for _, f := range access.Describe(obj.Type(), nil) {
		byName[f.Name] = f
	}
	for _, name := range names {
		f, ok := byName[name]
		if !ok {
			return cloneerrors.NewConfigError(fmt.Sprintf("constant field '%s' not found on %s", name, obj.Type()), nil)
		}
		v, err := acc.Read(obj, f)
		if err != nil {
			return cloneerrors.NewConfigError(fmt.Sprintf("cannot read constant field '%s' of %s", name, obj.Type()), err)
		}
		if err := t.Add(v.Interface()); err != nil {
			return cloneerrors.NewConfigError(fmt.Sprintf("constant field '%s' of %s", name, obj.Type()), err)
		}
	}
	return nil
}

// AddAllFields registers every reference-holding field of each holder.
// Fields holding nil or plain values are skipped.
func (t *ConstantTable) AddAllFields(acc access.Accessor, holders ...any) error {
	for _, holder := range holders {
		obj, err := holderStruct(holder)
		if err != nil {
			return err
		}
		for _, f := range access.Describe(obj.Type(), nil) {
			v, err := acc.Read(obj, f)
			if err != nil {
				return cloneerrors.NewConfigError(fmt.Sprintf("cannot read field '%s' of %s", f.Name, obj.Type()), err)
			}
			if _, ok := identityOf(unwrapInterface(v)); !ok {
				continue
			}
			if err := t.Add(v.Interface()); err != nil {
				return err
			}
		}
	}
	return nil
}

func holderStruct(holder any) (reflect.Value, error) {
	rv := reflect.ValueOf(holder)
	if rv.Kind() != reflect.Pointer || rv.IsNil() || rv.Elem().Kind() != reflect.Struct {
		return reflect.Value{}, cloneerrors.NewConfigError(fmt.Sprintf("constant holder must be a non-nil pointer to a struct, got %T", holder), nil)
	}
	return rv.Elem(), nil
}

func unwrapInterface(v reflect.Value) reflect.Value {
	for v.Kind() == reflect.Interface && !v.IsNil() {
		v = v.Elem()
	}
	return v
}
