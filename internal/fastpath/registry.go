// Package fastpath holds hand-written clone routines for container types
// that are cheaper and safer to rebuild through their own API than field by
// field.
package fastpath

import (
	"fmt"
	"reflect"
	"sync"

	v1 "github.com/gxo-labs/deepclone/pkg/deepclone/v1"
	cloneerrors "github.com/gxo-labs/deepclone/pkg/deepclone/v1/errors"
)

// Registry maps exact concrete types to their FastCloner. Lookups never
// match subtypes or interface implementations.
type Registry struct {
	handlers map[reflect.Type]v1.FastCloner
	mu       sync.RWMutex
}

// NewRegistry creates an empty registry. Use RegisterDefaults to add the
// built-in container handlers.
func NewRegistry() *Registry {
	return &Registry{handlers: make(map[reflect.Type]v1.FastCloner)}
}

// Register installs fc for t. Registering a second handler for the same type
// is a configuration error; Unregister the old one first.
func (r *Registry) Register(t reflect.Type, fc v1.FastCloner) error {
	if t == nil {
		return cloneerrors.NewConfigError("fast cloner registration error: type cannot be nil", nil)
	}
	if fc == nil {
		return cloneerrors.NewConfigError(fmt.Sprintf("fast cloner registration error for '%s': handler cannot be nil", t), nil)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.handlers[t]; exists {
		return cloneerrors.NewConfigError(fmt.Sprintf("fast cloner registration error: duplicate handler for type '%s'", t), nil)
	}
	r.handlers[t] = fc
	return nil
}

// Unregister removes the handler for t, if any.
func (r *Registry) Unregister(t reflect.Type) {
	r.mu.Lock()
	delete(r.handlers, t)
	r.mu.Unlock()
}

// Lookup returns the handler registered for exactly t.
func (r *Registry) Lookup(t reflect.Type) (v1.FastCloner, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	fc, ok := r.handlers[t]
	return fc, ok
}

// List returns the registered types. The order is not guaranteed.
func (r *Registry) List() []reflect.Type {
	r.mu.RLock()
	defer r.mu.RUnlock()
	types := make([]reflect.Type, 0, len(r.handlers))
	for t := range r.handlers {
		types = append(types, t)
	}
	return types
}

// RegisterDefaults installs every built-in handler into r.
func RegisterDefaults(r *Registry) error {
	for t, fc := range defaults() {
		if err := r.Register(t, fc); err != nil {
			return err
		}
	}
	return nil
}

func defaults() map[reflect.Type]v1.FastCloner {
	out := make(map[reflect.Type]v1.FastCloner)
	for t, fc := range stdlibHandlers() {
		out[t] = fc
	}
	for t, fc := range godsHandlers() {
		out[t] = fc
	}
	return out
}

// shapeChanged reports a container modified while it was being copied.
func shapeChanged(t reflect.Type, before, after int) error {
	return cloneerrors.NewCloneError(cloneerrors.UnsupportedShape, t, "",
		fmt.Errorf("container size changed from %d to %d during copy", before, after))
}

// cloneAll deep copies every value of src in order.
func cloneAll(src []any, c v1.DeepCloner) ([]any, error) {
	out := make([]any, len(src))
	for i, v := range src {
		cv, err := c.Clone(v)
		if err != nil {
			return nil, err
		}
		out[i] = cv
	}
	return out, nil
}
