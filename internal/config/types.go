package config

import (
	"fmt"
	"reflect"
	"sort"
	"sync"

	cloneerrors "github.com/gxo-labs/deepclone/pkg/deepclone/v1/errors"
	"github.com/hashicorp/go-multierror"
)

// TypeName returns the name a policy uses for t: the full package path and
// type name for named types ("github.com/google/uuid.UUID"), prefixed with
// '*' per pointer level. Unnamed types use reflect's own spelling.
func TypeName(t reflect.Type) string {
	if t.Kind() == reflect.Pointer {
		return "*" + TypeName(t.Elem())
	}
	if t.Name() != "" && t.PkgPath() != "" {
		return t.PkgPath() + "." + t.Name()
	}
	return t.String()
}

// TypeRegistry maps policy type names to Go types. Go cannot look a type
// up by name at runtime, so every type a policy may mention must be
// registered first.
type TypeRegistry struct {
	mu    sync.RWMutex
	types map[string]reflect.Type
}

// NewTypeRegistry creates an empty registry.
func NewTypeRegistry() *TypeRegistry {
	return &TypeRegistry{types: make(map[string]reflect.Type)}
}

// Register adds t under name. Registering the same type again under the
// same name is allowed; a different type under a taken name is not.
func (r *TypeRegistry) Register(name string, t reflect.Type) error {
	if name == "" || t == nil {
		return cloneerrors.NewConfigError("type registration requires a name and a type", nil)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.types[name]; ok && existing != t {
		return cloneerrors.NewConfigError(fmt.Sprintf("type name '%s' already registered for %s", name, existing), nil)
	}
	r.types[name] = t
	return nil
}

// Add registers each type under its TypeName. A name conflict does not stop
// the remaining types; every conflict is returned in a *multierror.Error.
func (r *TypeRegistry) Add(types ...reflect.Type) error {
	var errs *multierror.Error
	for _, t := range types {
		if t == nil {
			continue
		}
		if err := r.Register(TypeName(t), t); err != nil {
			errs = multierror.Append(errs, err)
		}
	}
	return errs.ErrorOrNil()
}

// Lookup returns the type registered under name.
func (r *TypeRegistry) Lookup(name string) (reflect.Type, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.types[name]
	return t, ok
}

// Names returns every registered name in sorted order.
func (r *TypeRegistry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.types))
	for n := range r.types {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// ResolvedPolicy is a Policy whose type names were turned into Go types.
type ResolvedPolicy struct {
	*Policy
	Immutable        []reflect.Type
	Ignore           []reflect.Type
	IgnoreInstanceOf []reflect.Type
	NullInstead      []reflect.Type
	RootAncestors    []reflect.Type
}

// Resolve looks up every type name in p. All unknown names are reported
// together.
func Resolve(p *Policy, reg *TypeRegistry) (*ResolvedPolicy, error) {
	var errs *multierror.Error
	resolve := func(section string, names []string) []reflect.Type {
		out := make([]reflect.Type, 0, len(names))
		for _, name := range names {
			t, ok := reg.Lookup(name)
			if !ok {
				errs = multierror.Append(errs, cloneerrors.NewValidationError(
					fmt.Sprintf("%s: unknown type '%s'", section, name), nil))
				continue
			}
			out = append(out, t)
		}
		return out
	}
	rp := &ResolvedPolicy{
		Policy:           p,
		Immutable:        resolve("immutable", p.Immutable),
		Ignore:           resolve("ignore", p.Ignore),
		IgnoreInstanceOf: resolve("ignoreInstanceOf", p.IgnoreInstanceOf),
		NullInstead:      resolve("nullInstead", p.NullInstead),
		RootAncestors:    resolve("rootAncestors", p.RootAncestors),
	}
	if err := errs.ErrorOrNil(); err != nil {
		return nil, cloneerrors.NewValidationError(fmt.Sprintf("policy '%s' references unknown types", p.FilePath), err)
	}
	return rp, nil
}
