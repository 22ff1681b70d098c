package plan

import (
	"reflect"
	"sync"

	"github.com/gxo-labs/deepclone/internal/access"
	v1 "github.com/gxo-labs/deepclone/pkg/deepclone/v1"
)

var (
	freezableType          = reflect.TypeOf((*v1.Freezable)(nil)).Elem()
	immutableMarker        = reflect.TypeOf(v1.Immutable{})
	immutableInheritMarker = reflect.TypeOf(v1.ImmutableInherited{})
)

// FastPathLookup finds the fast-path handler registered for an exact type.
type FastPathLookup interface {
	Lookup(t reflect.Type) (v1.FastCloner, bool)
}

// Classifier owns the type registrations of one engine and resolves and
// caches a Plan per type. It is safe for concurrent use. Registrations are
// expected at setup time; each one drops every cached plan.
type Classifier struct {
	mu               sync.RWMutex
	ignored          map[reflect.Type]struct{}
	nullInstead      map[reflect.Type]struct{}
	immutable        map[reflect.Type]struct{}
	roots            map[reflect.Type]struct{}
	ignoreInstanceOf []reflect.Type
	nullTags         []string
	predicates       []func(reflect.Type) bool
	cloneSynthetics  bool
	cloneOuterRefs   bool
	fastPaths        FastPathLookup

	plans      sync.Map // reflect.Type -> *Plan
	immutables sync.Map // reflect.Type -> bool

	// OnResolve, when set, is called once for every plan that gets cached.
	OnResolve func(*Plan)
}

// NewClassifier returns a Classifier with no registrations. Synthetic
// fields and outer references are cloned by default.
func NewClassifier(fastPaths FastPathLookup) *Classifier {
	return &Classifier{
		ignored:         make(map[reflect.Type]struct{}),
		nullInstead:     make(map[reflect.Type]struct{}),
		immutable:       make(map[reflect.Type]struct{}),
		roots:           make(map[reflect.Type]struct{}),
		cloneSynthetics: true,
		cloneOuterRefs:  true,
		fastPaths:       fastPaths,
	}
}

// Invalidate drops all cached plans and immutability answers.
func (c *Classifier) Invalidate() {
	clearMap(&c.plans)
	clearMap(&c.immutables)
}

func clearMap(m *sync.Map) {
	m.Range(func(k, _ any) bool {
		m.Delete(k)
		return true
	})
}

func (c *Classifier) addTypes(set map[reflect.Type]struct{}, types []reflect.Type) {
	c.mu.Lock()
	for _, t := range types {
		if t != nil {
			set[t] = struct{}{}
		}
	}
	c.mu.Unlock()
	c.Invalidate()
}

// RegisterImmutable marks types as never needing a copy.
func (c *Classifier) RegisterImmutable(types ...reflect.Type) { c.addTypes(c.immutable, types) }

// DontClone marks types whose values are returned as-is.
func (c *Classifier) DontClone(types ...reflect.Type) { c.addTypes(c.ignored, types) }

// NullInsteadOfClone marks types whose values are replaced by their zero value.
func (c *Classifier) NullInsteadOfClone(types ...reflect.Type) { c.addTypes(c.nullInstead, types) }

// RegisterRootAncestor stops field flattening at embedded structs of these types.
func (c *Classifier) RegisterRootAncestor(types ...reflect.Type) { c.addTypes(c.roots, types) }

// DontCloneInstanceOf ignores every type assignable to one of types. For
// interface types that means every implementation.
func (c *Classifier) DontCloneInstanceOf(types ...reflect.Type) {
	c.mu.Lock()
	for _, t := range types {
		if t != nil {
			c.ignoreInstanceOf = append(c.ignoreInstanceOf, t)
		}
	}
	c.mu.Unlock()
	c.Invalidate()
}

// NullInsteadForTag zeroes every field carrying one of the struct tag keys.
func (c *Classifier) NullInsteadForTag(keys ...string) {
	c.mu.Lock()
	c.nullTags = append(c.nullTags, keys...)
	c.mu.Unlock()
	c.Invalidate()
}

// ConsiderImmutable adds a predicate consulted by IsImmutable.
func (c *Classifier) ConsiderImmutable(pred func(reflect.Type) bool) {
	if pred == nil {
		return
	}
	c.mu.Lock()
	c.predicates = append(c.predicates, pred)
	c.mu.Unlock()
	c.Invalidate()
}

// SetCloneSynthetics toggles deep copying of generated fields.
func (c *Classifier) SetCloneSynthetics(clone bool) {
	c.mu.Lock()
	c.cloneSynthetics = clone
	c.mu.Unlock()
	c.Invalidate()
}

// CloneSynthetics reports the current synthetic-field switch.
func (c *Classifier) CloneSynthetics() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.cloneSynthetics
}

// SetCloneOuterRefs toggles deep copying of `clone:"outer"` fields.
func (c *Classifier) SetCloneOuterRefs(clone bool) {
	c.mu.Lock()
	c.cloneOuterRefs = clone
	c.mu.Unlock()
	c.Invalidate()
}

// CloneOuterRefs reports the current outer-reference switch.
func (c *Classifier) CloneOuterRefs() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.cloneOuterRefs
}

// IsRoot reports whether t was registered as a root ancestor.
func (c *Classifier) IsRoot(t reflect.Type) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.roots[t]
	return ok
}

// IsImmutable reports whether t is registered immutable, matches a
// predicate, declares an immutability marker, or embeds at any depth a type
// declaring the inheritable marker. Pointers to immutable structs are
// immutable as well.
func (c *Classifier) IsImmutable(t reflect.Type) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.isImmutableLocked(t)
}

func (c *Classifier) isImmutableLocked(t reflect.Type) bool {
	if v, ok := c.immutables.Load(t); ok {
		return v.(bool)
	}
	result := c.computeImmutable(t)
	c.immutables.Store(t, result)
	return result
}

func (c *Classifier) computeImmutable(t reflect.Type) bool {
	if _, ok := c.immutable[t]; ok {
		return true
	}
	for _, pred := range c.predicates {
		if pred(t) {
			return true
		}
	}
	switch t.Kind() {
	case reflect.Pointer:
		if t.Elem().Kind() == reflect.Struct {
			return c.isImmutableLocked(t.Elem())
		}
		return false
	case reflect.Struct:
		if access.DeclaresMarker(t, immutableMarker) || access.DeclaresMarker(t, immutableInheritMarker) {
			return true
		}
		return inheritsImmutable(t)
	}
	return false
}

// inheritsImmutable walks embedded value structs looking for the
// inheritable marker only. A plain Immutable on an ancestor does not count.
func inheritsImmutable(t reflect.Type) bool {
	for _, e := range access.Embedded(t) {
		if access.DeclaresMarker(e, immutableInheritMarker) || inheritsImmutable(e) {
			return true
		}
	}
	return false
}

// Resolve returns the cached plan for t, building it on first use. Two
// goroutines may build the same plan concurrently; only one is published.
func (c *Classifier) Resolve(t reflect.Type) *Plan {
	if p, ok := c.plans.Load(t); ok {
		return p.(*Plan)
	}
	c.mu.RLock()
	p := c.build(t)
	c.mu.RUnlock()
	actual, loaded := c.plans.LoadOrStore(t, p)
	if !loaded && c.OnResolve != nil {
		c.OnResolve(p)
	}
	return actual.(*Plan)
}

func (c *Classifier) build(t reflect.Type) *Plan {
	if scalarKind(t.Kind()) || t.Kind() == reflect.Interface {
		return &Plan{Kind: Ignore, Type: t}
	}
	if t.Implements(freezableType) {
		return &Plan{Kind: Freezable, Type: t, Inner: c.buildBase(t)}
	}
	return c.buildBase(t)
}

// buildBase applies every rule except the freezable one.
func (c *Classifier) buildBase(t reflect.Type) *Plan {
	if _, ok := c.nullInstead[t]; ok {
		return &Plan{Kind: Null, Type: t}
	}
	if c.ignorableLocked(t) {
		return &Plan{Kind: Ignore, Type: t}
	}
	switch t.Kind() {
	case reflect.Array, reflect.Slice:
		elem := t.Elem()
		return &Plan{Kind: Array, Type: t, Elem: elem, BulkCopy: c.elemNeverCloned(elem)}
	}
	if c.fastPaths != nil {
		if fc, ok := c.fastPaths.Lookup(t); ok {
			return &Plan{Kind: FastPath, Type: t, FastPath: fc}
		}
	}
	for _, super := range c.ignoreInstanceOf {
		if t.AssignableTo(super) {
			return &Plan{Kind: Ignore, Type: t}
		}
	}
	switch t.Kind() {
	case reflect.Struct:
		return &Plan{Kind: Composite, Type: t, Fields: c.buildFields(t)}
	case reflect.Pointer:
		return &Plan{Kind: Pointer, Type: t, Elem: t.Elem()}
	case reflect.Map:
		return &Plan{Kind: Map, Type: t}
	}
	return &Plan{Kind: Ignore, Type: t}
}

func (c *Classifier) ignorableLocked(t reflect.Type) bool {
	if _, ok := c.ignored[t]; ok {
		return true
	}
	if t.Kind() == reflect.Pointer && t.Elem().Kind() == reflect.Struct {
		if _, ok := c.ignored[t.Elem()]; ok {
			return true
		}
	}
	return c.isImmutableLocked(t)
}

// elemNeverCloned reports element types whose values can be block-copied.
func (c *Classifier) elemNeverCloned(elem reflect.Type) bool {
	if scalarKind(elem.Kind()) {
		return true
	}
	if elem.Kind() == reflect.Interface || elem.Implements(freezableType) {
		return false
	}
	if _, ok := c.nullInstead[elem]; ok {
		return false
	}
	return c.ignorableLocked(elem)
}

func (c *Classifier) buildFields(t reflect.Type) []*FieldPlan {
	fields := access.Describe(t, c.keepEmbedded)
	out := make([]*FieldPlan, 0, len(fields))
	for _, f := range fields {
		_, root := c.roots[f.Type]
		fp := &FieldPlan{
			Field:  f,
			Info:   f.Info(t),
			Scalar: scalarKind(f.Type.Kind()),
			ShouldRecurse: (c.cloneSynthetics || !f.Synthetic) &&
				(c.cloneOuterRefs || !f.OuterRef) &&
				!(f.Embedded && root),
		}
		for _, key := range c.nullTags {
			if _, ok := f.Tag.Lookup(key); ok {
				fp.NullInstead = true
				break
			}
		}
		out = append(out, fp)
	}
	return out
}

// keepEmbedded reports embedded struct types that must stay a single field:
// registered roots, and types with a plan of their own such as an embedded
// sync.Mutex that is nulled or an embedded immutable.
func (c *Classifier) keepEmbedded(t reflect.Type) bool {
	if _, ok := c.roots[t]; ok {
		return true
	}
	if _, ok := c.nullInstead[t]; ok {
		return true
	}
	if t.Implements(freezableType) || c.ignorableLocked(t) {
		return true
	}
	if c.fastPaths != nil {
		if _, ok := c.fastPaths.Lookup(t); ok {
			return true
		}
	}
	return false
}
