package engine

import (
	"fmt"
	"log/slog"
	"reflect"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gxo-labs/deepclone/internal/access"
	"github.com/gxo-labs/deepclone/internal/config"
	intEvents "github.com/gxo-labs/deepclone/internal/events"
	"github.com/gxo-labs/deepclone/internal/fastpath"
	"github.com/gxo-labs/deepclone/internal/logger"
	intMetrics "github.com/gxo-labs/deepclone/internal/metrics"
	"github.com/gxo-labs/deepclone/internal/plan"
	intTracing "github.com/gxo-labs/deepclone/internal/tracing"

	v1 "github.com/gxo-labs/deepclone/pkg/deepclone/v1"
	cloneerrors "github.com/gxo-labs/deepclone/pkg/deepclone/v1/errors"
	"github.com/gxo-labs/deepclone/pkg/deepclone/v1/events"
	clonelog "github.com/gxo-labs/deepclone/pkg/deepclone/v1/log"
	"github.com/gxo-labs/deepclone/pkg/deepclone/v1/metrics"
	clonetracing "github.com/gxo-labs/deepclone/pkg/deepclone/v1/tracing"
)

// Clone modes, used as the "mode" metric label.
const (
	modeDeep     = "deep"
	modeShallow  = "shallow"
	modeDisabled = "disabled"
)

// settings is the part of the engine configuration a clone call reads. It is
// replaced as a whole on every change, so a running call keeps a consistent
// snapshot.
type settings struct {
	accessor      access.Accessor
	allocator     v1.Allocator
	factories     map[reflect.Type]v1.Factory
	strategies    []v1.Strategy
	nullTransient bool

	userListener v1.Listener
	bus          events.Bus
	// listener combines userListener and a bus forwarder. Nil when nobody
	// is listening.
	listener v1.Listener

	log      clonelog.Logger
	counters *intMetrics.CloneCounters
}

func (s *settings) copy() *settings {
	c := *s
	c.factories = make(map[reflect.Type]v1.Factory, len(s.factories))
	for t, f := range s.factories {
		c.factories[t] = f
	}
	c.strategies = append([]v1.Strategy(nil), s.strategies...)
	return &c
}

func (s *settings) rebuildListener() {
	var ls intEvents.MultiListener
	if s.userListener != nil {
		ls = append(ls, s.userListener)
	}
	if _, noop := s.bus.(*intEvents.NoOpEventBus); s.bus != nil && !noop {
		ls = append(ls, intEvents.NewBusListener(s.bus))
	}
	switch len(ls) {
	case 0:
		s.listener = nil
	case 1:
		s.listener = ls[0]
	default:
		s.listener = ls
	}
}

func (s *settings) count(mode string) {
	if s.counters != nil {
		s.counters.Clones.WithLabelValues(mode).Inc()
	}
}

// Engine is the deep clone engine. It is configured at setup and then safe
// for concurrent use by any number of goroutines.
type Engine struct {
	classifier *plan.Classifier
	fastPaths  *fastpath.Registry
	constants  *ConstantTable
	types      *config.TypeRegistry

	mu       sync.Mutex // serialises settings updates
	settings atomic.Pointer[settings]
	enabled  atomic.Bool

	metricsProvider metrics.RegistryProvider
	tracerProvider  clonetracing.TracerProvider
}

var _ v1.ClonerV1 = (*Engine)(nil)

// New creates an engine with the default registrations applied, then
// applies opts in order.
func New(opts ...v1.ClonerOption) (*Engine, error) {
	e := &Engine{
		fastPaths: fastpath.NewRegistry(),
		constants: NewConstantTable(),
		types:     config.NewTypeRegistry(),
	}
	e.classifier = plan.NewClassifier(e.fastPaths)
	e.classifier.OnResolve = e.planResolved
	e.enabled.Store(true)

	s := &settings{
		accessor:  access.FromEnv(),
		allocator: reflectAllocator{},
		factories: make(map[reflect.Type]v1.Factory),
		bus:       intEvents.NewNoOpEventBus(),
		log:       logger.NewDiscardLogger(),
	}
	s.rebuildListener()
	e.settings.Store(s)

	if err := fastpath.RegisterDefaults(e.fastPaths); err != nil {
		return nil, cloneerrors.NewConfigError("failed to register default fast paths", err)
	}
	if err := registerDefaults(e); err != nil {
		return nil, err
	}

	for _, opt := range opts {
		if err := opt(e); err != nil {
			return nil, cloneerrors.NewConfigError(fmt.Sprintf("failed to apply cloner option: %v", err), err)
		}
	}

	log := e.settings.Load().log
	if e.metricsProvider == nil {
		log.Debugf("No metrics provider provided, using default Prometheus provider.")
		if err := e.SetMetricsRegistryProvider(intMetrics.NewPrometheusRegistryProvider()); err != nil {
			return nil, err
		}
	}
	if e.tracerProvider == nil {
		log.Debugf("No tracer provider provided, using default NoOp provider.")
		e.tracerProvider = intTracing.NewNoOpProvider()
	}
	log.Debugf("Clone engine ready (accessor=%s, fast paths=%d, constants=%d).",
		e.settings.Load().accessor.Name(), len(e.fastPaths.List()), e.constants.Len())
	return e, nil
}

// update applies fn to a copy of the current settings and publishes it.
func (e *Engine) update(fn func(s *settings)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	s := e.settings.Load().copy()
	fn(s)
	e.settings.Store(s)
}

func (e *Engine) planResolved(p *plan.Plan) {
	s := e.settings.Load()
	if s == nil {
		return
	}
	s.log.Debugf("Resolved clone plan %s for %s", p.Kind, p.Type)
	if s.counters != nil {
		s.counters.Plans.WithLabelValues(p.Kind.String()).Inc()
	}
	s.bus.Emit(events.Event{
		Type:      events.PlanResolved,
		Timestamp: time.Now(),
		TypeName:  p.Type.String(),
		Payload:   map[string]any{"kind": p.Kind.String()},
	})
}

// fail records a failed clone call and returns the error handed to the
// caller: a CloneError that names the root type.
func (e *Engine) fail(s *settings, root reflect.Type, err error) error {
	ce := rootError(root, err)
	if s.counters != nil {
		s.counters.Errors.WithLabelValues(string(ce.Kind)).Inc()
	}
	s.log.Errorf("Failed to clone %s: %v", root, ce)
	s.bus.Emit(events.Event{
		Type:      events.CloneFailed,
		Timestamp: time.Now(),
		TypeName:  fmt.Sprint(root),
		FieldName: ce.Field,
		Payload:   map[string]any{"kind": string(ce.Kind)},
	})
	return ce
}

// --- Cloning ---

// DeepClone returns an independent copy of v.
func (e *Engine) DeepClone(v any) (any, error) {
	return e.deepClone(v, nil)
}

// DeepCloneExcluding is DeepClone where every value in keep is returned
// as-is wherever it is reached.
func (e *Engine) DeepCloneExcluding(v any, keep ...any) (any, error) {
	return e.deepClone(v, keep)
}

func (e *Engine) deepClone(v any, keep []any) (any, error) {
	s := e.settings.Load()
	if !e.enabled.Load() {
		s.count(modeDisabled)
		return v, nil
	}
	s.count(modeDeep)
	if v == nil {
		return nil, nil
	}
	sess := newSession()
	sess.seed(keep...)
	w := &walker{e: e, s: s, sess: sess}
	out, err := w.clone(reflect.ValueOf(v))
	if err != nil {
		return nil, e.fail(s, reflect.TypeOf(v), err)
	}
	if s.log.IsEnabled(slog.LevelDebug) {
		s.log.Debugf("Cloned %T, %d references tracked.", v, sess.size())
	}
	return valueInterface(out), nil
}

// ShallowClone copies v one level deep. Struct fields, slice elements and
// map entries of the copy are shared with v.
func (e *Engine) ShallowClone(v any) (any, error) {
	s := e.settings.Load()
	if !e.enabled.Load() {
		s.count(modeDisabled)
		return v, nil
	}
	s.count(modeShallow)
	if v == nil {
		return nil, nil
	}
	w := &walker{e: e, s: s}
	out, err := w.clone(reflect.ValueOf(v))
	if err != nil {
		return nil, e.fail(s, reflect.TypeOf(v), err)
	}
	return valueInterface(out), nil
}

// --- Registrations ---

// RegisterImmutable marks types whose values are never copied.
func (e *Engine) RegisterImmutable(types ...reflect.Type) {
	e.classifier.RegisterImmutable(types...)
	e.nameTypes(types)
}

// ConsiderImmutable adds a predicate; types it accepts are never copied.
func (e *Engine) ConsiderImmutable(pred func(reflect.Type) bool) {
	e.classifier.ConsiderImmutable(pred)
}

// DontClone marks types whose values are returned as-is.
func (e *Engine) DontClone(types ...reflect.Type) {
	e.classifier.DontClone(types...)
	e.nameTypes(types)
}

// DontCloneInstanceOf returns as-is every value whose type is assignable to
// one of types, typically interfaces.
func (e *Engine) DontCloneInstanceOf(types ...reflect.Type) {
	e.classifier.DontCloneInstanceOf(types...)
	e.nameTypes(types)
}

// NullInsteadOfClone replaces values of types with their zero value.
func (e *Engine) NullInsteadOfClone(types ...reflect.Type) {
	e.classifier.NullInsteadOfClone(types...)
	e.nameTypes(types)
}

// NullInsteadForTag zeroes every struct field carrying one of the tag keys.
func (e *Engine) NullInsteadForTag(keys ...string) {
	e.classifier.NullInsteadForTag(keys...)
}

// RegisterRootAncestor stops the flattening of embedded structs at types.
// An embedded root is copied as a single value.
func (e *Engine) RegisterRootAncestor(types ...reflect.Type) {
	e.classifier.RegisterRootAncestor(types...)
	e.nameTypes(types)
}

// nameTypes makes types addressable by policy files. Name conflicts are
// logged, not returned.
func (e *Engine) nameTypes(types []reflect.Type) {
	if err := e.types.Add(types...); err != nil {
		e.settings.Load().log.Warnf("Some registered types cannot be named in clone policies: %v", err)
	}
}

// RegisterFastCloner installs a hand-written clone routine for exactly t.
func (e *Engine) RegisterFastCloner(t reflect.Type, fc v1.FastCloner) error {
	if err := e.fastPaths.Register(t, fc); err != nil {
		return err
	}
	e.classifier.Invalidate()
	return nil
}

// UnregisterFastCloner removes the routine registered for t, if any.
func (e *Engine) UnregisterFastCloner(t reflect.Type) {
	e.fastPaths.Unregister(t)
	e.classifier.Invalidate()
}

// RegisterCloningStrategy appends s to the strategy chain.
func (e *Engine) RegisterCloningStrategy(s v1.Strategy) error {
	if s == nil {
		return cloneerrors.NewConfigError("cloning strategy cannot be nil", nil)
	}
	e.update(func(st *settings) { st.strategies = append(st.strategies, s) })
	return nil
}

// RegisterFactory makes the engine build new values of t with f instead of
// the allocator. f must return a non-nil pointer to t.
func (e *Engine) RegisterFactory(t reflect.Type, f v1.Factory) error {
	if t == nil || f == nil {
		return cloneerrors.NewConfigError("factory type and function cannot be nil", nil)
	}
	e.update(func(s *settings) { s.factories[t] = f })
	return nil
}

// RegisterTypeName makes t addressable by name from clone policies.
func (e *Engine) RegisterTypeName(name string, t reflect.Type) error {
	return e.types.Register(name, t)
}

// RegisterConstant makes every clone call return v unchanged.
func (e *Engine) RegisterConstant(v any) error {
	return e.constants.Add(v)
}

// RegisterConstantFields registers the named fields of the struct holder
// points to as constants.
func (e *Engine) RegisterConstantFields(holder any, names ...string) error {
	return e.constants.AddFields(e.settings.Load().accessor, holder, names...)
}

// RegisterStaticFields registers every reference held by the fields of each
// holder as a constant.
func (e *Engine) RegisterStaticFields(holders ...any) error {
	return e.constants.AddAllFields(e.settings.Load().accessor, holders...)
}

// --- Switches ---

func (e *Engine) SetCloningEnabled(enabled bool) { e.enabled.Store(enabled) }
func (e *Engine) IsCloningEnabled() bool         { return e.enabled.Load() }

func (e *Engine) SetNullTransient(null bool) {
	e.update(func(s *settings) { s.nullTransient = null })
}
func (e *Engine) IsNullTransient() bool { return e.settings.Load().nullTransient }

func (e *Engine) SetCloneSynthetics(clone bool) { e.classifier.SetCloneSynthetics(clone) }
func (e *Engine) IsCloneSynthetics() bool       { return e.classifier.CloneSynthetics() }

func (e *Engine) SetCloneOuterRefs(clone bool) { e.classifier.SetCloneOuterRefs(clone) }
func (e *Engine) IsCloneOuterRefs() bool       { return e.classifier.CloneOuterRefs() }

// --- Component setters ---

// SetAccessor selects the field accessor by mode name.
func (e *Engine) SetAccessor(mode string) error {
	m, err := access.ParseMode(mode)
	if err != nil {
		return err
	}
	acc, err := access.New(m)
	if err != nil {
		return err
	}
	e.update(func(s *settings) { s.accessor = acc })
	return nil
}

// Accessor returns the active field accessor.
func (e *Engine) Accessor() access.Accessor {
	return e.settings.Load().accessor
}

func (e *Engine) SetAllocator(a v1.Allocator) error {
	if a == nil {
		return cloneerrors.NewConfigError("allocator cannot be nil", nil)
	}
	e.update(func(s *settings) { s.allocator = a })
	return nil
}

func (e *Engine) SetListener(l v1.Listener) error {
	e.update(func(s *settings) {
		s.userListener = l
		s.rebuildListener()
	})
	return nil
}

func (e *Engine) SetLogger(l clonelog.Logger) error {
	if l == nil {
		return cloneerrors.NewConfigError("logger cannot be nil", nil)
	}
	e.update(func(s *settings) { s.log = l })
	return nil
}

func (e *Engine) SetEventBus(bus events.Bus) error {
	if bus == nil {
		return cloneerrors.NewConfigError("event bus cannot be nil", nil)
	}
	e.update(func(s *settings) {
		s.bus = bus
		s.rebuildListener()
	})
	return nil
}

// SetMetricsRegistryProvider registers the engine counters on the
// provider's registry.
func (e *Engine) SetMetricsRegistryProvider(provider metrics.RegistryProvider) error {
	if provider == nil {
		return cloneerrors.NewConfigError("metrics registry provider cannot be nil", nil)
	}
	reg := provider.Registry()
	if reg == nil {
		return cloneerrors.NewConfigError("metrics registry provider returned a nil registry", nil)
	}
	counters, err := intMetrics.NewCloneCounters(reg)
	if err != nil {
		return cloneerrors.NewConfigError("failed to register clone metrics", err)
	}
	e.metricsProvider = provider
	e.update(func(s *settings) { s.counters = counters })
	return nil
}

func (e *Engine) SetTracerProvider(provider clonetracing.TracerProvider) error {
	if provider == nil {
		return cloneerrors.NewConfigError("tracer provider cannot be nil", nil)
	}
	e.tracerProvider = provider
	return nil
}

func (e *Engine) MetricsRegistryProvider() metrics.RegistryProvider { return e.metricsProvider }
func (e *Engine) TracerProvider() clonetracing.TracerProvider       { return e.tracerProvider }

// Counters returns the engine's Prometheus counters.
func (e *Engine) Counters() *intMetrics.CloneCounters {
	return e.settings.Load().counters
}

// TypeRegistry returns the names clone policies may refer to.
func (e *Engine) TypeRegistry() *config.TypeRegistry {
	return e.types
}

// Classifier exposes the plan cache, mainly for inspection in tests.
func (e *Engine) Classifier() *plan.Classifier {
	return e.classifier
}

func valueInterface(v reflect.Value) any {
	if !v.IsValid() {
		return nil
	}
	return v.Interface()
}
