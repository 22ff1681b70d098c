package v1

import (
	"context"
	"reflect"

	"github.com/gxo-labs/deepclone/internal/config"
	cloneerrors "github.com/gxo-labs/deepclone/pkg/deepclone/v1/errors"
	"github.com/gxo-labs/deepclone/pkg/deepclone/v1/events"
	"github.com/gxo-labs/deepclone/pkg/deepclone/v1/log"
	"github.com/gxo-labs/deepclone/pkg/deepclone/v1/metrics"
	"github.com/gxo-labs/deepclone/pkg/deepclone/v1/tracing"
)

// ClonerV1 defines the public interface of the deep clone engine. One
// instance is meant to be configured at setup and then shared by any number
// of goroutines.
type ClonerV1 interface {
	// DeepClone returns an independent copy of v. Shared references inside v
	// stay shared in the copy and cycles are reproduced.
	DeepClone(v any) (any, error)
	// DeepCloneExcluding is DeepClone where every value in keep is returned
	// as-is wherever it is reached.
	DeepCloneExcluding(v any, keep ...any) (any, error)
	// DeepCloneContext is DeepClone wrapped in a tracing span.
	DeepCloneContext(ctx context.Context, v any) (any, error)
	// ShallowClone copies the top-level value only. Nested references are shared.
	ShallowClone(v any) (any, error)
	// CopyStructurallyCompatibleFields copies every field of src into the
	// struct dst points to, for fields that exist in both with the same name
	// and type.
	CopyStructurallyCompatibleFields(src, dst any) error

	// Type registrations. Each one invalidates cached plans.
	RegisterImmutable(types ...reflect.Type)
	ConsiderImmutable(pred func(reflect.Type) bool)
	DontClone(types ...reflect.Type)
	DontCloneInstanceOf(types ...reflect.Type)
	NullInsteadOfClone(types ...reflect.Type)
	NullInsteadForTag(keys ...string)
	RegisterRootAncestor(types ...reflect.Type)
	RegisterFastCloner(t reflect.Type, fc FastCloner) error
	UnregisterFastCloner(t reflect.Type)
	RegisterCloningStrategy(s Strategy) error
	RegisterFactory(t reflect.Type, f Factory) error
	RegisterTypeName(name string, t reflect.Type) error

	// Constants are returned as-is by every clone call.
	RegisterConstant(v any) error
	RegisterConstantFields(holder any, names ...string) error
	RegisterStaticFields(holders ...any) error

	// ApplyPolicy applies a loaded clone policy document.
	ApplyPolicy(p *config.Policy) error

	// Switches.
	SetCloningEnabled(enabled bool)
	IsCloningEnabled() bool
	SetNullTransient(null bool)
	IsNullTransient() bool
	SetCloneSynthetics(clone bool)
	IsCloneSynthetics() bool
	SetCloneOuterRefs(clone bool)
	IsCloneOuterRefs() bool

	// Setter methods for configuring engine components programmatically.
	SetAccessor(mode string) error
	SetAllocator(a Allocator) error
	SetListener(l Listener) error
	SetLogger(l log.Logger) error
	SetEventBus(bus events.Bus) error
	SetMetricsRegistryProvider(provider metrics.RegistryProvider) error
	SetTracerProvider(provider tracing.TracerProvider) error

	// MetricsRegistryProvider returns the underlying metrics provider.
	MetricsRegistryProvider() metrics.RegistryProvider
	// TracerProvider returns the underlying tracing provider.
	TracerProvider() tracing.TracerProvider
}

// ClonerOption is a function type used to configure the engine at creation.
type ClonerOption func(ClonerV1) error

// WithLogger sets the logger used for engine diagnostics.
func WithLogger(l log.Logger) ClonerOption {
	return func(c ClonerV1) error {
		if l == nil {
			return cloneerrors.NewConfigError("logger cannot be nil", nil)
		}
		return c.SetLogger(l)
	}
}

// WithListener installs a clone listener.
func WithListener(l Listener) ClonerOption {
	return func(c ClonerV1) error {
		if l == nil {
			return cloneerrors.NewConfigError("listener cannot be nil", nil)
		}
		return c.SetListener(l)
	}
}

// WithEventBus is a cloner option to provide a custom event bus.
func WithEventBus(bus events.Bus) ClonerOption {
	return func(c ClonerV1) error {
		if bus == nil {
			return cloneerrors.NewConfigError("event bus cannot be nil", nil)
		}
		return c.SetEventBus(bus)
	}
}

// WithAllocator replaces the default reflect.New allocator.
func WithAllocator(a Allocator) ClonerOption {
	return func(c ClonerV1) error {
		if a == nil {
			return cloneerrors.NewConfigError("allocator cannot be nil", nil)
		}
		return c.SetAllocator(a)
	}
}

// WithAccessor selects the field access mode: "auto", "offset" or "reflection".
func WithAccessor(mode string) ClonerOption {
	return func(c ClonerV1) error {
		return c.SetAccessor(mode)
	}
}

// WithMetricsRegistryProvider is a cloner option to provide a custom metrics provider.
func WithMetricsRegistryProvider(provider metrics.RegistryProvider) ClonerOption {
	return func(c ClonerV1) error {
		if provider == nil {
			return cloneerrors.NewConfigError("metrics registry provider cannot be nil", nil)
		}
		return c.SetMetricsRegistryProvider(provider)
	}
}

// WithTracerProvider is a cloner option to provide a custom tracing provider.
func WithTracerProvider(provider tracing.TracerProvider) ClonerOption {
	return func(c ClonerV1) error {
		if provider == nil {
			return cloneerrors.NewConfigError("tracer provider cannot be nil", nil)
		}
		return c.SetTracerProvider(provider)
	}
}

// WithNullTransient controls whether `clone:"transient"` fields are reset
// to their zero value in the copy.
func WithNullTransient(null bool) ClonerOption {
	return func(c ClonerV1) error {
		c.SetNullTransient(null)
		return nil
	}
}

// WithCloneSynthetics controls whether generated fields are deep copied.
func WithCloneSynthetics(clone bool) ClonerOption {
	return func(c ClonerV1) error {
		c.SetCloneSynthetics(clone)
		return nil
	}
}

// WithCloneOuterRefs controls whether `clone:"outer"` back references are deep copied.
func WithCloneOuterRefs(clone bool) ClonerOption {
	return func(c ClonerV1) error {
		c.SetCloneOuterRefs(clone)
		return nil
	}
}

// WithCloningEnabled turns the engine into a pass-through when false.
func WithCloningEnabled(enabled bool) ClonerOption {
	return func(c ClonerV1) error {
		c.SetCloningEnabled(enabled)
		return nil
	}
}

// WithImmutable registers types that are never copied.
func WithImmutable(types ...reflect.Type) ClonerOption {
	return func(c ClonerV1) error {
		c.RegisterImmutable(types...)
		return nil
	}
}

// WithFastCloner registers a hand-written clone routine for t.
func WithFastCloner(t reflect.Type, fc FastCloner) ClonerOption {
	return func(c ClonerV1) error {
		if t == nil || fc == nil {
			return cloneerrors.NewConfigError("fast cloner type and handler cannot be nil", nil)
		}
		return c.RegisterFastCloner(t, fc)
	}
}

// WithCloningStrategy appends a field strategy.
func WithCloningStrategy(s Strategy) ClonerOption {
	return func(c ClonerV1) error {
		return c.RegisterCloningStrategy(s)
	}
}

// WithPolicy applies a clone policy document loaded by LoadPolicy.
func WithPolicy(p *config.Policy) ClonerOption {
	return func(c ClonerV1) error {
		if p == nil {
			return cloneerrors.NewConfigError("policy cannot be nil", nil)
		}
		return c.ApplyPolicy(p)
	}
}
