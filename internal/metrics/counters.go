package metrics

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "deepclone"

// CloneCounters groups every counter the engine and its listeners update.
type CloneCounters struct {
	// Clones counts public clone calls, labelled by mode (deep, shallow, disabled).
	Clones *prometheus.CounterVec
	// Errors counts failed clone calls, labelled by error kind.
	Errors *prometheus.CounterVec
	// Plans counts plans built and cached, labelled by plan kind.
	Plans *prometheus.CounterVec
	// ObjectsCloned counts allocated clone instances seen on the event bus.
	ObjectsCloned prometheus.Counter
	// FieldsCloned counts deep-copied fields seen on the event bus.
	FieldsCloned prometheus.Counter
}

// NewCloneCounters creates the counters and registers them on reg. Counters
// already present on reg are reused, so several engines can share one
// registry.
func NewCloneCounters(reg prometheus.Registerer) (*CloneCounters, error) {
	c := &CloneCounters{
		Clones: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "clones_total",
			Help:      "Number of clone calls by mode.",
		}, []string{"mode"}),
		Errors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "clone_errors_total",
			Help:      "Number of failed clone calls by error kind.",
		}, []string{"kind"}),
		Plans: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "plans_resolved_total",
			Help:      "Number of type plans built, by plan kind.",
		}, []string{"kind"}),
		ObjectsCloned: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "objects_cloned_total",
			Help:      "Number of clone instances allocated.",
		}),
		FieldsCloned: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fields_cloned_total",
			Help:      "Number of struct fields deep copied.",
		}),
	}
	var err error
	if c.Clones, err = registerVec(reg, c.Clones); err != nil {
		return nil, err
	}
	if c.Errors, err = registerVec(reg, c.Errors); err != nil {
		return nil, err
	}
	if c.Plans, err = registerVec(reg, c.Plans); err != nil {
		return nil, err
	}
	if c.ObjectsCloned, err = registerCounter(reg, c.ObjectsCloned); err != nil {
		return nil, err
	}
	if c.FieldsCloned, err = registerCounter(reg, c.FieldsCloned); err != nil {
		return nil, err
	}
	return c, nil
}

func registerVec(reg prometheus.Registerer, v *prometheus.CounterVec) (*prometheus.CounterVec, error) {
	if err := reg.Register(v); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(*prometheus.CounterVec); ok {
				return existing, nil
			}
		}
		return nil, err
	}
	return v, nil
}

func registerCounter(reg prometheus.Registerer, c prometheus.Counter) (prometheus.Counter, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(prometheus.Counter); ok {
				return existing, nil
			}
		}
		return nil, err
	}
	return c, nil
}
