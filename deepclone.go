// Package deepclone copies arbitrary Go values, including unexported
// fields, cycles and shared references, without the copied types having to
// implement anything.
//
// Most callers use Clone with the shared Standard engine:
//
//	copy, err := deepclone.Clone(order)
//
// Engines with their own registrations are built with New and the options
// of package github.com/gxo-labs/deepclone/pkg/deepclone/v1.
package deepclone

import (
	"fmt"
	"sync"

	"github.com/gxo-labs/deepclone/internal/engine"
	v1 "github.com/gxo-labs/deepclone/pkg/deepclone/v1"
)

var (
	standardOnce sync.Once
	standard     *engine.Engine
	standardErr  error
)

// New creates an independent engine with the default registrations and the
// given options applied.
func New(opts ...v1.ClonerOption) (v1.ClonerV1, error) {
	return engine.New(opts...)
}

// Standard returns the process-wide engine used by Clone and MustClone. It
// is created on first use. Registrations made on it affect every caller.
func Standard() v1.ClonerV1 {
	standardOnce.Do(func() {
		standard, standardErr = engine.New()
	})
	if standardErr != nil {
		panic(fmt.Sprintf("deepclone: failed to create standard engine: %v", standardErr))
	}
	return standard
}

// Clone deep copies v with the Standard engine.
func Clone[T any](v T) (T, error) {
	return CloneWith(Standard(), v)
}

// CloneWith deep copies v with c.
func CloneWith[T any](c v1.ClonerV1, v T) (T, error) {
	var zero T
	out, err := c.DeepClone(v)
	if err != nil {
		return zero, err
	}
	if out == nil {
		return zero, nil
	}
	typed, ok := out.(T)
	if !ok {
		return zero, fmt.Errorf("deepclone: clone of %T has type %T", v, out)
	}
	return typed, nil
}

// MustClone is Clone that panics on error. It suits values whose types are
// known to be cloneable, such as test fixtures.
func MustClone[T any](v T) T {
	out, err := Clone(v)
	if err != nil {
		panic(err)
	}
	return out
}
