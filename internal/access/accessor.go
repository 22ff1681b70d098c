package access

import (
	"fmt"
	"os"
	"reflect"
	"strings"
	"unsafe"

	cloneerrors "github.com/gxo-labs/deepclone/pkg/deepclone/v1/errors"
	"github.com/pkg/errors"
)

// EnvVar selects the accessor mode when none is configured explicitly.
const EnvVar = "DEEPCLONE_ACCESSOR"

// Mode names a field accessor implementation.
type Mode string

const (
	ModeAuto       Mode = "auto"
	ModeOffset     Mode = "offset"
	ModeReflection Mode = "reflection"
)

// ParseMode converts a mode name (case-insensitive) to a Mode. The empty
// string means ModeAuto.
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case "", ModeAuto:
		return ModeAuto, nil
	case ModeOffset:
		return ModeOffset, nil
	case ModeReflection:
		return ModeReflection, nil
	}
	return "", cloneerrors.NewConfigError(fmt.Sprintf("unknown field accessor '%s' (allowed: auto, offset, reflection)", s), nil)
}

// Accessor reads and writes struct fields described by a Field on an
// addressable struct value. All implementations give identical results and
// differ only in how the field's storage is located.
type Accessor interface {
	// Name returns the mode the accessor implements.
	Name() Mode
	// Read returns the current value of f in obj.
	Read(obj reflect.Value, f *Field) (reflect.Value, error)
	// Write stores v into f of obj. v must be assignable to f.Type.
	Write(obj reflect.Value, f *Field, v reflect.Value) error
	// Copy copies f from src into dst without descending into the value.
	Copy(src, dst reflect.Value, f *Field) error
}

// New returns the accessor for mode.
func New(mode Mode) (Accessor, error) {
	switch mode {
	case ModeAuto, ModeOffset, "":
		return offsetAccessor{}, nil
	case ModeReflection:
		return reflectionAccessor{}, nil
	}
	return nil, cloneerrors.NewConfigError(fmt.Sprintf("unknown field accessor '%s'", mode), nil)
}

// FromEnv returns the accessor named by DEEPCLONE_ACCESSOR, or the auto
// accessor when the variable is unset or invalid.
func FromEnv() Accessor {
	mode, err := ParseMode(os.Getenv(EnvVar))
	if err != nil {
		mode = ModeAuto
	}
	a, _ := New(mode)
	return a
}

// locator finds the settable storage of a field inside obj.
type locator func(obj reflect.Value, f *Field) reflect.Value

func read(loc locator, obj reflect.Value, f *Field) (v reflect.Value, err error) {
	defer recoverAccess(f, &err)
	if err = checkAddressable(obj, f); err != nil {
		return reflect.Value{}, err
	}
	return loc(obj, f), nil
}

func write(loc locator, obj reflect.Value, f *Field, v reflect.Value) (err error) {
	defer recoverAccess(f, &err)
	if err = checkAddressable(obj, f); err != nil {
		return err
	}
	dst := loc(obj, f)
	if !v.IsValid() {
		dst.SetZero()
		return nil
	}
	dst.Set(v)
	return nil
}

func copyField(loc locator, src, dst reflect.Value, f *Field) (err error) {
	defer recoverAccess(f, &err)
	if err = checkAddressable(src, f); err != nil {
		return err
	}
	if err = checkAddressable(dst, f); err != nil {
		return err
	}
	loc(dst, f).Set(loc(src, f))
	return nil
}

func checkAddressable(obj reflect.Value, f *Field) error {
	if !obj.IsValid() {
		return cloneerrors.NewCloneError(cloneerrors.AccessDenied, nil, f.Name, errors.New("invalid struct value"))
	}
	if obj.Kind() != reflect.Struct || !obj.CanAddr() {
		return cloneerrors.NewCloneError(cloneerrors.AccessDenied, obj.Type(), f.Name,
			errors.New("struct value is not addressable"))
	}
	return nil
}

// recoverAccess turns a reflect panic into an AccessDenied error.
func recoverAccess(f *Field, err *error) {
	if r := recover(); r != nil {
		*err = cloneerrors.NewCloneError(cloneerrors.AccessDenied, nil, f.Name,
			errors.Errorf("field access panicked: %v", r))
	}
}

// offsetAccessor addresses fields by their byte offset from the struct base.
type offsetAccessor struct{}

func offsetLocate(obj reflect.Value, f *Field) reflect.Value {
	p := unsafe.Add(unsafe.Pointer(obj.UnsafeAddr()), f.Offset)
	return reflect.NewAt(f.Type, p).Elem()
}

func (offsetAccessor) Name() Mode { return ModeOffset }

func (offsetAccessor) Read(obj reflect.Value, f *Field) (reflect.Value, error) {
	return read(offsetLocate, obj, f)
}

func (offsetAccessor) Write(obj reflect.Value, f *Field, v reflect.Value) error {
	return write(offsetLocate, obj, f, v)
}

func (offsetAccessor) Copy(src, dst reflect.Value, f *Field) error {
	return copyField(offsetLocate, src, dst, f)
}

// reflectionAccessor walks the field index path and lifts the read-only
// flag reflect puts on unexported fields.
type reflectionAccessor struct{}

func reflectionLocate(obj reflect.Value, f *Field) reflect.Value {
	fv := obj.FieldByIndex(f.Index)
	if fv.CanSet() {
		return fv
	}
	return reflect.NewAt(fv.Type(), unsafe.Pointer(fv.UnsafeAddr())).Elem()
}

func (reflectionAccessor) Name() Mode { return ModeReflection }

func (reflectionAccessor) Read(obj reflect.Value, f *Field) (reflect.Value, error) {
	return read(reflectionLocate, obj, f)
}

func (reflectionAccessor) Write(obj reflect.Value, f *Field, v reflect.Value) error {
	return write(reflectionLocate, obj, f, v)
}

func (reflectionAccessor) Copy(src, dst reflect.Value, f *Field) error {
	return copyField(reflectionLocate, src, dst, f)
}
