package engine

import (
	"reflect"

	"github.com/gxo-labs/deepclone/internal/access"
	cloneerrors "github.com/gxo-labs/deepclone/pkg/deepclone/v1/errors"
	"github.com/pkg/errors"
)

// CopyStructurallyCompatibleFields copies src into the value dst points to
// without cloning anything. For structs, every field of dst that has a
// field of the same name and type in src receives src's value; other
// fields are left alone. For slices and arrays, elements are copied up to
// the shorter length.
func (e *Engine) CopyStructurallyCompatibleFields(src, dst any) error {
	dv := reflect.ValueOf(dst)
	if dv.Kind() != reflect.Pointer || dv.IsNil() {
		return cloneerrors.NewCloneError(cloneerrors.UnsupportedShape, reflect.TypeOf(dst), "",
			errors.New("destination must be a non-nil pointer"))
	}
	dv = dv.Elem()
	sv := reflect.ValueOf(src)
	for sv.Kind() == reflect.Pointer && !sv.IsNil() {
		sv = sv.Elem()
	}
	if !sv.IsValid() || (sv.Kind() == reflect.Pointer && sv.IsNil()) {
		return cloneerrors.NewCloneError(cloneerrors.UnsupportedShape, dv.Type(), "",
			errors.New("source must not be nil"))
	}

	switch dv.Kind() {
	case reflect.Slice, reflect.Array:
		if (sv.Kind() != reflect.Slice && sv.Kind() != reflect.Array) || sv.Type().Elem() != dv.Type().Elem() {
			return cloneerrors.NewCloneError(cloneerrors.UnsupportedShape, dv.Type(), "",
				errors.Errorf("cannot copy elements of %s into %s", sv.Type(), dv.Type()))
		}
		reflect.Copy(dv, sv)
		return nil
	case reflect.Struct:
		if sv.Kind() != reflect.Struct {
			return cloneerrors.NewCloneError(cloneerrors.UnsupportedShape, dv.Type(), "",
				errors.Errorf("cannot copy fields of %s into a struct", sv.Type()))
		}
	default:
		return cloneerrors.NewCloneError(cloneerrors.UnsupportedShape, dv.Type(), "",
			errors.New("destination must point to a struct, slice or array"))
	}

	if !sv.CanAddr() {
		tmp := reflect.New(sv.Type()).Elem()
		tmp.Set(sv)
		sv = tmp
	}
	acc := e.settings.Load().accessor
	srcFields := make(map[string]*access.Field)
	for _, f := range access.Describe(sv.Type(), e.classifier.IsRoot) {
		if _, dup := srcFields[f.Name]; !dup {
			srcFields[f.Name] = f
		}
	}
	for _, df := range access.Describe(dv.Type(), e.classifier.IsRoot) {
		sf, ok := srcFields[df.Name]
		if !ok || sf.Type != df.Type {
			continue
		}
		v, err := acc.Read(sv, sf)
		if err != nil {
			return annotate(err, sv.Type(), sf.Name)
		}
		if err := acc.Write(dv, df, v); err != nil {
			return annotate(err, dv.Type(), df.Name)
		}
	}
	return nil
}
