package engine

import (
	stderrors "errors"
	"reflect"

	"github.com/gxo-labs/deepclone/internal/plan"
	v1 "github.com/gxo-labs/deepclone/pkg/deepclone/v1"
	cloneerrors "github.com/gxo-labs/deepclone/pkg/deepclone/v1/errors"
	"github.com/pkg/errors"
)

var engineType = reflect.TypeOf((*Engine)(nil))

// walker carries one clone call through the graph. sess is nil in shallow
// mode, which keeps every child of the top-level value shared.
type walker struct {
	e    *Engine
	s    *settings
	sess *session
}

func (w *walker) deep() bool { return w.sess != nil }

// clone returns the copy of v. Values with no copy of their own (scalars,
// immutables, ignored types) come back unchanged. An invalid result means
// absent: nulled values and engine references. Callers store it as the zero
// value of the destination, which for an interface slot is a nil interface.
func (w *walker) clone(v reflect.Value) (reflect.Value, error) {
	if !v.IsValid() {
		return v, nil
	}
	switch v.Kind() {
	case reflect.Interface:
		return w.cloneInterface(v)
	case reflect.Pointer, reflect.Map, reflect.Slice:
		if v.IsNil() {
			return v, nil
		}
	}
	if v.Type() == engineType {
		return reflect.Value{}, nil
	}
	if w.deep() {
		if c, ok := w.sess.lookup(v); ok {
			return c, nil
		}
	}
	if w.e.constants.Contains(v) {
		return v, nil
	}
	return w.apply(w.e.classifier.Resolve(v.Type()), v)
}

// cloneInterface clones the dynamic value of v. An absent clone of the
// dynamic value leaves a nil interface behind.
func (w *walker) cloneInterface(v reflect.Value) (reflect.Value, error) {
	if v.IsNil() {
		return v, nil
	}
	return w.clone(v.Elem())
}

func (w *walker) apply(p *plan.Plan, v reflect.Value) (reflect.Value, error) {
	switch p.Kind {
	case plan.Ignore:
		return v, nil
	case plan.Null:
		return reflect.Value{}, nil
	case plan.Freezable:
		if v.Interface().(v1.Freezable).IsFrozen() {
			return v, nil
		}
		return w.apply(p.Inner, v)
	case plan.Array:
		return w.cloneArray(p, v)
	case plan.FastPath:
		return w.cloneFastPath(p, v)
	case plan.Composite:
		return w.cloneComposite(p, v)
	case plan.Pointer:
		return w.clonePointer(p, v)
	case plan.Map:
		return w.cloneMap(p, v)
	}
	return v, nil
}

func (w *walker) track(orig, clone reflect.Value) {
	if w.deep() {
		w.sess.track(orig, clone)
	}
}

func (w *walker) started(t reflect.Type) {
	if w.s.listener != nil {
		w.s.listener.CloneStarted(t)
	}
}

// cloneArray copies slices and Go arrays. Slices keep their capacity.
func (w *walker) cloneArray(p *plan.Plan, v reflect.Value) (reflect.Value, error) {
	var out reflect.Value
	if p.Type.Kind() == reflect.Slice {
		out = reflect.MakeSlice(p.Type, v.Len(), v.Cap())
		w.track(v, out)
	} else {
		out = reflect.New(p.Type).Elem()
	}
	w.started(p.Type)
	if p.BulkCopy || !w.deep() {
		reflect.Copy(out, v)
		return out, nil
	}
	for i := 0; i < v.Len(); i++ {
		c, err := w.clone(v.Index(i))
		if err != nil {
			return reflect.Value{}, err
		}
		if c.IsValid() {
			out.Index(i).Set(c)
		}
	}
	return out, nil
}

func (w *walker) cloneMap(p *plan.Plan, v reflect.Value) (reflect.Value, error) {
	n := v.Len()
	out := reflect.MakeMapWithSize(p.Type, n)
	w.track(v, out)
	w.started(p.Type)
	seen := 0
	iter := v.MapRange()
	for iter.Next() {
		seen++
		k, val := iter.Key(), iter.Value()
		if w.deep() {
			var err error
			if k, err = w.clone(k); err != nil {
				return reflect.Value{}, err
			}
			if val, err = w.clone(val); err != nil {
				return reflect.Value{}, err
			}
			k, val = orZero(k, p.Type.Key()), orZero(val, p.Type.Elem())
		}
		out.SetMapIndex(k, val)
	}
	if seen != n || v.Len() != n {
		return reflect.Value{}, cloneerrors.NewCloneError(cloneerrors.UnsupportedShape, p.Type, "",
			errors.Errorf("map size changed from %d to %d while it was copied", n, v.Len()))
	}
	return out, nil
}

// clonePointer allocates a new pointee and fills it in place, so the new
// pointer is in the session before anything it points to is cloned.
func (w *walker) clonePointer(p *plan.Plan, v reflect.Value) (reflect.Value, error) {
	out, err := w.s.allocate(p.Elem)
	if err != nil {
		return reflect.Value{}, err
	}
	w.track(v, out)
	w.started(p.Elem)
	src := v.Elem()
	ep := w.e.classifier.Resolve(p.Elem)
	if ep.Kind == plan.Composite {
		return out, w.fillComposite(ep, src, out.Elem())
	}
	if !w.deep() {
		out.Elem().Set(src)
		return out, nil
	}
	c, err := w.clone(src)
	if err != nil {
		return reflect.Value{}, err
	}
	if c.IsValid() {
		out.Elem().Set(c)
	}
	return out, nil
}

func (w *walker) cloneComposite(p *plan.Plan, v reflect.Value) (reflect.Value, error) {
	out, err := w.s.allocate(p.Type)
	if err != nil {
		return reflect.Value{}, err
	}
	w.started(p.Type)
	if err := w.fillComposite(p, v, out.Elem()); err != nil {
		return reflect.Value{}, err
	}
	return out.Elem(), nil
}

// fillComposite writes every field of dst from src. Every field is written,
// so values left behind by a factory never leak into the copy.
func (w *walker) fillComposite(p *plan.Plan, src, dst reflect.Value) error {
	if !src.CanAddr() {
		tmp := reflect.New(p.Type).Elem()
		tmp.Set(src)
		src = tmp
	}
	acc := w.s.accessor
	for _, f := range p.Fields {
		if (f.Transient && w.s.nullTransient) || f.NullInstead {
			if err := acc.Write(dst, f.Field, reflect.Value{}); err != nil {
				return annotate(err, p.Type, f.Name)
			}
			continue
		}
		if !w.deep() || (f.Scalar && len(w.s.strategies) == 0) {
			if err := acc.Copy(src, dst, f.Field); err != nil {
				return annotate(err, p.Type, f.Name)
			}
			continue
		}
		val, err := acc.Read(src, f.Field)
		if err != nil {
			return annotate(err, p.Type, f.Name)
		}
		switch w.strategy(val, f.Info) {
		case v1.NullInsteadOfClone:
			if err := acc.Write(dst, f.Field, reflect.Value{}); err != nil {
				return annotate(err, p.Type, f.Name)
			}
			continue
		case v1.SameInstanceInsteadOfClone:
			if err := acc.Write(dst, f.Field, val); err != nil {
				return annotate(err, p.Type, f.Name)
			}
			continue
		}
		if f.Scalar || !f.ShouldRecurse || isNilRef(val) {
			if err := acc.Write(dst, f.Field, val); err != nil {
				return annotate(err, p.Type, f.Name)
			}
			continue
		}
		c, err := w.clone(val)
		if err != nil {
			return annotate(err, p.Type, f.Name)
		}
		if err := acc.Write(dst, f.Field, c); err != nil {
			return annotate(err, p.Type, f.Name)
		}
		if w.s.listener != nil {
			w.s.listener.FieldCloned(p.Type, f.Info)
		}
	}
	return nil
}

// orZero turns an absent clone into the zero value of t. SetMapIndex
// would delete the entry for an invalid value.
func orZero(v reflect.Value, t reflect.Type) reflect.Value {
	if v.IsValid() {
		return v
	}
	return reflect.Zero(t)
}

// isNilRef reports a nil pointer, map, slice or interface. There is nothing
// to clone behind it.
func isNilRef(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Interface:
		return v.IsNil()
	}
	return false
}

// strategy returns the first verdict other than Ignore.
func (w *walker) strategy(val reflect.Value, info v1.FieldInfo) v1.StrategyResult {
	if len(w.s.strategies) == 0 {
		return v1.Ignore
	}
	iv := val.Interface()
	for _, s := range w.s.strategies {
		if r := s.Strategy(iv, info); r != v1.Ignore {
			return r
		}
	}
	return v1.Ignore
}

func (w *walker) cloneFastPath(p *plan.Plan, v reflect.Value) (reflect.Value, error) {
	w.started(p.Type)
	var c v1.DeepCloner = passThrough{}
	if w.deep() {
		c = sessionCloner{w: w}
	}
	res, err := p.FastPath.Clone(v.Interface(), c)
	if err != nil {
		return reflect.Value{}, annotate(err, p.Type, "")
	}
	out := reflect.ValueOf(res)
	if !out.IsValid() || out.Type() != p.Type {
		return reflect.Value{}, cloneerrors.NewCloneError(cloneerrors.UnsupportedShape, p.Type, "",
			errors.Errorf("fast cloner returned %s", typeString(out)))
	}
	if w.deep() {
		if _, ok := w.sess.lookup(v); !ok {
			w.sess.track(v, out)
		}
	}
	return out, nil
}

// sessionCloner lets fast-path handlers re-enter the walk of a deep clone.
type sessionCloner struct {
	w *walker
}

func (c sessionCloner) Clone(v any) (any, error) {
	out, err := c.w.clone(reflect.ValueOf(v))
	if err != nil {
		return nil, err
	}
	return valueInterface(out), nil
}

func (c sessionCloner) Track(original, clone any) {
	c.w.sess.track(reflect.ValueOf(original), reflect.ValueOf(clone))
}

// passThrough is handed to fast-path handlers during a shallow clone.
type passThrough struct{}

func (passThrough) Clone(v any) (any, error) { return v, nil }
func (passThrough) Track(any, any)           {}

// annotate fills in the type and field of a CloneError that lacks them.
// Other errors become UnsupportedShape failures of t.
func annotate(err error, t reflect.Type, field string) error {
	var ce *cloneerrors.CloneError
	if !stderrors.As(err, &ce) {
		return cloneerrors.NewCloneError(cloneerrors.UnsupportedShape, t, field, err)
	}
	if ce.Type == nil {
		ce.Type = t
	}
	if ce.Field == "" {
		ce.Field = field
	}
	return err
}

// rootError returns the single CloneError a failed public call reports.
func rootError(root reflect.Type, err error) *cloneerrors.CloneError {
	var ce *cloneerrors.CloneError
	if stderrors.As(err, &ce) {
		if ce.Type == nil {
			ce.Type = root
		}
		return ce
	}
	return cloneerrors.NewCloneError(cloneerrors.UnsupportedShape, root, "", err)
}
