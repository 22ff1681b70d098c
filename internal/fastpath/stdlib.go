package fastpath

import (
	"container/list"
	"reflect"
	"sync"

	v1 "github.com/gxo-labs/deepclone/pkg/deepclone/v1"
)

func stdlibHandlers() map[reflect.Type]v1.FastCloner {
	return map[reflect.Type]v1.FastCloner{
		reflect.TypeOf((*list.List)(nil)):   v1.FastClonerFunc(cloneList),
		reflect.TypeOf((*sync.Map)(nil)):    v1.FastClonerFunc(cloneSyncMap),
		reflect.TypeOf(map[string]any(nil)): v1.FastClonerFunc(cloneDocument),
	}
}

// cloneList rebuilds a container/list. Element nodes point back at their
// list, so the list is always rebuilt through PushBack rather than copied.
func cloneList(src any, c v1.DeepCloner) (any, error) {
	l := src.(*list.List)
	out := list.New()
	c.Track(l, out)
	before := l.Len()
	for e := l.Front(); e != nil; e = e.Next() {
		v, err := c.Clone(e.Value)
		if err != nil {
			return nil, err
		}
		out.PushBack(v)
	}
	if after := l.Len(); after != before || out.Len() != before {
		return nil, shapeChanged(reflect.TypeOf(l), before, after)
	}
	return out, nil
}

// cloneSyncMap copies a sync.Map entry by entry. Range gives no snapshot
// guarantee, so concurrent writers may or may not be reflected.
func cloneSyncMap(src any, c v1.DeepCloner) (any, error) {
	m := src.(*sync.Map)
	out := &sync.Map{}
	c.Track(m, out)
	var err error
	m.Range(func(k, v any) bool {
		var ck, cv any
		if ck, err = c.Clone(k); err != nil {
			return false
		}
		if cv, err = c.Clone(v); err != nil {
			return false
		}
		out.Store(ck, cv)
		return true
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// cloneDocument copies a decoded JSON or YAML object. String keys need no
// cloning, and scalar values are copied without entering the engine.
func cloneDocument(src any, c v1.DeepCloner) (any, error) {
	m := src.(map[string]any)
	out := make(map[string]any, len(m))
	c.Track(m, out)
	before := len(m)
	for k, v := range m {
		switch v.(type) {
		case nil, string, bool, float64, float32, int, int64, int32, uint, uint64, uint32:
			out[k] = v
			continue
		}
		cv, err := c.Clone(v)
		if err != nil {
			return nil, err
		}
		out[k] = cv
	}
	if after := len(m); after != before {
		return nil, shapeChanged(reflect.TypeOf(m), before, after)
	}
	return out, nil
}
