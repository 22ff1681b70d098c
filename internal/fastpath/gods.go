package fastpath

import (
	"reflect"

	"github.com/emirpasic/gods/lists/arraylist"
	"github.com/emirpasic/gods/lists/doublylinkedlist"
	"github.com/emirpasic/gods/lists/singlylinkedlist"
	"github.com/emirpasic/gods/maps/hashmap"
	"github.com/emirpasic/gods/maps/linkedhashmap"
	"github.com/emirpasic/gods/maps/treemap"
	"github.com/emirpasic/gods/queues/arrayqueue"
	"github.com/emirpasic/gods/queues/linkedlistqueue"
	"github.com/emirpasic/gods/queues/priorityqueue"
	"github.com/emirpasic/gods/sets/hashset"
	"github.com/emirpasic/gods/sets/linkedhashset"
	"github.com/emirpasic/gods/sets/treeset"
	"github.com/emirpasic/gods/stacks/arraystack"
	"github.com/emirpasic/gods/stacks/linkedliststack"
	v1 "github.com/gxo-labs/deepclone/pkg/deepclone/v1"
)

// Handlers for github.com/emirpasic/gods v1.18.1 containers. Sorted
// containers keep the source's comparator instance; it is never cloned.

func godsHandlers() map[reflect.Type]v1.FastCloner {
	return map[reflect.Type]v1.FastCloner{
		reflect.TypeOf((*arraylist.List)(nil)):        v1.FastClonerFunc(cloneArrayList),
		reflect.TypeOf((*doublylinkedlist.List)(nil)): v1.FastClonerFunc(cloneDoublyLinkedList),
		reflect.TypeOf((*singlylinkedlist.List)(nil)): v1.FastClonerFunc(cloneSinglyLinkedList),
		reflect.TypeOf((*hashmap.Map)(nil)):           v1.FastClonerFunc(cloneHashMap),
		reflect.TypeOf((*linkedhashmap.Map)(nil)):     v1.FastClonerFunc(cloneLinkedHashMap),
		reflect.TypeOf((*treemap.Map)(nil)):           v1.FastClonerFunc(cloneTreeMap),
		reflect.TypeOf((*hashset.Set)(nil)):           v1.FastClonerFunc(cloneHashSet),
		reflect.TypeOf((*linkedhashset.Set)(nil)):     v1.FastClonerFunc(cloneLinkedHashSet),
		reflect.TypeOf((*treeset.Set)(nil)):           v1.FastClonerFunc(cloneTreeSet),
		reflect.TypeOf((*arrayqueue.Queue)(nil)):      v1.FastClonerFunc(cloneArrayQueue),
		reflect.TypeOf((*linkedlistqueue.Queue)(nil)): v1.FastClonerFunc(cloneLinkedListQueue),
		reflect.TypeOf((*priorityqueue.Queue)(nil)):   v1.FastClonerFunc(clonePriorityQueue),
		reflect.TypeOf((*arraystack.Stack)(nil)):      v1.FastClonerFunc(cloneArrayStack),
		reflect.TypeOf((*linkedliststack.Stack)(nil)): v1.FastClonerFunc(cloneLinkedListStack),
	}
}

// sized is the part of the gods container API used for the shape check.
type sized interface {
	Size() int
}

// fillValues clones values and hands them to add in order, then verifies
// src kept its size while it was read.
func fillValues(src sized, values []any, c v1.DeepCloner, add func(...any)) error {
	before := len(values)
	cloned, err := cloneAll(values, c)
	if err != nil {
		return err
	}
	if after := src.Size(); after != before {
		return shapeChanged(reflect.TypeOf(src), before, after)
	}
	add(cloned...)
	return nil
}

func cloneArrayList(src any, c v1.DeepCloner) (any, error) {
	l := src.(*arraylist.List)
	out := arraylist.New()
	c.Track(l, out)
	if err := fillValues(l, l.Values(), c, out.Add); err != nil {
		return nil, err
	}
	return out, nil
}

func cloneDoublyLinkedList(src any, c v1.DeepCloner) (any, error) {
	l := src.(*doublylinkedlist.List)
	out := doublylinkedlist.New()
	c.Track(l, out)
	if err := fillValues(l, l.Values(), c, out.Add); err != nil {
		return nil, err
	}
	return out, nil
}

func cloneSinglyLinkedList(src any, c v1.DeepCloner) (any, error) {
	l := src.(*singlylinkedlist.List)
	out := singlylinkedlist.New()
	c.Track(l, out)
	if err := fillValues(l, l.Values(), c, out.Add); err != nil {
		return nil, err
	}
	return out, nil
}

func cloneHashSet(src any, c v1.DeepCloner) (any, error) {
	s := src.(*hashset.Set)
	out := hashset.New()
	c.Track(s, out)
	if err := fillValues(s, s.Values(), c, out.Add); err != nil {
		return nil, err
	}
	return out, nil
}

func cloneLinkedHashSet(src any, c v1.DeepCloner) (any, error) {
	s := src.(*linkedhashset.Set)
	out := linkedhashset.New()
	c.Track(s, out)
	if err := fillValues(s, s.Values(), c, out.Add); err != nil {
		return nil, err
	}
	return out, nil
}

// cloneTreeSet starts from an empty selection of the source, which carries
// over the source's comparator without touching the set internals.
func cloneTreeSet(src any, c v1.DeepCloner) (any, error) {
	s := src.(*treeset.Set)
	out := s.Select(func(int, any) bool { return false })
	c.Track(s, out)
	if err := fillValues(s, s.Values(), c, out.Add); err != nil {
		return nil, err
	}
	return out, nil
}

func cloneArrayQueue(src any, c v1.DeepCloner) (any, error) {
	q := src.(*arrayqueue.Queue)
	out := arrayqueue.New()
	c.Track(q, out)
	if err := fillValues(q, q.Values(), c, enqueueAll(out.Enqueue)); err != nil {
		return nil, err
	}
	return out, nil
}

func cloneLinkedListQueue(src any, c v1.DeepCloner) (any, error) {
	q := src.(*linkedlistqueue.Queue)
	out := linkedlistqueue.New()
	c.Track(q, out)
	if err := fillValues(q, q.Values(), c, enqueueAll(out.Enqueue)); err != nil {
		return nil, err
	}
	return out, nil
}

// clonePriorityQueue re-enqueues in heap order, which reproduces the same
// heap layout under the same comparator.
func clonePriorityQueue(src any, c v1.DeepCloner) (any, error) {
	q := src.(*priorityqueue.Queue)
	out := priorityqueue.NewWith(q.Comparator)
	c.Track(q, out)
	if err := fillValues(q, q.Values(), c, enqueueAll(out.Enqueue)); err != nil {
		return nil, err
	}
	return out, nil
}

// Stack values come out top first, so they are pushed back bottom first.
func cloneArrayStack(src any, c v1.DeepCloner) (any, error) {
	s := src.(*arraystack.Stack)
	out := arraystack.New()
	c.Track(s, out)
	if err := fillValues(s, s.Values(), c, pushReversed(out.Push)); err != nil {
		return nil, err
	}
	return out, nil
}

func cloneLinkedListStack(src any, c v1.DeepCloner) (any, error) {
	s := src.(*linkedliststack.Stack)
	out := linkedliststack.New()
	c.Track(s, out)
	if err := fillValues(s, s.Values(), c, pushReversed(out.Push)); err != nil {
		return nil, err
	}
	return out, nil
}

func enqueueAll(enqueue func(any)) func(...any) {
	return func(values ...any) {
		for _, v := range values {
			enqueue(v)
		}
	}
}

func pushReversed(push func(any)) func(...any) {
	return func(values ...any) {
		for i := len(values) - 1; i >= 0; i-- {
			push(values[i])
		}
	}
}

// keyed is the read side shared by the gods map types.
type keyed interface {
	sized
	Keys() []any
	Get(key any) (any, bool)
}

// fillEntries clones every key and value of src in key order and puts them
// into put.
func fillEntries(src keyed, c v1.DeepCloner, put func(k, v any)) error {
	keys := src.Keys()
	type entry struct{ k, v any }
	entries := make([]entry, 0, len(keys))
	for _, k := range keys {
		v, found := src.Get(k)
		if !found {
			return shapeChanged(reflect.TypeOf(src), len(keys), src.Size())
		}
		ck, err := c.Clone(k)
		if err != nil {
			return err
		}
		cv, err := c.Clone(v)
		if err != nil {
			return err
		}
		entries = append(entries, entry{ck, cv})
	}
	if after := src.Size(); after != len(keys) {
		return shapeChanged(reflect.TypeOf(src), len(keys), after)
	}
	for _, e := range entries {
		put(e.k, e.v)
	}
	return nil
}

func cloneHashMap(src any, c v1.DeepCloner) (any, error) {
	m := src.(*hashmap.Map)
	out := hashmap.New()
	c.Track(m, out)
	if err := fillEntries(m, c, out.Put); err != nil {
		return nil, err
	}
	return out, nil
}

func cloneLinkedHashMap(src any, c v1.DeepCloner) (any, error) {
	m := src.(*linkedhashmap.Map)
	out := linkedhashmap.New()
	c.Track(m, out)
	if err := fillEntries(m, c, out.Put); err != nil {
		return nil, err
	}
	return out, nil
}

// cloneTreeMap keeps the source comparator through an empty Select.
func cloneTreeMap(src any, c v1.DeepCloner) (any, error) {
	m := src.(*treemap.Map)
	out := m.Select(func(any, any) bool { return false })
	c.Track(m, out)
	if err := fillEntries(m, c, out.Put); err != nil {
		return nil, err
	}
	return out, nil
}
