package engine_test

import (
	"context"
	"io"
	"reflect"
	"testing"
	"unsafe"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
	v1 "github.com/gxo-labs/deepclone/pkg/deepclone/v1"
	cloneerrors "github.com/gxo-labs/deepclone/pkg/deepclone/v1/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeepClone_NilAndScalars(t *testing.T) {
	e := newTestEngine(t)

	out, err := e.DeepClone(nil)
	require.NoError(t, err)
	assert.Nil(t, out)

	for _, v := range []any{42, "text", 3.5, true, uint8(7)} {
		out, err := e.DeepClone(v)
		require.NoError(t, err)
		assert.Equal(t, v, out)
	}

	var nilPtr *person
	out, err = e.DeepClone(nilPtr)
	require.NoError(t, err)
	assert.Nil(t, out.(*person))
}

func TestDeepClone_CopiesEveryField(t *testing.T) {
	e := newTestEngine(t)
	orig := newPerson("ada")

	out, err := e.DeepClone(orig)
	require.NoError(t, err)
	clone := out.(*person)

	require.NotSame(t, orig, clone)
	if diff := cmp.Diff(orig, clone, cmp.AllowUnexported(person{})); diff != "" {
		t.Errorf("clone differs from original (-want +got):\n%s", diff)
	}
	assert.Equal(t, 42, clone.age, "unexported fields are copied")
	assert.NotSame(t, orig.Home, clone.Home)
	assert.NotSame(t, &orig.scores[0], &clone.scores[0], "slice backing array must be new")

	clone.Tags["team"] = "changed"
	clone.Home.City = "Shelbyville"
	assert.Equal(t, "core", orig.Tags["team"])
	assert.Equal(t, "Springfield", orig.Home.City)
}

func TestDeepClone_PreservesSharedReferences(t *testing.T) {
	e := newTestEngine(t)
	orig := newPerson("ada")
	require.Same(t, orig.Home, orig.Work)

	out, err := e.DeepClone(orig)
	require.NoError(t, err)
	clone := out.(*person)

	assert.Same(t, clone.Home, clone.Work, "one shared original must give one shared copy")
	assert.NotSame(t, orig.Home, clone.Home)
}

func TestDeepClone_ReproducesCycles(t *testing.T) {
	e := newTestEngine(t)

	t.Run("ring", func(t *testing.T) {
		orig := newRing(5)
		out, err := e.DeepClone(orig)
		require.NoError(t, err)
		clone := out.(*node)

		cur := clone
		for i := 0; i < 5; i++ {
			assert.Equal(t, i, cur.ID)
			cur = cur.Next
		}
		assert.Same(t, clone, cur, "the ring must close on the clone, not the original")

		for o, c := orig, clone; ; o, c = o.Next, c.Next {
			assert.NotSame(t, o, c)
			if o.Next == orig {
				break
			}
		}
	})

	t.Run("self reference through slice and map", func(t *testing.T) {
		orig := &node{ID: 1}
		orig.Peers = []*node{orig, orig}
		orig.Attrs = map[string]*node{"self": orig}

		out, err := e.DeepClone(orig)
		require.NoError(t, err)
		clone := out.(*node)

		assert.Same(t, clone, clone.Peers[0])
		assert.Same(t, clone, clone.Peers[1])
		assert.Same(t, clone, clone.Attrs["self"])
	})

	t.Run("mutual friends", func(t *testing.T) {
		a, b := newPerson("a"), newPerson("b")
		a.Friends = []*person{b}
		b.Friends = []*person{a}

		out, err := e.DeepClone(a)
		require.NoError(t, err)
		clone := out.(*person)

		require.Len(t, clone.Friends, 1)
		assert.Same(t, clone, clone.Friends[0].Friends[0])
		assert.NotSame(t, b, clone.Friends[0])
	})
}

func TestDeepClone_SliceAliasing(t *testing.T) {
	e := newTestEngine(t)
	shared := []*address{{City: "x"}, {City: "y"}}
	type pair struct {
		A, B []*address
	}
	orig := &pair{A: shared, B: shared}

	out, err := e.DeepClone(orig)
	require.NoError(t, err)
	clone := out.(*pair)

	assert.Same(t, &clone.A[0], &clone.B[0], "equal slice headers share one copy")
	assert.NotSame(t, &orig.A[0], &clone.A[0])
	assert.Equal(t, cap(orig.A), cap(clone.A))
}

func TestDeepClone_ArraysAndInterfaces(t *testing.T) {
	e := newTestEngine(t)
	type boxed struct {
		V    any
		Arr  [2]*address
		Nums [3]int
		Err  error
	}
	addr := &address{City: "x"}
	orig := boxed{V: addr, Arr: [2]*address{addr, nil}, Nums: [3]int{1, 2, 3}, Err: io.EOF}

	out, err := e.DeepClone(orig)
	require.NoError(t, err)
	clone := out.(boxed)

	cv, ok := clone.V.(*address)
	require.True(t, ok, "interface fields keep their dynamic type")
	assert.NotSame(t, addr, cv)
	assert.Same(t, cv, clone.Arr[0])
	assert.Nil(t, clone.Arr[1])
	assert.Equal(t, orig.Nums, clone.Nums)
	assert.True(t, clone.Err == io.EOF, "sentinel errors keep their identity")
}

func TestDeepClone_StringsAreShared(t *testing.T) {
	e := newTestEngine(t)
	orig := &address{Street: "a fairly long street name", City: "Springfield"}

	out, err := e.DeepClone(orig)
	require.NoError(t, err)
	clone := out.(*address)

	assert.True(t, unsafe.StringData(orig.Street) == unsafe.StringData(clone.Street), "string data is never copied")
}

func TestDeepClone_ImmutableMarkers(t *testing.T) {
	e := newTestEngine(t)
	orig := &palette{
		Primary: &color{R: 1},
		Shade:   &shade{color: color{G: 2}, Alpha: 9, Owner: newPerson("o")},
		Derived: &derivedEntity{baseEntity: baseEntity{ID: 1}, Name: "d"},
		Deep:    &grandchildEntity{Extra: "x"},
	}

	out, err := e.DeepClone(orig)
	require.NoError(t, err)
	clone := out.(*palette)

	assert.Same(t, orig.Primary, clone.Primary, "a type declaring Immutable is shared")
	assert.NotSame(t, orig.Shade, clone.Shade, "plain Immutable does not pass to embedding types")
	assert.Equal(t, uint8(2), clone.Shade.G)
	assert.NotSame(t, orig.Shade.Owner, clone.Shade.Owner)
	assert.Same(t, orig.Derived, clone.Derived, "ImmutableInherited passes to embedding types")
	assert.Same(t, orig.Deep, clone.Deep, "ImmutableInherited passes at any depth")
}

func TestDeepClone_RegisteredImmutables(t *testing.T) {
	e := newTestEngine(t)
	id := uuid.New()
	type record struct {
		ID   uuid.UUID
		Home *address
	}
	orig := &record{ID: id, Home: &address{City: "x"}}

	e.RegisterImmutable(reflect.TypeOf(address{}))
	out, err := e.DeepClone(orig)
	require.NoError(t, err)
	clone := out.(*record)
	assert.Equal(t, id, clone.ID)
	assert.Same(t, orig.Home, clone.Home, "pointers to immutable structs are shared")

	e2 := newTestEngine(t)
	e2.ConsiderImmutable(func(t reflect.Type) bool { return t == reflect.TypeOf(&address{}) })
	out, err = e2.DeepClone(orig)
	require.NoError(t, err)
	assert.Same(t, orig.Home, out.(*record).Home)
}

func TestDeepClone_TransientFields(t *testing.T) {
	token := "t0k3n"
	orig := &cachedSession{User: "ada", Token: &token, cache: map[string]int{"hits": 3}}

	t.Run("copied by default", func(t *testing.T) {
		e := newTestEngine(t)
		assert.False(t, e.IsNullTransient())
		out, err := e.DeepClone(orig)
		require.NoError(t, err)
		clone := out.(*cachedSession)
		assert.Equal(t, map[string]int{"hits": 3}, clone.cache)
		assert.NotEqual(t, reflect.ValueOf(orig.cache).Pointer(), reflect.ValueOf(clone.cache).Pointer())
	})

	t.Run("nulled when enabled", func(t *testing.T) {
		e := newTestEngine(t, v1.WithNullTransient(true))
		assert.True(t, e.IsNullTransient())
		out, err := e.DeepClone(orig)
		require.NoError(t, err)
		clone := out.(*cachedSession)
		assert.Nil(t, clone.cache)
		assert.Equal(t, "ada", clone.User)
		require.NotNil(t, clone.Token)
		assert.NotSame(t, orig.Token, clone.Token)
		assert.Equal(t, token, *clone.Token)
	})
}

func TestDeepCloneExcluding(t *testing.T) {
	e := newTestEngine(t)
	orig := newPerson("ada")
	other := &address{City: "Elsewhere"}
	orig.Work = other

	out, err := e.DeepCloneExcluding(orig, other)
	require.NoError(t, err)
	clone := out.(*person)

	assert.Same(t, other, clone.Work, "excluded values are returned as-is")
	assert.NotSame(t, orig.Home, clone.Home)

	out, err = e.DeepClone(orig)
	require.NoError(t, err)
	assert.NotSame(t, other, out.(*person).Work, "exclusions apply to one call only")
}

func TestDeepClone_SyntheticAndOuterFields(t *testing.T) {
	msg := &generatedMessage{
		Body:             &address{City: "x"},
		XXX_unrecognized: []byte{1, 2},
		meta:             &address{City: "m"},
	}
	root := &treeNode{Label: "root"}
	child := &treeNode{Label: "child", Parent: root}
	root.Children = []*treeNode{child}
	detached := &treeNode{Label: "detached", Parent: &treeNode{Label: "outside"}}

	t.Run("cloned by default", func(t *testing.T) {
		e := newTestEngine(t)
		assert.True(t, e.IsCloneSynthetics())
		assert.True(t, e.IsCloneOuterRefs())

		out, err := e.DeepClone(msg)
		require.NoError(t, err)
		clone := out.(*generatedMessage)
		assert.NotSame(t, msg.meta, clone.meta)
		assert.NotSame(t, &msg.XXX_unrecognized[0], &clone.XXX_unrecognized[0])

		out, err = e.DeepClone(detached)
		require.NoError(t, err)
		assert.NotSame(t, detached.Parent, out.(*treeNode).Parent)
	})

	t.Run("shared when disabled", func(t *testing.T) {
		e := newTestEngine(t, v1.WithCloneSynthetics(false), v1.WithCloneOuterRefs(false))

		out, err := e.DeepClone(msg)
		require.NoError(t, err)
		clone := out.(*generatedMessage)
		assert.Same(t, msg.meta, clone.meta)
		assert.Same(t, &msg.XXX_unrecognized[0], &clone.XXX_unrecognized[0])
		assert.NotSame(t, msg.Body, clone.Body)

		out, err = e.DeepClone(detached)
		require.NoError(t, err)
		assert.Same(t, detached.Parent, out.(*treeNode).Parent)
	})

	t.Run("outer reference inside the cloned graph keeps the original", func(t *testing.T) {
		e := newTestEngine(t, v1.WithCloneOuterRefs(false))
		out, err := e.DeepClone(root)
		require.NoError(t, err)
		clone := out.(*treeNode)
		assert.Same(t, root, clone.Children[0].Parent, "outer references are copied as-is")
	})
}

func TestDeepClone_TypeRegistrations(t *testing.T) {
	type config struct {
		Home   *address
		Reader io.Reader
		Count  int
		Lock   *guarded
	}
	reader := &readerStub{}
	orig := &config{Home: &address{City: "x"}, Reader: reader, Count: 3, Lock: &guarded{Count: 1}}

	e := newTestEngine(t)
	e.DontClone(reflect.TypeOf(&address{}))
	e.DontCloneInstanceOf(reflect.TypeOf((*io.Reader)(nil)).Elem())
	e.NullInsteadOfClone(reflect.TypeOf(&guarded{}))

	out, err := e.DeepClone(orig)
	require.NoError(t, err)
	clone := out.(*config)

	assert.Same(t, orig.Home, clone.Home)
	assert.Same(t, reader, clone.Reader.(*readerStub))
	assert.Nil(t, clone.Lock)
	assert.Equal(t, 3, clone.Count)
}

type readerStub struct{ n int }

func (r *readerStub) Read(p []byte) (int, error) { return 0, io.EOF }

func TestDeepClone_NullInterfaceDynamicType(t *testing.T) {
	e := newTestEngine(t)
	e.NullInsteadOfClone(reflect.TypeOf(&readerStub{}))
	type holder struct {
		R io.Reader
	}
	out, err := e.DeepClone(&holder{R: &readerStub{}})
	require.NoError(t, err)
	assert.Nil(t, out.(*holder).R, "a nulled dynamic type leaves a nil interface")
}

func TestDeepClone_AbsentValuesBecomeNilInterfaces(t *testing.T) {
	e := newTestEngine(t)
	e.NullInsteadOfClone(reflect.TypeOf(&readerStub{}), reflect.TypeOf(&frozenConfig{}))
	type holder struct {
		Any   any
		Items []any
		ByKey map[string]any
		Ptrs  []*readerStub
	}
	orig := &holder{
		Any:   e,
		Items: []any{&readerStub{}, e, &frozenConfig{}, 1},
		ByKey: map[string]any{"r": &readerStub{}, "n": 2},
		Ptrs:  []*readerStub{{n: 1}},
	}

	out, err := e.DeepClone(orig)
	require.NoError(t, err)
	clone := out.(*holder)
	assert.True(t, clone.Any == nil, "an engine held in an interface is dropped, got %T", clone.Any)
	require.Len(t, clone.Items, 4)
	for i, item := range clone.Items[:3] {
		assert.True(t, item == nil, "item %d: got %T", i, item)
	}
	assert.Equal(t, 1, clone.Items[3])

	v, ok := clone.ByKey["r"]
	assert.True(t, ok, "a nulled map value keeps its key")
	assert.True(t, v == nil, "got %T", v)
	assert.Equal(t, 2, clone.ByKey["n"])
	assert.Equal(t, []*readerStub{nil}, clone.Ptrs)

	frozen := &frozenConfig{frozen: true}
	out, err = e.DeepClone(&holder{Any: frozen})
	require.NoError(t, err)
	assert.Same(t, frozen, out.(*holder).Any, "a frozen value is shared before the null rule applies")

	top, err := e.DeepClone(any(&readerStub{}))
	require.NoError(t, err)
	assert.True(t, top == nil, "got %T", top)
}

func TestDeepClone_DontCloneCoversPointers(t *testing.T) {
	e := newTestEngine(t)
	type catalog struct {
		Items map[string]int
	}
	type holder struct {
		Ref  *catalog
		Refs []*catalog
	}
	e.DontClone(reflect.TypeOf(catalog{}))
	orig := &holder{Ref: &catalog{Items: map[string]int{"a": 1}}}
	orig.Refs = []*catalog{orig.Ref}

	out, err := e.DeepClone(orig)
	require.NoError(t, err)
	clone := out.(*holder)
	assert.NotSame(t, orig, clone)
	assert.Same(t, orig.Ref, clone.Ref)
	assert.Same(t, orig.Ref, clone.Refs[0])
}

func TestDeepClone_NullTags(t *testing.T) {
	e := newTestEngine(t)
	e.NullInsteadForTag("secret")
	key := "k"
	orig := &credentials{Username: "u", Password: "p", APIKey: &key, Settings: &address{}}

	out, err := e.DeepClone(orig)
	require.NoError(t, err)
	clone := out.(*credentials)
	assert.Nil(t, clone.APIKey)
	assert.Equal(t, "p", clone.Password)
}

func TestDeepClone_Mutexes(t *testing.T) {
	e := newTestEngine(t)

	orig := &guarded{Count: 2, Items: []string{"a"}}
	orig.Lock()
	defer orig.Unlock()

	out, err := e.DeepClone(orig)
	require.NoError(t, err)
	clone := out.(*guarded)
	assert.True(t, clone.TryLock(), "an embedded mutex is reset, not copied in its locked state")
	clone.Unlock()
	assert.Equal(t, 2, clone.Count)
	assert.Equal(t, []string{"a"}, clone.Items)

	counter := &lockedCounter{Total: 5}
	counter.mu.Lock()
	defer counter.mu.Unlock()
	out, err = e.DeepClone(counter)
	require.NoError(t, err)
	cc := out.(*lockedCounter)
	assert.True(t, cc.mu.TryLock())
	cc.mu.Unlock()
	assert.Equal(t, 5, cc.Total)
}

func TestDeepClone_RootAncestor(t *testing.T) {
	orig := &account{Entity: Entity{ID: 7, Registry: &address{City: "registry"}}, Owner: &address{City: "owner"}}

	e := newTestEngine(t)
	out, err := e.DeepClone(orig)
	require.NoError(t, err)
	assert.NotSame(t, orig.Registry, out.(*account).Registry, "embedded structs are cloned field by field")

	e.RegisterRootAncestor(reflect.TypeOf(Entity{}))
	out, err = e.DeepClone(orig)
	require.NoError(t, err)
	clone := out.(*account)
	assert.Same(t, orig.Registry, clone.Registry, "an embedded root ancestor is copied as-is")
	assert.Equal(t, 7, clone.ID)
	assert.NotSame(t, orig.Owner, clone.Owner)
}

func TestDeepClone_Freezable(t *testing.T) {
	e := newTestEngine(t)

	frozen := &configHolder{Config: &frozenConfig{frozen: true, Values: []int{1}}}
	out, err := e.DeepClone(frozen)
	require.NoError(t, err)
	assert.Same(t, frozen.Config, out.(*configHolder).Config)

	thawed := &configHolder{Config: &frozenConfig{Values: []int{1}}}
	out, err = e.DeepClone(thawed)
	require.NoError(t, err)
	clone := out.(*configHolder)
	assert.NotSame(t, thawed.Config, clone.Config)
	assert.Equal(t, []int{1}, clone.Config.Values)
}

func TestDeepClone_EngineReferencesAreDropped(t *testing.T) {
	e := newTestEngine(t)
	out, err := e.DeepClone(&engineHolder{Name: "h", Engine: e})
	require.NoError(t, err)
	clone := out.(*engineHolder)
	assert.Nil(t, clone.Engine)
	assert.Equal(t, "h", clone.Name)
}

func TestDeepClone_Disabled(t *testing.T) {
	e := newTestEngine(t, v1.WithCloningEnabled(false))
	assert.False(t, e.IsCloningEnabled())
	orig := newPerson("ada")

	out, err := e.DeepClone(orig)
	require.NoError(t, err)
	assert.Same(t, orig, out.(*person))

	out, err = e.ShallowClone(orig)
	require.NoError(t, err)
	assert.Same(t, orig, out.(*person))

	e.SetCloningEnabled(true)
	out, err = e.DeepClone(orig)
	require.NoError(t, err)
	assert.NotSame(t, orig, out.(*person))
}

func TestShallowClone(t *testing.T) {
	e := newTestEngine(t)
	orig := newPerson("ada")
	orig.Friends = []*person{newPerson("b")}

	out, err := e.ShallowClone(orig)
	require.NoError(t, err)
	clone := out.(*person)

	assert.NotSame(t, orig, clone)
	assert.Same(t, orig.Home, clone.Home)
	assert.Equal(t, reflect.ValueOf(orig.Tags).Pointer(), reflect.ValueOf(clone.Tags).Pointer())
	assert.Same(t, &orig.Friends[0], &clone.Friends[0], "nested slices are shared")
	assert.Equal(t, 42, clone.age)

	list := []*address{{City: "a"}, {City: "b"}}
	out, err = e.ShallowClone(list)
	require.NoError(t, err)
	cl := out.([]*address)
	assert.NotSame(t, &list[0], &cl[0], "the top-level slice is new")
	assert.Same(t, list[0], cl[0], "its elements are shared")

	m := map[string]*address{"a": {City: "a"}}
	out, err = e.ShallowClone(m)
	require.NoError(t, err)
	cm := out.(map[string]*address)
	cm["b"] = &address{}
	assert.Len(t, m, 1)
	assert.Same(t, m["a"], cm["a"])
}

func TestDeepClone_Strategies(t *testing.T) {
	key := "secret-key"
	orig := &credentials{Username: "ada", Password: "hunter2", APIKey: &key, Settings: &address{City: "x"}}

	e := newTestEngine(t,
		v1.WithCloningStrategy(v1.StrategyForFieldNames(v1.NullInsteadOfClone, "password")),
		v1.WithCloningStrategy(v1.StrategyForTag("secret", v1.SameInstanceInsteadOfClone)),
	)
	require.NoError(t, e.RegisterCloningStrategy(v1.StrategyFunc(func(_ any, f v1.FieldInfo) v1.StrategyResult {
		if f.Name == "Settings" {
			return v1.SameInstanceInsteadOfClone
		}
		return v1.Ignore
	})))

	out, err := e.DeepClone(orig)
	require.NoError(t, err)
	clone := out.(*credentials)

	assert.Empty(t, clone.Password)
	assert.Equal(t, "ada", clone.Username)
	assert.Same(t, orig.APIKey, clone.APIKey)
	assert.Same(t, orig.Settings, clone.Settings)

	assert.True(t, cloneerrors.IsConfigError(e.RegisterCloningStrategy(nil)))
}

func TestDeepClone_StrategyOrder(t *testing.T) {
	orig := &credentials{Password: "p", Settings: &address{}}
	first := v1.StrategyFunc(func(_ any, f v1.FieldInfo) v1.StrategyResult {
		if f.Name == "Settings" {
			return v1.NullInsteadOfClone
		}
		return v1.Ignore
	})
	second := v1.StrategyFunc(func(_ any, f v1.FieldInfo) v1.StrategyResult {
		if f.Name == "Settings" {
			return v1.SameInstanceInsteadOfClone
		}
		return v1.Ignore
	})
	e := newTestEngine(t, v1.WithCloningStrategy(first), v1.WithCloningStrategy(second))

	out, err := e.DeepClone(orig)
	require.NoError(t, err)
	assert.Nil(t, out.(*credentials).Settings, "the first non-Ignore answer wins")
}

func TestDeepClone_Accessors(t *testing.T) {
	orig := newPerson("ada")
	orig.Friends = []*person{newPerson("bob")}

	var clones []*person
	for _, mode := range []string{"offset", "reflection", "auto"} {
		e := newTestEngine(t, v1.WithAccessor(mode))
		out, err := e.DeepClone(orig)
		require.NoError(t, err, mode)
		clones = append(clones, out.(*person))
	}
	opt := cmp.AllowUnexported(person{})
	for i := 1; i < len(clones); i++ {
		if diff := cmp.Diff(clones[0], clones[i], opt); diff != "" {
			t.Errorf("accessors disagree (-offset +other):\n%s", diff)
		}
	}

	e := newTestEngine(t, v1.WithAccessor("offset"))
	err := e.SetAccessor("bogus")
	require.Error(t, err)
	assert.True(t, cloneerrors.IsConfigError(err))
	assert.Equal(t, "offset", string(e.Accessor().Name()), "a failed switch keeps the active accessor")
}

func TestDeepClone_Factories(t *testing.T) {
	e := newTestEngine(t)
	calls := 0
	require.NoError(t, e.RegisterFactory(reflect.TypeOf(address{}), func() any {
		calls++
		return &address{Street: "left behind by the factory"}
	}))

	orig := newPerson("ada")
	out, err := e.DeepClone(orig)
	require.NoError(t, err)
	clone := out.(*person)
	assert.Equal(t, 1, calls, "the shared address is allocated once")
	assert.Equal(t, "1 Main St", clone.Home.Street, "every field of a factory value is overwritten")

	require.NoError(t, e.RegisterFactory(reflect.TypeOf(address{}), func() any { return &person{} }))
	_, err = e.DeepClone(orig)
	require.Error(t, err)
	assert.True(t, cloneerrors.IsUnsupportedShape(err))

	assert.True(t, cloneerrors.IsConfigError(e.RegisterFactory(nil, nil)))
}

type countingAllocator struct{ n int }

func (a *countingAllocator) Allocate(t reflect.Type) reflect.Value {
	a.n++
	return reflect.New(t)
}

func TestDeepClone_Allocator(t *testing.T) {
	alloc := &countingAllocator{}
	e := newTestEngine(t, v1.WithAllocator(alloc))

	_, err := e.DeepClone(newRing(3))
	require.NoError(t, err)
	assert.Equal(t, 3, alloc.n)
}

func TestDeepClone_Errors(t *testing.T) {
	e := newTestEngine(t)
	boom := context.DeadlineExceeded
	require.NoError(t, e.RegisterFastCloner(reflect.TypeOf(&widget{}), v1.FastClonerFunc(func(any, v1.DeepCloner) (any, error) {
		return nil, boom
	})))

	out, err := e.DeepClone(&widgetHolder{Label: "x", Widget: &widget{}})
	require.Error(t, err)
	assert.Nil(t, out, "no partial graph is returned")

	var ce *cloneerrors.CloneError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, cloneerrors.UnsupportedShape, ce.Kind)
	assert.Equal(t, reflect.TypeOf(&widget{}), ce.Type)
	assert.Equal(t, "Widget", ce.Field)
	assert.ErrorIs(t, err, boom)

	e.UnregisterFastCloner(reflect.TypeOf(&widget{}))
	require.NoError(t, e.RegisterFastCloner(reflect.TypeOf(&widget{}), v1.FastClonerFunc(func(any, v1.DeepCloner) (any, error) {
		return &address{}, nil
	})))
	_, err = e.DeepClone(&widget{})
	require.Error(t, err)
	assert.True(t, cloneerrors.IsUnsupportedShape(err), "a fast cloner returning the wrong type is rejected")
}

func TestDeepClone_MapKeysAreCloned(t *testing.T) {
	e := newTestEngine(t)
	k := &address{City: "key"}
	orig := map[*address]*address{k: k}

	out, err := e.DeepClone(orig)
	require.NoError(t, err)
	clone := out.(map[*address]*address)
	require.Len(t, clone, 1)
	for ck, cv := range clone {
		assert.NotSame(t, k, ck)
		assert.Same(t, ck, cv)
	}
}
