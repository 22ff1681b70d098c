package engine_test

import (
	"sync"
	"testing"

	"github.com/gxo-labs/deepclone/internal/engine"
	v1 "github.com/gxo-labs/deepclone/pkg/deepclone/v1"
	"github.com/stretchr/testify/require"
)

// Test graphs shared by the engine tests.

type address struct {
	Street string
	City   string
}

type person struct {
	Name    string
	age     int
	Home    *address
	Work    *address
	Friends []*person
	Tags    map[string]string
	scores  []int
}

type node struct {
	ID    int
	Next  *node
	Peers []*node
	Attrs map[string]*node
}

type color struct {
	_       v1.Immutable
	R, G, B uint8
}

type shade struct {
	color
	Alpha uint8
	Owner *person
}

type baseEntity struct {
	_  v1.ImmutableInherited
	ID int
}

type derivedEntity struct {
	baseEntity
	Name string
}

type grandchildEntity struct {
	derivedEntity
	Extra string
}

type palette struct {
	Primary *color
	Shade   *shade
	Derived *derivedEntity
	Deep    *grandchildEntity
}

type cachedSession struct {
	User  string
	Token *string
	cache map[string]int `clone:"transient"`
}

type generatedMessage struct {
	Body             *address
	XXX_unrecognized []byte
	meta             *address `clone:"synthetic"`
}

type treeNode struct {
	Label    string
	Parent   *treeNode `clone:"outer"`
	Children []*treeNode
}

type guarded struct {
	sync.Mutex
	Count int
	Items []string
}

type lockedCounter struct {
	mu    sync.RWMutex
	wg    sync.WaitGroup
	Total int
}

type Entity struct {
	ID       int
	Registry *address
}

type account struct {
	Entity
	Owner *address
}

type credentials struct {
	Username string
	Password string
	APIKey   *string `secret:"true"`
	Settings *address
}

type frozenConfig struct {
	frozen bool
	Values []int
}

func (c *frozenConfig) IsFrozen() bool { return c.frozen }

type configHolder struct {
	Config *frozenConfig
}

type widget struct {
	Name string
}

type widgetHolder struct {
	Label  string
	Widget *widget
}

type engineHolder struct {
	Name   string
	Engine *engine.Engine
}

func newTestEngine(t testing.TB, opts ...v1.ClonerOption) *engine.Engine {
	t.Helper()
	e, err := engine.New(opts...)
	require.NoError(t, err)
	require.NotNil(t, e)
	return e
}

func newPerson(name string) *person {
	home := &address{Street: "1 Main St", City: "Springfield"}
	return &person{
		Name:   name,
		age:    42,
		Home:   home,
		Work:   home,
		Tags:   map[string]string{"team": "core"},
		scores: []int{1, 2, 3},
	}
}

func newRing(n int) *node {
	first := &node{ID: 0}
	cur := first
	for i := 1; i < n; i++ {
		next := &node{ID: i}
		cur.Next = next
		cur = next
	}
	cur.Next = first
	return first
}
