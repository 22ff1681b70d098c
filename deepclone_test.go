package deepclone_test

import (
	"errors"
	"reflect"
	"testing"

	"github.com/gxo-labs/deepclone"
	v1 "github.com/gxo-labs/deepclone/pkg/deepclone/v1"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type folder struct {
	Name     string
	Parent   *folder
	Children []*folder
	Labels   map[string]string
}

func newTree() *folder {
	root := &folder{Name: "root", Labels: map[string]string{"owner": "ops"}}
	for _, name := range []string{"a", "b"} {
		root.Children = append(root.Children, &folder{Name: name, Parent: root})
	}
	return root
}

func TestClone(t *testing.T) {
	orig := newTree()
	out, err := deepclone.Clone(orig)
	require.NoError(t, err)

	assert.NotSame(t, orig, out)
	assert.NotSame(t, orig.Children[0], out.Children[0])
	assert.Same(t, out, out.Children[1].Parent, "back references point into the copy")
	out.Labels["owner"] = "dev"
	assert.Equal(t, "ops", orig.Labels["owner"])
	assert.Equal(t, "a", out.Children[0].Name)
}

func TestClone_Values(t *testing.T) {
	n, err := deepclone.Clone(42)
	require.NoError(t, err)
	assert.Equal(t, 42, n)

	s, err := deepclone.Clone([]string{"x", "y"})
	require.NoError(t, err)
	assert.Equal(t, []string{"x", "y"}, s)

	var nilTree *folder
	got, err := deepclone.Clone(nilTree)
	require.NoError(t, err)
	assert.Nil(t, got)

	var empty any
	anyOut, err := deepclone.Clone(empty)
	require.NoError(t, err)
	assert.Nil(t, anyOut)
}

func TestMustClone(t *testing.T) {
	orig := map[string][]int{"a": {1, 2}}
	out := deepclone.MustClone(orig)
	out["a"][0] = 9
	assert.Equal(t, 1, orig["a"][0])
}

func TestStandardIsShared(t *testing.T) {
	assert.Same(t, deepclone.Standard(), deepclone.Standard())
}

func TestNewAndCloneWith(t *testing.T) {
	boom := errors.New("boom")
	c, err := deepclone.New(
		v1.WithFastCloner(reflect.TypeOf(&folder{}), v1.FastClonerFunc(func(any, v1.DeepCloner) (any, error) {
			return nil, boom
		})),
	)
	require.NoError(t, err)
	assert.NotSame(t, deepclone.Standard(), c)

	out, err := deepclone.CloneWith(c, newTree())
	require.ErrorIs(t, err, boom)
	assert.Nil(t, out, "the zero value comes back on error")

	n, err := deepclone.CloneWith(c, 7)
	require.NoError(t, err)
	assert.Equal(t, 7, n)

	_, err = deepclone.New(v1.WithLogger(nil))
	assert.Error(t, err)
}
