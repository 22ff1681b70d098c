package engine_test

import (
	"testing"

	"github.com/davecgh/go-spew/spew"
	cloneerrors "github.com/gxo-labs/deepclone/pkg/deepclone/v1/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type userV1 struct {
	Name   string
	Age    int
	Tags   []string
	Home   *address
	secret string
	Extra  float64
}

type userV2 struct {
	Name   string
	Age    int64
	Tags   []string
	Home   *address
	secret string
	Added  bool
}

func TestCopyStructurallyCompatibleFields(t *testing.T) {
	e := newTestEngine(t)
	src := &userV1{Name: "ada", Age: 36, Tags: []string{"x"}, Home: &address{City: "c"}, secret: "s", Extra: 1.5}
	dst := &userV2{Age: 99, Added: true}

	require.NoError(t, e.CopyStructurallyCompatibleFields(src, dst))
	assert.Equal(t, "ada", dst.Name, spew.Sdump(dst))
	assert.Equal(t, int64(99), dst.Age, "fields whose types differ are left alone")
	assert.True(t, dst.Added)
	assert.Equal(t, "s", dst.secret)
	assert.Same(t, src.Home, dst.Home, "values are copied, not cloned")
	assert.Same(t, &src.Tags[0], &dst.Tags[0])

	var fromValue userV2
	require.NoError(t, e.CopyStructurallyCompatibleFields(*src, &fromValue), "the source may be a struct value")
	assert.Equal(t, "ada", fromValue.Name)
}

func TestCopyStructurallyCompatibleFields_Slices(t *testing.T) {
	e := newTestEngine(t)
	src := []int{1, 2, 3, 4}
	dst := make([]int, 2)
	require.NoError(t, e.CopyStructurallyCompatibleFields(src, &dst))
	assert.Equal(t, []int{1, 2}, dst)

	var arr [5]int
	require.NoError(t, e.CopyStructurallyCompatibleFields(src, &arr))
	assert.Equal(t, [5]int{1, 2, 3, 4, 0}, arr)
}

func TestCopyStructurallyCompatibleFields_Errors(t *testing.T) {
	e := newTestEngine(t)
	testCases := []struct {
		name string
		src  any
		dst  any
	}{
		{name: "destination not a pointer", src: &userV1{}, dst: userV2{}},
		{name: "nil destination", src: &userV1{}, dst: (*userV2)(nil)},
		{name: "nil source", src: (*userV1)(nil), dst: &userV2{}},
		{name: "struct into slice", src: &userV1{}, dst: &[]int{}},
		{name: "mismatched element types", src: []string{"a"}, dst: &[]int{}},
		{name: "destination not a container", src: 1, dst: new(int)},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := e.CopyStructurallyCompatibleFields(tc.src, tc.dst)
			require.Error(t, err)
			assert.True(t, cloneerrors.IsUnsupportedShape(err))
		})
	}
}
