package engine

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"reflect"
	"regexp"
	"sync"
	"time"

	gofrsuuid "github.com/gofrs/uuid"
	"github.com/google/uuid"
	cloneerrors "github.com/gxo-labs/deepclone/pkg/deepclone/v1/errors"
)

// defaultImmutables are never copied. The runtime type descriptor is
// included so reflect.Type values held in fields are shared.
var defaultImmutables = []reflect.Type{
	reflect.TypeOf(time.Time{}),
	reflect.TypeOf(time.Location{}),
	reflect.TypeOf(regexp.Regexp{}),
	reflect.TypeOf(uuid.UUID{}),
	reflect.TypeOf(gofrsuuid.UUID{}),
	reflect.TypeOf(reflect.TypeOf(0)).Elem(),
}

// defaultNullInstead are reset to their zero value: a copied lock or wait
// group would carry the original's state.
var defaultNullInstead = []reflect.Type{
	reflect.TypeOf(sync.Mutex{}),
	reflect.TypeOf(sync.RWMutex{}),
	reflect.TypeOf(sync.WaitGroup{}),
	reflect.TypeOf(sync.Once{}),
}

// defaultConstants are sentinel errors compared by identity. Sentinels that
// are plain values, such as context.DeadlineExceeded, compare equal after a
// copy and need no entry.
var defaultConstants = []any{
	io.EOF,
	io.ErrUnexpectedEOF,
	io.ErrShortWrite,
	io.ErrClosedPipe,
	context.Canceled,
	fs.ErrNotExist,
	fs.ErrExist,
	fs.ErrPermission,
	fs.ErrInvalid,
	fs.ErrClosed,
}

// defaultTypeNames are known to clone policies in addition to every type
// passed to a registration method.
var defaultTypeNames = []reflect.Type{
	reflect.TypeOf((*error)(nil)).Elem(),
	reflect.TypeOf((*fmt.Stringer)(nil)).Elem(),
	reflect.TypeOf((*io.Reader)(nil)).Elem(),
	reflect.TypeOf((*io.Writer)(nil)).Elem(),
	reflect.TypeOf((*context.Context)(nil)).Elem(),
	reflect.TypeOf(time.Duration(0)),
	reflect.TypeOf((*time.Location)(nil)),
	reflect.TypeOf((*regexp.Regexp)(nil)),
}

func registerDefaults(e *Engine) error {
	e.RegisterImmutable(defaultImmutables...)
	e.NullInsteadOfClone(defaultNullInstead...)
	for _, c := range defaultConstants {
		if err := e.RegisterConstant(c); err != nil {
			return cloneerrors.NewConfigError("failed to register default constant", err)
		}
	}
	if err := e.types.Add(defaultTypeNames...); err != nil {
		return err
	}
	if err := e.types.Add(e.fastPaths.List()...); err != nil {
		return cloneerrors.NewConfigError("failed to name default fast path types", err)
	}
	return nil
}
