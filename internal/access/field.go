// Package access describes struct fields and reads or writes them on live
// values, including unexported ones.
package access

import (
	"reflect"
	"strings"

	v1 "github.com/gxo-labs/deepclone/pkg/deepclone/v1"
)

// syntheticPrefix marks fields added by code generators (protobuf XXX_ fields).
const syntheticPrefix = "XXX_"

// Field describes one copyable field of a struct type after embedded value
// structs have been flattened into their owner.
type Field struct {
	Name     string
	Index    []int   // FieldByIndex path from the owner
	Offset   uintptr // byte offset from the start of the owner
	Type     reflect.Type
	Tag      reflect.StructTag
	Exported bool

	Transient bool
	Synthetic bool
	OuterRef  bool
	// Embedded is set on an embedded struct the caller asked to keep as a
	// single field instead of flattening it.
	Embedded bool
}

// Info returns the public view of f as seen from owner.
func (f *Field) Info(owner reflect.Type) v1.FieldInfo {
	return v1.FieldInfo{
		Owner: owner,
		Name:  f.Name,
		Type:  f.Type,
		Tag:   f.Tag,
		Index: f.Index,
	}
}

// Describe flattens the fields of struct type t. Embedded value structs are
// climbed, except types for which keep reports true. Blank fields carry
// no data and are skipped. keep may be nil.
func Describe(t reflect.Type, keep func(reflect.Type) bool) []*Field {
	if t.Kind() != reflect.Struct {
		return nil
	}
	var out []*Field
	describeInto(&out, t, nil, 0, keep)
	return out
}

func describeInto(out *[]*Field, t reflect.Type, parent []int, base uintptr, keep func(reflect.Type) bool) {
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		if sf.Name == "_" {
			continue
		}
		index := make([]int, len(parent)+1)
		copy(index, parent)
		index[len(parent)] = i

		if sf.Anonymous && sf.Type.Kind() == reflect.Struct {
			if keep == nil || !keep(sf.Type) {
				describeInto(out, sf.Type, index, base+sf.Offset, keep)
				continue
			}
		}

		f := &Field{
			Name:     sf.Name,
			Index:    index,
			Offset:   base + sf.Offset,
			Type:     sf.Type,
			Tag:      sf.Tag,
			Exported: sf.IsExported(),
			Embedded: sf.Anonymous && sf.Type.Kind() == reflect.Struct,
		}
		opts := tagOptions(sf.Tag)
		f.Transient = opts[v1.OptionTransient]
		f.OuterRef = opts[v1.OptionOuter]
		f.Synthetic = opts[v1.OptionSynthetic] || strings.HasPrefix(sf.Name, syntheticPrefix)
		*out = append(*out, f)
	}
}

func tagOptions(tag reflect.StructTag) map[string]bool {
	v, ok := tag.Lookup(v1.CloneTag)
	if !ok || v == "" {
		return nil
	}
	opts := make(map[string]bool)
	for _, o := range strings.Split(v, ",") {
		if o = strings.TrimSpace(o); o != "" {
			opts[o] = true
		}
	}
	return opts
}

// DeclaresMarker reports whether struct type t has a blank field of type
// marker, e.g. `_ v1.Immutable`.
func DeclaresMarker(t reflect.Type, marker reflect.Type) bool {
	if t.Kind() != reflect.Struct {
		return false
	}
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		if sf.Name == "_" && sf.Type == marker {
			return true
		}
	}
	return false
}

// Embedded returns the struct types t embeds by value, in declaration order.
func Embedded(t reflect.Type) []reflect.Type {
	if t.Kind() != reflect.Struct {
		return nil
	}
	var out []reflect.Type
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		if sf.Anonymous && sf.Type.Kind() == reflect.Struct {
			out = append(out, sf.Type)
		}
	}
	return out
}
