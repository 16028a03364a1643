package reflection

import (
	"github.com/wippyai/metareflect/errors"
	"github.com/wippyai/metareflect/internal/lazy"
	"github.com/wippyai/metareflect/metadata"
)

var primitiveNames = map[metadata.ElementType]string{
	metadata.ElementVoid:       "System.Void",
	metadata.ElementBoolean:    "System.Boolean",
	metadata.ElementChar:       "System.Char",
	metadata.ElementI1:         "System.SByte",
	metadata.ElementU1:         "System.Byte",
	metadata.ElementI2:         "System.Int16",
	metadata.ElementU2:         "System.UInt16",
	metadata.ElementI4:         "System.Int32",
	metadata.ElementU4:         "System.UInt32",
	metadata.ElementI8:         "System.Int64",
	metadata.ElementU8:         "System.UInt64",
	metadata.ElementR4:         "System.Single",
	metadata.ElementR8:         "System.Double",
	metadata.ElementString:     "System.String",
	metadata.ElementTypedByRef: "System.TypedReference",
	metadata.ElementI:          "System.IntPtr",
	metadata.ElementU:          "System.UIntPtr",
	metadata.ElementObject:     "System.Object",
}

// Same-size signed counterparts used by array and pointer element
// compatibility.
var reducedNames = [][2]string{
	{"System.Byte", "System.SByte"},
	{"System.UInt16", "System.Int16"},
	{"System.UInt32", "System.Int32"},
	{"System.UInt64", "System.Int64"},
	{"System.UIntPtr", "System.IntPtr"},
}

// Generic collection interfaces implemented by every vector.
var arrayInterfaceNames = []string{
	"System.Collections.Generic.IList`1",
	"System.Collections.Generic.ICollection`1",
	"System.Collections.Generic.IEnumerable`1",
	"System.Collections.Generic.IReadOnlyList`1",
	"System.Collections.Generic.IReadOnlyCollection`1",
}

type wellKnownTypes struct {
	object      *Type
	valueType   *Type
	enum        *Type
	array       *Type
	nullable    *Type // may be nil
	uintPtr     *Type // may be nil
	reduced     map[*Type]*Type
	collections []*Type
}

// CoreType looks a type up by full name in the core assembly.
func (lc *LoadContext) CoreType(fullName string) (*Type, error) {
	if err := lc.check(); err != nil {
		return nil, err
	}
	return lc.coreType(fullName)
}

func (lc *LoadContext) coreType(fullName string) (*Type, error) {
	cell := lc.coreTypes.GetOrCreate(fullName, func() *lazy.Cell[*Type] { return new(lazy.Cell[*Type]) })
	return cell.Get(func() (*Type, error) {
		core, err := lc.CoreAssembly()
		if err != nil {
			return nil, err
		}
		return core.Type(fullName)
	})
}

// primitive maps a signature element type to its core descriptor.
func (lc *LoadContext) primitive(e metadata.ElementType) (*Type, error) {
	name, ok := primitiveNames[e]
	if !ok {
		return nil, errors.Malformed(errors.PhaseDecode, []string{"signature"}, "unsupported element type "+e.String())
	}
	return lc.coreType(name)
}

func (lc *LoadContext) wellKnownTypes() (*wellKnownTypes, error) {
	return lc.wellKnown.Get(func() (*wellKnownTypes, error) {
		wk := &wellKnownTypes{reduced: make(map[*Type]*Type)}
		required := []struct {
			dst  **Type
			name string
		}{
			{&wk.object, "System.Object"},
			{&wk.valueType, "System.ValueType"},
			{&wk.enum, "System.Enum"},
			{&wk.array, "System.Array"},
		}
		for _, r := range required {
			t, err := lc.coreType(r.name)
			if err != nil {
				return nil, err
			}
			*r.dst = t
		}

		optional := func(name string) (*Type, error) {
			t, err := lc.coreType(name)
			if errors.IsKind(err, errors.KindNotFound) {
				return nil, nil
			}
			return t, err
		}
		var err error
		if wk.nullable, err = optional("System.Nullable`1"); err != nil {
			return nil, err
		}
		if wk.uintPtr, err = optional("System.UIntPtr"); err != nil {
			return nil, err
		}
		for _, pair := range reducedNames {
			from, err := optional(pair[0])
			if err != nil {
				return nil, err
			}
			to, err := optional(pair[1])
			if err != nil {
				return nil, err
			}
			if from != nil && to != nil {
				wk.reduced[from] = to
			}
		}
		for _, name := range arrayInterfaceNames {
			t, err := optional(name)
			if err != nil {
				return nil, err
			}
			if t != nil {
				wk.collections = append(wk.collections, t)
			}
		}
		return wk, nil
	})
}
