package reflection

import "github.com/wippyai/metareflect/metadata"

// arrayAccessor describes a runtime-provided method of an array type.
type arrayAccessor struct {
	name   string
	params []*Type
	ret    *Type
	flags  metadata.MethodAttributes
}

const (
	arrayCtorFlags   = metadata.MethodPublic | metadata.MethodSpecialName | metadata.MethodRTSpecialName | metadata.MethodHideBySig
	arrayMethodFlags = metadata.MethodPublic | metadata.MethodHideBySig
)

// arrayMethods synthesizes the constructors and element accessors every
// array type exposes: one constructor taking lengths (general arrays also
// take lower bound and length pairs), plus Get, Set and Address.
func (t *Type) arrayMethods() ([]*Method, error) {
	lc := t.module.lc()
	i4, err := lc.primitive(metadata.ElementI4)
	if err != nil {
		return nil, err
	}
	void, err := lc.primitive(metadata.ElementVoid)
	if err != nil {
		return nil, err
	}

	rank := t.ArrayRank()
	indices := func(n int) []*Type {
		out := make([]*Type, n)
		for i := range out {
			out[i] = i4
		}
		return out
	}

	accessors := []*arrayAccessor{
		{name: ".ctor", params: indices(rank), ret: void, flags: arrayCtorFlags},
	}
	if t.kind == KindArray {
		accessors = append(accessors, &arrayAccessor{name: ".ctor", params: indices(2 * rank), ret: void, flags: arrayCtorFlags})
	}
	accessors = append(accessors,
		&arrayAccessor{name: "Set", params: append(indices(rank), t.elem), ret: void, flags: arrayMethodFlags},
		&arrayAccessor{name: "Address", params: indices(rank), ret: t.elem.makeByRef(), flags: arrayMethodFlags},
		&arrayAccessor{name: "Get", params: indices(rank), ret: t.elem, flags: arrayMethodFlags},
	)

	out := make([]*Method, len(accessors))
	for i, a := range accessors {
		core := &methodCore{module: t.module, declaring: t, accessor: a, id: lc.nextID()}
		out[i] = &Method{core: core, reflected: t}
	}
	return out, nil
}
