package reflection

import (
	"github.com/wippyai/metareflect/metadata"
)

// IsAssignableFrom reports whether a value of type from can be stored in a
// location of type t without conversion. A bare generic definition t is
// never assignable; a bare generic definition from is first instantiated
// over its own parameters.
func (t *Type) IsAssignableFrom(from *Type) (bool, error) {
	if from == nil {
		return false, nil
	}
	if err := t.module.lc().check(); err != nil {
		return false, err
	}
	if t == from {
		return true, nil
	}
	if t.IsGenericTypeDefinition() {
		return false, nil
	}
	if from.IsGenericTypeDefinition() {
		params, err := from.genericParameters()
		if err != nil {
			return false, err
		}
		from = from.instantiate(params)
		if t == from {
			return true, nil
		}
	}

	c := caster{}
	var err error
	if c.wk, err = t.module.lc().wellKnownTypes(); err != nil {
		return false, err
	}
	return c.canCastTo(from, t)
}

type caster struct {
	wk *wellKnownTypes
}

func (c caster) canCastTo(from, to *Type) (bool, error) {
	if from == to {
		return true, nil
	}

	switch from.kind {
	case KindSZArray, KindArray:
		return c.arrayCast(from, to)
	case KindByRef:
		return false, nil
	case KindPointer:
		if to.kind == KindPointer {
			return c.elementCompatible(from.elem, to.elem)
		}
		return to == c.wk.object || (c.wk.uintPtr != nil && to == c.wk.uintPtr), nil
	case KindGenericParameter:
		return c.genericParamCast(from, to)
	}

	if to.IsInterface() {
		if from.IsInterface() {
			ok, err := c.matchesWithVariance(from, to)
			if err != nil || ok {
				return ok, err
			}
		}
		ifaces, err := from.Interfaces()
		if err != nil {
			return false, err
		}
		for _, it := range ifaces {
			ok, err := c.matchesWithVariance(it, to)
			if err != nil || ok {
				return ok, err
			}
		}
		return false, nil
	}

	if c.isNullableOf(to, from) {
		return true, nil
	}
	// Variant generic delegates.
	if from.kind == KindGenericInstance && to.kind == KindGenericInstance && from.elem == to.elem {
		return c.matchesWithVariance(from, to)
	}
	return c.baseChainContains(from, to)
}

// baseChainContains walks the base types of from looking for to.
// Interfaces have no base type, so no interface reaches System.Object.
func (c caster) baseChainContains(from, to *Type) (bool, error) {
	for cur, depth := from, 0; cur != nil; depth++ {
		if cur == to {
			return true, nil
		}
		if depth >= maxHierarchyDepth {
			return false, cyclicHierarchy(from, "base type chain")
		}
		next, err := cur.BaseType()
		if err != nil {
			return false, err
		}
		cur = next
	}
	return false, nil
}

func (c caster) isNullableOf(to, from *Type) bool {
	return c.wk.nullable != nil && to.kind == KindGenericInstance &&
		to.elem == c.wk.nullable && len(to.args) == 1 && to.args[0] == from
}

func (c caster) arrayCast(from, to *Type) (bool, error) {
	switch to.kind {
	case KindSZArray, KindArray:
		if from.ArrayRank() != to.ArrayRank() {
			return false, nil
		}
		// A vector converts to a rank-1 general array, never the reverse.
		if from.kind == KindArray && to.kind == KindSZArray {
			return false, nil
		}
		return c.elementCompatible(from.elem, to.elem)
	}

	if from.kind == KindSZArray && to.kind == KindGenericInstance && len(to.args) == 1 {
		for _, def := range c.wk.collections {
			if to.elem == def {
				return c.elementCompatible(from.elem, to.args[0])
			}
		}
	}

	if to.IsInterface() {
		ifaces, err := c.wk.array.Interfaces()
		if err != nil {
			return false, err
		}
		for _, it := range ifaces {
			if it == to {
				return true, nil
			}
		}
		return false, nil
	}
	return c.baseChainContains(c.wk.array, to)
}

func (c caster) genericParamCast(from, to *Type) (bool, error) {
	if to == c.wk.object {
		return true, nil
	}
	if to == c.wk.valueType {
		return from.gp.flags&metadata.GenericNotNullableValueTypeConstraint != 0, nil
	}
	cs, err := from.GenericParameterConstraints()
	if err != nil {
		return false, err
	}
	for _, con := range cs {
		ok, err := c.canCastTo(con, to)
		if err != nil || ok {
			return ok, err
		}
	}
	return false, nil
}

// elementCompatible is the array and pointer element rule: identity,
// reference conversion, or equal reduced types.
func (c caster) elementCompatible(from, to *Type) (bool, error) {
	if from == to {
		return true, nil
	}
	ref, err := c.isGCReference(from)
	if err != nil {
		return false, err
	}
	if ref {
		ok, err := c.canCastTo(from, to)
		if err != nil || ok {
			return ok, err
		}
	}
	rf, err := c.reduce(from)
	if err != nil {
		return false, err
	}
	rt, err := c.reduce(to)
	if err != nil {
		return false, err
	}
	return rf == rt, nil
}

// reduce maps an enum to its underlying type and an unsigned integer type to
// its same-size signed counterpart.
func (c caster) reduce(t *Type) (*Type, error) {
	if t.IsEnum() {
		u, err := t.EnumUnderlyingType()
		if err != nil {
			return nil, err
		}
		t = u
	}
	if r, ok := c.wk.reduced[t]; ok {
		return r, nil
	}
	return t, nil
}

func (c caster) isGCReference(t *Type) (bool, error) {
	switch t.kind {
	case KindSZArray, KindArray:
		return true, nil
	case KindPointer, KindByRef:
		return false, nil
	case KindGenericParameter:
		if t.gp.flags&metadata.GenericReferenceTypeConstraint != 0 {
			return true, nil
		}
		cs, err := t.GenericParameterConstraints()
		if err != nil {
			return false, err
		}
		for _, con := range cs {
			if con.kind == KindGenericParameter {
				ok, err := c.isGCReference(con)
				if err != nil || ok {
					return ok, err
				}
				continue
			}
			if !con.IsInterface() && !con.IsValueType() && con != c.wk.object && con != c.wk.valueType {
				return true, nil
			}
		}
		return false, nil
	default:
		return !t.IsValueType(), nil
	}
}

// matchesWithVariance compares two instances of the same generic interface
// or delegate, applying the variance of each definition parameter.
func (c caster) matchesWithVariance(from, to *Type) (bool, error) {
	if from == to {
		return true, nil
	}
	if from.kind != KindGenericInstance || to.kind != KindGenericInstance || from.elem != to.elem {
		return false, nil
	}
	params, err := to.elem.genericParameters()
	if err != nil {
		return false, err
	}
	for i, p := range params {
		fa, ta := from.args[i], to.args[i]
		if fa == ta {
			continue
		}
		switch p.gp.flags.Variance() {
		case metadata.GenericCovariant:
			ok, err := c.referenceCast(fa, ta)
			if err != nil || !ok {
				return false, err
			}
		case metadata.GenericContravariant:
			ok, err := c.referenceCast(ta, fa)
			if err != nil || !ok {
				return false, err
			}
		default:
			return false, nil
		}
	}
	return true, nil
}

func (c caster) referenceCast(from, to *Type) (bool, error) {
	ref, err := c.isGCReference(from)
	if err != nil || !ref {
		return false, err
	}
	return c.canCastTo(from, to)
}
