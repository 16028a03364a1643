package reflection

import (
	"encoding/binary"
	"strconv"

	"github.com/wippyai/metareflect/errors"
	"github.com/wippyai/metareflect/metadata"
)

// GenericContext carries the arguments substituted for type generic
// parameters (Var) and method generic parameters (MVar) while resolving a
// signature. A nil slice leaves the corresponding parameters unbound.
type GenericContext struct {
	TypeArgs   []*Type
	MethodArgs []*Type
}

// IsEmpty reports whether the context binds nothing.
func (c GenericContext) IsEmpty() bool {
	return len(c.TypeArgs) == 0 && len(c.MethodArgs) == 0
}

type arrayKey struct {
	elem uint64
	rank int
	sz   bool
}

type instKey struct {
	def  uint64
	args string
}

func packIDs(ts []*Type, extra ...uint64) string {
	buf := make([]byte, 0, 8*(len(ts)+len(extra)))
	for _, id := range extra {
		buf = binary.LittleEndian.AppendUint64(buf, id)
	}
	for _, t := range ts {
		buf = binary.LittleEndian.AppendUint64(buf, t.id)
	}
	return string(buf)
}

// maxSigDepth bounds signature nesting. TypeSpecs that refer back to
// themselves exceed it.
const maxSigDepth = 128

// resolveToken resolves a TypeDef, TypeRef or TypeSpec token in ctx.
func (m *Module) resolveToken(tok metadata.Token, ctx GenericContext) (*Type, error) {
	return m.resolveTokenDepth(tok, ctx, 0)
}

func (m *Module) resolveTokenDepth(tok metadata.Token, ctx GenericContext, depth int) (*Type, error) {
	switch tok.Table() {
	case metadata.TableTypeDef:
		return m.typeDef(tok)
	case metadata.TableTypeRef:
		return m.typeRef(tok)
	case metadata.TableTypeSpec:
		sig, err := m.reader.TypeSpec(tok)
		if err != nil {
			return nil, err
		}
		return m.resolveSigDepth(sig, ctx, depth+1)
	default:
		return nil, errors.Malformed(errors.PhaseDecode, []string{"TypeDefOrRef"}, "not a type token: "+tok.String())
	}
}

// resolveSig turns a signature tree into a descriptor, substituting generic
// parameter references from ctx.
func (m *Module) resolveSig(sig metadata.TypeSig, ctx GenericContext) (*Type, error) {
	return m.resolveSigDepth(sig, ctx, 0)
}

func (m *Module) resolveSigDepth(sig metadata.TypeSig, ctx GenericContext, depth int) (*Type, error) {
	if depth >= maxSigDepth {
		return nil, errors.Malformed(errors.PhaseDecode, []string{"signature", sig.Kind.String()}, "cyclic or too deeply nested signature")
	}
	elem := func() (*Type, error) {
		if sig.Elem == nil {
			return nil, errors.Malformed(errors.PhaseDecode, []string{"signature", sig.Kind.String()}, "missing element type")
		}
		return m.resolveSigDepth(*sig.Elem, ctx, depth+1)
	}

	switch sig.Kind {
	case metadata.SigPrimitive:
		return m.lc().primitive(sig.Element)
	case metadata.SigClass, metadata.SigValueType:
		return m.resolveTokenDepth(sig.Token, ctx, depth+1)
	case metadata.SigGenericInst:
		def, err := elem()
		if err != nil {
			return nil, err
		}
		args := make([]*Type, len(sig.Args))
		for i, a := range sig.Args {
			if args[i], err = m.resolveSigDepth(a, ctx, depth+1); err != nil {
				return nil, err
			}
		}
		params, err := def.genericParameters()
		if err != nil {
			return nil, err
		}
		if len(params) != len(args) {
			return nil, errors.Malformed(errors.PhaseDecode, []string{"signature", def.FullName()},
				"generic arity "+strconv.Itoa(len(params))+", got "+strconv.Itoa(len(args))+" arguments")
		}
		return def.instantiate(args), nil
	case metadata.SigSZArray:
		e, err := elem()
		if err != nil {
			return nil, err
		}
		return e.makeArray(1, true), nil
	case metadata.SigArray:
		e, err := elem()
		if err != nil {
			return nil, err
		}
		if sig.Rank < 1 {
			return nil, errors.Malformed(errors.PhaseDecode, []string{"signature", "array"}, "rank "+strconv.Itoa(sig.Rank))
		}
		return e.makeArray(sig.Rank, false), nil
	case metadata.SigPointer:
		e, err := elem()
		if err != nil {
			return nil, err
		}
		return e.makePointer(), nil
	case metadata.SigByRef:
		e, err := elem()
		if err != nil {
			return nil, err
		}
		return e.makeByRef(), nil
	case metadata.SigVar:
		return bindParam(ctx.TypeArgs, sig.Number, "!")
	case metadata.SigMVar:
		return bindParam(ctx.MethodArgs, sig.Number, "!!")
	case metadata.SigModified:
		return elem()
	default:
		return nil, errors.Malformed(errors.PhaseDecode, []string{"signature"}, "invalid signature kind "+sig.Kind.String())
	}
}

func bindParam(args []*Type, n int, prefix string) (*Type, error) {
	if n < 0 || n >= len(args) {
		return nil, errors.New(errors.PhaseSpecialize, errors.KindMalformedInput).
			Path("signature", prefix+strconv.Itoa(n)).
			Detail("generic parameter position out of range (%d arguments)", len(args)).
			Build()
	}
	return args[n], nil
}

// modifiers resolves the custom modifiers of a signature position into
// required and optional modifier types.
func (m *Module) modifiers(mods []metadata.CustomModifier, sig metadata.TypeSig, ctx GenericContext) (req, opt []*Type, err error) {
	add := func(tok metadata.Token, required bool) error {
		t, err := m.resolveToken(tok, ctx)
		if err != nil {
			return err
		}
		if required {
			req = append(req, t)
		} else {
			opt = append(opt, t)
		}
		return nil
	}
	for _, mod := range mods {
		if err := add(mod.Type, mod.Required); err != nil {
			return nil, nil, err
		}
	}
	for s := sig; s.Kind == metadata.SigModified && s.Elem != nil; s = *s.Elem {
		if err := add(s.Token, s.Required); err != nil {
			return nil, nil, err
		}
	}
	return req, opt, nil
}

// Specialize substitutes ctx into t through array, pointer, byref and
// instantiation wrappers. Parameters without a binding in ctx are kept.
func Specialize(t *Type, ctx GenericContext) (*Type, error) {
	switch t.kind {
	case KindGenericParameter:
		args := ctx.TypeArgs
		prefix := "!"
		if t.gp.method != nil {
			args, prefix = ctx.MethodArgs, "!!"
		}
		if args == nil {
			return t, nil
		}
		return bindParam(args, t.gp.position, prefix)
	case KindSZArray, KindArray, KindPointer, KindByRef:
		e, err := Specialize(t.elem, ctx)
		if err != nil {
			return nil, err
		}
		if e == t.elem {
			return t, nil
		}
		return e.wrap(t), nil
	case KindGenericInstance:
		var args []*Type
		for i, a := range t.args {
			s, err := Specialize(a, ctx)
			if err != nil {
				return nil, err
			}
			if s != a && args == nil {
				args = make([]*Type, len(t.args))
				copy(args, t.args[:i])
			}
			if args != nil {
				args[i] = s
			}
		}
		if args == nil {
			return t, nil
		}
		return t.elem.instantiate(args), nil
	default:
		return t, nil
	}
}

func specializeAll(ts []*Type, ctx GenericContext) ([]*Type, error) {
	out := make([]*Type, len(ts))
	for i, t := range ts {
		s, err := Specialize(t, ctx)
		if err != nil {
			return nil, err
		}
		out[i] = s
	}
	return out, nil
}

// wrap applies the wrapper shape of like to t.
func (t *Type) wrap(like *Type) *Type {
	switch like.kind {
	case KindSZArray:
		return t.makeArray(1, true)
	case KindArray:
		return t.makeArray(like.rank, false)
	case KindPointer:
		return t.makePointer()
	default:
		return t.makeByRef()
	}
}

func (t *Type) makeArray(rank int, sz bool) *Type {
	kind := KindArray
	if sz {
		kind = KindSZArray
	}
	return t.module.arrays.GetOrCreate(arrayKey{elem: t.id, rank: rank, sz: sz}, func() *Type {
		return &Type{module: t.module, kind: kind, elem: t, rank: rank, id: t.module.lc().nextID()}
	})
}

func (t *Type) makePointer() *Type {
	return t.module.pointers.GetOrCreate(t.id, func() *Type {
		return &Type{module: t.module, kind: KindPointer, elem: t, id: t.module.lc().nextID()}
	})
}

func (t *Type) makeByRef() *Type {
	return t.module.byRefs.GetOrCreate(t.id, func() *Type {
		return &Type{module: t.module, kind: KindByRef, elem: t, id: t.module.lc().nextID()}
	})
}

// instantiate returns the canonical instance of generic definition t over args.
// Arity must already be checked.
func (t *Type) instantiate(args []*Type) *Type {
	return t.module.insts.GetOrCreate(instKey{def: t.id, args: packIDs(args)}, func() *Type {
		own := make([]*Type, len(args))
		copy(own, args)
		return &Type{
			module: t.module,
			kind:   KindGenericInstance,
			elem:   t,
			args:   own,
			id:     t.module.lc().nextID(),
		}
	})
}

func (t *Type) checkElement(what string) error {
	if err := t.module.lc().check(); err != nil {
		return err
	}
	if t.kind == KindByRef {
		return errors.New(errors.PhaseQuery, errors.KindInvalidInput).
			Type(t.String()).Detail("cannot make %s of a byref type", what).Build()
	}
	return nil
}

// MakeSZArrayType returns the single-dimensional zero-based array of t.
func (t *Type) MakeSZArrayType() (*Type, error) {
	if err := t.checkElement("an array"); err != nil {
		return nil, err
	}
	return t.makeArray(1, true), nil
}

// MakeArrayType returns the general array of t with the given rank. Rank 1
// yields the non-vector "T[*]" shape.
func (t *Type) MakeArrayType(rank int) (*Type, error) {
	if err := t.checkElement("an array"); err != nil {
		return nil, err
	}
	if rank < 1 || rank > 32 {
		return nil, errors.New(errors.PhaseQuery, errors.KindInvalidInput).
			Type(t.String()).Detail("invalid array rank %d", rank).Build()
	}
	return t.makeArray(rank, false), nil
}

// MakePointerType returns the unmanaged pointer to t.
func (t *Type) MakePointerType() (*Type, error) {
	if err := t.checkElement("a pointer"); err != nil {
		return nil, err
	}
	return t.makePointer(), nil
}

// MakeByRefType returns the managed reference to t.
func (t *Type) MakeByRefType() (*Type, error) {
	if err := t.checkElement("a byref"); err != nil {
		return nil, err
	}
	return t.makeByRef(), nil
}

// MakeGenericType instantiates generic definition t. Every argument must
// belong to the same load context and be neither a byref nor a pointer.
func (t *Type) MakeGenericType(args ...*Type) (*Type, error) {
	lc := t.module.lc()
	if err := lc.check(); err != nil {
		return nil, err
	}
	if !t.IsGenericTypeDefinition() {
		return nil, errors.New(errors.PhaseSpecialize, errors.KindInvalidInput).
			Type(t.String()).Detail("not a generic type definition").Build()
	}
	params, err := t.genericParameters()
	if err != nil {
		return nil, err
	}
	if len(args) != len(params) {
		return nil, errors.New(errors.PhaseSpecialize, errors.KindInvalidInput).
			Type(t.String()).Detail("expected %d type arguments, got %d", len(params), len(args)).Build()
	}
	for i, a := range args {
		switch {
		case a == nil:
			return nil, errors.New(errors.PhaseSpecialize, errors.KindInvalidInput).
				Type(t.String()).Detail("type argument %d is nil", i).Build()
		case a.module.lc() != lc:
			return nil, errors.ForeignAssembly(a.Assembly().FullName())
		case a.kind == KindByRef || a.kind == KindPointer:
			return nil, errors.New(errors.PhaseSpecialize, errors.KindInvalidInput).
				Type(t.String()).Detail("type argument %s cannot be a %s", a, a.kind).Build()
		}
	}
	return t.instantiate(args), nil
}
