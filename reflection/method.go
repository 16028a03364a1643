package reflection

import (
	"strings"

	"github.com/wippyai/metareflect/errors"
	"github.com/wippyai/metareflect/internal/lazy"
	"github.com/wippyai/metareflect/metadata"
)

// Method describes a method or constructor as seen from its reflected type.
// Copies reflected through different types share one core.
type Method struct {
	core      *methodCore
	reflected *Type

	params lazy.Cell[[]*Parameter]
	ret    lazy.Cell[*Parameter]
}

type methodCore struct {
	module    *Module
	declaring *Type
	row       *metadata.MethodRow // nil for array accessors
	accessor  *arrayAccessor
	generic   *Method // definition of a constructed generic method
	args      []*Type
	token     metadata.Token
	id        uint64

	gparams lazy.Cell[[]*Type]
	params  lazy.Cell[[]*paramCore]
	ret     lazy.Cell[*paramCore]
	attrs   lazy.Cell[[]*CustomAttribute]
	body    lazy.Cell[*MethodBody]
}

func newMethodCore(m *Module, declaring *Type, tok metadata.Token, row *metadata.MethodRow) *methodCore {
	return &methodCore{module: m, declaring: declaring, row: row, token: tok, id: m.lc().nextID()}
}

// declaredMethods lists the methods and constructors declared by t,
// reflected through t.
func (t *Type) declaredMethods() ([]*Method, error) {
	if err := t.module.lc().check(); err != nil {
		return nil, err
	}
	return t.methods.Get(func() ([]*Method, error) {
		switch t.kind {
		case KindDefinition, KindGenericInstance:
			def := t.definition()
			r := def.module.reader
			out := make([]*Method, 0, len(def.row.Methods))
			for _, tok := range def.row.Methods {
				row, err := r.Method(tok)
				if err != nil {
					return nil, err
				}
				core := newMethodCore(def.module, t, tok, &row)
				out = append(out, &Method{core: core, reflected: t})
			}
			return out, nil
		case KindSZArray, KindArray:
			return t.arrayMethods()
		default:
			return nil, nil
		}
	})
}

func (c *methodCore) signature() metadata.MethodSig {
	if c.row != nil {
		return c.row.Signature
	}
	sig := metadata.MethodSig{CallingConvention: metadata.CallHasThis}
	sig.Params = make([]metadata.ParamSig, len(c.accessor.params))
	return sig
}

// context returns the generic context member signatures resolve in.
func (m *Method) context() (GenericContext, error) {
	return m.core.context()
}

func (c *methodCore) context() (GenericContext, error) {
	var ctx GenericContext
	var err error
	if ctx.TypeArgs, err = c.declaring.GenericArguments(); err != nil {
		return ctx, err
	}
	switch {
	case c.generic != nil:
		ctx.MethodArgs = c.args
	case c.row != nil && len(c.row.GenericParams) > 0:
		if ctx.MethodArgs, err = c.genericParameters(); err != nil {
			return ctx, err
		}
	}
	return ctx, nil
}

func (c *methodCore) genericParameters() ([]*Type, error) {
	if c.row == nil || len(c.row.GenericParams) == 0 {
		return nil, nil
	}
	if c.generic != nil {
		return c.generic.core.genericParameters()
	}
	return c.gparams.Get(func() ([]*Type, error) {
		return c.module.genericParams(c.row.GenericParams, nil, &Method{core: c, reflected: c.declaring})
	})
}

// reflectedAs returns a copy of m seen through rt.
func (m *Method) reflectedAs(rt *Type) *Method {
	if m.reflected == rt {
		return m
	}
	return &Method{core: m.core, reflected: rt}
}

// Name returns the method name; constructors are ".ctor" and ".cctor".
func (m *Method) Name() string {
	if m.core.accessor != nil {
		return m.core.accessor.name
	}
	return m.core.row.Name
}

// MemberKind distinguishes constructors from methods.
func (m *Method) MemberKind() MemberKind {
	if m.IsConstructor() {
		return MemberConstructor
	}
	return MemberMethod
}

// DeclaringType returns the type that declares the method.
func (m *Method) DeclaringType() *Type { return m.core.declaring }

// ReflectedType returns the type the method was obtained from.
func (m *Method) ReflectedType() *Type { return m.reflected }

// Module returns the module holding the method's metadata.
func (m *Method) Module() *Module { return m.core.module }

// Token returns the Method token, or 0 for array accessors.
func (m *Method) Token() metadata.Token { return m.core.token }

// Attributes returns the method flags.
func (m *Method) Attributes() metadata.MethodAttributes {
	if m.core.accessor != nil {
		return m.core.accessor.flags
	}
	return m.core.row.Flags
}

// ImplAttributes returns the method implementation flags.
func (m *Method) ImplAttributes() metadata.MethodImplAttributes {
	if m.core.accessor != nil {
		return metadata.ImplRuntime
	}
	return m.core.row.ImplFlags
}

// CallingConvention returns the signature calling convention.
func (m *Method) CallingConvention() metadata.CallingConvention {
	return m.core.signature().CallingConvention
}

// IsStatic reports whether the method has no receiver.
func (m *Method) IsStatic() bool { return m.Attributes()&metadata.MethodStatic != 0 }

// IsVirtual reports whether the method occupies a vtable slot.
func (m *Method) IsVirtual() bool { return m.Attributes()&metadata.MethodVirtual != 0 }

// IsAbstract reports whether the method has no implementation.
func (m *Method) IsAbstract() bool { return m.Attributes()&metadata.MethodAbstract != 0 }

// IsFinal reports whether the method cannot be overridden.
func (m *Method) IsFinal() bool { return m.Attributes()&metadata.MethodFinal != 0 }

// IsNewSlot reports whether the method always gets a new vtable slot.
func (m *Method) IsNewSlot() bool { return m.Attributes()&metadata.MethodNewSlot != 0 }

// IsHideBySig reports whether the method hides by name and signature.
func (m *Method) IsHideBySig() bool {
	return m.Attributes()&metadata.MethodHideBySig != 0
}

// IsSpecialName reports whether the name is special, as for accessors and operators.
func (m *Method) IsSpecialName() bool {
	return m.Attributes()&metadata.MethodSpecialName != 0
}

// IsPublic reports whether the method is public.
func (m *Method) IsPublic() bool { return m.Attributes().Access() == metadata.MethodPublic }

// IsPrivate reports whether the method is private.
func (m *Method) IsPrivate() bool { return m.Attributes().Access() == metadata.MethodPrivate }

// IsConstructor reports whether m is an instance or type initializer.
func (m *Method) IsConstructor() bool {
	if m.Attributes()&metadata.MethodRTSpecialName == 0 {
		return false
	}
	name := m.Name()
	return name == ".ctor" || name == ".cctor"
}

// IsGenericMethodDefinition reports whether m declares unbound method
// generic parameters.
func (m *Method) IsGenericMethodDefinition() bool {
	c := m.core
	return c.generic == nil && c.row != nil && len(c.row.GenericParams) > 0
}

// IsConstructedGenericMethod reports whether m was built by MakeGenericMethod.
func (m *Method) IsConstructedGenericMethod() bool { return m.core.generic != nil }

// IsGenericMethod reports whether m is a generic definition or constructed.
func (m *Method) IsGenericMethod() bool {
	return m.IsGenericMethodDefinition() || m.IsConstructedGenericMethod()
}

// ContainsGenericParameters reports whether m or its declaring type has
// unbound generic parameters.
func (m *Method) ContainsGenericParameters() bool {
	if m.core.declaring.ContainsGenericParameters() || m.IsGenericMethodDefinition() {
		return true
	}
	for _, a := range m.core.args {
		if a.ContainsGenericParameters() {
			return true
		}
	}
	return false
}

// GenericArguments returns the method arguments of a constructed method or
// the parameters of a generic method definition.
func (m *Method) GenericArguments() ([]*Type, error) {
	if m.core.generic != nil {
		return m.core.args, nil
	}
	return m.core.genericParameters()
}

// GenericMethodDefinition returns the definition m was constructed from.
func (m *Method) GenericMethodDefinition() (*Method, error) {
	switch {
	case m.core.generic != nil:
		return m.core.generic.reflectedAs(m.reflected), nil
	case m.IsGenericMethodDefinition():
		return m, nil
	default:
		return nil, errors.New(errors.PhaseQuery, errors.KindInvalidInput).
			Member(m.Name()).Detail("not a generic method").Build()
	}
}

// MakeGenericMethod binds the method generic parameters of a generic method
// definition. Instances are uniqued per definition, reflected type and arguments.
func (m *Method) MakeGenericMethod(args ...*Type) (*Method, error) {
	lc := m.core.module.lc()
	if err := lc.check(); err != nil {
		return nil, err
	}
	if !m.IsGenericMethodDefinition() {
		return nil, errors.New(errors.PhaseSpecialize, errors.KindInvalidInput).
			Member(m.Name()).Detail("not a generic method definition").Build()
	}
	params, err := m.core.genericParameters()
	if err != nil {
		return nil, err
	}
	if len(args) != len(params) {
		return nil, errors.New(errors.PhaseSpecialize, errors.KindInvalidInput).
			Member(m.Name()).Detail("expected %d type arguments, got %d", len(params), len(args)).Build()
	}
	for i, a := range args {
		switch {
		case a == nil:
			return nil, errors.New(errors.PhaseSpecialize, errors.KindInvalidInput).
				Member(m.Name()).Detail("type argument %d is nil", i).Build()
		case a.module.lc() != lc:
			return nil, errors.ForeignAssembly(a.Assembly().FullName())
		case a.kind == KindByRef || a.kind == KindPointer:
			return nil, errors.New(errors.PhaseSpecialize, errors.KindInvalidInput).
				Member(m.Name()).Detail("type argument %s cannot be a %s", a, a.kind).Build()
		}
	}

	key := instKey{def: m.core.id, args: packIDs(args, m.reflected.id)}
	return m.core.module.methodInsts.GetOrCreate(key, func() *Method {
		own := make([]*Type, len(args))
		copy(own, args)
		c := m.core
		core := &methodCore{
			module:    c.module,
			declaring: c.declaring,
			row:       c.row,
			generic:   m,
			args:      own,
			token:     c.token,
			id:        lc.nextID(),
		}
		return &Method{core: core, reflected: m.reflected}
	}), nil
}

// Parameters returns the parameters in declaration order.
func (m *Method) Parameters() ([]*Parameter, error) {
	if err := m.core.module.lc().check(); err != nil {
		return nil, err
	}
	return m.params.Get(func() ([]*Parameter, error) {
		cores, err := m.core.params.Get(m.core.buildParameters)
		if err != nil {
			return nil, err
		}
		out := make([]*Parameter, len(cores))
		for i, pc := range cores {
			out[i] = &Parameter{paramCore: pc, member: m}
		}
		return out, nil
	})
}

func (c *methodCore) buildParameters() ([]*paramCore, error) {
	if c.accessor != nil {
		out := make([]*paramCore, len(c.accessor.params))
		for i, pt := range c.accessor.params {
			out[i] = &paramCore{method: c, typ: pt, position: i}
		}
		return out, nil
	}

	ctx, err := c.context()
	if err != nil {
		return nil, err
	}
	rows, err := c.paramRows()
	if err != nil {
		return nil, err
	}
	sig := c.row.Signature
	out := make([]*paramCore, len(sig.Params))
	for i, ps := range sig.Params {
		p, err := c.newParameter(ps, i, ctx)
		if err != nil {
			return nil, err
		}
		if r, ok := rows[i+1]; ok {
			p.row, p.token = &r.row, r.token
		}
		out[i] = p
	}
	return out, nil
}

type paramRow struct {
	row   metadata.ParamRow
	token metadata.Token
}

func (c *methodCore) paramRows() (map[int]paramRow, error) {
	rows := make(map[int]paramRow, len(c.row.Params))
	for _, tok := range c.row.Params {
		row, err := c.module.reader.Param(tok)
		if err != nil {
			return nil, err
		}
		rows[int(row.Sequence)] = paramRow{row: row, token: tok}
	}
	return rows, nil
}

func (c *methodCore) newParameter(ps metadata.ParamSig, position int, ctx GenericContext) (*paramCore, error) {
	typ, err := c.module.resolveSig(ps.Type, ctx)
	if err != nil {
		return nil, err
	}
	req, opt, err := c.module.modifiers(ps.Modifiers, ps.Type, ctx)
	if err != nil {
		return nil, err
	}
	return &paramCore{method: c, typ: typ, required: req, optional: opt, position: position}, nil
}

// ReturnParameter describes the return value; its position is -1.
func (m *Method) ReturnParameter() (*Parameter, error) {
	if err := m.core.module.lc().check(); err != nil {
		return nil, err
	}
	return m.ret.Get(func() (*Parameter, error) {
		pc, err := m.core.ret.Get(m.core.buildReturn)
		if err != nil {
			return nil, err
		}
		return &Parameter{paramCore: pc, member: m}, nil
	})
}

func (c *methodCore) buildReturn() (*paramCore, error) {
	if c.accessor != nil {
		return &paramCore{method: c, typ: c.accessor.ret, position: -1}, nil
	}
	ctx, err := c.context()
	if err != nil {
		return nil, err
	}
	p, err := c.newParameter(c.row.Signature.Return, -1, ctx)
	if err != nil {
		return nil, err
	}
	rows, err := c.paramRows()
	if err != nil {
		return nil, err
	}
	if r, ok := rows[0]; ok {
		p.row, p.token = &r.row, r.token
	}
	return p, nil
}

// ReturnType returns the type of the return value.
func (m *Method) ReturnType() (*Type, error) {
	p, err := m.ReturnParameter()
	if err != nil {
		return nil, err
	}
	return p.typ, nil
}

// ParameterTypes returns the types of the parameters.
func (m *Method) ParameterTypes() ([]*Type, error) {
	ps, err := m.Parameters()
	if err != nil {
		return nil, err
	}
	out := make([]*Type, len(ps))
	for i, p := range ps {
		out[i] = p.typ
	}
	return out, nil
}

// ImplMap returns the platform invoke target, if any.
func (m *Method) ImplMap() *metadata.ImplMap {
	if m.core.row == nil {
		return nil
	}
	return m.core.row.ImplMap
}

func (m *Method) String() string {
	var b strings.Builder
	if rt, err := m.ReturnType(); err == nil {
		b.WriteString(rt.String())
	} else {
		b.WriteByte('?')
	}
	b.WriteByte(' ')
	b.WriteString(m.Name())
	if args, err := m.GenericArguments(); err == nil && len(args) > 0 {
		b.WriteByte('[')
		for i, a := range args {
			if i > 0 {
				b.WriteByte(',')
			}
			b.WriteString(a.String())
		}
		b.WriteByte(']')
	}
	b.WriteByte('(')
	if ps, err := m.ParameterTypes(); err == nil {
		for i, p := range ps {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(p.String())
		}
	}
	b.WriteByte(')')
	return b.String()
}
