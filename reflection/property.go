package reflection

import (
	"github.com/wippyai/metareflect/internal/lazy"
	"github.com/wippyai/metareflect/metadata"
)

// Property describes a property as seen from its reflected type.
type Property struct {
	core      *propertyCore
	reflected *Type
}

type propertyCore struct {
	module    *Module
	declaring *Type
	row       *metadata.PropertyRow
	token     metadata.Token

	sig   lazy.Cell[propertySig]
	attrs lazy.Cell[[]*CustomAttribute]
}

type propertySig struct {
	typ     *Type
	indices []*Type
}

func (t *Type) declaredProperties() ([]*Property, error) {
	if err := t.module.lc().check(); err != nil {
		return nil, err
	}
	return t.properties.Get(func() ([]*Property, error) {
		if !t.isNominal() {
			return nil, nil
		}
		def := t.definition()
		out := make([]*Property, 0, len(def.row.Properties))
		for _, tok := range def.row.Properties {
			row, err := def.module.reader.Property(tok)
			if err != nil {
				return nil, err
			}
			core := &propertyCore{module: def.module, declaring: t, row: &row, token: tok}
			out = append(out, &Property{core: core, reflected: t})
		}
		return out, nil
	})
}

func (p *Property) reflectedAs(rt *Type) *Property {
	if p.reflected == rt {
		return p
	}
	return &Property{core: p.core, reflected: rt}
}

// Name returns the property name.
func (p *Property) Name() string { return p.core.row.Name }

// MemberKind returns MemberProperty.
func (p *Property) MemberKind() MemberKind { return MemberProperty }

// DeclaringType returns the type that declares the property.
func (p *Property) DeclaringType() *Type { return p.core.declaring }

// ReflectedType returns the type the property was obtained from.
func (p *Property) ReflectedType() *Type { return p.reflected }

// Module returns the module that defines the property.
func (p *Property) Module() *Module { return p.core.module }

// Token returns the Property token.
func (p *Property) Token() metadata.Token { return p.core.token }

// Attributes returns the property flags.
func (p *Property) Attributes() metadata.PropertyAttributes { return p.core.row.Flags }

func (p *Property) resolved() (propertySig, error) {
	if err := p.core.module.lc().check(); err != nil {
		return propertySig{}, err
	}
	c := p.core
	return c.sig.Get(func() (propertySig, error) {
		ctx := GenericContext{}
		var err error
		if ctx.TypeArgs, err = c.declaring.GenericArguments(); err != nil {
			return propertySig{}, err
		}
		sig := c.row.Signature
		typ, err := c.module.resolveSig(sig.Type.Type, ctx)
		if err != nil {
			return propertySig{}, err
		}
		indices := make([]*Type, len(sig.Params))
		for i, ps := range sig.Params {
			if indices[i], err = c.module.resolveSig(ps.Type, ctx); err != nil {
				return propertySig{}, err
			}
		}
		return propertySig{typ: typ, indices: indices}, nil
	})
}

// PropertyType returns the specialized property type.
func (p *Property) PropertyType() (*Type, error) {
	s, err := p.resolved()
	return s.typ, err
}

// IndexParameterTypes returns the types of indexer parameters.
func (p *Property) IndexParameterTypes() ([]*Type, error) {
	s, err := p.resolved()
	return s.indices, err
}

// Getter returns the get accessor, or nil.
func (p *Property) Getter() (*Method, error) {
	return p.core.declaring.accessor(p.core.row.Getter, p.reflected)
}

// Setter returns the set accessor, or nil.
func (p *Property) Setter() (*Method, error) {
	return p.core.declaring.accessor(p.core.row.Setter, p.reflected)
}

// CanRead reports whether the property has a getter.
func (p *Property) CanRead() bool { return !p.core.row.Getter.IsNil() }

// CanWrite reports whether the property has a setter.
func (p *Property) CanWrite() bool { return !p.core.row.Setter.IsNil() }

// anyAccessor returns the getter, or the setter of a write-only property.
func (p *Property) anyAccessor() (*Method, error) {
	if g, err := p.Getter(); err != nil || g != nil {
		return g, err
	}
	return p.Setter()
}

// CustomAttributes returns the decoded attributes of the property.
func (p *Property) CustomAttributes() ([]*CustomAttribute, error) {
	if err := p.core.module.lc().check(); err != nil {
		return nil, err
	}
	c := p.core
	return c.attrs.Get(func() ([]*CustomAttribute, error) {
		return c.module.decodedAttributes(c.row.CustomAttributes), nil
	})
}

func (p *Property) String() string {
	if t, err := p.PropertyType(); err == nil {
		return t.String() + " " + p.Name()
	}
	return "? " + p.Name()
}

// accessor finds a declared method by token and reflects it through rt.
func (t *Type) accessor(tok metadata.Token, rt *Type) (*Method, error) {
	if tok.IsNil() {
		return nil, nil
	}
	methods, err := t.declaredMethods()
	if err != nil {
		return nil, err
	}
	for _, m := range methods {
		if m.core.token == tok {
			return m.reflectedAs(rt), nil
		}
	}
	return nil, nil
}
