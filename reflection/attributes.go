package reflection

import (
	"fmt"
	"strings"

	"github.com/wippyai/metareflect/errors"
	"github.com/wippyai/metareflect/internal/lazy"
	"github.com/wippyai/metareflect/metadata"
)

// CustomAttribute is an attribute attached to a metadata entity: either
// decoded from a CustomAttribute row or synthesized from structural flags.
// The constructor and the arguments are materialized once, on first use.
type CustomAttribute struct {
	module *Module
	token  metadata.Token
	synth  *synthesized

	ctor lazy.Cell[*Method]
	args lazy.Cell[attributeArgs]
}

// synthesized describes a pseudo-attribute.
type synthesized struct {
	ctor *Method
	args func() (attributeArgs, error)
}

type attributeArgs struct {
	fixed []AttributeArgument
	named []NamedArgument
}

// AttributeArgument is a typed attribute argument. Value holds a Go scalar
// or string, a *Type for System.Type arguments, []AttributeArgument for
// arrays, or nil for null.
type AttributeArgument struct {
	Type  *Type
	Value any
}

// NamedArgument assigns a field or property of the attribute.
type NamedArgument struct {
	Name     string
	Argument AttributeArgument
	IsField  bool
}

// IsSynthesized reports whether the attribute was derived from flags.
func (a *CustomAttribute) IsSynthesized() bool { return a.synth != nil }

// Token returns the CustomAttribute row token, or 0 when synthesized.
func (a *CustomAttribute) Token() metadata.Token { return a.token }

// Constructor resolves the attribute constructor.
func (a *CustomAttribute) Constructor() (*Method, error) {
	if a.synth != nil {
		return a.synth.ctor, nil
	}
	if err := a.module.lc().check(); err != nil {
		return nil, err
	}
	return a.ctor.Get(func() (*Method, error) {
		row, err := a.module.reader.CustomAttribute(a.token)
		if err != nil {
			return nil, err
		}
		return a.module.ResolveMethod(row.Constructor, GenericContext{})
	})
}

// AttributeType returns the declaring type of the constructor.
func (a *CustomAttribute) AttributeType() (*Type, error) {
	ctor, err := a.Constructor()
	if err != nil {
		return nil, err
	}
	return ctor.DeclaringType(), nil
}

// FixedArguments returns the positional constructor arguments.
func (a *CustomAttribute) FixedArguments() ([]AttributeArgument, error) {
	args, err := a.materialize()
	return args.fixed, err
}

// NamedArguments returns the field and property assignments.
func (a *CustomAttribute) NamedArguments() ([]NamedArgument, error) {
	args, err := a.materialize()
	return args.named, err
}

func (a *CustomAttribute) materialize() (attributeArgs, error) {
	if err := a.module.lc().check(); err != nil {
		return attributeArgs{}, err
	}
	if a.synth != nil {
		return a.args.Get(a.synth.args)
	}
	return a.args.Get(func() (attributeArgs, error) {
		val, err := a.module.reader.CustomAttributeValue(a.token)
		if err != nil {
			return attributeArgs{}, err
		}
		var out attributeArgs
		out.fixed = make([]AttributeArgument, len(val.Fixed))
		for i, arg := range val.Fixed {
			if out.fixed[i], err = a.module.attributeArgument(arg); err != nil {
				return attributeArgs{}, err
			}
		}
		out.named = make([]NamedArgument, len(val.Named))
		for i, na := range val.Named {
			v, err := a.module.attributeArgument(na.Arg)
			if err != nil {
				return attributeArgs{}, err
			}
			out.named[i] = NamedArgument{Name: na.Name, Argument: v, IsField: na.IsField}
		}
		return out, nil
	})
}

func (m *Module) attributeArgument(arg metadata.AttributeArg) (AttributeArgument, error) {
	typ, err := m.resolveSig(arg.Type, GenericContext{})
	if err != nil {
		return AttributeArgument{}, err
	}
	out := AttributeArgument{Type: typ}
	switch {
	case arg.Null:
	case arg.IsArray:
		elems := make([]AttributeArgument, len(arg.Elements))
		for i, e := range arg.Elements {
			if elems[i], err = m.attributeArgument(e); err != nil {
				return AttributeArgument{}, err
			}
		}
		out.Value = elems
	case arg.TypeValue != nil:
		if out.Value, err = m.resolveSig(*arg.TypeValue, GenericContext{}); err != nil {
			return AttributeArgument{}, err
		}
	case arg.Value != nil:
		if out.Value, err = arg.Value.Value(); err != nil {
			return AttributeArgument{}, errors.Wrap(errors.PhaseAttribute, errors.KindMalformedInput, err, "attribute argument")
		}
	}
	return out, nil
}

func (a *CustomAttribute) String() string {
	var b strings.Builder
	b.WriteByte('[')
	if t, err := a.AttributeType(); err == nil {
		b.WriteString(t.FullName())
	} else {
		b.WriteByte('?')
	}
	b.WriteByte('(')
	args, err := a.materialize()
	if err == nil {
		n := 0
		for _, f := range args.fixed {
			if n > 0 {
				b.WriteString(", ")
			}
			b.WriteString(formatArgument(f))
			n++
		}
		for _, na := range args.named {
			if n > 0 {
				b.WriteString(", ")
			}
			b.WriteString(na.Name + " = " + formatArgument(na.Argument))
			n++
		}
	}
	b.WriteString(")]")
	return b.String()
}

func formatArgument(arg AttributeArgument) string {
	switch v := arg.Value.(type) {
	case nil:
		return "null"
	case string:
		return `"` + v + `"`
	case *Type:
		return "typeof(" + v.String() + ")"
	case []AttributeArgument:
		parts := make([]string, len(v))
		for i, e := range v {
			parts[i] = formatArgument(e)
		}
		return "{" + strings.Join(parts, ", ") + "}"
	default:
		return fmt.Sprint(v)
	}
}

// CustomAttributes returns decoded and pseudo attributes of the type.
// Instances report the attributes of their definition.
func (t *Type) CustomAttributes() ([]*CustomAttribute, error) {
	if err := t.module.lc().check(); err != nil {
		return nil, err
	}
	switch t.kind {
	case KindDefinition:
		return t.attrs.Get(func() ([]*CustomAttribute, error) {
			out := t.module.decodedAttributes(t.row.CustomAttributes)
			pseudo, err := t.pseudoAttributes()
			if err != nil {
				return nil, err
			}
			return append(out, pseudo...), nil
		})
	case KindGenericInstance:
		return t.elem.CustomAttributes()
	case KindGenericParameter:
		return t.attrs.Get(func() ([]*CustomAttribute, error) {
			return t.module.decodedAttributes(t.gp.attrs), nil
		})
	default:
		return nil, nil
	}
}

// CustomAttributes returns decoded and pseudo attributes of the method.
func (m *Method) CustomAttributes() ([]*CustomAttribute, error) {
	c := m.core
	if err := c.module.lc().check(); err != nil {
		return nil, err
	}
	if c.generic != nil {
		return c.generic.CustomAttributes()
	}
	return c.attrs.Get(func() ([]*CustomAttribute, error) {
		if c.row == nil {
			return nil, nil
		}
		out := c.module.decodedAttributes(c.row.CustomAttributes)
		pseudo, err := m.pseudoAttributes()
		if err != nil {
			return nil, err
		}
		return append(out, pseudo...), nil
	})
}

// AttributesOfType filters attrs down to those whose type has fullName.
func AttributesOfType(attrs []*CustomAttribute, fullName string) ([]*CustomAttribute, error) {
	var out []*CustomAttribute
	for _, a := range attrs {
		t, err := a.AttributeType()
		if err != nil {
			return nil, err
		}
		if t.FullName() == fullName {
			out = append(out, a)
		}
	}
	return out, nil
}
