package reflection

import (
	"github.com/wippyai/metareflect/errors"
	"github.com/wippyai/metareflect/internal/lazy"
	"github.com/wippyai/metareflect/metadata"
)

// Field describes a field as seen from its reflected type.
type Field struct {
	core      *fieldCore
	reflected *Type
}

type fieldCore struct {
	module    *Module
	declaring *Type
	row       *metadata.FieldRow
	token     metadata.Token

	typ   lazy.Cell[fieldType]
	attrs lazy.Cell[[]*CustomAttribute]
}

type fieldType struct {
	typ      *Type
	required []*Type
	optional []*Type
}

func (t *Type) declaredFields() ([]*Field, error) {
	if err := t.module.lc().check(); err != nil {
		return nil, err
	}
	return t.fields.Get(func() ([]*Field, error) {
		if !t.isNominal() {
			return nil, nil
		}
		def := t.definition()
		out := make([]*Field, 0, len(def.row.Fields))
		for _, tok := range def.row.Fields {
			row, err := def.module.reader.Field(tok)
			if err != nil {
				return nil, err
			}
			core := &fieldCore{module: def.module, declaring: t, row: &row, token: tok}
			out = append(out, &Field{core: core, reflected: t})
		}
		return out, nil
	})
}

func (f *Field) reflectedAs(rt *Type) *Field {
	if f.reflected == rt {
		return f
	}
	return &Field{core: f.core, reflected: rt}
}

// Name returns the field name.
func (f *Field) Name() string { return f.core.row.Name }

// MemberKind returns MemberField.
func (f *Field) MemberKind() MemberKind { return MemberField }

// DeclaringType returns the type that declares the field.
func (f *Field) DeclaringType() *Type { return f.core.declaring }

// ReflectedType returns the type the field was obtained from.
func (f *Field) ReflectedType() *Type { return f.reflected }

// Module returns the module that defines the field.
func (f *Field) Module() *Module { return f.core.module }

// Token returns the Field token.
func (f *Field) Token() metadata.Token { return f.core.token }

// Attributes returns the field flags.
func (f *Field) Attributes() metadata.FieldAttributes { return f.core.row.Flags }

// IsStatic reports whether the field belongs to the type rather than an instance.
func (f *Field) IsStatic() bool { return f.Attributes()&metadata.FieldStatic != 0 }

// IsLiteral reports whether the field is a compile-time constant.
func (f *Field) IsLiteral() bool { return f.Attributes()&metadata.FieldLiteral != 0 }

// IsInitOnly reports whether the field is set only in constructors.
func (f *Field) IsInitOnly() bool { return f.Attributes()&metadata.FieldInitOnly != 0 }

// IsPublic reports whether the field is public.
func (f *Field) IsPublic() bool { return f.Attributes().Access() == metadata.FieldPublic }

// IsPrivate reports whether the field is private.
func (f *Field) IsPrivate() bool { return f.Attributes().Access() == metadata.FieldPrivate }

func (f *Field) resolved() (fieldType, error) {
	if err := f.core.module.lc().check(); err != nil {
		return fieldType{}, err
	}
	c := f.core
	return c.typ.Get(func() (fieldType, error) {
		ctx := GenericContext{}
		var err error
		if ctx.TypeArgs, err = c.declaring.GenericArguments(); err != nil {
			return fieldType{}, err
		}
		sig := c.row.Signature
		typ, err := c.module.resolveSig(sig.Type, ctx)
		if err != nil {
			return fieldType{}, err
		}
		req, opt, err := c.module.modifiers(sig.Modifiers, sig.Type, ctx)
		if err != nil {
			return fieldType{}, err
		}
		return fieldType{typ: typ, required: req, optional: opt}, nil
	})
}

// FieldType returns the specialized field type.
func (f *Field) FieldType() (*Type, error) {
	ft, err := f.resolved()
	return ft.typ, err
}

// RequiredCustomModifiers returns the modreq types of the field signature.
func (f *Field) RequiredCustomModifiers() ([]*Type, error) {
	ft, err := f.resolved()
	return ft.required, err
}

// OptionalCustomModifiers returns the modopt types of the field signature.
func (f *Field) OptionalCustomModifiers() ([]*Type, error) {
	ft, err := f.resolved()
	return ft.optional, err
}

// LiteralValue decodes the constant of a literal field.
func (f *Field) LiteralValue() (any, error) {
	if err := f.core.module.lc().check(); err != nil {
		return nil, err
	}
	c := f.core.row.Constant
	if c == nil {
		return nil, errors.New(errors.PhaseQuery, errors.KindInvalidInput).
			Type(f.core.declaring.String()).Member(f.Name()).Detail("field has no constant value").Build()
	}
	v, err := c.Value()
	if err != nil {
		return nil, errors.Wrap(errors.PhaseDecode, errors.KindMalformedInput, err, "field "+f.Name()+" constant")
	}
	return v, nil
}

// Offset returns the explicit layout offset, if any.
func (f *Field) Offset() (int, bool) {
	if f.core.row.Offset == nil {
		return 0, false
	}
	return int(*f.core.row.Offset), true
}

// Marshal returns the marshaling descriptor, if any.
func (f *Field) Marshal() *metadata.MarshalInfo { return f.core.row.Marshal }

// CustomAttributes returns decoded and pseudo attributes of the field.
func (f *Field) CustomAttributes() ([]*CustomAttribute, error) {
	if err := f.core.module.lc().check(); err != nil {
		return nil, err
	}
	c := f.core
	return c.attrs.Get(func() ([]*CustomAttribute, error) {
		out := c.module.decodedAttributes(c.row.CustomAttributes)
		pseudo, err := f.pseudoAttributes()
		if err != nil {
			return nil, err
		}
		return append(out, pseudo...), nil
	})
}

func (f *Field) String() string {
	if t, err := f.FieldType(); err == nil {
		return t.String() + " " + f.Name()
	}
	return "? " + f.Name()
}
