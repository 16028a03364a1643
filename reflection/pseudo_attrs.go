package reflection

import (
	"github.com/wippyai/metareflect/errors"
	"github.com/wippyai/metareflect/metadata"
)

const (
	interop  = "System.Runtime.InteropServices."
	typeBool = "System.Boolean"
	typeStr  = "System.String"
	typeI2   = "System.Int16"
	typeI4   = "System.Int32"
)

// pseudoBuilder synthesizes attributes from flags, looking attribute types
// up in the core assembly. Attributes the core does not define are skipped.
type pseudoBuilder struct {
	lc  *LoadContext
	out []*CustomAttribute
}

// namedValue is a named argument whose type is looked up lazily.
type namedValue struct {
	name     string
	typeName string
	value    any
}

// coreOptional returns nil, nil when the core assembly lacks the type.
func (b *pseudoBuilder) coreOptional(name string) (*Type, error) {
	t, err := b.lc.coreType(name)
	if errors.IsKind(err, errors.KindNotFound) {
		return nil, nil
	}
	return t, err
}

// add synthesizes attr(fixed...) { named... }. The first constructor shape
// whose parameter types all exist and match wins.
func (b *pseudoBuilder) add(attr string, shapes [][]string, fixed []any, named []namedValue) error {
	at, err := b.coreOptional(attr)
	if err != nil || at == nil {
		return err
	}

	var ctor *Method
	var params []*Type
	for _, shape := range shapes {
		params = params[:0]
		complete := true
		for _, name := range shape {
			pt, err := b.coreOptional(name)
			if err != nil {
				return err
			}
			if pt == nil {
				complete = false
				break
			}
			params = append(params, pt)
		}
		if !complete {
			continue
		}
		ctor, err = at.Constructor(Public|Instance, params...)
		if errors.IsKind(err, errors.KindNotFound) {
			ctor = nil
			continue
		}
		if err != nil {
			return err
		}
		break
	}
	if ctor == nil {
		return nil
	}

	argTypes := append([]*Type(nil), params...)
	synth := &synthesized{
		ctor: ctor,
		args: func() (attributeArgs, error) {
			var out attributeArgs
			for i, v := range fixed {
				out.fixed = append(out.fixed, AttributeArgument{Type: argTypes[i], Value: v})
			}
			for _, n := range named {
				nt, err := b.coreOptional(n.typeName)
				if err != nil {
					return attributeArgs{}, err
				}
				if nt == nil {
					continue
				}
				out.named = append(out.named, NamedArgument{
					Name:     n.name,
					IsField:  true,
					Argument: AttributeArgument{Type: nt, Value: n.value},
				})
			}
			return out, nil
		},
	}
	b.out = append(b.out, &CustomAttribute{module: ctor.Module(), synth: synth})
	return nil
}

func (b *pseudoBuilder) marker(attr string, set bool) error {
	if !set {
		return nil
	}
	return b.add(attr, [][]string{{}}, nil, nil)
}

func (b *pseudoBuilder) marshalAs(mi *metadata.MarshalInfo) error {
	if mi == nil {
		return nil
	}
	var named []namedValue
	if mi.ArraySubType != 0 {
		named = append(named, namedValue{"ArraySubType", interop + "UnmanagedType", int32(mi.ArraySubType)})
	}
	if mi.SizeParamIndex >= 0 {
		named = append(named, namedValue{"SizeParamIndex", typeI2, int16(mi.SizeParamIndex)})
	}
	if mi.SizeConst >= 0 {
		named = append(named, namedValue{"SizeConst", typeI4, mi.SizeConst})
	}
	if mi.SafeArraySubType != 0 {
		named = append(named, namedValue{"SafeArraySubType", interop + "VarEnum", mi.SafeArraySubType})
	}
	if mi.MarshalType != "" {
		named = append(named, namedValue{"MarshalType", typeStr, mi.MarshalType})
	}
	if mi.MarshalCookie != "" {
		named = append(named, namedValue{"MarshalCookie", typeStr, mi.MarshalCookie})
	}

	attr := interop + "MarshalAsAttribute"
	at, err := b.coreOptional(interop + "UnmanagedType")
	if err != nil {
		return err
	}
	if at != nil {
		before := len(b.out)
		if err := b.add(attr, [][]string{{interop + "UnmanagedType"}}, []any{int32(mi.NativeType)}, named); err != nil || len(b.out) > before {
			return err
		}
	}
	return b.add(attr, [][]string{{typeI2}}, []any{int16(mi.NativeType)}, named)
}

func (t *Type) pseudoAttributes() ([]*CustomAttribute, error) {
	b := &pseudoBuilder{lc: t.module.lc()}
	flags := t.row.Flags
	if err := b.marker("System.SerializableAttribute", flags&metadata.TypeSerializable != 0); err != nil {
		return nil, err
	}
	if err := b.marker(interop+"ComImportAttribute", flags&metadata.TypeImport != 0); err != nil {
		return nil, err
	}
	return b.out, nil
}

func (m *Method) pseudoAttributes() ([]*CustomAttribute, error) {
	b := &pseudoBuilder{lc: m.core.module.lc()}
	row := m.core.row
	preserveSig := row.ImplFlags&metadata.ImplPreserveSig != 0

	if im := row.ImplMap; im != nil && row.Flags&metadata.MethodPinvokeImpl != 0 {
		f := im.Flags
		named := []namedValue{
			{"EntryPoint", typeStr, im.ImportName},
			{"CharSet", interop + "CharSet", charSetValue(f)},
			{"ExactSpelling", typeBool, f&metadata.PInvokeNoMangle != 0},
			{"SetLastError", typeBool, f&metadata.PInvokeSupportsLastError != 0},
			{"PreserveSig", typeBool, preserveSig},
			{"CallingConvention", interop + "CallingConvention", int32(f&metadata.PInvokeCallConvMask) >> 8},
			{"BestFitMapping", typeBool, f&metadata.PInvokeBestFitEnabled != 0},
			{"ThrowOnUnmappableChar", typeBool, f&metadata.PInvokeThrowOnUnmappableCharEnabled != 0},
		}
		if err := b.add(interop+"DllImportAttribute", [][]string{{typeStr}}, []any{im.ImportScope}, named); err != nil {
			return nil, err
		}
		return b.out, nil
	}
	if err := b.marker(interop+"PreserveSigAttribute", preserveSig); err != nil {
		return nil, err
	}
	return b.out, nil
}

// charSetValue maps pinvoke flags to System.Runtime.InteropServices.CharSet.
func charSetValue(f metadata.PInvokeAttributes) int32 {
	switch f & metadata.PInvokeCharSetMask {
	case metadata.PInvokeCharSetAnsi:
		return 2
	case metadata.PInvokeCharSetUnicode:
		return 3
	case metadata.PInvokeCharSetAuto:
		return 4
	default:
		return 1
	}
}

func (f *Field) pseudoAttributes() ([]*CustomAttribute, error) {
	b := &pseudoBuilder{lc: f.core.module.lc()}
	row := f.core.row
	if row.Offset != nil {
		if err := b.add(interop+"FieldOffsetAttribute", [][]string{{typeI4}}, []any{int32(*row.Offset)}, nil); err != nil {
			return nil, err
		}
	}
	if err := b.marshalAs(row.Marshal); err != nil {
		return nil, err
	}
	if err := b.marker("System.NonSerializedAttribute", row.Flags&metadata.FieldNotSerialized != 0); err != nil {
		return nil, err
	}
	return b.out, nil
}

func (p *Parameter) pseudoAttributes() ([]*CustomAttribute, error) {
	b := &pseudoBuilder{lc: p.method.module.lc()}
	flags := p.row.Flags
	markers := []struct {
		attr string
		set  bool
	}{
		{interop + "InAttribute", flags&metadata.ParamIn != 0},
		{interop + "OutAttribute", flags&metadata.ParamOut != 0},
		{interop + "OptionalAttribute", flags&metadata.ParamOptional != 0},
	}
	for _, mk := range markers {
		if err := b.marker(mk.attr, mk.set); err != nil {
			return nil, err
		}
	}
	if err := b.marshalAs(p.row.Marshal); err != nil {
		return nil, err
	}
	return b.out, nil
}
