package witproj

import (
	"strings"
	"unicode"

	"go.bytecodealliance.org/wit"
	"go.uber.org/zap"

	"github.com/wippyai/metareflect/errors"
	"github.com/wippyai/metareflect/reflection"
	"github.com/wippyai/metareflect/witproj/internal/layout"
)

var primitives = map[string]wit.Type{
	"System.Boolean": wit.Bool{},
	"System.SByte":   wit.S8{},
	"System.Byte":    wit.U8{},
	"System.Int16":   wit.S16{},
	"System.UInt16":  wit.U16{},
	"System.Int32":   wit.S32{},
	"System.UInt32":  wit.U32{},
	"System.Int64":   wit.S64{},
	"System.UInt64":  wit.U64{},
	"System.Single":  wit.F32{},
	"System.Double":  wit.F64{},
	"System.Char":    wit.Char{},
	"System.String":  wit.String{},
}

// opaque value types have no fixed-size WIT form.
var opaque = map[string]bool{
	"System.IntPtr":         true,
	"System.UIntPtr":        true,
	"System.TypedReference": true,
	"System.Void":           true,
}

const (
	nullableName   = "System.Nullable`1"
	valueTupleName = "System.ValueTuple`"
	flagsAttribute = "System.FlagsAttribute"
	voidName       = "System.Void"
)

// Param is one projected method parameter.
type Param struct {
	Type wit.Type
	Name string
}

// Signature is the projection of a method. Result is nil for void methods.
type Signature struct {
	Result         wit.Type
	Params         []Param
	FlatParams     int
	FlatResults    int
	ParamsInMemory bool
	ResultInMemory bool
}

// Projector memoizes projections so a descriptor maps to one WIT type.
// Not safe for concurrent use.
type Projector struct {
	calc  *layout.Calculator
	types map[*reflection.Type]wit.Type
}

// New creates an empty projector.
func New() *Projector {
	return &Projector{
		calc:  layout.NewCalculator(),
		types: make(map[*reflection.Type]wit.Type),
	}
}

// Project projects t with a fresh projector.
func Project(t *reflection.Type) (wit.Type, error) {
	return New().Project(t)
}

// Project returns the WIT type for t.
func (p *Projector) Project(t *reflection.Type) (wit.Type, error) {
	if t == nil {
		return nil, errors.InvalidInput(errors.PhaseProject, "nil type")
	}
	if wt, ok := p.types[t]; ok {
		return wt, nil
	}
	if wt, ok := primitives[t.FullName()]; ok {
		p.types[t] = wt
		return wt, nil
	}

	var (
		wt  wit.Type
		err error
	)
	switch {
	case opaque[t.FullName()]:
		return nil, unsupported(t)
	case t.IsSZArray():
		wt, err = p.list(t)
	case t.IsConstructedGenericType():
		wt, err = p.instance(t)
	case t.IsEnum():
		wt, err = p.enum(t)
	case t.IsValueType() && !t.IsGenericTypeDefinition() && !t.IsGenericParameter() && t.Kind() == reflection.KindDefinition:
		wt, err = p.record(t)
	default:
		return nil, unsupported(t)
	}
	if err != nil {
		delete(p.types, t)
		return nil, err
	}
	p.types[t] = wt
	return wt, nil
}

func unsupported(t *reflection.Type) error {
	return errors.New(errors.PhaseProject, errors.KindUnsupported).
		Type(t.String()).
		Detail("no WIT representation").
		Build()
}

func (p *Projector) list(t *reflection.Type) (wit.Type, error) {
	elem, err := p.Project(t.ElementType())
	if err != nil {
		return nil, err
	}
	return &wit.TypeDef{Kind: &wit.List{Type: elem}}, nil
}

func (p *Projector) instance(t *reflection.Type) (wit.Type, error) {
	def, err := t.GenericTypeDefinition()
	if err != nil {
		return nil, err
	}
	args, err := t.GenericArguments()
	if err != nil {
		return nil, err
	}

	switch name := def.FullName(); {
	case name == nullableName:
		inner, err := p.Project(args[0])
		if err != nil {
			return nil, err
		}
		return &wit.TypeDef{Kind: &wit.Option{Type: inner}}, nil
	case strings.HasPrefix(name, valueTupleName):
		types := make([]wit.Type, len(args))
		for i, a := range args {
			if types[i], err = p.Project(a); err != nil {
				return nil, err
			}
		}
		return &wit.TypeDef{Kind: &wit.Tuple{Types: types}}, nil
	default:
		return nil, unsupported(t)
	}
}

func (p *Projector) enum(t *reflection.Type) (wit.Type, error) {
	attrs, err := t.CustomAttributes()
	if err != nil {
		return nil, err
	}
	flagged, err := reflection.AttributesOfType(attrs, flagsAttribute)
	if err != nil {
		return nil, err
	}
	fields, err := t.Fields(reflection.Public | reflection.Static | reflection.DeclaredOnly)
	if err != nil {
		return nil, err
	}

	name := kebab(t.Name())
	td := &wit.TypeDef{Name: &name}
	if len(flagged) > 0 {
		kind := &wit.Flags{}
		for _, f := range fields {
			if !f.IsLiteral() || isZero(f) {
				continue
			}
			kind.Flags = append(kind.Flags, wit.Flag{Name: kebab(f.Name())})
		}
		td.Kind = kind
		return td, nil
	}

	kind := &wit.Enum{}
	for _, f := range fields {
		if f.IsLiteral() {
			kind.Cases = append(kind.Cases, wit.EnumCase{Name: kebab(f.Name())})
		}
	}
	td.Kind = kind
	return td, nil
}

func isZero(f *reflection.Field) bool {
	v, err := f.LiteralValue()
	if err != nil {
		return false
	}
	switch x := v.(type) {
	case int8:
		return x == 0
	case uint8:
		return x == 0
	case int16:
		return x == 0
	case uint16:
		return x == 0
	case int32:
		return x == 0
	case uint32:
		return x == 0
	case int64:
		return x == 0
	case uint64:
		return x == 0
	}
	return false
}

func (p *Projector) record(t *reflection.Type) (wit.Type, error) {
	name := kebab(t.Name())
	td := &wit.TypeDef{Name: &name}
	// Placeholder for self-references through lists.
	p.types[t] = td

	fields, err := t.Fields(reflection.Public | reflection.Instance | reflection.DeclaredOnly)
	if err != nil {
		return nil, err
	}
	kind := &wit.Record{Fields: make([]wit.Field, 0, len(fields))}
	for _, f := range fields {
		ft, err := f.FieldType()
		if err != nil {
			return nil, err
		}
		if ft == t {
			return nil, unsupported(t)
		}
		wt, err := p.Project(ft)
		if err != nil {
			return nil, err
		}
		kind.Fields = append(kind.Fields, wit.Field{Name: kebab(f.Name()), Type: wt})
	}
	td.Kind = kind
	Logger().Debug("projected record",
		zap.String("type", t.String()),
		zap.Int("fields", len(kind.Fields)))
	return td, nil
}

// SizeAlign returns the Canonical ABI size and alignment of t.
func (p *Projector) SizeAlign(t *reflection.Type) (size, align uint32, err error) {
	wt, err := p.Project(t)
	if err != nil {
		return 0, 0, err
	}
	info := p.calc.Calculate(wt)
	return info.Size, info.Align, nil
}

// ProjectMethod projects the parameters and return type of m. The implicit
// receiver of instance methods is not part of the signature.
func (p *Projector) ProjectMethod(m *reflection.Method) (*Signature, error) {
	if m == nil {
		return nil, errors.InvalidInput(errors.PhaseProject, "nil method")
	}
	params, err := m.Parameters()
	if err != nil {
		return nil, err
	}

	sig := &Signature{Params: make([]Param, 0, len(params))}
	for _, prm := range params {
		pt, err := prm.ParameterType()
		if err != nil {
			return nil, err
		}
		wt, err := p.Project(pt)
		if err != nil {
			return nil, errors.New(errors.PhaseProject, errors.KindUnsupported).
				Member(m.Name()).
				Detail("parameter %q", prm.Name()).
				Cause(err).
				Build()
		}
		sig.Params = append(sig.Params, Param{Name: kebab(prm.Name()), Type: wt})
		sig.FlatParams += layout.FlatCount(wt)
	}

	ret, err := m.ReturnType()
	if err != nil {
		return nil, err
	}
	if ret.FullName() != voidName {
		if sig.Result, err = p.Project(ret); err != nil {
			return nil, err
		}
		sig.FlatResults = layout.FlatCount(sig.Result)
	}
	sig.ParamsInMemory = sig.FlatParams > layout.MaxFlatParams
	sig.ResultInMemory = sig.FlatResults > layout.MaxFlatResults
	return sig, nil
}

// kebab converts a CLI identifier to a WIT name: "HttpServer`1" becomes
// "http-server", "IOMode" becomes "io-mode".
func kebab(s string) string {
	if i := strings.IndexByte(s, '`'); i >= 0 {
		s = s[:i]
	}
	runes := []rune(s)
	var b strings.Builder
	for i, r := range runes {
		if r == '_' || r == '-' {
			if b.Len() > 0 && !strings.HasSuffix(b.String(), "-") {
				b.WriteByte('-')
			}
			continue
		}
		if unicode.IsUpper(r) && i > 0 && b.Len() > 0 && !strings.HasSuffix(b.String(), "-") {
			prev := runes[i-1]
			nextLower := i+1 < len(runes) && unicode.IsLower(runes[i+1])
			if unicode.IsLower(prev) || unicode.IsDigit(prev) || (unicode.IsUpper(prev) && nextLower) {
				b.WriteByte('-')
			}
		}
		b.WriteRune(unicode.ToLower(r))
	}
	return strings.TrimSuffix(b.String(), "-")
}
