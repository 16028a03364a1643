package reflection

import (
	"math/big"
	"strings"
	"time"

	"github.com/wippyai/metareflect/errors"
	"github.com/wippyai/metareflect/internal/lazy"
	"github.com/wippyai/metareflect/metadata"
)

// Parameter describes a method parameter or, at position -1, the return
// value, as seen from the method it was obtained from.
type Parameter struct {
	*paramCore
	member *Method
}

type paramCore struct {
	method   *methodCore
	row      *metadata.ParamRow
	typ      *Type
	required []*Type
	optional []*Type
	token    metadata.Token
	position int

	attrs lazy.Cell[[]*CustomAttribute]
	deflt lazy.Cell[defaultValue]
}

type defaultValue struct {
	value any
	ok    bool
}

// Member returns the method the parameter belongs to.
func (p *Parameter) Member() *Method { return p.member }

// Position is the zero-based index, or -1 for the return value.
func (p *Parameter) Position() int { return p.position }

// Name returns the declared name, or "" when the metadata has none.
func (p *Parameter) Name() string {
	if p.row == nil {
		return ""
	}
	return p.row.Name
}

// Token returns the Param token, or 0 when there is no Param row.
func (p *Parameter) Token() metadata.Token { return p.token }

// ParameterType returns the specialized parameter type.
func (p *Parameter) ParameterType() (*Type, error) {
	if err := p.method.module.lc().check(); err != nil {
		return nil, err
	}
	return p.typ, nil
}

// Attributes returns the parameter flags.
func (p *Parameter) Attributes() metadata.ParamAttributes {
	if p.row == nil {
		return 0
	}
	return p.row.Flags
}

// IsIn reports whether the parameter is marked [In].
func (p *Parameter) IsIn() bool { return p.Attributes()&metadata.ParamIn != 0 }

// IsOut reports whether the parameter is marked [Out].
func (p *Parameter) IsOut() bool { return p.Attributes()&metadata.ParamOut != 0 }

// IsOptional reports whether the parameter may be omitted.
func (p *Parameter) IsOptional() bool { return p.Attributes()&metadata.ParamOptional != 0 }

// IsRetval reports whether the parameter is marked as the return value.
func (p *Parameter) IsRetval() bool { return p.Attributes()&metadata.ParamRetval != 0 }

// RequiredCustomModifiers returns the modreq types of the signature position.
func (p *Parameter) RequiredCustomModifiers() []*Type { return p.required }

// OptionalCustomModifiers returns the modopt types of the signature position.
func (p *Parameter) OptionalCustomModifiers() []*Type { return p.optional }

// HasDefaultValue reports whether DefaultValue has a value.
func (p *Parameter) HasDefaultValue() (bool, error) {
	_, ok, err := p.DefaultValue()
	return ok, err
}

// DefaultValue returns the default of an optional parameter: the constant
// row when present, else a DateTimeConstantAttribute as time.Time, else a
// DecimalConstantAttribute as Decimal. ok is false when none applies.
func (p *Parameter) DefaultValue() (value any, ok bool, err error) {
	if err := p.method.module.lc().check(); err != nil {
		return nil, false, err
	}
	d, err := p.deflt.Get(p.computeDefault)
	return d.value, d.ok, err
}

func (p *Parameter) computeDefault() (defaultValue, error) {
	if p.row == nil {
		return defaultValue{}, nil
	}
	if c := p.row.Constant; c != nil {
		v, err := c.Value()
		if err != nil {
			return defaultValue{}, errors.Wrap(errors.PhaseDecode, errors.KindMalformedInput, err, "parameter "+p.row.Name+" default")
		}
		return defaultValue{value: v, ok: true}, nil
	}

	for _, tok := range p.row.CustomAttributes {
		ca := &CustomAttribute{module: p.method.module, token: tok}
		at, err := ca.AttributeType()
		if err != nil {
			return defaultValue{}, err
		}
		switch at.FullName() {
		case "System.Runtime.CompilerServices.DateTimeConstantAttribute":
			args, err := ca.FixedArguments()
			if err != nil {
				return defaultValue{}, err
			}
			if len(args) == 1 {
				if ticks, ok := args[0].Value.(int64); ok {
					return defaultValue{value: TicksToTime(ticks), ok: true}, nil
				}
			}
		case "System.Runtime.CompilerServices.DecimalConstantAttribute":
			args, err := ca.FixedArguments()
			if err != nil {
				return defaultValue{}, err
			}
			if d, ok := decimalFromArgs(args); ok {
				return defaultValue{value: d, ok: true}, nil
			}
		}
	}
	return defaultValue{}, nil
}

// CustomAttributes returns decoded and pseudo attributes of the parameter.
func (p *Parameter) CustomAttributes() ([]*CustomAttribute, error) {
	if err := p.method.module.lc().check(); err != nil {
		return nil, err
	}
	return p.attrs.Get(func() ([]*CustomAttribute, error) {
		if p.row == nil {
			return nil, nil
		}
		out := p.method.module.decodedAttributes(p.row.CustomAttributes)
		pseudo, err := p.pseudoAttributes()
		if err != nil {
			return nil, err
		}
		return append(out, pseudo...), nil
	})
}

func (p *Parameter) String() string {
	if p.position < 0 {
		return p.typ.String()
	}
	return p.typ.String() + " " + p.Name()
}

var ticksEpoch = time.Date(1, time.January, 1, 0, 0, 0, 0, time.UTC)

const ticksPerDay = 24 * 60 * 60 * 10_000_000

// TicksToTime converts 100-nanosecond ticks since 0001-01-01 UTC.
func TicksToTime(ticks int64) time.Time {
	days := ticks / ticksPerDay
	rem := ticks % ticksPerDay
	return ticksEpoch.AddDate(0, 0, int(days)).Add(time.Duration(rem) * 100)
}

// Decimal is a 96-bit scaled decimal as stored by DecimalConstantAttribute.
type Decimal struct {
	Hi, Mid, Lo uint32
	Scale       uint8
	Negative    bool
}

// Int returns the unscaled magnitude with its sign.
func (d Decimal) Int() *big.Int {
	v := new(big.Int).SetUint64(uint64(d.Hi))
	v.Lsh(v, 32)
	v.Or(v, new(big.Int).SetUint64(uint64(d.Mid)))
	v.Lsh(v, 32)
	v.Or(v, new(big.Int).SetUint64(uint64(d.Lo)))
	if d.Negative {
		v.Neg(v)
	}
	return v
}

func (d Decimal) String() string {
	v := d.Int()
	neg := v.Sign() < 0
	digits := new(big.Int).Abs(v).String()
	if s := int(d.Scale); s > 0 {
		if len(digits) <= s {
			digits = strings.Repeat("0", s-len(digits)+1) + digits
		}
		digits = digits[:len(digits)-s] + "." + digits[len(digits)-s:]
	}
	if neg {
		return "-" + digits
	}
	return digits
}

// decimalFromArgs accepts both constructor shapes:
// (byte scale, byte sign, uint hi, uint mid, uint lo) and the int variant.
func decimalFromArgs(args []AttributeArgument) (Decimal, bool) {
	if len(args) != 5 {
		return Decimal{}, false
	}
	scale, ok1 := args[0].Value.(uint8)
	sign, ok2 := args[1].Value.(uint8)
	if !ok1 || !ok2 {
		return Decimal{}, false
	}
	var parts [3]uint32
	for i := range parts {
		switch v := args[2+i].Value.(type) {
		case uint32:
			parts[i] = v
		case int32:
			parts[i] = uint32(v)
		default:
			return Decimal{}, false
		}
	}
	return Decimal{Scale: scale, Negative: sign != 0, Hi: parts[0], Mid: parts[1], Lo: parts[2]}, true
}
