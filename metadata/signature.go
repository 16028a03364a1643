package metadata

import (
	"strconv"
	"strings"
)

// ElementType is the ECMA-335 signature element type.
type ElementType uint8

const (
	ElementEnd         ElementType = 0x00
	ElementVoid        ElementType = 0x01
	ElementBoolean     ElementType = 0x02
	ElementChar        ElementType = 0x03
	ElementI1          ElementType = 0x04
	ElementU1          ElementType = 0x05
	ElementI2          ElementType = 0x06
	ElementU2          ElementType = 0x07
	ElementI4          ElementType = 0x08
	ElementU4          ElementType = 0x09
	ElementI8          ElementType = 0x0A
	ElementU8          ElementType = 0x0B
	ElementR4          ElementType = 0x0C
	ElementR8          ElementType = 0x0D
	ElementString      ElementType = 0x0E
	ElementPtr         ElementType = 0x0F
	ElementByRef       ElementType = 0x10
	ElementValueType   ElementType = 0x11
	ElementClass       ElementType = 0x12
	ElementVar         ElementType = 0x13
	ElementArray       ElementType = 0x14
	ElementGenericInst ElementType = 0x15
	ElementTypedByRef  ElementType = 0x16
	ElementI           ElementType = 0x18
	ElementU           ElementType = 0x19
	ElementFnPtr       ElementType = 0x1B
	ElementObject      ElementType = 0x1C
	ElementSZArray     ElementType = 0x1D
	ElementMVar        ElementType = 0x1E
	ElementCModReqd    ElementType = 0x1F
	ElementCModOpt     ElementType = 0x20
)

var elementNames = map[ElementType]string{
	ElementVoid:       "void",
	ElementBoolean:    "bool",
	ElementChar:       "char",
	ElementI1:         "int8",
	ElementU1:         "uint8",
	ElementI2:         "int16",
	ElementU2:         "uint16",
	ElementI4:         "int32",
	ElementU4:         "uint32",
	ElementI8:         "int64",
	ElementU8:         "uint64",
	ElementR4:         "float32",
	ElementR8:         "float64",
	ElementString:     "string",
	ElementTypedByRef: "typedref",
	ElementI:          "native int",
	ElementU:          "native uint",
	ElementObject:     "object",
}

func (e ElementType) String() string {
	if n, ok := elementNames[e]; ok {
		return n
	}
	return "element(0x" + strconv.FormatUint(uint64(e), 16) + ")"
}

// IsPrimitive reports whether e stands alone in a signature without a token.
func (e ElementType) IsPrimitive() bool {
	_, ok := elementNames[e]
	return ok
}

// SigKind discriminates TypeSig nodes.
type SigKind uint8

const (
	SigInvalid SigKind = iota
	SigPrimitive
	SigClass
	SigValueType
	SigGenericInst
	SigSZArray
	SigArray
	SigPointer
	SigByRef
	SigVar
	SigMVar
	SigModified
)

func (k SigKind) String() string {
	switch k {
	case SigPrimitive:
		return "primitive"
	case SigClass:
		return "class"
	case SigValueType:
		return "valuetype"
	case SigGenericInst:
		return "genericinst"
	case SigSZArray:
		return "szarray"
	case SigArray:
		return "array"
	case SigPointer:
		return "ptr"
	case SigByRef:
		return "byref"
	case SigVar:
		return "var"
	case SigMVar:
		return "mvar"
	case SigModified:
		return "modified"
	default:
		return "invalid"
	}
}

// TypeSig is a decoded type signature.
//
// Which fields are meaningful depends on Kind:
//
//	SigPrimitive              Element
//	SigClass, SigValueType    Token (TypeDef, TypeRef or TypeSpec)
//	SigGenericInst            Elem (the generic type), Args
//	SigSZArray, SigPointer,
//	SigByRef                  Elem
//	SigArray                  Elem, Rank, Sizes, LowerBounds
//	SigVar, SigMVar           Number
//	SigModified               Token (modifier type), Required, Elem
type TypeSig struct {
	Elem        *TypeSig
	Args        []TypeSig
	Sizes       []int
	LowerBounds []int
	Rank        int
	Number      int
	Token       Token
	Kind        SigKind
	Element     ElementType
	Required    bool
}

// Prim returns a primitive signature.
func Prim(e ElementType) TypeSig { return TypeSig{Kind: SigPrimitive, Element: e} }

// Class returns a reference-type signature for a TypeDef/TypeRef/TypeSpec token.
func Class(t Token) TypeSig { return TypeSig{Kind: SigClass, Token: t} }

// ValueType returns a value-type signature for a TypeDef/TypeRef token.
func ValueType(t Token) TypeSig { return TypeSig{Kind: SigValueType, Token: t} }

// Var returns a reference to the type's generic parameter n.
func Var(n int) TypeSig { return TypeSig{Kind: SigVar, Number: n} }

// MVar returns a reference to the method's generic parameter n.
func MVar(n int) TypeSig { return TypeSig{Kind: SigMVar, Number: n} }

// SZArray returns a single-dimensional zero-based array signature.
func SZArray(elem TypeSig) TypeSig { return TypeSig{Kind: SigSZArray, Elem: &elem} }

// Array returns a general array signature of the given rank.
func Array(elem TypeSig, rank int) TypeSig { return TypeSig{Kind: SigArray, Elem: &elem, Rank: rank} }

// Ptr returns an unmanaged pointer signature.
func Ptr(elem TypeSig) TypeSig { return TypeSig{Kind: SigPointer, Elem: &elem} }

// ByRef returns a managed reference signature.
func ByRef(elem TypeSig) TypeSig { return TypeSig{Kind: SigByRef, Elem: &elem} }

// GenericInst returns an instantiation of generic with args.
func GenericInst(generic TypeSig, args ...TypeSig) TypeSig {
	return TypeSig{Kind: SigGenericInst, Elem: &generic, Args: args}
}

// Modified wraps elem with a custom modifier.
func Modified(elem TypeSig, modifier Token, required bool) TypeSig {
	return TypeSig{Kind: SigModified, Elem: &elem, Token: modifier, Required: required}
}

// String renders the signature in a compact ILAsm-like form.
func (s TypeSig) String() string {
	var b strings.Builder
	s.write(&b)
	return b.String()
}

func (s TypeSig) write(b *strings.Builder) {
	switch s.Kind {
	case SigPrimitive:
		b.WriteString(s.Element.String())
	case SigClass:
		b.WriteString("class ")
		b.WriteString(s.Token.String())
	case SigValueType:
		b.WriteString("valuetype ")
		b.WriteString(s.Token.String())
	case SigGenericInst:
		s.elem().write(b)
		b.WriteByte('<')
		for i, a := range s.Args {
			if i > 0 {
				b.WriteByte(',')
			}
			a.write(b)
		}
		b.WriteByte('>')
	case SigSZArray:
		s.elem().write(b)
		b.WriteString("[]")
	case SigArray:
		s.elem().write(b)
		b.WriteByte('[')
		for i := 1; i < s.Rank; i++ {
			b.WriteByte(',')
		}
		b.WriteByte(']')
	case SigPointer:
		s.elem().write(b)
		b.WriteByte('*')
	case SigByRef:
		s.elem().write(b)
		b.WriteByte('&')
	case SigVar:
		b.WriteString("!" + strconv.Itoa(s.Number))
	case SigMVar:
		b.WriteString("!!" + strconv.Itoa(s.Number))
	case SigModified:
		s.elem().write(b)
		if s.Required {
			b.WriteString(" modreq(")
		} else {
			b.WriteString(" modopt(")
		}
		b.WriteString(s.Token.String())
		b.WriteByte(')')
	default:
		b.WriteString("<invalid>")
	}
}

func (s TypeSig) elem() TypeSig {
	if s.Elem == nil {
		return TypeSig{}
	}
	return *s.Elem
}

// CustomModifier is a modreq/modopt attached to a parameter, return or field.
type CustomModifier struct {
	Type     Token
	Required bool
}

// ParamSig is one parameter (or the return value) of a method signature.
type ParamSig struct {
	Modifiers []CustomModifier
	Type      TypeSig
}

// MethodSig is a decoded method signature.
type MethodSig struct {
	Params            []ParamSig
	Return            ParamSig
	GenericParamCount int
	CallingConvention CallingConvention
}

// HasThis reports whether the method takes an implicit this argument.
func (s MethodSig) HasThis() bool { return s.CallingConvention&CallHasThis != 0 }

// IsGeneric reports whether the method declares generic parameters.
func (s MethodSig) IsGeneric() bool { return s.CallingConvention&CallGeneric != 0 }

// FieldSig is a decoded field signature.
type FieldSig struct {
	Modifiers []CustomModifier
	Type      TypeSig
}

// PropertySig is a decoded property signature.
type PropertySig struct {
	Params  []ParamSig
	Type    ParamSig
	HasThis bool
}

// LocalSig is one entry of a method body's local variable signature.
type LocalSig struct {
	Modifiers []CustomModifier
	Type      TypeSig
	Pinned    bool
}
