package metadata

import (
	"fmt"

	"github.com/google/uuid"
)

// Version is a four-part assembly version.
type Version struct {
	Major    uint16
	Minor    uint16
	Build    uint16
	Revision uint16
}

// String returns the version as "major.minor.build.revision".
func (v Version) String() string {
	return fmt.Sprintf("%d.%d.%d.%d", v.Major, v.Minor, v.Build, v.Revision)
}

// Compare returns -1, 0 or 1 ordering v against o.
func (v Version) Compare(o Version) int {
	a := [4]uint16{v.Major, v.Minor, v.Build, v.Revision}
	b := [4]uint16{o.Major, o.Minor, o.Build, o.Revision}
	for i := range a {
		switch {
		case a[i] < b[i]:
			return -1
		case a[i] > b[i]:
			return 1
		}
	}
	return 0
}

// AssemblyDef is the single row of the Assembly table of a manifest module.
type AssemblyDef struct {
	Name             string
	Culture          string
	PublicKey        []byte
	CustomAttributes []Token
	Version          Version
	HashAlgorithm    uint32
	Flags            AssemblyFlags
}

// AssemblyRefRow references another assembly.
type AssemblyRefRow struct {
	Name             string
	Culture          string
	PublicKeyOrToken []byte
	Version          Version
	Flags            AssemblyFlags
}

// ModuleDef is the single row of the Module table.
type ModuleDef struct {
	Name             string
	CustomAttributes []Token
	MVID             uuid.UUID
}

// ModuleRefRow names another module of the same assembly.
type ModuleRefRow struct {
	Name string
}

// FileRow lists a file of a multi-module assembly.
type FileRow struct {
	Name             string
	HashValue        []byte
	ContainsMetadata bool
}

// ClassLayout carries explicit packing and size of a type.
type ClassLayout struct {
	ClassSize   uint32
	PackingSize uint16
}

// TypeDefRow describes a type defined in the module.
type TypeDefRow struct {
	Layout           *ClassLayout
	Name             string
	Namespace        string
	Interfaces       []Token
	NestedTypes      []Token
	GenericParams    []Token
	Fields           []Token
	Methods          []Token
	Properties       []Token
	Events           []Token
	CustomAttributes []Token
	Extends          Token
	EnclosingType    Token
	Flags            TypeAttributes
}

// TypeRefRow references a type by name through a resolution scope.
// The scope is a Module, ModuleRef, AssemblyRef or TypeRef (for nested types) token;
// a nil scope defers to the ExportedType table.
type TypeRefRow struct {
	Name            string
	Namespace       string
	ResolutionScope Token
}

// ExportedTypeRow lists a type that lives in another file or another assembly.
type ExportedTypeRow struct {
	Name           string
	Namespace      string
	TypeDefID      uint32
	Implementation Token
	Flags          TypeAttributes
}

// IsForwarder reports whether the row forwards to another assembly.
func (r ExportedTypeRow) IsForwarder() bool {
	return r.Flags&TypeForwarder != 0 || r.Implementation.Is(TableAssemblyRef)
}

// ImplMap describes a platform invoke target.
type ImplMap struct {
	ImportName  string
	ImportScope string
	Flags       PInvokeAttributes
}

// MarshalInfo is a decoded field or parameter marshaling descriptor.
// Negative SizeParamIndex and SizeConst mean the value is absent.
type MarshalInfo struct {
	MarshalType      string
	MarshalCookie    string
	SizeParamIndex   int32
	SizeConst        int32
	SafeArraySubType int32
	NativeType       uint8
	ArraySubType     uint8
}

// MethodRow describes a method or constructor.
type MethodRow struct {
	ImplMap          *ImplMap
	Name             string
	Signature        MethodSig
	Params           []Token
	GenericParams    []Token
	CustomAttributes []Token
	Parent           Token
	Flags            MethodAttributes
	ImplFlags        MethodImplAttributes
	HasBody          bool
}

// FieldRow describes a field.
type FieldRow struct {
	Offset           *uint32
	Marshal          *MarshalInfo
	Constant         *Constant
	Name             string
	Signature        FieldSig
	CustomAttributes []Token
	Parent           Token
	RVA              uint32
	Flags            FieldAttributes
}

// ParamRow describes a parameter. Sequence 0 is the return value.
type ParamRow struct {
	Constant         *Constant
	Marshal          *MarshalInfo
	Name             string
	CustomAttributes []Token
	Parent           Token
	Sequence         uint16
	Flags            ParamAttributes
}

// PropertyRow describes a property.
type PropertyRow struct {
	Constant         *Constant
	Name             string
	Signature        PropertySig
	Others           []Token
	CustomAttributes []Token
	Parent           Token
	Getter           Token
	Setter           Token
	Flags            PropertyAttributes
}

// EventRow describes an event.
type EventRow struct {
	Name             string
	Others           []Token
	CustomAttributes []Token
	Parent           Token
	EventType        Token
	Add              Token
	Remove           Token
	Raise            Token
	Flags            EventAttributes
}

// GenericParamRow describes a generic parameter of a type or method.
type GenericParamRow struct {
	Name             string
	Constraints      []Token
	CustomAttributes []Token
	Owner            Token
	Number           uint16
	Flags            GenericParamAttributes
}

// MemberRefRow references a method or field of another type.
// Exactly one of Method and Field is set.
type MemberRefRow struct {
	Method *MethodSig
	Field  *FieldSig
	Name   string
	Parent Token
}

// CustomAttributeRow associates an attribute constructor with its parent row.
type CustomAttributeRow struct {
	Parent      Token
	Constructor Token
}

// AttributeArg is one decoded custom attribute argument.
//
// Scalars, strings and enums carry a Constant (enums use their underlying
// element type while Type names the enum). Arrays set IsArray and list
// Elements; a nil array sets Null. System.Type arguments carry TypeValue,
// or Null for a null type.
type AttributeArg struct {
	Value     *Constant
	TypeValue *TypeSig
	Elements  []AttributeArg
	Type      TypeSig
	IsArray   bool
	Null      bool
}

// NamedArg is a field or property assignment of a custom attribute.
type NamedArg struct {
	Name    string
	Arg     AttributeArg
	IsField bool
}

// AttributeValue is the decoded value blob of a custom attribute.
type AttributeValue struct {
	Fixed []AttributeArg
	Named []NamedArg
}

// ExceptionClause is one entry of a method body's exception table.
type ExceptionClause struct {
	Flags         ExceptionClauseFlags
	TryOffset     uint32
	TryLength     uint32
	HandlerOffset uint32
	HandlerLength uint32
	FilterOffset  uint32
	CatchType     Token
}

// MethodBody is the undecoded IL of a method plus its structural tables.
type MethodBody struct {
	Code             []byte
	Locals           []LocalSig
	ExceptionClauses []ExceptionClause
	MaxStack         uint16
	InitLocals       bool
}
