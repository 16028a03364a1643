package metadata

// TypeAttributes are the flags of a TypeDef row.
type TypeAttributes uint32

const (
	TypeVisibilityMask    TypeAttributes = 0x00000007
	TypeNotPublic         TypeAttributes = 0x00000000
	TypePublic            TypeAttributes = 0x00000001
	TypeNestedPublic      TypeAttributes = 0x00000002
	TypeNestedPrivate     TypeAttributes = 0x00000003
	TypeNestedFamily      TypeAttributes = 0x00000004
	TypeNestedAssembly    TypeAttributes = 0x00000005
	TypeNestedFamANDAssem TypeAttributes = 0x00000006
	TypeNestedFamORAssem  TypeAttributes = 0x00000007
	TypeLayoutMask        TypeAttributes = 0x00000018
	TypeAutoLayout        TypeAttributes = 0x00000000
	TypeSequentialLayout  TypeAttributes = 0x00000008
	TypeExplicitLayout    TypeAttributes = 0x00000010
	TypeInterface         TypeAttributes = 0x00000020
	TypeAbstract          TypeAttributes = 0x00000080
	TypeSealed            TypeAttributes = 0x00000100
	TypeSpecialName       TypeAttributes = 0x00000400
	TypeRTSpecialName     TypeAttributes = 0x00000800
	TypeImport            TypeAttributes = 0x00001000
	TypeSerializable      TypeAttributes = 0x00002000
	TypeWindowsRuntime    TypeAttributes = 0x00004000
	TypeStringFormatMask  TypeAttributes = 0x00030000
	TypeAnsiClass         TypeAttributes = 0x00000000
	TypeUnicodeClass      TypeAttributes = 0x00010000
	TypeAutoClass         TypeAttributes = 0x00020000
	TypeHasSecurity       TypeAttributes = 0x00040000
	TypeBeforeFieldInit   TypeAttributes = 0x00100000
	TypeForwarder         TypeAttributes = 0x00200000
)

// Visibility returns the visibility bits.
func (a TypeAttributes) Visibility() TypeAttributes { return a & TypeVisibilityMask }

// IsNested reports whether the visibility bits describe a nested type.
func (a TypeAttributes) IsNested() bool { return a.Visibility() >= TypeNestedPublic }

// MethodAttributes are the flags of a Method row.
type MethodAttributes uint16

const (
	MethodMemberAccessMask      MethodAttributes = 0x0007
	MethodPrivateScope          MethodAttributes = 0x0000
	MethodPrivate               MethodAttributes = 0x0001
	MethodFamANDAssem           MethodAttributes = 0x0002
	MethodAssembly              MethodAttributes = 0x0003
	MethodFamily                MethodAttributes = 0x0004
	MethodFamORAssem            MethodAttributes = 0x0005
	MethodPublic                MethodAttributes = 0x0006
	MethodStatic                MethodAttributes = 0x0010
	MethodFinal                 MethodAttributes = 0x0020
	MethodVirtual               MethodAttributes = 0x0040
	MethodHideBySig             MethodAttributes = 0x0080
	MethodVtableLayoutMask      MethodAttributes = 0x0100
	MethodReuseSlot             MethodAttributes = 0x0000
	MethodNewSlot               MethodAttributes = 0x0100
	MethodCheckAccessOnOverride MethodAttributes = 0x0200
	MethodAbstract              MethodAttributes = 0x0400
	MethodSpecialName           MethodAttributes = 0x0800
	MethodRTSpecialName         MethodAttributes = 0x1000
	MethodPinvokeImpl           MethodAttributes = 0x2000
	MethodHasSecurity           MethodAttributes = 0x4000
	MethodRequireSecObject      MethodAttributes = 0x8000
)

// Access returns the member access bits.
func (a MethodAttributes) Access() MethodAttributes { return a & MethodMemberAccessMask }

// MethodImplAttributes are the implementation flags of a Method row.
type MethodImplAttributes uint16

const (
	ImplCodeTypeMask       MethodImplAttributes = 0x0003
	ImplIL                 MethodImplAttributes = 0x0000
	ImplNative             MethodImplAttributes = 0x0001
	ImplOPTIL              MethodImplAttributes = 0x0002
	ImplRuntime            MethodImplAttributes = 0x0003
	ImplUnmanaged          MethodImplAttributes = 0x0004
	ImplNoInlining         MethodImplAttributes = 0x0008
	ImplForwardRef         MethodImplAttributes = 0x0010
	ImplSynchronized       MethodImplAttributes = 0x0020
	ImplNoOptimization     MethodImplAttributes = 0x0040
	ImplPreserveSig        MethodImplAttributes = 0x0080
	ImplAggressiveInlining MethodImplAttributes = 0x0100
	ImplInternalCall       MethodImplAttributes = 0x1000
)

// FieldAttributes are the flags of a Field row.
type FieldAttributes uint16

const (
	FieldAccessMask      FieldAttributes = 0x0007
	FieldPrivateScope    FieldAttributes = 0x0000
	FieldPrivate         FieldAttributes = 0x0001
	FieldFamANDAssem     FieldAttributes = 0x0002
	FieldAssembly        FieldAttributes = 0x0003
	FieldFamily          FieldAttributes = 0x0004
	FieldFamORAssem      FieldAttributes = 0x0005
	FieldPublic          FieldAttributes = 0x0006
	FieldStatic          FieldAttributes = 0x0010
	FieldInitOnly        FieldAttributes = 0x0020
	FieldLiteral         FieldAttributes = 0x0040
	FieldNotSerialized   FieldAttributes = 0x0080
	FieldHasFieldRVA     FieldAttributes = 0x0100
	FieldSpecialName     FieldAttributes = 0x0200
	FieldRTSpecialName   FieldAttributes = 0x0400
	FieldHasFieldMarshal FieldAttributes = 0x1000
	FieldPinvokeImpl     FieldAttributes = 0x2000
	FieldHasDefault      FieldAttributes = 0x8000
)

// Access returns the member access bits.
func (a FieldAttributes) Access() FieldAttributes { return a & FieldAccessMask }

// ParamAttributes are the flags of a Param row.
type ParamAttributes uint16

const (
	ParamIn              ParamAttributes = 0x0001
	ParamOut             ParamAttributes = 0x0002
	ParamLcid            ParamAttributes = 0x0004
	ParamRetval          ParamAttributes = 0x0008
	ParamOptional        ParamAttributes = 0x0010
	ParamHasDefault      ParamAttributes = 0x1000
	ParamHasFieldMarshal ParamAttributes = 0x2000
)

// PropertyAttributes are the flags of a Property row.
type PropertyAttributes uint16

const (
	PropertySpecialName   PropertyAttributes = 0x0200
	PropertyRTSpecialName PropertyAttributes = 0x0400
	PropertyHasDefault    PropertyAttributes = 0x1000
)

// EventAttributes are the flags of an Event row.
type EventAttributes uint16

const (
	EventSpecialName   EventAttributes = 0x0200
	EventRTSpecialName EventAttributes = 0x0400
)

// GenericParamAttributes are the flags of a GenericParam row.
type GenericParamAttributes uint16

const (
	GenericVarianceMask                   GenericParamAttributes = 0x0003
	GenericNonVariant                     GenericParamAttributes = 0x0000
	GenericCovariant                      GenericParamAttributes = 0x0001
	GenericContravariant                  GenericParamAttributes = 0x0002
	GenericSpecialConstraintMask          GenericParamAttributes = 0x001C
	GenericReferenceTypeConstraint        GenericParamAttributes = 0x0004
	GenericNotNullableValueTypeConstraint GenericParamAttributes = 0x0008
	GenericDefaultConstructorConstraint   GenericParamAttributes = 0x0010
)

// Variance returns the variance bits.
func (a GenericParamAttributes) Variance() GenericParamAttributes { return a & GenericVarianceMask }

// AssemblyFlags are the flags of Assembly and AssemblyRef rows.
type AssemblyFlags uint32

const (
	AssemblyPublicKey                AssemblyFlags = 0x0001
	AssemblyRetargetable             AssemblyFlags = 0x0100
	AssemblyContentTypeMask          AssemblyFlags = 0x0E00
	AssemblyWindowsRuntime           AssemblyFlags = 0x0200
	AssemblyDisableJITOptimizer      AssemblyFlags = 0x4000
	AssemblyEnableJITCompileTracking AssemblyFlags = 0x8000
)

// PInvokeAttributes are the flags of an ImplMap row.
type PInvokeAttributes uint16

const (
	PInvokeNoMangle                      PInvokeAttributes = 0x0001
	PInvokeCharSetMask                   PInvokeAttributes = 0x0006
	PInvokeCharSetNotSpec                PInvokeAttributes = 0x0000
	PInvokeCharSetAnsi                   PInvokeAttributes = 0x0002
	PInvokeCharSetUnicode                PInvokeAttributes = 0x0004
	PInvokeCharSetAuto                   PInvokeAttributes = 0x0006
	PInvokeBestFitMask                   PInvokeAttributes = 0x0030
	PInvokeBestFitEnabled                PInvokeAttributes = 0x0010
	PInvokeBestFitDisabled               PInvokeAttributes = 0x0020
	PInvokeSupportsLastError             PInvokeAttributes = 0x0040
	PInvokeCallConvMask                  PInvokeAttributes = 0x0700
	PInvokeCallConvWinapi                PInvokeAttributes = 0x0100
	PInvokeCallConvCdecl                 PInvokeAttributes = 0x0200
	PInvokeCallConvStdcall               PInvokeAttributes = 0x0300
	PInvokeCallConvThiscall              PInvokeAttributes = 0x0400
	PInvokeCallConvFastcall              PInvokeAttributes = 0x0500
	PInvokeThrowOnUnmappableCharMask     PInvokeAttributes = 0x3000
	PInvokeThrowOnUnmappableCharEnabled  PInvokeAttributes = 0x1000
	PInvokeThrowOnUnmappableCharDisabled PInvokeAttributes = 0x2000
)

// CallingConvention is the leading byte of a method signature.
type CallingConvention uint8

const (
	CallDefault      CallingConvention = 0x00
	CallC            CallingConvention = 0x01
	CallStdCall      CallingConvention = 0x02
	CallThisCall     CallingConvention = 0x03
	CallFastCall     CallingConvention = 0x04
	CallVarArg       CallingConvention = 0x05
	CallKindMask     CallingConvention = 0x0F
	CallGeneric      CallingConvention = 0x10
	CallHasThis      CallingConvention = 0x20
	CallExplicitThis CallingConvention = 0x40
)

// ExceptionClauseFlags identify the kind of an exception handling clause.
type ExceptionClauseFlags uint32

const (
	ClauseException ExceptionClauseFlags = 0x0000
	ClauseFilter    ExceptionClauseFlags = 0x0001
	ClauseFinally   ExceptionClauseFlags = 0x0002
	ClauseFault     ExceptionClauseFlags = 0x0004
)
