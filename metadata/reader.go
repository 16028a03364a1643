package metadata

// Reader gives on-demand access to the rows of one decoded module.
//
// Token arguments must point into the table the method reads; a token for
// another table or past the end of the table is a malformed-input error.
// Readers must be safe for concurrent use: the reflection engine calls them
// from any goroutine that triggers a lazy computation.
type Reader interface {
	// Assembly returns the manifest row. ok is false for a module without a
	// manifest (a satellite module of a multi-module assembly).
	Assembly() (def AssemblyDef, ok bool)
	Module() ModuleDef

	AssemblyRefs() []Token
	AssemblyRef(Token) (AssemblyRefRow, error)
	ModuleRef(Token) (ModuleRefRow, error)
	Files() []Token
	File(Token) (FileRow, error)

	// TypeDefs enumerates every type definition, nested ones included.
	TypeDefs() []Token
	TypeDef(Token) (TypeDefRow, error)
	TypeRef(Token) (TypeRefRow, error)
	TypeSpec(Token) (TypeSig, error)
	ExportedTypes() []Token
	ExportedType(Token) (ExportedTypeRow, error)

	Method(Token) (MethodRow, error)
	Field(Token) (FieldRow, error)
	Param(Token) (ParamRow, error)
	Property(Token) (PropertyRow, error)
	Event(Token) (EventRow, error)
	GenericParam(Token) (GenericParamRow, error)
	MemberRef(Token) (MemberRefRow, error)

	CustomAttribute(Token) (CustomAttributeRow, error)
	CustomAttributeValue(Token) (AttributeValue, error)

	// MethodBody returns ok=false for methods without IL.
	MethodBody(Token) (body MethodBody, ok bool, err error)

	Close() error
}

// OpenFunc decodes module bytes into a Reader.
type OpenFunc func(data []byte) (Reader, error)
