package image

import (
	"fmt"

	"fortio.org/safecast"
	"github.com/google/uuid"

	"github.com/wippyai/metareflect/metadata"
)

// Builder assembles an Image table by table. Tokens returned by one call may
// be used in later calls, so forward references only need the row to exist.
// Builders are not safe for concurrent use.
type Builder struct {
	img *Image
}

// NewBuilder starts a manifest module for assembly name at version.
func NewBuilder(name string, version metadata.Version) *Builder {
	b := NewModuleBuilder(name + ".dll")
	b.img.Assembly = &metadata.AssemblyDef{
		Name:          name,
		Version:       version,
		HashAlgorithm: 0x8004,
	}
	return b
}

// NewModuleBuilder starts a module without an assembly manifest.
func NewModuleBuilder(moduleName string) *Builder {
	return &Builder{img: &Image{
		Module: metadata.ModuleDef{Name: moduleName, MVID: uuid.New()},
		Bodies: make(map[uint32]metadata.MethodBody),
	}}
}

func nextRow(n int) uint32 {
	r, err := safecast.Conv[uint32](n + 1)
	if err != nil || r > metadata.MaxRow {
		panic(fmt.Sprintf("image: table overflow at %d rows", n))
	}
	return r
}

// Culture sets the assembly culture.
func (b *Builder) Culture(c string) *Builder {
	b.img.Assembly.Culture = c
	return b
}

// PublicKey sets the assembly's full public key.
func (b *Builder) PublicKey(key []byte) *Builder {
	b.img.Assembly.PublicKey = key
	b.img.Assembly.Flags |= metadata.AssemblyPublicKey
	return b
}

// MVID overrides the random module version id.
func (b *Builder) MVID(id uuid.UUID) *Builder {
	b.img.Module.MVID = id
	return b
}

// AssemblyRef adds a reference to another assembly.
func (b *Builder) AssemblyRef(name string, version metadata.Version, publicKeyToken []byte) metadata.Token {
	tok := metadata.MakeToken(metadata.TableAssemblyRef, nextRow(len(b.img.AssemblyRefs)))
	b.img.AssemblyRefs = append(b.img.AssemblyRefs, metadata.AssemblyRefRow{
		Name:             name,
		Version:          version,
		PublicKeyOrToken: publicKeyToken,
	})
	return tok
}

// ModuleRef adds a reference to a module of the same assembly.
func (b *Builder) ModuleRef(name string) metadata.Token {
	tok := metadata.MakeToken(metadata.TableModuleRef, nextRow(len(b.img.ModuleRefs)))
	b.img.ModuleRefs = append(b.img.ModuleRefs, metadata.ModuleRefRow{Name: name})
	return tok
}

// File lists another file of a multi-module assembly.
func (b *Builder) File(name string, containsMetadata bool) metadata.Token {
	tok := metadata.MakeToken(metadata.TableFile, nextRow(len(b.img.Files)))
	b.img.Files = append(b.img.Files, metadata.FileRow{Name: name, ContainsMetadata: containsMetadata})
	return tok
}

// TypeRef adds a reference to a type through scope.
func (b *Builder) TypeRef(scope metadata.Token, namespace, name string) metadata.Token {
	tok := metadata.MakeToken(metadata.TableTypeRef, nextRow(len(b.img.TypeRefs)))
	b.img.TypeRefs = append(b.img.TypeRefs, metadata.TypeRefRow{
		Name:            name,
		Namespace:       namespace,
		ResolutionScope: scope,
	})
	return tok
}

// TypeSpec adds a type specification.
func (b *Builder) TypeSpec(sig metadata.TypeSig) metadata.Token {
	tok := metadata.MakeToken(metadata.TableTypeSpec, nextRow(len(b.img.TypeSpecs)))
	b.img.TypeSpecs = append(b.img.TypeSpecs, sig)
	return tok
}

// Forward adds a type forwarder to the assembly behind asmRef.
func (b *Builder) Forward(namespace, name string, asmRef metadata.Token) metadata.Token {
	tok := metadata.MakeToken(metadata.TableExportedType, nextRow(len(b.img.ExportedTypes)))
	b.img.ExportedTypes = append(b.img.ExportedTypes, metadata.ExportedTypeRow{
		Name:           name,
		Namespace:      namespace,
		Implementation: asmRef,
		Flags:          metadata.TypeForwarder,
	})
	return tok
}

// ExportType lists a public type defined in another file of this assembly.
func (b *Builder) ExportType(namespace, name string, file metadata.Token, typeDefID uint32) metadata.Token {
	tok := metadata.MakeToken(metadata.TableExportedType, nextRow(len(b.img.ExportedTypes)))
	b.img.ExportedTypes = append(b.img.ExportedTypes, metadata.ExportedTypeRow{
		Name:           name,
		Namespace:      namespace,
		Implementation: file,
		TypeDefID:      typeDefID,
		Flags:          metadata.TypePublic,
	})
	return tok
}

// MethodRef adds a MemberRef to a method of parent.
func (b *Builder) MethodRef(parent metadata.Token, name string, sig metadata.MethodSig) metadata.Token {
	tok := metadata.MakeToken(metadata.TableMemberRef, nextRow(len(b.img.MemberRefs)))
	b.img.MemberRefs = append(b.img.MemberRefs, metadata.MemberRefRow{Parent: parent, Name: name, Method: &sig})
	return tok
}

// FieldRef adds a MemberRef to a field of parent.
func (b *Builder) FieldRef(parent metadata.Token, name string, sig metadata.FieldSig) metadata.Token {
	tok := metadata.MakeToken(metadata.TableMemberRef, nextRow(len(b.img.MemberRefs)))
	b.img.MemberRefs = append(b.img.MemberRefs, metadata.MemberRefRow{Parent: parent, Name: name, Field: &sig})
	return tok
}

// Attribute attaches a custom attribute to parent. ctor is a Method or
// MemberRef token of the attribute constructor.
func (b *Builder) Attribute(parent, ctor metadata.Token, value metadata.AttributeValue) metadata.Token {
	tok := metadata.MakeToken(metadata.TableCustomAttribute, nextRow(len(b.img.CustomAttributes)))
	b.img.CustomAttributes = append(b.img.CustomAttributes, Attribute{
		Row:   metadata.CustomAttributeRow{Parent: parent, Constructor: ctor},
		Value: value,
	})

	i := int(parent.Row()) - 1
	switch parent.Table() {
	case metadata.TableAssembly:
		b.img.Assembly.CustomAttributes = append(b.img.Assembly.CustomAttributes, tok)
	case metadata.TableModule:
		b.img.Module.CustomAttributes = append(b.img.Module.CustomAttributes, tok)
	case metadata.TableTypeDef:
		b.img.TypeDefs[i].CustomAttributes = append(b.img.TypeDefs[i].CustomAttributes, tok)
	case metadata.TableMethod:
		b.img.Methods[i].CustomAttributes = append(b.img.Methods[i].CustomAttributes, tok)
	case metadata.TableField:
		b.img.Fields[i].CustomAttributes = append(b.img.Fields[i].CustomAttributes, tok)
	case metadata.TableParam:
		b.img.Params[i].CustomAttributes = append(b.img.Params[i].CustomAttributes, tok)
	case metadata.TableProperty:
		b.img.Properties[i].CustomAttributes = append(b.img.Properties[i].CustomAttributes, tok)
	case metadata.TableEvent:
		b.img.Events[i].CustomAttributes = append(b.img.Events[i].CustomAttributes, tok)
	case metadata.TableGenericParam:
		b.img.GenericParams[i].CustomAttributes = append(b.img.GenericParams[i].CustomAttributes, tok)
	default:
		panic(fmt.Sprintf("image: attributes on %s are not supported", parent.Table()))
	}
	return tok
}

// TypeDef adds a top-level type. extends is a TypeDef, TypeRef or TypeSpec
// token, or the nil token for interfaces and System.Object.
func (b *Builder) TypeDef(namespace, name string, flags metadata.TypeAttributes, extends metadata.Token) *TypeBuilder {
	tok := metadata.MakeToken(metadata.TableTypeDef, nextRow(len(b.img.TypeDefs)))
	b.img.TypeDefs = append(b.img.TypeDefs, metadata.TypeDefRow{
		Name:      name,
		Namespace: namespace,
		Flags:     flags,
		Extends:   extends,
	})
	return &TypeBuilder{b: b, tok: tok}
}

func (b *Builder) genericParam(owner metadata.Token, number int, name string, flags metadata.GenericParamAttributes, constraints []metadata.Token) metadata.Token {
	n, err := safecast.Conv[uint16](number)
	if err != nil {
		panic(fmt.Sprintf("image: generic parameter %d out of range", number))
	}
	tok := metadata.MakeToken(metadata.TableGenericParam, nextRow(len(b.img.GenericParams)))
	b.img.GenericParams = append(b.img.GenericParams, metadata.GenericParamRow{
		Name:        name,
		Owner:       owner,
		Number:      n,
		Flags:       flags,
		Constraints: constraints,
	})
	return tok
}

// Build returns the assembled image. The builder must not be used afterwards.
func (b *Builder) Build() *Image {
	b.img.Schema = FormatVersion
	return b.img
}

// Bytes encodes the assembled image.
func (b *Builder) Bytes() ([]byte, error) {
	return Encode(b.Build())
}

// MustBytes is Bytes for images known to encode.
func (b *Builder) MustBytes() []byte {
	data, err := b.Bytes()
	if err != nil {
		panic(err)
	}
	return data
}

// TypeBuilder adds members to one TypeDef row.
type TypeBuilder struct {
	b   *Builder
	tok metadata.Token
}

// Token returns the TypeDef token.
func (t *TypeBuilder) Token() metadata.Token { return t.tok }

func (t *TypeBuilder) row() *metadata.TypeDefRow {
	return &t.b.img.TypeDefs[t.tok.Row()-1]
}

// GenericParam declares the next generic parameter of the type.
func (t *TypeBuilder) GenericParam(name string, flags metadata.GenericParamAttributes, constraints ...metadata.Token) metadata.Token {
	gp := t.b.genericParam(t.tok, len(t.row().GenericParams), name, flags, constraints)
	t.row().GenericParams = append(t.row().GenericParams, gp)
	return gp
}

// Implements adds interface implementations.
func (t *TypeBuilder) Implements(ifaces ...metadata.Token) *TypeBuilder {
	t.row().Interfaces = append(t.row().Interfaces, ifaces...)
	return t
}

// Layout sets explicit packing and class size.
func (t *TypeBuilder) Layout(packing uint16, size uint32) *TypeBuilder {
	t.row().Layout = &metadata.ClassLayout{PackingSize: packing, ClassSize: size}
	return t
}

// Attribute attaches a custom attribute to the type.
func (t *TypeBuilder) Attribute(ctor metadata.Token, value metadata.AttributeValue) *TypeBuilder {
	t.b.Attribute(t.tok, ctor, value)
	return t
}

// Nested adds a type nested in this one.
func (t *TypeBuilder) Nested(name string, flags metadata.TypeAttributes, extends metadata.Token) *TypeBuilder {
	n := t.b.TypeDef("", name, flags, extends)
	n.row().EnclosingType = t.tok
	t.row().NestedTypes = append(t.row().NestedTypes, n.tok)
	return n
}

// Method adds a method. HasThis is set on sig for non-static methods.
// Parameter rows are created for each name in params, in order.
func (t *TypeBuilder) Method(name string, flags metadata.MethodAttributes, sig metadata.MethodSig, params ...string) *MethodBuilder {
	if flags&metadata.MethodStatic == 0 {
		sig.CallingConvention |= metadata.CallHasThis
	}
	tok := metadata.MakeToken(metadata.TableMethod, nextRow(len(t.b.img.Methods)))
	t.b.img.Methods = append(t.b.img.Methods, metadata.MethodRow{
		Name:      name,
		Flags:     flags,
		Signature: sig,
		Parent:    t.tok,
	})
	t.row().Methods = append(t.row().Methods, tok)

	m := &MethodBuilder{b: t.b, tok: tok}
	for i, p := range params {
		n, err := safecast.Conv[uint16](i + 1)
		if err != nil {
			panic(err)
		}
		m.Param(n, p, 0)
	}
	return m
}

// Constructor adds an instance constructor.
func (t *TypeBuilder) Constructor(flags metadata.MethodAttributes, params []metadata.TypeSig, names ...string) *MethodBuilder {
	sig := metadata.MethodSig{Return: metadata.ParamSig{Type: metadata.Prim(metadata.ElementVoid)}}
	for _, p := range params {
		sig.Params = append(sig.Params, metadata.ParamSig{Type: p})
	}
	flags |= metadata.MethodSpecialName | metadata.MethodRTSpecialName
	return t.Method(".ctor", flags, sig, names...)
}

// Field adds a field.
func (t *TypeBuilder) Field(name string, flags metadata.FieldAttributes, typ metadata.TypeSig) *FieldBuilder {
	tok := metadata.MakeToken(metadata.TableField, nextRow(len(t.b.img.Fields)))
	t.b.img.Fields = append(t.b.img.Fields, metadata.FieldRow{
		Name:      name,
		Flags:     flags,
		Signature: metadata.FieldSig{Type: typ},
		Parent:    t.tok,
	})
	t.row().Fields = append(t.row().Fields, tok)
	return &FieldBuilder{b: t.b, tok: tok}
}

// Property adds a property backed by getter and setter (either may be nil).
func (t *TypeBuilder) Property(name string, sig metadata.PropertySig, getter, setter metadata.Token) metadata.Token {
	tok := metadata.MakeToken(metadata.TableProperty, nextRow(len(t.b.img.Properties)))
	t.b.img.Properties = append(t.b.img.Properties, metadata.PropertyRow{
		Name:      name,
		Signature: sig,
		Getter:    getter,
		Setter:    setter,
		Parent:    t.tok,
	})
	t.row().Properties = append(t.row().Properties, tok)
	return tok
}

// Event adds an event with add and remove accessors.
func (t *TypeBuilder) Event(name string, handler, add, remove metadata.Token) metadata.Token {
	tok := metadata.MakeToken(metadata.TableEvent, nextRow(len(t.b.img.Events)))
	t.b.img.Events = append(t.b.img.Events, metadata.EventRow{
		Name:      name,
		EventType: handler,
		Add:       add,
		Remove:    remove,
		Parent:    t.tok,
	})
	t.row().Events = append(t.row().Events, tok)
	return tok
}

// MethodBuilder refines one Method row.
type MethodBuilder struct {
	b   *Builder
	tok metadata.Token
}

// Token returns the Method token.
func (m *MethodBuilder) Token() metadata.Token { return m.tok }

func (m *MethodBuilder) row() *metadata.MethodRow {
	return &m.b.img.Methods[m.tok.Row()-1]
}

// GenericParam declares the next generic parameter of the method.
func (m *MethodBuilder) GenericParam(name string, flags metadata.GenericParamAttributes, constraints ...metadata.Token) metadata.Token {
	r := m.row()
	gp := m.b.genericParam(m.tok, len(r.GenericParams), name, flags, constraints)
	r = m.row()
	r.GenericParams = append(r.GenericParams, gp)
	r.Signature.GenericParamCount = len(r.GenericParams)
	r.Signature.CallingConvention |= metadata.CallGeneric
	return gp
}

// Param adds a parameter row. Sequence 0 describes the return value.
func (m *MethodBuilder) Param(seq uint16, name string, flags metadata.ParamAttributes) *ParamBuilder {
	tok := metadata.MakeToken(metadata.TableParam, nextRow(len(m.b.img.Params)))
	m.b.img.Params = append(m.b.img.Params, metadata.ParamRow{
		Name:     name,
		Sequence: seq,
		Flags:    flags,
		Parent:   m.tok,
	})
	m.row().Params = append(m.row().Params, tok)
	return &ParamBuilder{b: m.b, tok: tok}
}

// ParamAt returns the builder for the parameter row with sequence seq.
func (m *MethodBuilder) ParamAt(seq uint16) *ParamBuilder {
	for _, p := range m.row().Params {
		if m.b.img.Params[p.Row()-1].Sequence == seq {
			return &ParamBuilder{b: m.b, tok: p}
		}
	}
	return m.Param(seq, "", 0)
}

// ImplFlags sets the implementation flags.
func (m *MethodBuilder) ImplFlags(flags metadata.MethodImplAttributes) *MethodBuilder {
	m.row().ImplFlags = flags
	return m
}

// PInvoke marks the method as a platform invoke of entry in module.
func (m *MethodBuilder) PInvoke(module, entry string, flags metadata.PInvokeAttributes) *MethodBuilder {
	r := m.row()
	r.Flags |= metadata.MethodPinvokeImpl
	r.ImplMap = &metadata.ImplMap{ImportScope: module, ImportName: entry, Flags: flags}
	return m
}

// Body attaches IL and its tables.
func (m *MethodBuilder) Body(body metadata.MethodBody) *MethodBuilder {
	m.row().HasBody = true
	m.b.img.Bodies[m.tok.Row()] = body
	return m
}

// Attribute attaches a custom attribute to the method.
func (m *MethodBuilder) Attribute(ctor metadata.Token, value metadata.AttributeValue) *MethodBuilder {
	m.b.Attribute(m.tok, ctor, value)
	return m
}

// FieldBuilder refines one Field row.
type FieldBuilder struct {
	b   *Builder
	tok metadata.Token
}

// Token returns the Field token.
func (f *FieldBuilder) Token() metadata.Token { return f.tok }

func (f *FieldBuilder) row() *metadata.FieldRow {
	return &f.b.img.Fields[f.tok.Row()-1]
}

// Offset sets an explicit layout offset.
func (f *FieldBuilder) Offset(off uint32) *FieldBuilder {
	f.row().Offset = &off
	return f
}

// Marshal attaches a marshaling descriptor.
func (f *FieldBuilder) Marshal(mi metadata.MarshalInfo) *FieldBuilder {
	r := f.row()
	r.Marshal = &mi
	r.Flags |= metadata.FieldHasFieldMarshal
	return f
}

// Default attaches a constant value.
func (f *FieldBuilder) Default(c metadata.Constant) *FieldBuilder {
	r := f.row()
	r.Constant = &c
	r.Flags |= metadata.FieldHasDefault
	return f
}

// RVA sets the field's data address.
func (f *FieldBuilder) RVA(rva uint32) *FieldBuilder {
	r := f.row()
	r.RVA = rva
	r.Flags |= metadata.FieldHasFieldRVA
	return f
}

// Modifiers attaches custom modifiers to the field signature.
func (f *FieldBuilder) Modifiers(mods ...metadata.CustomModifier) *FieldBuilder {
	r := f.row()
	r.Signature.Modifiers = append(r.Signature.Modifiers, mods...)
	return f
}

// Attribute attaches a custom attribute to the field.
func (f *FieldBuilder) Attribute(ctor metadata.Token, value metadata.AttributeValue) *FieldBuilder {
	f.b.Attribute(f.tok, ctor, value)
	return f
}

// ParamBuilder refines one Param row.
type ParamBuilder struct {
	b   *Builder
	tok metadata.Token
}

// Token returns the Param token.
func (p *ParamBuilder) Token() metadata.Token { return p.tok }

func (p *ParamBuilder) row() *metadata.ParamRow {
	return &p.b.img.Params[p.tok.Row()-1]
}

// Flags ors flags into the parameter attributes.
func (p *ParamBuilder) Flags(flags metadata.ParamAttributes) *ParamBuilder {
	p.row().Flags |= flags
	return p
}

// Default attaches a default value.
func (p *ParamBuilder) Default(c metadata.Constant) *ParamBuilder {
	r := p.row()
	r.Constant = &c
	r.Flags |= metadata.ParamHasDefault | metadata.ParamOptional
	return p
}

// Marshal attaches a marshaling descriptor.
func (p *ParamBuilder) Marshal(mi metadata.MarshalInfo) *ParamBuilder {
	r := p.row()
	r.Marshal = &mi
	r.Flags |= metadata.ParamHasFieldMarshal
	return p
}

// Attribute attaches a custom attribute to the parameter.
func (p *ParamBuilder) Attribute(ctor metadata.Token, value metadata.AttributeValue) *ParamBuilder {
	p.b.Attribute(p.tok, ctor, value)
	return p
}
