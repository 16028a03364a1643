package testimages

import (
	"strings"

	"github.com/wippyai/metareflect/image"
	"github.com/wippyai/metareflect/metadata"
)

// LibTokens are member references of the sample library that tests resolve
// directly.
type LibTokens struct {
	BoxOfInt    metadata.Token // TypeSpec Box`1<int32>
	BoxGetRef   metadata.Token // MemberRef Box`1<int32>::Get
	BoxValueRef metadata.Token // MemberRef Box`1<int32>::Value
	ToStringRef metadata.Token // MemberRef System.Object::ToString
	Base        metadata.Token
	Derived     metadata.Token
	BaseRun     metadata.Token
}

// refs hands out TypeRefs into the core library, one per name.
type refs struct {
	b     *image.Builder
	scope metadata.Token
	toks  map[string]metadata.Token
}

func newRefs(b *image.Builder) *refs {
	return &refs{
		b:     b,
		scope: b.AssemblyRef(CoreName, CoreVersion, nil),
		toks:  make(map[string]metadata.Token),
	}
}

func (r *refs) tok(full string) metadata.Token {
	if tok, ok := r.toks[full]; ok {
		return tok
	}
	ns, name := "", full
	if i := strings.LastIndexByte(full, '.'); i >= 0 {
		ns, name = full[:i], full[i+1:]
	}
	tok := r.b.TypeRef(r.scope, ns, name)
	r.toks[full] = tok
	return tok
}

func (r *refs) class(full string) metadata.TypeSig { return metadata.Class(r.tok(full)) }
func (r *refs) value(full string) metadata.TypeSig { return metadata.ValueType(r.tok(full)) }

// ctor references an instance constructor of a core type.
func (r *refs) ctor(full string, params ...metadata.TypeSig) metadata.Token {
	return r.b.MethodRef(r.tok(full), ".ctor", RefSig(Void, params...))
}

// DateTimeTicks is the default of Defaults.Configure's when parameter,
// 2020-01-01T00:00:00Z.
const DateTimeTicks int64 = 637134336000000000

// Lib returns the encoded sample library.
func Lib() ([]byte, LibTokens) {
	b, toks := LibBuilder()
	return b.MustBytes(), toks
}

// LibBuilder assembles the sample library. Every type lives in namespace
// Sample.
func LibBuilder() (*image.Builder, LibTokens) {
	const ns = "Sample"
	b := image.NewBuilder(LibName, LibVersion)
	r := newRefs(b)
	var toks LibTokens

	object := r.tok("System.Object")
	valueType := r.tok("System.ValueType")
	enum := r.tok("System.Enum")

	// Enums.
	color := b.TypeDef(ns, "Color", pubSealed, enum)
	color.Field("value__", valueFld, I4)
	for i, name := range []string{"Red", "Green", "Blue"} {
		color.Field(name, literal, metadata.ValueType(color.Token())).Default(metadata.MustConstant(int32(i)))
	}

	access := b.TypeDef(ns, "Access", pubSealed, enum)
	access.Attribute(r.ctor("System.FlagsAttribute"), metadata.AttributeValue{})
	access.Field("value__", valueFld, I4)
	for _, m := range []struct {
		name  string
		value int32
	}{{"None", 0}, {"Read", 1}, {"Write", 2}, {"Execute", 4}} {
		access.Field(m.name, literal, metadata.ValueType(access.Token())).Default(metadata.MustConstant(m.value))
	}

	// Attribute defined in the library itself.
	tag := b.TypeDef(ns, "TagAttribute", pubSealed, r.tok("System.Attribute"))
	tagCtor := tag.Constructor(pubMethod, []metadata.TypeSig{String}, "name")
	tag.Field("Weight", metadata.FieldPublic, I4)
	tag.Field("Aliases", metadata.FieldPublic, metadata.SZArray(String))

	// Base and Derived exercise hiding, overriding and overloads.
	base := b.TypeDef(ns, "Base", pubClass, object)
	toks.Base = base.Token()
	base.Attribute(r.ctor("System.ObsoleteAttribute", String), metadata.AttributeValue{
		Fixed: []metadata.AttributeArg{Arg(String, "use Derived")},
	})
	base.Constructor(pubMethod, nil)
	run := base.Method("Run", pubVirtual, Sig(Void))
	run.Body(metadata.MethodBody{
		Code:       []byte{0x00, 0x2A},
		MaxStack:   2,
		InitLocals: true,
		Locals: []metadata.LocalSig{
			{Type: I4},
			{Type: String, Pinned: true},
		},
		ExceptionClauses: []metadata.ExceptionClause{{
			Flags:         metadata.ClauseException,
			TryOffset:     0,
			TryLength:     1,
			HandlerOffset: 1,
			HandlerLength: 1,
			CatchType:     r.tok("System.Exception"),
		}},
	})
	toks.BaseRun = run.Token()
	base.Method("Hidden", pubMethod, Sig(Void))
	base.Method("Helper", metadata.MethodPrivate|metadata.MethodHideBySig, Sig(Void))
	base.Method("Create", pubStatic, Sig(metadata.Class(base.Token())))
	base.Method("Overload", pubMethod, Sig(Void, I4), "value")
	base.Method("Overload", pubMethod, Sig(Void, String), "text")
	base.Field("count", metadata.FieldPublic, I4)
	base.Field("secret", metadata.FieldPrivate, String)
	base.Field("Shared", metadata.FieldPublic|metadata.FieldStatic, I4)
	baseGetName := base.Method("get_Name", pubVirtual|metadata.MethodSpecialName, Sig(String))
	base.Property("Name", metadata.PropertySig{HasThis: true, Type: metadata.ParamSig{Type: String}}, baseGetName.Token(), 0)
	handler := r.class("System.EventHandler")
	add := base.Method("add_Changed", pubGetter, Sig(Void, handler), "value")
	remove := base.Method("remove_Changed", pubGetter, Sig(Void, handler), "value")
	base.Event("Changed", r.tok("System.EventHandler"), add.Token(), remove.Token())

	derived := b.TypeDef(ns, "Derived", pubClass, base.Token())
	toks.Derived = derived.Token()
	derived.Attribute(tagCtor.Token(), metadata.AttributeValue{
		Fixed: []metadata.AttributeArg{Arg(String, "derived")},
		Named: []metadata.NamedArg{
			{Name: "Weight", IsField: true, Arg: Arg(I4, int32(3))},
			{Name: "Aliases", IsField: true, Arg: metadata.AttributeArg{
				Type:     metadata.SZArray(String),
				IsArray:  true,
				Elements: []metadata.AttributeArg{Arg(String, "d"), Arg(String, "der")},
			}},
		},
	})
	derived.Constructor(pubMethod, nil)
	derived.Constructor(pubMethod, []metadata.TypeSig{I4}, "count")
	derived.Method("Run", pubMethod|metadata.MethodVirtual, Sig(Void))
	derived.Method("Hidden", pubMethod, Sig(Void))
	derived.Method("Overload", pubMethod, Sig(Void, I4), "value")
	derived.Field("count", metadata.FieldPublic, I4)
	derivedGetName := derived.Method("get_Name", pubMethod|metadata.MethodVirtual|metadata.MethodSpecialName, Sig(String))
	derived.Property("Name", metadata.PropertySig{HasThis: true, Type: metadata.ParamSig{Type: String}}, derivedGetName.Token(), 0)

	// Generics.
	box := b.TypeDef(ns, "Box`1", pubClass, object)
	box.GenericParam("T", 0)
	box.Implements(b.TypeSpec(metadata.GenericInst(r.class("System.Collections.Generic.IEnumerable`1"), metadata.Var(0))))
	box.Constructor(pubMethod, nil)
	box.Field("Value", metadata.FieldPublic, metadata.Var(0))
	box.Method("Get", pubMethod, Sig(metadata.Var(0))).Body(metadata.MethodBody{
		Code:     []byte{0x02, 0x7B, 0x2A},
		MaxStack: 1,
		Locals:   []metadata.LocalSig{{Type: metadata.Var(0)}},
	})
	convert := box.Method("Convert", pubMethod, Sig(metadata.MVar(0), metadata.Var(0)), "input")
	convert.GenericParam("U", 0)

	toks.BoxOfInt = b.TypeSpec(metadata.GenericInst(metadata.Class(box.Token()), I4))
	toks.BoxGetRef = b.MethodRef(toks.BoxOfInt, "Get", RefSig(metadata.Var(0)))
	toks.BoxValueRef = b.FieldRef(toks.BoxOfInt, "Value", metadata.FieldSig{Type: metadata.Var(0)})
	toks.ToStringRef = b.MethodRef(object, "ToString", RefSig(String))

	ishape := b.TypeDef(ns, "IShape", pubIface, 0)
	ishape.Method("Area", pubAbstMeth, Sig(R8))

	constrained := b.TypeDef(ns, "Constrained`1", pubClass, object)
	constrained.GenericParam("T", metadata.GenericReferenceTypeConstraint, ishape.Token())

	circle := b.TypeDef(ns, "Circle", pubClass, object)
	circle.Implements(ishape.Token())
	circle.Constructor(pubMethod, nil)
	circle.Method("Area", pubMethod|metadata.MethodVirtual|metadata.MethodFinal|metadata.MethodNewSlot, Sig(R8))
	circle.Field("Radius", metadata.FieldPublic, R8)
	circle.Field("tag", metadata.FieldPrivate|metadata.FieldNotSerialized, String)
	circle.Field("Name", metadata.FieldPublic, String).Marshal(metadata.MarshalInfo{
		NativeType:     21,
		SizeParamIndex: -1,
		SizeConst:      -1,
	})

	// Nesting.
	outer := b.TypeDef(ns, "Outer", pubClass, object)
	outer.Nested("Inner", metadata.TypeNestedPublic, object)
	outer.Nested("Secret", metadata.TypeNestedPrivate, object)

	// Structs.
	point := b.TypeDef(ns, "Point", metadata.TypePublic|metadata.TypeSealed|metadata.TypeExplicitLayout|metadata.TypeSerializable, valueType)
	point.Layout(4, 8)
	point.Field("X", metadata.FieldPublic, I4).Offset(0)
	point.Field("Y", metadata.FieldPublic, I4).Offset(4)

	reading := b.TypeDef(ns, "Reading", pubStruct, valueType)
	reading.Field("SensorId", metadata.FieldPublic, I4)
	reading.Field("Value", metadata.FieldPublic, R8)
	reading.Field("Tags", metadata.FieldPublic, metadata.SZArray(String))
	reading.Field("Previous", metadata.FieldPublic, metadata.GenericInst(r.value("System.Nullable`1"), R8))
	reading.Field("Level", metadata.FieldPublic, metadata.ValueType(color.Token()))
	reading.Field("Range", metadata.FieldPublic, metadata.GenericInst(r.value("System.ValueTuple`2"), I4, I4))
	reading.Field("cache", metadata.FieldPrivate, Object)

	stats := b.TypeDef(ns, "Stats", pubAbstract|metadata.TypeSealed, object)
	stats.Method("Average", pubStatic, Sig(R8, metadata.SZArray(metadata.ValueType(reading.Token())), I4), "items", "count")

	// Platform invoke.
	native := b.TypeDef(ns, "Native", pubAbstract|metadata.TypeSealed, object)
	msgBox := native.Method("MessageBox", pubStatic, Sig(I4, NativeI, String, String, U4), "hWnd", "text", "caption", "type")
	msgBox.PInvoke("user32.dll", "MessageBoxW",
		metadata.PInvokeCharSetUnicode|metadata.PInvokeSupportsLastError|metadata.PInvokeCallConvWinapi)
	msgBox.ImplFlags(metadata.ImplPreserveSig)
	msgBox.ParamAt(2).Marshal(metadata.MarshalInfo{NativeType: 21, SizeParamIndex: -1, SizeConst: -1})
	native.Method("Flush", pubStatic, Sig(Void)).ImplFlags(metadata.ImplPreserveSig)
	native.Method("Fill", pubStatic, Sig(Void, metadata.ByRef(I4)), "buffer").
		ParamAt(1).Flags(metadata.ParamIn | metadata.ParamOut)

	// Optional parameters.
	defaults := b.TypeDef(ns, "Defaults", pubAbstract|metadata.TypeSealed, object)
	configure := defaults.Method("Configure", pubStatic,
		Sig(Void, I4, String, Object, r.value("System.DateTime"), r.value("System.Decimal"), I4),
		"retries", "name", "state", "when", "price", "plain")
	configure.ParamAt(1).Default(metadata.MustConstant(int32(3)))
	configure.ParamAt(2).Default(metadata.MustConstant("x"))
	configure.ParamAt(3).Default(metadata.MustConstant(nil))
	configure.ParamAt(4).Flags(metadata.ParamOptional).Attribute(
		r.ctor("System.Runtime.CompilerServices.DateTimeConstantAttribute", I8),
		metadata.AttributeValue{Fixed: []metadata.AttributeArg{Arg(I8, DateTimeTicks)}})
	configure.ParamAt(5).Flags(metadata.ParamOptional).Attribute(
		r.ctor("System.Runtime.CompilerServices.DecimalConstantAttribute", U1, U1, U4, U4, U4),
		metadata.AttributeValue{Fixed: []metadata.AttributeArg{
			Arg(U1, uint8(2)), Arg(U1, uint8(0)),
			Arg(U4, uint32(0)), Arg(U4, uint32(0)), Arg(U4, uint32(12345)),
		}})

	return b, toks
}
