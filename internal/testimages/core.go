// Package testimages builds small metadata images for tests: a core library
// named mscorlib, a sample library that references it, a facade that
// forwards types and a two-module assembly.
package testimages

import (
	"fmt"

	"github.com/wippyai/metareflect/image"
	"github.com/wippyai/metareflect/metadata"
)

const (
	CoreName = "mscorlib"
	LibName  = "Lib"
)

var (
	CoreVersion = metadata.Version{Major: 4}
	LibVersion  = metadata.Version{Major: 1}
)

// Common signatures.
var (
	Void    = metadata.Prim(metadata.ElementVoid)
	Bool    = metadata.Prim(metadata.ElementBoolean)
	I2      = metadata.Prim(metadata.ElementI2)
	I4      = metadata.Prim(metadata.ElementI4)
	I8      = metadata.Prim(metadata.ElementI8)
	U1      = metadata.Prim(metadata.ElementU1)
	U4      = metadata.Prim(metadata.ElementU4)
	R8      = metadata.Prim(metadata.ElementR8)
	String  = metadata.Prim(metadata.ElementString)
	Object  = metadata.Prim(metadata.ElementObject)
	NativeI = metadata.Prim(metadata.ElementI)
)

// Sig builds a method signature. HasThis is added by the builder for
// instance methods.
func Sig(ret metadata.TypeSig, params ...metadata.TypeSig) metadata.MethodSig {
	sig := metadata.MethodSig{Return: metadata.ParamSig{Type: ret}}
	for _, p := range params {
		sig.Params = append(sig.Params, metadata.ParamSig{Type: p})
	}
	return sig
}

// RefSig builds the signature of a MemberRef to an instance method.
func RefSig(ret metadata.TypeSig, params ...metadata.TypeSig) metadata.MethodSig {
	sig := Sig(ret, params...)
	sig.CallingConvention |= metadata.CallHasThis
	return sig
}

// Const returns a pointer to an encoded constant.
func Const(v any) *metadata.Constant {
	c := metadata.MustConstant(v)
	return &c
}

// Arg is a scalar or string attribute argument.
func Arg(typ metadata.TypeSig, v any) metadata.AttributeArg {
	return metadata.AttributeArg{Type: typ, Value: Const(v)}
}

const (
	pubClass    = metadata.TypePublic | metadata.TypeBeforeFieldInit
	pubAbstract = metadata.TypePublic | metadata.TypeAbstract
	pubSealed   = metadata.TypePublic | metadata.TypeSealed
	pubStruct   = metadata.TypePublic | metadata.TypeSealed | metadata.TypeSequentialLayout
	pubIface    = metadata.TypePublic | metadata.TypeInterface | metadata.TypeAbstract

	pubMethod   = metadata.MethodPublic | metadata.MethodHideBySig
	pubVirtual  = pubMethod | metadata.MethodVirtual | metadata.MethodNewSlot
	pubAbstMeth = pubVirtual | metadata.MethodAbstract
	pubStatic   = pubMethod | metadata.MethodStatic
	pubGetter   = pubMethod | metadata.MethodSpecialName

	literal  = metadata.FieldPublic | metadata.FieldStatic | metadata.FieldLiteral
	valueFld = metadata.FieldPublic | metadata.FieldSpecialName | metadata.FieldRTSpecialName
)

// coreLib tracks TypeDef tokens of the core image by full name.
type coreLib struct {
	b     *image.Builder
	types map[string]metadata.Token
}

func (c *coreLib) tok(full string) metadata.Token {
	tok, ok := c.types[full]
	if !ok {
		panic(fmt.Sprintf("testimages: core type %s not defined yet", full))
	}
	return tok
}

func (c *coreLib) def(ns, name string, flags metadata.TypeAttributes, base string) *image.TypeBuilder {
	var extends metadata.Token
	if base != "" {
		extends = c.tok(base)
	}
	tb := c.b.TypeDef(ns, name, flags, extends)
	c.types[ns+"."+name] = tb.Token()
	return tb
}

func (c *coreLib) class(full string) metadata.TypeSig { return metadata.Class(c.tok(full)) }
func (c *coreLib) value(full string) metadata.TypeSig { return metadata.ValueType(c.tok(full)) }

func (c *coreLib) enum(ns, name string, members ...string) *image.TypeBuilder {
	tb := c.def(ns, name, pubSealed, "System.Enum")
	tb.Field("value__", valueFld, I4)
	self := metadata.ValueType(tb.Token())
	for i, m := range members {
		tb.Field(m, literal, self).Default(metadata.MustConstant(int32(i + 1)))
	}
	return tb
}

func (c *coreLib) attribute(ns, name string, ctors ...[]metadata.TypeSig) *image.TypeBuilder {
	tb := c.def(ns, name, pubSealed, "System.Attribute")
	if len(ctors) == 0 {
		ctors = [][]metadata.TypeSig{nil}
	}
	for _, params := range ctors {
		tb.Constructor(pubMethod, params)
	}
	return tb
}

// CoreBuilder assembles the core library. Each call yields a fresh MVID.
func CoreBuilder() *image.Builder {
	c := &coreLib{
		b:     image.NewBuilder(CoreName, CoreVersion),
		types: make(map[string]metadata.Token),
	}
	c.b.PublicKey([]byte{0x00, 0x24, 0x00, 0x00, 0x04, 0x80, 0x00, 0x00})

	object := c.def("System", "Object", metadata.TypePublic|metadata.TypeSerializable, "")
	object.Constructor(pubMethod, nil)
	object.Method("ToString", pubVirtual, Sig(String))
	object.Method("Equals", pubVirtual, Sig(Bool, Object), "obj")
	object.Method("GetHashCode", pubVirtual, Sig(I4))

	c.def("System", "ValueType", pubAbstract, "System.Object")
	c.def("System", "Enum", pubAbstract, "System.ValueType")
	c.def("System", "Void", pubStruct, "System.ValueType")
	for _, name := range []string{
		"Boolean", "Char", "SByte", "Byte", "Int16", "UInt16", "Int32", "UInt32",
		"Int64", "UInt64", "Single", "Double", "IntPtr", "UIntPtr", "TypedReference",
		"Decimal", "DateTime",
	} {
		c.def("System", name, pubStruct, "System.ValueType")
	}

	str := c.def("System", "String", pubSealed, "System.Object")
	str.Field("Empty", metadata.FieldPublic|metadata.FieldStatic|metadata.FieldInitOnly, String)
	getLength := str.Method("get_Length", pubGetter, Sig(I4))
	str.Property("Length", metadata.PropertySig{HasThis: true, Type: metadata.ParamSig{Type: I4}}, getLength.Token(), 0)

	c.def("System", "Exception", pubClass, "System.Object").Constructor(pubMethod, nil)

	// Non-generic collections.
	const coll = "System.Collections"
	c.def(coll, "IEnumerable", pubIface, "")
	c.def(coll, "ICollection", pubIface, "").Implements(c.tok(coll + ".IEnumerable"))
	c.def(coll, "IList", pubIface, "").Implements(c.tok(coll+".ICollection"), c.tok(coll+".IEnumerable"))

	array := c.def("System", "Array", pubAbstract, "System.Object")
	array.Implements(c.tok(coll+".IList"), c.tok(coll+".ICollection"), c.tok(coll+".IEnumerable"))
	getArrayLength := array.Method("get_Length", pubGetter, Sig(I4))
	array.Property("Length", metadata.PropertySig{HasThis: true, Type: metadata.ParamSig{Type: I4}}, getArrayLength.Token(), 0)

	// Generic collections. Each interface lists its full closure.
	const gen = "System.Collections.Generic"
	over := func(def string) metadata.Token {
		return c.b.TypeSpec(metadata.GenericInst(c.class(def), metadata.Var(0)))
	}
	ienum := c.def(gen, "IEnumerable`1", pubIface, "")
	ienum.GenericParam("T", metadata.GenericCovariant)
	ienum.Implements(c.tok(coll + ".IEnumerable"))

	icoll := c.def(gen, "ICollection`1", pubIface, "")
	icoll.GenericParam("T", 0)
	icoll.Implements(over(gen+".IEnumerable`1"), c.tok(coll+".IEnumerable"))
	icoll.Method("get_Count", pubAbstMeth|metadata.MethodSpecialName, Sig(I4))

	ilist := c.def(gen, "IList`1", pubIface, "")
	ilist.GenericParam("T", 0)
	ilist.Implements(over(gen+".ICollection`1"), over(gen+".IEnumerable`1"), c.tok(coll+".IEnumerable"))
	ilist.Method("IndexOf", pubAbstMeth, Sig(I4, metadata.Var(0)), "item")

	irocoll := c.def(gen, "IReadOnlyCollection`1", pubIface, "")
	irocoll.GenericParam("T", metadata.GenericCovariant)
	irocoll.Implements(over(gen+".IEnumerable`1"), c.tok(coll+".IEnumerable"))

	irolist := c.def(gen, "IReadOnlyList`1", pubIface, "")
	irolist.GenericParam("T", metadata.GenericCovariant)
	irolist.Implements(over(gen+".IReadOnlyCollection`1"), over(gen+".IEnumerable`1"), c.tok(coll+".IEnumerable"))

	icmp := c.def(gen, "IComparer`1", pubIface, "")
	icmp.GenericParam("T", metadata.GenericContravariant)
	icmp.Method("Compare", pubAbstMeth, Sig(I4, metadata.Var(0), metadata.Var(0)), "x", "y")

	nullable := c.def("System", "Nullable`1", pubStruct, "System.ValueType")
	nullable.GenericParam("T", metadata.GenericNotNullableValueTypeConstraint|metadata.GenericDefaultConstructorConstraint,
		c.tok("System.ValueType"))
	nullable.Field("hasValue", metadata.FieldPrivate, Bool)
	nullable.Field("value", metadata.FieldPrivate, metadata.Var(0))
	getHasValue := nullable.Method("get_HasValue", pubGetter, Sig(Bool))
	nullable.Property("HasValue", metadata.PropertySig{HasThis: true, Type: metadata.ParamSig{Type: Bool}}, getHasValue.Token(), 0)

	tuple := c.def("System", "ValueTuple`2", pubStruct, "System.ValueType")
	tuple.GenericParam("T1", 0)
	tuple.GenericParam("T2", 0)
	tuple.Field("Item1", metadata.FieldPublic, metadata.Var(0))
	tuple.Field("Item2", metadata.FieldPublic, metadata.Var(1))

	// Delegates.
	c.def("System", "Delegate", pubAbstract, "System.Object")
	c.def("System", "MulticastDelegate", pubAbstract, "System.Delegate")
	delegate := func(name string, invoke metadata.MethodSig, params ...string) *image.TypeBuilder {
		tb := c.def("System", name, pubSealed, "System.MulticastDelegate")
		tb.Constructor(pubMethod, []metadata.TypeSig{Object, NativeI}, "object", "method").
			ImplFlags(metadata.ImplRuntime)
		tb.Method("Invoke", pubVirtual, invoke, params...).ImplFlags(metadata.ImplRuntime)
		return tb
	}
	delegate("EventHandler", Sig(Void, Object), "sender")
	action := c.def("System", "Action`1", pubSealed, "System.MulticastDelegate")
	action.GenericParam("T", metadata.GenericContravariant)
	action.Method("Invoke", pubVirtual, Sig(Void, metadata.Var(0)), "obj").ImplFlags(metadata.ImplRuntime)
	fn := c.def("System", "Func`1", pubSealed, "System.MulticastDelegate")
	fn.GenericParam("TResult", metadata.GenericCovariant)
	fn.Method("Invoke", pubVirtual, Sig(metadata.Var(0))).ImplFlags(metadata.ImplRuntime)

	// Attributes.
	attr := c.def("System", "Attribute", pubAbstract, "System.Object")
	attr.Constructor(metadata.MethodFamily|metadata.MethodHideBySig, nil)
	c.attribute("System", "SerializableAttribute")
	c.attribute("System", "NonSerializedAttribute")
	c.attribute("System", "FlagsAttribute")
	obsolete := c.attribute("System", "ObsoleteAttribute", nil, []metadata.TypeSig{String}, []metadata.TypeSig{String, Bool})
	getMessage := obsolete.Method("get_Message", pubGetter, Sig(String))
	obsolete.Property("Message", metadata.PropertySig{HasThis: true, Type: metadata.ParamSig{Type: String}}, getMessage.Token(), 0)

	const interop = "System.Runtime.InteropServices"
	c.enum(interop, "CharSet", "None", "Ansi", "Unicode", "Auto")
	c.enum(interop, "CallingConvention", "Winapi", "Cdecl", "StdCall", "ThisCall", "FastCall")
	unmanaged := c.def(interop, "UnmanagedType", pubSealed, "System.Enum")
	unmanaged.Field("value__", valueFld, I4)
	for _, m := range []struct {
		name  string
		value int32
	}{{"Bool", 2}, {"I4", 7}, {"LPStr", 20}, {"LPWStr", 21}, {"ByValArray", 30}, {"LPArray", 42}} {
		unmanaged.Field(m.name, literal, metadata.ValueType(unmanaged.Token())).Default(metadata.MustConstant(m.value))
	}
	c.enum(interop, "VarEnum", "VT_NULL", "VT_I2", "VT_I4")

	dll := c.attribute(interop, "DllImportAttribute", []metadata.TypeSig{String})
	dll.Field("EntryPoint", metadata.FieldPublic, String)
	dll.Field("CharSet", metadata.FieldPublic, c.value(interop+".CharSet"))
	dll.Field("ExactSpelling", metadata.FieldPublic, Bool)
	dll.Field("SetLastError", metadata.FieldPublic, Bool)
	dll.Field("PreserveSig", metadata.FieldPublic, Bool)
	dll.Field("CallingConvention", metadata.FieldPublic, c.value(interop+".CallingConvention"))
	dll.Field("BestFitMapping", metadata.FieldPublic, Bool)
	dll.Field("ThrowOnUnmappableChar", metadata.FieldPublic, Bool)

	marshal := c.attribute(interop, "MarshalAsAttribute",
		[]metadata.TypeSig{c.value(interop + ".UnmanagedType")}, []metadata.TypeSig{I2})
	marshal.Field("ArraySubType", metadata.FieldPublic, c.value(interop+".UnmanagedType"))
	marshal.Field("SizeParamIndex", metadata.FieldPublic, I2)
	marshal.Field("SizeConst", metadata.FieldPublic, I4)
	marshal.Field("SafeArraySubType", metadata.FieldPublic, c.value(interop+".VarEnum"))
	marshal.Field("MarshalType", metadata.FieldPublic, String)
	marshal.Field("MarshalCookie", metadata.FieldPublic, String)

	c.attribute(interop, "FieldOffsetAttribute", []metadata.TypeSig{I4})
	for _, name := range []string{"InAttribute", "OutAttribute", "OptionalAttribute", "ComImportAttribute", "PreserveSigAttribute"} {
		c.attribute(interop, name)
	}

	const compiler = "System.Runtime.CompilerServices"
	c.attribute(compiler, "DateTimeConstantAttribute", []metadata.TypeSig{I8})
	c.attribute(compiler, "DecimalConstantAttribute", []metadata.TypeSig{U1, U1, U4, U4, U4})

	return c.b
}

// Core returns the encoded core library.
func Core() []byte { return CoreBuilder().MustBytes() }
