package reflection

import (
	"slices"
	"testing"

	"github.com/wippyai/metareflect/errors"
	"github.com/wippyai/metareflect/metadata"
)

func TestType_Identity(t *testing.T) {
	u := newUniverse(t)

	derived := u.typ(t, "Sample.Derived")
	if again := u.typ(t, "Sample.Derived"); again != derived {
		t.Error("second lookup returned a new descriptor")
	}
	byToken, err := u.lib.ManifestModule().ResolveType(u.toks.Derived, GenericContext{})
	if err != nil {
		t.Fatal(err)
	}
	if byToken != derived {
		t.Error("token lookup returned a new descriptor")
	}

	base, err := derived.BaseType()
	if err != nil {
		t.Fatal(err)
	}
	if base != u.typ(t, "Sample.Base") {
		t.Errorf("BaseType = %v", base)
	}

	// Primitive signatures in the library bind to core definitions.
	f, err := base.Field("count", Public|Instance)
	if err != nil {
		t.Fatal(err)
	}
	ft, err := f.FieldType()
	if err != nil {
		t.Fatal(err)
	}
	if ft != u.typ(t, "System.Int32") {
		t.Errorf("count field type = %v", ft)
	}

	i4 := u.typ(t, "System.Int32")
	if u.inst(t, "Sample.Box`1", i4) != u.inst(t, "Sample.Box`1", i4) {
		t.Error("generic instances are not uniqued")
	}
	if mustSZArray(t, i4) != mustSZArray(t, i4) {
		t.Error("arrays are not uniqued")
	}
	p1, _ := i4.MakePointerType()
	p2, _ := i4.MakePointerType()
	if p1 != p2 {
		t.Error("pointers are not uniqued")
	}
	r1, _ := i4.MakeByRefType()
	r2, _ := i4.MakeByRefType()
	if r1 != r2 {
		t.Error("byrefs are not uniqued")
	}

	boxOfInt, err := u.lib.ManifestModule().ResolveType(u.toks.BoxOfInt, GenericContext{})
	if err != nil {
		t.Fatal(err)
	}
	if boxOfInt != u.inst(t, "Sample.Box`1", i4) {
		t.Error("TypeSpec instance differs from MakeGenericType")
	}
}

func TestType_Names(t *testing.T) {
	u := newUniverse(t)
	i4 := u.typ(t, "System.Int32")
	box := u.typ(t, "Sample.Box`1")
	boxOfInt := u.inst(t, "Sample.Box`1", i4)
	params, err := box.GenericArguments()
	if err != nil {
		t.Fatal(err)
	}
	tParam := params[0]

	vec := mustSZArray(t, i4)
	mdOne, err := i4.MakeArrayType(1)
	if err != nil {
		t.Fatal(err)
	}
	mdTwo, err := i4.MakeArrayType(2)
	if err != nil {
		t.Fatal(err)
	}
	ptr, _ := i4.MakePointerType()
	ref, _ := i4.MakeByRefType()
	tArr := mustSZArray(t, tParam)

	tests := []struct {
		name      string
		typ       *Type
		simple    string
		namespace string
		full      string
		str       string
	}{
		{"definition", u.typ(t, "Sample.Derived"), "Derived", "Sample", "Sample.Derived", "Sample.Derived"},
		{"generic definition", box, "Box`1", "Sample", "Sample.Box`1", "Sample.Box`1"},
		{"instance", boxOfInt, "Box`1", "Sample", "Sample.Box`1[[System.Int32, " + u.core.FullName() + "]]", "Sample.Box`1[System.Int32]"},
		{"nested", u.typ(t, "Sample.Outer+Inner"), "Inner", "Sample", "Sample.Outer+Inner", "Sample.Outer+Inner"},
		{"vector", vec, "Int32[]", "System", "System.Int32[]", "System.Int32[]"},
		{"rank one array", mdOne, "Int32[*]", "System", "System.Int32[*]", "System.Int32[*]"},
		{"rank two array", mdTwo, "Int32[,]", "System", "System.Int32[,]", "System.Int32[,]"},
		{"pointer", ptr, "Int32*", "System", "System.Int32*", "System.Int32*"},
		{"byref", ref, "Int32&", "System", "System.Int32&", "System.Int32&"},
		{"generic parameter", tParam, "T", "Sample", "", "T"},
		{"array of parameter", tArr, "T[]", "Sample", "", "T[]"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.typ.Name(); got != tt.simple {
				t.Errorf("Name = %q, want %q", got, tt.simple)
			}
			if got := tt.typ.Namespace(); got != tt.namespace {
				t.Errorf("Namespace = %q, want %q", got, tt.namespace)
			}
			if got := tt.typ.FullName(); got != tt.full {
				t.Errorf("FullName = %q, want %q", got, tt.full)
			}
			if got := tt.typ.String(); got != tt.str {
				t.Errorf("String = %q, want %q", got, tt.str)
			}
		})
	}

	if got := u.typ(t, "Sample.Derived").AssemblyQualifiedName(); got != "Sample.Derived, "+u.lib.FullName() {
		t.Errorf("AssemblyQualifiedName = %q", got)
	}
	if got := tParam.AssemblyQualifiedName(); got != "" {
		t.Errorf("generic parameter AssemblyQualifiedName = %q", got)
	}
}

func TestType_Classification(t *testing.T) {
	u := newUniverse(t)

	tests := []struct {
		name      string
		valueType bool
		enum      bool
		iface     bool
		class     bool
	}{
		{"Sample.Point", true, false, false, false},
		{"Sample.Color", true, true, false, false},
		{"Sample.IShape", false, false, true, false},
		{"Sample.Base", false, false, false, true},
		{"Sample.Box`1", false, false, false, true},
		{"System.Int32", true, false, false, false},
		{"System.Enum", false, false, false, true},
		{"System.ValueType", false, false, false, true},
		{"System.Nullable`1", true, false, false, false},
		{"System.String", false, false, false, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			typ := u.typ(t, tt.name)
			if got := typ.IsValueType(); got != tt.valueType {
				t.Errorf("IsValueType = %v", got)
			}
			if got := typ.IsEnum(); got != tt.enum {
				t.Errorf("IsEnum = %v", got)
			}
			if got := typ.IsInterface(); got != tt.iface {
				t.Errorf("IsInterface = %v", got)
			}
			if got := typ.IsClass(); got != tt.class {
				t.Errorf("IsClass = %v", got)
			}
		})
	}

	strs := mustSZArray(t, u.typ(t, "System.String"))
	if !strs.IsClass() || !strs.IsArray() || !strs.IsSZArray() || strs.ArrayRank() != 1 {
		t.Error("string[] classification")
	}
	if strs.ElementType() != u.typ(t, "System.String") {
		t.Error("string[] element type")
	}
	if !strs.IsSerializable() || !strs.IsSealed() {
		t.Error("arrays are sealed and serializable")
	}
	if !u.typ(t, "Sample.Color").IsSerializable() {
		t.Error("enums are serializable")
	}
	if !u.typ(t, "Sample.Point").IsSerializable() {
		t.Error("Point carries the serializable flag")
	}
	if u.typ(t, "Sample.Base").IsSerializable() {
		t.Error("Base is not serializable")
	}
}

func TestType_Nesting(t *testing.T) {
	u := newUniverse(t)
	outer := u.typ(t, "Sample.Outer")
	inner := u.typ(t, "Sample.Outer+Inner")
	secret := u.typ(t, "Sample.Outer+Secret")

	if inner.DeclaringType() != outer || secret.DeclaringType() != outer {
		t.Error("DeclaringType of nested types")
	}
	if !inner.IsNested() || !inner.IsNestedPublic() || inner.IsPublic() {
		t.Error("Inner visibility flags")
	}
	if !inner.IsVisible() || secret.IsVisible() {
		t.Error("IsVisible of nested types")
	}
	if outer.IsNested() || !outer.IsPublic() {
		t.Error("Outer is a public top-level type")
	}
	if u.inst(t, "Sample.Box`1", secret).IsVisible() {
		t.Error("instance over a private type is visible")
	}

	_, err := u.lib.Type("Sample.Outer+Missing")
	wantKind(t, err, errors.KindNotFound)
	_, err = u.lib.Type("Sample.Missing")
	wantKind(t, err, errors.KindNotFound)

	exported, err := u.lib.ExportedTypes()
	if err != nil {
		t.Fatal(err)
	}
	if slices.Contains(exported, secret) || !slices.Contains(exported, inner) {
		t.Error("ExportedTypes visibility filter")
	}
}

func TestType_Enums(t *testing.T) {
	u := newUniverse(t)
	color := u.typ(t, "Sample.Color")

	under, err := color.EnumUnderlyingType()
	if err != nil {
		t.Fatal(err)
	}
	if under != u.typ(t, "System.Int32") {
		t.Errorf("EnumUnderlyingType = %v", under)
	}
	_, err = u.typ(t, "Sample.Base").EnumUnderlyingType()
	wantKind(t, err, errors.KindInvalidInput)

	base, err := color.BaseType()
	if err != nil {
		t.Fatal(err)
	}
	if base != u.typ(t, "System.Enum") {
		t.Errorf("enum base = %v", base)
	}

	for name, want := range map[string]int32{"Red": 0, "Green": 1, "Blue": 2} {
		f, err := color.Field(name, Public|Static)
		if err != nil {
			t.Fatal(err)
		}
		if !f.IsLiteral() || !f.IsStatic() {
			t.Errorf("%s is not a static literal", name)
		}
		v, err := f.LiteralValue()
		if err != nil {
			t.Fatal(err)
		}
		if v != want {
			t.Errorf("%s = %v (%T), want %d", name, v, v, want)
		}
	}

	value, err := color.Field("value__", Public|Instance)
	if err != nil {
		t.Fatal(err)
	}
	_, err = value.LiteralValue()
	wantKind(t, err, errors.KindInvalidInput)
}

func TestType_StructLayout(t *testing.T) {
	u := newUniverse(t)

	layout, ok := u.typ(t, "Sample.Point").StructLayout()
	if !ok {
		t.Fatal("Point has no layout")
	}
	if layout.Kind != LayoutExplicit || layout.Pack != 4 || layout.Size != 8 {
		t.Errorf("Point layout = %+v", layout)
	}
	point := u.typ(t, "Sample.Point")
	for name, want := range map[string]int{"X": 0, "Y": 4} {
		f, err := point.Field(name, Public|Instance)
		if err != nil {
			t.Fatal(err)
		}
		off, ok := f.Offset()
		if !ok || off != want {
			t.Errorf("%s offset = %d, %v", name, off, ok)
		}
	}

	layout, ok = u.typ(t, "Sample.Reading").StructLayout()
	if !ok || layout.Kind != LayoutSequential || layout.Pack != 8 || layout.Size != 0 {
		t.Errorf("Reading layout = %+v, %v", layout, ok)
	}
	layout, ok = u.typ(t, "Sample.Circle").StructLayout()
	if !ok || layout.Kind != LayoutAuto || layout.CharSet != CharSetAnsi {
		t.Errorf("Circle layout = %+v, %v", layout, ok)
	}
	if _, ok := u.typ(t, "Sample.IShape").StructLayout(); ok {
		t.Error("interfaces have no layout")
	}
	if _, ok := mustSZArray(t, point).StructLayout(); ok {
		t.Error("arrays have no layout")
	}

	circleName, err := u.typ(t, "Sample.Circle").Field("Name", Public|Instance)
	if err != nil {
		t.Fatal(err)
	}
	if mi := circleName.Marshal(); mi == nil || mi.NativeType != 21 {
		t.Errorf("Circle.Name marshal = %+v", mi)
	}
}

func TestType_Generics(t *testing.T) {
	u := newUniverse(t)
	i4 := u.typ(t, "System.Int32")
	box := u.typ(t, "Sample.Box`1")
	boxOfInt := u.inst(t, "Sample.Box`1", i4)

	if !box.IsGenericTypeDefinition() || !box.IsGenericType() || box.IsConstructedGenericType() {
		t.Error("Box`1 definition flags")
	}
	if !box.ContainsGenericParameters() || boxOfInt.ContainsGenericParameters() {
		t.Error("ContainsGenericParameters")
	}
	if boxOfInt.IsGenericTypeDefinition() || !boxOfInt.IsConstructedGenericType() {
		t.Error("Box<int> flags")
	}
	if def, err := boxOfInt.GenericTypeDefinition(); err != nil || def != box {
		t.Errorf("GenericTypeDefinition = %v, %v", def, err)
	}
	if _, err := u.typ(t, "Sample.Base").GenericTypeDefinition(); !errors.IsKind(err, errors.KindInvalidInput) {
		t.Errorf("GenericTypeDefinition of non-generic: %v", err)
	}
	if boxOfInt.Token() != box.Token() {
		t.Error("instance token differs from definition token")
	}

	params, err := box.GenericArguments()
	if err != nil {
		t.Fatal(err)
	}
	if len(params) != 1 {
		t.Fatalf("Box`1 parameters = %v", params)
	}
	tp := params[0]
	if !tp.IsGenericParameter() || !tp.IsGenericTypeParameter() || tp.IsGenericMethodParameter() {
		t.Error("T classification")
	}
	if tp.GenericParameterPosition() != 0 || tp.DeclaringType() != box || tp.DeclaringMethod() != nil {
		t.Error("T owner")
	}
	if i4.GenericParameterPosition() != -1 {
		t.Error("GenericParameterPosition of a non-parameter")
	}

	args, err := boxOfInt.GenericArguments()
	if err != nil {
		t.Fatal(err)
	}
	if len(args) != 1 || args[0] != i4 {
		t.Errorf("Box<int> arguments = %v", args)
	}

	// Members of an instance resolve in its context.
	value, err := boxOfInt.Field("Value", Public|Instance)
	if err != nil {
		t.Fatal(err)
	}
	if ft, err := value.FieldType(); err != nil || ft != i4 {
		t.Errorf("Box<int>.Value type = %v, %v", ft, err)
	}
	defValue, err := box.Field("Value", Public|Instance)
	if err != nil {
		t.Fatal(err)
	}
	if ft, err := defValue.FieldType(); err != nil || ft != tp {
		t.Errorf("Box`1.Value type = %v, %v", ft, err)
	}

	ifaces, err := boxOfInt.Interfaces()
	if err != nil {
		t.Fatal(err)
	}
	if !slices.Contains(ifaces, u.inst(t, "System.Collections.Generic.IEnumerable`1", i4)) {
		t.Errorf("Box<int> interfaces = %v", ifaces)
	}
	if base, err := boxOfInt.BaseType(); err != nil || base != u.typ(t, "System.Object") {
		t.Errorf("Box<int> base = %v, %v", base, err)
	}

	t.Run("invalid instantiation", func(t *testing.T) {
		_, err := box.MakeGenericType()
		wantKind(t, err, errors.KindInvalidInput)
		_, err = box.MakeGenericType(i4, i4)
		wantKind(t, err, errors.KindInvalidInput)
		ref, _ := i4.MakeByRefType()
		_, err = box.MakeGenericType(ref)
		wantKind(t, err, errors.KindInvalidInput)
		_, err = box.MakeGenericType(nil)
		wantKind(t, err, errors.KindInvalidInput)
		_, err = boxOfInt.MakeGenericType(i4)
		wantKind(t, err, errors.KindInvalidInput)
		_, err = u.typ(t, "Sample.Base").MakeGenericType(i4)
		wantKind(t, err, errors.KindInvalidInput)
	})
}

func TestType_GenericParameterConstraints(t *testing.T) {
	u := newUniverse(t)

	params, err := u.typ(t, "Sample.Constrained`1").GenericArguments()
	if err != nil {
		t.Fatal(err)
	}
	tp := params[0]
	if tp.GenericParameterAttributes()&metadata.GenericReferenceTypeConstraint == 0 {
		t.Error("class constraint flag missing")
	}
	cs, err := tp.GenericParameterConstraints()
	if err != nil {
		t.Fatal(err)
	}
	if len(cs) != 1 || cs[0] != u.typ(t, "Sample.IShape") {
		t.Errorf("constraints = %v", cs)
	}
	if base, err := tp.BaseType(); err != nil || base != u.typ(t, "System.Object") {
		t.Errorf("base of T = %v, %v", base, err)
	}
	if ifaces, err := tp.Interfaces(); err != nil || !slices.Contains(ifaces, u.typ(t, "Sample.IShape")) {
		t.Errorf("interfaces of T = %v, %v", ifaces, err)
	}
	if tp.IsValueType() {
		t.Error("class-constrained parameter is a value type")
	}

	nparams, err := u.typ(t, "System.Nullable`1").GenericArguments()
	if err != nil {
		t.Fatal(err)
	}
	if !nparams[0].IsValueType() {
		t.Error("struct-constrained parameter is not a value type")
	}
	if base, err := nparams[0].BaseType(); err != nil || base != u.typ(t, "System.ValueType") {
		t.Errorf("base of Nullable T = %v, %v", base, err)
	}
}

func TestType_Arrays(t *testing.T) {
	u := newUniverse(t)
	i4 := u.typ(t, "System.Int32")
	vec := mustSZArray(t, i4)

	if base, err := vec.BaseType(); err != nil || base != u.typ(t, "System.Array") {
		t.Errorf("int[] base = %v, %v", base, err)
	}
	ifaces, err := vec.Interfaces()
	if err != nil {
		t.Fatal(err)
	}
	for _, def := range []string{
		"System.Collections.Generic.IList`1",
		"System.Collections.Generic.ICollection`1",
		"System.Collections.Generic.IEnumerable`1",
		"System.Collections.Generic.IReadOnlyList`1",
		"System.Collections.Generic.IReadOnlyCollection`1",
	} {
		if !slices.Contains(ifaces, u.inst(t, def, i4)) {
			t.Errorf("int[] does not implement %s", def)
		}
	}
	if !slices.Contains(ifaces, u.typ(t, "System.Collections.IList")) {
		t.Error("int[] does not inherit IList from System.Array")
	}

	md, err := i4.MakeArrayType(2)
	if err != nil {
		t.Fatal(err)
	}
	if md.IsSZArray() || md.ArrayRank() != 2 {
		t.Error("rank-2 array shape")
	}
	decl, err := md.DeclaredInterfaces()
	if err != nil {
		t.Fatal(err)
	}
	if len(decl) != 0 {
		t.Errorf("general arrays declare no generic interfaces: %v", decl)
	}

	ptr, _ := i4.MakePointerType()
	if base, err := ptr.BaseType(); err != nil || base != nil {
		t.Errorf("pointer base = %v, %v", base, err)
	}

	ref, _ := i4.MakeByRefType()
	_, err = ref.MakeSZArrayType()
	wantKind(t, err, errors.KindInvalidInput)
	_, err = ref.MakePointerType()
	wantKind(t, err, errors.KindInvalidInput)
	_, err = ref.MakeByRefType()
	wantKind(t, err, errors.KindInvalidInput)
	_, err = i4.MakeArrayType(0)
	wantKind(t, err, errors.KindInvalidInput)
}

func TestSpecialize(t *testing.T) {
	u := newUniverse(t)
	i4 := u.typ(t, "System.Int32")
	str := u.typ(t, "System.String")
	params, err := u.typ(t, "Sample.Box`1").GenericArguments()
	if err != nil {
		t.Fatal(err)
	}
	tp := params[0]
	tArr := mustSZArray(t, tp)
	tPtr, _ := tp.MakePointerType()
	enumOfT := u.inst(t, "System.Collections.Generic.IEnumerable`1", tp)
	ctx := GenericContext{TypeArgs: []*Type{str}}

	tests := []struct {
		name string
		in   *Type
		want *Type
	}{
		{"parameter", tp, str},
		{"array", tArr, mustSZArray(t, str)},
		{"instance", enumOfT, u.inst(t, "System.Collections.Generic.IEnumerable`1", str)},
		{"closed type unchanged", i4, i4},
		{"closed array unchanged", mustSZArray(t, i4), mustSZArray(t, i4)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Specialize(tt.in, ctx)
			if err != nil {
				t.Fatal(err)
			}
			if got != tt.want {
				t.Errorf("Specialize(%v) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}

	ptrOfStr, err := Specialize(tPtr, ctx)
	if err != nil {
		t.Fatal(err)
	}
	if !ptrOfStr.IsPointer() || ptrOfStr.ElementType() != str {
		t.Errorf("Specialize(T*) = %v", ptrOfStr)
	}

	if got, err := Specialize(tArr, GenericContext{}); err != nil || got != tArr {
		t.Errorf("empty context changed %v to %v, %v", tArr, got, err)
	}
	if !(GenericContext{}).IsEmpty() || ctx.IsEmpty() {
		t.Error("IsEmpty")
	}

	_, err = Specialize(tp, GenericContext{TypeArgs: []*Type{}})
	wantKind(t, err, errors.KindMalformedInput)
}

func TestMethod_MakeGenericMethod(t *testing.T) {
	u := newUniverse(t)
	i4 := u.typ(t, "System.Int32")
	str := u.typ(t, "System.String")
	boxOfInt := u.inst(t, "Sample.Box`1", i4)

	convert, err := boxOfInt.Method("Convert", Public|Instance)
	if err != nil {
		t.Fatal(err)
	}
	if !convert.IsGenericMethodDefinition() || !convert.IsGenericMethod() || !convert.ContainsGenericParameters() {
		t.Error("Convert definition flags")
	}
	if got := convert.String(); got != "U Convert[U](System.Int32)" {
		t.Errorf("definition String = %q", got)
	}

	uParams, err := convert.GenericArguments()
	if err != nil {
		t.Fatal(err)
	}
	up := uParams[0]
	if !up.IsGenericMethodParameter() || up.DeclaringMethod().Name() != "Convert" || up.DeclaringType() != boxOfInt {
		t.Error("U owner")
	}

	closed, err := convert.MakeGenericMethod(str)
	if err != nil {
		t.Fatal(err)
	}
	if got := closed.String(); got != "System.String Convert[System.String](System.Int32)" {
		t.Errorf("constructed String = %q", got)
	}
	if again, err := convert.MakeGenericMethod(str); err != nil || again != closed {
		t.Error("constructed methods are not uniqued")
	}
	if !closed.IsConstructedGenericMethod() || closed.IsGenericMethodDefinition() || closed.ContainsGenericParameters() {
		t.Error("constructed method flags")
	}
	if def, err := closed.GenericMethodDefinition(); err != nil || def != convert {
		t.Errorf("GenericMethodDefinition = %v, %v", def, err)
	}
	if rt, err := closed.ReturnType(); err != nil || rt != str {
		t.Errorf("ReturnType = %v, %v", rt, err)
	}

	get, err := boxOfInt.Method("Get", Public|Instance)
	if err != nil {
		t.Fatal(err)
	}
	_, err = get.MakeGenericMethod(str)
	wantKind(t, err, errors.KindInvalidInput)
	_, err = get.GenericMethodDefinition()
	wantKind(t, err, errors.KindInvalidInput)
	_, err = closed.MakeGenericMethod(str)
	wantKind(t, err, errors.KindInvalidInput)
	_, err = convert.MakeGenericMethod()
	wantKind(t, err, errors.KindInvalidInput)
}
