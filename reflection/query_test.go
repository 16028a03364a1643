package reflection

import (
	"testing"

	"golang.org/x/sync/errgroup"

	"github.com/wippyai/metareflect/errors"
	"github.com/wippyai/metareflect/metadata"
)

func TestType_MethodsHiding(t *testing.T) {
	u := newUniverse(t)
	derived := u.typ(t, "Sample.Derived")

	ms, err := derived.Methods(Public | Instance)
	if err != nil {
		t.Fatal(err)
	}
	names := memberNames(ms)
	for name, want := range map[string]int{
		"Run":            1,
		"Hidden":         2,
		"Overload":       3,
		"get_Name":       1,
		"add_Changed":    1,
		"remove_Changed": 1,
		"ToString":       1,
		"Equals":         1,
		"GetHashCode":    1,
		"Helper":         0,
		"Create":         0,
		".ctor":          0,
	} {
		if got := count(names, name); got != want {
			t.Errorf("%s appears %d times, want %d (all: %v)", name, got, want, names)
		}
	}
	for _, m := range ms {
		if m.ReflectedType() != derived {
			t.Errorf("%s reflected through %v", m.Name(), m.ReflectedType())
		}
	}

	declared, err := derived.Methods(Public | Instance | DeclaredOnly)
	if err != nil {
		t.Fatal(err)
	}
	if len(declared) != 4 {
		t.Errorf("declared methods = %v", memberNames(declared))
	}
	for _, m := range declared {
		if m.DeclaringType() != derived {
			t.Errorf("%s declared by %v", m.Name(), m.DeclaringType())
		}
	}

	run, err := derived.Method("Run", Public|Instance)
	if err != nil {
		t.Fatal(err)
	}
	if run.DeclaringType() != derived || !run.IsVirtual() || run.IsNewSlot() {
		t.Errorf("Run = %v declared by %v", run, run.DeclaringType())
	}
	hidden, err := derived.Method("Hidden", Public|Instance)
	if err != nil {
		t.Fatal(err)
	}
	if hidden.DeclaringType() != derived {
		t.Errorf("Hidden declared by %v", hidden.DeclaringType())
	}

	equals, err := derived.Method("Equals", Public|Instance)
	if err != nil {
		t.Fatal(err)
	}
	if equals.DeclaringType() != u.typ(t, "System.Object") || equals.ReflectedType() != derived {
		t.Errorf("Equals declared by %v reflected by %v", equals.DeclaringType(), equals.ReflectedType())
	}
}

func TestType_MethodOverloads(t *testing.T) {
	u := newUniverse(t)
	base := u.typ(t, "Sample.Base")
	derived := u.typ(t, "Sample.Derived")
	i4 := u.typ(t, "System.Int32")
	str := u.typ(t, "System.String")

	_, err := base.Method("Overload", Public|Instance)
	wantKind(t, err, errors.KindAmbiguousMatch)
	_, err = derived.Method("Overload", Public|Instance)
	wantKind(t, err, errors.KindAmbiguousMatch)

	m, err := derived.MethodBySignature("Overload", Public|Instance, i4)
	if err != nil {
		t.Fatal(err)
	}
	if m.DeclaringType() != derived {
		t.Errorf("Overload(int) declared by %v", m.DeclaringType())
	}

	m, err = derived.MethodBySignature("Overload", Public|Instance, str)
	if err != nil {
		t.Fatal(err)
	}
	if m.DeclaringType() != base || m.ReflectedType() != derived {
		t.Errorf("Overload(string) declared by %v reflected by %v", m.DeclaringType(), m.ReflectedType())
	}
	if got := m.String(); got != "System.Void Overload(System.String)" {
		t.Errorf("String = %q", got)
	}

	_, err = derived.MethodBySignature("Overload", Public|Instance, i4, i4)
	wantKind(t, err, errors.KindNotFound)
}

func TestType_StaticAndPrivateMembers(t *testing.T) {
	u := newUniverse(t)
	base := u.typ(t, "Sample.Base")
	derived := u.typ(t, "Sample.Derived")

	// Ask the immediate-only question first so the full walk must replace it.
	_, err := derived.Method("Create", Public|Static)
	wantKind(t, err, errors.KindNotFound)

	create, err := derived.Method("Create", Public|Static|FlattenHierarchy)
	if err != nil {
		t.Fatal(err)
	}
	if create.DeclaringType() != base || !create.IsStatic() {
		t.Errorf("Create = %v", create)
	}
	if _, err := base.Method("Create", Public|Static); err != nil {
		t.Errorf("Create on Base: %v", err)
	}

	if _, err := base.Method("Helper", NonPublic|Instance); err != nil {
		t.Errorf("Helper on Base: %v", err)
	}
	_, err = derived.Method("Helper", NonPublic|Instance)
	wantKind(t, err, errors.KindNotFound)
	_, err = base.Method("Helper", Public|Instance)
	wantKind(t, err, errors.KindNotFound)

	if _, err := base.Field("secret", NonPublic|Instance); err != nil {
		t.Errorf("secret on Base: %v", err)
	}
	_, err = derived.Field("secret", AllMembers|FlattenHierarchy)
	wantKind(t, err, errors.KindNotFound)

	_, err = derived.Field("Shared", Public|Static)
	wantKind(t, err, errors.KindNotFound)
	shared, err := derived.Field("Shared", Public|Static|FlattenHierarchy)
	if err != nil {
		t.Fatal(err)
	}
	if shared.DeclaringType() != base {
		t.Errorf("Shared declared by %v", shared.DeclaringType())
	}
}

func TestType_Fields(t *testing.T) {
	u := newUniverse(t)
	derived := u.typ(t, "Sample.Derived")

	fs, err := derived.Fields(Public | Instance)
	if err != nil {
		t.Fatal(err)
	}
	if got := count(memberNames(fs), "count"); got != 2 {
		t.Errorf("count appears %d times", got)
	}

	// Same-named fields of different levels resolve to the most derived.
	f, err := derived.Field("count", Public|Instance)
	if err != nil {
		t.Fatal(err)
	}
	if f.DeclaringType() != derived {
		t.Errorf("count declared by %v", f.DeclaringType())
	}

	circle := u.typ(t, "Sample.Circle")
	radius, err := circle.Field("Radius", Public|Instance)
	if err != nil {
		t.Fatal(err)
	}
	if rt, err := radius.FieldType(); err != nil || rt != u.typ(t, "System.Double") {
		t.Errorf("Radius type = %v, %v", rt, err)
	}
	if !radius.IsPublic() || radius.IsStatic() || radius.IsLiteral() || radius.IsInitOnly() {
		t.Error("Radius flags")
	}
	tag, err := circle.Field("tag", NonPublic|Instance)
	if err != nil {
		t.Fatal(err)
	}
	if !tag.IsPrivate() || tag.Attributes()&metadata.FieldNotSerialized == 0 {
		t.Error("tag flags")
	}
	if got := tag.String(); got != "System.String tag" {
		t.Errorf("String = %q", got)
	}
}

func TestType_NameMatching(t *testing.T) {
	u := newUniverse(t)
	derived := u.typ(t, "Sample.Derived")

	run, err := derived.Method("rUN", Public|Instance|IgnoreCase)
	if err != nil {
		t.Fatal(err)
	}
	if run.Name() != "Run" {
		t.Errorf("IgnoreCase matched %q", run.Name())
	}
	_, err = derived.Method("rUN", Public|Instance)
	wantKind(t, err, errors.KindNotFound)

	ms, err := derived.Members("Over*", Public|Instance)
	if err != nil {
		t.Fatal(err)
	}
	if len(ms) != 3 || count(memberNames(ms), "Overload") != 3 {
		t.Errorf("prefix match = %v", memberNames(ms))
	}
	ms, err = derived.Members("over*", Public|Instance|IgnoreCase)
	if err != nil {
		t.Fatal(err)
	}
	if len(ms) != 3 {
		t.Errorf("case-insensitive prefix match = %v", memberNames(ms))
	}

	ms, err = derived.Members("Name", Public|Instance)
	if err != nil {
		t.Fatal(err)
	}
	if len(ms) != 1 || ms[0].MemberKind() != MemberProperty {
		t.Errorf("Members(Name) = %v", memberNames(ms))
	}

	all, err := derived.Members("", Public|Instance|DeclaredOnly)
	if err != nil {
		t.Fatal(err)
	}
	kinds := make(map[MemberKind]int)
	for _, m := range all {
		kinds[m.MemberKind()]++
	}
	want := map[MemberKind]int{MemberConstructor: 2, MemberMethod: 4, MemberField: 1, MemberProperty: 1}
	for k, n := range want {
		if kinds[k] != n {
			t.Errorf("%s: got %d, want %d", k, kinds[k], n)
		}
	}
}

func TestType_PropertiesAndEvents(t *testing.T) {
	u := newUniverse(t)
	base := u.typ(t, "Sample.Base")
	derived := u.typ(t, "Sample.Derived")
	str := u.typ(t, "System.String")

	ps, err := derived.Properties(Public | Instance)
	if err != nil {
		t.Fatal(err)
	}
	if len(ps) != 1 || ps[0].DeclaringType() != derived {
		t.Fatalf("Derived properties = %v", memberNames(ps))
	}
	name := ps[0]
	if pt, err := name.PropertyType(); err != nil || pt != str {
		t.Errorf("Name type = %v, %v", pt, err)
	}
	if !name.CanRead() || name.CanWrite() {
		t.Error("Name is read-only")
	}
	getter, err := name.Getter()
	if err != nil {
		t.Fatal(err)
	}
	if getter.Name() != "get_Name" || getter.DeclaringType() != derived {
		t.Errorf("getter = %v", getter)
	}
	if setter, err := name.Setter(); err != nil || setter != nil {
		t.Errorf("setter = %v, %v", setter, err)
	}

	baseName, err := base.Property("Name", Public|Instance)
	if err != nil {
		t.Fatal(err)
	}
	if baseName.DeclaringType() != base {
		t.Errorf("Base.Name declared by %v", baseName.DeclaringType())
	}

	changed, err := derived.Event("Changed", Public|Instance)
	if err != nil {
		t.Fatal(err)
	}
	if changed.DeclaringType() != base || changed.ReflectedType() != derived {
		t.Errorf("Changed declared by %v reflected by %v", changed.DeclaringType(), changed.ReflectedType())
	}
	if ht, err := changed.EventHandlerType(); err != nil || ht != u.typ(t, "System.EventHandler") {
		t.Errorf("handler type = %v, %v", ht, err)
	}
	add, err := changed.AddMethod()
	if err != nil {
		t.Fatal(err)
	}
	remove, err := changed.RemoveMethod()
	if err != nil {
		t.Fatal(err)
	}
	if add.Name() != "add_Changed" || remove.Name() != "remove_Changed" {
		t.Errorf("accessors = %v, %v", add, remove)
	}
	if raise, err := changed.RaiseMethod(); err != nil || raise != nil {
		t.Errorf("raise = %v, %v", raise, err)
	}

	es, err := derived.Events(Public | Instance | DeclaredOnly)
	if err != nil {
		t.Fatal(err)
	}
	if len(es) != 0 {
		t.Errorf("Derived declares events %v", memberNames(es))
	}
}

func TestType_ConstructorsAndNestedTypes(t *testing.T) {
	u := newUniverse(t)
	derived := u.typ(t, "Sample.Derived")
	i4 := u.typ(t, "System.Int32")

	ctors, err := derived.Constructors(Public | Instance)
	if err != nil {
		t.Fatal(err)
	}
	if len(ctors) != 2 {
		t.Errorf("Derived constructors = %d", len(ctors))
	}
	for _, c := range ctors {
		if !c.IsConstructor() || c.DeclaringType() != derived {
			t.Errorf("%v is not a Derived constructor", c)
		}
	}
	withCount, err := derived.Constructor(Public|Instance, i4)
	if err != nil {
		t.Fatal(err)
	}
	ps, err := withCount.Parameters()
	if err != nil {
		t.Fatal(err)
	}
	if len(ps) != 1 || ps[0].Name() != "count" {
		t.Errorf("constructor parameters = %v", ps)
	}
	_, err = u.typ(t, "Sample.Base").Constructor(Public|Instance, i4)
	wantKind(t, err, errors.KindNotFound)
	_, err = u.typ(t, "System.Attribute").Constructor(Public | Instance)
	wantKind(t, err, errors.KindNotFound)
	if _, err := u.typ(t, "System.Attribute").Constructor(NonPublic | Instance); err != nil {
		t.Errorf("protected Attribute constructor: %v", err)
	}

	outer := u.typ(t, "Sample.Outer")
	pub, err := outer.NestedTypes(Public)
	if err != nil {
		t.Fatal(err)
	}
	if len(pub) != 1 || pub[0] != u.typ(t, "Sample.Outer+Inner") {
		t.Errorf("public nested = %v", pub)
	}
	priv, err := outer.NestedTypes(NonPublic)
	if err != nil {
		t.Fatal(err)
	}
	if len(priv) != 1 || priv[0].Name() != "Secret" {
		t.Errorf("non-public nested = %v", priv)
	}
	_, err = outer.NestedType("Secret", Public)
	wantKind(t, err, errors.KindNotFound)
	if _, err := outer.NestedType("Secret", NonPublic); err != nil {
		t.Errorf("NestedType(Secret): %v", err)
	}
}

func TestType_ArrayMethods(t *testing.T) {
	u := newUniverse(t)
	i4 := u.typ(t, "System.Int32")
	md, err := i4.MakeArrayType(2)
	if err != nil {
		t.Fatal(err)
	}

	declared, err := md.Methods(Public | Instance | DeclaredOnly)
	if err != nil {
		t.Fatal(err)
	}
	names := memberNames(declared)
	for _, n := range []string{"Get", "Set", "Address"} {
		if count(names, n) != 1 {
			t.Errorf("rank-2 array methods = %v", names)
		}
	}

	get, err := md.Method("Get", Public|Instance)
	if err != nil {
		t.Fatal(err)
	}
	if got := get.String(); got != "System.Int32 Get(System.Int32, System.Int32)" {
		t.Errorf("Get = %q", got)
	}
	addr, err := md.Method("Address", Public|Instance)
	if err != nil {
		t.Fatal(err)
	}
	if rt, err := addr.ReturnType(); err != nil || !rt.IsByRef() || rt.ElementType() != i4 {
		t.Errorf("Address returns %v, %v", rt, err)
	}

	ctors, err := md.Constructors(Public | Instance)
	if err != nil {
		t.Fatal(err)
	}
	if len(ctors) != 2 {
		t.Fatalf("rank-2 constructors = %d", len(ctors))
	}
	for i, want := range []int{2, 4} {
		pts, err := ctors[i].ParameterTypes()
		if err != nil {
			t.Fatal(err)
		}
		if len(pts) != want {
			t.Errorf("constructor %d takes %d parameters, want %d", i, len(pts), want)
		}
	}

	vecCtors, err := mustSZArray(t, i4).Constructors(Public | Instance)
	if err != nil {
		t.Fatal(err)
	}
	if len(vecCtors) != 1 {
		t.Errorf("vector constructors = %d", len(vecCtors))
	}

	length, err := md.Property("Length", Public|Instance)
	if err != nil {
		t.Fatal(err)
	}
	if length.DeclaringType() != u.typ(t, "System.Array") {
		t.Errorf("Length declared by %v", length.DeclaringType())
	}
}

func TestModule_ResolveMembers(t *testing.T) {
	u := newUniverse(t)
	mod := u.lib.ManifestModule()
	i4 := u.typ(t, "System.Int32")
	boxOfInt := u.inst(t, "Sample.Box`1", i4)

	run, err := mod.ResolveMethod(u.toks.BaseRun, GenericContext{})
	if err != nil {
		t.Fatal(err)
	}
	declaredRun, err := u.typ(t, "Sample.Base").Method("Run", Public|Instance)
	if err != nil {
		t.Fatal(err)
	}
	if run != declaredRun {
		t.Error("method token and query produced different descriptors")
	}

	get, err := mod.ResolveMethod(u.toks.BoxGetRef, GenericContext{})
	if err != nil {
		t.Fatal(err)
	}
	if get.DeclaringType() != boxOfInt {
		t.Errorf("Get declared by %v", get.DeclaringType())
	}
	if rt, err := get.ReturnType(); err != nil || rt != i4 {
		t.Errorf("Get returns %v, %v", rt, err)
	}
	queried, err := boxOfInt.Method("Get", Public|Instance)
	if err != nil {
		t.Fatal(err)
	}
	if queried != get {
		t.Error("member reference and query produced different descriptors")
	}

	value, err := mod.ResolveField(u.toks.BoxValueRef, GenericContext{})
	if err != nil {
		t.Fatal(err)
	}
	if ft, err := value.FieldType(); err != nil || ft != i4 {
		t.Errorf("Value type = %v, %v", ft, err)
	}

	toString, err := mod.ResolveMethod(u.toks.ToStringRef, GenericContext{})
	if err != nil {
		t.Fatal(err)
	}
	if toString.DeclaringType() != u.typ(t, "System.Object") {
		t.Errorf("ToString declared by %v", toString.DeclaringType())
	}

	_, err = mod.ResolveMethod(u.toks.Base, GenericContext{})
	wantKind(t, err, errors.KindMalformedInput)
	_, err = mod.ResolveField(u.toks.BoxGetRef, GenericContext{})
	wantKind(t, err, errors.KindMalformedInput)
}

func TestType_ConcurrentQueries(t *testing.T) {
	u := newUniverse(t)
	derived := u.typ(t, "Sample.Derived")
	i4 := u.typ(t, "System.Int32")

	const workers = 16
	types := make([]*Type, workers)
	runs := make([]*Method, workers)
	boxes := make([]*Type, workers)

	var g errgroup.Group
	for i := 0; i < workers; i++ {
		g.Go(func() error {
			typ, err := u.lib.Type("Sample.Derived")
			if err != nil {
				return err
			}
			types[i] = typ
			if runs[i], err = typ.Method("Run", Public|Instance); err != nil {
				return err
			}
			def, err := u.lib.Type("Sample.Box`1")
			if err != nil {
				return err
			}
			boxes[i], err = def.MakeGenericType(i4)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		t.Fatal(err)
	}
	for i := 0; i < workers; i++ {
		if types[i] != derived || runs[i] != runs[0] || boxes[i] != boxes[0] {
			t.Fatalf("worker %d observed a different descriptor", i)
		}
	}
}

func TestBindingFlags_String(t *testing.T) {
	tests := []struct {
		flags BindingFlags
		want  string
	}{
		{0, "Default"},
		{Public | Instance, "Instance|Public"},
		{AllMembers | FlattenHierarchy, "Instance|Static|Public|NonPublic|FlattenHierarchy"},
		{IgnoreCase | DeclaredOnly, "IgnoreCase|DeclaredOnly"},
	}
	for _, tt := range tests {
		if got := tt.flags.String(); got != tt.want {
			t.Errorf("%#x.String() = %q, want %q", uint32(tt.flags), got, tt.want)
		}
	}
}
