package reflection

import (
	"testing"

	"github.com/wippyai/metareflect/errors"
)

// attrNames returns the full type names of attrs.
func attrNames(t *testing.T, attrs []*CustomAttribute) []string {
	t.Helper()
	out := make([]string, len(attrs))
	for i, a := range attrs {
		at, err := a.AttributeType()
		if err != nil {
			t.Fatalf("AttributeType: %v", err)
		}
		out[i] = at.FullName()
	}
	return out
}

func onlyAttribute(t *testing.T, attrs []*CustomAttribute, err error, fullName string) *CustomAttribute {
	t.Helper()
	if err != nil {
		t.Fatal(err)
	}
	matched, err := AttributesOfType(attrs, fullName)
	if err != nil {
		t.Fatal(err)
	}
	if len(matched) != 1 {
		t.Fatalf("want one %s, have %v", fullName, attrNames(t, attrs))
	}
	return matched[0]
}

func TestCustomAttributes_Decoded(t *testing.T) {
	u := newUniverse(t)

	attrs, err := u.typ(t, "Sample.Base").CustomAttributes()
	obsolete := onlyAttribute(t, attrs, err, "System.ObsoleteAttribute")
	if obsolete.IsSynthesized() || obsolete.Token() == 0 {
		t.Error("Obsolete should come from a CustomAttribute row")
	}
	if got := obsolete.String(); got != `[System.ObsoleteAttribute("use Derived")]` {
		t.Errorf("String = %s", got)
	}
	fixed, err := obsolete.FixedArguments()
	if err != nil {
		t.Fatal(err)
	}
	if len(fixed) != 1 || fixed[0].Value != "use Derived" || fixed[0].Type != u.typ(t, "System.String") {
		t.Errorf("fixed = %+v", fixed)
	}
	ctor, err := obsolete.Constructor()
	if err != nil {
		t.Fatal(err)
	}
	if ps, err := ctor.ParameterTypes(); err != nil || len(ps) != 1 {
		t.Errorf("Obsolete ctor parameters = %v, %v", ps, err)
	}

	attrs, err = u.typ(t, "Sample.Derived").CustomAttributes()
	tag := onlyAttribute(t, attrs, err, "Sample.TagAttribute")
	if got := tag.String(); got != `[Sample.TagAttribute("derived", Weight = 3, Aliases = {"d", "der"})]` {
		t.Errorf("String = %s", got)
	}
	named, err := tag.NamedArguments()
	if err != nil {
		t.Fatal(err)
	}
	if len(named) != 2 {
		t.Fatalf("named = %+v", named)
	}
	weight := named[0]
	if weight.Name != "Weight" || !weight.IsField || weight.Argument.Value != int32(3) ||
		weight.Argument.Type != u.typ(t, "System.Int32") {
		t.Errorf("Weight = %+v", weight)
	}
	aliases := named[1]
	elems, ok := aliases.Argument.Value.([]AttributeArgument)
	if !ok || len(elems) != 2 || elems[0].Value != "d" || elems[1].Value != "der" {
		t.Errorf("Aliases = %+v", aliases.Argument)
	}
	if aliases.Argument.Type != mustSZArray(t, u.typ(t, "System.String")) {
		t.Errorf("Aliases type = %v", aliases.Argument.Type)
	}

	// Instances report the attributes of their definition.
	access, err := u.typ(t, "Sample.Access").CustomAttributes()
	onlyAttribute(t, access, err, "System.FlagsAttribute")
	boxAttrs, err := u.inst(t, "Sample.Box`1", u.typ(t, "System.Int32")).CustomAttributes()
	if err != nil || len(boxAttrs) != 0 {
		t.Errorf("Box<int> attributes = %v, %v", boxAttrs, err)
	}
}

func TestCustomAttributes_Synthesized(t *testing.T) {
	u := newUniverse(t)
	i4 := u.typ(t, "System.Int32")

	t.Run("serializable type", func(t *testing.T) {
		attrs, err := u.typ(t, "Sample.Point").CustomAttributes()
		a := onlyAttribute(t, attrs, err, "System.SerializableAttribute")
		if !a.IsSynthesized() || a.Token() != 0 {
			t.Error("Serializable is synthesized")
		}
		if got := a.String(); got != "[System.SerializableAttribute()]" {
			t.Errorf("String = %s", got)
		}
	})

	t.Run("field offset", func(t *testing.T) {
		x, err := u.typ(t, "Sample.Point").Field("X", Public|Instance)
		if err != nil {
			t.Fatal(err)
		}
		attrs, err := x.CustomAttributes()
		a := onlyAttribute(t, attrs, err, "System.Runtime.InteropServices.FieldOffsetAttribute")
		fixed, err := a.FixedArguments()
		if err != nil {
			t.Fatal(err)
		}
		if len(fixed) != 1 || fixed[0].Value != int32(0) || fixed[0].Type != i4 {
			t.Errorf("fixed = %+v", fixed)
		}
	})

	t.Run("non-serialized field", func(t *testing.T) {
		tag, err := u.typ(t, "Sample.Circle").Field("tag", NonPublic|Instance)
		if err != nil {
			t.Fatal(err)
		}
		attrs, err := tag.CustomAttributes()
		onlyAttribute(t, attrs, err, "System.NonSerializedAttribute")
	})

	t.Run("marshal as", func(t *testing.T) {
		name, err := u.typ(t, "Sample.Circle").Field("Name", Public|Instance)
		if err != nil {
			t.Fatal(err)
		}
		attrs, err := name.CustomAttributes()
		a := onlyAttribute(t, attrs, err, "System.Runtime.InteropServices.MarshalAsAttribute")
		fixed, err := a.FixedArguments()
		if err != nil {
			t.Fatal(err)
		}
		if len(fixed) != 1 || fixed[0].Value != int32(21) ||
			fixed[0].Type != u.typ(t, "System.Runtime.InteropServices.UnmanagedType") {
			t.Errorf("fixed = %+v", fixed)
		}
		if named, err := a.NamedArguments(); err != nil || len(named) != 0 {
			t.Errorf("named = %+v, %v", named, err)
		}
	})

	t.Run("dll import", func(t *testing.T) {
		mb, err := u.typ(t, "Sample.Native").Method("MessageBox", Public|Static)
		if err != nil {
			t.Fatal(err)
		}
		if im := mb.ImplMap(); im == nil || im.ImportName != "MessageBoxW" {
			t.Errorf("ImplMap = %+v", im)
		}
		attrs, err := mb.CustomAttributes()
		a := onlyAttribute(t, attrs, err, "System.Runtime.InteropServices.DllImportAttribute")
		if len(attrs) != 1 {
			t.Errorf("PreserveSig is folded into DllImport: %v", attrNames(t, attrs))
		}
		fixed, err := a.FixedArguments()
		if err != nil {
			t.Fatal(err)
		}
		if len(fixed) != 1 || fixed[0].Value != "user32.dll" {
			t.Errorf("fixed = %+v", fixed)
		}
		named, err := a.NamedArguments()
		if err != nil {
			t.Fatal(err)
		}
		got := make(map[string]any, len(named))
		for _, n := range named {
			got[n.Name] = n.Argument.Value
		}
		want := map[string]any{
			"EntryPoint":            "MessageBoxW",
			"CharSet":               int32(3),
			"ExactSpelling":         false,
			"SetLastError":          true,
			"PreserveSig":           true,
			"CallingConvention":     int32(1),
			"BestFitMapping":        false,
			"ThrowOnUnmappableChar": false,
		}
		for k, v := range want {
			if got[k] != v {
				t.Errorf("%s = %v (%T), want %v", k, got[k], got[k], v)
			}
		}
	})

	t.Run("preserve sig", func(t *testing.T) {
		flush, err := u.typ(t, "Sample.Native").Method("Flush", Public|Static)
		if err != nil {
			t.Fatal(err)
		}
		attrs, err := flush.CustomAttributes()
		onlyAttribute(t, attrs, err, "System.Runtime.InteropServices.PreserveSigAttribute")
	})

	t.Run("no flags", func(t *testing.T) {
		run, err := u.typ(t, "Sample.Base").Method("Run", Public|Instance)
		if err != nil {
			t.Fatal(err)
		}
		attrs, err := run.CustomAttributes()
		if err != nil || len(attrs) != 0 {
			t.Errorf("Run attributes = %v, %v", attrs, err)
		}
		attrs, err = u.typ(t, "Sample.Circle").CustomAttributes()
		if err != nil || len(attrs) != 0 {
			t.Errorf("Circle attributes = %v, %v", attrs, err)
		}
	})
}

func TestCustomAttributes_Disposed(t *testing.T) {
	u := newUniverse(t)
	derived := u.typ(t, "Sample.Derived")
	attrs, err := u.typ(t, "Sample.Base").CustomAttributes()
	if err != nil {
		t.Fatal(err)
	}
	_ = u.lc.Close()

	_, err = attrs[0].FixedArguments()
	wantKind(t, err, errors.KindDisposed)
	_, err = attrs[0].Constructor()
	wantKind(t, err, errors.KindDisposed)
	_, err = derived.CustomAttributes()
	wantKind(t, err, errors.KindDisposed)
}
