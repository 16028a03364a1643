package reflection

import (
	"testing"

	"github.com/wippyai/metareflect/errors"
	"github.com/wippyai/metareflect/image"
	"github.com/wippyai/metareflect/internal/testimages"
	"github.com/wippyai/metareflect/metadata"
)

// loadCyclic loads an assembly whose metadata contains a self-referencing
// TypeSpec, two classes extending each other and an interface listing
// itself, next to a well-formed type.
func loadCyclic(t *testing.T, u *universe) (*Assembly, metadata.Token) {
	t.Helper()
	const ns = "Cyclic"
	pub := metadata.MethodPublic | metadata.MethodHideBySig

	b := image.NewBuilder("Cyclic", metadata.Version{Major: 1})
	spec := b.TypeSpec(metadata.Class(metadata.MakeToken(metadata.TableTypeSpec, 1)))

	a := b.TypeDef(ns, "A", metadata.TypePublic, metadata.MakeToken(metadata.TableTypeDef, 2))
	a.Method("Run", pub, testimages.Sig(testimages.Void))
	b.TypeDef(ns, "B", metadata.TypePublic, a.Token())

	self := b.TypeDef(ns, "ISelf", metadata.TypePublic|metadata.TypeInterface|metadata.TypeAbstract, 0)
	self.Implements(self.Token())
	b.TypeDef(ns, "Impl", metadata.TypePublic, 0).Implements(self.Token())

	fine := b.TypeDef(ns, "Fine", metadata.TypePublic, 0)
	fine.Method("Ping", pub, testimages.Sig(testimages.Void))

	asm, err := u.lc.LoadFromBytes(b.MustBytes())
	if err != nil {
		t.Fatalf("load cyclic: %v", err)
	}
	return asm, spec
}

func TestCyclicMetadata(t *testing.T) {
	u := newUniverse(t)
	asm, spec := loadCyclic(t, u)

	typ := func(t *testing.T, name string) *Type {
		t.Helper()
		tt, err := asm.Type(name)
		if err != nil {
			t.Fatalf("Type(%q): %v", name, err)
		}
		return tt
	}

	t.Run("self-referencing type spec", func(t *testing.T) {
		_, err := asm.ManifestModule().ResolveType(spec, GenericContext{})
		wantKind(t, err, errors.KindMalformedInput)
	})

	t.Run("base type cycle", func(t *testing.T) {
		a := typ(t, "Cyclic.A")
		_, err := u.typ(t, "System.Object").IsAssignableFrom(a)
		wantKind(t, err, errors.KindMalformedInput)

		_, err = a.Methods(Public | Instance)
		wantKind(t, err, errors.KindMalformedInput)

		_, err = a.Interfaces()
		wantKind(t, err, errors.KindMalformedInput)
	})

	t.Run("interface cycle", func(t *testing.T) {
		self := typ(t, "Cyclic.ISelf")
		_, err := self.Interfaces()
		wantKind(t, err, errors.KindMalformedInput)

		_, err = self.IsAssignableFrom(typ(t, "Cyclic.Impl"))
		wantKind(t, err, errors.KindMalformedInput)
	})

	t.Run("other types unaffected", func(t *testing.T) {
		ms, err := typ(t, "Cyclic.Fine").Methods(Public | Instance | DeclaredOnly)
		if err != nil {
			t.Fatal(err)
		}
		if len(ms) != 1 || ms[0].Name() != "Ping" {
			t.Errorf("Methods() = %v", memberNames(ms))
		}
		sample, err := u.lib.Type("Sample.Base")
		if err != nil {
			t.Fatal(err)
		}
		if ok, err := u.typ(t, "System.Object").IsAssignableFrom(sample); err != nil || !ok {
			t.Errorf("Object.IsAssignableFrom(Base) = %v, %v", ok, err)
		}
	})
}
