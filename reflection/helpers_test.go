package reflection

import (
	"strings"
	"testing"

	"github.com/wippyai/metareflect/errors"
	"github.com/wippyai/metareflect/internal/testimages"
)

// universe is a load context holding the core and sample libraries.
type universe struct {
	lc   *LoadContext
	core *Assembly
	lib  *Assembly
	toks testimages.LibTokens
}

func newUniverse(t *testing.T) *universe {
	t.Helper()
	lc := NewLoadContext(Options{})
	t.Cleanup(func() { _ = lc.Close() })

	core, err := lc.LoadFromBytes(testimages.Core())
	if err != nil {
		t.Fatalf("load core: %v", err)
	}
	data, toks := testimages.Lib()
	lib, err := lc.LoadFromBytes(data)
	if err != nil {
		t.Fatalf("load lib: %v", err)
	}
	return &universe{lc: lc, core: core, lib: lib, toks: toks}
}

// typ looks a type up in the core library for System.* names and in the
// sample library otherwise.
func (u *universe) typ(t *testing.T, fullName string) *Type {
	t.Helper()
	asm := u.lib
	if strings.HasPrefix(fullName, "System.") {
		asm = u.core
	}
	typ, err := asm.Type(fullName)
	if err != nil {
		t.Fatalf("Type(%q): %v", fullName, err)
	}
	return typ
}

func (u *universe) inst(t *testing.T, def string, args ...*Type) *Type {
	t.Helper()
	typ, err := u.typ(t, def).MakeGenericType(args...)
	if err != nil {
		t.Fatalf("MakeGenericType(%s): %v", def, err)
	}
	return typ
}

func mustSZArray(t *testing.T, elem *Type) *Type {
	t.Helper()
	arr, err := elem.MakeSZArrayType()
	if err != nil {
		t.Fatalf("MakeSZArrayType(%s): %v", elem, err)
	}
	return arr
}

func wantKind(t *testing.T, err error, kind errors.Kind) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %s error, got nil", kind)
	}
	if !errors.IsKind(err, kind) {
		t.Fatalf("expected %s error, got %v", kind, err)
	}
}

func memberNames[M Member](ms []M) []string {
	out := make([]string, len(ms))
	for i, m := range ms {
		out[i] = m.Name()
	}
	return out
}

func count(names []string, name string) int {
	n := 0
	for _, s := range names {
		if s == name {
			n++
		}
	}
	return n
}
