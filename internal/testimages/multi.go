package testimages

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/wippyai/metareflect/image"
	"github.com/wippyai/metareflect/metadata"
)

const (
	FacadeName    = "Facade"
	MultiName     = "Multi"
	SatelliteFile = "Multi.Extra.netmodule"
)

// Facade returns an assembly that forwards Sample.Point and Sample.Color to
// the sample library. Shim.Adapter has a field whose type reference has no
// scope and resolves through the forwarder.
func Facade() []byte {
	b := image.NewBuilder(FacadeName, metadata.Version{Major: 1})
	r := newRefs(b)
	lib := b.AssemblyRef(LibName, LibVersion, nil)
	b.Forward("Sample", "Point", lib)
	b.Forward("Sample", "Color", lib)

	adapter := b.TypeDef("Shim", "Adapter", pubClass, r.tok("System.Object"))
	adapter.Field("Origin", metadata.FieldPublic, metadata.ValueType(b.TypeRef(0, "Sample", "Point")))
	return b.MustBytes()
}

// Multi returns a two-module assembly. The manifest exports Sample.Extra.Widget
// from the satellite file; Sample.Extra.Gadget has no ExportedType row.
func Multi() (manifest, satellite []byte) {
	m := image.NewBuilder(MultiName, metadata.Version{Major: 1})
	mr := newRefs(m)
	file := m.File(SatelliteFile, true)
	m.ExportType("Sample.Extra", "Widget", file, 1)
	widgetRef := m.TypeRef(m.ModuleRef(SatelliteFile), "Sample.Extra", "Widget")
	host := m.TypeDef("Multi", "Host", pubClass, mr.tok("System.Object"))
	host.Field("Widget", metadata.FieldPublic, metadata.Class(widgetRef))

	s := image.NewModuleBuilder(SatelliteFile)
	sr := newRefs(s)
	s.TypeDef("Sample.Extra", "Widget", pubClass, sr.tok("System.Object"))
	s.TypeDef("Sample.Extra", "Gadget", pubClass, sr.tok("System.Object"))
	return m.MustBytes(), s.MustBytes()
}

// WriteFiles writes files into a fresh temporary directory and returns the
// path of each by name.
func WriteFiles(tb testing.TB, files map[string][]byte) map[string]string {
	tb.Helper()
	dir := tb.TempDir()
	out := make(map[string]string, len(files))
	for name, data := range files {
		p := filepath.Join(dir, name)
		if err := os.WriteFile(p, data, 0o600); err != nil {
			tb.Fatalf("write %s: %v", name, err)
		}
		out[name] = p
	}
	return out
}
