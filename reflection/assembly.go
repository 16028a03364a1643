package reflection

import (
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/wippyai/metareflect/errors"
	"github.com/wippyai/metareflect/internal/intern"
	"github.com/wippyai/metareflect/internal/lazy"
	"github.com/wippyai/metareflect/metadata"
)

// maxForwardDepth bounds chains of type forwarders.
const maxForwardDepth = 32

// Assembly is one loaded assembly: a manifest module plus satellite modules
// loaded on demand.
type Assembly struct {
	lc         *LoadContext
	manifest   *Module
	ready      chan struct{}
	satellites intern.Table[string, *lazy.Cell[*Module]]
	refs       lazy.Cell[[]AssemblyName]
	attrs      lazy.Cell[[]*CustomAttribute]
	name       AssemblyName
	location   string
	mvid       uuid.UUID
}

func newAssembly(lc *LoadContext, name AssemblyName, location string, mvid uuid.UUID) *Assembly {
	return &Assembly{
		lc:       lc,
		name:     name,
		location: location,
		mvid:     mvid,
		ready:    make(chan struct{}),
	}
}

func (a *Assembly) isReady() bool {
	select {
	case <-a.ready:
		return a.manifest != nil
	default:
		return false
	}
}

// LoadContext returns the owning context.
func (a *Assembly) LoadContext() *LoadContext { return a.lc }

// Name returns the declared identity.
func (a *Assembly) Name() AssemblyName { return a.name }

// FullName returns the display name of the identity.
func (a *Assembly) FullName() string { return a.name.String() }

// Location returns the file the assembly was loaded from, or "" for
// in-memory loads.
func (a *Assembly) Location() string { return a.location }

// MVID returns the manifest module's version id.
func (a *Assembly) MVID() uuid.UUID { return a.mvid }

// ManifestModule returns the module carrying the assembly manifest.
func (a *Assembly) ManifestModule() *Module { return a.manifest }

func (a *Assembly) String() string { return a.FullName() }

// Module returns the module named name, loading a satellite module through
// Options.ModuleOpener when needed.
func (a *Assembly) Module(name string) (*Module, error) {
	if err := a.lc.check(); err != nil {
		return nil, err
	}
	if strings.EqualFold(name, a.manifest.Name()) {
		return a.manifest, nil
	}

	cell := a.satellites.GetOrCreate(strings.ToLower(name), func() *lazy.Cell[*Module] {
		return new(lazy.Cell[*Module])
	})
	return cell.Get(func() (*Module, error) {
		return a.loadSatellite(name)
	})
}

func (a *Assembly) loadSatellite(name string) (*Module, error) {
	r := a.manifest.reader
	for _, tok := range r.Files() {
		row, err := r.File(tok)
		if err != nil {
			return nil, err
		}
		if !strings.EqualFold(row.Name, name) {
			continue
		}
		if !row.ContainsMetadata {
			return nil, errors.InvalidInput(errors.PhaseLoad, "file "+row.Name+" contains no metadata")
		}

		data, err := a.lc.opts.ModuleOpener(a, row.Name)
		if err != nil {
			return nil, err
		}
		reader, err := a.lc.opts.Open(data)
		if err != nil {
			return nil, errors.Wrap(errors.PhaseLoad, errors.KindMalformedInput, err, "open module "+row.Name)
		}
		if err := a.lc.track(reader); err != nil {
			return nil, err
		}
		a.lc.log.Debug("satellite module loaded",
			zap.String("assembly", a.FullName()),
			zap.String("module", row.Name))
		return newModule(a, reader), nil
	}
	return nil, errors.NotFound(errors.PhaseLoad, "module", name)
}

// Modules returns the manifest module followed by every satellite module
// that carries metadata.
func (a *Assembly) Modules() ([]*Module, error) {
	if err := a.lc.check(); err != nil {
		return nil, err
	}
	out := []*Module{a.manifest}
	r := a.manifest.reader
	for _, tok := range r.Files() {
		row, err := r.File(tok)
		if err != nil {
			return nil, err
		}
		if !row.ContainsMetadata {
			continue
		}
		m, err := a.Module(row.Name)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, nil
}

// Types returns every type defined in the assembly, nested types included.
func (a *Assembly) Types() ([]*Type, error) {
	mods, err := a.Modules()
	if err != nil {
		return nil, err
	}
	var out []*Type
	for _, m := range mods {
		ts, err := m.Types()
		if err != nil {
			return nil, err
		}
		out = append(out, ts...)
	}
	return out, nil
}

// ExportedTypes returns the types visible outside the assembly.
func (a *Assembly) ExportedTypes() ([]*Type, error) {
	all, err := a.Types()
	if err != nil {
		return nil, err
	}
	var out []*Type
	for _, t := range all {
		if t.IsVisible() {
			out = append(out, t)
		}
	}
	return out, nil
}

// ForwardedTypes resolves every type forwarder of the manifest.
func (a *Assembly) ForwardedTypes() ([]*Type, error) {
	if err := a.lc.check(); err != nil {
		return nil, err
	}
	r := a.manifest.reader
	var out []*Type
	for _, tok := range r.ExportedTypes() {
		row, err := r.ExportedType(tok)
		if err != nil {
			return nil, err
		}
		if !row.IsForwarder() {
			continue
		}
		t, err := a.followForwarder(row, 0)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, nil
}

// ReferencedAssemblies lists the AssemblyRef rows of the manifest.
func (a *Assembly) ReferencedAssemblies() ([]AssemblyName, error) {
	if err := a.lc.check(); err != nil {
		return nil, err
	}
	return a.refs.Get(func() ([]AssemblyName, error) {
		r := a.manifest.reader
		toks := r.AssemblyRefs()
		out := make([]AssemblyName, 0, len(toks))
		for _, tok := range toks {
			row, err := r.AssemblyRef(tok)
			if err != nil {
				return nil, err
			}
			out = append(out, nameFromRef(row))
		}
		return out, nil
	})
}

// CustomAttributes returns the attributes attached to the assembly manifest.
func (a *Assembly) CustomAttributes() ([]*CustomAttribute, error) {
	if err := a.lc.check(); err != nil {
		return nil, err
	}
	return a.attrs.Get(func() ([]*CustomAttribute, error) {
		def, _ := a.manifest.reader.Assembly()
		return a.manifest.decodedAttributes(def.CustomAttributes), nil
	})
}

// Type finds a type by full name. Nested types are separated by '+',
// as in "N.Outer+Inner". Type forwarders are followed.
func (a *Assembly) Type(fullName string) (*Type, error) {
	if err := a.lc.check(); err != nil {
		return nil, err
	}
	parts := strings.Split(fullName, "+")
	ns, name := splitTypeName(parts[0])

	t, err := a.findType(ns, name, 0)
	if err != nil {
		return nil, err
	}
	for _, nestedName := range parts[1:] {
		t, err = t.nestedByName(nestedName)
		if err != nil {
			return nil, err
		}
	}
	return t, nil
}

func splitTypeName(full string) (ns, name string) {
	if i := strings.LastIndexByte(full, '.'); i >= 0 {
		return full[:i], full[i+1:]
	}
	return "", full
}

// findType locates a top-level type defined in or forwarded by the assembly.
func (a *Assembly) findType(ns, name string, depth int) (*Type, error) {
	if t, ok, err := a.manifest.topLevelType(ns, name); err != nil || ok {
		return t, err
	}

	r := a.manifest.reader
	for _, tok := range r.ExportedTypes() {
		row, err := r.ExportedType(tok)
		if err != nil {
			return nil, err
		}
		if row.Name != name || row.Namespace != ns {
			continue
		}
		if row.IsForwarder() {
			return a.followForwarder(row, depth)
		}
		if row.Implementation.Is(metadata.TableFile) {
			file, err := r.File(row.Implementation)
			if err != nil {
				return nil, err
			}
			m, err := a.Module(file.Name)
			if err != nil {
				return nil, err
			}
			if t, ok, err := m.topLevelType(ns, name); err != nil || ok {
				return t, err
			}
		}
	}

	// Satellite modules without ExportedType rows are searched last.
	for _, tok := range r.Files() {
		file, err := r.File(tok)
		if err != nil {
			return nil, err
		}
		if !file.ContainsMetadata {
			continue
		}
		m, err := a.Module(file.Name)
		if err != nil {
			return nil, err
		}
		if t, ok, err := m.topLevelType(ns, name); err != nil || ok {
			return t, err
		}
	}

	return nil, errors.NotFound(errors.PhaseQuery, "type", joinTypeName(ns, name)+" in "+a.name.Name)
}

func (a *Assembly) followForwarder(row metadata.ExportedTypeRow, depth int) (*Type, error) {
	if depth >= maxForwardDepth {
		return nil, errors.Malformed(errors.PhaseResolve, []string{"ExportedType"},
			"type forwarder chain too deep for "+joinTypeName(row.Namespace, row.Name))
	}
	target, err := a.manifest.resolveAssemblyRef(row.Implementation)
	if err != nil {
		return nil, err
	}
	return target.findType(row.Namespace, row.Name, depth+1)
}

func joinTypeName(ns, name string) string {
	if ns == "" {
		return name
	}
	return ns + "." + name
}
