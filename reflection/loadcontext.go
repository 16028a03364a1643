package reflection

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"sync"
	"sync/atomic"

	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/wippyai/metareflect/errors"
	"github.com/wippyai/metareflect/image"
	"github.com/wippyai/metareflect/internal/intern"
	"github.com/wippyai/metareflect/internal/lazy"
	"github.com/wippyai/metareflect/metadata"
)

// LoadContext is a closed universe of assemblies inspected without executing
// them. Every assembly, type and member reachable from a context belongs to it.
// Thread-safe.
type LoadContext struct {
	opts      Options
	log       *zap.Logger
	resolver  Resolver
	binds     sync.Map // AssemblyName.key() -> *bindResult
	loaded    sync.Map // declared identity key -> *Assembly
	core      lazy.Cell[*Assembly]
	coreTypes intern.Table[string, *lazy.Cell[*Type]]
	wellKnown lazy.Cell[*wellKnownTypes]
	readers   []metadata.Reader
	ids       atomic.Uint64
	readersMu sync.Mutex
	disposed  atomic.Bool
}

type bindResult struct {
	asm *Assembly
}

// NewLoadContext creates an empty load context.
func NewLoadContext(opts Options) *LoadContext {
	if opts.Open == nil {
		opts.Open = image.Open
	}
	if opts.ModuleOpener == nil {
		opts.ModuleOpener = SiblingFileOpener
	}
	lc := &LoadContext{opts: opts, resolver: opts.Resolver}
	if lc.resolver == nil {
		lc.resolver = loadedResolver{}
	}
	lc.log = opts.Logger
	if lc.log == nil {
		lc.log = Logger()
	}
	return lc
}

// NewDefaultLoadContext creates a context with DefaultOptions and resolver r.
func NewDefaultLoadContext(r Resolver) *LoadContext {
	opts := DefaultOptions()
	opts.Resolver = r
	return NewLoadContext(opts)
}

func (lc *LoadContext) nextID() uint64 {
	return lc.ids.Add(1)
}

func (lc *LoadContext) check() error {
	if lc.disposed.Load() {
		return errors.Disposed("load context")
	}
	return nil
}

// Disposed reports whether Close has been called.
func (lc *LoadContext) Disposed() bool {
	return lc.disposed.Load()
}

// LoadFromPath loads the manifest module stored at path.
func (lc *LoadContext) LoadFromPath(path string) (*Assembly, error) {
	if err := lc.check(); err != nil {
		return nil, err
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, errors.Load("resolve path "+path, err)
	}
	data, err := os.ReadFile(abs)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NotFound(errors.PhaseLoad, "file", abs)
		}
		return nil, errors.Load("read "+abs, err)
	}
	return lc.load(data, abs)
}

// LoadFromPaths loads several files concurrently. The result is ordered like
// paths. Loading stops at the first failure.
func (lc *LoadContext) LoadFromPaths(ctx context.Context, paths ...string) ([]*Assembly, error) {
	out := make([]*Assembly, len(paths))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))

	for i, p := range paths {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			asm, err := lc.LoadFromPath(p)
			if err != nil {
				return err
			}
			out[i] = asm
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// LoadFromStream reads r to the end and loads the module it contains.
func (lc *LoadContext) LoadFromStream(r io.Reader) (*Assembly, error) {
	if err := lc.check(); err != nil {
		return nil, err
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Load("read stream", err)
	}
	return lc.load(data, "")
}

// LoadFromBytes loads a manifest module from memory.
func (lc *LoadContext) LoadFromBytes(data []byte) (*Assembly, error) {
	if err := lc.check(); err != nil {
		return nil, err
	}
	return lc.load(data, "")
}

// LoadFromName binds name through the resolver.
func (lc *LoadContext) LoadFromName(name string) (*Assembly, error) {
	n, err := ParseAssemblyName(name)
	if err != nil {
		return nil, err
	}
	return lc.Resolve(n)
}

func (lc *LoadContext) load(data []byte, location string) (*Assembly, error) {
	reader, err := lc.opts.Open(data)
	if err != nil {
		return nil, errors.Wrap(errors.PhaseLoad, errors.KindMalformedInput, err, "open module")
	}

	def, ok := reader.Assembly()
	if !ok {
		_ = reader.Close()
		return nil, errors.Malformed(errors.PhaseLoad, []string{"Assembly"}, "module has no assembly manifest")
	}

	name := nameFromDef(def)
	mvid := reader.Module().MVID
	asm := newAssembly(lc, name, location, mvid)

	existing, loaded := lc.loaded.LoadOrStore(name.key(), asm)
	if loaded {
		_ = reader.Close()
		prev := existing.(*Assembly)
		if prev.mvid != mvid {
			lc.log.Warn("assembly identity conflict",
				zap.String("assembly", name.String()),
				zap.String("existing", prev.mvid.String()),
				zap.String("incoming", mvid.String()))
			return nil, errors.IdentityConflict(name.String(), prev.mvid.String(), mvid.String())
		}
		<-prev.ready
		if prev.manifest == nil {
			return nil, errors.Disposed("load context")
		}
		return prev, nil
	}

	err = lc.track(reader)
	if err == nil {
		asm.manifest = newModule(asm, reader)
	}
	close(asm.ready)
	if err != nil {
		return nil, err
	}

	lc.log.Debug("assembly loaded",
		zap.String("assembly", name.String()),
		zap.String("location", location),
		zap.String("mvid", mvid.String()))
	return asm, nil
}

// track registers reader for release at disposal.
func (lc *LoadContext) track(reader metadata.Reader) error {
	lc.readersMu.Lock()
	defer lc.readersMu.Unlock()
	if lc.disposed.Load() {
		_ = reader.Close()
		return errors.Disposed("load context")
	}
	lc.readers = append(lc.readers, reader)
	return nil
}

// Resolve binds name to an assembly, consulting the resolver at most once
// per name unless callers race. A "not found" outcome is memoized; resolver
// errors are returned unchanged and retried on the next call.
func (lc *LoadContext) Resolve(name AssemblyName) (*Assembly, error) {
	if err := lc.check(); err != nil {
		return nil, err
	}

	key := name.key()
	if v, ok := lc.binds.Load(key); ok {
		return v.(*bindResult).lookup(name)
	}

	asm, err := lc.resolver.Resolve(lc, name)
	if err != nil {
		lc.log.Debug("resolver failed", zap.String("assembly", name.String()), zap.Error(err))
		return nil, err
	}
	if asm != nil && asm.lc != lc {
		return nil, errors.ForeignAssembly(asm.Name().String())
	}
	if asm == nil {
		lc.log.Debug("assembly not found", zap.String("assembly", name.String()))
	}

	v, _ := lc.binds.LoadOrStore(key, &bindResult{asm: asm})
	return v.(*bindResult).lookup(name)
}

func (b *bindResult) lookup(name AssemblyName) (*Assembly, error) {
	if b.asm == nil {
		return nil, errors.NotFound(errors.PhaseResolve, "assembly", name.String())
	}
	return b.asm, nil
}

// Assemblies lists the assemblies loaded so far, ordered by name.
func (lc *LoadContext) Assemblies() []*Assembly {
	var out []*Assembly
	lc.loaded.Range(func(_, v any) bool {
		asm := v.(*Assembly)
		if asm.isReady() {
			out = append(out, asm)
		}
		return true
	})
	sort.Slice(out, func(i, j int) bool {
		return out[i].FullName() < out[j].FullName()
	})
	return out
}

// CoreAssembly returns the assembly defining System.Object.
func (lc *LoadContext) CoreAssembly() (*Assembly, error) {
	if err := lc.check(); err != nil {
		return nil, err
	}
	return lc.core.Get(func() (*Assembly, error) {
		if lc.opts.CoreAssemblyName != "" {
			n, err := ParseAssemblyName(lc.opts.CoreAssemblyName)
			if err != nil {
				return nil, err
			}
			return lc.Resolve(n)
		}
		for _, name := range defaultCoreNames {
			asm, err := lc.Resolve(AssemblyName{Name: name})
			if err == nil {
				return asm, nil
			}
			if !errors.IsKind(err, errors.KindNotFound) {
				return nil, err
			}
		}
		return nil, errors.NotFound(errors.PhaseResolve, "core assembly", defaultCoreNames[0])
	})
}

// Close disposes the context and releases every decoder it owns. It is
// idempotent. Queries issued after Close fail with a disposed error;
// queries racing with Close may observe either state.
func (lc *LoadContext) Close() error {
	if !lc.disposed.CompareAndSwap(false, true) {
		return nil
	}

	lc.readersMu.Lock()
	readers := lc.readers
	lc.readers = nil
	lc.readersMu.Unlock()

	var err error
	for _, r := range readers {
		err = multierr.Append(err, r.Close())
	}
	lc.log.Debug("load context disposed", zap.Int("modules", len(readers)), zap.Error(err))
	return err
}
