package reflection

import (
	"bytes"
	"path/filepath"
	"strings"
)

// Resolver binds an assembly name to an assembly of lc.
//
// Returning (nil, nil) reports "not found", which the load context memoizes.
// A non-nil error propagates to the caller unchanged and is never cached.
// A returned assembly must belong to lc. Resolvers may be invoked more than
// once for one name when callers race.
type Resolver interface {
	Resolve(lc *LoadContext, name AssemblyName) (*Assembly, error)
}

// ResolverFunc adapts a function to the Resolver interface.
type ResolverFunc func(lc *LoadContext, name AssemblyName) (*Assembly, error)

// Resolve calls f.
func (f ResolverFunc) Resolve(lc *LoadContext, name AssemblyName) (*Assembly, error) {
	return f(lc, name)
}

// PathResolver resolves names against a fixed set of module files.
//
// Every file whose base name matches the requested simple name is loaded.
// A candidate with a matching public key token wins; among those the highest
// version is chosen. A request without a token falls back to the highest
// version of any token.
type PathResolver struct {
	paths map[string][]string
}

// NewPathResolver indexes paths by file base name without extension.
func NewPathResolver(paths ...string) *PathResolver {
	r := &PathResolver{paths: make(map[string][]string)}
	for _, p := range paths {
		base := filepath.Base(p)
		key := strings.ToLower(strings.TrimSuffix(base, filepath.Ext(base)))
		r.paths[key] = append(r.paths[key], p)
	}
	return r
}

// Resolve implements Resolver.
func (r *PathResolver) Resolve(lc *LoadContext, name AssemblyName) (*Assembly, error) {
	var sameToken, anyToken *Assembly
	want := name.Token()

	for _, p := range r.paths[strings.ToLower(name.Name)] {
		asm, err := lc.LoadFromPath(p)
		if err != nil {
			return nil, err
		}
		got := asm.Name()
		if !strings.EqualFold(got.Name, name.Name) {
			continue
		}
		if bytes.Equal(want, got.Token()) {
			if sameToken == nil || got.Version.Compare(sameToken.Name().Version) > 0 {
				sameToken = asm
			}
		} else if len(want) == 0 {
			if anyToken == nil || got.Version.Compare(anyToken.Name().Version) > 0 {
				anyToken = asm
			}
		}
	}

	if sameToken != nil {
		return sameToken, nil
	}
	return anyToken, nil
}

// loadedResolver binds names to assemblies already loaded into the context.
// Used when Options.Resolver is nil.
type loadedResolver struct{}

func (loadedResolver) Resolve(lc *LoadContext, name AssemblyName) (*Assembly, error) {
	var best *Assembly
	want := name.Token()
	for _, asm := range lc.Assemblies() {
		got := asm.Name()
		if !strings.EqualFold(got.Name, name.Name) {
			continue
		}
		if len(want) > 0 && !bytes.Equal(want, got.Token()) {
			continue
		}
		if best == nil || got.Version.Compare(best.Name().Version) > 0 {
			best = asm
		}
	}
	return best, nil
}
