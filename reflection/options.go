package reflection

import (
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/wippyai/metareflect/errors"
	"github.com/wippyai/metareflect/image"
	"github.com/wippyai/metareflect/metadata"
)

// ModuleOpener returns the bytes of a satellite module of asm.
type ModuleOpener func(asm *Assembly, fileName string) ([]byte, error)

// Options configures a LoadContext.
type Options struct {
	// Resolver binds assembly names to assemblies. When nil, names resolve
	// against assemblies already loaded into the context.
	Resolver Resolver
	// Open decodes module bytes.
	Open metadata.OpenFunc
	// ModuleOpener loads satellite modules of multi-module assemblies.
	ModuleOpener ModuleOpener
	// Logger overrides the package logger for this context.
	Logger *zap.Logger
	// CoreAssemblyName names the assembly that defines System.Object.
	// When empty, mscorlib, System.Runtime and netstandard are tried in order.
	CoreAssemblyName string
}

// DefaultOptions returns the default load context configuration.
func DefaultOptions() Options {
	return Options{
		Open:         image.Open,
		ModuleOpener: SiblingFileOpener,
	}
}

var defaultCoreNames = []string{"mscorlib", "System.Runtime", "netstandard"}

// SiblingFileOpener reads satellite modules from the directory of the
// manifest module.
func SiblingFileOpener(asm *Assembly, fileName string) ([]byte, error) {
	if asm.Location() == "" {
		return nil, errors.NotFound(errors.PhaseLoad, "module file", fileName)
	}
	if filepath.Base(fileName) != fileName {
		return nil, errors.Malformed(errors.PhaseLoad, []string{"File"}, "module file name must not contain a path: "+fileName)
	}
	data, err := os.ReadFile(filepath.Join(filepath.Dir(asm.Location()), fileName))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NotFound(errors.PhaseLoad, "module file", fileName)
		}
		return nil, errors.Load("read module "+fileName, err)
	}
	return data, nil
}
