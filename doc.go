// Package metareflect provides reflection-only inspection of compiled CLI
// binary modules: assemblies, their types and members, without executing
// any of their code.
//
// # Architecture Overview
//
// The library is organized into several packages with distinct responsibilities:
//
//	metareflect/
//	├── metadata/        Table rows, tokens, signatures and the Reader interface
//	├── image/           Encoded module images: builder, reader and Open
//	├── reflection/      Load contexts, assemblies, types, members, attributes
//	├── witproj/         Projection of value types and methods to WIT
//	└── errors/          Structured error types with phase and kind
//
// # Quick Start
//
// Load a core library and an application assembly, then query it:
//
//	lc := reflection.NewLoadContext(reflection.Options{})
//	defer lc.Close()
//
//	if _, err := lc.LoadFromPath("mscorlib.dll"); err != nil {
//	    log.Fatal(err)
//	}
//	asm, err := lc.LoadFromPath("App.dll")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	t, err := asm.Type("App.Orders.Order")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	props, err := t.Properties(reflection.DefaultLookup)
//
// # Load Contexts
//
// A LoadContext owns every descriptor created from the modules loaded into
// it. Types, methods and fields are uniqued per context, so descriptors
// compare with ==. References to other assemblies go through a Resolver;
// NewPathResolver binds simple names to files on disk.
//
// Closing a context releases the module readers. Descriptors obtained
// earlier stay valid Go values, but operations on them return a Disposed
// error.
//
// # Generic Types
//
// Generic instances are built with MakeGenericType and MakeGenericMethod
// and are uniqued like definitions. Members of an instance report
// signatures with the type arguments substituted; Specialize applies a
// GenericContext to an arbitrary type.
//
// # Attributes
//
// CustomAttributes returns the attributes decoded from metadata followed by
// pseudo-attributes synthesized from flags, such as SerializableAttribute,
// DllImportAttribute and MarshalAsAttribute. Attribute arguments are decoded
// on first access.
//
// # Thread Safety
//
// LoadContext and every descriptor are safe for concurrent use. A
// witproj.Projector is NOT thread-safe and should be used by a single
// goroutine.
package metareflect
