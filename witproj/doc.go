// Package witproj projects reflection descriptors onto WebAssembly Interface
// Type (WIT) definitions for binding generation.
//
// Only types with a value representation in the component model are
// projected: primitives, strings, single-dimensional arrays, Nullable<T>,
// enums, value tuples and value-type structs. Everything else reports an
// unsupported error.
//
// Example:
//
//	p := witproj.New()
//	wt, err := p.Project(pointType)
//	size, align, err := p.SizeAlign(pointType)
//	sig, err := p.ProjectMethod(method)
package witproj
