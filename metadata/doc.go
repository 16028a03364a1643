// Package metadata defines the contract between the reflection engine and a
// metadata decoder.
//
// A decoder turns the bytes of one binary module into row handles (tokens),
// rows and structural signature trees. The reflection engine never inspects
// raw bytes itself: it asks a Reader for rows on demand and converts the
// signature trees into type descriptors.
//
// # Main Types
//
//   - Token: table + row handle, ECMA-335 layout
//   - TypeSig, MethodSig, FieldSig, PropertySig: signature trees
//   - TypeDefRow, MethodRow, FieldRow, ...: decoded rows
//   - Constant: blob-encoded literal values
//   - Reader: on-demand row access for one module
//
// Flag types (TypeAttributes, MethodAttributes, ...) carry the ECMA-335 bit
// values so rows can be compared with other tooling output.
package metadata
