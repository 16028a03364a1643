// Package layout computes Canonical ABI size, alignment and flattened value
// counts for the WIT types produced by projection.
//
// Layout rules:
//   - Primitives: size equals alignment (u8=1, u32=4, u64=8, etc.)
//   - Records and tuples: members laid out in order, each padded to its alignment
//   - Enums: a discriminant sized by the number of cases
//   - Flags: the smallest integer holding one bit per flag
//   - Lists and strings: a (pointer, length) pair
//   - Options: a one-byte discriminant followed by the payload
package layout
