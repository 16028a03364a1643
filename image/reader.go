package image

import (
	"fmt"
	"sync/atomic"

	"fortio.org/safecast"

	"github.com/wippyai/metareflect/errors"
	"github.com/wippyai/metareflect/metadata"
)

// Reader serves rows of an in-memory Image. Thread-safe: the image is never
// mutated after construction.
type Reader struct {
	img    *Image
	closed atomic.Bool
}

var _ metadata.Reader = (*Reader)(nil)

// NewReader wraps img without copying it.
func NewReader(img *Image) *Reader {
	return &Reader{img: img}
}

func row[T any](r *Reader, rows []T, tok metadata.Token, table metadata.Table) (T, error) {
	var zero T
	if r.closed.Load() {
		return zero, errors.Disposed("image reader")
	}
	if !tok.Is(table) {
		return zero, errors.New(errors.PhaseDecode, errors.KindMalformedInput).
			Path(table.String()).
			Value(uint32(tok)).
			Detail("token %s does not address the %s table", tok, table).
			Build()
	}
	i := int(tok.Row()) - 1
	if i >= len(rows) {
		return zero, errors.New(errors.PhaseDecode, errors.KindMalformedInput).
			Path(table.String()).
			Value(tok.Row()).
			Detail("row %d out of range (table has %d rows)", tok.Row(), len(rows)).
			Build()
	}
	return rows[i], nil
}

func tokens(table metadata.Table, n int) []metadata.Token {
	out := make([]metadata.Token, 0, n)
	for i := 1; i <= n; i++ {
		r, err := safecast.Conv[uint32](i)
		if err != nil || r > metadata.MaxRow {
			break
		}
		out = append(out, metadata.MakeToken(table, r))
	}
	return out
}

// Assembly returns the assembly manifest, if the module carries one.
func (r *Reader) Assembly() (metadata.AssemblyDef, bool) {
	if r.img.Assembly == nil {
		return metadata.AssemblyDef{}, false
	}
	return *r.img.Assembly, true
}

// Module returns the module definition row.
func (r *Reader) Module() metadata.ModuleDef { return r.img.Module }

// AssemblyRefs lists the AssemblyRef tokens.
func (r *Reader) AssemblyRefs() []metadata.Token {
	return tokens(metadata.TableAssemblyRef, len(r.img.AssemblyRefs))
}

// AssemblyRef returns an assembly reference row.
func (r *Reader) AssemblyRef(tok metadata.Token) (metadata.AssemblyRefRow, error) {
	return row(r, r.img.AssemblyRefs, tok, metadata.TableAssemblyRef)
}

// ModuleRef returns a module reference row.
func (r *Reader) ModuleRef(tok metadata.Token) (metadata.ModuleRefRow, error) {
	return row(r, r.img.ModuleRefs, tok, metadata.TableModuleRef)
}

// Files lists the File tokens of the manifest.
func (r *Reader) Files() []metadata.Token {
	return tokens(metadata.TableFile, len(r.img.Files))
}

// File returns a file row.
func (r *Reader) File(tok metadata.Token) (metadata.FileRow, error) {
	return row(r, r.img.Files, tok, metadata.TableFile)
}

// TypeDefs lists the TypeDef tokens in row order.
func (r *Reader) TypeDefs() []metadata.Token {
	return tokens(metadata.TableTypeDef, len(r.img.TypeDefs))
}

// TypeDef returns a type definition row.
func (r *Reader) TypeDef(tok metadata.Token) (metadata.TypeDefRow, error) {
	return row(r, r.img.TypeDefs, tok, metadata.TableTypeDef)
}

// TypeRef returns a type reference row.
func (r *Reader) TypeRef(tok metadata.Token) (metadata.TypeRefRow, error) {
	return row(r, r.img.TypeRefs, tok, metadata.TableTypeRef)
}

// TypeSpec returns the signature of a type specification.
func (r *Reader) TypeSpec(tok metadata.Token) (metadata.TypeSig, error) {
	return row(r, r.img.TypeSpecs, tok, metadata.TableTypeSpec)
}

// ExportedTypes lists the ExportedType tokens.
func (r *Reader) ExportedTypes() []metadata.Token {
	return tokens(metadata.TableExportedType, len(r.img.ExportedTypes))
}

// ExportedType returns an exported type row.
func (r *Reader) ExportedType(tok metadata.Token) (metadata.ExportedTypeRow, error) {
	return row(r, r.img.ExportedTypes, tok, metadata.TableExportedType)
}

// Method returns a method definition row.
func (r *Reader) Method(tok metadata.Token) (metadata.MethodRow, error) {
	return row(r, r.img.Methods, tok, metadata.TableMethod)
}

// Field returns a field definition row.
func (r *Reader) Field(tok metadata.Token) (metadata.FieldRow, error) {
	return row(r, r.img.Fields, tok, metadata.TableField)
}

// Param returns a parameter row.
func (r *Reader) Param(tok metadata.Token) (metadata.ParamRow, error) {
	return row(r, r.img.Params, tok, metadata.TableParam)
}

// Property returns a property row.
func (r *Reader) Property(tok metadata.Token) (metadata.PropertyRow, error) {
	return row(r, r.img.Properties, tok, metadata.TableProperty)
}

// Event returns an event row.
func (r *Reader) Event(tok metadata.Token) (metadata.EventRow, error) {
	return row(r, r.img.Events, tok, metadata.TableEvent)
}

// GenericParam returns a generic parameter row.
func (r *Reader) GenericParam(tok metadata.Token) (metadata.GenericParamRow, error) {
	return row(r, r.img.GenericParams, tok, metadata.TableGenericParam)
}

// MemberRef returns a member reference row.
func (r *Reader) MemberRef(tok metadata.Token) (metadata.MemberRefRow, error) {
	return row(r, r.img.MemberRefs, tok, metadata.TableMemberRef)
}

// CustomAttribute returns the parent and constructor of an attribute.
func (r *Reader) CustomAttribute(tok metadata.Token) (metadata.CustomAttributeRow, error) {
	a, err := row(r, r.img.CustomAttributes, tok, metadata.TableCustomAttribute)
	return a.Row, err
}

// CustomAttributeValue returns the decoded arguments of an attribute.
func (r *Reader) CustomAttributeValue(tok metadata.Token) (metadata.AttributeValue, error) {
	a, err := row(r, r.img.CustomAttributes, tok, metadata.TableCustomAttribute)
	return a.Value, err
}

// MethodBody returns the body of a method; ok is false for methods without IL.
func (r *Reader) MethodBody(tok metadata.Token) (metadata.MethodBody, bool, error) {
	m, err := row(r, r.img.Methods, tok, metadata.TableMethod)
	if err != nil {
		return metadata.MethodBody{}, false, err
	}
	if !m.HasBody {
		return metadata.MethodBody{}, false, nil
	}
	body, ok := r.img.Bodies[tok.Row()]
	if !ok {
		return metadata.MethodBody{}, false, errors.Malformed(errors.PhaseDecode,
			[]string{"Method", fmt.Sprint(tok.Row())}, "method has a body flag but no body")
	}
	return body, true, nil
}

// Close releases the image. Further row access fails with a lifecycle error.
func (r *Reader) Close() error {
	r.closed.Store(true)
	return nil
}
