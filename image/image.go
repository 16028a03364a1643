// Package image is a compact, msgpack-backed container for decoded module
// metadata. It implements metadata.Reader, which makes it the default
// decoder of a reflection load context, and provides a Builder for
// assembling images programmatically.
package image

import (
	"bytes"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/wippyai/metareflect/errors"
	"github.com/wippyai/metareflect/metadata"
)

// Magic prefixes every encoded image.
const Magic = "MRIM"

// FormatVersion is bumped whenever the Image layout changes.
const FormatVersion uint16 = 1

// Image holds every table of one module. Rows are 1-based: the row of
// TypeDefs[i] is i+1.
type Image struct {
	Assembly         *metadata.AssemblyDef
	Bodies           map[uint32]metadata.MethodBody // keyed by Method row
	AssemblyRefs     []metadata.AssemblyRefRow
	ModuleRefs       []metadata.ModuleRefRow
	Files            []metadata.FileRow
	TypeDefs         []metadata.TypeDefRow
	TypeRefs         []metadata.TypeRefRow
	TypeSpecs        []metadata.TypeSig
	ExportedTypes    []metadata.ExportedTypeRow
	Methods          []metadata.MethodRow
	Fields           []metadata.FieldRow
	Params           []metadata.ParamRow
	Properties       []metadata.PropertyRow
	Events           []metadata.EventRow
	GenericParams    []metadata.GenericParamRow
	MemberRefs       []metadata.MemberRefRow
	CustomAttributes []Attribute
	Module           metadata.ModuleDef
	Schema           uint16
}

// Attribute is a CustomAttribute row together with its decoded value blob.
type Attribute struct {
	Value metadata.AttributeValue
	Row   metadata.CustomAttributeRow
}

// Encode serializes img behind the magic header.
func Encode(img *Image) ([]byte, error) {
	if img == nil {
		return nil, errors.InvalidInput(errors.PhaseDecode, "nil image")
	}
	var buf bytes.Buffer
	buf.WriteString(Magic)

	out := *img
	out.Schema = FormatVersion
	enc := msgpack.NewEncoder(&buf)
	if err := enc.Encode(&out); err != nil {
		return nil, errors.Wrap(errors.PhaseDecode, errors.KindInvalidInput, err, "encode image")
	}
	return buf.Bytes(), nil
}

// Decode parses bytes produced by Encode.
func Decode(data []byte) (*Image, error) {
	if len(data) < len(Magic) || string(data[:len(Magic)]) != Magic {
		return nil, errors.Malformed(errors.PhaseDecode, []string{"header"}, "missing image magic")
	}

	img := new(Image)
	dec := msgpack.NewDecoder(bytes.NewReader(data[len(Magic):]))
	if err := dec.Decode(img); err != nil {
		return nil, errors.New(errors.PhaseDecode, errors.KindMalformedInput).
			Path("body").
			Detail("decode image: %v", err).
			Build()
	}
	if img.Schema != FormatVersion {
		return nil, errors.New(errors.PhaseDecode, errors.KindMalformedInput).
			Path("header").
			Value(img.Schema).
			Detail("unsupported image format version %d", img.Schema).
			Build()
	}
	return img, nil
}

// Open decodes data into a metadata.Reader. It has the metadata.OpenFunc shape.
func Open(data []byte) (metadata.Reader, error) {
	img, err := Decode(data)
	if err != nil {
		return nil, err
	}
	return NewReader(img), nil
}
