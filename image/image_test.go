package image

import (
	"bytes"
	"testing"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/wippyai/metareflect/errors"
	"github.com/wippyai/metareflect/metadata"
)

func sampleBuilder() (*Builder, *TypeBuilder, *MethodBuilder) {
	b := NewBuilder("Lib", metadata.Version{Major: 1})
	core := b.AssemblyRef("mscorlib", metadata.Version{Major: 4}, nil)
	object := b.TypeRef(core, "System", "Object")

	t := b.TypeDef("N", "T`1", metadata.TypePublic, object)
	t.GenericParam("U", 0)
	m := t.Method("M", metadata.MethodPublic, metadata.MethodSig{
		Return: metadata.ParamSig{Type: metadata.Prim(metadata.ElementVoid)},
		Params: []metadata.ParamSig{{Type: metadata.Var(0)}},
	}, "u")
	m.Body(metadata.MethodBody{Code: []byte{0x00, 0x2A}, MaxStack: 8})
	t.Field("count", metadata.FieldPrivate, metadata.Prim(metadata.ElementI4)).
		Default(metadata.MustConstant(int32(3)))
	return b, t, m
}

func TestEncodeDecode(t *testing.T) {
	b, typ, m := sampleBuilder()
	data, err := b.Bytes()
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.HasPrefix(data, []byte(Magic)) {
		t.Fatal("missing magic")
	}

	r, err := Open(data)
	if err != nil {
		t.Fatal(err)
	}
	def, ok := r.Assembly()
	if !ok || def.Name != "Lib" || def.Version.Major != 1 {
		t.Fatalf("Assembly() = %+v, %v", def, ok)
	}

	row, err := r.TypeDef(typ.Token())
	if err != nil {
		t.Fatal(err)
	}
	if row.Name != "T`1" || row.Namespace != "N" || len(row.GenericParams) != 1 || len(row.Methods) != 1 {
		t.Errorf("TypeDef row = %+v", row)
	}

	mrow, err := r.Method(m.Token())
	if err != nil {
		t.Fatal(err)
	}
	if !mrow.Signature.HasThis() {
		t.Error("instance method lost HasThis")
	}
	if got := mrow.Signature.Params[0].Type; got.Kind != metadata.SigVar || got.Number != 0 {
		t.Errorf("param sig = %v", got)
	}

	body, ok, err := r.MethodBody(m.Token())
	if err != nil || !ok {
		t.Fatalf("MethodBody = %v, %v", ok, err)
	}
	if !bytes.Equal(body.Code, []byte{0x00, 0x2A}) || body.MaxStack != 8 {
		t.Errorf("body = %+v", body)
	}

	frow, err := r.Field(row.Fields[0])
	if err != nil {
		t.Fatal(err)
	}
	v, err := frow.Constant.Value()
	if err != nil || v != int32(3) {
		t.Errorf("field constant = %v, %v", v, err)
	}

	if r.Module().MVID != b.img.Module.MVID {
		t.Error("MVID changed across encoding")
	}
}

func TestDecodeRejectsBadInput(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{"empty", nil},
		{"wrong magic", []byte("ABCD\x80")},
		{"truncated body", []byte(Magic + "\xde")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(tt.data)
			if !errors.IsKind(err, errors.KindMalformedInput) {
				t.Errorf("err = %v, want malformed_input", err)
			}
		})
	}
}

func TestDecodeRejectsFutureFormat(t *testing.T) {
	var buf bytes.Buffer
	buf.WriteString(Magic)
	if err := msgpack.NewEncoder(&buf).Encode(&Image{Schema: FormatVersion + 1}); err != nil {
		t.Fatal(err)
	}
	_, err := Decode(buf.Bytes())
	if !errors.IsKind(err, errors.KindMalformedInput) {
		t.Errorf("err = %v, want malformed_input", err)
	}
}

func TestReaderBoundsChecks(t *testing.T) {
	b, typ, _ := sampleBuilder()
	r := NewReader(b.Build())

	tests := []struct {
		name string
		call func() error
	}{
		{"row past end", func() error {
			_, err := r.TypeDef(metadata.MakeToken(metadata.TableTypeDef, 99))
			return err
		}},
		{"wrong table", func() error {
			_, err := r.Method(typ.Token())
			return err
		}},
		{"nil token", func() error {
			_, err := r.Field(0)
			return err
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.call(); !errors.IsKind(err, errors.KindMalformedInput) {
				t.Errorf("err = %v, want malformed_input", err)
			}
		})
	}
}

func TestReaderClose(t *testing.T) {
	b, typ, _ := sampleBuilder()
	r := NewReader(b.Build())
	if err := r.Close(); err != nil {
		t.Fatal(err)
	}
	_, err := r.TypeDef(typ.Token())
	if !errors.IsKind(err, errors.KindDisposed) {
		t.Errorf("err = %v, want disposed", err)
	}
}

func TestBuilderAttributesAndForwarders(t *testing.T) {
	b := NewBuilder("Facade", metadata.Version{Major: 2})
	impl := b.AssemblyRef("Impl", metadata.Version{Major: 2}, nil)
	fwd := b.Forward("N", "Moved", impl)

	attrType := b.TypeDef("N", "MarkAttribute", metadata.TypePublic, 0)
	ctor := attrType.Constructor(metadata.MethodPublic, nil)
	caTok := b.Attribute(metadata.MakeToken(metadata.TableAssembly, 1), ctor.Token(), metadata.AttributeValue{})

	r := NewReader(b.Build())
	et, err := r.ExportedType(fwd)
	if err != nil {
		t.Fatal(err)
	}
	if !et.IsForwarder() || et.Implementation != impl {
		t.Errorf("exported type = %+v", et)
	}

	def, _ := r.Assembly()
	if len(def.CustomAttributes) != 1 || def.CustomAttributes[0] != caTok {
		t.Errorf("assembly attributes = %v", def.CustomAttributes)
	}
	ca, err := r.CustomAttribute(caTok)
	if err != nil || ca.Constructor != ctor.Token() {
		t.Errorf("CustomAttribute = %+v, %v", ca, err)
	}
}
