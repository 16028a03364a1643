package metadata

import (
	"math"
	"testing"
)

func TestToken(t *testing.T) {
	tok := MakeToken(TableTypeDef, 5)
	if tok.Table() != TableTypeDef {
		t.Errorf("Table() = %v, want TypeDef", tok.Table())
	}
	if tok.Row() != 5 {
		t.Errorf("Row() = %d, want 5", tok.Row())
	}
	if tok.IsNil() {
		t.Error("IsNil() = true for row 5")
	}
	if !tok.Is(TableTypeDef) || tok.Is(TableTypeRef) {
		t.Error("Is() mismatch")
	}
	if uint32(tok) != 0x02000005 {
		t.Errorf("token = 0x%08x, want 0x02000005", uint32(tok))
	}
	if s := tok.String(); s != "TypeDef[5]" {
		t.Errorf("String() = %q", s)
	}

	var zero Token
	if !zero.IsNil() || zero.Is(TableModule) {
		t.Error("zero token should be nil")
	}
}

func TestConstantRoundTrip(t *testing.T) {
	tests := []struct {
		in   any
		want ElementType
	}{
		{true, ElementBoolean},
		{int8(-3), ElementI1},
		{uint8(200), ElementU1},
		{int16(-300), ElementI2},
		{uint16(60000), ElementU2},
		{int32(-70000), ElementI4},
		{uint32(4000000000), ElementU4},
		{int64(math.MinInt64), ElementI8},
		{uint64(math.MaxUint64), ElementU8},
		{float32(1.5), ElementR4},
		{float64(-2.25), ElementR8},
		{"héllo 𝄞", ElementString},
		{nil, ElementClass},
	}

	for _, tt := range tests {
		c, err := NewConstant(tt.in)
		if err != nil {
			t.Fatalf("NewConstant(%v): %v", tt.in, err)
		}
		if c.Type != tt.want {
			t.Errorf("NewConstant(%v).Type = %v, want %v", tt.in, c.Type, tt.want)
		}
		got, err := c.Value()
		if err != nil {
			t.Fatalf("Value(%v): %v", tt.in, err)
		}
		if got != tt.in {
			t.Errorf("Value() = %#v, want %#v", got, tt.in)
		}
	}
}

func TestConstantErrors(t *testing.T) {
	bad := []Constant{
		{Type: ElementI4, Blob: []byte{1, 2}},
		{Type: ElementString, Blob: []byte{1}},
		{Type: ElementClass, Blob: []byte{1, 0, 0, 0}},
		{Type: ElementObject, Blob: []byte{0, 0, 0, 0}},
	}
	for _, c := range bad {
		if _, err := c.Value(); err == nil {
			t.Errorf("Value() on %v/%v should fail", c.Type, c.Blob)
		}
	}

	if _, err := NewConstant(struct{}{}); err == nil {
		t.Error("NewConstant(struct{}) should fail")
	}
}

func TestCharConstant(t *testing.T) {
	v, err := CharConstant('A').Value()
	if err != nil {
		t.Fatal(err)
	}
	if v != uint16('A') {
		t.Errorf("char = %v", v)
	}
}

func TestTypeSigString(t *testing.T) {
	list := MakeToken(TableTypeRef, 3)
	sig := GenericInst(Class(list), Prim(ElementI4), SZArray(Var(0)))
	if s := sig.String(); s != "class TypeRef[3]<int32,!0[]>" {
		t.Errorf("String() = %q", s)
	}

	arr := Array(ByRef(MVar(1)), 3)
	if s := arr.String(); s != "!!1&[,,]" {
		t.Errorf("String() = %q", s)
	}

	mod := Modified(Ptr(Prim(ElementU1)), MakeToken(TableTypeRef, 9), true)
	if s := mod.String(); s != "uint8* modreq(TypeRef[9])" {
		t.Errorf("String() = %q", s)
	}
}

func TestVersionCompare(t *testing.T) {
	tests := []struct {
		a, b Version
		want int
	}{
		{Version{1, 0, 0, 0}, Version{1, 0, 0, 0}, 0},
		{Version{1, 0, 0, 0}, Version{1, 0, 0, 1}, -1},
		{Version{2, 0, 0, 0}, Version{1, 9, 9, 9}, 1},
		{Version{1, 2, 0, 0}, Version{1, 10, 0, 0}, -1},
	}
	for _, tt := range tests {
		if got := tt.a.Compare(tt.b); got != tt.want {
			t.Errorf("%v.Compare(%v) = %d, want %d", tt.a, tt.b, got, tt.want)
		}
	}
	if s := (Version{4, 0, 1, 2}).String(); s != "4.0.1.2" {
		t.Errorf("String() = %q", s)
	}
}

func TestExportedTypeForwarder(t *testing.T) {
	fwd := ExportedTypeRow{Implementation: MakeToken(TableAssemblyRef, 1)}
	if !fwd.IsForwarder() {
		t.Error("AssemblyRef implementation should be a forwarder")
	}
	local := ExportedTypeRow{Implementation: MakeToken(TableFile, 1)}
	if local.IsForwarder() {
		t.Error("File implementation is not a forwarder")
	}
}
