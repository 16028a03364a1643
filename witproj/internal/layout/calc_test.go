package layout

import (
	"testing"

	"go.bytecodealliance.org/wit"
)

func TestCalculatePrimitives(t *testing.T) {
	c := NewCalculator()

	tests := []struct {
		typ   wit.Type
		name  string
		size  uint32
		align uint32
	}{
		{wit.Bool{}, "bool", 1, 1},
		{wit.U8{}, "u8", 1, 1},
		{wit.S16{}, "s16", 2, 2},
		{wit.U32{}, "u32", 4, 4},
		{wit.S64{}, "s64", 8, 8},
		{wit.F32{}, "f32", 4, 4},
		{wit.F64{}, "f64", 8, 8},
		{wit.Char{}, "char", 4, 4},
		{wit.String{}, "string", 8, 4},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			info := c.Calculate(tc.typ)
			if info.Size != tc.size {
				t.Errorf("size: got %d, want %d", info.Size, tc.size)
			}
			if info.Align != tc.align {
				t.Errorf("align: got %d, want %d", info.Align, tc.align)
			}
		})
	}
}

func TestCalculateRecord(t *testing.T) {
	c := NewCalculator()

	record := &wit.TypeDef{Kind: &wit.Record{
		Fields: []wit.Field{
			{Name: "a", Type: wit.U8{}},
			{Name: "b", Type: wit.U32{}},
			{Name: "c", Type: wit.U16{}},
		},
	}}
	info := c.Calculate(record)
	if info.Size != 12 || info.Align != 4 {
		t.Errorf("got size=%d align=%d, want 12/4", info.Size, info.Align)
	}
	want := map[string]uint32{"a": 0, "b": 4, "c": 8}
	for name, off := range want {
		if info.FieldOffs[name] != off {
			t.Errorf("offset %s: got %d, want %d", name, info.FieldOffs[name], off)
		}
	}

	empty := c.Calculate(&wit.TypeDef{Kind: &wit.Record{}})
	if empty.Size != 0 || empty.Align != 1 {
		t.Errorf("empty record: got size=%d align=%d", empty.Size, empty.Align)
	}
}

func TestCalculateCompound(t *testing.T) {
	c := NewCalculator()

	tests := []struct {
		name  string
		typ   wit.Type
		size  uint32
		align uint32
	}{
		{"list", &wit.TypeDef{Kind: &wit.List{Type: wit.U8{}}}, 8, 4},
		{"option_u32", &wit.TypeDef{Kind: &wit.Option{Type: wit.U32{}}}, 8, 4},
		{"option_u8", &wit.TypeDef{Kind: &wit.Option{Type: wit.U8{}}}, 2, 1},
		{"tuple", &wit.TypeDef{Kind: &wit.Tuple{Types: []wit.Type{wit.U8{}, wit.U64{}}}}, 16, 8},
		{"enum", &wit.TypeDef{Kind: &wit.Enum{Cases: []wit.EnumCase{{Name: "a"}, {Name: "b"}}}}, 1, 1},
		{"flags_9", &wit.TypeDef{Kind: &wit.Flags{Flags: make([]wit.Flag, 9)}}, 2, 2},
		{"flags_40", &wit.TypeDef{Kind: &wit.Flags{Flags: make([]wit.Flag, 40)}}, 8, 4},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			info := c.Calculate(tc.typ)
			if info.Size != tc.size || info.Align != tc.align {
				t.Errorf("got size=%d align=%d, want %d/%d", info.Size, info.Align, tc.size, tc.align)
			}
		})
	}
}

func TestCalculateCaches(t *testing.T) {
	c := NewCalculator()
	td := &wit.TypeDef{Kind: &wit.List{Type: wit.String{}}}
	c.Calculate(td)
	if _, ok := c.cache[td]; !ok {
		t.Error("typedef layout not cached")
	}
}

func TestFlatCount(t *testing.T) {
	tests := []struct {
		name string
		typ  wit.Type
		want int
	}{
		{"u32", wit.U32{}, 1},
		{"string", wit.String{}, 2},
		{"list", &wit.TypeDef{Kind: &wit.List{Type: wit.U32{}}}, 2},
		{"option_string", &wit.TypeDef{Kind: &wit.Option{Type: wit.String{}}}, 3},
		{"record", &wit.TypeDef{Kind: &wit.Record{Fields: []wit.Field{
			{Name: "x", Type: wit.F64{}},
			{Name: "s", Type: wit.String{}},
		}}}, 3},
		{"flags_33", &wit.TypeDef{Kind: &wit.Flags{Flags: make([]wit.Flag, 33)}}, 2},
		{"enum", &wit.TypeDef{Kind: &wit.Enum{Cases: []wit.EnumCase{{Name: "a"}}}}, 1},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := FlatCount(tc.typ); got != tc.want {
				t.Errorf("got %d, want %d", got, tc.want)
			}
		})
	}
}

func TestAlignTo(t *testing.T) {
	tests := []struct{ off, align, want uint32 }{
		{0, 4, 0},
		{1, 4, 4},
		{5, 8, 8},
		{7, 1, 7},
		{3, 0, 3},
	}
	for _, tc := range tests {
		if got := AlignTo(tc.off, tc.align); got != tc.want {
			t.Errorf("AlignTo(%d, %d) = %d, want %d", tc.off, tc.align, got, tc.want)
		}
	}
}
