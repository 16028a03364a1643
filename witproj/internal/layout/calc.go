package layout

import "go.bytecodealliance.org/wit"

// Info is the memory layout of a type. FieldOffs is set for records.
type Info struct {
	FieldOffs map[string]uint32
	Size      uint32
	Align     uint32
}

// Calculator memoizes layouts of type definitions. Not safe for concurrent use.
type Calculator struct {
	cache map[*wit.TypeDef]Info
}

// NewCalculator creates a calculator with an empty cache.
func NewCalculator() *Calculator {
	return &Calculator{cache: make(map[*wit.TypeDef]Info)}
}

// Calculate returns the canonical ABI size and alignment of t.
func (c *Calculator) Calculate(t wit.Type) Info {
	switch typ := t.(type) {
	case wit.U8, wit.S8, wit.Bool:
		return Info{Size: 1, Align: 1}
	case wit.U16, wit.S16:
		return Info{Size: 2, Align: 2}
	case wit.U32, wit.S32, wit.F32, wit.Char:
		return Info{Size: 4, Align: 4}
	case wit.U64, wit.S64, wit.F64:
		return Info{Size: 8, Align: 8}
	case wit.String:
		return Info{Size: 8, Align: 4} // [ptr: u32, len: u32]
	case *wit.TypeDef:
		return c.typeDef(typ)
	default:
		return Info{Size: 0, Align: 1}
	}
}

func (c *Calculator) typeDef(t *wit.TypeDef) Info {
	if cached, ok := c.cache[t]; ok {
		return cached
	}

	var info Info
	switch kind := t.Kind.(type) {
	case *wit.Record:
		fields := make([]wit.Type, len(kind.Fields))
		for i, f := range kind.Fields {
			fields[i] = f.Type
		}
		info = c.sequence(fields)
		info.FieldOffs = make(map[string]uint32, len(kind.Fields))
		offset := uint32(0)
		for _, f := range kind.Fields {
			fl := c.Calculate(f.Type)
			offset = AlignTo(offset, fl.Align)
			info.FieldOffs[f.Name] = offset
			offset += fl.Size
		}
	case *wit.Tuple:
		info = c.sequence(kind.Types)
	case *wit.Enum:
		size := DiscriminantSize(len(kind.Cases))
		info = Info{Size: size, Align: size}
	case *wit.Flags:
		info = flagsInfo(len(kind.Flags))
	case *wit.List:
		info = Info{Size: 8, Align: 4}
	case *wit.Option:
		inner := c.Calculate(kind.Type)
		align := max(inner.Align, 1)
		info = Info{Size: AlignTo(AlignTo(1, align)+inner.Size, align), Align: align}
	case wit.Type:
		info = c.Calculate(kind)
	default:
		info = Info{Size: 0, Align: 1}
	}

	c.cache[t] = info
	return info
}

// sequence lays types out one after another.
func (c *Calculator) sequence(types []wit.Type) Info {
	if len(types) == 0 {
		return Info{Size: 0, Align: 1}
	}
	maxAlign := uint32(1)
	offset := uint32(0)
	for _, typ := range types {
		l := c.Calculate(typ)
		offset = AlignTo(offset, l.Align)
		maxAlign = max(maxAlign, l.Align)
		offset += l.Size
	}
	return Info{Size: AlignTo(offset, maxAlign), Align: maxAlign}
}

func flagsInfo(n int) Info {
	switch {
	case n == 0:
		return Info{Size: 0, Align: 1}
	case n <= 8:
		return Info{Size: 1, Align: 1}
	case n <= 16:
		return Info{Size: 2, Align: 2}
	default:
		return Info{Size: uint32((n+31)/32) * 4, Align: 4}
	}
}

// AlignTo rounds offset up to a multiple of align.
func AlignTo(offset, align uint32) uint32 {
	if align == 0 {
		return offset
	}
	return (offset + align - 1) &^ (align - 1)
}

// DiscriminantSize: 1 byte for <=256 cases, 2 for <=65536, else 4.
func DiscriminantSize(numCases int) uint32 {
	if numCases <= 256 {
		return 1
	} else if numCases <= 65536 {
		return 2
	}
	return 4
}

// Maximum flattened values passed directly; larger signatures go through memory.
const (
	MaxFlatParams  = 16
	MaxFlatResults = 1
)

// FlatCount returns the number of core values t flattens to.
func FlatCount(t wit.Type) int {
	switch t := t.(type) {
	case wit.String:
		return 2
	case *wit.TypeDef:
		switch kind := t.Kind.(type) {
		case *wit.Record:
			n := 0
			for _, f := range kind.Fields {
				n += FlatCount(f.Type)
			}
			return n
		case *wit.Tuple:
			n := 0
			for _, e := range kind.Types {
				n += FlatCount(e)
			}
			return n
		case *wit.List:
			return 2
		case *wit.Option:
			return 1 + FlatCount(kind.Type)
		case *wit.Flags:
			return max(1, (len(kind.Flags)+31)/32)
		case *wit.Enum:
			return 1
		case wit.Type:
			return FlatCount(kind)
		}
	}
	return 1
}
