package metadata

import "fmt"

// Table identifies a metadata table.
type Table uint8

const (
	TableModule          Table = 0x00
	TableTypeRef         Table = 0x01
	TableTypeDef         Table = 0x02
	TableField           Table = 0x04
	TableMethod          Table = 0x06
	TableParam           Table = 0x08
	TableMemberRef       Table = 0x0A
	TableCustomAttribute Table = 0x0C
	TableEvent           Table = 0x14
	TableProperty        Table = 0x17
	TableModuleRef       Table = 0x1A
	TableTypeSpec        Table = 0x1B
	TableAssembly        Table = 0x20
	TableAssemblyRef     Table = 0x23
	TableFile            Table = 0x26
	TableExportedType    Table = 0x27
	TableGenericParam    Table = 0x2A
)

func (t Table) String() string {
	switch t {
	case TableModule:
		return "Module"
	case TableTypeRef:
		return "TypeRef"
	case TableTypeDef:
		return "TypeDef"
	case TableField:
		return "Field"
	case TableMethod:
		return "Method"
	case TableParam:
		return "Param"
	case TableMemberRef:
		return "MemberRef"
	case TableCustomAttribute:
		return "CustomAttribute"
	case TableEvent:
		return "Event"
	case TableProperty:
		return "Property"
	case TableModuleRef:
		return "ModuleRef"
	case TableTypeSpec:
		return "TypeSpec"
	case TableAssembly:
		return "Assembly"
	case TableAssemblyRef:
		return "AssemblyRef"
	case TableFile:
		return "File"
	case TableExportedType:
		return "ExportedType"
	case TableGenericParam:
		return "GenericParam"
	default:
		return fmt.Sprintf("Table(0x%02x)", uint8(t))
	}
}

// Token is a row handle: table in the high byte, 1-based row in the low 24 bits.
// The zero Token is the nil reference.
type Token uint32

const rowMask = 0x00FFFFFF

// MaxRow is the largest row number a Token can address.
const MaxRow = rowMask

// MakeToken builds a token for a 1-based row of table.
func MakeToken(table Table, row uint32) Token {
	return Token(uint32(table)<<24 | row&rowMask)
}

// Table returns the table the token points into.
func (t Token) Table() Table {
	return Table(t >> 24)
}

// Row returns the 1-based row number.
func (t Token) Row() uint32 {
	return uint32(t) & rowMask
}

// IsNil reports whether the token references no row.
func (t Token) IsNil() bool {
	return t.Row() == 0
}

// Is reports whether the token points into table.
func (t Token) Is(table Table) bool {
	return !t.IsNil() && t.Table() == table
}

func (t Token) String() string {
	return fmt.Sprintf("%s[%d]", t.Table(), t.Row())
}
