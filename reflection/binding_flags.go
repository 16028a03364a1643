package reflection

import "strings"

// BindingFlags filter member queries.
type BindingFlags uint32

const (
	IgnoreCase       BindingFlags = 0x01
	DeclaredOnly     BindingFlags = 0x02
	Instance         BindingFlags = 0x04
	Static           BindingFlags = 0x08
	Public           BindingFlags = 0x10
	NonPublic        BindingFlags = 0x20
	FlattenHierarchy BindingFlags = 0x40

	// DefaultLookup matches public static and instance members.
	DefaultLookup = Public | Instance | Static
	// AllMembers matches every member of every visibility and staticness.
	AllMembers = Public | NonPublic | Instance | Static
)

func (f BindingFlags) String() string {
	names := []struct {
		flag BindingFlags
		name string
	}{
		{IgnoreCase, "IgnoreCase"},
		{DeclaredOnly, "DeclaredOnly"},
		{Instance, "Instance"},
		{Static, "Static"},
		{Public, "Public"},
		{NonPublic, "NonPublic"},
		{FlattenHierarchy, "FlattenHierarchy"},
	}
	var parts []string
	for _, n := range names {
		if f&n.flag != 0 {
			parts = append(parts, n.name)
		}
	}
	if len(parts) == 0 {
		return "Default"
	}
	return strings.Join(parts, "|")
}

// immediateOnly reports whether a query with flags can be answered from the
// queried type alone. Static members of base types are visible only with
// FlattenHierarchy; instance members only without DeclaredOnly.
func (f BindingFlags) immediateOnly() bool {
	if f&(Static|FlattenHierarchy) == Static|FlattenHierarchy {
		return false
	}
	if f&(Instance|DeclaredOnly) == Instance {
		return false
	}
	return true
}

// MemberKind selects the query policy of a member lookup.
type MemberKind uint8

const (
	MemberConstructor MemberKind = iota
	MemberMethod
	MemberField
	MemberProperty
	MemberEvent
	MemberNestedType

	memberKindCount
)

func (k MemberKind) String() string {
	switch k {
	case MemberConstructor:
		return "constructor"
	case MemberMethod:
		return "method"
	case MemberField:
		return "field"
	case MemberProperty:
		return "property"
	case MemberEvent:
		return "event"
	case MemberNestedType:
		return "nested type"
	default:
		return "member"
	}
}

// Member is implemented by every descriptor a member query returns:
// *Method, *Field, *Property, *Event and nested *Type.
type Member interface {
	Name() string
	MemberKind() MemberKind
	DeclaringType() *Type
	ReflectedType() *Type
	CustomAttributes() ([]*CustomAttribute, error)
}

// nameFilter matches member names exactly or, with a trailing '*', by prefix.
type nameFilter struct {
	name       string
	hasName    bool
	prefix     bool
	ignoreCase bool
}

func newNameFilter(name string, ignoreCase bool) nameFilter {
	f := nameFilter{name: name, hasName: true, ignoreCase: ignoreCase}
	if strings.HasSuffix(name, "*") {
		f.name, f.prefix = strings.TrimSuffix(name, "*"), true
	}
	return f
}

func (f nameFilter) matches(name string) bool {
	if !f.hasName {
		return true
	}
	if f.prefix {
		if len(name) < len(f.name) {
			return false
		}
		name = name[:len(f.name)]
	}
	if f.ignoreCase {
		return strings.EqualFold(name, f.name)
	}
	return name == f.name
}
