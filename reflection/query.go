package reflection

import (
	"github.com/wippyai/metareflect/errors"
)

type queryKey struct {
	name       string
	kind       MemberKind
	hasName    bool
	ignoreCase bool
}

// queryResult holds the members of a hierarchy walk before flag filtering.
// flags[i] lists the binding flags members[i] requires of a query.
type queryResult struct {
	members           []Member
	flags             []BindingFlags
	declaredOnlyCount int
	immediateOnly     bool
}

// query returns the members of kind matching filter, cached per type.
// An entry computed for a full hierarchy walk replaces an immediate-only one.
func (t *Type) query(kind MemberKind, filter nameFilter, flags BindingFlags) (*queryResult, error) {
	if err := t.module.lc().check(); err != nil {
		return nil, err
	}
	pol := &policies[kind]
	immediate := pol.declaredOnly || flags.immediateOnly()

	if filter.prefix {
		return t.collect(pol, filter, immediate)
	}

	key := queryKey{kind: kind, name: filter.name, hasName: filter.hasName, ignoreCase: filter.ignoreCase}
	if v, ok := t.queries.Load(key); ok {
		res := v.(*queryResult)
		if !res.immediateOnly || immediate {
			return res, nil
		}
	}

	res, err := t.collect(pol, filter, immediate)
	if err != nil {
		return nil, err
	}
	for {
		v, loaded := t.queries.LoadOrStore(key, res)
		if !loaded {
			return res, nil
		}
		prev := v.(*queryResult)
		if !prev.immediateOnly || res.immediateOnly {
			return prev, nil
		}
		if t.queries.CompareAndSwap(key, prev, res) {
			return res, nil
		}
	}
}

// collect walks t and its base types. Private members of base types never
// surface; a member suppressed by one collected from a more-derived level
// is dropped.
func (t *Type) collect(pol *policy, filter nameFilter, immediate bool) (*queryResult, error) {
	res := &queryResult{immediateOnly: immediate}
	inBase := false

	for cur, depth := t, 0; cur != nil; depth++ {
		if depth >= maxHierarchyDepth {
			return nil, cyclicHierarchy(t, "base type chain")
		}
		declared, err := pol.declared(cur)
		if err != nil {
			return nil, err
		}
		derived := len(res.members)

		for _, m := range declared {
			if !filter.matches(m.Name()) {
				continue
			}
			info, err := pol.info(m)
			if err != nil {
				return nil, err
			}
			if inBase && info.private {
				continue
			}
			hidden := false
			for _, prior := range res.members[:derived] {
				if hidden, err = pol.suppressed(prior, m); err != nil {
					return nil, err
				}
				if hidden {
					break
				}
			}
			if hidden {
				continue
			}

			var need BindingFlags
			if info.static {
				need |= Static
				if inBase {
					need |= FlattenHierarchy
				}
			} else {
				need |= Instance
			}
			if info.public {
				need |= Public
			} else {
				need |= NonPublic
			}
			res.members = append(res.members, reflectOn(m, t))
			res.flags = append(res.flags, need)
		}

		if !inBase {
			res.declaredOnlyCount = len(res.members)
		}
		if immediate || pol.declaredOnly {
			break
		}
		inBase = true
		if cur, err = cur.BaseType(); err != nil {
			return nil, err
		}
	}
	return res, nil
}

// reflectOn re-parents an inherited member on the queried type.
func reflectOn(m Member, rt *Type) Member {
	switch x := m.(type) {
	case *Method:
		return x.reflectedAs(rt)
	case *Field:
		return x.reflectedAs(rt)
	case *Property:
		return x.reflectedAs(rt)
	case *Event:
		return x.reflectedAs(rt)
	default:
		return m
	}
}

// filter applies flags to a cached result.
func (r *queryResult) filter(flags BindingFlags) []Member {
	limit := len(r.members)
	if flags&DeclaredOnly != 0 {
		limit = r.declaredOnlyCount
	}
	var out []Member
	for i := 0; i < limit; i++ {
		if flags&r.flags[i] == r.flags[i] {
			out = append(out, r.members[i])
		}
	}
	return out
}

func (t *Type) lookup(kind MemberKind, filter nameFilter, flags BindingFlags) ([]Member, error) {
	if kind == MemberNestedType {
		flags |= Static | Instance
	}
	res, err := t.query(kind, filter, flags)
	if err != nil {
		return nil, err
	}
	return res.filter(flags), nil
}

func (t *Type) lookupAll(kind MemberKind, flags BindingFlags) ([]Member, error) {
	return t.lookup(kind, nameFilter{}, flags)
}

func (t *Type) lookupNamed(kind MemberKind, name string, flags BindingFlags) ([]Member, error) {
	return t.lookup(kind, newNameFilter(name, flags&IgnoreCase != 0), flags)
}

// single disambiguates a lookup that must produce one member.
func (t *Type) single(kind MemberKind, name string, candidates []Member) (Member, error) {
	if len(candidates) == 0 {
		return nil, errors.MemberNotFound(t.String(), name)
	}
	first := candidates[0]
	pol := &policies[kind]
	for _, other := range candidates[1:] {
		if first.DeclaringType() == other.DeclaringType() {
			return nil, errors.AmbiguousMatch(t.String(), name, len(candidates))
		}
		ok, err := pol.tolerates(first, other)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, errors.AmbiguousMatch(t.String(), name, len(candidates))
		}
	}
	return first, nil
}

func convert[M Member](ms []Member, err error) ([]M, error) {
	if err != nil {
		return nil, err
	}
	out := make([]M, len(ms))
	for i, m := range ms {
		out[i] = m.(M)
	}
	return out, nil
}

// Methods returns the methods matching flags. Constructors are excluded.
func (t *Type) Methods(flags BindingFlags) ([]*Method, error) {
	return convert[*Method](t.lookupAll(MemberMethod, flags))
}

// Method returns the single method named name.
func (t *Type) Method(name string, flags BindingFlags) (*Method, error) {
	ms, err := t.lookupNamed(MemberMethod, name, flags)
	if err != nil {
		return nil, err
	}
	m, err := t.single(MemberMethod, name, ms)
	if err != nil {
		return nil, err
	}
	return m.(*Method), nil
}

// MethodBySignature returns the method named name whose parameter types are
// exactly params.
func (t *Type) MethodBySignature(name string, flags BindingFlags, params ...*Type) (*Method, error) {
	ms, err := t.lookupNamed(MemberMethod, name, flags)
	if err != nil {
		return nil, err
	}
	matched, err := withParams(ms, params)
	if err != nil {
		return nil, err
	}
	m, err := t.single(MemberMethod, name, matched)
	if err != nil {
		return nil, err
	}
	return m.(*Method), nil
}

func withParams(ms []Member, params []*Type) ([]Member, error) {
	var out []Member
	for _, m := range ms {
		pts, err := m.(*Method).ParameterTypes()
		if err != nil {
			return nil, err
		}
		if len(pts) != len(params) {
			continue
		}
		same := true
		for i := range pts {
			if pts[i] != params[i] {
				same = false
				break
			}
		}
		if same {
			out = append(out, m)
		}
	}
	return out, nil
}

// Constructors returns the constructors matching flags.
func (t *Type) Constructors(flags BindingFlags) ([]*Method, error) {
	return convert[*Method](t.lookupAll(MemberConstructor, flags))
}

// Constructor returns the constructor whose parameter types are exactly params.
func (t *Type) Constructor(flags BindingFlags, params ...*Type) (*Method, error) {
	ms, err := t.lookupAll(MemberConstructor, flags)
	if err != nil {
		return nil, err
	}
	matched, err := withParams(ms, params)
	if err != nil {
		return nil, err
	}
	m, err := t.single(MemberConstructor, ".ctor", matched)
	if err != nil {
		return nil, err
	}
	return m.(*Method), nil
}

// Fields returns the fields matching flags.
func (t *Type) Fields(flags BindingFlags) ([]*Field, error) {
	return convert[*Field](t.lookupAll(MemberField, flags))
}

// Field returns the field named name. Among same-named fields of different
// declaring types the most derived wins.
func (t *Type) Field(name string, flags BindingFlags) (*Field, error) {
	fs, err := t.lookupNamed(MemberField, name, flags)
	if err != nil {
		return nil, err
	}
	f, err := t.single(MemberField, name, fs)
	if err != nil {
		return nil, err
	}
	return f.(*Field), nil
}

// Properties returns the properties matching flags.
func (t *Type) Properties(flags BindingFlags) ([]*Property, error) {
	return convert[*Property](t.lookupAll(MemberProperty, flags))
}

// Property returns the property named name.
func (t *Type) Property(name string, flags BindingFlags) (*Property, error) {
	ps, err := t.lookupNamed(MemberProperty, name, flags)
	if err != nil {
		return nil, err
	}
	p, err := t.single(MemberProperty, name, ps)
	if err != nil {
		return nil, err
	}
	return p.(*Property), nil
}

// Events returns the events matching flags.
func (t *Type) Events(flags BindingFlags) ([]*Event, error) {
	return convert[*Event](t.lookupAll(MemberEvent, flags))
}

// Event returns the event named name.
func (t *Type) Event(name string, flags BindingFlags) (*Event, error) {
	es, err := t.lookupNamed(MemberEvent, name, flags)
	if err != nil {
		return nil, err
	}
	e, err := t.single(MemberEvent, name, es)
	if err != nil {
		return nil, err
	}
	return e.(*Event), nil
}

// NestedTypes returns the nested types matching the visibility in flags.
func (t *Type) NestedTypes(flags BindingFlags) ([]*Type, error) {
	return convert[*Type](t.lookupAll(MemberNestedType, flags))
}

// NestedType returns the nested type named name.
func (t *Type) NestedType(name string, flags BindingFlags) (*Type, error) {
	ts, err := t.lookupNamed(MemberNestedType, name, flags)
	if err != nil {
		return nil, err
	}
	nt, err := t.single(MemberNestedType, name, ts)
	if err != nil {
		return nil, err
	}
	return nt.(*Type), nil
}

// Members returns members of every kind whose name matches name; a trailing
// '*' matches by prefix and "" or "*" matches everything.
func (t *Type) Members(name string, flags BindingFlags) ([]Member, error) {
	var out []Member
	for kind := MemberConstructor; kind < memberKindCount; kind++ {
		var (
			ms  []Member
			err error
		)
		if name == "" {
			ms, err = t.lookupAll(kind, flags)
		} else {
			ms, err = t.lookupNamed(kind, name, flags)
		}
		if err != nil {
			return nil, err
		}
		out = append(out, ms...)
	}
	return out, nil
}
