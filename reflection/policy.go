package reflection

import "github.com/wippyai/metareflect/metadata"

// memberInfo is the visibility triple a policy derives from a member.
type memberInfo struct {
	public  bool
	private bool
	static  bool
}

// policy describes how one member kind takes part in hierarchy queries.
type policy struct {
	// declaredOnly kinds are never inherited.
	declaredOnly bool
	// declared lists the members t declares.
	declared func(t *Type) ([]Member, error)
	// info derives visibility and staticness.
	info func(m Member) (memberInfo, error)
	// suppressed reports whether the more-derived prior hides base.
	suppressed func(prior, base Member) (bool, error)
	// tolerates reports whether a single-result lookup may keep the first
	// of two candidates declared by different types.
	tolerates func(first, other Member) (bool, error)
}

var policies [memberKindCount]policy

func init() {
	never := func(Member, Member) (bool, error) { return false, nil }
	always := func(Member, Member) (bool, error) { return true, nil }

	policies[MemberConstructor] = policy{
		declaredOnly: true,
		declared: func(t *Type) ([]Member, error) {
			return declaredMethodMembers(t, true)
		},
		info:       methodInfo,
		suppressed: never,
		tolerates:  never,
	}
	policies[MemberMethod] = policy{
		declared: func(t *Type) ([]Member, error) {
			return declaredMethodMembers(t, false)
		},
		info:       methodInfo,
		suppressed: methodSuppressed,
		tolerates: func(a, b Member) (bool, error) {
			return methodSignaturesEqual(a.(*Method), b.(*Method))
		},
	}
	policies[MemberField] = policy{
		declared: func(t *Type) ([]Member, error) {
			fs, err := t.declaredFields()
			return asMembers(fs, err)
		},
		info: func(m Member) (memberInfo, error) {
			f := m.(*Field)
			return memberInfo{public: f.IsPublic(), private: f.IsPrivate(), static: f.IsStatic()}, nil
		},
		suppressed: never,
		tolerates:  always,
	}
	policies[MemberProperty] = policy{
		declared: func(t *Type) ([]Member, error) {
			ps, err := t.declaredProperties()
			return asMembers(ps, err)
		},
		info: func(m Member) (memberInfo, error) {
			acc, err := m.(*Property).anyAccessor()
			if err != nil || acc == nil {
				return memberInfo{}, err
			}
			return methodInfo(acc)
		},
		suppressed: propertySuppressed,
		tolerates:  never,
	}
	policies[MemberEvent] = policy{
		declared: func(t *Type) ([]Member, error) {
			es, err := t.declaredEvents()
			return asMembers(es, err)
		},
		info: func(m Member) (memberInfo, error) {
			add, err := m.(*Event).AddMethod()
			if err != nil || add == nil {
				return memberInfo{}, err
			}
			return methodInfo(add)
		},
		suppressed: eventSuppressed,
		tolerates:  never,
	}
	policies[MemberNestedType] = policy{
		declaredOnly: true,
		declared: func(t *Type) ([]Member, error) {
			ts, err := t.declaredNestedTypes()
			return asMembers(ts, err)
		},
		info: func(m Member) (memberInfo, error) {
			return memberInfo{public: m.(*Type).Attributes().Visibility() == metadata.TypeNestedPublic}, nil
		},
		suppressed: never,
		tolerates:  never,
	}
}

func asMembers[M Member](ms []M, err error) ([]Member, error) {
	if err != nil {
		return nil, err
	}
	out := make([]Member, len(ms))
	for i, m := range ms {
		out[i] = m
	}
	return out, nil
}

func declaredMethodMembers(t *Type, ctors bool) ([]Member, error) {
	ms, err := t.declaredMethods()
	if err != nil {
		return nil, err
	}
	out := make([]Member, 0, len(ms))
	for _, m := range ms {
		if m.IsConstructor() == ctors {
			out = append(out, m)
		}
	}
	return out, nil
}

func methodInfo(m Member) (memberInfo, error) {
	meth := m.(*Method)
	return memberInfo{public: meth.IsPublic(), private: meth.IsPrivate(), static: meth.IsStatic()}, nil
}

// methodSuppressed hides a virtual base method behind a more-derived
// override of the same name and signature.
func methodSuppressed(prior, base Member) (bool, error) {
	p, b := prior.(*Method), base.(*Method)
	if !b.IsVirtual() {
		return false, nil
	}
	if p.Attributes()&(metadata.MethodVirtual|metadata.MethodVtableLayoutMask) != metadata.MethodVirtual {
		return false, nil
	}
	if p.Name() != b.Name() {
		return false, nil
	}
	return methodSignaturesEqual(p, b)
}

func propertySuppressed(prior, base Member) (bool, error) {
	p, b := prior.(*Property), base.(*Property)
	if p.Name() != b.Name() {
		return false, nil
	}
	pa, err := p.anyAccessor()
	if err != nil {
		return false, err
	}
	ba, err := b.anyAccessor()
	if err != nil {
		return false, err
	}
	if pa == nil || ba == nil || pa.IsStatic() != ba.IsStatic() {
		return false, nil
	}
	pt, err := p.PropertyType()
	if err != nil {
		return false, err
	}
	bt, err := b.PropertyType()
	if err != nil || pt != bt {
		return false, err
	}
	return methodSignaturesEqual(pa, ba)
}

func eventSuppressed(prior, base Member) (bool, error) {
	p, b := prior.(*Event), base.(*Event)
	if p.Name() != b.Name() {
		return false, nil
	}
	pa, err := p.AddMethod()
	if err != nil {
		return false, err
	}
	ba, err := b.AddMethod()
	if err != nil {
		return false, err
	}
	if pa == nil || ba == nil || pa.IsStatic() != ba.IsStatic() {
		return false, nil
	}
	return methodSignaturesEqual(pa, ba)
}

// methodSignaturesEqual compares parameter lists. Method generic parameters
// match by position, so overrides of generic methods compare equal.
func methodSignaturesEqual(a, b *Method) (bool, error) {
	if len(a.core.signature().Params) != len(b.core.signature().Params) {
		return false, nil
	}
	ga, err := a.GenericArguments()
	if err != nil {
		return false, err
	}
	gb, err := b.GenericArguments()
	if err != nil || len(ga) != len(gb) {
		return false, err
	}
	pa, err := a.ParameterTypes()
	if err != nil {
		return false, err
	}
	pb, err := b.ParameterTypes()
	if err != nil {
		return false, err
	}
	for i := range pa {
		if !sigTypeEqual(pa[i], pb[i]) {
			return false, nil
		}
	}
	return true, nil
}

func sigTypeEqual(a, b *Type) bool {
	if a == b {
		return true
	}
	if a.kind != b.kind {
		return false
	}
	switch a.kind {
	case KindGenericParameter:
		return a.gp.method != nil && b.gp.method != nil && a.gp.position == b.gp.position
	case KindSZArray, KindPointer, KindByRef:
		return sigTypeEqual(a.elem, b.elem)
	case KindArray:
		return a.rank == b.rank && sigTypeEqual(a.elem, b.elem)
	case KindGenericInstance:
		if a.elem != b.elem {
			return false
		}
		for i := range a.args {
			if !sigTypeEqual(a.args[i], b.args[i]) {
				return false
			}
		}
		return true
	default:
		return false
	}
}
