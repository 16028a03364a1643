package reflection

import (
	"strconv"
	"strings"
	"sync"

	"github.com/wippyai/metareflect/errors"
	"github.com/wippyai/metareflect/internal/lazy"
	"github.com/wippyai/metareflect/metadata"
)

// TypeKind discriminates the variants of Type.
type TypeKind uint8

const (
	KindDefinition TypeKind = iota + 1
	KindGenericInstance
	KindSZArray
	KindArray
	KindByRef
	KindPointer
	KindGenericParameter
)

func (k TypeKind) String() string {
	switch k {
	case KindDefinition:
		return "definition"
	case KindGenericInstance:
		return "generic instance"
	case KindSZArray:
		return "szarray"
	case KindArray:
		return "array"
	case KindByRef:
		return "byref"
	case KindPointer:
		return "pointer"
	case KindGenericParameter:
		return "generic parameter"
	default:
		return "invalid"
	}
}

// HasElementType is implemented by descriptors that wrap an element type.
type HasElementType interface {
	ElementType() *Type
}

// GenericParameterLike is implemented by descriptors that may stand for a
// generic parameter.
type GenericParameterLike interface {
	GenericParameterPosition() int
	GenericParameterAttributes() metadata.GenericParamAttributes
	GenericParameterConstraints() ([]*Type, error)
	DeclaringMethod() *Method
}

// InstantiationProvider is implemented by descriptors that carry generic
// arguments.
type InstantiationProvider interface {
	GenericArguments() ([]*Type, error)
}

var (
	_ HasElementType        = (*Type)(nil)
	_ GenericParameterLike  = (*Type)(nil)
	_ InstantiationProvider = (*Type)(nil)
	_ Member                = (*Type)(nil)
)

// Type describes a type reachable from a LoadContext. Two descriptors denote
// the same type if and only if they are the same pointer.
type Type struct {
	module  *Module
	row     *metadata.TypeDefRow // definitions only
	outer   *Type                // enclosing definition of a nested type
	elem    *Type                // element type, or generic definition of an instance
	args    []*Type              // generic instance arguments
	gp      *genericParam
	queries sync.Map // queryKey -> *queryResult
	id      uint64
	token   metadata.Token
	rank    int
	kind    TypeKind

	valueType bool
	enum      bool

	base        lazy.Cell[*Type]
	declIfaces  lazy.Cell[[]*Type]
	allIfaces   lazy.Cell[[]*Type]
	gparams     lazy.Cell[[]*Type]
	nested      lazy.Cell[[]*Type]
	constraints lazy.Cell[[]*Type]
	attrs       lazy.Cell[[]*CustomAttribute]
	methods     lazy.Cell[[]*Method]
	fields      lazy.Cell[[]*Field]
	properties  lazy.Cell[[]*Property]
	events      lazy.Cell[[]*Event]
}

type genericParam struct {
	owner    *Type   // declaring type of a type parameter
	method   *Method // declaring method of a method parameter
	name     string
	tokens   []metadata.Token // constraint tokens
	attrs    []metadata.Token // custom attributes
	token    metadata.Token
	position int
	flags    metadata.GenericParamAttributes
}

// Kind returns the descriptor variant.
func (t *Type) Kind() TypeKind { return t.kind }

// Module returns the module owning the descriptor. Constructed types belong
// to the module of their element or generic definition.
func (t *Type) Module() *Module { return t.module }

// Assembly returns the assembly owning the descriptor.
func (t *Type) Assembly() *Assembly { return t.module.asm }

// MemberKind reports that a type is a nested-type member.
func (t *Type) MemberKind() MemberKind { return MemberNestedType }

// Token returns the TypeDef token of definitions and instances.
func (t *Type) Token() metadata.Token {
	switch t.kind {
	case KindDefinition:
		return t.token
	case KindGenericInstance:
		return t.elem.token
	case KindGenericParameter:
		return t.gp.token
	default:
		return 0
	}
}

// Name returns the simple name, with array, pointer and byref suffixes.
func (t *Type) Name() string {
	switch t.kind {
	case KindDefinition:
		return t.row.Name
	case KindGenericInstance:
		return t.elem.Name()
	case KindGenericParameter:
		return t.gp.name
	default:
		return t.elem.Name() + t.suffix()
	}
}

func (t *Type) suffix() string {
	switch t.kind {
	case KindSZArray:
		return "[]"
	case KindArray:
		if t.rank == 1 {
			return "[*]"
		}
		return "[" + strings.Repeat(",", t.rank-1) + "]"
	case KindByRef:
		return "&"
	case KindPointer:
		return "*"
	default:
		return ""
	}
}

// Namespace returns the namespace. Nested types report the namespace of
// their outermost enclosing type.
func (t *Type) Namespace() string {
	switch t.kind {
	case KindDefinition:
		if t.outer != nil {
			return t.outer.Namespace()
		}
		return t.row.Namespace
	case KindGenericParameter:
		if dt := t.DeclaringType(); dt != nil {
			return dt.Namespace()
		}
		return ""
	default:
		return t.elem.Namespace()
	}
}

// FullName returns the namespace-qualified name with '+' separating nested
// types. Types that contain generic parameters have no full name and return "".
func (t *Type) FullName() string {
	switch t.kind {
	case KindDefinition:
		if t.outer != nil {
			return t.outer.FullName() + "+" + t.row.Name
		}
		return joinTypeName(t.row.Namespace, t.row.Name)
	case KindGenericInstance:
		if t.ContainsGenericParameters() {
			return ""
		}
		var b strings.Builder
		b.WriteString(t.elem.FullName())
		b.WriteByte('[')
		for i, a := range t.args {
			if i > 0 {
				b.WriteByte(',')
			}
			b.WriteByte('[')
			b.WriteString(a.AssemblyQualifiedName())
			b.WriteByte(']')
		}
		b.WriteByte(']')
		return b.String()
	case KindGenericParameter:
		return ""
	default:
		full := t.elem.FullName()
		if full == "" {
			return ""
		}
		return full + t.suffix()
	}
}

// AssemblyQualifiedName returns FullName followed by the assembly display name.
func (t *Type) AssemblyQualifiedName() string {
	full := t.FullName()
	if full == "" {
		return ""
	}
	return full + ", " + t.module.asm.FullName()
}

// String renders the type with generic arguments in brackets, as in
// "N.T`1[System.Int32]".
func (t *Type) String() string {
	switch t.kind {
	case KindDefinition:
		return t.FullName()
	case KindGenericInstance:
		parts := make([]string, len(t.args))
		for i, a := range t.args {
			parts[i] = a.String()
		}
		return t.elem.FullName() + "[" + strings.Join(parts, ",") + "]"
	case KindGenericParameter:
		return t.gp.name
	default:
		return t.elem.String() + t.suffix()
	}
}

// Attributes returns the type flags. Constructed types report the flags of
// their definition; arrays are public, sealed and serializable.
func (t *Type) Attributes() metadata.TypeAttributes {
	switch t.kind {
	case KindDefinition:
		return t.row.Flags
	case KindGenericInstance:
		return t.elem.row.Flags
	case KindSZArray, KindArray:
		return metadata.TypePublic | metadata.TypeSealed | metadata.TypeSerializable
	default:
		return metadata.TypePublic
	}
}

// IsInterface reports whether t is an interface definition or instance.
func (t *Type) IsInterface() bool {
	return t.isNominal() && t.Attributes()&metadata.TypeInterface != 0
}

// IsAbstract reports whether the type is abstract.
func (t *Type) IsAbstract() bool { return t.Attributes()&metadata.TypeAbstract != 0 }

// IsSealed reports whether the type cannot be derived from.
func (t *Type) IsSealed() bool { return t.Attributes()&metadata.TypeSealed != 0 }

// IsImport reports whether the type is imported from a COM type library.
func (t *Type) IsImport() bool { return t.Attributes()&metadata.TypeImport != 0 }

// IsSerializable reports whether the type is marked serializable. Enums always are.
func (t *Type) IsSerializable() bool {
	return t.Attributes()&metadata.TypeSerializable != 0 || t.IsEnum()
}

// IsNested reports whether the type is declared inside another type.
func (t *Type) IsNested() bool {
	return t.isNominal() && t.definition().outer != nil
}

// IsPublic reports whether a top-level type is public.
func (t *Type) IsPublic() bool {
	return t.isNominal() && t.Attributes().Visibility() == metadata.TypePublic
}

// IsNestedPublic reports whether a nested type is public.
func (t *Type) IsNestedPublic() bool {
	return t.isNominal() && t.Attributes().Visibility() == metadata.TypeNestedPublic
}

// IsVisible reports whether the type can be named from outside its assembly.
func (t *Type) IsVisible() bool {
	switch t.kind {
	case KindDefinition:
		switch t.row.Flags.Visibility() {
		case metadata.TypePublic:
			return true
		case metadata.TypeNestedPublic:
			return t.outer.IsVisible()
		default:
			return false
		}
	case KindGenericInstance:
		if !t.elem.IsVisible() {
			return false
		}
		for _, a := range t.args {
			if !a.IsVisible() {
				return false
			}
		}
		return true
	case KindGenericParameter:
		return true
	default:
		return t.elem.IsVisible()
	}
}

// IsValueType reports whether the type derives from System.ValueType.
// System.Enum itself is a class.
func (t *Type) IsValueType() bool {
	switch t.kind {
	case KindDefinition:
		return t.valueType
	case KindGenericInstance:
		return t.elem.valueType
	case KindGenericParameter:
		return t.gp.flags&metadata.GenericNotNullableValueTypeConstraint != 0
	default:
		return false
	}
}

// IsEnum reports whether the type derives from System.Enum.
func (t *Type) IsEnum() bool {
	return t.kind == KindDefinition && t.enum
}

// IsClass reports whether the type is neither an interface nor a value type.
func (t *Type) IsClass() bool {
	switch t.kind {
	case KindDefinition, KindGenericInstance:
		return !t.IsInterface() && !t.IsValueType()
	case KindSZArray, KindArray:
		return true
	default:
		return false
	}
}

// IsArray reports whether t is a vector or a general array.
func (t *Type) IsArray() bool { return t.kind == KindSZArray || t.kind == KindArray }

// IsSZArray reports whether t is a single-dimensional zero-based vector.
func (t *Type) IsSZArray() bool { return t.kind == KindSZArray }

// IsByRef reports whether t is a managed reference.
func (t *Type) IsByRef() bool { return t.kind == KindByRef }

// IsPointer reports whether t is an unmanaged pointer.
func (t *Type) IsPointer() bool { return t.kind == KindPointer }

// HasElementType reports whether the type is an array, pointer or byref.
func (t *Type) HasElementType() bool {
	return t.kind == KindSZArray || t.kind == KindArray || t.kind == KindByRef || t.kind == KindPointer
}

// ElementType returns the wrapped type of arrays, pointers and byrefs.
func (t *Type) ElementType() *Type {
	if t.HasElementType() {
		return t.elem
	}
	return nil
}

// ArrayRank returns the number of dimensions of an array, or 0.
func (t *Type) ArrayRank() int {
	switch t.kind {
	case KindSZArray:
		return 1
	case KindArray:
		return t.rank
	default:
		return 0
	}
}

func (t *Type) isNominal() bool {
	return t.kind == KindDefinition || t.kind == KindGenericInstance
}

// definition strips the instantiation of a generic instance.
func (t *Type) definition() *Type {
	if t.kind == KindGenericInstance {
		return t.elem
	}
	return t
}

// IsGenericTypeDefinition reports whether t is an uninstantiated generic type.
func (t *Type) IsGenericTypeDefinition() bool {
	return t.kind == KindDefinition && len(t.row.GenericParams) > 0
}

// IsConstructedGenericType reports whether t is a generic instance.
func (t *Type) IsConstructedGenericType() bool { return t.kind == KindGenericInstance }

// IsGenericType reports whether t is a generic definition or instance.
func (t *Type) IsGenericType() bool {
	return t.IsGenericTypeDefinition() || t.IsConstructedGenericType()
}

// IsGenericParameter reports whether t is a generic parameter of a type or method.
func (t *Type) IsGenericParameter() bool { return t.kind == KindGenericParameter }

// IsGenericTypeParameter reports whether t is a generic parameter of a type.
func (t *Type) IsGenericTypeParameter() bool {
	return t.kind == KindGenericParameter && t.gp.method == nil
}

// IsGenericMethodParameter reports whether t is a generic parameter of a method.
func (t *Type) IsGenericMethodParameter() bool {
	return t.kind == KindGenericParameter && t.gp.method != nil
}

// ContainsGenericParameters reports whether t mentions an unbound generic
// parameter anywhere in its structure.
func (t *Type) ContainsGenericParameters() bool {
	switch t.kind {
	case KindDefinition:
		if t.IsGenericTypeDefinition() {
			return true
		}
		return t.outer != nil && t.outer.ContainsGenericParameters()
	case KindGenericInstance:
		for _, a := range t.args {
			if a.ContainsGenericParameters() {
				return true
			}
		}
		return false
	case KindGenericParameter:
		return true
	default:
		return t.elem.ContainsGenericParameters()
	}
}

// GenericArguments returns the arguments of an instance, or the parameters
// of a generic definition.
func (t *Type) GenericArguments() ([]*Type, error) {
	switch t.kind {
	case KindGenericInstance:
		return t.args, nil
	case KindDefinition:
		return t.genericParameters()
	default:
		return nil, nil
	}
}

// GenericTypeDefinition returns the definition an instance was built from.
func (t *Type) GenericTypeDefinition() (*Type, error) {
	switch {
	case t.kind == KindGenericInstance:
		return t.elem, nil
	case t.IsGenericTypeDefinition():
		return t, nil
	default:
		return nil, errors.New(errors.PhaseQuery, errors.KindInvalidInput).
			Type(t.String()).Detail("not a generic type").Build()
	}
}

func (t *Type) genericParameters() ([]*Type, error) {
	if t.kind != KindDefinition || len(t.row.GenericParams) == 0 {
		return nil, nil
	}
	return t.gparams.Get(func() ([]*Type, error) {
		return t.module.genericParams(t.row.GenericParams, t, nil)
	})
}

// genericParams builds parameter descriptors owned by a type or a method.
func (m *Module) genericParams(toks []metadata.Token, owner *Type, method *Method) ([]*Type, error) {
	out := make([]*Type, len(toks))
	for i, tok := range toks {
		row, err := m.reader.GenericParam(tok)
		if err != nil {
			return nil, err
		}
		if int(row.Number) != i {
			return nil, errors.Malformed(errors.PhaseDecode, []string{"GenericParam", row.Name},
				"generic parameter "+strconv.Itoa(int(row.Number))+" out of order")
		}
		out[i] = &Type{
			module: m,
			kind:   KindGenericParameter,
			id:     m.lc().nextID(),
			gp: &genericParam{
				owner:    owner,
				method:   method,
				name:     row.Name,
				tokens:   row.Constraints,
				attrs:    row.CustomAttributes,
				token:    tok,
				position: i,
				flags:    row.Flags,
			},
		}
	}
	return out, nil
}

// GenericParameterPosition returns the position of a generic parameter, or -1.
func (t *Type) GenericParameterPosition() int {
	if t.kind != KindGenericParameter {
		return -1
	}
	return t.gp.position
}

// GenericParameterAttributes returns the variance and constraint flags.
func (t *Type) GenericParameterAttributes() metadata.GenericParamAttributes {
	if t.kind != KindGenericParameter {
		return 0
	}
	return t.gp.flags
}

// GenericParameterConstraints resolves the constraint types of a generic
// parameter against its owner's context.
func (t *Type) GenericParameterConstraints() ([]*Type, error) {
	if t.kind != KindGenericParameter {
		return nil, nil
	}
	if err := t.module.lc().check(); err != nil {
		return nil, err
	}
	return t.constraints.Get(func() ([]*Type, error) {
		ctx, err := t.gp.context()
		if err != nil {
			return nil, err
		}
		out := make([]*Type, 0, len(t.gp.tokens))
		for _, tok := range t.gp.tokens {
			c, err := t.module.resolveToken(tok, ctx)
			if err != nil {
				return nil, err
			}
			out = append(out, c)
		}
		return out, nil
	})
}

func (gp *genericParam) context() (GenericContext, error) {
	if gp.method != nil {
		return gp.method.context()
	}
	args, err := gp.owner.genericParameters()
	return GenericContext{TypeArgs: args}, err
}

// DeclaringMethod returns the method owning a method generic parameter.
func (t *Type) DeclaringMethod() *Method {
	if t.kind != KindGenericParameter {
		return nil
	}
	return t.gp.method
}

// DeclaringType returns the enclosing type of a nested type or the owner of
// a generic parameter.
func (t *Type) DeclaringType() *Type {
	switch t.kind {
	case KindDefinition:
		return t.outer
	case KindGenericInstance:
		return t.elem.outer
	case KindGenericParameter:
		if t.gp.method != nil {
			return t.gp.method.DeclaringType()
		}
		return t.gp.owner
	default:
		return nil
	}
}

// ReflectedType is the declaring type; nested types are never inherited.
func (t *Type) ReflectedType() *Type { return t.DeclaringType() }

// maxHierarchyDepth bounds base-type chains and interface closures. Only a
// cycle in malformed metadata reaches it.
const maxHierarchyDepth = 512

func cyclicHierarchy(t *Type, what string) error {
	return errors.Malformed(errors.PhaseDecode, []string{t.FullName()}, "cyclic "+what)
}

// BaseType returns the direct base type, or nil for System.Object,
// interfaces, pointers and byrefs.
func (t *Type) BaseType() (*Type, error) {
	if err := t.module.lc().check(); err != nil {
		return nil, err
	}
	return t.base.Get(t.computeBase)
}

func (t *Type) computeBase() (*Type, error) {
	switch t.kind {
	case KindDefinition:
		if t.IsInterface() || t.row.Extends.IsNil() {
			return nil, nil
		}
		args, err := t.genericParameters()
		if err != nil {
			return nil, err
		}
		return t.module.resolveToken(t.row.Extends, GenericContext{TypeArgs: args})
	case KindGenericInstance:
		base, err := t.elem.BaseType()
		if err != nil || base == nil {
			return nil, err
		}
		return Specialize(base, GenericContext{TypeArgs: t.args})
	case KindSZArray, KindArray:
		wk, err := t.module.lc().wellKnownTypes()
		if err != nil {
			return nil, err
		}
		return wk.array, nil
	case KindGenericParameter:
		cs, err := t.GenericParameterConstraints()
		if err != nil {
			return nil, err
		}
		for _, c := range cs {
			if !c.IsInterface() && !c.IsGenericParameter() {
				return c, nil
			}
		}
		wk, err := t.module.lc().wellKnownTypes()
		if err != nil {
			return nil, err
		}
		if t.gp.flags&metadata.GenericNotNullableValueTypeConstraint != 0 {
			return wk.valueType, nil
		}
		return wk.object, nil
	default:
		return nil, nil
	}
}

// DeclaredInterfaces returns the interfaces listed directly on the type.
func (t *Type) DeclaredInterfaces() ([]*Type, error) {
	if err := t.module.lc().check(); err != nil {
		return nil, err
	}
	return t.declIfaces.Get(func() ([]*Type, error) {
		switch t.kind {
		case KindDefinition:
			args, err := t.genericParameters()
			if err != nil {
				return nil, err
			}
			ctx := GenericContext{TypeArgs: args}
			out := make([]*Type, 0, len(t.row.Interfaces))
			for _, tok := range t.row.Interfaces {
				it, err := t.module.resolveToken(tok, ctx)
				if err != nil {
					return nil, err
				}
				out = append(out, it)
			}
			return out, nil
		case KindGenericInstance:
			decl, err := t.elem.DeclaredInterfaces()
			if err != nil {
				return nil, err
			}
			return specializeAll(decl, GenericContext{TypeArgs: t.args})
		case KindSZArray:
			return t.arrayInterfaces()
		case KindGenericParameter:
			cs, err := t.GenericParameterConstraints()
			if err != nil {
				return nil, err
			}
			var out []*Type
			for _, c := range cs {
				if c.IsInterface() {
					out = append(out, c)
				}
			}
			return out, nil
		default:
			return nil, nil
		}
	})
}

// arrayInterfaces instantiates the generic collection interfaces of the core
// assembly over the element type of a vector.
func (t *Type) arrayInterfaces() ([]*Type, error) {
	if t.elem.IsPointer() || t.elem.IsByRef() {
		return nil, nil
	}
	wk, err := t.module.lc().wellKnownTypes()
	if err != nil {
		return nil, err
	}
	out := make([]*Type, 0, len(wk.collections))
	for _, def := range wk.collections {
		out = append(out, def.instantiate([]*Type{t.elem}))
	}
	return out, nil
}

// Interfaces returns the transitive closure of implemented interfaces:
// declared interfaces (and theirs) first, then those inherited from the base.
func (t *Type) Interfaces() ([]*Type, error) {
	if err := t.module.lc().check(); err != nil {
		return nil, err
	}
	return t.interfaces(0)
}

func (t *Type) interfaces(depth int) ([]*Type, error) {
	return t.allIfaces.Get(func() ([]*Type, error) {
		if depth >= maxHierarchyDepth {
			return nil, cyclicHierarchy(t, "interface or base type chain")
		}
		seen := make(map[*Type]bool)
		var out []*Type
		var add func(it *Type) error
		add = func(it *Type) error {
			if seen[it] {
				return nil
			}
			seen[it] = true
			out = append(out, it)
			inherited, err := it.interfaces(depth + 1)
			if err != nil {
				return err
			}
			for _, x := range inherited {
				if !seen[x] {
					seen[x] = true
					out = append(out, x)
				}
			}
			return nil
		}

		decl, err := t.DeclaredInterfaces()
		if err != nil {
			return nil, err
		}
		for _, it := range decl {
			if err := add(it); err != nil {
				return nil, err
			}
		}
		base, err := t.BaseType()
		if err != nil {
			return nil, err
		}
		if base != nil {
			inherited, err := base.interfaces(depth + 1)
			if err != nil {
				return nil, err
			}
			for _, it := range inherited {
				if !seen[it] {
					seen[it] = true
					out = append(out, it)
				}
			}
		}
		return out, nil
	})
}

// declaredNestedTypes returns the nested types declared directly in t.
func (t *Type) declaredNestedTypes() ([]*Type, error) {
	if !t.isNominal() {
		return nil, nil
	}
	def := t.definition()
	return def.nested.Get(func() ([]*Type, error) {
		out := make([]*Type, 0, len(def.row.NestedTypes))
		for _, tok := range def.row.NestedTypes {
			nt, err := def.module.typeDef(tok)
			if err != nil {
				return nil, err
			}
			out = append(out, nt)
		}
		return out, nil
	})
}

// nestedByName finds a directly nested type by simple name.
func (t *Type) nestedByName(name string) (*Type, error) {
	nested, err := t.declaredNestedTypes()
	if err != nil {
		return nil, err
	}
	for _, nt := range nested {
		if nt.Name() == name {
			return nt, nil
		}
	}
	return nil, errors.NotFound(errors.PhaseQuery, "nested type", t.FullName()+"+"+name)
}

// EnumUnderlyingType returns the type of the single instance field of an enum.
func (t *Type) EnumUnderlyingType() (*Type, error) {
	if !t.IsEnum() {
		return nil, errors.InvalidInput(errors.PhaseQuery, t.String()+" is not an enum")
	}
	fields, err := t.declaredFields()
	if err != nil {
		return nil, err
	}
	for _, f := range fields {
		if !f.IsStatic() {
			return f.FieldType()
		}
	}
	return nil, errors.Malformed(errors.PhaseDecode, []string{"TypeDef", t.Name()}, "enum without instance field")
}

// LayoutKind is the field layout of a type.
type LayoutKind uint8

const (
	LayoutAuto LayoutKind = iota
	LayoutSequential
	LayoutExplicit
)

// CharSet is the string marshaling character set of a type.
type CharSet uint8

const (
	CharSetAnsi CharSet = iota
	CharSetUnicode
	CharSetAuto
)

// StructLayout reports the layout flags and explicit packing of a type.
type StructLayout struct {
	Kind    LayoutKind
	CharSet CharSet
	Pack    int
	Size    int
}

// StructLayout returns the layout of a definition or instance. ok is false
// for other kinds and for interfaces.
func (t *Type) StructLayout() (layout StructLayout, ok bool) {
	if !t.isNominal() || t.IsInterface() {
		return layout, false
	}
	def := t.definition()
	flags := def.row.Flags
	switch flags & metadata.TypeLayoutMask {
	case metadata.TypeSequentialLayout:
		layout.Kind = LayoutSequential
	case metadata.TypeExplicitLayout:
		layout.Kind = LayoutExplicit
	}
	switch flags & metadata.TypeStringFormatMask {
	case metadata.TypeUnicodeClass:
		layout.CharSet = CharSetUnicode
	case metadata.TypeAutoClass:
		layout.CharSet = CharSetAuto
	}
	layout.Pack = 8
	if l := def.row.Layout; l != nil {
		if l.PackingSize != 0 {
			layout.Pack = int(l.PackingSize)
		}
		layout.Size = int(l.ClassSize)
	}
	return layout, true
}
