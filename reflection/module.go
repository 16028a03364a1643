package reflection

import (
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/wippyai/metareflect/errors"
	"github.com/wippyai/metareflect/internal/intern"
	"github.com/wippyai/metareflect/internal/lazy"
	"github.com/wippyai/metareflect/metadata"
)

// maxNesting bounds enclosing-type chains of malformed input.
const maxNesting = 64

// Module is one decoded module. It owns the decoder and the uniquing tables
// for types constructed from its definitions.
type Module struct {
	asm         *Assembly
	reader      metadata.Reader
	defs        []lazy.Cell[*Type] // arena indexed by TypeDef row - 1
	refs        intern.Table[metadata.Token, *lazy.Cell[*Type]]
	asmRefs     intern.Table[metadata.Token, *lazy.Cell[*Assembly]]
	names       lazy.Cell[*intern.NameTable[metadata.Token]]
	attrs       lazy.Cell[[]*CustomAttribute]
	arrays      intern.Table[arrayKey, *Type]
	pointers    intern.Table[uint64, *Type]
	byRefs      intern.Table[uint64, *Type]
	insts       intern.Table[instKey, *Type]
	methodInsts intern.Table[instKey, *Method]
	name        string
	mvid        uuid.UUID
}

func newModule(asm *Assembly, reader metadata.Reader) *Module {
	def := reader.Module()
	return &Module{
		asm:    asm,
		reader: reader,
		defs:   make([]lazy.Cell[*Type], len(reader.TypeDefs())),
		name:   def.Name,
		mvid:   def.MVID,
	}
}

func (m *Module) lc() *LoadContext { return m.asm.lc }

// Name returns the module file name.
func (m *Module) Name() string { return m.name }

// MVID returns the module version id.
func (m *Module) MVID() uuid.UUID { return m.mvid }

// Assembly returns the owning assembly.
func (m *Module) Assembly() *Assembly { return m.asm }

func (m *Module) String() string { return m.name }

// Types returns every type definition of the module.
func (m *Module) Types() ([]*Type, error) {
	if err := m.lc().check(); err != nil {
		return nil, err
	}
	toks := m.reader.TypeDefs()
	out := make([]*Type, 0, len(toks))
	for _, tok := range toks {
		t, err := m.typeDef(tok)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, nil
}

// GetType finds a type defined in this module by full name.
func (m *Module) GetType(fullName string) (*Type, error) {
	if err := m.lc().check(); err != nil {
		return nil, err
	}
	parts := strings.Split(fullName, "+")
	ns, name := splitTypeName(parts[0])
	t, ok, err := m.topLevelType(ns, name)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, errors.NotFound(errors.PhaseQuery, "type", fullName)
	}
	for _, n := range parts[1:] {
		if t, err = t.nestedByName(n); err != nil {
			return nil, err
		}
	}
	return t, nil
}

// CustomAttributes returns the attributes attached to the module.
func (m *Module) CustomAttributes() ([]*CustomAttribute, error) {
	if err := m.lc().check(); err != nil {
		return nil, err
	}
	return m.attrs.Get(func() ([]*CustomAttribute, error) {
		return m.decodedAttributes(m.reader.Module().CustomAttributes), nil
	})
}

func nameKey(ns, name string) string {
	return ns + "\x00" + name
}

// topLevelType looks a non-nested definition up by name.
func (m *Module) topLevelType(ns, name string) (*Type, bool, error) {
	names, err := m.names.Get(m.buildNameTable)
	if err != nil {
		return nil, false, err
	}
	tok, ok := names.Lookup(nameKey(ns, name))
	if !ok {
		return nil, false, nil
	}
	t, err := m.typeDef(tok)
	return t, err == nil, err
}

func (m *Module) buildNameTable() (*intern.NameTable[metadata.Token], error) {
	toks := m.reader.TypeDefs()
	names := intern.NewNameTable[metadata.Token](len(toks))
	for _, tok := range toks {
		row, err := m.reader.TypeDef(tok)
		if err != nil {
			return nil, err
		}
		if !row.EnclosingType.IsNil() {
			continue
		}
		names.Add(nameKey(row.Namespace, row.Name), tok)
	}
	m.lc().log.Debug("type names indexed", zap.String("module", m.name), zap.Int("types", names.Len()))
	return names, nil
}

// typeDef returns the definition for a TypeDef token from the arena.
func (m *Module) typeDef(tok metadata.Token) (*Type, error) {
	return m.typeDefDepth(tok, 0)
}

func (m *Module) typeDefDepth(tok metadata.Token, depth int) (*Type, error) {
	if !tok.Is(metadata.TableTypeDef) || int(tok.Row()) > len(m.defs) {
		return nil, errors.Malformed(errors.PhaseDecode, []string{"TypeDef"}, "invalid TypeDef token "+tok.String())
	}
	return m.defs[tok.Row()-1].Get(func() (*Type, error) {
		if err := m.lc().check(); err != nil {
			return nil, err
		}
		row, err := m.reader.TypeDef(tok)
		if err != nil {
			return nil, err
		}
		t := &Type{
			module: m,
			kind:   KindDefinition,
			token:  tok,
			row:    &row,
			id:     m.lc().nextID(),
		}
		if t.valueType, t.enum, err = m.classify(&row); err != nil {
			return nil, err
		}
		if !row.EnclosingType.IsNil() {
			if depth >= maxNesting {
				return nil, errors.Malformed(errors.PhaseDecode, []string{"TypeDef", row.Name}, "nesting too deep")
			}
			outer, err := m.typeDefDepth(row.EnclosingType, depth+1)
			if err != nil {
				return nil, err
			}
			t.outer = outer
		}
		return t, nil
	})
}

// classify inspects the name of a definition's base type without resolving
// it: value types extend System.ValueType or System.Enum, except System.Enum.
func (m *Module) classify(row *metadata.TypeDefRow) (valueType, enum bool, err error) {
	if row.Flags&metadata.TypeInterface != 0 || row.Extends.IsNil() {
		return false, false, nil
	}
	var ns, name string
	switch row.Extends.Table() {
	case metadata.TableTypeRef:
		ref, err := m.reader.TypeRef(row.Extends)
		if err != nil {
			return false, false, err
		}
		ns, name = ref.Namespace, ref.Name
	case metadata.TableTypeDef:
		def, err := m.reader.TypeDef(row.Extends)
		if err != nil {
			return false, false, err
		}
		ns, name = def.Namespace, def.Name
	default:
		return false, false, nil
	}
	if ns != "System" {
		return false, false, nil
	}
	switch name {
	case "Enum":
		return true, true, nil
	case "ValueType":
		return !(row.Namespace == "System" && row.Name == "Enum"), false, nil
	}
	return false, false, nil
}

// typeRef resolves a TypeRef token through its resolution scope.
func (m *Module) typeRef(tok metadata.Token) (*Type, error) {
	cell := m.refs.GetOrCreate(tok, func() *lazy.Cell[*Type] { return new(lazy.Cell[*Type]) })
	return cell.Get(func() (*Type, error) {
		return m.resolveTypeRef(tok, 0)
	})
}

func (m *Module) resolveTypeRef(tok metadata.Token, depth int) (*Type, error) {
	row, err := m.reader.TypeRef(tok)
	if err != nil {
		return nil, err
	}
	scope := row.ResolutionScope

	switch {
	case scope.IsNil():
		return m.asm.findType(row.Namespace, row.Name, 0)
	case scope.Is(metadata.TableModule):
		t, ok, err := m.topLevelType(row.Namespace, row.Name)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, errors.NotFound(errors.PhaseResolve, "type", joinTypeName(row.Namespace, row.Name))
		}
		return t, nil
	case scope.Is(metadata.TableModuleRef):
		ref, err := m.reader.ModuleRef(scope)
		if err != nil {
			return nil, err
		}
		target, err := m.asm.Module(ref.Name)
		if err != nil {
			return nil, err
		}
		t, ok, err := target.topLevelType(row.Namespace, row.Name)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, errors.NotFound(errors.PhaseResolve, "type", joinTypeName(row.Namespace, row.Name))
		}
		return t, nil
	case scope.Is(metadata.TableAssemblyRef):
		target, err := m.resolveAssemblyRef(scope)
		if err != nil {
			return nil, err
		}
		return target.findType(row.Namespace, row.Name, 0)
	case scope.Is(metadata.TableTypeRef):
		if depth >= maxNesting {
			return nil, errors.Malformed(errors.PhaseDecode, []string{"TypeRef", row.Name}, "nesting too deep")
		}
		outer, err := m.resolveTypeRef(scope, depth+1)
		if err != nil {
			return nil, err
		}
		return outer.nestedByName(row.Name)
	default:
		return nil, errors.Malformed(errors.PhaseDecode, []string{"TypeRef", row.Name}, "invalid resolution scope "+scope.String())
	}
}

// resolveAssemblyRef binds an AssemblyRef row through the load context.
func (m *Module) resolveAssemblyRef(tok metadata.Token) (*Assembly, error) {
	if !tok.Is(metadata.TableAssemblyRef) {
		return nil, errors.Malformed(errors.PhaseResolve, []string{"AssemblyRef"}, "invalid AssemblyRef token "+tok.String())
	}
	cell := m.asmRefs.GetOrCreate(tok, func() *lazy.Cell[*Assembly] { return new(lazy.Cell[*Assembly]) })
	return cell.Get(func() (*Assembly, error) {
		row, err := m.reader.AssemblyRef(tok)
		if err != nil {
			return nil, err
		}
		return m.lc().Resolve(nameFromRef(row))
	})
}

// ResolveType resolves a TypeDef, TypeRef or TypeSpec token. ctx supplies
// generic arguments for TypeSpec signatures.
func (m *Module) ResolveType(tok metadata.Token, ctx GenericContext) (*Type, error) {
	if err := m.lc().check(); err != nil {
		return nil, err
	}
	return m.resolveToken(tok, ctx)
}

// ResolveMethod resolves a Method or MemberRef token.
func (m *Module) ResolveMethod(tok metadata.Token, ctx GenericContext) (*Method, error) {
	if err := m.lc().check(); err != nil {
		return nil, err
	}
	switch tok.Table() {
	case metadata.TableMethod:
		row, err := m.reader.Method(tok)
		if err != nil {
			return nil, err
		}
		parent, err := m.typeDef(row.Parent)
		if err != nil {
			return nil, err
		}
		methods, err := parent.declaredMethods()
		if err != nil {
			return nil, err
		}
		for _, meth := range methods {
			if meth.core.token == tok {
				return meth, nil
			}
		}
		return nil, errors.NotFound(errors.PhaseDecode, "method", tok.String())
	case metadata.TableMemberRef:
		return m.resolveMethodRef(tok, ctx)
	default:
		return nil, errors.Malformed(errors.PhaseDecode, []string{"Method"}, "not a method token: "+tok.String())
	}
}

func (m *Module) resolveMethodRef(tok metadata.Token, ctx GenericContext) (*Method, error) {
	row, err := m.reader.MemberRef(tok)
	if err != nil {
		return nil, err
	}
	if row.Method == nil {
		return nil, errors.Malformed(errors.PhaseDecode, []string{"MemberRef", row.Name}, "member reference is not a method")
	}
	if !row.Parent.Is(metadata.TableTypeDef) && !row.Parent.Is(metadata.TableTypeRef) && !row.Parent.Is(metadata.TableTypeSpec) {
		return nil, errors.Unsupported(errors.PhaseDecode, "method reference parent "+row.Parent.String())
	}
	parent, err := m.resolveToken(row.Parent, ctx)
	if err != nil {
		return nil, err
	}
	methods, err := parent.declaredMethods()
	if err != nil {
		return nil, err
	}

	sig := row.Method
	for _, cand := range methods {
		if cand.Name() != row.Name {
			continue
		}
		ok, err := m.methodRefMatches(sig, parent, cand)
		if err != nil {
			return nil, err
		}
		if ok {
			return cand, nil
		}
	}
	return nil, errors.MemberNotFound(parent.String(), row.Name)
}

// methodRefMatches compares a reference signature against a candidate
// method, resolving both against the candidate's generic context.
func (m *Module) methodRefMatches(sig *metadata.MethodSig, parent *Type, cand *Method) (bool, error) {
	csig := cand.core.signature()
	if len(csig.Params) != len(sig.Params) || csig.GenericParamCount != sig.GenericParamCount ||
		csig.HasThis() != sig.HasThis() {
		return false, nil
	}
	ctx, err := cand.context()
	if err != nil {
		return false, err
	}
	refCtx := GenericContext{MethodArgs: ctx.MethodArgs}
	if parent.kind == KindGenericInstance {
		refCtx.TypeArgs = parent.args
	} else {
		refCtx.TypeArgs = ctx.TypeArgs
	}

	want, err := m.resolveSig(sig.Return.Type, refCtx)
	if err != nil {
		return false, err
	}
	got, err := cand.ReturnType()
	if err != nil {
		return false, err
	}
	if want != got {
		return false, nil
	}
	params, err := cand.Parameters()
	if err != nil {
		return false, err
	}
	for i, p := range sig.Params {
		want, err := m.resolveSig(p.Type, refCtx)
		if err != nil {
			return false, err
		}
		got, err := params[i].ParameterType()
		if err != nil {
			return false, err
		}
		if want != got {
			return false, nil
		}
	}
	return true, nil
}

// ResolveField resolves a Field or MemberRef token.
func (m *Module) ResolveField(tok metadata.Token, ctx GenericContext) (*Field, error) {
	if err := m.lc().check(); err != nil {
		return nil, err
	}
	var (
		parent *Type
		name   string
		err    error
	)
	switch tok.Table() {
	case metadata.TableField:
		row, rerr := m.reader.Field(tok)
		if rerr != nil {
			return nil, rerr
		}
		parent, err = m.typeDef(row.Parent)
		name = row.Name
	case metadata.TableMemberRef:
		row, rerr := m.reader.MemberRef(tok)
		if rerr != nil {
			return nil, rerr
		}
		if row.Field == nil {
			return nil, errors.Malformed(errors.PhaseDecode, []string{"MemberRef", row.Name}, "member reference is not a field")
		}
		parent, err = m.resolveToken(row.Parent, ctx)
		name = row.Name
	default:
		return nil, errors.Malformed(errors.PhaseDecode, []string{"Field"}, "not a field token: "+tok.String())
	}
	if err != nil {
		return nil, err
	}

	fields, err := parent.declaredFields()
	if err != nil {
		return nil, err
	}
	for _, f := range fields {
		if tok.Is(metadata.TableField) && f.core.token == tok {
			return f, nil
		}
		if tok.Is(metadata.TableMemberRef) && f.Name() == name {
			return f, nil
		}
	}
	return nil, errors.MemberNotFound(parent.String(), name)
}

// decodedAttributes wraps CustomAttribute rows without decoding them.
func (m *Module) decodedAttributes(toks []metadata.Token) []*CustomAttribute {
	out := make([]*CustomAttribute, 0, len(toks))
	for _, tok := range toks {
		out = append(out, &CustomAttribute{module: m, token: tok})
	}
	return out
}
