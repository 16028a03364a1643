package reflection

import (
	"github.com/wippyai/metareflect/metadata"
)

// MethodBody is the IL of a method with its local variable and exception
// handling tables. The IL is not interpreted.
type MethodBody struct {
	IL               []byte
	Locals           []LocalVariable
	ExceptionClauses []ExceptionClause
	MaxStack         int
	InitLocals       bool
}

// LocalVariable is one entry of the local variable signature.
type LocalVariable struct {
	Type   *Type
	Index  int
	Pinned bool
}

// ExceptionClause is one protected region with its handler. CatchType is
// set for typed catch clauses only.
type ExceptionClause struct {
	CatchType     *Type
	Flags         metadata.ExceptionClauseFlags
	TryOffset     int
	TryLength     int
	HandlerOffset int
	HandlerLength int
	FilterOffset  int
}

// Body returns the method body, or nil for methods without IL. Local and
// catch types are specialized in the method's generic context.
func (m *Method) Body() (*MethodBody, error) {
	c := m.core
	if err := c.module.lc().check(); err != nil {
		return nil, err
	}
	if c.row == nil || !c.row.HasBody {
		return nil, nil
	}
	return c.body.Get(func() (*MethodBody, error) {
		raw, ok, err := c.module.reader.MethodBody(c.token)
		if err != nil || !ok {
			return nil, err
		}
		ctx, err := c.context()
		if err != nil {
			return nil, err
		}

		body := &MethodBody{
			IL:         raw.Code,
			MaxStack:   int(raw.MaxStack),
			InitLocals: raw.InitLocals,
			Locals:     make([]LocalVariable, len(raw.Locals)),
		}
		for i, l := range raw.Locals {
			t, err := c.module.resolveSig(l.Type, ctx)
			if err != nil {
				return nil, err
			}
			body.Locals[i] = LocalVariable{Type: t, Index: i, Pinned: l.Pinned}
		}
		for _, ec := range raw.ExceptionClauses {
			clause := ExceptionClause{
				Flags:         ec.Flags,
				TryOffset:     int(ec.TryOffset),
				TryLength:     int(ec.TryLength),
				HandlerOffset: int(ec.HandlerOffset),
				HandlerLength: int(ec.HandlerLength),
				FilterOffset:  int(ec.FilterOffset),
			}
			if ec.Flags == metadata.ClauseException && !ec.CatchType.IsNil() {
				if clause.CatchType, err = c.module.resolveToken(ec.CatchType, ctx); err != nil {
					return nil, err
				}
			}
			body.ExceptionClauses = append(body.ExceptionClauses, clause)
		}
		return body, nil
	})
}
