package reflection

import (
	"github.com/wippyai/metareflect/internal/lazy"
	"github.com/wippyai/metareflect/metadata"
)

// Event describes an event as seen from its reflected type.
type Event struct {
	core      *eventCore
	reflected *Type
}

type eventCore struct {
	module    *Module
	declaring *Type
	row       *metadata.EventRow
	token     metadata.Token

	handler lazy.Cell[*Type]
	attrs   lazy.Cell[[]*CustomAttribute]
}

func (t *Type) declaredEvents() ([]*Event, error) {
	if err := t.module.lc().check(); err != nil {
		return nil, err
	}
	return t.events.Get(func() ([]*Event, error) {
		if !t.isNominal() {
			return nil, nil
		}
		def := t.definition()
		out := make([]*Event, 0, len(def.row.Events))
		for _, tok := range def.row.Events {
			row, err := def.module.reader.Event(tok)
			if err != nil {
				return nil, err
			}
			core := &eventCore{module: def.module, declaring: t, row: &row, token: tok}
			out = append(out, &Event{core: core, reflected: t})
		}
		return out, nil
	})
}

func (e *Event) reflectedAs(rt *Type) *Event {
	if e.reflected == rt {
		return e
	}
	return &Event{core: e.core, reflected: rt}
}

// Name returns the event name.
func (e *Event) Name() string { return e.core.row.Name }

// MemberKind returns MemberEvent.
func (e *Event) MemberKind() MemberKind { return MemberEvent }

// DeclaringType returns the type that declares the event.
func (e *Event) DeclaringType() *Type { return e.core.declaring }

// ReflectedType returns the type the event was obtained from.
func (e *Event) ReflectedType() *Type { return e.reflected }

// Module returns the module that defines the event.
func (e *Event) Module() *Module { return e.core.module }

// Token returns the Event token.
func (e *Event) Token() metadata.Token { return e.core.token }

// Attributes returns the event flags.
func (e *Event) Attributes() metadata.EventAttributes { return e.core.row.Flags }

// EventHandlerType returns the specialized delegate type of the event.
func (e *Event) EventHandlerType() (*Type, error) {
	if err := e.core.module.lc().check(); err != nil {
		return nil, err
	}
	c := e.core
	return c.handler.Get(func() (*Type, error) {
		args, err := c.declaring.GenericArguments()
		if err != nil {
			return nil, err
		}
		return c.module.resolveToken(c.row.EventType, GenericContext{TypeArgs: args})
	})
}

// AddMethod returns the add accessor.
func (e *Event) AddMethod() (*Method, error) {
	return e.core.declaring.accessor(e.core.row.Add, e.reflected)
}

// RemoveMethod returns the remove accessor.
func (e *Event) RemoveMethod() (*Method, error) {
	return e.core.declaring.accessor(e.core.row.Remove, e.reflected)
}

// RaiseMethod returns the raise accessor, or nil.
func (e *Event) RaiseMethod() (*Method, error) {
	return e.core.declaring.accessor(e.core.row.Raise, e.reflected)
}

// CustomAttributes returns the decoded attributes of the event.
func (e *Event) CustomAttributes() ([]*CustomAttribute, error) {
	if err := e.core.module.lc().check(); err != nil {
		return nil, err
	}
	c := e.core
	return c.attrs.Get(func() ([]*CustomAttribute, error) {
		return c.module.decodedAttributes(c.row.CustomAttributes), nil
	})
}

func (e *Event) String() string {
	if t, err := e.EventHandlerType(); err == nil {
		return t.String() + " " + e.Name()
	}
	return "? " + e.Name()
}
