package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
)

// Phase indicates where in processing the error occurred
type Phase string

const (
	PhaseResolve    Phase = "resolve"    // assembly binding
	PhaseLoad       Phase = "load"       // module loading
	PhaseDecode     Phase = "decode"     // metadata rows and signatures
	PhaseSpecialize Phase = "specialize" // generic substitution
	PhaseQuery      Phase = "query"      // member and type lookups
	PhaseAttribute  Phase = "attribute"  // custom attribute materialization
	PhaseLifecycle  Phase = "lifecycle"  // context disposal
	PhaseProject    Phase = "project"    // WIT projection
)

// Kind categorizes the error
type Kind string

const (
	KindNotFound         Kind = "not_found"
	KindAmbiguousMatch   Kind = "ambiguous_match"
	KindIdentityConflict Kind = "identity_conflict"
	KindDisposed         Kind = "disposed"
	KindMalformedInput   Kind = "malformed_input"
	KindInvalidInput     Kind = "invalid_input"
	KindForeignAssembly  Kind = "foreign_assembly"
	KindOutOfBounds      Kind = "out_of_bounds"
	KindUnsupported      Kind = "unsupported"
)

// Error is the structured error type used throughout the library
type Error struct {
	Value      any
	Cause      error
	Phase      Phase
	Kind       Kind
	TypeName   string
	MemberName string
	Detail     string
	Path       []string
}

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder

	b.WriteByte('[')
	b.WriteString(string(e.Phase))
	b.WriteString("] ")
	b.WriteString(string(e.Kind))

	if len(e.Path) > 0 {
		b.WriteString(" at ")
		b.WriteString(strings.Join(e.Path, "."))
	}

	if e.TypeName != "" || e.MemberName != "" {
		b.WriteString(": ")
		if e.TypeName != "" && e.MemberName != "" {
			b.WriteString("member ")
			b.WriteString(e.TypeName)
			b.WriteString("::")
			b.WriteString(e.MemberName)
		} else if e.TypeName != "" {
			b.WriteString("type ")
			b.WriteString(e.TypeName)
		} else {
			b.WriteString("member ")
			b.WriteString(e.MemberName)
		}
	}

	if e.Detail != "" {
		if e.TypeName != "" || e.MemberName != "" {
			b.WriteString(" - ")
		} else {
			b.WriteString(": ")
		}
		b.WriteString(e.Detail)
	}

	if e.Cause != nil {
		b.WriteString(" (caused by: ")
		b.WriteString(e.Cause.Error())
		b.WriteByte(')')
	}

	return b.String()
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Phase == t.Phase && e.Kind == t.Kind
	}
	return false
}

// IsKind reports whether any *Error in err's chain has the given kind.
func IsKind(err error, kind Kind) bool {
	var e *Error
	for err != nil {
		if !stderrors.As(err, &e) {
			return false
		}
		if e.Kind == kind {
			return true
		}
		err = e.Cause
	}
	return false
}

// Permanent reports whether err describes a deterministic outcome that may
// be memoized. Failures from resolvers and lifecycle errors are transient.
func Permanent(err error) bool {
	var e *Error
	if !stderrors.As(err, &e) {
		return false
	}
	switch e.Kind {
	case KindNotFound, KindMalformedInput, KindInvalidInput, KindIdentityConflict, KindOutOfBounds, KindUnsupported:
		return e.Cause == nil || Permanent(e.Cause)
	}
	return false
}

// Builder provides structured error construction
type Builder struct {
	err Error
}

// New creates a new error builder
func New(phase Phase, kind Kind) *Builder {
	return &Builder{
		err: Error{
			Phase: phase,
			Kind:  kind,
		},
	}
}

// Path sets the metadata path
func (b *Builder) Path(path ...string) *Builder {
	b.err.Path = path
	return b
}

// Type sets the type name
func (b *Builder) Type(name string) *Builder {
	b.err.TypeName = name
	return b
}

// Member sets the member name
func (b *Builder) Member(name string) *Builder {
	b.err.MemberName = name
	return b
}

// Value sets the offending value
func (b *Builder) Value(v any) *Builder {
	b.err.Value = v
	return b
}

// Cause sets the underlying error
func (b *Builder) Cause(err error) *Builder {
	b.err.Cause = err
	return b
}

// Detail sets the human-readable detail message
func (b *Builder) Detail(msg string, args ...any) *Builder {
	if len(args) > 0 {
		b.err.Detail = fmt.Sprintf(msg, args...)
	} else {
		b.err.Detail = msg
	}
	return b
}

// Build returns the constructed error
func (b *Builder) Build() *Error {
	return &b.err
}

// Convenience constructors for common error patterns

// NotFound creates a not-found error for an assembly, module, type or member
func NotFound(phase Phase, what, name string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindNotFound,
		Detail: fmt.Sprintf("%s %q not found", what, name),
		Value:  name,
	}
}

// MemberNotFound creates a not-found error for a named member of a type
func MemberNotFound(typeName, memberName string) *Error {
	return &Error{
		Phase:      PhaseQuery,
		Kind:       KindNotFound,
		TypeName:   typeName,
		MemberName: memberName,
		Detail:     "no matching member",
	}
}

// AmbiguousMatch creates an ambiguous match error for a single-result query
func AmbiguousMatch(typeName, memberName string, candidates int) *Error {
	return &Error{
		Phase:      PhaseQuery,
		Kind:       KindAmbiguousMatch,
		TypeName:   typeName,
		MemberName: memberName,
		Detail:     fmt.Sprintf("%d candidates match", candidates),
		Value:      candidates,
	}
}

// IdentityConflict creates an error for two binaries claiming one identity
func IdentityConflict(identity, existing, incoming string) *Error {
	return &Error{
		Phase:  PhaseLoad,
		Kind:   KindIdentityConflict,
		Detail: fmt.Sprintf("%s already loaded with mvid %s, refusing mvid %s", identity, existing, incoming),
		Value:  identity,
	}
}

// Disposed creates a lifecycle error for use after disposal
func Disposed(what string) *Error {
	return &Error{
		Phase:  PhaseLifecycle,
		Kind:   KindDisposed,
		Detail: what + " used after disposal",
	}
}

// Malformed creates a malformed-input error
func Malformed(phase Phase, path []string, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindMalformedInput,
		Path:   path,
		Detail: detail,
	}
}

// InvalidInput creates an invalid input error for caller misuse
func InvalidInput(phase Phase, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidInput,
		Detail: detail,
	}
}

// ForeignAssembly creates an error for a resolver result owned by another context
func ForeignAssembly(name string) *Error {
	return &Error{
		Phase:  PhaseResolve,
		Kind:   KindForeignAssembly,
		Detail: fmt.Sprintf("resolver returned %s from a different load context", name),
		Value:  name,
	}
}

// OutOfBounds creates an out of bounds error
func OutOfBounds(phase Phase, path []string, index, length int) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindOutOfBounds,
		Path:   path,
		Detail: fmt.Sprintf("index %d out of bounds (length %d)", index, length),
		Value:  index,
	}
}

// Unsupported creates an unsupported operation error
func Unsupported(phase Phase, what string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindUnsupported,
		Detail: what,
	}
}

// Wrap wraps an existing error with additional context
func Wrap(phase Phase, kind Kind, cause error, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   kind,
		Detail: detail,
		Cause:  cause,
	}
}

// Load creates a module loading error
func Load(detail string, cause error) *Error {
	return &Error{
		Phase:  PhaseLoad,
		Kind:   KindMalformedInput,
		Detail: detail,
		Cause:  cause,
	}
}
