package reflection

import (
	"bytes"
	"testing"

	"github.com/wippyai/metareflect/errors"
	"github.com/wippyai/metareflect/metadata"
)

func TestMethod_Body(t *testing.T) {
	u := newUniverse(t)
	base := u.typ(t, "Sample.Base")

	run, err := base.Method("Run", Public|Instance|DeclaredOnly)
	if err != nil {
		t.Fatal(err)
	}
	body, err := run.Body()
	if err != nil {
		t.Fatal(err)
	}
	if body == nil {
		t.Fatal("Run has a body")
	}
	if !bytes.Equal(body.IL, []byte{0x00, 0x2A}) || body.MaxStack != 2 || !body.InitLocals {
		t.Errorf("body = %+v", body)
	}

	if len(body.Locals) != 2 {
		t.Fatalf("locals = %+v", body.Locals)
	}
	if l := body.Locals[0]; l.Type != u.typ(t, "System.Int32") || l.Index != 0 || l.Pinned {
		t.Errorf("local 0 = %+v", l)
	}
	if l := body.Locals[1]; l.Type != u.typ(t, "System.String") || l.Index != 1 || !l.Pinned {
		t.Errorf("local 1 = %+v", l)
	}

	if len(body.ExceptionClauses) != 1 {
		t.Fatalf("clauses = %+v", body.ExceptionClauses)
	}
	want := ExceptionClause{
		CatchType:     u.typ(t, "System.Exception"),
		Flags:         metadata.ClauseException,
		TryOffset:     0,
		TryLength:     1,
		HandlerOffset: 1,
		HandlerLength: 1,
	}
	if got := body.ExceptionClauses[0]; got != want {
		t.Errorf("clause = %+v, want %+v", got, want)
	}

	again, err := run.Body()
	if err != nil || again != body {
		t.Error("Body should be materialized once")
	}
}

func TestMethod_BodyAbsent(t *testing.T) {
	u := newUniverse(t)

	hidden, err := u.typ(t, "Sample.Base").Method("Hidden", Public|Instance|DeclaredOnly)
	if err != nil {
		t.Fatal(err)
	}
	if body, err := hidden.Body(); err != nil || body != nil {
		t.Errorf("Hidden body = %+v, %v", body, err)
	}

	arr, err := u.typ(t, "System.Int32").MakeArrayType(2)
	if err != nil {
		t.Fatal(err)
	}
	get, err := arr.Method("Get", Public|Instance)
	if err != nil {
		t.Fatal(err)
	}
	if body, err := get.Body(); err != nil || body != nil {
		t.Errorf("array accessor body = %+v, %v", body, err)
	}
}

func TestMethod_BodySpecialized(t *testing.T) {
	u := newUniverse(t)
	i4 := u.typ(t, "System.Int32")
	box := u.typ(t, "Sample.Box`1")

	get, err := box.Method("Get", Public|Instance)
	if err != nil {
		t.Fatal(err)
	}
	body, err := get.Body()
	if err != nil {
		t.Fatal(err)
	}
	params, err := box.GenericArguments()
	if err != nil {
		t.Fatal(err)
	}
	if len(body.Locals) != 1 || body.Locals[0].Type != params[0] {
		t.Errorf("definition locals = %+v", body.Locals)
	}
	if body.InitLocals || body.MaxStack != 1 || len(body.ExceptionClauses) != 0 {
		t.Errorf("definition body = %+v", body)
	}

	get, err = u.inst(t, "Sample.Box`1", i4).Method("Get", Public|Instance)
	if err != nil {
		t.Fatal(err)
	}
	body, err = get.Body()
	if err != nil {
		t.Fatal(err)
	}
	if len(body.Locals) != 1 || body.Locals[0].Type != i4 {
		t.Errorf("instance locals = %+v", body.Locals)
	}
	if !bytes.Equal(body.IL, []byte{0x02, 0x7B, 0x2A}) {
		t.Errorf("IL = % x", body.IL)
	}
}

func TestMethod_BodyDisposed(t *testing.T) {
	u := newUniverse(t)
	run, err := u.typ(t, "Sample.Base").Method("Run", Public|Instance|DeclaredOnly)
	if err != nil {
		t.Fatal(err)
	}
	_ = u.lc.Close()

	_, err = run.Body()
	wantKind(t, err, errors.KindDisposed)
}
