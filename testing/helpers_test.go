package testing

import (
	"errors"
	"testing"

	"github.com/zoobzio/relq"
)

func TestTestSchema(t *testing.T) {
	schema := TestSchema(t)
	for _, table := range []string{"employees", "departments", "contractors", "salaries"} {
		if !schema.HasTable(table) {
			t.Errorf("Expected table %s in test schema", table)
		}
	}
	if !schema.HasColumn("employees", "salary") {
		t.Error("Expected employees.salary in test schema")
	}
}

func TestAssertSQL_Match(t *testing.T) {
	AssertSQL(t, "SELECT *\nFROM employees", "SELECT *\nFROM employees")
}

func TestAssertErrorIs_Wrapped(t *testing.T) {
	err := relq.MissingSourceError{Clause: "filter"}
	AssertErrorIs(t, err, relq.ErrMissingSource)
	AssertErrorIs(t, errors.Join(errors.New("outer"), err), relq.ErrMissingSource)
}

func TestAssertUnsupported(t *testing.T) {
	_, err := relq.From("employees").
		Select(relq.As(relq.Col("name"), "name")).
		Qualify(relq.Gt(relq.Col("name"), relq.Lit("a"))).
		Render(relq.Postgres)
	AssertUnsupported(t, err, relq.Postgres, "QUALIFY")
}

func TestAssertPanics_Message(t *testing.T) {
	msg := AssertPanics(t, func() { panic("boom") })
	if msg != "boom" {
		t.Errorf("msg = %q, want %q", msg, "boom")
	}
}

func TestAssertPanics_Func(t *testing.T) {
	msg := AssertPanics(t, func() { relq.Func("NO_SUCH_FUNCTION") })
	if msg == "" {
		t.Error("Expected a panic message")
	}
}
