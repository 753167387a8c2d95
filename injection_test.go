package relq_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/zoobzio/relq"
	relqtesting "github.com/zoobzio/relq/testing"
)

var injectionAttempts = []struct {
	name    string
	payload string
}{
	{"DROP TABLE", "year FROM now()) ; DROP TABLE t; --"},
	{"Union injection", "day UNION SELECT * FROM passwords"},
	{"Quote injection", "day' OR '1'='1"},
	{"Comment injection", "day/**/OR/**/1=1"},
	{"Stacked queries", "day; DELETE FROM users"},
	{"Whitespace tricks", "day\nOR\n1=1"},
	{"Function injection", "day) OR SLEEP(10)--"},
}

// TestDatePartInjection checks that a date part never reaches keyword
// position unless it is one of the known units.
func TestDatePartInjection(t *testing.T) {
	gens := relq.DefaultGenerators()

	for _, attempt := range injectionAttempts {
		t.Run(attempt.name, func(t *testing.T) {
			part := relq.Lit(attempt.payload)

			relqtesting.AssertPanics(t, func() { relq.Func("DATE_PART", part, relq.Col("hired")) })
			relqtesting.AssertPanics(t, func() { relq.Func("DATE_ADD", relq.Col("hired"), relq.Lit(1), part) })

			// Calls built by hand skip the builder check and are caught at render time.
			calls := []relq.ScalarCall{
				{Name: "DATE_PART", Args: []relq.Expression{part, relq.Col("hired")}},
				{Name: "DATE_TRUNC", Args: []relq.Expression{part, relq.Col("hired")}},
				{Name: "DATE_DIFF", Args: []relq.Expression{part, relq.Col("a"), relq.Col("b")}},
				{Name: "DATE_SUB", Args: []relq.Expression{relq.Col("hired"), relq.Lit(1), part}},
			}
			for _, d := range gens.Dialects() {
				r, err := gens.Lookup(d)
				if err != nil {
					t.Fatalf("Lookup(%s) error = %v", d, err)
				}
				for _, call := range calls {
					out, err := r.RenderExpression(call)
					if !errors.Is(err, relq.ErrInvalidArgument) {
						t.Errorf("%s %s: expected ErrInvalidArgument, got %q, %v", d, call.Name, out, err)
					}
				}
			}
		})
	}
}

// TestStringLiteralInjection checks that quotes inside string literals are
// doubled in every SQL dialect.
func TestStringLiteralInjection(t *testing.T) {
	e := relq.Eq(relq.Col("name"), relq.Lit("x' OR '1'='1"))
	for _, d := range []relq.Dialect{relq.DuckDB, relq.Postgres, relq.SQLite, relq.MariaDB, relq.MSSQL} {
		out := renderExpr(t, d, e)
		if !strings.Contains(out, "'x'' OR ''1''=''1'") {
			t.Errorf("%s: literal not escaped: %q", d, out)
		}
	}
}
