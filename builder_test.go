package relq_test

import (
	"errors"
	"testing"

	"github.com/zoobzio/relq"
	relqtesting "github.com/zoobzio/relq/testing"
)

func TestFrom(t *testing.T) {
	q, err := relq.From("employees", "e").Build()
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	table, ok := q.Source.(relq.Table)
	if !ok {
		t.Fatalf("Expected Table source, got %T", q.Source)
	}
	if table.Name != "employees" || table.Alias != "e" {
		t.Errorf("Expected employees AS e, got %s AS %s", table.Name, table.Alias)
	}
}

func TestFrom_EmptyName(t *testing.T) {
	if _, err := relq.From("").Build(); err == nil {
		t.Error("Expected error for empty table name")
	}
}

func TestBuilder_AliasQualification(t *testing.T) {
	sql, err := relq.From("employees", "e").
		Select(relq.As(relq.Col("id"), "id"), relq.As(relq.Col("name"), "name")).
		Filter(relq.Gt(relq.Col("salary"), relq.Lit(50000))).
		Render(relq.DuckDB)
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	relqtesting.AssertSQL(t, "SELECT e.id AS id, e.name AS name\nFROM employees AS e\nWHERE e.salary > 50000", sql)
}

func TestBuilder_FilterCombinesWithAnd(t *testing.T) {
	q := relq.From("employees").
		Filter(relq.Gt(relq.Col("salary"), relq.Lit(100))).
		Filter(relq.Eq(relq.Col("active"), relq.Lit(true))).
		MustBuild()

	sql, err := relq.Render(q, relq.Postgres)
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	want := "SELECT *\nFROM employees\nWHERE salary > 100 AND active = TRUE"
	if sql != want {
		t.Errorf("SQL = %q, want %q", sql, want)
	}
}

func TestBuilder_MissingSource(t *testing.T) {
	tests := []struct {
		name  string
		build func() *relq.Builder
	}{
		{"filter", func() *relq.Builder { return relq.NewQuery().Filter(relq.Eq(relq.Col("a"), relq.Lit(1))) }},
		{"group by", func() *relq.Builder { return relq.NewQuery().GroupBy(relq.Col("a")) }},
		{"having", func() *relq.Builder { return relq.NewQuery().Having(relq.Eq(relq.Col("a"), relq.Lit(1))) }},
		{"qualify", func() *relq.Builder { return relq.NewQuery().Qualify(relq.Eq(relq.Col("a"), relq.Lit(1))) }},
		{"order by", func() *relq.Builder { return relq.NewQuery().OrderBy(relq.Col("a")) }},
		{"join", func() *relq.Builder { return relq.NewQuery().CrossJoin(relq.T("b")) }},
		{"window", func() *relq.Builder { return relq.NewQuery().Window("w", relq.Over(nil, nil, nil)) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.build().Build()
			if !errors.Is(err, relq.ErrMissingSource) {
				t.Errorf("Expected ErrMissingSource, got: %v", err)
			}
		})
	}
}

func TestBuilder_SourcelessSelect(t *testing.T) {
	sql, err := relq.NewQuery().
		Select(relq.As(relq.Lit(1), "one")).
		Render(relq.SQLite)
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if sql != "SELECT 1 AS one" {
		t.Errorf("SQL = %q, want %q", sql, "SELECT 1 AS one")
	}
}

func TestBuilder_NegativePagination(t *testing.T) {
	if _, err := relq.From("employees").Limit(-1).Build(); err == nil {
		t.Error("Expected error for negative limit")
	}
	if _, err := relq.From("employees").Offset(-5).Build(); err == nil {
		t.Error("Expected error for negative offset")
	}
}

func TestBuilder_ErrorSticks(t *testing.T) {
	b := relq.From("employees").Limit(-1).Limit(10).Select(relq.AsColumn(relq.Col("id")))
	if b.Err() == nil {
		t.Fatal("Expected the first error to persist")
	}
	if _, err := b.Render(relq.DuckDB); err == nil {
		t.Error("Expected Render to return the builder error")
	}
}

func TestBuilder_JoinValidation(t *testing.T) {
	_, err := relq.From("employees", "e").InnerJoin(relq.T("departments", "d"), nil).Build()
	if !errors.Is(err, relq.ErrInvalidJoin) {
		t.Errorf("Expected ErrInvalidJoin for missing ON, got: %v", err)
	}

	_, err = relq.From("employees", "e").
		Join(relq.CrossJoin, relq.T("departments", "d"), relq.Eq(relq.ColOf("e", "id"), relq.ColOf("d", "id"))).
		Build()
	if !errors.Is(err, relq.ErrInvalidJoin) {
		t.Errorf("Expected ErrInvalidJoin for cross join with ON, got: %v", err)
	}
}

func TestBuilder_Joins(t *testing.T) {
	sql, err := relq.From("employees", "e").
		LeftJoin(relq.T("departments", "d"), relq.Eq(relq.ColOf("e", "department_id"), relq.ColOf("d", "id"))).
		Select(
			relq.As(relq.ColOf("e", "name"), "employee"),
			relq.As(relq.ColOf("d", "department_name"), "department"),
		).
		Render(relq.DuckDB)
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	want := "SELECT e.name AS employee, d.department_name AS department\n" +
		"FROM employees AS e LEFT JOIN departments AS d ON e.department_id = d.id"
	relqtesting.AssertSQL(t, want, sql)
}

func TestBuilder_CrossJoin(t *testing.T) {
	sql, err := relq.From("employees", "e").
		CrossJoin(relq.T("departments", "d")).
		Select(relq.As(relq.ColOf("e", "name"), "name"), relq.As(relq.ColOf("d", "department_name"), "dept")).
		Render(relq.DuckDB)
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	want := "SELECT e.name AS name, d.department_name AS dept\nFROM employees AS e CROSS JOIN departments AS d"
	relqtesting.AssertSQL(t, want, sql)
}

func TestBuilder_JoinQuery(t *testing.T) {
	right := relq.From("departments", "d").Select(relq.As(relq.ColOf("d", "department_name"), "dept"))
	q, err := relq.From("employees", "e").
		Select(relq.As(relq.ColOf("e", "name"), "name")).
		JoinQuery(relq.InnerJoin, right, relq.Eq(relq.ColOf("e", "department_id"), relq.ColOf("d", "id"))).
		Build()
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if len(q.Projection) != 2 {
		t.Fatalf("Expected 2 projected columns, got %d", len(q.Projection))
	}
	if q.Projection[1].Alias != "dept" {
		t.Errorf("Expected joined projection alias dept, got %q", q.Projection[1].Alias)
	}
	if _, ok := q.Source.(relq.Join); !ok {
		t.Errorf("Expected Join source, got %T", q.Source)
	}
}

func TestBuilder_JoinQueryKeepsClauses(t *testing.T) {
	right := relq.From("departments", "d").
		Select(relq.As(relq.ColOf("d", "id"), "id"), relq.As(relq.ColOf("d", "department_name"), "dept")).
		Filter(relq.Eq(relq.ColOf("d", "active"), relq.Lit(true))).
		Limit(1)

	sql, err := relq.From("employees", "e").
		Select(relq.As(relq.ColOf("e", "name"), "name")).
		JoinQuery(relq.InnerJoin, right, relq.Eq(relq.ColOf("e", "department_id"), relq.ColOf("d", "id"))).
		Render(relq.DuckDB)
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	want := "SELECT e.name AS name, d.id AS id, d.dept AS dept\n" +
		"FROM employees AS e INNER JOIN (SELECT d.id AS id, d.department_name AS dept\n" +
		"FROM departments AS d\n" +
		"WHERE d.active = TRUE\n" +
		"LIMIT 1) AS d ON e.department_id = d.id"
	relqtesting.AssertSQL(t, want, sql)
}

func TestBuilder_JoinQueryUnnamedColumn(t *testing.T) {
	right := relq.From("departments", "d").
		SelectExpr(relq.Func("UPPER", relq.ColOf("d", "department_name"))).
		Distinct()

	_, err := relq.From("employees", "e").
		JoinQuery(relq.InnerJoin, right, relq.Eq(relq.ColOf("e", "department_id"), relq.ColOf("d", "id"))).
		Build()
	relqtesting.AssertErrorIs(t, err, relq.ErrInvalidJoin)
}

func TestBuilder_GroupByHaving(t *testing.T) {
	sql, err := relq.From("employees").
		Select(
			relq.As(relq.Col("department"), "department"),
			relq.As(relq.Agg("AVG", relq.Col("salary")), "avg_salary"),
			relq.As(relq.CountAll(), "headcount"),
		).
		GroupBy(relq.Col("department")).
		Having(relq.Gt(relq.Col("avg_salary"), relq.Lit(50000))).
		OrderByDesc(relq.Col("avg_salary")).
		Limit(10).
		Render(relq.DuckDB)
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	want := "SELECT department AS department, AVG(salary) AS avg_salary, COUNT(*) AS headcount\n" +
		"FROM employees\n" +
		"GROUP BY department\n" +
		"HAVING avg_salary > 50000\n" +
		"ORDER BY avg_salary DESC\n" +
		"LIMIT 10"
	relqtesting.AssertSQL(t, want, sql)
}

func TestBuilder_Union(t *testing.T) {
	names := func(table string) *relq.Builder {
		return relq.From(table).Select(relq.AsColumn(relq.Col("name")))
	}

	sql, err := names("employees").Union(names("contractors")).UnionAll(names("interns")).Render(relq.DuckDB)
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	want := "SELECT name\nFROM employees\nUNION\nSELECT name\nFROM contractors\nUNION ALL\nSELECT name\nFROM interns"
	relqtesting.AssertSQL(t, want, sql)
}

func TestBuilder_CTE(t *testing.T) {
	high := relq.From("employees").Filter(relq.Gt(relq.Col("salary"), relq.Lit(70000)))
	sql, err := relq.From("high_earners").
		WithCTE("high_earners", high).
		Select(relq.AsColumn(relq.Col("name"))).
		Render(relq.Postgres)
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	want := "WITH high_earners AS (\nSELECT *\nFROM employees\nWHERE salary > 70000\n)\nSELECT name\nFROM high_earners"
	relqtesting.AssertSQL(t, want, sql)
}

func TestBuilder_RawRecursiveCTE(t *testing.T) {
	b := relq.From("nums").
		WithRawCTE("nums", "SELECT 1 AS n UNION ALL SELECT n + 1 FROM nums WHERE n < 5", true, "n").
		Select(relq.AsColumn(relq.Col("n")))

	sql, err := b.Render(relq.SQLite)
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	want := "WITH RECURSIVE nums(n) AS (\nSELECT 1 AS n UNION ALL SELECT n + 1 FROM nums WHERE n < 5\n)\nSELECT n\nFROM nums"
	relqtesting.AssertSQL(t, want, sql)

	if _, err := b.Render(relq.Pure); err == nil {
		t.Error("Expected pure to reject a recursive CTE")
	}
}

func TestBuilder_FromQuery(t *testing.T) {
	inner := relq.From("employees").Select(relq.AsColumn(relq.Col("name")), relq.AsColumn(relq.Col("salary")))
	sql, err := relq.FromQuery(inner, "s").
		Filter(relq.Gt(relq.Col("salary"), relq.Lit(10))).
		Render(relq.DuckDB)
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	want := "SELECT *\nFROM (SELECT name, salary\nFROM employees) AS s\nWHERE salary > 10"
	relqtesting.AssertSQL(t, want, sql)
}

func TestBuilder_WindowRedefinition(t *testing.T) {
	q := relq.From("employees").
		Window("w", relq.Over(nil, relq.OrderKeys(relq.Asc(relq.Col("hired"))), nil)).
		Window("v", relq.Over(relq.PartitionBy(relq.Col("department")), nil, nil)).
		Window("w", relq.Over(nil, relq.OrderKeys(relq.Desc(relq.Col("salary"))), nil)).
		MustBuild()

	if len(q.Windows) != 2 {
		t.Fatalf("Expected 2 named windows, got %d", len(q.Windows))
	}
	if q.Windows[0].Name != "w" || q.Windows[0].Spec.OrderBy[0].Direction != relq.DESC {
		t.Errorf("Expected w redefined in place, got %+v", q.Windows[0])
	}
}

func TestBuilder_InvalidWindow(t *testing.T) {
	_, err := relq.From("employees").
		Window("w", relq.Over(nil, nil, relq.Rows(relq.Current(), relq.Preceding(1)))).
		Build()
	if !errors.Is(err, relq.ErrInvalidFrame) {
		t.Errorf("Expected ErrInvalidFrame, got: %v", err)
	}
}

func TestBuilder_BuildReturnsCopy(t *testing.T) {
	b := relq.From("employees").Select(relq.AsColumn(relq.Col("id")))
	first := b.MustBuild()
	b.Select(relq.AsColumn(relq.Col("name"))).Limit(5)

	if len(first.Projection) != 1 {
		t.Errorf("Expected earlier build to keep 1 column, got %d", len(first.Projection))
	}
	if first.Limit != nil {
		t.Error("Expected earlier build to have no limit")
	}
}

func TestBuilder_MustBuildPanics(t *testing.T) {
	relqtesting.AssertPanics(t, func() {
		relq.NewQuery().OrderBy(relq.Col("a")).MustBuild()
	})
}

func TestBuilder_UnsupportedDialect(t *testing.T) {
	_, err := relq.From("employees").Render(relq.Dialect("oracle"))
	if !errors.Is(err, relq.ErrUnsupportedDialect) {
		t.Errorf("Expected ErrUnsupportedDialect, got: %v", err)
	}
}
