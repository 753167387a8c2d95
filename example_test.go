package relq_test

import (
	"fmt"

	"github.com/zoobzio/relq"
)

func ExampleFrom() {
	sql, err := relq.From("employees", "e").
		Select(relq.As(relq.Col("id"), "id"), relq.As(relq.Col("name"), "name")).
		Filter(relq.Gt(relq.Col("salary"), relq.Lit(50000))).
		Render(relq.DuckDB)
	if err != nil {
		panic(err)
	}
	fmt.Println(sql)

	// Output:
	// SELECT e.id AS id, e.name AS name
	// FROM employees AS e
	// WHERE e.salary > 50000
}

func ExampleBuilder_Window() {
	q := relq.From("employees").
		Select(
			relq.AsColumn(relq.Col("name")),
			relq.As(relq.NamedWin("SUM", "by_hire", relq.Col("salary")), "running"),
		).
		Window("by_hire", relq.Over(nil,
			relq.OrderKeys(relq.Asc(relq.Col("hired"))),
			relq.Rows(relq.UnboundedPreceding(), relq.Current()),
		)).
		MustBuild()

	for _, d := range []relq.Dialect{relq.Postgres, relq.Pure} {
		out, err := relq.Render(q, d)
		if err != nil {
			panic(err)
		}
		fmt.Println(out)
	}

	// Output:
	// SELECT name, SUM(salary) OVER by_hire AS running
	// FROM employees
	// WINDOW by_hire AS (ORDER BY hired ASC ROWS BETWEEN UNBOUNDED PRECEDING AND CURRENT ROW)
	// $employees->project(~[name:x | $x.name, running:x | $x.salary->sum(over([ascending(~hired)], rows(unbounded(), 0)))])
}

func ExampleBuilder_Union() {
	sql := relq.From("employees").
		Select(relq.AsColumn(relq.Col("name"))).
		UnionAll(relq.From("contractors").Select(relq.AsColumn(relq.Col("name")))).
		MustRender(relq.MSSQL)
	fmt.Println(sql)

	// Output:
	// SELECT name
	// FROM employees
	// UNION ALL
	// SELECT name
	// FROM contractors
}
