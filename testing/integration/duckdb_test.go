package integration

import (
	"database/sql"
	"testing"

	_ "github.com/marcboeker/go-duckdb"

	"github.com/zoobzio/relq"
)

// openDuckDB returns a seeded in-memory DuckDB database.
func openDuckDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("duckdb", "")
	if err != nil {
		t.Fatalf("Failed to open DuckDB: %v", err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })

	execAll(t, db, schemaDDL("BOOLEAN")...)
	execAll(t, db, seedDML("TRUE", "FALSE")...)
	return db
}

func TestDuckDB_Scenarios(t *testing.T) {
	runSQLScenarios(t, openDuckDB(t), relq.DuckDB)
}

func TestDuckDB_Qualify(t *testing.T) {
	db := openDuckDB(t)

	q := relq.From("employees").
		Select(
			relq.AsColumn(relq.Col("name")),
			relq.As(relq.Win("RANK", relq.Over(
				relq.PartitionBy(relq.Col("department_id")),
				relq.OrderKeys(relq.Desc(relq.Col("salary"))),
				nil,
			)), "rk"),
		).
		Qualify(relq.Eq(relq.Col("rk"), relq.Lit(1))).
		OrderBy(relq.Col("name")).
		MustBuild()

	query, err := relq.Render(q, relq.DuckDB)
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	rows, err := db.Query(query)
	if err != nil {
		t.Fatalf("Query failed: %v\nSQL:\n%s", err, query)
	}
	checkRows(t, scenario{want: [][]string{{"alice", "1"}, {"carol", "1"}}}, query, collectSQLRows(t, rows))
}
