package integration

import (
	"context"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/testcontainers/testcontainers-go/modules/postgres"

	"github.com/zoobzio/relq"
)

// PostgresContainer wraps a testcontainers PostgreSQL instance.
type PostgresContainer struct {
	container *postgres.PostgresContainer
	conn      *pgx.Conn
}

// Exec executes a SQL statement.
func (pc *PostgresContainer) Exec(ctx context.Context, t *testing.T, sql string) {
	t.Helper()
	if _, err := pc.conn.Exec(ctx, sql); err != nil {
		t.Fatalf("Failed to execute SQL: %v\nSQL: %s", err, sql)
	}
}

// Rows runs query and returns its rows as normalized strings.
func (pc *PostgresContainer) Rows(ctx context.Context, t *testing.T, query string) [][]string {
	t.Helper()

	rows, err := pc.conn.Query(ctx, query)
	if err != nil {
		t.Fatalf("Query failed: %v\nSQL:\n%s", err, query)
	}
	defer rows.Close()

	var out [][]string
	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			t.Fatalf("Values failed: %v", err)
		}
		row := make([]string, len(values))
		for i, v := range values {
			row[i] = normalize(v)
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		t.Fatalf("Rows failed: %v\nSQL:\n%s", err, query)
	}
	return out
}

func setupPostgres(ctx context.Context, t *testing.T) *PostgresContainer {
	t.Helper()
	skipShort(t)

	pc := getPostgresContainer(t)
	pc.Exec(ctx, t, "DROP TABLE IF EXISTS employees, departments, contractors")
	for _, stmt := range schemaDDL("BOOLEAN") {
		pc.Exec(ctx, t, stmt)
	}
	for _, stmt := range seedDML("TRUE", "FALSE") {
		pc.Exec(ctx, t, stmt)
	}
	return pc
}

func TestPostgres_Scenarios(t *testing.T) {
	ctx := context.Background()
	pc := setupPostgres(ctx, t)

	for _, sc := range scenarios() {
		t.Run(sc.name, func(t *testing.T) {
			query := renderScenario(t, sc, relq.Postgres)
			checkRows(t, sc, query, pc.Rows(ctx, t, query))
		})
	}
}

func TestPostgres_DistinctAggregate(t *testing.T) {
	ctx := context.Background()
	pc := setupPostgres(ctx, t)

	q := relq.From("employees").
		Select(relq.As(relq.AggDistinct("COUNT", relq.Col("department_id")), "departments")).
		MustBuild()

	query, err := relq.Render(q, relq.Postgres)
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	checkRows(t, scenario{want: [][]string{{"2"}}}, query, pc.Rows(ctx, t, query))
}

func TestPostgres_QualifyRejected(t *testing.T) {
	q := relq.From("employees").
		Select(relq.As(relq.Win("ROW_NUMBER", relq.Over(nil, relq.OrderKeys(relq.Desc(relq.Col("salary"))), nil)), "rn")).
		Qualify(relq.Le(relq.Col("rn"), relq.Lit(1))).
		MustBuild()

	if _, err := relq.Render(q, relq.Postgres); err == nil {
		t.Fatal("expected QUALIFY to be rejected for postgres")
	}
}
