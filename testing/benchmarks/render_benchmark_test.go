// Package benchmarks provides performance benchmarks for relq.
package benchmarks

import (
	"testing"

	"github.com/zoobzio/dbml"

	"github.com/zoobzio/relq"
	"github.com/zoobzio/relq/postgres"
)

func createBenchmarkSchema(b *testing.B) *relq.Schema {
	b.Helper()

	project := dbml.NewProject("bench")

	users := dbml.NewTable("users")
	users.AddColumn(dbml.NewColumn("id", "bigint"))
	users.AddColumn(dbml.NewColumn("username", "varchar"))
	users.AddColumn(dbml.NewColumn("email", "varchar"))
	users.AddColumn(dbml.NewColumn("age", "int"))
	users.AddColumn(dbml.NewColumn("active", "boolean"))
	users.AddColumn(dbml.NewColumn("created_at", "timestamp"))
	project.AddTable(users)

	orders := dbml.NewTable("orders")
	orders.AddColumn(dbml.NewColumn("id", "bigint"))
	orders.AddColumn(dbml.NewColumn("user_id", "bigint"))
	orders.AddColumn(dbml.NewColumn("total", "numeric"))
	orders.AddColumn(dbml.NewColumn("status", "varchar"))
	project.AddTable(orders)

	schema, err := relq.NewSchema(project)
	if err != nil {
		b.Fatalf("Failed to create schema: %v", err)
	}
	return schema
}

func simpleQuery() *relq.Query {
	return relq.From("users").
		Select(relq.AsColumn(relq.Col("id")), relq.AsColumn(relq.Col("username"))).
		Filter(relq.Eq(relq.Col("active"), relq.Lit(true))).
		MustBuild()
}

func complexQuery(s *relq.Schema) *relq.Query {
	return relq.FromSource(s.T("users", "u")).
		InnerJoin(s.T("orders", "o"), relq.Eq(s.C("orders", "user_id", "o"), s.C("users", "id", "u"))).
		Select(
			relq.As(s.C("users", "username", "u"), "username"),
			relq.As(relq.Agg("SUM", s.C("orders", "total", "o")), "spent"),
			relq.As(relq.CountAll(), "order_count"),
		).
		Filter(relq.And(
			relq.Eq(s.C("orders", "status", "o"), relq.Lit("completed")),
			relq.Gt(s.C("users", "age", "u"), relq.Lit(18)),
		)).
		GroupBy(s.C("users", "username", "u")).
		Having(relq.Gt(relq.Agg("SUM", s.C("orders", "total", "o")), relq.Lit(100))).
		OrderByDesc(relq.Col("spent")).
		Limit(10).
		MustBuild()
}

// BenchmarkSimpleSelect measures a small projection with one filter.
func BenchmarkSimpleSelect(b *testing.B) {
	q := simpleQuery()
	r := postgres.New()

	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		if _, err := r.Render(q); err != nil {
			b.Fatal(err)
		}
	}
}

// BenchmarkBuild measures builder overhead including validation and cloning.
func BenchmarkBuild(b *testing.B) {
	schema := createBenchmarkSchema(b)

	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		_ = complexQuery(schema)
	}
}

// BenchmarkSchemaValidate measures column resolution against the schema.
func BenchmarkSchemaValidate(b *testing.B) {
	schema := createBenchmarkSchema(b)
	q := complexQuery(schema)

	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		if err := schema.Validate(q); err != nil {
			b.Fatal(err)
		}
	}
}

// BenchmarkRenderDialects renders the same grouped join in every dialect.
func BenchmarkRenderDialects(b *testing.B) {
	q := complexQuery(createBenchmarkSchema(b))
	gens := relq.DefaultGenerators()

	for _, d := range gens.Dialects() {
		r, err := gens.Lookup(d)
		if err != nil {
			b.Fatal(err)
		}
		b.Run(string(d), func(b *testing.B) {
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				if _, err := r.Render(q); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}

// BenchmarkDeepExpression measures rendering of a long AND chain.
func BenchmarkDeepExpression(b *testing.B) {
	conds := make([]relq.Expression, 0, 20)
	for i := 0; i < 20; i++ {
		conds = append(conds, relq.Ne(relq.Col("age"), relq.Lit(i)))
	}
	q := relq.From("users").Filter(relq.And(conds...)).MustBuild()
	r := postgres.New()

	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		if _, err := r.Render(q); err != nil {
			b.Fatal(err)
		}
	}
}

// BenchmarkParallelRender measures concurrent rendering through the shared generators.
func BenchmarkParallelRender(b *testing.B) {
	q := simpleQuery()

	b.ReportAllocs()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			if _, err := relq.Render(q, relq.DuckDB); err != nil {
				b.Fatal(err)
			}
		}
	})
}
