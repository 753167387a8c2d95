// Package testing provides test utilities for relq.
package testing

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/zoobzio/dbml"

	"github.com/zoobzio/relq"
)

// TestProject creates the DBML project shared by tests and benchmarks.
// Includes employees, departments, contractors and salaries tables.
func TestProject() *dbml.Project {
	project := dbml.NewProject("test")

	// Employees table
	employees := dbml.NewTable("employees")
	employees.AddColumn(dbml.NewColumn("id", "bigint"))
	employees.AddColumn(dbml.NewColumn("name", "varchar"))
	employees.AddColumn(dbml.NewColumn("department", "varchar"))
	employees.AddColumn(dbml.NewColumn("department_id", "bigint"))
	employees.AddColumn(dbml.NewColumn("manager_id", "bigint"))
	employees.AddColumn(dbml.NewColumn("salary", "numeric"))
	employees.AddColumn(dbml.NewColumn("hired", "date"))
	employees.AddColumn(dbml.NewColumn("active", "boolean"))
	project.AddTable(employees)

	// Departments table
	departments := dbml.NewTable("departments")
	departments.AddColumn(dbml.NewColumn("id", "bigint"))
	departments.AddColumn(dbml.NewColumn("department_name", "varchar"))
	departments.AddColumn(dbml.NewColumn("budget", "numeric"))
	project.AddTable(departments)

	// Contractors table
	contractors := dbml.NewTable("contractors")
	contractors.AddColumn(dbml.NewColumn("id", "bigint"))
	contractors.AddColumn(dbml.NewColumn("name", "varchar"))
	contractors.AddColumn(dbml.NewColumn("rate", "numeric"))
	project.AddTable(contractors)

	// Salaries table
	salaries := dbml.NewTable("salaries")
	salaries.AddColumn(dbml.NewColumn("employee_id", "bigint"))
	salaries.AddColumn(dbml.NewColumn("amount", "numeric"))
	salaries.AddColumn(dbml.NewColumn("paid", "date"))
	project.AddTable(salaries)

	return project
}

// TestSchema creates a Schema over TestProject.
func TestSchema(t testing.TB) *relq.Schema {
	t.Helper()
	schema, err := relq.NewSchema(TestProject())
	if err != nil {
		t.Fatalf("Failed to create test schema: %v", err)
	}
	return schema
}

// AssertSQL compares expected and actual output, reporting a line diff.
func AssertSQL(t testing.TB, expected, actual string) {
	t.Helper()
	if diff := cmp.Diff(strings.Split(expected, "\n"), strings.Split(actual, "\n")); diff != "" {
		t.Errorf("SQL mismatch (-want +got):\n%s", diff)
	}
}

// AssertErrorIs fails unless errors.Is(err, target).
func AssertErrorIs(t testing.TB, err, target error) {
	t.Helper()
	if !errors.Is(err, target) {
		t.Errorf("Expected error matching %v, got: %v", target, err)
	}
}

// AssertUnsupported fails unless err is an UnsupportedFeatureError for dialect.
// An empty feature matches any feature.
func AssertUnsupported(t testing.TB, err error, dialect relq.Dialect, feature string) {
	t.Helper()
	var ufErr relq.UnsupportedFeatureError
	if !errors.As(err, &ufErr) {
		t.Fatalf("Expected UnsupportedFeatureError, got: %v", err)
	}
	if ufErr.Dialect != string(dialect) {
		t.Errorf("Dialect = %q, want %q", ufErr.Dialect, dialect)
	}
	if feature != "" && ufErr.Feature != feature {
		t.Errorf("Feature = %q, want %q", ufErr.Feature, feature)
	}
}

// AssertPanics fails unless fn panics. Returns the panic message.
func AssertPanics(t testing.TB, fn func()) (msg string) {
	t.Helper()
	defer func() {
		r := recover()
		if r == nil {
			t.Errorf("Expected panic, but function did not panic")
			return
		}
		msg = fmt.Sprint(r)
	}()
	fn()
	return ""
}
