package types

import "strings"

// Dialect names one output target.
type Dialect string

const (
	DuckDB   Dialect = "duckdb"
	Postgres Dialect = "postgres"
	SQLite   Dialect = "sqlite"
	MariaDB  Dialect = "mariadb"
	MSSQL    Dialect = "mssql"
	Pure     Dialect = "pure"
)

// Family groups dialects that share a generator algorithm.
type Family int

const (
	FamilyUnknown Family = iota
	FamilySQL
	FamilyRelation
)

func (f Family) String() string {
	switch f {
	case FamilySQL:
		return "sql"
	case FamilyRelation:
		return "relation"
	default:
		return "unknown"
	}
}

// Family reports which generator family renders d.
func (d Dialect) Family() Family {
	switch d {
	case DuckDB, Postgres, SQLite, MariaDB, MSSQL:
		return FamilySQL
	case Pure:
		return FamilyRelation
	default:
		return FamilyUnknown
	}
}

// ParseDialect normalizes a user-supplied dialect name.
func ParseDialect(name string) Dialect {
	return Dialect(strings.ToLower(strings.TrimSpace(name)))
}

// Dialects lists every built-in dialect, primary SQL target first.
func Dialects() []Dialect {
	return []Dialect{DuckDB, Postgres, SQLite, MariaDB, MSSQL, Pure}
}
