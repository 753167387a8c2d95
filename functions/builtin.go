package functions

import (
	"fmt"
	"strings"

	"github.com/zoobzio/relq/internal/types"
)

// unquote strips the single quotes a string literal argument was rendered with,
// for date-part keywords that dialects expect bare.
func unquote(s string) string {
	if len(s) >= 2 && strings.HasPrefix(s, "'") && strings.HasSuffix(s, "'") {
		return s[1 : len(s)-1]
	}
	return s
}

// dateParts lists the units accepted wherever a date part is spliced into SQL.
var dateParts = map[string]bool{
	"year": true, "quarter": true, "month": true, "week": true,
	"day": true, "hour": true, "minute": true, "second": true,
}

// datePartAt requires argument index to be a string literal naming a known
// date part. The part is rendered unquoted, so nothing else may reach it.
func datePartAt(name string, index int) func([]types.Expression) error {
	return func(args []types.Expression) error {
		lit, ok := args[index].(types.Literal)
		if !ok {
			return types.InvalidArgumentError{Function: name, Index: index, Reason: "date part must be a string literal"}
		}
		part, ok := lit.Value.(string)
		if !ok || !dateParts[strings.ToLower(part)] {
			return types.InvalidArgumentError{Function: name, Index: index, Reason: fmt.Sprintf("unknown date part %v", lit.Value)}
		}
		return nil
	}
}

// simpleOperand reports whether s can be used next to an operator without
// parentheses: a bare number, identifier or qualified column.
func simpleOperand(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		case r == '_', r == '.', r == '"', r == '`', r == '[', r == ']':
		default:
			return false
		}
	}
	return true
}

func operand(s string) string {
	if simpleOperand(s) {
		return s
	}
	return "(" + s + ")"
}

func negate(s string) string {
	return "-" + operand(s)
}

func infix(op string) Rule {
	return Template(func(a []string) string {
		return "(" + a[0] + " " + op + " " + a[1] + ")"
	})
}

func constant(text string) Rule {
	return Template(func([]string) string { return text })
}

// Builtins returns the builtin catalogue.
func Builtins() []Descriptor {
	var out []Descriptor
	out = append(out, stringFunctions()...)
	out = append(out, numericFunctions()...)
	out = append(out, dateFunctions()...)
	out = append(out, aggregateFunctions()...)
	out = append(out, windowFunctions()...)
	return out
}

func stringFunctions() []Descriptor {
	return []Descriptor{
		{Name: "UPPER", Kind: Scalar, Arity: Exactly(1), Relation: Named("toUpper")},
		{Name: "LOWER", Kind: Scalar, Arity: Exactly(1), Relation: Named("toLower")},
		{
			Name: "CONCAT", Kind: Scalar, Arity: AtLeast(2),
			Relation: Template(func(a []string) string {
				return "[" + strings.Join(a, ", ") + "]->joinStrings('')"
			}),
		},
		{
			Name: "SUBSTRING", Kind: Scalar, Arity: Exactly(3),
			Overrides: map[types.Dialect]Rule{types.SQLite: Named("SUBSTR")},
			Relation:  Named("substring"),
		},
		{
			Name: "LENGTH", Kind: Scalar, Arity: Exactly(1),
			Overrides: map[types.Dialect]Rule{
				types.Postgres: Named("CHAR_LENGTH"),
				types.MariaDB:  Named("CHAR_LENGTH"),
				types.MSSQL:    Named("LEN"),
			},
			Relation: Named("length"),
		},
		{Name: "REPLACE", Kind: Scalar, Arity: Exactly(3), Relation: Named("replace")},
		{Name: "TRIM", Kind: Scalar, Arity: Exactly(1), Relation: Named("trim")},
		{Name: "COALESCE", Kind: Scalar, Arity: AtLeast(1), Relation: Named("coalesce")},
	}
}

func numericFunctions() []Descriptor {
	return []Descriptor{
		{Name: "ABS", Kind: Scalar, Arity: Exactly(1), Relation: Named("abs")},
		{
			Name: "ROUND", Kind: Scalar, Arity: Between(1, 2),
			Overrides: map[types.Dialect]Rule{
				types.MSSQL: Template(func(a []string) string {
					if len(a) == 1 {
						return "ROUND(" + a[0] + ", 0)"
					}
					return "ROUND(" + a[0] + ", " + a[1] + ")"
				}),
			},
			Relation: Named("round"),
		},
		{
			Name: "CEIL", Kind: Scalar, Arity: Exactly(1),
			Overrides: map[types.Dialect]Rule{
				types.Postgres: Named("CEILING"),
				types.MSSQL:    Named("CEILING"),
			},
			Relation: Named("ceiling"),
		},
		{Name: "FLOOR", Kind: Scalar, Arity: Exactly(1), Relation: Named("floor")},
		{Name: "POWER", Kind: Scalar, Arity: Exactly(2), Relation: Named("pow")},
		{Name: "SQRT", Kind: Scalar, Arity: Exactly(1), Relation: Named("sqrt")},
		{
			Name: "MOD", Kind: Scalar, Arity: Exactly(2),
			Overrides: map[types.Dialect]Rule{
				types.Postgres: infix("%"),
				types.MSSQL:    infix("%"),
				types.SQLite:   infix("%"),
			},
			Relation: Named("rem"),
		},
	}
}

func dateFunctions() []Descriptor {
	return []Descriptor{
		{
			Name: "CURRENT_DATE", Kind: Scalar, Arity: Exactly(0),
			SQL: constant("CURRENT_DATE"),
			Overrides: map[types.Dialect]Rule{
				types.MSSQL: constant("CAST(GETDATE() AS DATE)"),
			},
			Relation: constant("today()"),
		},
		{
			Name: "DATE_PART", Kind: Scalar, Arity: Exactly(2),
			Check: datePartAt("DATE_PART", 0),
			Overrides: map[types.Dialect]Rule{
				types.Postgres: Template(func(a []string) string {
					return "EXTRACT(" + unquote(a[0]) + " FROM " + a[1] + ")"
				}),
				types.MariaDB: Template(func(a []string) string {
					return "EXTRACT(" + unquote(a[0]) + " FROM " + a[1] + ")"
				}),
				types.MSSQL: Template(func(a []string) string {
					return "DATEPART(" + unquote(a[0]) + ", " + a[1] + ")"
				}),
				types.SQLite: Unsupported("use STRFTIME"),
			},
			Relation: Named("datePart"),
		},
		{
			Name: "DATE_TRUNC", Kind: Scalar, Arity: Exactly(2),
			Check: datePartAt("DATE_TRUNC", 0),
			Overrides: map[types.Dialect]Rule{
				types.MSSQL: Template(func(a []string) string {
					return "DATETRUNC(" + unquote(a[0]) + ", " + a[1] + ")"
				}),
				types.MariaDB: Unsupported(""),
				types.SQLite:  Unsupported(""),
			},
			Relation: Named("dateTrunc"),
		},
		{
			Name: "DATE_DIFF", Kind: Scalar, Arity: Exactly(3),
			Check: datePartAt("DATE_DIFF", 0),
			SQL: Template(func(a []string) string {
				return "DATE_DIFF(" + a[0] + ", CAST(" + a[1] + " AS DATE), CAST(" + a[2] + " AS DATE))"
			}),
			Overrides: map[types.Dialect]Rule{
				types.Postgres: Template(func(a []string) string {
					return "(EXTRACT(EPOCH FROM (CAST(" + a[2] + " AS TIMESTAMP) - CAST(" + a[1] + " AS TIMESTAMP))) / 86400)"
				}),
				types.MariaDB: Template(func(a []string) string {
					return "TIMESTAMPDIFF(" + unquote(a[0]) + ", " + a[1] + ", " + a[2] + ")"
				}),
				types.MSSQL: Template(func(a []string) string {
					return "DATEDIFF(" + unquote(a[0]) + ", " + a[1] + ", " + a[2] + ")"
				}),
				types.SQLite: Unsupported("use JULIANDAY arithmetic"),
			},
			Relation: Named("dateDiff"),
		},
		dateShift("DATE_ADD", "+", "adjust"),
		dateShift("DATE_SUB", "-", "adjust"),
	}
}

// dateShift describes DATE_ADD / DATE_SUB(date, amount, part). The amount
// may be any expression; only the part is spliced in as a keyword.
func dateShift(name, sign, relation string) Descriptor {
	signed := func(amount string) string {
		if sign == "-" {
			return negate(amount)
		}
		return amount
	}
	return Descriptor{
		Name: name, Kind: Scalar, Arity: Exactly(3),
		Check: datePartAt(name, 2),
		SQL: Template(func(a []string) string {
			return "(CAST(" + a[0] + " AS DATE) " + sign + " INTERVAL " + operand(a[1]) + " " + unquote(a[2]) + ")"
		}),
		Overrides: map[types.Dialect]Rule{
			types.Postgres: Template(func(a []string) string {
				return "(" + a[0] + " " + sign + " " + operand(a[1]) + " * INTERVAL '1 " + unquote(a[2]) + "')"
			}),
			types.MSSQL: Template(func(a []string) string {
				return "DATEADD(" + unquote(a[2]) + ", " + signed(a[1]) + ", " + a[0] + ")"
			}),
			types.SQLite: Template(func(a []string) string {
				return "DATE(" + a[0] + ", " + operand(signed(a[1])) + " || ' " + unquote(a[2]) + "')"
			}),
		},
		Relation: Template(func(a []string) string {
			return a[0] + "->" + relation + "(" + signed(a[1]) + ", DurationUnit." + strings.ToUpper(unquote(a[2])) + "S)"
		}),
	}
}

func aggregateFunctions() []Descriptor {
	return []Descriptor{
		{Name: "COUNT", Kind: Aggregate, Arity: Between(0, 1), Relation: Named("count")},
		{Name: "SUM", Kind: Aggregate, Arity: Exactly(1), Relation: Named("sum")},
		{Name: "AVG", Kind: Aggregate, Arity: Exactly(1), Relation: Named("average")},
		{Name: "MIN", Kind: Aggregate, Arity: Exactly(1), Relation: Named("min")},
		{Name: "MAX", Kind: Aggregate, Arity: Exactly(1), Relation: Named("max")},
		{
			Name: "STDDEV", Kind: Aggregate, Arity: Exactly(1),
			Overrides: map[types.Dialect]Rule{
				types.MSSQL:  Named("STDEV"),
				types.SQLite: Unsupported(""),
			},
			Relation: Named("stdDev"),
		},
		{
			Name: "VARIANCE", Kind: Aggregate, Arity: Exactly(1),
			Overrides: map[types.Dialect]Rule{
				types.MSSQL:  Named("VAR"),
				types.SQLite: Unsupported(""),
			},
			Relation: Named("variance"),
		},
		{
			Name: "STRING_AGG", Kind: Aggregate, Arity: Exactly(2),
			Overrides: map[types.Dialect]Rule{
				types.SQLite: Named("GROUP_CONCAT"),
				types.MariaDB: Template(func(a []string) string {
					return "GROUP_CONCAT(" + a[0] + " SEPARATOR " + a[1] + ")"
				}),
			},
			Relation: Named("joinStrings"),
		},
	}
}

func windowFunctions() []Descriptor {
	return []Descriptor{
		{Name: "ROW_NUMBER", Kind: Window, Arity: Exactly(0), Relation: Named("rowNumber")},
		{Name: "RANK", Kind: Window, Arity: Exactly(0), Relation: Named("rank")},
		{Name: "DENSE_RANK", Kind: Window, Arity: Exactly(0), Relation: Named("denseRank")},
		{Name: "PERCENT_RANK", Kind: Window, Arity: Exactly(0), Relation: Named("percentRank")},
		{Name: "CUME_DIST", Kind: Window, Arity: Exactly(0), Relation: Named("cumulativeDistribution")},
		{Name: "NTILE", Kind: Window, Arity: Exactly(1), Relation: Named("ntile")},
		{Name: "LAG", Kind: Window, Arity: Between(1, 3), Relation: Named("lag")},
		{Name: "LEAD", Kind: Window, Arity: Between(1, 3), Relation: Named("lead")},
		{Name: "FIRST_VALUE", Kind: Window, Arity: Exactly(1), Relation: Named("first")},
		{Name: "LAST_VALUE", Kind: Window, Arity: Exactly(1), Relation: Named("last")},
		{Name: "NTH_VALUE", Kind: Window, Arity: Exactly(2), Relation: Named("nth")},
	}
}
