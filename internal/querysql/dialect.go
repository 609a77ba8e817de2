package querysql

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/lib/pq"

	"github.com/roach88/shopq/internal/queryir"
)

// Dialect selects the SQL flavour a statement is rendered in.
type Dialect string

// Supported dialects.
const (
	SQLite   Dialect = "sqlite"
	Postgres Dialect = "postgres"
	MySQL    Dialect = "mysql"
)

// DialectForDriver maps a database/sql driver name onto its dialect.
func DialectForDriver(driver string) (Dialect, error) {
	switch driver {
	case "sqlite3", "sqlite":
		return SQLite, nil
	case "postgres", "pgx":
		return Postgres, nil
	case "mysql":
		return MySQL, nil
	default:
		return "", fmt.Errorf("no SQL dialect for driver %q", driver)
	}
}

// quote renders an output name as a quoted identifier. Names are checked to
// be identifiers before they get here.
func (d Dialect) quote(name string) string {
	if d == MySQL {
		return "`" + name + "`"
	}
	return `"` + name + `"`
}

// likeEscape is the escape character used in LIKE patterns.
const likeEscape = "!"

// likePattern builds a case-insensitive substring pattern. LIKE wildcards in
// s match literally.
func likePattern(s string) string {
	r := strings.NewReplacer(likeEscape, likeEscape+likeEscape, "%", likeEscape+"%", "_", likeEscape+"_")
	return "%" + r.Replace(strings.ToLower(s)) + "%"
}

func (d Dialect) iContains(col string) string {
	return fmt.Sprintf("LOWER(%s) LIKE ? ESCAPE '%s'", col, likeEscape)
}

func (d Dialect) year(col string) string {
	switch d {
	case Postgres:
		return fmt.Sprintf("EXTRACT(YEAR FROM %s)", col)
	case MySQL:
		return fmt.Sprintf("YEAR(%s)", col)
	default:
		return fmt.Sprintf("CAST(strftime('%%Y', %s) AS INTEGER)", col)
	}
}

func (d Dialect) hasElement(col string) string {
	switch d {
	case Postgres:
		return fmt.Sprintf("? = ANY(%s)", col)
	case MySQL:
		return fmt.Sprintf("JSON_CONTAINS(%s, JSON_QUOTE(?))", col)
	default:
		return fmt.Sprintf("EXISTS (SELECT 1 FROM json_each(%s) WHERE json_each.value = ?)", col)
	}
}

// jsonNumber reads a numeric attribute, or NULL when the attribute is
// missing or not a JSON number. key has been checked to be an identifier, so
// it is safe inside the path literal.
func (d Dialect) jsonNumber(col, key string) string {
	switch d {
	case Postgres:
		return fmt.Sprintf("CASE WHEN jsonb_typeof(%[1]s->'%[2]s') = 'number' THEN (%[1]s->>'%[2]s')::numeric END", col, key)
	case MySQL:
		return fmt.Sprintf("CASE WHEN JSON_TYPE(JSON_EXTRACT(%[1]s, '$.%[2]s')) IN ('INTEGER', 'UNSIGNED INTEGER', 'DOUBLE', 'DECIMAL') "+
			"THEN CAST(JSON_EXTRACT(%[1]s, '$.%[2]s') AS DECIMAL(10,4)) END", col, key)
	default:
		return fmt.Sprintf("CASE WHEN json_type(%[1]s, '$.%[2]s') IN ('integer', 'real') THEN CAST(json_extract(%[1]s, '$.%[2]s') AS REAL) END", col, key)
	}
}

func (d Dialect) greatest(l, r string) string {
	if d == SQLite {
		return fmt.Sprintf("MAX(%s, %s)", l, r)
	}
	return fmt.Sprintf("GREATEST(%s, %s)", l, r)
}

// param converts a literal into a driver argument.
func (d Dialect) param(v queryir.Value) (any, error) {
	switch val := v.(type) {
	case queryir.String:
		return string(val), nil
	case queryir.Int:
		return int64(val), nil
	case queryir.Float:
		return float64(val), nil
	case queryir.Bool:
		return bool(val), nil
	case queryir.Money:
		return val.MinorUnits(), nil
	case queryir.Date:
		return val.String(), nil
	case queryir.List:
		if d == Postgres {
			return pq.Array([]string(val)), nil
		}
		if val == nil {
			val = queryir.List{}
		}
		b, err := json.Marshal([]string(val))
		if err != nil {
			return nil, err
		}
		return string(b), nil
	case queryir.JSON:
		b, err := json.Marshal(map[string]any(val))
		if err != nil {
			return nil, err
		}
		return string(b), nil
	case nil:
		return nil, fmt.Errorf("nil value")
	default:
		return nil, fmt.Errorf("unsupported value type for SQL parameter: %T", v)
	}
}

// rebind rewrites ? placeholders into the dialect's form. Quoted literals
// are left alone.
func (d Dialect) rebind(sql string) string {
	if d != Postgres {
		return sql
	}

	var b strings.Builder
	b.Grow(len(sql) + 8)
	n := 0
	inQuote := false
	for _, r := range sql {
		switch {
		case r == '\'':
			inQuote = !inQuote
			b.WriteRune(r)
		case r == '?' && !inQuote:
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}
