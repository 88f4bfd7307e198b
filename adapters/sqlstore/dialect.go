package sqlstore

import (
	"fmt"
	"strings"

	"phmagent/domain/core"
	"phmagent/ports"
)

const maxIdentifierLength = 64

// Dialect captures the SQL that differs between the supported databases.
// Queries are written with ? placeholders and rebound by sqlx.
type Dialect interface {
	Name() string
	// Quote returns ident quoted for use as a table or column name.
	Quote(ident string) (string, error)
	// DateOf truncates a quoted time column to its calendar date.
	DateOf(quotedColumn string) string
	ColumnsQuery() string
	TableExistsQuery() string
	ColumnType(kind ports.ColumnKind) string
}

// DialectFor returns the dialect registered for a database/sql driver name.
func DialectFor(driver string) (Dialect, error) {
	switch driver {
	case "postgres":
		return postgresDialect{}, nil
	case "mysql":
		return mysqlDialect{}, nil
	}
	return nil, fmt.Errorf("unsupported driver %q", driver)
}

type postgresDialect struct{}

func (postgresDialect) Name() string { return "postgres" }

func (postgresDialect) Quote(ident string) (string, error) {
	if err := checkIdentifier(ident, `"`); err != nil {
		return "", err
	}
	return `"` + ident + `"`, nil
}

func (postgresDialect) DateOf(col string) string { return "CAST(" + col + " AS DATE)" }

func (postgresDialect) ColumnsQuery() string {
	return `SELECT column_name FROM information_schema.columns
	WHERE table_schema = current_schema() AND table_name = ?
	ORDER BY ordinal_position`
}

func (postgresDialect) TableExistsQuery() string {
	return `SELECT COUNT(*) FROM information_schema.tables
	WHERE table_schema = current_schema() AND table_name = ?`
}

func (postgresDialect) ColumnType(kind ports.ColumnKind) string {
	switch kind {
	case ports.ColumnTimestamp:
		return "TIMESTAMP"
	case ports.ColumnNumeric:
		return "DOUBLE PRECISION"
	default:
		return "TEXT"
	}
}

type mysqlDialect struct{}

func (mysqlDialect) Name() string { return "mysql" }

func (mysqlDialect) Quote(ident string) (string, error) {
	if err := checkIdentifier(ident, "`"); err != nil {
		return "", err
	}
	return "`" + ident + "`", nil
}

func (mysqlDialect) DateOf(col string) string { return "DATE(" + col + ")" }

func (mysqlDialect) ColumnsQuery() string {
	return `SELECT COLUMN_NAME FROM information_schema.columns
	WHERE table_schema = DATABASE() AND table_name = ?
	ORDER BY ORDINAL_POSITION`
}

func (mysqlDialect) TableExistsQuery() string {
	return `SELECT COUNT(*) FROM information_schema.tables
	WHERE table_schema = DATABASE() AND table_name = ?`
}

func (mysqlDialect) ColumnType(kind ports.ColumnKind) string {
	switch kind {
	case ports.ColumnTimestamp:
		return "DATETIME(6)"
	case ports.ColumnNumeric:
		return "DOUBLE"
	default:
		return "TEXT"
	}
}

func checkIdentifier(ident, quote string) error {
	switch {
	case ident == "":
		return fmt.Errorf("%w: empty name", core.ErrUnsafeIdentifier)
	case len(ident) > maxIdentifierLength:
		return fmt.Errorf("%w: %q longer than %d bytes", core.ErrUnsafeIdentifier, ident, maxIdentifierLength)
	case strings.Contains(ident, quote), strings.ContainsRune(ident, 0):
		return fmt.Errorf("%w: %q", core.ErrUnsafeIdentifier, ident)
	}
	return nil
}

func quoteAll(d Dialect, idents ...string) ([]string, error) {
	out := make([]string, len(idents))
	for i, ident := range idents {
		q, err := d.Quote(ident)
		if err != nil {
			return nil, err
		}
		out[i] = q
	}
	return out, nil
}
