package etl

import (
	"bytes"
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/vvka-141/songline/pkg/songline"
)

// pgCopySource is the slice of pgx connection surface the writer needs:
// access to the underlying protocol connection for COPY FROM STDIN.
// *pgx.Conn and pgx.Tx.Conn() both satisfy it.
type pgCopySource interface {
	PgConn() *pgconn.PgConn
}

// CopyWriter bulk-loads rows into PostgreSQL using the COPY text protocol
// with '|' as the field delimiter and NULL spelled out as a literal token.
// All writes issued through one CopyWriter share the connection's current
// transaction, so a run's loads commit or roll back together.
type CopyWriter struct {
	conn pgCopySource
}

// NewCopyWriter creates a writer over an open connection or transaction
// connection. Panics if conn is nil.
func NewCopyWriter(conn pgCopySource) *CopyWriter {
	if conn == nil {
		panic("conn cannot be nil")
	}
	return &CopyWriter{conn: conn}
}

// BulkLoad streams rows into the destination table and returns the number
// of rows written. Each row must have exactly one value per table column.
// Failures wrap ErrCopyFailed.
func (w *CopyWriter) BulkLoad(ctx context.Context, table songline.Table, rows [][]any) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}

	var buf bytes.Buffer
	for i, row := range rows {
		if len(row) != len(table.Columns) {
			return 0, fmt.Errorf("%w: table %s row %d has %d values, want %d",
				songline.ErrCopyFailed, table.Name, i, len(row), len(table.Columns))
		}
		line, err := encodeCopyRow(row)
		if err != nil {
			return 0, fmt.Errorf("%w: table %s row %d: %v", songline.ErrCopyFailed, table.Name, i, err)
		}
		buf.WriteString(line)
		buf.WriteByte('\n')
	}

	sql := copyStatement(table)
	tag, err := w.conn.PgConn().CopyFrom(ctx, &buf, sql)
	if err != nil {
		return 0, fmt.Errorf("%w: table %s: %v", songline.ErrCopyFailed, table.Name, err)
	}

	return tag.RowsAffected(), nil
}

func copyStatement(table songline.Table) string {
	return fmt.Sprintf("COPY %s (%s) FROM STDIN (FORMAT text, DELIMITER '%c', NULL '%s')",
		table.Name, strings.Join(table.Columns, ", "), songline.CopyDelimiter, songline.CopyNullToken)
}

// encodeCopyRow renders one row as a COPY text line without the trailing
// newline.
func encodeCopyRow(row []any) (string, error) {
	fields := make([]string, len(row))
	for i, value := range row {
		encoded, err := encodeCopyValue(value)
		if err != nil {
			return "", fmt.Errorf("column %d: %w", i, err)
		}
		fields[i] = encoded
	}
	return strings.Join(fields, string(songline.CopyDelimiter)), nil
}

// encodeCopyValue renders a single value for the COPY text stream. Absent
// values (nil, nil pointers) and empty strings both become the null token:
// the source data does not distinguish "empty" from "missing".
func encodeCopyValue(value any) (string, error) {
	switch v := value.(type) {
	case nil:
		return songline.CopyNullToken, nil
	case string:
		if v == "" {
			return songline.CopyNullToken, nil
		}
		return escapeCopyText(v), nil
	case *string:
		if v == nil {
			return songline.CopyNullToken, nil
		}
		return encodeCopyValue(*v)
	case int:
		return strconv.Itoa(v), nil
	case int64:
		return strconv.FormatInt(v, 10), nil
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), nil
	case *float64:
		if v == nil {
			return songline.CopyNullToken, nil
		}
		return strconv.FormatFloat(*v, 'f', -1, 64), nil
	case bool:
		if v {
			return "t", nil
		}
		return "f", nil
	case time.Time:
		return v.UTC().Format("2006-01-02 15:04:05.999999+00"), nil
	case uuid.UUID:
		return v.String(), nil
	default:
		return "", fmt.Errorf("unsupported value type %T", value)
	}
}

// escapeCopyText escapes the characters that are significant in the COPY
// text format: backslash, the field delimiter, and line controls.
func escapeCopyText(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch r {
		case '\\':
			b.WriteString(`\\`)
		case rune(songline.CopyDelimiter):
			b.WriteByte('\\')
			b.WriteRune(r)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\t':
			b.WriteString(`\t`)
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

var _ songline.BulkWriter = (*CopyWriter)(nil)
