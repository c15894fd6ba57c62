package connectors

import (
	"encoding/base64"
	"fmt"
	"net/netip"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/meterscope/meterscope/core/domain"
)

// collectRows drains rows into column-keyed maps with JSON-friendly values.
func collectRows(rows pgx.Rows) (*domain.RowSet, error) {
	defer rows.Close()

	fields := rows.FieldDescriptions()
	columns := make([]string, len(fields))
	for i, fd := range fields {
		columns[i] = fd.Name
	}

	results := make([]map[string]any, 0)
	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return nil, fmt.Errorf("failed to get row values: %w", err)
		}

		row := make(map[string]any, len(columns))
		for i, col := range columns {
			if i < len(values) {
				row[col] = jsonSafe(values[i])
			}
		}
		results = append(results, row)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return &domain.RowSet{
		Columns:  columns,
		Rows:     results,
		Affected: rows.CommandTag().RowsAffected(),
	}, nil
}

// jsonSafe converts driver values that do not encode well as JSON.
func jsonSafe(v any) any {
	switch x := v.(type) {
	case nil:
		return nil
	case []byte:
		if utf8.Valid(x) {
			return string(x)
		}
		return map[string]any{
			"type":   "bytes",
			"base64": base64.StdEncoding.EncodeToString(x),
		}
	case time.Time:
		return x.Format(time.RFC3339Nano)
	case [16]byte:
		return uuid.UUID(x).String()
	case netip.Prefix:
		return x.String()
	case pgtype.Numeric:
		// Exact decimal text, matching how NUMERIC arrives in JSON clients.
		v, err := x.Value()
		if err != nil || v == nil {
			return nil
		}
		return v
	case pgtype.Interval:
		if !x.Valid {
			return nil
		}
		d := time.Duration(x.Microseconds)*time.Microsecond +
			time.Duration(x.Days)*24*time.Hour
		return fmt.Sprintf("%dmon %s", x.Months, d)
	default:
		return x
	}
}
