// Package runner executes generated statements against MySQL.
//
// The generator emits named placeholders (@gp1); database/sql drivers for
// MySQL take positional ones. Runner rebinds the text with Bind and hands
// it to database/sql. Statements with a read-back (INSERT/UPDATE followed
// by ";\nSELECT ...") need multi-statement support, which Open enables.
package runner

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/go-sql-driver/mysql"

	"github.com/roach88/plansql/internal/querysql"
)

// Result holds the rows of a query, or the affected-row count of a
// statement that returns none.
type Result struct {
	Columns      []string `json:"columns,omitempty"`
	Rows         [][]any  `json:"rows,omitempty"`
	RowsAffected int64    `json:"rows_affected"`
}

// Runner executes statements on a database handle.
type Runner struct {
	db     *sql.DB
	logger *slog.Logger
}

// Open connects to MySQL. The DSN uses the go-sql-driver format
// (user:pass@tcp(host:3306)/db). Multi-statements and client-side
// interpolation are switched on so read-back statements run in one round
// trip.
func Open(dsn string, logger *slog.Logger) (*Runner, error) {
	cfg, err := mysql.ParseDSN(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse dsn: %w", err)
	}
	cfg.MultiStatements = true
	cfg.InterpolateParams = true
	cfg.ParseTime = true

	connector, err := mysql.NewConnector(cfg)
	if err != nil {
		return nil, fmt.Errorf("mysql connector: %w", err)
	}
	return New(sql.OpenDB(connector), logger), nil
}

// New wraps an existing handle. A nil logger discards logs.
func New(db *sql.DB, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Runner{db: db, logger: logger}
}

// Close closes the underlying handle.
func (r *Runner) Close() error {
	return r.db.Close()
}

// Run binds and executes a generated statement. Statements that produce
// rows are queried; the last result set with columns is returned.
// Everything else is executed and reports the affected-row count.
func (r *Runner) Run(ctx context.Context, text string, params []querysql.Parameter, external map[string]any) (*Result, error) {
	bound, args, err := Bind(text, params, external)
	if err != nil {
		return nil, err
	}
	r.logger.Debug("executing statement", "sql", bound, "args", len(args))

	if !returnsRows(text) {
		res, err := r.db.ExecContext(ctx, bound, args...)
		if err != nil {
			return nil, fmt.Errorf("exec: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return nil, fmt.Errorf("rows affected: %w", err)
		}
		return &Result{RowsAffected: n}, nil
	}

	rows, err := r.db.QueryContext(ctx, bound, args...)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	defer rows.Close()

	result := &Result{}
	for {
		cols, err := rows.Columns()
		if err != nil {
			return nil, fmt.Errorf("columns: %w", err)
		}
		if len(cols) > 0 {
			result.Columns = cols
			result.Rows = result.Rows[:0]
			for rows.Next() {
				vals := make([]any, len(cols))
				ptrs := make([]any, len(cols))
				for i := range vals {
					ptrs[i] = &vals[i]
				}
				if err := rows.Scan(ptrs...); err != nil {
					return nil, fmt.Errorf("scan: %w", err)
				}
				for i, v := range vals {
					if b, ok := v.([]byte); ok {
						vals[i] = string(b)
					}
				}
				result.Rows = append(result.Rows, vals)
			}
		}
		if !rows.NextResultSet() {
			break
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	result.RowsAffected = int64(len(result.Rows))
	return result, nil
}

// returnsRows reports whether a generated statement may yield a result
// set: a query, DML with a read-back, or a stored procedure call.
func returnsRows(text string) bool {
	t := strings.TrimSpace(text)
	return hasPrefixFold(t, "SELECT") || hasPrefixFold(t, "(SELECT") || hasPrefixFold(t, "CALL ") ||
		strings.Contains(t, ";\nSELECT")
}

func hasPrefixFold(s, prefix string) bool {
	return len(s) >= len(prefix) && strings.EqualFold(s[:len(prefix)], prefix)
}
