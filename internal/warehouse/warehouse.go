// Package warehouse is the storage engine handle the pipeline stages
// share. It exposes a narrow, set-based command surface over the
// embedded analytical database: replace a table wholesale, count rows
// matching a predicate, count unresolved references, and run aggregate
// queries. Stages never touch rows procedurally through it.
package warehouse

import (
	"context"
	"fmt"
	"strings"

	"trips-platform/internal/schema"
	"trips-platform/pkg/database"
	"trips-platform/pkg/logging"
	"trips-platform/pkg/metrics"
)

// Engine provides set-based access to the trips warehouse
type Engine interface {
	// ReplaceTable atomically swaps the table's content for the given
	// rows: the new table is built to the side and published in one
	// transaction, so a failed build leaves the previous table intact.
	ReplaceTable(ctx context.Context, spec schema.TableSpec, rows [][]any) error

	// CountWhere counts rows in a table matching a predicate
	CountWhere(ctx context.Context, table, predicate string) (int64, error)

	// OrphanCount counts fact rows whose foreign key has no matching
	// dimension row (left anti-join).
	OrphanCount(ctx context.Context, factTable, fkColumn, dimTable, keyColumn string) (int64, error)

	// TableRowCount counts all rows in a table
	TableRowCount(ctx context.Context, table string) (int64, error)

	// Select runs an aggregate query returning multiple rows
	Select(ctx context.Context, queryType string, dest any, query string, args ...any) error

	// Get runs an aggregate query returning a single row
	Get(ctx context.Context, queryType string, dest any, query string, args ...any) error

	// HealthCheck verifies the warehouse connection
	HealthCheck(ctx context.Context) error
}

// sqlEngine implements Engine over the instrumented database wrapper
type sqlEngine struct {
	db      *database.DB
	logger  *logging.StructuredLogger
	metrics *metrics.Collector
}

// NewEngine creates a warehouse engine over an open database
func NewEngine(db *database.DB, logger *logging.StructuredLogger, metricsCollector *metrics.Collector) Engine {
	return &sqlEngine{
		db:      db,
		logger:  logger,
		metrics: metricsCollector,
	}
}

// columnSQL renders a column declaration for the active driver
func (e *sqlEngine) columnSQL(col schema.Column) string {
	var typeName string
	if e.db.DB().DriverName() == database.DriverPostgres {
		switch col.Type {
		case schema.TypeInteger:
			typeName = "BIGINT"
		case schema.TypeReal:
			typeName = "DOUBLE PRECISION"
		case schema.TypeTimestamp:
			typeName = "TIMESTAMP"
		default:
			typeName = "TEXT"
		}
	} else {
		switch col.Type {
		case schema.TypeInteger:
			typeName = "INTEGER"
		case schema.TypeReal:
			typeName = "REAL"
		default:
			// Timestamps are stored as canonical text on sqlite
			typeName = "TEXT"
		}
	}
	return col.Name + " " + typeName
}

// ReplaceTable implements the drop-and-recreate load as an atomic swap
func (e *sqlEngine) ReplaceTable(ctx context.Context, spec schema.TableSpec, rows [][]any) error {
	staging := spec.Name + "__staging"
	columns := spec.ColumnNames()

	decls := make([]string, len(spec.Columns))
	for i, col := range spec.Columns {
		decls[i] = e.columnSQL(col)
	}

	tx, err := e.db.BeginTx(ctx)
	if err != nil {
		return &StorageEngineError{Op: "replace_table", Table: spec.Name, Err: err}
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DROP TABLE IF EXISTS "+staging); err != nil {
		return &StorageEngineError{Op: "replace_table", Table: spec.Name, Err: err}
	}

	createSQL := fmt.Sprintf("CREATE TABLE %s (%s)", staging, strings.Join(decls, ", "))
	if _, err := tx.ExecContext(ctx, createSQL); err != nil {
		return &StorageEngineError{Op: "replace_table", Table: spec.Name, Err: err}
	}

	if len(rows) > 0 {
		placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(columns)), ", ")
		insertSQL := e.db.Rebind(fmt.Sprintf(
			"INSERT INTO %s (%s) VALUES (%s)",
			staging, strings.Join(columns, ", "), placeholders,
		))

		stmt, err := tx.PrepareContext(ctx, insertSQL)
		if err != nil {
			return &StorageEngineError{Op: "replace_table", Table: spec.Name, Err: err}
		}
		defer stmt.Close()

		for i, row := range rows {
			if len(row) != len(columns) {
				return &StorageEngineError{
					Op:    "replace_table",
					Table: spec.Name,
					Err:   fmt.Errorf("row %d has %d values, table has %d columns", i, len(row), len(columns)),
				}
			}
			if _, err := stmt.ExecContext(ctx, row...); err != nil {
				return &StorageEngineError{Op: "replace_table", Table: spec.Name, Err: err}
			}
		}
	}

	// Publish: drop the old table and move the staging build in place
	if _, err := tx.ExecContext(ctx, "DROP TABLE IF EXISTS "+spec.Name); err != nil {
		return &StorageEngineError{Op: "replace_table", Table: spec.Name, Err: err}
	}
	if _, err := tx.ExecContext(ctx, fmt.Sprintf("ALTER TABLE %s RENAME TO %s", staging, spec.Name)); err != nil {
		return &StorageEngineError{Op: "replace_table", Table: spec.Name, Err: err}
	}

	for _, col := range indexColumns(spec) {
		indexSQL := fmt.Sprintf("CREATE INDEX idx_%s_%s ON %s (%s)", spec.Name, col, spec.Name, col)
		if _, err := tx.ExecContext(ctx, indexSQL); err != nil {
			return &StorageEngineError{Op: "create_index", Table: spec.Name, Err: err}
		}
	}

	if err := tx.Commit(); err != nil {
		return &StorageEngineError{Op: "replace_table", Table: spec.Name, Err: err}
	}

	e.logger.Debug(ctx, "[WAREHOUSE_REPLACE] Table replaced", logging.Fields{
		"table": spec.Name,
		"rows":  len(rows),
	})

	return nil
}

func indexColumns(spec schema.TableSpec) []string {
	var cols []string
	if spec.KeyColumn != "" {
		cols = append(cols, spec.KeyColumn)
	}
	cols = append(cols, spec.IndexColumns...)
	return cols
}

// CountWhere counts rows matching a predicate. Table and predicate come
// from the schema registry and the validation service, never from input.
func (e *sqlEngine) CountWhere(ctx context.Context, table, predicate string) (int64, error) {
	query := fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE %s", table, predicate)

	var count int64
	if err := e.db.GetContext(ctx, "count_where", &count, query); err != nil {
		return 0, &StorageEngineError{Op: "count_where", Table: table, Err: err}
	}
	return count, nil
}

// OrphanCount counts fact rows without a matching dimension row
func (e *sqlEngine) OrphanCount(ctx context.Context, factTable, fkColumn, dimTable, keyColumn string) (int64, error) {
	query := fmt.Sprintf(`
		SELECT COUNT(*)
		FROM %s f
		LEFT JOIN %s d ON f.%s = d.%s
		WHERE d.%s IS NULL
	`, factTable, dimTable, fkColumn, keyColumn, keyColumn)

	var count int64
	if err := e.db.GetContext(ctx, "orphan_count", &count, query); err != nil {
		return 0, &StorageEngineError{Op: "orphan_count", Table: factTable, Err: err}
	}
	return count, nil
}

// TableRowCount counts all rows in a table
func (e *sqlEngine) TableRowCount(ctx context.Context, table string) (int64, error) {
	var count int64
	if err := e.db.GetContext(ctx, "row_count", &count, "SELECT COUNT(*) FROM "+table); err != nil {
		return 0, &StorageEngineError{Op: "row_count", Table: table, Err: err}
	}
	return count, nil
}

// Select runs an aggregate query returning multiple rows
func (e *sqlEngine) Select(ctx context.Context, queryType string, dest any, query string, args ...any) error {
	if err := e.db.SelectContext(ctx, queryType, dest, query, args...); err != nil {
		return &StorageEngineError{Op: queryType, Err: err}
	}
	return nil
}

// Get runs an aggregate query returning a single row
func (e *sqlEngine) Get(ctx context.Context, queryType string, dest any, query string, args ...any) error {
	if err := e.db.GetContext(ctx, queryType, dest, query, args...); err != nil {
		return &StorageEngineError{Op: queryType, Err: err}
	}
	return nil
}

// HealthCheck verifies the warehouse connection
func (e *sqlEngine) HealthCheck(ctx context.Context) error {
	return e.db.HealthCheck(ctx)
}

// StorageEngineError wraps a failed warehouse operation with the
// operation and table it was issued against.
type StorageEngineError struct {
	Op    string
	Table string
	Err   error
}

func (e *StorageEngineError) Error() string {
	if e.Table != "" {
		return fmt.Sprintf("warehouse %s on %s failed: %v", e.Op, e.Table, e.Err)
	}
	return fmt.Sprintf("warehouse %s failed: %v", e.Op, e.Err)
}

func (e *StorageEngineError) Unwrap() error {
	return e.Err
}

// IsTransient returns false; a failed run is rerun, not retried in place
func (e *StorageEngineError) IsTransient() bool {
	return false
}
