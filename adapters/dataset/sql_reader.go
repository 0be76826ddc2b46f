package dataset

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"gochurn/domain/customer"
	"gochurn/internal"

	_ "github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

var tableNamePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)?$`)

// SQLReader reads the churn dataset from a database table whose columns use
// the dataset column names ("Usage Frequency", "Tenure", ...)
type SQLReader struct {
	db     *sqlx.DB
	table  string
	logger *internal.Logger
}

// DriverForDSN picks the database/sql driver from a DSN: postgres URLs use
// lib/pq, "file:" or ".db" paths use sqlite, anything else is treated as MySQL.
func DriverForDSN(dsn string) string {
	lower := strings.ToLower(dsn)
	switch {
	case strings.HasPrefix(lower, "postgres://"), strings.HasPrefix(lower, "postgresql://"):
		return "postgres"
	case strings.HasPrefix(lower, "file:"), strings.HasSuffix(lower, ".db"), lower == ":memory:":
		return "sqlite"
	default:
		return "mysql"
	}
}

// OpenSQLReader connects to dsn and reads from table
func OpenSQLReader(ctx context.Context, dsn, table string, logger *internal.Logger) (*SQLReader, error) {
	db, err := sqlx.ConnectContext(ctx, DriverForDSN(dsn), dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to dataset database: %w", err)
	}
	return NewSQLReader(db, table, logger)
}

// NewSQLReader reads from table on an existing connection
func NewSQLReader(db *sqlx.DB, table string, logger *internal.Logger) (*SQLReader, error) {
	if !tableNamePattern.MatchString(table) {
		return nil, fmt.Errorf("invalid table name %q", table)
	}
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &SQLReader{db: db, table: table, logger: logger.WithPrefix("SQLReader")}, nil
}

// Source identifies the table and driver
func (r *SQLReader) Source() string {
	return fmt.Sprintf("%s:%s", r.db.DriverName(), r.table)
}

// Close releases the connection
func (r *SQLReader) Close() error {
	return r.db.Close()
}

// ReadRecords selects every row of the table
func (r *SQLReader) ReadRecords(ctx context.Context) ([]customer.HistoricalRecord, error) {
	startTime := time.Now()
	rows, err := r.db.QueryxContext(ctx, "SELECT * FROM "+r.table)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", r.table, err)
	}
	defer rows.Close()

	headers, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("failed to read columns of %s: %w", r.table, err)
	}

	data := &RawData{Headers: headers}
	for rows.Next() {
		values, err := rows.SliceScan()
		if err != nil {
			return nil, fmt.Errorf("failed to scan row %d: %w", len(data.Rows), err)
		}
		row := make(RawRowData, len(headers))
		for i, v := range values {
			if isExcluded(headers[i]) && headers[i] != customer.ColCustomerID {
				continue
			}
			row[headers[i]] = cellString(v)
		}
		data.Rows = append(data.Rows, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate %s: %w", r.table, err)
	}
	r.logger.Info("Read %d rows from %s in %.2fms", len(data.Rows), r.Source(), float64(time.Since(startTime).Nanoseconds())/1e6)

	return data.ToRecords()
}

// cellString renders a scanned SQL value the way it would appear in a CSV cell
func cellString(v interface{}) string {
	switch val := v.(type) {
	case nil:
		return ""
	case []byte:
		return string(val)
	case string:
		return val
	case int64:
		return strconv.FormatInt(val, 10)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		if val {
			return "1"
		}
		return "0"
	case time.Time:
		return val.Format(time.RFC3339)
	default:
		return fmt.Sprint(val)
	}
}
