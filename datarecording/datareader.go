package datarecording

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"reflect"
	"sort"
	"strings"
)

// QueryParams encapsulates all query parameters
type QueryParams struct {
	// Where holds the WHERE clause without the "WHERE" keyword
	// Example: "Step > ? AND Port = ?"
	Where string

	// Args holds the arguments for the placeholders in Where
	Args []any

	// Limit is the maximum number of records to return (pagination)
	// Set to 0 for no limit
	Limit int

	// Offset is the number of records to skip (pagination)
	Offset int

	// OrderBy specifies sorting, without the "ORDER BY" keywords
	// Example: "Step DESC"
	OrderBy string
}

// DataReader reads the tables written by a DataRecorder.
type DataReader interface {
	// MapTable establishes a mapping between a database table and a Go struct
	// type. This mapping is required before querying a table.
	MapTable(tableName string, sampleEntry any)

	// ListTables returns the names of all the tables in the database.
	ListTables(ctx context.Context) ([]string, error)

	// Query executes a query on a table and returns pointers to the entries
	// and the number of entries matching the Where clause.
	Query(ctx context.Context, tableName string, params QueryParams) (
		results []any,
		totalCount int,
		err error,
	)

	// Close closes the reader
	Close() error
}

type sqliteReader struct {
	*sql.DB

	typeMap map[string]reflect.Type
}

// NewReader opens an existing database for reading.
func NewReader(dbFilename string) (DataReader, error) {
	_, err := os.Stat(dbFilename)
	if err != nil {
		return nil, fmt.Errorf("open recording: %w", err)
	}

	db, err := sql.Open("sqlite3", dbFilename)
	if err != nil {
		return nil, fmt.Errorf("open recording %s: %w", dbFilename, err)
	}

	return NewReaderWithDB(db), nil
}

// NewReaderWithDB creates a new DataReader with a given database
func NewReaderWithDB(db *sql.DB) DataReader {
	return &sqliteReader{
		DB:      db,
		typeMap: make(map[string]reflect.Type),
	}
}

func (r *sqliteReader) MapTable(tableName string, sampleEntry any) {
	r.typeMap[tableName] = reflect.TypeOf(sampleEntry)
}

func (r *sqliteReader) ListTables(ctx context.Context) ([]string, error) {
	rows, err := r.QueryContext(ctx,
		"SELECT name FROM sqlite_master WHERE type = 'table'")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tables []string

	for rows.Next() {
		var name string

		err = rows.Scan(&name)
		if err != nil {
			return nil, err
		}

		tables = append(tables, name)
	}

	sort.Strings(tables)

	return tables, rows.Err()
}

func (p QueryParams) whereClause() string {
	if p.Where == "" {
		return ""
	}

	return " WHERE " + p.Where
}

func (p QueryParams) selectQuery(tableName string) string {
	var b strings.Builder

	b.WriteString("SELECT * FROM " + tableName + p.whereClause())

	if p.OrderBy != "" {
		b.WriteString(" ORDER BY " + p.OrderBy)
	}

	if p.Limit > 0 {
		fmt.Fprintf(&b, " LIMIT %d", p.Limit)

		if p.Offset > 0 {
			fmt.Fprintf(&b, " OFFSET %d", p.Offset)
		}
	}

	return b.String()
}

func (p QueryParams) countQuery(tableName string) string {
	return "SELECT COUNT(*) FROM " + tableName + p.whereClause()
}

func (r *sqliteReader) Query(
	ctx context.Context,
	tableName string,
	params QueryParams,
) ([]any, int, error) {
	structType, ok := r.typeMap[tableName]
	if !ok {
		return nil, 0, fmt.Errorf("table %s is not mapped", tableName)
	}

	var total int

	err := r.QueryRowContext(ctx, params.countQuery(tableName), params.Args...).
		Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("count %s: %w", tableName, err)
	}

	rows, err := r.QueryContext(ctx, params.selectQuery(tableName), params.Args...)
	if err != nil {
		return nil, 0, fmt.Errorf("query %s: %w", tableName, err)
	}
	defer rows.Close()

	scanner, err := newRowScanner(rows, structType)
	if err != nil {
		return nil, 0, err
	}

	var results []any

	for rows.Next() {
		entry, err := scanner.scan(rows)
		if err != nil {
			return nil, 0, err
		}

		results = append(results, entry)
	}

	return results, total, rows.Err()
}

// rowScanner fills new structs of one type from result rows. Columns without
// a field of the same name are dropped.
type rowScanner struct {
	structType reflect.Type
	fieldIndex []int
}

func newRowScanner(rows *sql.Rows, structType reflect.Type) (*rowScanner, error) {
	columns, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	s := &rowScanner{
		structType: structType,
		fieldIndex: make([]int, len(columns)),
	}

	for i, col := range columns {
		s.fieldIndex[i] = -1

		if field, ok := structType.FieldByName(col); ok && len(field.Index) == 1 {
			s.fieldIndex[i] = field.Index[0]
		}
	}

	return s, nil
}

func (s *rowScanner) scan(rows *sql.Rows) (any, error) {
	ptr := reflect.New(s.structType)
	targets := make([]any, len(s.fieldIndex))

	for i, idx := range s.fieldIndex {
		if idx < 0 {
			var discard any

			targets[i] = &discard

			continue
		}

		targets[i] = ptr.Elem().Field(idx).Addr().Interface()
	}

	err := rows.Scan(targets...)
	if err != nil {
		return nil, err
	}

	return ptr.Interface(), nil
}

func (r *sqliteReader) Close() error {
	return r.DB.Close()
}
