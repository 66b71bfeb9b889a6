package datarecording

import (
	"context"
	"database/sql"
	"fmt"
	"reflect"
	"strings"

	"github.com/fatih/structs"
)

// QueryParams narrow down a query.
type QueryParams struct {
	// Where holds the WHERE clause without the "WHERE" keyword, for example
	// "Round > ? AND Outcome = ?".
	Where string

	// Args holds the arguments for the placeholders in Where.
	Args []any

	// OrderBy specifies sorting, without the "ORDER BY" keywords.
	OrderBy string

	// Limit is the maximum number of rows to return. Zero means no limit.
	Limit int
}

// OpenReader opens a database written by a DataRecorder for reading.
func OpenReader(filename string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", filename)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", filename, err)
	}

	return db, nil
}

// Query reads the rows of a table into entries of type T. T must be a flat
// struct whose exported field names match the columns.
func Query[T any](
	ctx context.Context,
	db *sql.DB,
	tableName string,
	params QueryParams,
) ([]T, error) {
	var sample T

	columns := structs.Names(sample)
	query := "SELECT " + strings.Join(columns, ", ") + " FROM " + tableName

	if params.Where != "" {
		query += " WHERE " + params.Where
	}

	if params.OrderBy != "" {
		query += " ORDER BY " + params.OrderBy
	}

	if params.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", params.Limit)
	}

	rows, err := db.QueryContext(ctx, query, params.Args...)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", tableName, err)
	}
	defer rows.Close()

	var results []T

	for rows.Next() {
		var entry T

		v := reflect.ValueOf(&entry).Elem()
		targets := make([]any, len(columns))

		for i, c := range columns {
			targets[i] = v.FieldByName(c).Addr().Interface()
		}

		if err := rows.Scan(targets...); err != nil {
			return nil, fmt.Errorf("scan %s: %w", tableName, err)
		}

		results = append(results, entry)
	}

	return results, rows.Err()
}

// Count returns the number of rows of a table that match the parameters.
func Count(
	ctx context.Context,
	db *sql.DB,
	tableName string,
	params QueryParams,
) (int, error) {
	query := "SELECT COUNT(*) FROM " + tableName
	if params.Where != "" {
		query += " WHERE " + params.Where
	}

	var n int
	if err := db.QueryRowContext(ctx, query, params.Args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count %s: %w", tableName, err)
	}

	return n, nil
}
