/*
SPDX-FileCopyrightText: Red Hat

SPDX-License-Identifier: Apache-2.0
*/

package utils

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stephenafamo/bob"
	"github.com/stephenafamo/bob/dialect/psql"
	"github.com/stephenafamo/bob/dialect/psql/dialect"
	"github.com/stephenafamo/bob/dialect/psql/dm"
	"github.com/stephenafamo/bob/dialect/psql/im"
	"github.com/stephenafamo/bob/dialect/psql/sm"

	"github.com/skywatch-aero/alertmirror/internal/service/common/db"
)

// ErrNotFound is returned by Find when no tuple matches the requested key.
var ErrNotFound = errors.New("record not found")

// DBQuery is the subset of pgx operations the repository helpers need.  It is satisfied by
// *pgxpool.Pool, pgx.Tx, and the pgxmock pool used in tests.
type DBQuery interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Find retrieves the tuple matching the primary key or returns ErrNotFound.
func Find[T db.Model](ctx context.Context, dbConn DBQuery, key any) (*T, error) {
	var record T
	tags := GetAllDBTagsFromStruct(record)

	query, args, err := psql.Select(
		sm.Columns(tags.Columns()...),
		sm.From(record.TableName()),
		sm.Where(psql.Quote(record.PrimaryKey()).EQ(psql.Arg(key))),
	).Build(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	rows, _ := dbConn.Query(ctx, query, args...) // note: err is passed on to Collect* func so we can ignore this
	record, err = pgx.CollectExactlyOneRow(rows, pgx.RowToStructByNameLax[T])
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to call database: %w", err)
	}

	return &record, nil
}

// FindAll retrieves all tuples from the model's table.  An empty slice is returned when the table
// has no rows.
func FindAll[T db.Model](ctx context.Context, dbConn DBQuery) ([]T, error) {
	var record T
	tags := GetAllDBTagsFromStruct(record)

	query, args, err := psql.Select(
		sm.Columns(tags.Columns()...),
		sm.From(record.TableName()),
	).Build(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	rows, _ := dbConn.Query(ctx, query, args...) // note: err is passed on to Collect* func so we can ignore this
	records, err := pgx.CollectRows(rows, pgx.RowToStructByNameLax[T])
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return []T{}, nil
		}
		return nil, fmt.Errorf("failed to call database: %w", err)
	}

	return records, nil
}

// Search retrieves all tuples matching the where expressions.  Multiple expressions are combined
// with AND.
func Search[T db.Model](ctx context.Context, dbConn DBQuery, exprs ...bob.Expression) ([]T, error) {
	var record T
	tags := GetAllDBTagsFromStruct(record)

	mods := []bob.Mod[*dialect.SelectQuery]{
		sm.Columns(tags.Columns()...),
		sm.From(record.TableName()),
	}
	for _, expr := range exprs {
		mods = append(mods, sm.Where(expr))
	}

	query, args, err := psql.Select(mods...).Build(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	rows, _ := dbConn.Query(ctx, query, args...) // note: err is passed on to Collect* func so we can ignore this
	records, err := pgx.CollectRows(rows, pgx.RowToStructByNameLax[T])
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return []T{}, nil
		}
		return nil, fmt.Errorf("failed to call database: %w", err)
	}

	return records, nil
}

// Create inserts a record and returns the stored tuple including any database-assigned defaults.
// When fields are specified only those columns are inserted; otherwise all non-nil columns are.
func Create[T db.Model](ctx context.Context, dbConn DBQuery, record T, fields ...string) (*T, error) {
	var tags DBTag
	if len(fields) > 0 {
		tags = GetDBTagsFromStructFields(record, fields...)
	} else {
		tags = GetNonNilDBTagsFromStruct(record)
	}
	columns, values := GetColumnsAndValues(record, tags)
	allTags := GetAllDBTagsFromStruct(record)

	// Return all columns to get any defaulted values that the DB may set
	query := psql.Insert(im.Into(record.TableName()), im.Returning(allTags.Columns()...))
	query.Expression.Columns = columns
	query.Apply(im.Values(psql.Arg(values...)))

	sql, args, err := query.Build(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to build insert query: %w", err)
	}

	rows, _ := dbConn.Query(ctx, sql, args...) // note: err is passed on to Collect* func so we can ignore this
	record, err = pgx.CollectExactlyOneRow(rows, pgx.RowToStructByNameLax[T])
	if err != nil {
		return nil, fmt.Errorf("failed to extract inserted record: %w", err)
	}

	return &record, nil
}

// Delete deletes the tuples matching the where expression and returns the number of rows removed.
func Delete[T db.Model](ctx context.Context, dbConn DBQuery, expr bob.Expression) (int64, error) {
	var record T
	query := psql.Delete(
		dm.From(record.TableName()),
		dm.Where(expr))

	sql, params, err := query.Build(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to build delete query for '%s': %w", record.TableName(), err)
	}

	result, err := dbConn.Exec(ctx, sql, params...)
	if err != nil {
		return 0, fmt.Errorf("failed to delete from '%s': %w", record.TableName(), err)
	}

	return result.RowsAffected(), nil
}

// ExecuteCollectRows runs a previously built query and scans all returned rows.
func ExecuteCollectRows[T db.Model](ctx context.Context, dbConn DBQuery, sql string, params []any) ([]T, error) {
	rows, _ := dbConn.Query(ctx, sql, params...) // note: err is passed on to Collect* func so we can ignore this
	records, err := pgx.CollectRows(rows, pgx.RowToStructByNameLax[T])
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return []T{}, nil
		}
		return nil, fmt.Errorf("failed to collect rows: %w", err)
	}

	if len(records) > 0 {
		var record T
		slog.Debug("records collected", "count", len(records), "table", record.TableName())
	}
	return records, nil
}
