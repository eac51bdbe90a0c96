package dbhelper

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"

	"github.com/ray-remotestate/tableside/database"
	"github.com/ray-remotestate/tableside/models"
	"github.com/ray-remotestate/tableside/storage"
)

type SQLExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// Remote is a storage.Backend over one Postgres table.
type Remote[T models.Record] struct {
	db      *sql.DB
	schema  Schema
	timeout time.Duration
}

func NewRemote[T models.Record](db *sql.DB, schema Schema, timeout time.Duration) *Remote[T] {
	return &Remote[T]{db: db, schema: schema, timeout: timeout}
}

func (r *Remote[T]) fail(op string, err error) error {
	return &storage.StoreError{Op: op, Collection: r.schema.Collection, Err: err}
}

func (r *Remote[T]) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if r.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, r.timeout)
}

func (r *Remote[T]) Load(ctx context.Context) ([]T, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	cols := quoteAll(r.schema.Columns)
	query := fmt.Sprintf(`SELECT %s FROM %s ORDER BY %s`,
		strings.Join(cols, ", "), pq.QuoteIdentifier(r.schema.Table), r.schema.OrderBy)

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, r.fail("load", err)
	}
	defer rows.Close()

	items := []T{}
	for rows.Next() {
		vals := make([]any, len(r.schema.Columns))
		ptrs := make([]any, len(vals))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, r.fail("load", err)
		}

		row := make(Row, len(vals))
		for i, col := range r.schema.Columns {
			row[col] = vals[i]
		}
		fields, err := FromRemote(r.schema, row)
		if err != nil {
			return nil, r.fail("load", err)
		}
		item, err := DecodeRecord[T](fields)
		if err != nil {
			return nil, r.fail("load", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, r.fail("load", err)
	}
	return items, nil
}

// Save replaces the whole table with items in one transaction.
func (r *Remote[T]) Save(ctx context.Context, items []T) error {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	err := database.Tx(ctx, r.db, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, fmt.Sprintf(`DELETE FROM %s`, pq.QuoteIdentifier(r.schema.Table))); err != nil {
			return err
		}
		for _, item := range items {
			if err := r.upsert(ctx, tx, item); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return r.fail("save", err)
	}
	return nil
}

func (r *Remote[T]) Add(ctx context.Context, item T) (T, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	if err := r.upsert(ctx, r.db, item); err != nil {
		return item, r.fail("add", err)
	}
	return item, nil
}

func (r *Remote[T]) Update(ctx context.Context, id string, patch models.Patch) (bool, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	row, err := ToRemote(r.schema, patch)
	if err != nil {
		return false, r.fail("update", err)
	}
	delete(row, r.schema.Key)

	key := pq.QuoteIdentifier(r.schema.Key)
	sets := []string{}
	args := []any{}
	for _, col := range r.schema.Columns {
		v, ok := row[col]
		if !ok {
			continue
		}
		args = append(args, v)
		sets = append(sets, fmt.Sprintf("%s = $%d", pq.QuoteIdentifier(col), len(args)))
	}
	if len(sets) == 0 {
		sets = append(sets, fmt.Sprintf("%s = %s", key, key))
	}
	args = append(args, id)

	query := fmt.Sprintf(`UPDATE %s SET %s WHERE %s = $%d`,
		pq.QuoteIdentifier(r.schema.Table), strings.Join(sets, ", "), key, len(args))
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return false, r.fail("update", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, r.fail("update", err)
	}
	return n > 0, nil
}

func (r *Remote[T]) Delete(ctx context.Context, id string) (bool, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	query := fmt.Sprintf(`DELETE FROM %s WHERE %s = $1`,
		pq.QuoteIdentifier(r.schema.Table), pq.QuoteIdentifier(r.schema.Key))
	res, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return false, r.fail("delete", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, r.fail("delete", err)
	}
	return n > 0, nil
}

// Ping reports whether the remote store answers.
func (r *Remote[T]) Ping(ctx context.Context) error {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()
	return r.db.PingContext(ctx)
}

func (r *Remote[T]) upsert(ctx context.Context, exec SQLExecutor, item T) error {
	fields, err := EncodeRecord(item)
	if err != nil {
		return err
	}
	row, err := ToRemote(r.schema, fields)
	if err != nil {
		return err
	}

	cols := []string{}
	holders := []string{}
	updates := []string{}
	args := []any{}
	for _, col := range r.schema.Columns {
		v, ok := row[col]
		if !ok {
			continue
		}
		args = append(args, v)
		quoted := pq.QuoteIdentifier(col)
		cols = append(cols, quoted)
		holders = append(holders, fmt.Sprintf("$%d", len(args)))
		if col != r.schema.Key {
			updates = append(updates, fmt.Sprintf("%s = EXCLUDED.%s", quoted, quoted))
		}
	}

	query := fmt.Sprintf(`INSERT INTO %s (%s) VALUES (%s) ON CONFLICT (%s) DO UPDATE SET %s`,
		pq.QuoteIdentifier(r.schema.Table), strings.Join(cols, ", "), strings.Join(holders, ", "),
		pq.QuoteIdentifier(r.schema.Key), strings.Join(updates, ", "))
	_, err = exec.ExecContext(ctx, query, args...)
	return err
}

func quoteAll(cols []string) []string {
	out := make([]string, len(cols))
	for i, c := range cols {
		out[i] = pq.QuoteIdentifier(c)
	}
	return out
}
