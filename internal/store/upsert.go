package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
)

// Record is one row to upsert: every key column of the target FamilySchema
// plus zero or more measurement columns, keyed by column name. Values are
// driver-neutral Go types (string, float64, *float64, bool, time.Time,
// *time.Time); a nil entry for a measurement column means "no value
// published" and is written as SQL NULL, never coerced to zero.
type Record map[string]interface{}

// UpsertFamily performs the idempotent upsert spec.md §4.5 describes:
// existing key-tuples are updated only when a measurement actually
// differs, new key-tuples are inserted, and unchanged rows are left alone.
// All of records commit atomically within tx; the caller owns the
// transaction boundary (one per job, per spec.md §4.5).
func (s *Store) UpsertFamily(ctx context.Context, tx *sqlx.Tx, family string, records []Record) (inserted, updated int, err error) {
	schema, ok := Families[family]
	if !ok {
		return 0, 0, fmt.Errorf("store: unknown family %q", family)
	}

	for _, rec := range records {
		existing, err := s.selectExisting(ctx, tx, schema, rec)
		switch {
		case errors.Is(err, sql.ErrNoRows):
			if err := s.insertRow(ctx, tx, schema, rec); err != nil {
				return inserted, updated, err
			}
			inserted++
		case err != nil:
			return inserted, updated, err
		default:
			if measurementsDiffer(schema, existing, rec) {
				if err := s.updateRow(ctx, tx, schema, rec); err != nil {
					return inserted, updated, err
				}
				updated++
			}
		}
	}

	return inserted, updated, nil
}

func (s *Store) selectExisting(ctx context.Context, tx *sqlx.Tx, schema FamilySchema, rec Record) (Record, error) {
	cols := append([]string{}, schema.Measurements...)
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE %s`,
		strings.Join(cols, ", "), schema.Table, whereKeyClause(schema))
	query = tx.Rebind(query)

	rows, err := tx.QueryxContext(ctx, query, keyArgs(schema, rec)...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, sql.ErrNoRows
	}
	result := make(Record, len(cols))
	if err := rows.MapScan(result); err != nil {
		return nil, err
	}
	return result, rows.Err()
}

func (s *Store) insertRow(ctx context.Context, tx *sqlx.Tx, schema FamilySchema, rec Record) error {
	cols := schema.allColumns()
	placeholders := make([]string, len(cols))
	args := make([]interface{}, len(cols))
	for i, c := range cols {
		placeholders[i] = "?"
		args[i] = rec[c]
	}
	query := fmt.Sprintf(`INSERT INTO %s (%s) VALUES (%s)`,
		schema.Table, strings.Join(cols, ", "), strings.Join(placeholders, ", "))
	_, err := tx.ExecContext(ctx, tx.Rebind(query), args...)
	return err
}

func (s *Store) updateRow(ctx context.Context, tx *sqlx.Tx, schema FamilySchema, rec Record) error {
	setClauses := make([]string, len(schema.Measurements))
	args := make([]interface{}, 0, len(schema.Measurements)+len(schema.KeyColumns))
	for i, c := range schema.Measurements {
		setClauses[i] = fmt.Sprintf("%s = ?", c)
		args = append(args, rec[c])
	}
	args = append(args, keyArgs(schema, rec)...)

	query := fmt.Sprintf(`UPDATE %s SET %s WHERE %s`,
		schema.Table, strings.Join(setClauses, ", "), whereKeyClause(schema))
	_, err := tx.ExecContext(ctx, tx.Rebind(query), args...)
	return err
}

func whereKeyClause(schema FamilySchema) string {
	clauses := make([]string, len(schema.KeyColumns))
	for i, c := range schema.KeyColumns {
		clauses[i] = fmt.Sprintf("%s = ?", c)
	}
	return strings.Join(clauses, " AND ")
}

func keyArgs(schema FamilySchema, rec Record) []interface{} {
	args := make([]interface{}, len(schema.KeyColumns))
	for i, c := range schema.KeyColumns {
		args[i] = rec[c]
	}
	return args
}

// measurementsDiffer reports whether any measurement column in rec differs
// from the corresponding value already persisted in existing. A row is
// "updated" only when this is true (spec.md §4.5 exact-count requirement).
func measurementsDiffer(schema FamilySchema, existing, rec Record) bool {
	for _, c := range schema.Measurements {
		if !valuesEqual(existing[c], rec[c]) {
			return true
		}
	}
	return false
}

func valuesEqual(a, b interface{}) bool {
	an, aNil := isNullLike(a)
	bn, bNil := isNullLike(b)
	if aNil || bNil {
		return aNil == bNil
	}

	af, aIsFloat := toFloat(an)
	bf, bIsFloat := toFloat(bn)
	if aIsFloat && bIsFloat {
		return af == bf
	}
	return fmt.Sprintf("%v", an) == fmt.Sprintf("%v", bn)
}

func isNullLike(v interface{}) (interface{}, bool) {
	if v == nil {
		return nil, true
	}
	switch p := v.(type) {
	case *float64:
		if p == nil {
			return nil, true
		}
		return *p, false
	case *bool:
		if p == nil {
			return nil, true
		}
		return *p, false
	case sql.NullFloat64:
		if !p.Valid {
			return nil, true
		}
		return p.Float64, false
	case sql.NullString:
		if !p.Valid {
			return nil, true
		}
		return p.String, false
	case []byte:
		if p == nil {
			return nil, true
		}
		return string(p), false
	default:
		return v, false
	}
}

func toFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int64:
		return float64(n), true
	case int:
		return float64(n), true
	default:
		return 0, false
	}
}
