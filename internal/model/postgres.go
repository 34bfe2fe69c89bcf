// Copyright (c) 2026 Restkit. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package model

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/taibuivan/restkit/internal/platform/dberr"
)

// sqlOperators maps the compiler's comparison operators to SQL fragments.
// The in/notin operators are expanded separately with ANY/ALL.
var sqlOperators = map[string]string{
	"eq":   "=",
	"ne":   "<>",
	"gt":   ">",
	"gte":  ">=",
	"lt":   "<",
	"lte":  "<=",
	"like": "LIKE",
}

// PostgresModel is a pgx-backed [Model] translating [QueryOptions] into SQL.
//
// Field names flowing into queries come exclusively from the declared
// attribute set: the filter compiler rejects unknown fields before a query is
// ever built, so identifiers interpolated below are trusted.
type PostgresModel struct {
	pool       *pgxpool.Pool
	name       string
	table      string
	pk         string
	attributes []string
}

// NewPostgresModel declares a model bound to a table.
func NewPostgresModel(pool *pgxpool.Pool, name, table, pk string, attributes []string) *PostgresModel {
	return &PostgresModel{pool: pool, name: name, table: table, pk: pk, attributes: attributes}
}

// Name implements [Model].
func (m *PostgresModel) Name() string { return m.name }

// Attributes implements [Model].
func (m *PostgresModel) Attributes() []string { return m.attributes }

// FindByPK implements [Model].
func (m *PostgresModel) FindByPK(ctx context.Context, id string) (Record, error) {
	sql := fmt.Sprintf(
		"SELECT %s FROM %s WHERE %s = $1",
		strings.Join(m.attributes, ", "), m.table, m.pk,
	)
	rows, err := m.pool.Query(ctx, sql, id)
	if err != nil {
		return nil, dberr.Wrap(err, m.name)
	}
	defer rows.Close()

	row, err := m.scanOne(rows)
	if err != nil {
		return nil, dberr.Wrap(err, m.name)
	}
	return &postgresRecord{model: m, row: row}, nil
}

// FindAndCountAll implements [Model]. It issues a COUNT query alongside the
// fetch so the total reflects every matching row, not just the current page.
func (m *PostgresModel) FindAndCountAll(ctx context.Context, opts QueryOptions) ([]Record, int, error) {
	where, args := m.buildWhere(opts)

	var total int
	countSQL := "SELECT COUNT(*) FROM " + m.table + where
	if err := m.pool.QueryRow(ctx, countSQL, args...).Scan(&total); err != nil {
		return nil, 0, dberr.Wrap(err, m.name)
	}

	sql := fmt.Sprintf("SELECT %s FROM %s%s", strings.Join(m.attributes, ", "), m.table, where)
	if len(opts.Order) > 0 {
		terms := make([]string, len(opts.Order))
		for i, term := range opts.Order {
			terms[i] = term.Field + " " + term.Direction
		}
		sql += " ORDER BY " + strings.Join(terms, ", ")
	} else if opts.Marker != "" {
		sql += " ORDER BY " + m.pk + " ASC"
	}
	if opts.Limit > 0 {
		args = append(args, opts.Limit)
		sql += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	if opts.Offset != nil {
		args = append(args, *opts.Offset)
		sql += fmt.Sprintf(" OFFSET $%d", len(args))
	}

	rows, err := m.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, 0, dberr.Wrap(err, m.name)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		row, err := m.scanRow(rows)
		if err != nil {
			return nil, 0, dberr.Wrap(err, m.name)
		}
		records = append(records, &postgresRecord{model: m, row: row})
	}
	if err := rows.Err(); err != nil {
		return nil, 0, dberr.Wrap(err, m.name)
	}
	return records, total, nil
}

// Create implements [Model].
func (m *PostgresModel) Create(ctx context.Context, values map[string]any) (Record, error) {
	var cols []string
	var args []any
	var marks []string
	for _, attr := range m.attributes {
		if v, ok := values[attr]; ok {
			cols = append(cols, attr)
			args = append(args, v)
			marks = append(marks, fmt.Sprintf("$%d", len(args)))
		}
	}
	sql := fmt.Sprintf(
		"INSERT INTO %s (%s) VALUES (%s) RETURNING %s",
		m.table, strings.Join(cols, ", "), strings.Join(marks, ", "),
		strings.Join(m.attributes, ", "),
	)
	rows, err := m.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, dberr.Wrap(err, m.name)
	}
	defer rows.Close()

	row, err := m.scanOne(rows)
	if err != nil {
		return nil, dberr.Wrap(err, m.name)
	}
	return &postgresRecord{model: m, row: row}, nil
}

// buildWhere renders the criteria conjunction and the optional keyset marker.
func (m *PostgresModel) buildWhere(opts QueryOptions) (string, []any) {
	var clauses []string
	var args []any
	for field, criteria := range opts.Where {
		for op, value := range criteria {
			switch op {
			case "in", "notin":
				args = append(args, toTextSlice(value))
				verb := "= ANY"
				if op == "notin" {
					verb = "<> ALL"
				}
				clauses = append(clauses, fmt.Sprintf("%s::text %s($%d)", field, verb, len(args)))
			default:
				args = append(args, value)
				clauses = append(clauses, fmt.Sprintf("%s %s $%d", field, sqlOperators[op], len(args)))
			}
		}
	}
	if opts.Marker != "" {
		args = append(args, opts.Marker)
		clauses = append(clauses, fmt.Sprintf("%s > $%d", m.pk, len(args)))
	}
	if len(clauses) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

func toTextSlice(value any) []string {
	if s, ok := value.([]string); ok {
		return s
	}
	return []string{fmt.Sprint(value)}
}

func (m *PostgresModel) scanOne(rows pgx.Rows) (map[string]any, error) {
	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, err
		}
		return nil, pgx.ErrNoRows
	}
	return m.scanRow(rows)
}

func (m *PostgresModel) scanRow(rows pgx.Rows) (map[string]any, error) {
	values, err := rows.Values()
	if err != nil {
		return nil, err
	}
	row := make(map[string]any, len(m.attributes))
	for i, attr := range m.attributes {
		row[attr] = values[i]
	}
	return row, nil
}

// # Record

type postgresRecord struct {
	model *PostgresModel
	row   map[string]any
}

func (r *postgresRecord) PrimaryKey() any   { return r.row[r.model.pk] }
func (r *postgresRecord) ModelName() string { return r.model.name }

func (r *postgresRecord) Fields() map[string]any {
	out := make(map[string]any, len(r.row))
	for k, v := range r.row {
		out[k] = v
	}
	return out
}

// Set updates a single attribute in place. Call Save to persist.
func (r *postgresRecord) Set(field string, value any) {
	r.row[field] = value
}

func (r *postgresRecord) Save(ctx context.Context) error {
	m := r.model
	var sets []string
	var args []any
	for _, attr := range m.attributes {
		if attr == m.pk {
			continue
		}
		args = append(args, r.row[attr])
		sets = append(sets, fmt.Sprintf("%s = $%d", attr, len(args)))
	}
	args = append(args, r.row[m.pk])
	sql := fmt.Sprintf("UPDATE %s SET %s WHERE %s = $%d",
		m.table, strings.Join(sets, ", "), m.pk, len(args))
	if _, err := m.pool.Exec(ctx, sql, args...); err != nil {
		return dberr.Wrap(err, m.name)
	}
	return nil
}

func (r *postgresRecord) Destroy(ctx context.Context) error {
	m := r.model
	sql := fmt.Sprintf("DELETE FROM %s WHERE %s = $1", m.table, m.pk)
	if _, err := m.pool.Exec(ctx, sql, r.row[m.pk]); err != nil {
		return dberr.Wrap(err, m.name)
	}
	return nil
}
