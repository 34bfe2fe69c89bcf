// Copyright (c) 2026 Restkit. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package model

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/taibuivan/restkit/internal/platform/apperr"
)

// MemoryModel is an in-memory [Model] implementation backed by a slice of
// rows. It honors the full [QueryOptions] semantics and is used by the demo
// application and the test suites.
type MemoryModel struct {
	name       string
	pk         string
	attributes []string

	mu   sync.RWMutex
	rows []map[string]any
	next int
}

// NewMemoryModel creates an empty model with the given name, primary-key
// attribute, and declared attribute set.
func NewMemoryModel(name, pk string, attributes []string) *MemoryModel {
	return &MemoryModel{
		name:       name,
		pk:         pk,
		attributes: attributes,
		next:       1,
	}
}

// Name implements [Model].
func (m *MemoryModel) Name() string { return m.name }

// Attributes implements [Model].
func (m *MemoryModel) Attributes() []string { return m.attributes }

// Seed inserts rows without assigning primary keys. Intended for fixtures.
func (m *MemoryModel) Seed(rows ...map[string]any) *MemoryModel {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, row := range rows {
		m.rows = append(m.rows, row)
		if id, ok := toFloat(row[m.pk]); ok && int(id) >= m.next {
			m.next = int(id) + 1
		}
	}
	return m
}

// FindByPK implements [Model].
func (m *MemoryModel) FindByPK(ctx context.Context, id string) (Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, row := range m.rows {
		if fmt.Sprint(row[m.pk]) == id {
			return &memoryRecord{model: m, row: row}, nil
		}
	}
	return nil, apperr.NotFound(m.name+" not found", 0)
}

// FindAndCountAll implements [Model]. The count reflects every row matching
// the criteria, independent of limit and offset.
func (m *MemoryModel) FindAndCountAll(ctx context.Context, opts QueryOptions) ([]Record, int, error) {
	m.mu.RLock()
	matched := make([]map[string]any, 0, len(m.rows))
	for _, row := range m.rows {
		ok, err := matchWhere(row, opts.Where)
		if err != nil {
			m.mu.RUnlock()
			return nil, 0, err
		}
		if ok {
			matched = append(matched, row)
		}
	}
	m.mu.RUnlock()

	if opts.Marker != "" {
		// Keyset pagination: the marker is the last seen primary key.
		// Mutually exclusive with offset and order, enforced by the compiler.
		afterMarker := matched[:0]
		for _, row := range matched {
			if compare(row[m.pk], opts.Marker) > 0 {
				afterMarker = append(afterMarker, row)
			}
		}
		matched = afterMarker
		applyOrder(matched, []OrderTerm{{Field: m.pk, Direction: "ASC"}})
	}

	applyOrder(matched, opts.Order)

	total := len(matched)
	start := 0
	if opts.Offset != nil {
		start = min(*opts.Offset, total)
	}
	end := total
	if opts.Limit > 0 {
		end = min(start+opts.Limit, total)
	}

	records := make([]Record, 0, end-start)
	for _, row := range matched[start:end] {
		records = append(records, &memoryRecord{model: m, row: row})
	}
	return records, total, nil
}

// Create implements [Model]. A missing primary key is assigned from an
// incrementing sequence.
func (m *MemoryModel) Create(ctx context.Context, values map[string]any) (Record, error) {
	row := make(map[string]any, len(values)+1)
	for _, attr := range m.attributes {
		if v, ok := values[attr]; ok {
			row[attr] = v
		}
	}
	m.mu.Lock()
	if _, ok := row[m.pk]; !ok {
		row[m.pk] = m.next
		m.next++
	}
	m.rows = append(m.rows, row)
	m.mu.Unlock()
	return &memoryRecord{model: m, row: row}, nil
}

// # Record

type memoryRecord struct {
	model *MemoryModel
	row   map[string]any
}

func (r *memoryRecord) PrimaryKey() any   { return r.row[r.model.pk] }
func (r *memoryRecord) ModelName() string { return r.model.name }

func (r *memoryRecord) Fields() map[string]any {
	out := make(map[string]any, len(r.row))
	for k, v := range r.row {
		out[k] = v
	}
	return out
}

// Set updates a single attribute in place. Call Save to persist.
func (r *memoryRecord) Set(field string, value any) {
	r.row[field] = value
}

func (r *memoryRecord) Save(ctx context.Context) error {
	// Rows are shared references; in-place mutation is already visible.
	return nil
}

func (r *memoryRecord) Destroy(ctx context.Context) error {
	m := r.model
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, row := range m.rows {
		if fmt.Sprint(row[m.pk]) == fmt.Sprint(r.row[m.pk]) {
			m.rows = append(m.rows[:i], m.rows[i+1:]...)
			return nil
		}
	}
	return nil
}

// # Criteria Evaluation

// matchWhere evaluates the conjunction of every per-field criterion.
func matchWhere(row map[string]any, where map[string]map[string]any) (bool, error) {
	for field, criteria := range where {
		for op, expected := range criteria {
			ok, err := matchOperator(row[field], op, expected)
			if err != nil {
				return false, err
			}
			if !ok {
				return false, nil
			}
		}
	}
	return true, nil
}

func matchOperator(actual any, op string, expected any) (bool, error) {
	switch op {
	case "eq":
		return compare(actual, expected) == 0, nil
	case "ne":
		return compare(actual, expected) != 0, nil
	case "gt":
		return compare(actual, expected) > 0, nil
	case "gte":
		return compare(actual, expected) >= 0, nil
	case "lt":
		return compare(actual, expected) < 0, nil
	case "lte":
		return compare(actual, expected) <= 0, nil
	case "in", "notin":
		members, ok := expected.([]string)
		if !ok {
			members = []string{fmt.Sprint(expected)}
		}
		found := false
		for _, member := range members {
			if compare(actual, member) == 0 {
				found = true
				break
			}
		}
		if op == "in" {
			return found, nil
		}
		return !found, nil
	case "like":
		pattern := likePattern(fmt.Sprint(expected))
		return pattern.MatchString(fmt.Sprint(actual)), nil
	default:
		return false, apperr.Internal("Unsupported operator reached the storage layer", 6500, nil)
	}
}

// likePattern converts a SQL LIKE pattern ("%HO%") into a case-insensitive
// anchored regular expression.
func likePattern(pattern string) *regexp.Regexp {
	parts := strings.Split(pattern, "%")
	for i, part := range parts {
		parts[i] = regexp.QuoteMeta(part)
	}
	return regexp.MustCompile("(?i)^" + strings.Join(parts, ".*") + "$")
}

// compare orders two values numerically when both coerce to numbers,
// lexically otherwise.
func compare(a, b any) int {
	if fa, ok := toFloat(a); ok {
		if fb, ok := toFloat(b); ok {
			switch {
			case fa < fb:
				return -1
			case fa > fb:
				return 1
			default:
				return 0
			}
		}
	}
	return strings.Compare(fmt.Sprint(a), fmt.Sprint(b))
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case float64:
		return n, true
	case time.Time:
		return float64(n.UnixMilli()), true
	case string:
		f, err := strconv.ParseFloat(n, 64)
		return f, err == nil
	default:
		return 0, false
	}
}

func applyOrder(rows []map[string]any, order []OrderTerm) {
	if len(order) == 0 {
		return
	}
	sort.SliceStable(rows, func(i, j int) bool {
		for _, term := range order {
			c := compare(rows[i][term.Field], rows[j][term.Field])
			if c == 0 {
				continue
			}
			if term.Direction == "DESC" {
				return c > 0
			}
			return c < 0
		}
		return false
	})
}
