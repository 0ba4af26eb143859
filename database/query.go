package database

import (
	"fmt"
	"net/url"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/Brosquire/nodemaster/errs"
	"gorm.io/gorm"
)

// Pagination window defaults and bounds. Page and limit are clamped rather
// than rejected: page floors at 1, limit is kept within [1, MaxLimit].
const (
	DefaultPage  = 1
	DefaultLimit = 25
	MaxLimit     = 100
)

// PageRef points at a neighbouring page of a listing.
type PageRef struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
}

// Pagination carries the next/prev page references for a listing. A side
// without a page is omitted from the JSON entirely.
type Pagination struct {
	Next *PageRef `json:"next,omitempty"`
	Prev *PageRef `json:"prev,omitempty"`
}

// FieldKind tells the parser how to bind a column's filter values. Only
// numeric and boolean columns get their values coerced; everything else is
// bound as the raw string, so text columns holding digit strings (zipcodes,
// weeks, phone numbers) compare correctly.
type FieldKind int

const (
	FieldString FieldKind = iota
	FieldNumber
	FieldBool
)

// QueryField maps a resource's JSON field name to its column and kind.
type QueryField struct {
	Column string
	Kind   FieldKind
}

// Filter is one field-match condition translated from a query-string pair.
type Filter struct {
	Column string
	Op     string // eq, gt, gte, lt, lte, in
	Value  any
}

// QueryOptions is the parsed form of a listing request: field filters,
// column projection, sort order and the pagination window.
type QueryOptions struct {
	Filters       []Filter
	SelectColumns []string
	OrderBy       string
	Page          int
	Limit         int
}

var (
	// filterKeyOp splits keys of the form field[op].
	filterKeyOp = regexp.MustCompile(`^(.+)\[(\w+)\]$`)
	// operatorToken matches the comparison operators as whole words, so a
	// field whose name merely contains the letters (e.g. "tag") never
	// triggers a rewrite.
	operatorToken = regexp.MustCompile(`\b(gt|gte|lt|lte|in)\b`)
)

// ParseQuery translates raw query-string values into QueryOptions.
//
// The reserved keys select, sort, page and limit shape the result; every
// other key is a field filter. Keys of the form field[op], where op is one
// of gt, gte, lt, lte or in (matched as a whole word), become range or
// membership conditions; bare keys become equality matches. Field names are
// the resource's JSON names and are resolved to columns through the fields
// map; an unknown name is rejected rather than passed through, since SQL
// has no "matches nothing" semantics for unknown columns.
func ParseQuery(values url.Values, fields map[string]QueryField) (QueryOptions, error) {
	opts := QueryOptions{Page: DefaultPage, Limit: DefaultLimit, OrderBy: "created_at DESC"}

	for key, vals := range values {
		switch key {
		case "select", "sort", "page", "limit":
			continue
		}
		if len(vals) == 0 {
			continue
		}

		field, op := key, "eq"
		if m := filterKeyOp.FindStringSubmatch(key); m != nil && operatorToken.FindString(m[2]) == m[2] {
			field, op = m[1], m[2]
		}

		qf, ok := fields[field]
		if !ok {
			return opts, errs.NewBadRequestError(fmt.Sprintf("cannot filter on unknown field %q", field))
		}

		var value any
		if op == "in" {
			parts := strings.Split(vals[0], ",")
			members := make([]any, 0, len(parts))
			for _, p := range parts {
				members = append(members, coerceValue(strings.TrimSpace(p), qf.Kind))
			}
			value = members
		} else {
			value = coerceValue(vals[0], qf.Kind)
		}

		opts.Filters = append(opts.Filters, Filter{Column: qf.Column, Op: op, Value: value})
	}

	// Map iteration order is random; keep the generated SQL deterministic.
	sort.Slice(opts.Filters, func(i, j int) bool {
		if opts.Filters[i].Column != opts.Filters[j].Column {
			return opts.Filters[i].Column < opts.Filters[j].Column
		}
		return opts.Filters[i].Op < opts.Filters[j].Op
	})

	if sel := values.Get("select"); sel != "" {
		columns := []string{"id"}
		for _, f := range strings.Split(sel, ",") {
			name := strings.TrimSpace(f)
			qf, ok := fields[name]
			if !ok {
				return opts, errs.NewBadRequestError(fmt.Sprintf("cannot select unknown field %q", name))
			}
			if qf.Column != "id" {
				columns = append(columns, qf.Column)
			}
		}
		opts.SelectColumns = columns
	}

	if s := values.Get("sort"); s != "" {
		var orders []string
		for _, f := range strings.Split(s, ",") {
			name := strings.TrimSpace(f)
			direction := " ASC"
			if strings.HasPrefix(name, "-") {
				name = strings.TrimPrefix(name, "-")
				direction = " DESC"
			}
			qf, ok := fields[name]
			if !ok {
				return opts, errs.NewBadRequestError(fmt.Sprintf("cannot sort on unknown field %q", name))
			}
			orders = append(orders, qf.Column+direction)
		}
		opts.OrderBy = strings.Join(orders, ", ")
	}

	if p := values.Get("page"); p != "" {
		if page, err := strconv.Atoi(p); err == nil {
			opts.Page = page
		}
	}
	if opts.Page < 1 {
		opts.Page = 1
	}

	if l := values.Get("limit"); l != "" {
		if limit, err := strconv.Atoi(l); err == nil {
			opts.Limit = limit
		}
	}
	if opts.Limit < 1 {
		opts.Limit = 1
	}
	if opts.Limit > MaxLimit {
		opts.Limit = MaxLimit
	}

	return opts, nil
}

// coerceValue maps a query-string literal onto the Go type the SQL driver
// should bind for the column's kind. String columns keep the raw literal:
// coercing them would corrupt digit-like values such as a zipcode "02108".
func coerceValue(s string, kind FieldKind) any {
	switch kind {
	case FieldBool:
		switch s {
		case "true":
			return true
		case "false":
			return false
		}
	case FieldNumber:
		if i, err := strconv.ParseInt(s, 10, 64); err == nil {
			return i
		}
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return f
		}
	}
	return s
}

func applyFilters(db *gorm.DB, filters []Filter) *gorm.DB {
	for _, f := range filters {
		switch f.Op {
		case "gt":
			db = db.Where(f.Column+" > ?", f.Value)
		case "gte":
			db = db.Where(f.Column+" >= ?", f.Value)
		case "lt":
			db = db.Where(f.Column+" < ?", f.Value)
		case "lte":
			db = db.Where(f.Column+" <= ?", f.Value)
		case "in":
			db = db.Where(f.Column+" IN ?", f.Value)
		default:
			db = db.Where(f.Column+" = ?", f.Value)
		}
	}
	return db
}

// ensureColumn keeps col in a non-empty projection so an eager load that
// joins through it still finds its key. An empty projection selects every
// column and needs no help.
func ensureColumn(columns []string, col string) []string {
	if len(columns) == 0 {
		return columns
	}
	for _, c := range columns {
		if c == col {
			return columns
		}
	}
	return append(columns, col)
}

// paginationFor computes the next/prev references for a window over total
// matches: next exists iff page*limit < total, prev iff (page-1)*limit > 0.
func paginationFor(page, limit int, total int64) Pagination {
	var p Pagination
	if int64(page*limit) < total {
		p.Next = &PageRef{Page: page + 1, Limit: limit}
	}
	if (page-1)*limit > 0 {
		p.Prev = &PageRef{Page: page - 1, Limit: limit}
	}
	return p
}

// Page is one page of a listing plus the metadata the response envelope needs.
type Page[T any] struct {
	Items      []T
	Total      int64
	Pagination Pagination
}

// listPage runs a listing query: a count over the unpaginated filtered set,
// then the projected, sorted, windowed select. preload, when non-nil,
// resolves referenced entities inline.
func listPage[T any](db *gorm.DB, opts QueryOptions, preload func(*gorm.DB) *gorm.DB) (Page[T], error) {
	var page Page[T]
	var model T

	if err := applyFilters(db.Model(&model), opts.Filters).Count(&page.Total).Error; err != nil {
		return page, err
	}

	q := applyFilters(db.Model(&model), opts.Filters)
	if len(opts.SelectColumns) > 0 {
		q = q.Select(opts.SelectColumns)
	}
	if preload != nil {
		q = preload(q)
	}
	q = q.Order(opts.OrderBy).Offset((opts.Page - 1) * opts.Limit).Limit(opts.Limit)
	if err := q.Find(&page.Items).Error; err != nil {
		return page, err
	}

	page.Pagination = paginationFor(opts.Page, opts.Limit, page.Total)
	return page, nil
}
