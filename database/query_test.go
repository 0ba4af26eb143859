package database

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testFields = map[string]QueryField{
	"id":          {Column: "id"},
	"name":        {Column: "name"},
	"tag":         {Column: "tag"},
	"zipcode":     {Column: "zipcode"},
	"averageCost": {Column: "average_cost", Kind: FieldNumber},
	"housing":     {Column: "housing", Kind: FieldBool},
	"careers":     {Column: "careers"},
	"createdAt":   {Column: "created_at"},
}

func TestParseQuery_Defaults(t *testing.T) {
	opts, err := ParseQuery(url.Values{}, testFields)
	require.NoError(t, err)

	assert.Equal(t, DefaultPage, opts.Page)
	assert.Equal(t, DefaultLimit, opts.Limit)
	assert.Equal(t, "created_at DESC", opts.OrderBy)
	assert.Empty(t, opts.Filters)
	assert.Empty(t, opts.SelectColumns)
}

func TestParseQuery_Operators(t *testing.T) {
	values, err := url.ParseQuery("averageCost[lte]=10000&averageCost[gte]=1000")
	require.NoError(t, err)

	opts, err := ParseQuery(values, testFields)
	require.NoError(t, err)
	require.Len(t, opts.Filters, 2)

	assert.Equal(t, Filter{Column: "average_cost", Op: "gte", Value: int64(1000)}, opts.Filters[0])
	assert.Equal(t, Filter{Column: "average_cost", Op: "lte", Value: int64(10000)}, opts.Filters[1])
}

func TestParseQuery_EqualityAndBools(t *testing.T) {
	values, err := url.ParseQuery("housing=true&name=Devworks")
	require.NoError(t, err)

	opts, err := ParseQuery(values, testFields)
	require.NoError(t, err)
	require.Len(t, opts.Filters, 2)

	assert.Equal(t, Filter{Column: "housing", Op: "eq", Value: true}, opts.Filters[0])
	assert.Equal(t, Filter{Column: "name", Op: "eq", Value: "Devworks"}, opts.Filters[1])
}

func TestParseQuery_InSplitsMembers(t *testing.T) {
	values, err := url.ParseQuery("careers[in]=Business,UI/UX")
	require.NoError(t, err)

	opts, err := ParseQuery(values, testFields)
	require.NoError(t, err)
	require.Len(t, opts.Filters, 1)

	assert.Equal(t, "in", opts.Filters[0].Op)
	assert.Equal(t, []any{"Business", "UI/UX"}, opts.Filters[0].Value)
}

// A field name that merely contains operator letters must stay an equality
// match, and a bracket suffix that is not exactly an operator is not an
// operator key at all.
func TestParseQuery_OperatorMatchesWholeWordsOnly(t *testing.T) {
	values, err := url.ParseQuery("tag=ingta")
	require.NoError(t, err)

	opts, err := ParseQuery(values, testFields)
	require.NoError(t, err)
	require.Len(t, opts.Filters, 1)
	assert.Equal(t, Filter{Column: "tag", Op: "eq", Value: "ingta"}, opts.Filters[0])

	values, err = url.ParseQuery("name[gt100]=x")
	require.NoError(t, err)
	_, err = ParseQuery(values, testFields)
	assert.Error(t, err)
}

func TestParseQuery_UnknownFieldRejected(t *testing.T) {
	values, err := url.ParseQuery("password=secret")
	require.NoError(t, err)

	_, err = ParseQuery(values, testFields)
	assert.Error(t, err)
}

func TestParseQuery_SelectAlwaysIncludesID(t *testing.T) {
	values, err := url.ParseQuery("select=name,averageCost")
	require.NoError(t, err)

	opts, err := ParseQuery(values, testFields)
	require.NoError(t, err)
	assert.Equal(t, []string{"id", "name", "average_cost"}, opts.SelectColumns)
}

func TestParseQuery_Sort(t *testing.T) {
	values, err := url.ParseQuery("sort=-averageCost,name")
	require.NoError(t, err)

	opts, err := ParseQuery(values, testFields)
	require.NoError(t, err)
	assert.Equal(t, "average_cost DESC, name ASC", opts.OrderBy)
}

func TestParseQuery_PageAndLimitClamped(t *testing.T) {
	cases := []struct {
		name      string
		query     string
		wantPage  int
		wantLimit int
	}{
		{"negative page floors at one", "page=-3", 1, DefaultLimit},
		{"zero limit floors at one", "limit=0", 1, 1},
		{"oversized limit capped", "limit=5000", 1, MaxLimit},
		{"unparsable values keep defaults", "page=abc&limit=xyz", DefaultPage, DefaultLimit},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			values, err := url.ParseQuery(tc.query)
			require.NoError(t, err)

			opts, err := ParseQuery(values, testFields)
			require.NoError(t, err)
			assert.Equal(t, tc.wantPage, opts.Page)
			assert.Equal(t, tc.wantLimit, opts.Limit)
		})
	}
}

func TestPaginationFor(t *testing.T) {
	t.Run("first page of thirty has next only", func(t *testing.T) {
		p := paginationFor(1, 25, 30)
		require.NotNil(t, p.Next)
		assert.Equal(t, PageRef{Page: 2, Limit: 25}, *p.Next)
		assert.Nil(t, p.Prev)
	})

	t.Run("last page has prev only", func(t *testing.T) {
		p := paginationFor(2, 25, 30)
		assert.Nil(t, p.Next)
		require.NotNil(t, p.Prev)
		assert.Equal(t, PageRef{Page: 1, Limit: 25}, *p.Prev)
	})

	t.Run("middle page has both", func(t *testing.T) {
		p := paginationFor(2, 10, 30)
		require.NotNil(t, p.Next)
		require.NotNil(t, p.Prev)
	})

	t.Run("single page has neither", func(t *testing.T) {
		p := paginationFor(1, 25, 10)
		assert.Nil(t, p.Next)
		assert.Nil(t, p.Prev)
	})

	t.Run("exact boundary has no next", func(t *testing.T) {
		p := paginationFor(2, 25, 50)
		assert.Nil(t, p.Next)
	})
}

func TestCoerceValue(t *testing.T) {
	assert.Equal(t, true, coerceValue("true", FieldBool))
	assert.Equal(t, false, coerceValue("false", FieldBool))
	assert.Equal(t, int64(42), coerceValue("42", FieldNumber))
	assert.Equal(t, 1.5, coerceValue("1.5", FieldNumber))
	assert.Equal(t, "Devworks", coerceValue("Devworks", FieldString))

	// Digit-like values on string columns keep their raw form; a zipcode
	// must not collapse to the integer 2108.
	assert.Equal(t, "02108", coerceValue("02108", FieldString))
	assert.Equal(t, "8", coerceValue("8", FieldString))
	assert.Equal(t, "true", coerceValue("true", FieldString))
}

// Filtering a text column by a numeric-looking literal must bind a string,
// both for equality and for in-list membership.
func TestParseQuery_StringColumnsKeepRawLiterals(t *testing.T) {
	values, err := url.ParseQuery("zipcode=02108&averageCost=5000")
	require.NoError(t, err)

	opts, err := ParseQuery(values, testFields)
	require.NoError(t, err)
	require.Len(t, opts.Filters, 2)

	assert.Equal(t, Filter{Column: "average_cost", Op: "eq", Value: int64(5000)}, opts.Filters[0])
	assert.Equal(t, Filter{Column: "zipcode", Op: "eq", Value: "02108"}, opts.Filters[1])

	values, err = url.ParseQuery("zipcode[in]=02108,80014")
	require.NoError(t, err)

	opts, err = ParseQuery(values, testFields)
	require.NoError(t, err)
	require.Len(t, opts.Filters, 1)
	assert.Equal(t, []any{"02108", "80014"}, opts.Filters[0].Value)
}

func TestEnsureColumn(t *testing.T) {
	assert.Empty(t, ensureColumn(nil, "bootcamp_id"))
	assert.Equal(t, []string{"id", "title", "bootcamp_id"}, ensureColumn([]string{"id", "title"}, "bootcamp_id"))
	assert.Equal(t, []string{"id", "bootcamp_id"}, ensureColumn([]string{"id", "bootcamp_id"}, "bootcamp_id"))
}
