package pagination

import (
	"net/http/httptest"
	"net/url"
	"testing"

	sq "github.com/Masterminds/squirrel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-online-store/pkg/apierror"
)

func mustURL(t *testing.T, raw string) *url.URL {
	t.Helper()
	u, err := url.Parse(raw)
	require.NoError(t, err)
	return u
}

func ids(n ...int64) []int64 { return n }

func identity(id int64) int64 { return id }

func TestNewRejectsUnknownKind(t *testing.T) {
	t.Parallel()

	_, err := New("keyset", 10, 100)
	assert.Error(t, err)
}

func TestPageNumberWindow(t *testing.T) {
	t.Parallel()

	p, err := New(PageNumber, 5, 20)
	require.NoError(t, err)

	w, err := p.Window(url.Values{})
	require.NoError(t, err)
	assert.Equal(t, Window{Mode: PageNumber, Page: 1, Limit: 5, Offset: 0}, w)

	w, err = p.Window(url.Values{"page": {"3"}, "page_size": {"500"}})
	require.NoError(t, err)
	assert.Equal(t, 20, w.Limit)
	assert.Equal(t, 40, w.Offset)

	for _, bad := range []string{"0", "-1", "abc", "last", "9223372036854775807", "1844674407370955162"} {
		_, err = p.Window(url.Values{"page": {bad}})
		assert.True(t, apierror.HasCode(err, apierror.CodeNotFound), bad)
	}
}

func TestPageNumberMeta(t *testing.T) {
	t.Parallel()

	p, _ := New(PageNumber, 5, 20)
	base := mustURL(t, "http://shop.test/api/v1/catalog/products?page=2&tag=home")

	w, _ := p.Window(base.Query())
	meta, err := p.Meta(base, w, Slice{Len: 5, Total: 12})
	require.NoError(t, err)

	assert.Equal(t, 2, meta.Page)
	assert.Equal(t, 3, meta.TotalPages)
	assert.Equal(t, 12, *meta.Total)
	assert.Equal(t, "http://shop.test/api/v1/catalog/products?page=3&tag=home", meta.Next)
	assert.Equal(t, "http://shop.test/api/v1/catalog/products?tag=home", meta.Previous)

	t.Run("page past the end is not found", func(t *testing.T) {
		w, _ := p.Window(url.Values{"page": {"4"}})
		_, err := p.Meta(base, w, Slice{Total: 12})
		assert.True(t, apierror.HasCode(err, apierror.CodeNotFound))
	})

	t.Run("first page of an empty set is valid", func(t *testing.T) {
		w, _ := p.Window(url.Values{})
		meta, err := p.Meta(base, w, Slice{})
		require.NoError(t, err)
		assert.Equal(t, 1, meta.TotalPages)
		assert.Empty(t, meta.Next)
		assert.Empty(t, meta.Previous)
	})
}

func TestLimitOffset(t *testing.T) {
	t.Parallel()

	p, _ := New(LimitOffset, 10, 100)

	w, err := p.Window(url.Values{"limit": {"1000"}, "offset": {"nope"}})
	require.NoError(t, err)
	assert.Equal(t, 100, w.Limit)
	assert.Equal(t, 0, w.Offset)

	base := mustURL(t, "http://shop.test/api/v1/users?limit=10&offset=15")
	w, _ = p.Window(base.Query())
	meta, err := p.Meta(base, w, Slice{Len: 10, Total: 40})
	require.NoError(t, err)

	assert.Equal(t, 15, *meta.Offset)
	assert.Equal(t, "http://shop.test/api/v1/users?limit=10&offset=25", meta.Next)
	assert.Equal(t, "http://shop.test/api/v1/users?limit=10&offset=5", meta.Previous)

	w, _ = p.Window(url.Values{"limit": {"10"}, "offset": {"35"}})
	meta, _ = p.Meta(base, w, Slice{Len: 5, Total: 40})
	assert.Empty(t, meta.Next)

	w, err = p.Window(url.Values{"limit": {"100"}, "offset": {"9223372036854775800"}})
	require.NoError(t, err)
	meta, err = p.Meta(base, w, Slice{Total: 40})
	require.NoError(t, err)
	assert.Empty(t, meta.Next)
}

func TestCursorRoundTrip(t *testing.T) {
	t.Parallel()

	for _, pos := range []Position{{ID: 0}, {ID: 42}, {ID: 7, Reverse: true}} {
		got, err := DecodeCursor(EncodeCursor(pos))
		require.NoError(t, err)
		assert.Equal(t, pos, got)
	}

	for _, bad := range []string{"!!!", "cD1hYmM=", "cD0xJnI9Mg=="} {
		_, err := DecodeCursor(bad)
		assert.True(t, apierror.HasCode(err, apierror.CodeNotFound), bad)
	}
}

func TestCursorPaging(t *testing.T) {
	t.Parallel()

	p, _ := New(Cursor, 2, 100)
	base := mustURL(t, "http://shop.test/api/v1/products")

	// First page: ids 1,2 plus a look-ahead row.
	w, err := p.Window(url.Values{})
	require.NoError(t, err)
	rows, s := Collect(w, ids(1, 2, 3), identity, 0)
	assert.Equal(t, ids(1, 2), rows)

	meta, err := p.Meta(base, w, s)
	require.NoError(t, err)
	assert.Empty(t, meta.Previous)
	require.NotEmpty(t, meta.Next)
	assert.Nil(t, meta.Total)

	next := mustURL(t, meta.Next)
	w, err = p.Window(next.Query())
	require.NoError(t, err)
	assert.Equal(t, &Position{ID: 2}, w.Cursor)

	// Second page: ids 3,4 and nothing after.
	rows, s = Collect(w, ids(3, 4), identity, 0)
	meta, _ = p.Meta(base, w, s)
	assert.Equal(t, ids(3, 4), rows)
	assert.Empty(t, meta.Next)
	require.NotEmpty(t, meta.Previous)

	prev := mustURL(t, meta.Previous)
	w, _ = p.Window(prev.Query())
	assert.Equal(t, &Position{ID: 3, Reverse: true}, w.Cursor)

	// Reverse scan comes back descending and is restored to ascending.
	rows, s = Collect(w, ids(2, 1), identity, 0)
	assert.Equal(t, ids(1, 2), rows)
	meta, _ = p.Meta(base, w, s)
	assert.Empty(t, meta.Previous)
	assert.NotEmpty(t, meta.Next)
}

func TestWindowApply(t *testing.T) {
	t.Parallel()

	base := sq.Select("id").From("products")

	query, _, err := Window{Mode: PageNumber, Page: 2, Limit: 5, Offset: 5}.Apply(base, "id").ToSql()
	require.NoError(t, err)
	assert.Equal(t, "SELECT id FROM products ORDER BY id ASC LIMIT 6 OFFSET 5", query)

	query, args, err := Window{Mode: Cursor, Limit: 5, Cursor: &Position{ID: 9, Reverse: true}}.Apply(base, "id").ToSql()
	require.NoError(t, err)
	assert.Equal(t, "SELECT id FROM products WHERE id < ? ORDER BY id DESC LIMIT 6", query)
	assert.Equal(t, []any{int64(9)}, args)
}

func TestRequestURLHonoursForwardedHeaders(t *testing.T) {
	t.Parallel()

	r := httptest.NewRequest("GET", "http://internal:8080/api/v1/products?page=2", nil)
	r.Header.Set("X-Forwarded-Proto", "https")
	r.Header.Set("X-Forwarded-Host", "shop.example.com")

	assert.Equal(t, "https://shop.example.com/api/v1/products?page=2", RequestURL(r).String())
}
