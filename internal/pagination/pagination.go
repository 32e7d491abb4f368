// Package pagination slices list queries into pages. Three strategies share
// one interface so an endpoint can switch between them by configuration.
package pagination

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	sq "github.com/Masterminds/squirrel"

	"go-online-store/internal/model"
)

type Kind string

const (
	PageNumber  Kind = "page_number"
	LimitOffset Kind = "limit_offset"
	Cursor      Kind = "cursor"
)

const (
	DefaultPageSize    = 10
	DefaultMaxPageSize = 100
)

// Position is a decoded cursor: the boundary id and the scan direction.
type Position struct {
	ID      int64
	Reverse bool
}

// Window is the slice of rows a request asks for.
type Window struct {
	Mode   Kind
	Page   int
	Limit  int
	Offset int
	Cursor *Position
}

// Counted reports whether the store should compute a total for this window.
func (w Window) Counted() bool {
	return w.Mode != Cursor
}

// Apply orders the query by idColumn and bounds it to the window. One row
// beyond the limit is requested so the caller can tell whether more exist.
func (w Window) Apply(q sq.SelectBuilder, idColumn string) sq.SelectBuilder {
	if w.Mode == Cursor {
		switch {
		case w.Cursor == nil:
			q = q.OrderBy(idColumn + " ASC")
		case w.Cursor.Reverse:
			q = q.Where(sq.Lt{idColumn: w.Cursor.ID}).OrderBy(idColumn + " DESC")
		default:
			q = q.Where(sq.Gt{idColumn: w.Cursor.ID}).OrderBy(idColumn + " ASC")
		}
		return q.Limit(uint64(w.Limit + 1))
	}

	return q.OrderBy(idColumn + " ASC").Limit(uint64(w.Limit + 1)).Offset(uint64(w.Offset))
}

// Slice describes the rows a store returned for a window.
type Slice struct {
	Len     int
	Total   int
	HasMore bool
	FirstID int64
	LastID  int64
}

// Collect trims the look-ahead row, restores ascending order for reverse
// cursor scans and records the page boundaries.
func Collect[T any](w Window, rows []T, id func(T) int64, total int) ([]T, Slice) {
	hasMore := len(rows) > w.Limit
	if hasMore {
		rows = rows[:w.Limit]
	}

	if w.Mode == Cursor && w.Cursor != nil && w.Cursor.Reverse {
		for i, j := 0, len(rows)-1; i < j; i, j = i+1, j-1 {
			rows[i], rows[j] = rows[j], rows[i]
		}
	}

	s := Slice{Len: len(rows), Total: total, HasMore: hasMore}
	if len(rows) > 0 {
		s.FirstID = id(rows[0])
		s.LastID = id(rows[len(rows)-1])
	}

	return rows, s
}

// Paginator turns query parameters into a window and a returned slice into
// response metadata with absolute next/previous links.
type Paginator interface {
	Kind() Kind
	Window(query url.Values) (Window, error)
	Meta(base *url.URL, w Window, s Slice) (*model.Meta, error)
}

// New builds the paginator for kind. pageSize is the default (and for
// cursors the fixed) page size, maxPageSize caps client-chosen sizes.
func New(kind Kind, pageSize int, maxPageSize int) (Paginator, error) {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	if maxPageSize <= 0 {
		maxPageSize = DefaultMaxPageSize
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}

	switch kind {
	case PageNumber:
		return &pageNumberPaginator{pageSize: pageSize, maxPageSize: maxPageSize}, nil
	case LimitOffset:
		return &limitOffsetPaginator{defaultLimit: pageSize, maxLimit: maxPageSize}, nil
	case Cursor:
		return &cursorPaginator{pageSize: pageSize}, nil
	default:
		return nil, fmt.Errorf("unknown pagination kind %q", kind)
	}
}

// RequestURL rebuilds the absolute URL a request was made to, honouring
// X-Forwarded-Proto and X-Forwarded-Host from a fronting proxy.
func RequestURL(r *http.Request) *url.URL {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if proto := strings.TrimSpace(r.Header.Get("X-Forwarded-Proto")); proto != "" {
		scheme = proto
	}

	host := r.Host
	if forwarded := strings.TrimSpace(r.Header.Get("X-Forwarded-Host")); forwarded != "" {
		host = forwarded
	}

	return &url.URL{
		Scheme:   scheme,
		Host:     host,
		Path:     r.URL.Path,
		RawQuery: r.URL.RawQuery,
	}
}

// link returns base with the given params replaced and the removed params
// dropped.
func link(base *url.URL, set map[string]string, remove ...string) string {
	if base == nil {
		return ""
	}

	u := *base
	q := u.Query()
	for _, key := range remove {
		q.Del(key)
	}
	for key, value := range set {
		q.Set(key, value)
	}
	u.RawQuery = q.Encode()

	return u.String()
}

func positiveInt(raw string) (int, bool) {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}
