package pagination

import (
	"encoding/base64"
	"math"
	"net/url"
	"strconv"
	"strings"

	"go-online-store/internal/model"
	"go-online-store/pkg/apierror"
)

const (
	pageParam     = "page"
	pageSizeParam = "page_size"
	limitParam    = "limit"
	offsetParam   = "offset"
	cursorParam   = "cursor"
)

type pageNumberPaginator struct {
	pageSize    int
	maxPageSize int
}

func (p *pageNumberPaginator) Kind() Kind { return PageNumber }

func (p *pageNumberPaginator) Window(query url.Values) (Window, error) {
	size := p.pageSize
	if raw := query.Get(pageSizeParam); raw != "" {
		if n, ok := positiveInt(raw); ok {
			size = min(n, p.maxPageSize)
		}
	}

	page := 1
	if raw := query.Get(pageParam); raw != "" {
		n, ok := positiveInt(raw)
		// A page whose offset does not fit an int cannot exist.
		if !ok || n > math.MaxInt/size {
			return Window{}, apierror.NotFound("invalid page", raw)
		}
		page = n
	}

	return Window{Mode: PageNumber, Page: page, Limit: size, Offset: (page - 1) * size}, nil
}

func (p *pageNumberPaginator) Meta(base *url.URL, w Window, s Slice) (*model.Meta, error) {
	totalPages := 1
	if s.Total > 0 {
		totalPages = (s.Total + w.Limit - 1) / w.Limit
	}
	if w.Page > totalPages {
		return nil, apierror.NotFound("invalid page", strconv.Itoa(w.Page))
	}

	total := s.Total
	meta := &model.Meta{
		Page:       w.Page,
		Limit:      w.Limit,
		Total:      &total,
		TotalPages: totalPages,
	}

	if w.Page < totalPages {
		meta.Next = link(base, map[string]string{pageParam: strconv.Itoa(w.Page + 1)})
	}
	if w.Page > 1 {
		if w.Page == 2 {
			meta.Previous = link(base, nil, pageParam)
		} else {
			meta.Previous = link(base, map[string]string{pageParam: strconv.Itoa(w.Page - 1)})
		}
	}

	return meta, nil
}

type limitOffsetPaginator struct {
	defaultLimit int
	maxLimit     int
}

func (p *limitOffsetPaginator) Kind() Kind { return LimitOffset }

// Window falls back to the defaults for malformed limit or offset values.
func (p *limitOffsetPaginator) Window(query url.Values) (Window, error) {
	limit := p.defaultLimit
	if n, ok := positiveInt(query.Get(limitParam)); ok {
		limit = min(n, p.maxLimit)
	}

	offset := 0
	if n, ok := positiveInt(query.Get(offsetParam)); ok {
		offset = n
	}

	return Window{Mode: LimitOffset, Limit: limit, Offset: offset}, nil
}

func (p *limitOffsetPaginator) Meta(base *url.URL, w Window, s Slice) (*model.Meta, error) {
	total := s.Total
	offset := w.Offset
	meta := &model.Meta{Limit: w.Limit, Offset: &offset, Total: &total}

	if w.Limit < s.Total-w.Offset {
		meta.Next = link(base, map[string]string{
			limitParam:  strconv.Itoa(w.Limit),
			offsetParam: strconv.Itoa(w.Offset + w.Limit),
		})
	}

	if w.Offset > 0 {
		prev := w.Offset - w.Limit
		if prev <= 0 {
			meta.Previous = link(base, map[string]string{limitParam: strconv.Itoa(w.Limit)}, offsetParam)
		} else {
			meta.Previous = link(base, map[string]string{
				limitParam:  strconv.Itoa(w.Limit),
				offsetParam: strconv.Itoa(prev),
			})
		}
	}

	return meta, nil
}

type cursorPaginator struct {
	pageSize int
}

func (p *cursorPaginator) Kind() Kind { return Cursor }

func (p *cursorPaginator) Window(query url.Values) (Window, error) {
	w := Window{Mode: Cursor, Limit: p.pageSize}

	raw := query.Get(cursorParam)
	if raw == "" {
		return w, nil
	}

	pos, err := DecodeCursor(raw)
	if err != nil {
		return Window{}, err
	}
	w.Cursor = &pos

	return w, nil
}

func (p *cursorPaginator) Meta(base *url.URL, w Window, s Slice) (*model.Meta, error) {
	meta := &model.Meta{Limit: w.Limit}
	if s.Len == 0 {
		return meta, nil
	}

	forward := w.Cursor == nil || !w.Cursor.Reverse

	// Forward scans know there is more ahead from the look-ahead row and that
	// there is something behind whenever they started from a cursor. Reverse
	// scans are the mirror image.
	hasNext := s.HasMore
	hasPrev := w.Cursor != nil
	if !forward {
		hasNext = true
		hasPrev = s.HasMore
	}

	if hasNext {
		meta.Next = link(base, map[string]string{cursorParam: EncodeCursor(Position{ID: s.LastID})})
	}
	if hasPrev {
		meta.Previous = link(base, map[string]string{cursorParam: EncodeCursor(Position{ID: s.FirstID, Reverse: true})})
	}

	return meta, nil
}

// EncodeCursor renders a position as an opaque URL-safe token.
func EncodeCursor(pos Position) string {
	values := url.Values{}
	values.Set("p", strconv.FormatInt(pos.ID, 10))
	if pos.Reverse {
		values.Set("r", "1")
	} else {
		values.Set("r", "0")
	}
	return base64.URLEncoding.EncodeToString([]byte(values.Encode()))
}

// DecodeCursor parses a token produced by EncodeCursor.
func DecodeCursor(token string) (Position, error) {
	invalid := apierror.NotFound("invalid cursor", "")

	decoded, err := base64.URLEncoding.DecodeString(strings.TrimSpace(token))
	if err != nil {
		return Position{}, invalid
	}

	values, err := url.ParseQuery(string(decoded))
	if err != nil {
		return Position{}, invalid
	}

	id, err := strconv.ParseInt(values.Get("p"), 10, 64)
	if err != nil || id < 0 {
		return Position{}, invalid
	}

	pos := Position{ID: id}
	switch values.Get("r") {
	case "", "0":
	case "1":
		pos.Reverse = true
	default:
		return Position{}, invalid
	}

	return pos, nil
}
