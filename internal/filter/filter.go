// Package filter turns query parameters such as ?price__gte=10&tag__in=a,b
// into SQL conditions from a declared allow-list of fields and lookups.
package filter

import (
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"

	sq "github.com/Masterminds/squirrel"

	"go-online-store/pkg/apierror"
)

type Lookup string

const (
	Exact      Lookup = "exact"
	IContains  Lookup = "icontains"
	StartsWith Lookup = "startswith"
	GTE        Lookup = "gte"
	LTE        Lookup = "lte"
	In         Lookup = "in"
)

const separator = "__"

// Kind controls how raw parameter values are parsed.
type Kind int

const (
	String Kind = iota
	Number
	Bool
	ID
)

// Field declares one filterable query field.
type Field struct {
	Column  string
	Kind    Kind
	Lookups []Lookup
	// Build replaces the default column condition, e.g. for joins.
	Build func(lookup Lookup, value any) sq.Sqlizer
}

func (f Field) allows(lookup Lookup) bool {
	for _, l := range f.Lookups {
		if l == lookup {
			return true
		}
	}
	return false
}

// Set maps query field names to their declarations.
type Set map[string]Field

// Parse builds the conjunction of every recognised parameter. Unknown
// parameters and lookups a field does not allow are ignored.
func (s Set) Parse(query url.Values) (sq.And, error) {
	keys := make([]string, 0, len(query))
	for key := range query {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	conds := sq.And{}
	for _, key := range keys {
		name, lookup := splitKey(key)
		field, ok := s[name]
		if !ok || !field.allows(lookup) {
			continue
		}

		raw := query.Get(key)
		value, err := parseValue(field.Kind, lookup, raw)
		if err != nil {
			return nil, apierror.Validation("invalid filter value", fmt.Sprintf("%s: %s", key, err.Error()))
		}

		if field.Build != nil {
			conds = append(conds, field.Build(lookup, value))
			continue
		}
		conds = append(conds, condition(field.Column, lookup, value))
	}

	return conds, nil
}

func splitKey(key string) (string, Lookup) {
	name, lookup, found := strings.Cut(key, separator)
	if !found {
		return key, Exact
	}
	return name, Lookup(lookup)
}

func parseValue(kind Kind, lookup Lookup, raw string) (any, error) {
	if lookup == In {
		parts := strings.Split(raw, ",")
		values := make([]any, 0, len(parts))
		for _, part := range parts {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			v, err := parseScalar(kind, part)
			if err != nil {
				return nil, err
			}
			values = append(values, v)
		}
		return values, nil
	}

	return parseScalar(kind, strings.TrimSpace(raw))
}

func parseScalar(kind Kind, raw string) (any, error) {
	switch kind {
	case Number:
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, fmt.Errorf("enter a number")
		}
		return v, nil
	case Bool:
		v, err := strconv.ParseBool(raw)
		if err != nil {
			return nil, fmt.Errorf("enter true or false")
		}
		return v, nil
	case ID:
		v, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || v <= 0 {
			return nil, fmt.Errorf("enter a positive integer id")
		}
		return v, nil
	default:
		return raw, nil
	}
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func condition(column string, lookup Lookup, value any) sq.Sqlizer {
	switch lookup {
	case IContains:
		pattern := "%" + likeEscaper.Replace(strings.ToLower(fmt.Sprint(value))) + "%"
		return sq.Expr("LOWER("+column+") LIKE ? ESCAPE '\\'", pattern)
	case StartsWith:
		pattern := likeEscaper.Replace(fmt.Sprint(value)) + "%"
		return sq.Expr(column+" LIKE ? ESCAPE '\\'", pattern)
	case GTE:
		return sq.GtOrEq{column: value}
	case LTE:
		return sq.LtOrEq{column: value}
	case In:
		return sq.Eq{column: value}
	default:
		return sq.Eq{column: value}
	}
}
