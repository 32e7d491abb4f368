package filter

import (
	sq "github.com/Masterminds/squirrel"
)

// Products filters the product table, aliased p.
var Products = Set{
	"title": {Column: "p.title", Kind: String, Lookups: []Lookup{Exact, IContains}},
	"price": {Column: "p.price", Kind: Number, Lookups: []Lookup{Exact, GTE, LTE}},
	"tag":   {Column: "p.tag", Kind: String, Lookups: []Lookup{Exact, In}},
	"categories": {
		Kind:    ID,
		Lookups: []Lookup{Exact},
		Build: func(_ Lookup, value any) sq.Sqlizer {
			return sq.Expr("p.id IN (SELECT pc.product_id FROM product_categories pc WHERE pc.category_id = ?)", value)
		},
	},
}

// Users filters the user table, aliased u.
var Users = Set{
	"username": {Column: "u.username", Kind: String, Lookups: []Lookup{Exact, IContains, StartsWith}},
	"email":    {Column: "u.email", Kind: String, Lookups: []Lookup{Exact, IContains}},
	"is_staff": {Column: "u.is_staff", Kind: Bool, Lookups: []Lookup{Exact}},
}
