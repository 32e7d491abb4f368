package serializer

import (
	"io"

	"go-online-store/internal/model"
	"go-online-store/pkg/apierror"
)

var (
	productListFields     = Projection{"id", "title"}
	productRetrieveFields = Projection{"id", "title", "categories", "price", "tag"}
)

// ProductShape pairs the output projection for an action with the input
// decoder that action accepts. Read-only shapes have no decoder.
type ProductShape struct {
	Name   string
	Output Projection
	decode func(body io.Reader, partial bool) (model.ProductChanges, error)
}

// ProductSelector picks the shape an endpoint uses for an action.
type ProductSelector func(action model.Action) ProductShape

func (s ProductShape) Represent(p model.Product) Representation {
	return s.Output.Apply(p)
}

func (s ProductShape) RepresentList(products []model.Product) []Representation {
	return ApplyAll(s.Output, products)
}

// Decode parses and validates a request body. partial relaxes required
// fields for PATCH semantics.
func (s ProductShape) Decode(body io.Reader, partial bool) (model.ProductChanges, error) {
	if s.decode == nil {
		return model.ProductChanges{}, apierror.Validation("this shape does not accept input", s.Name)
	}
	return s.decode(body, partial)
}

var (
	productListShape     = ProductShape{Name: "product_list", Output: productListFields}
	productRetrieveShape = ProductShape{Name: "product_retrieve", Output: productRetrieveFields}
	productCreateShape   = ProductShape{Name: "product_create", decode: decodeProductCreate}
	productMutateShape   = ProductShape{Name: "product_mutate", decode: decodeProductMutation}
	productFullShape     = ProductShape{Name: "product"}
)

var productShapes = map[model.Action]ProductShape{
	model.ActionList:     productListShape,
	model.ActionRetrieve: productRetrieveShape,
	model.ActionCreate:   productCreateShape,
}

// ForProduct is the product endpoint selector: slim list rows, a detail
// projection for retrieve, the creation shape for create and the generic
// mutation shape for everything else.
func ForProduct(action model.Action) ProductShape {
	if shape, ok := productShapes[action]; ok {
		return shape
	}
	return productMutateShape
}

// ForCatalog renders the full record for every action and accepts the
// creation shape.
func ForCatalog(action model.Action) ProductShape {
	if action.IsMutation() {
		return productCreateShape
	}
	return productFullShape
}

type productCreateInput struct {
	Title      *string  `json:"title" validate:"required,min=1,max=255"`
	Price      *float64 `json:"price" validate:"required,gte=0"`
	Tag        *string  `json:"tag" validate:"omitempty,max=50"`
	Categories []int64  `json:"categories" validate:"omitempty,dive,gt=0"`
}

type productPatchInput struct {
	Title      *string  `json:"title" validate:"omitempty,min=1,max=255"`
	Price      *float64 `json:"price" validate:"omitempty,gte=0"`
	Tag        *string  `json:"tag" validate:"omitempty,max=50"`
	Categories *[]int64 `json:"categories" validate:"omitempty,dive,gt=0"`
}

func decodeProductCreate(body io.Reader, _ bool) (model.ProductChanges, error) {
	var in productCreateInput
	if err := decodeAndValidate(body, &in); err != nil {
		return model.ProductChanges{}, err
	}

	changes := model.ProductChanges{Title: in.Title, Price: in.Price, Tag: in.Tag}
	if in.Categories != nil {
		categories := uniqueIDs(in.Categories)
		changes.Categories = &categories
	}

	return changes, nil
}

func decodeProductMutation(body io.Reader, partial bool) (model.ProductChanges, error) {
	if !partial {
		// Full updates demand the same required fields as creation.
		return decodeProductCreate(body, false)
	}

	var in productPatchInput
	if err := decodeAndValidate(body, &in); err != nil {
		return model.ProductChanges{}, err
	}

	changes := model.ProductChanges{Title: in.Title, Price: in.Price, Tag: in.Tag}
	if in.Categories != nil {
		categories := uniqueIDs(*in.Categories)
		changes.Categories = &categories
	}

	return changes, nil
}

func uniqueIDs(ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
