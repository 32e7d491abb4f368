// Package serializer turns stored records into response shapes and request
// bodies into validated change sets. Which shape applies is chosen per
// endpoint action by a selector.
package serializer

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"go-online-store/pkg/apierror"
)

// Record is anything that can render its full set of fields.
type Record interface {
	Fields() map[string]any
}

// Representation is the rendered form of one record.
type Representation map[string]any

// Projection is a named-field allow-list. A nil projection keeps every field;
// names the record does not have are skipped.
type Projection []string

func (p Projection) Apply(rec Record) Representation {
	fields := rec.Fields()
	if p == nil {
		return Representation(fields)
	}

	out := make(Representation, len(p))
	for _, name := range p {
		if value, ok := fields[name]; ok {
			out[name] = value
		}
	}

	return out
}

// ApplyAll projects every record, always returning a non-nil slice.
func ApplyAll[T Record](p Projection, records []T) []Representation {
	out := make([]Representation, 0, len(records))
	for _, rec := range records {
		out = append(out, p.Apply(rec))
	}
	return out
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// DecodeJSON decodes a request body into dst and validates it. It serves
// endpoints whose input has a single fixed shape.
func DecodeJSON(body io.Reader, dst any) error {
	return decodeAndValidate(body, dst)
}

// decodeAndValidate reads a JSON body into dst and runs its validation tags.
func decodeAndValidate(body io.Reader, dst any) error {
	if body == nil {
		return apierror.Validation("request body is required", "")
	}

	if err := json.NewDecoder(body).Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return apierror.Validation("request body is required", "")
		}
		return apierror.Validation("invalid JSON body", err.Error())
	}

	return Validate(dst)
}

// Validate checks a struct's validation tags and converts failures into a
// ValidationError naming each offending JSON field.
func Validate(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return apierror.Validation("invalid input", err.Error())
	}

	details := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		details = append(details, describeFieldError(fe))
	}

	return apierror.Validation("invalid input", strings.Join(details, "; "))
}

func describeFieldError(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return field + ": this field is required"
	case "min":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("%s: must be at least %s characters", field, fe.Param())
		}
		return fmt.Sprintf("%s: must be at least %s", field, fe.Param())
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("%s: must be at most %s characters", field, fe.Param())
		}
		return fmt.Sprintf("%s: must be at most %s", field, fe.Param())
	case "gte":
		return fmt.Sprintf("%s: must be greater than or equal to %s", field, fe.Param())
	case "gt":
		return fmt.Sprintf("%s: must be greater than %s", field, fe.Param())
	case "email":
		return field + ": enter a valid email address"
	default:
		return fmt.Sprintf("%s: failed %q validation", field, fe.Tag())
	}
}
