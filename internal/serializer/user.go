package serializer

import (
	"io"

	"go-online-store/internal/model"
	"go-online-store/pkg/apierror"
)

var (
	userListFields     = Projection{"id", "username", "email"}
	userRetrieveFields = Projection{"id", "username", "email", "first_name", "last_name", "is_staff", "date_joined"}
	userWriteFields    = Projection{"id", "username", "email", "first_name", "last_name", "is_staff", "is_active", "is_deleted", "date_joined"}

	// Fields the single-field action may expose.
	userSubsetFields = map[string]struct{}{
		"username":   {},
		"email":      {},
		"first_name": {},
		"last_name":  {},
	}
)

// UserSelector picks the shape a user endpoint uses for an action.
type UserSelector func(action model.Action) UserShape

type UserShape struct {
	Name   string
	Output Projection
	decode func(body io.Reader, partial bool) (model.UserChanges, error)
}

func (s UserShape) Represent(u model.User) Representation {
	return s.Output.Apply(u)
}

func (s UserShape) RepresentList(users []model.User) []Representation {
	return ApplyAll(s.Output, users)
}

func (s UserShape) Decode(body io.Reader, partial bool) (model.UserChanges, error) {
	if s.decode == nil {
		return model.UserChanges{}, apierror.Validation("this shape does not accept input", s.Name)
	}
	return s.decode(body, partial)
}

var userShapes = map[model.Action]UserShape{
	model.ActionList:     {Name: "user_list", Output: userListFields},
	model.ActionRetrieve: {Name: "user_retrieve", Output: userRetrieveFields},
	model.ActionCreate:   {Name: "user_create", Output: userWriteFields, decode: decodeUserCreate},
}

var userMutateShape = UserShape{Name: "user_mutate", Output: userWriteFields, decode: decodeUserMutation}

func ForUser(action model.Action) UserShape {
	if shape, ok := userShapes[action]; ok {
		return shape
	}
	return userMutateShape
}

// UserField renders exactly one exposable field of a user.
func UserField(u model.User, field string) (Representation, error) {
	if _, ok := userSubsetFields[field]; !ok {
		return nil, apierror.NotFound("unknown user field", field)
	}
	return Projection{field}.Apply(u), nil
}

type userCreateInput struct {
	Username  *string `json:"username" validate:"required,min=1,max=150"`
	Password  *string `json:"password" validate:"required,min=8,max=128"`
	Email     *string `json:"email" validate:"omitempty,email,max=254"`
	FirstName *string `json:"first_name" validate:"omitempty,max=150"`
	LastName  *string `json:"last_name" validate:"omitempty,max=150"`
	IsStaff   *bool   `json:"is_staff"`
}

// userPatchInput carries the mutable fields. The username is fixed once the
// account exists.
type userPatchInput struct {
	Password  *string `json:"password" validate:"omitempty,min=8,max=128"`
	Email     *string `json:"email" validate:"omitempty,email,max=254"`
	FirstName *string `json:"first_name" validate:"omitempty,max=150"`
	LastName  *string `json:"last_name" validate:"omitempty,max=150"`
	IsStaff   *bool   `json:"is_staff"`
}

func decodeUserCreate(body io.Reader, _ bool) (model.UserChanges, error) {
	var in userCreateInput
	if err := decodeAndValidate(body, &in); err != nil {
		return model.UserChanges{}, err
	}

	return model.UserChanges{
		Username:  in.Username,
		Password:  in.Password,
		Email:     in.Email,
		FirstName: in.FirstName,
		LastName:  in.LastName,
		IsStaff:   in.IsStaff,
	}, nil
}

func decodeUserMutation(body io.Reader, partial bool) (model.UserChanges, error) {
	var in userPatchInput
	if err := decodeAndValidate(body, &in); err != nil {
		return model.UserChanges{}, err
	}

	if !partial && in.Password == nil {
		return model.UserChanges{}, apierror.Validation("invalid input", "password: this field is required")
	}

	return model.UserChanges{
		Password:  in.Password,
		Email:     in.Email,
		FirstName: in.FirstName,
		LastName:  in.LastName,
		IsStaff:   in.IsStaff,
	}, nil
}
