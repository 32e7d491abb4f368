package handler

import (
	"net/http"

	"go-online-store/internal/model"
	"go-online-store/internal/pagination"
	"go-online-store/internal/permission"
	"go-online-store/internal/serializer"
	"go-online-store/internal/service"
)

type UserHandler struct {
	service   *service.UserService
	selector  serializer.UserSelector
	gate      permission.Gate
	paginator pagination.Paginator
}

func NewUserHandler(service *service.UserService, selector serializer.UserSelector, gate permission.Gate, paginator pagination.Paginator) *UserHandler {
	return &UserHandler{
		service:   service,
		selector:  selector,
		gate:      gate,
		paginator: paginator,
	}
}

func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	if !authorize(w, r, h.gate, model.ActionList, 0) {
		return
	}

	query := r.URL.Query()
	window, err := h.paginator.Window(query)
	if err != nil {
		writeError(w, err)
		return
	}

	users, slice, err := h.service.List(r.Context(), query, window)
	if err != nil {
		writeError(w, err)
		return
	}

	meta, err := h.paginator.Meta(pagination.RequestURL(r), window, slice)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, h.selector(model.ActionList).RepresentList(users), meta)
}

func (h *UserHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, idErr := parseID(r)
	if !authorize(w, r, h.gate, model.ActionRetrieve, id) {
		return
	}
	if idErr != nil {
		writeError(w, idErr)
		return
	}

	user, err := h.service.Get(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, h.selector(model.ActionRetrieve).Represent(user), nil)
}

// Username renders only the username of one account.
func (h *UserHandler) Username(w http.ResponseWriter, r *http.Request) {
	id, idErr := parseID(r)
	if !authorize(w, r, h.gate, model.ActionRetrieve, id) {
		return
	}
	if idErr != nil {
		writeError(w, idErr)
		return
	}

	subset, err := h.service.Field(r.Context(), id, "username")
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, subset, nil)
}

func (h *UserHandler) Create(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	if !authorize(w, r, h.gate, model.ActionCreate, 0) {
		return
	}

	shape := h.selector(model.ActionCreate)
	changes, err := shape.Decode(r.Body, false)
	if err != nil {
		writeError(w, err)
		return
	}

	user, err := h.service.Create(r.Context(), actorFromRequest(r), changes)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusCreated, shape.Represent(user), nil)
}

func (h *UserHandler) Update(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	action := model.ActionUpdate
	if r.Method == http.MethodPatch {
		action = model.ActionPartialUpdate
	}

	id, idErr := parseID(r)
	if !authorize(w, r, h.gate, action, id) {
		return
	}
	if idErr != nil {
		writeError(w, idErr)
		return
	}

	shape := h.selector(action)
	changes, err := shape.Decode(r.Body, action == model.ActionPartialUpdate)
	if err != nil {
		writeError(w, err)
		return
	}

	user, err := h.service.Update(r.Context(), actorFromRequest(r), callerFromRequest(r), id, changes)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, shape.Represent(user), nil)
}

func (h *UserHandler) Destroy(w http.ResponseWriter, r *http.Request) {
	id, idErr := parseID(r)
	if !authorize(w, r, h.gate, model.ActionDestroy, id) {
		return
	}
	if idErr != nil {
		writeError(w, idErr)
		return
	}

	if err := h.service.Destroy(r.Context(), actorFromRequest(r), id); err != nil {
		writeError(w, err)
		return
	}

	writeNoContent(w)
}
