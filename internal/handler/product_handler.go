package handler

import (
	"net/http"

	"go-online-store/internal/model"
	"go-online-store/internal/pagination"
	"go-online-store/internal/permission"
	"go-online-store/internal/serializer"
	"go-online-store/internal/service"
)

// ProductHandler serves a product view set. The selector, gate and
// paginator are injected so the same handler backs both the product API and
// the catalog.
type ProductHandler struct {
	service   *service.ProductService
	selector  serializer.ProductSelector
	gate      permission.Gate
	paginator pagination.Paginator
}

func NewProductHandler(service *service.ProductService, selector serializer.ProductSelector, gate permission.Gate, paginator pagination.Paginator) *ProductHandler {
	return &ProductHandler{
		service:   service,
		selector:  selector,
		gate:      gate,
		paginator: paginator,
	}
}

func (h *ProductHandler) List(w http.ResponseWriter, r *http.Request) {
	if !authorize(w, r, h.gate, model.ActionList, 0) {
		return
	}

	query := r.URL.Query()
	window, err := h.paginator.Window(query)
	if err != nil {
		writeError(w, err)
		return
	}

	products, slice, err := h.service.List(r.Context(), query, window)
	if err != nil {
		writeError(w, err)
		return
	}

	meta, err := h.paginator.Meta(pagination.RequestURL(r), window, slice)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, h.selector(model.ActionList).RepresentList(products), meta)
}

func (h *ProductHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, idErr := parseID(r)
	if !authorize(w, r, h.gate, model.ActionRetrieve, id) {
		return
	}
	if idErr != nil {
		writeError(w, idErr)
		return
	}

	product, err := h.service.Get(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, h.selector(model.ActionRetrieve).Represent(product), nil)
}

func (h *ProductHandler) Create(w http.ResponseWriter, r *http.Request) {
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

	product, err := h.service.Create(r.Context(), actorFromRequest(r), changes)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusCreated, shape.Represent(product), nil)
}

// Update serves both PUT and PATCH; PATCH is the partial action.
func (h *ProductHandler) Update(w http.ResponseWriter, r *http.Request) {
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

	product, err := h.service.Update(r.Context(), actorFromRequest(r), id, changes)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, shape.Represent(product), nil)
}

func (h *ProductHandler) Destroy(w http.ResponseWriter, r *http.Request) {
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

// authorize runs gate for action and writes the denial when it fails.
func authorize(w http.ResponseWriter, r *http.Request, gate permission.Gate, action model.Action, target int64) bool {
	err := gate.Check(permission.Request{
		Action: action,
		Caller: callerFromRequest(r),
		Target: target,
	})
	if err != nil {
		writeError(w, err)
		return false
	}
	return true
}
