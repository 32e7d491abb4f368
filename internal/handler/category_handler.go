package handler

import (
	"net/http"

	"go-online-store/internal/model"
	"go-online-store/internal/permission"
	"go-online-store/internal/serializer"
	"go-online-store/internal/service"
)

type CategoryHandler struct {
	service *service.CategoryService
	gate    permission.Gate
}

func NewCategoryHandler(service *service.CategoryService, gate permission.Gate) *CategoryHandler {
	return &CategoryHandler{service: service, gate: gate}
}

func (h *CategoryHandler) List(w http.ResponseWriter, r *http.Request) {
	if !authorize(w, r, h.gate, model.ActionList, 0) {
		return
	}

	categories, err := h.service.List(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, categories, nil)
}

func (h *CategoryHandler) Create(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	if !authorize(w, r, h.gate, model.ActionCreate, 0) {
		return
	}

	var payload model.CreateCategoryRequest
	if err := serializer.DecodeJSON(r.Body, &payload); err != nil {
		writeError(w, err)
		return
	}

	category, err := h.service.Create(r.Context(), actorFromRequest(r), payload.Name)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusCreated, category, nil)
}
