package handler

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"go-online-store/internal/model"
	"go-online-store/internal/pagination"
	"go-online-store/internal/service"
	"go-online-store/pkg/apierror"
)

type AuditHandler struct {
	service   *service.AuditService
	paginator pagination.Paginator
}

func NewAuditHandler(service *service.AuditService, paginator pagination.Paginator) *AuditHandler {
	return &AuditHandler{service: service, paginator: paginator}
}

func (h *AuditHandler) List(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	q, err := parseAuditQuery(query)
	if err != nil {
		writeError(w, err)
		return
	}

	window, err := h.paginator.Window(query)
	if err != nil {
		writeError(w, err)
		return
	}

	entries, slice, err := h.service.Query(r.Context(), q, window)
	if err != nil {
		writeError(w, err)
		return
	}

	meta, err := h.paginator.Meta(pagination.RequestURL(r), window, slice)
	if err != nil {
		writeError(w, err)
		return
	}

	if entries == nil {
		entries = []model.AuditEntry{}
	}
	writeSuccess(w, http.StatusOK, entries, meta)
}

func parseAuditQuery(query map[string][]string) (model.AuditQuery, error) {
	get := func(key string) string {
		if values := query[key]; len(values) > 0 {
			return strings.TrimSpace(values[0])
		}
		return ""
	}

	q := model.AuditQuery{
		Action:   get("action"),
		Resource: get("resource"),
	}

	if raw := get("actor_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			return model.AuditQuery{}, apierror.Validation("invalid filter value", "actor_id")
		}
		q.ActorID = id
	}

	for key, dst := range map[string]*time.Time{"from": &q.From, "to": &q.To} {
		raw := get(key)
		if raw == "" {
			continue
		}
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return model.AuditQuery{}, apierror.Validation("invalid filter value", key+": expected RFC3339 timestamp")
		}
		*dst = t.UTC()
	}

	return q, nil
}
