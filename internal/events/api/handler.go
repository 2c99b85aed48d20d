package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"fest-engine/internal/auth"
	"fest-engine/internal/cache"
	"fest-engine/internal/errs"
	"fest-engine/internal/events"
	"fest-engine/internal/logger"
	"fest-engine/internal/models"
	"fest-engine/internal/utils"
)

type Handler struct {
	Service *events.Service
	Cache   *cache.EventListCache
	Logger  *logger.Logger
}

func NewHandler(service *events.Service, listCache *cache.EventListCache, log *logger.Logger) *Handler {
	return &Handler{Service: service, Cache: listCache, Logger: log}
}

func (h *Handler) CreateEvent(w http.ResponseWriter, r *http.Request) {
	var req models.EventCreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteJSON(w, http.StatusBadRequest, utils.ErrorResponse("invalid request body", err.Error()))
		return
	}

	event, err := h.Service.CreateEvent(r.Context(), auth.UserID(r.Context()), auth.Role(r.Context()), req)
	if err != nil {
		utils.WriteJSON(w, errs.HTTPStatus(err), utils.ErrorResponse("failed to create event", err.Error()))
		return
	}
	h.invalidateListing(r)
	utils.WriteJSON(w, http.StatusCreated, utils.SuccessResponse("event created", event))
}

// ListEvents serves the public, time-corrected listing. Results are
// cached in Redis briefly; the cache is best-effort and never replaces
// the DB as source of truth.
func (h *Handler) ListEvents(w http.ResponseWriter, r *http.Request) {
	search := r.URL.Query().Get("search")
	eventType := r.URL.Query().Get("type")

	if h.Cache != nil {
		if cached, ok := h.Cache.Get(r.Context(), search, eventType); ok {
			utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("events", cached))
			return
		}
	}

	list, err := h.Service.ListEvents(r.Context(), search, eventType)
	if err != nil {
		utils.WriteJSON(w, errs.HTTPStatus(err), utils.ErrorResponse("failed to list events", err.Error()))
		return
	}

	if h.Cache != nil {
		h.Cache.Put(r.Context(), search, eventType, list)
	}
	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("events", list))
}

func (h *Handler) GetEvent(w http.ResponseWriter, r *http.Request) {
	event, err := h.Service.GetEvent(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		utils.WriteJSON(w, errs.HTTPStatus(err), utils.ErrorResponse("failed to get event", err.Error()))
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("event", event))
}

func (h *Handler) UpdateEvent(w http.ResponseWriter, r *http.Request) {
	var req models.EventUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteJSON(w, http.StatusBadRequest, utils.ErrorResponse("invalid request body", err.Error()))
		return
	}

	event, err := h.Service.UpdateEvent(r.Context(), chi.URLParam(r, "id"), auth.UserID(r.Context()), auth.Role(r.Context()), req)
	if err != nil {
		utils.WriteJSON(w, errs.HTTPStatus(err), utils.ErrorResponse("failed to update event", err.Error()))
		return
	}
	h.invalidateListing(r)
	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("event updated", event))
}

func (h *Handler) DeleteEvent(w http.ResponseWriter, r *http.Request) {
	err := h.Service.DeleteEvent(r.Context(), chi.URLParam(r, "id"), auth.UserID(r.Context()), auth.Role(r.Context()))
	if err != nil {
		utils.WriteJSON(w, errs.HTTPStatus(err), utils.ErrorResponse("failed to delete event", err.Error()))
		return
	}
	h.invalidateListing(r)
	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("event deleted", nil))
}

func (h *Handler) ListMyEvents(w http.ResponseWriter, r *http.Request) {
	list, err := h.Service.ListMyEvents(r.Context(), auth.UserID(r.Context()), auth.Role(r.Context()))
	if err != nil {
		utils.WriteJSON(w, errs.HTTPStatus(err), utils.ErrorResponse("failed to list events", err.Error()))
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("events", list))
}

func (h *Handler) Analytics(w http.ResponseWriter, r *http.Request) {
	stats, err := h.Service.Analytics(r.Context(), auth.UserID(r.Context()), auth.Role(r.Context()))
	if err != nil {
		utils.WriteJSON(w, errs.HTTPStatus(err), utils.ErrorResponse("failed to compute analytics", err.Error()))
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("analytics", stats))
}

func (h *Handler) EventRegistrations(w http.ResponseWriter, r *http.Request) {
	regs, err := h.Service.EventRegistrations(r.Context(), chi.URLParam(r, "id"), auth.UserID(r.Context()), auth.Role(r.Context()))
	if err != nil {
		utils.WriteJSON(w, errs.HTTPStatus(err), utils.ErrorResponse("failed to list registrations", err.Error()))
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("registrations", regs))
}

func (h *Handler) invalidateListing(r *http.Request) {
	if h.Cache != nil {
		h.Cache.Invalidate(r.Context())
	}
}
