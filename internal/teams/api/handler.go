package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"fest-engine/internal/auth"
	"fest-engine/internal/errs"
	"fest-engine/internal/logger"
	"fest-engine/internal/models"
	"fest-engine/internal/teams"
	"fest-engine/internal/utils"
)

type Handler struct {
	Service *teams.Service
	Logger  *logger.Logger
}

func NewHandler(service *teams.Service, log *logger.Logger) *Handler {
	return &Handler{Service: service, Logger: log}
}

func (h *Handler) CreateTeam(w http.ResponseWriter, r *http.Request) {
	var req models.TeamCreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteJSON(w, http.StatusBadRequest, utils.ErrorResponse("invalid request body", err.Error()))
		return
	}

	team, err := h.Service.CreateTeam(r.Context(), auth.UserID(r.Context()), req)
	if err != nil {
		utils.WriteJSON(w, errs.HTTPStatus(err), utils.ErrorResponse("failed to create team", err.Error()))
		return
	}
	utils.WriteJSON(w, http.StatusCreated, utils.SuccessResponse("team created", team))
}

func (h *Handler) JoinTeam(w http.ResponseWriter, r *http.Request) {
	var req models.TeamJoinRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteJSON(w, http.StatusBadRequest, utils.ErrorResponse("invalid request body", err.Error()))
		return
	}

	team, err := h.Service.JoinTeam(r.Context(), auth.UserID(r.Context()), req.TeamCode)
	if err != nil {
		utils.WriteJSON(w, errs.HTTPStatus(err), utils.ErrorResponse("failed to join team", err.Error()))
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("joined team", team))
}

func (h *Handler) GetMyTeams(w http.ResponseWriter, r *http.Request) {
	list, err := h.Service.GetMyTeams(r.Context(), auth.UserID(r.Context()))
	if err != nil {
		utils.WriteJSON(w, errs.HTTPStatus(err), utils.ErrorResponse("failed to list teams", err.Error()))
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("teams", list))
}

func (h *Handler) GetTeam(w http.ResponseWriter, r *http.Request) {
	team, err := h.Service.GetTeam(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		utils.WriteJSON(w, errs.HTTPStatus(err), utils.ErrorResponse("failed to get team", err.Error()))
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("team", team))
}

func (h *Handler) GetEventTeams(w http.ResponseWriter, r *http.Request) {
	list, err := h.Service.GetEventTeams(r.Context(), chi.URLParam(r, "eventId"))
	if err != nil {
		utils.WriteJSON(w, errs.HTTPStatus(err), utils.ErrorResponse("failed to list teams", err.Error()))
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("teams", list))
}

func (h *Handler) LeaveTeam(w http.ResponseWriter, r *http.Request) {
	err := h.Service.LeaveTeam(r.Context(), chi.URLParam(r, "id"), auth.UserID(r.Context()))
	if err != nil {
		utils.WriteJSON(w, errs.HTTPStatus(err), utils.ErrorResponse("failed to leave team", err.Error()))
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("left team", nil))
}

func (h *Handler) DeleteTeam(w http.ResponseWriter, r *http.Request) {
	err := h.Service.DeleteTeam(r.Context(), chi.URLParam(r, "id"), auth.UserID(r.Context()))
	if err != nil {
		utils.WriteJSON(w, errs.HTTPStatus(err), utils.ErrorResponse("failed to delete team", err.Error()))
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("team deleted", nil))
}
