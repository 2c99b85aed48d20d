package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"fest-engine/internal/attendance"
	"fest-engine/internal/auth"
	"fest-engine/internal/errs"
	"fest-engine/internal/logger"
	"fest-engine/internal/models"
	"fest-engine/internal/utils"
)

type Handler struct {
	Service *attendance.Service
	Logger  *logger.Logger
}

func NewHandler(service *attendance.Service, log *logger.Logger) *Handler {
	return &Handler{Service: service, Logger: log}
}

func (h *Handler) Scan(w http.ResponseWriter, r *http.Request) {
	var req models.ScanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteJSON(w, http.StatusBadRequest, utils.ErrorResponse("invalid request body", err.Error()))
		return
	}
	if req.TicketID == "" || req.EventID == "" {
		utils.WriteJSON(w, http.StatusBadRequest, utils.ErrorResponse("ticketId and eventId are required", ""))
		return
	}

	result, err := h.Service.Scan(r.Context(), auth.UserID(r.Context()), auth.Role(r.Context()), req)
	if err != nil {
		utils.WriteJSON(w, errs.HTTPStatus(err), utils.ErrorResponse("scan failed", err.Error()))
		return
	}
	writeResult(w, result)
}

func (h *Handler) Manual(w http.ResponseWriter, r *http.Request) {
	var req models.ManualAttendanceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteJSON(w, http.StatusBadRequest, utils.ErrorResponse("invalid request body", err.Error()))
		return
	}
	if req.RegistrationID == "" {
		utils.WriteJSON(w, http.StatusBadRequest, utils.ErrorResponse("registrationId is required", ""))
		return
	}

	result, err := h.Service.Manual(r.Context(), auth.UserID(r.Context()), auth.Role(r.Context()), req)
	if err != nil {
		utils.WriteJSON(w, errs.HTTPStatus(err), utils.ErrorResponse("manual attendance failed", err.Error()))
		return
	}
	writeResult(w, result)
}

// writeResult reports a duplicate scan as a 200 with the original
// attendance details, not an error.
func writeResult(w http.ResponseWriter, result *attendance.Result) {
	if result.Duplicate {
		msg := fmt.Sprintf("already scanned at %s", result.Registration.AttendedAt.Format("15:04:05 Jan 2"))
		utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse(msg, result))
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("attendance marked", result))
}

func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.Service.Stats(r.Context(), chi.URLParam(r, "id"), auth.UserID(r.Context()), auth.Role(r.Context()))
	if err != nil {
		utils.WriteJSON(w, errs.HTTPStatus(err), utils.ErrorResponse("failed to get attendance stats", err.Error()))
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("attendance stats", stats))
}

func (h *Handler) Export(w http.ResponseWriter, r *http.Request) {
	eventID := chi.URLParam(r, "id")

	var buf bytes.Buffer
	err := h.Service.ExportCSV(r.Context(), eventID, auth.UserID(r.Context()), auth.Role(r.Context()), &buf)
	if err != nil {
		utils.WriteJSON(w, errs.HTTPStatus(err), utils.ErrorResponse("failed to export attendance", err.Error()))
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=attendance-%s.csv", eventID))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}
