package api

import (
	"encoding/base64"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"fest-engine/internal/auth"
	"fest-engine/internal/errs"
	"fest-engine/internal/logger"
	"fest-engine/internal/models"
	"fest-engine/internal/registration"
	"fest-engine/internal/tickets/qr"
	"fest-engine/internal/utils"
)

type Handler struct {
	Service     *registration.Service
	QRGenerator *qr.Generator
	Logger      *logger.Logger
}

func NewHandler(service *registration.Service, qrGen *qr.Generator, log *logger.Logger) *Handler {
	return &Handler{Service: service, QRGenerator: qrGen, Logger: log}
}

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req models.RegistrationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteJSON(w, http.StatusBadRequest, utils.ErrorResponse("invalid request body", err.Error()))
		return
	}
	if req.EventID == "" {
		utils.WriteJSON(w, http.StatusBadRequest, utils.ErrorResponse("eventId is required", ""))
		return
	}

	reg, err := h.Service.Register(r.Context(), auth.UserID(r.Context()), req)
	if err != nil {
		utils.WriteJSON(w, errs.HTTPStatus(err), utils.ErrorResponse("registration failed", err.Error()))
		return
	}
	utils.WriteJSON(w, http.StatusCreated, utils.SuccessResponse("registration confirmed", reg))
}

func (h *Handler) GetMyRegistrations(w http.ResponseWriter, r *http.Request) {
	regs, err := h.Service.GetMyRegistrations(r.Context(), auth.UserID(r.Context()))
	if err != nil {
		utils.WriteJSON(w, errs.HTTPStatus(err), utils.ErrorResponse("failed to list registrations", err.Error()))
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("registrations", regs))
}

// GetTicket returns the registration with an encrypted QR PNG for the
// scan path.
func (h *Handler) GetTicket(w http.ResponseWriter, r *http.Request) {
	reg, err := h.Service.GetTicket(r.Context(), chi.URLParam(r, "id"), auth.UserID(r.Context()), auth.Role(r.Context()))
	if err != nil {
		utils.WriteJSON(w, errs.HTTPStatus(err), utils.ErrorResponse("failed to get ticket", err.Error()))
		return
	}

	payload := struct {
		Registration *models.Registration `json:"registration"`
		QR           string               `json:"qr,omitempty"`
	}{Registration: reg}

	if h.QRGenerator != nil {
		png, err := h.QRGenerator.GenerateEncryptedQR(reg)
		if err != nil {
			h.Logger.Warn("REGISTRATION", "QR generation failed: "+err.Error())
		} else {
			payload.QR = base64.StdEncoding.EncodeToString(png)
		}
	}

	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("ticket", payload))
}
