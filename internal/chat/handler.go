package chat

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"fest-engine/internal/auth"
	"fest-engine/internal/utils"
)

// Handler exposes the presence map for team chat rooms.
type Handler struct {
	Presence *Presence
}

func NewHandler(p *Presence) *Handler {
	return &Handler{Presence: p}
}

func (h *Handler) Ping(w http.ResponseWriter, r *http.Request) {
	h.Presence.Ping(chi.URLParam(r, "teamId"), auth.UserID(r.Context()))
	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("presence updated", nil))
}

func (h *Handler) Typing(w http.ResponseWriter, r *http.Request) {
	h.Presence.Typing(chi.URLParam(r, "teamId"), auth.UserID(r.Context()))
	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("typing updated", nil))
}

func (h *Handler) Snapshot(w http.ResponseWriter, r *http.Request) {
	online, typing := h.Presence.Snapshot(chi.URLParam(r, "teamId"))
	payload := struct {
		Online []string `json:"online"`
		Typing []string `json:"typing"`
	}{Online: online, Typing: typing}
	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("presence", payload))
}
