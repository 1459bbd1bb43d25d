package httptransport

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	appclick "lastclick/internal/app/click"
	apppublic "lastclick/internal/app/public"

	"github.com/go-chi/chi/v5"
)

type GameHandlers struct {
	clickSvc  *appclick.Service
	publicSvc *apppublic.Service
}

func NewGameHandlers(clickSvc *appclick.Service, publicSvc *apppublic.Service) *GameHandlers {
	return &GameHandlers{clickSvc: clickSvc, publicSvc: publicSvc}
}

func (h *GameHandlers) Games() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var statuses []string
		if v := r.URL.Query().Get("status"); v != "" {
			statuses = strings.Split(v, ",")
		}
		limit, offset := ParsePagination(r)
		resp, err := h.publicSvc.Games(r.Context(), statuses, limit, offset)
		if err != nil {
			WriteHTTPError(w, http.StatusInternalServerError, "internal_error")
			return
		}
		_ = json.NewEncoder(w).Encode(resp)
	}
}

func (h *GameHandlers) Game() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp, err := h.publicSvc.Game(r.Context(), chi.URLParam(r, "game_id"))
		if err != nil {
			switch {
			case errors.Is(err, apppublic.ErrInvalidRequest):
				WriteHTTPError(w, http.StatusBadRequest, "invalid_request")
			case errors.Is(err, apppublic.ErrNotFound):
				WriteHTTPError(w, http.StatusNotFound, "game_not_found")
			default:
				WriteHTTPError(w, http.StatusInternalServerError, "internal_error")
			}
			return
		}
		_ = json.NewEncoder(w).Encode(resp)
	}
}

func (h *GameHandlers) RecentClicks() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit := 0
		if v := r.URL.Query().Get("limit"); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil || n < 1 {
				WriteHTTPError(w, http.StatusBadRequest, "invalid_request")
				return
			}
			limit = n
		}
		resp, err := h.publicSvc.RecentClicks(r.Context(), r.URL.Query().Get("game_id"), limit)
		if err != nil {
			WriteHTTPError(w, http.StatusInternalServerError, "internal_error")
			return
		}
		_ = json.NewEncoder(w).Encode(resp)
	}
}

type clickRequest struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
}

func (h *GameHandlers) Click() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req clickRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteHTTPError(w, http.StatusBadRequest, "invalid_request")
			return
		}
		res, err := h.clickSvc.UserClick(r.Context(), chi.URLParam(r, "game_id"), req.UserID, req.Username)
		if err != nil {
			writeClickError(w, err)
			return
		}
		_ = json.NewEncoder(w).Encode(res)
	}
}

// The bot-click body keeps the camelCase key the original browser clients
// already send.
type botClickRequest struct {
	GameID   string `json:"gameId"`
	Username string `json:"username"`
}

func (h *GameHandlers) BotClick() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req botClickRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteHTTPError(w, http.StatusBadRequest, "invalid_request")
			return
		}
		if err := h.clickSvc.BotClick(r.Context(), req.GameID, req.Username); err != nil {
			writeClickError(w, err)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"success": true, "username": req.Username})
	}
}

func writeClickError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, appclick.ErrInvalidRequest):
		WriteHTTPError(w, http.StatusBadRequest, "invalid_request")
	case errors.Is(err, appclick.ErrGameNotFound):
		WriteHTTPError(w, http.StatusNotFound, "game_not_found")
	case errors.Is(err, appclick.ErrGameNotRunning):
		WriteHTTPError(w, http.StatusConflict, "game_not_running")
	case errors.Is(err, appclick.ErrInsufficientCredits):
		WriteHTTPError(w, http.StatusPaymentRequired, "insufficient_credits")
	case errors.Is(err, appclick.ErrRateLimited):
		WriteHTTPError(w, http.StatusTooManyRequests, "rate_limited")
	default:
		WriteHTTPError(w, http.StatusInternalServerError, "internal_error")
	}
}
