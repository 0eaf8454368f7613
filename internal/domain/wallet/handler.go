package wallet

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/brainqy/alumni-api/internal/middleware"
	"github.com/brainqy/alumni-api/internal/pkg/response"
	"github.com/brainqy/alumni-api/internal/pkg/validator"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// Get handles GET /wallet
// @Summary Get own wallet
// @Description Returns the caller's wallet with the 50 most recent transactions. The wallet is created with the starting balance on first access.
// @Tags Wallet
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response{data=WalletResponse}
// @Failure 401,503 {object} response.Response
// @Router /wallet [get]
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == uuid.Nil {
		response.Unauthorized(w, "unauthorized")
		return
	}

	wallet, err := h.svc.GetWallet(r.Context(), userID)
	if err != nil {
		response.Error(w, http.StatusServiceUnavailable, "WALLET_UNAVAILABLE", "Wallet is temporarily unavailable")
		return
	}

	response.OK(w, NewWalletResponse(wallet, time.Now()))
}

// Adjust handles PATCH /admin/wallets/{userID}
// @Summary Adjust a user's wallet
// @Description Sets the coin balance and/or flash coins. A balance change is recorded as one credit or debit.
// @Tags Wallet
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param userID path string true "User ID"
// @Param request body AdjustRequest true "Wallet change"
// @Success 200 {object} response.Response{data=WalletResponse}
// @Failure 400,422,503 {object} response.Response
// @Router /admin/wallets/{userID} [patch]
func (h *Handler) Adjust(w http.ResponseWriter, r *http.Request) {
	userID, err := uuid.Parse(chi.URLParam(r, "userID"))
	if err != nil {
		response.BadRequest(w, "invalid user id")
		return
	}

	var req AdjustRequest
	if err := response.DecodeJSON(r.Body, &req); err != nil {
		response.BadRequest(w, "invalid JSON body")
		return
	}
	if errs := validator.Validate(&req); errs != nil {
		response.ValidationError(w, errs)
		return
	}
	if req.Coins == nil && req.FlashCoins == nil {
		response.BadRequest(w, "coins or flash_coins is required")
		return
	}

	wallet, err := h.svc.UpdateWallet(r.Context(), userID, req.ToUpdate(), req.Description)
	if err != nil {
		if errors.Is(err, ErrInvalidAmount) {
			response.BadRequest(w, "coins must not be negative")
			return
		}
		response.Error(w, http.StatusServiceUnavailable, "WALLET_UNAVAILABLE", "Wallet is temporarily unavailable")
		return
	}

	response.OK(w, NewWalletResponse(wallet, time.Now()))
}

// Routes mounts the caller's own wallet.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.Get)
	return r
}

// AdminRoutes mounts administrative wallet adjustments.
func (h *Handler) AdminRoutes() chi.Router {
	r := chi.NewRouter()
	r.Patch("/{userID}", h.Adjust)
	return r
}
