package promocode

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/brainqy/alumni-api/internal/domain/user"
	"github.com/brainqy/alumni-api/internal/middleware"
	"github.com/brainqy/alumni-api/internal/pkg/response"
	"github.com/brainqy/alumni-api/internal/pkg/validator"
)

type Handler struct {
	svc     *Service
	limiter *RateLimiter
}

func NewHandler(svc *Service, limiter *RateLimiter) *Handler {
	return &Handler{svc: svc, limiter: limiter}
}

// Redeem handles POST /promo-codes/redeem
// @Summary Redeem a promo code
// @Description Validates the code for the caller and applies its reward in one transaction.
// @Tags PromoCodes
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body RedeemRequest true "Code to redeem"
// @Success 200 {object} response.Response{data=RedeemResult}
// @Failure 400,401,422,429,500 {object} response.Response
// @Router /promo-codes/redeem [post]
func (h *Handler) Redeem(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == uuid.Nil {
		response.Unauthorized(w, "unauthorized")
		return
	}
	if !h.limiter.Allow(r.Context(), userID) {
		response.TooManyRequests(w)
		return
	}

	var req RedeemRequest
	if err := response.DecodeJSON(r.Body, &req); err != nil {
		response.BadRequest(w, "invalid JSON body")
		return
	}
	if errs := validator.Validate(&req); errs != nil {
		response.ValidationError(w, errs)
		return
	}

	result := h.svc.Redeem(r.Context(), req.Code, userID)
	switch {
	case result.Success:
		response.OK(w, result)
	case result.Unexpected():
		response.Error(w, http.StatusInternalServerError, "REDEEM_FAILED", result.Message)
	default:
		response.Error(w, http.StatusBadRequest, "PROMO_CODE_REJECTED", result.Message)
	}
}

// List handles GET /admin/promo-codes. Admins may filter with ?tenant_id=.
// @Summary List promo codes
// @Tags PromoCodes
// @Produce json
// @Security BearerAuth
// @Param tenant_id query string false "Tenant filter (admins only)"
// @Success 200 {object} response.Response{data=[]PromoCode}
// @Failure 403,500 {object} response.Response
// @Router /admin/promo-codes [get]
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	var tenantID *string
	if middleware.GetRole(r.Context()) == middleware.RoleManager {
		own := middleware.GetTenantID(r.Context())
		tenantID = &own
	} else if q := r.URL.Query().Get("tenant_id"); q != "" {
		tenantID = &q
	}

	items, err := h.svc.List(r.Context(), tenantID)
	if err != nil {
		response.InternalError(w)
		return
	}
	response.OK(w, items)
}

// Create handles POST /admin/promo-codes
// @Summary Create a promo code
// @Tags PromoCodes
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body CreateRequest true "Promo code"
// @Success 201 {object} response.Response{data=PromoCode}
// @Failure 400,403,409,422,500 {object} response.Response
// @Router /admin/promo-codes [post]
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateRequest
	if err := response.DecodeJSON(r.Body, &req); err != nil {
		response.BadRequest(w, "invalid JSON body")
		return
	}
	if errs := validator.Validate(&req); errs != nil {
		response.ValidationError(w, errs)
		return
	}

	if isManager(r) {
		own := middleware.GetTenantID(r.Context())
		if req.TenantID != "" && req.TenantID != own {
			response.Forbidden(w, "managers can only create codes for their own tenant")
			return
		}
		req.TenantID = own
	}

	p, err := h.svc.Create(r.Context(), &req)
	if err != nil {
		h.writeError(w, err)
		return
	}
	response.Created(w, p)
}

// Update handles PATCH /admin/promo-codes/{id}
// @Summary Update a promo code
// @Tags PromoCodes
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Promo code ID"
// @Param request body UpdateRequest true "Changed fields"
// @Success 200 {object} response.Response{data=PromoCode}
// @Failure 400,403,404,409,422,500 {object} response.Response
// @Router /admin/promo-codes/{id} [patch]
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	var req UpdateRequest
	if err := response.DecodeJSON(r.Body, &req); err != nil {
		response.BadRequest(w, "invalid JSON body")
		return
	}
	if errs := validator.Validate(&req); errs != nil {
		response.ValidationError(w, errs)
		return
	}

	if isManager(r) {
		if err := h.checkTenant(r, id); err != nil {
			h.writeError(w, err)
			return
		}
		if req.TenantID != nil && *req.TenantID != middleware.GetTenantID(r.Context()) {
			response.Forbidden(w, "managers cannot move codes to another tenant")
			return
		}
	}

	p, err := h.svc.Update(r.Context(), id, &req)
	if err != nil {
		h.writeError(w, err)
		return
	}
	response.OK(w, p)
}

// Delete handles DELETE /admin/promo-codes/{id}
// @Summary Delete a promo code
// @Tags PromoCodes
// @Produce json
// @Security BearerAuth
// @Param id path string true "Promo code ID"
// @Success 204
// @Failure 400,403,404,500 {object} response.Response
// @Router /admin/promo-codes/{id} [delete]
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	if isManager(r) {
		if err := h.checkTenant(r, id); err != nil {
			h.writeError(w, err)
			return
		}
	}

	deleted, err := h.svc.Delete(r.Context(), id)
	if err != nil {
		response.InternalError(w)
		return
	}
	if !deleted {
		response.NotFound(w, "promo code not found")
		return
	}
	response.NoContent(w)
}

// checkTenant allows a manager to touch only codes of their own tenant.
func (h *Handler) checkTenant(r *http.Request, id uuid.UUID) error {
	p, err := h.svc.GetByID(r.Context(), id)
	if err != nil {
		return err
	}
	if p.TenantID == user.PlatformTenant || p.TenantID != middleware.GetTenantID(r.Context()) {
		return ErrForbiddenTenant
	}
	return nil
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrPromoCodeNotFound):
		response.NotFound(w, "promo code not found")
	case errors.Is(err, ErrCodeExists):
		response.Conflict(w, "promo code already exists")
	case errors.Is(err, ErrForbiddenTenant):
		response.Forbidden(w, "promo code belongs to another tenant")
	default:
		response.InternalError(w)
	}
}

func isManager(r *http.Request) bool {
	return middleware.GetRole(r.Context()) == middleware.RoleManager
}

func parseID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "invalid promo code id")
		return uuid.Nil, false
	}
	return id, true
}

// Routes mounts the user-facing redemption endpoint.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Post("/redeem", h.Redeem)
	return r
}

// AdminRoutes mounts the code ledger for admins and tenant managers.
func (h *Handler) AdminRoutes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Patch("/{id}", h.Update)
	r.Delete("/{id}", h.Delete)
	return r
}
