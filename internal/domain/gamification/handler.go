package gamification

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/brainqy/alumni-api/internal/middleware"
	"github.com/brainqy/alumni-api/internal/pkg/imaging"
	"github.com/brainqy/alumni-api/internal/pkg/response"
	"github.com/brainqy/alumni-api/internal/pkg/storage"
	"github.com/brainqy/alumni-api/internal/pkg/validator"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// ListBadges handles GET /badges
// @Summary List badges
// @Tags Gamification
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response{data=[]Badge}
// @Failure 500 {object} response.Response
// @Router /badges [get]
func (h *Handler) ListBadges(w http.ResponseWriter, r *http.Request) {
	badges, err := h.svc.ListBadges(r.Context())
	if err != nil {
		response.InternalError(w)
		return
	}
	response.OK(w, badges)
}

// Check handles POST /gamification/check for the caller
// @Summary Check and award badges
// @Description Awards every badge whose trigger the caller now meets and returns the newly earned ones.
// @Tags Gamification
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response{data=[]Badge}
// @Failure 401 {object} response.Response
// @Router /gamification/check [post]
func (h *Handler) Check(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == uuid.Nil {
		response.Unauthorized(w, "unauthorized")
		return
	}
	response.OK(w, map[string]interface{}{
		"new_badges": h.svc.CheckAndAwardBadges(r.Context(), userID),
	})
}

// CreateBadge handles POST /admin/badges
// @Summary Create a badge
// @Tags Gamification
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body CreateBadgeRequest true "Badge"
// @Success 201 {object} response.Response{data=Badge}
// @Failure 400,422,500 {object} response.Response
// @Router /admin/badges [post]
func (h *Handler) CreateBadge(w http.ResponseWriter, r *http.Request) {
	var req CreateBadgeRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	b, err := h.svc.CreateBadge(r.Context(), &req)
	if err != nil {
		writeError(w, err)
		return
	}
	response.Created(w, b)
}

// UpdateBadge handles PATCH /admin/badges/{id}
// @Summary Update a badge
// @Tags Gamification
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Badge ID"
// @Param request body UpdateBadgeRequest true "Changed fields"
// @Success 200 {object} response.Response{data=Badge}
// @Failure 400,404,422,500 {object} response.Response
// @Router /admin/badges/{id} [patch]
func (h *Handler) UpdateBadge(w http.ResponseWriter, r *http.Request) {
	id, ok := parseBadgeID(w, r)
	if !ok {
		return
	}
	var req UpdateBadgeRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	b, err := h.svc.UpdateBadge(r.Context(), id, &req)
	if err != nil {
		writeError(w, err)
		return
	}
	response.OK(w, b)
}

// DeleteBadge handles DELETE /admin/badges/{id}
// @Summary Delete a badge
// @Tags Gamification
// @Produce json
// @Security BearerAuth
// @Param id path string true "Badge ID"
// @Success 204
// @Failure 400,404,500 {object} response.Response
// @Router /admin/badges/{id} [delete]
func (h *Handler) DeleteBadge(w http.ResponseWriter, r *http.Request) {
	id, ok := parseBadgeID(w, r)
	if !ok {
		return
	}
	deleted, err := h.svc.DeleteBadge(r.Context(), id)
	if err != nil {
		response.InternalError(w)
		return
	}
	if !deleted {
		response.NotFound(w, "badge not found")
		return
	}
	response.NoContent(w)
}

// UploadIcon handles POST /admin/badges/{id}/icon (multipart field "file")
// @Summary Upload a badge icon
// @Description The image is cropped to a square PNG before it is stored.
// @Tags Gamification
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param id path string true "Badge ID"
// @Param file formData file true "Icon image"
// @Success 200 {object} response.Response{data=Badge}
// @Failure 400,404,500 {object} response.Response
// @Router /admin/badges/{id}/icon [post]
func (h *Handler) UploadIcon(w http.ResponseWriter, r *http.Request) {
	id, ok := parseBadgeID(w, r)
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, imaging.MaxFileSize+1024*1024)
	file, _, err := r.FormFile("file")
	if err != nil {
		response.BadRequest(w, "file is required")
		return
	}
	defer file.Close()

	data, _, err := storage.ValidateFile(file, storage.ImageMimeTypes, imaging.MaxFileSize)
	if err != nil {
		switch {
		case errors.Is(err, storage.ErrFileTooLarge):
			response.BadRequest(w, "file exceeds 2MB")
		case errors.Is(err, storage.ErrInvalidMimeType), errors.Is(err, storage.ErrEmptyFile):
			response.BadRequest(w, "file must be a JPEG, PNG or GIF image")
		default:
			response.BadRequest(w, "failed to read file")
		}
		return
	}

	b, err := h.svc.UploadIcon(r.Context(), id, data)
	if err != nil {
		writeError(w, err)
		return
	}
	response.OK(w, b)
}

// ListRules handles GET /admin/gamification-rules
// @Summary List gamification rules
// @Tags Gamification
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response{data=[]Rule}
// @Failure 500 {object} response.Response
// @Router /admin/gamification-rules [get]
func (h *Handler) ListRules(w http.ResponseWriter, r *http.Request) {
	rules, err := h.svc.ListRules(r.Context())
	if err != nil {
		response.InternalError(w)
		return
	}
	response.OK(w, rules)
}

// CreateRule handles POST /admin/gamification-rules
// @Summary Create a gamification rule
// @Tags Gamification
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body CreateRuleRequest true "Rule"
// @Success 201 {object} response.Response{data=Rule}
// @Failure 400,409,422,500 {object} response.Response
// @Router /admin/gamification-rules [post]
func (h *Handler) CreateRule(w http.ResponseWriter, r *http.Request) {
	var req CreateRuleRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	rule, err := h.svc.CreateRule(r.Context(), &req)
	if err != nil {
		writeError(w, err)
		return
	}
	response.Created(w, rule)
}

// UpdateRule handles PATCH /admin/gamification-rules/{actionID}
func (h *Handler) UpdateRule(w http.ResponseWriter, r *http.Request) {
	var req UpdateRuleRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	rule, err := h.svc.UpdateRule(r.Context(), chi.URLParam(r, "actionID"), &req)
	if err != nil {
		writeError(w, err)
		return
	}
	response.OK(w, rule)
}

// DeleteRule handles DELETE /admin/gamification-rules/{actionID}
func (h *Handler) DeleteRule(w http.ResponseWriter, r *http.Request) {
	deleted, err := h.svc.DeleteRule(r.Context(), chi.URLParam(r, "actionID"))
	if err != nil {
		response.InternalError(w)
		return
	}
	if !deleted {
		response.NotFound(w, "gamification rule not found")
		return
	}
	response.NoContent(w)
}

func decodeAndValidate(w http.ResponseWriter, r *http.Request, req interface{}) bool {
	if err := response.DecodeJSON(r.Body, req); err != nil {
		response.BadRequest(w, "invalid JSON body")
		return false
	}
	if errs := validator.Validate(req); errs != nil {
		response.ValidationError(w, errs)
		return false
	}
	return true
}

func parseBadgeID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "invalid badge id")
		return uuid.Nil, false
	}
	return id, true
}

func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrBadgeNotFound):
		response.NotFound(w, "badge not found")
	case errors.Is(err, ErrRuleNotFound):
		response.NotFound(w, "gamification rule not found")
	case errors.Is(err, ErrRuleExists):
		response.Conflict(w, "gamification rule already exists")
	case errors.Is(err, ErrInvalidImage):
		response.BadRequest(w, "could not read image")
	default:
		response.InternalError(w)
	}
}

// Routes mounts the badge catalog and self-check for authenticated users.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/badges", h.ListBadges)
	r.Post("/gamification/check", h.Check)
	return r
}

// AdminBadgeRoutes mounts badge catalog management.
func (h *Handler) AdminBadgeRoutes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.ListBadges)
	r.Post("/", h.CreateBadge)
	r.Patch("/{id}", h.UpdateBadge)
	r.Delete("/{id}", h.DeleteBadge)
	r.Post("/{id}/icon", h.UploadIcon)
	return r
}

// AdminRuleRoutes mounts gamification rule management.
func (h *Handler) AdminRuleRoutes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.ListRules)
	r.Post("/", h.CreateRule)
	r.Patch("/{actionID}", h.UpdateRule)
	r.Delete("/{actionID}", h.DeleteRule)
	return r
}
