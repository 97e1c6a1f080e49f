package deliverables

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"studio-backend/internal/requests"
	"studio-backend/internal/roles"
	"studio-backend/internal/shared/server/middleware"
	"studio-backend/internal/shared/server/respond"
)

// maxUploadBytes caps deliverable uploads at 50 MiB.
const maxUploadBytes = 50 << 20

// Handler exposes deliverable endpoints.
type Handler struct {
	Service *Service
}

// NewHandler constructs a deliverable handler.
func NewHandler(service *Service) *Handler {
	return &Handler{Service: service}
}

// Upload handles POST /requests/:id/deliverables with a multipart "file" field.
func (h *Handler) Upload(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxUploadBytes)
	fileHeader, err := c.FormFile("file")
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "invalid_request", "multipart field 'file' is required", nil)
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "invalid_request", "could not read uploaded file", nil)
		return
	}
	defer file.Close()

	d, err := h.Service.Upload(c.Request.Context(), c.Param("id"), actor, fileHeader.Filename, file)
	if err != nil {
		respondError(c, err)
		return
	}
	respond.Created(c, d)
}

// List handles GET /requests/:id/deliverables.
func (h *Handler) List(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	list, err := h.Service.List(c.Request.Context(), c.Param("id"), actor)
	if err != nil {
		respondError(c, err)
		return
	}
	if list == nil {
		list = []Deliverable{}
	}
	respond.OK(c, gin.H{"deliverables": list})
}

// Download handles GET /deliverables/:deliverableId/content.
func (h *Handler) Download(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	d, rc, err := h.Service.Open(c.Request.Context(), c.Param("deliverableId"), actor)
	if err != nil {
		respondError(c, err)
		return
	}
	defer rc.Close()

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", d.FileName))
	c.Header("Content-Type", d.MimeType)
	c.Status(http.StatusOK)
	io.Copy(c.Writer, rc)
}

func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrInvalidFileName):
		respond.Error(c, http.StatusBadRequest, "invalid_request", "invalid file name", nil)
	case errors.Is(err, ErrNotFound):
		respond.Error(c, http.StatusNotFound, "not_found", "deliverable not found", nil)
	case errors.Is(err, requests.ErrNotFound):
		respond.Error(c, http.StatusNotFound, "not_found", "request not found", nil)
	case errors.Is(err, requests.ErrPermissionDenied):
		respond.Error(c, http.StatusForbidden, "permission_denied", err.Error(), nil)
	case errors.Is(err, requests.ErrInvalidTransition):
		respond.Error(c, http.StatusConflict, "invalid_state", err.Error(), nil)
	case errors.Is(err, roles.ErrRoleLookup):
		respond.Error(c, http.StatusServiceUnavailable, "role_lookup_failed", "Role store unavailable", nil)
	default:
		respond.Error(c, http.StatusInternalServerError, "internal", "Unexpected server error", nil)
	}
}

func actorFrom(c *gin.Context) (requests.Actor, bool) {
	id := middleware.PrincipalIDFromContext(c)
	if id == "" {
		respond.Error(c, http.StatusUnauthorized, "authentication_required", "Missing identity", nil)
		return requests.Actor{}, false
	}
	return requests.Actor{ID: id, Email: middleware.PrincipalEmailFromContext(c)}, true
}
