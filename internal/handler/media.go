package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/vidtube/backend/internal/model"
	"github.com/vidtube/backend/internal/service"
)

type MediaHandler struct {
	svc *service.MediaService
}

func NewMediaHandler(svc *service.MediaService) *MediaHandler {
	return &MediaHandler{svc: svc}
}

// UpdateAvatar godoc
// @Summary Replace avatar image
// @Tags users
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param avatar formData file true "Image (jpeg, png, webp, gif; max 2MB)"
// @Success 200 {object} model.MediaUpdateResult
// @Failure 400 {object} model.ErrorResponse
// @Router /api/v1/users/avatar [patch]
func (h *MediaHandler) UpdateAvatar(c *gin.Context) {
	h.update(c, "avatar", model.SlotAvatar)
}

// UpdateCover godoc
// @Summary Replace cover image
// @Tags users
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param coverImage formData file true "Image (jpeg, png, webp, gif; max 2MB)"
// @Success 200 {object} model.MediaUpdateResult
// @Failure 400 {object} model.ErrorResponse
// @Router /api/v1/users/cover-image [patch]
func (h *MediaHandler) UpdateCover(c *gin.Context) {
	h.update(c, "coverImage", model.SlotCover)
}

func (h *MediaHandler) update(c *gin.Context, field string, slot model.MediaSlot) {
	user := GetAuthUser(c)
	if user == nil {
		writeError(c, service.ErrUnauthenticated)
		return
	}

	header, err := c.FormFile(field)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": field + " file is required"})
		return
	}
	file, err := header.Open()
	if err != nil {
		writeError(c, err)
		return
	}
	defer file.Close()

	result, err := h.svc.UpdateImage(c.Request.Context(), user.ID, slot, model.MediaUpload{
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Size:        header.Size,
		Body:        file,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}
