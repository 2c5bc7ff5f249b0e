package httpapi

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sendly-app/sendly/internal/common"
	"github.com/sendly-app/sendly/internal/server/services"
)

// readUpload returns the bytes of multipart field. Bodies past the upload
// limit are cut off and reported as a validation error.
func readUpload(c *gin.Context, field string) (string, []byte, error) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, common.MaxUploadSize+1<<20)
	fh, err := c.FormFile(field)
	if err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			return "", nil, fmt.Errorf("%w: file exceeds %d bytes", common.ErrorValidation, common.MaxUploadSize)
		}
		return "", nil, fmt.Errorf("%w: multipart field %q is required", common.ErrorValidation, field)
	}
	f, err := fh.Open()
	if err != nil {
		return "", nil, fmt.Errorf("open upload: %w", err)
	}
	defer f.Close()
	data, err := io.ReadAll(io.LimitReader(f, common.MaxUploadSize+1))
	if err != nil {
		return "", nil, fmt.Errorf("read upload: %w", err)
	}
	return fh.Filename, data, nil
}

func (h *Handler) GetProfile(c *gin.Context) {
	p, err := h.Profiles.Get(c.Request.Context(), mustUser(c).ID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"profile": p})
}

func (h *Handler) UpdateProfile(c *gin.Context) {
	var req services.ProfileInput
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondError(c, err)
		return
	}
	p, err := h.Profiles.Update(c.Request.Context(), mustUser(c).ID, req)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"profile": p})
}

func (h *Handler) UploadAvatar(c *gin.Context) {
	_, data, err := readUpload(c, "avatar")
	if err != nil {
		h.respondError(c, err)
		return
	}
	url, err := h.Profiles.UploadAvatar(c.Request.Context(), mustUser(c).ID, data)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"avatarUrl": url})
}

func (h *Handler) UploadImage(c *gin.Context) {
	name, data, err := readUpload(c, "file")
	if err != nil {
		h.respondError(c, err)
		return
	}
	img, err := h.Images.Upload(c.Request.Context(), mustUser(c).ID, name, data)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"image": img, "url": imageURL(img.ID)})
}

func (h *Handler) ListImages(c *gin.Context) {
	list, err := h.Images.List(c.Request.Context(), mustUser(c).ID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"images": list})
}

// RawImage is public so the image can be embedded in sent emails.
func (h *Handler) RawImage(c *gin.Context) {
	img, err := h.Images.Raw(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.Header("Cache-Control", "public, max-age=31536000, immutable")
	c.Header("X-Content-Type-Options", "nosniff")
	c.Data(http.StatusOK, img.ContentType, img.Data)
}

func (h *Handler) DeleteImage(c *gin.Context) {
	if err := h.Images.Delete(c.Request.Context(), mustUser(c).ID, c.Param("id")); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func imageURL(id string) string {
	return "/api/images/" + id + "/raw"
}
