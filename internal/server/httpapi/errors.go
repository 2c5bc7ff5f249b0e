package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/sendly-app/sendly/internal/common"
	"github.com/sendly-app/sendly/internal/server/templating"
)

// Issue describes one invalid request field.
type Issue struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// respondError is the single place where service errors become HTTP statuses.
func (h *Handler) respondError(c *gin.Context, err error) {
	var (
		verrs   validator.ValidationErrors
		missing *templating.MissingVariablesError
		syntax  *json.SyntaxError
		typeErr *json.UnmarshalTypeError
	)
	switch {
	case errors.As(err, &verrs):
		c.JSON(http.StatusBadRequest, gin.H{"error": "validation failed", "issues": issues(verrs)})
	case errors.As(err, &missing):
		c.JSON(http.StatusBadRequest, gin.H{"error": missing.Error(), "missing": missing.Names})
	case errors.As(err, &syntax), errors.As(err, &typeErr), errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF):
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
	case errors.Is(err, common.ErrorValidation):
		c.JSON(http.StatusBadRequest, gin.H{"error": strings.TrimPrefix(err.Error(), common.ErrorValidation.Error()+": ")})
	case errors.Is(err, common.ErrCannotRevokeCurrentSession),
		errors.Is(err, common.ErrTwoFactorAlreadyEnabled),
		errors.Is(err, common.ErrTwoFactorNotPending),
		errors.Is(err, common.ErrTwoFactorNotEnabled),
		errors.Is(err, common.ErrInvalidTwoFactorCode),
		errors.Is(err, common.ErrNotScheduled),
		errors.Is(err, common.ErrScheduleInThePast):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, common.ErrorUnauthorized), errors.Is(err, common.ErrInvalidToken), errors.Is(err, common.ErrTokenExpired):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
	case errors.Is(err, common.ErrorForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
	case errors.Is(err, common.ErrorNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	case errors.Is(err, common.ErrorAlreadyExists):
		c.JSON(http.StatusConflict, gin.H{"error": "already exists"})
	default:
		h.log.Error(c.Request.Context(), "request failed", "path", c.FullPath(), "error", err)
		body := gin.H{"error": "internal server error"}
		if !h.opts.Production {
			body["detail"] = err.Error()
		}
		c.JSON(http.StatusInternalServerError, body)
	}
}

func issues(verrs validator.ValidationErrors) []Issue {
	out := make([]Issue, 0, len(verrs))
	for _, fe := range verrs {
		out = append(out, Issue{Field: jsonPath(fe.Namespace()), Message: describe(fe)})
	}
	return out
}

// jsonPath drops the request struct name and lower-cases the first letter of
// each segment: "loginRequest.Email" becomes "email".
func jsonPath(ns string) string {
	_, rest, found := strings.Cut(ns, ".")
	if !found {
		rest = ns
	}
	parts := strings.Split(rest, ".")
	for i, p := range parts {
		if p != "" {
			parts[i] = strings.ToLower(p[:1]) + p[1:]
		}
	}
	return strings.Join(parts, ".")
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "url":
		return "must be a valid URL"
	case "min":
		return "must be at least " + fe.Param() + " long"
	case "max":
		return "must be at most " + fe.Param() + " long"
	case "len":
		return "must be exactly " + fe.Param() + " characters"
	case "numeric":
		return "must contain digits only"
	default:
		return "is invalid (" + fe.Tag() + ")"
	}
}
