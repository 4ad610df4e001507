package handler

import (
	"errors"
	"net/http"

	"opsportal/internal/model"
	"opsportal/internal/service"
	"opsportal/pkg/response"

	"github.com/gin-gonic/gin"
)

// respondError maps service errors onto HTTP statuses.
func respondError(c *gin.Context, err error) {
	var verr *model.ValidationError
	var perr *service.PersistenceError
	switch {
	case errors.As(err, &verr):
		c.JSON(http.StatusBadRequest, response.FieldError(http.StatusBadRequest, verr.Field, verr.Error()))
	case errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusNotFound, response.Error(http.StatusNotFound, "Resource not found"))
	case errors.As(err, &perr):
		_ = c.Error(err)
		c.JSON(http.StatusServiceUnavailable, response.Error(http.StatusServiceUnavailable, "Storage is unavailable, please retry later"))
	default:
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, "Internal server error"))
	}
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, msg))
}
