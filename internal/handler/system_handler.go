package handler

import (
	"net/http"

	"opsportal/internal/config"
	"opsportal/internal/metrics"
	"opsportal/internal/middleware"
	"opsportal/internal/model"
	"opsportal/pkg/response"

	"github.com/gin-gonic/gin"
)

// SystemHandler serves liveness, metrics and integration status.
type SystemHandler struct {
	cfg  *config.Config
	auth *middleware.Authenticator
}

func NewSystemHandler(cfg *config.Config, auth *middleware.Authenticator) *SystemHandler {
	return &SystemHandler{cfg: cfg, auth: auth}
}

func (h *SystemHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/health", h.Health)
	router.GET("/metrics", gin.WrapH(metrics.Handler()))
	router.GET("/api/admin/services", h.auth.RequireRole(model.RoleAdmin), h.Services)
}

func (h *SystemHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Services reports which optional integrations are configured.
func (h *SystemHandler) Services(c *gin.Context) {
	c.JSON(http.StatusOK, response.Success(http.StatusOK, h.cfg.ServiceStatus()))
}
