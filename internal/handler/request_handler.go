package handler

import (
	"net/http"
	"strings"
	"time"

	"opsportal/internal/middleware"
	"opsportal/internal/model"
	"opsportal/internal/repository"
	"opsportal/internal/service"
	"opsportal/pkg/pagination"
	"opsportal/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type RequestHandler struct {
	requests service.RequestService
	users    service.UserService
	auth     *middleware.Authenticator
}

func NewRequestHandler(requests service.RequestService, users service.UserService, auth *middleware.Authenticator) *RequestHandler {
	return &RequestHandler{requests: requests, users: users, auth: auth}
}

func (h *RequestHandler) RegisterRoutes(router *gin.RouterGroup) {
	requests := router.Group("/api/requests")
	{
		// Registration forms are public; every other kind needs an account.
		requests.POST("/:kind", h.auth.OptionalAuth(), h.Submit)
		requests.GET("/:kind", h.auth.RequireRole(model.RoleAdmin), h.List)
		requests.GET("/:kind/:id", h.auth.RequireRole(), h.Get)
		requests.PUT("/:kind/:id/decision", h.auth.RequireRole(model.RoleAdmin), h.Decide)
		requests.DELETE("/:kind/:id", h.auth.RequireRole(model.RoleAdmin), h.Delete)
	}
	router.GET("/api/my/requests/:kind", h.auth.RequireRole(), h.ListMine)
}

// Submit creates a Pending request of the kind in the path.
func (h *RequestHandler) Submit(c *gin.Context) {
	kind, err := model.ParseKind(c.Param("kind"))
	if err != nil {
		respondError(c, err)
		return
	}

	var requester *model.User
	if userID, _, ok := middleware.CurrentUser(c); ok {
		requester, err = h.users.GetUserByID(c.Request.Context(), userID)
		if err != nil {
			respondError(c, err)
			return
		}
	} else if kind != model.KindRegistration {
		c.JSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "Authorization is missing"))
		return
	}

	input, err := service.NewSubmission(kind)
	if err != nil {
		respondError(c, err)
		return
	}
	if err := c.ShouldBindJSON(input); err != nil {
		badRequest(c, "Invalid request payload: "+err.Error())
		return
	}
	req, err := input.ToModel()
	if err != nil {
		respondError(c, err)
		return
	}

	created, err := h.requests.Submit(c.Request.Context(), req, requester)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, created))
}

// Get returns one request. Staff can only read their own.
func (h *RequestHandler) Get(c *gin.Context) {
	kind, id, ok := kindAndID(c)
	if !ok {
		return
	}

	req, err := h.requests.Get(c.Request.Context(), kind, id)
	if err != nil {
		respondError(c, err)
		return
	}

	userID, role, _ := middleware.CurrentUser(c)
	if role != model.RoleAdmin {
		owner := req.Base().RequesterID
		if owner == nil || *owner != userID {
			c.JSON(http.StatusForbidden, response.Error(http.StatusForbidden, "Access denied: not your request"))
			return
		}
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, req))
}

// List returns requests of one kind filtered by status and submission date.
func (h *RequestHandler) List(c *gin.Context) {
	kind, err := model.ParseKind(c.Param("kind"))
	if err != nil {
		respondError(c, err)
		return
	}
	filter, page, ok := listFilter(c)
	if !ok {
		return
	}
	h.respondList(c, kind, filter, page)
}

// ListMine returns the caller's own requests of one kind.
func (h *RequestHandler) ListMine(c *gin.Context) {
	kind, err := model.ParseKind(c.Param("kind"))
	if err != nil {
		respondError(c, err)
		return
	}
	filter, page, ok := listFilter(c)
	if !ok {
		return
	}
	userID, _, _ := middleware.CurrentUser(c)
	filter.RequesterID = &userID
	h.respondList(c, kind, filter, page)
}

func (h *RequestHandler) respondList(c *gin.Context, kind model.Kind, filter repository.RequestFilter, page pagination.Params) {
	rows, total, err := h.requests.List(c.Request.Context(), kind, filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, page.Wrap(rows, total)))
}

// Decide approves or rejects a Pending request. Repeating a decision is harmless.
func (h *RequestHandler) Decide(c *gin.Context) {
	kind, id, ok := kindAndID(c)
	if !ok {
		return
	}

	var body service.DecisionDTO
	if err := c.ShouldBindJSON(&body); err != nil {
		badRequest(c, "Invalid request payload: "+err.Error())
		return
	}
	decision, err := model.ParseDecision(body.Decision)
	if err != nil {
		respondError(c, err)
		return
	}

	adminID, _, _ := middleware.CurrentUser(c)
	req, err := h.requests.Decide(c.Request.Context(), kind, id, decision, body.Notes, adminID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, req))
}

func (h *RequestHandler) Delete(c *gin.Context) {
	kind, id, ok := kindAndID(c)
	if !ok {
		return
	}
	adminID, _, _ := middleware.CurrentUser(c)
	if err := h.requests.Delete(c.Request.Context(), kind, id, adminID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"id": id}))
}

func kindAndID(c *gin.Context) (model.Kind, uuid.UUID, bool) {
	kind, err := model.ParseKind(c.Param("kind"))
	if err != nil {
		respondError(c, err)
		return "", uuid.Nil, false
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		// A malformed id cannot name an existing request.
		respondError(c, service.ErrNotFound)
		return "", uuid.Nil, false
	}
	return kind, id, true
}

func listFilter(c *gin.Context) (repository.RequestFilter, pagination.Params, bool) {
	page := pagination.Parse(c)
	filter := repository.RequestFilter{Page: page.Page, Limit: page.Limit}

	if s := c.Query("status"); s != "" {
		status, err := parseStatus(s)
		if err != nil {
			respondError(c, err)
			return filter, page, false
		}
		filter.Status = status
	}
	if s := c.Query("from"); s != "" {
		from, err := parseDate(s, false)
		if err != nil {
			badRequest(c, "Invalid 'from' date: use YYYY-MM-DD or RFC3339")
			return filter, page, false
		}
		filter.From = &from
	}
	if s := c.Query("to"); s != "" {
		to, err := parseDate(s, true)
		if err != nil {
			badRequest(c, "Invalid 'to' date: use YYYY-MM-DD or RFC3339")
			return filter, page, false
		}
		filter.To = &to
	}
	return filter, page, true
}

func parseStatus(s string) (model.Status, error) {
	if strings.EqualFold(s, string(model.StatusPending)) {
		return model.StatusPending, nil
	}
	return model.ParseDecision(s)
}

// parseDate accepts a calendar day or a full timestamp. A calendar day used
// as an upper bound includes the whole day.
func parseDate(s string, upper bool) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC(), nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, err
	}
	if upper {
		t = t.AddDate(0, 0, 1)
	}
	return t, nil
}
