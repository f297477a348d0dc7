package subscriber

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/pseudosapiens/phrase-api/internal/handler"
	"github.com/pseudosapiens/phrase-api/internal/middleware"
	"github.com/pseudosapiens/phrase-api/internal/service/engine"
	subscriberService "github.com/pseudosapiens/phrase-api/internal/service/subscriber"
)

type Handler struct {
	service *subscriberService.Service
	engine  *engine.Service
}

func NewHandler(service *subscriberService.Service, engine *engine.Service) *Handler {
	return &Handler{service: service, engine: engine}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	subscribers := r.Group("/subscribers")
	{
		subscribers.POST("", h.Signup)
		subscribers.GET("/:id/stats", h.Stats)
	}

	r.GET("/unsubscribe", h.Unsubscribe)
}

type signupRequest struct {
	Email string  `json:"email" binding:"required,email"`
	Name  *string `json:"name,omitempty"`
}

func (h *Handler) Signup(c *gin.Context) {
	var req signupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"status": "error",
			"errors": middleware.ValidationErrors(err),
		})
		return
	}

	sub, err := h.service.Signup(c.Request.Context(), req.Email, req.Name)
	if err != nil {
		c.JSON(handler.StatusCode(err), handler.NewErrorResponse(err.Error()))
		return
	}

	c.JSON(http.StatusCreated, handler.NewSuccessResponse(sub))
}

func (h *Handler) Stats(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid subscriber ID"))
		return
	}

	stats, err := h.engine.Stats(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, handler.NewErrorResponse(err.Error()))
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(stats))
}

func (h *Handler) Unsubscribe(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("missing token"))
		return
	}

	if err := h.service.Unsubscribe(c.Request.Context(), token); err != nil {
		c.JSON(handler.StatusCode(err), handler.NewErrorResponse(err.Error()))
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(gin.H{
		"unsubscribed": true,
	}))
}
