package user

import (
	"net/http"

	"groupchat/internal/apperr"
	"groupchat/internal/middleware"
	"groupchat/internal/utils"

	"github.com/gin-gonic/gin"
)

type Handler interface {
	Register(c *gin.Context)
	GetCurrentUser(c *gin.Context)
}

type handler struct {
	service Service
}

func NewHandler(service Service) Handler {
	return &handler{service: service}
}

// @Summary Register a user
// @Tags User
// @Accept json
// @Produce json
// @Success 201 {object} utils.Envelope
// @Failure 400 {object} utils.Envelope
// @Router /api/register [post]
func (h *handler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(apperr.Validation("Invalid registration data").WithDetails(err.Error()))
		return
	}

	user, err := h.service.Register(c.Request.Context(), req)
	if err != nil {
		_ = c.Error(err)
		return
	}

	utils.RespondOK(c, http.StatusCreated, "User registered successfully", user.Response())
}

func (h *handler) GetCurrentUser(c *gin.Context) {
	user, err := h.service.GetUserByID(c.Request.Context(), middleware.CallerID(c))
	if err != nil {
		_ = c.Error(err)
		return
	}
	utils.RespondOK(c, http.StatusOK, "User retrieved", user.Response())
}
