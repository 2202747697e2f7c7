package session

import (
	"net/http"
	"time"

	"groupchat/internal/app/user"
	"groupchat/internal/apperr"
	"groupchat/internal/middleware"
	"groupchat/internal/utils"

	"github.com/gin-gonic/gin"
)

type Handler interface {
	Login(c *gin.Context)
	SignOut(c *gin.Context)
}

type handler struct {
	service    Service
	cookieName string
	secure     bool
}

func NewHandler(service Service, cookieName string, secure bool) Handler {
	return &handler{service: service, cookieName: cookieName, secure: secure}
}

// @Summary Log in
// @Tags Session
// @Accept json
// @Produce json
// @Success 200 {object} utils.Envelope
// @Failure 401 {object} utils.Envelope
// @Router /api/login [post]
func (h *handler) Login(c *gin.Context) {
	var req user.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(apperr.Validation("Email and password are required").WithDetails(err.Error()))
		return
	}

	session, u, err := h.service.Login(c.Request.Context(), req.Email, req.Password, c.GetHeader("User-Agent"))
	if err != nil {
		_ = c.Error(err)
		return
	}

	maxAge := int(time.Until(session.ExpiresAt).Seconds())
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(h.cookieName, session.SessionKey, maxAge, "/", "", h.secure, true)

	utils.RespondOK(c, http.StatusOK, "Logged in", u.Response())
}

func (h *handler) SignOut(c *gin.Context) {
	if err := h.service.SignOut(c.Request.Context(), middleware.CallerID(c)); err != nil {
		_ = c.Error(err)
		return
	}
	c.SetCookie(h.cookieName, "", -1, "/", "", h.secure, true)
	utils.RespondOK(c, http.StatusOK, "Signed out", nil)
}
