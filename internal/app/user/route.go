package user

import "github.com/gin-gonic/gin"

// RegisterRoutes mounts the public registration route on rg and the
// session-scoped routes on authed.
func RegisterRoutes(rg gin.IRoutes, authed gin.IRoutes, handler Handler) {
	rg.POST("/register", handler.Register)
	authed.GET("/user", handler.GetCurrentUser)
}
