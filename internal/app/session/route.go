package session

import "github.com/gin-gonic/gin"

func RegisterRoutes(rg gin.IRoutes, authed gin.IRoutes, handler Handler) {
	rg.POST("/login", handler.Login)
	authed.POST("/signout", handler.SignOut)
}
