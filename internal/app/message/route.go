package message

import "github.com/gin-gonic/gin"

// RegisterRoutes mounts the message API on an authenticated group. Mutating
// routes additionally pass through writeGuards (rate limiting).
func RegisterRoutes(rg *gin.RouterGroup, handler Handler, writeGuards ...gin.HandlerFunc) {
	messages := rg.Group("/message")
	{
		messages.GET("", handler.GetAllMessages)
		messages.GET("/date", handler.GetMessagesByDate)
		messages.GET("/search", handler.SearchMessages)

		writes := messages.Group("", writeGuards...)
		writes.POST("", handler.WriteMessage)
		writes.PUT("", handler.UpdateMessage)
		writes.DELETE("/:messageId", handler.DeleteMessage)
	}
}
