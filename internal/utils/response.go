package utils

import (
	"github.com/gin-gonic/gin"
)

// Envelope is the body of every handled API response.
type Envelope struct {
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
	Details string      `json:"details,omitempty"`
}

func RespondOK(c *gin.Context, status int, message string, data interface{}) {
	c.JSON(status, Envelope{Message: message, Data: data})
}

func RespondError(c *gin.Context, status int, message, details string) {
	c.AbortWithStatusJSON(status, Envelope{Message: message, Details: details})
}
