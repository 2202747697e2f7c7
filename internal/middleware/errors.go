package middleware

import (
	"net/http"

	"groupchat/internal/apperr"
	"groupchat/internal/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const genericFaultMessage = "Internal server error"

// ErrorHandler is the single place where handler failures become responses.
// Status >= 500 renders a generic fault with no details; everything else
// renders the {message, details} envelope.
func ErrorHandler(logger *zap.Logger) gin.HandlerFunc {
	log := logger.Sugar()
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}
		err := c.Errors.Last().Err

		appErr, ok := apperr.As(err)
		if !ok {
			appErr = apperr.Internal(genericFaultMessage, err)
		}

		status := appErr.Status()
		if status >= http.StatusInternalServerError {
			log.Errorw("Request failed",
				"method", c.Request.Method,
				"path", c.Request.URL.Path,
				"error", err,
			)
			utils.RespondError(c, status, genericFaultMessage, "")
			return
		}

		log.Debugw("Request rejected",
			"path", c.Request.URL.Path,
			"status", status,
			"kind", appErr.Kind.String(),
		)
		utils.RespondError(c, status, appErr.Message, appErr.Details)
	}
}
