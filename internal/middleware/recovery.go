package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/gymgrid/backend/pkg/response"
)

// Recovery converts panics into the standard 500 envelope. The stack trace is
// attached to the response only when includeStack is set (non-prod).
func Recovery(logger *zap.Logger, includeStack bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if rec := recover(); rec != nil {
				stack := debug.Stack()
				logger.Error("panic recovered",
					zap.Any("panic", rec),
					zap.String("path", c.Request.URL.Path),
					zap.ByteString("stack", stack),
				)
				body := response.Body{Success: false, Error: "internal server error"}
				if includeStack {
					body.Message = fmt.Sprintf("%v\n%s", rec, stack)
				}
				c.AbortWithStatusJSON(http.StatusInternalServerError, body)
			}
		}()
		c.Next()
	}
}
