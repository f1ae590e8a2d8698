package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/nulzo/ai-gateway/internal/core/domain"
)

// ErrorHandler converts errors attached by handlers into the response
// envelope. Typed errors keep their status and safe message; anything else
// collapses to a generic 500 so internal detail never leaks.
func ErrorHandler(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}
		if c.Writer.Written() {
			return
		}

		err := c.Errors.Last().Err

		var ge *domain.Error
		if errors.As(err, &ge) {
			if ge.Log != nil {
				logger.Warn("Request error",
					zap.String("kind", string(ge.Kind)),
					zap.Error(ge.Log),
				)
			}
			c.JSON(ge.Code, gin.H{"success": false, "error": ge.Message})
			c.Abort()
			return
		}

		logger.Error("Unhandled error", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "internal error"})
		c.Abort()
	}
}
