package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/playhub/backend/internal/interfaces/http/dto"
)

// BodyLimit rejects declared oversized bodies with 413 and caps streamed ones
func BodyLimit(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.ContentLength > maxBytes {
			abortWithError(c, http.StatusRequestEntityTooLarge, dto.ErrCodeRequestTooLarge,
				"Request body exceeds maximum allowed size")
			return
		}

		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}
