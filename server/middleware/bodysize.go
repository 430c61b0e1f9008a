package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/skillsenselab/authgate/util"
)

const defaultMaxBodySize = 1024 * 1024 // 1MB

// GinBodySizeLimit restricts request bodies to the given size string
// (e.g. "1MB", "512KB"). Auth requests carry no meaningful bodies, so the
// limit is mostly a guard against junk uploads.
func GinBodySizeLimit(maxSize string) gin.HandlerFunc {
	size := util.ParseSize(maxSize, defaultMaxBodySize)
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, size)
		c.Next()
	}
}
