package utils

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// CORSMiddleware enables CORS for browser upload clients.
func CORSMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		if origin != "" {
			c.Header("Access-Control-Allow-Origin", origin)
			c.Header("Vary", "Origin")
		} else {
			c.Header("Access-Control-Allow-Origin", "*")
		}
		c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Authorization, Content-Type, Accept, Content-Range, Format, Image-Compression-Percent, Max-Views, Expires-At, Original-Name, Override-Domain, Password, Zws, Embed, Uploadtext, No-Json, X-Zipline-Folder, X-Zipline-Filename, X-Zipline-Partial-Filename, X-Zipline-Partial-Mimetype, X-Zipline-Partial-Identifier, X-Zipline-Partial-Lastchunk")
		c.Header("Access-Control-Expose-Headers", "Content-Length, Content-Type")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

