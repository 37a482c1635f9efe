package cors

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// Headers the school portal sends and reads. X-Cache reports report card cache hits and
// Content-Disposition carries the file name of downloaded exports.
const (
	allowHeaders  = "Authorization, Content-Type, X-Requested-With, X-Request-ID"
	allowMethods  = "GET, POST, PUT, DELETE, OPTIONS"
	exposeHeaders = "Content-Disposition, X-Request-ID, X-Cache"
	preflightAge  = "600"
)

// originList matches request origins against ALLOWED_ORIGINS, ignoring trailing slashes.
// An empty list is open: any origin is accepted but credentials are not.
type originList map[string]struct{}

func newOriginList(origins []string) originList {
	list := make(originList, len(origins))
	for _, origin := range origins {
		origin = strings.TrimRight(strings.TrimSpace(origin), "/")
		if origin != "" {
			list[origin] = struct{}{}
		}
	}
	return list
}

func (l originList) open() bool { return len(l) == 0 }

func (l originList) allows(origin string) bool {
	if l.open() {
		return true
	}
	_, ok := l[strings.TrimRight(origin, "/")]
	return ok
}

// New builds the CORS middleware for the API. Listed origins are echoed back with
// credentials allowed so the portal can send its bearer token; unknown origins get no
// Allow-Origin header. Preflight requests end here with 204.
func New(allowedOrigins []string) gin.HandlerFunc {
	origins := newOriginList(allowedOrigins)

	return func(c *gin.Context) {
		h := c.Writer.Header()
		h.Add("Vary", "Origin")

		origin := c.GetHeader("Origin")
		switch {
		case origin == "" && origins.open():
			h.Set("Access-Control-Allow-Origin", "*")
		case origin != "" && origins.allows(origin):
			h.Set("Access-Control-Allow-Origin", origin)
			if !origins.open() {
				h.Set("Access-Control-Allow-Credentials", "true")
			}
		}
		h.Set("Access-Control-Expose-Headers", exposeHeaders)

		if c.Request.Method == http.MethodOptions {
			h.Set("Access-Control-Allow-Headers", allowHeaders)
			h.Set("Access-Control-Allow-Methods", allowMethods)
			h.Set("Access-Control-Max-Age", preflightAge)
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
