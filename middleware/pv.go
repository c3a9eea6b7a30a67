package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/cppla/awe/store"
	"github.com/cppla/awe/utils"
)

// PageViewRecorder counts successful GETs of wiki pages per day and path.
func PageViewRecorder(st *store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Request.Method != "GET" {
			return
		}
		status := c.Writer.Status()
		if status < 200 || status >= 300 {
			return
		}
		path, ok := pageViewPath(c.Request.URL.Path)
		if !ok {
			return
		}
		if err := st.RecordPageView(c.Request.Context(), path); err != nil {
			utils.Logger.Debug("page view not recorded", zap.String("path", path), zap.Error(err))
		}
	}
}

// pageViewPath maps API reads onto the page they render, so both count together.
func pageViewPath(path string) (string, bool) {
	switch {
	case path == "/" || path == "/api/v1/home":
		return "/", true
	case strings.HasPrefix(path, "/wiki/"):
		return path, true
	case strings.HasPrefix(path, "/api/v1/wiki/"):
		return strings.TrimPrefix(path, "/api/v1"), true
	}
	return "", false
}
