package middleware

import (
	"crypto/subtle"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/cppla/awe/utils"
)

const (
	// CSRFCookie is readable by scripts so the page can echo it in CSRFHeader.
	CSRFCookie = "awe_csrf"
	CSRFHeader = "X-CSRF-Token"
)

// CSRF issues a double-submit token cookie and, for unsafe methods on
// cookie-authenticated sessions, requires the header to match it. Bearer
// clients are not affected. Must run after Auth.Optional.
func CSRF(secure bool) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		cookie, _ := ctx.Cookie(CSRFCookie)
		if cookie == "" {
			cookie = uuid.NewString()
			ctx.SetSameSite(http.SameSiteLaxMode)
			ctx.SetCookie(CSRFCookie, cookie, 0, "/", "", secure, false)
		}

		switch ctx.Request.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions:
			ctx.Next()
			return
		}
		if !ctx.GetBool(contextViaCookie) {
			ctx.Next()
			return
		}
		header := ctx.GetHeader(CSRFHeader)
		if header == "" || subtle.ConstantTimeCompare([]byte(header), []byte(cookie)) != 1 {
			utils.Abort(ctx, http.StatusForbidden, 40320, "csrf token mismatch")
			return
		}
		ctx.Next()
	}
}
