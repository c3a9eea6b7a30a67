package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/cppla/awe/utils"
)

const (
	// ContextUserIDKey is the key used to store authenticated user ID in Gin context.
	ContextUserIDKey = "user_id"
	// ContextUsernameKey stores the username inside Gin context.
	ContextUsernameKey = "username"
	// ContextIsAdminKey stores the admin flag from the token.
	ContextIsAdminKey = "is_admin"
	// ContextTokenKey stores the raw token and ContextTokenExpKey its expiry, for logout.
	ContextTokenKey    = "token"
	ContextTokenExpKey = "token_exp"
	// contextViaCookie marks sessions that came from the cookie; CSRF applies only to those.
	contextViaCookie = "auth_via_cookie"

	// SessionCookie holds the session token for browser clients.
	SessionCookie = "awe_session"
)

// Auth resolves the session of each request from a bearer header or the session cookie.
type Auth struct {
	signer    *utils.TokenSigner
	blacklist *utils.TokenBlacklist
}

// NewAuth creates the session middleware factory.
func NewAuth(signer *utils.TokenSigner, blacklist *utils.TokenBlacklist) *Auth {
	return &Auth{signer: signer, blacklist: blacklist}
}

// Optional attaches the identity when a valid token is present and lets every request through.
func (a *Auth) Optional() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		a.authenticate(ctx)
		ctx.Next()
	}
}

// Required rejects requests without a valid, unrevoked token.
func (a *Auth) Required() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		if _, ok := CurrentUsername(ctx); ok {
			ctx.Next()
			return
		}
		code, msg := a.authenticate(ctx)
		if code != 0 {
			utils.Abort(ctx, http.StatusUnauthorized, code, msg)
			return
		}
		ctx.Next()
	}
}

// Admin requires an authenticated administrator. Use after Required.
func (a *Auth) Admin() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		if !IsAdmin(ctx) {
			utils.Abort(ctx, http.StatusForbidden, 40301, "admin only")
			return
		}
		ctx.Next()
	}
}

// authenticate sets the identity keys and returns a non-zero code with a reason when it could not.
func (a *Auth) authenticate(ctx *gin.Context) (int, string) {
	token, viaCookie, code, msg := tokenFromRequest(ctx)
	if code != 0 {
		return code, msg
	}
	if a.blacklist != nil && a.blacklist.IsRevoked(ctx.Request.Context(), token) {
		return 40104, "token revoked"
	}
	claims, err := a.signer.Parse(token)
	if err != nil {
		return 40105, "invalid token"
	}

	ctx.Set(ContextUserIDKey, claims.UserID)
	ctx.Set(ContextUsernameKey, claims.Username)
	ctx.Set(ContextIsAdminKey, claims.IsAdmin)
	ctx.Set(ContextTokenKey, token)
	exp := time.Now().Add(a.signer.TTL())
	if claims.ExpiresAt != nil {
		exp = claims.ExpiresAt.Time
	}
	ctx.Set(ContextTokenExpKey, exp)
	ctx.Set(contextViaCookie, viaCookie)
	return 0, ""
}

func tokenFromRequest(ctx *gin.Context) (token string, viaCookie bool, code int, msg string) {
	if authHeader := ctx.GetHeader("Authorization"); authHeader != "" {
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			return "", false, 40102, "invalid authorization header format"
		}
		token = strings.TrimSpace(parts[1])
		if token == "" {
			return "", false, 40103, "empty bearer token"
		}
		return token, false, 0, ""
	}
	if cookie, err := ctx.Cookie(SessionCookie); err == nil && cookie != "" {
		return cookie, true, 0, ""
	}
	return "", false, 40101, "authorization missing"
}

// CurrentUsername returns the authenticated username, if any.
func CurrentUsername(ctx *gin.Context) (string, bool) {
	v, ok := ctx.Get(ContextUsernameKey)
	if !ok {
		return "", false
	}
	name, _ := v.(string)
	return name, name != ""
}

// IsAdmin reports whether the session belongs to an administrator.
func IsAdmin(ctx *gin.Context) bool {
	return ctx.GetBool(ContextIsAdminKey)
}

// SessionToken returns the token of the current request and its expiry.
func SessionToken(ctx *gin.Context) (string, time.Time, bool) {
	token := ctx.GetString(ContextTokenKey)
	if token == "" {
		return "", time.Time{}, false
	}
	return token, ctx.GetTime(ContextTokenExpKey), true
}
