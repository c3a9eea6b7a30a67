package controllers

import (
	"errors"
	"net/http"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/gin-gonic/gin"

	"github.com/cppla/awe/middleware"
	"github.com/cppla/awe/models"
	"github.com/cppla/awe/store"
	"github.com/cppla/awe/utils"
)

// AuthController handles local accounts and sessions.
type AuthController struct {
	store          *store.Store
	signer         *utils.TokenSigner
	blacklist      *utils.TokenBlacklist
	captcha        *utils.Captcha
	captchaEnabled bool
	secureCookie   bool
}

// AuthOptions configures an AuthController.
type AuthOptions struct {
	Signer         *utils.TokenSigner
	Blacklist      *utils.TokenBlacklist
	Captcha        *utils.Captcha
	CaptchaEnabled bool
	SecureCookie   bool
}

// NewAuthController creates an AuthController.
func NewAuthController(st *store.Store, opts AuthOptions) *AuthController {
	return &AuthController{
		store:          st,
		signer:         opts.Signer,
		blacklist:      opts.Blacklist,
		captcha:        opts.Captcha,
		captchaEnabled: opts.CaptchaEnabled,
		secureCookie:   opts.SecureCookie,
	}
}

// Register creates an account and starts a session.
func (a *AuthController) Register(ctx *gin.Context) {
	var req struct {
		Username      string `json:"username" form:"username" binding:"required"`
		Password      string `json:"password" form:"password" binding:"required"`
		Confirm       string `json:"confirm" form:"confirm"`
		CaptchaID     string `json:"captcha_id" form:"captcha_id"`
		CaptchaAnswer string `json:"captcha_answer" form:"captcha_answer"`
	}
	if err := ctx.ShouldBind(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40001, "invalid request payload")
		return
	}

	username := strings.TrimSpace(req.Username)
	if l := utf8.RuneCountInString(username); l < 2 || l > 64 || !validUsername(username) {
		utils.Error(ctx, http.StatusBadRequest, 40002, "username must be 2 to 64 letters, digits, '-', '_' or '.'")
		return
	}
	if req.Password != req.Confirm {
		utils.Error(ctx, http.StatusBadRequest, 40003, "passwords do not match")
		return
	}
	if err := utils.ValidatePassword(req.Password); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40004, err.Error())
		return
	}
	if a.captchaEnabled && !a.captcha.Verify(strings.TrimSpace(req.CaptchaID), strings.TrimSpace(req.CaptchaAnswer)) {
		utils.Error(ctx, http.StatusBadRequest, 40005, "invalid or expired captcha")
		return
	}

	hash, err := utils.HashPassword(req.Password)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50001, "failed to hash password")
		return
	}
	user, err := a.store.CreateUser(ctx.Request.Context(), username, hash, false)
	if errors.Is(err, store.ErrConflict) {
		utils.Error(ctx, http.StatusConflict, 40901, "username already exists")
		return
	}
	if err != nil {
		respondError(ctx, err, "")
		return
	}
	utils.Named("auth").Sugar().Infof("user registered username=%s ip=%s", user.Username, ctx.ClientIP())
	a.startSession(ctx, user, http.StatusCreated)
}

// Login verifies credentials and starts a session.
func (a *AuthController) Login(ctx *gin.Context) {
	var req struct {
		Username string `json:"username" form:"username" binding:"required"`
		Password string `json:"password" form:"password" binding:"required"`
	}
	if err := ctx.ShouldBind(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40006, "invalid request payload")
		return
	}

	user, err := a.store.GetUser(ctx.Request.Context(), strings.TrimSpace(req.Username))
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		respondError(ctx, err, "")
		return
	}
	if user == nil || !utils.CheckPassword(user.PasswordHash, req.Password) {
		utils.Error(ctx, http.StatusUnauthorized, 40106, "invalid username or password")
		return
	}
	a.startSession(ctx, user, http.StatusOK)
}

// Logout revokes the current token until its natural expiry and clears the cookie.
func (a *AuthController) Logout(ctx *gin.Context) {
	token, exp, ok := middleware.SessionToken(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40107, "not logged in")
		return
	}
	a.blacklist.Revoke(ctx.Request.Context(), token, exp)
	ctx.SetSameSite(http.SameSiteLaxMode)
	ctx.SetCookie(middleware.SessionCookie, "", -1, "/", "", a.secureCookie, true)
	if utils.WantsHTML(ctx) {
		utils.FlashRedirect(ctx, "/", "Saiu!")
		return
	}
	utils.Success(ctx, gin.H{"message": "logged out"})
}

// Me returns the current account.
func (a *AuthController) Me(ctx *gin.Context) {
	username, ok := middleware.CurrentUsername(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40108, "unauthorized")
		return
	}
	user, err := a.store.GetUser(ctx.Request.Context(), username)
	if err != nil {
		respondError(ctx, err, "")
		return
	}
	utils.Success(ctx, user)
}

// Captcha returns a fresh captcha id and base64 image (data URI).
func (a *AuthController) Captcha(ctx *gin.Context) {
	id, b64, err := a.captcha.Generate()
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50060, "failed to generate captcha")
		return
	}
	utils.Success(ctx, gin.H{"id": id, "image": b64, "required": a.captchaEnabled})
}

func (a *AuthController) startSession(ctx *gin.Context, user *models.User, status int) {
	token, exp, err := a.signer.Generate(user.ID, user.Username, user.IsAdmin)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50003, "failed to generate token")
		return
	}
	ctx.SetSameSite(http.SameSiteLaxMode)
	ctx.SetCookie(middleware.SessionCookie, token, int(time.Until(exp).Seconds()), "/", "", a.secureCookie, true)
	utils.Respond(ctx, status, 0, "success", gin.H{
		"token":      token,
		"expires_at": exp,
		"user":       user,
	})
}

// validUsername allows letters of any script, digits, '-', '_' and '.'.
// ':' and '/' would break profile slugs.
func validUsername(s string) bool {
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '-' || r == '_' || r == '.' {
			continue
		}
		return false
	}
	return true
}
