package controllers

import (
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/cppla/awe/middleware"
	"github.com/cppla/awe/store"
	"github.com/cppla/awe/utils"
	"github.com/cppla/awe/wiki"
)

const articleCachePrefix = "cache:article:"

func articleCacheKey(slug string) string {
	return articleCachePrefix + slug
}

// slugParam returns a wildcard path parameter without the leading "/".
func slugParam(ctx *gin.Context, name string) string {
	return strings.TrimPrefix(ctx.Param(name), "/")
}

// wikiPath builds an escaped URL path for slug under prefix.
func wikiPath(prefix, slug string) string {
	u := url.URL{Path: prefix + slug}
	return u.EscapedPath()
}

// author is the session username, or the client address for anonymous posts.
func author(ctx *gin.Context) string {
	if name, ok := middleware.CurrentUsername(ctx); ok {
		return name
	}
	return ctx.ClientIP()
}

func parseLimit(raw string, def int) int {
	if n, err := strconv.Atoi(strings.TrimSpace(raw)); err == nil && n > 0 {
		return n
	}
	return def
}

func parseID(raw string) (uint, bool) {
	n, err := strconv.ParseUint(strings.TrimSpace(raw), 10, 64)
	if err != nil || n == 0 {
		return 0, false
	}
	return uint(n), true
}

// respondError maps core errors onto HTTP statuses. Browsers navigating pages get
// fallback, with the message in the flash cookie, instead of a JSON body.
func respondError(ctx *gin.Context, err error, fallback string) {
	status, code, msg := classifyError(err)
	if status == http.StatusForbidden {
		if _, ok := middleware.CurrentUsername(ctx); !ok {
			status, code, msg = http.StatusUnauthorized, 40110, "login required"
		}
	}
	if status >= http.StatusInternalServerError {
		utils.Logger.Error("request failed",
			zap.String("path", ctx.Request.URL.Path),
			zap.Int("status", status),
			zap.Error(err))
	}
	if fallback != "" && utils.WantsHTML(ctx) {
		utils.FlashRedirect(ctx, fallback, msg)
		return
	}
	var nf *wiki.ArticleNotFoundError
	if errors.As(err, &nf) {
		utils.ErrorWithData(ctx, status, code, msg, gin.H{"slug": nf.Slug})
		return
	}
	utils.Error(ctx, status, code, msg)
}

func classifyError(err error) (status, code int, msg string) {
	var nf *wiki.ArticleNotFoundError
	switch {
	case errors.As(err, &nf):
		return http.StatusNotFound, 40401, "article not found"
	case errors.Is(err, wiki.ErrNoArticles):
		return http.StatusNotFound, 40402, "no articles yet"
	case errors.Is(err, wiki.ErrTopicNotFound):
		return http.StatusNotFound, 40403, "topic not found"
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound, 40400, "not found"
	case errors.Is(err, wiki.ErrNoChange):
		return http.StatusConflict, 40902, "content unchanged"
	case errors.Is(err, store.ErrConflict):
		return http.StatusConflict, 40901, "already exists"
	case errors.Is(err, wiki.ErrUnauthorized):
		return http.StatusForbidden, 40310, "not allowed"
	case errors.Is(err, store.ErrInvalidInput):
		return http.StatusBadRequest, 40010, err.Error()
	case errors.Is(err, store.ErrStoreUnavailable):
		return http.StatusServiceUnavailable, 50301, "store busy, try again"
	}
	return http.StatusInternalServerError, 50000, "internal error"
}
