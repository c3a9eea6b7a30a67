package controllers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/cppla/awe/middleware"
	"github.com/cppla/awe/models"
	"github.com/cppla/awe/store"
	"github.com/cppla/awe/utils"
	"github.com/cppla/awe/wiki"
)

const articleCacheTTL = time.Hour

// ArticleController serves article pages, edits and the history feeds.
type ArticleController struct {
	store    *store.Store
	engine   *wiki.Engine
	resolver *wiki.Resolver
	cache    *utils.Cache
	homeSlug string
}

// NewArticleController creates an ArticleController.
func NewArticleController(st *store.Store, engine *wiki.Engine, resolver *wiki.Resolver, cache *utils.Cache, homeSlug string) *ArticleController {
	return &ArticleController{store: st, engine: engine, resolver: resolver, cache: cache, homeSlug: homeSlug}
}

// Home returns the front page article and its discussion.
func (a *ArticleController) Home(ctx *gin.Context) {
	article, exists, err := a.articleOrPreview(ctx, a.homeSlug)
	if err != nil {
		respondError(ctx, err, "")
		return
	}
	thread := &wiki.Thread{Topics: []models.Discussion{}}
	if exists {
		if thread, err = a.engine.ThreadOf(ctx.Request.Context(), article); err != nil {
			respondError(ctx, err, "")
			return
		}
	}
	utils.Success(ctx, gin.H{"article": article, "exists": exists, "topics": thread.Topics})
}

// View resolves the wiki path and returns the article or redirects.
func (a *ArticleController) View(ctx *gin.Context) {
	slug := slugParam(ctx, "slug")

	var cached models.Article
	if a.cacheable(slug) && a.cache.GetJSON(ctx.Request.Context(), articleCacheKey(slug), &cached) {
		utils.Success(ctx, gin.H{"article": cached, "fuzzy": false})
		return
	}

	res, err := a.resolver.Resolve(ctx.Request.Context(), slug)
	if err != nil {
		respondError(ctx, err, "/")
		return
	}
	if res.Redirect {
		switch res.Action {
		case wiki.ActionEdit:
			ctx.Redirect(http.StatusFound, wikiPath("/api/v1/edit/", res.Slug))
		case wiki.ActionHistory:
			ctx.Redirect(http.StatusFound, wikiPath("/api/v1/history/", res.Slug))
		default:
			ctx.Redirect(http.StatusFound, wikiPath("/api/v1/wiki/", res.Slug))
		}
		return
	}
	if !res.Fuzzy {
		a.cache.SetJSON(ctx.Request.Context(), articleCacheKey(res.Slug), res.Article, articleCacheTTL)
	}
	utils.Success(ctx, gin.H{"article": res.Article, "fuzzy": res.Fuzzy})
}

// EditForm returns the current article, or the stub an edit would start from.
func (a *ArticleController) EditForm(ctx *gin.Context) {
	slug := slugParam(ctx, "slug")
	if slug == "" {
		respondError(ctx, store.ErrInvalidInput, "/")
		return
	}
	article, exists, err := a.articleOrPreview(ctx, slug)
	if err != nil {
		respondError(ctx, err, "/")
		return
	}
	utils.Success(ctx, gin.H{"article": article, "exists": exists})
}

type editRequest struct {
	Content string `json:"content" form:"content"`
	Summary string `json:"summary" form:"summary"`
}

// Edit saves a new revision. Requires a session.
func (a *ArticleController) Edit(ctx *gin.Context) {
	slug := slugParam(ctx, "slug")
	var req editRequest
	if err := ctx.ShouldBind(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40011, "invalid request payload")
		return
	}
	editor, _ := middleware.CurrentUsername(ctx)
	out, err := a.engine.Edit(ctx.Request.Context(), wiki.EditRequest{
		Slug:    slug,
		Content: utils.Sanitize(req.Content),
		Summary: utils.SanitizeText(req.Summary),
		Editor:  editor,
	})
	if err != nil {
		respondError(ctx, err, wikiPath("/wiki/", slug))
		return
	}
	a.cache.Delete(ctx.Request.Context(), articleCacheKey(slug))
	if utils.WantsHTML(ctx) {
		utils.FlashRedirect(ctx, wikiPath("/wiki/", slug), "Artigo salvo.")
		return
	}
	utils.Success(ctx, out)
}

// History lists the revisions of an article, newest first.
func (a *ArticleController) History(ctx *gin.Context) {
	slug := slugParam(ctx, "slug")
	entries, err := a.store.ListHistory(ctx.Request.Context(), slug)
	if err != nil {
		respondError(ctx, err, "")
		return
	}
	if entries == nil {
		entries = []models.ArticleHistory{}
	}
	utils.Success(ctx, gin.H{"slug": slug, "history": entries})
}

// Version returns a single revision with the article it belongs to.
func (a *ArticleController) Version(ctx *gin.Context) {
	id, ok := parseID(ctx.Param("id"))
	if !ok {
		utils.Error(ctx, http.StatusBadRequest, 40012, "invalid version id")
		return
	}
	version, err := a.store.GetVersion(ctx.Request.Context(), id)
	if err != nil {
		respondError(ctx, err, "")
		return
	}
	article, err := a.store.GetArticle(ctx.Request.Context(), version.Slug)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		respondError(ctx, err, "")
		return
	}
	utils.Success(ctx, gin.H{"version": version, "article": article})
}

// Search matches titles and bodies.
func (a *ArticleController) Search(ctx *gin.Context) {
	q := strings.TrimSpace(ctx.Query("q"))
	results, err := a.store.Search(ctx.Request.Context(), q, parseLimit(ctx.Query("limit"), 50))
	if err != nil {
		respondError(ctx, err, "")
		return
	}
	utils.Success(ctx, gin.H{"q": q, "results": results})
}

// RecentChanges lists the newest revisions across the wiki.
func (a *ArticleController) RecentChanges(ctx *gin.Context) {
	changes, err := a.store.RecentChanges(ctx.Request.Context(), parseLimit(ctx.Query("limit"), 50))
	if err != nil {
		respondError(ctx, err, "")
		return
	}
	if changes == nil {
		changes = []store.Change{}
	}
	utils.Success(ctx, gin.H{"changes": changes})
}

// Contributions lists the revisions made by one user.
func (a *ArticleController) Contributions(ctx *gin.Context) {
	username := strings.TrimSpace(ctx.Param("username"))
	changes, err := a.store.Contributions(ctx.Request.Context(), username, parseLimit(ctx.Query("limit"), 200))
	if err != nil {
		respondError(ctx, err, "")
		return
	}
	if changes == nil {
		changes = []store.Change{}
	}
	utils.Success(ctx, gin.H{"username": username, "changes": changes})
}

func (a *ArticleController) articleOrPreview(ctx *gin.Context, slug string) (*models.Article, bool, error) {
	article, err := a.store.GetArticle(ctx.Request.Context(), slug)
	if errors.Is(err, store.ErrNotFound) {
		return wiki.Preview(slug), false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return article, true, nil
}

// cacheable excludes the tokens the resolver turns into redirects.
func (a *ArticleController) cacheable(slug string) bool {
	return slug != "" &&
		slug != wiki.RandomSlug &&
		!strings.HasPrefix(slug, wiki.EditPrefix) &&
		!strings.HasPrefix(slug, wiki.HistoryPrefix)
}
