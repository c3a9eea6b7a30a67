package wiki

import (
	"context"
	"errors"
	"strings"

	"github.com/cppla/awe/models"
	"github.com/cppla/awe/store"
)

// Reserved path tokens handled before any article lookup.
const (
	RandomSlug    = "random"
	EditPrefix    = "edit_article/"
	HistoryPrefix = "history/"
)

// Action names the resource a redirect points at.
type Action string

const (
	ActionView    Action = "view"
	ActionEdit    Action = "edit"
	ActionHistory Action = "history"
)

// Resolution is the outcome of Resolve. When Redirect is set the caller should
// send the client to Action on Slug; otherwise Article is the page to show.
type Resolution struct {
	Redirect bool            `json:"redirect"`
	Action   Action          `json:"action"`
	Slug     string          `json:"slug"`
	Article  *models.Article `json:"article,omitempty"`
	// Fuzzy is set when the article was found by title rather than by slug.
	Fuzzy bool `json:"fuzzy"`
}

// Resolver maps wiki path tokens to articles.
type Resolver struct {
	store *store.Store
}

// NewResolver creates a Resolver over st.
func NewResolver(st *store.Store) *Resolver {
	return &Resolver{store: st}
}

// Resolve applies, in order: random, reserved prefixes, exact slug, title
// substring. Anything left is an *ArticleNotFoundError carrying the slug.
// Slugs are opaque; only a leading "/" from the route wildcard is removed.
func (r *Resolver) Resolve(ctx context.Context, raw string) (*Resolution, error) {
	slug := strings.TrimPrefix(raw, "/")
	if slug == "" {
		return nil, invalid("slug is required")
	}

	if slug == RandomSlug {
		picked, err := r.store.RandomSlug(ctx)
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrNoArticles
		}
		if err != nil {
			return nil, err
		}
		return &Resolution{Redirect: true, Action: ActionView, Slug: picked}, nil
	}

	if inner, ok := strings.CutPrefix(slug, EditPrefix); ok && inner != "" {
		return &Resolution{Redirect: true, Action: ActionEdit, Slug: inner}, nil
	}
	if inner, ok := strings.CutPrefix(slug, HistoryPrefix); ok && inner != "" {
		return &Resolution{Redirect: true, Action: ActionHistory, Slug: inner}, nil
	}

	article, err := r.store.GetArticle(ctx, slug)
	if err == nil {
		return &Resolution{Action: ActionView, Slug: article.Slug, Article: article}, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}

	article, err = r.store.FindByTitleSubstring(ctx, slug)
	if err == nil {
		return &Resolution{Action: ActionView, Slug: article.Slug, Article: article, Fuzzy: true}, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}
	return nil, &ArticleNotFoundError{Slug: slug}
}
