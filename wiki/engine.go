// Package wiki holds the article revision engine, discussion threading and
// the slug resolver. It works on plain records and never renders HTML.
package wiki

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/cppla/awe/models"
	"github.com/cppla/awe/store"
)

// Engine applies edits and discussion posts against the store.
type Engine struct {
	store *store.Store
	log   *zap.Logger
}

// NewEngine creates an Engine; log may be nil.
func NewEngine(st *store.Store, log *zap.Logger) *Engine {
	if log == nil {
		log = zap.NewNop()
	}
	return &Engine{store: st, log: log}
}

// EditRequest is one content change.
type EditRequest struct {
	Slug    string
	Content string
	Summary string
	// Editor is the authenticated username; empty means anonymous and is rejected.
	Editor string
}

// EditOutcome describes a committed edit.
type EditOutcome struct {
	Article   *models.Article `json:"article"`
	HistoryID uint            `json:"history_id"`
	// Created is true when the edit also created the article.
	Created bool `json:"created"`
}

// Edit records req as a new revision and makes it the live content, in one transaction.
// The history row holds the content the edit produced, so after a successful edit the
// article body always equals the newest history entry.
func (e *Engine) Edit(ctx context.Context, req EditRequest) (*EditOutcome, error) {
	if req.Editor == "" {
		return nil, ErrUnauthorized
	}
	if req.Slug == "" {
		return nil, invalid("slug is required")
	}
	if strings.TrimSpace(req.Content) == "" {
		return nil, invalid("content is required")
	}
	if owner, ok := models.ProfileOwner(req.Slug); ok && owner != req.Editor {
		return nil, ErrUnauthorized
	}

	var out EditOutcome
	err := e.store.WithTx(ctx, func(tx *store.Store) error {
		_, created, err := ensureArticle(ctx, tx, req.Slug)
		if err != nil {
			return err
		}
		article, err := tx.GetArticleForUpdate(ctx, req.Slug)
		if err != nil {
			return err
		}
		if article.Content == req.Content {
			return ErrNoChange
		}

		var summary *string
		if s := strings.TrimSpace(req.Summary); s != "" {
			summary = &s
		}
		at := tx.Now()
		// History first: no reader may see the new body without its revision
		historyID, err := tx.AppendHistory(ctx, req.Slug, req.Content, req.Editor, summary, at)
		if err != nil {
			return err
		}
		if err := tx.UpdateArticleContent(ctx, article.ID, req.Content, req.Editor, at); err != nil {
			return err
		}

		article.Content = req.Content
		article.LastEditor = req.Editor
		article.LastEdited = at
		out = EditOutcome{Article: article, HistoryID: historyID, Created: created}
		return nil
	})
	if err != nil {
		return nil, err
	}
	e.log.Info("article edited",
		zap.String("slug", req.Slug),
		zap.String("editor", req.Editor),
		zap.Uint("history_id", out.HistoryID),
		zap.Bool("created", out.Created))
	return &out, nil
}

// EditProfile edits user:<owner>. Only the owner may do so; Edit applies the
// same rule to profile slugs reached through the generic edit path.
func (e *Engine) EditProfile(ctx context.Context, owner, content, summary, editor string) (*EditOutcome, error) {
	if editor == "" || editor != owner {
		return nil, ErrUnauthorized
	}
	return e.Edit(ctx, EditRequest{
		Slug:    models.ProfileSlug(owner),
		Content: content,
		Summary: summary,
		Editor:  editor,
	})
}

// EnsureArticle returns the article for slug, creating the stub from StubFor if it
// does not exist. The bool reports whether this call created it.
func (e *Engine) EnsureArticle(ctx context.Context, slug string) (*models.Article, bool, error) {
	if slug == "" {
		return nil, false, invalid("slug is required")
	}
	var (
		article *models.Article
		created bool
	)
	err := e.store.WithTx(ctx, func(tx *store.Store) error {
		var err error
		article, created, err = ensureArticle(ctx, tx, slug)
		return err
	})
	if err != nil {
		return nil, false, err
	}
	return article, created, nil
}

func ensureArticle(ctx context.Context, st *store.Store, slug string) (*models.Article, bool, error) {
	article, err := st.GetArticle(ctx, slug)
	if err == nil {
		return article, false, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, false, err
	}

	title, content := StubFor(slug)
	article, err = st.CreateArticle(ctx, slug, title, content, "")
	if errors.Is(err, store.ErrConflict) {
		// lost a creation race; the winner's row is the article
		article, err = st.GetArticle(ctx, slug)
		return article, false, err
	}
	if err != nil {
		return nil, false, err
	}
	return article, true, nil
}
