package wiki

import (
	"errors"
	"fmt"

	"github.com/cppla/awe/store"
)

var (
	// ErrUnauthorized means the caller has no identity, or not the one the operation requires.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrNoChange means the submitted content equals the current content.
	ErrNoChange = errors.New("no change")
	// ErrNoArticles means random resolution found an empty wiki.
	ErrNoArticles = errors.New("no articles")
	// ErrTopicNotFound means a reply targeted a missing topic. It matches store.ErrNotFound.
	ErrTopicNotFound = fmt.Errorf("topic %w", store.ErrNotFound)
	// ErrArticleNotFound matches every *ArticleNotFoundError. It matches store.ErrNotFound.
	ErrArticleNotFound = fmt.Errorf("article %w", store.ErrNotFound)
)

// ArticleNotFoundError carries the slug the caller asked for so it can be shown back.
type ArticleNotFoundError struct {
	Slug string
}

func (e *ArticleNotFoundError) Error() string {
	return fmt.Sprintf("article %q not found", e.Slug)
}

func (e *ArticleNotFoundError) Is(target error) bool {
	return target == ErrArticleNotFound || target == store.ErrNotFound
}

func invalid(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", store.ErrInvalidInput, fmt.Sprintf(format, args...))
}
