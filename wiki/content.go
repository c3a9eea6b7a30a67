package wiki

import (
	"fmt"
	"strings"

	"github.com/cppla/awe/models"
)

// StubContent is the body of an article created implicitly by an edit or a new topic.
const StubContent = "<p>Artigo criado.</p>"

// ProfileTitle is the title given to a user's profile article.
func ProfileTitle(username string) string {
	return "Perfil de " + username
}

// StubFor returns the title and body an auto-created article gets.
func StubFor(slug string) (title, content string) {
	if name, ok := models.ProfileOwner(slug); ok {
		return ProfileTitle(name), fmt.Sprintf("<p>Perfil de %s criado.</p>", name)
	}
	return slug, StubContent
}

// Preview is the unsaved article that EnsureArticle would create for slug.
func Preview(slug string) *models.Article {
	title, content := StubFor(slug)
	return &models.Article{Slug: slug, Title: title, Content: content}
}

// WelcomeContent is the body of the front page on a fresh install.
func WelcomeContent(appTitle string) string {
	return strings.Join([]string{
		"Olá, parece que você acabou de instalar a AWE!",
		fmt.Sprintf("A Wiki %s já foi configurada e agora você pode expandir-ela!", appTitle),
		"Também confira nossas recomendações no site!",
		"Obrigado por instalar a ApoloWikiEngine (AWE).",
		"==Mais==",
		"Veja no site:",
		"1. Como personalizar melhor minha wiki?",
		"2. Como funciona a AWE?",
		"3. Como posso adaptar do php (MediaWiki) para python?",
	}, "\n")
}
