package controllers

import (
	"net/http"
	"sort"

	"github.com/gin-gonic/gin"

	"github.com/cppla/awe/utils"
)

// Page is a fixed informational page.
type Page struct {
	Name    string `json:"name"`
	Title   string `json:"title"`
	Heading string `json:"heading"`
	Text    string `json:"text"`
}

var pages = map[string]Page{
	"ajuda":            {Title: "Ajuda", Heading: "Ajuda", Text: "Página de ajuda."},
	"about":            {Title: "Sobre", Heading: "Sobre", Text: "Sobre o projeto."},
	"portal":           {Title: "Portal", Heading: "Portal", Text: "Portal."},
	"especiais":        {Title: "Páginas especiais", Heading: "Páginas especiais", Text: "Lista de páginas especiais."},
	"privacy":          {Title: "Privacidade", Heading: "Política de privacidade", Text: "Política de privacidade."},
	"terms":            {Title: "Termos", Heading: "Termos de uso", Text: "Termos de uso."},
	"cookie_statement": {Title: "Cookies", Heading: "Cookies", Text: "Política de cookies."},
}

// PagesController serves the informational pages.
type PagesController struct{}

func NewPagesController() *PagesController { return &PagesController{} }

// List returns the names of every page.
func (p *PagesController) List(ctx *gin.Context) {
	names := make([]string, 0, len(pages))
	for name := range pages {
		names = append(names, name)
	}
	sort.Strings(names)
	utils.Success(ctx, gin.H{"pages": names})
}

// Get returns one page by name.
func (p *PagesController) Get(ctx *gin.Context) {
	name := ctx.Param("name")
	page, ok := pages[name]
	if !ok {
		utils.Error(ctx, http.StatusNotFound, 40404, "page not found")
		return
	}
	page.Name = name
	utils.Success(ctx, page)
}
