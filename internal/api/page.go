package api

import (
	"embed"
	"html/template"
	"io"
	"strings"
)

//go:embed templates/index.html.tmpl
var pageFS embed.FS

var pageTemplate = template.Must(template.ParseFS(pageFS, "templates/index.html.tmpl"))

type pageLabels struct {
	Lang        string
	Heading     string
	Tagline     string
	Placeholder string
	Submit      string
	Cooking     string
	Painting    string
	Export      string
	Ingredients string
	Method      string
	Time        string
	Servings    string
	Difficulty  string
	Suggestions string
}

var (
	portuguesePage = pageLabels{
		Lang:        "pt-BR",
		Heading:     "Chef Digital",
		Tagline:     "Digite um prato ou conceito e receba uma receita gourmet completa.",
		Placeholder: "Ex.: Risoto de cogumelos com trufas",
		Submit:      "Criar receita",
		Cooking:     "Preparando sua receita...",
		Painting:    "Fotografando o prato...",
		Export:      "Exportar PDF",
		Ingredients: "Ingredientes",
		Method:      "Modo de Preparo",
		Time:        "Tempo",
		Servings:    "Porções",
		Difficulty:  "Dificuldade",
		Suggestions: "Sugestões",
	}
	englishPage = pageLabels{
		Lang:        "en-US",
		Heading:     "Chef Digital",
		Tagline:     "Type a dish or a concept and get a complete gourmet recipe.",
		Placeholder: "e.g. Mushroom risotto with truffles",
		Submit:      "Create recipe",
		Cooking:     "Cooking up your recipe...",
		Painting:    "Photographing the dish...",
		Export:      "Export PDF",
		Ingredients: "Ingredients",
		Method:      "Method",
		Time:        "Time",
		Servings:    "Servings",
		Difficulty:  "Difficulty",
		Suggestions: "Suggestions",
	}
)

type page struct {
	Labels      pageLabels
	Suggestions []string
}

func newPage(locale string) *page {
	labels := portuguesePage
	if strings.HasPrefix(strings.ToLower(locale), "en") {
		labels = englishPage
	}
	return &page{Labels: labels, Suggestions: Suggestions}
}

func (p *page) render(w io.Writer) error {
	return pageTemplate.Execute(w, p)
}
