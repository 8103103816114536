package export

import "strings"

// Labels are the fixed strings of the printed document.
type Labels struct {
	Lang         string
	Time         string
	Servings     string
	Difficulty   string
	Ingredients  string
	Instructions string
	Footer       string
}

var (
	PortugueseLabels = Labels{
		Lang:         "pt-BR",
		Time:         "Tempo",
		Servings:     "Porções",
		Difficulty:   "Dificuldade",
		Ingredients:  "Ingredientes",
		Instructions: "Modo de Preparo",
		Footer:       "Chef Digital AI - Sua inspiração gastronômica movida a inteligência artificial.",
	}

	EnglishLabels = Labels{
		Lang:         "en-US",
		Time:         "Time",
		Servings:     "Servings",
		Difficulty:   "Difficulty",
		Ingredients:  "Ingredients",
		Instructions: "Method",
		Footer:       "Chef Digital AI - Your AI-powered culinary inspiration.",
	}
)

// LabelsFor returns the labels for a locale such as "pt-BR" or "en". Unknown
// locales get Portuguese.
func LabelsFor(locale string) Labels {
	if strings.HasPrefix(strings.ToLower(strings.TrimSpace(locale)), "en") {
		return EnglishLabels
	}
	return PortugueseLabels
}
