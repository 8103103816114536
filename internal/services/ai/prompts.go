package ai

import (
	"fmt"
	"strings"
)

// The system instruction is the persona followed by the output rule; the response
// schema already names the required fields.
const roleSection = "Você é um Chef Executivo de renome mundial especializado em alta gastronomia."

const outputSection = "Responda apenas em %s utilizando o esquema JSON fornecido."

// recipeRequestTemplate is the user turn; %s is the dish name or concept.
const recipeRequestTemplate = "Crie uma receita detalhada e gourmet para: %s. Forneça tempos reais, ingredientes precisos e instruções claras."

// imagePromptTemplate is the food photography prompt; %s is the recipe title.
const imagePromptTemplate = "Professional high-end food photography of %s, beautifully plated on a minimalist ceramic dish, natural soft studio lighting, macro shot, 8k resolution, cinematic aesthetic, warm tones."

// DefaultLanguage is the response language when none is configured.
const DefaultLanguage = "Português do Brasil"

// BuildSystemInstruction returns the fixed recipe-expert instruction for the text model.
func BuildSystemInstruction(language string) string {
	language = strings.TrimSpace(language)
	if language == "" {
		language = DefaultLanguage
	}

	return roleSection + " " + fmt.Sprintf(outputSection, language)
}

// BuildRecipeRequest embeds the user's query in the recipe request.
func BuildRecipeRequest(query string) string {
	return fmt.Sprintf(recipeRequestTemplate, strings.TrimSpace(query))
}

// BuildImagePrompt embeds the recipe title in the photography prompt.
func BuildImagePrompt(subject string) string {
	return fmt.Sprintf(imagePromptTemplate, strings.TrimSpace(subject))
}
