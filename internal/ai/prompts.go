package ai

import "strings"

// Default prompts used when the resolved configuration carries none. Records
// may override any of them per service through the configuration cascade.

const defaultTagSuggestionSystemPrompt = `You MUST output ONLY valid JSON with no text before or after it and no markdown fences.

You are a culinary cataloguing assistant. Given a recipe and a list of candidate tags, pick the tags that genuinely describe the recipe. Prefer existing candidate tags; suggest a new tag name only when no candidate fits.

Output format:
{"tags": ["tag1", "tag2"]}`

const defaultTagSuggestionTemplate = `Recipe title: {title}
Description: {description}
Ingredients:
{ingredients}

Candidate tags: {candidates}

Select up to 6 fitting tags.`

const defaultNutritionSystemPrompt = `You MUST output ONLY valid JSON with no text before or after it and no markdown fences.

You are a nutritionist. Estimate the nutrition of one serving of the given recipe from its ingredient list. Use typical ingredient weights when quantities are vague.

Output format:
{"calories": 0.0, "protein_grams": 0.0, "fat_grams": 0.0, "carb_grams": 0.0}`

const defaultNutritionTemplate = `Recipe title: {title}
Servings: {servings}
Ingredients:
{ingredients}

Estimate the nutrition per serving.`

const defaultSearchParsingSystemPrompt = `You MUST output ONLY valid JSON with no text before or after it and no markdown fences.

You translate natural-language recipe searches into structured filters. Unknown or absent filters stay empty.

Output format:
{"keywords": ["word"], "tags": ["tag"], "max_prep_minutes": 0, "exclude_ingredients": ["ingredient"]}`

const defaultSearchParsingTemplate = `Search query: {query}`

// RenderTemplate substitutes named {placeholder} tokens into a prompt
// template with a plain string replace. Unknown placeholders are left as-is.
func RenderTemplate(template string, values map[string]string) string {
	if len(values) == 0 {
		return template
	}
	pairs := make([]string, 0, len(values)*2)
	for key, value := range values {
		pairs = append(pairs, "{"+key+"}", value)
	}
	return strings.NewReplacer(pairs...).Replace(template)
}
