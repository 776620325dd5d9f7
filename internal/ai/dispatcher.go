package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/tastebase/tastebase/internal/aiconfig"
	"github.com/tastebase/tastebase/internal/models"

	log "github.com/sirupsen/logrus"
)

// Service names consuming the AI capability.
const (
	ServiceTagSuggestion = "tag_suggestion"
	ServiceNutrition     = "nutrition_calculation"
	ServiceSearchParsing = "search_parsing"
)

// NutritionEstimate is the per-serving estimate returned by the model.
type NutritionEstimate struct {
	Calories     float64 `json:"calories"`
	ProteinGrams float64 `json:"protein_grams"`
	FatGrams     float64 `json:"fat_grams"`
	CarbGrams    float64 `json:"carb_grams"`
}

// SearchFilters is the structured form of a natural-language recipe search.
type SearchFilters struct {
	Keywords           []string `json:"keywords"`
	Tags               []string `json:"tags"`
	MaxPrepMinutes     int      `json:"max_prep_minutes"`
	ExcludeIngredients []string `json:"exclude_ingredients"`
}

// TagSuggestions lists the tag names picked by the model.
type TagSuggestions struct {
	Tags []string `json:"tags"`
}

// Dispatcher resolves configuration, assembles prompts, and executes them.
//
// It resolves parameters through the configuration cascade once per call and
// performs plain string placeholder substitution on the resolved user prompt
// template before forwarding the request to the executor.
type Dispatcher struct {
	resolver *aiconfig.Resolver
	executor Executor
}

// NewDispatcher constructs a dispatcher.
func NewDispatcher(resolver *aiconfig.Resolver, executor Executor) *Dispatcher {
	return &Dispatcher{resolver: resolver, executor: executor}
}

// SuggestTags asks the model to pick fitting tags for a recipe from the
// candidate list.
func (d *Dispatcher) SuggestTags(ctx context.Context, recipe *models.Recipe, candidates []models.Tag) ([]string, error) {
	names := make([]string, 0, len(candidates))
	for _, tag := range candidates {
		names = append(names, tag.Name)
	}

	values := map[string]string{
		"title":       recipe.Title,
		"description": recipe.Description,
		"ingredients": renderJSONLines(recipe.Ingredients),
		"candidates":  strings.Join(names, ", "),
	}

	content, errRun := d.run(ctx, ServiceTagSuggestion,
		defaultTagSuggestionSystemPrompt, defaultTagSuggestionTemplate, values)
	if errRun != nil {
		return nil, errRun
	}

	var suggestions TagSuggestions
	if errParse := json.Unmarshal([]byte(extractJSON(content)), &suggestions); errParse != nil {
		return nil, fmt.Errorf("ai: parse tag suggestions: %w", errParse)
	}
	return suggestions.Tags, nil
}

// EstimateNutrition asks the model for a per-serving nutrition estimate.
func (d *Dispatcher) EstimateNutrition(ctx context.Context, recipe *models.Recipe) (*NutritionEstimate, error) {
	values := map[string]string{
		"title":       recipe.Title,
		"servings":    strconv.Itoa(recipe.Servings),
		"ingredients": renderJSONLines(recipe.Ingredients),
	}

	content, errRun := d.run(ctx, ServiceNutrition,
		defaultNutritionSystemPrompt, defaultNutritionTemplate, values)
	if errRun != nil {
		return nil, errRun
	}

	var estimate NutritionEstimate
	if errParse := json.Unmarshal([]byte(extractJSON(content)), &estimate); errParse != nil {
		return nil, fmt.Errorf("ai: parse nutrition estimate: %w", errParse)
	}
	return &estimate, nil
}

// ParseSearchQuery translates a natural-language search into filters.
func (d *Dispatcher) ParseSearchQuery(ctx context.Context, query string) (*SearchFilters, error) {
	values := map[string]string{"query": query}

	content, errRun := d.run(ctx, ServiceSearchParsing,
		defaultSearchParsingSystemPrompt, defaultSearchParsingTemplate, values)
	if errRun != nil {
		return nil, errRun
	}

	var filters SearchFilters
	if errParse := json.Unmarshal([]byte(extractJSON(content)), &filters); errParse != nil {
		return nil, fmt.Errorf("ai: parse search filters: %w", errParse)
	}
	return &filters, nil
}

// run resolves parameters for the service, renders the prompt, and executes.
func (d *Dispatcher) run(ctx context.Context, serviceName, fallbackSystem, fallbackTemplate string, values map[string]string) (string, error) {
	if d == nil || d.resolver == nil || d.executor == nil {
		return "", fmt.Errorf("ai: dispatcher not initialized")
	}

	params, errResolve := d.resolver.Resolve(ctx, serviceName, aiconfig.Overrides{})
	if errResolve != nil {
		return "", fmt.Errorf("ai: resolve config for %s: %w", serviceName, errResolve)
	}

	systemPrompt := fallbackSystem
	if params.SystemPrompt != nil {
		systemPrompt = *params.SystemPrompt
	}
	template := fallbackTemplate
	if params.UserPromptTemplate != nil {
		template = *params.UserPromptTemplate
	}

	responseFormat := params.ResponseFormat
	if responseFormat == nil {
		// The built-in services all parse JSON payloads.
		jsonFormat := "json"
		responseFormat = &jsonFormat
	}

	messages := make([]Message, 0, 2)
	if strings.TrimSpace(systemPrompt) != "" {
		messages = append(messages, Message{Role: RoleSystem, Content: systemPrompt})
	}
	messages = append(messages, Message{Role: RoleUser, Content: RenderTemplate(template, values)})

	result, errExec := d.executor.Execute(ctx, Request{
		Model:          params.Model,
		Messages:       messages,
		Temperature:    params.Temperature,
		MaxTokens:      params.MaxTokens,
		ResponseFormat: responseFormat,
	})
	if errExec != nil {
		return "", fmt.Errorf("ai: execute %s: %w", serviceName, errExec)
	}

	log.WithFields(log.Fields{
		"service":       serviceName,
		"model":         params.Model,
		"total_tokens":  result.Usage.TotalTokens,
		"finish_reason": result.FinishReason,
	}).Debug("ai call completed")

	return result.Content, nil
}

// renderJSONLines renders a JSON string array as newline-separated lines.
func renderJSONLines(raw []byte) string {
	var lines []string
	if errParse := json.Unmarshal(raw, &lines); errParse != nil {
		return string(raw)
	}
	return strings.Join(lines, "\n")
}

// extractJSON strips markdown code fences some models wrap around JSON.
func extractJSON(content string) string {
	trimmed := strings.TrimSpace(content)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}
	trimmed = strings.TrimPrefix(trimmed, "```json")
	trimmed = strings.TrimPrefix(trimmed, "```")
	if idx := strings.LastIndex(trimmed, "```"); idx >= 0 {
		trimmed = trimmed[:idx]
	}
	return strings.TrimSpace(trimmed)
}
