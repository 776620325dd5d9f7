package aiconfig

import (
	"context"
	"errors"
	"fmt"

	"github.com/tastebase/tastebase/internal/models"
	"gorm.io/gorm"
)

// Compiled-in fallbacks used only when no active GLOBAL record exists.
const (
	DefaultProvider    = "openai"
	DefaultModel       = "gpt-4o-mini"
	DefaultTemperature = 0.7
	DefaultMaxTokens   = 1000
)

// Bounds enforced on configuration records at create/update time.
const (
	MinTemperature = 0.0
	MaxTemperature = 2.0
	MinMaxTokens   = 1
	MaxMaxTokens   = 4000
)

// Params is one fully resolved parameter set for an LLM call.
type Params struct {
	Provider           string  `json:"provider"`
	Model              string  `json:"model"`
	Temperature        float64 `json:"temperature"`
	MaxTokens          int     `json:"max_tokens"`
	SystemPrompt       *string `json:"system_prompt,omitempty"`
	UserPromptTemplate *string `json:"user_prompt_template,omitempty"`
	ResponseFormat     *string `json:"response_format,omitempty"`
}

// Overrides carries per-invocation parameter overrides. Nil fields inherit
// the value resolved from the configuration layers below.
type Overrides struct {
	Provider           *string
	Model              *string
	Temperature        *float64
	MaxTokens          *int
	SystemPrompt       *string
	UserPromptTemplate *string
	ResponseFormat     *string
}

// Resolver merges persisted AI configuration layers into call parameters.
//
// Resolution order, later layers winning: compiled-in defaults, the active
// GLOBAL record, the active SERVICE record for the named service, and the
// caller's runtime overrides. The GLOBAL record replaces the defaults
// entirely; SERVICE records and overrides only overwrite the fields they set.
type Resolver struct {
	db *gorm.DB // Database handle for configuration records.
}

// NewResolver constructs a resolver.
func NewResolver(db *gorm.DB) *Resolver {
	return &Resolver{db: db}
}

// Resolve produces the parameter set for one call of the named service.
//
// Missing records at any layer are normal and never produce an error; only a
// failed read of the backing store does.
func (r *Resolver) Resolve(ctx context.Context, serviceName string, overrides Overrides) (Params, error) {
	if r == nil || r.db == nil {
		return Params{}, fmt.Errorf("aiconfig: resolver not initialized")
	}

	params := defaultParams()

	var global models.AIConfig
	errGlobal := r.db.WithContext(ctx).
		Where("scope = ? AND active = ?", models.AIConfigScopeGlobal, true).
		Order("id ASC").
		First(&global).Error
	switch {
	case errGlobal == nil:
		params = paramsFromRecord(&global)
	case errors.Is(errGlobal, gorm.ErrRecordNotFound):
		// No global record: keep compiled-in defaults.
	default:
		return Params{}, fmt.Errorf("aiconfig: load global config: %w", errGlobal)
	}

	var service models.AIConfig
	errService := r.db.WithContext(ctx).
		Where("scope = ? AND service_name = ? AND active = ?", models.AIConfigScopeService, serviceName, true).
		Order("id ASC").
		First(&service).Error
	switch {
	case errService == nil:
		mergeRecord(&params, &service)
	case errors.Is(errService, gorm.ErrRecordNotFound):
		// No service record: inherit from the global layer.
	default:
		return Params{}, fmt.Errorf("aiconfig: load service config for %s: %w", serviceName, errService)
	}

	applyOverrides(&params, overrides)
	return params, nil
}

// defaultParams returns the compiled-in fallback parameter set.
func defaultParams() Params {
	return Params{
		Provider:    DefaultProvider,
		Model:       DefaultModel,
		Temperature: DefaultTemperature,
		MaxTokens:   DefaultMaxTokens,
	}
}

// paramsFromRecord converts a record field-for-field into a parameter set.
// A present GLOBAL record supersedes the compiled-in defaults entirely, so
// nil fields land as zero values rather than inheriting; GLOBAL records are
// expected to be fully populated by the create path.
func paramsFromRecord(rec *models.AIConfig) Params {
	var params Params
	if rec.Provider != nil {
		params.Provider = *rec.Provider
	}
	if rec.Model != nil {
		params.Model = *rec.Model
	}
	if rec.Temperature != nil {
		params.Temperature = *rec.Temperature
	}
	if rec.MaxTokens != nil {
		params.MaxTokens = *rec.MaxTokens
	}
	params.SystemPrompt = cloneString(rec.SystemPrompt)
	params.UserPromptTemplate = cloneString(rec.UserPromptTemplate)
	params.ResponseFormat = cloneString(rec.ResponseFormat)
	return params
}

// mergeRecord overwrites params with the record's non-nil fields only.
func mergeRecord(params *Params, rec *models.AIConfig) {
	if rec.Provider != nil {
		params.Provider = *rec.Provider
	}
	if rec.Model != nil {
		params.Model = *rec.Model
	}
	if rec.Temperature != nil {
		params.Temperature = *rec.Temperature
	}
	if rec.MaxTokens != nil {
		params.MaxTokens = *rec.MaxTokens
	}
	if rec.SystemPrompt != nil {
		params.SystemPrompt = cloneString(rec.SystemPrompt)
	}
	if rec.UserPromptTemplate != nil {
		params.UserPromptTemplate = cloneString(rec.UserPromptTemplate)
	}
	if rec.ResponseFormat != nil {
		params.ResponseFormat = cloneString(rec.ResponseFormat)
	}
}

// applyOverrides overwrites params with the caller's non-nil override fields.
func applyOverrides(params *Params, o Overrides) {
	if o.Provider != nil {
		params.Provider = *o.Provider
	}
	if o.Model != nil {
		params.Model = *o.Model
	}
	if o.Temperature != nil {
		params.Temperature = *o.Temperature
	}
	if o.MaxTokens != nil {
		params.MaxTokens = *o.MaxTokens
	}
	if o.SystemPrompt != nil {
		params.SystemPrompt = cloneString(o.SystemPrompt)
	}
	if o.UserPromptTemplate != nil {
		params.UserPromptTemplate = cloneString(o.UserPromptTemplate)
	}
	if o.ResponseFormat != nil {
		params.ResponseFormat = cloneString(o.ResponseFormat)
	}
}

// ValidateBounds checks temperature and max-token bounds for create/update.
func ValidateBounds(temperature *float64, maxTokens *int) error {
	if temperature != nil && (*temperature < MinTemperature || *temperature > MaxTemperature) {
		return fmt.Errorf("temperature must be between %.1f and %.1f", MinTemperature, MaxTemperature)
	}
	if maxTokens != nil && (*maxTokens < MinMaxTokens || *maxTokens > MaxMaxTokens) {
		return fmt.Errorf("max_tokens must be between %d and %d", MinMaxTokens, MaxMaxTokens)
	}
	return nil
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}
