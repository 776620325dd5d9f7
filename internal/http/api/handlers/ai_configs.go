package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/tastebase/tastebase/internal/aiconfig"
	"github.com/tastebase/tastebase/internal/models"
	"gorm.io/gorm"
)

// AIConfigHandler manages admin CRUD endpoints for AI configuration records.
type AIConfigHandler struct {
	db *gorm.DB // Database handle for configuration records.
}

// NewAIConfigHandler constructs an AI config handler.
func NewAIConfigHandler(db *gorm.DB) *AIConfigHandler {
	return &AIConfigHandler{db: db}
}

// createAIConfigRequest captures the payload for creating a config record.
type createAIConfigRequest struct {
	Scope              string   `json:"scope"`                // GLOBAL or SERVICE.
	ServiceName        string   `json:"service_name"`         // Required for SERVICE scope.
	Provider           *string  `json:"provider"`             // Target provider identifier.
	Model              *string  `json:"model"`                // Target model identifier.
	Temperature        *float64 `json:"temperature"`          // Sampling temperature.
	MaxTokens          *int     `json:"max_tokens"`           // Max output tokens.
	SystemPrompt       *string  `json:"system_prompt"`        // Optional system prompt.
	UserPromptTemplate *string  `json:"user_prompt_template"` // Optional user prompt template.
	ResponseFormat     *string  `json:"response_format"`      // Optional response format hint.
	Active             *bool    `json:"active"`               // Optional active flag.
	Description        string   `json:"description"`          // Human-readable description.
}

// Create validates input and inserts a new configuration record. GLOBAL
// records must be fully populated because resolution substitutes them for the
// compiled-in defaults wholesale.
func (h *AIConfigHandler) Create(c *gin.Context) {
	var body createAIConfigRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	scope := strings.ToUpper(strings.TrimSpace(body.Scope))
	if scope != models.AIConfigScopeGlobal && scope != models.AIConfigScopeService {
		c.JSON(http.StatusBadRequest, gin.H{"error": "scope must be GLOBAL or SERVICE"})
		return
	}
	serviceName := strings.TrimSpace(body.ServiceName)
	if scope == models.AIConfigScopeService && serviceName == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "service_name is required for SERVICE scope"})
		return
	}
	if scope == models.AIConfigScopeGlobal {
		serviceName = ""
		if body.Provider == nil || body.Model == nil || body.Temperature == nil || body.MaxTokens == nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "GLOBAL records require provider, model, temperature, and max_tokens"})
			return
		}
	}
	if errBounds := aiconfig.ValidateBounds(body.Temperature, body.MaxTokens); errBounds != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": errBounds.Error()})
		return
	}
	if errFormat := validateResponseFormat(body.ResponseFormat); errFormat != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": errFormat.Error()})
		return
	}

	active := true
	if body.Active != nil {
		active = *body.Active
	}

	record := models.AIConfig{
		Scope:              scope,
		ServiceName:        serviceName,
		Provider:           body.Provider,
		Model:              body.Model,
		Temperature:        body.Temperature,
		MaxTokens:          body.MaxTokens,
		SystemPrompt:       body.SystemPrompt,
		UserPromptTemplate: body.UserPromptTemplate,
		ResponseFormat:     body.ResponseFormat,
		Active:             active,
		Description:        strings.TrimSpace(body.Description),
	}
	if userID, ok := currentUserID(c); ok {
		record.CreatedBy = &userID
	}

	if errCreate := h.db.WithContext(c.Request.Context()).Create(&record).Error; errCreate != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "create ai config failed"})
		return
	}
	c.JSON(http.StatusCreated, formatAIConfig(&record))
}

// List returns configuration records filtered by query parameters.
func (h *AIConfigHandler) List(c *gin.Context) {
	var (
		scopeQ   = strings.ToUpper(strings.TrimSpace(c.Query("scope")))
		serviceQ = strings.TrimSpace(c.Query("service_name"))
		activeQ  = strings.TrimSpace(c.Query("active"))
	)

	q := h.db.WithContext(c.Request.Context()).Model(&models.AIConfig{})
	if scopeQ != "" {
		q = q.Where("scope = ?", scopeQ)
	}
	if serviceQ != "" {
		q = q.Where("service_name = ?", serviceQ)
	}
	if activeQ == "true" || activeQ == "1" {
		q = q.Where("active = ?", true)
	} else if activeQ == "false" || activeQ == "0" {
		q = q.Where("active = ?", false)
	}

	var rows []models.AIConfig
	if errFind := q.Order("id ASC").Find(&rows).Error; errFind != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list ai configs failed"})
		return
	}
	out := make([]gin.H, 0, len(rows))
	for i := range rows {
		out = append(out, formatAIConfig(&rows[i]))
	}
	c.JSON(http.StatusOK, gin.H{"ai_configs": out})
}

// Get fetches a configuration record by ID.
func (h *AIConfigHandler) Get(c *gin.Context) {
	id, errParse := strconv.ParseUint(strings.TrimSpace(c.Param("id")), 10, 64)
	if errParse != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	var record models.AIConfig
	if errFind := h.db.WithContext(c.Request.Context()).First(&record, id).Error; errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}
	c.JSON(http.StatusOK, formatAIConfig(&record))
}

// updateAIConfigRequest captures optional fields for config updates.
type updateAIConfigRequest struct {
	Provider           *string  `json:"provider"`             // Optional provider identifier.
	Model              *string  `json:"model"`                // Optional model identifier.
	Temperature        *float64 `json:"temperature"`          // Optional sampling temperature.
	MaxTokens          *int     `json:"max_tokens"`           // Optional max output tokens.
	SystemPrompt       *string  `json:"system_prompt"`        // Optional system prompt.
	UserPromptTemplate *string  `json:"user_prompt_template"` // Optional user prompt template.
	ResponseFormat     *string  `json:"response_format"`      // Optional response format hint.
	Active             *bool    `json:"active"`               // Optional active flag.
	Description        *string  `json:"description"`          // Optional description.
}

// Update validates and applies configuration field updates in place.
func (h *AIConfigHandler) Update(c *gin.Context) {
	id, errParse := strconv.ParseUint(strings.TrimSpace(c.Param("id")), 10, 64)
	if errParse != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	var body updateAIConfigRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	var existing models.AIConfig
	if errFind := h.db.WithContext(c.Request.Context()).First(&existing, id).Error; errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}

	if errBounds := aiconfig.ValidateBounds(body.Temperature, body.MaxTokens); errBounds != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": errBounds.Error()})
		return
	}
	if errFormat := validateResponseFormat(body.ResponseFormat); errFormat != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": errFormat.Error()})
		return
	}

	updates := map[string]any{}
	if body.Provider != nil {
		updates["provider"] = *body.Provider
	}
	if body.Model != nil {
		updates["model"] = *body.Model
	}
	if body.Temperature != nil {
		updates["temperature"] = *body.Temperature
	}
	if body.MaxTokens != nil {
		updates["max_tokens"] = *body.MaxTokens
	}
	if body.SystemPrompt != nil {
		updates["system_prompt"] = *body.SystemPrompt
	}
	if body.UserPromptTemplate != nil {
		updates["user_prompt_template"] = *body.UserPromptTemplate
	}
	if body.ResponseFormat != nil {
		updates["response_format"] = *body.ResponseFormat
	}
	if body.Active != nil {
		updates["active"] = *body.Active
	}
	if body.Description != nil {
		updates["description"] = strings.TrimSpace(*body.Description)
	}
	if len(updates) == 0 {
		c.JSON(http.StatusOK, formatAIConfig(&existing))
		return
	}

	if errUpdate := h.db.WithContext(c.Request.Context()).Model(&existing).Updates(updates).Error; errUpdate != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "update ai config failed"})
		return
	}
	c.JSON(http.StatusOK, formatAIConfig(&existing))
}

// SetActive flips the active flag, the reversible alternative to deletion.
func (h *AIConfigHandler) SetActive(active bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, errParse := strconv.ParseUint(strings.TrimSpace(c.Param("id")), 10, 64)
		if errParse != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
			return
		}

		result := h.db.WithContext(c.Request.Context()).Model(&models.AIConfig{}).
			Where("id = ?", id).Update("active", active)
		if result.Error != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "update ai config failed"})
			return
		}
		if result.RowsAffected == 0 {
			c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok", "active": active})
	}
}

// Delete hard-deletes a configuration record. Deletion is destructive and
// irreversible; deactivation is the reversible alternative.
func (h *AIConfigHandler) Delete(c *gin.Context) {
	id, errParse := strconv.ParseUint(strings.TrimSpace(c.Param("id")), 10, 64)
	if errParse != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}

	result := h.db.WithContext(c.Request.Context()).Delete(&models.AIConfig{}, id)
	if result.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "delete ai config failed"})
		return
	}
	if result.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}

// validateResponseFormat checks the response format hint when present.
func validateResponseFormat(format *string) error {
	if format == nil {
		return nil
	}
	if *format != "json" && *format != "text" {
		return errors.New(`response_format must be "json" or "text"`)
	}
	return nil
}

// formatAIConfig shapes a configuration record for API responses.
func formatAIConfig(record *models.AIConfig) gin.H {
	return gin.H{
		"id":                   record.ID,
		"scope":                record.Scope,
		"service_name":         record.ServiceName,
		"provider":             record.Provider,
		"model":                record.Model,
		"temperature":          record.Temperature,
		"max_tokens":           record.MaxTokens,
		"system_prompt":        record.SystemPrompt,
		"user_prompt_template": record.UserPromptTemplate,
		"response_format":      record.ResponseFormat,
		"active":               record.Active,
		"description":          record.Description,
		"created_by":           record.CreatedBy,
		"created_at":           record.CreatedAt,
		"updated_at":           record.UpdatedAt,
	}
}
