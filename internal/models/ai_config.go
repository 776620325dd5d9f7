package models

import "time"

// AI configuration scopes.
const (
	// AIConfigScopeGlobal marks a deployment-wide parameter bundle.
	AIConfigScopeGlobal = "GLOBAL"
	// AIConfigScopeService marks an override bundle for one named service.
	AIConfigScopeService = "SERVICE"
)

// AIConfig is one named parameter bundle for driving an LLM call.
//
// GLOBAL records are expected to be fully populated; SERVICE records carry
// only the fields they intend to override, with nil fields inherited from the
// layer below during resolution.
type AIConfig struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"` // Primary key.

	Scope       string `gorm:"type:varchar(16);not null;index"` // GLOBAL or SERVICE.
	ServiceName string `gorm:"type:varchar(64);index"`          // Consumer name, set only for SERVICE scope.

	Provider           *string  `gorm:"type:varchar(64)"`  // Target provider identifier.
	Model              *string  `gorm:"type:varchar(255)"` // Target model identifier.
	Temperature        *float64 `gorm:"type:decimal(4,2)"` // Sampling temperature (0.0-2.0).
	MaxTokens          *int     `gorm:"type:integer"`      // Max output tokens (1-4000).
	SystemPrompt       *string  `gorm:"type:text"`         // Optional system prompt.
	UserPromptTemplate *string  `gorm:"type:text"`         // Optional user prompt template with {placeholders}.
	ResponseFormat     *string  `gorm:"type:varchar(16)"`  // Optional response format hint ("json" or "text").

	Active      bool   `gorm:"not null;default:true"` // Whether the record participates in resolution.
	Description string `gorm:"type:text"`             // Human-readable description.

	CreatedBy *uint64 `gorm:"index"`                // Creating admin user ID.
	Creator   *User   `gorm:"foreignKey:CreatedBy"` // Creating admin user.

	CreatedAt time.Time `gorm:"not null;autoCreateTime"` // Creation timestamp.
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime"` // Last update timestamp.
}
