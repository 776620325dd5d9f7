package models

import (
	"time"

	"gorm.io/datatypes"
)

// Recipe represents one stored recipe with its denormalized content blobs.
type Recipe struct {
	ID   uint64 `gorm:"primaryKey;autoIncrement"`       // Primary key.
	UUID string `gorm:"type:text;not null;uniqueIndex"` // Durable external identifier.

	Title       string `gorm:"type:text;not null"` // Recipe title.
	Description string `gorm:"type:text"`          // Free-form description.

	Ingredients  datatypes.JSON `gorm:"type:jsonb"` // JSON array of ingredient lines.
	Instructions datatypes.JSON `gorm:"type:jsonb"` // JSON array of instruction steps.

	Servings    int `gorm:"not null;default:1"` // Number of servings produced.
	PrepMinutes int `gorm:"not null;default:0"` // Preparation time in minutes.
	CookMinutes int `gorm:"not null;default:0"` // Cooking time in minutes.

	AuthorID *uint64 `gorm:"index"`                 // Authoring user ID.
	Author   *User   `gorm:"foreignKey:AuthorID"`   // Authoring user.
	Tags     []Tag   `gorm:"many2many:recipe_tags"` // Associated tags.

	CreatedAt time.Time `gorm:"not null;autoCreateTime"` // Creation timestamp.
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime"` // Last update timestamp.
}
