package models

import "time"

// Tag categories form a fixed enumeration; tags outside it are rejected.
const (
	TagCategoryCuisine    = "cuisine"
	TagCategoryMealType   = "meal_type"
	TagCategoryDiet       = "diet"
	TagCategoryIngredient = "ingredient"
	TagCategoryTechnique  = "technique"
	TagCategoryOccasion   = "occasion"
	TagCategoryDifficulty = "difficulty"
)

// TagCategories lists every valid tag category.
var TagCategories = []string{
	TagCategoryCuisine,
	TagCategoryMealType,
	TagCategoryDiet,
	TagCategoryIngredient,
	TagCategoryTechnique,
	TagCategoryOccasion,
	TagCategoryDifficulty,
}

// IsValidTagCategory reports whether category is part of the fixed enumeration.
func IsValidTagCategory(category string) bool {
	for _, c := range TagCategories {
		if c == category {
			return true
		}
	}
	return false
}

// Tag is a normalized label applicable to recipes.
type Tag struct {
	ID   uint64 `gorm:"primaryKey;autoIncrement"`       // Primary key.
	UUID string `gorm:"type:text;not null;uniqueIndex"` // Durable external identifier.

	Name     string `gorm:"type:text;not null;uniqueIndex"`  // Normalized name (lowercase, trimmed).
	Category string `gorm:"type:varchar(32);not null;index"` // One of TagCategories.

	// UsageCount mirrors the number of recipe associations and never goes
	// negative. It is maintained exclusively by the reconciliation engine.
	UsageCount int64 `gorm:"not null;default:0"`

	CreatedAt time.Time `gorm:"not null;autoCreateTime"` // Creation timestamp.
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime"` // Last update timestamp.
}

// RecipeTag is the many-to-many association row between recipes and tags.
type RecipeTag struct {
	RecipeID uint64 `gorm:"primaryKey"` // Associated recipe ID.
	TagID    uint64 `gorm:"primaryKey"` // Associated tag ID.

	CreatedAt time.Time `gorm:"not null;autoCreateTime"` // Creation timestamp.
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime"` // Last update timestamp.
}
