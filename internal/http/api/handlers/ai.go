package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/tastebase/tastebase/internal/ai"
	"github.com/tastebase/tastebase/internal/models"
	"gorm.io/gorm"

	log "github.com/sirupsen/logrus"
)

// AIHandler serves the model-backed auxiliary endpoints.
type AIHandler struct {
	db         *gorm.DB       // Database handle for recipes and tags.
	dispatcher *ai.Dispatcher // Prompt dispatcher.
}

// NewAIHandler constructs an AI handler.
func NewAIHandler(db *gorm.DB, dispatcher *ai.Dispatcher) *AIHandler {
	return &AIHandler{db: db, dispatcher: dispatcher}
}

// SuggestTags asks the model for fitting tags for a recipe.
func (h *AIHandler) SuggestTags(c *gin.Context) {
	var body struct {
		RecipeID uint64 `json:"recipe_id"` // Recipe to suggest tags for.
	}
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	var recipe models.Recipe
	if errFind := h.db.WithContext(c.Request.Context()).First(&recipe, body.RecipeID).Error; errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "recipe not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}

	var candidates []models.Tag
	if errFind := h.db.WithContext(c.Request.Context()).
		Order("usage_count DESC, name ASC").Limit(100).Find(&candidates).Error; errFind != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}

	suggestions, errSuggest := h.dispatcher.SuggestTags(c.Request.Context(), &recipe, candidates)
	if errSuggest != nil {
		log.WithError(errSuggest).Warn("tag suggestion failed")
		c.JSON(http.StatusBadGateway, gin.H{"error": "tag suggestion failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"tags": suggestions})
}

// Nutrition asks the model for a per-serving nutrition estimate.
func (h *AIHandler) Nutrition(c *gin.Context) {
	var body struct {
		RecipeID uint64 `json:"recipe_id"` // Recipe to estimate.
	}
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	var recipe models.Recipe
	if errFind := h.db.WithContext(c.Request.Context()).First(&recipe, body.RecipeID).Error; errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "recipe not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}

	estimate, errEstimate := h.dispatcher.EstimateNutrition(c.Request.Context(), &recipe)
	if errEstimate != nil {
		log.WithError(errEstimate).Warn("nutrition estimation failed")
		c.JSON(http.StatusBadGateway, gin.H{"error": "nutrition estimation failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"nutrition": estimate})
}

// ParseSearch translates a natural-language query into structured filters and
// runs them against the recipe catalog.
func (h *AIHandler) ParseSearch(c *gin.Context) {
	var body struct {
		Query string `json:"query"` // Natural-language search query.
	}
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	if strings.TrimSpace(body.Query) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "query is required"})
		return
	}

	filters, errParse := h.dispatcher.ParseSearchQuery(c.Request.Context(), body.Query)
	if errParse != nil {
		log.WithError(errParse).Warn("search parsing failed")
		c.JSON(http.StatusBadGateway, gin.H{"error": "search parsing failed"})
		return
	}

	recipes, errSearch := h.searchRecipes(c, filters)
	if errSearch != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}
	out := make([]gin.H, 0, len(recipes))
	for i := range recipes {
		out = append(out, formatRecipe(&recipes[i]))
	}
	c.JSON(http.StatusOK, gin.H{"filters": filters, "recipes": out})
}

// searchRecipes applies parsed filters against the recipe catalog.
func (h *AIHandler) searchRecipes(c *gin.Context, filters *ai.SearchFilters) ([]models.Recipe, error) {
	q := h.db.WithContext(c.Request.Context()).Model(&models.Recipe{}).Preload("Tags")
	for _, keyword := range filters.Keywords {
		keyword = strings.TrimSpace(keyword)
		if keyword == "" {
			continue
		}
		q = q.Where("title LIKE ? OR description LIKE ?", "%"+keyword+"%", "%"+keyword+"%")
	}
	if len(filters.Tags) > 0 {
		q = q.Joins("JOIN recipe_tags ON recipe_tags.recipe_id = recipes.id").
			Joins("JOIN tags ON tags.id = recipe_tags.tag_id").
			Where("tags.name IN ?", filters.Tags).
			Distinct("recipes.*")
	}
	if filters.MaxPrepMinutes > 0 {
		q = q.Where("recipes.prep_minutes <= ?", filters.MaxPrepMinutes)
	}

	var rows []models.Recipe
	if errFind := q.Order("recipes.created_at DESC").Limit(parseLimit(c)).Find(&rows).Error; errFind != nil {
		return nil, errFind
	}
	return rows, nil
}

// parseLimit reads an optional result limit, defaulting to 50.
func parseLimit(c *gin.Context) int {
	raw := strings.TrimSpace(c.Query("limit"))
	if raw == "" {
		return 50
	}
	limit, errParse := strconv.Atoi(raw)
	if errParse != nil || limit <= 0 || limit > 200 {
		return 50
	}
	return limit
}
