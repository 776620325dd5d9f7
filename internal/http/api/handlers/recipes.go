package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	internaldb "github.com/tastebase/tastebase/internal/db"
	"github.com/tastebase/tastebase/internal/models"
	"github.com/tastebase/tastebase/internal/tags"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// RecipeHandler manages recipe CRUD and tag reconciliation endpoints.
type RecipeHandler struct {
	db     *gorm.DB     // Database handle for recipe records.
	engine *tags.Engine // Reconciliation engine for tag changes.
}

// NewRecipeHandler constructs a recipe handler.
func NewRecipeHandler(db *gorm.DB, engine *tags.Engine) *RecipeHandler {
	return &RecipeHandler{db: db, engine: engine}
}

// createRecipeRequest captures the payload for creating a recipe.
type createRecipeRequest struct {
	Title        string   `json:"title"`        // Recipe title.
	Description  string   `json:"description"`  // Free-form description.
	Ingredients  []string `json:"ingredients"`  // Ingredient lines.
	Instructions []string `json:"instructions"` // Instruction steps.
	Servings     *int     `json:"servings"`     // Optional servings, defaults to 1.
	PrepMinutes  *int     `json:"prep_minutes"` // Optional prep time.
	CookMinutes  *int     `json:"cook_minutes"` // Optional cook time.
}

// Create validates input and inserts a new recipe for the current user.
func (h *RecipeHandler) Create(c *gin.Context) {
	var body createRecipeRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	if strings.TrimSpace(body.Title) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "title is required"})
		return
	}
	if len(body.Ingredients) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ingredients are required"})
		return
	}

	servings := 1
	if body.Servings != nil {
		if *body.Servings < 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "servings must be positive"})
			return
		}
		servings = *body.Servings
	}
	prepMinutes := 0
	if body.PrepMinutes != nil {
		prepMinutes = *body.PrepMinutes
	}
	cookMinutes := 0
	if body.CookMinutes != nil {
		cookMinutes = *body.CookMinutes
	}

	ingredients, errIngredients := json.Marshal(body.Ingredients)
	if errIngredients != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid ingredients"})
		return
	}
	instructions, errInstructions := json.Marshal(body.Instructions)
	if errInstructions != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid instructions"})
		return
	}

	recipe := models.Recipe{
		UUID:         uuid.NewString(),
		Title:        strings.TrimSpace(body.Title),
		Description:  strings.TrimSpace(body.Description),
		Ingredients:  datatypes.JSON(ingredients),
		Instructions: datatypes.JSON(instructions),
		Servings:     servings,
		PrepMinutes:  prepMinutes,
		CookMinutes:  cookMinutes,
	}
	if userID, ok := currentUserID(c); ok {
		recipe.AuthorID = &userID
	}

	if errCreate := h.db.WithContext(c.Request.Context()).Create(&recipe).Error; errCreate != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "create recipe failed"})
		return
	}
	c.JSON(http.StatusCreated, formatRecipe(&recipe))
}

// List returns recipes filtered by query parameters.
func (h *RecipeHandler) List(c *gin.Context) {
	var (
		searchQ = strings.TrimSpace(c.Query("search"))
		tagQ    = strings.TrimSpace(c.Query("tag"))
		authorQ = strings.TrimSpace(c.Query("author_id"))
	)

	q := h.db.WithContext(c.Request.Context()).Model(&models.Recipe{}).Preload("Tags")
	if searchQ != "" {
		pattern := internaldb.NormalizeLikePattern(h.db, "%"+searchQ+"%")
		q = q.Where(internaldb.CaseInsensitiveLikeExpr(h.db, "title"), pattern)
	}
	if tagQ != "" {
		q = q.Joins("JOIN recipe_tags ON recipe_tags.recipe_id = recipes.id").
			Joins("JOIN tags ON tags.id = recipe_tags.tag_id").
			Where("tags.name = ?", tags.Normalize(tagQ))
	}
	if authorQ != "" {
		authorID, errParse := strconv.ParseUint(authorQ, 10, 64)
		if errParse != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid author_id"})
			return
		}
		q = q.Where("recipes.author_id = ?", authorID)
	}

	var rows []models.Recipe
	if errFind := q.Order("recipes.created_at DESC").Find(&rows).Error; errFind != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list recipes failed"})
		return
	}
	out := make([]gin.H, 0, len(rows))
	for i := range rows {
		out = append(out, formatRecipe(&rows[i]))
	}
	c.JSON(http.StatusOK, gin.H{"recipes": out})
}

// Get fetches a recipe by ID with its tags.
func (h *RecipeHandler) Get(c *gin.Context) {
	id, errParse := strconv.ParseUint(strings.TrimSpace(c.Param("id")), 10, 64)
	if errParse != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	var recipe models.Recipe
	if errFind := h.db.WithContext(c.Request.Context()).Preload("Tags").First(&recipe, id).Error; errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}
	c.JSON(http.StatusOK, formatRecipe(&recipe))
}

// updateRecipeRequest captures optional fields for recipe updates.
type updateRecipeRequest struct {
	Title        *string   `json:"title"`        // Optional title.
	Description  *string   `json:"description"`  // Optional description.
	Ingredients  *[]string `json:"ingredients"`  // Optional ingredient lines.
	Instructions *[]string `json:"instructions"` // Optional instruction steps.
	Servings     *int      `json:"servings"`     // Optional servings.
	PrepMinutes  *int      `json:"prep_minutes"` // Optional prep time.
	CookMinutes  *int      `json:"cook_minutes"` // Optional cook time.
}

// Update validates and applies recipe field updates.
func (h *RecipeHandler) Update(c *gin.Context) {
	id, errParse := strconv.ParseUint(strings.TrimSpace(c.Param("id")), 10, 64)
	if errParse != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	var body updateRecipeRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	var existing models.Recipe
	if errFind := h.db.WithContext(c.Request.Context()).First(&existing, id).Error; errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}
	if !canEditRecipe(c, &existing) {
		c.JSON(http.StatusForbidden, gin.H{"error": "not the recipe author"})
		return
	}

	updates := map[string]any{}
	if body.Title != nil {
		title := strings.TrimSpace(*body.Title)
		if title == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "title cannot be empty"})
			return
		}
		updates["title"] = title
	}
	if body.Description != nil {
		updates["description"] = strings.TrimSpace(*body.Description)
	}
	if body.Ingredients != nil {
		if len(*body.Ingredients) == 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "ingredients cannot be empty"})
			return
		}
		ingredients, errMarshal := json.Marshal(*body.Ingredients)
		if errMarshal != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid ingredients"})
			return
		}
		updates["ingredients"] = datatypes.JSON(ingredients)
	}
	if body.Instructions != nil {
		instructions, errMarshal := json.Marshal(*body.Instructions)
		if errMarshal != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid instructions"})
			return
		}
		updates["instructions"] = datatypes.JSON(instructions)
	}
	if body.Servings != nil {
		if *body.Servings < 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "servings must be positive"})
			return
		}
		updates["servings"] = *body.Servings
	}
	if body.PrepMinutes != nil {
		updates["prep_minutes"] = *body.PrepMinutes
	}
	if body.CookMinutes != nil {
		updates["cook_minutes"] = *body.CookMinutes
	}
	if len(updates) == 0 {
		c.JSON(http.StatusOK, formatRecipe(&existing))
		return
	}

	if errUpdate := h.db.WithContext(c.Request.Context()).Model(&existing).Updates(updates).Error; errUpdate != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "update recipe failed"})
		return
	}
	c.JSON(http.StatusOK, formatRecipe(&existing))
}

// Delete removes a recipe after detaching its tags through the engine so the
// usage counters stay consistent.
func (h *RecipeHandler) Delete(c *gin.Context) {
	id, errParse := strconv.ParseUint(strings.TrimSpace(c.Param("id")), 10, 64)
	if errParse != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}

	var existing models.Recipe
	if errFind := h.db.WithContext(c.Request.Context()).First(&existing, id).Error; errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}
	if !canEditRecipe(c, &existing) {
		c.JSON(http.StatusForbidden, gin.H{"error": "not the recipe author"})
		return
	}

	current, errCurrent := h.engine.CurrentTags(c.Request.Context(), id)
	if errCurrent != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}
	if len(current) > 0 {
		removeIDs := make([]uint64, 0, len(current))
		for _, tag := range current {
			removeIDs = append(removeIDs, tag.ID)
		}
		if outcome := h.engine.Reconcile(c.Request.Context(), id, nil, removeIDs); outcome.Failed() {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "detach tags failed", "errors": outcome.Errors})
			return
		}
	}

	if errDelete := h.db.WithContext(c.Request.Context()).Delete(&models.Recipe{}, id).Error; errDelete != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "delete recipe failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}

// updateRecipeTagsRequest captures the tag change sets for reconciliation.
type updateRecipeTagsRequest struct {
	Add    []uint64 `json:"add"`    // Tag IDs to associate.
	Remove []uint64 `json:"remove"` // Tag IDs to dissociate.
}

// UpdateTags applies an atomic add/remove change set to the recipe's tags.
// Business-rule violations come back as a 400 with the outcome's errors;
// redundant requests are skipped and reported as warnings on success.
func (h *RecipeHandler) UpdateTags(c *gin.Context) {
	id, errParse := strconv.ParseUint(strings.TrimSpace(c.Param("id")), 10, 64)
	if errParse != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	var body updateRecipeTagsRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	var existing models.Recipe
	if errFind := h.db.WithContext(c.Request.Context()).First(&existing, id).Error; errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}
	if !canEditRecipe(c, &existing) {
		c.JSON(http.StatusForbidden, gin.H{"error": "not the recipe author"})
		return
	}

	outcome := h.engine.Reconcile(c.Request.Context(), id, body.Add, body.Remove)
	if outcome.Failed() {
		c.JSON(http.StatusBadRequest, outcome)
		return
	}
	c.JSON(http.StatusOK, outcome)
}

// ListTags returns the recipe's current tag associations.
func (h *RecipeHandler) ListTags(c *gin.Context) {
	id, errParse := strconv.ParseUint(strings.TrimSpace(c.Param("id")), 10, 64)
	if errParse != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}

	current, errCurrent := h.engine.CurrentTags(c.Request.Context(), id)
	if errCurrent != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}
	out := make([]gin.H, 0, len(current))
	for i := range current {
		out = append(out, formatTag(&current[i]))
	}
	c.JSON(http.StatusOK, gin.H{"tags": out})
}

// canEditRecipe reports whether the current user may modify the recipe.
func canEditRecipe(c *gin.Context, recipe *models.Recipe) bool {
	if isAdmin(c) {
		return true
	}
	userID, ok := currentUserID(c)
	if !ok || recipe.AuthorID == nil {
		return false
	}
	return *recipe.AuthorID == userID
}

// formatRecipe shapes a recipe for API responses.
func formatRecipe(recipe *models.Recipe) gin.H {
	tagList := make([]gin.H, 0, len(recipe.Tags))
	for i := range recipe.Tags {
		tagList = append(tagList, formatTag(&recipe.Tags[i]))
	}
	return gin.H{
		"id":           recipe.ID,
		"uuid":         recipe.UUID,
		"title":        recipe.Title,
		"description":  recipe.Description,
		"ingredients":  json.RawMessage(recipe.Ingredients),
		"instructions": json.RawMessage(recipe.Instructions),
		"servings":     recipe.Servings,
		"prep_minutes": recipe.PrepMinutes,
		"cook_minutes": recipe.CookMinutes,
		"author_id":    recipe.AuthorID,
		"tags":         tagList,
		"created_at":   recipe.CreatedAt,
		"updated_at":   recipe.UpdatedAt,
	}
}
