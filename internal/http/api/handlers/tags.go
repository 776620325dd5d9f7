package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	internaldb "github.com/tastebase/tastebase/internal/db"
	"github.com/tastebase/tastebase/internal/models"
	"github.com/tastebase/tastebase/internal/tags"
	"gorm.io/gorm"
)

// TagHandler manages tag endpoints; creation, rename, and deletion are
// admin-only while listing is open to every authenticated user.
type TagHandler struct {
	db *gorm.DB // Database handle for tag records.
}

// NewTagHandler constructs a tag handler.
func NewTagHandler(db *gorm.DB) *TagHandler {
	return &TagHandler{db: db}
}

// createTagRequest captures the payload for creating a tag.
type createTagRequest struct {
	Name     string `json:"name"`     // Tag name, normalized before storage.
	Category string `json:"category"` // One of the fixed categories.
}

// Create validates, normalizes, and inserts a new tag.
func (h *TagHandler) Create(c *gin.Context) {
	var body createTagRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	if errName := tags.ValidateName(body.Name); errName != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": errName.Error()})
		return
	}
	if !models.IsValidTagCategory(body.Category) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid category"})
		return
	}

	name := tags.Normalize(body.Name)
	var count int64
	if errCount := h.db.WithContext(c.Request.Context()).Model(&models.Tag{}).
		Where("name = ?", name).Count(&count).Error; errCount != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}
	if count > 0 {
		c.JSON(http.StatusConflict, gin.H{"error": "tag name already exists"})
		return
	}

	tag := models.Tag{
		UUID:     uuid.NewString(),
		Name:     name,
		Category: body.Category,
	}
	if errCreate := h.db.WithContext(c.Request.Context()).Create(&tag).Error; errCreate != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "create tag failed"})
		return
	}
	c.JSON(http.StatusCreated, formatTag(&tag))
}

// List returns tags filtered by query parameters, most used first.
func (h *TagHandler) List(c *gin.Context) {
	var (
		searchQ   = strings.TrimSpace(c.Query("search"))
		categoryQ = strings.TrimSpace(c.Query("category"))
	)

	q := h.db.WithContext(c.Request.Context()).Model(&models.Tag{})
	if searchQ != "" {
		pattern := internaldb.NormalizeLikePattern(h.db, "%"+tags.Normalize(searchQ)+"%")
		q = q.Where(internaldb.CaseInsensitiveLikeExpr(h.db, "name"), pattern)
	}
	if categoryQ != "" {
		q = q.Where("category = ?", categoryQ)
	}

	var rows []models.Tag
	if errFind := q.Order("usage_count DESC, name ASC").Find(&rows).Error; errFind != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list tags failed"})
		return
	}
	out := make([]gin.H, 0, len(rows))
	for i := range rows {
		out = append(out, formatTag(&rows[i]))
	}
	c.JSON(http.StatusOK, gin.H{"tags": out})
}

// Get fetches a tag by ID.
func (h *TagHandler) Get(c *gin.Context) {
	id, errParse := strconv.ParseUint(strings.TrimSpace(c.Param("id")), 10, 64)
	if errParse != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	var tag models.Tag
	if errFind := h.db.WithContext(c.Request.Context()).First(&tag, id).Error; errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}
	c.JSON(http.StatusOK, formatTag(&tag))
}

// updateTagRequest captures optional fields for tag updates.
type updateTagRequest struct {
	Name     *string `json:"name"`     // Optional new name.
	Category *string `json:"category"` // Optional new category.
}

// Update renames or recategorizes a tag with the same uniqueness check as
// creation, excluding the tag itself.
func (h *TagHandler) Update(c *gin.Context) {
	id, errParse := strconv.ParseUint(strings.TrimSpace(c.Param("id")), 10, 64)
	if errParse != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	var body updateTagRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	var existing models.Tag
	if errFind := h.db.WithContext(c.Request.Context()).First(&existing, id).Error; errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}

	updates := map[string]any{}
	if body.Name != nil {
		if errName := tags.ValidateName(*body.Name); errName != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": errName.Error()})
			return
		}
		name := tags.Normalize(*body.Name)
		var count int64
		if errCount := h.db.WithContext(c.Request.Context()).Model(&models.Tag{}).
			Where("name = ? AND id <> ?", name, id).Count(&count).Error; errCount != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
			return
		}
		if count > 0 {
			c.JSON(http.StatusConflict, gin.H{"error": "tag name already exists"})
			return
		}
		updates["name"] = name
	}
	if body.Category != nil {
		if !models.IsValidTagCategory(*body.Category) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid category"})
			return
		}
		updates["category"] = *body.Category
	}
	if len(updates) == 0 {
		c.JSON(http.StatusOK, formatTag(&existing))
		return
	}

	if errUpdate := h.db.WithContext(c.Request.Context()).Model(&existing).Updates(updates).Error; errUpdate != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "update tag failed"})
		return
	}
	c.JSON(http.StatusOK, formatTag(&existing))
}

// Delete removes a tag. Deletion is blocked while any recipe association
// exists; callers must detach the tag from every recipe first.
func (h *TagHandler) Delete(c *gin.Context) {
	id, errParse := strconv.ParseUint(strings.TrimSpace(c.Param("id")), 10, 64)
	if errParse != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}

	var associations int64
	if errCount := h.db.WithContext(c.Request.Context()).Model(&models.RecipeTag{}).
		Where("tag_id = ?", id).Count(&associations).Error; errCount != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}
	if associations > 0 {
		c.JSON(http.StatusConflict, gin.H{"error": "tag is still associated with recipes"})
		return
	}

	result := h.db.WithContext(c.Request.Context()).Delete(&models.Tag{}, id)
	if result.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "delete tag failed"})
		return
	}
	if result.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}

// formatTag shapes a tag for API responses.
func formatTag(tag *models.Tag) gin.H {
	return gin.H{
		"id":          tag.ID,
		"uuid":        tag.UUID,
		"name":        tag.Name,
		"category":    tag.Category,
		"usage_count": tag.UsageCount,
		"created_at":  tag.CreatedAt,
		"updated_at":  tag.UpdatedAt,
	}
}
