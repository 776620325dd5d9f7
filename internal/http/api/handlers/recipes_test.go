package handlers

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/tastebase/tastebase/internal/models"
	"github.com/tastebase/tastebase/internal/tags"
	"gorm.io/gorm"
)

func newRecipeRouter(t *testing.T, conn *gorm.DB, userID uint64, admin bool) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	handler := NewRecipeHandler(conn, tags.NewEngine(conn))

	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set(ContextUserID, userID)
		c.Set(ContextIsAdmin, admin)
		c.Next()
	})
	r.PUT("/recipes/:id/tags", handler.UpdateTags)
	return r
}

func seedUserRecipeTag(t *testing.T, conn *gorm.DB) (models.User, models.Recipe, models.Tag) {
	t.Helper()
	user := models.User{Username: "author", Name: "Author", Email: "author@example.test", Password: "x", Active: true}
	if err := conn.Create(&user).Error; err != nil {
		t.Fatalf("seed user: %v", err)
	}
	recipe := models.Recipe{UUID: "recipe-pancakes", Title: "pancakes", AuthorID: &user.ID}
	if err := conn.Create(&recipe).Error; err != nil {
		t.Fatalf("seed recipe: %v", err)
	}
	tag := models.Tag{UUID: "tag-breakfast", Name: "breakfast", Category: models.TagCategoryMealType}
	if err := conn.Create(&tag).Error; err != nil {
		t.Fatalf("seed tag: %v", err)
	}
	return user, recipe, tag
}

func TestUpdateTagsRequiresAuthorship(t *testing.T) {
	conn := newTestDB(t)
	user, recipe, tag := seedUserRecipeTag(t, conn)

	body := fmt.Sprintf(`{"add": [%d]}`, tag.ID)
	path := fmt.Sprintf("/recipes/%d/tags", recipe.ID)

	stranger := newRecipeRouter(t, conn, user.ID+1, false)
	if w := doJSON(t, stranger, http.MethodPut, path, body); w.Code != http.StatusForbidden {
		t.Fatalf("stranger status=%d, want %d", w.Code, http.StatusForbidden)
	}
	var count int64
	if err := conn.Model(&models.RecipeTag{}).Where("recipe_id = ?", recipe.ID).Count(&count).Error; err != nil {
		t.Fatalf("count associations: %v", err)
	}
	if count != 0 {
		t.Fatalf("associations=%d after forbidden call, want 0", count)
	}

	author := newRecipeRouter(t, conn, user.ID, false)
	if w := doJSON(t, author, http.MethodPut, path, body); w.Code != http.StatusOK {
		t.Fatalf("author status=%d, body=%s", w.Code, w.Body.String())
	}
}

func TestUpdateTagsAllowsAdmin(t *testing.T) {
	conn := newTestDB(t)
	user, recipe, tag := seedUserRecipeTag(t, conn)

	admin := newRecipeRouter(t, conn, user.ID+1, true)
	body := fmt.Sprintf(`{"add": [%d]}`, tag.ID)
	w := doJSON(t, admin, http.MethodPut, fmt.Sprintf("/recipes/%d/tags", recipe.ID), body)
	if w.Code != http.StatusOK {
		t.Fatalf("admin status=%d, body=%s", w.Code, w.Body.String())
	}
}

func TestUpdateTagsUnknownRecipeIs404(t *testing.T) {
	conn := newTestDB(t)
	user, _, tag := seedUserRecipeTag(t, conn)

	r := newRecipeRouter(t, conn, user.ID, false)
	w := doJSON(t, r, http.MethodPut, "/recipes/424242/tags", fmt.Sprintf(`{"add": [%d]}`, tag.ID))
	if w.Code != http.StatusNotFound {
		t.Fatalf("status=%d, want %d", w.Code, http.StatusNotFound)
	}
}
