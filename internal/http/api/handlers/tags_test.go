package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	internaldb "github.com/tastebase/tastebase/internal/db"
	"github.com/tastebase/tastebase/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	conn, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := conn.DB()
	if err != nil {
		t.Fatalf("unwrap sql.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	if errMigrate := internaldb.Migrate(conn); errMigrate != nil {
		t.Fatalf("migrate: %v", errMigrate)
	}
	return conn
}

func newTagRouter(t *testing.T) (*gin.Engine, *gorm.DB) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	conn := newTestDB(t)
	handler := NewTagHandler(conn)

	r := gin.New()
	r.POST("/tags", handler.Create)
	r.GET("/tags", handler.List)
	r.DELETE("/tags/:id", handler.Delete)
	return r, conn
}

func doJSON(t *testing.T, r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestCreateTagNormalizesName(t *testing.T) {
	r, _ := newTagRouter(t)

	w := doJSON(t, r, http.MethodPost, "/tags", `{"name": "  Breakfast  ", "category": "meal_type"}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("status=%d, body=%s", w.Code, w.Body.String())
	}
	var created struct {
		Name string `json:"name"`
		UUID string `json:"uuid"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if created.Name != "breakfast" {
		t.Fatalf("name=%q, want normalized %q", created.Name, "breakfast")
	}
	if created.UUID == "" {
		t.Fatal("expected a generated uuid")
	}
}

func TestCreateTagRejectsNormalizedDuplicate(t *testing.T) {
	r, _ := newTagRouter(t)

	if w := doJSON(t, r, http.MethodPost, "/tags", `{"name": "Breakfast", "category": "meal_type"}`); w.Code != http.StatusCreated {
		t.Fatalf("first create status=%d", w.Code)
	}
	// Same name after normalization must conflict.
	w := doJSON(t, r, http.MethodPost, "/tags", `{"name": "  breakfast ", "category": "meal_type"}`)
	if w.Code != http.StatusConflict {
		t.Fatalf("duplicate create status=%d, want %d", w.Code, http.StatusConflict)
	}
}

func TestCreateTagRejectsInvalidInput(t *testing.T) {
	r, _ := newTagRouter(t)

	cases := []struct {
		body   string
		reason string
	}{
		{`{"name": "x", "category": "meal_type"}`, "name too short"},
		{`{"name": "tag!", "category": "meal_type"}`, "invalid character"},
		{`{"name": "breakfast", "category": "mood"}`, "unknown category"},
	}
	for _, tc := range cases {
		if w := doJSON(t, r, http.MethodPost, "/tags", tc.body); w.Code != http.StatusBadRequest {
			t.Fatalf("%s: status=%d, want %d", tc.reason, w.Code, http.StatusBadRequest)
		}
	}
}

func TestDeleteTagBlockedWhileAssociated(t *testing.T) {
	r, conn := newTagRouter(t)

	tag := models.Tag{UUID: "tag-breakfast", Name: "breakfast", Category: models.TagCategoryMealType}
	if err := conn.Create(&tag).Error; err != nil {
		t.Fatalf("seed tag: %v", err)
	}
	recipe := models.Recipe{UUID: "recipe-pancakes", Title: "pancakes"}
	if err := conn.Create(&recipe).Error; err != nil {
		t.Fatalf("seed recipe: %v", err)
	}
	if err := conn.Create(&models.RecipeTag{RecipeID: recipe.ID, TagID: tag.ID}).Error; err != nil {
		t.Fatalf("seed association: %v", err)
	}

	w := doJSON(t, r, http.MethodDelete, "/tags/1", "")
	if w.Code != http.StatusConflict {
		t.Fatalf("delete status=%d, want %d", w.Code, http.StatusConflict)
	}

	if err := conn.Delete(&models.RecipeTag{}, "recipe_id = ? AND tag_id = ?", recipe.ID, tag.ID).Error; err != nil {
		t.Fatalf("detach: %v", err)
	}
	if w := doJSON(t, r, http.MethodDelete, "/tags/1", ""); w.Code != http.StatusOK {
		t.Fatalf("delete after detach status=%d, want %d", w.Code, http.StatusOK)
	}
}
