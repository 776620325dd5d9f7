package ai

import (
	"context"
	"strings"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/tastebase/tastebase/internal/aiconfig"
	internaldb "github.com/tastebase/tastebase/internal/db"
	"github.com/tastebase/tastebase/internal/models"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// fakeExecutor records the last request and replies with canned content.
type fakeExecutor struct {
	lastReq Request
	content string
	err     error
}

func (f *fakeExecutor) Execute(_ context.Context, req Request) (Result, error) {
	f.lastReq = req
	if f.err != nil {
		return Result{}, f.err
	}
	return Result{
		Content:      f.content,
		Usage:        Usage{PromptTokens: 5, CompletionTokens: 5, TotalTokens: 10},
		FinishReason: "stop",
	}, nil
}

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

func newTestDispatcher(t *testing.T) (*Dispatcher, *fakeExecutor, *gorm.DB) {
	t.Helper()
	conn := newTestDB(t)
	executor := &fakeExecutor{}
	return NewDispatcher(aiconfig.NewResolver(conn), executor), executor, conn
}

func testRecipe() *models.Recipe {
	return &models.Recipe{
		ID:          1,
		Title:       "Pancakes",
		Description: "Fluffy breakfast pancakes.",
		Ingredients: datatypes.JSON(`["2 eggs", "200g flour", "250ml milk"]`),
		Servings:    4,
	}
}

func TestSuggestTags(t *testing.T) {
	dispatcher, executor, _ := newTestDispatcher(t)
	executor.content = "```json\n{\"tags\": [\"breakfast\", \"sweet\"]}\n```"

	candidates := []models.Tag{
		{ID: 1, Name: "breakfast"},
		{ID: 2, Name: "dinner"},
	}
	tags, err := dispatcher.SuggestTags(context.Background(), testRecipe(), candidates)
	if err != nil {
		t.Fatalf("suggest tags: %v", err)
	}
	if len(tags) != 2 || tags[0] != "breakfast" || tags[1] != "sweet" {
		t.Fatalf("unexpected suggestions: %v", tags)
	}

	if executor.lastReq.Model != aiconfig.DefaultModel {
		t.Fatalf("model=%q, want default", executor.lastReq.Model)
	}
	if executor.lastReq.ResponseFormat == nil || *executor.lastReq.ResponseFormat != "json" {
		t.Fatalf("response format not defaulted to json: %+v", executor.lastReq.ResponseFormat)
	}
	if len(executor.lastReq.Messages) != 2 {
		t.Fatalf("expected system and user messages, got %d", len(executor.lastReq.Messages))
	}
	userPrompt := executor.lastReq.Messages[1].Content
	for _, want := range []string{"Pancakes", "2 eggs", "breakfast, dinner"} {
		if !strings.Contains(userPrompt, want) {
			t.Fatalf("user prompt missing %q:\n%s", want, userPrompt)
		}
	}
}

func TestEstimateNutrition(t *testing.T) {
	dispatcher, executor, _ := newTestDispatcher(t)
	executor.content = `{"calories": 320.5, "protein_grams": 12, "fat_grams": 9.5, "carb_grams": 48}`

	estimate, err := dispatcher.EstimateNutrition(context.Background(), testRecipe())
	if err != nil {
		t.Fatalf("estimate nutrition: %v", err)
	}
	if estimate.Calories != 320.5 || estimate.ProteinGrams != 12 {
		t.Fatalf("unexpected estimate: %+v", estimate)
	}
	userPrompt := executor.lastReq.Messages[1].Content
	if !strings.Contains(userPrompt, "Servings: 4") {
		t.Fatalf("servings missing from prompt:\n%s", userPrompt)
	}
}

func TestParseSearchQuery(t *testing.T) {
	dispatcher, executor, _ := newTestDispatcher(t)
	executor.content = `{"keywords": ["pasta"], "tags": ["italian"], "max_prep_minutes": 30, "exclude_ingredients": ["mushrooms"]}`

	filters, err := dispatcher.ParseSearchQuery(context.Background(), "quick italian pasta without mushrooms")
	if err != nil {
		t.Fatalf("parse search: %v", err)
	}
	if len(filters.Keywords) != 1 || filters.Keywords[0] != "pasta" {
		t.Fatalf("unexpected keywords: %v", filters.Keywords)
	}
	if filters.MaxPrepMinutes != 30 {
		t.Fatalf("max_prep_minutes=%d, want 30", filters.MaxPrepMinutes)
	}
	if !strings.Contains(executor.lastReq.Messages[1].Content, "quick italian pasta") {
		t.Fatalf("query missing from prompt: %s", executor.lastReq.Messages[1].Content)
	}
}

func TestDispatcherUsesConfiguredPrompts(t *testing.T) {
	dispatcher, executor, conn := newTestDispatcher(t)
	executor.content = `{"tags": []}`

	system := "Custom cataloguer."
	template := "TITLE={title}"
	record := models.AIConfig{
		Scope:              models.AIConfigScopeService,
		ServiceName:        ServiceTagSuggestion,
		SystemPrompt:       &system,
		UserPromptTemplate: &template,
		Active:             true,
	}
	if err := conn.Create(&record).Error; err != nil {
		t.Fatalf("create service config: %v", err)
	}

	if _, err := dispatcher.SuggestTags(context.Background(), testRecipe(), nil); err != nil {
		t.Fatalf("suggest tags: %v", err)
	}
	if executor.lastReq.Messages[0].Content != "Custom cataloguer." {
		t.Fatalf("system prompt not overridden: %q", executor.lastReq.Messages[0].Content)
	}
	if executor.lastReq.Messages[1].Content != "TITLE=Pancakes" {
		t.Fatalf("template not overridden: %q", executor.lastReq.Messages[1].Content)
	}
}

func TestSuggestTagsRejectsMalformedJSON(t *testing.T) {
	dispatcher, executor, _ := newTestDispatcher(t)
	executor.content = "not json at all"

	if _, err := dispatcher.SuggestTags(context.Background(), testRecipe(), nil); err == nil {
		t.Fatal("expected malformed payload to error")
	}
}

func TestRenderTemplate(t *testing.T) {
	got := RenderTemplate("Hello {name}, {missing} and {name} again", map[string]string{"name": "world"})
	if got != "Hello world, {missing} and world again" {
		t.Fatalf("unexpected render: %q", got)
	}
	if RenderTemplate("static", nil) != "static" {
		t.Fatal("nil values must leave the template unchanged")
	}
}

func TestExtractJSON(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{`{"a": 1}`, `{"a": 1}`},
		{"```json\n{\"a\": 1}\n```", `{"a": 1}`},
		{"```\n{\"a\": 1}\n```", `{"a": 1}`},
		{"  {\"a\": 1}  ", `{"a": 1}`},
	}
	for _, tc := range cases {
		if got := extractJSON(tc.in); got != tc.want {
			t.Fatalf("extractJSON(%q)=%q, want %q", tc.in, got, tc.want)
		}
	}
}
