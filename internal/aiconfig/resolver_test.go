package aiconfig

import (
	"context"
	"testing"

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

func strPtr(s string) *string   { return &s }
func f64Ptr(f float64) *float64 { return &f }
func intPtr(i int) *int         { return &i }

func createConfig(t *testing.T, conn *gorm.DB, rec models.AIConfig) models.AIConfig {
	t.Helper()
	if err := conn.Create(&rec).Error; err != nil {
		t.Fatalf("create config: %v", err)
	}
	return rec
}

func TestResolveCompiledDefaults(t *testing.T) {
	conn := newTestDB(t)
	resolver := NewResolver(conn)

	params, err := resolver.Resolve(context.Background(), "tag_suggestion", Overrides{})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if params.Provider != DefaultProvider || params.Model != DefaultModel {
		t.Fatalf("unexpected provider/model: %+v", params)
	}
	if params.Temperature != DefaultTemperature || params.MaxTokens != DefaultMaxTokens {
		t.Fatalf("unexpected sampling params: %+v", params)
	}
	if params.SystemPrompt != nil || params.UserPromptTemplate != nil || params.ResponseFormat != nil {
		t.Fatalf("defaults must carry no prompts: %+v", params)
	}
}

func TestResolveGlobalReplacesDefaults(t *testing.T) {
	conn := newTestDB(t)
	resolver := NewResolver(conn)

	createConfig(t, conn, models.AIConfig{
		Scope:       models.AIConfigScopeGlobal,
		Provider:    strPtr("anthropic"),
		Model:       strPtr("claude-sonnet"),
		Temperature: f64Ptr(0.2),
		MaxTokens:   intPtr(2000),
		Active:      true,
	})

	params, err := resolver.Resolve(context.Background(), "tag_suggestion", Overrides{})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if params.Provider != "anthropic" || params.Model != "claude-sonnet" {
		t.Fatalf("global record not applied: %+v", params)
	}
	if params.Temperature != 0.2 || params.MaxTokens != 2000 {
		t.Fatalf("global sampling params not applied: %+v", params)
	}
}

func TestResolveServiceMergesNonNilOnly(t *testing.T) {
	conn := newTestDB(t)
	resolver := NewResolver(conn)

	createConfig(t, conn, models.AIConfig{
		Scope:       models.AIConfigScopeGlobal,
		Provider:    strPtr("openai"),
		Model:       strPtr("gpt-4o"),
		Temperature: f64Ptr(0.5),
		MaxTokens:   intPtr(1500),
		Active:      true,
	})
	createConfig(t, conn, models.AIConfig{
		Scope:        models.AIConfigScopeService,
		ServiceName:  "nutrition_calculation",
		Temperature:  f64Ptr(0.1),
		SystemPrompt: strPtr("You are a nutritionist."),
		Active:       true,
	})

	params, err := resolver.Resolve(context.Background(), "nutrition_calculation", Overrides{})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	// Service layer overwrote only what it set.
	if params.Temperature != 0.1 {
		t.Fatalf("service temperature not applied: %+v", params)
	}
	if params.SystemPrompt == nil || *params.SystemPrompt != "You are a nutritionist." {
		t.Fatalf("service prompt not applied: %+v", params)
	}
	// Everything else inherits from the global layer.
	if params.Provider != "openai" || params.Model != "gpt-4o" || params.MaxTokens != 1500 {
		t.Fatalf("inherited fields lost: %+v", params)
	}
}

func TestResolveIgnoresOtherServicesAndInactive(t *testing.T) {
	conn := newTestDB(t)
	resolver := NewResolver(conn)

	createConfig(t, conn, models.AIConfig{
		Scope:       models.AIConfigScopeGlobal,
		Provider:    strPtr("anthropic"),
		Model:       strPtr("claude-sonnet"),
		Temperature: f64Ptr(0.3),
		MaxTokens:   intPtr(500),
		Active:      false,
	})
	createConfig(t, conn, models.AIConfig{
		Scope:       models.AIConfigScopeService,
		ServiceName: "search_parsing",
		Model:       strPtr("gpt-4o"),
		Active:      true,
	})

	params, err := resolver.Resolve(context.Background(), "tag_suggestion", Overrides{})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if params.Provider != DefaultProvider || params.Model != DefaultModel {
		t.Fatalf("inactive or foreign records leaked into resolution: %+v", params)
	}
}

func TestResolveFirstActiveGlobalWins(t *testing.T) {
	conn := newTestDB(t)
	resolver := NewResolver(conn)

	createConfig(t, conn, models.AIConfig{
		Scope:       models.AIConfigScopeGlobal,
		Provider:    strPtr("openai"),
		Model:       strPtr("first"),
		Temperature: f64Ptr(0.5),
		MaxTokens:   intPtr(100),
		Active:      true,
	})
	createConfig(t, conn, models.AIConfig{
		Scope:       models.AIConfigScopeGlobal,
		Provider:    strPtr("openai"),
		Model:       strPtr("second"),
		Temperature: f64Ptr(0.5),
		MaxTokens:   intPtr(100),
		Active:      true,
	})

	params, err := resolver.Resolve(context.Background(), "tag_suggestion", Overrides{})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if params.Model != "first" {
		t.Fatalf("expected lowest-ID active global to win, got %q", params.Model)
	}
}

func TestResolveOverridesWin(t *testing.T) {
	conn := newTestDB(t)
	resolver := NewResolver(conn)

	createConfig(t, conn, models.AIConfig{
		Scope:       models.AIConfigScopeGlobal,
		Provider:    strPtr("openai"),
		Model:       strPtr("gpt-4o"),
		Temperature: f64Ptr(0.5),
		MaxTokens:   intPtr(1500),
		Active:      true,
	})

	params, err := resolver.Resolve(context.Background(), "tag_suggestion", Overrides{
		Model:     strPtr("gpt-4o-mini"),
		MaxTokens: intPtr(256),
	})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if params.Model != "gpt-4o-mini" || params.MaxTokens != 256 {
		t.Fatalf("overrides not applied: %+v", params)
	}
	if params.Provider != "openai" || params.Temperature != 0.5 {
		t.Fatalf("unset override fields must inherit: %+v", params)
	}
}

func TestResolveCascadePrecedence(t *testing.T) {
	conn := newTestDB(t)
	resolver := NewResolver(conn)

	createConfig(t, conn, models.AIConfig{
		Scope:       models.AIConfigScopeGlobal,
		Provider:    strPtr("openai"),
		Model:       strPtr("gpt-4o"),
		Temperature: f64Ptr(0.7),
		MaxTokens:   intPtr(1000),
		Active:      true,
	})
	createConfig(t, conn, models.AIConfig{
		Scope:       models.AIConfigScopeService,
		ServiceName: "tag_suggestion",
		Temperature: f64Ptr(0.5),
		Active:      true,
	})

	// All three layers present: the runtime override wins.
	params, err := resolver.Resolve(context.Background(), "tag_suggestion", Overrides{
		Temperature: f64Ptr(0.9),
	})
	if err != nil {
		t.Fatalf("resolve with override: %v", err)
	}
	if params.Temperature != 0.9 {
		t.Fatalf("temperature=%v, want runtime override 0.9", params.Temperature)
	}

	// Without the override the service layer beats the global layer.
	params, err = resolver.Resolve(context.Background(), "tag_suggestion", Overrides{})
	if err != nil {
		t.Fatalf("resolve without override: %v", err)
	}
	if params.Temperature != 0.5 {
		t.Fatalf("temperature=%v, want service value 0.5", params.Temperature)
	}
	// Fields no layer above sets still come from the global record.
	if params.Provider != "openai" || params.Model != "gpt-4o" || params.MaxTokens != 1000 {
		t.Fatalf("global fields lost: %+v", params)
	}
}

func TestResolveEmptyOverridesIdempotent(t *testing.T) {
	conn := newTestDB(t)
	resolver := NewResolver(conn)

	createConfig(t, conn, models.AIConfig{
		Scope:       models.AIConfigScopeGlobal,
		Provider:    strPtr("openai"),
		Model:       strPtr("gpt-4o"),
		Temperature: f64Ptr(0.5),
		MaxTokens:   intPtr(1500),
		Active:      true,
	})

	first, err := resolver.Resolve(context.Background(), "tag_suggestion", Overrides{})
	if err != nil {
		t.Fatalf("first resolve: %v", err)
	}
	second, err := resolver.Resolve(context.Background(), "tag_suggestion", Overrides{})
	if err != nil {
		t.Fatalf("second resolve: %v", err)
	}
	if first.Provider != second.Provider || first.Model != second.Model ||
		first.Temperature != second.Temperature || first.MaxTokens != second.MaxTokens {
		t.Fatalf("resolution not stable: %+v vs %+v", first, second)
	}
}

func TestValidateBounds(t *testing.T) {
	if err := ValidateBounds(nil, nil); err != nil {
		t.Fatalf("nil fields must pass: %v", err)
	}
	if err := ValidateBounds(f64Ptr(0.0), intPtr(1)); err != nil {
		t.Fatalf("lower bounds must pass: %v", err)
	}
	if err := ValidateBounds(f64Ptr(2.0), intPtr(4000)); err != nil {
		t.Fatalf("upper bounds must pass: %v", err)
	}
	if err := ValidateBounds(f64Ptr(-0.1), nil); err == nil {
		t.Fatal("negative temperature must fail")
	}
	if err := ValidateBounds(f64Ptr(2.1), nil); err == nil {
		t.Fatal("temperature above 2.0 must fail")
	}
	if err := ValidateBounds(nil, intPtr(0)); err == nil {
		t.Fatal("zero max_tokens must fail")
	}
	if err := ValidateBounds(nil, intPtr(4001)); err == nil {
		t.Fatal("max_tokens above 4000 must fail")
	}
}
