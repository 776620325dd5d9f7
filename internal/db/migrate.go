package db

import (
	"fmt"

	"github.com/tastebase/tastebase/internal/models"
	"gorm.io/gorm"
)

// migratedModels lists every schema-managed model in dependency order.
var migratedModels = []any{
	&models.User{},
	&models.Tag{},
	&models.Recipe{},
	&models.RecipeTag{},
	&models.AIConfig{},
}

// Migrate runs database migrations for the current dialect.
func Migrate(conn *gorm.DB) error {
	if conn == nil {
		return fmt.Errorf("db: nil connection")
	}
	switch DialectName(conn) {
	case DialectSQLite:
		return migrateSQLite(conn)
	case DialectPostgres, "":
		return migratePostgres(conn)
	default:
		return fmt.Errorf("db: unsupported dialect: %s", DialectName(conn))
	}
}

// ddl defines an index or DDL statement to apply.
type ddl struct {
	name string // Human-readable name for error reporting.
	sql  string // SQL to execute.
}

// commonIndexes lists index DDL shared by both dialects.
var commonIndexes = []ddl{
	{
		name: "idx_ai_configs_global_active",
		sql: `
			CREATE INDEX IF NOT EXISTS idx_ai_configs_global_active
			ON ai_configs (id)
			WHERE scope = 'GLOBAL' AND active = true
		`,
	},
	{
		name: "idx_ai_configs_service_active",
		sql: `
			CREATE INDEX IF NOT EXISTS idx_ai_configs_service_active
			ON ai_configs (service_name, id)
			WHERE scope = 'SERVICE' AND active = true
		`,
	},
	{
		name: "idx_tags_usage_count",
		sql: `
			CREATE INDEX IF NOT EXISTS idx_tags_usage_count
			ON tags (usage_count DESC, name ASC)
		`,
	},
	{
		name: "idx_recipe_tags_tag_id",
		sql: `
			CREATE INDEX IF NOT EXISTS idx_recipe_tags_tag_id
			ON recipe_tags (tag_id)
		`,
	},
	{
		name: "idx_recipes_author_id_created_at",
		sql: `
			CREATE INDEX IF NOT EXISTS idx_recipes_author_id_created_at
			ON recipes (author_id, created_at DESC)
		`,
	},
}

// migratePostgres applies PostgreSQL-specific schema updates and indexes.
func migratePostgres(conn *gorm.DB) error {
	if errAutoMigrate := conn.AutoMigrate(migratedModels...); errAutoMigrate != nil {
		return fmt.Errorf("db: migrate: %w", errAutoMigrate)
	}

	for _, item := range commonIndexes {
		if errDDL := conn.Exec(item.sql).Error; errDDL != nil {
			return fmt.Errorf("db: create index %s: %w", item.name, errDDL)
		}
	}

	_ = conn.Exec(`CREATE EXTENSION IF NOT EXISTS pg_trgm`).Error

	// trgmIndex defines trigram and fallback index statements.
	type trgmIndex struct {
		name     string // Logical index name.
		trgmSQL  string // Trigram index SQL.
		lowerSQL string // Lowercase fallback index SQL.
	}
	trgmIndexes := []trgmIndex{
		{
			name: "idx_recipes_title",
			trgmSQL: `
				CREATE INDEX IF NOT EXISTS idx_recipes_title_trgm
				ON recipes USING gin (LOWER(title) gin_trgm_ops)
			`,
			lowerSQL: `
				CREATE INDEX IF NOT EXISTS idx_recipes_title_lower
				ON recipes (LOWER(title))
			`,
		},
		{
			name: "idx_tags_name",
			trgmSQL: `
				CREATE INDEX IF NOT EXISTS idx_tags_name_trgm
				ON tags USING gin (name gin_trgm_ops)
			`,
			lowerSQL: `
				CREATE INDEX IF NOT EXISTS idx_tags_name_lower
				ON tags (LOWER(name))
			`,
		},
		{
			name: "idx_users_username",
			trgmSQL: `
				CREATE INDEX IF NOT EXISTS idx_users_username_trgm
				ON users USING gin (username gin_trgm_ops)
			`,
			lowerSQL: `
				CREATE INDEX IF NOT EXISTS idx_users_username_lower
				ON users (LOWER(username))
			`,
		},
	}
	for _, item := range trgmIndexes {
		if errIdx := conn.Exec(item.trgmSQL).Error; errIdx != nil {
			if errLower := conn.Exec(item.lowerSQL).Error; errLower != nil {
				return fmt.Errorf("db: create index %s: %w", item.name, errLower)
			}
		}
	}

	return nil
}

// migrateSQLite applies SQLite-specific schema updates and indexes.
func migrateSQLite(conn *gorm.DB) error {
	if errAutoMigrate := conn.AutoMigrate(migratedModels...); errAutoMigrate != nil {
		return fmt.Errorf("db: migrate: %w", errAutoMigrate)
	}

	for _, item := range commonIndexes {
		if errDDL := conn.Exec(item.sql).Error; errDDL != nil {
			return fmt.Errorf("db: create index %s: %w", item.name, errDDL)
		}
	}

	return nil
}
