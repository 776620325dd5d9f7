// Package api wires the HTTP surface: route registration and the JWT
// middleware guarding authenticated and admin-only endpoints.
package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/tastebase/tastebase/internal/ai"
	"github.com/tastebase/tastebase/internal/config"
	"github.com/tastebase/tastebase/internal/http/api/handlers"
	"github.com/tastebase/tastebase/internal/models"
	"github.com/tastebase/tastebase/internal/security"
	"github.com/tastebase/tastebase/internal/tags"
	"gorm.io/gorm"
)

// RegisterRoutes registers routes, middleware, and handlers.
func RegisterRoutes(r *gin.Engine, db *gorm.DB, jwtCfg config.JWTConfig, dispatcher *ai.Dispatcher) {
	if r == nil || db == nil {
		return
	}

	healthHandler := handlers.NewHealthHandler(db)
	r.GET("/healthz", healthHandler.Healthz)

	root := r.Group("/v0")

	authHandler := handlers.NewAuthHandler(db, jwtCfg)
	root.POST("/auth/register", authHandler.Register)
	root.POST("/auth/login", authHandler.Login)

	authed := root.Group("")
	authed.Use(authMiddleware(db, jwtCfg))

	engine := tags.NewEngine(db)
	recipeHandler := handlers.NewRecipeHandler(db, engine)
	authed.POST("/recipes", recipeHandler.Create)
	authed.GET("/recipes", recipeHandler.List)
	authed.GET("/recipes/:id", recipeHandler.Get)
	authed.PUT("/recipes/:id", recipeHandler.Update)
	authed.DELETE("/recipes/:id", recipeHandler.Delete)
	authed.GET("/recipes/:id/tags", recipeHandler.ListTags)
	authed.PUT("/recipes/:id/tags", recipeHandler.UpdateTags)

	tagHandler := handlers.NewTagHandler(db)
	authed.GET("/tags", tagHandler.List)
	authed.GET("/tags/:id", tagHandler.Get)

	aiHandler := handlers.NewAIHandler(db, dispatcher)
	authed.POST("/ai/suggest-tags", aiHandler.SuggestTags)
	authed.POST("/ai/nutrition", aiHandler.Nutrition)
	authed.POST("/ai/parse-search", aiHandler.ParseSearch)

	admin := authed.Group("")
	admin.Use(adminMiddleware())

	admin.POST("/tags", tagHandler.Create)
	admin.PUT("/tags/:id", tagHandler.Update)
	admin.DELETE("/tags/:id", tagHandler.Delete)

	userHandler := handlers.NewUserHandler(db)
	admin.GET("/users", userHandler.List)
	admin.GET("/users/:id", userHandler.Get)
	admin.PUT("/users/:id", userHandler.Update)
	admin.PUT("/users/:id/password", userHandler.ChangePassword)
	admin.DELETE("/users/:id", userHandler.Delete)

	aiConfigHandler := handlers.NewAIConfigHandler(db)
	admin.POST("/ai-configs", aiConfigHandler.Create)
	admin.GET("/ai-configs", aiConfigHandler.List)
	admin.GET("/ai-configs/:id", aiConfigHandler.Get)
	admin.PUT("/ai-configs/:id", aiConfigHandler.Update)
	admin.DELETE("/ai-configs/:id", aiConfigHandler.Delete)
	admin.POST("/ai-configs/:id/activate", aiConfigHandler.SetActive(true))
	admin.POST("/ai-configs/:id/deactivate", aiConfigHandler.SetActive(false))
}

// authMiddleware validates user JWTs and loads user context.
func authMiddleware(db *gorm.DB, jwtCfg config.JWTConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing authorization header"})
			return
		}

		token := strings.TrimPrefix(authHeader, "Bearer ")
		if token == authHeader {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid authorization format"})
			return
		}
		token = strings.TrimSpace(token)
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "empty token"})
			return
		}

		claims, errJWT := security.ParseUserToken(jwtCfg.Secret, token)
		if errJWT != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		var user models.User
		if errFind := db.WithContext(c.Request.Context()).First(&user, claims.UserID).Error; errFind != nil {
			if errors.Is(errFind, gorm.ErrRecordNotFound) {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
				return
			}
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
			return
		}
		if !user.Active {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "account disabled"})
			return
		}

		c.Set(handlers.ContextUserID, user.ID)
		c.Set(handlers.ContextIsAdmin, user.IsAdmin)
		c.Next()
	}
}

// adminMiddleware rejects requests from non-admin users.
func adminMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		value, exists := c.Get(handlers.ContextIsAdmin)
		admin, ok := value.(bool)
		if !exists || !ok || !admin {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "admin rights required"})
			return
		}
		c.Next()
	}
}
