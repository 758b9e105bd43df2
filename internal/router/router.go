package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/user/bookify/internal/handler"
	"github.com/user/bookify/internal/middleware"
)

// RegisterRoutes 注册所有路由
func RegisterRoutes(r *gin.Engine, h *handler.Handler) {
	// 健康检查
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// ==================== 认证 ====================
	auth := r.Group("/auth")
	{
		auth.POST("/signup", h.Signup)
		auth.POST("/login", h.Login)
		auth.POST("/google-login", h.GoogleLogin)
		auth.POST("/google-signup", h.GoogleLogin) // 与登录同一逻辑，首见即建号
		auth.GET("/google", h.GoogleAuthRedirect)
		auth.GET("/google/callback", h.GoogleAuthCallback)
		auth.POST("/logout", h.Logout)
	}

	// ==================== 公开目录 / 书讯 API ====================
	api := r.Group("/api")
	api.Use(middleware.OptionalAuth(h.Config.AppSecret))
	{
		api.GET("/books/search", h.SearchBooks)
		api.GET("/books/bestsellers", h.BestsellerBooks)
		api.GET("/books/trending", h.TrendingSearches)
		api.GET("/news", h.BookNews)
		api.GET("/featured", h.ListFeatured)
		api.GET("/proxy/image", h.ProxyImage)
	}

	// ==================== 需要登录 ====================
	user := r.Group("/api")
	user.Use(middleware.RequireAuth(h.Config.AppSecret))
	{
		user.GET("/user/me", h.Me)
		user.GET("/favorites", h.ListFavorites)
		user.POST("/favorites", h.AddFavorite)
		user.DELETE("/favorites/:bookId", h.RemoveFavorite)
		user.POST("/favorites/sync", h.SyncFavorites)
	}

	// ==================== 管理后台 ====================
	admin := r.Group("/api/featured")
	admin.Use(middleware.RequireAuth(h.Config.AppSecret))
	admin.Use(middleware.RequireAdmin())
	{
		admin.POST("", h.CreateFeatured)
		admin.PUT("/:id", h.UpdateFeatured)
		admin.DELETE("/:id", h.DeleteFeatured)
	}
}
