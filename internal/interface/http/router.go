package httpapi

import (
	"stock-alert/internal/application/auth"

	"github.com/gin-gonic/gin"
)

func (s *Server) registerRoutes() {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery(), s.ginLogger(), corsMiddleware())

	api := r.Group("/api")
	api.GET("/ping", s.handlePing)
	api.GET("/health", s.handleHealth)

	authGroup := api.Group("/auth")
	authGroup.POST("/login", s.handleLogin)
	authGroup.POST("/refresh", s.handleRefresh)
	authGroup.POST("/logout", s.handleLogout)

	alerts := api.Group("/alerts", s.requireAuth(auth.PermAlertWrite))
	alerts.GET("", s.handleListAlerts)
	alerts.POST("", s.handleCreateAlert)
	alerts.GET("/stats", s.handleAlertStats)
	alerts.DELETE("/:id", s.handleDeleteAlert)
	alerts.PUT("/:id/active", s.handleSetAlertActive)

	watch := api.Group("/watchlist", s.requireAuth(auth.PermWatchlistWrite))
	watch.GET("", s.handleListWatchlist)
	watch.POST("", s.handleAddWatchlist)
	watch.DELETE("/:ticker", s.handleRemoveWatchlist)

	admin := api.Group("/admin")
	admin.POST("/alerts/check", s.requireAuth(auth.PermAlertRun), s.handleCheckAlerts)
	admin.GET("/alerts/status", s.requireAuth(auth.PermSystemHealth), s.handleAlertStatus)

	r.GET("/metrics", gin.WrapH(s.metrics.Handler()))

	s.router = r
}
