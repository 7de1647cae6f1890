package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

const healthProbeTimeout = 2 * time.Second

func (s *Server) handlePing(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"message":   "pong",
		"timestamp": time.Now().Unix(),
	})
}

// handleHealth 回報儲存層、快取與提醒排程狀態；依賴異常時仍回 200，由欄位表達。
func (s *Server) handleHealth(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), healthProbeTimeout)
	defer cancel()

	store := "memory"
	if s.db != nil {
		store = "postgres"
		if err := s.db.PingContext(ctx); err != nil {
			store = "error: " + err.Error()
		}
	}

	cache := "disabled"
	if s.redis != nil {
		cache = "ok"
		if err := s.redis.Ping(ctx).Err(); err != nil {
			cache = "error: " + err.Error()
		}
	}

	_, lastErr, runs := s.worker.Status()
	alerts := gin.H{
		"enabled":  s.cfg.Alert.Enabled,
		"interval": s.cfg.Alert.Interval.String(),
		"runs":     runs,
	}
	if lastErr != nil {
		alerts["last_error"] = lastErr.Error()
	}

	c.JSON(http.StatusOK, gin.H{
		"success":        true,
		"health":         "ok",
		"store":          store,
		"quote_provider": s.cfg.Quote.Provider,
		"quote_cache":    cache,
		"alerts":         alerts,
		"time":           time.Now().Format(time.RFC3339),
	})
}
