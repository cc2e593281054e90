package handlers

import (
	"net/http"
	"strconv"
	"time"

	"dexscanner-monitor/agent/database"
	"dexscanner-monitor/shared/config"
	"dexscanner-monitor/shared/logger"

	"github.com/gin-gonic/gin"
)

var startTime = time.Now()

// RegisterRoutes wires the read-only status API. It exposes what the monitor
// is tracking; all writes stay inside the two loops.
func RegisterRoutes(router *gin.Engine, store database.TokenStore, cfg *config.Config, appLogger *logger.Logger) {
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "ok",
			"uptime": time.Since(startTime).String(),
		})
	})

	api := router.Group("/api")

	api.GET("/tokens", func(c *gin.Context) {
		tokens, err := store.TrackedTokens(cfg.Monitor.Retention())
		if err != nil {
			appLogger.Error("Failed to list tracked tokens", "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list tracked tokens"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"tokens": tokens, "count": len(tokens)})
	})

	api.GET("/tokens/:id/performance", func(c *gin.Context) {
		hours := 24
		if raw := c.Query("hours"); raw != "" {
			parsed, err := strconv.Atoi(raw)
			if err != nil || parsed <= 0 {
				c.JSON(http.StatusBadRequest, gin.H{"error": "hours must be a positive integer"})
				return
			}
			hours = parsed
		}

		history, err := store.PerformanceHistory(c.Param("id"), time.Duration(hours)*time.Hour)
		if err != nil {
			appLogger.Error("Failed to load performance history", "pairID", c.Param("id"), "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load performance history"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"samples": history, "count": len(history)})
	})
}
