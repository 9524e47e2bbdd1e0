package handlers

import (
	"net/http"
	"os"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/kydy-backend/internal/observability"
)

// GET /healthcheck
func HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":                "healthy",
		"gemini_configured":     os.Getenv("GEMINI_API_KEY") != "",
		"starvector_configured": os.Getenv("HF_API_TOKEN") != "",
	})
}

// GET /metricsz
func Metrics(c *gin.Context) {
	m := observability.Current()
	if m == nil {
		c.JSON(http.StatusOK, gin.H{"enabled": false})
		return
	}
	c.JSON(http.StatusOK, gin.H{"enabled": true, "counters": m.Snapshot()})
}
