package controllers

import (
	"net/http"

	"github.com/ParthDhoot27/stichUP/config"
	"github.com/gin-gonic/gin"
)

// HealthCheck handles GET /api/v1/health - reports whether the API and its database are reachable
func HealthCheck(c *gin.Context) {
	database := "connected"
	status := http.StatusOK

	db := config.GetDB()
	if db == nil {
		database = "unavailable"
		status = http.StatusServiceUnavailable
	} else if sqlDB, err := db.DB(); err != nil || sqlDB.PingContext(c.Request.Context()) != nil {
		database = "unavailable"
		status = http.StatusServiceUnavailable
	}

	c.JSON(status, gin.H{
		"success":  status == http.StatusOK,
		"message":  "StichUP API is running",
		"database": database,
	})
}
