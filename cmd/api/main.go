package main

import (
	"fmt"
	"log"
	"os"

	"hydro-dispatch/internal/api/handlers"
	"hydro-dispatch/internal/api/middleware"

	"github.com/gin-gonic/gin"
)

func main() {
	port := os.Getenv("API_PORT")
	if port == "" {
		port = "8080"
	}

	if os.Getenv("API_ENV") == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.Default()

	router.Use(middleware.CORS())
	router.Use(middleware.Logger())
	router.Use(middleware.ErrorHandler())

	scenarioHandler := handlers.NewScenarioHandler()

	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	api := router.Group("/api/v1")
	{
		api.POST("/scenario", scenarioHandler.RunScenario)
		api.POST("/scenario/compare", scenarioHandler.CompareScenarios)
	}

	addr := fmt.Sprintf(":%s", port)
	log.Printf("Starting dispatch API on %s", addr)
	if err := router.Run(addr); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
