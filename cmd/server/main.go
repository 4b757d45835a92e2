package main

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/bookwell/host-qualifier-api/pkg/auth"
	"github.com/bookwell/host-qualifier-api/pkg/config"
	"github.com/bookwell/host-qualifier-api/pkg/database"
	"github.com/bookwell/host-qualifier-api/pkg/handlers"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("could not load configuration: %v", err)
	}

	if cfg.GinMode == "" {
		gin.SetMode(gin.ReleaseMode)
	}

	db := database.InitDB(cfg)
	a := auth.New(cfg)
	_ = a.EnsureAdminExists(db)
	h := &handlers.Handler{DB: db, Auth: a}

	r := gin.Default()

	// Routes
	r.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "Host Qualifier API",
			"version": "1.0.0",
		})
	})

	r.POST("/admin/login", h.Login)

	// Admin Endpoints
	admin := r.Group("/admin")
	admin.Use(h.AuthMiddleware())
	{
		admin.POST("/keys", h.GenerateKey)
		admin.GET("/keys", h.ListKeys)
		admin.PUT("/keys/:id", h.UpdateKeyLimit)
		admin.DELETE("/keys/:id", h.RevokeKey)
		admin.GET("/usage/:id", h.GetUsage)
	}

	// Qualification Endpoints
	api := r.Group("/api")
	api.Use(h.APIKeyMiddleware())
	{
		api.POST("/qualify", h.QualifyJSON)
		api.POST("/validate", h.ValidateInput)
		api.POST("/bookings", h.CreateBooking)
		api.GET("/usage", h.GetMyUsage)
	}

	log.Printf("Server starting on port %s", cfg.Port)
	if err := r.Run(":" + cfg.Port); err != nil {
		log.Fatalf("could not run server: %v", err)
	}
}
