package handler

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/bookwell/host-qualifier-api/pkg/auth"
	"github.com/bookwell/host-qualifier-api/pkg/config"
	"github.com/bookwell/host-qualifier-api/pkg/database"
	"github.com/bookwell/host-qualifier-api/pkg/handlers"
)

var r *gin.Engine

func init() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("could not load configuration: %v", err)
	}

	db := database.InitDB(cfg)
	a := auth.New(cfg)
	_ = a.EnsureAdminExists(db)
	h := &handlers.Handler{DB: db, Auth: a}

	gin.SetMode(gin.ReleaseMode)
	r = gin.New()
	r.Use(gin.Logger(), gin.Recovery())

	r.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "Host Qualifier API (Serverless)",
			"version": "1.0.0",
		})
	})

	r.POST("/admin/login", h.Login)

	admin := r.Group("/admin")
	admin.Use(h.AuthMiddleware())
	{
		admin.POST("/keys", h.GenerateKey)
		admin.GET("/keys", h.ListKeys)
		admin.PUT("/keys/:id", h.UpdateKeyLimit)
		admin.DELETE("/keys/:id", h.RevokeKey)
		admin.GET("/usage/:id", h.GetUsage)
	}

	api := r.Group("/api")
	api.Use(h.APIKeyMiddleware())
	{
		api.POST("/qualify", h.QualifyJSON)
		api.POST("/validate", h.ValidateInput)
		api.POST("/bookings", h.CreateBooking)
		api.GET("/usage", h.GetMyUsage)
	}
}

// Handler is the entry point for Vercel Go Runtime
func Handler(w http.ResponseWriter, req *http.Request) {
	r.ServeHTTP(w, req)
}
