package routes

import (
	"rapidaid/internal/handlers"
	"rapidaid/internal/middleware"

	"github.com/gin-gonic/gin"
)

// SetupAmbulanceRoutes sets up routes for fleet management and tracking
func SetupAmbulanceRoutes(r *gin.RouterGroup, ambulanceHandler *handlers.AmbulanceHandler, jwtSecret string) {
	ambulances := r.Group("/ambulances")
	ambulances.Use(middleware.AuthRequired(jwtSecret))
	{
		ambulances.GET("/", ambulanceHandler.ListAmbulances)
		ambulances.GET("/:id", ambulanceHandler.GetAmbulance)
		ambulances.GET("/available", ambulanceHandler.GetAvailable)
		ambulances.GET("/nearby", ambulanceHandler.GetNearby)

		// Crew self-service
		crew := ambulances.Group("")
		crew.Use(middleware.AmbulanceRequired())
		{
			crew.PUT("/status", ambulanceHandler.SetStatus)
			crew.PUT("/location", ambulanceHandler.UpdateLocation)
		}

		// Police map overlay
		fleet := ambulances.Group("")
		fleet.Use(middleware.PoliceRequired())
		{
			fleet.GET("/fleet", ambulanceHandler.FleetPositions)
		}
	}

	// Admin fleet registration
	admin := r.Group("/admin/ambulances")
	admin.Use(middleware.AuthRequired(jwtSecret), middleware.AdminRequired())
	{
		admin.POST("/", ambulanceHandler.RegisterAmbulance)
	}
}
