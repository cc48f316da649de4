package routes

import (
	"rapidaid/internal/handlers"
	"rapidaid/internal/middleware"

	"github.com/gin-gonic/gin"
)

// SetupHospitalRoutes sets up routes for hospital matching and bed management
func SetupHospitalRoutes(r *gin.RouterGroup, hospitalHandler *handlers.HospitalHandler, jwtSecret string) {
	hospitals := r.Group("/hospitals")
	hospitals.Use(middleware.AuthRequired(jwtSecret))
	{
		hospitals.GET("/", hospitalHandler.ListHospitals)
		hospitals.GET("/:id", hospitalHandler.GetHospital)
		hospitals.GET("/ranked", hospitalHandler.RankHospitals)

		// Hospital self-service
		self := hospitals.Group("")
		self.Use(middleware.HospitalRequired())
		{
			self.PUT("/beds", hospitalHandler.UpdateBeds)
			self.POST("/push-tokens", hospitalHandler.AddPushToken)
			self.DELETE("/push-tokens", hospitalHandler.RemovePushToken)
		}
	}
}
