package routes

import (
	"rapidaid/internal/handlers"
	"rapidaid/internal/middleware"

	"github.com/gin-gonic/gin"
)

// SetupCaseRoutes sets up routes for emergency case coordination
func SetupCaseRoutes(r *gin.RouterGroup, caseHandler *handlers.CaseHandler, jwtSecret string) {
	cases := r.Group("/cases")
	cases.Use(middleware.AuthRequired(jwtSecret))
	{
		// Visible to every signed-in role
		cases.GET("/:id", caseHandler.GetCase)
		cases.GET("/:id/routes", caseHandler.GetRoutes)
		cases.GET("/pending", caseHandler.GetPendingCases)

		// Crew operations
		ambulance := cases.Group("")
		ambulance.Use(middleware.AmbulanceRequired())
		{
			ambulance.POST("/", caseHandler.CreateCase)
			ambulance.PUT("/:id/self-dispatch", caseHandler.SelfDispatch)
			ambulance.PUT("/:id/arrived", caseHandler.MarkArrived)
			ambulance.PUT("/:id/complete", caseHandler.CompleteCase)
			ambulance.PUT("/:id/cancel", caseHandler.CancelCase)
		}

		// Hospital operations
		hospital := cases.Group("")
		hospital.Use(middleware.HospitalRequired())
		{
			hospital.PUT("/:id/accept", caseHandler.AcceptCase)
			hospital.PUT("/:id/dispatch", caseHandler.DispatchAmbulance)
			hospital.GET("/history", caseHandler.GetHospitalCases)
		}
	}
}
