package routes

import (
	"github.com/gin-gonic/gin"

	controller "golang-physiobackend/controllers"
	"golang-physiobackend/middleware"
	"golang-physiobackend/models"
	"golang-physiobackend/services"
)

// PatientRoutes expects a group that already runs Authentication.
func PatientRoutes(incomingRoutes *gin.RouterGroup, svc *services.Services) {
	therapistOnly := middleware.RequireRole(models.RoleTherapist)
	activeTherapist := middleware.RequireActiveTherapist(svc.Auth)

	incomingRoutes.POST("/register", activeTherapist, controller.RegisterPatient(svc.Accounts))
	incomingRoutes.GET("/lista", therapistOnly, controller.ListPatients(svc.Accounts))
	incomingRoutes.GET("/info/:cedula", controller.PatientInfo(svc.Auth))
	incomingRoutes.GET("/estado/:cedula", controller.PatientState(svc.Therapy, svc.Auth))

	incomingRoutes.POST("/asignar-ejercicio", activeTherapist, controller.AssignExercises(svc.Therapy, svc.Auth))
	incomingRoutes.PUT("/marcar-realizado/:id", controller.MarkExerciseCompleted(svc.Therapy, svc.Auth))
	incomingRoutes.POST("/calificar-ejercicio", controller.RateExercise(svc.Therapy, svc.Auth))
	incomingRoutes.GET("/ejercicios-asignados/:cedula", controller.GetAssignedExercises(svc.Therapy, svc.Auth))
	incomingRoutes.GET("/ejercicios-completados/:cedula", controller.GetCompletedExercises(svc.Therapy, svc.Auth))
	incomingRoutes.GET("/resumen-grupos/:cedula", controller.GetGroupSummaries(svc.Therapy, svc.Auth))
}
