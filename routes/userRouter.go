package routes

import (
	"github.com/gin-gonic/gin"

	controller "golang-physiobackend/controllers"
	"golang-physiobackend/middleware"
	"golang-physiobackend/models"
	"golang-physiobackend/services"
)

func AuthRoutes(incomingRoutes *gin.RouterGroup, svc *services.Services) {
	incomingRoutes.POST("/register", controller.RegisterTherapist(svc.Accounts))
	incomingRoutes.POST("/login", controller.Login(svc.Auth))
	incomingRoutes.POST("/recuperar-contrasena", controller.RecoverPassword(svc.Accounts))

	private := incomingRoutes.Group("")
	private.Use(middleware.Authentication(svc.Auth))
	{
		private.POST("/cambiar-contrasena", controller.ChangePassword(svc.Accounts))
		private.GET("/verify", controller.VerifyToken())
		private.GET("/info-fisioterapeuta", middleware.RequireRole(models.RoleTherapist), controller.TherapistInfo(svc.Auth))
	}
}
