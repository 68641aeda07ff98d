package routes

import (
	"github.com/gin-gonic/gin"

	controller "golang-physiobackend/controllers"
	"golang-physiobackend/services"
)

func PaymentRoutes(incomingRoutes *gin.RouterGroup, svc *services.Services) {
	incomingRoutes.GET("/config", controller.PaymentConfig(svc.Payments))
	incomingRoutes.POST("/create-payment-intent", controller.CreatePaymentIntent(svc.Payments))
	incomingRoutes.GET("/verify-payment/:id", controller.VerifyPayment(svc.Payments))
	incomingRoutes.POST("/confirm-payment", controller.ConfirmPayment(svc.Payments))
	incomingRoutes.POST("/activate-fisioterapeuta", controller.ConfirmPayment(svc.Payments))
}
