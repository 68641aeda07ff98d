package routes

import (
	"github.com/gin-gonic/gin"

	controller "golang-physiobackend/controllers"
	"golang-physiobackend/services"
)

func ExerciseRoutes(incomingRoutes *gin.RouterGroup, svc *services.Services) {
	incomingRoutes.GET("/ejercicios", controller.GetExercises(svc.Exercises))
	incomingRoutes.GET("/ejercicios/:id/video", controller.GetExerciseVideo(svc.Exercises))
}
