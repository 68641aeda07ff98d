package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"golang-physiobackend/services"
)

type exerciseResponse struct {
	ID          int64  `json:"id_ejercicio"`
	Name        string `json:"nombre"`
	Description string `json:"descripcion"`
	Repetitions int    `json:"repeticiones"`
	VideoURL    string `json:"url_video"`
	Extremity   string `json:"extremidad"`
}

func GetExercises(exercises *services.ExerciseService) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := requestContext(c)
		defer cancel()

		catalog, err := exercises.List(ctx)
		if err != nil {
			respondError(c, err)
			return
		}

		extremity := c.Query("extremidad")
		out := make([]exerciseResponse, 0, len(catalog))
		for _, e := range catalog {
			if extremity != "" && e.ExtremityOrDefault() != extremity {
				continue
			}
			out = append(out, exerciseResponse{
				ID:          e.ID,
				Name:        e.Name,
				Description: e.Description,
				Repetitions: e.Repetitions,
				VideoURL:    e.VideoURL,
				Extremity:   e.ExtremityOrDefault(),
			})
		}
		c.JSON(http.StatusOK, out)
	}
}

func GetExerciseVideo(exercises *services.ExerciseService) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := requestContext(c)
		defer cancel()

		id, err := strconv.ParseInt(c.Param("id"), 10, 64)
		if err != nil || id <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "id de ejercicio inválido"})
			return
		}

		url, err := exercises.VideoURL(ctx, id)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"id_ejercicio": id, "url": url})
	}
}
