package controllers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"golang-physiobackend/middleware"
	"golang-physiobackend/models"
	"golang-physiobackend/services"
)

type assignExercisesRequest struct {
	PatientCedula string  `json:"cedula_paciente" binding:"required"`
	ExerciseIDs   []int64 `json:"ejercicios"`
}

type rateExerciseRequest struct {
	AssignmentID int64   `json:"id_terapia" binding:"required,gt=0"`
	Pain         int     `json:"dolor" binding:"required,min=1,max=5"`
	Sensation    int     `json:"sensacion" binding:"required,min=1,max=5"`
	Fatigue      int     `json:"cansancio" binding:"required,min=1,max=5"`
	Observations *string `json:"observaciones" binding:"omitempty,max=500"`
}

func assignmentAccess(c *gin.Context, auth *services.AuthService, id int64) bool {
	claims := middleware.ClaimsFrom(c)
	if err := auth.AuthorizeAssignment(c.Request.Context(), claims.Role, claims.UserID, id); err != nil {
		respondError(c, err)
		return false
	}
	return true
}

func AssignExercises(therapy *services.TherapyService, auth *services.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := requestContext(c)
		defer cancel()

		var req assignExercisesRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err)
			return
		}
		if !patientAccess(c, auth, req.PatientCedula) {
			return
		}

		group, err := therapy.AssignBatch(ctx, req.PatientCedula, req.ExerciseIDs)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, gin.H{
			"mensaje":         "Ejercicios asignados correctamente",
			"grupo_terapia":   group,
			"cedula_paciente": req.PatientCedula,
		})
	}
}

func MarkExerciseCompleted(therapy *services.TherapyService, auth *services.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := requestContext(c)
		defer cancel()

		id, err := strconv.ParseInt(c.Param("id"), 10, 64)
		if err != nil || id <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "id de terapia inválido"})
			return
		}
		if !assignmentAccess(c, auth, id) {
			return
		}

		result, err := therapy.MarkComplete(ctx, id)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"message":       "Terapia marcada como completada",
			"id_terapia":    result.AssignmentID,
			"cambio_estado": result,
		})
	}
}

func RateExercise(therapy *services.TherapyService, auth *services.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := requestContext(c)
		defer cancel()

		var req rateExerciseRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err)
			return
		}
		if !assignmentAccess(c, auth, req.AssignmentID) {
			return
		}

		err := therapy.RateAssignment(ctx, req.AssignmentID, models.Rating{
			Pain:         req.Pain,
			Sensation:    req.Sensation,
			Fatigue:      req.Fatigue,
			Observations: req.Observations,
		})
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"message":    "Calificaciones guardadas exitosamente",
			"id_terapia": req.AssignmentID,
			"estado":     "Guardado",
		})
	}
}

func GetAssignedExercises(therapy *services.TherapyService, auth *services.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := requestContext(c)
		defer cancel()

		cedula := c.Param("cedula")
		if !patientAccess(c, auth, cedula) {
			return
		}

		var statuses []string
		for _, raw := range c.QueryArray("estado") {
			for _, st := range strings.Split(raw, ",") {
				if st = strings.TrimSpace(st); st != "" {
					statuses = append(statuses, st)
				}
			}
		}

		exercises, err := therapy.AssignedExercises(ctx, cedula, statuses)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, exercises)
	}
}

func GetCompletedExercises(therapy *services.TherapyService, auth *services.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := requestContext(c)
		defer cancel()

		cedula := c.Param("cedula")
		if !patientAccess(c, auth, cedula) {
			return
		}

		history, err := therapy.CompletedHistory(ctx, cedula)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, history)
	}
}

func GetGroupSummaries(therapy *services.TherapyService, auth *services.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := requestContext(c)
		defer cancel()

		cedula := c.Param("cedula")
		if !patientAccess(c, auth, cedula) {
			return
		}

		summaries, err := therapy.GroupSummaries(ctx, cedula)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, summaries)
	}
}
