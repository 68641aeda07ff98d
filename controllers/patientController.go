package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"golang-physiobackend/middleware"
	"golang-physiobackend/services"
)

type registerPatientRequest struct {
	Cedula string `json:"cedula" binding:"required,min=6,max=20"`
	Email  string `json:"email" binding:"required,email"`
	Name   string `json:"nombre" binding:"required,min=2,max=100"`
	Phone  string `json:"telefono" binding:"required,min=7,max=15"`
}

// patientAccess aborts with the matching status when the caller may not
// touch the patient's data.
func patientAccess(c *gin.Context, auth *services.AuthService, cedula string) bool {
	claims := middleware.ClaimsFrom(c)
	if err := auth.AuthorizePatient(c.Request.Context(), claims.Role, claims.UserID, cedula); err != nil {
		respondError(c, err)
		return false
	}
	return true
}

func RegisterPatient(accounts *services.AccountService) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := requestContext(c)
		defer cancel()

		var req registerPatientRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err)
			return
		}

		patient, tempPassword, err := accounts.RegisterPatient(ctx, middleware.ClaimsFrom(c).UserID, services.PatientInput{
			Cedula: req.Cedula,
			Name:   req.Name,
			Email:  req.Email,
			Phone:  req.Phone,
		})
		if err != nil {
			respondError(c, err)
			return
		}

		c.JSON(http.StatusCreated, gin.H{
			"mensaje": "Usuario " + patient.Name + " registrado correctamente",
			"usuario": gin.H{
				"id":     patient.Cedula,
				"nombre": patient.Name,
				"email":  patient.Email,
			},
			"credenciales": gin.H{
				"correo":     patient.Email,
				"contrasena": tempPassword,
			},
		})
	}
}

func ListPatients(accounts *services.AccountService) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := requestContext(c)
		defer cancel()

		patients, err := accounts.Patients(ctx, middleware.ClaimsFrom(c).UserID)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"total": len(patients), "pacientes": patients})
	}
}

func PatientInfo(auth *services.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := requestContext(c)
		defer cancel()

		cedula := c.Param("cedula")
		if !patientAccess(c, auth, cedula) {
			return
		}

		patient, err := auth.PatientInfo(ctx, cedula)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"cedula":   patient.Cedula,
			"nombre":   patient.Name,
			"correo":   patient.Email,
			"telefono": patient.Phone,
			"estado":   patient.State,
		})
	}
}

func PatientState(therapy *services.TherapyService, auth *services.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := requestContext(c)
		defer cancel()

		cedula := c.Param("cedula")
		if !patientAccess(c, auth, cedula) {
			return
		}

		state, err := therapy.PatientState(ctx, cedula)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"cedula": cedula, "estado": state})
	}
}
