package controllers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"golang-physiobackend/middleware"
	"golang-physiobackend/services"
)

type registerTherapistRequest struct {
	Cedula   string `json:"cedula" binding:"required,min=6,max=20"`
	Email    string `json:"email" binding:"required,email"`
	Name     string `json:"nombre" binding:"required,min=2,max=100"`
	Password string `json:"contrasena" binding:"required,min=4,max=128"`
	Phone    string `json:"telefono" binding:"required,min=7,max=15"`
}

// loginRequest accepts the identifier under any of the names clients use.
type loginRequest struct {
	Identifier string `json:"identificador"`
	Email      string `json:"email"`
	Cedula     string `json:"cedula"`
	Password   string `json:"contrasena" binding:"required"`
}

func (r loginRequest) identifier() string {
	for _, v := range []string{r.Identifier, r.Email, r.Cedula} {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

type recoverPasswordRequest struct {
	Email string `json:"email" binding:"required,email"`
}

type changePasswordRequest struct {
	Current string `json:"contrasena_actual" binding:"required"`
	New     string `json:"nueva_contrasena" binding:"required,min=4,max=128"`
}

func RegisterTherapist(accounts *services.AccountService) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := requestContext(c)
		defer cancel()

		var req registerTherapistRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err)
			return
		}

		therapist, err := accounts.RegisterTherapist(ctx, services.TherapistInput{
			Cedula:   req.Cedula,
			Name:     req.Name,
			Email:    req.Email,
			Password: req.Password,
			Phone:    req.Phone,
		})
		if err != nil {
			respondError(c, err)
			return
		}

		c.JSON(http.StatusCreated, gin.H{
			"mensaje":  "Fisioterapeuta " + therapist.Name + " registrado correctamente",
			"id":       therapist.Cedula,
			"email":    therapist.Email,
			"nombre":   therapist.Name,
			"telefono": therapist.Phone,
			"estado":   therapist.State,
		})
	}
}

func Login(auth *services.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := requestContext(c)
		defer cancel()

		var req loginRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err)
			return
		}

		identity, err := auth.Authenticate(ctx, req.identifier(), req.Password)
		if err != nil {
			respondError(c, err)
			return
		}

		token, expiresAt, err := auth.IssueToken(identity)
		if err != nil {
			respondError(c, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"access_token": token,
			"token_type":   "bearer",
			"expires_at":   expiresAt.UTC(),
			"tipo_usuario": identity.Role,
			"usuario":      identity,
		})
	}
}

func RecoverPassword(accounts *services.AccountService) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := requestContext(c)
		defer cancel()

		var req recoverPasswordRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err)
			return
		}

		if err := accounts.ResetPassword(ctx, req.Email); err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"mensaje": "Se envió una contraseña temporal a tu correo"})
	}
}

func ChangePassword(accounts *services.AccountService) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := requestContext(c)
		defer cancel()

		var req changePasswordRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err)
			return
		}

		claims := middleware.ClaimsFrom(c)
		if err := accounts.ChangePassword(ctx, claims.Role, claims.UserID, req.Current, req.New); err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"mensaje": "Contraseña actualizada correctamente"})
	}
}

func VerifyToken() gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := middleware.ClaimsFrom(c)
		c.JSON(http.StatusOK, gin.H{
			"valido":       true,
			"id":           claims.UserID,
			"email":        claims.Email,
			"nombre":       claims.Name,
			"tipo_usuario": claims.Role,
			"estado":       claims.State,
			"expira":       claims.ExpiresAt,
		})
	}
}

func TherapistInfo(auth *services.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := requestContext(c)
		defer cancel()

		therapist, err := auth.TherapistInfo(ctx, middleware.ClaimsFrom(c).UserID)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, therapist)
	}
}
