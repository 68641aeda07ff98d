package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"golang-physiobackend/helpers"
	"golang-physiobackend/models"
	"golang-physiobackend/services"
)

const claimsKey = "claims"

// Authentication validates the bearer token and stores its claims on the
// context for the handlers behind it.
func Authentication(auth *services.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "falta el encabezado Authorization"})
			return
		}

		scheme, token, ok := strings.Cut(header, " ")
		if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "el encabezado Authorization debe tener el formato Bearer {token}"})
			return
		}

		claims, err := auth.Verify(strings.TrimSpace(token))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "token inválido o expirado"})
			return
		}

		c.Set(claimsKey, claims)
		c.Next()
	}
}

// ClaimsFrom returns the claims stored by Authentication, or nil on an
// unauthenticated route.
func ClaimsFrom(c *gin.Context) *helpers.SignedDetails {
	v, ok := c.Get(claimsKey)
	if !ok {
		return nil
	}
	claims, _ := v.(*helpers.SignedDetails)
	return claims
}

func RequireRole(role models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := ClaimsFrom(c)
		if claims == nil || claims.Role != role {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "acceso denegado para este tipo de usuario"})
			return
		}
		c.Next()
	}
}

// RequireActiveTherapist reads the therapist's current state from the store
// rather than the token, so a payment confirmed after login takes effect
// immediately.
func RequireActiveTherapist(auth *services.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := ClaimsFrom(c)
		if claims == nil || claims.Role != models.RoleTherapist {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "acceso denegado para este tipo de usuario"})
			return
		}

		therapist, err := auth.TherapistInfo(c.Request.Context(), claims.UserID)
		if err != nil {
			status := http.StatusInternalServerError
			if services.KindOf(err) == services.KindNotFound {
				status = http.StatusUnauthorized
			}
			c.AbortWithStatusJSON(status, gin.H{"error": "no se pudo verificar la cuenta"})
			return
		}
		if therapist.State != models.StateActive {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "la cuenta del fisioterapeuta no está activa; complete el pago"})
			return
		}
		c.Next()
	}
}
