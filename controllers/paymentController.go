package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"golang-physiobackend/services"
)

type createIntentRequest struct {
	Amount      int64  `json:"amount" binding:"required,gt=0"`
	Currency    string `json:"currency"`
	Description string `json:"description"`
	Email       string `json:"customer_email" binding:"required,email"`
	Cedula      string `json:"cedula" binding:"required"`
}

type confirmPaymentRequest struct {
	PaymentIntentID string `json:"payment_intent_id" binding:"required"`
	Cedula          string `json:"cedula" binding:"required"`
}

func PaymentConfig(payments *services.PaymentService) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"publishable_key": payments.PublishableKey()})
	}
}

func CreatePaymentIntent(payments *services.PaymentService) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := requestContext(c)
		defer cancel()

		var req createIntentRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err)
			return
		}

		result, err := payments.CreateIntent(ctx, services.IntentInput{
			Amount:      req.Amount,
			Currency:    req.Currency,
			Email:       req.Email,
			Description: req.Description,
			Cedula:      req.Cedula,
		})
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, result)
	}
}

func VerifyPayment(payments *services.PaymentService) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := requestContext(c)
		defer cancel()

		intent, err := payments.VerifyIntent(ctx, c.Param("id"))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"success":  intent.Status == "succeeded",
			"status":   intent.Status,
			"amount":   intent.Amount,
			"currency": intent.Currency,
		})
	}
}

func ConfirmPayment(payments *services.PaymentService) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := requestContext(c)
		defer cancel()

		var req confirmPaymentRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err)
			return
		}

		therapist, err := payments.ConfirmAndActivate(ctx, req.PaymentIntentID, req.Cedula)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"mensaje": "Pago confirmado, cuenta activada",
			"cedula":  therapist.Cedula,
			"estado":  therapist.State,
		})
	}
}
