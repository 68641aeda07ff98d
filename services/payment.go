package services

import (
	"context"
	"strings"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"golang-physiobackend/database"
	"golang-physiobackend/helpers"
	"golang-physiobackend/models"
)

const intentSucceeded = "succeeded"

type IntentInput struct {
	Amount      int64
	Currency    string
	Email       string
	Description string
	Cedula      string
}

type IntentResult struct {
	*helpers.PaymentIntent
	PublishableKey string `json:"publishable_key"`
}

type PaymentService struct {
	store          database.Store
	gateway        PaymentGateway
	publishableKey string
	log            *zap.Logger
}

func (s *PaymentService) PublishableKey() string {
	return s.publishableKey
}

func (s *PaymentService) configured() error {
	if s.gateway == nil {
		return newError(KindDownstream, "los pagos no están configurados", nil)
	}
	return nil
}

// CreateIntent amounts are in the currency's smallest unit.
func (s *PaymentService) CreateIntent(ctx context.Context, in IntentInput) (*IntentResult, error) {
	if err := s.configured(); err != nil {
		return nil, err
	}
	if in.Amount <= 0 {
		return nil, validationError("el monto debe ser mayor que cero")
	}
	cedula := strings.TrimSpace(in.Cedula)
	if cedula == "" {
		return nil, validationError("la cédula del fisioterapeuta es obligatoria")
	}
	currency := strings.ToLower(strings.TrimSpace(in.Currency))
	if currency == "" {
		currency = "usd"
	}

	intent, err := s.gateway.CreatePaymentIntent(ctx, helpers.PaymentIntentRequest{
		Amount:      in.Amount,
		Currency:    currency,
		Email:       normalizeEmail(in.Email),
		Description: in.Description,
		Cedula:      cedula,
	})
	if err != nil {
		s.log.Error("create payment intent failed", zap.Error(err))
		return nil, downstream(err, "error al crear el pago")
	}
	return &IntentResult{PaymentIntent: intent, PublishableKey: s.publishableKey}, nil
}

func (s *PaymentService) VerifyIntent(ctx context.Context, intentID string) (*helpers.PaymentIntent, error) {
	if err := s.configured(); err != nil {
		return nil, err
	}
	if strings.TrimSpace(intentID) == "" {
		return nil, validationError("el identificador del pago es obligatorio")
	}

	intent, err := s.gateway.GetPaymentIntent(ctx, intentID)
	if err != nil {
		s.log.Error("verify payment intent failed", zap.String("intent", intentID), zap.Error(err))
		return nil, downstream(err, "error al verificar el pago")
	}
	intent.ClientSecret = ""
	return intent, nil
}

// ConfirmAndActivate activates the therapist once the intent has succeeded.
// The intent must have been created for that cédula and can activate only
// one account; confirming it again for the same therapist is a no-op.
func (s *PaymentService) ConfirmAndActivate(ctx context.Context, intentID, cedula string) (*models.Therapist, error) {
	intent, err := s.VerifyIntent(ctx, intentID)
	if err != nil {
		return nil, err
	}
	if intent.Status != intentSucceeded {
		return nil, validationError("el pago no ha sido completado (estado: " + intent.Status + ")")
	}
	if owner := intent.Metadata["cedula"]; owner == "" || owner != cedula {
		return nil, newError(KindForbidden, "el pago no corresponde a este fisioterapeuta", nil)
	}

	var therapist *models.Therapist
	err = s.store.WithTransaction(ctx, func(ctx context.Context) error {
		t, err := s.store.GetTherapist(ctx, cedula)
		if err != nil {
			return storeError(err, "fisioterapeuta no encontrado", "get therapist")
		}
		if t.PaymentIntentID != nil && *t.PaymentIntentID == intentID {
			therapist = t
			return nil
		}
		err = s.store.ActivateTherapist(ctx, cedula, intentID)
		if errors.Is(err, database.ErrDuplicate) {
			return newError(KindConflict, "el pago ya fue utilizado para activar otra cuenta", err)
		}
		if err != nil {
			return storeError(err, "fisioterapeuta no encontrado", "activate therapist")
		}
		t.State = models.StateActive
		t.PaymentIntentID = &intentID
		therapist = t
		return nil
	})
	if err != nil {
		s.log.Error("payment succeeded but therapist activation failed",
			zap.String("intent", intentID),
			zap.String("cedula", cedula),
			zap.Error(err))
		return nil, passthrough(err, "activate therapist")
	}

	s.log.Info("therapist activated", zap.String("cedula", cedula), zap.String("intent", intentID))
	return therapist, nil
}
