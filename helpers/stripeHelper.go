package helpers

import (
	"context"
	"errors"
	"fmt"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
)

const defaultPaymentDescription = "Pago " + appName

type PaymentIntentRequest struct {
	Amount      int64
	Currency    string
	Email       string
	Description string
	Cedula      string
}

type PaymentIntent struct {
	ID           string            `json:"id"`
	ClientSecret string            `json:"client_secret,omitempty"`
	Amount       int64             `json:"amount"`
	Currency     string            `json:"currency"`
	Status       string            `json:"status"`
	Metadata     map[string]string `json:"-"`
}

// StripeGateway wraps a per-instance Stripe client so the secret key never
// lives in the package-global stripe.Key.
type StripeGateway struct {
	sc *client.API
}

func NewStripeGateway(secretKey string) *StripeGateway {
	sc := &client.API{}
	sc.Init(secretKey, nil)
	return &StripeGateway{sc: sc}
}

func fromStripe(pi *stripe.PaymentIntent) *PaymentIntent {
	return &PaymentIntent{
		ID:           pi.ID,
		ClientSecret: pi.ClientSecret,
		Amount:       pi.Amount,
		Currency:     string(pi.Currency),
		Status:       string(pi.Status),
		Metadata:     pi.Metadata,
	}
}

func stripeMessage(err error) error {
	var se *stripe.Error
	if errors.As(err, &se) && se.Msg != "" {
		return fmt.Errorf("stripe: %s (%s)", se.Msg, se.Code)
	}
	return fmt.Errorf("stripe: %w", err)
}

func (g *StripeGateway) CreatePaymentIntent(ctx context.Context, req PaymentIntentRequest) (*PaymentIntent, error) {
	description := req.Description
	if description == "" {
		description = defaultPaymentDescription
	}

	params := &stripe.PaymentIntentParams{
		Amount:       stripe.Int64(req.Amount),
		Currency:     stripe.String(req.Currency),
		Description:  stripe.String(description),
		ReceiptEmail: stripe.String(req.Email),
	}
	params.Context = ctx
	params.AddMetadata("customer_email", req.Email)
	params.AddMetadata("description", description)
	if req.Cedula != "" {
		params.AddMetadata("cedula", req.Cedula)
	}

	pi, err := g.sc.PaymentIntents.New(params)
	if err != nil {
		return nil, stripeMessage(err)
	}
	return fromStripe(pi), nil
}

func (g *StripeGateway) GetPaymentIntent(ctx context.Context, id string) (*PaymentIntent, error) {
	params := &stripe.PaymentIntentParams{}
	params.Context = ctx

	pi, err := g.sc.PaymentIntents.Get(id, params)
	if err != nil {
		return nil, stripeMessage(err)
	}
	return fromStripe(pi), nil
}
