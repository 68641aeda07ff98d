package helpers

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stripe/stripe-go/v76"
)

func TestFromStripe(t *testing.T) {
	pi := fromStripe(&stripe.PaymentIntent{
		ID:           "pi_123",
		ClientSecret: "pi_123_secret",
		Amount:       5000,
		Currency:     stripe.CurrencyUSD,
		Status:       stripe.PaymentIntentStatusSucceeded,
		Metadata:     map[string]string{"cedula": "123456"},
	})

	assert.Equal(t, &PaymentIntent{
		ID:           "pi_123",
		ClientSecret: "pi_123_secret",
		Amount:       5000,
		Currency:     "usd",
		Status:       "succeeded",
		Metadata:     map[string]string{"cedula": "123456"},
	}, pi)
}

func TestStripeMessage(t *testing.T) {
	err := stripeMessage(&stripe.Error{Msg: "Your card was declined.", Code: stripe.ErrorCodeCardDeclined})
	assert.EqualError(t, err, "stripe: Your card was declined. (card_declined)")

	network := errors.New("dial tcp: timeout")
	err = stripeMessage(network)
	assert.ErrorIs(t, err, network)
}
