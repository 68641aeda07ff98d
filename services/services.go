package services

import (
	"context"
	"time"

	"go.uber.org/zap"

	"golang-physiobackend/database"
	"golang-physiobackend/helpers"
	"golang-physiobackend/models"
)

type Mailer interface {
	SendRecovery(ctx context.Context, to, name, tempPassword string) error
	SendWelcome(ctx context.Context, to, name, tempPassword string) error
	SendPasswordChanged(ctx context.Context, to, name string) error
}

type PaymentGateway interface {
	CreatePaymentIntent(ctx context.Context, req helpers.PaymentIntentRequest) (*helpers.PaymentIntent, error)
	GetPaymentIntent(ctx context.Context, id string) (*helpers.PaymentIntent, error)
}

// ExerciseCache failures never surface; a broken cache behaves as empty.
type ExerciseCache interface {
	Get(ctx context.Context) ([]models.Exercise, bool)
	Set(ctx context.Context, exercises []models.Exercise)
	Invalidate(ctx context.Context)
}

type VideoSigner interface {
	PresignVideo(ctx context.Context, key string) (string, error)
}

type Deps struct {
	Store          database.Store
	Hasher         *helpers.PasswordHasher
	Tokens         *helpers.TokenMaker
	Mailer         Mailer
	Payments       PaymentGateway
	PublishableKey string
	Cache          ExerciseCache
	Videos         VideoSigner
	Log            *zap.Logger
	Now            func() time.Time
}

type Pinger interface {
	Ping(ctx context.Context) error
}

type Services struct {
	Health    Pinger
	Auth      *AuthService
	Accounts  *AccountService
	Therapy   *TherapyService
	Payments  *PaymentService
	Exercises *ExerciseService
}

func New(d Deps) *Services {
	if d.Log == nil {
		d.Log = zap.NewNop()
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	now := clock(d.Now)

	return &Services{
		Health: d.Store,
		Auth:   &AuthService{store: d.Store, hasher: d.Hasher, tokens: d.Tokens},
		Accounts: &AccountService{
			store:  d.Store,
			hasher: d.Hasher,
			mailer: d.Mailer,
			log:    d.Log.Named("accounts"),
		},
		Therapy: &TherapyService{store: d.Store, clock: now, log: d.Log.Named("therapy")},
		Payments: &PaymentService{
			store:          d.Store,
			gateway:        d.Payments,
			publishableKey: d.PublishableKey,
			log:            d.Log.Named("payments"),
		},
		Exercises: &ExerciseService{
			store:  d.Store,
			cache:  d.Cache,
			videos: d.Videos,
			log:    d.Log.Named("exercises"),
		},
	}
}

type clock func() time.Time

// today is the current calendar day at UTC midnight.
func (c clock) today() time.Time {
	y, m, d := c().UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
