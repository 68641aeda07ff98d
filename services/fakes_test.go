package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"golang-physiobackend/database"
	"golang-physiobackend/helpers"
	"golang-physiobackend/models"
)

var errSend = errors.New("smtp unavailable")

type sentMail struct {
	Kind     string
	To       string
	Name     string
	Password string
}

type fakeMailer struct {
	mu   sync.Mutex
	sent []sentMail
	fail bool
}

func (m *fakeMailer) record(kind, to, name, password string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail {
		return errSend
	}
	m.sent = append(m.sent, sentMail{Kind: kind, To: to, Name: name, Password: password})
	return nil
}

func (m *fakeMailer) SendRecovery(ctx context.Context, to, name, tempPassword string) error {
	return m.record("recovery", to, name, tempPassword)
}

func (m *fakeMailer) SendWelcome(ctx context.Context, to, name, tempPassword string) error {
	return m.record("welcome", to, name, tempPassword)
}

func (m *fakeMailer) SendPasswordChanged(ctx context.Context, to, name string) error {
	return m.record("changed", to, name, "")
}

func (m *fakeMailer) Sent() []sentMail {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]sentMail(nil), m.sent...)
}

type fakeGateway struct {
	intents map[string]*helpers.PaymentIntent
	created []helpers.PaymentIntentRequest
	err     error
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{intents: make(map[string]*helpers.PaymentIntent)}
}

func (g *fakeGateway) CreatePaymentIntent(ctx context.Context, req helpers.PaymentIntentRequest) (*helpers.PaymentIntent, error) {
	if g.err != nil {
		return nil, g.err
	}
	g.created = append(g.created, req)
	return &helpers.PaymentIntent{
		ID:           "pi_test",
		ClientSecret: "pi_test_secret",
		Amount:       req.Amount,
		Currency:     req.Currency,
		Status:       "requires_payment_method",
	}, nil
}

func (g *fakeGateway) GetPaymentIntent(ctx context.Context, id string) (*helpers.PaymentIntent, error) {
	if g.err != nil {
		return nil, g.err
	}
	pi, ok := g.intents[id]
	if !ok {
		return nil, errors.New("no such payment_intent")
	}
	cp := *pi
	return &cp, nil
}

type fakeCache struct {
	items       []models.Exercise
	hit         bool
	sets        int
	invalidated int
}

func (c *fakeCache) Get(ctx context.Context) ([]models.Exercise, bool) {
	return c.items, c.hit
}

func (c *fakeCache) Set(ctx context.Context, exercises []models.Exercise) {
	c.items, c.hit = exercises, true
	c.sets++
}

func (c *fakeCache) Invalidate(ctx context.Context) {
	c.items, c.hit = nil, false
	c.invalidated++
}

type fakeSigner struct {
	keys []string
	err  error
}

func (s *fakeSigner) PresignVideo(ctx context.Context, key string) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	s.keys = append(s.keys, key)
	return "https://cdn.test/" + key + "?sig=1", nil
}

var fixedNow = time.Date(2026, time.March, 10, 15, 30, 0, 0, time.FixedZone("COT", -5*60*60))

type harness struct {
	store   *database.MemoryStore
	mailer  *fakeMailer
	gateway *fakeGateway
	cache   *fakeCache
	signer  *fakeSigner
	hasher  *helpers.PasswordHasher
	svc     *Services
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	tokens, err := helpers.NewTokenMaker("test-secret", "HS256", time.Hour)
	require.NoError(t, err)

	h := &harness{
		store:   database.NewMemoryStore(),
		mailer:  &fakeMailer{},
		gateway: newFakeGateway(),
		cache:   &fakeCache{},
		signer:  &fakeSigner{},
		hasher:  helpers.NewPasswordHasher(bcrypt.MinCost),
	}
	h.svc = New(Deps{
		Store:          h.store,
		Hasher:         h.hasher,
		Tokens:         tokens,
		Mailer:         h.mailer,
		Payments:       h.gateway,
		PublishableKey: "pk_test",
		Cache:          h.cache,
		Videos:         h.signer,
		Now:            func() time.Time { return fixedNow },
	})
	return h
}

func (h *harness) therapist(t *testing.T, cedula, email, password string) *models.Therapist {
	t.Helper()
	th, err := h.svc.Accounts.RegisterTherapist(context.Background(), TherapistInput{
		Cedula: cedula, Name: "Fisio " + cedula, Email: email, Password: password,
	})
	require.NoError(t, err)
	return th
}

func (h *harness) patient(t *testing.T, therapistCedula, cedula, email string) (*models.Patient, string) {
	t.Helper()
	p, password, err := h.svc.Accounts.RegisterPatient(context.Background(), therapistCedula, PatientInput{
		Cedula: cedula, Name: "Paciente " + cedula, Email: email,
	})
	require.NoError(t, err)
	return p, password
}

func (h *harness) catalog(t *testing.T, ids ...int64) {
	t.Helper()
	for _, id := range ids {
		require.NoError(t, h.store.UpsertExercise(context.Background(), &models.Exercise{
			ID: id, Name: "Ejercicio", Description: "desc", Repetitions: 10,
		}))
	}
}
