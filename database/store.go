package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang-physiobackend/models"
)

var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("duplicate record")
)

// Store is the persistence boundary shared by every backend. Methods called
// with the context handed to a WithTransaction callback take part in that
// transaction.
type Store interface {
	CreateTherapist(ctx context.Context, t *models.Therapist) error
	GetTherapist(ctx context.Context, cedula string) (*models.Therapist, error)
	GetTherapistByEmail(ctx context.Context, email string) (*models.Therapist, error)
	SetTherapistPassword(ctx context.Context, cedula, hash string) error
	// ActivateTherapist marks the therapist activo and records the payment
	// intent that paid for it. ErrDuplicate when another therapist already
	// holds the intent.
	ActivateTherapist(ctx context.Context, cedula, intentID string) error

	CreatePatient(ctx context.Context, p *models.Patient) error
	GetPatient(ctx context.Context, cedula string) (*models.Patient, error)
	GetPatientByEmail(ctx context.Context, email string) (*models.Patient, error)
	SetPatientPassword(ctx context.Context, cedula, hash string) error
	SetPatientState(ctx context.Context, cedula, state string) error
	ListPatientsByTherapist(ctx context.Context, therapistCedula string) ([]models.Patient, error)

	UpsertExercise(ctx context.Context, e *models.Exercise) error
	ListExercises(ctx context.Context) ([]models.Exercise, error)
	GetExercises(ctx context.Context, ids []int64) ([]models.Exercise, error)

	// NextGroup returns one plus the highest group number already used for
	// the patient. Inside a transaction it also serializes concurrent
	// callers for the same patient.
	NextGroup(ctx context.Context, patientCedula string) (int, error)
	InsertAssignments(ctx context.Context, rows []*models.Assignment) error
	GetAssignment(ctx context.Context, id int64) (*models.Assignment, error)
	CompleteAssignment(ctx context.Context, id int64, on time.Time) error
	RateAssignment(ctx context.Context, id int64, r models.Rating) error
	CountOpenAssignments(ctx context.Context, patientCedula string) (int64, error)
	ListAssignments(ctx context.Context, patientCedula string, statuses []string) ([]models.Assignment, error)

	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
	Migrate(ctx context.Context) error
	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}

const (
	DriverMongo    = "mongo"
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

type Options struct {
	Driver        string
	MongoURI      string
	MongoDatabase string
	PostgresDSN   string
}

// Open connects the configured backend and prepares its schema.
func Open(ctx context.Context, opts Options) (Store, error) {
	var (
		store Store
		err   error
	)
	switch opts.Driver {
	case DriverMongo:
		store, err = NewMongoStore(ctx, opts.MongoURI, opts.MongoDatabase)
	case DriverPostgres:
		store, err = NewPostgresStore(opts.PostgresDSN)
	case DriverMemory:
		store = NewMemoryStore()
	default:
		return nil, fmt.Errorf("unknown database driver %q", opts.Driver)
	}
	if err != nil {
		return nil, err
	}

	if err := store.Migrate(ctx); err != nil {
		store.Close(ctx)
		return nil, fmt.Errorf("migrate %s store: %w", opts.Driver, err)
	}
	return store, nil
}
