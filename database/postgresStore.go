package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"golang-physiobackend/models"
)

const pgUniqueViolation = "23505"

type gormTxKey struct{}

// PostgresStore keeps the relational layout of the clinic tables.
type PostgresStore struct {
	db *gorm.DB
}

func NewPostgresStore(dsn string) (*PostgresStore, error) {
	if dsn == "" {
		return nil, fmt.Errorf("postgres dsn is empty")
	}
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}
	return &PostgresStore{db: db}, nil
}

func (s *PostgresStore) conn(ctx context.Context) *gorm.DB {
	if tx, ok := ctx.Value(gormTxKey{}).(*gorm.DB); ok {
		return tx.WithContext(ctx)
	}
	return s.db.WithContext(ctx)
}

func (s *PostgresStore) Migrate(ctx context.Context) error {
	return s.db.WithContext(ctx).AutoMigrate(
		&models.Therapist{},
		&models.Patient{},
		&models.Exercise{},
		&models.Assignment{},
	)
}

func (s *PostgresStore) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(gormTxKey{}).(*gorm.DB); ok {
		return fn(ctx)
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(context.WithValue(ctx, gormTxKey{}, tx))
	})
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (s *PostgresStore) Close(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func translate(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
		return ErrDuplicate
	}
	return err
}

func (s *PostgresStore) updateColumns(ctx context.Context, model interface{}, where string, key interface{}, values map[string]interface{}) error {
	result := s.conn(ctx).Model(model).Where(where, key).Updates(values)
	if result.Error != nil {
		return translate(result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) CreateTherapist(ctx context.Context, t *models.Therapist) error {
	return translate(s.conn(ctx).Create(t).Error)
}

func (s *PostgresStore) GetTherapist(ctx context.Context, cedula string) (*models.Therapist, error) {
	var t models.Therapist
	if err := s.conn(ctx).First(&t, "cedula = ?", cedula).Error; err != nil {
		return nil, translate(err)
	}
	return &t, nil
}

func (s *PostgresStore) GetTherapistByEmail(ctx context.Context, email string) (*models.Therapist, error) {
	var t models.Therapist
	if err := s.conn(ctx).First(&t, "correo = ?", email).Error; err != nil {
		return nil, translate(err)
	}
	return &t, nil
}

func (s *PostgresStore) SetTherapistPassword(ctx context.Context, cedula, hash string) error {
	return s.updateColumns(ctx, &models.Therapist{}, "cedula = ?", cedula, map[string]interface{}{
		"contrasena": hash,
		"updated_at": time.Now().UTC(),
	})
}

func (s *PostgresStore) ActivateTherapist(ctx context.Context, cedula, intentID string) error {
	return s.updateColumns(ctx, &models.Therapist{}, "cedula = ?", cedula, map[string]interface{}{
		"estado":     models.StateActive,
		"id_pago":    intentID,
		"updated_at": time.Now().UTC(),
	})
}

func (s *PostgresStore) CreatePatient(ctx context.Context, p *models.Patient) error {
	return translate(s.conn(ctx).Create(p).Error)
}

func (s *PostgresStore) GetPatient(ctx context.Context, cedula string) (*models.Patient, error) {
	var p models.Patient
	if err := s.conn(ctx).First(&p, "cedula = ?", cedula).Error; err != nil {
		return nil, translate(err)
	}
	return &p, nil
}

func (s *PostgresStore) GetPatientByEmail(ctx context.Context, email string) (*models.Patient, error) {
	var p models.Patient
	if err := s.conn(ctx).First(&p, "correo = ?", email).Error; err != nil {
		return nil, translate(err)
	}
	return &p, nil
}

func (s *PostgresStore) SetPatientPassword(ctx context.Context, cedula, hash string) error {
	return s.updateColumns(ctx, &models.Patient{}, "cedula = ?", cedula, map[string]interface{}{
		"contrasena": hash,
		"updated_at": time.Now().UTC(),
	})
}

func (s *PostgresStore) SetPatientState(ctx context.Context, cedula, state string) error {
	return s.updateColumns(ctx, &models.Patient{}, "cedula = ?", cedula, map[string]interface{}{
		"estado":     state,
		"updated_at": time.Now().UTC(),
	})
}

func (s *PostgresStore) ListPatientsByTherapist(ctx context.Context, therapistCedula string) ([]models.Patient, error) {
	patients := []models.Patient{}
	err := s.conn(ctx).Where("cedula_fisioterapeuta = ?", therapistCedula).Order("nombre").Find(&patients).Error
	return patients, translate(err)
}

func (s *PostgresStore) UpsertExercise(ctx context.Context, e *models.Exercise) error {
	return translate(s.conn(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id_ejercicio"}},
		UpdateAll: true,
	}).Create(e).Error)
}

func (s *PostgresStore) ListExercises(ctx context.Context) ([]models.Exercise, error) {
	exercises := []models.Exercise{}
	err := s.conn(ctx).Order("id_ejercicio").Find(&exercises).Error
	return exercises, translate(err)
}

func (s *PostgresStore) GetExercises(ctx context.Context, ids []int64) ([]models.Exercise, error) {
	exercises := []models.Exercise{}
	err := s.conn(ctx).Where("id_ejercicio IN ?", ids).Order("id_ejercicio").Find(&exercises).Error
	return exercises, translate(err)
}

// NextGroup locks the patient row, so inside a transaction a second caller
// for the same patient waits until the first one commits its batch.
func (s *PostgresStore) NextGroup(ctx context.Context, patientCedula string) (int, error) {
	db := s.conn(ctx)

	var patient models.Patient
	if err := db.Clauses(clause.Locking{Strength: "UPDATE"}).
		Select("cedula").
		First(&patient, "cedula = ?", patientCedula).Error; err != nil {
		return 0, translate(err)
	}

	var max int
	err := db.Model(&models.Assignment{}).
		Where("cedula_paciente = ?", patientCedula).
		Select("COALESCE(MAX(grupo_terapia), 0)").
		Scan(&max).Error
	if err != nil {
		return 0, translate(err)
	}
	return max + 1, nil
}

func (s *PostgresStore) InsertAssignments(ctx context.Context, rows []*models.Assignment) error {
	if len(rows) == 0 {
		return nil
	}
	return translate(s.conn(ctx).Create(&rows).Error)
}

func (s *PostgresStore) GetAssignment(ctx context.Context, id int64) (*models.Assignment, error) {
	var a models.Assignment
	if err := s.conn(ctx).First(&a, "id_terapia = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &a, nil
}

func (s *PostgresStore) CompleteAssignment(ctx context.Context, id int64, on time.Time) error {
	return s.updateColumns(ctx, &models.Assignment{}, "id_terapia = ?", id, map[string]interface{}{
		"estado":            models.StatusCompleted,
		"fecha_realizacion": on,
	})
}

func (s *PostgresStore) RateAssignment(ctx context.Context, id int64, r models.Rating) error {
	return s.updateColumns(ctx, &models.Assignment{}, "id_terapia = ?", id, map[string]interface{}{
		"dolor":         r.Pain,
		"sensacion":     r.Sensation,
		"cansancio":     r.Fatigue,
		"observaciones": r.Observations,
	})
}

func (s *PostgresStore) CountOpenAssignments(ctx context.Context, patientCedula string) (int64, error) {
	var n int64
	err := s.conn(ctx).Model(&models.Assignment{}).
		Where("cedula_paciente = ? AND estado IN ?", patientCedula, models.OpenStatuses).
		Count(&n).Error
	return n, translate(err)
}

func (s *PostgresStore) ListAssignments(ctx context.Context, patientCedula string, statuses []string) ([]models.Assignment, error) {
	q := s.conn(ctx).Where("cedula_paciente = ?", patientCedula)
	if len(statuses) > 0 {
		q = q.Where("estado IN ?", statuses)
	}

	assignments := []models.Assignment{}
	err := q.Order("grupo_terapia DESC, fecha_asignacion DESC, id_terapia DESC").Find(&assignments).Error
	return assignments, translate(err)
}
