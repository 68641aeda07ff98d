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

type TherapistInput struct {
	Cedula   string
	Name     string
	Email    string
	Password string
	Phone    string
}

type PatientInput struct {
	Cedula string
	Name   string
	Email  string
	Phone  string
}

type AccountService struct {
	store  database.Store
	hasher *helpers.PasswordHasher
	mailer Mailer
	log    *zap.Logger
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ensureUnused rejects a cédula or email already registered in either table.
func (s *AccountService) ensureUnused(ctx context.Context, cedula, email string) error {
	checks := []func() error{
		func() error { _, err := s.store.GetTherapist(ctx, cedula); return err },
		func() error { _, err := s.store.GetPatient(ctx, cedula); return err },
		func() error { _, err := s.store.GetTherapistByEmail(ctx, email); return err },
		func() error { _, err := s.store.GetPatientByEmail(ctx, email); return err },
	}
	for _, check := range checks {
		err := check()
		if err == nil {
			return newError(KindConflict, "la cédula o el correo ya están registrados", nil)
		}
		if !errors.Is(err, database.ErrNotFound) {
			return internal(err, "check existing accounts")
		}
	}
	return nil
}

func (s *AccountService) RegisterTherapist(ctx context.Context, in TherapistInput) (*models.Therapist, error) {
	hash, err := s.hasher.HashPassword(in.Password)
	if err != nil {
		return nil, internal(err, "hash therapist password")
	}

	therapist := &models.Therapist{
		Cedula:       strings.TrimSpace(in.Cedula),
		Name:         strings.TrimSpace(in.Name),
		Email:        normalizeEmail(in.Email),
		PasswordHash: hash,
		State:        models.StateInactive,
		Phone:        strings.TrimSpace(in.Phone),
	}

	err = s.store.WithTransaction(ctx, func(ctx context.Context) error {
		if err := s.ensureUnused(ctx, therapist.Cedula, therapist.Email); err != nil {
			return err
		}
		if err := s.store.CreateTherapist(ctx, therapist); err != nil {
			return storeError(err, "fisioterapeuta no encontrado", "create therapist")
		}
		return nil
	})
	if err != nil {
		return nil, passthrough(err, "register therapist")
	}

	s.log.Info("therapist registered", zap.String("cedula", therapist.Cedula))
	return therapist, nil
}

// RegisterPatient returns the generated temporary password alongside the
// patient so the therapist can hand it over if the welcome email is lost.
func (s *AccountService) RegisterPatient(ctx context.Context, therapistCedula string, in PatientInput) (*models.Patient, string, error) {
	tempPassword, err := helpers.GenerateTemporaryPassword(helpers.TemporaryPasswordLength)
	if err != nil {
		return nil, "", internal(err, "generate patient password")
	}
	hash, err := s.hasher.HashPassword(tempPassword)
	if err != nil {
		return nil, "", internal(err, "hash patient password")
	}

	patient := &models.Patient{
		Cedula:          strings.TrimSpace(in.Cedula),
		Name:            strings.TrimSpace(in.Name),
		Email:           normalizeEmail(in.Email),
		PasswordHash:    hash,
		Phone:           strings.TrimSpace(in.Phone),
		State:           models.StateActive,
		TherapistCedula: therapistCedula,
	}

	err = s.store.WithTransaction(ctx, func(ctx context.Context) error {
		if err := s.ensureUnused(ctx, patient.Cedula, patient.Email); err != nil {
			return err
		}
		if err := s.store.CreatePatient(ctx, patient); err != nil {
			return storeError(err, "paciente no encontrado", "create patient")
		}
		return nil
	})
	if err != nil {
		return nil, "", passthrough(err, "register patient")
	}

	if err := s.mailer.SendWelcome(ctx, patient.Email, patient.Name, tempPassword); err != nil {
		s.log.Warn("welcome email failed", zap.String("cedula", patient.Cedula), zap.Error(err))
	}
	s.log.Info("patient registered",
		zap.String("cedula", patient.Cedula),
		zap.String("therapist", therapistCedula))
	return patient, tempPassword, nil
}

func (s *AccountService) Patients(ctx context.Context, therapistCedula string) ([]models.Patient, error) {
	patients, err := s.store.ListPatientsByTherapist(ctx, therapistCedula)
	if err != nil {
		return nil, internal(err, "list patients")
	}
	return patients, nil
}

// ResetPassword replaces the password of the account owning email with a
// temporary one. The email goes out before the transaction commits, so a
// failed send keeps the old password.
func (s *AccountService) ResetPassword(ctx context.Context, email string) error {
	email = normalizeEmail(email)
	if email == "" {
		return validationError("el correo es obligatorio")
	}

	err := s.store.WithTransaction(ctx, func(ctx context.Context) error {
		var (
			name    string
			setHash func(hash string) error
		)

		therapist, err := s.store.GetTherapistByEmail(ctx, email)
		switch {
		case err == nil:
			name = therapist.Name
			setHash = func(hash string) error { return s.store.SetTherapistPassword(ctx, therapist.Cedula, hash) }
		case errors.Is(err, database.ErrNotFound):
			patient, err := s.store.GetPatientByEmail(ctx, email)
			if err != nil {
				return storeError(err, "no existe una cuenta con ese correo", "find patient by email")
			}
			name = patient.Name
			setHash = func(hash string) error { return s.store.SetPatientPassword(ctx, patient.Cedula, hash) }
		default:
			return internal(err, "find therapist by email")
		}

		tempPassword, err := helpers.GenerateTemporaryPassword(helpers.TemporaryPasswordLength)
		if err != nil {
			return internal(err, "generate temporary password")
		}
		hash, err := s.hasher.HashPassword(tempPassword)
		if err != nil {
			return internal(err, "hash temporary password")
		}
		if err := setHash(hash); err != nil {
			return internal(err, "store temporary password")
		}

		if err := s.mailer.SendRecovery(ctx, email, name, tempPassword); err != nil {
			s.log.Error("recovery email failed", zap.Error(err))
			return downstream(err, "no se pudo enviar el correo de recuperación")
		}
		return nil
	})
	return passthrough(err, "reset password")
}

func (s *AccountService) ChangePassword(ctx context.Context, role models.Role, cedula, current, next string) error {
	if next == "" {
		return validationError("la nueva contraseña es obligatoria")
	}

	var (
		name, email, hash string
		setHash           func(ctx context.Context, hash string) error
	)
	switch role {
	case models.RoleTherapist:
		t, err := s.store.GetTherapist(ctx, cedula)
		if err != nil {
			return storeError(err, "fisioterapeuta no encontrado", "get therapist")
		}
		name, email, hash = t.Name, t.Email, t.PasswordHash
		setHash = func(ctx context.Context, h string) error { return s.store.SetTherapistPassword(ctx, cedula, h) }
	case models.RolePatient:
		p, err := s.store.GetPatient(ctx, cedula)
		if err != nil {
			return storeError(err, "paciente no encontrado", "get patient")
		}
		name, email, hash = p.Name, p.Email, p.PasswordHash
		setHash = func(ctx context.Context, h string) error { return s.store.SetPatientPassword(ctx, cedula, h) }
	default:
		return newError(KindForbidden, "tipo de usuario no válido", nil)
	}

	if !s.hasher.VerifyPassword(current, hash) {
		return newError(KindUnauthorized, "la contraseña actual es incorrecta", nil)
	}
	if s.hasher.VerifyPassword(next, hash) {
		return validationError("la nueva contraseña debe ser diferente a la actual")
	}

	newHash, err := s.hasher.HashPassword(next)
	if err != nil {
		return internal(err, "hash new password")
	}
	err = s.store.WithTransaction(ctx, func(ctx context.Context) error {
		return setHash(ctx, newHash)
	})
	if err != nil {
		return storeError(err, "cuenta no encontrada", "store new password")
	}

	if err := s.mailer.SendPasswordChanged(ctx, email, name); err != nil {
		s.log.Warn("password change notification failed", zap.String("cedula", cedula), zap.Error(err))
	}
	return nil
}
