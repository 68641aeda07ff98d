package services

import (
	"context"
	"strings"
	"time"

	"github.com/pkg/errors"

	"golang-physiobackend/database"
	"golang-physiobackend/helpers"
	"golang-physiobackend/models"
)

const msgInvalidCredentials = "credenciales inválidas"

type AuthService struct {
	store  database.Store
	hasher *helpers.PasswordHasher
	tokens *helpers.TokenMaker
}

// findTherapist and findPatient accept either a cédula or an email.
func (s *AuthService) findTherapist(ctx context.Context, identifier string) (*models.Therapist, error) {
	t, err := s.store.GetTherapist(ctx, identifier)
	if errors.Is(err, database.ErrNotFound) {
		t, err = s.store.GetTherapistByEmail(ctx, normalizeEmail(identifier))
	}
	return t, err
}

func (s *AuthService) findPatient(ctx context.Context, identifier string) (*models.Patient, error) {
	p, err := s.store.GetPatient(ctx, identifier)
	if errors.Is(err, database.ErrNotFound) {
		p, err = s.store.GetPatientByEmail(ctx, normalizeEmail(identifier))
	}
	return p, err
}

// Authenticate tries the therapist table first and falls back to patients.
// An unknown identifier and a wrong password produce the same error.
func (s *AuthService) Authenticate(ctx context.Context, identifier, password string) (*models.Identity, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" || password == "" {
		return nil, newError(KindUnauthorized, msgInvalidCredentials, nil)
	}

	therapist, err := s.findTherapist(ctx, identifier)
	switch {
	case err == nil:
		if s.hasher.VerifyPassword(password, therapist.PasswordHash) {
			return therapist.Identity(), nil
		}
	case !errors.Is(err, database.ErrNotFound):
		return nil, internal(err, "authenticate therapist")
	}

	patient, err := s.findPatient(ctx, identifier)
	switch {
	case err == nil:
		if s.hasher.VerifyPassword(password, patient.PasswordHash) {
			return patient.Identity(), nil
		}
	case !errors.Is(err, database.ErrNotFound):
		return nil, internal(err, "authenticate patient")
	}

	return nil, newError(KindUnauthorized, msgInvalidCredentials, nil)
}

func (s *AuthService) IssueToken(identity *models.Identity) (string, time.Time, error) {
	token, expiresAt, err := s.tokens.GenerateToken(identity)
	if err != nil {
		return "", time.Time{}, internal(err, "issue token")
	}
	return token, expiresAt, nil
}

func (s *AuthService) Verify(token string) (*helpers.SignedDetails, error) {
	claims, err := s.tokens.ValidateToken(token)
	if err != nil {
		return nil, newError(KindUnauthorized, "token inválido o expirado", err)
	}
	return claims, nil
}

func (s *AuthService) TherapistInfo(ctx context.Context, cedula string) (*models.Therapist, error) {
	t, err := s.store.GetTherapist(ctx, cedula)
	if err != nil {
		return nil, storeError(err, "fisioterapeuta no encontrado", "get therapist")
	}
	return t, nil
}

func (s *AuthService) PatientInfo(ctx context.Context, cedula string) (*models.Patient, error) {
	p, err := s.store.GetPatient(ctx, cedula)
	if err != nil {
		return nil, storeError(err, "paciente no encontrado", "get patient")
	}
	return p, nil
}

// AuthorizePatient checks that the caller may read or act on the patient's
// data. Patients reach only themselves. Therapists reach the patients they
// registered and any patient with no registering therapist on record.
func (s *AuthService) AuthorizePatient(ctx context.Context, role models.Role, callerID, patientCedula string) error {
	switch role {
	case models.RolePatient:
		if callerID != patientCedula {
			return newError(KindForbidden, "no puede consultar datos de otro paciente", nil)
		}
		return nil
	case models.RoleTherapist:
		p, err := s.PatientInfo(ctx, patientCedula)
		if err != nil {
			return err
		}
		if p.TherapistCedula != "" && p.TherapistCedula != callerID {
			return newError(KindForbidden, "el paciente pertenece a otro fisioterapeuta", nil)
		}
		return nil
	default:
		return newError(KindForbidden, "acceso denegado para este tipo de usuario", nil)
	}
}

// AuthorizeAssignment applies AuthorizePatient to the patient owning the row.
func (s *AuthService) AuthorizeAssignment(ctx context.Context, role models.Role, callerID string, assignmentID int64) error {
	a, err := s.store.GetAssignment(ctx, assignmentID)
	if err != nil {
		return storeError(err, "terapia no encontrada", "get assignment")
	}
	return s.AuthorizePatient(ctx, role, callerID, a.PatientCedula)
}
