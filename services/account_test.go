package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"golang-physiobackend/helpers"
	"golang-physiobackend/models"
)

func TestRegisterTherapist_StartsInactive(t *testing.T) {
	h := newHarness(t)
	th := h.therapist(t, " 123456 ", " T@X.com", "pw1234")

	assert.Equal(t, "123456", th.Cedula)
	assert.Equal(t, "t@x.com", th.Email)
	assert.Equal(t, models.StateInactive, th.State)
	assert.NotEqual(t, "pw1234", th.PasswordHash)
	assert.True(t, h.hasher.VerifyPassword("pw1234", th.PasswordHash))
}

func TestRegister_RejectsTakenCedulaOrEmailAcrossRoles(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.therapist(t, "t1", "t@x.com", "pw1234")
	h.patient(t, "t1", "p1", "p@x.com")

	_, err := h.svc.Accounts.RegisterTherapist(ctx, TherapistInput{Cedula: "t1", Email: "new@x.com", Password: "pw1234"})
	assert.Equal(t, KindConflict, KindOf(err))

	_, err = h.svc.Accounts.RegisterTherapist(ctx, TherapistInput{Cedula: "t2", Email: "p@x.com", Password: "pw1234"})
	assert.Equal(t, KindConflict, KindOf(err))

	_, _, err = h.svc.Accounts.RegisterPatient(ctx, "t1", PatientInput{Cedula: "t1", Email: "other@x.com"})
	assert.Equal(t, KindConflict, KindOf(err))
}

func TestRegisterPatient_SendsWelcomeWithTemporaryPassword(t *testing.T) {
	h := newHarness(t)
	h.therapist(t, "t1", "t@x.com", "pw1234")

	p, password := h.patient(t, "t1", "p1", "P@X.com")
	assert.Equal(t, models.StateActive, p.State)
	assert.Equal(t, "t1", p.TherapistCedula)
	assert.Len(t, password, helpers.TemporaryPasswordLength)

	sent := h.mailer.Sent()
	require.Len(t, sent, 1)
	assert.Equal(t, sentMail{Kind: "welcome", To: "p@x.com", Name: "Paciente p1", Password: password}, sent[0])
}

func TestRegisterPatient_WelcomeFailureStillRegisters(t *testing.T) {
	h := newHarness(t)
	h.therapist(t, "t1", "t@x.com", "pw1234")
	h.mailer.fail = true

	p, _, err := h.svc.Accounts.RegisterPatient(context.Background(), "t1", PatientInput{Cedula: "p1", Name: "Pepa", Email: "p@x.com"})
	require.NoError(t, err)

	stored, err := h.store.GetPatient(context.Background(), p.Cedula)
	require.NoError(t, err)
	assert.Equal(t, "Pepa", stored.Name)
}

func TestPatients_OnlyTheTherapistsOwn(t *testing.T) {
	h := newHarness(t)
	h.therapist(t, "t1", "t1@x.com", "pw1234")
	h.therapist(t, "t2", "t2@x.com", "pw1234")
	h.patient(t, "t1", "p1", "p1@x.com")
	h.patient(t, "t2", "p2", "p2@x.com")

	patients, err := h.svc.Accounts.Patients(context.Background(), "t1")
	require.NoError(t, err)
	require.Len(t, patients, 1)
	assert.Equal(t, "p1", patients[0].Cedula)
}

func TestResetPassword_ReplacesPasswordAndEmailsIt(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.therapist(t, "t1", "t@x.com", "pw1234")

	require.NoError(t, h.svc.Accounts.ResetPassword(ctx, "T@x.com"))

	sent := h.mailer.Sent()
	require.Len(t, sent, 1)
	assert.Equal(t, "recovery", sent[0].Kind)

	_, err := h.svc.Auth.Authenticate(ctx, "t1", "pw1234")
	assert.Equal(t, KindUnauthorized, KindOf(err))
	_, err = h.svc.Auth.Authenticate(ctx, "t1", sent[0].Password)
	assert.NoError(t, err)
}

func TestResetPassword_WorksForPatients(t *testing.T) {
	h := newHarness(t)
	h.therapist(t, "t1", "t@x.com", "pw1234")
	h.patient(t, "t1", "p1", "p@x.com")

	require.NoError(t, h.svc.Accounts.ResetPassword(context.Background(), "p@x.com"))
	sent := h.mailer.Sent()
	require.Len(t, sent, 2)
	_, err := h.svc.Auth.Authenticate(context.Background(), "p1", sent[1].Password)
	assert.NoError(t, err)
}

func TestResetPassword_UnknownEmailSendsNothing(t *testing.T) {
	h := newHarness(t)

	err := h.svc.Accounts.ResetPassword(context.Background(), "ghost@x.com")
	assert.Equal(t, KindNotFound, KindOf(err))
	assert.Empty(t, h.mailer.Sent())

	err = h.svc.Accounts.ResetPassword(context.Background(), "  ")
	assert.Equal(t, KindValidation, KindOf(err))
}

func TestResetPassword_FailedEmailKeepsOldPassword(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.therapist(t, "t1", "t@x.com", "pw1234")
	h.mailer.fail = true

	err := h.svc.Accounts.ResetPassword(ctx, "t@x.com")
	assert.Equal(t, KindDownstream, KindOf(err))
	assert.ErrorIs(t, err, errSend)

	_, err = h.svc.Auth.Authenticate(ctx, "t1", "pw1234")
	assert.NoError(t, err)
}

func TestChangePassword(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.therapist(t, "t1", "t@x.com", "pw1234")

	err := h.svc.Accounts.ChangePassword(ctx, models.RoleTherapist, "t1", "wrong", "next99")
	assert.Equal(t, KindUnauthorized, KindOf(err))

	err = h.svc.Accounts.ChangePassword(ctx, models.RoleTherapist, "t1", "pw1234", "pw1234")
	assert.Equal(t, KindValidation, KindOf(err))

	err = h.svc.Accounts.ChangePassword(ctx, models.RoleTherapist, "t1", "pw1234", "")
	assert.Equal(t, KindValidation, KindOf(err))

	require.NoError(t, h.svc.Accounts.ChangePassword(ctx, models.RoleTherapist, "t1", "pw1234", "next99"))
	_, err = h.svc.Auth.Authenticate(ctx, "t1", "next99")
	assert.NoError(t, err)

	sent := h.mailer.Sent()
	require.Len(t, sent, 1)
	assert.Equal(t, "changed", sent[0].Kind)
	assert.Empty(t, sent[0].Password)
}

func TestChangePassword_PatientAndUnknownRole(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.therapist(t, "t1", "t@x.com", "pw1234")
	_, password := h.patient(t, "t1", "p1", "p@x.com")
	h.mailer.fail = true

	require.NoError(t, h.svc.Accounts.ChangePassword(ctx, models.RolePatient, "p1", password, "mine123"))
	_, err := h.svc.Auth.Authenticate(ctx, "p1", "mine123")
	assert.NoError(t, err)

	err = h.svc.Accounts.ChangePassword(ctx, models.Role("admin"), "p1", "mine123", "other1")
	assert.Equal(t, KindForbidden, KindOf(err))

	err = h.svc.Accounts.ChangePassword(ctx, models.RolePatient, "ghost", "a", "b")
	assert.Equal(t, KindNotFound, KindOf(err))
}
