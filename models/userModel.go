package models

import (
	"time"
)

type Role string

const (
	RoleTherapist Role = "fisio"
	RolePatient   Role = "paciente"
)

// Account states. Therapists start inactive until their payment is confirmed;
// patients toggle with the completion of their assigned exercises.
const (
	StateActive   = "activo"
	StateInactive = "inactivo"
)

type Therapist struct {
	Cedula       string    `json:"cedula" bson:"cedula" gorm:"primaryKey;size:20"`
	Name         string    `json:"nombre" bson:"nombre" gorm:"column:nombre;not null"`
	Email        string    `json:"correo" bson:"correo" gorm:"column:correo;uniqueIndex;not null"`
	PasswordHash string    `json:"-" bson:"contrasena" gorm:"column:contrasena;not null"`
	State        string    `json:"estado" bson:"estado" gorm:"column:estado;not null"`
	Phone        string    `json:"telefono" bson:"telefono" gorm:"column:telefono;not null"`
	CreatedAt    time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" bson:"updated_at"`

	// PaymentIntentID is the Stripe intent that activated the account. Each
	// intent activates at most one therapist.
	PaymentIntentID *string `json:"-" bson:"id_pago,omitempty" gorm:"column:id_pago;size:255;uniqueIndex"`
}

func (Therapist) TableName() string { return "fisioterapeuta" }

type Patient struct {
	Cedula          string    `json:"cedula" bson:"cedula" gorm:"primaryKey;size:20"`
	Name            string    `json:"nombre" bson:"nombre" gorm:"column:nombre;not null"`
	Email           string    `json:"correo" bson:"correo" gorm:"column:correo;uniqueIndex;not null"`
	PasswordHash    string    `json:"-" bson:"contrasena" gorm:"column:contrasena;not null"`
	Phone           string    `json:"telefono" bson:"telefono" gorm:"column:telefono;not null"`
	State           string    `json:"estado" bson:"estado" gorm:"column:estado;not null;default:activo"`
	TherapistCedula string    `json:"cedula_fisioterapeuta,omitempty" bson:"cedula_fisioterapeuta,omitempty" gorm:"column:cedula_fisioterapeuta;index"`
	CreatedAt       time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt       time.Time `json:"updated_at" bson:"updated_at"`
}

func (Patient) TableName() string { return "paciente" }

// Identity is the result of a successful authentication.
type Identity struct {
	Role  Role   `json:"tipo_usuario"`
	ID    string `json:"id"`
	Name  string `json:"nombre"`
	Email string `json:"email"`
	State string `json:"estado"`
}

func (t *Therapist) Identity() *Identity {
	return &Identity{Role: RoleTherapist, ID: t.Cedula, Name: t.Name, Email: t.Email, State: t.State}
}

func (p *Patient) Identity() *Identity {
	return &Identity{Role: RolePatient, ID: p.Cedula, Name: p.Name, Email: p.Email, State: p.State}
}
