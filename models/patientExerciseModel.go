package models

import (
	"time"
)

// Assignment statuses. A row only ever moves from Pendiente to Completado;
// En Progreso is counted as open but never written by this service.
const (
	StatusPending    = "Pendiente"
	StatusInProgress = "En Progreso"
	StatusCompleted  = "Completado"
)

// OpenStatuses are the statuses that keep a patient active.
var OpenStatuses = []string{StatusPending, StatusInProgress}

type Assignment struct {
	ID            int64      `json:"id_terapia" bson:"id_terapia" gorm:"column:id_terapia;primaryKey;autoIncrement"`
	Group         int        `json:"grupo_terapia" bson:"grupo_terapia" gorm:"column:grupo_terapia;not null;index:idx_paciente_grupo,priority:2"`
	PatientCedula string     `json:"cedula_paciente" bson:"cedula_paciente" gorm:"column:cedula_paciente;size:20;not null;index:idx_paciente_grupo,priority:1"`
	ExerciseID    int64      `json:"id_ejercicio" bson:"id_ejercicio" gorm:"column:id_ejercicio;not null"`
	Status        string     `json:"estado" bson:"estado" gorm:"column:estado;size:20;default:Pendiente"`
	AssignedOn    time.Time  `json:"fecha_asignacion" bson:"fecha_asignacion" gorm:"column:fecha_asignacion;type:date"`
	CompletedOn   *time.Time `json:"fecha_realizacion,omitempty" bson:"fecha_realizacion,omitempty" gorm:"column:fecha_realizacion;type:date"`
	Observations  *string    `json:"observaciones,omitempty" bson:"observaciones,omitempty" gorm:"column:observaciones;type:text"`
	Pain          *int       `json:"dolor,omitempty" bson:"dolor,omitempty" gorm:"column:dolor"`
	Sensation     *int       `json:"sensacion,omitempty" bson:"sensacion,omitempty" gorm:"column:sensacion"`
	Fatigue       *int       `json:"cansancio,omitempty" bson:"cansancio,omitempty" gorm:"column:cansancio"`
}

func (Assignment) TableName() string { return "terapia_asignada" }

func (a *Assignment) IsOpen() bool {
	return a.Status == StatusPending || a.Status == StatusInProgress
}

// EffectiveDate is the date listings sort by: completion when present,
// assignment otherwise.
func (a *Assignment) EffectiveDate() time.Time {
	if a.CompletedOn != nil {
		return *a.CompletedOn
	}
	return a.AssignedOn
}

type Rating struct {
	Pain         int
	Sensation    int
	Fatigue      int
	Observations *string
}
