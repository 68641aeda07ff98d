package services

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"golang-physiobackend/database"
	"golang-physiobackend/models"
)

const dateLayout = "2006-01-02"

type TherapyService struct {
	store database.Store
	clock clock
	log   *zap.Logger
}

// AssignedExercise is an assignment row joined with its catalog entry.
type AssignedExercise struct {
	models.Assignment
	Name        string `json:"nombre"`
	Description string `json:"descripcion"`
	Repetitions int    `json:"repeticiones"`
	VideoURL    string `json:"url_video"`
	Extremity   string `json:"extremidad"`
}

type CompletionResult struct {
	AssignmentID  int64     `json:"id_terapia"`
	Status        string    `json:"estado"`
	CompletedOn   time.Time `json:"fecha_realizacion"`
	PatientCedula string    `json:"cedula_paciente"`
	PatientState  string    `json:"estado_paciente"`
	StateChanged  bool      `json:"cambio_realizado"`
	Pending       int64     `json:"pendientes"`
	Reason        string    `json:"razon"`
}

type GroupSummary struct {
	Group      int     `json:"grupo_terapia"`
	Total      int     `json:"total_ejercicios"`
	Completed  int     `json:"completados"`
	Pending    int     `json:"pendientes"`
	Progress   float64 `json:"progreso_porcentaje"`
	StartedOn  *string `json:"fecha_inicio"`
	FinishedOn *string `json:"fecha_fin"`
	Status     string  `json:"estado"`
}

func uniqueIDs(ids []int64) []int64 {
	seen := make(map[int64]bool, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}

// AssignBatch opens a new group for the patient containing one pending row
// per distinct exercise and marks the patient active. It returns the group
// number.
func (s *TherapyService) AssignBatch(ctx context.Context, patientCedula string, exerciseIDs []int64) (int, error) {
	ids := uniqueIDs(exerciseIDs)
	if len(ids) == 0 {
		return 0, validationError("debe seleccionar al menos un ejercicio")
	}

	var group int
	err := s.store.WithTransaction(ctx, func(ctx context.Context) error {
		if _, err := s.store.GetPatient(ctx, patientCedula); err != nil {
			return storeError(err, "paciente no encontrado", "get patient")
		}

		found, err := s.store.GetExercises(ctx, ids)
		if err != nil {
			return internal(err, "load exercises")
		}
		if len(found) != len(ids) {
			known := make(map[int64]bool, len(found))
			for _, e := range found {
				known[e.ID] = true
			}
			var missing []string
			for _, id := range ids {
				if !known[id] {
					missing = append(missing, fmt.Sprint(id))
				}
			}
			return validationError("ejercicios inexistentes: " + strings.Join(missing, ", "))
		}

		group, err = s.store.NextGroup(ctx, patientCedula)
		if err != nil {
			return storeError(err, "paciente no encontrado", "next group")
		}

		today := s.clock.today()
		rows := make([]*models.Assignment, 0, len(ids))
		for _, id := range ids {
			rows = append(rows, &models.Assignment{
				Group:         group,
				PatientCedula: patientCedula,
				ExerciseID:    id,
				Status:        models.StatusPending,
				AssignedOn:    today,
			})
		}
		if err := s.store.InsertAssignments(ctx, rows); err != nil {
			return internal(err, "insert assignments")
		}

		if err := s.store.SetPatientState(ctx, patientCedula, models.StateActive); err != nil {
			return storeError(err, "paciente no encontrado", "activate patient")
		}
		return nil
	})
	if err != nil {
		return 0, passthrough(err, "assign batch")
	}

	s.log.Info("exercises assigned",
		zap.String("patient", patientCedula),
		zap.Int("group", group),
		zap.Int("count", len(ids)))
	return group, nil
}

// MarkComplete completes one assignment and deactivates the patient once no
// pending or in-progress rows remain in any group. Completing an already
// completed row changes nothing.
func (s *TherapyService) MarkComplete(ctx context.Context, assignmentID int64) (*CompletionResult, error) {
	var result *CompletionResult
	err := s.store.WithTransaction(ctx, func(ctx context.Context) error {
		a, err := s.store.GetAssignment(ctx, assignmentID)
		if err != nil {
			return storeError(err, "terapia no encontrada", "get assignment")
		}

		if a.Status != models.StatusCompleted {
			on := s.clock.today()
			if err := s.store.CompleteAssignment(ctx, a.ID, on); err != nil {
				return storeError(err, "terapia no encontrada", "complete assignment")
			}
			a.Status, a.CompletedOn = models.StatusCompleted, &on
		}

		result = &CompletionResult{
			AssignmentID:  a.ID,
			Status:        a.Status,
			CompletedOn:   a.EffectiveDate(),
			PatientCedula: a.PatientCedula,
		}

		open, err := s.store.CountOpenAssignments(ctx, a.PatientCedula)
		if err != nil {
			return internal(err, "count open assignments")
		}
		result.Pending = open

		patient, err := s.store.GetPatient(ctx, a.PatientCedula)
		if err != nil {
			return storeError(err, "paciente no encontrado", "get patient")
		}
		result.PatientState = patient.State

		if open > 0 {
			result.Reason = fmt.Sprintf("el paciente aún tiene %d ejercicios pendientes", open)
			return nil
		}
		result.Reason = "todos los ejercicios han sido completados"
		if patient.State == models.StateInactive {
			return nil
		}
		if err := s.store.SetPatientState(ctx, a.PatientCedula, models.StateInactive); err != nil {
			return storeError(err, "paciente no encontrado", "deactivate patient")
		}
		result.PatientState = models.StateInactive
		result.StateChanged = true
		return nil
	})
	if err != nil {
		return nil, passthrough(err, "mark complete")
	}

	if result.StateChanged {
		s.log.Info("patient finished all exercises", zap.String("patient", result.PatientCedula))
	}
	return result, nil
}

func validRating(v int) bool { return v >= 1 && v <= 5 }

func (s *TherapyService) RateAssignment(ctx context.Context, assignmentID int64, r models.Rating) error {
	if !validRating(r.Pain) || !validRating(r.Sensation) || !validRating(r.Fatigue) {
		return validationError("dolor, sensación y cansancio deben estar entre 1 y 5")
	}
	if r.Observations != nil && strings.TrimSpace(*r.Observations) == "" {
		r.Observations = nil
	}

	err := s.store.WithTransaction(ctx, func(ctx context.Context) error {
		return s.store.RateAssignment(ctx, assignmentID, r)
	})
	if err != nil {
		return storeError(err, "terapia no encontrada", "rate assignment")
	}
	return nil
}

func validStatuses(statuses []string) error {
	for _, st := range statuses {
		switch st {
		case models.StatusPending, models.StatusInProgress, models.StatusCompleted:
		default:
			return validationError(fmt.Sprintf("estado desconocido %q", st))
		}
	}
	return nil
}

// AssignedExercises lists the patient's assignments, optionally restricted
// to statuses, newest group first and newest date first within a group.
func (s *TherapyService) AssignedExercises(ctx context.Context, patientCedula string, statuses []string) ([]AssignedExercise, error) {
	if err := validStatuses(statuses); err != nil {
		return nil, err
	}
	if _, err := s.store.GetPatient(ctx, patientCedula); err != nil {
		return nil, storeError(err, "paciente no encontrado", "get patient")
	}

	rows, err := s.store.ListAssignments(ctx, patientCedula, statuses)
	if err != nil {
		return nil, internal(err, "list assignments")
	}

	ids := make([]int64, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, row.ExerciseID)
	}
	exercises, err := s.store.GetExercises(ctx, uniqueIDs(ids))
	if err != nil {
		return nil, internal(err, "load exercises")
	}
	catalog := make(map[int64]models.Exercise, len(exercises))
	for _, e := range exercises {
		catalog[e.ID] = e
	}

	out := make([]AssignedExercise, 0, len(rows))
	for _, row := range rows {
		e := catalog[row.ExerciseID]
		out = append(out, AssignedExercise{
			Assignment:  row,
			Name:        e.Name,
			Description: e.Description,
			Repetitions: e.Repetitions,
			VideoURL:    e.VideoURL,
			Extremity:   e.ExtremityOrDefault(),
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		a, b := &out[i].Assignment, &out[j].Assignment
		if a.Group != b.Group {
			return a.Group > b.Group
		}
		return a.EffectiveDate().After(b.EffectiveDate())
	})
	return out, nil
}

func (s *TherapyService) CompletedHistory(ctx context.Context, patientCedula string) ([]AssignedExercise, error) {
	return s.AssignedExercises(ctx, patientCedula, []string{models.StatusCompleted})
}

func formatDate(t time.Time) *string {
	if t.IsZero() {
		return nil
	}
	s := t.Format(dateLayout)
	return &s
}

func (s *TherapyService) GroupSummaries(ctx context.Context, patientCedula string) ([]GroupSummary, error) {
	if _, err := s.store.GetPatient(ctx, patientCedula); err != nil {
		return nil, storeError(err, "paciente no encontrado", "get patient")
	}
	rows, err := s.store.ListAssignments(ctx, patientCedula, nil)
	if err != nil {
		return nil, internal(err, "list assignments")
	}

	type acc struct {
		summary    GroupSummary
		start, end time.Time
	}
	byGroup := make(map[int]*acc)
	for _, row := range rows {
		g, ok := byGroup[row.Group]
		if !ok {
			g = &acc{summary: GroupSummary{Group: row.Group}}
			byGroup[row.Group] = g
		}
		g.summary.Total++
		if row.Status == models.StatusCompleted {
			g.summary.Completed++
		}
		if g.start.IsZero() || row.AssignedOn.Before(g.start) {
			g.start = row.AssignedOn
		}
		if row.CompletedOn != nil && row.CompletedOn.After(g.end) {
			g.end = *row.CompletedOn
		}
	}

	summaries := make([]GroupSummary, 0, len(byGroup))
	for _, g := range byGroup {
		sum := g.summary
		sum.Pending = sum.Total - sum.Completed
		if sum.Total > 0 {
			sum.Progress = math.Round(float64(sum.Completed)/float64(sum.Total)*100*100) / 100
		}
		sum.StartedOn = formatDate(g.start)
		sum.FinishedOn = formatDate(g.end)
		sum.Status = models.StatusInProgress
		if sum.Completed == sum.Total {
			sum.Status = models.StatusCompleted
		}
		summaries = append(summaries, sum)
	}
	sort.Slice(summaries, func(i, j int) bool { return summaries[i].Group > summaries[j].Group })
	return summaries, nil
}

func (s *TherapyService) PatientState(ctx context.Context, patientCedula string) (string, error) {
	p, err := s.store.GetPatient(ctx, patientCedula)
	if err != nil {
		return "", storeError(err, "paciente no encontrado", "get patient")
	}
	return p.State, nil
}
