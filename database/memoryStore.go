package database

import (
	"context"
	"sort"
	"sync"
	"time"

	"golang-physiobackend/models"
)

type memoryTxKey struct{}

// MemoryStore keeps everything in process. It backs local development
// (DB_DRIVER=memory) and the test suites. Transactions are serialized and
// roll back by restoring a snapshot taken when they started.
type MemoryStore struct {
	txMu sync.Mutex

	mu               sync.RWMutex
	therapists       map[string]models.Therapist
	patients         map[string]models.Patient
	exercises        map[int64]models.Exercise
	assignments      map[int64]models.Assignment
	nextAssignmentID int64
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		therapists:  make(map[string]models.Therapist),
		patients:    make(map[string]models.Patient),
		exercises:   make(map[int64]models.Exercise),
		assignments: make(map[int64]models.Assignment),
	}
}

type memorySnapshot struct {
	therapists       map[string]models.Therapist
	patients         map[string]models.Patient
	exercises        map[int64]models.Exercise
	assignments      map[int64]models.Assignment
	nextAssignmentID int64
}

func copyMap[K comparable, V any](in map[K]V) map[K]V {
	out := make(map[K]V, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

func (s *MemoryStore) snapshot() memorySnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return memorySnapshot{
		therapists:       copyMap(s.therapists),
		patients:         copyMap(s.patients),
		exercises:        copyMap(s.exercises),
		assignments:      copyMap(s.assignments),
		nextAssignmentID: s.nextAssignmentID,
	}
}

func (s *MemoryStore) restore(snap memorySnapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.therapists = snap.therapists
	s.patients = snap.patients
	s.exercises = snap.exercises
	s.assignments = snap.assignments
	s.nextAssignmentID = snap.nextAssignmentID
}

func (s *MemoryStore) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if ctx.Value(memoryTxKey{}) != nil {
		return fn(ctx)
	}

	s.txMu.Lock()
	defer s.txMu.Unlock()

	snap := s.snapshot()
	if err := fn(context.WithValue(ctx, memoryTxKey{}, true)); err != nil {
		s.restore(snap)
		return err
	}
	return nil
}

func (s *MemoryStore) Migrate(ctx context.Context) error { return nil }
func (s *MemoryStore) Ping(ctx context.Context) error    { return nil }
func (s *MemoryStore) Close(ctx context.Context) error   { return nil }

func (s *MemoryStore) therapistEmailTaken(email string) bool {
	for _, t := range s.therapists {
		if t.Email == email {
			return true
		}
	}
	return false
}

func (s *MemoryStore) CreateTherapist(ctx context.Context, t *models.Therapist) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.therapists[t.Cedula]; exists || s.therapistEmailTaken(t.Email) {
		return ErrDuplicate
	}
	now := time.Now().UTC()
	t.CreatedAt, t.UpdatedAt = now, now
	s.therapists[t.Cedula] = *t
	return nil
}

func (s *MemoryStore) GetTherapist(ctx context.Context, cedula string) (*models.Therapist, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, exists := s.therapists[cedula]
	if !exists {
		return nil, ErrNotFound
	}
	return &t, nil
}

func (s *MemoryStore) GetTherapistByEmail(ctx context.Context, email string) (*models.Therapist, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, t := range s.therapists {
		if t.Email == email {
			return &t, nil
		}
	}
	return nil, ErrNotFound
}

func (s *MemoryStore) updateTherapist(cedula string, fn func(t *models.Therapist)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, exists := s.therapists[cedula]
	if !exists {
		return ErrNotFound
	}
	fn(&t)
	t.UpdatedAt = time.Now().UTC()
	s.therapists[cedula] = t
	return nil
}

func (s *MemoryStore) SetTherapistPassword(ctx context.Context, cedula, hash string) error {
	return s.updateTherapist(cedula, func(t *models.Therapist) { t.PasswordHash = hash })
}

func (s *MemoryStore) ActivateTherapist(ctx context.Context, cedula, intentID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, exists := s.therapists[cedula]
	if !exists {
		return ErrNotFound
	}
	for _, other := range s.therapists {
		if other.Cedula != cedula && other.PaymentIntentID != nil && *other.PaymentIntentID == intentID {
			return ErrDuplicate
		}
	}
	t.State = models.StateActive
	t.PaymentIntentID = &intentID
	t.UpdatedAt = time.Now().UTC()
	s.therapists[cedula] = t
	return nil
}

func (s *MemoryStore) CreatePatient(ctx context.Context, p *models.Patient) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.patients[p.Cedula]; exists {
		return ErrDuplicate
	}
	for _, other := range s.patients {
		if other.Email == p.Email {
			return ErrDuplicate
		}
	}
	now := time.Now().UTC()
	p.CreatedAt, p.UpdatedAt = now, now
	s.patients[p.Cedula] = *p
	return nil
}

func (s *MemoryStore) GetPatient(ctx context.Context, cedula string) (*models.Patient, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, exists := s.patients[cedula]
	if !exists {
		return nil, ErrNotFound
	}
	return &p, nil
}

func (s *MemoryStore) GetPatientByEmail(ctx context.Context, email string) (*models.Patient, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, p := range s.patients {
		if p.Email == email {
			return &p, nil
		}
	}
	return nil, ErrNotFound
}

func (s *MemoryStore) updatePatient(cedula string, fn func(p *models.Patient)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, exists := s.patients[cedula]
	if !exists {
		return ErrNotFound
	}
	fn(&p)
	p.UpdatedAt = time.Now().UTC()
	s.patients[cedula] = p
	return nil
}

func (s *MemoryStore) SetPatientPassword(ctx context.Context, cedula, hash string) error {
	return s.updatePatient(cedula, func(p *models.Patient) { p.PasswordHash = hash })
}

func (s *MemoryStore) SetPatientState(ctx context.Context, cedula, state string) error {
	return s.updatePatient(cedula, func(p *models.Patient) { p.State = state })
}

func (s *MemoryStore) ListPatientsByTherapist(ctx context.Context, therapistCedula string) ([]models.Patient, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	patients := []models.Patient{}
	for _, p := range s.patients {
		if p.TherapistCedula == therapistCedula {
			patients = append(patients, p)
		}
	}
	sort.Slice(patients, func(i, j int) bool { return patients[i].Name < patients[j].Name })
	return patients, nil
}

func (s *MemoryStore) UpsertExercise(ctx context.Context, e *models.Exercise) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.exercises[e.ID] = *e
	return nil
}

func (s *MemoryStore) ListExercises(ctx context.Context) ([]models.Exercise, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	exercises := make([]models.Exercise, 0, len(s.exercises))
	for _, e := range s.exercises {
		exercises = append(exercises, e)
	}
	sort.Slice(exercises, func(i, j int) bool { return exercises[i].ID < exercises[j].ID })
	return exercises, nil
}

func (s *MemoryStore) GetExercises(ctx context.Context, ids []int64) ([]models.Exercise, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	exercises := []models.Exercise{}
	seen := make(map[int64]bool, len(ids))
	for _, id := range ids {
		e, exists := s.exercises[id]
		if !exists || seen[id] {
			continue
		}
		seen[id] = true
		exercises = append(exercises, e)
	}
	sort.Slice(exercises, func(i, j int) bool { return exercises[i].ID < exercises[j].ID })
	return exercises, nil
}

func (s *MemoryStore) NextGroup(ctx context.Context, patientCedula string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, exists := s.patients[patientCedula]; !exists {
		return 0, ErrNotFound
	}
	max := 0
	for _, a := range s.assignments {
		if a.PatientCedula == patientCedula && a.Group > max {
			max = a.Group
		}
	}
	return max + 1, nil
}

func (s *MemoryStore) InsertAssignments(ctx context.Context, rows []*models.Assignment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, row := range rows {
		s.nextAssignmentID++
		row.ID = s.nextAssignmentID
		s.assignments[row.ID] = *row
	}
	return nil
}

func (s *MemoryStore) GetAssignment(ctx context.Context, id int64) (*models.Assignment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, exists := s.assignments[id]
	if !exists {
		return nil, ErrNotFound
	}
	return &a, nil
}

func (s *MemoryStore) updateAssignment(id int64, fn func(a *models.Assignment)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, exists := s.assignments[id]
	if !exists {
		return ErrNotFound
	}
	fn(&a)
	s.assignments[id] = a
	return nil
}

func (s *MemoryStore) CompleteAssignment(ctx context.Context, id int64, on time.Time) error {
	return s.updateAssignment(id, func(a *models.Assignment) {
		a.Status = models.StatusCompleted
		a.CompletedOn = &on
	})
}

func (s *MemoryStore) RateAssignment(ctx context.Context, id int64, r models.Rating) error {
	return s.updateAssignment(id, func(a *models.Assignment) {
		pain, sensation, fatigue := r.Pain, r.Sensation, r.Fatigue
		a.Pain, a.Sensation, a.Fatigue = &pain, &sensation, &fatigue
		a.Observations = r.Observations
	})
}

func (s *MemoryStore) CountOpenAssignments(ctx context.Context, patientCedula string) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var n int64
	for _, a := range s.assignments {
		if a.PatientCedula == patientCedula && a.IsOpen() {
			n++
		}
	}
	return n, nil
}

func (s *MemoryStore) ListAssignments(ctx context.Context, patientCedula string, statuses []string) ([]models.Assignment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	wanted := make(map[string]bool, len(statuses))
	for _, st := range statuses {
		wanted[st] = true
	}

	assignments := []models.Assignment{}
	for _, a := range s.assignments {
		if a.PatientCedula != patientCedula {
			continue
		}
		if len(wanted) > 0 && !wanted[a.Status] {
			continue
		}
		assignments = append(assignments, a)
	}
	sort.Slice(assignments, func(i, j int) bool {
		a, b := assignments[i], assignments[j]
		if a.Group != b.Group {
			return a.Group > b.Group
		}
		if !a.AssignedOn.Equal(b.AssignedOn) {
			return a.AssignedOn.After(b.AssignedOn)
		}
		return a.ID > b.ID
	})
	return assignments, nil
}
