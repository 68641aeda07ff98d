package services

import (
	"context"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"golang-physiobackend/models"
)

func strPtr(s string) *string { return &s }

func therapyHarness(t *testing.T) *harness {
	t.Helper()
	h := newHarness(t)
	h.therapist(t, "t1", "t@x.com", "pw1234")
	h.patient(t, "t1", "p1", "p@x.com")
	h.catalog(t, 1, 2, 3)
	return h
}

func TestAssignBatch_GroupsAreSequential(t *testing.T) {
	h := therapyHarness(t)
	ctx := context.Background()

	for want := 1; want <= 3; want++ {
		group, err := h.svc.Therapy.AssignBatch(ctx, "p1", []int64{1})
		require.NoError(t, err)
		assert.Equal(t, want, group)
	}
}

func TestAssignBatch_ConcurrentCallsNeverShareAGroup(t *testing.T) {
	h := therapyHarness(t)
	ctx := context.Background()
	const calls = 20

	groups := make([]int, calls)
	errs := make([]error, calls)
	var wg sync.WaitGroup
	for i := 0; i < calls; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			groups[i], errs[i] = h.svc.Therapy.AssignBatch(ctx, "p1", []int64{1, 2})
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		require.NoError(t, err)
	}
	sort.Ints(groups)
	for i, group := range groups {
		assert.Equal(t, i+1, group)
	}

	summaries, err := h.svc.Therapy.GroupSummaries(ctx, "p1")
	require.NoError(t, err)
	require.Len(t, summaries, calls)
	for _, s := range summaries {
		assert.Equal(t, 2, s.Total)
	}
}

func TestAssignBatch_RowsArePendingAndDatedToday(t *testing.T) {
	h := therapyHarness(t)
	ctx := context.Background()

	group, err := h.svc.Therapy.AssignBatch(ctx, "p1", []int64{2, 1, 2})
	require.NoError(t, err)

	rows, err := h.svc.Therapy.AssignedExercises(ctx, "p1", nil)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	for _, row := range rows {
		assert.Equal(t, group, row.Group)
		assert.Equal(t, models.StatusPending, row.Status)
		assert.Equal(t, time.Date(2026, time.March, 10, 0, 0, 0, 0, time.UTC), row.AssignedOn)
		assert.Nil(t, row.CompletedOn)
		assert.Equal(t, "Ejercicio", row.Name)
	}
}

func TestAssignBatch_Rejections(t *testing.T) {
	h := therapyHarness(t)
	ctx := context.Background()

	_, err := h.svc.Therapy.AssignBatch(ctx, "p1", nil)
	assert.Equal(t, KindValidation, KindOf(err))

	_, err = h.svc.Therapy.AssignBatch(ctx, "p1", []int64{1, 99})
	assert.Equal(t, KindValidation, KindOf(err))
	assert.Contains(t, err.(*Error).Message, "99")

	_, err = h.svc.Therapy.AssignBatch(ctx, "ghost", []int64{1})
	assert.Equal(t, KindNotFound, KindOf(err))

	rows, err := h.svc.Therapy.AssignedExercises(ctx, "p1", nil)
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestPatientStateFollowsOpenAssignments(t *testing.T) {
	h := therapyHarness(t)
	ctx := context.Background()

	_, err := h.svc.Therapy.AssignBatch(ctx, "p1", []int64{1, 2})
	require.NoError(t, err)
	rows, err := h.svc.Therapy.AssignedExercises(ctx, "p1", nil)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	first, err := h.svc.Therapy.MarkComplete(ctx, rows[0].ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCompleted, first.Status)
	assert.Equal(t, int64(1), first.Pending)
	assert.Equal(t, models.StateActive, first.PatientState)
	assert.False(t, first.StateChanged)

	second, err := h.svc.Therapy.MarkComplete(ctx, rows[1].ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), second.Pending)
	assert.Equal(t, models.StateInactive, second.PatientState)
	assert.True(t, second.StateChanged)

	state, err := h.svc.Therapy.PatientState(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, models.StateInactive, state)

	group, err := h.svc.Therapy.AssignBatch(ctx, "p1", []int64{3})
	require.NoError(t, err)
	assert.Equal(t, 2, group)

	state, err = h.svc.Therapy.PatientState(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, models.StateActive, state)
}

func TestMarkComplete_IsIdempotent(t *testing.T) {
	h := therapyHarness(t)
	ctx := context.Background()

	_, err := h.svc.Therapy.AssignBatch(ctx, "p1", []int64{1})
	require.NoError(t, err)
	rows, err := h.svc.Therapy.AssignedExercises(ctx, "p1", nil)
	require.NoError(t, err)

	_, err = h.svc.Therapy.MarkComplete(ctx, rows[0].ID)
	require.NoError(t, err)
	again, err := h.svc.Therapy.MarkComplete(ctx, rows[0].ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCompleted, again.Status)
	assert.Equal(t, models.StateInactive, again.PatientState)
	assert.False(t, again.StateChanged)

	_, err = h.svc.Therapy.MarkComplete(ctx, 404)
	assert.Equal(t, KindNotFound, KindOf(err))
}

func TestRateAssignment(t *testing.T) {
	h := therapyHarness(t)
	ctx := context.Background()

	_, err := h.svc.Therapy.AssignBatch(ctx, "p1", []int64{1})
	require.NoError(t, err)
	rows, err := h.svc.Therapy.AssignedExercises(ctx, "p1", nil)
	require.NoError(t, err)
	id := rows[0].ID

	err = h.svc.Therapy.RateAssignment(ctx, id, models.Rating{Pain: 0, Sensation: 3, Fatigue: 3})
	assert.Equal(t, KindValidation, KindOf(err))
	err = h.svc.Therapy.RateAssignment(ctx, id, models.Rating{Pain: 3, Sensation: 6, Fatigue: 3})
	assert.Equal(t, KindValidation, KindOf(err))

	require.NoError(t, h.svc.Therapy.RateAssignment(ctx, id, models.Rating{Pain: 2, Sensation: 4, Fatigue: 5, Observations: strPtr("  ")}))
	a, err := h.store.GetAssignment(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 2, *a.Pain)
	assert.Equal(t, 5, *a.Fatigue)
	assert.Nil(t, a.Observations)

	err = h.svc.Therapy.RateAssignment(ctx, 404, models.Rating{Pain: 1, Sensation: 1, Fatigue: 1})
	assert.Equal(t, KindNotFound, KindOf(err))
}

func TestAssignedExercises_FilterAndOrder(t *testing.T) {
	h := therapyHarness(t)
	ctx := context.Background()

	_, err := h.svc.Therapy.AssignBatch(ctx, "p1", []int64{1})
	require.NoError(t, err)
	_, err = h.svc.Therapy.AssignBatch(ctx, "p1", []int64{2, 3})
	require.NoError(t, err)

	all, err := h.svc.Therapy.AssignedExercises(ctx, "p1", nil)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []int{2, 2, 1}, []int{all[0].Group, all[1].Group, all[2].Group})

	_, err = h.svc.Therapy.MarkComplete(ctx, all[2].ID)
	require.NoError(t, err)

	done, err := h.svc.Therapy.CompletedHistory(ctx, "p1")
	require.NoError(t, err)
	require.Len(t, done, 1)
	assert.Equal(t, int64(1), done[0].ExerciseID)

	pending, err := h.svc.Therapy.AssignedExercises(ctx, "p1", []string{models.StatusPending})
	require.NoError(t, err)
	assert.Len(t, pending, 2)

	_, err = h.svc.Therapy.AssignedExercises(ctx, "p1", []string{"Cancelado"})
	assert.Equal(t, KindValidation, KindOf(err))

	_, err = h.svc.Therapy.AssignedExercises(ctx, "ghost", nil)
	assert.Equal(t, KindNotFound, KindOf(err))
}

func TestGroupSummaries(t *testing.T) {
	h := therapyHarness(t)
	ctx := context.Background()

	_, err := h.svc.Therapy.AssignBatch(ctx, "p1", []int64{1, 2, 3})
	require.NoError(t, err)
	rows, err := h.svc.Therapy.AssignedExercises(ctx, "p1", nil)
	require.NoError(t, err)
	_, err = h.svc.Therapy.MarkComplete(ctx, rows[0].ID)
	require.NoError(t, err)

	got, err := h.svc.Therapy.GroupSummaries(ctx, "p1")
	require.NoError(t, err)
	want := []GroupSummary{{
		Group:      1,
		Total:      3,
		Completed:  1,
		Pending:    2,
		Progress:   33.33,
		StartedOn:  strPtr("2026-03-10"),
		FinishedOn: strPtr("2026-03-10"),
		Status:     models.StatusInProgress,
	}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("GroupSummaries mismatch (-want +got):\n%s", diff)
	}

	for _, row := range rows[1:] {
		_, err = h.svc.Therapy.MarkComplete(ctx, row.ID)
		require.NoError(t, err)
	}
	_, err = h.svc.Therapy.AssignBatch(ctx, "p1", []int64{2})
	require.NoError(t, err)

	got, err = h.svc.Therapy.GroupSummaries(ctx, "p1")
	require.NoError(t, err)
	want = []GroupSummary{
		{
			Group:     2,
			Total:     1,
			Pending:   1,
			StartedOn: strPtr("2026-03-10"),
			Status:    models.StatusInProgress,
		},
		{
			Group:      1,
			Total:      3,
			Completed:  3,
			Progress:   100,
			StartedOn:  strPtr("2026-03-10"),
			FinishedOn: strPtr("2026-03-10"),
			Status:     models.StatusCompleted,
		},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("GroupSummaries mismatch (-want +got):\n%s", diff)
	}
}

func TestGroupSummaries_EmptyPatient(t *testing.T) {
	h := therapyHarness(t)
	got, err := h.svc.Therapy.GroupSummaries(context.Background(), "p1")
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}
