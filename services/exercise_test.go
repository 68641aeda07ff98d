package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"golang-physiobackend/models"
)

func TestExerciseList_UsesCache(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.catalog(t, 2, 1)

	first, err := h.svc.Exercises.List(ctx)
	require.NoError(t, err)
	require.Len(t, first, 2)
	assert.Equal(t, int64(1), first[0].ID)
	assert.Equal(t, 1, h.cache.sets)

	h.catalog(t, 3)
	cached, err := h.svc.Exercises.List(ctx)
	require.NoError(t, err)
	assert.Len(t, cached, 2)
	assert.Equal(t, 1, h.cache.sets)
}

func TestExerciseSeed_ValidatesAndInvalidates(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	valid := []models.Exercise{
		{ID: 1, Name: "Sentadilla", Description: "Piernas", Repetitions: 12, Extremity: "inferior"},
		{ID: 2, Name: "Flexión", Description: "Brazos", Repetitions: 10, Extremity: "superior"},
	}
	n, err := h.svc.Exercises.Seed(ctx, valid)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, 1, h.cache.invalidated)

	list, err := h.svc.Exercises.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 2)

	_, err = h.svc.Exercises.Seed(ctx, []models.Exercise{{ID: 0, Name: "x", Description: "y"}})
	assert.Equal(t, KindValidation, KindOf(err))

	_, err = h.svc.Exercises.Seed(ctx, []models.Exercise{
		{ID: 5, Name: "Puente", Description: "Glúteos"},
		{ID: 5, Name: "Plancha", Description: "Core"},
	})
	assert.Equal(t, KindValidation, KindOf(err))

	_, err = h.svc.Exercises.Seed(ctx, []models.Exercise{{ID: 6, Description: "sin nombre"}})
	assert.Equal(t, KindValidation, KindOf(err))

	found, err := h.store.GetExercises(ctx, []int64{5, 6})
	require.NoError(t, err)
	assert.Empty(t, found)
}

func TestExerciseVideoURL(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	for _, e := range []models.Exercise{
		{ID: 1, Name: "a", Description: "d", VideoURL: "https://youtu.be/abc"},
		{ID: 2, Name: "b", Description: "d", VideoURL: "/videos/b.mp4"},
		{ID: 3, Name: "c", Description: "d"},
	} {
		e := e
		require.NoError(t, h.store.UpsertExercise(ctx, &e))
	}

	url, err := h.svc.Exercises.VideoURL(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "https://youtu.be/abc", url)

	url, err = h.svc.Exercises.VideoURL(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.test/videos/b.mp4?sig=1", url)
	assert.Equal(t, []string{"videos/b.mp4"}, h.signer.keys)

	_, err = h.svc.Exercises.VideoURL(ctx, 3)
	assert.Equal(t, KindNotFound, KindOf(err))
	_, err = h.svc.Exercises.VideoURL(ctx, 404)
	assert.Equal(t, KindNotFound, KindOf(err))

	h.signer.err = errors.New("signature expired")
	_, err = h.svc.Exercises.VideoURL(ctx, 2)
	assert.Equal(t, KindDownstream, KindOf(err))
}

func TestExerciseVideoURL_NoSigner(t *testing.T) {
	h := newHarness(t)
	svc := New(Deps{Store: h.store})
	require.NoError(t, h.store.UpsertExercise(context.Background(), &models.Exercise{ID: 1, Name: "a", Description: "d", VideoURL: "key.mp4"}))

	_, err := svc.Exercises.VideoURL(context.Background(), 1)
	assert.Equal(t, KindDownstream, KindOf(err))
}
