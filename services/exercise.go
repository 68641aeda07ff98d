package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"golang-physiobackend/database"
	"golang-physiobackend/models"
)

var validate = validator.New()

type ExerciseService struct {
	store  database.Store
	cache  ExerciseCache
	videos VideoSigner
	log    *zap.Logger
}

func (s *ExerciseService) List(ctx context.Context) ([]models.Exercise, error) {
	if s.cache != nil {
		if exercises, ok := s.cache.Get(ctx); ok {
			return exercises, nil
		}
	}

	exercises, err := s.store.ListExercises(ctx)
	if err != nil {
		return nil, internal(err, "list exercises")
	}
	if s.cache != nil {
		s.cache.Set(ctx, exercises)
	}
	return exercises, nil
}

// VideoURL returns absolute video URLs unchanged and presigns bucket keys.
func (s *ExerciseService) VideoURL(ctx context.Context, exerciseID int64) (string, error) {
	found, err := s.store.GetExercises(ctx, []int64{exerciseID})
	if err != nil {
		return "", internal(err, "get exercise")
	}
	if len(found) == 0 {
		return "", notFound("ejercicio no encontrado")
	}

	ref := strings.TrimSpace(found[0].VideoURL)
	switch {
	case ref == "":
		return "", notFound("el ejercicio no tiene video")
	case strings.HasPrefix(ref, "http://"), strings.HasPrefix(ref, "https://"):
		return ref, nil
	case s.videos == nil:
		return "", newError(KindDownstream, "el almacenamiento de videos no está configurado", nil)
	}

	url, err := s.videos.PresignVideo(ctx, strings.TrimPrefix(ref, "/"))
	if err != nil {
		s.log.Error("presign video failed", zap.Int64("exercise", exerciseID), zap.Error(err))
		return "", downstream(err, "no se pudo generar el enlace del video")
	}
	return url, nil
}

// Seed validates every entry before writing any of them.
func (s *ExerciseService) Seed(ctx context.Context, exercises []models.Exercise) (int, error) {
	seen := make(map[int64]bool, len(exercises))
	for i := range exercises {
		e := &exercises[i]
		if e.ID <= 0 {
			return 0, validationError(fmt.Sprintf("entry %d: id must be positive", i))
		}
		if seen[e.ID] {
			return 0, validationError(fmt.Sprintf("entry %d: duplicate id %d", i, e.ID))
		}
		seen[e.ID] = true
		if err := validate.Struct(e); err != nil {
			return 0, newError(KindValidation, fmt.Sprintf("entry %d (id %d): %v", i, e.ID, err), err)
		}
	}

	err := s.store.WithTransaction(ctx, func(ctx context.Context) error {
		for i := range exercises {
			if err := s.store.UpsertExercise(ctx, &exercises[i]); err != nil {
				return internal(err, fmt.Sprintf("upsert exercise %d", exercises[i].ID))
			}
		}
		return nil
	})
	if err != nil {
		return 0, passthrough(err, "seed exercises")
	}

	if s.cache != nil {
		s.cache.Invalidate(ctx)
	}
	s.log.Info("exercise catalog seeded", zap.Int("count", len(exercises)))
	return len(exercises), nil
}
