package database

import (
	"context"
	"os"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"golang-physiobackend/models"
)

// groupStores returns the memory store plus the real backends whose
// connection strings are set, so the same checks run against Mongo (a
// replica set, for transactions) and Postgres when they are available.
func groupStores(t *testing.T) map[string]Store {
	t.Helper()
	ctx := context.Background()
	stores := map[string]Store{DriverMemory: NewMemoryStore()}

	if uri := os.Getenv("TEST_MONGO_URI"); uri != "" {
		store, err := Open(ctx, Options{Driver: DriverMongo, MongoURI: uri, MongoDatabase: "fisio_test"})
		require.NoError(t, err)
		t.Cleanup(func() { store.Close(context.Background()) })
		stores[DriverMongo] = store
	}
	if dsn := os.Getenv("TEST_DATABASE_URL"); dsn != "" {
		store, err := Open(ctx, Options{Driver: DriverPostgres, PostgresDSN: dsn})
		require.NoError(t, err)
		t.Cleanup(func() { store.Close(context.Background()) })
		stores[DriverPostgres] = store
	}
	return stores
}

func TestNextGroup_ConcurrentBatchesGetDistinctGroups(t *testing.T) {
	const batches = 20

	for name, store := range groupStores(t) {
		store := store
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			suffix := uuid.NewString()[:8]
			cedula := "pg" + suffix
			require.NoError(t, store.CreatePatient(ctx, &models.Patient{
				Cedula: cedula, Name: "Paciente", Email: cedula + "@x.com", State: models.StateActive,
			}))
			require.NoError(t, store.UpsertExercise(ctx, &models.Exercise{ID: 9001, Name: "Sentadilla", Description: "d"}))

			groups := make([]int, batches)
			errs := make([]error, batches)
			var wg sync.WaitGroup
			for i := 0; i < batches; i++ {
				wg.Add(1)
				go func(i int) {
					defer wg.Done()
					errs[i] = store.WithTransaction(ctx, func(ctx context.Context) error {
						group, err := store.NextGroup(ctx, cedula)
						if err != nil {
							return err
						}
						groups[i] = group
						return store.InsertAssignments(ctx, []*models.Assignment{{
							Group:         group,
							PatientCedula: cedula,
							ExerciseID:    9001,
							Status:        models.StatusPending,
							AssignedOn:    time.Now().UTC().Truncate(24 * time.Hour),
						}})
					})
				}(i)
			}
			wg.Wait()

			for _, err := range errs {
				require.NoError(t, err)
			}
			sort.Ints(groups)
			want := make([]int, batches)
			for i := range want {
				want[i] = i + 1
			}
			assert.Equal(t, want, groups)

			rows, err := store.ListAssignments(ctx, cedula, nil)
			require.NoError(t, err)
			assert.Len(t, rows, batches)
		})
	}
}
