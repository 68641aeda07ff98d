package database

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"golang-physiobackend/models"
)

const assignmentSequence = "id_terapia"

type MongoStore struct {
	client               *mongo.Client
	therapistCollection  *mongo.Collection
	patientCollection    *mongo.Collection
	exerciseCollection   *mongo.Collection
	assignmentCollection *mongo.Collection
	counterCollection    *mongo.Collection
}

func NewMongoStore(ctx context.Context, uri string, databaseName string) (*MongoStore, error) {
	client, err := DBInstance(ctx, uri)
	if err != nil {
		return nil, err
	}
	return &MongoStore{
		client:               client,
		therapistCollection:  OpenCollection(client, databaseName, "fisioterapeuta"),
		patientCollection:    OpenCollection(client, databaseName, "paciente"),
		exerciseCollection:   OpenCollection(client, databaseName, "ejercicio"),
		assignmentCollection: OpenCollection(client, databaseName, "terapia_asignada"),
		counterCollection:    OpenCollection(client, databaseName, "counters"),
	}, nil
}

func (s *MongoStore) Migrate(ctx context.Context) error {
	unique := options.Index().SetUnique(true)

	userIndexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "cedula", Value: 1}}, Options: unique},
		{Keys: bson.D{{Key: "correo", Value: 1}}, Options: unique},
	}
	if _, err := s.therapistCollection.Indexes().CreateMany(ctx, append(userIndexes,
		mongo.IndexModel{
			Keys:    bson.D{{Key: "id_pago", Value: 1}},
			Options: options.Index().SetUnique(true).SetSparse(true),
		},
	)); err != nil {
		return err
	}
	if _, err := s.patientCollection.Indexes().CreateMany(ctx, append(userIndexes,
		mongo.IndexModel{Keys: bson.D{{Key: "cedula_fisioterapeuta", Value: 1}}},
	)); err != nil {
		return err
	}
	if _, err := s.exerciseCollection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "id_ejercicio", Value: 1}}, Options: unique,
	}); err != nil {
		return err
	}
	if _, err := s.assignmentCollection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "id_terapia", Value: 1}}, Options: unique},
		{Keys: bson.D{{Key: "cedula_paciente", Value: 1}, {Key: "grupo_terapia", Value: -1}}},
	}); err != nil {
		return err
	}

	// Counters are upserted inside transactions, so the collection has to
	// exist beforehand.
	_, err := s.counterCollection.UpdateOne(ctx,
		bson.M{"_id": assignmentSequence},
		bson.M{"$setOnInsert": bson.M{"seq": int64(0)}},
		options.Update().SetUpsert(true),
	)
	return err
}

func (s *MongoStore) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if mongo.SessionFromContext(ctx) != nil {
		return fn(ctx)
	}

	session, err := s.client.StartSession()
	if err != nil {
		return err
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, fn(sc)
	})
	return err
}

func (s *MongoStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, readpref.Primary())
}

func (s *MongoStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

func findOne[T any](ctx context.Context, collection *mongo.Collection, filter bson.M) (*T, error) {
	var out T
	err := collection.FindOne(ctx, filter).Decode(&out)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func insertOne(ctx context.Context, collection *mongo.Collection, doc interface{}) error {
	_, err := collection.InsertOne(ctx, doc)
	if mongo.IsDuplicateKeyError(err) {
		return ErrDuplicate
	}
	return err
}

func setFields(ctx context.Context, collection *mongo.Collection, filter bson.M, fields bson.D) error {
	result, err := collection.UpdateOne(ctx, filter, bson.D{{Key: "$set", Value: fields}})
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *MongoStore) CreateTherapist(ctx context.Context, t *models.Therapist) error {
	return insertOne(ctx, s.therapistCollection, t)
}

func (s *MongoStore) GetTherapist(ctx context.Context, cedula string) (*models.Therapist, error) {
	return findOne[models.Therapist](ctx, s.therapistCollection, bson.M{"cedula": cedula})
}

func (s *MongoStore) GetTherapistByEmail(ctx context.Context, email string) (*models.Therapist, error) {
	return findOne[models.Therapist](ctx, s.therapistCollection, bson.M{"correo": email})
}

func (s *MongoStore) SetTherapistPassword(ctx context.Context, cedula, hash string) error {
	return setFields(ctx, s.therapistCollection, bson.M{"cedula": cedula}, bson.D{
		{Key: "contrasena", Value: hash},
		{Key: "updated_at", Value: time.Now().UTC()},
	})
}

func (s *MongoStore) ActivateTherapist(ctx context.Context, cedula, intentID string) error {
	err := setFields(ctx, s.therapistCollection, bson.M{"cedula": cedula}, bson.D{
		{Key: "estado", Value: models.StateActive},
		{Key: "id_pago", Value: intentID},
		{Key: "updated_at", Value: time.Now().UTC()},
	})
	if mongo.IsDuplicateKeyError(err) {
		return ErrDuplicate
	}
	return err
}

func (s *MongoStore) CreatePatient(ctx context.Context, p *models.Patient) error {
	return insertOne(ctx, s.patientCollection, p)
}

func (s *MongoStore) GetPatient(ctx context.Context, cedula string) (*models.Patient, error) {
	return findOne[models.Patient](ctx, s.patientCollection, bson.M{"cedula": cedula})
}

func (s *MongoStore) GetPatientByEmail(ctx context.Context, email string) (*models.Patient, error) {
	return findOne[models.Patient](ctx, s.patientCollection, bson.M{"correo": email})
}

func (s *MongoStore) SetPatientPassword(ctx context.Context, cedula, hash string) error {
	return setFields(ctx, s.patientCollection, bson.M{"cedula": cedula}, bson.D{
		{Key: "contrasena", Value: hash},
		{Key: "updated_at", Value: time.Now().UTC()},
	})
}

func (s *MongoStore) SetPatientState(ctx context.Context, cedula, state string) error {
	return setFields(ctx, s.patientCollection, bson.M{"cedula": cedula}, bson.D{
		{Key: "estado", Value: state},
		{Key: "updated_at", Value: time.Now().UTC()},
	})
}

func (s *MongoStore) ListPatientsByTherapist(ctx context.Context, therapistCedula string) ([]models.Patient, error) {
	cursor, err := s.patientCollection.Find(ctx,
		bson.M{"cedula_fisioterapeuta": therapistCedula},
		options.Find().SetSort(bson.D{{Key: "nombre", Value: 1}}),
	)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	patients := []models.Patient{}
	if err := cursor.All(ctx, &patients); err != nil {
		return nil, err
	}
	return patients, nil
}

func (s *MongoStore) UpsertExercise(ctx context.Context, e *models.Exercise) error {
	_, err := s.exerciseCollection.ReplaceOne(ctx,
		bson.M{"id_ejercicio": e.ID},
		e,
		options.Replace().SetUpsert(true),
	)
	return err
}

func (s *MongoStore) ListExercises(ctx context.Context) ([]models.Exercise, error) {
	return s.findExercises(ctx, bson.M{})
}

func (s *MongoStore) GetExercises(ctx context.Context, ids []int64) ([]models.Exercise, error) {
	return s.findExercises(ctx, bson.M{"id_ejercicio": bson.M{"$in": ids}})
}

func (s *MongoStore) findExercises(ctx context.Context, filter bson.M) ([]models.Exercise, error) {
	cursor, err := s.exerciseCollection.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "id_ejercicio", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	exercises := []models.Exercise{}
	if err := cursor.All(ctx, &exercises); err != nil {
		return nil, err
	}
	return exercises, nil
}

type counter struct {
	Seq int64 `bson:"seq"`
}

// NextGroup keeps one counter document per patient. The counter is first
// raised to the highest stored group so it never hands out a number that is
// already in use, then incremented atomically.
func (s *MongoStore) NextGroup(ctx context.Context, patientCedula string) (int, error) {
	var last models.Assignment
	err := s.assignmentCollection.FindOne(ctx,
		bson.M{"cedula_paciente": patientCedula},
		options.FindOne().SetSort(bson.D{{Key: "grupo_terapia", Value: -1}}),
	).Decode(&last)
	if err != nil && !errors.Is(err, mongo.ErrNoDocuments) {
		return 0, err
	}

	key := "grupo:" + patientCedula
	if _, err := s.counterCollection.UpdateOne(ctx,
		bson.M{"_id": key},
		bson.M{"$max": bson.M{"seq": int64(last.Group)}},
		options.Update().SetUpsert(true),
	); err != nil {
		return 0, err
	}

	next, err := s.increment(ctx, key, 1)
	if err != nil {
		return 0, err
	}
	return int(next), nil
}

func (s *MongoStore) increment(ctx context.Context, key string, by int64) (int64, error) {
	var c counter
	err := s.counterCollection.FindOneAndUpdate(ctx,
		bson.M{"_id": key},
		bson.M{"$inc": bson.M{"seq": by}},
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
	).Decode(&c)
	return c.Seq, err
}

func (s *MongoStore) InsertAssignments(ctx context.Context, rows []*models.Assignment) error {
	if len(rows) == 0 {
		return nil
	}

	last, err := s.increment(ctx, assignmentSequence, int64(len(rows)))
	if err != nil {
		return err
	}

	docs := make([]interface{}, 0, len(rows))
	first := last - int64(len(rows)) + 1
	for i, row := range rows {
		row.ID = first + int64(i)
		docs = append(docs, row)
	}

	_, err = s.assignmentCollection.InsertMany(ctx, docs)
	if mongo.IsDuplicateKeyError(err) {
		return ErrDuplicate
	}
	return err
}

func (s *MongoStore) GetAssignment(ctx context.Context, id int64) (*models.Assignment, error) {
	return findOne[models.Assignment](ctx, s.assignmentCollection, bson.M{"id_terapia": id})
}

func (s *MongoStore) CompleteAssignment(ctx context.Context, id int64, on time.Time) error {
	return setFields(ctx, s.assignmentCollection, bson.M{"id_terapia": id}, bson.D{
		{Key: "estado", Value: models.StatusCompleted},
		{Key: "fecha_realizacion", Value: on},
	})
}

func (s *MongoStore) RateAssignment(ctx context.Context, id int64, r models.Rating) error {
	return setFields(ctx, s.assignmentCollection, bson.M{"id_terapia": id}, bson.D{
		{Key: "dolor", Value: r.Pain},
		{Key: "sensacion", Value: r.Sensation},
		{Key: "cansancio", Value: r.Fatigue},
		{Key: "observaciones", Value: r.Observations},
	})
}

func (s *MongoStore) CountOpenAssignments(ctx context.Context, patientCedula string) (int64, error) {
	return s.assignmentCollection.CountDocuments(ctx, bson.M{
		"cedula_paciente": patientCedula,
		"estado":          bson.M{"$in": models.OpenStatuses},
	})
}

func (s *MongoStore) ListAssignments(ctx context.Context, patientCedula string, statuses []string) ([]models.Assignment, error) {
	filter := bson.M{"cedula_paciente": patientCedula}
	if len(statuses) > 0 {
		filter["estado"] = bson.M{"$in": statuses}
	}

	cursor, err := s.assignmentCollection.Find(ctx, filter, options.Find().SetSort(bson.D{
		{Key: "grupo_terapia", Value: -1},
		{Key: "fecha_asignacion", Value: -1},
		{Key: "id_terapia", Value: -1},
	}))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	assignments := []models.Assignment{}
	if err := cursor.All(ctx, &assignments); err != nil {
		return nil, err
	}
	return assignments, nil
}
