package forms

import (
	"context"
	"errors"
	"fmt"
	"time"

	"formulate-backend/src/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Store is the persistence the form service needs.
type Store interface {
	Insert(ctx context.Context, form *models.Form) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Form, error)
	FindByURL(ctx context.Context, uniqueURL string) (*models.Form, error)
	ListByCreator(ctx context.Context, creator primitive.ObjectID, params models.PaginationParams) ([]models.Form, int64, error)
	Replace(ctx context.Context, form *models.Form) error
	Delete(ctx context.Context, id primitive.ObjectID) error
	// TransitionStatus sets status only when the current status is one of from.
	TransitionStatus(ctx context.Context, id primitive.ObjectID, to models.FormStatus, from ...models.FormStatus) (bool, error)
	IncrementResponseCount(ctx context.Context, id primitive.ObjectID, delta int64) error
}

// MongoStore keeps forms in one collection.
type MongoStore struct {
	coll *mongo.Collection
}

func NewMongoStore(coll *mongo.Collection) *MongoStore {
	return &MongoStore{coll: coll}
}

func (s *MongoStore) Insert(ctx context.Context, form *models.Form) error {
	res, err := s.coll.InsertOne(ctx, form)
	if err != nil {
		return fmt.Errorf("insert form: %w", err)
	}
	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		form.ID = oid
	}
	return nil
}

func (s *MongoStore) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Form, error) {
	return s.findOne(ctx, bson.M{"_id": id})
}

func (s *MongoStore) FindByURL(ctx context.Context, uniqueURL string) (*models.Form, error) {
	return s.findOne(ctx, bson.M{"uniqueUrl": uniqueURL})
}

func (s *MongoStore) findOne(ctx context.Context, filter bson.M) (*models.Form, error) {
	var form models.Form
	err := s.coll.FindOne(ctx, filter).Decode(&form)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrFormNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find form: %w", err)
	}
	return &form, nil
}

func (s *MongoStore) ListByCreator(ctx context.Context, creator primitive.ObjectID, params models.PaginationParams) ([]models.Form, int64, error) {
	filter := bson.M{"creator": creator}
	total, err := s.coll.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("count forms: %w", err)
	}

	opts := options.Find().
		SetSkip(params.GetSkip()).
		SetLimit(int64(params.Limit)).
		SetSort(bson.D{{Key: params.SortBy, Value: params.SortDirection()}, {Key: "_id", Value: -1}})

	cursor, err := s.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("list forms: %w", err)
	}
	defer cursor.Close(ctx)

	var forms []models.Form
	if err := cursor.All(ctx, &forms); err != nil {
		return nil, 0, fmt.Errorf("decode forms: %w", err)
	}
	return forms, total, nil
}

func (s *MongoStore) Replace(ctx context.Context, form *models.Form) error {
	res, err := s.coll.ReplaceOne(ctx, bson.M{"_id": form.ID}, form)
	if err != nil {
		return fmt.Errorf("replace form: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrFormNotFound
	}
	return nil
}

func (s *MongoStore) Delete(ctx context.Context, id primitive.ObjectID) error {
	res, err := s.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("delete form: %w", err)
	}
	if res.DeletedCount == 0 {
		return ErrFormNotFound
	}
	return nil
}

func (s *MongoStore) TransitionStatus(ctx context.Context, id primitive.ObjectID, to models.FormStatus, from ...models.FormStatus) (bool, error) {
	res, err := s.coll.UpdateOne(ctx,
		bson.M{"_id": id, "status": bson.M{"$in": from}},
		bson.M{"$set": bson.M{"status": to, "updatedAt": time.Now()}},
	)
	if err != nil {
		return false, fmt.Errorf("update form status: %w", err)
	}
	return res.ModifiedCount > 0, nil
}

func (s *MongoStore) IncrementResponseCount(ctx context.Context, id primitive.ObjectID, delta int64) error {
	_, err := s.coll.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$inc": bson.M{"responseCount": delta}},
	)
	if err != nil {
		return fmt.Errorf("update response count: %w", err)
	}
	return nil
}
