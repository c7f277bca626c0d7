package responses

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

// Store is the persistence the response service needs.
type Store interface {
	Insert(ctx context.Context, r *models.Response) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Response, error)
	ListByForm(ctx context.Context, formID primitive.ObjectID, params models.PaginationParams) ([]models.Response, int64, error)
	// FindForSummary loads every response of the form, optionally bounded
	// by completion time.
	FindForSummary(ctx context.Context, formID primitive.ObjectID, start, end *time.Time) ([]models.Response, error)
	// CountByStatus counts every response of the form per status.
	CountByStatus(ctx context.Context, formID primitive.ObjectID) (models.ResponseRate, error)
	CompleteExistsForIP(ctx context.Context, formID primitive.ObjectID, ip string) (bool, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
	DeleteByForm(ctx context.Context, formID primitive.ObjectID) (int64, error)
	SetWebhookStatus(ctx context.Context, id primitive.ObjectID, status models.WebhookStatus) error
}

type MongoStore struct {
	coll *mongo.Collection
}

func NewMongoStore(coll *mongo.Collection) *MongoStore {
	return &MongoStore{coll: coll}
}

func (s *MongoStore) Insert(ctx context.Context, r *models.Response) error {
	res, err := s.coll.InsertOne(ctx, r)
	if err != nil {
		return fmt.Errorf("insert response: %w", err)
	}
	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		r.ID = oid
	}
	return nil
}

func (s *MongoStore) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Response, error) {
	var r models.Response
	err := s.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&r)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrResponseNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find response: %w", err)
	}
	return &r, nil
}

func (s *MongoStore) ListByForm(ctx context.Context, formID primitive.ObjectID, params models.PaginationParams) ([]models.Response, int64, error) {
	filter := bson.M{"form": formID}
	total, err := s.coll.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("count responses: %w", err)
	}
	opts := options.Find().
		SetSkip(params.GetSkip()).
		SetLimit(int64(params.Limit)).
		SetSort(bson.D{{Key: params.SortBy, Value: params.SortDirection()}, {Key: "_id", Value: -1}})

	cursor, err := s.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("list responses: %w", err)
	}
	defer cursor.Close(ctx)

	var out []models.Response
	if err := cursor.All(ctx, &out); err != nil {
		return nil, 0, fmt.Errorf("decode responses: %w", err)
	}
	return out, total, nil
}

func (s *MongoStore) FindForSummary(ctx context.Context, formID primitive.ObjectID, start, end *time.Time) ([]models.Response, error) {
	filter := bson.M{"form": formID}
	window := bson.M{}
	if start != nil {
		window["$gte"] = *start
	}
	if end != nil {
		window["$lte"] = *end
	}
	if len(window) > 0 {
		filter["completedAt"] = window
	}

	cursor, err := s.coll.Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("load responses: %w", err)
	}
	defer cursor.Close(ctx)

	var out []models.Response
	if err := cursor.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decode responses: %w", err)
	}
	return out, nil
}

func (s *MongoStore) CountByStatus(ctx context.Context, formID primitive.ObjectID) (models.ResponseRate, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"form": formID}}},
		{{Key: "$group", Value: bson.M{"_id": "$status", "count": bson.M{"$sum": 1}}}},
	}
	cursor, err := s.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return models.ResponseRate{}, fmt.Errorf("count responses by status: %w", err)
	}
	defer cursor.Close(ctx)

	var rows []struct {
		Status models.ResponseStatus `bson:"_id"`
		Count  int                   `bson:"count"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		return models.ResponseRate{}, fmt.Errorf("decode status counts: %w", err)
	}

	var rate models.ResponseRate
	for _, row := range rows {
		switch row.Status {
		case models.ResponseComplete:
			rate.Complete = row.Count
		case models.ResponsePartial:
			rate.Partial = row.Count
		case models.ResponseDraft:
			rate.Draft = row.Count
		}
	}
	return rate, nil
}

func (s *MongoStore) CompleteExistsForIP(ctx context.Context, formID primitive.ObjectID, ip string) (bool, error) {
	n, err := s.coll.CountDocuments(ctx,
		bson.M{"form": formID, "ipAddress": ip, "status": models.ResponseComplete},
		options.Count().SetLimit(1),
	)
	if err != nil {
		return false, fmt.Errorf("check duplicate: %w", err)
	}
	return n > 0, nil
}

func (s *MongoStore) Delete(ctx context.Context, id primitive.ObjectID) error {
	res, err := s.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("delete response: %w", err)
	}
	if res.DeletedCount == 0 {
		return ErrResponseNotFound
	}
	return nil
}

func (s *MongoStore) DeleteByForm(ctx context.Context, formID primitive.ObjectID) (int64, error) {
	res, err := s.coll.DeleteMany(ctx, bson.M{"form": formID})
	if err != nil {
		return 0, fmt.Errorf("delete form responses: %w", err)
	}
	return res.DeletedCount, nil
}

func (s *MongoStore) SetWebhookStatus(ctx context.Context, id primitive.ObjectID, status models.WebhookStatus) error {
	_, err := s.coll.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"webhookStatus": status}},
	)
	if err != nil {
		return fmt.Errorf("record webhook status: %w", err)
	}
	return nil
}
