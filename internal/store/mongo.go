package store

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"powertools/internal/shared"
)

// MongoStore is the production backend. Ids are ObjectIDs rendered as hex
// strings at the API boundary.
type MongoStore struct {
	client *mongo.Client
	db     *mongo.Database
}

// ConnectMongo dials uri, pings the primary and binds the named database.
func ConnectMongo(ctx context.Context, uri, database string) (*MongoStore, error) {
	opts := options.Client().
		ApplyURI(uri).
		SetServerAPIOptions(options.ServerAPI(options.ServerAPIVersion1))
	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("mongo ping: %w", err)
	}
	return &MongoStore{client: client, db: client.Database(database)}, nil
}

func (s *MongoStore) coll(c Collection) *mongo.Collection { return s.db.Collection(string(c)) }

func (s *MongoStore) Find(ctx context.Context, c Collection, f Filter, out any) error {
	q, err := mongoFilter(f)
	if err != nil {
		if errors.Is(err, ErrInvalidID) {
			// no document can carry a malformed id
			return decodeInto([]any{}, out)
		}
		return err
	}
	cur, err := s.coll(c).Find(ctx, q)
	if err != nil {
		return fmt.Errorf("find %s: %w", c, err)
	}
	if err := cur.All(ctx, out); err != nil {
		return fmt.Errorf("find %s: %w", c, err)
	}
	return nil
}

func (s *MongoStore) FindOne(ctx context.Context, c Collection, f Filter, out any) error {
	q, err := mongoFilter(f)
	if err != nil {
		return err
	}
	if err := s.coll(c).FindOne(ctx, q).Decode(out); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return ErrNotFound
		}
		return fmt.Errorf("find %s: %w", c, err)
	}
	return nil
}

func (s *MongoStore) Insert(ctx context.Context, c Collection, doc any) (shared.InsertResult, error) {
	res, err := s.coll(c).InsertOne(ctx, doc)
	if err != nil {
		return shared.InsertResult{}, fmt.Errorf("insert %s: %w", c, err)
	}
	return shared.InsertResult{Acknowledged: true, InsertedID: idString(res.InsertedID)}, nil
}

func (s *MongoStore) Update(ctx context.Context, c Collection, f Filter, set map[string]any, upsert bool) (shared.UpdateResult, error) {
	q, err := mongoFilter(f)
	if err != nil {
		return shared.UpdateResult{}, err
	}
	res, err := s.coll(c).UpdateOne(ctx, q, bson.M{"$set": set}, options.Update().SetUpsert(upsert))
	if err != nil {
		return shared.UpdateResult{}, fmt.Errorf("update %s: %w", c, err)
	}
	out := shared.UpdateResult{
		Acknowledged:  true,
		MatchedCount:  res.MatchedCount,
		ModifiedCount: res.ModifiedCount,
		UpsertedCount: res.UpsertedCount,
	}
	if res.UpsertedID != nil {
		out.UpsertedID = idString(res.UpsertedID)
	}
	return out, nil
}

func (s *MongoStore) Delete(ctx context.Context, c Collection, f Filter) (shared.DeleteResult, error) {
	q, err := mongoFilter(f)
	if err != nil {
		if errors.Is(err, ErrInvalidID) {
			return shared.DeleteResult{Acknowledged: true}, nil
		}
		return shared.DeleteResult{}, err
	}
	res, err := s.coll(c).DeleteOne(ctx, q)
	if err != nil {
		return shared.DeleteResult{}, fmt.Errorf("delete %s: %w", c, err)
	}
	return shared.DeleteResult{Acknowledged: true, DeletedCount: res.DeletedCount}, nil
}

func (s *MongoStore) Close(ctx context.Context) error { return s.client.Disconnect(ctx) }

// mongoFilter converts f to a bson filter; the id must be ObjectID hex.
func mongoFilter(f Filter) (bson.M, error) {
	q := bson.M{}
	for k, v := range f {
		if k != IDField {
			q[k] = v
			continue
		}
		oid, err := primitive.ObjectIDFromHex(v)
		if err != nil {
			return nil, fmt.Errorf("%w: %q", ErrInvalidID, v)
		}
		q[IDField] = oid
	}
	return q, nil
}

func idString(v any) string {
	switch id := v.(type) {
	case primitive.ObjectID:
		return id.Hex()
	case string:
		return id
	default:
		return fmt.Sprint(id)
	}
}
