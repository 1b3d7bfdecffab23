package logstore

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/chaodoze/multimodal-live-api-web-console/internal/logging"
)

type entryDocument struct {
	Timestamp time.Time `bson:"timestamp"`
	Category  string    `bson:"category"`
	Payload   string    `bson:"payload,omitempty"`
}

// MongoStore implements Store using MongoDB.
type MongoStore struct {
	collection *mongo.Collection
}

// NewMongoStore creates a new MongoStore.
// collectionName defaults to "logs" if empty.
func NewMongoStore(db *mongo.Database, collectionName string) *MongoStore {
	if collectionName == "" {
		collectionName = "logs"
	}
	return &MongoStore{
		collection: db.Collection(collectionName),
	}
}

func (s *MongoStore) Append(ctx context.Context, entry logging.Entry) error {
	doc := entryDocument{
		Timestamp: entry.Timestamp,
		Category:  entry.Category,
		Payload:   payloadString(entry.Payload),
	}

	_, err := s.collection.InsertOne(ctx, doc)
	if err != nil {
		return fmt.Errorf("logstore: insert entry %q: %w", entry.Category, err)
	}

	return nil
}

func (s *MongoStore) List(ctx context.Context, limit int64) ([]logging.Entry, error) {
	opts := options.Find().SetSort(bson.D{{Key: "timestamp", Value: -1}})
	if limit > 0 {
		opts = opts.SetLimit(limit)
	}

	cursor, err := s.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("logstore: find entries: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []entryDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("logstore: decode entries: %w", err)
	}

	entries := make([]logging.Entry, 0, len(docs))
	for _, doc := range docs {
		entries = append(entries, logging.Entry{
			Timestamp: doc.Timestamp,
			Category:  doc.Category,
			Payload:   doc.Payload,
		})
	}
	return entries, nil
}

func (s *MongoStore) Purge(ctx context.Context) error {
	_, err := s.collection.DeleteMany(ctx, bson.M{})
	if err != nil {
		return fmt.Errorf("logstore: purge entries: %w", err)
	}

	return nil
}

// payloadString flattens an arbitrary payload into a storable string.
// Structured payloads are kept as JSON; everything else falls back to
// fmt formatting.
func payloadString(payload any) string {
	switch v := payload.(type) {
	case nil:
		return ""
	case string:
		return v
	default:
		if data, err := json.Marshal(v); err == nil {
			return string(data)
		}
		return fmt.Sprintf("%v", v)
	}
}
