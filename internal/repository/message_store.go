package repository

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/Musanse/shiteni-sub006/internal/models"
)

// MessageStore is the durable record of every directed message. Everything
// above it (conversation lists, unread counts, catch-up polling) is derived
// from this store on read.
type MessageStore interface {
	Insert(ctx context.Context, m *models.Message) error
	// ListForParty returns every non-deleted message where partyID is sender
	// or recipient, ascending by (created_at, _id). A non-empty convScope
	// additionally restricts to that conversation_id; staff callers pass
	// their unit id here so one vendor can never see another vendor's
	// threads.
	ListForParty(ctx context.Context, partyID, convScope string) ([]*models.Message, error)
	// ListBetween returns the most recent limit non-deleted messages
	// exchanged between the two parties, ascending by (created_at, _id).
	ListBetween(ctx context.Context, partyID, counterpartID string, limit int64) ([]*models.Message, error)
	// ListNewer returns non-deleted messages between the two parties created
	// at or after since, ascending. Inclusive on purpose: timestamps are
	// millisecond-truncated, so a strict cut-off would skip messages landing
	// in the same instant as the caller's cursor. Callers dedup by id.
	ListNewer(ctx context.Context, partyID, counterpartID string, since time.Time) ([]*models.Message, error)
	// MarkRead flips is_read on the given ids, restricted to messages whose
	// recipient is recipientID. Returns the number of rows that changed.
	MarkRead(ctx context.Context, ids []string, recipientID string) (int64, error)
	SoftDelete(ctx context.Context, id string) error
}

type mongoMessageStore struct {
	coll *mongo.Collection
}

func NewMongoMessageStore(db *mongo.Database, collection string) MessageStore {
	coll := db.Collection(collection)
	_, _ = coll.Indexes().CreateMany(context.Background(), []mongo.IndexModel{
		{Keys: bson.D{{Key: "conversation_id", Value: 1}, {Key: "created_at", Value: 1}}},
		{Keys: bson.D{{Key: "sender_id", Value: 1}}},
		{Keys: bson.D{{Key: "recipient_id", Value: 1}}},
	})
	return &mongoMessageStore{coll: coll}
}

func (s *mongoMessageStore) Insert(ctx context.Context, m *models.Message) error {
	_, err := s.coll.InsertOne(ctx, m)
	return err
}

func (s *mongoMessageStore) ListForParty(ctx context.Context, partyID, convScope string) ([]*models.Message, error) {
	filter := bson.M{
		"is_deleted": false,
		"$or": bson.A{
			bson.M{"sender_id": partyID},
			bson.M{"recipient_id": partyID},
		},
	}
	if convScope != "" {
		filter["conversation_id"] = convScope
	}
	return s.find(ctx, filter, ascending(), 0)
}

func (s *mongoMessageStore) ListBetween(ctx context.Context, partyID, counterpartID string, limit int64) ([]*models.Message, error) {
	filter := betweenFilter(partyID, counterpartID)
	if limit <= 0 {
		return s.find(ctx, filter, ascending(), 0)
	}
	// fetch the newest limit rows, then reverse to chronological order
	msgs, err := s.find(ctx, filter, descending(), limit)
	if err != nil {
		return nil, err
	}
	for i, j := 0, len(msgs)-1; i < j; i, j = i+1, j-1 {
		msgs[i], msgs[j] = msgs[j], msgs[i]
	}
	return msgs, nil
}

func (s *mongoMessageStore) ListNewer(ctx context.Context, partyID, counterpartID string, since time.Time) ([]*models.Message, error) {
	filter := betweenFilter(partyID, counterpartID)
	filter["created_at"] = bson.M{"$gte": since}
	return s.find(ctx, filter, ascending(), 0)
}

func (s *mongoMessageStore) MarkRead(ctx context.Context, ids []string, recipientID string) (int64, error) {
	res, err := s.coll.UpdateMany(ctx,
		bson.M{"_id": bson.M{"$in": ids}, "recipient_id": recipientID, "is_read": false},
		bson.M{"$set": bson.M{"is_read": true}},
	)
	if err != nil {
		return 0, err
	}
	return res.ModifiedCount, nil
}

func (s *mongoMessageStore) SoftDelete(ctx context.Context, id string) error {
	_, err := s.coll.UpdateByID(ctx, id, bson.M{"$set": bson.M{"is_deleted": true}})
	return err
}

func (s *mongoMessageStore) find(ctx context.Context, filter bson.M, sort bson.D, limit int64) ([]*models.Message, error) {
	opts := &options.FindOptions{Sort: sort}
	if limit > 0 {
		opts.Limit = &limit
	}
	cur, err := s.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []*models.Message
	for cur.Next(ctx) {
		var m models.Message
		if err := cur.Decode(&m); err != nil {
			return nil, err
		}
		out = append(out, &m)
	}
	return out, cur.Err()
}

func betweenFilter(a, b string) bson.M {
	return bson.M{
		"is_deleted": false,
		"$or": bson.A{
			bson.M{"sender_id": a, "recipient_id": b},
			bson.M{"sender_id": b, "recipient_id": a},
		},
	}
}

// _id is the tie-break so ordering is total even at equal timestamps.
func ascending() bson.D {
	return bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}}
}

func descending() bson.D {
	return bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}
}
