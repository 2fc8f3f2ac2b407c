package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/sngm3741/revision-landing-services/api/internal/notify"
)

// FailedNotificationRepository は failed_notifications コレクションを扱う。
type FailedNotificationRepository struct {
	collection *mongo.Collection
}

func NewFailedNotificationRepository(db *mongo.Database, collectionName string) *FailedNotificationRepository {
	return &FailedNotificationRepository{collection: db.Collection(collectionName)}
}

// SaveFailure は通知失敗を pending として保存する。
func (r *FailedNotificationRepository) SaveFailure(ctx context.Context, n *notify.FailedNotification) error {
	doc := FailedNotificationDocument{
		ID:          primitive.NewObjectID(),
		Target:      n.Target,
		LeadID:      n.LeadID,
		Identifier:  n.Identifier,
		Text:        n.Text,
		Error:       n.Error,
		Attempts:    n.Attempts,
		Status:      n.Status,
		CreatedAt:   n.CreatedAt,
		LastTriedAt: n.LastTriedAt,
	}
	if doc.Status == "" {
		doc.Status = notify.StatusPending
	}
	if _, err := r.collection.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("failed_notifications への保存に失敗: %w", err)
	}
	n.ID = doc.ID.Hex()
	return nil
}

// ListPending は再送対象を古い順に返す。
func (r *FailedNotificationRepository) ListPending(ctx context.Context, limit int) ([]notify.FailedNotification, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}
	cursor, err := r.collection.Find(ctx, bson.M{"status": notify.StatusPending}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	items := make([]notify.FailedNotification, 0)
	for cursor.Next(ctx) {
		var doc FailedNotificationDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, err
		}
		items = append(items, mapFailedNotificationDocument(doc))
	}
	return items, cursor.Err()
}

// UpdateAttempt は再送結果を記録する。
func (r *FailedNotificationRepository) UpdateAttempt(ctx context.Context, id string, attempts int, status, lastError string, triedAt time.Time) error {
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("invalid failed notification id %q: %w", id, err)
	}
	set := bson.M{
		"attempts":    attempts,
		"status":      status,
		"lastTriedAt": triedAt,
	}
	if lastError != "" {
		set["error"] = lastError
	}
	_, err = r.collection.UpdateByID(ctx, objectID, bson.M{"$set": set})
	return err
}
