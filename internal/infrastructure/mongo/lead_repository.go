package mongo

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/sngm3741/revision-landing-services/api/internal/public/domain"
)

const phoneUniqueIndex = "phone_unique"

// LeadRepository は相談申込を MongoDB に保存するリポジトリ。
type LeadRepository struct {
	leads *mongo.Collection
}

// NewLeadRepository はリードコレクションを束縛したリポジトリを返す。
func NewLeadRepository(db *mongo.Database, collectionName string) *LeadRepository {
	return &LeadRepository{leads: db.Collection(collectionName)}
}

// EnsureIndexes は電話番号のユニーク制約と一覧用インデックスを作成する。
func (r *LeadRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.leads.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "phone", Value: 1}},
			Options: options.Index().SetName(phoneUniqueIndex).SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "createdAt", Value: -1}},
			Options: options.Index().SetName("created_at_desc"),
		},
		{
			Keys:    bson.D{{Key: "status", Value: 1}, {Key: "revisionTypeId", Value: 1}},
			Options: options.Index().SetName("status_revision_type"),
		},
	})
	if err != nil {
		return fmt.Errorf("leads インデックスの作成に失敗: %w", err)
	}
	return nil
}

// NewID は ObjectID を採番して16進文字列で返す。
func (r *LeadRepository) NewID() string {
	return primitive.NewObjectID().Hex()
}

// Create はリードを 1 件挿入する。lead.ID が空なら採番して書き戻す。
func (r *LeadRepository) Create(ctx context.Context, lead *domain.Lead) error {
	doc, err := newLeadDocument(lead)
	if err != nil {
		return &domain.StorageError{Op: "insert lead", Err: err}
	}
	if _, err := r.leads.InsertOne(ctx, doc); err != nil {
		return classifyWriteError("insert lead", err)
	}
	lead.ID = doc.ID.Hex()
	return nil
}

// FindByID は ObjectID の16進文字列でリードを取得する。
func (r *LeadRepository) FindByID(ctx context.Context, id string) (*domain.Lead, error) {
	return findLeadByID(ctx, r.leads, id)
}

func findLeadByID(ctx context.Context, leads *mongo.Collection, id string) (*domain.Lead, error) {
	objectID, err := primitive.ObjectIDFromHex(strings.TrimSpace(id))
	if err != nil {
		return nil, domain.ErrLeadNotFound
	}

	var doc LeadDocument
	if err := leads.FindOne(ctx, bson.M{"_id": objectID}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrLeadNotFound
		}
		return nil, &domain.StorageError{Op: "find lead", Err: err}
	}
	lead := mapLeadDocument(doc)
	return &lead, nil
}

// classifyWriteError は E11000 を重複エラーに、それ以外を StorageError に変換する。
func classifyWriteError(op string, err error) error {
	if mongo.IsDuplicateKeyError(err) {
		return fmt.Errorf("%s: %w", op, domain.ErrDuplicateLead)
	}
	return &domain.StorageError{Op: op, Err: err}
}
