package mongo

import (
	"context"
	"regexp"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	adminapp "github.com/sngm3741/revision-landing-services/api/internal/admin/application"
	admindomain "github.com/sngm3741/revision-landing-services/api/internal/admin/domain"
)

// AdminLeadRepository は管理画面向けのリード参照を MongoDB で実装する。
type AdminLeadRepository struct {
	leads *mongo.Collection
}

func NewAdminLeadRepository(db *mongo.Database, collectionName string) *AdminLeadRepository {
	return &AdminLeadRepository{leads: db.Collection(collectionName)}
}

// Find は新しい順に 1 ページ分のリードを返す。
func (r *AdminLeadRepository) Find(ctx context.Context, filter adminapp.LeadFilter, paging adminapp.Paging) ([]admindomain.Lead, error) {
	findOpts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	if paging.Limit > 0 {
		findOpts.SetLimit(int64(paging.Limit))
		if paging.Page > 1 {
			findOpts.SetSkip(int64((paging.Page - 1) * paging.Limit))
		}
	}

	cursor, err := r.leads.Find(ctx, buildLeadFilter(filter), findOpts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	leads := make([]admindomain.Lead, 0)
	for cursor.Next(ctx) {
		var doc LeadDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, err
		}
		leads = append(leads, mapLeadDocument(doc))
	}
	return leads, cursor.Err()
}

func (r *AdminLeadRepository) Count(ctx context.Context, filter adminapp.LeadFilter) (int64, error) {
	return r.leads.CountDocuments(ctx, buildLeadFilter(filter))
}

func (r *AdminLeadRepository) FindByID(ctx context.Context, id string) (*admindomain.Lead, error) {
	return findLeadByID(ctx, r.leads, id)
}

// CountByRevisionType は revisionTypeId ごとの件数を集計する。
func (r *AdminLeadRepository) CountByRevisionType(ctx context.Context) (map[int]int64, error) {
	rows, err := r.groupCount(ctx, "$revisionTypeId")
	if err != nil {
		return nil, err
	}
	counts := make(map[int]int64, len(rows))
	for _, row := range rows {
		switch key := row.Key.(type) {
		case int32:
			counts[int(key)] += row.Count
		case int64:
			counts[int(key)] += row.Count
		}
	}
	return counts, nil
}

// CountBySource は utm.source ごとの件数を集計する。未設定は空文字キーにまとめる。
func (r *AdminLeadRepository) CountBySource(ctx context.Context) (map[string]int64, error) {
	rows, err := r.groupCount(ctx, bson.M{"$ifNull": bson.A{"$utm.source", ""}})
	if err != nil {
		return nil, err
	}
	counts := make(map[string]int64, len(rows))
	for _, row := range rows {
		key, _ := row.Key.(string)
		counts[key] += row.Count
	}
	return counts, nil
}

type groupCountRow struct {
	Key   any   `bson:"_id"`
	Count int64 `bson:"count"`
}

func (r *AdminLeadRepository) groupCount(ctx context.Context, key any) ([]groupCountRow, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$group", Value: bson.M{"_id": key, "count": bson.M{"$sum": 1}}}},
	}
	cursor, err := r.leads.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var rows []groupCountRow
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

func buildLeadFilter(filter adminapp.LeadFilter) bson.M {
	mongoFilter := bson.M{}
	if status := strings.TrimSpace(filter.Status); status != "" {
		mongoFilter["status"] = status
	}
	if filter.RevisionTypeID != nil {
		mongoFilter["revisionTypeId"] = *filter.RevisionTypeID
	}
	if keyword := strings.TrimSpace(filter.Keyword); keyword != "" {
		pattern := primitive.Regex{Pattern: regexp.QuoteMeta(keyword), Options: "i"}
		mongoFilter["$or"] = bson.A{
			bson.M{"name": pattern},
			bson.M{"phone": pattern},
			bson.M{"revisionTypeTitle": pattern},
		}
	}
	return mongoFilter
}
