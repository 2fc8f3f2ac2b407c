package server

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	adminapp "github.com/sngm3741/revision-landing-services/api/internal/admin/application"
	"github.com/sngm3741/revision-landing-services/api/internal/config"
	mongorepo "github.com/sngm3741/revision-landing-services/api/internal/infrastructure/mongo"
	"github.com/sngm3741/revision-landing-services/api/internal/infrastructure/postgres"
	"github.com/sngm3741/revision-landing-services/api/internal/notify"
	publicapp "github.com/sngm3741/revision-landing-services/api/internal/public/application"
)

// storage はリード保存先ごとのリポジトリ群とライフサイクル関数を束ねる。
type storage struct {
	name       string
	leads      publicapp.LeadRepository
	adminLeads adminapp.LeadRepository
	failures   notify.FailureStore
	ping       func(ctx context.Context) error
	close      func(ctx context.Context) error
}

// openStorage は LEAD_STORE に応じて MongoDB か PostgreSQL へ接続し、スキーマを準備する。
func openStorage(ctx context.Context, cfg config.Config) (*storage, error) {
	switch cfg.LeadStore {
	case config.StorePostgres:
		return openPostgres(ctx, cfg)
	default:
		return openMongo(ctx, cfg)
	}
}

func openMongo(ctx context.Context, cfg config.Config) (*storage, error) {
	connectCtx, cancel := context.WithTimeout(ctx, cfg.Timeout)
	defer cancel()

	clientOptions := options.Client().ApplyURI(cfg.MongoURI).SetServerAPIOptions(options.ServerAPI(options.ServerAPIVersion1))
	client, err := mongo.Connect(connectCtx, clientOptions)
	if err != nil {
		return nil, fmt.Errorf("MongoDB 接続に失敗しました: %w", err)
	}

	database := client.Database(cfg.MongoDatabase)
	leads := mongorepo.NewLeadRepository(database, cfg.LeadCollection)
	if err := leads.EnsureIndexes(connectCtx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("leads インデックスの作成に失敗しました: %w", err)
	}

	return &storage{
		name:       config.StoreMongo,
		leads:      leads,
		adminLeads: mongorepo.NewAdminLeadRepository(database, cfg.LeadCollection),
		failures:   mongorepo.NewFailedNotificationRepository(database, cfg.FailedNotificationCollection),
		ping: func(ctx context.Context) error {
			return client.Ping(ctx, readpref.Primary())
		},
		close: func(ctx context.Context) error {
			return client.Disconnect(ctx)
		},
	}, nil
}

func openPostgres(ctx context.Context, cfg config.Config) (*storage, error) {
	connectCtx, cancel := context.WithTimeout(ctx, cfg.Timeout)
	defer cancel()

	db, err := postgres.Connect(connectCtx, cfg.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("PostgreSQL 接続に失敗しました: %w", err)
	}
	if err := db.Migrate(connectCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("マイグレーションに失敗しました: %w", err)
	}

	return &storage{
		name:       config.StorePostgres,
		leads:      postgres.NewLeadRepository(db),
		adminLeads: postgres.NewAdminLeadRepository(db),
		failures:   postgres.NewFailedNotificationRepository(db),
		ping:       db.Ready,
		close: func(context.Context) error {
			db.Close()
			return nil
		},
	}, nil
}

func (s *storage) shutdown(ctx context.Context) error {
	if s == nil || s.close == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return s.close(ctx)
}
