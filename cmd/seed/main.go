package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/sngm3741/revision-landing-services/api/internal/config"
	mongorepo "github.com/sngm3741/revision-landing-services/api/internal/infrastructure/mongo"
	"github.com/sngm3741/revision-landing-services/api/internal/infrastructure/postgres"
	publicapp "github.com/sngm3741/revision-landing-services/api/internal/public/application"
	"github.com/sngm3741/revision-landing-services/api/internal/public/domain"
)

type seedOptions struct {
	envName    string
	leadCount  int
	drop       bool
	randomSeed int64
}

type seedConfig struct {
	LeadStore      string `env:"LEAD_STORE" envDefault:"mongo"`
	MongoURI       string `env:"MONGO_URI" envDefault:"mongodb://localhost:27017"`
	MongoDatabase  string `env:"MONGO_DB" envDefault:"revision-landing"`
	LeadCollection string `env:"LEAD_COLLECTION" envDefault:"leads"`
	PostgresDSN    string `env:"POSTGRES_DSN"`
}

var (
	familyNames = []string{"김", "이", "박", "최", "정", "강", "조", "윤", "장", "임"}
	givenNames  = []string{"민지", "서연", "지우", "하은", "수빈", "예린", "지민", "유진", "다은", "소희"}
	utmSources  = []string{"naver", "instagram", "google", "youtube", "kakao", ""}
	utmMediums  = []string{"cpc", "social", "display", "blog"}
	userAgents  = []string{
		"Mozilla/5.0 (iPhone; CPU iPhone OS 17_4 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.4 Mobile/15E148 Safari/604.1",
		"Mozilla/5.0 (Linux; Android 14; SM-S918N) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0 Mobile Safari/537.36",
		"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0 Safari/537.36",
	}
)

func main() {
	opts := parseFlags()

	envFile := filepath.Join("env", opts.envName+".env")
	if err := godotenv.Load(envFile); err != nil {
		log.Printf("%s を読み込めませんでした (環境変数のみを使用します): %v", envFile, err)
	}

	cfg, err := env.ParseAs[seedConfig]()
	if err != nil {
		log.Fatalf("環境変数の読み込みに失敗しました: %v", err)
	}
	cfg.LeadStore = strings.ToLower(strings.TrimSpace(cfg.LeadStore))

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	repo, cleanup, err := openRepository(ctx, cfg, opts.drop)
	if err != nil {
		log.Fatalf("保存先の準備に失敗しました: %v", err)
	}
	defer cleanup()

	rng := rand.New(rand.NewSource(opts.randomSeed))
	leads := generateLeads(rng, opts.leadCount, time.Now().UTC())

	inserted, skipped := 0, 0
	for i := range leads {
		if err := repo.Create(ctx, &leads[i]); err != nil {
			if errors.Is(err, domain.ErrDuplicateLead) {
				skipped++
				continue
			}
			log.Fatalf("リードの挿入に失敗しました: %v", err)
		}
		inserted++
	}

	log.Printf("Seed 完了: store=%s leads=%d skipped=%d (env=%s seed=%d)", cfg.LeadStore, inserted, skipped, opts.envName, opts.randomSeed)
}

func parseFlags() seedOptions {
	var opts seedOptions
	flag.StringVar(&opts.envName, "env", "local", "env/ 内の env ファイル名 (例: local, staging)")
	flag.IntVar(&opts.leadCount, "leads", 40, "生成するリード数")
	flag.BoolVar(&opts.drop, "drop", true, "既存リードを削除してから投入する")
	defaultSeed := time.Now().UnixNano()
	flag.Int64Var(&opts.randomSeed, "seed", defaultSeed, "乱数シード（再現用）")
	flag.Parse()

	if opts.leadCount <= 0 {
		log.Fatal("leads は 1 以上を指定してください")
	}
	return opts
}

// openRepository はスキーマ (Mongo インデックス / Postgres マイグレーション) を適用したリポジトリを返す。
func openRepository(ctx context.Context, cfg seedConfig, drop bool) (publicapp.LeadRepository, func(), error) {
	switch cfg.LeadStore {
	case config.StorePostgres:
		db, err := postgres.Connect(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, nil, err
		}
		if err := db.Migrate(ctx); err != nil {
			db.Close()
			return nil, nil, err
		}
		if drop {
			if _, err := db.Pool.Exec(ctx, "TRUNCATE TABLE leads"); err != nil {
				db.Close()
				return nil, nil, fmt.Errorf("truncate leads: %w", err)
			}
			log.Printf("既存リードを削除しました")
		}
		return postgres.NewLeadRepository(db), db.Close, nil

	case config.StoreMongo:
		client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
		if err != nil {
			return nil, nil, err
		}
		cleanup := func() { _ = client.Disconnect(context.Background()) }
		database := client.Database(cfg.MongoDatabase)
		if drop {
			// Drop は存在しない場合も err を返すので warning ログにとどめる
			if err := database.Collection(cfg.LeadCollection).Drop(ctx); err != nil {
				log.Printf("コレクション %s の削除に失敗: %v", cfg.LeadCollection, err)
			} else {
				log.Printf("既存リードを削除しました")
			}
		}
		repo := mongorepo.NewLeadRepository(database, cfg.LeadCollection)
		if err := repo.EnsureIndexes(ctx); err != nil {
			cleanup()
			return nil, nil, err
		}
		return repo, cleanup, nil

	default:
		return nil, nil, fmt.Errorf("unknown LEAD_STORE %q", cfg.LeadStore)
	}
}

// generateLeads は一意な電話番号を持つサンプルリードを生成する。
func generateLeads(rng *rand.Rand, count int, now time.Time) []domain.Lead {
	leads := make([]domain.Lead, 0, count)
	seen := make(map[string]struct{}, count)

	for len(leads) < count {
		phone := fmt.Sprintf("010-%04d-%04d", rng.Intn(10000), rng.Intn(10000))
		if _, dup := seen[phone]; dup {
			continue
		}
		seen[phone] = struct{}{}

		typeID := rng.Intn(domain.MaxRevisionTypeID + 1)
		lead := domain.Lead{
			Name:              familyNames[rng.Intn(len(familyNames))] + givenNames[rng.Intn(len(givenNames))],
			Phone:             phone,
			RevisionTypeID:    typeID,
			RevisionTypeTitle: domain.RevisionTypeTitle(typeID),
			UserAgent:         domain.StringPtr(userAgents[rng.Intn(len(userAgents))]),
			IPAddress:         domain.StringPtr(fmt.Sprintf("203.0.113.%d", rng.Intn(254)+1)),
			Status:            domain.LeadStatusNew,
			ConsentPrivacy:    true,
			CreatedAt:         now.Add(-time.Duration(rng.Intn(30*24)) * time.Hour),
		}
		if source := utmSources[rng.Intn(len(utmSources))]; source != "" {
			lead.UTM = domain.UTMParams{
				Source:   domain.StringPtr(source),
				Medium:   domain.StringPtr(utmMediums[rng.Intn(len(utmMediums))]),
				Campaign: domain.StringPtr(fmt.Sprintf("revision-%02d", rng.Intn(12)+1)),
			}
			lead.Referrer = domain.StringPtr(fmt.Sprintf("https://landing.example.com/?utm_source=%s", source))
		}
		leads = append(leads, lead)
	}
	return leads
}
