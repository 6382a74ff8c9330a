package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"cloud.google.com/go/datastore"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	ob "github.com/panyam/oneblog"
	"github.com/panyam/oneblog/email/ses"
	"github.com/panyam/oneblog/stores"
	gaestores "github.com/panyam/oneblog/stores/gae"
	gormstores "github.com/panyam/oneblog/stores/gorm"
	mongostores "github.com/panyam/oneblog/stores/mongo"
	redisstores "github.com/panyam/oneblog/stores/redis"
)

// backends holds the stores selected by the config plus whatever must be
// closed on shutdown
type backends struct {
	Users ob.UserStore
	Blogs ob.BlogStore
	OTCs  ob.OTCStore

	closers []func(context.Context) error
}

func (b *backends) Close(ctx context.Context) {
	for i := len(b.closers) - 1; i >= 0; i-- {
		if err := b.closers[i](ctx); err != nil {
			log.Printf("Warning: closing backend: %v", err)
		}
	}
}

func openBackends(ctx context.Context, cfg *Config) (*backends, error) {
	b := &backends{}
	var err error
	switch cfg.Store {
	case "fs":
		err = b.openFS(cfg)
	case "sqlite", "postgres":
		err = b.openGorm(cfg)
	case "mongo":
		err = b.openMongo(ctx, cfg)
	case "datastore":
		err = b.openDatastore(ctx, cfg)
	default:
		err = fmt.Errorf("unknown store %q", cfg.Store)
	}
	if err == nil && cfg.RedisAddr != "" {
		err = b.openRedis(ctx, cfg)
	}
	if err != nil {
		b.Close(ctx)
		return nil, err
	}
	return b, nil
}

func (b *backends) openFS(cfg *Config) error {
	if err := os.MkdirAll(cfg.StorePath, 0755); err != nil {
		return fmt.Errorf("failed to create store directory: %w", err)
	}
	b.Users = stores.NewFSUserStore(cfg.StorePath)
	b.Blogs = stores.NewFSBlogStore(cfg.StorePath)
	b.OTCs = stores.NewFSOTCStore(cfg.StorePath)
	return nil
}

func (b *backends) openGorm(cfg *Config) error {
	var dialector gorm.Dialector
	if cfg.Store == "postgres" {
		dialector = postgres.Open(cfg.DatabaseDSN)
	} else {
		dsn := cfg.DatabaseDSN
		if dsn == "" {
			if err := os.MkdirAll(cfg.StorePath, 0755); err != nil {
				return fmt.Errorf("failed to create store directory: %w", err)
			}
			dsn = filepath.Join(cfg.StorePath, "oneblog.db")
		}
		dialector = sqlite.Open(dsn)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return fmt.Errorf("failed to open %s database: %w", cfg.Store, err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	b.closers = append(b.closers, func(context.Context) error { return sqlDB.Close() })

	if err := gormstores.AutoMigrate(db); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	log.Printf("Database connection established (type: %s)", cfg.Store)

	b.Users = gormstores.NewUserStore(db)
	b.Blogs = gormstores.NewBlogStore(db)
	b.OTCs = gormstores.NewOTCStore(db)
	return nil
}

func (b *backends) openMongo(ctx context.Context, cfg *Config) error {
	client, err := mongo.Connect(options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		return fmt.Errorf("failed to connect to mongo: %w", err)
	}
	b.closers = append(b.closers, client.Disconnect)

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx, nil); err != nil {
		return fmt.Errorf("failed to reach mongo: %w", err)
	}

	db := client.Database(cfg.MongoDB)
	if err := mongostores.EnsureIndexes(ctx, db, cfg.OTCExpiry); err != nil {
		return err
	}
	log.Printf("Mongo connection established (db: %s)", cfg.MongoDB)

	b.Users = mongostores.NewUserStore(db)
	b.Blogs = mongostores.NewBlogStore(db)
	b.OTCs = mongostores.NewOTCStore(db)
	return nil
}

func (b *backends) openDatastore(ctx context.Context, cfg *Config) error {
	client, err := datastore.NewClient(ctx, cfg.DatastoreProject)
	if err != nil {
		return fmt.Errorf("failed to create datastore client: %w", err)
	}
	b.closers = append(b.closers, func(context.Context) error { return client.Close() })

	b.Users = gaestores.NewUserStore(client, cfg.DatastoreNamespace)
	b.Blogs = gaestores.NewBlogStore(client, cfg.DatastoreNamespace)
	b.OTCs = gaestores.NewOTCStore(client, cfg.DatastoreNamespace)
	return nil
}

// openRedis moves reset codes to Redis, whatever the main store is
func (b *backends) openRedis(ctx context.Context, cfg *Config) error {
	client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	b.closers = append(b.closers, func(context.Context) error { return client.Close() })
	if err := client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("failed to reach redis at %s: %w", cfg.RedisAddr, err)
	}
	log.Printf("Reset codes stored in redis at %s", cfg.RedisAddr)
	b.OTCs = redisstores.NewOTCStore(client, "oneblog:otc")
	return nil
}

func newEmailSender(ctx context.Context, cfg *Config) (ob.SendEmail, error) {
	if cfg.EmailProvider == "ses" {
		return ses.NewSender(ctx, cfg.AWSRegion, cfg.EmailFrom, cfg.EmailFromName, cfg.OTCExpiry)
	}
	return &ob.ConsoleEmailSender{Expiry: cfg.OTCExpiry}, nil
}
