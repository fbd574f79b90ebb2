package main

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/gocql/gocql"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"flower_shop/internal/audit"
	"flower_shop/internal/auth"
	"flower_shop/internal/cache"
	"flower_shop/internal/cart"
	"flower_shop/internal/catalog"
	"flower_shop/internal/checkout"
	"flower_shop/internal/config"
	"flower_shop/internal/database"
	"flower_shop/internal/events"
	"flower_shop/internal/handlers"
	"flower_shop/internal/middleware"
	"flower_shop/internal/notify"
	"flower_shop/internal/repository"
	"flower_shop/internal/routes"
	"flower_shop/internal/services"
)

// app owns every connection the process opens.
type app struct {
	cfg    *config.Config
	db     *gorm.DB
	store  *repository.Store
	redis  *redis.Client
	scylla *gocql.Session
	index  *services.ProductIndex

	publisher  *events.Publisher
	transactor *checkout.Transactor
	audit      *audit.Logger
}

// openApp connects to SQL (required) and to every optional integration that
// is configured. A failing optional integration is logged and skipped.
func openApp(ctx context.Context, cfg *config.Config) (*app, error) {
	db, err := database.OpenSQL(cfg)
	if err != nil {
		return nil, err
	}
	a := &app{cfg: cfg, db: db, store: repository.NewStore(db)}

	if a.redis, err = database.ConnectRedis(ctx, cfg); err != nil {
		log.Warn().Err(err).Msg("⚠️ Redis unavailable, carts kept in memory")
		a.redis = nil
	}

	es, err := database.ConnectElastic(cfg)
	if err != nil {
		log.Warn().Err(err).Msg("⚠️ Elasticsearch unavailable, search uses SQL")
	}
	a.index = services.NewProductIndex(es)

	if a.scylla, err = database.ConnectScylla(cfg); err != nil {
		log.Warn().Err(err).Msg("⚠️ ScyllaDB unavailable, audit goes to the log only")
		a.scylla = nil
	}
	return a, nil
}

func (a *app) router(ctx context.Context) *gin.Engine {
	cfg := a.cfg

	var carts interface {
		cart.SessionStore
		handlers.CartEvents
	}
	if a.redis != nil {
		carts = cache.NewRedisCartStore(a.redis)
	} else {
		carts = cache.NewMemoryCartStore()
	}
	products := cache.NewProductCache(a.redis, a.store)

	auditLog := audit.NewLogger(a.scylla)
	a.audit = auditLog
	if err := auditLog.EnsureSchema(); err != nil {
		log.Warn().Err(err).Msg("⚠️ audit_logs table not created")
	}

	opts := []checkout.Option{
		checkout.WithAuditor(auditLog),
		checkout.WithProductCache(products),
	}
	if brokers := cfg.KafkaBrokerList(); len(brokers) > 0 {
		a.publisher = events.NewKafkaPublisher(brokers, cfg.KafkaOrderTopic)
		opts = append(opts, checkout.WithPublisher(a.publisher))
	}
	mailer, err := notify.NewSMTPMailer(cfg, a.store)
	if err != nil {
		log.Warn().Err(err).Msg("⚠️ SMTP disabled")
	}
	if mailer != nil {
		opts = append(opts, checkout.WithNotifier(mailer))
	}
	a.transactor = checkout.NewTransactor(a.store, carts, opts...)

	minioClient, err := database.ConnectMinIO(ctx, cfg)
	if err != nil {
		log.Warn().Err(err).Msg("⚠️ MinIO unavailable, images stored on disk")
		minioClient = nil
	}

	sessionStore := middleware.NewCookieStore(cfg)
	tokens := auth.NewTokens(cfg.JWTSecret)

	h := handlers.New(handlers.Deps{
		Catalog:        catalog.New(a.store, a.index),
		Carts:          cart.NewManager(carts, products),
		CartEvents:     carts,
		Checkout:       a.transactor,
		Auth:           auth.NewService(a.store),
		Tokens:         tokens,
		Orders:         a.store,
		Images:         services.NewImageStore(minioClient, cfg.MinioBucket, cfg.MinioEndpoint, cfg.MinioUseSSL, cfg.UploadFolder),
		Audit:          auditLog,
		OAuthProviders: auth.SetupProviders(cfg, sessionStore),
	})

	return routes.New(h, routes.Options{
		Sessions:     sessionStore,
		Users:        a.store,
		Tokens:       tokens,
		Origins:      cfg.Origins(),
		UploadFolder: cfg.UploadFolder,
	})
}

func (a *app) Close() {
	if a.transactor != nil {
		a.transactor.Wait()
	}
	a.audit.Wait()
	if a.publisher != nil {
		if err := a.publisher.Close(); err != nil {
			log.Warn().Err(err).Msg("⚠️ Kafka writer close")
		}
	}
	if a.scylla != nil {
		a.scylla.Close()
	}
	if a.redis != nil {
		_ = a.redis.Close()
	}
	database.CloseSQL(a.db)
}
