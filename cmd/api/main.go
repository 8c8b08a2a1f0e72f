package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"storefront/internal/config"
	"storefront/internal/handler"
	"storefront/internal/infra/broker"
	"storefront/internal/infra/db"
	"storefront/internal/infra/logger"
	"storefront/internal/infra/mercadopago"
	"storefront/internal/infra/ratelimit"
	infraRepo "storefront/internal/infra/repository"
	"storefront/internal/server"
	"storefront/internal/usecase"
	auth "storefront/internal/usecase/auth_usecase"
	"storefront/internal/validator"
	"storefront/internal/webhook"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	//.envがあれば読む（本番は環境変数だけ）
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	log, err := logger.New(cfg.GoEnv)
	if err != nil {
		panic(err)
	}
	defer logger.Sync(log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	//DB接続
	gormDB, err := db.Connect(log)
	if err != nil {
		log.Fatal("failed to connect db", zap.Error(err))
	}
	if err := db.Migrate(gormDB); err != nil {
		log.Fatal("failed to migrate", zap.Error(err))
	}
	sqlDB, err := gormDB.DB()
	if err != nil {
		log.Fatal("failed to get sql db", zap.Error(err))
	}
	defer sqlDB.Close()

	//Repository（GORM実装）生成
	userRepo := infraRepo.NewUserGormRepository(gormDB)
	productRepo := infraRepo.NewProductGormRepository(gormDB)
	orderRepo := infraRepo.NewOrderGormRepository(gormDB)
	eventRepo := infraRepo.NewPaymentEventGormRepository(gormDB, cfg.WebhookInflightLease)
	txManager := infraRepo.NewTxManagerGorm(gormDB)

	//外部サービス
	mp := mercadopago.NewClient(cfg.MPAPIBase, cfg.MPAccessToken, cfg.MPHTTPTimeout)

	var limiter auth.LoginLimiter = ratelimit.NoopLoginLimiter{}
	if cfg.RedisAddr != "" {
		rdb, err := ratelimit.NewClient(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			log.Fatal("failed to connect redis", zap.Error(err))
		}
		defer rdb.Close()
		limiter = ratelimit.NewRedisLoginLimiter(rdb, cfg.LoginMaxAttempts, cfg.LoginWindow)
	} else {
		log.Warn("REDIS_ADDR is empty, login throttling disabled")
	}

	var publisher usecase.OrderEventPublisher = broker.NoopOrderEventPublisher{}
	if len(cfg.KafkaBrokers) > 0 {
		kp := broker.NewKafkaOrderEventPublisher(cfg.KafkaBrokers, cfg.KafkaTopicOrderEvents, log)
		defer kp.Close()
		publisher = kp
	} else {
		log.Warn("KAFKA_BROKERS is empty, order events are not published")
	}

	if cfg.MPWebhookSecret == "" {
		log.Warn("MP_WEBHOOK_SECRET is empty, webhook signatures cannot be verified")
	}

	//Usecase生成
	clock := auth.SystemClock()
	hasher := auth.NewBcryptPasswordHasher(12)
	verifier := auth.NewBcryptPasswordVerifier()
	issuer := auth.NewJWTIssuer(cfg.JWTSecret, auth.AccessTokenTTL)

	if cfg.AdminEmail != "" && cfg.AdminPassword != "" {
		created, err := auth.NewBootstrapAdminUsecase(userRepo, hasher, clock).Execute(ctx, auth.BootstrapAdminInput{
			Email:    cfg.AdminEmail,
			Password: cfg.AdminPassword,
		})
		if err != nil {
			log.Fatal("failed to bootstrap admin", zap.Error(err))
		}
		if created {
			log.Info("admin user created", zap.String("email", cfg.AdminEmail))
		}
	}

	loginUC := auth.NewLoginUsecase(userRepo, verifier, issuer, limiter, clock, log)
	logoutUC := auth.NewLogoutUsecase(userRepo)
	productUC := usecase.NewProductUsecase(productRepo, txManager)
	orderUC := usecase.NewOrderUsecase(orderRepo)
	adminOrderUC := usecase.NewAdminOrderUsecase(txManager, log)
	checkoutUC := usecase.NewCheckoutUsecase(productRepo, orderRepo, mp, validator.NewCheckoutValidator(), cfg.AppURL, log)
	webhookUC := usecase.NewWebhookUsecase(
		usecase.WebhookConfig{
			Secret: cfg.MPWebhookSecret,
			Policy: webhook.ParsePolicy(cfg.MPWebhookPolicy),
		},
		eventRepo,
		orderRepo,
		txManager,
		mp,
		publisher,
		log,
	)

	//Handler生成
	e := server.New(cfg, log, userRepo, server.Handlers{
		Health:       handler.NewHealthHandler(sqlDB),
		Webhook:      handler.NewWebhookHandler(webhookUC),
		Checkout:     handler.NewCheckoutHandler(checkoutUC),
		Order:        handler.NewOrderHandler(orderUC),
		Product:      handler.NewProductHandler(productUC),
		Auth:         handler.NewAuthHandler(loginUC, logoutUC),
		AdminOrder:   handler.NewAdminOrderHandler(adminOrderUC),
		AdminProduct: handler.NewAdminProductHandler(productUC),
		AdminUser:    handler.NewAdminUserHandler(cfg, userRepo, logoutUC, usecase.NewAuditLogUsecase(txManager)),
	})

	//Server起動
	if err := server.Start(ctx, e, ":"+cfg.Port, log); err != nil {
		log.Error("server stopped", zap.Error(err))
	}
}
