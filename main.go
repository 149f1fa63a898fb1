package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"storefront/internal/cache"
	"storefront/internal/config"
	"storefront/internal/database"
	"storefront/internal/events"
	"storefront/internal/handlers"
	"storefront/internal/notify"
	"storefront/internal/payment"
	"storefront/internal/services"
	"storefront/internal/storage"
	"storefront/internal/store"
)

func main() {
	cfg := config.Load()
	if missing := cfg.Validate(); len(missing) > 0 {
		log.Fatalf("missing required settings: %s", strings.Join(missing, ", "))
	}

	st, closeStore := openStore(cfg)
	defer closeStore()

	idem := openIdempotency(cfg)
	pub := openPublisher(cfg)
	gw := openGateway(cfg)
	sms := notify.LogSender{}

	deps := handlers.Deps{
		Auth: services.NewAuthService(st, services.AuthConfig{
			JWTSecret:  cfg.JWTSecret,
			AccessTTL:  cfg.AccessTokenTTL,
			RefreshTTL: cfg.RefreshTokenTTL,
			OTPTTL:     cfg.OTPTTL,
		}, notify.RandomOTP{}, sms),
		Carts:  services.NewCartService(st),
		Orders: services.NewOrderService(st, idem, pub, cfg.ServiceName),
		Payments: services.NewPaymentService(st, gw, pub, services.PaymentConfig{
			GatewayTimeout:  cfg.GatewayTimeout,
			CancelOnFailure: cfg.CancelOnPaymentFailed,
			Producer:        cfg.ServiceName,
		}),
		Catalog:        services.NewCatalogService(st),
		Contacts:       services.NewContactService(st, sms),
		Blogs:          services.NewBlogService(st),
		Uploader:       storage.NewLocal(cfg.UploadDir, cfg.PublicBaseURL),
		Ping:           st.Ping,
		JWTSecret:      cfg.JWTSecret,
		CallbackSecret: cfg.PaymentCallbackSecret,
	}

	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())
	r.Static("/public/uploads", cfg.UploadDir)
	handlers.Register(r, deps)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		log.Printf("[HTTP] [INFO] listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("listen: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("[HTTP] [INFO] shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Println("[HTTP] [WARN] shutdown:", err)
	}
	if err := pub.Close(); err != nil {
		log.Println("[EVENTS] [WARN] close:", err)
	}
}

func openStore(cfg config.Config) (store.Store, func()) {
	switch cfg.StoreDriver {
	case "memory":
		log.Println("[STORE] [WARN] using in-memory store, data is lost on restart")
		return store.NewMemory(), func() {}
	case "mongo":
		client, err := database.Connect(cfg.MongoURI)
		if err != nil {
			log.Fatal(err)
		}
		db := client.Database(cfg.DBName)
		log.Println("MongoDB connected to:", db.Name())

		if err := database.EnsureIndexes(db); err != nil {
			log.Println("[STORE] [WARN] index setup:", err)
		}
		return database.NewStore(db), func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := client.Disconnect(ctx); err != nil {
				log.Println("[STORE] [WARN] mongo disconnect:", err)
			}
		}
	default:
		log.Fatalf("unknown STORE_DRIVER %q", cfg.StoreDriver)
		return store.Store{}, nil
	}
}

func openIdempotency(cfg config.Config) cache.Idempotency {
	if cfg.RedisAddr == "" {
		log.Println("[CACHE] [WARN] REDIS_ADDR not set, idempotency keys are kept in memory")
		return cache.NewMemoryIdempotency(cfg.IdempotencyTTL)
	}
	rdb := cache.NewRedisClient(cfg.RedisAddr)
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Println("[CACHE] [WARN] redis ping failed, reservations will fail until it is reachable:", err)
	}
	return cache.NewRedisIdempotency(rdb, cfg.IdempotencyTTL)
}

func openPublisher(cfg config.Config) events.Publisher {
	if len(cfg.KafkaBrokers) == 0 {
		log.Println("[EVENTS] [INFO] KAFKA_BROKERS not set, events are logged only")
		return events.LogPublisher{}
	}
	log.Printf("[EVENTS] [INFO] publishing to %s on %v", cfg.KafkaTopic, cfg.KafkaBrokers)
	return events.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic, 1024)
}

func openGateway(cfg config.Config) payment.Gateway {
	switch cfg.PaymentGateway {
	case "paypack":
		return payment.NewPaypack(payment.PaypackConfig{
			BaseURL:      cfg.PaypackBaseURL,
			ClientID:     cfg.PaypackClientID,
			ClientSecret: cfg.PaypackClientSecret,
			Timeout:      cfg.GatewayTimeout,
		})
	case "sandbox":
		log.Println("[PAYMENT] [WARN] sandbox gateway in use, no money moves")
		return payment.NewSandbox()
	default:
		log.Fatalf("unknown PAYMENT_GATEWAY %q", cfg.PaymentGateway)
		return nil
	}
}
