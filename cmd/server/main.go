package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"investgate/internal/audit"
	"investgate/internal/kyc"
	kycHandler "investgate/internal/kyc/handler"
	"investgate/internal/order"
	orderHandler "investgate/internal/order/handler"
	"investgate/internal/otp"
	"investgate/internal/platform/config"
	"investgate/internal/platform/httpserver"
	"investgate/internal/platform/logger"
	"investgate/internal/platform/metrics"
	"investgate/internal/platform/postgres"
	"investgate/internal/platform/redis"
	"investgate/internal/register"
	registerHandler "investgate/internal/register/handler"
	"investgate/internal/storage"
	"investgate/internal/token"
	httptransport "investgate/internal/transport/http"
)

// main wires dependencies and owns the process lifecycle. Redis, Postgres
// and Kafka are all optional; without them the gateway runs fully
// in-memory, which is the development default.
func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := config.FromEnv()
	log := logger.New(cfg.Environment)
	m := metrics.New()

	redisClient, err := redis.New(ctx, cfg.RedisURL)
	if err != nil {
		log.Error("redis connect failed", "error", err)
		os.Exit(1)
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	pool, err := postgres.New(ctx, cfg.PostgresURL)
	if err != nil {
		log.Error("postgres connect failed", "error", err)
		os.Exit(1)
	}
	if pool != nil {
		defer pool.Close()
	}

	var otpStore otp.Store = otp.NewInMemoryStore()
	var kycStore kyc.Store = kyc.NewInMemoryStore()
	if redisClient != nil {
		otpStore = otp.NewRedisStore(redisClient.Client)
		kycStore = kyc.NewRedisStore(redisClient.Client)
	}

	var auditStore audit.Store = audit.NewInMemoryStore()
	if pool != nil {
		pgStore := audit.NewPostgresStore(pool.Pool)
		if err := pgStore.EnsureSchema(ctx); err != nil {
			log.Error("audit schema migration failed", "error", err)
			os.Exit(1)
		}
		auditStore = pgStore
	}

	group, ctx := errgroup.WithContext(ctx)

	var publisherOpts []audit.PublisherOption
	if len(cfg.KafkaBrokers) > 0 {
		sink, err := audit.NewKafkaSink(cfg.KafkaBrokers, cfg.AuditTopic)
		if err != nil {
			log.Error("kafka connect failed", "error", err)
			os.Exit(1)
		}
		defer sink.Close()

		inbox := make(chan audit.Event, 256)
		publisherOpts = append(publisherOpts, audit.WithInbox(inbox))
		worker := audit.NewWorker(sink, inbox, log)
		group.Go(func() error {
			if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		})
	}
	auditPub := audit.NewPublisher(auditStore, log, publisherOpts...)

	tokenSvc := token.NewService(cfg.JWTSigningKey, cfg.JWTIssuer, cfg.JWTAudience)

	otpSvc, err := otp.NewService(
		otpStore,
		&otp.LogSender{Logger: log},
		log,
		m,
		cfg.OTPTTL,
		otp.WithResendCooldown(cfg.OTPResendCooldown),
	)
	if err != nil {
		log.Error("otp service init failed", "error", err)
		os.Exit(1)
	}

	registerSvc, err := register.NewService(
		register.NewInMemoryStore(), otpSvc, auditPub, tokenSvc, m, log, cfg.ResumeTokenTTL,
	)
	if err != nil {
		log.Error("register service init failed", "error", err)
		os.Exit(1)
	}

	kycSvc, err := kyc.NewService(
		kycStore,
		storage.NewInMemoryBlobStore(),
		otpSvc,
		&kyc.SimulatedProvider{Delay: 2 * time.Second, Succeed: true},
		auditPub,
		tokenSvc,
		m,
		log,
		cfg.ResumeTokenTTL,
	)
	if err != nil {
		log.Error("kyc service init failed", "error", err)
		os.Exit(1)
	}

	orderSvc, err := order.NewService(
		order.NewInMemoryStore(),
		&order.SimulatedGateway{Accept: true},
		auditPub,
		m,
		log,
	)
	if err != nil {
		log.Error("order service init failed", "error", err)
		os.Exit(1)
	}

	checks := make(map[string]httptransport.HealthChecker)
	if redisClient != nil {
		checks["redis"] = redisClient
	}
	if pool != nil {
		checks["postgres"] = pool
	}

	router := httptransport.NewRouter(httptransport.Deps{
		Register: registerHandler.New(registerSvc, log, m),
		KYC:      kycHandler.New(kycSvc, log, m, tokenSvc),
		Orders:   orderHandler.New(orderSvc, log, m, tokenSvc),
		Checks:   checks,
	})

	srv := httpserver.New(cfg.Addr, router)

	group.Go(func() error {
		log.Info("starting investgate", "addr", cfg.Addr, "environment", cfg.Environment)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	group.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := group.Wait(); err != nil {
		log.Error("shutdown with error", "error", err)
		os.Exit(1)
	}
	log.Info("investgate stopped")
}
