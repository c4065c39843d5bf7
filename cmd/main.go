package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/go-credential-lifecycle/config"
	"github.com/oksasatya/go-credential-lifecycle/internal/container"
	pginfra "github.com/oksasatya/go-credential-lifecycle/internal/infrastructure/postgres"
	"github.com/oksasatya/go-credential-lifecycle/internal/interface/middleware"
	"github.com/oksasatya/go-credential-lifecycle/internal/router"
	"github.com/oksasatya/go-credential-lifecycle/pkg/helpers"
	"github.com/oksasatya/go-credential-lifecycle/pkg/mailer"
	mailtpl "github.com/oksasatya/go-credential-lifecycle/pkg/mailer/templates"
	"github.com/oksasatya/go-credential-lifecycle/pkg/validation"
)

func main() {
	_ = godotenv.Load() // load .env if present

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logger := helpers.NewLogger(cfg.AppName, cfg.Env)
	gin.SetMode(cfg.GinMode)
	validation.Init()

	ctx := context.Background()

	// Postgres
	if err := pginfra.Migrate(cfg.PostgresDSN(), logger); err != nil {
		logger.Fatalf("migration failed: %v", err)
	}
	pool, err := pginfra.NewPool(ctx, cfg)
	if err != nil {
		logger.Fatalf("failed to connect to postgres: %v", err)
	}
	defer pool.Close()

	// Redis backs rate limiting only; without it limits are off.
	if cfg.RedisAddr != "" {
		rdb := helpers.NewRedisClient(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		defer func() { _ = rdb.Close() }()
		container.SetRedis(rdb)
	} else {
		logger.Warn("REDIS_ADDR not set; rate limiting disabled")
	}

	// Elasticsearch account mirror
	if addrs := cfg.ESAddrs(); len(addrs) > 0 {
		es, err := helpers.NewESClient(addrs, cfg.ElasticsearchUser, cfg.ElasticsearchPass)
		if err != nil {
			logger.Fatalf("failed to init elasticsearch client: %v", err)
		}
		container.SetES(es)
	}

	// Notifications
	var dispatcher *mailer.Dispatcher
	if cfg.MailSendEnabled {
		pub, err := helpers.NewRabbitPublisher(cfg.RabbitMQURL, cfg.RabbitMQEmailQueue)
		if err != nil {
			logger.Fatalf("failed to connect to rabbitmq: %v", err)
		}
		defer pub.Close()
		dispatcher = mailer.NewDispatcher(pub, mailer.DispatcherConfig{
			QueueSize:      cfg.NotifyQueueSize,
			Workers:        cfg.NotifyWorkers,
			AttemptTimeout: cfg.NotifyTimeout,
			Brand: mailtpl.Brand{
				CompanyName: cfg.CompanyName,
				AppName:     cfg.AppName,
				SupportURL:  cfg.SupportURL,
			},
		}, logger)
		container.SetNotifier(dispatcher)
	} else {
		logger.Info("MAIL_SEND_ENABLED=false; notifications are logged, not sent")
		container.SetNotifier(mailer.NewLogNotifier(logger))
	}

	container.SetConfig(cfg)
	container.SetLogger(logger)
	container.SetPGPool(pool)
	container.SetJWT(helpers.NewJWTManager(cfg.JWTSecret, cfg.AccessTTL, cfg.RefreshTTL))

	// Gin engine and global middleware
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestIDMiddleware())
	r.Use(middleware.RealIP())
	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORSOrigins(),
		AllowMethods:     []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", middleware.RequestIDHeader},
		ExposeHeaders:    []string{"Content-Length", middleware.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	if cfg.HTTPLogEnabled {
		r.Use(gin.Logger())
	}

	reg := router.NewRegistry(r)
	router.InitModules(reg)
	reg.RegisterAll()

	srv := &http.Server{Addr: ":" + cfg.Port, Handler: r, ReadHeaderTimeout: 10 * time.Second}
	go func() {
		logger.Infof("server starting on :%s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("listen: %s\n", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down server")

	ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctxShutdown); err != nil {
		logger.WithError(err).Error("server forced to shutdown")
	}
	if dispatcher != nil {
		if err := dispatcher.Close(ctxShutdown); err != nil {
			logger.WithFields(logrus.Fields{"error": err.Error()}).Warn("notification queue not fully drained")
		}
	}
	logger.Info("server exited properly")
}
