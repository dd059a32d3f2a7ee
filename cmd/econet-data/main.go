package main

import (
	"context"
	"database/sql"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"econet-data/internal/config"
	httpapi "econet-data/internal/http"
	econetmqtt "econet-data/internal/mqtt"
	"econet-data/internal/publisher"
	"econet-data/internal/repository"
	"econet-data/internal/service"
	"econet-data/internal/store"
	"econet-data/pkg/database"
	"econet-data/pkg/logger"
	pkgmqtt "econet-data/pkg/mqtt"

	"github.com/go-redis/redis/v8"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

func main() {
	// 本地开发加载 .env（不存在时忽略）
	_ = godotenv.Load()

	cfg := config.Load()

	log, err := logger.NewLogger(cfg.Log.Level, cfg.Log.Format, "econet-data")
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	kv := store.NewRedisKV(redisClient)

	// 仓储层：DB 未就绪时回退到内存 repo 支持联测
	var db *sql.DB
	var (
		binsRepo      repository.BinsRepository
		eventsRepo    repository.WasteEventsRepository
		branchesRepo  repository.BranchesRepository
		orgUnitsRepo  repository.OrgUnitsRepository
		companiesRepo repository.CompaniesRepository
		cleanersRepo  repository.CleanersRepository
	)
	if cfg.DBEnabled {
		if d, derr := database.NewPostgresDB(&cfg.Database); derr == nil {
			db = d
			log.Info("DB enabled for econet-data")
		} else {
			log.Warn("DB enabled but connection failed, falling back to memory repos", zap.Error(derr))
		}
	}
	if db != nil {
		binsRepo = repository.NewPostgresBinsRepository(db)
		eventsRepo = repository.NewPostgresWasteEventsRepository(db)
		branchesRepo = repository.NewPostgresBranchesRepository(db)
		orgUnitsRepo = repository.NewPostgresOrgUnitsRepository(db)
		companiesRepo = repository.NewPostgresCompaniesRepository(db)
		cleanersRepo = repository.NewPostgresCleanersRepository(db)
	} else {
		memBins := repository.NewMemoryBinsRepository()
		memOrg := repository.NewMemoryOrgRepository()
		binsRepo = memBins
		eventsRepo = repository.NewMemoryWasteEventsRepository(memBins)
		branchesRepo = memOrg
		orgUnitsRepo = memOrg
		companiesRepo = memOrg
		cleanersRepo = memOrg
	}

	// 扇出发布：Redis Streams 常开，实时网关按配置叠加
	var pub publisher.Publisher = publisher.NewRedisStreamPublisher(redisClient, cfg.Fanout.Stream)
	if cfg.Fanout.GatewayEnabled {
		gateway := publisher.NewGatewayPublisher(
			cfg.Fanout.GatewayURL,
			time.Duration(cfg.Fanout.GatewayTimeout)*time.Second,
			log,
		)
		pub = publisher.Multi(pub, gateway)
	}

	ingestService := service.NewIngestService(binsRepo, eventsRepo, cleanersRepo, pub, kv, log)
	resolverService := service.NewResolverService(branchesRepo, orgUnitsRepo, log)
	analyticsService := service.NewAnalyticsService(eventsRepo, log, nil)

	router := httpapi.NewRouter(log)
	router.RegisterIngestRoutes(httpapi.NewIngestHandler(ingestService, log))
	router.RegisterDashboardRoutes(httpapi.NewDashboardHandler(
		resolverService, analyticsService, branchesRepo, companiesRepo, kv, log,
	))
	router.RegisterOpsRoutes(promhttp.Handler())

	// MQTT 摄入通道（秤网关批量上报，按配置启用）
	var mqttClient *pkgmqtt.Client
	if cfg.MQTT.Enabled {
		c, merr := pkgmqtt.NewClient(pkgmqtt.Options{
			Broker:   cfg.MQTT.Broker,
			ClientID: cfg.MQTT.ClientID,
			Username: cfg.MQTT.Username,
			Password: cfg.MQTT.Password,
		}, log)
		if merr != nil {
			log.Warn("MQTT enabled but connection failed, continuing without MQTT intake", zap.Error(merr))
		} else {
			mqttClient = c
			broker := econetmqtt.NewScaleBroker(ingestService, log)
			if serr := mqttClient.Subscribe(cfg.MQTT.Topic, cfg.MQTT.QoS, broker.HandleMessage); serr != nil {
				log.Error("Failed to subscribe to scale topic", zap.Error(serr))
			} else {
				log.Info("MQTT scale intake started", zap.String("topic", cfg.MQTT.Topic))
			}
		}
	}

	// 未清空提示巡检（默认每日 18:00 UTC）
	var scheduler *cron.Cron
	if cfg.Advisory.Enabled {
		advisory := service.NewAdvisoryJob(resolverService, analyticsService, log)
		scheduler = cron.New()
		if _, cerr := scheduler.AddFunc(cfg.Advisory.Spec, advisory.Run); cerr != nil {
			log.Error("Failed to schedule advisory job", zap.Error(cerr))
		} else {
			scheduler.Start()
			log.Info("Advisory job scheduled", zap.String("spec", cfg.Advisory.Spec))
		}
	}

	srv := service.NewServer(cfg.HTTP.Addr, router, log)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-sigCh:
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			log.Error("HTTP server exited", zap.Error(err))
		}
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	_ = srv.Stop(shutdownCtx)

	if scheduler != nil {
		scheduler.Stop()
	}
	if mqttClient != nil {
		mqttClient.Disconnect()
	}
	_ = redisClient.Close()
	if db != nil {
		_ = db.Close()
	}
}
