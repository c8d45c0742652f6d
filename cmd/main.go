package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/emarc99/chaincapture/internal/auth"
	"github.com/emarc99/chaincapture/internal/chain"
	"github.com/emarc99/chaincapture/internal/config"
	"github.com/emarc99/chaincapture/internal/discovery"
	"github.com/emarc99/chaincapture/internal/events"
	"github.com/emarc99/chaincapture/internal/handlers"
	"github.com/emarc99/chaincapture/internal/httpclient"
	"github.com/emarc99/chaincapture/internal/metrics"
	"github.com/emarc99/chaincapture/internal/middleware"
	"github.com/emarc99/chaincapture/internal/remix"
	"github.com/emarc99/chaincapture/internal/repository"
	service "github.com/emarc99/chaincapture/internal/services"
	"github.com/emarc99/chaincapture/internal/storage"
	"github.com/emarc99/chaincapture/internal/utils"
	"github.com/emarc99/chaincapture/internal/ws"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

func main() {
	_ = godotenv.Load()

	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "config/config.yaml"
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		panic(err)
	}

	log, err := utils.NewLogger(cfg.IsDevelopment(), cfg.Log.Level)
	if err != nil {
		panic(err)
	}
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	hc := httpclient.NewClient(httpclient.ClientConfig{Timeout: cfg.HTTPTimeout})
	m := metrics.New()

	// content store
	provider, local, err := buildProvider(ctx, cfg, hc)
	if err != nil {
		log.Fatalf("content store init: %v", err)
	}
	if p, ok := provider.(*storage.PinataStore); ok {
		if err := p.Ping(ctx); err != nil {
			log.Warnw("pinata credential check failed", "err", err)
		}
	}
	content := storage.NewContentStore(provider, cfg.IPFS.GatewayURL)
	log.Infow("content store ready", "provider", provider.Name())

	// chain
	backend, closeChain, err := buildChain(ctx, cfg, log)
	if err != nil {
		log.Fatalf("chain init: %v", err)
	}
	defer closeChain()
	log.Infow("chain ready", "mode", cfg.Chain.Mode, "contract", backend.Contract(), "signer", backend.Signer())

	// archive
	repo, closeRepo, err := buildRepo(ctx, cfg)
	if err != nil {
		log.Fatalf("mongo init: %v", err)
	}
	defer closeRepo()

	// events
	hub := ws.NewHub()
	broker, err := buildPublisher(cfg)
	if err != nil {
		log.Fatalf("events init: %v", err)
	}
	pub := events.Multi{broker, hub}
	defer func() { _ = pub.Close() }()

	uploadSvc := service.NewUploadService(content, int64(cfg.App.BodyLimitMB)<<20, log)
	regSvc := service.NewRegistrationService(backend, repo, pub, cfg.Chain.ExplorerURL, log)
	ownSvc := service.NewOwnershipService(backend, cfg.Chain.ScanLimit, log)
	rc := remix.NewClient(hc, remix.Options{
		APIKey:          cfg.ABV.APIKey,
		BaseURL:         cfg.ABV.BaseURL,
		CompletionsPath: cfg.ABV.CompletionsPath,
		Model:           cfg.ABV.Model,
	}, log)
	remixSvc := service.NewRemixService(rc, repo, pub, content.GatewayURL, log)

	// auth is optional; without a key the spending endpoints are open
	var verifier middleware.TokenVerifier
	if cfg.JWT.PublicKeyPath != "" {
		v, err := auth.NewJWTVerifier(cfg.JWT.PublicKeyPath)
		if err != nil {
			log.Fatalf("jwt init: %v", err)
		}
		verifier = v
	}

	limiter := buildLimiter(ctx, cfg, log)

	app := fiber.New(fiber.Config{
		AppName:      "chaincapture",
		BodyLimit:    cfg.App.BodyLimitMB << 20,
		ReadTimeout:  cfg.HTTPTimeout,
		WriteTimeout: cfg.HTTPTimeout,
	})
	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.App.AllowedOrigins,
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
	}))
	app.Use(m.Middleware())

	h := handlers.NewHandler(handlers.Deps{
		Upload:       uploadSvc,
		Registration: regSvc,
		Ownership:    ownSvc,
		Remix:        remixSvc,
		LocalStore:   local,
		Hub:          hub,
		Metrics:      m,
		Log:          log,
	})
	h.Routes(app, middleware.RequireJWT(verifier), middleware.RateLimit(limiter, log))

	// service discovery
	var registrar *discovery.Registrar
	if cfg.Consul.Addr != "" {
		o := discovery.Options{
			Addr:        cfg.Consul.Addr,
			ServiceName: cfg.Consul.ServiceName,
			Host:        cfg.Consul.ServiceHost,
			Port:        cfg.App.Port,
			InstanceID:  fmt.Sprintf("%s-%s", cfg.Consul.ServiceName, utils.NewID()[:8]),
		}
		registrar, err = discovery.NewRegistrar(o, log)
		if err == nil {
			err = registrar.Register(o)
		}
		if err != nil {
			log.Warnw("consul registration failed", "err", err)
			registrar = nil
		}
	}

	go func() {
		addr := fmt.Sprintf(":%d", cfg.App.Port)
		log.Infof("starting chaincapture on %s", addr)
		if err := app.Listen(addr); err != nil {
			log.Fatalf("listen failed: %v", err)
		}
	}()

	<-ctx.Done()
	log.Info("shutdown requested")
	if registrar != nil {
		_ = registrar.Deregister()
	}
	if err := app.ShutdownWithTimeout(cfg.ShutdownTimeout); err != nil {
		log.Warnw("http shutdown", "err", err)
	}
	log.Info("shutdown completed")
}

func buildProvider(ctx context.Context, cfg *config.Config, hc *httpclient.Client) (storage.Provider, *storage.LocalStore, error) {
	switch cfg.IPFS.Provider {
	case "pinata":
		return storage.NewPinataStore(hc, cfg.Pinata.APIURL, cfg.Pinata.JWT), nil, nil
	case "s3":
		s, err := storage.NewS3Store(ctx, storage.S3Options{
			Region:    cfg.S3.Region,
			Bucket:    cfg.S3.Bucket,
			Endpoint:  cfg.S3.Endpoint,
			AccessKey: cfg.S3.AccessKey,
			SecretKey: cfg.S3.SecretKey,
		})
		return s, nil, err
	case "local":
		l := storage.NewLocalStore()
		return l, l, nil
	default:
		return nil, nil, fmt.Errorf("unknown ipfs provider %q", cfg.IPFS.Provider)
	}
}

func buildChain(ctx context.Context, cfg *config.Config, log *zap.SugaredLogger) (chain.Backend, func(), error) {
	switch cfg.Chain.Mode {
	case "local":
		return chain.NewLocalChain(cfg.Chain.ChainID, ""), func() {}, nil
	case "rpc":
		dctx, cancel := context.WithTimeout(ctx, 15*time.Second)
		defer cancel()
		c, err := chain.DialRPC(dctx, chain.RPCOptions{
			URL:                   cfg.Chain.RPCURL,
			ChainID:               cfg.Chain.ChainID,
			PrivateKey:            cfg.Chain.PrivateKey,
			SPGNFTContract:        cfg.Chain.SPGNFTContract,
			RegistrationWorkflows: cfg.Chain.RegistrationWorkflows,
			IPAssetRegistry:       cfg.Chain.IPAssetRegistry,
			LicensingModule:       cfg.Chain.LicensingModule,
			PILTemplate:           cfg.Chain.PILTemplate,
			TxTimeout:             cfg.TxTimeout,
			ReadRetry:             cfg.ReadRetry,
		}, log)
		if err != nil {
			return nil, nil, err
		}
		if id, err := c.RemoteChainID(dctx); err == nil && id.Int64() != cfg.Chain.ChainID {
			log.Warnw("rpc chain id differs from config", "remote", id.String(), "config", cfg.Chain.ChainID)
		}
		return c, c.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown chain mode %q", cfg.Chain.Mode)
	}
}

func buildRepo(ctx context.Context, cfg *config.Config) (repository.AssetRepo, func(), error) {
	if cfg.Mongo.URI == "" {
		return repository.NewMemoryAssetRepo(), func() {}, nil
	}
	cctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	mc, err := mongo.Connect(cctx, options.Client().ApplyURI(cfg.Mongo.URI))
	if err != nil {
		return nil, nil, err
	}
	repo := repository.NewMongoAssetRepo(mc.Database(cfg.Mongo.Database).Collection(cfg.Mongo.Collection))
	if err := repo.EnsureIndexes(cctx); err != nil {
		_ = mc.Disconnect(context.Background())
		return nil, nil, err
	}
	return repo, func() {
		dctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = mc.Disconnect(dctx)
	}, nil
}

func buildPublisher(cfg *config.Config) (events.Publisher, error) {
	switch cfg.Events.Transport {
	case "kafka":
		return events.NewKafkaPublisher(cfg.Events.Brokers, cfg.Events.Topic), nil
	case "nats":
		return events.NewNatsPublisher(cfg.Events.NatsURL, cfg.Events.Topic)
	case "", "none":
		return events.Nop{}, nil
	default:
		return nil, fmt.Errorf("unknown events transport %q", cfg.Events.Transport)
	}
}

// buildLimiter prefers the shared redis counter and falls back to an
// in-process limiter when redis is not configured or unreachable.
func buildLimiter(ctx context.Context, cfg *config.Config, log *zap.SugaredLogger) middleware.Limiter {
	if cfg.Redis.Addr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		pctx, cancel := context.WithTimeout(ctx, 3*time.Second)
		defer cancel()
		if err := rdb.Ping(pctx).Err(); err == nil {
			return middleware.NewRedisLimiter(rdb, "chaincapture:rl", cfg.RateLimit.PerMinute, time.Minute)
		}
		log.Warnw("redis unreachable, using in-process rate limiter", "addr", cfg.Redis.Addr)
		_ = rdb.Close()
	}
	l := middleware.NewLocalLimiter(cfg.RateLimit.PerMinute, 5)
	go l.Cleanup(ctx, time.Minute, 5*time.Minute)
	return l
}
