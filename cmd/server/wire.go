package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	httpAdapter "github.com/iho/erpledger/internal/adapter/http"
	"github.com/iho/erpledger/internal/adapter/http/handler"
	"github.com/iho/erpledger/internal/adapter/http/middleware"
	"github.com/iho/erpledger/internal/adapter/repository/memory"
	postgresRepo "github.com/iho/erpledger/internal/adapter/repository/postgres"
	redisRepo "github.com/iho/erpledger/internal/adapter/repository/redis"
	"github.com/iho/erpledger/internal/domain"
	"github.com/iho/erpledger/internal/infrastructure/auth"
	"github.com/iho/erpledger/internal/infrastructure/config"
	"github.com/iho/erpledger/internal/infrastructure/eventpublisher"
	"github.com/iho/erpledger/internal/infrastructure/metrics"
	"github.com/iho/erpledger/internal/infrastructure/postgres"
	"github.com/iho/erpledger/internal/infrastructure/redis"
	"github.com/iho/erpledger/internal/infrastructure/websocket"
	"github.com/iho/erpledger/internal/usecase"
)

// storage groups the repositories of one storage driver.
type storage struct {
	deps        usecase.PostingDeps
	paymentRepo usecase.PaymentRepository
	docRepo     usecase.DocumentRepository
	contactRepo usecase.ContactRepository
	rateRepo    usecase.ExchangeRateRepository
	ledgerRepo  usecase.LedgerRepository
	checks      []handler.HealthCheck
	close       func()
}

// kvStores groups the key/value backed services. publisher is nil when
// Redis is not configured.
type kvStores struct {
	cache       usecase.Cache
	idempotency usecase.IdempotencyStore
	locks       usecase.RecordLockStore
	publisher   eventpublisher.Publisher
	checks      []handler.HealthCheck
	close       func()
}

// app is the fully wired server.
type app struct {
	router      http.Handler
	outbox      *eventpublisher.EventPublisher
	rateLimiter *middleware.RateLimiter
	close       func()
}

func openStorage(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*storage, error) {
	switch cfg.StorageDriver {
	case config.StorageMemory:
		logger.Warn().Msg("using in-memory storage, data is lost on restart")
		return memoryStorage(), nil
	case config.StoragePostgres:
		return postgresStorage(ctx, cfg, logger)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.StorageDriver)
	}
}

func memoryStorage() *storage {
	store := memory.New()
	return &storage{
		deps: usecase.PostingDeps{
			TxManager:   store,
			CompanyRepo: memory.NewCompanyRepository(store),
			AccountRepo: memory.NewAccountRepository(store),
			JournalRepo: memory.NewJournalRepository(store),
			OutboxRepo:  memory.NewOutboxRepository(store),
			AuditRepo:   memory.NewAuditRepository(store),
		},
		paymentRepo: memory.NewPaymentRepository(store),
		docRepo:     memory.NewDocumentRepository(store),
		contactRepo: memory.NewContactRepository(store),
		rateRepo:    memory.NewExchangeRateRepository(store),
		ledgerRepo:  memory.NewLedgerRepository(store),
		close:       func() {},
	}
}

func postgresStorage(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*storage, error) {
	if cfg.AutoMigrate {
		if err := postgres.RunMigrations(cfg.DatabaseURL, cfg.MigrationsPath, logger); err != nil {
			return nil, fmt.Errorf("failed to run migrations: %w", err)
		}
	}

	pool, err := postgres.NewPool(ctx, cfg.DatabaseURL, cfg.DatabaseMaxConns, cfg.DatabaseMinConns)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}
	logger.Info().Msg("connected to postgres")

	return &storage{
		deps: usecase.PostingDeps{
			TxManager:   postgresRepo.NewTxManager(pool),
			Retrier:     postgresRepo.NewRetrier(logger),
			CompanyRepo: postgresRepo.NewCompanyRepository(pool),
			AccountRepo: postgresRepo.NewAccountRepository(pool),
			JournalRepo: postgresRepo.NewJournalRepository(pool),
			OutboxRepo:  postgresRepo.NewOutboxRepository(pool),
			AuditRepo:   postgresRepo.NewAuditRepository(pool),
		},
		paymentRepo: postgresRepo.NewPaymentRepository(pool),
		docRepo:     postgresRepo.NewDocumentRepository(pool),
		contactRepo: postgresRepo.NewContactRepository(pool),
		rateRepo:    postgresRepo.NewExchangeRateRepository(pool),
		ledgerRepo:  postgresRepo.NewLedgerRepository(pool),
		checks:      []handler.HealthCheck{poolCheck(pool)},
		close:       pool.Close,
	}, nil
}

func poolCheck(pool *pgxpool.Pool) handler.HealthCheck {
	return handler.HealthCheck{Name: "postgres", Ping: pool.Ping}
}

// openKV connects to Redis when REDIS_URL is set and falls back to the
// process-local store otherwise.
func openKV(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*kvStores, error) {
	if cfg.RedisURL == "" {
		logger.Warn().Msg("REDIS_URL not set, record locks and idempotency keys are process-local")
		kv := memory.NewKV()
		return &kvStores{
			cache:       kv,
			idempotency: memory.NewIdempotencyStore(kv),
			locks:       memory.NewRecordLockStore(kv),
			close:       func() {},
		}, nil
	}

	client, err := redis.NewClient(ctx, cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	logger.Info().Msg("connected to redis")

	return redisKV(client, cfg.EventChannel), nil
}

func redisKV(client *goredis.Client, channel string) *kvStores {
	return &kvStores{
		cache:       redisRepo.NewCache(client),
		idempotency: redisRepo.NewIdempotencyStore(client),
		locks:       redisRepo.NewRecordLockStore(client),
		publisher:   redisRepo.NewEventPublisher(client, channel),
		checks: []handler.HealthCheck{{
			Name: "redis",
			Ping: func(ctx context.Context) error { return client.Ping(ctx).Err() },
		}},
		close: func() { _ = client.Close() },
	}
}

// newApp wires use cases, handlers and the outbox worker over the given
// stores. m may be nil.
func newApp(cfg *config.Config, st *storage, kv *kvStores, m *metrics.Metrics, logger zerolog.Logger) *app {
	ids := postgresRepo.NewULIDGenerator()

	deps := st.deps
	deps.IDGen = ids
	deps.Metrics = m
	deps.Logger = logger
	deps.MissingAccountPolicy = usecase.MissingAccountPolicy(cfg.MissingAccountPolicy)

	rates := usecase.NewExchangeRateUseCase(st.rateRepo, kv.cache, ids, cfg.RateCacheTTL, m, logger)
	ledger := usecase.NewLedgerUseCase(st.ledgerRepo, m, logger)
	reconciliation := usecase.NewReconciliationUseCase(deps.AccountRepo, deps.JournalRepo, ledger, m, logger)
	documents := usecase.NewDocumentUseCase(deps, st.docRepo, st.contactRepo, rates, kv.locks)

	hub := websocket.NewHub()
	publishers := eventpublisher.MultiPublisher{eventpublisher.NewLogPublisher(logger), hub}
	if kv.publisher != nil {
		publishers = append(publishers, kv.publisher)
	}

	limiter := middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)

	routerCfg := httpAdapter.RouterConfig{
		CompanyHandler:      handler.NewCompanyHandler(usecase.NewCompanyUseCase(deps)),
		AccountHandler:      handler.NewAccountHandler(usecase.NewAccountUseCase(deps)),
		JournalHandler:      handler.NewJournalHandler(usecase.NewJournalUseCase(deps, kv.locks)),
		PaymentHandler:      handler.NewPaymentHandler(usecase.NewPaymentUseCase(deps, st.paymentRepo, st.docRepo, st.contactRepo, rates, kv.locks)),
		InvoiceHandler:      handler.NewDocumentHandler(documents, domain.DocumentInvoice),
		BillHandler:         handler.NewDocumentHandler(documents, domain.DocumentBill),
		ContactHandler:      handler.NewContactHandler(usecase.NewContactUseCase(deps, st.contactRepo, kv.locks)),
		ExchangeRateHandler: handler.NewExchangeRateHandler(rates),
		LockHandler:         handler.NewLockHandler(usecase.NewRecordLockUseCase(kv.locks, cfg.RecordLockTTL)),
		LedgerHandler:       handler.NewLedgerHandler(ledger, reconciliation),
		AuditHandler:        handler.NewAuditHandler(deps.AuditRepo),
		AuthHandler:         handler.NewAuthHandler(),
		HealthHandler:       handler.NewHealthHandler(append(st.checks, kv.checks...)...),
		EventHandler:        handler.NewEventHandler(hub, logger),
		AuthEnabled:         cfg.AuthEnabled,
		IdempotencyStore:    kv.idempotency,
		IdempotencyTTL:      cfg.IdempotencyTTL,
		RateLimiter:         limiter,
		CORSAllowedOrigins:  cfg.CORSAllowedOrigins,
		Logger:              logger,
	}
	if cfg.AuthEnabled {
		routerCfg.TokenVerifier = auth.NewJWTManager(cfg.JWTSecret, cfg.JWTExpiration)
	}

	return &app{
		router: httpAdapter.NewRouter(routerCfg),
		outbox: eventpublisher.NewEventPublisher(eventpublisher.Config{
			OutboxRepo: deps.OutboxRepo,
			Publisher:  publishers,
			Logger:     logger,
			Metrics:    m,
			BatchSize:  cfg.OutboxBatchSize,
			Interval:   cfg.OutboxPollInterval,
			Retention:  cfg.OutboxRetention,
		}),
		rateLimiter: limiter,
		close: func() {
			kv.close()
			st.close()
		},
	}
}

// sweepLimiters drops per-client limiters that have been idle for a while.
func sweepLimiters(ctx context.Context, limiter *middleware.RateLimiter, every time.Duration, logger zerolog.Logger) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := limiter.CleanupLimiters(every); n > 0 {
				logger.Debug().Int("removed", n).Msg("rate limiter cleanup")
			}
		}
	}
}
