package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"golang.org/x/sync/errgroup"

	approvalhandler "veritas/internal/approval/handler"
	approvalservice "veritas/internal/approval/service"
	approvalstore "veritas/internal/approval/store"
	docshandler "veritas/internal/docs/handler"
	docsservice "veritas/internal/docs/service"
	docsstore "veritas/internal/docs/store"
	evidencehandler "veritas/internal/evidence/handler"
	evidenceservice "veritas/internal/evidence/service"
	evidencestore "veritas/internal/evidence/store"
	keyshandler "veritas/internal/keys/handler"
	keysservice "veritas/internal/keys/service"
	keysstore "veritas/internal/keys/store"
	ledgerhandler "veritas/internal/ledger/handler"
	ledgerservice "veritas/internal/ledger/service"
	ledgerstore "veritas/internal/ledger/store"
	holdcache "veritas/internal/legalhold/cache"
	holdhandler "veritas/internal/legalhold/handler"
	holdservice "veritas/internal/legalhold/service"
	holdstore "veritas/internal/legalhold/store"
	"veritas/internal/platform/config"
	"veritas/internal/platform/httpserver"
	"veritas/internal/platform/logger"
	"veritas/internal/platform/metrics"
	"veritas/internal/platform/otel"
	platformredis "veritas/internal/platform/redis"
	rbachandler "veritas/internal/rbac/handler"
	rbacservice "veritas/internal/rbac/service"
	"veritas/internal/receipt"
	httptransport "veritas/internal/transport/http"
	vaulthandler "veritas/internal/vault/handler"
	"veritas/internal/vault/keyring"
	vaultservice "veritas/internal/vault/service"
	vaultstore "veritas/internal/vault/store"
	"veritas/pkg/platform/audit"
	auditrelay "veritas/pkg/platform/audit/relay"
	auditmemory "veritas/pkg/platform/audit/store/memory"
	auditpostgres "veritas/pkg/platform/audit/store/postgres"
	auditworker "veritas/pkg/platform/audit/worker"
	"veritas/pkg/platform/tx"
)

const auditInboxSize = 1024

// main wires configuration, storage, the audit pipeline, and every domain
// vertical, then runs the HTTP server and background workers until a
// shutdown signal arrives. Business logic lives in internal services.
func main() {
	cfg, err := config.FromEnv()
	if err != nil {
		os.Stderr.WriteString("config: " + err.Error() + "\n")
		os.Exit(1)
	}
	log := logger.New(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	otelShutdown, err := otel.Setup(ctx, "veritas")
	if err != nil {
		log.Error("otel setup failed", "error", err)
		os.Exit(1)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = otelShutdown(shutdownCtx)
	}()

	var db *sql.DB
	if cfg.PostgresDSN != "" {
		db, err = sql.Open("postgres", cfg.PostgresDSN)
		if err != nil {
			log.Error("postgres open failed", "error", err)
			os.Exit(1)
		}
		defer db.Close()
		if err := db.PingContext(ctx); err != nil {
			log.Error("postgres ping failed", "error", err)
			os.Exit(1)
		}
	}

	redisClient, err := platformredis.New(cfg.Redis)
	if err != nil {
		log.Error("redis setup failed", "error", err)
		os.Exit(1)
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	kr, err := keyring.New(cfg.MasterKey)
	if err != nil {
		log.Error("keyring setup failed", "error", err)
		os.Exit(1)
	}

	m := metrics.New()

	// Audit pipeline: compliance events write through synchronously, the
	// rest drain through the inbox worker. With Kafka configured the
	// postgres outbox is relayed to the audit topic.
	var auditStore audit.Store
	if db != nil {
		auditStore = auditpostgres.New(db)
	} else {
		auditStore = auditmemory.NewInMemoryStore()
	}
	inbox := make(chan audit.Event, auditInboxSize)
	publisher := audit.NewPublisher(auditStore, audit.WithLogger(log), audit.WithInbox(inbox))
	worker := auditworker.New(auditStore, inbox, log)

	group, ctx := errgroup.WithContext(ctx)
	group.Go(func() error { return worker.Run(ctx) })

	if db != nil && len(cfg.KafkaBrokers) > 0 {
		kafkaClient, err := auditrelay.NewClient(cfg.KafkaBrokers)
		if err != nil {
			log.Error("kafka client setup failed", "error", err)
			os.Exit(1)
		}
		defer kafkaClient.Close()
		relay := auditrelay.New(db, kafkaClient, log)
		group.Go(func() error { return relay.Run(ctx) })
	}

	// Stores fall back to memory when postgres is not configured.
	var (
		chains    ledgerservice.ChainStore
		packs     evidenceservice.PackStore
		records   vaultservice.RecordStore
		keyInv    keysservice.KeyStore
		approvals approvalservice.ApprovalStore
		holds     holdservice.HoldStore
		versions  docsservice.VersionStore
	)
	if db != nil {
		chains = ledgerstore.NewPostgresStore(db)
		packs = evidencestore.NewPostgresStore(db)
		records = vaultstore.NewPostgresStore(db)
		keyInv = keysstore.NewPostgresStore(db)
		approvals = approvalstore.NewPostgresStore(db)
		holds = holdstore.NewPostgresStore(db)
		versions = docsstore.NewPostgresStore(db)
	} else {
		chains = ledgerstore.NewInMemoryStore()
		packs = evidencestore.NewInMemoryStore()
		records = vaultstore.NewInMemoryStore()
		keyInv = keysstore.NewInMemoryStore()
		approvals = approvalstore.NewInMemoryStore()
		holds = holdstore.NewInMemoryStore()
		versions = docsstore.NewInMemoryStore()
	}

	ledgerSvc := ledgerservice.New(chains,
		ledgerservice.WithLogger(log),
		ledgerservice.WithAuditPublisher(publisher),
		ledgerservice.WithMetrics(m),
		ledgerservice.WithTx(tx.NewRunner(db)),
	)
	evidenceSvc := evidenceservice.New(packs, kr,
		evidenceservice.WithLogger(log),
		evidenceservice.WithAuditPublisher(publisher),
		evidenceservice.WithMetrics(m),
	)
	vaultSvc := vaultservice.New(records, kr,
		vaultservice.WithLogger(log),
		vaultservice.WithAuditPublisher(publisher),
		vaultservice.WithMetrics(m),
	)
	approvalSvc := approvalservice.New(approvals, kr,
		approvalservice.WithLogger(log),
		approvalservice.WithAuditPublisher(publisher),
		approvalservice.WithMetrics(m),
	)
	keysSvc := keysservice.New(keyInv, approvalSvc,
		keysservice.WithLogger(log),
		keysservice.WithAuditPublisher(publisher),
		keysservice.WithMetrics(m),
	)

	var cacheClient *holdcache.Cache
	if redisClient != nil {
		cacheClient = holdcache.New(redisClient.Client, holdcache.WithLogger(log))
	}
	holdSvc := holdservice.New(holds,
		holdservice.WithLogger(log),
		holdservice.WithAuditPublisher(publisher),
		holdservice.WithMetrics(m),
		holdservice.WithCache(cacheClient),
	)
	docsSvc := docsservice.New(versions, holdSvc,
		docsservice.WithLogger(log),
		docsservice.WithAuditPublisher(publisher),
	)
	rbacSvc := rbacservice.New(
		rbacservice.WithLogger(log),
		rbacservice.WithAuditPublisher(publisher),
	)

	receiptKey, err := kr.SealKey("verification-receipts")
	if err != nil {
		log.Error("receipt key derivation failed", "error", err)
		os.Exit(1)
	}
	receipts := receipt.NewIssuer(receiptKey, "veritas", time.Hour)

	router := httptransport.NewRouter(
		ledgerhandler.New(ledgerSvc, log, receipts),
		evidencehandler.New(evidenceSvc, log, receipts),
		vaulthandler.New(vaultSvc, log),
		keyshandler.New(keysSvc, log),
		approvalhandler.New(approvalSvc, log),
		rbachandler.New(rbacSvc, log),
		docshandler.New(docsSvc, log, receipts),
		holdhandler.New(holdSvc, log),
	)

	srv := httpserver.New(cfg.Addr, router)
	group.Go(func() error {
		log.Info("starting veritas", "addr", cfg.Addr)
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

	if err := group.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		log.Error("shutdown with error", "error", err)
		os.Exit(1)
	}
	log.Info("veritas stopped")
}
