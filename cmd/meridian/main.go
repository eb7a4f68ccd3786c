package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/meridian-erp/meridian-erp/internal/accounts"
	"github.com/meridian-erp/meridian-erp/internal/app"
	"github.com/meridian-erp/meridian-erp/internal/auth"
	"github.com/meridian-erp/meridian-erp/internal/branches"
	"github.com/meridian-erp/meridian-erp/internal/documents"
	"github.com/meridian-erp/meridian-erp/internal/ledger"
	"github.com/meridian-erp/meridian-erp/internal/masterdata/customers"
	"github.com/meridian-erp/meridian-erp/internal/masterdata/taxes"
	"github.com/meridian-erp/meridian-erp/internal/masterdata/vendors"
	"github.com/meridian-erp/meridian-erp/internal/numbering"
	"github.com/meridian-erp/meridian-erp/internal/payments"
	"github.com/meridian-erp/meridian-erp/internal/platform/cache"
	"github.com/meridian-erp/meridian-erp/internal/platform/db"
	"github.com/meridian-erp/meridian-erp/internal/platform/storage"
	"github.com/meridian-erp/meridian-erp/internal/projects"
	"github.com/meridian-erp/meridian-erp/internal/rbac"
	"github.com/meridian-erp/meridian-erp/internal/shared"
	"github.com/meridian-erp/meridian-erp/internal/users"
	"github.com/meridian-erp/meridian-erp/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	objectStore, err := storage.NewMinio(ctx, storage.Config{
		Endpoint:  cfg.StorageEndpoint,
		AccessKey: cfg.StorageAccessKey,
		SecretKey: cfg.StorageSecretKey,
		Bucket:    cfg.StorageBucket,
		UseSSL:    cfg.StorageUseSSL,
		PublicURL: cfg.StoragePublicURL,
	})
	if err != nil {
		logger.Error("connect object storage", slog.Any("error", err))
		os.Exit(1)
	}

	jobClient, err := jobs.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	if err != nil {
		logger.Error("init job client", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := jobClient.Close(); err != nil {
			logger.Warn("job client close", slog.Any("error", err))
		}
	}()

	idempotencyStore := shared.NewIdempotencyStore(pool)

	authService := auth.NewService(auth.NewRepository(pool), cfg.JWTSecret, cfg.JWTTTL)
	authHandler := auth.NewHandler(logger, authService)

	rbacService := rbac.NewService(rbac.NewRepository(pool), redisClient)
	rbacMiddleware := rbac.Middleware{Service: rbacService, Logger: logger}

	branchService := branches.NewService(branches.NewRepository(pool))
	branchHandler := branches.NewHandler(logger, branchService)

	userService := users.NewService(users.NewRepository(pool), rbacService)
	userHandler := users.NewHandler(logger, userService, branchService)

	accountService := accounts.NewService(accounts.NewRepository(pool))
	accountHandler := accounts.NewHandler(logger, accountService, branchService)

	taxService := taxes.NewService(taxes.NewRepository(pool))
	taxHandler := taxes.NewHandler(logger, taxService, branchService)

	customerService := customers.NewService(customers.NewRepository(pool))
	customerHandler := customers.NewHandler(logger, customerService, branchService)

	vendorService := vendors.NewService(vendors.NewRepository(pool))
	vendorHandler := vendors.NewHandler(logger, vendorService, branchService)

	projectService := projects.NewService(projects.NewRepository(pool), customerService)
	projectHandler := projects.NewHandler(logger, projectService, branchService)

	numberingService := numbering.NewService(numbering.NewRepository(pool))
	numberingHandler := numbering.NewHandler(logger, numberingService, branchService)

	ledgerRepo := ledger.NewRepository(pool)
	ledgerService := ledger.NewService(ledgerRepo)
	ledgerHandler := ledger.NewHandler(logger, ledgerService, branchService)

	documentService := documents.NewService(
		documents.NewRepository(pool),
		numberingService,
		taxService,
		customerService,
		vendorService,
		objectStore,
	)
	documentService.WithNotifier(documents.NewMailNotifier(customerService, vendorService, jobClient, logger))
	documentHandler := documents.NewHandler(logger, documentService, branchService)

	paymentService := payments.NewService(
		payments.PoolRunner(pool),
		payments.NewRepository(pool),
		payments.NewInvoices(pool),
		payments.NewLedgerGateway(ledgerRepo),
		numberingService,
		customerService,
		accountService,
	)
	paymentService.WithNotifier(payments.NewMailNotifier(customerService, jobClient, logger))
	paymentService.WithAudit(shared.NewAuditLogger(pool))
	paymentHandler := payments.NewHandler(logger, paymentService, branchService, idempotencyStore)

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()
	jobHandler := jobs.NewHandler(inspector, logger)

	router := app.NewRouter(app.RouterParams{
		Logger:           logger,
		Config:           cfg,
		TokenVerifier:    authService,
		AuthHandler:      authHandler,
		BranchesHandler:  branchHandler,
		UsersHandler:     userHandler,
		AccountsHandler:  accountHandler,
		TaxesHandler:     taxHandler,
		CustomersHandler: customerHandler,
		VendorsHandler:   vendorHandler,
		NumberingHandler: numberingHandler,
		DocumentsHandler: documentHandler,
		PaymentsHandler:  paymentHandler,
		LedgerHandler:    ledgerHandler,
		ProjectsHandler:  projectHandler,
		JobHandler:       jobHandler,
		RBACMiddleware:   rbacMiddleware,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
