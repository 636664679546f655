package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/subosito/gotenv"
	"go.uber.org/zap"

	"github.com/expensio/expense-ledger/internal/access"
	"github.com/expensio/expense-ledger/internal/application/service"
	"github.com/expensio/expense-ledger/internal/config"
	"github.com/expensio/expense-ledger/internal/infrastructure/oracle"
	"github.com/expensio/expense-ledger/internal/infrastructure/persistence/repository"
	"github.com/expensio/expense-ledger/internal/infrastructure/persistence/sqlite"
	httpiface "github.com/expensio/expense-ledger/internal/interfaces/http"
	"github.com/expensio/expense-ledger/internal/proposal"
	"github.com/expensio/expense-ledger/pkg/database"
	"github.com/expensio/expense-ledger/pkg/utils"
)

func main() {
	// Local .env overrides for development
	_ = gotenv.Load()

	cfg, err := config.Load("configs/config.yaml")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := utils.NewLogger(utils.LoggerConfig{
		Level:      cfg.Logger.Level,
		OutputPath: cfg.Logger.OutputPath,
		Format:     cfg.Logger.Format,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("Starting expense ledger",
		zap.String("version", "1.0.0"),
		zap.Int("port", cfg.Server.Port))

	// Initialize database
	db, err := database.New(database.Config{
		Path:            cfg.Database.Path,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
	}, logger)
	if err != nil {
		logger.Fatal("Failed to initialize database", zap.Error(err))
	}
	defer db.Close()

	// Run migrations
	migrator := database.NewMigrator(db, logger)
	if err := migrator.RunMigrations(cfg.Database.MigrationsDir); err != nil {
		logger.Fatal("Failed to run database migrations", zap.Error(err))
	}

	// Transaction manager over the shared connection pool
	txManager := sqlite.NewDB(db.DB, logger)

	// Initialize repositories
	managerRepo := repository.NewManagerRepository(db.DB, logger)
	packageRepo := repository.NewPackageRepository(db.DB, logger)
	accessRepo := repository.NewAccessRecordRepository(db.DB, logger)
	userRepo := repository.NewUserRepository(db.DB, logger)
	balanceRepo := repository.NewBalanceRepository(db.DB, logger)
	execRepo := repository.NewProposalExecutionRepository(db.DB, logger)

	// External record oracle. The in-memory implementation is seeded out of
	// band; a chain-backed one satisfies the same ports.
	records := oracle.NewMemory()

	// Authorization provider dispatching on each manager's binding
	provider := access.NewProvider(records, records, accessRepo)

	serviceLogger := utils.NewServiceLogger(logger)

	thresholds := proposal.Thresholds{
		Quorum:  cfg.Governance.QuorumThreshold,
		Support: cfg.Governance.SupportThreshold,
	}

	// Initialize services
	identityService := service.NewIdentityService(userRepo, serviceLogger)
	managerService := service.NewManagerService(managerRepo, balanceRepo, provider, txManager,
		cfg.Ledger.ReserveFloor, serviceLogger)
	packageService := service.NewPackageService(managerRepo, packageRepo, balanceRepo, provider,
		txManager, serviceLogger)
	governanceService := service.NewGovernanceService(managerRepo, accessRepo, balanceRepo, execRepo,
		records, provider, txManager, thresholds, serviceLogger)

	// Initialize HTTP server
	server := httpiface.NewServer(httpiface.ServerConfig{
		Host:         cfg.Server.Host,
		Port:         cfg.Server.Port,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}, identityService, managerService, packageService, governanceService, serviceLogger)

	// Run until interrupted
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := server.Start(ctx); err != nil {
		logger.Fatal("HTTP server failed", zap.Error(err))
	}

	logger.Info("Server exited successfully")
}
