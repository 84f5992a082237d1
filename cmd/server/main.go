package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/subosito/gotenv"
	"go.uber.org/zap"

	"github.com/checkmatevirtue/invoicing/internal/config"
	"github.com/checkmatevirtue/invoicing/internal/domain/invoice"
	httpserver "github.com/checkmatevirtue/invoicing/internal/interfaces/http"
	"github.com/checkmatevirtue/invoicing/internal/report"
	"github.com/checkmatevirtue/invoicing/internal/service"
	"github.com/checkmatevirtue/invoicing/internal/store"
	"github.com/checkmatevirtue/invoicing/pkg/database"
	"github.com/checkmatevirtue/invoicing/pkg/utils"
)

func main() {
	// Local overrides from .env, if present.
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

	logger.Info("Starting invoicing service",
		zap.String("storage_driver", cfg.Storage.Driver),
		zap.Int("port", cfg.Server.Port))

	invoices, clients, cleanup, err := buildStores(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize storage", zap.Error(err))
	}
	defer cleanup()

	engine := invoice.NewEngine(nil)
	ids := invoice.NewIDGenerator(nil)

	invoiceService := service.NewInvoiceService(engine, invoices, clients, ids, logger)
	clientService := service.NewClientService(clients, ids, nil, logger)

	reports := report.NewGenerator(report.CompanyInfo{
		Name:    cfg.Company.Name,
		Address: cfg.Company.Address,
		Phone:   cfg.Company.Phone,
		Email:   cfg.Company.Email,
		Website: cfg.Company.Website,
	}, logger)

	server := httpserver.NewServer(httpserver.ServerConfig{
		Host:         cfg.Server.Host,
		Port:         cfg.Server.Port,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}, invoiceService, clientService, reports, logger)

	// Run until SIGINT/SIGTERM, then drain.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := server.Start(ctx); err != nil {
		logger.Fatal("HTTP server failed", zap.Error(err))
	}

	logger.Info("Server exited")
}

// buildStores wires the configured storage backend. The returned cleanup
// closes whatever the backend holds open.
func buildStores(cfg *config.Config, logger *zap.Logger) (store.InvoiceStore, store.ClientStore, func(), error) {
	switch cfg.Storage.Driver {
	case "sqlite":
		if dir := filepath.Dir(cfg.Storage.SQLitePath); dir != "." {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return nil, nil, nil, err
			}
		}
		db, err := database.New(database.Config{
			Path:            cfg.Storage.SQLitePath,
			MaxOpenConns:    cfg.Storage.MaxOpenConns,
			MaxIdleConns:    cfg.Storage.MaxIdleConns,
			ConnMaxLifetime: cfg.Storage.ConnLifetime,
		}, logger)
		if err != nil {
			return nil, nil, nil, err
		}

		migrator := database.NewMigrator(db, logger)
		if err := migrator.RunMigrations(cfg.Storage.MigrationsDir); err != nil {
			db.Close()
			return nil, nil, nil, err
		}

		return store.NewSQLiteInvoiceStore(db, logger),
			store.NewSQLiteClientStore(db, logger),
			func() { db.Close() },
			nil

	case "file":
		invoices, err := store.NewFileInvoiceStore(cfg.Storage.DataDir, logger)
		if err != nil {
			return nil, nil, nil, err
		}
		clients, err := store.NewFileClientStore(cfg.Storage.DataDir, logger)
		if err != nil {
			return nil, nil, nil, err
		}
		return invoices, clients, func() {}, nil

	default:
		return nil, nil, nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}
}
