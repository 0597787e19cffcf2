package common

import (
	"context"
	"log"
	"strings"

	"lamassu-dca-go/internal/api"
	"lamassu-dca-go/internal/database"
	"lamassu-dca-go/internal/lamassu"
	"lamassu-dca-go/internal/models"
	"lamassu-dca-go/internal/payments"
	"lamassu-dca-go/internal/poller"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

// init loads environment variables from .env file if it exists
func init() {
	// Environment variables can also be set via shell export, docker, etc.
	if err := godotenv.Load(); err != nil {
		log.Printf("Note: No .env file found or unable to load it: %v\n", err)
	} else {
		log.Println("✓ Loaded environment variables from .env file")
	}
}

type Services struct {
	DbService  *database.Service
	Poller     *poller.Poller
	ApiService *api.Service
}

func InitializeLogger() (*zap.Logger, func()) {
	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}

	zap.ReplaceGlobals(logger)

	cleanup := func() {
		if err := logger.Sync(); err != nil {
			if !isIgnorableSyncError(err) {
				log.Printf("Failed to sync logger: %v\n", err)
			}
		}
	}

	return logger, cleanup
}

func InitializeServices(ctx context.Context, cfg *models.Config) (*Services, error) {
	dbService, err := database.NewService(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}

	lnbits := payments.NewLNbits(cfg.LNbits)
	dispatcher := payments.NewDispatcher(dbService, lnbits)

	factory := func(remoteCfg *models.RemoteConfig) poller.RemoteSource {
		return lamassu.NewConnector(remoteCfg, cfg.Poller)
	}
	pollerService := poller.NewPoller(dbService, dispatcher, factory, cfg.Poller)

	return &Services{
		DbService:  dbService,
		Poller:     pollerService,
		ApiService: api.NewService(dbService, pollerService),
	}, nil
}

// InitializeDatabaseOnly initializes just the ledger database.
// Useful for local operations like registering clients or listing balances.
func InitializeDatabaseOnly(ctx context.Context, cfg *models.Config) (*database.Service, error) {
	dbService, err := database.NewService(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}
	return dbService, nil
}

func (cs *Services) Close() {
	if cs.DbService != nil {
		cs.DbService.Close()
	}
}

func isIgnorableSyncError(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "sync /dev/stderr: inappropriate ioctl for device") ||
		strings.Contains(msg, "sync /dev/stdout: inappropriate ioctl for device")
}
