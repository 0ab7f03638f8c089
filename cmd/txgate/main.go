package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/comicverse/txgate/internal/api"
	"github.com/comicverse/txgate/internal/applier"
	"github.com/comicverse/txgate/internal/config"
	"github.com/comicverse/txgate/internal/gate"
	"github.com/comicverse/txgate/internal/guard"
	"github.com/comicverse/txgate/internal/ledger"
	"github.com/comicverse/txgate/internal/matcher"
	"github.com/comicverse/txgate/internal/storage"
	"github.com/comicverse/txgate/internal/voting"

	"github.com/joho/godotenv"
)

func main() {
	fmt.Println("🌟 Starting txgate...")

	// 1. Load configuration
	_ = godotenv.Load()
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("❌ Invalid configuration: %v", err)
	}

	// 2. Configure logger
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.SlogLevel(),
	}))
	slog.SetDefault(logger)

	slog.Info("Configuration loaded",
		"rpc_server", cfg.RPCURL,
		"storage", cfg.StorageDriver,
		"api_port", cfg.APIPort,
		"log_level", cfg.LogLevel,
	)

	ctx := context.Background()

	// 3. Initialize storage
	repository, err := openStorage(ctx, cfg)
	if err != nil {
		log.Fatalf("❌ Failed to open storage: %v", err)
	}
	defer repository.Close()

	// 4. Connect to the ledger
	backend, err := ledger.Dial(ctx, cfg.RPCURL)
	if err != nil {
		log.Fatalf("❌ Failed to connect to ledger RPC: %v", err)
	}
	defer backend.Close()
	if err := backend.Ping(ctx); err != nil {
		log.Fatalf("❌ Ledger RPC is not answering: %v", err)
	}

	addresses := cfg.Addresses()
	if addresses.Comics == "" && cfg.Contracts.Admin != "" {
		comics, err := ledger.ResolveComicsAddress(ctx, backend.Caller(), cfg.Contracts.Admin)
		if err != nil {
			log.Fatalf("❌ Failed to resolve comics contract: %v", err)
		}
		addresses.Comics = comics
		slog.Info("Comics contract resolved from admin", "address", comics)
	}

	registry, err := ledger.NewRegistry(addresses)
	if err != nil {
		log.Fatalf("❌ Invalid contract addresses: %v", err)
	}
	slog.Info("Contracts registered", "contracts", registry.Names())

	// 5. Wire the gate
	contracts := ledger.NewContracts(registry, backend.Caller(), cfg.RetryStrategy())
	g := gate.New(
		ledger.NewReader(backend, registry),
		matcher.New(registry, contracts),
		guard.New(repository),
		applier.New(repository),
		cfg.DefaultBudget(),
		cfg.Budgets(),
	)
	tallier := voting.New(contracts, repository)

	// 6. Start API server
	server := api.NewServer(cfg.APIPort, repository, g, tallier, writeTimeout(cfg))
	if err := server.Start(); err != nil {
		log.Fatalf("❌ Failed to start API server: %v", err)
	}

	// 7. Wait for shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan
	slog.Warn("Interrupt received, shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("Error stopping API server", "error", err)
	}

	slog.Info("txgate stopped")
}

func openStorage(ctx context.Context, cfg *config.Config) (storage.Repository, error) {
	if cfg.StorageDriver == config.DriverMemory {
		slog.Warn("Using in-memory storage, data is lost on restart")
		return storage.NewMemoryRepository(), nil
	}

	repository, err := storage.NewPostgresRepository(ctx, cfg.DatabaseURL, cfg.DBMaxConns)
	if err != nil {
		return nil, err
	}
	if err := repository.Migrate(ctx); err != nil {
		repository.Close()
		return nil, err
	}
	slog.Info("Database connected successfully")
	return repository, nil
}

// writeTimeout leaves room for the longest polling budget plus contract reads
func writeTimeout(cfg *config.Config) time.Duration {
	longest := time.Duration(cfg.PollAttempts) * cfg.PollInterval
	for _, b := range cfg.Budgets() {
		longest = max(longest, time.Duration(b.Attempts)*b.Interval)
	}
	return longest + 30*time.Second
}
