package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/comicverse/txgate/internal/config"
	"github.com/comicverse/txgate/internal/ledger"

	"github.com/joho/godotenv"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage: inspect_tx <txHash>")
		fmt.Println("Reads RPC_URL and CONTRACT_* like txgate (STORAGE_DRIVER=memory skips DATABASE_URL)")
		os.Exit(1)
	}

	_ = godotenv.Load()
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Error loading configuration: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	backend, err := ledger.Dial(ctx, cfg.RPCURL)
	if err != nil {
		fmt.Printf("Error connecting to %s: %v\n", cfg.RPCURL, err)
		os.Exit(1)
	}
	defer backend.Close()

	addresses := cfg.Addresses()
	if addresses.Comics == "" && cfg.Contracts.Admin != "" {
		if addresses.Comics, err = ledger.ResolveComicsAddress(ctx, backend.Caller(), cfg.Contracts.Admin); err != nil {
			fmt.Printf("Error resolving comics contract: %v\n", err)
			os.Exit(1)
		}
	}
	registry, err := ledger.NewRegistry(addresses)
	if err != nil {
		fmt.Printf("Error registering contracts: %v\n", err)
		os.Exit(1)
	}

	reader := ledger.NewReader(backend, registry)
	res, err := reader.Resolve(ctx, os.Args[1], 1, time.Second)
	if err != nil {
		fmt.Printf("Error resolving transaction: %v\n", err)
		os.Exit(1)
	}
	if res.Found {
		if res.Sender, err = reader.Sender(ctx, os.Args[1]); err != nil {
			fmt.Printf("Error looking up sender: %v\n", err)
		}
	}

	out, _ := json.MarshalIndent(res, "", "  ")
	fmt.Println(string(out))
}
