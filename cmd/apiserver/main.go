// Package main runs the in-memory development storage server. It
// speaks the same wire contract as the hosted gacha service, so the
// browser and the client test suites can run against it locally.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gashapon-labs/cardstock/internal/devserver"
)

var (
	port       = flag.Int("port", 8000, "HTTP port to serve on")
	collection = flag.String("collection", "cards", "Name of the default card collection")
	seed       = flag.Bool("seed", true, "Load fixture cards, collections, and packs on startup")
	verbose    = flag.Bool("verbose", false, "Log at debug level")
)

func main() {
	flag.Parse()

	fmt.Println("Cardstock - Development Storage Server")
	fmt.Println("======================================")
	fmt.Println()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	inventory := devserver.NewInventory(*collection)
	if *seed {
		if err := devserver.Seed(inventory); err != nil {
			log.Fatalf("Failed to seed inventory: %v", err)
		}
		fmt.Println("Seeded fixture inventory")
	}

	cfg := &devserver.Config{
		Port:              *port,
		DefaultCollection: *collection,
	}
	server := devserver.NewServer(cfg, inventory, logger)

	if err := server.Start(); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}

	fmt.Printf("Storage server running at http://localhost:%d\n", *port)
	fmt.Println("Press Ctrl+C to stop")
	fmt.Println()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	fmt.Println()
	fmt.Println("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Error during shutdown: %v", err)
	}

	fmt.Println("Storage server stopped.")
}
