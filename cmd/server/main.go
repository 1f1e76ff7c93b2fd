package main

import (
	"chat-room/infrastructure/tcp"
	"chat-room/runtime"
	"chat-room/runtime/workers"
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/Netflix/go-env"
	"github.com/joho/godotenv"
	"github.com/mama165/sdk-go/logs"
)

// Exit codes to provide meaningful status to the operating system or service manager (e.g., systemd).
const (
	exitOK      = 0
	exitRuntime = 1
	exitConfig  = 2
)

func main() {
	// The main function acts as a thin wrapper.
	// Its only responsibility is to call run() and handle the OS exit code.
	code, err := run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Server terminated with error: %v\n", err)
	}
	os.Exit(code)
}

// run initializes all components, manages the server lifecycle, and centralizes error reporting.
// This pattern is preferred over calling os.Exit or panic directly because:
// 1. It ensures all 'defer' statements are executed before the program exits.
// 2. It improves testability by decoupling the initialization logic from the main entry point.
// 3. It provides a structured way to handle graceful shutdowns for the listener and background workers.
func run() (int, error) {
	// 1. Configuration & Logger
	_ = godotenv.Load()
	var config Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return exitConfig, fmt.Errorf("config error: %w", err)
	}

	// The -port flag takes precedence over the PORT env var.
	port := flag.Int("port", 0, "bind the chat service to this tcp port (overrides PORT, default 5555)")
	flag.Parse()
	if *port != 0 {
		config.Port = *port
	}

	log := logs.GetLoggerFromString(config.LogLevel)

	// 2. Core: the single shared chat room
	room := runtime.NewChatroom(log)

	// 3. Workers: TCP front, plus periodic room and process gauges
	address := fmt.Sprintf("%s:%d", config.Host, config.Port)
	server := tcp.NewServer(log, room, address, config.ConnectionBufferSize)
	stats := workers.NewRoomStatsWorker(log, room, config.MetricInterval)
	health := workers.NewHealthMonitoringWorker(log, config.MetricInterval)

	// 4. Context & Signals
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 5. Supervision: blocks until the signal arrives and every worker drained
	sup := workers.NewSupervisor(log, config.RestartInterval)
	sup.Add(server, stats, health)

	log.Info("Starting chat room server", "address", address)
	sup.Run(ctx)

	log.Info("Shutdown complete")
	return exitOK, nil
}
