package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"zklogin-salt/go-backend/internal/composition/daemonserver"
	"zklogin-salt/go-backend/internal/config"
)

var (
	version   = "dev"
	commit    = "unknown"
	buildDate = "unknown"
)

func main() {
	showVersion := flag.Bool("version", false, "print version and exit")
	addr := flag.String("addr", "", "HTTP listen address (overrides ZKLOGIN_LISTEN_ADDR)")
	configPath := flag.String("config", "", "Path to config.yaml (optional)")
	envFile := flag.String("env-file", ".env", "Path to a dotenv file loaded before the environment is read")
	flag.Parse()
	if *showVersion {
		fmt.Printf("zklogin-daemon version=%s commit=%s build_date=%s\n", version, commit, buildDate)
		return
	}

	if err := config.LoadDotEnv(*envFile); err != nil {
		log.Fatalf("zklogin-daemon failed to read env file: %v", err)
	}
	if *addr != "" {
		_ = os.Setenv("ZKLOGIN_LISTEN_ADDR", *addr)
	}
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("zklogin-daemon failed to initialize: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger := daemonserver.NewLogger(cfg, os.Stderr)
	srv := daemonserver.NewServer(cfg, logger)

	logger.Info("zklogin-daemon starting", "version", version)
	if err := srv.Run(ctx); err != nil {
		log.Fatalf("zklogin-daemon failed: %v", err)
	}
	logger.Info("zklogin-daemon stopped")
}
