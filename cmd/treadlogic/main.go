package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"tailscale.com/tsnet"

	treadlogic "github.com/xpasha85/treadlogic-server"
	"github.com/xpasha85/treadlogic-server/internal/config"
	"github.com/xpasha85/treadlogic-server/internal/logging"
	"github.com/xpasha85/treadlogic-server/internal/mcp"
	"github.com/xpasha85/treadlogic-server/internal/server"
	"github.com/xpasha85/treadlogic-server/internal/storage"
	"github.com/xpasha85/treadlogic-server/internal/workouts"
)

// Version is set at build time via -ldflags.
var Version = "dev"

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	envFile := flag.String("env-file", ".env", "optional dotenv file loaded before config")
	flag.Parse()

	boot := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	if err := godotenv.Load(*envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		boot.Warn("failed to load env file", "path", *envFile, "error", err)
	}

	// Load config
	cfg, err := config.Load(*configPath)
	if err != nil {
		boot.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	log, logCloser := logging.New(cfg.Logging)
	defer logCloser.Close()
	log.Info("TreadLogic starting", "version", Version)

	// Open storage
	ctx := context.Background()
	store, err := storage.Open(ctx, cfg, log)
	if err != nil {
		log.Error("failed to open storage", "error", err)
		os.Exit(1)
	}
	defer store.Close()

	svc := workouts.NewService(store, log)

	// Create server
	srv := server.New(svc, cfg.Auth.APIToken, log)

	// Admin page: directory on disk if configured, embedded copy otherwise
	var staticFS fs.FS
	if cfg.Static.Dir != "" {
		staticFS = os.DirFS(cfg.Static.Dir)
	} else {
		staticFS, err = fs.Sub(treadlogic.StaticFS, "static")
		if err != nil {
			log.Error("failed to load embedded static files", "error", err)
			os.Exit(1)
		}
	}
	srv.SetStatic(staticFS)

	// MCP over streamable HTTP
	srv.SetMCP(mcpserver.NewStreamableHTTPServer(mcp.New(svc, Version, log)))

	// Start server — tsnet or plain HTTP
	var listener net.Listener
	var tsServer *tsnet.Server

	if cfg.Tailscale.Enabled {
		tsServer = &tsnet.Server{
			Hostname: cfg.Tailscale.Hostname,
			Dir:      cfg.Tailscale.StateDir,
		}
		if err := tsServer.Start(); err != nil {
			log.Error("tsnet start failed", "error", err)
			os.Exit(1)
		}
		defer tsServer.Close()

		listener, err = tsServer.Listen("tcp", ":80")
		if err != nil {
			log.Error("tsnet listen failed", "error", err)
			os.Exit(1)
		}
		log.Info("tsnet server starting", "hostname", cfg.Tailscale.Hostname)
	} else {
		addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
		listener, err = net.Listen("tcp", addr)
		if err != nil {
			log.Error("listen failed", "addr", addr, "error", err)
			os.Exit(1)
		}
		log.Info("server starting", "addr", addr)
	}

	httpSrv := &http.Server{Handler: srv, ReadHeaderTimeout: 10 * time.Second}

	go func() {
		if err := httpSrv.Serve(listener); err != nil && err != http.ErrServerClosed {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	log.Info("shutting down", "signal", sig)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown error", "error", err)
	}
	log.Info("server stopped")
}
