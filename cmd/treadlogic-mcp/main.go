package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/mark3labs/mcp-go/server"

	"github.com/xpasha85/treadlogic-server/internal/mcp"
)

// Version is set at build time via -ldflags.
var Version = "dev"

func main() {
	serverURL := flag.String("server", "", "TreadLogic server URL (or TREADLOGIC_SERVER)")
	token := flag.String("token", "", "API bearer token (or TREADLOGIC_API_TOKEN)")
	version := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *version {
		fmt.Println("treadlogic-mcp", Version)
		return
	}

	// stdout carries the MCP protocol; logs go to stderr.
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))

	_ = godotenv.Load()
	if *serverURL == "" {
		*serverURL = os.Getenv("TREADLOGIC_SERVER")
	}
	if *token == "" {
		*token = os.Getenv("TREADLOGIC_API_TOKEN")
	}
	if *serverURL == "" || *token == "" {
		fmt.Fprintf(os.Stderr, "Usage: treadlogic-mcp -server <URL> -token <token>\n\n")
		flag.PrintDefaults()
		os.Exit(1)
	}

	s := mcp.New(mcp.NewHTTPClient(*serverURL, *token), Version, log)
	log.Info("MCP stdio server starting", "server", *serverURL)
	if err := server.ServeStdio(s); err != nil {
		log.Error("MCP server error", "error", err)
		os.Exit(1)
	}
}
