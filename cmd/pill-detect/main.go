package main

import (
	_ "embed"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/peterbourgon/ff/v4"
	"github.com/peterbourgon/ff/v4/ffhelp"

	"github.com/zombor/pill-detect/internal/analysis"
	"github.com/zombor/pill-detect/internal/enrichment"
	"github.com/zombor/pill-detect/internal/pill"
)

//go:embed VERSION.txt
var versionFile string

var version = strings.TrimSpace(versionFile)

func main() {
	// Check for version flag before parsing other flags
	for _, arg := range os.Args[1:] {
		if arg == "--version" || arg == "-version" || arg == "-v" {
			fmt.Println(version)
			os.Exit(0)
		}
	}

	// Load .env if present; flags and real env vars still win
	if err := godotenv.Load(); err == nil {
		slog.Info("Loaded configuration from .env file")
	}

	fs := ff.NewFlagSet("pill-detect")
	var (
		port         = fs.IntLong("port", 8080, "HTTP server port")
		dbPath       = fs.StringLong("db", "pill-detect.db", "Database file path")
		storagePath  = fs.StringLong("storage", "./catalog-images", "Catalog image directory path")
		analyzerType = fs.StringLong("analyzer", "gateway", "Analyzer type: 'gateway' or 'gemini'")
		gatewayURL   = fs.StringLong("gateway-url", "", "AI gateway base URL (OpenAI-compatible chat completions)")
		gatewayKey   = fs.StringLong("gateway-key", "", "AI gateway API key (or set GATEWAY_API_KEY env var)")
		gatewayModel = fs.StringLong("gateway-model", "google/gemini-2.5-flash", "AI gateway model name")
		geminiKey    = fs.StringLong("gemini-key", "", "Google Gemini API key (or set GEMINI_API_KEY env var)")
		geminiModel  = fs.StringLong("gemini-model", "gemini-2.5-flash", "Google Gemini model name")
		searchKey    = fs.StringLong("search-key", "", "Web search API key for reference enrichment (or set SEARCH_API_KEY env var); empty disables enrichment")
		authUser     = fs.StringLong("auth-user", "", "Basic auth username (optional)")
		authPass     = fs.StringLong("auth-pass", "", "Basic auth password (optional)")
		showVersion  = fs.BoolLong("version", "Show version information")
	)

	if err := ff.Parse(fs, os.Args[1:],
		ff.WithEnvVarPrefix("PILL_DETECT"),
	); err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", ffhelp.Flags(fs))
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	// Check version flag after parsing
	if *showVersion {
		fmt.Println(version)
		os.Exit(0)
	}

	// Initialize database
	slog.Info("Initializing database...")
	db, err := pill.NewBoltDB(*dbPath)
	if err != nil {
		slog.Error("Failed to initialize database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	// Initialize analyzer based on type
	var analyzer analysis.Analyzer
	switch *analyzerType {
	case "gateway":
		apiKey := *gatewayKey
		if apiKey == "" {
			apiKey = os.Getenv("GATEWAY_API_KEY")
		}
		if apiKey == "" {
			// The server still boots; analyze calls report the misconfiguration
			slog.Warn("No gateway API key configured. Set --gateway-key or GATEWAY_API_KEY; analyze requests will fail until then")
		}
		slog.Info("Initializing AI gateway analyzer...", "model", *gatewayModel)
		analyzer, err = analysis.NewGateway(*gatewayURL, apiKey, *gatewayModel)
		if err != nil {
			slog.Error("Failed to initialize AI gateway", "error", err)
			os.Exit(1)
		}
	case "gemini":
		apiKey := *geminiKey
		if apiKey == "" {
			apiKey = os.Getenv("GEMINI_API_KEY")
		}
		if apiKey == "" {
			slog.Error("Gemini API key is required. Set --gemini-key flag or GEMINI_API_KEY environment variable")
			os.Exit(1)
		}
		slog.Info("Initializing Gemini analyzer...", "model", *geminiModel)
		analyzer, err = analysis.NewGemini(apiKey, *geminiModel)
		if err != nil {
			slog.Error("Failed to initialize Gemini", "error", err)
			os.Exit(1)
		}
	default:
		slog.Error("Invalid analyzer type", "type", *analyzerType, "valid", "gateway or gemini")
		os.Exit(1)
	}
	defer analyzer.Close()

	// Initialize enrichment; a missing key silently disables it
	enrichKey := *searchKey
	if enrichKey == "" {
		enrichKey = os.Getenv("SEARCH_API_KEY")
	}
	if enrichKey == "" {
		slog.Info("Reference enrichment disabled (no search API key)")
	}
	enricher := enrichment.NewSearchEnricher(enrichKey)

	// Initialize catalog image storage
	slog.Info("Initializing storage...")
	store, err := pill.NewLocalStorage(*storagePath)
	if err != nil {
		slog.Error("Failed to initialize storage", "error", err)
		os.Exit(1)
	}

	// Initialize service
	pillService := pill.NewService(db, analyzer, enricher, store)

	// Initialize server
	basicAuth := pill.BasicAuth{
		Username: *authUser,
		Password: *authPass,
	}
	server := pill.NewServer(pillService, basicAuth)

	// Start server in goroutine
	addr := fmt.Sprintf(":%d", *port)
	go func() {
		if err := server.Start(addr); err != nil {
			slog.Error("Server error", "error", err)
			os.Exit(1)
		}
	}()

	slog.Info("Server started", "address", fmt.Sprintf("http://localhost%s", addr))
	if *authUser != "" || *authPass != "" {
		slog.Info("Basic auth enabled", "user", *authUser)
	}

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	slog.Info("Shutting down...")
}
