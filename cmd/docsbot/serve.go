package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	"github.com/vahanai/docsbot/internal/analytics"
	"github.com/vahanai/docsbot/internal/api"
	"github.com/vahanai/docsbot/internal/chat"
	"github.com/vahanai/docsbot/internal/config"
	"github.com/vahanai/docsbot/internal/embedding"
	"github.com/vahanai/docsbot/internal/knowledge"
	"github.com/vahanai/docsbot/internal/storage"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the docsbot HTTP server in the foreground",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServer()
	},
}

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve the MCP interface over stdio",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runMCP()
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show server and knowledge base status",
	RunE: func(cmd *cobra.Command, args []string) error {
		return showStatus()
	},
}

func setupLogging(level string) {
	logLevel := slog.LevelInfo
	if strings.EqualFold(level, "debug") {
		logLevel = slog.LevelDebug
	}
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel})
	slog.SetDefault(slog.New(handler))
}

// service holds the wired runtime pieces shared by the HTTP and MCP
// entrypoints.
type service struct {
	store     *storage.Store
	resolver  *chat.Resolver
	analytics *analytics.Recorder
	knowledge *knowledge.Store // nil when the knowledge base failed to load
}

// buildService opens storage and loads the knowledge base. A failed load is
// not fatal: the resolver is left without knowledge and answers every message
// with its initializing reply until the operator fixes the docs and restarts.
func buildService(ctx context.Context, cfg config.Config) (*service, error) {
	store, err := storage.Open(cfg.Storage.DataDir)
	if err != nil {
		return nil, fmt.Errorf("opening storage: %w", err)
	}

	embedder, err := embedding.New(embedding.Config{
		Provider:   cfg.Embedding.Provider,
		Dimensions: cfg.Embedding.Dimensions,
		BaseURL:    cfg.Embedding.BaseURL,
		Model:      cfg.Embedding.Model,
	})
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("configuring embedder: %w", err)
	}
	if o, ok := embedder.(*embedding.Ollama); ok && !o.IsRunning(ctx) {
		slog.Warn("ollama not reachable, embedding calls will fail until it starts",
			"url", cfg.Embedding.BaseURL)
	}

	kstore := knowledge.New(store, embedder, slog.Default())

	// The resolver's nil check needs a nil interface, not a typed nil
	// pointer, so only assign kstore after a successful load.
	var know chat.Knowledge
	var loaded *knowledge.Store
	if err := kstore.Load(ctx, cfg.Knowledge.Dir); err != nil {
		slog.Error("knowledge base load failed, serving initializing replies",
			"dir", cfg.Knowledge.Dir, "error", err)
	} else {
		know = kstore
		loaded = kstore
	}

	resolver := chat.NewResolver(know, slog.Default())
	resolver.QueryTimeout = time.Duration(cfg.Chat.QueryTimeoutSeconds) * time.Second
	resolver.MaxSessions = cfg.Chat.SessionCap

	return &service{
		store:     store,
		resolver:  resolver,
		analytics: analytics.NewRecorder(store, slog.Default()),
		knowledge: loaded,
	}, nil
}

func runServer() error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	setupLogging(cfg.Log.Level)
	slog.Info("starting docsbot", "version", version)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	svc, err := buildService(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := svc.store.Close(); err != nil {
			slog.Error("closing storage", "error", err)
		}
	}()

	handler := api.NewHandler(api.Deps{
		Resolver:  svc.resolver,
		Analytics: svc.analytics,
		Store:     svc.store,
		Token:     cfg.Server.APIToken,
	})

	addr := fmt.Sprintf("127.0.0.1:%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("docsbot listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		slog.Info("shutting down")
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func runMCP() error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	setupLogging(cfg.Log.Level)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	svc, err := buildService(ctx, cfg)
	if err != nil {
		return err
	}
	defer svc.store.Close()

	mcpSrv := api.NewMCPServer(api.MCPDeps{
		Resolver:  svc.resolver,
		Analytics: svc.analytics,
		Store:     svc.store,
		Knowledge: svc.knowledge,
	})

	slog.Info("MCP server started", "transport", "stdio")
	err = server.NewStdioServer(mcpSrv).Listen(ctx, os.Stdin, os.Stdout)
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func showStatus() error {
	cfg, err := loadConfig()
	if err != nil {
		printError("config error: %v", err)
		return nil
	}

	serverURL := fmt.Sprintf("http://127.0.0.1:%d", cfg.Server.Port)
	client := &http.Client{Timeout: 2 * time.Second}

	running := false
	resp, err := client.Get(serverURL + "/health")
	if err != nil {
		printStatus("Server", "stopped")
	} else {
		resp.Body.Close()
		if resp.StatusCode == http.StatusOK {
			running = true
			printStatus("Server", "running on port %d", cfg.Server.Port)
		} else {
			printStatus("Server", "unhealthy (HTTP %d)", resp.StatusCode)
		}
	}

	printStatus("Knowledge dir", "%s", cfg.Knowledge.Dir)
	printStatus("Data dir", "%s", cfg.Storage.DataDir)
	printStatus("Embedding", "%s", cfg.Embedding.Provider)

	if cfg.Embedding.Provider == "ollama" {
		probe := embedding.NewOllama(cfg.Embedding.BaseURL, cfg.Embedding.Model)
		if probe.IsRunning(context.Background()) {
			printStatus("Ollama", "running at %s", cfg.Embedding.BaseURL)
		} else {
			printStatus("Ollama", "not reachable at %s", cfg.Embedding.BaseURL)
		}
	}

	if running {
		sresp, err := client.Get(serverURL + "/api/analytics?days=30")
		if err == nil {
			var sum analytics.Summary
			if json.NewDecoder(sresp.Body).Decode(&sum) == nil {
				printStatus("Interactions (30d)", "%d", sum.Metrics.TotalInteractions)
				printStatus("Sessions (30d)", "%d", sum.Metrics.UniqueSessions)
			}
			sresp.Body.Close()
		}
	}

	return nil
}
