package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/kalambet/tutor/internal/api"
	"github.com/kalambet/tutor/internal/composer"
	"github.com/kalambet/tutor/internal/config"
	"github.com/kalambet/tutor/internal/learning"
	"github.com/kalambet/tutor/internal/preferences"
	"github.com/kalambet/tutor/internal/proxy"
	"github.com/kalambet/tutor/internal/session"
	"github.com/kalambet/tutor/internal/storage"
	"github.com/kalambet/tutor/internal/tutor"
)

const shutdownTimeout = 5 * time.Second

var serveCmd = &cobra.Command{
	Use:     "serve",
	Aliases: []string{"start"},
	Short:   "Start the tutor server (foreground)",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServer(cmd.Context())
	},
}

var stopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the running tutor server",
	RunE: func(cmd *cobra.Command, args []string) error {
		return stopServer()
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show tutor server status",
	RunE: func(cmd *cobra.Command, args []string) error {
		return showStatus(cmd.Context())
	},
}

// pidFile records the serving process so stop can signal it.
type pidFile string

func pidFileIn(dataDir string) pidFile {
	return pidFile(filepath.Join(dataDir, "tutor.pid"))
}

func (p pidFile) write() error {
	if err := os.MkdirAll(filepath.Dir(string(p)), 0o755); err != nil {
		return err
	}
	return os.WriteFile(string(p), []byte(strconv.Itoa(os.Getpid())), 0o644)
}

func (p pidFile) read() (int, error) {
	data, err := os.ReadFile(string(p))
	if err != nil {
		return 0, err
	}
	return strconv.Atoi(strings.TrimSpace(string(data)))
}

func (p pidFile) remove() {
	if err := os.Remove(string(p)); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Warn("removing PID file", "path", string(p), "error", err)
	}
}

// newCompleter picks the completion backend. Without an API key the tutor
// still runs, answering from the offline responder.
func newCompleter(cfg config.Config) (tutor.Completer, api.ModelLister) {
	if cfg.Completion.APIKey == "" {
		slog.Warn("no completion API key configured, using offline replies", "hint", config.APIKeyHint())
		return proxy.Offline{}, proxy.Offline{}
	}
	c := proxy.NewClient(cfg.Completion.APIKey, proxy.Options{
		BaseURL:          cfg.Completion.BaseURL,
		Model:            cfg.Completion.Model,
		Temperature:      cfg.Completion.Temperature,
		MaxTokens:        cfg.Completion.MaxTokens,
		Timeout:          cfg.Completion.TimeoutDuration(),
		RateLimitRetries: cfg.Completion.RateLimitRetries,
	})
	return c, c
}

func runServer(parent context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	setupLogging(cfg.Log.Level)
	slog.Info("starting tutor", "version", version)

	// Refuse to start twice.
	pid := pidFileIn(cfg.Storage.DataDir)
	healthURL := fmt.Sprintf("http://127.0.0.1:%d/health", cfg.Server.Port)
	healthClient := &http.Client{Timeout: 2 * time.Second}
	if resp, err := healthClient.Get(healthURL); err == nil {
		resp.Body.Close()
		if running, pidErr := pid.read(); pidErr == nil {
			return fmt.Errorf("tutor is already running (PID %d)", running)
		}
		return fmt.Errorf("tutor is already running on port %d", cfg.Server.Port)
	}
	if err := pid.write(); err != nil {
		return fmt.Errorf("writing PID file: %w", err)
	}
	defer pid.remove()

	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := storage.Open(cfg.Storage.DataDir)
	if err != nil {
		return fmt.Errorf("opening storage: %w", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			slog.Warn("closing storage", "error", err)
		}
	}()

	completer, models := newCompleter(cfg)
	sessions := session.NewStore(cfg.Session.TTLDuration())
	t := tutor.New(
		sessions,
		composer.New(cfg.Session.MaxContextTokens),
		completer,
		learning.NewUpdater(),
	)

	handler := api.NewHandler(api.Deps{
		Tutor:       t,
		Preferences: preferences.NewManager(store),
		Models:      models,
	})

	addr := fmt.Sprintf("127.0.0.1:%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext: func(_ net.Listener) context.Context {
			return ctx
		},
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		slog.Info("tutor listening", "addr", addr, "session_ttl", sessions.TTL())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		slog.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if cfg.MCP.Enabled {
		mcpSrv := api.NewMCPServer(api.MCPDeps{Sessions: sessions, Version: version})
		stdioSrv := server.NewStdioServer(mcpSrv)
		g.Go(func() error {
			// A closed stdin ends MCP only; HTTP keeps serving.
			if err := stdioSrv.Listen(gctx, os.Stdin, os.Stdout); err != nil && !errors.Is(err, context.Canceled) {
				slog.Error("MCP stdio server error", "error", err)
			}
			return nil
		})
		slog.Info("MCP server started (stdio transport)")
	}

	return g.Wait()
}

func stopServer() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	pid := pidFileIn(cfg.Storage.DataDir)
	running, err := pid.read()
	if err != nil {
		return fmt.Errorf("tutor is not running (no PID file at %s)", pid)
	}

	process, err := os.FindProcess(running)
	if err != nil {
		return fmt.Errorf("finding process %d: %w", running, err)
	}
	if err := process.Signal(syscall.SIGTERM); err != nil {
		// Stale PID file from a crashed server.
		pid.remove()
		return fmt.Errorf("stopping tutor (PID %d): %w", running, err)
	}

	printSuccess("Sent stop signal to tutor (PID %d)", running)
	return nil
}

func showStatus(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		printError("config error: %v", err)
		return nil
	}

	client := &apiClient{
		baseURL:    fmt.Sprintf("http://127.0.0.1:%d", cfg.Server.Port),
		httpClient: &http.Client{Timeout: 2 * time.Second},
	}
	reportServer(ctx, client, cfg.Server.Port)

	if cfg.Completion.APIKey == "" {
		printStatus("Completion", "offline (no API key)")
		printWarning("replies come from the offline responder; %s", config.APIKeyHint())
	} else {
		printStatus("Completion", "%s at %s", cfg.Completion.Model, cfg.Completion.BaseURL)
	}
	printStatus("Session TTL", "%s", cfg.Session.TTLDuration())
	if cfg.MCP.Enabled {
		printStatus("MCP", "enabled (stdio)")
	} else {
		printStatus("MCP", "disabled")
	}
	printStatus("Data dir", "%s", cfg.Storage.DataDir)
	return nil
}

func reportServer(ctx context.Context, client *apiClient, port int) {
	resp, err := client.get(ctx, "/health")
	if err != nil {
		printStatus("Server", "stopped")
		return
	}
	var health api.HealthResponse
	if err := decodeJSON(resp, &health); err != nil {
		printStatus("Server", "error (%v)", err)
		return
	}
	printStatus("Server", "running on port %d", port)
	printStatus("Sessions", "%d active", health.Sessions)
}
