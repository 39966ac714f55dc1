// Command tictactoe starts the tic-tac-toe game server.
//
// It supports two modes:
//  1. "server" (default) – runs the HTTP server exposing the REST API, the WebSocket game socket and an /mcp HTTP endpoint
//  2. "stdio-mcp" – runs an MCP stdio server and spins up an internal HTTP API if none is available
//
// Flags control host/port, the config file, debug logging, version output,
// and optional ngrok tunneling for easy external access during development.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"
	"golang.ngrok.com/ngrok"
	ngrokConfig "golang.ngrok.com/ngrok/config"

	"github.com/wricardo/mcp-training/tictactoe/api"
	"github.com/wricardo/mcp-training/tictactoe/game/account"
	"github.com/wricardo/mcp-training/tictactoe/game/config"
	"github.com/wricardo/mcp-training/tictactoe/game/service"
	"github.com/wricardo/mcp-training/tictactoe/game/session"
	"github.com/wricardo/mcp-training/tictactoe/transport/mcp"
	"github.com/wricardo/mcp-training/tictactoe/transport/websocket"
)

// Version information
const (
	Version = "1.0.0"
	AppName = "Tic-Tac-Toe Game Server"
)

// Configuration flags. Non-zero flag values override the config file and
// the environment.
var (
	port         = flag.Int("port", 0, "HTTP server port (default 5000)")
	host         = flag.String("host", "", "HTTP server host (default localhost)")
	configFile   = flag.String("config", os.Getenv("CONFIG_FILE"), "YAML configuration file")
	debug        = flag.Bool("debug", false, "Enable debug logging")
	version      = flag.Bool("version", false, "Show version information")
	ngrokEnabled = flag.Bool("ngrok", false, "Enable ngrok tunnel")
	ngrokAuth    = flag.String("ngrok-auth", "", "Ngrok auth token (or use NGROK_AUTHTOKEN env var)")
	ngrokDomain  = flag.String("ngrok-domain", "", "Custom ngrok domain (optional)")
)

func init() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [OPTIONS] [MODE]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "%s v%s\n\n", AppName, Version)
		fmt.Fprintf(os.Stderr, "Available modes:\n")
		fmt.Fprintf(os.Stderr, "  server, http     Run HTTP server with API, WebSocket, and MCP endpoint (default)\n")
		fmt.Fprintf(os.Stderr, "  stdio-mcp        Run MCP stdio server with internal HTTP server\n")
		fmt.Fprintf(os.Stderr, "  mcp-stdio, mcp   Aliases for stdio-mcp\n")
		fmt.Fprintf(os.Stderr, "\nOptions:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s                       # Run HTTP server on default port 5000\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s -port 9090            # Run HTTP server on port 9090\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  JWT_SECRET=s3cret %s     # Enable accounts and stats\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s stdio-mcp             # Run MCP stdio server\n", os.Args[0])
	}
}

func main() {
	envErr := godotenv.Load()

	flag.Parse()

	if *version {
		fmt.Printf("%s v%s\n", AppName, Version)
		os.Exit(0)
	}

	mode := "server"
	if args := flag.Args(); len(args) > 0 {
		mode = args[0]
	}

	// stdout carries the MCP protocol in stdio mode.
	logger, err := newLogger(*debug, isStdioMode(mode))
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync() //nolint:errcheck

	if envErr == nil {
		logger.Info("loaded environment variables from .env file")
	} else if !os.IsNotExist(envErr) {
		logger.Warn("error loading .env file", zap.Error(envErr))
	}

	cfg, err := config.Load(*configFile)
	if err != nil {
		logger.Fatal("failed to load configuration", zap.Error(err))
	}
	applyFlags(cfg)

	logger.Info("starting",
		zap.String("app", AppName),
		zap.String("version", Version),
		zap.String("mode", mode),
	)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	switch {
	case isStdioMode(mode):
		runStdioMCPWithInternalServer(ctx, cfg, logger)
	case mode == "server" || mode == "http":
		runHTTPServer(ctx, cfg, logger)
	default:
		logger.Fatal("unknown mode, use 'server' (default) or 'stdio-mcp'", zap.String("mode", mode))
	}
}

func isStdioMode(mode string) bool {
	switch mode {
	case "stdio-mcp", "mcp-stdio", "mcp":
		return true
	}
	return false
}

func newLogger(debug, stderrOnly bool) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	if debug {
		cfg = zap.NewDevelopmentConfig()
	}
	if stderrOnly {
		cfg.OutputPaths = []string{"stderr"}
	}
	return cfg.Build()
}

// applyFlags overlays explicitly set command-line flags onto cfg.
func applyFlags(cfg *config.Config) {
	if *host != "" {
		cfg.Host = *host
	}
	if *port != 0 {
		cfg.Port = *port
	}
	if *ngrokEnabled {
		cfg.Ngrok.Enabled = true
	}
	if *ngrokAuth != "" {
		cfg.Ngrok.AuthToken = *ngrokAuth
	}
	if *ngrokDomain != "" {
		cfg.Ngrok.Domain = *ngrokDomain
	}
}

// application holds the wired services behind one HTTP handler.
type application struct {
	hub      *websocket.Hub
	game     service.GameService
	accounts *account.Service
	store    *account.SQLiteStore
	handler  http.Handler
}

// initializeServices wires the session store, WebSocket hub, game service,
// optional account service and API server. The hub loop is not started.
func initializeServices(cfg *config.Config, logger *zap.Logger) (*application, error) {
	app := &application{}

	hubOpts := []websocket.Option{
		websocket.WithLogger(logger.Named("ws")),
		websocket.WithAllowedOrigins(cfg.AllowedOrigins),
	}
	gameOpts := []service.Option{
		service.WithAIDelay(cfg.AIDelay),
		service.WithLogger(logger.Named("game")),
	}
	apiOpts := []api.Option{
		api.WithAllowedOrigins(cfg.AllowedOrigins),
		api.WithLogger(logger.Named("api")),
	}

	if cfg.AuthEnabled() {
		store, err := account.OpenSQLite(cfg.DatabasePath)
		if err != nil {
			return nil, fmt.Errorf("failed to open account database: %w", err)
		}
		accounts, err := account.NewService(store, cfg.JWTSecret,
			account.WithTokenTTL(cfg.TokenTTL),
			account.WithLogger(logger.Named("account")),
		)
		if err != nil {
			store.Close()
			return nil, fmt.Errorf("failed to create account service: %w", err)
		}
		app.store = store
		app.accounts = accounts

		hubOpts = append(hubOpts, websocket.WithTokenVerifier(accounts))
		gameOpts = append(gameOpts, service.WithRecorder(accounts))
		apiOpts = append(apiOpts, api.WithAccounts(accounts))
	} else {
		logger.Info("JWT_SECRET not set, account routes disabled")
	}

	app.hub = websocket.NewHub(hubOpts...)
	gameOpts = append(gameOpts, service.WithScheduler(app.hub))
	app.game = service.NewGameService(session.NewManager(), app.hub, gameOpts...)
	app.hub.SetGameService(app.game)

	apiServer := api.NewServer(app.game, app.hub, apiOpts...)

	mux := http.NewServeMux()
	mux.Handle("/", apiServer)
	mux.Handle("/mcp", mcpHandler(mcp.NewClient(fmt.Sprintf("http://%s", cfg.Addr())), logger))
	app.handler = mux

	return app, nil
}

// Close releases the account database.
func (a *application) Close() error {
	return a.store.Close()
}

// mcpHandler serves single JSON-RPC messages against the MCP tool server.
func mcpHandler(client *mcp.Client, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		body, err := io.ReadAll(r.Body)
		if err != nil {
			http.Error(w, "Failed to read request", http.StatusBadRequest)
			return
		}
		defer r.Body.Close()

		response := client.GetMCPServer().HandleMessage(r.Context(), body)

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(response); err != nil {
			logger.Warn("failed to write MCP response", zap.Error(err))
		}
	}
}

// runHTTPServer serves the application until ctx is cancelled. When ngrok is
// enabled it also serves the same handler through a public tunnel.
func runHTTPServer(ctx context.Context, cfg *config.Config, logger *zap.Logger) {
	app, err := initializeServices(cfg, logger)
	if err != nil {
		logger.Fatal("failed to initialize services", zap.Error(err))
	}
	defer app.Close()

	hubCtx, stopHub := context.WithCancel(context.Background())
	defer stopHub()
	go app.hub.Run(hubCtx)

	addr := cfg.Addr()
	httpServer := &http.Server{
		Addr:        addr,
		Handler:     app.handler,
		ReadTimeout: 15 * time.Second,
		IdleTimeout: 60 * time.Second,
	}

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()

		logger.Info("HTTP server listening",
			zap.String("addr", addr),
			zap.String("api", fmt.Sprintf("http://%s/api", addr)),
			zap.String("websocket", fmt.Sprintf("ws://%s/ws", addr)),
			zap.String("mcp", fmt.Sprintf("http://%s/mcp", addr)),
		)

		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	if cfg.Ngrok.Enabled {
		wg.Add(1)
		go func() {
			defer wg.Done()
			runNgrokTunnel(ctx, cfg.Ngrok, app.handler, logger.Named("ngrok"))
		}()
	}

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown error", zap.Error(err))
	}
	stopHub()

	wg.Wait()
	logger.Info("server stopped")
}

// runNgrokTunnel serves handler through an ngrok endpoint until ctx ends.
func runNgrokTunnel(ctx context.Context, cfg config.NgrokConfig, handler http.Handler, logger *zap.Logger) {
	if cfg.AuthToken == "" {
		logger.Warn("ngrok enabled but no auth token provided (use --ngrok-auth, NGROK_AUTHTOKEN, or NGROK_AUTH_TOKEN)")
		return
	}

	var tunnel ngrokConfig.Tunnel
	if cfg.Domain != "" {
		tunnel = ngrokConfig.HTTPEndpoint(ngrokConfig.WithDomain(cfg.Domain))
		logger.Info("using custom ngrok domain", zap.String("domain", cfg.Domain))
	} else {
		tunnel = ngrokConfig.HTTPEndpoint()
	}

	tun, err := ngrok.Listen(ctx, tunnel, ngrok.WithAuthtoken(cfg.AuthToken))
	if err != nil {
		logger.Error("failed to start ngrok tunnel", zap.Error(err))
		return
	}

	go func() {
		<-ctx.Done()
		if err := tun.Close(); err != nil {
			logger.Warn("failed to close ngrok tunnel", zap.Error(err))
		}
	}()

	url := tun.URL()
	logger.Info("ngrok tunnel established",
		zap.String("url", url),
		zap.String("websocket", url+"/ws"),
		zap.String("mcp", url+"/mcp"),
	)

	if err := http.Serve(tun, handler); err != nil && !errors.Is(err, http.ErrServerClosed) && ctx.Err() == nil {
		logger.Error("ngrok server error", zap.Error(err))
	}
	logger.Info("ngrok tunnel closed")
}

// runStdioMCPWithInternalServer runs an MCP stdio server. It reuses an API
// already listening on the configured address; otherwise it starts an
// internal HTTP API on a random loopback port and targets that.
func runStdioMCPWithInternalServer(ctx context.Context, cfg *config.Config, logger *zap.Logger) {
	externalURL := fmt.Sprintf("http://%s", cfg.Addr())
	baseURL := externalURL

	logger.Info("checking for external API server", zap.String("url", externalURL))
	if !apiAvailable(externalURL) {
		logger.Info("no external API server found, starting internal HTTP server")

		listener, err := net.Listen("tcp", "127.0.0.1:0")
		if err != nil {
			logger.Fatal("failed to get available port", zap.Error(err))
		}
		internalAddr := listener.Addr().String()

		internal := *cfg
		internal.Host = "127.0.0.1"
		internal.Port = listener.Addr().(*net.TCPAddr).Port

		app, err := initializeServices(&internal, logger)
		if err != nil {
			logger.Fatal("failed to initialize services", zap.Error(err))
		}
		defer app.Close()
		go app.hub.Run(ctx)

		httpServer := &http.Server{Handler: app.handler}
		go func() {
			if err := httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("internal HTTP server error", zap.Error(err))
			}
		}()
		defer httpServer.Close()

		baseURL = fmt.Sprintf("http://%s", internalAddr)
	}

	logger.Info("MCP stdio server ready", zap.String("api", baseURL))

	if err := server.ServeStdio(mcp.NewClient(baseURL).GetMCPServer()); err != nil {
		logger.Error("MCP stdio server error", zap.Error(err))
	}
}

// apiAvailable reports whether a game server answers /health at baseURL.
func apiAvailable(baseURL string) bool {
	client := &http.Client{Timeout: 2 * time.Second}
	resp, err := client.Get(baseURL + "/health")
	if err != nil {
		return false
	}
	resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}
