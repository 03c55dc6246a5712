// Command hexbuzz serves the hex one-stroke puzzle over REST, WebSocket and
// MCP, and ships offline tools to validate, generate and play levels.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v3"
	"golang.ngrok.com/ngrok"
	ngrokConfig "golang.ngrok.com/ngrok/config"

	"github.com/wricardo/hexbuzz/api"
	"github.com/wricardo/hexbuzz/game/levels"
	"github.com/wricardo/hexbuzz/game/service"
	"github.com/wricardo/hexbuzz/game/session"
	"github.com/wricardo/hexbuzz/internal/config"
	"github.com/wricardo/hexbuzz/transport/mcp"
	"github.com/wricardo/hexbuzz/transport/websocket"
)

const (
	Version = "1.0.0"
	AppName = "hexbuzz"

	defaultConfigFile = "hexbuzz.yaml"
	defaultAPIURL     = "http://localhost:8080"
)

func main() {
	// Load .env if present
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("Warning: failed to load .env file: %v", err)
	}

	if err := newApp().Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}

// newApp builds the command tree. Running without a subcommand serves.
func newApp() *cli.Command {
	return &cli.Command{
		Name:    AppName,
		Usage:   "hex one-stroke puzzle server and level tools",
		Version: Version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "YAML config file (defaults to ./hexbuzz.yaml when present)",
				Sources: cli.EnvVars("HEXBUZZ_CONFIG"),
			},
			&cli.StringFlag{
				Name:  "host",
				Usage: "host to bind to",
			},
			&cli.IntFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Usage:   "port to listen on",
				Sources: cli.EnvVars("HEXBUZZ_PORT"),
			},
			&cli.StringFlag{
				Name:    "levels-dir",
				Usage:   "directory containing level JSON files",
				Sources: cli.EnvVars("LEVELS_DIR"),
			},
			&cli.StringFlag{
				Name:  "storage",
				Usage: "session storage backend: memory, file or redis",
			},
			&cli.StringFlag{
				Name:    "redis-addr",
				Usage:   "Redis address for the redis backend",
				Sources: cli.EnvVars("REDIS_ADDR"),
			},
			&cli.BoolFlag{
				Name:    "ngrok",
				Usage:   "expose the server through an ngrok tunnel",
				Sources: cli.EnvVars("NGROK_ENABLED"),
			},
			&cli.StringFlag{
				Name:    "ngrok-auth",
				Usage:   "ngrok auth token",
				Sources: cli.EnvVars("NGROK_AUTHTOKEN", "NGROK_AUTH_TOKEN"),
			},
			&cli.StringFlag{
				Name:    "ngrok-domain",
				Usage:   "custom ngrok domain",
				Sources: cli.EnvVars("NGROK_DOMAIN"),
			},
		},
		Action: runServe,
		Commands: []*cli.Command{
			serveCommand(),
			mcpCommand(),
			validateCommand(),
			generateCommand(),
			playCommand(),
		},
	}
}

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:   "serve",
		Usage:  "run the HTTP server (REST API, WebSocket and MCP endpoint)",
		Action: runServe,
	}
}

func mcpCommand() *cli.Command {
	return &cli.Command{
		Name:  "mcp",
		Usage: "run an MCP server on stdio",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "api-url",
				Usage:   "reuse a running server; an internal one is started when unreachable",
				Value:   defaultAPIURL,
				Sources: cli.EnvVars("HEXBUZZ_API_URL"),
			},
		},
		Action: runMCP,
	}
}

// loadConfig resolves the config file and applies flag and env overrides
func loadConfig(cmd *cli.Command) (*config.Config, error) {
	path := cmd.String("config")
	if path == "" {
		if _, err := os.Stat(defaultConfigFile); err == nil {
			path = defaultConfigFile
		}
	}

	cfg := config.Default()
	if path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	if cmd.IsSet("host") {
		cfg.Server.Host = cmd.String("host")
	}
	if cmd.IsSet("port") {
		cfg.Server.Port = int(cmd.Int("port"))
	}
	if cmd.IsSet("levels-dir") {
		cfg.Server.LevelsDir = cmd.String("levels-dir")
	}
	if cmd.IsSet("storage") {
		cfg.Storage.Backend = cmd.String("storage")
	}
	if cmd.IsSet("redis-addr") {
		cfg.Redis.Address = cmd.String("redis-addr")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// stack holds the services shared by every transport
type stack struct {
	service      service.GameService
	sessions     *session.Manager
	library      *levels.Library
	defaultLevel string
	closers      []func() error
}

func (s *stack) Close() {
	if err := s.sessions.SaveAllSessions(); err != nil {
		log.Printf("Warning: failed to save sessions: %v", err)
	}
	for _, c := range s.closers {
		if err := c(); err != nil {
			log.Printf("Warning: shutdown: %v", err)
		}
	}
}

// buildStack wires level library, session storage and the game service
func buildStack(ctx context.Context, cfg *config.Config) (*stack, error) {
	if err := os.MkdirAll(cfg.Server.LevelsDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create levels directory: %w", err)
	}
	library, err := levels.NewLibrary(cfg.Server.LevelsDir)
	if err != nil {
		return nil, fmt.Errorf("failed to create level library: %w", err)
	}
	st := &stack{library: library, defaultLevel: cfg.Server.DefaultLevel}
	st.applyDefault()

	var persistence session.SessionPersistence
	switch cfg.Storage.Backend {
	case config.BackendFile:
		fp, err := session.NewFilePersistence(cfg.Storage.SessionsDir)
		if err != nil {
			return nil, fmt.Errorf("failed to create session persistence: %w", err)
		}
		persistence = fp
	case config.BackendRedis:
		client, err := session.ConnectRedis(ctx, session.RedisOptions{
			Address:  cfg.Redis.Address,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			return nil, err
		}
		st.closers = append(st.closers, client.Close)
		persistence = session.NewRedisPersistence(ctx, client, cfg.Redis.Prefix, cfg.Redis.TTL)
	}

	if persistence != nil {
		st.sessions = session.NewManagerWithPersistence(persistence)
		if err := st.sessions.LoadPersistedSessions(); err != nil {
			log.Printf("Warning: failed to load persisted sessions: %v", err)
		}
	} else {
		st.sessions = session.NewManager()
	}

	st.service = service.NewGameService(st.sessions, library, cfg.Service())
	log.Printf("Storage: %s, levels: %s (%d), default level: %s",
		cfg.Storage.Backend, cfg.Server.LevelsDir, library.Count(), defaultName(library))
	return st, nil
}

func (s *stack) applyDefault() {
	if s.defaultLevel == "" {
		return
	}
	if err := s.library.SetDefault(s.defaultLevel); err != nil {
		log.Printf("Warning: default level %q unavailable, using %q: %v", s.defaultLevel, defaultName(s.library), err)
	}
}

// reloadLevels drops cached levels so edits in the levels directory are
// picked up. Running sessions keep the level they started with.
func (s *stack) reloadLevels() {
	s.library.RefreshCache()
	s.applyDefault()
	log.Printf("Levels reloaded, default level: %s", defaultName(s.library))
}

// reloadOnHangup reloads levels on every SIGHUP until ctx is done
func (s *stack) reloadOnHangup(ctx context.Context) {
	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	defer signal.Stop(hup)

	for {
		select {
		case <-ctx.Done():
			return
		case <-hup:
			s.reloadLevels()
		}
	}
}

func defaultName(l *levels.Library) string {
	name, _ := l.GetDefault()
	return name
}

// newRouter mounts the API at the root and the MCP endpoint at /mcp
func newRouter(apiServer http.Handler, mcpClient *mcp.Client) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/", apiServer)
	mux.HandleFunc("/mcp", func(w http.ResponseWriter, r *http.Request) {
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

		response := mcpClient.GetMCPServer().HandleMessage(r.Context(), body)

		w.Header().Set("Content-Type", "application/json")
		responseData, err := json.Marshal(response)
		if err != nil {
			http.Error(w, "Failed to marshal response", http.StatusInternalServerError)
			return
		}
		w.Write(responseData)
	})
	return mux
}

func runServe(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := buildStack(ctx, cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	go st.sessions.RunCleanup(ctx, cfg.Storage.CleanupInterval, cfg.Storage.MaxIdle)
	go st.reloadOnHangup(ctx)

	hub := websocket.NewHub()
	go hub.Run(ctx)

	addr := cfg.Addr()
	apiServer := api.NewServer(st.service, hub)
	mcpClient := mcp.NewClient("http://" + loopbackAddr(addr))
	router := newRouter(apiServer, mcpClient)

	httpServer := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	var wg sync.WaitGroup
	errCh := make(chan error, 1)

	wg.Add(1)
	go func() {
		defer wg.Done()

		log.Printf("HTTP server listening on %s", addr)
		log.Printf("REST API: http://%s/api", addr)
		log.Printf("WebSocket: ws://%s/ws?session=<session_id>", addr)
		log.Printf("MCP endpoint: http://%s/mcp", addr)

		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("HTTP server failed: %w", err)
		}
	}()

	if cmd.Bool("ngrok") {
		wg.Add(1)
		go func() {
			defer wg.Done()
			runNgrok(ctx, cmd.String("ngrok-auth"), cmd.String("ngrok-domain"), router)
		}()
	}

	select {
	case <-ctx.Done():
		log.Println("Shutting down...")
	case err = <-errCh:
		stop()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if shutdownErr := httpServer.Shutdown(shutdownCtx); shutdownErr != nil {
		log.Printf("HTTP server shutdown error: %v", shutdownErr)
	}

	wg.Wait()
	log.Println("Server stopped")
	return err
}

// runNgrok serves handler through a tunnel until ctx is done
func runNgrok(ctx context.Context, authToken, domain string, handler http.Handler) {
	if authToken == "" {
		log.Println("WARNING: Ngrok enabled but no auth token provided (use --ngrok-auth or NGROK_AUTHTOKEN)")
		return
	}

	log.Println("Starting ngrok tunnel...")

	var tunnel ngrokConfig.Tunnel
	if domain != "" {
		tunnel = ngrokConfig.HTTPEndpoint(ngrokConfig.WithDomain(domain))
		log.Printf("Using custom ngrok domain: %s", domain)
	} else {
		tunnel = ngrokConfig.HTTPEndpoint()
	}

	tun, err := ngrok.Listen(ctx, tunnel, ngrok.WithAuthtoken(authToken))
	if err != nil {
		log.Printf("Failed to start ngrok tunnel: %v", err)
		return
	}

	go func() {
		<-ctx.Done()
		if err := tun.Close(); err != nil {
			log.Printf("Failed to close ngrok tunnel: %v", err)
		}
	}()

	ngrokURL := tun.URL()
	log.Printf("🚀 Ngrok tunnel established: %s", ngrokURL)
	log.Printf("  REST API (ngrok): %s/api", ngrokURL)
	log.Printf("  WebSocket (ngrok): %s/ws?session=<session_id>", ngrokURL)
	log.Printf("  MCP endpoint (ngrok): %s/mcp", ngrokURL)

	if err := http.Serve(tun, handler); err != nil && !errors.Is(err, http.ErrServerClosed) && ctx.Err() == nil {
		log.Printf("Ngrok server error: %v", err)
	}
	log.Println("Ngrok tunnel closed")
}

// loopbackAddr turns a wildcard listen address into one the MCP client can dial
func loopbackAddr(addr string) string {
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return addr
	}
	if host == "" || host == "0.0.0.0" || host == "::" {
		host = "127.0.0.1"
	}
	return net.JoinHostPort(host, port)
}

// apiReachable reports whether a hexbuzz server answers at baseURL
func apiReachable(baseURL string) bool {
	client := &http.Client{Timeout: 2 * time.Second}
	resp, err := client.Get(baseURL + "/api/health")
	if err != nil {
		return false
	}
	resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

// runMCP serves MCP on stdio. It reuses a running server at --api-url and
// otherwise starts an internal API bound to a random loopback port.
func runMCP(ctx context.Context, cmd *cli.Command) error {
	baseURL := cmd.String("api-url")
	log.Printf("Checking for external API server at %s...", baseURL)

	if apiReachable(baseURL) {
		log.Printf("External API server found at %s, using it for MCP", baseURL)
	} else {
		log.Printf("No external API server found, starting internal HTTP server")

		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		st, err := buildStack(ctx, cfg)
		if err != nil {
			return err
		}
		defer st.Close()

		internalURL, shutdown, err := startInternalServer(ctx, st.service)
		if err != nil {
			return err
		}
		defer shutdown()
		baseURL = internalURL
	}

	log.Printf("MCP stdio server ready (API at %s)", baseURL)
	if err := mcp.NewClient(baseURL).ServeStdio(); err != nil {
		return fmt.Errorf("MCP stdio server error: %w", err)
	}
	return nil
}

// startInternalServer serves the API on 127.0.0.1:0 and returns its base URL
func startInternalServer(ctx context.Context, gameService service.GameService) (string, func(), error) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return "", nil, fmt.Errorf("failed to get available port: %w", err)
	}

	hubCtx, cancel := context.WithCancel(ctx)
	hub := websocket.NewHub()
	go hub.Run(hubCtx)

	httpServer := &http.Server{Handler: api.NewServer(gameService, hub)}
	go func() {
		if err := httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("Internal HTTP server error: %v", err)
		}
	}()

	baseURL := "http://" + listener.Addr().String()
	log.Printf("Internal HTTP server on %s", listener.Addr())

	shutdown := func() {
		cancel()
		shutdownCtx, done := context.WithTimeout(context.Background(), 5*time.Second)
		defer done()
		httpServer.Shutdown(shutdownCtx)
	}
	return baseURL, shutdown, nil
}
