// Package serve hosts a thin HTTP front end over the repository and
// analysis packages. It exists to give those packages' operations an
// external caller and carries no color-matching logic of its own.
package serve

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	_ "embed"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httplog/v3"
	"github.com/google/gops/agent"
	"github.com/kennyp/swatchmatch/repository"
	"github.com/urfave/cli/v3"
	"golang.ngrok.com/ngrok/v2"
)

// Command returns the serve subcommand.
func Command() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Start the web server for browsing and searching swatch books",
		Description: `Start a web server that exposes the catalog, search, and image
analysis operations over HTTP and a small browser UI.

Examples:
   swatchmatch serve --dir ./swatches
   swatchmatch serve --dir ./swatches --port 3000
   swatchmatch serve --dir ./swatches --host 0.0.0.0 --port 8080
   swatchmatch serve --dir ./swatches --ngrok-url https://myapp.ngrok.io --ngrok-token <token>`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "dir",
				Usage:    "Directory containing .acb/.ase swatch-book files",
				Required: true,
			},
			&cli.StringFlag{
				Name:    "host",
				Usage:   "Host address to bind to",
				Value:   "localhost",
				Sources: cli.EnvVars("HOST"),
			},
			&cli.IntFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Usage:   "Port to listen on",
				Value:   8080,
				Sources: cli.EnvVars("PORT"),
			},
			&cli.StringFlag{
				Name:    "ngrok-url",
				Usage:   "ngrok URL to use (enables ngrok mode)",
				Sources: cli.EnvVars("NGROK_URL"),
			},
			&cli.StringFlag{
				Name:    "ngrok-token",
				Usage:   "ngrok auth token (optional, falls back to local ngrok config)",
				Sources: cli.EnvVars("NGROK_TOKEN"),
			},
		},
		Action: run,
	}
}

func run(ctx context.Context, cmd *cli.Command) error {
	if err := agent.Listen(agent.Options{}); err != nil {
		slog.Warn("failed to start gops agent", "error", err)
	}
	defer agent.Close()

	host := cmd.String("host")
	port := cmd.Int("port")
	addr := fmt.Sprintf("%s:%d", host, port)
	ngrokURL := cmd.String("ngrok-url")
	ngrokToken := cmd.String("ngrok-token")

	a := &api{repo: repository.New(cmd.String("dir"))}

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)

	logSchema := httplog.SchemaECS.Concise(host == "localhost" && ngrokURL == "")
	r.Use(httplog.RequestLogger(slog.Default(), &httplog.Options{
		Level:  slog.LevelInfo,
		Schema: logSchema,
		LogRequestHeaders: []string{
			"Ngrok-Auth-User-Email",
			"Ngrok-Auth-User-Name",
		},
	}))

	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", "*")
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
			if r.Method == "OPTIONS" {
				w.WriteHeader(http.StatusOK)
				return
			}
			next.ServeHTTP(w, r)
		})
	})

	r.Get("/", handleIndex)
	r.Get("/favicon.svg", handleFavicon)
	r.Get("/health", handleHealth)

	r.Route("/api", func(r chi.Router) {
		r.Get("/books", a.handleListBooks)
		r.Get("/books/{id}", a.handleBookDetails)
		r.Get("/books/{id}/search", a.handleSearchText)
		r.Get("/search", a.handleSearchHex)
		r.Post("/analyze", a.handleAnalyze)
	})

	serverErrors := make(chan error, 1)

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	if ngrokURL != "" {
		return runWithNgrok(ctx, cmd, r, ngrokURL, ngrokToken, serverErrors, shutdown)
	}

	return runLocalServer(ctx, cmd, r, addr, serverErrors, shutdown)
}

func runLocalServer(_ context.Context, cmd *cli.Command, handler http.Handler, addr string, serverErrors chan error, shutdown chan os.Signal) error {
	server := &http.Server{
		Addr:    addr,
		Handler: handler,
	}

	go func() {
		fmt.Fprintf(cmd.Root().Writer, "Server starting on http://%s\n", addr)
		fmt.Fprintf(cmd.Root().Writer, "Press Ctrl+C to stop\n\n")
		serverErrors <- server.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		return cli.Exit(fmt.Sprintf("Server error: %v", err), 1)

	case sig := <-shutdown:
		fmt.Fprintf(cmd.Root().Writer, "\n%v signal received, shutting down...\n", sig)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			server.Close()
			return cli.Exit(fmt.Sprintf("Failed to gracefully shutdown: %v", err), 1)
		}

		fmt.Fprintf(cmd.Root().Writer, "Server stopped gracefully\n")
	}

	return nil
}

//go:embed policy.yaml
var trafficPolicy string

func runWithNgrok(ctx context.Context, cmd *cli.Command, handler http.Handler, ngrokURL string, ngrokToken string, serverErrors chan error, shutdown chan os.Signal) error {
	if !strings.HasPrefix(ngrokURL, "http") {
		ngrokURL = "https://" + ngrokURL
	}

	_, err := url.Parse(ngrokURL)
	if err != nil {
		return cli.Exit(fmt.Sprintf("Invalid ngrok URL: %v", err), 1)
	}

	if ngrokToken == "" {
		return cli.Exit("Error: --ngrok-token is required when using --ngrok-url.\n\nGet your auth token from: https://dashboard.ngrok.com/get-started/your-authtoken\nOr find it in your local config with: ngrok config check", 1)
	}

	agent, err := ngrok.NewAgent(ngrok.WithAuthtoken(ngrokToken))
	if err != nil {
		return cli.Exit(fmt.Sprintf("Failed to create ngrok agent: %v", err), 1)
	}
	if err := agent.Connect(ctx); err != nil {
		return cli.Exit(fmt.Sprintf("Failed to connect ngrok agent: %v", err), 1)
	}

	listener, err := agent.Listen(ctx,
		ngrok.WithURL(ngrokURL),
		ngrok.WithTrafficPolicy(trafficPolicy),
		ngrok.WithDescription("swatchmatch web server"),
	)
	if err != nil {
		return cli.Exit(fmt.Sprintf("Failed to create ngrok tunnel: %v", err), 1)
	}
	defer listener.Close()

	server := &http.Server{
		Handler: handler,
	}

	go func() {
		fmt.Fprintf(cmd.Root().Writer, "Server starting on %s\n", listener.URL())
		fmt.Fprintf(cmd.Root().Writer, "Press Ctrl+C to stop\n\n")
		serverErrors <- server.Serve(listener)
	}()

	select {
	case err := <-serverErrors:
		return cli.Exit(fmt.Sprintf("Server error: %v", err), 1)

	case sig := <-shutdown:
		fmt.Fprintf(cmd.Root().Writer, "\n%v signal received, shutting down...\n", sig)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			server.Close()
			return cli.Exit(fmt.Sprintf("Failed to gracefully shutdown: %v", err), 1)
		}

		fmt.Fprintf(cmd.Root().Writer, "Server stopped gracefully\n")
	}

	return nil
}
