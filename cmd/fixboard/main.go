package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/joho/godotenv"

	"github.com/fixboard/fixboard/internal/adapter/helpdesk"
	httpadapter "github.com/fixboard/fixboard/internal/adapter/http"
	"github.com/fixboard/fixboard/internal/adapter/identity"
	"github.com/fixboard/fixboard/internal/adapter/session"
	"github.com/fixboard/fixboard/internal/config"
	"github.com/fixboard/fixboard/internal/engine"
	"github.com/fixboard/fixboard/internal/logger"
	"github.com/fixboard/fixboard/internal/ports"
)

// Version and build information
var (
	Version   = "development"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	if err := godotenv.Load(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: Could not load .env file: %v\n", err)
	}

	version := flag.Bool("version", false, "Show version information")
	flag.Parse()

	if *version {
		fmt.Printf("Fixboard Repair Ticket Board\n")
		fmt.Printf("Version: %s\n", Version)
		fmt.Printf("Build Time: %s\n", BuildTime)
		fmt.Printf("Git Commit: %s\n", GitCommit)
		os.Exit(0)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(logger.Config{
		Level:       cfg.Logging.Level,
		Format:      cfg.Logging.Format,
		ServiceName: "fixboard",
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	log.Info(ctx, "starting fixboard", map[string]interface{}{
		"version":     Version,
		"environment": cfg.Server.Environment,
		"helpdesk":    cfg.Helpdesk.BaseURL,
	})

	credentials, cleanup, err := buildCredentialStore(cfg, log)
	if err != nil {
		log.Error(ctx, "failed to build credential store", err, nil)
		os.Exit(1)
	}
	defer cleanup()

	// Refuse to start polling with a missing or dead credential rather
	// than issue unauthenticated requests.
	token, err := credentials.Token(ctx)
	if err != nil {
		log.Error(ctx, "not authenticated", err, nil)
		os.Exit(1)
	}
	if claims, err := identity.Inspect(token); err == nil && claims.Expired(time.Now()) {
		log.Error(ctx, "session credential is expired", nil, map[string]interface{}{
			"subject": claims.Subject,
		})
		os.Exit(1)
	}

	client := helpdesk.NewClient(cfg.Helpdesk.BaseURL, credentials, cfg.Helpdesk.Timeout, log)

	eng := engine.New(client, cfg.Poll.TicketInterval, log)
	if err := eng.Start(ctx); err != nil {
		log.Error(ctx, "engine failed to start", err, nil)
		os.Exit(1)
	}
	defer eng.Stop()

	router := mux.NewRouter()
	router.Use(httpadapter.CorrelationIDMiddleware)
	handler := httpadapter.NewBoardHandler(eng, log)
	handler.RegisterRoutes(router)

	srv := &http.Server{
		Addr:         cfg.Server.Host + ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		log.Info(ctx, "board API listening", map[string]interface{}{
			"addr": srv.Addr,
		})
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error(ctx, "server failed", err, nil)
			cancel()
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
	case <-ctx.Done():
	}

	log.Info(ctx, "shutting down", nil)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(ctx, "server shutdown failed", err, nil)
	}
	eng.Stop()
}

// buildCredentialStore selects the credential source: a shared redis
// session when configured, otherwise a fixed token from the environment
func buildCredentialStore(cfg *config.Config, log logger.Logger) (ports.CredentialStore, func(), error) {
	if cfg.Redis.URL != "" {
		store, err := session.NewRedisStore(cfg.Redis.URL, cfg.Session.TokenKey, log)
		if err != nil {
			return nil, nil, err
		}
		return store, func() { store.Close() }, nil
	}
	return session.NewStaticStore(cfg.Session.StaticToken), func() {}, nil
}
