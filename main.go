package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Nerzal/gocloak/v13"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jmoiron/sqlx"
	_ "github.com/joho/godotenv/autoload"
	"github.com/nats-io/nats.go"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/kova98/yars/config"
	"github.com/kova98/yars/data"
	"github.com/kova98/yars/data/repos"
	"github.com/kova98/yars/enums"
	"github.com/kova98/yars/handlers"
	"github.com/kova98/yars/matchers"
	"github.com/kova98/yars/models"
	"github.com/kova98/yars/notifiers"
	"github.com/kova98/yars/sources"
)

type contextKey string

var (
	auth             *handlers.AuthHandler
	CallerContextKey = contextKey("caller")
)

func main() {
	config.LoadConfig()

	logSink, closeLog, err := openLogSink(config.Config.LogFile)
	if err != nil {
		slog.Error("failed to open log file", "error", err)
		os.Exit(1)
	}
	defer closeLog()

	opts := slog.HandlerOptions{Level: config.Config.LogLevel}
	logger := slog.New(slog.NewJSONHandler(logSink, &opts))
	slog.SetDefault(logger)

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := sources.NewMetrics(registry)

	policy := sources.DefaultRetryPolicy()
	session, err := sources.NewSession(logger, sources.SessionConfig{
		ProxyURLs:         config.Config.ProxyURLs,
		Timeout:           config.Config.RequestTimeout,
		RandomUserAgent:   config.Config.RandomUserAgent,
		Retry:             policy,
		Metrics:           metrics,
		RequestsPerMinute: config.Config.RequestsPerMin,
	})
	if err != nil {
		slog.Error("failed to create session", "error", err)
		os.Exit(1)
	}
	client := sources.NewClient(logger, session,
		sources.WithBaseURL(config.Config.RedditBaseURL),
		sources.WithMetrics(metrics),
		sources.WithDiagnostics(os.Stderr),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if len(os.Args) > 1 && os.Args[1] != "serve" {
		if err := runCommand(ctx, client, os.Args[1:], os.Stdout); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		return
	}

	serve(ctx, cancel, logger, client, session, registry)
}

func serve(ctx context.Context, cancel context.CancelFunc, logger *slog.Logger, client *sources.Client, session *sources.Session, registry *prometheus.Registry) {
	var db *sqlx.DB
	var postRepo *repos.PostRepo
	var runRepo *repos.RunRepo
	if config.Config.StorageEnabled() {
		var err error
		db, err = data.Open(config.Config.Storage())
		if err != nil {
			slog.Error("failed to open storage", "error", err)
			os.Exit(1)
		}
		postRepo = repos.NewPostRepo(db)
		runRepo = repos.NewRunRepo(db)
	}

	var nc *nats.Conn
	if config.Config.NatsURL != "" {
		var err error
		nc, err = nats.Connect(config.Config.NatsURL)
		if err != nil {
			slog.Warn("NATS connect failed, publishing disabled", "error", err)
			nc = nil
		}
	}

	var keycloakClient *gocloak.GoCloak
	if config.Config.KeycloakURL != "" {
		keycloakClient = gocloak.NewClient(config.Config.KeycloakURL)
	}
	auth = handlers.NewAuthHandler(keycloakClient, config.Config.KeycloakRealm, config.Config.APIKey)

	if db != nil && len(config.Config.WatchTargets) > 0 {
		watcher := NewWatcher(logger, watchConfig(), client, postRepo, runRepo, matchers.NewLanguageDetector())
		if config.Config.MailEnabled() {
			watcher.WithMailer(notifiers.NewMailer(
				config.Config.SMTPHost,
				config.Config.SMTPPort,
				config.Config.SMTPFrom,
				config.Config.SMTPPassword,
			))
		}
		if nc != nil {
			watcher.WithPublisher(notifiers.NewPostPublisher(nc, config.Config.NatsSubject))
		}
		go watcher.Start(ctx)
	}

	reddit := handlers.NewRedditHandler(client)
	health := handlers.NewHealthHandler(db != nil, session.ProxyStats)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/health", public(health.GetHealth))
	r.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	r.Get("/subreddits/{name}/posts", private(reddit.GetSubredditPosts))
	r.Get("/users/{name}/items", private(reddit.GetUserItems))
	r.Get("/search", private(reddit.Search))
	r.Get("/posts/details", private(reddit.GetPostDetails))

	if db != nil {
		storage := handlers.NewStorageHandler(postRepo, runRepo)
		r.Get("/stored/posts", private(storage.GetStoredPosts))
		r.Get("/stored/post", private(storage.GetStoredPost))
		r.Get("/runs", private(storage.GetRuns))
	}

	server := &http.Server{
		Addr:              config.Config.HTTPAddr,
		Handler:           otelhttp.NewHandler(withCORS(r), "yars"),
		ReadHeaderTimeout: 10 * time.Second,
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	go func() {
		<-sigCh
		slog.Info("Shutting down...")
		cancel()

		shutdownCtx, done := context.WithTimeout(context.Background(), 10*time.Second)
		defer done()
		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("failed to shut down server", "error", err)
		}
		if nc != nil {
			nc.Close()
		}
		if db != nil {
			if err := db.Close(); err != nil {
				slog.Error("failed to close database connection", "error", err)
			}
		}
	}()

	slog.Info("Starting server", "addr", config.Config.HTTPAddr, "storage", db != nil, "auth", auth.Enabled())
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("failed to start server", "error", err)
	}
}

func watchConfig() WatchConfig {
	matchMode := enums.ParseMatchMode(config.Config.WatchMatchMode)
	if matchMode == enums.MatchModeInvalid {
		matchMode = enums.MatchModeExact
	}
	return WatchConfig{
		Targets:     config.Config.WatchTargets,
		Category:    enums.Category(config.Config.WatchCategory),
		Limit:       config.Config.WatchLimit,
		Flairs:      config.Config.WatchFlairs,
		Keywords:    config.Config.WatchKeywords,
		MatchMode:   matchMode,
		Languages:   config.Config.WatchLanguages,
		Interval:    config.Config.WatchInterval,
		NotifyEmail: config.Config.NotifyEmail,
		BaseURL:     config.Config.RedditBaseURL,
	}
}

// openLogSink opens path for appending. "-" or "" logs to stdout.
func openLogSink(path string) (io.Writer, func(), error) {
	if path == "" || path == "-" {
		return os.Stdout, func() {}, nil
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, nil, err
	}
	return file, func() { _ = file.Close() }, nil
}

func withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, x-api-key")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func private(handler handlers.Handler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		keyHeader := r.Header.Get("x-api-key")
		authHeader := r.Header.Get("Authorization")
		result := auth.GetCaller(r.Context(), keyHeader, authHeader)
		if result.Code != http.StatusOK {
			slog.Debug("unauthorized request", "path", r.URL.Path)
			writeResult(w, result)
			return
		}

		caller := result.Body.(models.Caller)
		ctx := context.WithValue(r.Context(), CallerContextKey, caller)

		public(handler)(w, r.WithContext(ctx))
	}
}

func public(handler handlers.Handler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ts := time.Now()
		res := handler(w, r)
		elapsedMs := time.Since(ts).Milliseconds()
		slog.Debug("req", "method", r.Method, "path", r.URL.Path, "code", res.Code, "elapsed", elapsedMs,
			"request_id", middleware.GetReqID(r.Context()))
		writeResult(w, res)
	}
}

func writeResult(w http.ResponseWriter, res handlers.Result) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(res.Code)
	if res.Body != nil {
		if err := json.NewEncoder(w).Encode(res.Body); err != nil {
			slog.Error("failed to encode response", "error", err)
		}
	}
	if res.Code >= http.StatusInternalServerError && res.Error != nil {
		slog.Error("internal error", "code", res.Code, "error", res.Error.Error())
	}
}
