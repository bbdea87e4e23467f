// Package app はアプリケーションの起動とサブコマンドのワイヤリングを提供する。
package app

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/hitoshi/todolist/internal/auth"
	"github.com/hitoshi/todolist/internal/config"
	"github.com/hitoshi/todolist/internal/database"
	"github.com/hitoshi/todolist/internal/handler"
	"github.com/hitoshi/todolist/internal/logger"
	"github.com/hitoshi/todolist/internal/metrics"
	"github.com/hitoshi/todolist/internal/repository"
	"github.com/hitoshi/todolist/internal/security"
	"github.com/hitoshi/todolist/internal/session"
	"github.com/hitoshi/todolist/internal/task"
	"github.com/hitoshi/todolist/internal/telemetry"
	"github.com/hitoshi/todolist/internal/worker/cleanup"
)

const serviceName = "todolist"

// Init はアプリケーションの初期化を行う。
// 環境変数からConfigを読み込み、JSON構造化ログをセットアップする。
// writerが指定された場合はログ出力先としてそのwriterを使用する。
func Init(w io.Writer) (*config.Config, error) {
	// 1. ログの初期化（設定読み込み前にログを使えるようにする）
	logger.SetupDefault(w, slog.LevelInfo)

	// 2. 環境変数から設定を読み込む
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	// 3. 設定されたログレベルで再設定する
	logger.SetupDefault(w, logger.ParseLevel(cfg.LogLevel))

	return cfg, nil
}

// Run はアプリケーションのメインエントリーポイント。
// コマンドライン引数からサブコマンドを解析し、対応するモードで起動する。
// argsにはos.Args[1:]を渡す。
func Run(w io.Writer, args []string) error {
	cmd := ParseCommand(args)

	// healthcheck は軽量サブコマンドのため、フル初期化をスキップする
	if cmd == CommandHealthcheck {
		port := os.Getenv("SERVER_PORT")
		if port == "" {
			port = "8000"
		}
		return runHealthcheck(port)
	}

	cfg, err := Init(w)
	if err != nil {
		return fmt.Errorf("initialization failed: %w", err)
	}

	slog.Info("starting application",
		slog.String("command", string(cmd)),
		slog.String("port", cfg.ServerPort),
		slog.String("base_url", cfg.BaseURL),
	)

	switch cmd {
	case CommandWorker:
		return runWorker(cfg)
	case CommandMigrate:
		return runMigrate(cfg)
	default:
		return runServe(cfg)
	}
}

// workerPoolConfig はワーカー用のコネクションプール設定。削除クエリを逐次実行するだけなので小さくする。
var workerPoolConfig = database.PoolConfig{
	MaxOpenConns:    2,
	MaxIdleConns:    1,
	ConnMaxLifetime: 30 * time.Minute,
}

// openDatabase はDB接続を開き、疎通を確認する。
func openDatabase(databaseURL string, pool database.PoolConfig) (*sql.DB, error) {
	db, err := database.OpenWithPool(databaseURL, pool)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return db, nil
}

// newSessionAuthority は署名鍵とリポジトリからセッション管理を構築する。
func newSessionAuthority(cfg *config.Config, db *sql.DB) (*session.Authority, error) {
	codec, err := session.NewCodec(cfg.SessionSecret, time.Now)
	if err != nil {
		return nil, fmt.Errorf("failed to create session codec: %w", err)
	}
	return session.NewAuthority(
		repository.NewPostgresSessionRepo(db), codec, cfg.SessionIdleTimeout, time.Now,
	), nil
}

// newServer は全依存関係をワイヤリングしたHTTPサーバーを構築する。
func newServer(cfg *config.Config, db *sql.DB, reg *prometheus.Registry) (*http.Server, error) {
	// 1. メトリクス
	collector := metrics.NewCollector(reg)

	// 2. リポジトリとセッション
	userRepo := repository.NewPostgresUserRepo(db)
	taskRepo := repository.NewPostgresTaskRepo(db)

	authority, err := newSessionAuthority(cfg, db)
	if err != nil {
		return nil, err
	}
	slog.Info("session authority ready", slog.Duration("idle_timeout", authority.IdleTimeout()))

	// 3. ドメインサービスの初期化
	oauthProvider := auth.NewGoogleOAuthProvider(auth.GoogleOAuthConfig{
		ClientID:     cfg.GoogleClientID,
		ClientSecret: cfg.GoogleClientSecret,
		RedirectURL:  cfg.GoogleRedirectURL,
	})
	authService := auth.NewService(
		oauthProvider, userRepo, authority,
		auth.ServiceConfig{BcryptCost: cfg.BcryptCost},
		collector,
	)
	taskService := task.NewService(taskRepo, security.NewMarkupDetector(), collector)

	// 4. ルーターの構築
	router := handler.NewRouter(&handler.RouterDeps{
		Logger:        slog.Default(),
		HTTPMetrics:   collector,
		Gatherer:      reg,
		UserResolver:  authService,
		HealthChecker: db,
		AuthService:   authService,
		AuthConfig: handler.AuthHandlerConfig{
			CookieDomain: cfg.CookieDomain,
			CookieSecure: cfg.CookieSecure,
		},
		TaskService: taskService,
	})

	return &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}, nil
}

// runServe はHTTPサーバーモードで起動する。
// SIGINTまたはSIGTERMシグナルを受信するとグレースフルシャットダウンを行う。
func runServe(cfg *config.Config) error {
	// 1. DB接続
	db, err := openDatabase(cfg.DatabaseURL, database.DefaultPoolConfig())
	if err != nil {
		return err
	}
	defer db.Close()

	slog.Info("database connection established")

	// 2. トレースの初期化（エンドポイント未設定時は何もしない）
	shutdownTracing, err := telemetry.Setup(context.Background(), serviceName, cfg.OTLPEndpoint)
	if err != nil {
		return fmt.Errorf("failed to set up tracing: %w", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(ctx); err != nil {
			slog.Error("failed to flush traces", slog.String("error", err.Error()))
		}
	}()

	// 3. メトリクスレジストリ
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	server, err := newServer(cfg, db, reg)
	if err != nil {
		return err
	}

	// グレースフルシャットダウンのためのシグナルハンドリング
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	serverErr := make(chan error, 1)
	go func() {
		slog.Info("HTTP server starting", slog.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
	}()

	select {
	case err := <-serverErr:
		return fmt.Errorf("server listen error: %w", err)
	case <-stop:
	}
	slog.Info("shutting down HTTP server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	slog.Info("HTTP server stopped gracefully")
	return nil
}

// newWorkerMetricsServer はworkerプロセスのメトリクスを公開するHTTPサーバーを構築する。
// レジストリはserveとは別に持ち、セッション削除数を公開する。
func newWorkerMetricsServer(port string) (*http.Server, *metrics.SessionCollector) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	collector := metrics.NewSessionCollector(reg)

	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler(reg))

	return &http.Server{
		Addr:         ":" + port,
		Handler:      mux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}, collector
}

// runWorker はワーカーモードで起動する。
// 期限切れセッションの定期削除を行い、シグナル受信で停止する。
func runWorker(cfg *config.Config) error {
	db, err := openDatabase(cfg.DatabaseURL, workerPoolConfig)
	if err != nil {
		return err
	}
	defer db.Close()

	slog.Info("database connection established (worker)")

	authority, err := newSessionAuthority(cfg, db)
	if err != nil {
		return err
	}

	metricsServer, collector := newWorkerMetricsServer(cfg.WorkerMetricsPort)
	go func() {
		slog.Info("worker metrics server starting", slog.String("addr", metricsServer.Addr))
		if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("worker metrics server failed", slog.String("error", err.Error()))
		}
	}()
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := metricsServer.Shutdown(ctx); err != nil {
			slog.Error("failed to stop worker metrics server", slog.String("error", err.Error()))
		}
	}()

	job := cleanup.NewCleanupJob(authority, collector, slog.Default())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// セッションクリーンアップをメインgoroutineで実行（ブロッキング）
	job.Start(ctx, cfg.SessionCleanupInterval)

	slog.Info("worker stopped gracefully")
	return nil
}

// runMigrate はデータベースマイグレーションを実行する。
// すべての未適用マイグレーションを順番に適用する。
func runMigrate(cfg *config.Config) error {
	slog.Info("running database migrations",
		slog.String("database_url", maskDatabaseURL(cfg.DatabaseURL)),
	)

	version, err := database.RunMigrations(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	slog.Info("database migrations completed successfully", slog.Uint64("version", uint64(version)))
	return nil
}

// runHealthcheck はヘルスチェックを実行する。
// distroless環境でのDockerヘルスチェック用サブコマンド。
// /health エンドポイントにHTTPリクエストを送り、結果を返す。
func runHealthcheck(port string) error {
	url := fmt.Sprintf("http://localhost:%s/health", port)
	client := &http.Client{Timeout: 5 * time.Second}

	resp, err := client.Get(url)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check returned status %d", resp.StatusCode)
	}

	return nil
}

// maskDatabaseURL はデータベースURLの認証情報をマスクする。
func maskDatabaseURL(url string) string {
	if len(url) > 20 {
		return url[:12] + "***@..."
	}
	return "***"
}
