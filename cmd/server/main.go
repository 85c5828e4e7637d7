package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
	"google.golang.org/grpc"

	"medtrack-api/internal/access"
	"medtrack-api/internal/api"
	"medtrack-api/internal/cache"
	"medtrack-api/internal/config"
	"medtrack-api/internal/dose"
	gweb "medtrack-api/internal/grpcweb"
	"medtrack-api/internal/handler"
	"medtrack-api/internal/history"
	"medtrack-api/internal/logger"
	"medtrack-api/internal/middleware"
	"medtrack-api/internal/notify"
	"medtrack-api/internal/store"
	"medtrack-api/internal/web"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	log, err := logger.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	if err := run(cfg, log); err != nil {
		log.Fatal("server stopped", zap.Error(err))
	}
}

func run(cfg *config.Config, log *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// database
	var db store.Backend
	if cfg.DatabaseURL == "" {
		log.Warn("DATABASE_URL not set, data is kept in memory only")
		db = store.NewMemory()
	} else {
		pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return fmt.Errorf("db: %w", err)
		}
		defer pool.Close()
		if err := pool.Ping(ctx); err != nil {
			return fmt.Errorf("db ping: %w", err)
		}
		applied, err := store.Migrate(ctx, pool, cfg.MigrationsPath)
		if err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
		log.Info("connected to postgres", zap.Strings("migrations", applied))
		db = store.New(pool)
	}

	// history cache
	var hc cache.Store
	if cfg.RedisAddr == "" {
		hc = cache.NewMemory()
	} else {
		rc, err := cache.Dial(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			return fmt.Errorf("redis: %w", err)
		}
		defer rc.Close()
		log.Info("connected to redis", zap.String("addr", cfg.RedisAddr))
		hc = rc
	}

	sender := newSender(cfg, log)
	h := handler.New(
		db,
		access.NewLedger(db, sender, log, cfg.AppURL),
		dose.NewService(db, log),
		history.NewService(db, hc, cfg.HistoryCacheTTL, log),
		cfg.JWTSecret,
		log,
	)

	// grpc server
	rl := middleware.NewRateLimiter(ctx, cfg.RateLimitRPS, cfg.RateLimitBurst)
	srv := grpc.NewServer(
		grpc.ChainUnaryInterceptor(
			logger.UnaryServerInterceptor(log),
			middleware.RateLimit(rl),
			middleware.Auth(cfg.JWTSecret),
		),
	)
	api.Register(srv, h)

	lis, err := net.Listen("tcp", ":"+cfg.GRPCPort)
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}
	errc := make(chan error, 2)
	go func() {
		log.Info("grpc listening", zap.String("port", cfg.GRPCPort))
		errc <- srv.Serve(lis)
	}()

	// grpc-web bridge -> forwards browser requests to grpc on localhost
	bridge, err := gweb.New("localhost:"+cfg.GRPCPort, log)
	if err != nil {
		return fmt.Errorf("bridge: %w", err)
	}
	defer bridge.Close()

	httpSrv := web.NewServer(bridge, []string{cfg.AppURL}, log)
	go func() {
		log.Info("grpc-web listening", zap.String("port", cfg.WebPort))
		if err := httpSrv.Start(":" + cfg.WebPort); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
	}()

	select {
	case <-ctx.Done():
		log.Info("shutting down")
	case err := <-errc:
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		log.Warn("http shutdown", zap.Error(err))
	}
	srv.GracefulStop()
	return nil
}

// newSender picks the invitation transport: SendGrid, then SMTP, then the
// log.
func newSender(cfg *config.Config, log *zap.Logger) notify.Sender {
	switch {
	case cfg.SendGridAPIKey != "":
		log.Info("invitations via sendgrid")
		return notify.NewSendGrid(cfg.SendGridAPIKey, cfg.MailFromName, cfg.MailFrom)
	case cfg.SMTPHost != "":
		log.Info("invitations via smtp", zap.String("host", cfg.SMTPHost))
		return notify.NewSMTP(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword, cfg.MailFromName, cfg.MailFrom)
	}
	log.Warn("no mail transport configured, invitations are only logged")
	return notify.NewLog(log)
}
