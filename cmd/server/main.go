// Command geocam-server starts the GeoCam HTTP API.
package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	pkgcrypto "github.com/and161185/geocam/internal/crypto"
	"github.com/and161185/geocam/internal/limiter"
	"github.com/and161185/geocam/internal/migrate"
	"github.com/and161185/geocam/internal/repository"
	"github.com/and161185/geocam/internal/repository/memory"
	mongorepo "github.com/and161185/geocam/internal/repository/mongo"
	"github.com/and161185/geocam/internal/repository/postgres"
	"github.com/and161185/geocam/internal/revoke"
	"github.com/and161185/geocam/internal/server/httpapi"
	"github.com/and161185/geocam/internal/service"
)

var (
	version   = "dev"
	buildDate = "unknown"
)

// main parses configuration, runs migrations, and serves the API until SIGINT/SIGTERM.
func main() {
	addr := flag.String("addr", ":8080", "listen address")
	dsn := flag.String("dsn", "", "PostgreSQL DSN (empty keeps accounts in memory)")
	jwtKey := flag.String("jwt-key", "", "HS256 signing key (required)")
	accessTTL := flag.Duration("access-ttl", 24*time.Hour, "access token TTL")
	certFile := flag.String("tls-cert", "", "TLS certificate (PEM)")
	keyFile := flag.String("tls-key", "", "TLS private key (PEM)")
	photoStore := flag.String("photo-store", "", "photo store: postgres|mongo|memory (default follows -dsn)")
	mongoURI := flag.String("mongo-uri", "mongodb://localhost:27017", "MongoDB URI for -photo-store=mongo")
	mongoDB := flag.String("mongo-db", "geocam", "MongoDB database name")
	redisAddr := flag.String("redis-addr", "", "Redis address for the token denylist (empty keeps it in memory)")
	flag.Parse()

	logger, _ := zap.NewProduction()
	defer func() { _ = logger.Sync() }()
	logger.Info("starting",
		zap.String("version", version),
		zap.String("buildDate", buildDate),
		zap.String("addr", *addr),
	)

	if *jwtKey == "" {
		logger.Fatal("missing jwt signing key (--jwt-key)")
	}
	if (*certFile == "") != (*keyFile == "") {
		logger.Fatal("--tls-cert and --tls-key must be set together")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var opts []httpapi.Option

	// Accounts and rate limiting
	var (
		users repository.UserRepository
		lim   limiter.Limiter
		photo repository.PhotoRepository
	)
	var db *postgres.DB
	if *dsn != "" {
		v, err := migrate.Up(ctx, *dsn, logger)
		if err != nil {
			logger.Fatal("migrate up", zap.Error(err))
		}
		logger.Info("schema ready", zap.Int64("version", v))

		db, err = postgres.New(ctx, *dsn)
		if err != nil {
			logger.Fatal("connect postgres", zap.Error(err))
		}
		defer db.Close()

		users = postgres.NewUserRepo(db)
		lim = limiter.NewPG(db.Pool, limiter.DefaultPolicy)
		photo = postgres.NewPhotoRepo(db)
		opts = append(opts, httpapi.WithHealthCheck("postgres", db.Ping))
	} else {
		logger.Warn("no --dsn given; accounts and photos are kept in memory")
		users = memory.NewUserRepo()
		lim = limiter.NewMemory(limiter.DefaultPolicy)
		photo = memory.NewPhotoRepo()
	}

	// Photos
	switch *photoStore {
	case "":
	case "postgres":
		if db == nil {
			logger.Fatal("--photo-store=postgres requires --dsn")
		}
	case "memory":
		photo = memory.NewPhotoRepo()
	case "mongo":
		ms, err := mongorepo.Connect(ctx, *mongoURI, *mongoDB, logger)
		if err != nil {
			logger.Fatal("connect mongo", zap.Error(err))
		}
		defer func() {
			cctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = ms.Close(cctx)
		}()
		photo = ms.Photos()
		opts = append(opts, httpapi.WithHealthCheck("mongo", ms.Ping))
	default:
		logger.Fatal("unknown --photo-store", zap.String("value", *photoStore))
	}

	// Token revocation
	var deny revoke.Denylist = revoke.NewMemory()
	if *redisAddr != "" {
		rd, err := revoke.DialRedis(ctx, *redisAddr)
		if err != nil {
			logger.Fatal("connect redis", zap.Error(err))
		}
		deny = rd
		opts = append(opts, httpapi.WithHealthCheck("redis", rd.Ping))
	}
	defer func() { _ = deny.Close() }()

	// Services
	authSvc := service.NewAuthService(users, pkgcrypto.NewHasher(pkgcrypto.DefaultParams), []byte(*jwtKey), *accessTTL, lim, deny)
	photoSvc := service.NewPhotoService(photo)

	srv := &http.Server{
		Addr:              *addr,
		Handler:           httpapi.New(authSvc, photoSvc, logger, opts...).Router(),
		ReadHeaderTimeout: 10 * time.Second,
		ErrorLog:          zap.NewStdLog(logger),
	}

	errCh := make(chan error, 1)
	go func() {
		if *certFile != "" {
			logger.Info("listening (TLS)", zap.String("addr", *addr))
			errCh <- srv.ListenAndServeTLS(*certFile, *keyFile)
			return
		}
		logger.Warn("listening without TLS", zap.String("addr", *addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(sctx); err != nil {
			logger.Warn("forced shutdown", zap.Error(err))
			_ = srv.Close()
		}
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", zap.Error(err))
			os.Exit(1)
		}
	}

	logger.Info("shutdown complete")
}
