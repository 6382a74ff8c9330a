// Command oneblog serves the blog API: signup, login, password reset by
// emailed code, and per-user blog CRUD.
//
// Configuration comes from the environment, optionally seeded from a .env
// file in the working directory. See Config for the variables.
package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/crypto/bcrypt"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	ob "github.com/panyam/oneblog"
	obgrpc "github.com/panyam/oneblog/grpc"
)

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("Warning: failed to load .env: %v", err)
	}

	cfg := Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	logger := newLogger(os.Stderr, cfg.LogLevel, cfg.LogFormat)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	be, err := openBackends(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to open stores: %v", err)
	}
	defer be.Close(context.Background())

	sender, err := newEmailSender(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to initialize email: %v", err)
	}

	cost := cfg.BcryptCost
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		log.Printf("Warning: BCRYPT_COST %d out of range, using %d", cost, bcrypt.DefaultCost)
		cost = bcrypt.DefaultCost
	}

	app := ob.New("OneBlog")
	app.Users = be.Users
	app.Blogs = be.Blogs
	app.OTCs = be.OTCs
	app.JWTSecretKey = cfg.JWTSecret
	app.Hasher = &ob.BcryptHasher{Cost: cost}
	app.Email = sender
	app.SessionTokenTTL = cfg.SessionTokenTTL
	app.OTCExpiry = cfg.OTCExpiry
	app.EmailTimeout = cfg.EmailTimeout
	app.AllowedOrigins = cfg.FrontendURLs
	app.Logger = logger
	if err := app.Init(); err != nil {
		log.Fatalf("Failed to initialize app: %v", err)
	}

	go reapCodes(ctx, app.Flows.OTC, cfg.OTCReapInterval, logger)

	var grpcServer *grpc.Server
	if cfg.GRPCPort != "" {
		grpcServer, err = startGRPC(cfg.GRPCPort, app.Middleware.Verifier, logger)
		if err != nil {
			log.Fatalf("Failed to start gRPC: %v", err)
		}
	}

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      requestLogger(logger, app.Handler()),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server starting", "addr", server.Addr, "store", cfg.Store, "email", cfg.EmailProvider)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Info("server shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if grpcServer != nil {
		grpcServer.GracefulStop()
	}
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown failed", "error", err)
	}
}

// reapCodes deletes expired reset codes every interval until ctx ends
func reapCodes(ctx context.Context, otc *ob.OTCManager, interval time.Duration, logger *slog.Logger) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := otc.Reap(ctx); err != nil {
				logger.Warn("reaping expired codes failed", "error", err)
			}
		}
	}
}

// newGRPCServer builds a gRPC server exposing the standard health service
// behind the session token interceptors. Health checks stay public.
func newGRPCServer(verifier ob.TokenVerifier) *grpc.Server {
	authCfg := obgrpc.NewInterceptorConfig(verifier,
		"/grpc.health.v1.Health/Check",
		"/grpc.health.v1.Health/Watch",
		"/grpc.health.v1.Health/List")
	server := grpc.NewServer(
		grpc.ChainUnaryInterceptor(obgrpc.UnaryAuthInterceptor(authCfg)),
		grpc.ChainStreamInterceptor(obgrpc.StreamAuthInterceptor(authCfg)),
	)
	healthpb.RegisterHealthServer(server, health.NewServer())
	return server
}

func startGRPC(port string, verifier ob.TokenVerifier, logger *slog.Logger) (*grpc.Server, error) {
	lis, err := net.Listen("tcp", ":"+port)
	if err != nil {
		return nil, err
	}
	server := newGRPCServer(verifier)
	go func() {
		logger.Info("grpc server starting", "addr", lis.Addr().String())
		if err := server.Serve(lis); err != nil {
			logger.Error("grpc server stopped", "error", err)
		}
	}()
	return server, nil
}
