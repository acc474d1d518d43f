package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"chessboard/internal/bootstrap"
	"chessboard/microservices/delivery"
	"chessboard/microservices/rpc"
	"chessboard/microservices/rules"
	"chessboard/microservices/usecase"
)

func main() {
	cfg, err := bootstrap.Setup(".env")
	if err != nil {
		panic("failed to setup configuration: " + err.Error())
	}
	logger := NewLogger(cfg.LogDevelopment)
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	engine := rules.NewEngine()

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	delivery.NewRulesHandler(logger, engine).Router(r)
	httpServer := &http.Server{Addr: cfg.AuthorityHttpPort, Handler: r}

	grpcServer := rpc.NewServer()
	rpc.RegisterRulesServer(grpcServer, usecase.NewRulesUseCase(engine, logger))

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Infof("authority HTTP server is running on port %s", cfg.AuthorityHttpPort)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		lis, err := net.Listen("tcp", cfg.AuthorityGrpcPort)
		if err != nil {
			return err
		}
		logger.Infof("authority gRPC server is running on port %s", cfg.AuthorityGrpcPort)
		return grpcServer.Serve(lis)
	})
	g.Go(func() error {
		<-ctx.Done()
		logger.Info("shutting down authority")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		grpcServer.GracefulStop()
		return httpServer.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Errorw("authority stopped", "error", err)
	}
}

func NewLogger(development bool) *zap.SugaredLogger {
	build := zap.NewProduction
	if development {
		build = zap.NewDevelopment
	}
	logger, err := build()
	if err != nil {
		panic("failed to initialize logger: " + err.Error())
	}
	return logger.Sugar()
}
