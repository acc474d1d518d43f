package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"chessboard/internal/adapters"
	"chessboard/internal/bootstrap"
	boardDelivery "chessboard/internal/delivery/board"
	ownMiddleware "chessboard/internal/middleware"
	repo "chessboard/internal/repository"
	boarduc "chessboard/internal/usecase/board"
	"chessboard/microservices/rpc"
)

type mainDeliveryHandler struct {
	board *boardDelivery.BoardHandler
}

type dataBaseAdapters struct {
	redisAdapter *adapters.AdapterRedis
	mongoAdapter *adapters.AdapterMongo
}

func main() {
	cfg, err := bootstrap.Setup(".env")
	if err != nil {
		panic("failed to setup configuration: " + err.Error())
	}
	logger := NewLogger(cfg.LogDevelopment)
	defer logger.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go handleShutdown(cancel, logger)

	databaseAdapters := initDatabaseAdapters(ctx, logger, cfg)
	defer databaseAdapters.mongoAdapter.Close(context.Background())
	defer databaseAdapters.redisAdapter.Close(context.Background())

	authority, closeAuthority := initAuthority(cfg, logger)
	defer closeAuthority()

	r := chi.NewRouter()
	handlers := initializeDeliveryHandlers(cfg, logger, authority, databaseAdapters)
	handlers.Router(r, cfg.IsLocalCors)

	server := &http.Server{Addr: cfg.ServerPort, Handler: r}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	logger.Infof("Server is running on port %s", cfg.ServerPort)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Errorw("Failed to start server", "error", err)
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

func (h *mainDeliveryHandler) Router(r *chi.Mux, isLocalCors bool) {
	if isLocalCors {
		r.Use(ownMiddleware.CORS)
	}
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	h.board.Router(r)
}

func initDatabaseAdapters(ctx context.Context, log *zap.SugaredLogger, cfg *bootstrap.Config) *dataBaseAdapters {
	mongoAdapter := adapters.NewAdapterMongo(cfg, log)
	if err := mongoAdapter.Init(ctx); err != nil {
		log.Fatalw("Failed to initialize MongoDB", "error", err)
	}

	redisAdapter := adapters.NewAdapterRedis(cfg, log)
	if err := redisAdapter.Init(ctx); err != nil {
		log.Fatalw("Failed to initialize Redis", "error", err)
	}

	log.Info("Database adapters initialized")
	return &dataBaseAdapters{
		redisAdapter: redisAdapter,
		mongoAdapter: mongoAdapter,
	}
}

// initAuthority builds the rules authority client for the configured transport.
func initAuthority(cfg *bootstrap.Config, log *zap.SugaredLogger) (boarduc.Authority, func()) {
	if cfg.AuthorityTransport == bootstrap.TransportGRPC {
		conn, err := grpc.NewClient(cfg.AuthorityGrpcAddr, grpc.WithTransportCredentials(insecure.NewCredentials()))
		if err != nil {
			log.Fatalw("Failed to dial authority", "addr", cfg.AuthorityGrpcAddr, "error", err)
		}
		log.Infow("using gRPC rules authority", "addr", cfg.AuthorityGrpcAddr)
		return repo.NewAuthorityGRPCRepository(cfg, log, rpc.NewRulesClient(conn)), func() { _ = conn.Close() }
	}
	log.Infow("using HTTP rules authority", "url", cfg.AuthorityUrl)
	return repo.NewAuthorityHTTPRepository(cfg, log, &http.Client{}), func() {}
}

func initializeDeliveryHandlers(
	cfg *bootstrap.Config,
	log *zap.SugaredLogger,
	authority boarduc.Authority,
	databaseAdapters *dataBaseAdapters,
) *mainDeliveryHandler {
	sessions := repo.NewSessionRedisStorage(databaseAdapters.redisAdapter.GetClient(), log, cfg.SessionTTL)
	bookmarks := repo.NewBookmarkRepository(log, databaseAdapters.mongoAdapter.Database)

	return &mainDeliveryHandler{
		board: boardDelivery.NewBoardHandler(log, authority, sessions, bookmarks, cfg.AuthorityTimeout),
	}
}

func handleShutdown(cancelFunc context.CancelFunc, log *zap.SugaredLogger) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	<-sigs
	log.Info("Received shutdown signal")
	cancelFunc()
}
