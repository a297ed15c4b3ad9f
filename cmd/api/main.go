package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/Erich2020/challenge-server/internal/app"
	"github.com/Erich2020/challenge-server/internal/clock"
	"github.com/Erich2020/challenge-server/internal/config"
	"github.com/Erich2020/challenge-server/internal/domain"
	"github.com/Erich2020/challenge-server/internal/engine"
	"github.com/Erich2020/challenge-server/internal/notify"
	"github.com/Erich2020/challenge-server/internal/storage/postgres"
	transporthttp "github.com/Erich2020/challenge-server/internal/transport/http"
	"github.com/Erich2020/challenge-server/migrations"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	startupCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	pool, err := pgxpool.New(startupCtx, cfg.DatabaseURL)
	if err != nil {
		logger.Fatal("connect to db", zap.Error(err))
	}
	defer pool.Close()

	if err := pool.Ping(startupCtx); err != nil {
		logger.Fatal("db ping", zap.Error(err))
	}
	if err := migrations.Apply(startupCtx, pool); err != nil {
		logger.Fatal("apply migrations", zap.Error(err))
	}

	clk := clock.NewSystem()
	bookingRepo := postgres.NewBookingRepository(pool)
	occurrenceRepo := postgres.NewOccurrenceRepository(pool)
	userRepo := postgres.NewUserRepository(pool)

	bus := engine.NewBus[domain.Booking]()
	reconciler := app.NewBookingReconciler(bookingRepo, occurrenceRepo, clk)
	processor := engine.NewProcessor[domain.Booking](reconciler, bus, logger.Named("processor"),
		engine.WithInterval[domain.Booking](cfg.TickInterval))
	defer processor.Stop()

	bookingSvc := app.NewBookingService(bookingRepo, occurrenceRepo, processor, clk,
		app.WithWaitTimeout(cfg.ConfirmTimeout))
	occurrenceSvc := app.NewOccurrenceService(occurrenceRepo, clk)
	userSvc := app.NewUserService(userRepo, clk, []byte(cfg.JWTSecret),
		app.WithTokenTTL(cfg.TokenTTL), app.WithBcryptCost(cfg.BcryptCost))

	hub := notify.NewHub(logger.Named("notify"))
	defer hub.Close()

	forwarderCtx, stopForwarder := context.WithCancel(context.Background())
	defer stopForwarder()
	forwarder := notify.NewBookingForwarder(bus, hub, logger.Named("forwarder"))
	go forwarder.Run(forwarderCtx)

	secret := []byte(cfg.JWTSecret)
	auth := func(h http.Handler) http.Handler { return transporthttp.RequireAuth(secret, h) }

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", transporthttp.HealthHandler)
	mux.Handle("/users", transporthttp.RequireAPIKey(cfg.APIKey, transporthttp.HandleCreateUser(userSvc)))
	mux.Handle("/users/login", transporthttp.HandleLogin(userSvc))
	mux.Handle("/users/me", auth(transporthttp.HandleMe(userSvc)))
	mux.Handle("/users/me/password", auth(transporthttp.HandleChangePassword(userSvc)))
	mux.Handle("/occurrences", auth(transporthttp.HandleOccurrences(occurrenceSvc)))
	mux.Handle("/occurrences/", auth(transporthttp.HandleOccurrenceByID(occurrenceSvc)))
	mux.Handle("/bookings", auth(transporthttp.HandleBookings(bookingSvc)))
	mux.Handle("/bookings/", auth(dispatchBookings(bookingSvc)))
	mux.Handle("/ws", hub.Handler(transporthttp.TokenUserResolver(secret)))
	mux.Handle("/", transporthttp.NotFoundHandler())

	handler := transporthttp.RequestLogger(transporthttp.CORS(cfg.CORSOrigins, mux), logger.Named("http"))

	server := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: handler,
	}

	logger.Info("api listening", zap.String("port", cfg.Port))

	srvErr := make(chan error, 1)
	go func() {
		srvErr <- server.ListenAndServe()
	}()

	stopCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	select {
	case err := <-srvErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", zap.Error(err))
		}
	case <-stopCtx.Done():
		logger.Info("shutdown signal received, stopping server")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server shutdown error", zap.Error(err))
	}
	logger.Info("server stopped")
}

// dispatchBookings routes the subtree under /bookings/: the cancel action
// has its own handler, everything else is a single-booking path.
func dispatchBookings(svc *app.BookingService) http.Handler {
	cancel := transporthttp.HandleCancelBooking(svc)
	byID := transporthttp.HandleBookingByID(svc)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/cancel") {
			cancel.ServeHTTP(w, r)
			return
		}
		byID.ServeHTTP(w, r)
	})
}
