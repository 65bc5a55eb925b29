package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"pdfquiz/config"
	"pdfquiz/handlers"
	"pdfquiz/logger"
	"pdfquiz/services/llm"
	"pdfquiz/services/pdftext"
	"pdfquiz/services/quiz"

	"github.com/go-chi/cors"
	"github.com/gorilla/mux"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 15 * time.Second

func main() {
	cfg := config.Load()

	log, err := logger.New(cfg.LogMode)
	if err != nil {
		os.Stderr.WriteString("failed to initialize logger: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer log.Sync()

	if err := cfg.Validate(); err != nil {
		log.Fatal("Invalid configuration", "error", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	generator, err := llm.New(ctx, cfg, log)
	if err != nil {
		log.Fatal("Failed to initialize upstream model", "error", err)
	}

	quizService := quiz.NewService(
		pdftext.NewPDFExtractor(),
		generator,
		quiz.Limits{MaxSourceChars: cfg.MaxSourceChars, MaxQuestions: cfg.MaxQuestions},
		log,
	)
	quizHandler := handlers.NewQuizHandler(quizService, cfg.MaxUploadBytes, log)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           newRouter(cfg, log, quizHandler),
		ReadHeaderTimeout: 10 * time.Second,
	}

	if err := run(ctx, srv, log); err != nil {
		log.Fatal("Server failed", "error", err)
	}
}

func newRouter(cfg *config.Config, log *logger.Logger, quizHandler *handlers.QuizHandler) http.Handler {
	router := mux.NewRouter()
	handlers.ConfigureErrorHandlers(router)

	router.Use(jsonMiddleware)

	quizHandler.RegisterRoutes(router)
	router.HandleFunc("/health", healthCheckHandler).Methods(http.MethodGet)

	corsHandler := cors.Handler(cors.Options{
		AllowedOrigins: cfg.CORSOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", handlers.RequestIDHeader},
		ExposedHeaders: []string{handlers.RequestIDHeader},
		MaxAge:         300,
	})
	return corsHandler(handlers.RequestLogger(log)(router))
}

// run serves until ctx is cancelled or the listener fails, then drains
// in-flight requests.
func run(ctx context.Context, srv *http.Server, log *logger.Logger) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info("Server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		log.Info("Shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

func jsonMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		next.ServeHTTP(w, r)
	})
}

func healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status": "healthy"}`))
}
