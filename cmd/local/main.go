package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"diabetes-backend/cmd"
	"diabetes-backend/internal/api"
	"diabetes-backend/internal/core"
	"diabetes-backend/internal/database"
	"diabetes-backend/internal/messaging"
	"diabetes-backend/internal/scorer"
	"diabetes-backend/internal/storage"

	"github.com/caarlos0/env/v11"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"gorm.io/gorm"
)

type Config struct {
	Root     string `env:"ROOT" envDefault:"./diabetes-backend"`
	Port     int    `env:"PORT" envDefault:"3001"`
	ModelDir string `env:"MODEL_DIR" envDefault:""`
}

const modelBucket = "models"

func createDatabase(root string) *gorm.DB {
	path := filepath.Join(root, "db", "diabetes-backend.db")

	db, err := database.NewDatabase(path)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}

	return db
}

// createQueue re-publishes training jobs that were queued when the process
// last stopped, so a restart picks them back up.
func createQueue(db *gorm.DB) *messaging.InMemoryQueue {
	var pending []database.TrainedModel
	if err := db.Where("status = ?", database.ModelQueued).Find(&pending).Error; err != nil {
		log.Fatalf("Failed to fetch pending models from database: %v", err)
	}

	queue := messaging.NewInMemoryQueue()

	for _, m := range pending {
		if err := queue.PublishTrainTask(context.Background(), messaging.TrainTaskPayload{
			ModelId:    m.Id,
			DataBucket: m.DataBucket,
			DataPrefix: m.DataPrefix,
			RegRate:    m.RegRate,
		}); err != nil {
			log.Fatalf("Failed to re-publish train task: %v", err)
		}
	}

	return queue
}

// initScorer loads the serving model, preferring an explicit MODEL_DIR and
// falling back to the registry's active model.
func initScorer(db *gorm.DB, store storage.ObjectStore, root, modelDir string) *scorer.Scorer {
	sc := scorer.New()

	if modelDir != "" {
		if err := sc.InitFromDir(modelDir); err != nil {
			log.Fatalf("Failed to load model from %s: %v", modelDir, err)
		}
		return sc
	}

	var active database.TrainedModel
	if err := db.Where("active = ?", true).First(&active).Error; err != nil {
		slog.Warn("no active model in registry, /score will return errors until a model is trained and activated")
		return sc
	}

	localDir := filepath.Join(root, "models", active.Id.String())
	if err := store.DownloadDir(context.Background(), modelBucket, active.Id.String(), localDir, true); err != nil {
		log.Fatalf("Failed to download active model: %v", err)
	}
	if err := sc.InitFromDir(localDir); err != nil {
		log.Fatalf("Failed to load active model: %v", err)
	}

	return sc
}

func createServer(db *gorm.DB, queue messaging.Publisher, sc *scorer.Scorer, port int) *http.Server {
	r := chi.NewRouter()

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		ExposedHeaders:   []string{"*"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	apiHandler := api.NewBackendService(db, queue, sc)

	r.Route("/api/v1", func(r chi.Router) {
		apiHandler.AddRoutes(r)
	})

	return &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: r,
	}
}

func main() {
	cmd.LoadEnvFile()

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		log.Fatalf("error parsing config: %v", err)
	}

	log.SetFlags(log.LstdFlags | log.Lshortfile)
	if err := os.MkdirAll(cfg.Root, os.ModePerm); err != nil {
		log.Fatalf("error creating root directory: %v", err)
	}

	f, err := os.OpenFile(filepath.Join(cfg.Root, "backend.log"), os.O_RDWR|os.O_CREATE|os.O_APPEND, 0666)
	if err != nil {
		log.Fatalf("error opening log file: %v", err)
	}
	defer f.Close()

	log.SetOutput(io.MultiWriter(f, os.Stderr))

	slog.Info("starting backend", "root", cfg.Root, "port", cfg.Port, "model_dir", cfg.ModelDir)

	db := createDatabase(cfg.Root)

	store, err := storage.NewLocalObjectStore(filepath.Join(cfg.Root, "storage"))
	if err != nil {
		log.Fatalf("Failed to create storage client: %v", err)
	}

	queue := createQueue(db)

	processor := core.NewTaskProcessor(db, store, queue, filepath.Join(cfg.Root, "work"), modelBucket)

	sc := initScorer(db, store, cfg.Root, cfg.ModelDir)

	server := createServer(db, queue, sc, cfg.Port)

	slog.Info("starting worker")
	go processor.Start()

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit
		slog.Info("shutting down server")

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			log.Fatalf("Server forced to shutdown: %v", err)
		}

		slog.Info("shutting down worker")
		processor.Stop()
	}()

	slog.Info("server started", "port", cfg.Port)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("Could not listen on %d: %v\n", cfg.Port, err)
	}

	slog.Info("server stopped")
}
