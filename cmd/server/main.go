package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/maynagashev/pdfmerge/internal/handlers"
	appmiddleware "github.com/maynagashev/pdfmerge/internal/middleware"
	"github.com/maynagashev/pdfmerge/internal/pdf"
	"github.com/maynagashev/pdfmerge/internal/services"
	"github.com/maynagashev/pdfmerge/internal/storage"
)

const (
	defaultReadTimeout = 30 * time.Second
	// Склейка и отдача больших документов могут быть небыстрыми.
	defaultWriteTimeout = 60 * time.Second
	defaultIdleTimeout  = 30 * time.Second

	// Переменные окружения для MinIO (значения по умолчанию из docker-compose).
	envMinioEndpoint     = "MINIO_ENDPOINT"
	envMinioUser         = "MINIO_USER"
	envMinioPassword     = "MINIO_PASSWORD"
	envMinioBucket       = "MINIO_BUCKET"
	defaultMinioEndpoint = "localhost:9000"
	defaultMinioUser     = "minioadmin"
	defaultMinioPassword = "minioadmin"
	defaultMinioBucket   = "pdfmerge-artifacts"
	minioUseSSL          = false // Для локальной разработки
)

// Структура для хранения инициализированных зависимостей.
type dependencies struct {
	store      storage.ArtifactStorage
	cleanup    *services.CleanupService
	pdfHandler *handlers.PDFHandler
}

// main - точка входа. Вызывает run и обрабатывает ошибку.
func main() {
	if err := run(); err != nil {
		log.Printf("Ошибка выполнения сервера: %v", err)
		os.Exit(1)
	}
}

// run содержит основную логику запуска сервера и возвращает ошибку.
func run() error {
	log.Println("Запуск сервера склейки PDF...")

	cfg, err := parseFlags()
	if err != nil {
		return fmt.Errorf("ошибка разбора конфигурации: %w", err)
	}

	deps, err := setupDependencies(cfg)
	if err != nil {
		return fmt.Errorf("ошибка инициализации зависимостей: %w", err)
	}

	r := setupRouter(deps.pdfHandler)

	// Фоновая чистка живёт, пока живёт сервер.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go deps.cleanup.Run(ctx)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      r,
		ReadTimeout:  defaultReadTimeout,
		WriteTimeout: defaultWriteTimeout,
		IdleTimeout:  defaultIdleTimeout,
	}

	if cfg.CertFile != "" && cfg.KeyFile != "" {
		log.Printf("Запуск HTTPS-сервера на порту %s...", cfg.Port)
		err = server.ListenAndServeTLS(cfg.CertFile, cfg.KeyFile)
	} else {
		log.Printf("Запуск HTTP-сервера на порту %s...", cfg.Port)
		err = server.ListenAndServe()
	}
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("ошибка запуска сервера: %w", err)
	}
	return nil
}

// setupDependencies инициализирует и возвращает все необходимые зависимости сервера.
func setupDependencies(cfg *config) (*dependencies, error) {
	var (
		store storage.ArtifactStorage
		err   error
	)

	switch cfg.StorageBackend {
	case storageBackendMinio:
		minioCfg := storage.MinioConfig{
			Endpoint:        getEnv(envMinioEndpoint, defaultMinioEndpoint),
			AccessKeyID:     getEnv(envMinioUser, defaultMinioUser),
			SecretAccessKey: getEnv(envMinioPassword, defaultMinioPassword),
			UseSSL:          minioUseSSL,
			BucketName:      getEnv(envMinioBucket, defaultMinioBucket),
		}
		store, err = storage.NewMinioStorage(minioCfg)
	default:
		store, err = storage.NewDiskStorage(cfg.UploadDir)
	}
	if err != nil {
		return nil, fmt.Errorf("ошибка инициализации хранилища артефактов: %w", err)
	}

	codec := pdf.NewCodec()
	cleanup := services.NewCleanupService(store,
		services.DefaultReapInterval, services.DefaultRetention, services.DefaultDownloadDelay)

	uploadService := services.NewUploadService(store, codec)
	mergeService := services.NewMergeService(store, codec)
	downloadService := services.NewDownloadService(store)

	return &dependencies{
		store:      store,
		cleanup:    cleanup,
		pdfHandler: handlers.NewPDFHandler(uploadService, mergeService, downloadService, cleanup),
	}, nil
}

// setupRouter настраивает и возвращает роутер chi.
func setupRouter(pdfHandler *handlers.PDFHandler) *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/ping", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("pong\n"))
	})

	r.Route("/api", func(r chi.Router) {
		// Лимит на суммарный размер тела действует только на загрузку.
		r.Group(func(r chi.Router) {
			r.Use(appmiddleware.MaxRequestSize(appmiddleware.MaxUploadSize))
			r.Post("/upload", pdfHandler.Upload)
		})
		r.Post("/merge", pdfHandler.Merge)
		r.Get("/download/{key}", pdfHandler.Download)
	})
	return r
}

// getEnv получает значение переменной окружения или возвращает значение по умолчанию.
func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}
