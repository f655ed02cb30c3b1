package main

import (
	"flag"
	"fmt"
	"os"
)

const (
	// Порт по умолчанию для HTTP (непривилегированный).
	defaultServerPort = "8080"

	// Бэкенды хранилища артефактов.
	storageBackendDisk  = "disk"
	storageBackendMinio = "minio"

	// Переменные окружения.
	envServerPort     = "SERVER_PORT"
	envUploadDir      = "UPLOAD_DIR"
	envStorageBackend = "STORAGE_BACKEND"
	envTLSCertFile    = "TLS_CERT_FILE"
	envTLSKeyFile     = "TLS_KEY_FILE"
)

// config хранит конфигурацию сервера.
type config struct {
	Port           string
	UploadDir      string
	StorageBackend string
	CertFile       string
	KeyFile        string
}

// parseFlags разбирает флаги и переменные окружения, возвращает config или ошибку.
func parseFlags() (*config, error) {
	cfg := &config{}

	// Определяем флаги
	flag.StringVar(&cfg.Port, "port", "",
		fmt.Sprintf("Порт для запуска сервера (env: %s, default: %s)", envServerPort, defaultServerPort))
	flag.StringVar(&cfg.UploadDir, "upload-dir", "",
		fmt.Sprintf("Каталог хранения артефактов, пустой — системный temp (env: %s)", envUploadDir))
	flag.StringVar(&cfg.StorageBackend, "storage", "",
		fmt.Sprintf("Бэкенд хранилища: %s или %s (env: %s, default: %s)",
			storageBackendDisk, storageBackendMinio, envStorageBackend, storageBackendDisk))
	flag.StringVar(&cfg.CertFile, "cert-file", "",
		fmt.Sprintf("Путь к файлу TLS-сертификата (env: %s)", envTLSCertFile))
	flag.StringVar(&cfg.KeyFile, "key-file", "",
		fmt.Sprintf("Путь к файлу TLS-ключа (env: %s)", envTLSKeyFile))

	// Парсим флаги
	flag.Parse()

	// Применяем переменные окружения, если флаги не заданы
	if cfg.Port == "" {
		if value, ok := os.LookupEnv(envServerPort); ok {
			cfg.Port = value
		} else {
			cfg.Port = defaultServerPort
		}
	}
	if cfg.UploadDir == "" {
		if value, ok := os.LookupEnv(envUploadDir); ok {
			cfg.UploadDir = value
		}
	}
	if cfg.StorageBackend == "" {
		if value, ok := os.LookupEnv(envStorageBackend); ok {
			cfg.StorageBackend = value
		} else {
			cfg.StorageBackend = storageBackendDisk
		}
	}
	if cfg.CertFile == "" {
		if value, ok := os.LookupEnv(envTLSCertFile); ok {
			cfg.CertFile = value
		}
	}
	if cfg.KeyFile == "" {
		if value, ok := os.LookupEnv(envTLSKeyFile); ok {
			cfg.KeyFile = value
		}
	}

	// Проверяем согласованность параметров
	if cfg.StorageBackend != storageBackendDisk && cfg.StorageBackend != storageBackendMinio {
		return nil, fmt.Errorf("неизвестный бэкенд хранилища '%s' (допустимы %s и %s)",
			cfg.StorageBackend, storageBackendDisk, storageBackendMinio)
	}
	if (cfg.CertFile == "") != (cfg.KeyFile == "") {
		return nil, fmt.Errorf("для TLS нужны оба файла: сертификат (--cert-file или %s) и ключ (--key-file или %s)",
			envTLSCertFile, envTLSKeyFile)
	}

	return cfg, nil
}
