package main

import (
	"flag"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Вспомогательная функция для сброса флагов между тестами.
func resetFlags() {
	flag.CommandLine = flag.NewFlagSet(os.Args[0], flag.ExitOnError)
}

func TestParseFlags(t *testing.T) {
	// Сохраняем оригинальные аргументы командной строки
	originalArgs := os.Args

	// Сохраняем и очищаем переменные окружения
	envKeys := []string{envServerPort, envUploadDir, envStorageBackend, envTLSCertFile, envTLSKeyFile}
	originalEnv := map[string]string{}
	for _, k := range envKeys {
		originalEnv[k] = os.Getenv(k)
		os.Unsetenv(k)
	}
	defer func() {
		for k, v := range originalEnv {
			os.Setenv(k, v)
		}
	}()

	t.Run("Все параметры из флагов", func(t *testing.T) {
		resetFlags()
		defer func() { os.Args = originalArgs }()

		os.Args = []string{"cmd", "-port=9090", "-upload-dir=/tmp/artifacts", "-storage=disk",
			"-cert-file=cert.pem", "-key-file=key.pem"}
		cfg, err := parseFlags()
		require.NoError(t, err)
		assert.Equal(t, "9090", cfg.Port)
		assert.Equal(t, "/tmp/artifacts", cfg.UploadDir)
		assert.Equal(t, storageBackendDisk, cfg.StorageBackend)
		assert.Equal(t, "cert.pem", cfg.CertFile)
		assert.Equal(t, "key.pem", cfg.KeyFile)
	})

	t.Run("Все параметры из переменных окружения", func(t *testing.T) {
		resetFlags()
		defer func() { os.Args = originalArgs }()
		os.Args = []string{"cmd"}

		os.Setenv(envServerPort, "7070")
		os.Setenv(envUploadDir, "/var/pdfmerge")
		os.Setenv(envStorageBackend, storageBackendMinio)
		defer func() {
			os.Unsetenv(envServerPort)
			os.Unsetenv(envUploadDir)
			os.Unsetenv(envStorageBackend)
		}()

		cfg, err := parseFlags()
		require.NoError(t, err)
		assert.Equal(t, "7070", cfg.Port)
		assert.Equal(t, "/var/pdfmerge", cfg.UploadDir)
		assert.Equal(t, storageBackendMinio, cfg.StorageBackend)
	})

	t.Run("Значения по умолчанию", func(t *testing.T) {
		resetFlags()
		defer func() { os.Args = originalArgs }()
		os.Args = []string{"cmd"}

		cfg, err := parseFlags()
		require.NoError(t, err)
		assert.Equal(t, defaultServerPort, cfg.Port)
		assert.Empty(t, cfg.UploadDir)
		assert.Equal(t, storageBackendDisk, cfg.StorageBackend)
		assert.Empty(t, cfg.CertFile)
		assert.Empty(t, cfg.KeyFile)
	})

	t.Run("Неизвестный бэкенд хранилища", func(t *testing.T) {
		resetFlags()
		defer func() { os.Args = originalArgs }()

		os.Args = []string{"cmd", "-storage=postgres"}
		_, err := parseFlags()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "postgres")
	})

	t.Run("TLS только с сертификатом без ключа", func(t *testing.T) {
		resetFlags()
		defer func() { os.Args = originalArgs }()

		os.Args = []string{"cmd", "-cert-file=cert.pem"}
		_, err := parseFlags()
		require.Error(t, err)
	})
}
