package storage

import (
	"context"
	"fmt"
	"io"
	"log"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// MinioStorage реализует ArtifactStorage поверх бакета MinIO/S3.
// Альтернатива дисковому хранилищу для окружений, где каталог временных
// файлов недоступен; контракт тот же, включая идемпотентное удаление.
type MinioStorage struct {
	client     *minio.Client
	bucketName string
}

var _ ArtifactStorage = (*MinioStorage)(nil)

// MinioConfig содержит параметры для подключения к MinIO.
type MinioConfig struct {
	Endpoint        string // Адрес MinIO (например, "localhost:9000")
	AccessKeyID     string // Логин
	SecretAccessKey string // Пароль
	UseSSL          bool   // Использовать SSL (обычно false для локальной разработки)
	BucketName      string // Имя бакета для хранения артефактов
	Region          string // Регион (не обязательно для MinIO, но может требоваться)
}

// NewMinioStorage создает хранилище артефактов в бакете MinIO.
func NewMinioStorage(cfg MinioConfig) (*MinioStorage, error) {
	log.Printf("[MinioStorage] Инициализация клиента MinIO для эндпоинта %s...", cfg.Endpoint)

	minioClient, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("ошибка инициализации клиента MinIO: %w", err)
	}

	// Проверка существования бакета и создание при необходимости
	ctx := context.Background()
	exists, err := minioClient.BucketExists(ctx, cfg.BucketName)
	if err != nil {
		return nil, fmt.Errorf("ошибка проверки существования бакета '%s': %w", cfg.BucketName, err)
	}
	if !exists {
		log.Printf("[MinioStorage] Бакет '%s' не найден, попытка создания...", cfg.BucketName)
		err = minioClient.MakeBucket(ctx, cfg.BucketName, minio.MakeBucketOptions{Region: cfg.Region})
		if err != nil {
			return nil, fmt.Errorf("ошибка создания бакета '%s': %w", cfg.BucketName, err)
		}
		log.Printf("[MinioStorage] Бакет '%s' успешно создан.", cfg.BucketName)
	}

	log.Printf("[MinioStorage] Клиент MinIO успешно инициализирован для бакета '%s'.", cfg.BucketName)
	return &MinioStorage{
		client:     minioClient,
		bucketName: cfg.BucketName,
	}, nil
}

// Put сохраняет поток как новый объект бакета и возвращает его ключ.
func (s *MinioStorage) Put(
	ctx context.Context,
	category Category,
	suggestedName string,
	reader io.Reader,
	size int64,
) (string, error) {
	key := NewKey(category, suggestedName)

	uploadInfo, err := s.client.PutObject(ctx, s.bucketName, key, reader, size, minio.PutObjectOptions{
		ContentType: "application/pdf",
	})
	if err != nil {
		return "", fmt.Errorf("ошибка загрузки артефакта '%s' в MinIO: %w", key, err)
	}

	log.Printf("[MinioStorage] Артефакт '%s' записан (%d байт, ETag: %s)", key, uploadInfo.Size, uploadInfo.ETag)
	return key, nil
}

// Exists сообщает, существует ли объект с данным ключом прямо сейчас.
func (s *MinioStorage) Exists(ctx context.Context, key string) bool {
	if !isFlatName(key) {
		return false
	}
	_, err := s.client.StatObject(ctx, s.bucketName, key, minio.StatObjectOptions{})
	return err == nil
}

// Open открывает объект на чтение. GetObject ленив, поэтому наличие
// объекта принудительно проверяется через Stat — иначе "NoSuchKey"
// всплывёт только при первом чтении.
func (s *MinioStorage) Open(ctx context.Context, key string) (io.ReadSeekCloser, error) {
	if !isFlatName(key) {
		return nil, ErrObjectNotFound
	}
	object, err := s.client.GetObject(ctx, s.bucketName, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("ошибка получения артефакта '%s' из MinIO: %w", key, err)
	}
	if _, statErr := object.Stat(); statErr != nil {
		_ = object.Close()
		if minio.ToErrorResponse(statErr).Code == "NoSuchKey" {
			return nil, ErrObjectNotFound
		}
		return nil, fmt.Errorf("ошибка чтения метаданных артефакта '%s': %w", key, statErr)
	}
	return object, nil
}

// Delete удаляет объект. RemoveObject в S3 идемпотентен и не различает
// "удалил" и "не было", поэтому сначала пробуем Stat.
func (s *MinioStorage) Delete(ctx context.Context, key string) bool {
	if !isFlatName(key) {
		return false
	}
	if _, err := s.client.StatObject(ctx, s.bucketName, key, minio.StatObjectOptions{}); err != nil {
		return false
	}
	if err := s.client.RemoveObject(ctx, s.bucketName, key, minio.RemoveObjectOptions{}); err != nil {
		log.Printf("[MinioStorage] Не удалось удалить артефакт '%s': %v", key, err)
		return false
	}
	return true
}

// List перечисляет объекты категории с их возрастом.
func (s *MinioStorage) List(ctx context.Context, category Category) ([]ArtifactInfo, error) {
	now := time.Now()
	var infos []ArtifactInfo
	for object := range s.client.ListObjects(ctx, s.bucketName, minio.ListObjectsOptions{
		Prefix: category.prefix(),
	}) {
		if object.Err != nil {
			return nil, fmt.Errorf("ошибка перечисления бакета '%s': %w", s.bucketName, object.Err)
		}
		infos = append(infos, ArtifactInfo{Key: object.Key, Age: now.Sub(object.LastModified)})
	}
	return infos, nil
}
