package services

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/maynagashev/pdfmerge/internal/storage"
)

// Ошибки скачивания.
var (
	ErrInvalidKey     = errors.New("некорректный ключ файла")
	ErrResultNotFound = errors.New("файл не найден")
)

// DownloadService определяет интерфейс отдачи result-артефактов.
type DownloadService interface {
	Fetch(ctx context.Context, key string) (io.ReadCloser, error)
}

var _ DownloadService = (*downloadService)(nil)

type downloadService struct {
	storage storage.ArtifactStorage
}

// NewDownloadService создает новый экземпляр сервиса скачивания.
func NewDownloadService(st storage.ArtifactStorage) DownloadService {
	return &downloadService{storage: st}
}

// Fetch возвращает поток result-артефакта по ключу.
// Ключи, не соответствующие схеме имён результатов, отклоняются до любого
// обращения к хранилищу: скачивать разрешено только результаты склейки,
// даже если файл с буквально таким именем существует в том же каталоге.
func (s *downloadService) Fetch(ctx context.Context, key string) (io.ReadCloser, error) {
	if !storage.IsResultKey(key) {
		return nil, ErrInvalidKey
	}
	rc, err := s.storage.Open(ctx, key)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) {
			return nil, ErrResultNotFound
		}
		return nil, fmt.Errorf("ошибка открытия результата '%s': %w", key, err)
	}
	return rc, nil
}
