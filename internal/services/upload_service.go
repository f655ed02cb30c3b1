package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"

	"github.com/maynagashev/pdfmerge/internal/models"
	"github.com/maynagashev/pdfmerge/internal/pdf"
	"github.com/maynagashev/pdfmerge/internal/storage"
)

// Ограничения пакета загрузки.
const (
	MinBatchFiles = 2
	MaxBatchFiles = 10
	MaxFileSize   = 20 << 20 // 20 MiB на файл
)

// Ошибки валидации пакета загрузки.
var (
	ErrTooFewFiles          = errors.New("для склейки нужно загрузить минимум 2 PDF-файла")
	ErrTooManyFiles         = errors.New("можно загрузить не более 10 файлов")
	ErrEmptyFile            = errors.New("файл пуст")
	ErrFileTooLarge         = fmt.Errorf("файл превышает лимит %s", humanize.IBytes(MaxFileSize))
	ErrUnsupportedExtension = errors.New("поддерживаются только файлы с расширением .pdf")
	ErrCorruptPdf           = errors.New("файл повреждён или не является корректным PDF")
)

// UploadedFile — один файл пакета загрузки. Size берётся из multipart-заголовка,
// но реальная длина потока перепроверяется хранилищем при записи.
type UploadedFile struct {
	Name   string
	Size   int64
	Reader io.Reader
}

// UploadService определяет интерфейс приёма пакета файлов.
type UploadService interface {
	ProcessBatch(ctx context.Context, files []UploadedFile) ([]models.StagedFile, error)
}

var _ UploadService = (*uploadService)(nil)

type uploadService struct {
	storage storage.ArtifactStorage
	codec   pdf.Codec
}

// NewUploadService создает новый экземпляр сервиса загрузки.
func NewUploadService(st storage.ArtifactStorage, codec pdf.Codec) UploadService {
	return &uploadService{storage: st, codec: codec}
}

// ProcessBatch валидирует пакет и сохраняет каждый файл как staged-артефакт.
//
// Файлы проверяются в порядке подачи, и при первой же ошибке вызов
// завершается целиком. Файлы, принятые до ошибочного, ОСТАЮТСЯ в хранилище
// и независимо адресуемы по своим ключам: приём не транзакционен, клиент
// узнаёт точку частичного отказа из текста ошибки. Брошенные артефакты
// подберёт фоновая чистка.
func (s *uploadService) ProcessBatch(ctx context.Context, files []UploadedFile) ([]models.StagedFile, error) {
	if len(files) < MinBatchFiles {
		return nil, ErrTooFewFiles
	}
	if len(files) > MaxBatchFiles {
		return nil, ErrTooManyFiles
	}

	staged := make([]models.StagedFile, 0, len(files))
	for _, f := range files {
		if f.Size == 0 {
			return nil, fmt.Errorf("%w: '%s'", ErrEmptyFile, f.Name)
		}
		if f.Size > MaxFileSize {
			return nil, fmt.Errorf("%w: '%s' (%s)", ErrFileTooLarge, f.Name, humanize.IBytes(uint64(f.Size)))
		}
		if !strings.EqualFold(filepath.Ext(f.Name), ".pdf") {
			return nil, fmt.Errorf("%w: '%s'", ErrUnsupportedExtension, f.Name)
		}

		key, err := s.storage.Put(ctx, storage.CategoryStaged, f.Name, f.Reader, f.Size)
		if err != nil {
			log.Printf("[UploadService] Ошибка сохранения файла '%s': %v", f.Name, err)
			return nil, fmt.Errorf("ошибка сохранения файла '%s': %w", f.Name, err)
		}

		// Структуру можно проверить только после записи: кодеку нужен
		// перематываемый источник. Битый файл убираем сразу же.
		if err = s.validateStaged(ctx, key); err != nil {
			s.storage.Delete(ctx, key)
			log.Printf("[UploadService] Файл '%s' не прошёл проверку структуры: %v", f.Name, err)
			return nil, fmt.Errorf("%w: '%s'", ErrCorruptPdf, f.Name)
		}

		staged = append(staged, models.StagedFile{
			ID:           uuid.New().String(),
			OriginalName: storage.SanitizeFilename(f.Name),
			TempName:     key,
			Size:         f.Size,
		})
		log.Printf("[UploadService] Файл '%s' принят как '%s' (%d байт)", f.Name, key, f.Size)
	}

	return staged, nil
}

// validateStaged открывает только что записанный артефакт и убеждается,
// что это корректный PDF хотя бы с одной страницей.
func (s *uploadService) validateStaged(ctx context.Context, key string) error {
	rc, err := s.storage.Open(ctx, key)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := rc.Close(); closeErr != nil {
			log.Printf("[UploadService] Ошибка закрытия артефакта '%s': %v", key, closeErr)
		}
	}()

	pages, err := s.codec.PageCount(rc)
	if err != nil {
		return err
	}
	if pages == 0 {
		return errors.New("документ не содержит страниц")
	}
	return nil
}
